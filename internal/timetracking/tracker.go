package timetracking

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/erfasst/erfasst-mcp/internal/graphql"
)

// Tracker implements TimeTracker against the 123erfasst GraphQL API. It is
// a two-state machine (idle, active) holding the ident of the active record.
// Start and Stop hold the mutex for the duration of the call, so concurrent
// transitions serialize and the state can never double-start.
type Tracker struct {
	client graphql.Client

	mu       sync.Mutex
	activeID string

	now func() time.Time
}

// NewTracker returns an idle Tracker backed by the provided GraphQL client.
func NewTracker(client graphql.Client) *Tracker {
	if client == nil {
		panic("graphql client must not be nil")
	}
	return &Tracker{client: client, now: time.Now}
}

// Start begins a new tracking session for the given project and person.
// Returns ErrTrackingActive if a session is already active.
func (t *Tracker) Start(ctx context.Context, projectID, personID, description string) (*StaffTime, error) {
	if strings.TrimSpace(projectID) == "" {
		return nil, fmt.Errorf("timetracking: project id is required")
	}
	if strings.TrimSpace(personID) == "" {
		return nil, fmt.Errorf("timetracking: person id is required")
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.activeID != "" {
		return nil, ErrTrackingActive
	}

	const mutation = `mutation CreateStaffTime($projectId: ID!, $personId: ID!, $description: String, $startTime: String!) {
		createStaffTime(input: {
			projectId: $projectId
			personId: $personId
			description: $description
			startTime: $startTime
			isActive: true
		}) {
			id
			projectId
			personId
			startTime
			isActive
		}
	}`

	variables := map[string]any{
		"projectId":   projectID,
		"personId":    personID,
		"description": description,
		"startTime":   t.now().Format(time.RFC3339),
	}

	raw, err := t.client.Mutation(ctx, mutation, variables)
	if err != nil {
		return nil, fmt.Errorf("timetracking: start: %w", err)
	}

	var resp struct {
		CreateStaffTime *StaffTime `json:"createStaffTime"`
	}
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("timetracking: unmarshal response: %w", err)
	}
	if resp.CreateStaffTime == nil {
		return nil, fmt.Errorf("timetracking: create returned no record")
	}

	t.activeID = resp.CreateStaffTime.ID
	return resp.CreateStaffTime, nil
}

// Stop ends the active tracking session. Returns ErrTrackingNotActive when
// the tracker is idle.
func (t *Tracker) Stop(ctx context.Context) (*StaffTime, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.activeID == "" {
		return nil, ErrTrackingNotActive
	}

	const mutation = `mutation UpdateStaffTime($id: ID!, $endTime: String!) {
		updateStaffTime(id: $id, input: {
			endTime: $endTime
			isActive: false
		}) {
			id
			endTime
			durationHours
			isActive
		}
	}`

	variables := map[string]any{
		"id":      t.activeID,
		"endTime": t.now().Format(time.RFC3339),
	}

	raw, err := t.client.Mutation(ctx, mutation, variables)
	if err != nil {
		return nil, fmt.Errorf("timetracking: stop: %w", err)
	}

	var resp struct {
		UpdateStaffTime *StaffTime `json:"updateStaffTime"`
	}
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("timetracking: unmarshal response: %w", err)
	}
	if resp.UpdateStaffTime == nil {
		return nil, fmt.Errorf("timetracking: update returned no record")
	}

	t.activeID = ""
	return resp.UpdateStaffTime, nil
}

// Status reports whether a session is active and, if so, its record ident.
func (t *Tracker) Status() Status {
	t.mu.Lock()
	defer t.mu.Unlock()
	return Status{Active: t.activeID != "", TrackingID: t.activeID}
}

// timesResponse is the envelope for the times collection query.
type timesResponse struct {
	Times struct {
		Nodes      []TimeRecord `json:"nodes"`
		TotalCount int          `json:"totalCount"`
	} `json:"times"`
}

const timesQuery = `query GetStaffTimes { times { nodes { ident person { firstname lastname formattedName } project { name } } totalCount } }`

func (t *Tracker) fetchTimes(ctx context.Context) ([]TimeRecord, error) {
	raw, err := t.client.Query(ctx, timesQuery, nil)
	if err != nil {
		return nil, fmt.Errorf("timetracking: execute query: %w", err)
	}

	var resp timesResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("timetracking: unmarshal response: %w", err)
	}

	nodes := resp.Times.Nodes
	if nodes == nil {
		nodes = []TimeRecord{}
	}
	return nodes, nil
}

// CurrentTimes returns the current time tracking records.
// TODO: filter to active records once the schema exposes an isActive
// field on the times collection.
func (t *Tracker) CurrentTimes(ctx context.Context) ([]TimeRecord, error) {
	return t.fetchTimes(ctx)
}

// History returns past time tracking records, newest ordering as returned
// by the API, limited to limit entries when limit is positive.
func (t *Tracker) History(ctx context.Context, limit int) ([]TimeRecord, error) {
	list, err := t.fetchTimes(ctx)
	if err != nil {
		return nil, err
	}
	if limit > 0 && len(list) > limit {
		list = list[:limit]
	}
	return list, nil
}

// Compile-time interface check.
var _ TimeTracker = (*Tracker)(nil)
