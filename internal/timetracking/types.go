// Package timetracking provides staff time tracking via the 123erfasst
// GraphQL API. A Tracker owns at most one active tracking session and
// guards start/stop transitions with a mutex so concurrent callers cannot
// double-start or double-stop.
package timetracking

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Sentinel errors for invalid state transitions.
var (
	ErrTrackingActive    = errors.New("timetracking: tracking is already active, stop it first")
	ErrTrackingNotActive = errors.New("timetracking: no active tracking to stop")
)

// StaffTime is a time tracking record as returned by the create and update
// mutations.
type StaffTime struct {
	ID            string     `json:"id"`
	ProjectID     string     `json:"projectId,omitempty"`
	PersonID      string     `json:"personId,omitempty"`
	StartTime     *time.Time `json:"startTime,omitempty"`
	EndTime       *time.Time `json:"endTime,omitempty"`
	DurationHours float64    `json:"durationHours,omitempty"`
	Description   string     `json:"description,omitempty"`
	IsActive      bool       `json:"isActive"`
}

// Validate checks structural invariants on a StaffTime record: identifiers
// must be non-blank, the end time must be after the start time, and the
// duration must not be negative.
func (s StaffTime) Validate() error {
	if strings.TrimSpace(s.ID) == "" {
		return fmt.Errorf("stafftime: id is required")
	}
	if strings.TrimSpace(s.ProjectID) == "" {
		return fmt.Errorf("stafftime: project id is required")
	}
	if strings.TrimSpace(s.PersonID) == "" {
		return fmt.Errorf("stafftime: person id is required")
	}
	if s.StartTime != nil && s.EndTime != nil && !s.EndTime.After(*s.StartTime) {
		return fmt.Errorf("stafftime: end time must be after start time")
	}
	if s.DurationHours < 0 {
		return fmt.Errorf("stafftime: duration hours cannot be negative")
	}
	return nil
}

// Duration returns the record's duration in hours, deriving it from the
// start and end times when the API did not supply one.
func (s StaffTime) Duration() float64 {
	if s.DurationHours > 0 {
		return s.DurationHours
	}
	if s.StartTime != nil && s.EndTime != nil && s.EndTime.After(*s.StartTime) {
		return s.EndTime.Sub(*s.StartTime).Hours()
	}
	return 0
}

// TimeRecord is a time tracking entry as returned by the times collection
// query, which carries the person and project display fields rather than
// raw identifiers.
type TimeRecord struct {
	Ident  string `json:"ident"`
	Person struct {
		Firstname     string `json:"firstname,omitempty"`
		Lastname      string `json:"lastname,omitempty"`
		FormattedName string `json:"formattedName,omitempty"`
	} `json:"person"`
	Project struct {
		Name string `json:"name,omitempty"`
	} `json:"project"`
}

// Status describes a Tracker's current state.
type Status struct {
	Active     bool   `json:"active"`
	TrackingID string `json:"trackingId,omitempty"`
}

// TimeTracker defines the operations the time tracking tools need.
type TimeTracker interface {
	Start(ctx context.Context, projectID, personID, description string) (*StaffTime, error)
	Stop(ctx context.Context) (*StaffTime, error)
	Status() Status
	CurrentTimes(ctx context.Context) ([]TimeRecord, error)
	History(ctx context.Context, limit int) ([]TimeRecord, error)
}
