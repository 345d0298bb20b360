package staff

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/erfasst/erfasst-mcp/internal/graphql"
)

// ---------------------------------------------------------------------------
// Mock client
// ---------------------------------------------------------------------------

type mockClient struct {
	queryFn    func(ctx context.Context, query string, variables map[string]any) (json.RawMessage, error)
	mutationFn func(ctx context.Context, mutation string, variables map[string]any) (json.RawMessage, error)
}

func (m *mockClient) Query(ctx context.Context, query string, variables map[string]any) (json.RawMessage, error) {
	return m.queryFn(ctx, query, variables)
}

func (m *mockClient) Mutation(ctx context.Context, mutation string, variables map[string]any) (json.RawMessage, error) {
	return m.mutationFn(ctx, mutation, variables)
}

var _ graphql.Client = (*mockClient)(nil)

func collectionJSON(t *testing.T, list []Person) json.RawMessage {
	t.Helper()
	payload := map[string]any{
		"persons": map[string]any{
			"nodes":      list,
			"totalCount": len(list),
		},
	}
	data, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal collection: %v", err)
	}
	return data
}

// ---------------------------------------------------------------------------
// Constructor
// ---------------------------------------------------------------------------

func Test_NewGraphQLStaffManager_NilClientPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic for nil client")
		}
	}()
	NewGraphQLStaffManager(nil)
}

// ---------------------------------------------------------------------------
// Query selection set
// ---------------------------------------------------------------------------

// The filters in List read Role and IsActive off the unmarshaled records, so
// the collection query must select those fields or the filters match nothing.
func Test_ListQuery_SelectsFilterableFields(t *testing.T) {
	for _, field := range []string{"ident", "formattedName", "role", "isActive"} {
		if !strings.Contains(listQuery, field) {
			t.Errorf("listQuery does not select %q", field)
		}
	}
}

// ---------------------------------------------------------------------------
// List / ByRole / Active
// ---------------------------------------------------------------------------

func boolPtr(b bool) *bool { return &b }

func Test_StaffList_Cases(t *testing.T) {
	sample := []Person{
		{Ident: "S-1", FormattedName: "Anna Schmidt", Role: "Engineer", IsActive: true},
		{Ident: "S-2", FormattedName: "Ben Müller", Role: "Site Manager"},
		{Ident: "S-3", FormattedName: "Chris Weber", Role: "engineer", IsActive: true},
	}

	tests := []struct {
		name       string
		opts       ListOptions
		wantIdents []string
	}{
		{
			name:       "no options",
			opts:       ListOptions{},
			wantIdents: []string{"S-1", "S-2", "S-3"},
		},
		{
			name:       "role filter is case insensitive",
			opts:       ListOptions{Role: "Engineer"},
			wantIdents: []string{"S-1", "S-3"},
		},
		{
			name:       "active only",
			opts:       ListOptions{Active: boolPtr(true)},
			wantIdents: []string{"S-1", "S-3"},
		},
		{
			name:       "inactive only",
			opts:       ListOptions{Active: boolPtr(false)},
			wantIdents: []string{"S-2"},
		},
		{
			name:       "role and active combine",
			opts:       ListOptions{Role: "engineer", Active: boolPtr(true)},
			wantIdents: []string{"S-1", "S-3"},
		},
		{
			name:       "limit",
			opts:       ListOptions{Limit: 1},
			wantIdents: []string{"S-1"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := &mockClient{
				queryFn: func(ctx context.Context, query string, variables map[string]any) (json.RawMessage, error) {
					return collectionJSON(t, sample), nil
				},
			}
			mgr := NewGraphQLStaffManager(client)

			list, err := mgr.List(context.Background(), tt.opts)
			if err != nil {
				t.Fatalf("List: %v", err)
			}
			if len(list) != len(tt.wantIdents) {
				t.Fatalf("got %d persons, want %d", len(list), len(tt.wantIdents))
			}
			for i, want := range tt.wantIdents {
				if list[i].Ident != want {
					t.Errorf("list[%d].Ident = %q, want %q", i, list[i].Ident, want)
				}
			}
		})
	}
}

func Test_StaffByRole_DelegatesToList(t *testing.T) {
	client := &mockClient{
		queryFn: func(ctx context.Context, query string, variables map[string]any) (json.RawMessage, error) {
			return collectionJSON(t, []Person{
				{Ident: "S-1", FormattedName: "Anna Schmidt", Role: "Engineer"},
				{Ident: "S-2", FormattedName: "Ben Müller", Role: "Worker"},
			}), nil
		},
	}
	mgr := NewGraphQLStaffManager(client)

	list, err := mgr.ByRole(context.Background(), "Worker")
	if err != nil {
		t.Fatalf("ByRole: %v", err)
	}
	if len(list) != 1 || list[0].Ident != "S-2" {
		t.Errorf("got %v, want only S-2", list)
	}
}

// ByRole must see role data coming back from the wire, not just struct
// fields injected by a helper.
func Test_StaffByRole_FiltersOnWireData(t *testing.T) {
	client := &mockClient{
		queryFn: func(ctx context.Context, query string, variables map[string]any) (json.RawMessage, error) {
			if !strings.Contains(query, "role") {
				t.Fatal("collection query does not select role")
			}
			return json.RawMessage(`{"persons":{"nodes":[
				{"ident":"S-1","formattedName":"Anna Schmidt","role":"Engineer"},
				{"ident":"S-2","formattedName":"Ben Müller","role":"Worker"}
			],"totalCount":2}}`), nil
		},
	}
	mgr := NewGraphQLStaffManager(client)

	list, err := mgr.ByRole(context.Background(), "Engineer")
	if err != nil {
		t.Fatalf("ByRole: %v", err)
	}
	if len(list) != 1 || list[0].Ident != "S-1" {
		t.Errorf("got %v, want only S-1", list)
	}
}

func Test_StaffActive_DelegatesToList(t *testing.T) {
	client := &mockClient{
		queryFn: func(ctx context.Context, query string, variables map[string]any) (json.RawMessage, error) {
			return collectionJSON(t, []Person{
				{Ident: "S-1", FormattedName: "Anna Schmidt", IsActive: true},
				{Ident: "S-2", FormattedName: "Ben Müller"},
			}), nil
		},
	}
	mgr := NewGraphQLStaffManager(client)

	list, err := mgr.Active(context.Background())
	if err != nil {
		t.Fatalf("Active: %v", err)
	}
	if len(list) != 1 || list[0].Ident != "S-1" {
		t.Errorf("got %v, want only S-1", list)
	}
}

// ---------------------------------------------------------------------------
// ByProject
// ---------------------------------------------------------------------------

func Test_StaffByProject(t *testing.T) {
	client := &mockClient{
		queryFn: func(ctx context.Context, query string, variables map[string]any) (json.RawMessage, error) {
			if !strings.Contains(query, "assignedProjects") {
				t.Errorf("query = %q, want the upstream assignment filter", query)
			}
			if variables["projectId"] != "P-1" {
				t.Errorf("variables['projectId'] = %v, want P-1", variables["projectId"])
			}
			return collectionJSON(t, []Person{
				{Ident: "S-1", FormattedName: "Anna Schmidt", IsActive: true},
			}), nil
		},
	}
	mgr := NewGraphQLStaffManager(client)

	list, err := mgr.ByProject(context.Background(), "P-1")
	if err != nil {
		t.Fatalf("ByProject: %v", err)
	}
	if len(list) != 1 || list[0].Ident != "S-1" {
		t.Errorf("got %v, want only S-1", list)
	}
}

func Test_StaffByProject_EmptyCollection_IsNonNil(t *testing.T) {
	client := &mockClient{
		queryFn: func(ctx context.Context, query string, variables map[string]any) (json.RawMessage, error) {
			return json.RawMessage(`{"persons":{"nodes":null,"totalCount":0}}`), nil
		},
	}
	mgr := NewGraphQLStaffManager(client)

	list, err := mgr.ByProject(context.Background(), "P-404")
	if err != nil {
		t.Fatalf("ByProject: %v", err)
	}
	if list == nil {
		t.Error("empty collection should yield a non-nil slice")
	}
}

// ---------------------------------------------------------------------------
// Get
// ---------------------------------------------------------------------------

func Test_StaffGet_Found(t *testing.T) {
	client := &mockClient{
		queryFn: func(ctx context.Context, query string, variables map[string]any) (json.RawMessage, error) {
			if variables["id"] != "S-1" {
				t.Errorf("variables['id'] = %v, want S-1", variables["id"])
			}
			return json.RawMessage(`{"person":{"ident":"S-1","firstname":"Anna","lastname":"Schmidt","formattedName":"Anna Schmidt"}}`), nil
		},
	}
	mgr := NewGraphQLStaffManager(client)

	p, err := mgr.Get(context.Background(), "S-1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if p.FormattedName != "Anna Schmidt" {
		t.Errorf("FormattedName = %q", p.FormattedName)
	}
}

func Test_StaffGet_NullPerson_IsNotFound(t *testing.T) {
	client := &mockClient{
		queryFn: func(ctx context.Context, query string, variables map[string]any) (json.RawMessage, error) {
			return json.RawMessage(`{"person":null}`), nil
		},
	}
	mgr := NewGraphQLStaffManager(client)

	_, err := mgr.Get(context.Background(), "S-404")
	var nf *NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("error type = %T, want *NotFoundError", err)
	}
	if nf.Ident != "S-404" {
		t.Errorf("Ident = %q, want S-404", nf.Ident)
	}
}

// ---------------------------------------------------------------------------
// Search
// ---------------------------------------------------------------------------

func Test_StaffSearch_Cases(t *testing.T) {
	sample := []Person{
		{Ident: "S-1", FormattedName: "Anna Schmidt"},
		{Ident: "S-2", FormattedName: "Ben Schmidtke"},
		{Ident: "S-3", FormattedName: "Chris Weber"},
	}

	tests := []struct {
		name       string
		query      string
		limit      int
		wantIdents []string
	}{
		{
			name:       "case insensitive substring",
			query:      "schmidt",
			wantIdents: []string{"S-1", "S-2"},
		},
		{
			name:       "limit applies after matching",
			query:      "schmidt",
			limit:      1,
			wantIdents: []string{"S-1"},
		},
		{
			name:       "no matches",
			query:      "nobody",
			wantIdents: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := &mockClient{
				queryFn: func(ctx context.Context, query string, variables map[string]any) (json.RawMessage, error) {
					return collectionJSON(t, sample), nil
				},
			}
			mgr := NewGraphQLStaffManager(client)

			list, err := mgr.Search(context.Background(), tt.query, tt.limit)
			if err != nil {
				t.Fatalf("Search: %v", err)
			}
			if len(list) != len(tt.wantIdents) {
				t.Fatalf("got %d persons, want %d", len(list), len(tt.wantIdents))
			}
			for i, want := range tt.wantIdents {
				if list[i].Ident != want {
					t.Errorf("list[%d].Ident = %q, want %q", i, list[i].Ident, want)
				}
			}
		})
	}
}

// ---------------------------------------------------------------------------
// Statistics
// ---------------------------------------------------------------------------

func Test_StaffStatistics(t *testing.T) {
	client := &mockClient{
		queryFn: func(ctx context.Context, query string, variables map[string]any) (json.RawMessage, error) {
			return json.RawMessage(`{"persons":{"totalCount":42}}`), nil
		},
	}
	mgr := NewGraphQLStaffManager(client)

	stats, err := mgr.Statistics(context.Background())
	if err != nil {
		t.Fatalf("Statistics: %v", err)
	}
	if stats.TotalStaff != 42 {
		t.Errorf("TotalStaff = %d, want 42", stats.TotalStaff)
	}
}

// ---------------------------------------------------------------------------
// Person.Validate
// ---------------------------------------------------------------------------

func Test_Person_Validate_Cases(t *testing.T) {
	tests := []struct {
		name    string
		person  Person
		wantErr bool
	}{
		{
			name:   "valid with formatted name",
			person: Person{Ident: "S-1", FormattedName: "Anna Schmidt"},
		},
		{
			name:   "valid with first name only",
			person: Person{Ident: "S-1", Firstname: "Anna"},
		},
		{
			name:    "missing ident",
			person:  Person{FormattedName: "Anna Schmidt"},
			wantErr: true,
		},
		{
			name:    "no name at all",
			person:  Person{Ident: "S-1"},
			wantErr: true,
		},
		{
			name:   "valid phone",
			person: Person{Ident: "S-1", FormattedName: "Anna", Phone: "+49 170 1234567"},
		},
		{
			name:    "phone with too few digits",
			person:  Person{Ident: "S-1", FormattedName: "Anna", Phone: "12345"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.person.Validate()
			if tt.wantErr && err == nil {
				t.Error("expected error, got nil")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}
