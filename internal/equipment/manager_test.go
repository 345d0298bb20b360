package equipment

import (
	"context"
	"encoding/json"
	"errors"
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

func collectionJSON(t *testing.T, list []Equipment) json.RawMessage {
	t.Helper()
	payload := map[string]any{
		"equipments": map[string]any{
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

func sampleFleet() []Equipment {
	return []Equipment{
		{Ident: "E-1", Name: "Excavator CAT 320", Type: "excavator", Status: "operational", AssignedProjectID: "P-1"},
		{Ident: "E-2", Name: "Tower Crane Liebherr", Type: "crane", Status: "maintenance", AssignedPersonID: "S-1"},
		{Ident: "E-3", Name: "Mini Excavator Kubota", Type: "Excavator", Status: "operational", AssignedProjectID: "P-2"},
	}
}

// ---------------------------------------------------------------------------
// Constructor
// ---------------------------------------------------------------------------

func Test_NewGraphQLEquipmentManager_NilClientPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic for nil client")
		}
	}()
	NewGraphQLEquipmentManager(nil)
}

// ---------------------------------------------------------------------------
// List / Search filtering
// ---------------------------------------------------------------------------

func Test_EquipmentList_Cases(t *testing.T) {
	tests := []struct {
		name       string
		opts       ListOptions
		wantIdents []string
	}{
		{
			name:       "no options",
			opts:       ListOptions{},
			wantIdents: []string{"E-1", "E-2", "E-3"},
		},
		{
			name:       "status filter is exact",
			opts:       ListOptions{Status: "operational"},
			wantIdents: []string{"E-1", "E-3"},
		},
		{
			name:       "type filter is case insensitive",
			opts:       ListOptions{Type: "excavator"},
			wantIdents: []string{"E-1", "E-3"},
		},
		{
			name:       "status and type combine",
			opts:       ListOptions{Status: "maintenance", Type: "crane"},
			wantIdents: []string{"E-2"},
		},
		{
			name:       "limit",
			opts:       ListOptions{Limit: 2},
			wantIdents: []string{"E-1", "E-2"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := &mockClient{
				queryFn: func(ctx context.Context, query string, variables map[string]any) (json.RawMessage, error) {
					return collectionJSON(t, sampleFleet()), nil
				},
			}
			mgr := NewGraphQLEquipmentManager(client)

			list, err := mgr.List(context.Background(), tt.opts)
			if err != nil {
				t.Fatalf("List: %v", err)
			}
			if len(list) != len(tt.wantIdents) {
				t.Fatalf("got %d records, want %d", len(list), len(tt.wantIdents))
			}
			for i, want := range tt.wantIdents {
				if list[i].Ident != want {
					t.Errorf("list[%d].Ident = %q, want %q", i, list[i].Ident, want)
				}
			}
		})
	}
}

func Test_EquipmentList_EmptyCollection_IsNonNil(t *testing.T) {
	client := &mockClient{
		queryFn: func(ctx context.Context, query string, variables map[string]any) (json.RawMessage, error) {
			return json.RawMessage(`{"equipments":{"nodes":null,"totalCount":0}}`), nil
		},
	}
	mgr := NewGraphQLEquipmentManager(client)

	list, err := mgr.List(context.Background(), ListOptions{})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if list == nil {
		t.Error("empty collection should yield a non-nil slice")
	}
	if len(list) != 0 {
		t.Errorf("got %d records, want 0", len(list))
	}
}

func Test_EquipmentSearch_MatchesNameThenAppliesOptions(t *testing.T) {
	client := &mockClient{
		queryFn: func(ctx context.Context, query string, variables map[string]any) (json.RawMessage, error) {
			return collectionJSON(t, sampleFleet()), nil
		},
	}
	mgr := NewGraphQLEquipmentManager(client)

	list, err := mgr.Search(context.Background(), "excavator", ListOptions{Limit: 1})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(list) != 1 || list[0].Ident != "E-1" {
		t.Errorf("got %v, want only E-1", list)
	}
}

// ---------------------------------------------------------------------------
// Get
// ---------------------------------------------------------------------------

func Test_EquipmentGet_NullRecord_IsNotFound(t *testing.T) {
	client := &mockClient{
		queryFn: func(ctx context.Context, query string, variables map[string]any) (json.RawMessage, error) {
			return json.RawMessage(`{"equipment":null}`), nil
		},
	}
	mgr := NewGraphQLEquipmentManager(client)

	_, err := mgr.Get(context.Background(), "E-404")
	var nf *NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("error type = %T, want *NotFoundError", err)
	}
	if nf.Ident != "E-404" {
		t.Errorf("Ident = %q, want E-404", nf.Ident)
	}
}

// ---------------------------------------------------------------------------
// ByProject / ByPerson
// ---------------------------------------------------------------------------

func Test_EquipmentByProject(t *testing.T) {
	client := &mockClient{
		queryFn: func(ctx context.Context, query string, variables map[string]any) (json.RawMessage, error) {
			return collectionJSON(t, sampleFleet()), nil
		},
	}
	mgr := NewGraphQLEquipmentManager(client)

	list, err := mgr.ByProject(context.Background(), "P-1")
	if err != nil {
		t.Fatalf("ByProject: %v", err)
	}
	if len(list) != 1 || list[0].Ident != "E-1" {
		t.Errorf("got %v, want only E-1", list)
	}
}

func Test_EquipmentByPerson(t *testing.T) {
	client := &mockClient{
		queryFn: func(ctx context.Context, query string, variables map[string]any) (json.RawMessage, error) {
			return collectionJSON(t, sampleFleet()), nil
		},
	}
	mgr := NewGraphQLEquipmentManager(client)

	list, err := mgr.ByPerson(context.Background(), "S-1")
	if err != nil {
		t.Fatalf("ByPerson: %v", err)
	}
	if len(list) != 1 || list[0].Ident != "E-2" {
		t.Errorf("got %v, want only E-2", list)
	}
}

// ---------------------------------------------------------------------------
// Create / Update
// ---------------------------------------------------------------------------

func Test_EquipmentCreate_InvalidInput_NoNetworkCall(t *testing.T) {
	client := &mockClient{
		mutationFn: func(ctx context.Context, mutation string, variables map[string]any) (json.RawMessage, error) {
			t.Fatal("mutation must not be sent for invalid input")
			return nil, nil
		},
	}
	mgr := NewGraphQLEquipmentManager(client)

	_, err := mgr.Create(context.Background(), CreateEquipmentInput{Status: "operational"})
	if err == nil {
		t.Fatal("expected validation error for missing name")
	}
}

func Test_EquipmentCreate_HappyPath(t *testing.T) {
	client := &mockClient{
		mutationFn: func(ctx context.Context, mutation string, variables map[string]any) (json.RawMessage, error) {
			input, ok := variables["input"].(CreateEquipmentInput)
			if !ok {
				t.Fatalf("variables['input'] type = %T", variables["input"])
			}
			if input.Name != "Dump Truck" {
				t.Errorf("input.Name = %q", input.Name)
			}
			return json.RawMessage(`{"createEquipment":{"ident":"E-9","name":"Dump Truck","status":"operational"}}`), nil
		},
	}
	mgr := NewGraphQLEquipmentManager(client)

	eq, err := mgr.Create(context.Background(), CreateEquipmentInput{Name: "Dump Truck", Status: "operational"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if eq.Ident != "E-9" {
		t.Errorf("Ident = %q, want E-9", eq.Ident)
	}
}

func Test_EquipmentUpdate_NullRecord_IsNotFound(t *testing.T) {
	client := &mockClient{
		mutationFn: func(ctx context.Context, mutation string, variables map[string]any) (json.RawMessage, error) {
			return json.RawMessage(`{"updateEquipment":null}`), nil
		},
	}
	mgr := NewGraphQLEquipmentManager(client)

	_, err := mgr.Update(context.Background(), "E-404", map[string]any{"status": "reserved"})
	var nf *NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("error type = %T, want *NotFoundError", err)
	}
}

// ---------------------------------------------------------------------------
// Assignment mutations
// ---------------------------------------------------------------------------

func Test_EquipmentAssignToProject(t *testing.T) {
	client := &mockClient{
		mutationFn: func(ctx context.Context, mutation string, variables map[string]any) (json.RawMessage, error) {
			if variables["equipmentId"] != "E-1" || variables["projectId"] != "P-2" {
				t.Errorf("variables = %v", variables)
			}
			return json.RawMessage(`{"assignEquipmentToProject":{"ident":"E-1","name":"Excavator","assignedProjectId":"P-2"}}`), nil
		},
	}
	mgr := NewGraphQLEquipmentManager(client)

	eq, err := mgr.AssignToProject(context.Background(), "E-1", "P-2")
	if err != nil {
		t.Fatalf("AssignToProject: %v", err)
	}
	if eq.AssignedProjectID != "P-2" {
		t.Errorf("AssignedProjectID = %q, want P-2", eq.AssignedProjectID)
	}
}

func Test_EquipmentAssignToPerson_NullRecord_IsNotFound(t *testing.T) {
	client := &mockClient{
		mutationFn: func(ctx context.Context, mutation string, variables map[string]any) (json.RawMessage, error) {
			return json.RawMessage(`{"assignEquipmentToPerson":null}`), nil
		},
	}
	mgr := NewGraphQLEquipmentManager(client)

	_, err := mgr.AssignToPerson(context.Background(), "E-404", "S-1")
	var nf *NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("error type = %T, want *NotFoundError", err)
	}
}

func Test_EquipmentUnassign_Cases(t *testing.T) {
	tests := []struct {
		name         string
		response     string
		wantSuccess  bool
		wantNotFound bool
	}{
		{
			name:        "confirmed",
			response:    `{"unassignEquipment":{"success":true,"message":"cleared"}}`,
			wantSuccess: true,
		},
		{
			name:     "rejected",
			response: `{"unassignEquipment":{"success":false,"message":"still in use"}}`,
		},
		{
			name:         "null payload is not found",
			response:     `{"unassignEquipment":null}`,
			wantNotFound: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := &mockClient{
				mutationFn: func(ctx context.Context, mutation string, variables map[string]any) (json.RawMessage, error) {
					return json.RawMessage(tt.response), nil
				},
			}
			mgr := NewGraphQLEquipmentManager(client)

			success, err := mgr.Unassign(context.Background(), "E-1")
			if tt.wantNotFound {
				var nf *NotFoundError
				if !errors.As(err, &nf) {
					t.Fatalf("error type = %T, want *NotFoundError", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Unassign: %v", err)
			}
			if success != tt.wantSuccess {
				t.Errorf("success = %v, want %v", success, tt.wantSuccess)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// Error propagation
// ---------------------------------------------------------------------------

func Test_EquipmentList_ClientErrorPropagates(t *testing.T) {
	wantErr := &graphql.NetworkError{Op: "query", Status: 503, Attempts: 3}
	client := &mockClient{
		queryFn: func(ctx context.Context, query string, variables map[string]any) (json.RawMessage, error) {
			return nil, wantErr
		},
	}
	mgr := NewGraphQLEquipmentManager(client)

	_, err := mgr.List(context.Background(), ListOptions{})
	var netErr *graphql.NetworkError
	if !errors.As(err, &netErr) {
		t.Fatalf("error type = %T, want *graphql.NetworkError", err)
	}
	if netErr.Status != 503 {
		t.Errorf("Status = %d, want 503", netErr.Status)
	}
}
