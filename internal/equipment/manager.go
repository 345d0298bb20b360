package equipment

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/erfasst/erfasst-mcp/internal/graphql"
)

// GraphQLEquipmentManager implements EquipmentManager by querying the
// 123erfasst GraphQL API.
type GraphQLEquipmentManager struct {
	client graphql.Client
}

// NewGraphQLEquipmentManager returns a new GraphQLEquipmentManager backed by
// the provided GraphQL client.
func NewGraphQLEquipmentManager(client graphql.Client) *GraphQLEquipmentManager {
	if client == nil {
		panic("graphql client must not be nil")
	}
	return &GraphQLEquipmentManager{client: client}
}

// collectionResponse is the envelope for the equipments collection query.
type collectionResponse struct {
	Equipments struct {
		Nodes      []Equipment `json:"nodes"`
		TotalCount int         `json:"totalCount"`
	} `json:"equipments"`
}

const equipmentFields = `ident name type location status model serialNumber assignedProjectId assignedPersonId`

var listQuery = fmt.Sprintf(`query GetEquipment { equipments { nodes { %s } totalCount } }`, equipmentFields)

func (m *GraphQLEquipmentManager) fetchAll(ctx context.Context) ([]Equipment, int, error) {
	raw, err := m.client.Query(ctx, listQuery, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("equipment: execute query: %w", err)
	}

	var resp collectionResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, 0, fmt.Errorf("equipment: unmarshal response: %w", err)
	}

	nodes := resp.Equipments.Nodes
	if nodes == nil {
		nodes = []Equipment{}
	}
	return nodes, resp.Equipments.TotalCount, nil
}

// applyOptions narrows list by opts.
func applyOptions(list []Equipment, opts ListOptions) []Equipment {
	if opts.Status != "" || opts.Type != "" {
		filtered := make([]Equipment, 0, len(list))
		for _, e := range list {
			if opts.Status != "" && e.Status != opts.Status {
				continue
			}
			if opts.Type != "" && !strings.EqualFold(e.Type, opts.Type) {
				continue
			}
			filtered = append(filtered, e)
		}
		list = filtered
	}
	if opts.Limit > 0 && len(list) > opts.Limit {
		list = list[:opts.Limit]
	}
	return list
}

// List returns all equipment, narrowed by opts. An empty collection is
// returned as a non-nil empty slice.
func (m *GraphQLEquipmentManager) List(ctx context.Context, opts ListOptions) ([]Equipment, error) {
	list, _, err := m.fetchAll(ctx)
	if err != nil {
		return nil, err
	}
	return applyOptions(list, opts), nil
}

// Get fetches one equipment record by ident. A null record in the response
// yields a *NotFoundError.
func (m *GraphQLEquipmentManager) Get(ctx context.Context, ident string) (*Equipment, error) {
	query := fmt.Sprintf(`query GetEquipment($id: Ident!) { equipment(ident: $id) { %s } }`, equipmentFields)

	raw, err := m.client.Query(ctx, query, map[string]any{"id": ident})
	if err != nil {
		return nil, fmt.Errorf("equipment: execute query: %w", err)
	}

	var resp struct {
		Equipment *Equipment `json:"equipment"`
	}
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("equipment: unmarshal response: %w", err)
	}

	if resp.Equipment == nil {
		return nil, &NotFoundError{Ident: ident}
	}
	return resp.Equipment, nil
}

// Search returns equipment whose name contains query, case-insensitively.
func (m *GraphQLEquipmentManager) Search(ctx context.Context, query string, opts ListOptions) ([]Equipment, error) {
	list, _, err := m.fetchAll(ctx)
	if err != nil {
		return nil, err
	}

	if query != "" {
		needle := strings.ToLower(query)
		matched := make([]Equipment, 0, len(list))
		for _, e := range list {
			if strings.Contains(strings.ToLower(e.Name), needle) {
				matched = append(matched, e)
			}
		}
		list = matched
	}

	return applyOptions(list, opts), nil
}

// ByProject returns equipment assigned to the given project.
func (m *GraphQLEquipmentManager) ByProject(ctx context.Context, projectID string) ([]Equipment, error) {
	list, _, err := m.fetchAll(ctx)
	if err != nil {
		return nil, err
	}

	assigned := make([]Equipment, 0, len(list))
	for _, e := range list {
		if e.AssignedProjectID == projectID {
			assigned = append(assigned, e)
		}
	}
	return assigned, nil
}

// ByPerson returns equipment assigned to the given person.
func (m *GraphQLEquipmentManager) ByPerson(ctx context.Context, personID string) ([]Equipment, error) {
	list, _, err := m.fetchAll(ctx)
	if err != nil {
		return nil, err
	}

	assigned := make([]Equipment, 0, len(list))
	for _, e := range list {
		if e.AssignedPersonID == personID {
			assigned = append(assigned, e)
		}
	}
	return assigned, nil
}

// Statistics returns aggregate equipment counts.
func (m *GraphQLEquipmentManager) Statistics(ctx context.Context) (*Statistics, error) {
	const query = `query GetEquipmentStatistics { equipments { totalCount } }`

	raw, err := m.client.Query(ctx, query, nil)
	if err != nil {
		return nil, fmt.Errorf("equipment: execute query: %w", err)
	}

	var resp struct {
		Equipments struct {
			TotalCount int `json:"totalCount"`
		} `json:"equipments"`
	}
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("equipment: unmarshal response: %w", err)
	}

	return &Statistics{TotalEquipment: resp.Equipments.TotalCount}, nil
}

// Create creates a new equipment record from input. Input is validated
// before any network traffic.
func (m *GraphQLEquipmentManager) Create(ctx context.Context, input CreateEquipmentInput) (*Equipment, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}

	mutation := fmt.Sprintf(`mutation CreateEquipment($input: CreateEquipmentInput!) {
		createEquipment(input: $input) { %s }
	}`, equipmentFields)

	raw, err := m.client.Mutation(ctx, mutation, map[string]any{"input": input})
	if err != nil {
		return nil, fmt.Errorf("equipment: create: %w", err)
	}

	var resp struct {
		CreateEquipment *Equipment `json:"createEquipment"`
	}
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("equipment: unmarshal response: %w", err)
	}
	if resp.CreateEquipment == nil {
		return nil, fmt.Errorf("equipment: create returned no equipment")
	}

	return resp.CreateEquipment, nil
}

// Update applies fields to an existing equipment record.
func (m *GraphQLEquipmentManager) Update(ctx context.Context, ident string, fields map[string]any) (*Equipment, error) {
	mutation := fmt.Sprintf(`mutation UpdateEquipment($id: Ident!, $input: UpdateEquipmentInput!) {
		updateEquipment(ident: $id, input: $input) { %s }
	}`, equipmentFields)

	raw, err := m.client.Mutation(ctx, mutation, map[string]any{"id": ident, "input": fields})
	if err != nil {
		return nil, fmt.Errorf("equipment: update %s: %w", ident, err)
	}

	var resp struct {
		UpdateEquipment *Equipment `json:"updateEquipment"`
	}
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("equipment: unmarshal response: %w", err)
	}
	if resp.UpdateEquipment == nil {
		return nil, &NotFoundError{Ident: ident}
	}

	return resp.UpdateEquipment, nil
}

// AssignToProject assigns an equipment record to a project.
func (m *GraphQLEquipmentManager) AssignToProject(ctx context.Context, ident, projectID string) (*Equipment, error) {
	mutation := fmt.Sprintf(`mutation AssignEquipmentToProject($equipmentId: Ident!, $projectId: Ident!) {
		assignEquipmentToProject(equipmentIdent: $equipmentId, projectIdent: $projectId) { %s }
	}`, equipmentFields)

	raw, err := m.client.Mutation(ctx, mutation, map[string]any{"equipmentId": ident, "projectId": projectID})
	if err != nil {
		return nil, fmt.Errorf("equipment: assign %s to project %s: %w", ident, projectID, err)
	}

	var resp struct {
		AssignEquipmentToProject *Equipment `json:"assignEquipmentToProject"`
	}
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("equipment: unmarshal response: %w", err)
	}
	if resp.AssignEquipmentToProject == nil {
		return nil, &NotFoundError{Ident: ident}
	}

	return resp.AssignEquipmentToProject, nil
}

// AssignToPerson assigns an equipment record to a person.
func (m *GraphQLEquipmentManager) AssignToPerson(ctx context.Context, ident, personID string) (*Equipment, error) {
	mutation := fmt.Sprintf(`mutation AssignEquipmentToPerson($equipmentId: Ident!, $personId: Ident!) {
		assignEquipmentToPerson(equipmentIdent: $equipmentId, personIdent: $personId) { %s }
	}`, equipmentFields)

	raw, err := m.client.Mutation(ctx, mutation, map[string]any{"equipmentId": ident, "personId": personID})
	if err != nil {
		return nil, fmt.Errorf("equipment: assign %s to person %s: %w", ident, personID, err)
	}

	var resp struct {
		AssignEquipmentToPerson *Equipment `json:"assignEquipmentToPerson"`
	}
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("equipment: unmarshal response: %w", err)
	}
	if resp.AssignEquipmentToPerson == nil {
		return nil, &NotFoundError{Ident: ident}
	}

	return resp.AssignEquipmentToPerson, nil
}

// Unassign clears project and person assignments on an equipment record and
// reports whether the API confirmed the change.
func (m *GraphQLEquipmentManager) Unassign(ctx context.Context, ident string) (bool, error) {
	const mutation = `mutation UnassignEquipment($equipmentId: Ident!) {
		unassignEquipment(equipmentIdent: $equipmentId) { success message }
	}`

	raw, err := m.client.Mutation(ctx, mutation, map[string]any{"equipmentId": ident})
	if err != nil {
		return false, fmt.Errorf("equipment: unassign %s: %w", ident, err)
	}

	var resp struct {
		UnassignEquipment *struct {
			Success bool   `json:"success"`
			Message string `json:"message"`
		} `json:"unassignEquipment"`
	}
	if err := json.Unmarshal(raw, &resp); err != nil {
		return false, fmt.Errorf("equipment: unmarshal response: %w", err)
	}
	if resp.UnassignEquipment == nil {
		return false, &NotFoundError{Ident: ident}
	}

	return resp.UnassignEquipment.Success, nil
}

// Compile-time interface check.
var _ EquipmentManager = (*GraphQLEquipmentManager)(nil)
