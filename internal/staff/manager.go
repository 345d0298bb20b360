package staff

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/erfasst/erfasst-mcp/internal/graphql"
)

// GraphQLStaffManager implements StaffManager by querying the 123erfasst
// GraphQL API.
type GraphQLStaffManager struct {
	client graphql.Client
}

// NewGraphQLStaffManager returns a new GraphQLStaffManager backed by the
// provided GraphQL client.
func NewGraphQLStaffManager(client graphql.Client) *GraphQLStaffManager {
	if client == nil {
		panic("graphql client must not be nil")
	}
	return &GraphQLStaffManager{client: client}
}

// collectionResponse is the envelope for the persons collection query.
type collectionResponse struct {
	Persons struct {
		Nodes      []Person `json:"nodes"`
		TotalCount int      `json:"totalCount"`
	} `json:"persons"`
}

// personFields is the full selection set for person queries. Every field the
// client-side filters read must appear here, or the filter silently matches
// nothing.
const personFields = `ident firstname lastname formattedName role email phone isActive`

var listQuery = fmt.Sprintf(`query GetStaff { persons { nodes { %s } totalCount } }`, personFields)

func (m *GraphQLStaffManager) fetchAll(ctx context.Context) ([]Person, int, error) {
	raw, err := m.client.Query(ctx, listQuery, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("staff: execute query: %w", err)
	}

	var resp collectionResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, 0, fmt.Errorf("staff: unmarshal response: %w", err)
	}

	nodes := resp.Persons.Nodes
	if nodes == nil {
		nodes = []Person{}
	}
	return nodes, resp.Persons.TotalCount, nil
}

// List returns all staff members, narrowed by opts. An empty collection is
// returned as a non-nil empty slice.
func (m *GraphQLStaffManager) List(ctx context.Context, opts ListOptions) ([]Person, error) {
	list, _, err := m.fetchAll(ctx)
	if err != nil {
		return nil, err
	}

	if opts.Role != "" || opts.Active != nil {
		filtered := make([]Person, 0, len(list))
		for _, p := range list {
			if opts.Role != "" && !strings.EqualFold(p.Role, opts.Role) {
				continue
			}
			if opts.Active != nil && p.IsActive != *opts.Active {
				continue
			}
			filtered = append(filtered, p)
		}
		list = filtered
	}
	if opts.Limit > 0 && len(list) > opts.Limit {
		list = list[:opts.Limit]
	}

	return list, nil
}

// Get fetches one person by ident. A null person in the response yields a
// *NotFoundError.
func (m *GraphQLStaffManager) Get(ctx context.Context, ident string) (*Person, error) {
	query := fmt.Sprintf(`query GetPerson($id: Ident!) { person(ident: $id) { %s } }`, personFields)

	raw, err := m.client.Query(ctx, query, map[string]any{"id": ident})
	if err != nil {
		return nil, fmt.Errorf("staff: execute query: %w", err)
	}

	var resp struct {
		Person *Person `json:"person"`
	}
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("staff: unmarshal response: %w", err)
	}

	if resp.Person == nil {
		return nil, &NotFoundError{Ident: ident}
	}
	return resp.Person, nil
}

// Search returns staff members whose formatted name contains query,
// case-insensitively. Matching is client-side.
func (m *GraphQLStaffManager) Search(ctx context.Context, query string, limit int) ([]Person, error) {
	list, _, err := m.fetchAll(ctx)
	if err != nil {
		return nil, err
	}

	if query != "" {
		needle := strings.ToLower(query)
		matched := make([]Person, 0, len(list))
		for _, p := range list {
			if strings.Contains(strings.ToLower(p.FormattedName), needle) {
				matched = append(matched, p)
			}
		}
		list = matched
	}
	if limit > 0 && len(list) > limit {
		list = list[:limit]
	}

	return list, nil
}

// ByRole returns staff members with the given role.
func (m *GraphQLStaffManager) ByRole(ctx context.Context, role string) ([]Person, error) {
	return m.List(ctx, ListOptions{Role: role})
}

// Active returns staff members whose active flag is set.
func (m *GraphQLStaffManager) Active(ctx context.Context) ([]Person, error) {
	active := true
	return m.List(ctx, ListOptions{Active: &active})
}

// ByProject returns staff members assigned to the given project. Unlike the
// other listings this sends the filter upstream, since the assignment lives
// on the server side only.
func (m *GraphQLStaffManager) ByProject(ctx context.Context, projectID string) ([]Person, error) {
	query := fmt.Sprintf(`query GetStaffByProject($projectId: Ident!) {
		persons(filter: { assignedProjects: { contains: $projectId } }) { nodes { %s } totalCount }
	}`, personFields)

	raw, err := m.client.Query(ctx, query, map[string]any{"projectId": projectID})
	if err != nil {
		return nil, fmt.Errorf("staff: execute query: %w", err)
	}

	var resp collectionResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("staff: unmarshal response: %w", err)
	}

	nodes := resp.Persons.Nodes
	if nodes == nil {
		nodes = []Person{}
	}
	return nodes, nil
}

// Statistics returns aggregate staff counts.
func (m *GraphQLStaffManager) Statistics(ctx context.Context) (*Statistics, error) {
	const query = `query GetStaffStatistics { persons { totalCount } }`

	raw, err := m.client.Query(ctx, query, nil)
	if err != nil {
		return nil, fmt.Errorf("staff: execute query: %w", err)
	}

	var resp struct {
		Persons struct {
			TotalCount int `json:"totalCount"`
		} `json:"persons"`
	}
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("staff: unmarshal response: %w", err)
	}

	return &Statistics{TotalStaff: resp.Persons.TotalCount}, nil
}

// Compile-time interface check.
var _ StaffManager = (*GraphQLStaffManager)(nil)
