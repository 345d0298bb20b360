package projects

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/erfasst/erfasst-mcp/internal/graphql"
)

// GraphQLProjectManager implements ProjectManager by querying the 123erfasst
// GraphQL API.
type GraphQLProjectManager struct {
	client graphql.Client
}

// NewGraphQLProjectManager returns a new GraphQLProjectManager that uses the
// given GraphQL client.
func NewGraphQLProjectManager(client graphql.Client) *GraphQLProjectManager {
	if client == nil {
		panic("graphql client must not be nil")
	}
	return &GraphQLProjectManager{client: client}
}

// collectionResponse is the envelope for the projects collection query.
// The client already strips the outer "data" wrapper.
type collectionResponse struct {
	Projects struct {
		Nodes      []Project `json:"nodes"`
		TotalCount int       `json:"totalCount"`
	} `json:"projects"`
}

const projectFields = `ident name status startDate endDate description clientName budget location`

var listQuery = fmt.Sprintf(`query GetProjects { projects { nodes { %s } totalCount } }`, projectFields)

// fetchAll retrieves the full projects collection. The upstream collection
// filter arguments are not exposed, so all narrowing happens client-side.
func (m *GraphQLProjectManager) fetchAll(ctx context.Context) ([]Project, int, error) {
	raw, err := m.client.Query(ctx, listQuery, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("projects: execute query: %w", err)
	}

	var resp collectionResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, 0, fmt.Errorf("projects: unmarshal response: %w", err)
	}

	nodes := resp.Projects.Nodes
	if nodes == nil {
		nodes = []Project{}
	}
	return nodes, resp.Projects.TotalCount, nil
}

// List returns all projects, narrowed by opts. An empty collection is
// returned as a non-nil empty slice.
func (m *GraphQLProjectManager) List(ctx context.Context, opts ListOptions) ([]Project, error) {
	list, _, err := m.fetchAll(ctx)
	if err != nil {
		return nil, err
	}

	if opts.Status != "" {
		filtered := make([]Project, 0, len(list))
		for _, p := range list {
			if p.Status == opts.Status {
				filtered = append(filtered, p)
			}
		}
		list = filtered
	}
	if opts.Limit > 0 && len(list) > opts.Limit {
		list = list[:opts.Limit]
	}

	return list, nil
}

// Get fetches one project by ident. A null project in the response yields a
// *NotFoundError.
func (m *GraphQLProjectManager) Get(ctx context.Context, ident string) (*Project, error) {
	query := fmt.Sprintf(`query GetProject($id: Ident!) { project(ident: $id) { %s } }`, projectFields)

	raw, err := m.client.Query(ctx, query, map[string]any{"id": ident})
	if err != nil {
		return nil, fmt.Errorf("projects: execute query: %w", err)
	}

	var resp struct {
		Project *Project `json:"project"`
	}
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("projects: unmarshal response: %w", err)
	}

	if resp.Project == nil {
		return nil, &NotFoundError{Ident: ident}
	}
	return resp.Project, nil
}

// Search returns projects whose name contains query, case-insensitively.
// Matching is client-side, like all collection narrowing here.
func (m *GraphQLProjectManager) Search(ctx context.Context, query string, opts ListOptions) ([]Project, error) {
	list, err := m.List(ctx, ListOptions{Status: opts.Status})
	if err != nil {
		return nil, err
	}

	if query != "" {
		needle := strings.ToLower(query)
		matched := make([]Project, 0, len(list))
		for _, p := range list {
			if strings.Contains(strings.ToLower(p.Name), needle) {
				matched = append(matched, p)
			}
		}
		list = matched
	}
	if opts.Limit > 0 && len(list) > opts.Limit {
		list = list[:opts.Limit]
	}

	return list, nil
}

// ByDateRange returns projects overlapping the given ISO date range. Projects
// without date information are included rather than silently dropped.
func (m *GraphQLProjectManager) ByDateRange(ctx context.Context, startDate, endDate string) ([]Project, error) {
	list, _, err := m.fetchAll(ctx)
	if err != nil {
		return nil, err
	}

	filtered := make([]Project, 0, len(list))
	for _, p := range list {
		if p.StartDate == "" && p.EndDate == "" {
			filtered = append(filtered, p)
			continue
		}
		if p.EndDate != "" && p.EndDate < startDate {
			continue
		}
		if p.StartDate != "" && p.StartDate > endDate {
			continue
		}
		filtered = append(filtered, p)
	}

	return filtered, nil
}

// Statistics returns aggregate project counts.
func (m *GraphQLProjectManager) Statistics(ctx context.Context) (*Statistics, error) {
	const query = `query GetProjectStatistics { projects { totalCount } }`

	raw, err := m.client.Query(ctx, query, nil)
	if err != nil {
		return nil, fmt.Errorf("projects: execute query: %w", err)
	}

	var resp struct {
		Projects struct {
			TotalCount int `json:"totalCount"`
		} `json:"projects"`
	}
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("projects: unmarshal response: %w", err)
	}

	return &Statistics{TotalProjects: resp.Projects.TotalCount}, nil
}

// Create creates a new project from input. Input is validated before any
// network traffic.
func (m *GraphQLProjectManager) Create(ctx context.Context, input CreateProjectInput) (*Project, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}

	mutation := fmt.Sprintf(`mutation CreateProject($input: CreateProjectInput!) {
		createProject(input: $input) { %s }
	}`, projectFields)

	raw, err := m.client.Mutation(ctx, mutation, map[string]any{"input": input})
	if err != nil {
		return nil, fmt.Errorf("projects: create: %w", err)
	}

	var resp struct {
		CreateProject *Project `json:"createProject"`
	}
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("projects: unmarshal response: %w", err)
	}
	if resp.CreateProject == nil {
		return nil, fmt.Errorf("projects: create returned no project")
	}

	return resp.CreateProject, nil
}

// Update applies fields to an existing project. A null updateProject in the
// response yields a *NotFoundError.
func (m *GraphQLProjectManager) Update(ctx context.Context, ident string, fields map[string]any) (*Project, error) {
	mutation := fmt.Sprintf(`mutation UpdateProject($id: Ident!, $input: UpdateProjectInput!) {
		updateProject(ident: $id, input: $input) { %s }
	}`, projectFields)

	raw, err := m.client.Mutation(ctx, mutation, map[string]any{"id": ident, "input": fields})
	if err != nil {
		return nil, fmt.Errorf("projects: update %s: %w", ident, err)
	}

	var resp struct {
		UpdateProject *Project `json:"updateProject"`
	}
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("projects: unmarshal response: %w", err)
	}
	if resp.UpdateProject == nil {
		return nil, &NotFoundError{Ident: ident}
	}

	return resp.UpdateProject, nil
}

// Delete removes a project and reports whether the API confirmed the
// deletion. A null deleteProject in the response yields a *NotFoundError.
func (m *GraphQLProjectManager) Delete(ctx context.Context, ident string) (bool, error) {
	const mutation = `mutation DeleteProject($id: Ident!) {
		deleteProject(ident: $id) { success message }
	}`

	raw, err := m.client.Mutation(ctx, mutation, map[string]any{"id": ident})
	if err != nil {
		return false, fmt.Errorf("projects: delete %s: %w", ident, err)
	}

	var resp struct {
		DeleteProject *struct {
			Success bool   `json:"success"`
			Message string `json:"message"`
		} `json:"deleteProject"`
	}
	if err := json.Unmarshal(raw, &resp); err != nil {
		return false, fmt.Errorf("projects: unmarshal response: %w", err)
	}
	if resp.DeleteProject == nil {
		return false, &NotFoundError{Ident: ident}
	}

	return resp.DeleteProject.Success, nil
}

// Compile-time interface check.
var _ ProjectManager = (*GraphQLProjectManager)(nil)
