// Package projects provides construction project management via the
// 123erfasst GraphQL API.
package projects

import (
	"context"
	"fmt"
	"strings"
)

// Valid project status values.
var validStatuses = map[string]bool{
	"active":    true,
	"completed": true,
	"on_hold":   true,
	"cancelled": true,
	"planning":  true,
}

// Project is a construction project entity. Dates are ISO strings
// (YYYY-MM-DD) as returned by the API; optional fields are empty when the
// API does not populate them.
type Project struct {
	Ident       string  `json:"ident"`
	Name        string  `json:"name"`
	Status      string  `json:"status,omitempty"`
	StartDate   string  `json:"startDate,omitempty"`
	EndDate     string  `json:"endDate,omitempty"`
	Description string  `json:"description,omitempty"`
	ClientName  string  `json:"clientName,omitempty"`
	Budget      float64 `json:"budget,omitempty"`
	Location    string  `json:"location,omitempty"`
}

// Validate checks structural invariants on a Project: ident and name must be
// non-blank, status (when set) must be a known value, and the end date must
// not precede the start date. ISO date strings compare lexicographically.
func (p Project) Validate() error {
	if strings.TrimSpace(p.Ident) == "" {
		return fmt.Errorf("project: ident is required")
	}
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("project: name is required")
	}
	if p.Status != "" && !validStatuses[p.Status] {
		return fmt.Errorf("project: invalid status %q", p.Status)
	}
	if p.StartDate != "" && p.EndDate != "" && p.EndDate < p.StartDate {
		return fmt.Errorf("project: end date %s precedes start date %s", p.EndDate, p.StartDate)
	}
	return nil
}

// CreateProjectInput carries the fields for a new project. Name is the only
// required field.
type CreateProjectInput struct {
	Name        string  `json:"name"`
	Status      string  `json:"status,omitempty"`
	StartDate   string  `json:"startDate,omitempty"`
	EndDate     string  `json:"endDate,omitempty"`
	Description string  `json:"description,omitempty"`
	ClientName  string  `json:"clientName,omitempty"`
	Budget      float64 `json:"budget,omitempty"`
	Location    string  `json:"location,omitempty"`
}

// Validate checks that the input describes a creatable project.
func (in CreateProjectInput) Validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return fmt.Errorf("project: name is required")
	}
	if in.Status != "" && !validStatuses[in.Status] {
		return fmt.Errorf("project: invalid status %q", in.Status)
	}
	if in.StartDate != "" && in.EndDate != "" && in.EndDate < in.StartDate {
		return fmt.Errorf("project: end date %s precedes start date %s", in.EndDate, in.StartDate)
	}
	return nil
}

// ListOptions narrows a project listing. Status and Limit are applied
// client-side; the upstream collection filter arguments are not exposed.
type ListOptions struct {
	Status string
	Limit  int
}

// Statistics aggregates project counts.
type Statistics struct {
	TotalProjects int `json:"totalProjects"`
}

// NotFoundError reports that no project exists for the requested ident.
type NotFoundError struct {
	Ident string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("project %q not found", e.Ident)
}

// ProjectManager defines the operations the project tools need.
type ProjectManager interface {
	List(ctx context.Context, opts ListOptions) ([]Project, error)
	Get(ctx context.Context, ident string) (*Project, error)
	Search(ctx context.Context, query string, opts ListOptions) ([]Project, error)
	ByDateRange(ctx context.Context, startDate, endDate string) ([]Project, error)
	Statistics(ctx context.Context) (*Statistics, error)
	Create(ctx context.Context, input CreateProjectInput) (*Project, error)
	Update(ctx context.Context, ident string, fields map[string]any) (*Project, error)
	Delete(ctx context.Context, ident string) (bool, error)
}
