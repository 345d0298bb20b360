// Package equipment provides construction equipment management via the
// 123erfasst GraphQL API.
package equipment

import (
	"context"
	"fmt"
	"strings"
)

// Valid equipment status values.
var validStatuses = map[string]bool{
	"operational":    true,
	"maintenance":    true,
	"out_of_service": true,
	"reserved":       true,
}

// Equipment is a construction equipment entity.
type Equipment struct {
	Ident             string `json:"ident"`
	Name              string `json:"name"`
	Type              string `json:"type,omitempty"`
	Location          string `json:"location,omitempty"`
	Status            string `json:"status,omitempty"`
	Model             string `json:"model,omitempty"`
	SerialNumber      string `json:"serialNumber,omitempty"`
	AssignedProjectID string `json:"assignedProjectId,omitempty"`
	AssignedPersonID  string `json:"assignedPersonId,omitempty"`
}

// Validate checks structural invariants on an Equipment record.
func (e Equipment) Validate() error {
	if strings.TrimSpace(e.Ident) == "" {
		return fmt.Errorf("equipment: ident is required")
	}
	if strings.TrimSpace(e.Name) == "" {
		return fmt.Errorf("equipment: name is required")
	}
	if e.Status != "" && !validStatuses[e.Status] {
		return fmt.Errorf("equipment: invalid status %q", e.Status)
	}
	return nil
}

// CreateEquipmentInput carries the fields for a new equipment record. Name
// is the only required field.
type CreateEquipmentInput struct {
	Name         string `json:"name"`
	Type         string `json:"type,omitempty"`
	Location     string `json:"location,omitempty"`
	Status       string `json:"status,omitempty"`
	Model        string `json:"model,omitempty"`
	SerialNumber string `json:"serialNumber,omitempty"`
}

// Validate checks that the input describes a creatable equipment record.
func (in CreateEquipmentInput) Validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return fmt.Errorf("equipment: name is required")
	}
	if in.Status != "" && !validStatuses[in.Status] {
		return fmt.Errorf("equipment: invalid status %q", in.Status)
	}
	return nil
}

// ListOptions narrows an equipment listing. All fields are applied
// client-side.
type ListOptions struct {
	Status string
	Type   string
	Limit  int
}

// Statistics aggregates equipment counts.
type Statistics struct {
	TotalEquipment int `json:"totalEquipment"`
}

// NotFoundError reports that no equipment exists for the requested ident.
type NotFoundError struct {
	Ident string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("equipment %q not found", e.Ident)
}

// EquipmentManager defines the operations the equipment tools need.
type EquipmentManager interface {
	List(ctx context.Context, opts ListOptions) ([]Equipment, error)
	Get(ctx context.Context, ident string) (*Equipment, error)
	Search(ctx context.Context, query string, opts ListOptions) ([]Equipment, error)
	ByProject(ctx context.Context, projectID string) ([]Equipment, error)
	ByPerson(ctx context.Context, personID string) ([]Equipment, error)
	Statistics(ctx context.Context) (*Statistics, error)
	Create(ctx context.Context, input CreateEquipmentInput) (*Equipment, error)
	Update(ctx context.Context, ident string, fields map[string]any) (*Equipment, error)
	AssignToProject(ctx context.Context, ident, projectID string) (*Equipment, error)
	AssignToPerson(ctx context.Context, ident, personID string) (*Equipment, error)
	Unassign(ctx context.Context, ident string) (bool, error)
}
