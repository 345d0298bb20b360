// Package staff provides staff member management via the 123erfasst GraphQL API.
package staff

import (
	"context"
	"fmt"
	"strings"
)

// Person is a staff member entity.
type Person struct {
	Ident         string `json:"ident"`
	Firstname     string `json:"firstname,omitempty"`
	Lastname      string `json:"lastname,omitempty"`
	FormattedName string `json:"formattedName,omitempty"`
	Role          string `json:"role,omitempty"`
	Email         string `json:"email,omitempty"`
	Phone         string `json:"phone,omitempty"`
	IsActive      bool   `json:"isActive,omitempty"`
}

// Validate checks structural invariants on a Person: the ident and at least
// one name field must be non-blank, and a phone number (when set) must
// contain at least 10 digits.
func (p Person) Validate() error {
	if strings.TrimSpace(p.Ident) == "" {
		return fmt.Errorf("person: ident is required")
	}
	if strings.TrimSpace(p.FormattedName) == "" &&
		strings.TrimSpace(p.Firstname) == "" && strings.TrimSpace(p.Lastname) == "" {
		return fmt.Errorf("person: name is required")
	}
	if p.Phone != "" {
		digits := 0
		for _, r := range p.Phone {
			if r >= '0' && r <= '9' {
				digits++
			}
		}
		if digits < 10 {
			return fmt.Errorf("person: phone number must contain at least 10 digits")
		}
	}
	return nil
}

// ListOptions narrows a staff listing. All fields are applied client-side.
// Active is tri-state: nil leaves the active flag unfiltered.
type ListOptions struct {
	Role   string
	Active *bool
	Limit  int
}

// Statistics aggregates staff counts.
type Statistics struct {
	TotalStaff int `json:"totalStaff"`
}

// NotFoundError reports that no person exists for the requested ident.
type NotFoundError struct {
	Ident string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("person %q not found", e.Ident)
}

// StaffManager defines the operations the staff tools need.
type StaffManager interface {
	List(ctx context.Context, opts ListOptions) ([]Person, error)
	Get(ctx context.Context, ident string) (*Person, error)
	Search(ctx context.Context, query string, limit int) ([]Person, error)
	ByRole(ctx context.Context, role string) ([]Person, error)
	Active(ctx context.Context) ([]Person, error)
	ByProject(ctx context.Context, projectID string) ([]Person, error)
	Statistics(ctx context.Context) (*Statistics, error)
}
