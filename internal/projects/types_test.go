package projects

import (
	"strings"
	"testing"
)

// ---------------------------------------------------------------------------
// Project.Validate tests
// ---------------------------------------------------------------------------

func Test_Project_Validate_Cases(t *testing.T) {
	tests := []struct {
		name    string
		project Project
		wantErr string
	}{
		{
			name:    "valid minimal project",
			project: Project{Ident: "P-1", Name: "Bridge"},
		},
		{
			name:    "valid full project",
			project: Project{Ident: "P-1", Name: "Bridge", Status: "active", StartDate: "2025-01-01", EndDate: "2025-12-31"},
		},
		{
			name:    "missing ident",
			project: Project{Name: "Bridge"},
			wantErr: "ident is required",
		},
		{
			name:    "blank ident",
			project: Project{Ident: "  ", Name: "Bridge"},
			wantErr: "ident is required",
		},
		{
			name:    "missing name",
			project: Project{Ident: "P-1"},
			wantErr: "name is required",
		},
		{
			name:    "invalid status",
			project: Project{Ident: "P-1", Name: "Bridge", Status: "paused"},
			wantErr: "invalid status",
		},
		{
			name:    "end date precedes start date",
			project: Project{Ident: "P-1", Name: "Bridge", StartDate: "2025-06-01", EndDate: "2025-01-01"},
			wantErr: "precedes start date",
		},
		{
			name:    "equal dates are valid",
			project: Project{Ident: "P-1", Name: "Bridge", StartDate: "2025-06-01", EndDate: "2025-06-01"},
		},
		{
			name:    "only end date is valid",
			project: Project{Ident: "P-1", Name: "Bridge", EndDate: "2025-06-01"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.project.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %q, want it to contain %q", err.Error(), tt.wantErr)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// NotFoundError tests
// ---------------------------------------------------------------------------

func Test_NotFoundError_Message(t *testing.T) {
	err := &NotFoundError{Ident: "P-404"}
	if !strings.Contains(err.Error(), "P-404") {
		t.Errorf("error = %q, want it to contain the ident", err.Error())
	}
}
