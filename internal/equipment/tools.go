package equipment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/erfasst/erfasst-mcp/internal/safety"
	"github.com/erfasst/erfasst-mcp/internal/tools"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// DestructiveTools lists the equipment tools that require an explicit
// confirmation token before executing.
var DestructiveTools = []string{"equipment_unassign"}

// EquipmentTools returns the slice of MCP tool registrations for the
// equipment package. Unassignment requires confirmation.
func EquipmentTools(mgr EquipmentManager, confirm *safety.ConfirmationTracker, audit *safety.AuditLogger) []tools.Registration {
	return []tools.Registration{
		equipmentListTool(mgr, audit),
		equipmentGetTool(mgr, audit),
		equipmentSearchTool(mgr, audit),
		equipmentByProjectTool(mgr, audit),
		equipmentByPersonTool(mgr, audit),
		equipmentStatisticsTool(mgr, audit),
		equipmentCreateTool(mgr, audit),
		equipmentUpdateTool(mgr, audit),
		equipmentAssignProjectTool(mgr, audit),
		equipmentAssignPersonTool(mgr, audit),
		equipmentUnassignTool(mgr, confirm, audit),
	}
}

func equipmentListTool(mgr EquipmentManager, audit *safety.AuditLogger) tools.Registration {
	tool := mcp.NewTool("equipment_list",
		mcp.WithDescription("List equipment, optionally filtered by status (operational, maintenance, out_of_service, reserved) and type, and limited in count."),
		mcp.WithString("status", mcp.Description("Optional status filter.")),
		mcp.WithString("type", mcp.Description("Optional equipment type filter.")),
		mcp.WithNumber("limit", mcp.Description("Optional maximum number of results.")),
	)

	handler := func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		start := time.Now()
		opts := ListOptions{
			Status: req.GetString("status", ""),
			Type:   req.GetString("type", ""),
			Limit:  req.GetInt("limit", 0),
		}
		params := map[string]any{"status": opts.Status, "type": opts.Type, "limit": opts.Limit}

		list, err := mgr.List(ctx, opts)
		if err != nil {
			tools.LogAudit(audit, "equipment_list", params, "error: "+err.Error(), start)
			return tools.ErrorResult(err.Error()), nil
		}

		tools.LogAudit(audit, "equipment_list", params, "ok", start)
		return tools.JSONResult(list), nil
	}

	return tools.Registration{Tool: tool, Handler: server.ToolHandlerFunc(handler)}
}

func equipmentGetTool(mgr EquipmentManager, audit *safety.AuditLogger) tools.Registration {
	tool := mcp.NewTool("equipment_get",
		mcp.WithDescription("Get detailed information for a single equipment record by ident."),
		mcp.WithString("equipment_id", mcp.Required(), mcp.Description("Equipment ident.")),
	)

	handler := func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		start := time.Now()
		ident := req.GetString("equipment_id", "")
		params := map[string]any{"equipment_id": ident}

		eq, err := mgr.Get(ctx, ident)
		if err != nil {
			tools.LogAudit(audit, "equipment_get", params, "error: "+err.Error(), start)
			return tools.ErrorResult(err.Error()), nil
		}

		tools.LogAudit(audit, "equipment_get", params, "ok", start)
		return tools.JSONResult(eq), nil
	}

	return tools.Registration{Tool: tool, Handler: server.ToolHandlerFunc(handler)}
}

func equipmentSearchTool(mgr EquipmentManager, audit *safety.AuditLogger) tools.Registration {
	tool := mcp.NewTool("equipment_search",
		mcp.WithDescription("Search equipment by name (case-insensitive substring match)."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search text.")),
		mcp.WithString("status", mcp.Description("Optional status filter.")),
		mcp.WithNumber("limit", mcp.Description("Optional maximum number of results.")),
	)

	handler := func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		start := time.Now()
		query := req.GetString("query", "")
		opts := ListOptions{
			Status: req.GetString("status", ""),
			Limit:  req.GetInt("limit", 0),
		}
		params := map[string]any{"query": query, "status": opts.Status, "limit": opts.Limit}

		list, err := mgr.Search(ctx, query, opts)
		if err != nil {
			tools.LogAudit(audit, "equipment_search", params, "error: "+err.Error(), start)
			return tools.ErrorResult(err.Error()), nil
		}

		tools.LogAudit(audit, "equipment_search", params, "ok", start)
		return tools.JSONResult(list), nil
	}

	return tools.Registration{Tool: tool, Handler: server.ToolHandlerFunc(handler)}
}

func equipmentByProjectTool(mgr EquipmentManager, audit *safety.AuditLogger) tools.Registration {
	tool := mcp.NewTool("equipment_by_project",
		mcp.WithDescription("List equipment assigned to a project."),
		mcp.WithString("project_id", mcp.Required(), mcp.Description("Project ident.")),
	)

	handler := func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		start := time.Now()
		projectID := req.GetString("project_id", "")
		params := map[string]any{"project_id": projectID}

		list, err := mgr.ByProject(ctx, projectID)
		if err != nil {
			tools.LogAudit(audit, "equipment_by_project", params, "error: "+err.Error(), start)
			return tools.ErrorResult(err.Error()), nil
		}

		tools.LogAudit(audit, "equipment_by_project", params, "ok", start)
		return tools.JSONResult(list), nil
	}

	return tools.Registration{Tool: tool, Handler: server.ToolHandlerFunc(handler)}
}

func equipmentByPersonTool(mgr EquipmentManager, audit *safety.AuditLogger) tools.Registration {
	tool := mcp.NewTool("equipment_by_person",
		mcp.WithDescription("List equipment assigned to a staff member."),
		mcp.WithString("person_id", mcp.Required(), mcp.Description("Person ident.")),
	)

	handler := func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		start := time.Now()
		personID := req.GetString("person_id", "")
		params := map[string]any{"person_id": personID}

		list, err := mgr.ByPerson(ctx, personID)
		if err != nil {
			tools.LogAudit(audit, "equipment_by_person", params, "error: "+err.Error(), start)
			return tools.ErrorResult(err.Error()), nil
		}

		tools.LogAudit(audit, "equipment_by_person", params, "ok", start)
		return tools.JSONResult(list), nil
	}

	return tools.Registration{Tool: tool, Handler: server.ToolHandlerFunc(handler)}
}

func equipmentStatisticsTool(mgr EquipmentManager, audit *safety.AuditLogger) tools.Registration {
	tool := mcp.NewTool("equipment_statistics",
		mcp.WithDescription("Get aggregate equipment statistics."),
	)

	handler := func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		start := time.Now()
		params := map[string]any{}

		stats, err := mgr.Statistics(ctx)
		if err != nil {
			tools.LogAudit(audit, "equipment_statistics", params, "error: "+err.Error(), start)
			return tools.ErrorResult(err.Error()), nil
		}

		tools.LogAudit(audit, "equipment_statistics", params, "ok", start)
		return tools.JSONResult(stats), nil
	}

	return tools.Registration{Tool: tool, Handler: server.ToolHandlerFunc(handler)}
}

func equipmentCreateTool(mgr EquipmentManager, audit *safety.AuditLogger) tools.Registration {
	tool := mcp.NewTool("equipment_create",
		mcp.WithDescription("Create a new equipment record."),
		mcp.WithString("name", mcp.Required(), mcp.Description("Equipment name.")),
		mcp.WithString("type", mcp.Description("Equipment type, e.g. excavator, crane.")),
		mcp.WithString("location", mcp.Description("Current location.")),
		mcp.WithString("status", mcp.Description("Initial status (operational, maintenance, out_of_service, reserved).")),
		mcp.WithString("model", mcp.Description("Manufacturer model.")),
		mcp.WithString("serial_number", mcp.Description("Serial number.")),
	)

	handler := func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		start := time.Now()
		input := CreateEquipmentInput{
			Name:         req.GetString("name", ""),
			Type:         req.GetString("type", ""),
			Location:     req.GetString("location", ""),
			Status:       req.GetString("status", ""),
			Model:        req.GetString("model", ""),
			SerialNumber: req.GetString("serial_number", ""),
		}
		params := map[string]any{"name": input.Name, "type": input.Type, "status": input.Status}

		eq, err := mgr.Create(ctx, input)
		if err != nil {
			tools.LogAudit(audit, "equipment_create", params, "error: "+err.Error(), start)
			return tools.ErrorResult(err.Error()), nil
		}

		tools.LogAudit(audit, "equipment_create", params, "ok", start)
		return tools.JSONResult(eq), nil
	}

	return tools.Registration{Tool: tool, Handler: server.ToolHandlerFunc(handler)}
}

func equipmentUpdateTool(mgr EquipmentManager, audit *safety.AuditLogger) tools.Registration {
	tool := mcp.NewTool("equipment_update",
		mcp.WithDescription("Update fields on an existing equipment record."),
		mcp.WithString("equipment_id", mcp.Required(), mcp.Description("Equipment ident.")),
		mcp.WithString("fields", mcp.Required(), mcp.Description("JSON object string of fields to update.")),
	)

	handler := func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		start := time.Now()
		ident := req.GetString("equipment_id", "")
		fieldsStr := req.GetString("fields", "")
		params := map[string]any{"equipment_id": ident, "fields": fieldsStr}

		var fields map[string]any
		if err := json.Unmarshal([]byte(fieldsStr), &fields); err != nil {
			errMsg := fmt.Sprintf("parse fields JSON: %v", err)
			tools.LogAudit(audit, "equipment_update", params, "error: "+errMsg, start)
			return tools.ErrorResult(errMsg), nil
		}
		if len(fields) == 0 {
			tools.LogAudit(audit, "equipment_update", params, "error: no fields", start)
			return tools.ErrorResult("no fields to update"), nil
		}

		eq, err := mgr.Update(ctx, ident, fields)
		if err != nil {
			tools.LogAudit(audit, "equipment_update", params, "error: "+err.Error(), start)
			return tools.ErrorResult(err.Error()), nil
		}

		tools.LogAudit(audit, "equipment_update", params, "ok", start)
		return tools.JSONResult(eq), nil
	}

	return tools.Registration{Tool: tool, Handler: server.ToolHandlerFunc(handler)}
}

func equipmentAssignProjectTool(mgr EquipmentManager, audit *safety.AuditLogger) tools.Registration {
	tool := mcp.NewTool("equipment_assign_project",
		mcp.WithDescription("Assign an equipment record to a project."),
		mcp.WithString("equipment_id", mcp.Required(), mcp.Description("Equipment ident.")),
		mcp.WithString("project_id", mcp.Required(), mcp.Description("Project ident.")),
	)

	handler := func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		start := time.Now()
		ident := req.GetString("equipment_id", "")
		projectID := req.GetString("project_id", "")
		params := map[string]any{"equipment_id": ident, "project_id": projectID}

		eq, err := mgr.AssignToProject(ctx, ident, projectID)
		if err != nil {
			tools.LogAudit(audit, "equipment_assign_project", params, "error: "+err.Error(), start)
			return tools.ErrorResult(err.Error()), nil
		}

		tools.LogAudit(audit, "equipment_assign_project", params, "ok", start)
		return tools.JSONResult(eq), nil
	}

	return tools.Registration{Tool: tool, Handler: server.ToolHandlerFunc(handler)}
}

func equipmentAssignPersonTool(mgr EquipmentManager, audit *safety.AuditLogger) tools.Registration {
	tool := mcp.NewTool("equipment_assign_person",
		mcp.WithDescription("Assign an equipment record to a staff member."),
		mcp.WithString("equipment_id", mcp.Required(), mcp.Description("Equipment ident.")),
		mcp.WithString("person_id", mcp.Required(), mcp.Description("Person ident.")),
	)

	handler := func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		start := time.Now()
		ident := req.GetString("equipment_id", "")
		personID := req.GetString("person_id", "")
		params := map[string]any{"equipment_id": ident, "person_id": personID}

		eq, err := mgr.AssignToPerson(ctx, ident, personID)
		if err != nil {
			tools.LogAudit(audit, "equipment_assign_person", params, "error: "+err.Error(), start)
			return tools.ErrorResult(err.Error()), nil
		}

		tools.LogAudit(audit, "equipment_assign_person", params, "ok", start)
		return tools.JSONResult(eq), nil
	}

	return tools.Registration{Tool: tool, Handler: server.ToolHandlerFunc(handler)}
}

// equipmentUnassignTool registers the equipment_unassign MCP tool. Clearing
// assignments is destructive and requires a confirmation token.
func equipmentUnassignTool(mgr EquipmentManager, confirm *safety.ConfirmationTracker, audit *safety.AuditLogger) tools.Registration {
	tool := mcp.NewTool("equipment_unassign",
		mcp.WithDescription("Clear project and person assignments on an equipment record. Requires a confirmation token obtained from a prior call without one."),
		mcp.WithString("equipment_id", mcp.Required(), mcp.Description("Equipment ident.")),
		mcp.WithString("confirmation_token", mcp.Description("Token from a prior equipment_unassign call.")),
	)

	handler := func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		start := time.Now()
		ident := req.GetString("equipment_id", "")
		token := req.GetString("confirmation_token", "")
		params := map[string]any{"equipment_id": ident}

		if confirm != nil && !confirm.Confirm(token) {
			tools.LogAudit(audit, "equipment_unassign", params, "confirmation requested", start)
			return tools.ConfirmPrompt(confirm, "equipment_unassign", ident,
				"This clears the equipment's project and person assignments."), nil
		}

		success, err := mgr.Unassign(ctx, ident)
		if err != nil {
			var nf *NotFoundError
			if errors.As(err, &nf) {
				tools.LogAudit(audit, "equipment_unassign", params, "error: not found", start)
				return tools.ErrorResult(nf.Error()), nil
			}
			tools.LogAudit(audit, "equipment_unassign", params, "error: "+err.Error(), start)
			return tools.ErrorResult(err.Error()), nil
		}
		if !success {
			tools.LogAudit(audit, "equipment_unassign", params, "rejected", start)
			return tools.ErrorResult(fmt.Sprintf("API did not confirm unassignment of equipment %q", ident)), nil
		}

		tools.LogAudit(audit, "equipment_unassign", params, "ok", start)
		return tools.TextResult(fmt.Sprintf("Equipment %q unassigned.", ident)), nil
	}

	return tools.Registration{Tool: tool, Handler: server.ToolHandlerFunc(handler)}
}
