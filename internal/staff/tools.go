package staff

import (
	"context"
	"time"

	"github.com/erfasst/erfasst-mcp/internal/safety"
	"github.com/erfasst/erfasst-mcp/internal/tools"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// StaffTools returns the slice of MCP tool registrations for the staff
// package. All staff tools are read-only and require no confirmation.
func StaffTools(mgr StaffManager, audit *safety.AuditLogger) []tools.Registration {
	return []tools.Registration{
		staffListTool(mgr, audit),
		staffGetTool(mgr, audit),
		staffSearchTool(mgr, audit),
		staffByRoleTool(mgr, audit),
		staffActiveTool(mgr, audit),
		staffByProjectTool(mgr, audit),
		staffStatisticsTool(mgr, audit),
	}
}

func staffListTool(mgr StaffManager, audit *safety.AuditLogger) tools.Registration {
	tool := mcp.NewTool("staff_list",
		mcp.WithDescription("List staff members, optionally filtered by role and limited in count."),
		mcp.WithString("role", mcp.Description("Optional role filter.")),
		mcp.WithNumber("limit", mcp.Description("Optional maximum number of results.")),
	)

	handler := func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		start := time.Now()
		opts := ListOptions{
			Role:  req.GetString("role", ""),
			Limit: req.GetInt("limit", 0),
		}
		params := map[string]any{"role": opts.Role, "limit": opts.Limit}

		list, err := mgr.List(ctx, opts)
		if err != nil {
			tools.LogAudit(audit, "staff_list", params, "error: "+err.Error(), start)
			return tools.ErrorResult(err.Error()), nil
		}

		tools.LogAudit(audit, "staff_list", params, "ok", start)
		return tools.JSONResult(list), nil
	}

	return tools.Registration{Tool: tool, Handler: server.ToolHandlerFunc(handler)}
}

func staffGetTool(mgr StaffManager, audit *safety.AuditLogger) tools.Registration {
	tool := mcp.NewTool("staff_get",
		mcp.WithDescription("Get detailed information for a single staff member by ident."),
		mcp.WithString("person_id", mcp.Required(), mcp.Description("Person ident.")),
	)

	handler := func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		start := time.Now()
		ident := req.GetString("person_id", "")
		params := map[string]any{"person_id": ident}

		person, err := mgr.Get(ctx, ident)
		if err != nil {
			tools.LogAudit(audit, "staff_get", params, "error: "+err.Error(), start)
			return tools.ErrorResult(err.Error()), nil
		}

		tools.LogAudit(audit, "staff_get", params, "ok", start)
		return tools.JSONResult(person), nil
	}

	return tools.Registration{Tool: tool, Handler: server.ToolHandlerFunc(handler)}
}

func staffSearchTool(mgr StaffManager, audit *safety.AuditLogger) tools.Registration {
	tool := mcp.NewTool("staff_search",
		mcp.WithDescription("Search staff members by name (case-insensitive substring match)."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search text.")),
		mcp.WithNumber("limit", mcp.Description("Optional maximum number of results.")),
	)

	handler := func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		start := time.Now()
		query := req.GetString("query", "")
		limit := req.GetInt("limit", 0)
		params := map[string]any{"query": query, "limit": limit}

		list, err := mgr.Search(ctx, query, limit)
		if err != nil {
			tools.LogAudit(audit, "staff_search", params, "error: "+err.Error(), start)
			return tools.ErrorResult(err.Error()), nil
		}

		tools.LogAudit(audit, "staff_search", params, "ok", start)
		return tools.JSONResult(list), nil
	}

	return tools.Registration{Tool: tool, Handler: server.ToolHandlerFunc(handler)}
}

func staffByRoleTool(mgr StaffManager, audit *safety.AuditLogger) tools.Registration {
	tool := mcp.NewTool("staff_by_role",
		mcp.WithDescription("List staff members with a specific role."),
		mcp.WithString("role", mcp.Required(), mcp.Description("Role, e.g. Site Manager, Engineer, Worker.")),
	)

	handler := func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		start := time.Now()
		role := req.GetString("role", "")
		params := map[string]any{"role": role}

		list, err := mgr.ByRole(ctx, role)
		if err != nil {
			tools.LogAudit(audit, "staff_by_role", params, "error: "+err.Error(), start)
			return tools.ErrorResult(err.Error()), nil
		}

		tools.LogAudit(audit, "staff_by_role", params, "ok", start)
		return tools.JSONResult(list), nil
	}

	return tools.Registration{Tool: tool, Handler: server.ToolHandlerFunc(handler)}
}

func staffActiveTool(mgr StaffManager, audit *safety.AuditLogger) tools.Registration {
	tool := mcp.NewTool("staff_active",
		mcp.WithDescription("List all active staff members."),
	)

	handler := func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		start := time.Now()
		params := map[string]any{}

		list, err := mgr.Active(ctx)
		if err != nil {
			tools.LogAudit(audit, "staff_active", params, "error: "+err.Error(), start)
			return tools.ErrorResult(err.Error()), nil
		}

		tools.LogAudit(audit, "staff_active", params, "ok", start)
		return tools.JSONResult(list), nil
	}

	return tools.Registration{Tool: tool, Handler: server.ToolHandlerFunc(handler)}
}

func staffByProjectTool(mgr StaffManager, audit *safety.AuditLogger) tools.Registration {
	tool := mcp.NewTool("staff_by_project",
		mcp.WithDescription("List staff members assigned to a project."),
		mcp.WithString("project_id", mcp.Required(), mcp.Description("Project ident.")),
	)

	handler := func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		start := time.Now()
		projectID := req.GetString("project_id", "")
		params := map[string]any{"project_id": projectID}

		list, err := mgr.ByProject(ctx, projectID)
		if err != nil {
			tools.LogAudit(audit, "staff_by_project", params, "error: "+err.Error(), start)
			return tools.ErrorResult(err.Error()), nil
		}

		tools.LogAudit(audit, "staff_by_project", params, "ok", start)
		return tools.JSONResult(list), nil
	}

	return tools.Registration{Tool: tool, Handler: server.ToolHandlerFunc(handler)}
}

func staffStatisticsTool(mgr StaffManager, audit *safety.AuditLogger) tools.Registration {
	tool := mcp.NewTool("staff_statistics",
		mcp.WithDescription("Get aggregate staff statistics."),
	)

	handler := func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		start := time.Now()
		params := map[string]any{}

		stats, err := mgr.Statistics(ctx)
		if err != nil {
			tools.LogAudit(audit, "staff_statistics", params, "error: "+err.Error(), start)
			return tools.ErrorResult(err.Error()), nil
		}

		tools.LogAudit(audit, "staff_statistics", params, "ok", start)
		return tools.JSONResult(stats), nil
	}

	return tools.Registration{Tool: tool, Handler: server.ToolHandlerFunc(handler)}
}
