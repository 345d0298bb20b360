package projects

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

// DestructiveTools lists the project tools that require an explicit
// confirmation token before executing.
var DestructiveTools = []string{"project_delete"}

// ProjectTools returns the slice of MCP tool registrations for the projects
// package. Mutating tools consult the safety filter; deletion additionally
// requires confirmation.
func ProjectTools(mgr ProjectManager, filter *safety.Filter, confirm *safety.ConfirmationTracker, audit *safety.AuditLogger) []tools.Registration {
	return []tools.Registration{
		projectsListTool(mgr, audit),
		projectGetTool(mgr, audit),
		projectsSearchTool(mgr, audit),
		projectsActiveTool(mgr, audit),
		projectsByDateRangeTool(mgr, audit),
		projectStatisticsTool(mgr, audit),
		projectCreateTool(mgr, audit),
		projectUpdateTool(mgr, filter, audit),
		projectDeleteTool(mgr, filter, confirm, audit),
	}
}

// projectsListTool registers the projects_list MCP tool.
func projectsListTool(mgr ProjectManager, audit *safety.AuditLogger) tools.Registration {
	tool := mcp.NewTool("projects_list",
		mcp.WithDescription("List construction projects, optionally filtered by status (active, completed, on_hold, cancelled, planning) and limited in count."),
		mcp.WithString("status", mcp.Description("Optional status filter.")),
		mcp.WithNumber("limit", mcp.Description("Optional maximum number of results.")),
	)

	handler := func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		start := time.Now()
		opts := ListOptions{
			Status: req.GetString("status", ""),
			Limit:  req.GetInt("limit", 0),
		}
		params := map[string]any{"status": opts.Status, "limit": opts.Limit}

		list, err := mgr.List(ctx, opts)
		if err != nil {
			tools.LogAudit(audit, "projects_list", params, "error: "+err.Error(), start)
			return tools.ErrorResult(err.Error()), nil
		}

		tools.LogAudit(audit, "projects_list", params, "ok", start)
		return tools.JSONResult(list), nil
	}

	return tools.Registration{Tool: tool, Handler: server.ToolHandlerFunc(handler)}
}

// projectGetTool registers the project_get MCP tool.
func projectGetTool(mgr ProjectManager, audit *safety.AuditLogger) tools.Registration {
	tool := mcp.NewTool("project_get",
		mcp.WithDescription("Get detailed information for a single project by its ident."),
		mcp.WithString("project_id", mcp.Required(), mcp.Description("Project ident.")),
	)

	handler := func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		start := time.Now()
		ident := req.GetString("project_id", "")
		params := map[string]any{"project_id": ident}

		project, err := mgr.Get(ctx, ident)
		if err != nil {
			tools.LogAudit(audit, "project_get", params, "error: "+err.Error(), start)
			return tools.ErrorResult(err.Error()), nil
		}

		tools.LogAudit(audit, "project_get", params, "ok", start)
		return tools.JSONResult(project), nil
	}

	return tools.Registration{Tool: tool, Handler: server.ToolHandlerFunc(handler)}
}

// projectsSearchTool registers the projects_search MCP tool.
func projectsSearchTool(mgr ProjectManager, audit *safety.AuditLogger) tools.Registration {
	tool := mcp.NewTool("projects_search",
		mcp.WithDescription("Search projects by name (case-insensitive substring match)."),
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
			tools.LogAudit(audit, "projects_search", params, "error: "+err.Error(), start)
			return tools.ErrorResult(err.Error()), nil
		}

		tools.LogAudit(audit, "projects_search", params, "ok", start)
		return tools.JSONResult(list), nil
	}

	return tools.Registration{Tool: tool, Handler: server.ToolHandlerFunc(handler)}
}

// projectsActiveTool registers the projects_active MCP tool.
func projectsActiveTool(mgr ProjectManager, audit *safety.AuditLogger) tools.Registration {
	tool := mcp.NewTool("projects_active",
		mcp.WithDescription("List all currently active projects."),
	)

	handler := func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		start := time.Now()
		params := map[string]any{}

		list, err := mgr.List(ctx, ListOptions{Status: "active"})
		if err != nil {
			tools.LogAudit(audit, "projects_active", params, "error: "+err.Error(), start)
			return tools.ErrorResult(err.Error()), nil
		}

		tools.LogAudit(audit, "projects_active", params, "ok", start)
		return tools.JSONResult(list), nil
	}

	return tools.Registration{Tool: tool, Handler: server.ToolHandlerFunc(handler)}
}

// projectsByDateRangeTool registers the projects_by_date_range MCP tool.
func projectsByDateRangeTool(mgr ProjectManager, audit *safety.AuditLogger) tools.Registration {
	tool := mcp.NewTool("projects_by_date_range",
		mcp.WithDescription("List projects overlapping a date range (YYYY-MM-DD)."),
		mcp.WithString("start_date", mcp.Required(), mcp.Description("Range start (YYYY-MM-DD).")),
		mcp.WithString("end_date", mcp.Required(), mcp.Description("Range end (YYYY-MM-DD).")),
	)

	handler := func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		start := time.Now()
		startDate := req.GetString("start_date", "")
		endDate := req.GetString("end_date", "")
		params := map[string]any{"start_date": startDate, "end_date": endDate}

		list, err := mgr.ByDateRange(ctx, startDate, endDate)
		if err != nil {
			tools.LogAudit(audit, "projects_by_date_range", params, "error: "+err.Error(), start)
			return tools.ErrorResult(err.Error()), nil
		}

		tools.LogAudit(audit, "projects_by_date_range", params, "ok", start)
		return tools.JSONResult(list), nil
	}

	return tools.Registration{Tool: tool, Handler: server.ToolHandlerFunc(handler)}
}

// projectStatisticsTool registers the project_statistics MCP tool.
func projectStatisticsTool(mgr ProjectManager, audit *safety.AuditLogger) tools.Registration {
	tool := mcp.NewTool("project_statistics",
		mcp.WithDescription("Get aggregate project statistics."),
	)

	handler := func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		start := time.Now()
		params := map[string]any{}

		stats, err := mgr.Statistics(ctx)
		if err != nil {
			tools.LogAudit(audit, "project_statistics", params, "error: "+err.Error(), start)
			return tools.ErrorResult(err.Error()), nil
		}

		tools.LogAudit(audit, "project_statistics", params, "ok", start)
		return tools.JSONResult(stats), nil
	}

	return tools.Registration{Tool: tool, Handler: server.ToolHandlerFunc(handler)}
}

// projectCreateTool registers the project_create MCP tool.
func projectCreateTool(mgr ProjectManager, audit *safety.AuditLogger) tools.Registration {
	tool := mcp.NewTool("project_create",
		mcp.WithDescription("Create a new construction project."),
		mcp.WithString("name", mcp.Required(), mcp.Description("Project name.")),
		mcp.WithString("status", mcp.Description("Initial status (active, completed, on_hold, cancelled, planning).")),
		mcp.WithString("start_date", mcp.Description("Start date (YYYY-MM-DD).")),
		mcp.WithString("end_date", mcp.Description("End date (YYYY-MM-DD).")),
		mcp.WithString("description", mcp.Description("Project description.")),
		mcp.WithString("client_name", mcp.Description("Client name.")),
		mcp.WithNumber("budget", mcp.Description("Project budget.")),
		mcp.WithString("location", mcp.Description("Project location.")),
	)

	handler := func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		start := time.Now()
		input := CreateProjectInput{
			Name:        req.GetString("name", ""),
			Status:      req.GetString("status", ""),
			StartDate:   req.GetString("start_date", ""),
			EndDate:     req.GetString("end_date", ""),
			Description: req.GetString("description", ""),
			ClientName:  req.GetString("client_name", ""),
			Budget:      req.GetFloat("budget", 0),
			Location:    req.GetString("location", ""),
		}
		params := map[string]any{"name": input.Name, "status": input.Status}

		project, err := mgr.Create(ctx, input)
		if err != nil {
			tools.LogAudit(audit, "project_create", params, "error: "+err.Error(), start)
			return tools.ErrorResult(err.Error()), nil
		}

		tools.LogAudit(audit, "project_create", params, "ok", start)
		return tools.JSONResult(project), nil
	}

	return tools.Registration{Tool: tool, Handler: server.ToolHandlerFunc(handler)}
}

// projectUpdateTool registers the project_update MCP tool.
func projectUpdateTool(mgr ProjectManager, filter *safety.Filter, audit *safety.AuditLogger) tools.Registration {
	tool := mcp.NewTool("project_update",
		mcp.WithDescription("Update fields on an existing project."),
		mcp.WithString("project_id", mcp.Required(), mcp.Description("Project ident.")),
		mcp.WithString("fields", mcp.Required(), mcp.Description("JSON object string of fields to update.")),
	)

	handler := func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		start := time.Now()
		ident := req.GetString("project_id", "")
		fieldsStr := req.GetString("fields", "")
		params := map[string]any{"project_id": ident, "fields": fieldsStr}

		if filter != nil && !filter.IsAllowed(ident) {
			msg := fmt.Sprintf("project %q is not permitted by the safety filter", ident)
			tools.LogAudit(audit, "project_update", params, "denied: "+msg, start)
			return tools.ErrorResult(msg), nil
		}

		var fields map[string]any
		if err := json.Unmarshal([]byte(fieldsStr), &fields); err != nil {
			errMsg := fmt.Sprintf("parse fields JSON: %v", err)
			tools.LogAudit(audit, "project_update", params, "error: "+errMsg, start)
			return tools.ErrorResult(errMsg), nil
		}
		if len(fields) == 0 {
			tools.LogAudit(audit, "project_update", params, "error: no fields", start)
			return tools.ErrorResult("no fields to update"), nil
		}

		project, err := mgr.Update(ctx, ident, fields)
		if err != nil {
			tools.LogAudit(audit, "project_update", params, "error: "+err.Error(), start)
			return tools.ErrorResult(err.Error()), nil
		}

		tools.LogAudit(audit, "project_update", params, "ok", start)
		return tools.JSONResult(project), nil
	}

	return tools.Registration{Tool: tool, Handler: server.ToolHandlerFunc(handler)}
}

// projectDeleteTool registers the project_delete MCP tool. Deletion is
// destructive and requires a confirmation token.
func projectDeleteTool(mgr ProjectManager, filter *safety.Filter, confirm *safety.ConfirmationTracker, audit *safety.AuditLogger) tools.Registration {
	tool := mcp.NewTool("project_delete",
		mcp.WithDescription("Delete a project. Requires a confirmation token obtained from a prior call without one."),
		mcp.WithString("project_id", mcp.Required(), mcp.Description("Project ident.")),
		mcp.WithString("confirmation_token", mcp.Description("Token from a prior project_delete call.")),
	)

	handler := func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		start := time.Now()
		ident := req.GetString("project_id", "")
		token := req.GetString("confirmation_token", "")
		params := map[string]any{"project_id": ident}

		if filter != nil && !filter.IsAllowed(ident) {
			msg := fmt.Sprintf("project %q is not permitted by the safety filter", ident)
			tools.LogAudit(audit, "project_delete", params, "denied: "+msg, start)
			return tools.ErrorResult(msg), nil
		}

		if confirm != nil && !confirm.Confirm(token) {
			tools.LogAudit(audit, "project_delete", params, "confirmation requested", start)
			return tools.ConfirmPrompt(confirm, "project_delete", ident,
				"This permanently deletes the project and its records."), nil
		}

		success, err := mgr.Delete(ctx, ident)
		if err != nil {
			var nf *NotFoundError
			if errors.As(err, &nf) {
				tools.LogAudit(audit, "project_delete", params, "error: not found", start)
				return tools.ErrorResult(nf.Error()), nil
			}
			tools.LogAudit(audit, "project_delete", params, "error: "+err.Error(), start)
			return tools.ErrorResult(err.Error()), nil
		}
		if !success {
			tools.LogAudit(audit, "project_delete", params, "rejected", start)
			return tools.ErrorResult(fmt.Sprintf("API did not confirm deletion of project %q", ident)), nil
		}

		tools.LogAudit(audit, "project_delete", params, "ok", start)
		return tools.TextResult(fmt.Sprintf("Project %q deleted.", ident)), nil
	}

	return tools.Registration{Tool: tool, Handler: server.ToolHandlerFunc(handler)}
}
