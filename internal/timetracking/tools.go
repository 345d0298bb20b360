package timetracking

import (
	"context"
	"errors"
	"time"

	"github.com/erfasst/erfasst-mcp/internal/safety"
	"github.com/erfasst/erfasst-mcp/internal/tools"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// TimeTrackingTools returns the slice of MCP tool registrations for the
// timetracking package. Start and stop mutate remote state but are not
// destructive, so no confirmation token is required.
func TimeTrackingTools(tracker TimeTracker, audit *safety.AuditLogger) []tools.Registration {
	return []tools.Registration{
		timeStartTool(tracker, audit),
		timeStopTool(tracker, audit),
		timeStatusTool(tracker, audit),
		timeCurrentTool(tracker, audit),
		timeHistoryTool(tracker, audit),
	}
}

func timeStartTool(tracker TimeTracker, audit *safety.AuditLogger) tools.Registration {
	tool := mcp.NewTool("time_start",
		mcp.WithDescription("Start time tracking for a project and person. Fails if tracking is already active."),
		mcp.WithString("project_id", mcp.Required(), mcp.Description("Project ident.")),
		mcp.WithString("person_id", mcp.Required(), mcp.Description("Person ident.")),
		mcp.WithString("description", mcp.Description("Optional work description.")),
	)

	handler := func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		start := time.Now()
		projectID := req.GetString("project_id", "")
		personID := req.GetString("person_id", "")
		description := req.GetString("description", "")
		params := map[string]any{"project_id": projectID, "person_id": personID}

		record, err := tracker.Start(ctx, projectID, personID, description)
		if err != nil {
			if errors.Is(err, ErrTrackingActive) {
				tools.LogAudit(audit, "time_start", params, "error: already active", start)
				return tools.ErrorResult(err.Error()), nil
			}
			tools.LogAudit(audit, "time_start", params, "error: "+err.Error(), start)
			return tools.ErrorResult(err.Error()), nil
		}

		tools.LogAudit(audit, "time_start", params, "ok", start)
		return tools.JSONResult(record), nil
	}

	return tools.Registration{Tool: tool, Handler: server.ToolHandlerFunc(handler)}
}

func timeStopTool(tracker TimeTracker, audit *safety.AuditLogger) tools.Registration {
	tool := mcp.NewTool("time_stop",
		mcp.WithDescription("Stop the active time tracking session. Fails if no tracking is active."),
	)

	handler := func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		start := time.Now()
		params := map[string]any{}

		record, err := tracker.Stop(ctx)
		if err != nil {
			if errors.Is(err, ErrTrackingNotActive) {
				tools.LogAudit(audit, "time_stop", params, "error: not active", start)
				return tools.ErrorResult(err.Error()), nil
			}
			tools.LogAudit(audit, "time_stop", params, "error: "+err.Error(), start)
			return tools.ErrorResult(err.Error()), nil
		}

		tools.LogAudit(audit, "time_stop", params, "ok", start)
		return tools.JSONResult(record), nil
	}

	return tools.Registration{Tool: tool, Handler: server.ToolHandlerFunc(handler)}
}

func timeStatusTool(tracker TimeTracker, audit *safety.AuditLogger) tools.Registration {
	tool := mcp.NewTool("time_status",
		mcp.WithDescription("Report whether time tracking is currently active."),
	)

	handler := func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		start := time.Now()
		status := tracker.Status()
		tools.LogAudit(audit, "time_status", map[string]any{}, "ok", start)
		return tools.JSONResult(status), nil
	}

	return tools.Registration{Tool: tool, Handler: server.ToolHandlerFunc(handler)}
}

func timeCurrentTool(tracker TimeTracker, audit *safety.AuditLogger) tools.Registration {
	tool := mcp.NewTool("time_current",
		mcp.WithDescription("List current time tracking records."),
	)

	handler := func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		start := time.Now()
		params := map[string]any{}

		list, err := tracker.CurrentTimes(ctx)
		if err != nil {
			tools.LogAudit(audit, "time_current", params, "error: "+err.Error(), start)
			return tools.ErrorResult(err.Error()), nil
		}

		tools.LogAudit(audit, "time_current", params, "ok", start)
		return tools.JSONResult(list), nil
	}

	return tools.Registration{Tool: tool, Handler: server.ToolHandlerFunc(handler)}
}

func timeHistoryTool(tracker TimeTracker, audit *safety.AuditLogger) tools.Registration {
	tool := mcp.NewTool("time_history",
		mcp.WithDescription("List time tracking history, limited in count."),
		mcp.WithNumber("limit", mcp.Description("Optional maximum number of records.")),
	)

	handler := func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		start := time.Now()
		limit := req.GetInt("limit", 0)
		params := map[string]any{"limit": limit}

		list, err := tracker.History(ctx, limit)
		if err != nil {
			tools.LogAudit(audit, "time_history", params, "error: "+err.Error(), start)
			return tools.ErrorResult(err.Error()), nil
		}

		tools.LogAudit(audit, "time_history", params, "ok", start)
		return tools.JSONResult(list), nil
	}

	return tools.Registration{Tool: tool, Handler: server.ToolHandlerFunc(handler)}
}
