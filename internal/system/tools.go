package system

import (
	"context"
	"fmt"
	"time"

	"github.com/erfasst/erfasst-mcp/internal/safety"
	"github.com/erfasst/erfasst-mcp/internal/tools"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// SystemTools returns the slice of MCP tool registrations for the system
// package. These tools are read-only and require no confirmation.
func SystemTools(hc HealthChecker, audit *safety.AuditLogger) []tools.Registration {
	return []tools.Registration{
		healthCheckTool(hc, audit),
		connectionTestTool(hc, audit),
	}
}

func healthCheckTool(hc HealthChecker, audit *safety.AuditLogger) tools.Registration {
	tool := mcp.NewTool("health_check",
		mcp.WithDescription("Get server identity and GraphQL backend connectivity status."),
	)

	handler := func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		start := time.Now()
		params := map[string]any{}

		report := hc.Check(ctx)

		result := "ok"
		if !report.Connected {
			result = "backend unreachable"
		}
		tools.LogAudit(audit, "health_check", params, result, start)
		return tools.JSONResult(report), nil
	}

	return tools.Registration{Tool: tool, Handler: server.ToolHandlerFunc(handler)}
}

func connectionTestTool(hc HealthChecker, audit *safety.AuditLogger) tools.Registration {
	tool := mcp.NewTool("connection_test",
		mcp.WithDescription("Test connectivity to the GraphQL API endpoint."),
	)

	handler := func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		start := time.Now()
		params := map[string]any{}

		report := hc.Check(ctx)
		if !report.Connected {
			tools.LogAudit(audit, "connection_test", params, "error: "+report.Error, start)
			return tools.ErrorResult(fmt.Sprintf("connection to %s failed: %s", report.Endpoint, report.Error)), nil
		}

		tools.LogAudit(audit, "connection_test", params, "ok", start)
		return tools.TextResult(fmt.Sprintf("Connected to %s in %dms.", report.Endpoint, report.LatencyMS)), nil
	}

	return tools.Registration{Tool: tool, Handler: server.ToolHandlerFunc(handler)}
}
