// Package graphql provides the HTTP GraphQL client and MCP tool registration
// for the 123erfasst GraphQL API escape hatch.
package graphql

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/erfasst/erfasst-mcp/internal/safety"
	"github.com/erfasst/erfasst-mcp/internal/tools"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

const toolNameGraphQLQuery = "graphql_query"

// GraphQLTools returns a slice of tool registrations for the GraphQL escape
// hatch. It exposes a single "graphql_query" tool that allows callers to
// execute arbitrary GraphQL operations against the 123erfasst API.
func GraphQLTools(client Client, audit *safety.AuditLogger) []tools.Registration {
	return []tools.Registration{
		toolGraphQLQuery(client, audit),
	}
}

// toolGraphQLQuery constructs the graphql_query Registration.
func toolGraphQLQuery(client Client, audit *safety.AuditLogger) tools.Registration {
	tool := mcp.NewTool(toolNameGraphQLQuery,
		mcp.WithDescription("Execute an arbitrary GraphQL operation against the 123erfasst API. Use when direct API access is needed beyond the provided tools."),
		mcp.WithString("operation",
			mcp.Required(),
			mcp.Description("The GraphQL query or mutation document to execute."),
		),
		mcp.WithString("variables",
			mcp.Description("Optional JSON object string of variables to pass with the operation."),
		),
		mcp.WithString("kind",
			mcp.Description("Operation kind: \"query\" (default) or \"mutation\"."),
		),
	)

	handler := func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		start := time.Now()

		operation := req.GetString("operation", "")
		variablesStr := req.GetString("variables", "")
		kind := req.GetString("kind", "query")

		params := map[string]any{
			"operation": operation,
			"variables": variablesStr,
			"kind":      kind,
		}

		// Parse variables JSON if provided.
		var parsedVars map[string]any
		if variablesStr != "" {
			if err := json.Unmarshal([]byte(variablesStr), &parsedVars); err != nil {
				errMsg := fmt.Sprintf("parse variables JSON: %v", err)
				tools.LogAudit(audit, toolNameGraphQLQuery, params, "error: "+errMsg, start)
				return tools.ErrorResult(errMsg), nil
			}
		}

		var data json.RawMessage
		var err error
		switch kind {
		case "query":
			data, err = client.Query(ctx, operation, parsedVars)
		case "mutation":
			data, err = client.Mutation(ctx, operation, parsedVars)
		default:
			errMsg := fmt.Sprintf("invalid kind %q: must be \"query\" or \"mutation\"", kind)
			tools.LogAudit(audit, toolNameGraphQLQuery, params, "error: "+errMsg, start)
			return tools.ErrorResult(errMsg), nil
		}
		if err != nil {
			tools.LogAudit(audit, toolNameGraphQLQuery, params, "error: "+err.Error(), start)
			return tools.ErrorResult(err.Error()), nil
		}

		// Unmarshal the raw JSON bytes into any so tools.JSONResult can
		// pretty-print it with consistent indentation.
		var parsed any
		if err := json.Unmarshal(data, &parsed); err != nil {
			tools.LogAudit(audit, toolNameGraphQLQuery, params, "error: "+err.Error(), start)
			return tools.ErrorResult(err.Error()), nil
		}

		tools.LogAudit(audit, toolNameGraphQLQuery, params, "ok", start)
		return tools.JSONResult(parsed), nil
	}

	return tools.Registration{Tool: tool, Handler: server.ToolHandlerFunc(handler)}
}
