// Package system provides health reporting for the MCP server and its
// GraphQL backend.
package system

import (
	"context"
	"time"

	"github.com/erfasst/erfasst-mcp/internal/graphql"
)

// HealthReport is a snapshot of server identity and backend connectivity.
type HealthReport struct {
	ServerName string    `json:"serverName"`
	Version    string    `json:"version"`
	Endpoint   string    `json:"endpoint"`
	Connected  bool      `json:"connected"`
	LatencyMS  int64     `json:"latencyMs"`
	Error      string    `json:"error,omitempty"`
	CheckedAt  time.Time `json:"checkedAt"`
}

// HealthChecker reports on server and backend health.
type HealthChecker interface {
	Check(ctx context.Context) *HealthReport
}

// GraphQLHealthChecker implements HealthChecker by issuing a minimal
// introspection query against the GraphQL backend.
type GraphQLHealthChecker struct {
	client     graphql.Client
	serverName string
	version    string
	endpoint   string
	now        func() time.Time
}

// NewGraphQLHealthChecker returns a health checker for the given backend.
func NewGraphQLHealthChecker(client graphql.Client, serverName, version, endpoint string) *GraphQLHealthChecker {
	if client == nil {
		panic("graphql client must not be nil")
	}
	return &GraphQLHealthChecker{
		client:     client,
		serverName: serverName,
		version:    version,
		endpoint:   endpoint,
		now:        time.Now,
	}
}

const probeQuery = `query { __schema { queryType { name } } }`

// Check probes the backend and returns a report. Connectivity failures are
// reported in the result rather than returned as an error.
func (c *GraphQLHealthChecker) Check(ctx context.Context) *HealthReport {
	report := &HealthReport{
		ServerName: c.serverName,
		Version:    c.version,
		Endpoint:   c.endpoint,
		CheckedAt:  c.now(),
	}

	start := c.now()
	_, err := c.client.Query(ctx, probeQuery, nil)
	report.LatencyMS = c.now().Sub(start).Milliseconds()

	if err != nil {
		report.Error = err.Error()
		return report
	}
	report.Connected = true
	return report
}

// Compile-time interface check.
var _ HealthChecker = (*GraphQLHealthChecker)(nil)
