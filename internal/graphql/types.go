// Package graphql provides the HTTP GraphQL client for the 123erfasst API.
package graphql

import (
	"context"
	"encoding/json"
)

// GraphQLError represents a single error returned in a GraphQL response.
type GraphQLError struct {
	Message string `json:"message"`
}

// Client defines the interface entity managers use to execute GraphQL
// operations. Both methods return the raw JSON bytes of the "data" field.
// Retry handling belongs entirely to the client; callers must not add their
// own retries on top.
type Client interface {
	Query(ctx context.Context, query string, variables map[string]any) (json.RawMessage, error)
	Mutation(ctx context.Context, mutation string, variables map[string]any) (json.RawMessage, error)
}
