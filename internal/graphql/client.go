// Package graphql provides the HTTP GraphQL client for the 123erfasst API.
package graphql

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/erfasst/erfasst-mcp/internal/config"
)

const (
	defaultTimeout    = 30 * time.Second
	defaultMaxRetries = 3
	defaultBaseDelay  = 1 * time.Second
	defaultUsername   = "api"
)

// introspectionQuery is the minimal probe used by TestConnection.
const introspectionQuery = `query { __schema { queryType { name } } }`

// HTTPClient is a concrete implementation of the Client interface that sends
// GraphQL requests over HTTP using the standard library net/http package.
//
// The endpoint, credentials, and retry policy are fixed at construction time;
// the client holds no mutable state afterwards and is safe for concurrent use
// by any number of callers.
type HTTPClient struct {
	httpClient      *http.Client
	endpoint        string
	authHeader      string
	maxRetries      int
	baseDelay       time.Duration
	retryUnexpected bool

	// sleep is the backoff primitive; replaced in tests.
	sleep func(ctx context.Context, d time.Duration) error
}

// NewHTTPClient constructs an HTTPClient from the provided GraphQLConfig.
//
// It returns an *AuthError if cfg.Secret is empty: a client without
// credentials would fail every operation, so it is never constructed. An
// empty username defaults to "api", the fixed Basic Auth username of the
// 123erfasst API. The Authorization header value is computed once here and
// never changes for the lifetime of the client.
func NewHTTPClient(cfg config.GraphQLConfig) (*HTTPClient, error) {
	if cfg.Secret == "" {
		return nil, &AuthError{Msg: "API token is required"}
	}
	if cfg.URL == "" {
		return nil, fmt.Errorf("graphql: URL is required")
	}

	username := cfg.Username
	if username == "" {
		username = defaultUsername
	}

	timeout := time.Duration(cfg.Timeout) * time.Second
	if cfg.Timeout <= 0 {
		timeout = defaultTimeout
	}

	maxRetries := cfg.MaxRetries
	if maxRetries <= 0 {
		maxRetries = defaultMaxRetries
	}

	baseDelay := time.Duration(cfg.RetryBaseDelay) * time.Second
	if cfg.RetryBaseDelay <= 0 {
		baseDelay = defaultBaseDelay
	}

	credentials := username + ":" + cfg.Secret

	return &HTTPClient{
		httpClient:      &http.Client{Timeout: timeout},
		endpoint:        cfg.URL,
		authHeader:      "Basic " + base64.StdEncoding.EncodeToString([]byte(credentials)),
		maxRetries:      maxRetries,
		baseDelay:       baseDelay,
		retryUnexpected: cfg.RetryUnexpectedEnabled(),
		sleep:           sleepContext,
	}, nil
}

// graphqlRequest is the JSON body shape for a GraphQL HTTP request. Variables
// is always serialized, as an empty object when no variables were given.
type graphqlRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables"`
}

// graphqlResponse is the JSON body shape for a GraphQL HTTP response.
type graphqlResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors []GraphQLError  `json:"errors"`
}

// Query executes a GraphQL query and returns the raw JSON bytes of the
// "data" field. Variables may be nil.
func (c *HTTPClient) Query(ctx context.Context, query string, variables map[string]any) (json.RawMessage, error) {
	return c.execute(ctx, query, variables, "query")
}

// Mutation executes a GraphQL mutation and returns the raw JSON bytes of the
// "data" field. Variables may be nil.
func (c *HTTPClient) Mutation(ctx context.Context, mutation string, variables map[string]any) (json.RawMessage, error) {
	return c.execute(ctx, mutation, variables, "mutation")
}

// TestConnection issues a minimal introspection query to verify that the
// endpoint and credentials are usable end to end. Any failure is wrapped in
// a generic *Error.
func (c *HTTPClient) TestConnection(ctx context.Context) error {
	if _, err := c.Query(ctx, introspectionQuery, nil); err != nil {
		return &Error{Op: "query", Msg: "connection test failed", Err: err}
	}
	return nil
}

// transientError marks an attempt failure that may be retried. It never
// escapes execute; exhaustion converts it into the public error types.
type transientError struct {
	status     int  // non-zero when an HTTP 5xx status was received
	unexpected bool // true when the failure was not a recognized network failure
	err        error
}

func (e *transientError) Error() string {
	if e.status != 0 {
		return fmt.Sprintf("HTTP %d", e.status)
	}
	return e.err.Error()
}

// execute runs one GraphQL operation with bounded retries and exponential
// backoff. opKind is "query" or "mutation" and only affects logging and
// error labels; the transport mechanics are identical.
//
// Authentication and data failures short-circuit the loop: they are
// deterministic and retrying would only waste attempts. Server errors (5xx)
// and connection-level failures are transient and retried with a doubling
// delay. The request payload is marshaled once so every retry resends
// byte-identical bytes.
func (c *HTTPClient) execute(ctx context.Context, operation string, variables map[string]any, opKind string) (json.RawMessage, error) {
	if variables == nil {
		variables = map[string]any{}
	}

	payload, err := json.Marshal(graphqlRequest{Query: operation, Variables: variables})
	if err != nil {
		return nil, &DataError{Op: opKind, Msg: "marshal request", Err: err}
	}

	delay := c.baseDelay

	for attempt := 0; attempt < c.maxRetries; attempt++ {
		data, err := c.doAttempt(ctx, opKind, payload)
		if err == nil {
			return data, nil
		}

		tErr, ok := err.(*transientError)
		if !ok {
			// Auth, client, or data error: fail fast.
			return nil, err
		}
		if tErr.unexpected && !c.retryUnexpected {
			return nil, &Error{Op: opKind, Msg: "unexpected error", Err: tErr.err}
		}

		if attempt == c.maxRetries-1 {
			// Retries exhausted.
			if tErr.unexpected {
				return nil, &Error{
					Op:  opKind,
					Msg: fmt.Sprintf("unexpected error after %d attempts", c.maxRetries),
					Err: tErr.err,
				}
			}
			return nil, &NetworkError{Op: opKind, Status: tErr.status, Attempts: c.maxRetries, Err: tErr.err}
		}

		log.Printf("warning: graphql %s attempt %d/%d failed (%v), retrying in %s",
			opKind, attempt+1, c.maxRetries, tErr, delay)

		if serr := c.sleep(ctx, delay); serr != nil {
			return nil, &Error{Op: opKind, Msg: "cancelled during backoff", Err: serr}
		}
		delay *= 2
	}

	// Unreachable: the loop always returns or exhausts above.
	return nil, &Error{Op: opKind, Msg: "maximum retries exceeded"}
}

// doAttempt performs a single HTTP exchange. Transient failures are returned
// as *transientError; everything else is a final classified error.
func (c *HTTPClient) doAttempt(ctx context.Context, opKind string, payload []byte) (json.RawMessage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, &Error{Op: opKind, Msg: "create request", Err: err}
	}
	req.Header.Set("Authorization", c.authHeader)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// A caller-cancelled context is not a transient condition.
		if ctx.Err() != nil {
			return nil, &Error{Op: opKind, Msg: "request cancelled", Err: err}
		}
		return nil, &transientError{err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return nil, &AuthError{Msg: "invalid or expired API token"}
	case resp.StatusCode >= 500:
		return nil, &transientError{status: resp.StatusCode, err: fmt.Errorf("server error: HTTP %d", resp.StatusCode)}
	case resp.StatusCode >= 400:
		return nil, &NetworkError{Op: opKind, Status: resp.StatusCode, Attempts: 1}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &transientError{unexpected: true, err: fmt.Errorf("read response body: %w", err)}
	}

	var gqlResp graphqlResponse
	if err := json.Unmarshal(body, &gqlResp); err != nil {
		return nil, &DataError{Op: opKind, Msg: "invalid JSON response", Err: err}
	}

	if len(gqlResp.Errors) > 0 {
		msgs := make([]string, len(gqlResp.Errors))
		for i, e := range gqlResp.Errors {
			msgs[i] = e.Message
		}
		return nil, &DataError{Op: opKind, Msg: "GraphQL errors: " + strings.Join(msgs, "; ")}
	}

	if len(gqlResp.Data) == 0 || string(gqlResp.Data) == "null" {
		return nil, &DataError{Op: opKind, Msg: "no data in GraphQL response"}
	}

	return gqlResp.Data, nil
}

// sleepContext waits for d or until ctx is cancelled, whichever happens
// first.
func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Compile-time interface check.
var _ Client = (*HTTPClient)(nil)
