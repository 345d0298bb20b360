package graphql

import "fmt"

// The client reports failures through a flat set of concrete error types so
// that callers can discriminate with errors.As instead of matching message
// substrings. Only NetworkError conditions (and, optionally, unclassified
// failures) are ever retried; auth and data failures fail fast.

// Error is the generic transport error and the catch-all for unclassified
// failures after retries are exhausted.
type Error struct {
	Op  string // "query" or "mutation"
	Msg string
	Err error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("graphql %s: %s: %v", e.Op, e.Msg, e.Err)
	}
	return fmt.Sprintf("graphql %s: %s", e.Op, e.Msg)
}

func (e *Error) Unwrap() error { return e.Err }

// AuthError indicates invalid, missing, or expired credentials: an empty
// secret at construction time or an HTTP 401 response. Never retried.
type AuthError struct {
	Msg string
}

func (e *AuthError) Error() string { return "graphql: " + e.Msg }

// NetworkError indicates an HTTP client error (4xx other than 401) or
// exhausted retries after persistent 5xx or connection failures. Status is
// zero when no HTTP response was received.
type NetworkError struct {
	Op       string
	Status   int
	Attempts int
	Err      error
}

func (e *NetworkError) Error() string {
	switch {
	case e.Status >= 500:
		return fmt.Sprintf("graphql %s: server error after %d attempts: HTTP %d", e.Op, e.Attempts, e.Status)
	case e.Status >= 400:
		return fmt.Sprintf("graphql %s: client error: HTTP %d", e.Op, e.Status)
	default:
		return fmt.Sprintf("graphql %s: network error after %d attempts: %v", e.Op, e.Attempts, e.Err)
	}
}

func (e *NetworkError) Unwrap() error { return e.Err }

// DataError indicates a malformed JSON body, a GraphQL-level errors array,
// or a response without a data key. These are deterministic failures of the
// operation itself and are never retried.
type DataError struct {
	Op  string
	Msg string
	Err error
}

func (e *DataError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("graphql %s: %s: %v", e.Op, e.Msg, e.Err)
	}
	return fmt.Sprintf("graphql %s: %s", e.Op, e.Msg)
}

func (e *DataError) Unwrap() error { return e.Err }
