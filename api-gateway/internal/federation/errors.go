package federation

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrComposition is matched by every *CompositionError.
	ErrComposition       = errors.New("gateway composition failed")
	ErrSubserviceTimeout = errors.New("subservice timed out")
	ErrSubserviceError   = errors.New("subservice request failed")
)

// Error codes the gateway puts in extensions.code.
const (
	CodeSubserviceTimeout = "SUBSERVICE_TIMEOUT"
	CodeSubserviceError   = "SUBSERVICE_ERROR"
	CodeUnknownField      = "UNKNOWN_FIELD"
	CodeParseFailed       = "GRAPHQL_PARSE_FAILED"
	CodeBadRequest        = "BAD_REQUEST"
)

// CompositionError reports why the supergraph could not be built. Either
// Subgraph is set (the subgraph could not be introspected) or Field and
// Owners are set (two subgraphs claim the same root field).
type CompositionError struct {
	Subgraph string
	Root     string
	Field    string
	Owners   []string
	Err      error
}

func (e *CompositionError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s.%s is defined by more than one subgraph (%s)",
			ErrComposition, e.Root, e.Field, strings.Join(e.Owners, ", "))
	}
	return fmt.Sprintf("%s: subgraph %s: %v", ErrComposition, e.Subgraph, e.Err)
}

func (e *CompositionError) Is(target error) bool { return target == ErrComposition }

func (e *CompositionError) Unwrap() error { return e.Err }

// fieldError is an error entry produced by the gateway itself.
type fieldError struct {
	Message    string         `json:"message"`
	Path       []any          `json:"path,omitempty"`
	Extensions map[string]any `json:"extensions,omitempty"`
}

func newFieldError(key, code, service, message string) fieldError {
	ext := map[string]any{"code": code}
	if service != "" {
		ext["service"] = service
	}
	return fieldError{Message: message, Path: []any{key}, Extensions: ext}
}

// RequestError rejects a request before any subgraph is called.
type RequestError struct {
	Code    string
	Message string
}

func (e *RequestError) Error() string { return e.Message }

func (e *RequestError) fieldError() fieldError {
	return fieldError{Message: e.Message, Extensions: map[string]any{"code": e.Code}}
}
