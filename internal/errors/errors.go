// Package errors provides structured error handling for watchdeck services.
// It defines the error kinds every service operation may surface, a structured
// Error type carrying operation context, and helpers for consistent HTTP
// responses.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an error for callers and for HTTP mapping.
type Kind string

const (
	// KindNotAuthenticated indicates no resolvable actor on the request
	KindNotAuthenticated Kind = "not_authenticated"
	// KindAccessDenied indicates a capability check failed
	KindAccessDenied Kind = "access_denied"
	// KindNotFound indicates a watchlist, show, or user is missing
	KindNotFound Kind = "not_found"
	// KindPreconditionFailed indicates a required prior state is absent
	KindPreconditionFailed Kind = "precondition_failed"
	// KindConflict indicates a duplicate row or an unresolved uniqueness race
	KindConflict Kind = "conflict"
	// KindExternalProvider indicates the catalog provider call failed
	KindExternalProvider Kind = "external_provider_error"
	// KindPersistence indicates a store failure not otherwise classified
	KindPersistence Kind = "persistence_error"
	// KindValidation indicates invalid request parameters
	KindValidation Kind = "validation_error"
)

// Error is a structured error with a stable kind and operation context.
type Error struct {
	Kind    Kind
	Op      string // operation that failed, e.g. "catalog.get_or_fetch"
	Message string // human-readable, safe to expose
	Err     error  // underlying cause, never exposed for persistence errors
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches errors by kind so callers can test with sentinel values.
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return e.Kind == t.Kind
	}
	return false
}

// New creates a structured error.
func New(kind Kind, op, message string) *Error {
	return &Error{Kind: kind, Op: op, Message: message}
}

// Wrap creates a structured error around an underlying cause.
func Wrap(kind Kind, op, message string, err error) *Error {
	return &Error{Kind: kind, Op: op, Message: message, Err: err}
}

// Constructors for the common kinds

func NotAuthenticated(op string) *Error {
	return New(KindNotAuthenticated, op, "not authenticated")
}

func AccessDenied(op, message string) *Error {
	return New(KindAccessDenied, op, message)
}

func NotFound(op, resource string) *Error {
	return New(KindNotFound, op, resource+" not found")
}

func PreconditionFailed(op, message string) *Error {
	return New(KindPreconditionFailed, op, message)
}

func Conflict(op, message string) *Error {
	return New(KindConflict, op, message)
}

func ExternalProvider(op string, err error) *Error {
	return Wrap(KindExternalProvider, op, "catalog provider request failed", err)
}

// Persistence wraps a store failure. The underlying error is kept for logs
// but never rendered in responses.
func Persistence(op string, err error) *Error {
	return Wrap(KindPersistence, op, "storage operation failed", err)
}

func Validation(op, message string) *Error {
	return New(KindValidation, op, message)
}

// KindOf extracts the kind from an error, defaulting to persistence for
// unclassified failures.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindPersistence
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}

// HTTPStatus maps an error kind to its response status.
func HTTPStatus(kind Kind) int {
	switch kind {
	case KindNotAuthenticated:
		return http.StatusUnauthorized
	case KindAccessDenied:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindPreconditionFailed:
		return http.StatusPreconditionFailed
	case KindConflict:
		return http.StatusConflict
	case KindExternalProvider:
		return http.StatusBadGateway
	case KindValidation:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// PublicMessage returns the message safe to expose to clients. Persistence
// failures collapse to a generic message so store internals never leak.
func PublicMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		if e.Kind == KindPersistence {
			return "storage operation failed"
		}
		return e.Message
	}
	return "internal error"
}
