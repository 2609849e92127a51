// Package domainerrors defines the coded error type shared by all services.
//
// Services return these so callers (HTTP handlers, other services, tests) can
// branch on the specific rule that was violated instead of matching message
// strings. Stores return sentinel errors (pkg/platform/sentinel) and services
// translate them into coded errors at the boundary.
package domainerrors

import (
	"errors"
	"net/http"
)

// Code classifies a failure by the rule that rejected the operation.
type Code string

const (
	// CodeNotFound: a referenced entity does not exist.
	CodeNotFound Code = "not_found"
	// CodeAlreadyExists: duplicate creation (registration, enrollment).
	CodeAlreadyExists Code = "already_exists"
	// CodeNotAuthorized: role, admin, or ownership check failed.
	CodeNotAuthorized Code = "not_authorized"
	// CodeUnauthorized: the caller could not be authenticated at all.
	CodeUnauthorized Code = "unauthorized"
	// CodeInvalidInput: out-of-range or malformed argument.
	CodeInvalidInput Code = "invalid_input"
	// CodeInvalidState: the entity is in a terminal or incompatible state
	// (completing a completed enrollment, revoking a revoked credential,
	// transferring a soulbound token).
	CodeInvalidState Code = "invalid_state"
	// CodeBadRequest: transport-level request problems (malformed JSON).
	CodeBadRequest Code = "bad_request"
	// CodeInternal: unexpected infrastructure failure.
	CodeInternal Code = "internal_error"
)

// DomainError carries a code plus a human-readable message. The wrapped cause,
// when present, is reachable through errors.Is/As.
type DomainError struct {
	Code    Code
	Message string
	cause   error
}

func (e *DomainError) Error() string {
	if e.Message == "" {
		return string(e.Code)
	}
	return e.Message
}

func (e *DomainError) Unwrap() error { return e.cause }

// New builds a coded error with no underlying cause.
func New(code Code, message string) error {
	return &DomainError{Code: code, Message: message}
}

// Wrap attaches a code and message to an underlying error.
func Wrap(err error, code Code, message string) error {
	return &DomainError{Code: code, Message: message, cause: err}
}

// HasCode reports whether err (or anything it wraps) carries the given code.
func HasCode(err error, code Code) bool {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code == code
	}
	return false
}

// CodeOf extracts the code from err, defaulting to CodeInternal for errors
// that did not originate in domain logic.
func CodeOf(err error) Code {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}

// ToHTTPStatus maps a code to its HTTP response status.
func ToHTTPStatus(code Code) int {
	switch code {
	case CodeNotFound:
		return http.StatusNotFound
	case CodeAlreadyExists, CodeInvalidState:
		return http.StatusConflict
	case CodeNotAuthorized:
		return http.StatusForbidden
	case CodeUnauthorized:
		return http.StatusUnauthorized
	case CodeInvalidInput, CodeBadRequest:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
