// Package apierrors defines the stable error taxonomy shared by every
// component that talks to the authentication backend. A failed call is
// always surfaced as an *Error carrying a Kind, so callers can branch on
// the class of failure without string matching.
package apierrors

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/pkg/errors"
)

// Kind classifies a failure. The set is closed; anything the classifier
// cannot place lands in KindUnknown.
type Kind string

const (
	// KindValidation covers malformed or missing local input, and
	// server-reported field-level validation failures.
	KindValidation Kind = "VALIDATION"
	// KindConflict means the resource already exists (duplicate email).
	KindConflict Kind = "CONFLICT"
	// KindUnauthorized means invalid credentials or an invalid/expired token.
	KindUnauthorized Kind = "UNAUTHORIZED"
	// KindForbidden means authenticated but not permitted.
	KindForbidden Kind = "FORBIDDEN"
	// KindNotFound means a referenced resource (e.g. a reset token) is absent.
	KindNotFound Kind = "NOT_FOUND"
	// KindRateLimited means the backend is throttling.
	KindRateLimited Kind = "RATE_LIMITED"
	// KindServerError covers any 5xx from the backend.
	KindServerError Kind = "SERVER_ERROR"
	// KindNetworkError means no response was received at all.
	KindNetworkError Kind = "NETWORK_ERROR"
	// KindNoSession means an operation requiring a credential ran without one.
	KindNoSession Kind = "NO_SESSION"
	// KindUnknown is the fallback for everything else.
	KindUnknown Kind = "UNKNOWN"
)

// Error is the structured failure attached to the session and returned to
// callers. Field is set when the failure maps to a single form field.
type Error struct {
	Message    string `json:"message"`
	Kind       Kind   `json:"kind"`
	Field      string `json:"field,omitempty"`
	StatusCode int    `json:"statusCode,omitempty"`
}

func (e *Error) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s (%s, field %q)", e.Message, e.Kind, e.Field)
	}
	return fmt.Sprintf("%s (%s)", e.Message, e.Kind)
}

// Is allows errors.Is comparisons against an *Error with the same Kind.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return e.Kind == t.Kind
}

// New builds an Error of the given kind.
func New(kind Kind, message string) *Error {
	return &Error{Message: message, Kind: kind}
}

// Validation builds a local input validation failure for a single field.
func Validation(field, message string) *Error {
	return &Error{Message: message, Kind: KindValidation, Field: field}
}

// NoSession is the failure returned when a credential-requiring operation
// runs without a credential. No network call precedes it.
func NoSession() *Error {
	return &Error{Message: "no active session", Kind: KindNoSession}
}

// FromErr returns err as an *Error, wrapping anything unclassified as
// KindUnknown. A nil err returns nil.
func FromErr(err error) *Error {
	if err == nil {
		return nil
	}
	var structured *Error
	if errors.As(err, &structured) {
		return structured
	}
	return &Error{Message: err.Error(), Kind: KindUnknown}
}

// wireError is the shape the backend uses for failure bodies.
type wireError struct {
	Message string `json:"message"`
	Error   string `json:"error"`
	Field   string `json:"field"`
}

// Classify maps the outcome of a backend call to an *Error. It is pure and
// total: err non-nil means no response was received (offline, timeout, DNS),
// otherwise statusCode and body describe the response. The body is parsed
// best-effort for {message, field}; a default message is used when absent.
func Classify(statusCode int, body []byte, err error) *Error {
	if err != nil {
		return &Error{
			Message: "network unreachable: " + err.Error(),
			Kind:    KindNetworkError,
		}
	}

	var wire wireError
	// Body parse failures fall back to kind defaults.
	_ = json.Unmarshal(body, &wire)
	message := wire.Message
	if message == "" {
		message = wire.Error
	}

	kind := kindForStatus(statusCode)
	if message == "" {
		message = defaultMessage(kind)
	}

	return &Error{
		Message:    message,
		Kind:       kind,
		Field:      wire.Field,
		StatusCode: statusCode,
	}
}

func kindForStatus(statusCode int) Kind {
	switch {
	case statusCode == http.StatusBadRequest, statusCode == http.StatusUnprocessableEntity:
		return KindValidation
	case statusCode == http.StatusUnauthorized:
		return KindUnauthorized
	case statusCode == http.StatusForbidden:
		return KindForbidden
	case statusCode == http.StatusNotFound:
		return KindNotFound
	case statusCode == http.StatusConflict:
		return KindConflict
	case statusCode == http.StatusTooManyRequests:
		return KindRateLimited
	case statusCode >= 500 && statusCode <= 599:
		return KindServerError
	default:
		return KindUnknown
	}
}

func defaultMessage(kind Kind) string {
	switch kind {
	case KindValidation:
		return "invalid request"
	case KindUnauthorized:
		return "invalid credentials or expired token"
	case KindForbidden:
		return "not permitted"
	case KindNotFound:
		return "not found"
	case KindConflict:
		return "resource already exists"
	case KindRateLimited:
		return "too many requests"
	case KindServerError:
		return "server error"
	default:
		return "unexpected response"
	}
}
