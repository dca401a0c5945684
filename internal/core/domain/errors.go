package domain

import (
	"errors"
	"sort"
	"strings"
)

// Authentication failures. Both are reported to clients generically.
var (
	ErrInvalidCredentials = errors.New("unable to authenticate")
	ErrNotAuthenticated   = errors.New("not authenticated")
)

// Confirmation failures. The transport layer reports all of them with one
// message so callers cannot probe which check failed.
var (
	ErrTokenNotFound = errors.New("confirmation token not found")
	ErrEmailMismatch = errors.New("confirmation token does not belong to email")
	ErrAlreadyActive = errors.New("account already active")
)

var (
	ErrAccountNotFound = errors.New("account not found")
	ErrAccountExists   = errors.New("account already exists")
	ErrTooManyAttempts = errors.New("too many attempts")
)

// ValidationError carries field-level messages keyed by request field name.
type ValidationError struct {
	Fields map[string]string
}

// NewValidationError returns a ValidationError holding a single field message.
func NewValidationError(field, msg string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: msg}}
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// IsConfirmError reports whether err is one of the expected confirmation failures.
func IsConfirmError(err error) bool {
	return errors.Is(err, ErrTokenNotFound) ||
		errors.Is(err, ErrEmailMismatch) ||
		errors.Is(err, ErrAlreadyActive)
}
