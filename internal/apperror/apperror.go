// Package apperror defines the error kinds shared by every layer.
//
// Each kind is a sentinel error. Layers wrap the sentinel in an *AppError
// (with a human-readable message) or with fmt.Errorf("...: %w", err), and
// the HTTP boundary recovers the kind with errors.Is.
package apperror

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound      = errors.New("not found")
	ErrInvalidInput  = errors.New("invalid input")
	ErrTransport     = errors.New("transport failure")
	ErrConfigMissing = errors.New("configuration missing")
	ErrUnauthorized  = errors.New("unauthorized")
)

// Kind labels. These show up in logs, metrics and the delivery log, so
// they must stay stable.
const (
	KindNone          = "none"
	KindInvalidInput  = "invalid_input"
	KindTransport     = "transport_failure"
	KindConfigMissing = "configuration_missing"
	KindNotFound      = "not_found"
	KindUnauthorized  = "unauthorized"
	KindInternal      = "internal"
)

type AppError struct {
	Err     error  // actual error
	Message string // Human-readable error message
	Field   string // Optional: field causing the error
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func NotFound(resource, id string) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Message: fmt.Sprintf("%s not found with id %s", resource, id),
	}
}

// InvalidInput reports a malformed or incomplete submission.
func InvalidInput(field, message string) *AppError {
	return &AppError{
		Err:     ErrInvalidInput,
		Message: message,
		Field:   field,
	}
}

// TransportFailure wraps an error raised by an outbound transport (SMTP,
// HTTP). The cause stays reachable through errors.Is / errors.As.
func TransportFailure(message string, cause error) *AppError {
	return &AppError{
		Err:     errors.Join(ErrTransport, cause),
		Message: message,
	}
}

// ConfigMissing reports a required setting that was not provided.
func ConfigMissing(setting string) *AppError {
	return &AppError{
		Err:     ErrConfigMissing,
		Message: fmt.Sprintf("%s is not configured", setting),
		Field:   setting,
	}
}

// Unauthorized returns an AppError indicating the caller is not signed in
// or presented bad credentials. HTTP handlers map this to 401.
func Unauthorized(message string) *AppError {
	return &AppError{
		Err:     ErrUnauthorized,
		Message: message,
	}
}

// KindOf classifies err into one of the Kind labels.
func KindOf(err error) string {
	switch {
	case err == nil:
		return KindNone
	case errors.Is(err, ErrInvalidInput):
		return KindInvalidInput
	case errors.Is(err, ErrConfigMissing):
		return KindConfigMissing
	case errors.Is(err, ErrTransport):
		return KindTransport
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrUnauthorized):
		return KindUnauthorized
	default:
		return KindInternal
	}
}
