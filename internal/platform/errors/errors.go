package apperrors

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInvalidInput       = errors.New("invalid input")
	ErrNotFound           = errors.New("not found")
	ErrNoSession          = errors.New("no session")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrUnauthenticated    = errors.New("session expired")
	ErrRequestFailed      = errors.New("request failed")
	ErrTimeout            = errors.New("request timed out")
	ErrBusy               = errors.New("request already in flight")
	ErrStoryEnded         = errors.New("story has ended")
	ErrStale              = errors.New("stale response")
)

// FieldError is a single field-level validation failure.
type FieldError struct {
	Field   string
	Message string
}

// ValidationError collects field errors in the order they were found.
// It unwraps to ErrInvalidInput.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Add(field, message string) {
	e.Fields = append(e.Fields, FieldError{Field: field, Message: message})
}

// Err returns nil when no field failed, so callers can `return v.Err()`.
func (e *ValidationError) Err() error {
	if e == nil || len(e.Fields) == 0 {
		return nil
	}
	return e
}

// Message returns the message recorded for field, or "".
func (e *ValidationError) Message(field string) string {
	for _, f := range e.Fields {
		if f.Field == field {
			return f.Message
		}
	}
	return ""
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		if f.Field == "" {
			parts = append(parts, f.Message)
			continue
		}
		parts = append(parts, f.Field+": "+f.Message)
	}
	return strings.Join(parts, "; ")
}

func (e *ValidationError) Unwrap() error { return ErrInvalidInput }

// HTTPError is a non-2xx backend response.
type HTTPError struct {
	Status  int
	Message string
	cause   error
}

func NewHTTPError(status int, message string, cause error) *HTTPError {
	return &HTTPError{Status: status, Message: message, cause: cause}
}

func (e *HTTPError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("backend responded %d", e.Status)
	}
	return fmt.Sprintf("backend responded %d: %s", e.Status, e.Message)
}

func (e *HTTPError) Unwrap() error { return e.cause }

// IsAuth reports whether err means the session is no longer valid.
func IsAuth(err error) bool {
	return errors.Is(err, ErrUnauthenticated) || errors.Is(err, ErrNoSession)
}

// UserMessage turns any error into the text shown to the user.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var verr *ValidationError
	switch {
	case errors.As(err, &verr):
		return verr.Error()
	case errors.Is(err, ErrInvalidCredentials):
		return "Invalid email or password."
	case errors.Is(err, ErrUnauthenticated):
		return "Session expired. Please log in again."
	case errors.Is(err, ErrNoSession):
		return "Please log in."
	case errors.Is(err, ErrTimeout):
		return "Request timed out. Please try again."
	case errors.Is(err, ErrStoryEnded):
		return "This story has ended."
	case errors.Is(err, ErrBusy):
		return "Please wait for the current request to finish."
	case errors.Is(err, ErrNotFound):
		return "Not found."
	case errors.Is(err, ErrInvalidInput):
		return err.Error()
	default:
		return "Something went wrong. Please try again."
	}
}
