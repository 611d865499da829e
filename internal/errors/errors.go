// Package errors provides the service error taxonomy with HTTP status code
// mapping. Device-layer failures are normalized into these types at the
// session boundary; raw driver errors never reach the HTTP layer.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorType categorizes an error for status mapping, logging and metrics.
type ErrorType string

const (
	// TypeUnavailable indicates the camera could not be opened (HTTP 503).
	TypeUnavailable ErrorType = "unavailable"
	// TypeNotInitialized indicates a device operation ran without a prior
	// successful open, a programming error rather than a caller mistake
	// (HTTP 500).
	TypeNotInitialized ErrorType = "not_initialized"
	// TypeDevice indicates an open device failed mid-operation; the session
	// has already been released as a side effect (HTTP 500).
	TypeDevice ErrorType = "device"
	// TypeInvalidParameter indicates input rejected by the device or by
	// request validation (HTTP 400).
	TypeInvalidParameter ErrorType = "invalid_parameter"
	// TypeInternal indicates an unexpected server-side error (HTTP 500).
	TypeInternal ErrorType = "internal"
)

// Error is a structured service error with type, message and context fields.
type Error struct {
	Type    ErrorType
	Message string
	Cause   error
	Context map[string]any
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As support.
func (e *Error) Unwrap() error {
	return e.Cause
}

// HTTPStatus returns the status code for this error type.
func (e *Error) HTTPStatus() int {
	switch e.Type {
	case TypeInvalidParameter:
		return http.StatusBadRequest
	case TypeUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// WithContext adds a context field to the error (chainable).
func (e *Error) WithContext(key string, value any) *Error {
	if e.Context == nil {
		e.Context = make(map[string]any)
	}
	e.Context[key] = value
	return e
}

// DeviceUnavailable creates an error for a failed camera open (HTTP 503).
func DeviceUnavailable(message string, cause error) *Error {
	return &Error{Type: TypeUnavailable, Message: message, Cause: cause}
}

// NotInitialized creates an error for device access without an open session.
func NotInitialized(message string) *Error {
	return &Error{Type: TypeNotInitialized, Message: message}
}

// DeviceFailure creates an error for a device that failed mid-operation.
func DeviceFailure(message string, cause error) *Error {
	return &Error{Type: TypeDevice, Message: message, Cause: cause}
}

// InvalidParameter creates an error for rejected input (HTTP 400).
func InvalidParameter(message string) *Error {
	return &Error{Type: TypeInvalidParameter, Message: message}
}

// InternalError creates an error for unexpected failures (HTTP 500).
func InternalError(message string, cause error) *Error {
	return &Error{Type: TypeInternal, Message: message, Cause: cause}
}

// ErrorResponse is the JSON error payload sent to clients.
type ErrorResponse struct {
	Error   string         `json:"error"`
	Type    ErrorType      `json:"type"`
	Context map[string]any `json:"context,omitempty"`
}

// ToResponse converts an Error to its client-facing payload.
func (e *Error) ToResponse() ErrorResponse {
	return ErrorResponse{
		Error:   e.Message,
		Type:    e.Type,
		Context: e.Context,
	}
}

// AsServiceError converts any error into a structured *Error. An existing
// *Error anywhere in the chain is returned unchanged; anything else is
// wrapped as an internal error.
func AsServiceError(err error) *Error {
	if err == nil {
		return nil
	}

	var serviceErr *Error
	if errors.As(err, &serviceErr) {
		return serviceErr
	}

	return InternalError("internal server error", err)
}
