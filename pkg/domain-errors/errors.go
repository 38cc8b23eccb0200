// Package dErrors provides coded domain errors. Services translate store
// sentinels and validation failures into these; transports map codes onto
// status codes without inspecting error strings.
package dErrors

import (
	"errors"
	"fmt"
)

// Code classifies a domain error. Codes are part of the API surface: they are
// rendered in HTTP responses and asserted on in tests, so treat them as stable.
type Code string

const (
	// CodeInvalidInput marks an empty or zero-value argument.
	CodeInvalidInput Code = "invalid_input"
	// CodeAlreadyExists marks a duplicate unique key (did, device key, resource).
	CodeAlreadyExists Code = "already_exists"
	// CodeNotFound marks an unknown did, device, or resource.
	CodeNotFound Code = "not_found"
	// CodeUnauthorized marks a caller lacking the required capability.
	CodeUnauthorized Code = "unauthorized"
	// CodeInactiveDevice marks an operation targeting a deactivated device.
	CodeInactiveDevice Code = "inactive_device"

	// CodeBadRequest marks a malformed request at the transport boundary.
	CodeBadRequest Code = "bad_request"
	// CodeUnavailable marks an outage in a backing dependency.
	CodeUnavailable Code = "unavailable"
	// CodeTimeout marks an operation aborted by context cancellation.
	CodeTimeout Code = "timeout"
	// CodeInternal marks an unexpected failure; details are never exposed.
	CodeInternal Code = "internal_error"
)

// Error is a coded domain error, optionally wrapping a cause.
type Error struct {
	Code    Code
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

// New creates a coded error with no underlying cause.
func New(code Code, message string) error {
	return &Error{Code: code, Message: message}
}

// Wrap attaches a code and message to an underlying error, preserving the
// chain for errors.Is / errors.As.
func Wrap(err error, code Code, message string) error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, Message: message, cause: err}
}

// HasCode reports whether err (or anything it wraps) carries the given code.
func HasCode(err error, code Code) bool {
	var de *Error
	if errors.As(err, &de) {
		return de.Code == code
	}
	return false
}

// CodeOf returns the code carried by err, or CodeInternal when err is not a
// domain error.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}

// MessageOf returns the safe-to-expose message of err, or an empty string when
// err is not a domain error.
func MessageOf(err error) string {
	var de *Error
	if errors.As(err, &de) {
		return de.Message
	}
	return ""
}
