// Package derrors defines the coded error type used across the mailer.
// Services attach a Code to every failure they surface; the transport layer
// translates codes to HTTP statuses in exactly one place.
package derrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Code classifies a failure for callers that need to branch on it.
type Code string

const (
	// CodeBadRequest marks malformed input from the caller.
	CodeBadRequest Code = "bad_request"

	// CodeNotReady marks calls arriving before initialization finished.
	// The caller must redeliver later.
	CodeNotReady Code = "not_ready"

	// CodeNotFound marks a missing upstream record (e.g. a user deleted
	// between event emission and processing).
	CodeNotFound Code = "not_found"

	// CodeUpstreamUnavailable marks a non-2xx or network failure talking
	// to the portal API.
	CodeUpstreamUnavailable Code = "upstream_unavailable"

	// CodeTransportFailure marks a failed email send.
	CodeTransportFailure Code = "transport_failure"

	// CodeInvariantViolation marks a programming-contract breach that
	// should be unreachable, such as composing an email for an event the
	// classifier never matched.
	CodeInvariantViolation Code = "invariant_violation"

	// CodeInternal is the fallback for unexpected failures.
	CodeInternal Code = "internal"
)

// Error carries a code, a human-readable message, and an optional cause.
type Error struct {
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New creates a coded error without a cause.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Wrap attaches a code and message to an underlying error.
func Wrap(err error, code Code, message string) *Error {
	return &Error{Code: code, Message: message, Err: err}
}

// GetCode extracts the code from err, walking wrapped errors.
// Uncoded errors report CodeInternal.
func GetCode(err error) Code {
	var coded *Error
	if errors.As(err, &coded) {
		return coded.Code
	}
	return CodeInternal
}

// Is reports whether err carries the given code.
func Is(err error, code Code) bool {
	return err != nil && GetCode(err) == code
}

// ToHTTPStatus maps a code to the HTTP status the transport layer returns.
func ToHTTPStatus(code Code) int {
	switch code {
	case CodeBadRequest:
		return http.StatusBadRequest
	case CodeNotReady:
		return http.StatusServiceUnavailable
	case CodeNotFound:
		return http.StatusNotFound
	case CodeUpstreamUnavailable, CodeTransportFailure:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
