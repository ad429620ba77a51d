package serving

import (
	"errors"
	"fmt"
)

// Code is the fault class reported to RPC callers.
type Code string

const (
	CodeOK              Code = "OK"
	CodeInvalidArgument Code = "INVALID_ARGUMENT"
	CodeInternal        Code = "INTERNAL"

	// CodeDeadlineExceeded is set by the transport when its own deadline fires; the
	// handler never returns it.
	CodeDeadlineExceeded Code = "DEADLINE_EXCEEDED"
)

// StatusError is the only error type the handler returns: a fault class plus a
// human-readable message safe to send to the caller.
type StatusError struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`

	// Reason is the validation fault kind for INVALID_ARGUMENT; never sent to callers.
	Reason string `json:"-"`
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// CodeOf returns the fault class of err, INTERNAL for unclassified errors and OK for nil.
func CodeOf(err error) Code {
	if err == nil {
		return CodeOK
	}
	var se *StatusError
	if errors.As(err, &se) {
		return se.Code
	}
	return CodeInternal
}

func invalidArgument(reason, msg string) *StatusError {
	return &StatusError{Code: CodeInvalidArgument, Message: msg, Reason: reason}
}

// InvalidArgument builds a client fault raised outside the feature builder, e.g. an
// undecodable request body.
func InvalidArgument(msg string) *StatusError {
	return invalidArgument("MalformedRequest", msg)
}

func internal(msg string) *StatusError {
	return &StatusError{Code: CodeInternal, Message: "Internal server error: " + msg}
}
