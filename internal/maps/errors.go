package maps

import (
	"errors"
	"strings"
)

// Code is the coarse failure class surfaced to geo proxy callers.
type Code string

const (
	CodeUnauthenticated Code = "unauthenticated"
	CodeInvalidArgument Code = "invalid-argument"
	CodeNotFound        Code = "not-found"
	CodeInternal        Code = "internal"
)

type Error struct {
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

func newError(code Code, msg string, err error) *Error {
	return &Error{Code: code, Message: msg, Err: err}
}

// CodeOf returns the code carried by err, or CodeInternal.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeInternal
}

// isStatusError reports whether err is a non-OK API status returned by the
// maps client, as opposed to a transport failure.
func isStatusError(err error) bool {
	return err != nil && strings.HasPrefix(err.Error(), "maps: ")
}
