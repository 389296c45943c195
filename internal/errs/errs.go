// Package errs provides the coded error type shared by kild subsystems.
//
// Each subsystem (session, wait, terminal, agent, git) defines its own
// closed set of Code constants. Codes are stable, machine-readable
// identifiers; the User flag marks errors that represent expected,
// actionable outcomes ("worktree is dirty", "timed out waiting") rather
// than system faults. Frontends use IsUser to decide between a short
// message and a full diagnostic.
package errs

import (
	"errors"
	"fmt"
)

// Code identifies a specific error condition.
type Code string

// Error is a coded error with an optional wrapped cause.
type Error struct {
	Code    Code
	Message string
	User    bool
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Cause }

// ErrCode implements the coder interface used by CodeOf.
func (e *Error) ErrCode() Code { return e.Code }

// IsUserError implements the userError interface used by IsUser.
func (e *Error) IsUserError() bool { return e.User }

// New creates a coded error.
func New(code Code, format string, a ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, a...)}
}

// NewUser creates a coded error classified as a user error.
func NewUser(code Code, format string, a ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, a...), User: true}
}

// Wrap attaches a code and message to an existing error.
func Wrap(err error, code Code, format string, a ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, a...), Cause: err}
}

// WrapUser is Wrap with the user-error classification.
func WrapUser(err error, code Code, format string, a ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, a...), User: true, Cause: err}
}

type coder interface{ ErrCode() Code }

type userError interface{ IsUserError() bool }

// CodeOf returns the code of the outermost coded error in err's chain,
// or "" if no error in the chain carries one.
func CodeOf(err error) Code {
	for err != nil {
		if c, ok := err.(coder); ok {
			return c.ErrCode()
		}
		err = errors.Unwrap(err)
	}
	return ""
}

// Is reports whether any error in err's chain carries the given code.
func Is(err error, code Code) bool {
	for err != nil {
		if c, ok := err.(coder); ok && c.ErrCode() == code {
			return true
		}
		err = errors.Unwrap(err)
	}
	return false
}

// IsUser reports whether the outermost classified error in err's chain
// is a user error.
func IsUser(err error) bool {
	for err != nil {
		if u, ok := err.(userError); ok {
			return u.IsUserError()
		}
		err = errors.Unwrap(err)
	}
	return false
}
