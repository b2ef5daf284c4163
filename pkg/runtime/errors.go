package runtime

import (
	"errors"
	"fmt"
)

// ErrorKind classifies evaluation failures.
type ErrorKind int

const (
	NameError ErrorKind = iota
	TypeError
	RuntimeError
)

func (k ErrorKind) String() string {
	switch k {
	case NameError:
		return "NameError"
	case TypeError:
		return "TypeError"
	default:
		return "RuntimeError"
	}
}

var (
	// ErrUndefined marks lookups of names that are not bound.
	ErrUndefined = errors.New("undefined variable")
	// ErrConstAssignment marks assignments to const bindings.
	ErrConstAssignment = errors.New("assignment to constant")
)

// Error is an evaluation failure with an optional source position.
type Error struct {
	Kind    ErrorKind
	Message string
	Line    int
	Column  int
	cause   error
}

func (e *Error) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s at %d:%d: %s", e.Kind, e.Line, e.Column, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

// Position returns the 1-based line and column, or zeros when unknown.
func (e *Error) Position() (int, int) { return e.Line, e.Column }

// HasPosition reports whether a source position was recorded.
func (e *Error) HasPosition() bool { return e.Line > 0 }

// At records a position unless one is already set.
func (e *Error) At(line, column int) *Error {
	if e.Line == 0 {
		e.Line = line
		e.Column = column
	}
	return e
}

func NameErrorf(format string, args ...any) *Error {
	return &Error{Kind: NameError, Message: fmt.Sprintf(format, args...)}
}

func TypeErrorf(format string, args ...any) *Error {
	return &Error{Kind: TypeError, Message: fmt.Sprintf(format, args...)}
}

func RuntimeErrorf(format string, args ...any) *Error {
	return &Error{Kind: RuntimeError, Message: fmt.Sprintf(format, args...)}
}

// WrapRuntime builds a RuntimeError that unwraps to cause.
func WrapRuntime(cause error, format string, args ...any) *Error {
	return &Error{Kind: RuntimeError, Message: fmt.Sprintf(format, args...), cause: cause}
}

func undefinedError(name string) *Error {
	return &Error{Kind: NameError, Message: fmt.Sprintf("undefined variable '%s'", name), cause: ErrUndefined}
}

func constAssignmentError(name string) *Error {
	return &Error{Kind: RuntimeError, Message: fmt.Sprintf("cannot assign to constant '%s'", name), cause: ErrConstAssignment}
}

// IsKind reports whether err is, or wraps, an Error of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var rerr *Error
	return errors.As(err, &rerr) && rerr.Kind == kind
}
