// Package errors augments the standard errors
// provided by fmt (https://golang.org/src/fmt/errors.go)
// with error kinds that may be wrapped without resorting
// to fmt.Errorf("%w", err).
package errors

import (
	stderr "errors"
	"fmt"
)

var _ error = New("")

// New declares a new error kind.
func New(msg string) *Error {
	return &Error{msg: msg}
}

// Error augments the standard error interface with a Wrap method.
//
// An Error is either a kind (as returned by New) or an occurrence of a kind
// (as returned by Wrap, Wrapf, WrapMessage). Wrapping never alters the kind itself,
// so package-level sentinels may be shared freely.
//
// The main difference with github.com/pkg/errors is that we are wrapping
// errors from errors, not from text.
type Error struct {
	msg  string
	err  error
	kind *Error
}

// Error message
func (e *Error) Error() string {
	if e.err == nil {
		return e.msg
	}
	if e.msg == "" {
		return e.err.Error()
	}
	return e.msg + ": " + e.err.Error()
}

// Unwrap nested error
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.err
}

// Kind of this error. A kind is its own kind.
func (e *Error) Kind() *Error {
	if e.kind == nil {
		return e
	}
	return e.kind
}

// Wrap a nested error into a new occurrence of this kind
func (e *Error) Wrap(err error) *Error {
	return &Error{msg: e.msg, err: err, kind: e.Kind()}
}

// Wrapf builds a new occurrence of this kind, with a detailed message.
func (e *Error) Wrapf(format string, args ...interface{}) *Error {
	return &Error{
		msg:  e.Kind().msg + ": " + fmt.Sprintf(format, args...),
		kind: e.Kind(),
	}
}

// WrapMessage wraps a nested error into a new occurrence of this kind, with a detailed message.
func (e *Error) WrapMessage(err error, format string, args ...interface{}) *Error {
	w := e.Wrapf(format, args...)
	w.err = err
	return w
}

// Is of some error type?
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e == t || e.Kind() == t.Kind()
}

// As finds the first error in err's chain that matches target, and if so, sets target to that error value and returns true.
// (a shortcut to standard lib errors.As)
func As(err error, target interface{}) bool {
	return stderr.As(err, target)
}

// Is reports whether any error in err's chain matches target
// (a shortcut to standard lib errors.As)
func Is(err, target error) bool {
	return stderr.Is(err, target)
}
