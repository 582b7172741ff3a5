/*
Copyright 2026 The Vitess Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Package federrors provides coded errors for the federation optimizer.
//
// Every error created here carries a Code and a stack trace. Wrapping an error
// keeps the code of the wrapped error, so callers can always ask Code(err)
// regardless of how many layers of context were added on the way up.
// Printing an error with %+v prints the stack trace of the innermost error.
package federrors

import (
	"context"
	"errors"
	"fmt"

	pkgerrors "github.com/pkg/errors"
)

// ErrorCode classifies an error.
type ErrorCode int

const (
	OK ErrorCode = iota
	Canceled
	Unknown
	InvalidArgument
	NotFound
	FailedPrecondition
	Internal
	Unimplemented
)

var codeNames = map[ErrorCode]string{
	OK:                 "OK",
	Canceled:           "CANCELED",
	Unknown:            "UNKNOWN",
	InvalidArgument:    "INVALID_ARGUMENT",
	NotFound:           "NOT_FOUND",
	FailedPrecondition: "FAILED_PRECONDITION",
	Internal:           "INTERNAL",
	Unimplemented:      "UNIMPLEMENTED",
}

func (c ErrorCode) String() string {
	if name, ok := codeNames[c]; ok {
		return name
	}
	return fmt.Sprintf("Code(%d)", int(c))
}

// ErrorWithCode is implemented by errors that know their Code.
type ErrorWithCode interface {
	ErrorCode() ErrorCode
}

type fedError struct {
	code ErrorCode
	id   string
	// err holds the message and the stack trace captured at creation.
	err   error
	cause error
}

// New returns an error with the supplied message and code.
func New(code ErrorCode, message string) error {
	return &fedError{
		code: code,
		err:  pkgerrors.New(message),
	}
}

// Errorf formats according to a format specifier and returns an error with the given code.
func Errorf(code ErrorCode, format string, args ...any) error {
	return &fedError{
		code: code,
		err:  pkgerrors.Errorf(format, args...),
	}
}

// Wrap annotates err with message. The code of err is kept.
// If err is nil, Wrap returns nil.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return &fedError{
		code:  Code(err),
		id:    ID(err),
		err:   pkgerrors.Wrap(err, message),
		cause: err,
	}
}

// Wrapf annotates err with a formatted message. The code of err is kept.
// If err is nil, Wrapf returns nil.
func Wrapf(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return &fedError{
		code:  Code(err),
		id:    ID(err),
		err:   pkgerrors.Wrapf(err, format, args...),
		cause: err,
	}
}

func (e *fedError) Error() string { return e.err.Error() }

// ErrorCode implements ErrorWithCode.
func (e *fedError) ErrorCode() ErrorCode { return e.code }

// Cause returns the wrapped error, if any.
func (e *fedError) Cause() error { return e.cause }

// Unwrap lets errors.Is and errors.As see through the annotation.
func (e *fedError) Unwrap() error { return e.cause }

// Format delegates to the pkg/errors value so that %+v prints a stack trace.
func (e *fedError) Format(s fmt.State, verb rune) {
	if f, ok := e.err.(fmt.Formatter); ok {
		f.Format(s, verb)
		return
	}
	_, _ = fmt.Fprint(s, e.Error())
}

// Code returns the error code of err. Errors that were not created by this
// package map to Unknown, except context cancellation.
func Code(err error) ErrorCode {
	if err == nil {
		return OK
	}
	var withCode ErrorWithCode
	if errors.As(err, &withCode) {
		return withCode.ErrorCode()
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return Canceled
	}
	return Unknown
}

// ID returns the numbered error identifier (for example FED13001), or the
// empty string if err does not carry one.
func ID(err error) string {
	var fe *fedError
	if errors.As(err, &fe) {
		return fe.id
	}
	return ""
}

// Cause returns the error wrapped by err, or nil if err does not wrap anything.
func Cause(err error) error {
	type causer interface {
		Cause() error
	}
	if c, ok := err.(causer); ok {
		return c.Cause()
	}
	return nil
}

// RootCause returns the innermost error in the chain of causes.
func RootCause(err error) error {
	for {
		cause := Cause(err)
		if cause == nil {
			return err
		}
		err = cause
	}
}
