/*
Copyright 2026 The Chisel Authors.

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

// Package cherrors provides the error kinds used across the planner, the
// execution engine and the catalog.
//
// Every error surfaced by this module carries a Code classifying it into the
// closed taxonomy below. Use CodeOf to classify an error; errors from outside
// the module (backend I/O) classify as Backend once wrapped.
package cherrors

import (
	"github.com/pkg/errors"
)

// Code classifies an error.
type Code int

const (
	// OK is the zero code, carried by no error.
	OK Code = iota

	// Mutation is a transaction discipline violation: re-entrant evolve,
	// queueing during destructive isolation, use of an invalidated model
	// object, or commit/abort outside an open transaction.
	Mutation

	// Contract is a programmer error in plan construction: malformed
	// projection or formula, mixed attribute markers, unsupported
	// projection item.
	Contract

	// Unsupported marks an operation the selected backend cannot perform.
	Unsupported

	// Backend wraps an I/O failure propagated from a backend scan or
	// materialize call.
	Backend

	// Internal marks a broken invariant inside the planner or engine, such
	// as a logical node with no lowering rule.
	Internal
)

// String implements fmt.Stringer.
func (c Code) String() string {
	switch c {
	case OK:
		return "OK"
	case Mutation:
		return "MUTATION"
	case Contract:
		return "CONTRACT"
	case Unsupported:
		return "UNSUPPORTED"
	case Backend:
		return "BACKEND"
	case Internal:
		return "INTERNAL"
	}
	return "UNKNOWN"
}

type codedError struct {
	code Code
	err  error
}

func (e *codedError) Error() string {
	return e.err.Error()
}

func (e *codedError) Unwrap() error {
	return e.err
}

// New returns an error with the given code and message, annotated with the
// call stack.
func New(code Code, msg string) error {
	return &codedError{code: code, err: errors.New(msg)}
}

// Errorf returns a formatted error with the given code, annotated with the
// call stack.
func Errorf(code Code, format string, args ...any) error {
	return &codedError{code: code, err: errors.Errorf(format, args...)}
}

// Wrapf wraps err with the given code and message. A nil err yields nil.
func Wrapf(code Code, err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return &codedError{code: code, err: errors.Wrapf(err, format, args...)}
}

// CodeOf returns the code carried by err, or OK for nil and Backend for
// errors that never passed through this package.
func CodeOf(err error) Code {
	if err == nil {
		return OK
	}
	var coded *codedError
	if errors.As(err, &coded) {
		return coded.code
	}
	return Backend
}
