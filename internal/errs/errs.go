// Copyright (c) 2025 Open Swarm Contributors
//
// This software is released under the MIT License.
// See LICENSE file in the repository for details.

// Package errs defines the closed set of error kinds the orchestration core
// surfaces across its public boundary, mirroring the corpus's typed
// GateError/ConflictError pattern instead of ad-hoc error strings.
package errs

import "fmt"

// Kind is one of the error kinds enumerated in spec.md §7.
type Kind string

const (
	KindValidationFailed Kind = "validation_failed"
	KindNotFound         Kind = "not_found"
	KindIOError          Kind = "io_error"
	KindGateFailed       Kind = "gate_failed"
	KindDependencyCycle  Kind = "dependency_cycle"
	KindBudgetExceeded   Kind = "budget_exceeded"
	KindTimeout          Kind = "timeout"
	KindCancelled        Kind = "cancelled"
)

// Error is the typed error every public operation returns instead of a bare
// error value, so callers can switch on Kind without string matching.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

// New builds an *Error with no wrapped cause.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Newf builds an *Error with a formatted message.
func Newf(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap builds an *Error carrying an underlying cause.
func Wrap(kind Kind, cause error, message string) *Error {
	return &Error{Kind: kind, Message: message, Cause: cause}
}

// Is reports whether err is an *Error of the given kind.
func Is(err error, kind Kind) bool {
	e, ok := err.(*Error)
	return ok && e.Kind == kind
}
