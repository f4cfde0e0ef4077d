// Package apperrors defines the error taxonomy shared across the claim
// pipeline. Business outcomes (REJECTED, PARTIAL, MANUAL_REVIEW) are valid
// decisions, not errors, and never appear here.
package apperrors

import (
	"errors"
	"fmt"
)

// Kind classifies an error for the caller's retry/response behavior.
type Kind string

const (
	// KindConfig marks a bad policy document or service configuration.
	// Fatal at startup; the process must not serve traffic.
	KindConfig Kind = "CONFIG_ERROR"

	// KindValidation marks malformed claim input rejected before it enters
	// the pipeline. Not retryable as-is.
	KindValidation Kind = "VALIDATION_ERROR"

	// KindConflict marks a concurrent processing attempt on a claim already
	// in flight. The caller should retry later; claim state is unchanged.
	KindConflict Kind = "CONFLICT_ERROR"

	// KindOperational marks storage or extraction-engine infrastructure
	// failures. The claim moves to FAILED and the caller may retry.
	KindOperational Kind = "OPERATIONAL_ERROR"

	// KindNotFound marks a missing claim or stale document reference.
	KindNotFound Kind = "NOT_FOUND"
)

// Error is a classified application error.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// Retryable reports whether the caller may usefully retry the operation.
func (e *Error) Retryable() bool {
	return e.Kind == KindConflict || e.Kind == KindOperational
}

func newError(kind Kind, msg string, cause error) *Error {
	return &Error{Kind: kind, Message: msg, Err: cause}
}

func Config(msg string, cause error) *Error      { return newError(KindConfig, msg, cause) }
func Validation(msg string) *Error               { return newError(KindValidation, msg, nil) }
func Conflict(msg string) *Error                 { return newError(KindConflict, msg, nil) }
func Operational(msg string, cause error) *Error { return newError(KindOperational, msg, cause) }
func NotFound(msg string) *Error                 { return newError(KindNotFound, msg, nil) }

// IsKind reports whether err (or anything it wraps) is an *Error of the
// given kind.
func IsKind(err error, kind Kind) bool {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind == kind
	}
	return false
}

func IsConflict(err error) bool    { return IsKind(err, KindConflict) }
func IsValidation(err error) bool  { return IsKind(err, KindValidation) }
func IsNotFound(err error) bool    { return IsKind(err, KindNotFound) }
func IsOperational(err error) bool { return IsKind(err, KindOperational) }
