package domain

import "errors"

// Sentinel errors used across layers.
var (
	ErrNotFound           = errors.New("not found")
	ErrStepInvalid        = errors.New("step has invalid fields")
	ErrTransitioning      = errors.New("step transition in progress")
	ErrWrongMode          = errors.New("not available in the current mode")
	ErrSubmissionInFlight = errors.New("a submission is already in flight")
	ErrNothingToRetry     = errors.New("no failed submission to retry")
	ErrNotAuthenticated   = errors.New("not signed in")
	ErrDraftIncompatible  = errors.New("draft schema version is not supported")
	ErrSessionDone        = errors.New("intake already submitted")
)

// SubmitErrorKind classifies a failed submission.
type SubmitErrorKind int

const (
	// SubmitRetryable is a network or service failure.
	SubmitRetryable SubmitErrorKind = iota
	// SubmitRejected is a validation rejection returned by the backend.
	SubmitRejected
	// SubmitFatal needs user action outside the workflow (sign in again).
	SubmitFatal
)

// String returns a human-readable error kind.
func (k SubmitErrorKind) String() string {
	switch k {
	case SubmitRetryable:
		return "retryable"
	case SubmitRejected:
		return "rejected"
	case SubmitFatal:
		return "fatal"
	default:
		return "unknown"
	}
}

// SubmitError is the single surfaced error of a failed submission.
type SubmitError struct {
	Kind    SubmitErrorKind
	Message string
	Err     error
}

func (e *SubmitError) Error() string {
	if e.Err != nil && e.Message == "" {
		return e.Err.Error()
	}
	return e.Message
}

func (e *SubmitError) Unwrap() error { return e.Err }

// Retryable reports whether the same payload may be sent again.
func (e *SubmitError) Retryable() bool { return e.Kind != SubmitFatal }
