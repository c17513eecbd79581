package errors

import "errors"

// Common application errors. Layers wrap these with fmt.Errorf("...: %w")
// and callers branch with errors.Is.
var (
	// ErrNotFound is used when a record or resource does not exist.
	ErrNotFound = errors.New("record not found")

	// ErrContentUnavailable means the question bank has nothing for the
	// requested subject/difficulty/chapter. A quiz is never started on it.
	ErrContentUnavailable = errors.New("content unavailable")

	// ErrInvalidTransition is returned when a quiz action violates the
	// session's preconditions. The session is left untouched.
	ErrInvalidTransition = errors.New("invalid transition")

	// ErrValidation is used for malformed input.
	ErrValidation = errors.New("validation failed")

	// ErrUnauthorized is used for missing or expired sessions.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrConflict is used when a unique resource already exists.
	ErrConflict = errors.New("already exists")

	// ErrPersistence wraps storage faults while writing quiz results.
	ErrPersistence = errors.New("persistence error")
)
