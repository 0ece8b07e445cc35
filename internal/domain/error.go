package domain

import (
	"errors"
	"fmt"
)

var (
	// Common domain errors
	ErrNotFound           = errors.New("entity not found")
	ErrInvalidArgument    = errors.New("invalid argument")
	ErrInvalidExecContext = errors.New("invalid execution context")
	ErrReadDatabaseRow    = errors.New("failed to read database row")
	ErrLockNotAcquired    = errors.New("lock not acquired")
	ErrUnauthorized       = errors.New("unauthorized")

	// Chat errors. They wrap the common ones so callers can classify with errors.Is.
	ErrConversationNotFound = fmt.Errorf("conversation: %w", ErrNotFound)
	ErrChatJobNotFound      = fmt.Errorf("chat job: %w", ErrNotFound)
	ErrInvalidQuestion      = fmt.Errorf("question is blank: %w", ErrInvalidArgument)
	ErrJobNotClaimable      = errors.New("chat job already claimed or finished")
)

// GenerationError is raised by the background path when an answer could not
// be produced. Stage is one of "context", "prompt", "generate".
type GenerationError struct {
	Stage string
	Err   error
}

func (e *GenerationError) Error() string {
	if e.Err == nil {
		return e.Stage + ": unknown error"
	}
	return e.Err.Error()
}

func (e *GenerationError) Unwrap() error { return e.Err }

func NewGenerationError(stage string, err error) *GenerationError {
	return &GenerationError{Stage: stage, Err: err}
}
