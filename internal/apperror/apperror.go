package apperror

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound    = errors.New("not found")
	ErrValidation  = errors.New("validation error")
	ErrConflict    = errors.New("conflict")
	ErrUpstream    = errors.New("upstream error")
	ErrGeneration  = errors.New("generation error")
	ErrPersistence = errors.New("persistence error")
)

type AppError struct {
	Err     error  // sentinel identifying the error kind
	Message string // Human-readable error message
	Field   string // Optional: field causing the error
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func NotFound(resource, id string) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Message: fmt.Sprintf("%s not found with id %s", resource, id),
	}
}

func ValidationFailed(field, message string) *AppError {
	return &AppError{
		Err:     ErrValidation,
		Message: message,
		Field:   field,
	}
}

func Conflict(resource, id string) *AppError {
	return &AppError{
		Err:     ErrConflict,
		Message: fmt.Sprintf("%s conflict with id %s", resource, id),
	}
}

// UpstreamFailed wraps a failure from the GitHub API (network error,
// non-success status, undecodable payload). Upstream failures are not
// retried; handlers map them to 502 Bad Gateway.
func UpstreamFailed(operation string, err error) *AppError {
	return &AppError{
		Err:     fmt.Errorf("%w: %w", ErrUpstream, err),
		Message: fmt.Sprintf("github %s failed: %v", operation, err),
	}
}

// GenerationFailed wraps a failure from a generative-model or image call,
// after any model-tier fallback has already been attempted.
func GenerationFailed(step string, err error) *AppError {
	return &AppError{
		Err:     fmt.Errorf("%w: %w", ErrGeneration, err),
		Message: fmt.Sprintf("%s generation failed: %v", step, err),
	}
}

// PersistenceFailed wraps a failed write to the result store. Fatal to the
// phase that attempted it.
func PersistenceFailed(operation string, err error) *AppError {
	return &AppError{
		Err:     fmt.Errorf("%w: %w", ErrPersistence, err),
		Message: fmt.Sprintf("storing %s failed: %v", operation, err),
	}
}
