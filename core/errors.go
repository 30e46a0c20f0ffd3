package core

import (
	"errors"
	"fmt"
)

var (
	// ErrConfiguration is returned when logging is requested without a backend
	// or an experiment name, or when a configuration document is invalid.
	ErrConfiguration = errors.New("configuration error")

	// ErrStepRequired is returned by step indexed results when metrics are
	// requested without a step.
	ErrStepRequired = errors.New("step indexed result: a step is required")

	// ErrUnknownStep is returned when a step identifier is not part of a result.
	ErrUnknownStep = errors.New("unknown step")

	// ErrNotReduced is returned when an evaluation result cannot be reduced to
	// a flat numeric mapping.
	ErrNotReduced = errors.New("evaluation result cannot be logged as metrics")
)

// BackendError reports a failed experimentation backend call.
type BackendError struct {
	Backend string
	Op      string
	Err     error
}

// NewBackendError wraps err for the given backend operation. A nil err yields nil.
func NewBackendError(backend, op string, err error) error {
	if err == nil {
		return nil
	}
	return &BackendError{Backend: backend, Op: op, Err: err}
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Backend, e.Op, e.Err)
}

func (e *BackendError) Unwrap() error { return e.Err }

// IsBackendError reports whether any error in err's chain is a *BackendError.
func IsBackendError(err error) bool {
	var be *BackendError
	return errors.As(err, &be)
}
