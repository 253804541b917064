package domain

import (
	"errors"
	"fmt"
)

// ErrNotFound marks a project, column or task that does not exist.
var ErrNotFound = errors.New("not found")

// NotFound wraps ErrNotFound with the kind and identifier of the missing entity.
func NotFound(kind, id string) error {
	return fmt.Errorf("%s %q: %w", kind, id, ErrNotFound)
}

// ValidationError is bad input detected before any network call.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return e.Field + " " + e.Reason
}

// LoadError is a failed project fetch. Prior board state is kept.
type LoadError struct {
	ProjectID string
	Err       error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load project %s: %v", e.ProjectID, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// PersistError is a mutation whose round-trip failed after the optimistic
// write. The mutation has been rolled back when this is returned.
type PersistError struct {
	Op     string
	TaskID string
	Err    error
}

func (e *PersistError) Error() string {
	if e.TaskID == "" {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.TaskID, e.Err)
}

func (e *PersistError) Unwrap() error { return e.Err }

// IsValidation reports whether err is or wraps a *ValidationError.
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}
