package workflow

import (
	"errors"
	"fmt"

	"github.com/dalemusser/admitportal/internal/app/store/docstore"
)

var (
	// ErrNotFound means the application, university, course or user does not
	// exist, or exists but is outside the actor's view.
	ErrNotFound = errors.New("not found")
	// ErrValidation is wrapped by every *ValidationError.
	ErrValidation = errors.New("validation failed")
	// ErrForbidden means the actor can see the application but may not make
	// this change.
	ErrForbidden = errors.New("forbidden")

	// ErrDuplicateApplication is returned by Create when the student already
	// holds an open application for the course.
	ErrDuplicateApplication = errors.New("an open application for this course already exists")
	// ErrInvalidTransition is returned when the workflow graph has no edge
	// between the current and requested status.
	ErrInvalidTransition = errors.New("status transition not allowed")
)

// ValidationError describes rejected input. Nothing was written.
type ValidationError struct {
	Field  string
	Reason string
	Err    error // optional, more specific sentinel
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrValidation, e.Err}
	}
	return []error{ErrValidation}
}

func invalid(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// notFound maps a store miss onto ErrNotFound and leaves every other error,
// storage faults included, unchanged.
func notFound(what string, err error) error {
	if errors.Is(err, docstore.ErrNotFound) {
		return fmt.Errorf("%s: %w", what, ErrNotFound)
	}
	return err
}
