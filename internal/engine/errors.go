package engine

import "errors"

var (
	// ErrNotFound is returned when a project, user or thread entry does not
	// exist. Handlers surface ErrAccessDenied the same way so callers cannot
	// probe for existence.
	ErrNotFound = errors.New("not found")

	// ErrAccessDenied is returned when the actor lacks the required
	// relationship to the project.
	ErrAccessDenied = errors.New("access denied")

	// ErrConflict is returned for uniqueness violations (e.g. duplicate email).
	ErrConflict = errors.New("conflict")
)

// ValidationError reports a malformed or out-of-range input field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Message
}

func invalid(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}
