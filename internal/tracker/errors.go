package tracker

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors. Callers match them with errors.Is.
var (
	ErrValidation  = errors.New("validation failed")
	ErrNotFound    = errors.New("subscription not found")
	ErrParse       = errors.New("malformed data")
	ErrPersistence = errors.New("persistence failed")
)

// FieldError describes one rejected field.
type FieldError struct {
	Field   string
	Message string
}

// ValidationError lists every field that failed validation.
// It matches ErrValidation under errors.Is.
type ValidationError struct {
	// Index is the record position for imports, -1 otherwise.
	Index  int
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+" "+f.Message)
	}
	msg := strings.Join(parts, "; ")
	if e.Index >= 0 {
		return fmt.Sprintf("%s: subscription #%d: %s", ErrValidation, e.Index, msg)
	}
	return fmt.Sprintf("%s: %s", ErrValidation, msg)
}

// Is reports whether target is ErrValidation.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// Field returns the message for the named field, if it failed.
func (e *ValidationError) Field(name string) (string, bool) {
	for _, f := range e.Fields {
		if f.Field == name {
			return f.Message, true
		}
	}
	return "", false
}

func fieldError(field, msg string) *ValidationError {
	return &ValidationError{Index: -1, Fields: []FieldError{{Field: field, Message: msg}}}
}
