package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNotFound            = errors.New("not found")
	ErrTranslationDisabled = errors.New("translation provider disabled")
)

// ValidationError reports malformed input. The write it guards is never attempted.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "validation: " + e.Reason
	}
	return fmt.Sprintf("validation: %s: %s", e.Field, e.Reason)
}

func Invalid(field, format string, args ...any) error {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// RelationError names every id of a bulk reference that could not be resolved.
type RelationError struct {
	Missing []string
}

func (e *RelationError) Error() string {
	return "unknown ids: " + strings.Join(e.Missing, ", ")
}

// MediaError wraps a failed upload or delete against the media backend.
type MediaError struct {
	Op  string // store|delete
	Err error
}

func (e *MediaError) Error() string { return "media " + e.Op + ": " + e.Err.Error() }
func (e *MediaError) Unwrap() error { return e.Err }

func IsValidation(err error) bool {
	var v *ValidationError
	var r *RelationError
	return errors.As(err, &v) || errors.As(err, &r)
}
