package filestore

import (
	"errors"
	"fmt"
)

// Error types
var (
	// ErrUnauthenticated indicates the request carried no usable identity
	ErrUnauthenticated = errors.New("unauthenticated")

	// ErrForbidden indicates an authenticated caller without a required group
	ErrForbidden = errors.New("forbidden")

	// ErrFileNotFound indicates a file metadata record was not found
	ErrFileNotFound = errors.New("file not found")

	// ErrObjectNotFound indicates an object was not found in the storage bucket
	ErrObjectNotFound = errors.New("object not found")
)

// ValidationError indicates a required request field was missing or malformed.
type ValidationError struct {
	Field string
	Msg   string
}

func (e *ValidationError) Error() string {
	if e.Msg != "" {
		return fmt.Sprintf("%s: %s", e.Field, e.Msg)
	}
	return fmt.Sprintf("%s is required", e.Field)
}

// NewValidationError builds a ValidationError for a missing required field.
func NewValidationError(field string) *ValidationError {
	return &ValidationError{Field: field}
}

// IsValidationError reports whether err is (or wraps) a ValidationError.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// StorageError represents a failure of a storage bucket operation.
type StorageError struct {
	Key string
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage operation %s failed for key %s: %v", e.Op, e.Key, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}
