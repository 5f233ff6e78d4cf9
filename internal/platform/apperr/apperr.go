// Package apperr defines the error kinds shared by the domain services.
// Domain errors wrap one of these so the HTTP layer can pick a status code
// with errors.Is without importing every domain package.
package apperr

import (
	"errors"
	"fmt"
)

var (
	ErrValidation = errors.New("validation failed")
	ErrNotFound   = errors.New("not found")
	ErrConflict   = errors.New("already exists")
	ErrUpstream   = errors.New("upstream failure")
)

// Invalid builds a validation error with a formatted detail.
func Invalid(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// Detail strips the kind prefix from a validation error so the client sees
// "file is required" rather than "validation failed: file is required".
func Detail(err error) string {
	msg := err.Error()
	prefix := ErrValidation.Error() + ": "
	if len(msg) > len(prefix) && msg[:len(prefix)] == prefix {
		return msg[len(prefix):]
	}
	return msg
}
