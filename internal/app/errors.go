package app

import (
	"errors"
	"fmt"
)

var (
	// ErrUnauthorized means no valid session was presented.
	ErrUnauthorized = errors.New("authentication required")

	// ErrForbidden means the session user may not perform the operation.
	ErrForbidden = errors.New("insufficient permissions")

	ErrNotFound = errors.New("resource not found")

	// ErrValidation is the base for input errors; wrap it with detail.
	ErrValidation = errors.New("invalid input")
)

func validationf(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrValidation}, args...)...)
}
