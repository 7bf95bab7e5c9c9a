package service

import (
	"errors"
	"fmt"
)

// Domain errors surfaced to handlers. Handlers map these to HTTP statuses;
// anything unrecognized is treated as an internal error.
var (
	ErrNotFound            = errors.New("not found")
	ErrAlreadyExists       = errors.New("already exists")
	ErrForbidden           = errors.New("you do not have permission to modify this resource")
	ErrSelfFollow          = errors.New("subscribing to yourself is not allowed")
	ErrIngredientsRequired = errors.New("ingredients field is required")
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrShortLinkExhausted  = errors.New("could not allocate a unique short link")
)

// ValidationError reports malformed or out-of-range input with field-level
// detail. All validation happens before any mutation.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func validationErrorf(field, format string, args ...interface{}) *ValidationError {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}
