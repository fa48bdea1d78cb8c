package service

import "errors"

// Sentinel errors returned by the service layer. Handlers translate
// these to HTTP status codes; anything else is a 500.
var (
	ErrNotFound           = errors.New("not found")
	ErrConflict           = errors.New("already exists")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrBadToken           = errors.New("invalid or expired token")
	ErrForbidden          = errors.New("forbidden")
)

// ValidationError carries a client-safe message describing why input was
// rejected.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func validationErr(msg string) error { return &ValidationError{Message: msg} }
