package shared

import "errors"

// Error kinds surfaced by every domain package. Callers wrap them with a
// human readable message: fmt.Errorf("%w: lines required", shared.ErrValidation).
var (
	// ErrValidation indicates missing or malformed input.
	ErrValidation = errors.New("validation failed")
	// ErrInvalidState indicates the current status forbids the operation.
	ErrInvalidState = errors.New("invalid state")
	// ErrForbidden indicates the actor lacks the role or is not the assigned user.
	ErrForbidden = errors.New("forbidden")
	// ErrNotFound indicates resource not found.
	ErrNotFound = errors.New("not found")
	// ErrConflict indicates a uniqueness violation or an edit that collides with existing records.
	ErrConflict = errors.New("conflict")
	// ErrUnauthorized indicates a missing or invalid access token.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrInvalidCredentials indicates login failure.
	ErrInvalidCredentials = errors.New("invalid credentials")
)
