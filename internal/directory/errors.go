package directory

import "errors"

var (
	// ErrNotFound is returned when a user or court does not exist.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists is returned when signing up with a phone number already on file.
	ErrAlreadyExists = errors.New("already exists")

	// ErrInvalidCode is returned when a one-time code does not verify.
	ErrInvalidCode = errors.New("invalid verification code")

	// ErrInvalidInput is returned for malformed signup requests and profile patches.
	ErrInvalidInput = errors.New("invalid input")
)
