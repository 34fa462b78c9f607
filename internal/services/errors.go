package services

import (
	"errors"

	"github.com/isdelr/blog-be/internal/store"
)

var (
	// ErrNotFound is returned when a user or post does not exist.
	ErrNotFound = store.ErrNotFound
	// ErrDuplicateEmail is returned when registering an email that is taken.
	ErrDuplicateEmail = errors.New("email already registered")
	// ErrInvalidCredentials is returned when a password does not match.
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrValidation is returned when input has the wrong shape.
	ErrValidation = errors.New("validation failed")
)
