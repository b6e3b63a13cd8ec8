// Package domain defines domain-level errors for the auth feature.
package domain

import "errors"

// Domain errors for operator authentication.
var (
	// ErrOperatorExists indicates that an operator with the given name is already registered.
	ErrOperatorExists = errors.New("operator already exists")

	// ErrOperatorNotFound indicates that no operator matches the given name or ID.
	ErrOperatorNotFound = errors.New("operator not found")

	// ErrInvalidCredentials indicates that the provided name or password is incorrect.
	ErrInvalidCredentials = errors.New("invalid name or password")

	// ErrWeakPassword indicates that a password is outside the accepted length.
	ErrWeakPassword = errors.New("password length not accepted")
)
