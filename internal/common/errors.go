// Package common defines shared constants and sentinel errors used across
// client layers of ViQi. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Storage-level errors.
	ErrorNotFound  = errors.New("not found")
	ErrorMalformed = errors.New("malformed stored value")

	// Precondition errors: the user is redirected to an earlier step.
	ErrNoIdentity   = errors.New("no signed-in identity")
	ErrMissingQuery = errors.New("no query in session")
	ErrEmptyQuery   = errors.New("query must not be empty")

	// Validation errors.
	ErrInvalidEmail = errors.New("invalid email")
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
)
