// Package common defines shared constants and sentinel errors used across
// StudyNest components. Callers should use errors.Is to match these values;
// detail is added by wrapping, e.g. fmt.Errorf("%w: name is required", ErrorInvalidInput).
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound      = errors.New("not found")
	ErrorAlreadyExists = errors.New("already exists")

	// Service-level errors (generic/internal flow control).
	ErrorInternal = errors.New("internal error")

	// Validation errors.
	ErrorInvalidInput    = errors.New("invalid input")
	ErrorPayloadTooLarge = errors.New("payload too large")

	// Access errors.
	ErrorUnauthenticated = errors.New("unauthenticated")
	ErrorForbidden       = errors.New("forbidden")

	// Auth errors (invalid or malformed token).
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
)
