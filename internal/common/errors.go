// Package common defines shared constants and sentinel errors used across
// the service layers. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Startup-only errors.
	ErrorConfiguration = errors.New("configuration error")

	// Repository-level errors.
	ErrorNotFound         = errors.New("not found")
	ErrorDuplicateAccount = errors.New("account already exists")
	ErrorDuplicateRole    = errors.New("role already exists")

	// Service-level errors (generic/internal flow control).
	ErrorInternal           = errors.New("internal error")
	ErrorUnauthorized       = errors.New("unauthorized")
	ErrorForbidden          = errors.New("forbidden")
	ErrorInvalidCredentials = errors.New("invalid credentials")

	// Auth errors (invalid or malformed token).
	ErrInvalidToken = errors.New("invalid token")

	// Token lifecycle errors.
	ErrTokenExpired = errors.New("token expired")

	// Delivery errors (operational, not security).
	ErrorNotificationFailure = errors.New("notification failure")
)
