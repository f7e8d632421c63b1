// Package errs contains sentinel errors used across layers for stable error mapping.
package errs

import "errors"

// Common sentinels across repo/service layers.
var (
	// ErrNotFound indicates the requested document does not exist.
	ErrNotFound = errors.New("not found")

	// ErrUnauthenticated indicates no identity was supplied with the request.
	ErrUnauthenticated = errors.New("unauthenticated")

	// ErrSourceUnavailable indicates a single entitlement source failed
	// (network, timeout, malformed response). Non-fatal: the cascade continues.
	ErrSourceUnavailable = errors.New("source unavailable")

	// ErrExpired indicates a time-bounded grant is past its expiry.
	ErrExpired = errors.New("expired")

	// ErrAlreadyExists indicates a unique constraint violation.
	ErrAlreadyExists = errors.New("already exists")
)
