package api

import "errors"

// usageLimitCode is the reserved response code the backend emits when the
// free-tier request cap is exhausted.
const usageLimitCode = "USAGE_LIMIT_REACHED"

var (
	// ErrUsageLimitReached marks a response carrying the usage-limit code.
	// Callers treat it as a distinct recoverable state, not a failure.
	ErrUsageLimitReached = errors.New("usage limit reached")

	// ErrShareNotFound is returned for an unknown share id.
	ErrShareNotFound = errors.New("shared chat not found")

	// ErrShareExpired is returned when a share link has lapsed.
	ErrShareExpired = errors.New("shared chat has expired")
)
