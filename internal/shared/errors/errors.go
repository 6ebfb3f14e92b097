package errors

import "errors"

// Pipeline errors. Each maps to one response class.
var (
	// ErrValidation marks malformed or disallowed targets (400).
	ErrValidation = errors.New("validation error")
	// ErrUnauthorized marks a missing or mismatched API key (401).
	ErrUnauthorized = errors.New("unauthorized")
	// ErrRateLimited marks an exhausted rate budget (429).
	ErrRateLimited = errors.New("rate limit exceeded")
	// ErrInternal marks an unanticipated fault (500).
	ErrInternal = errors.New("internal error")
)

// Probe errors
var (
	// ErrDestinationBlocked is returned by the guarded dialer when a name
	// resolves to loopback or private address space.
	ErrDestinationBlocked = errors.New("destination address is not allowed")
)

// Configuration errors
var (
	ErrMissingAPIKey  = errors.New("api key is not configured")
	ErrInvalidConfig  = errors.New("invalid configuration")
	ErrInvalidPortArg = errors.New("invalid port list")
)
