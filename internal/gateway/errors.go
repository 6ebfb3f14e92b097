package gateway

import (
	sharederrors "github.com/khanhnv2901/seca-recon/internal/shared/errors"
)

// Kind classifies why the gateway stopped a request.
type Kind int

const (
	KindValidation Kind = iota + 1
	KindAuth
	KindRateLimit
	KindInternal
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindAuth:
		return "auth"
	case KindRateLimit:
		return "rate_limit"
	case KindInternal:
		return "internal"
	default:
		return "unknown"
	}
}

// Error is a short-circuit from one of the gateway stages. Message is safe
// to show to the caller.
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string { return e.Message }

// Unwrap lets callers match with errors.Is against the shared sentinels.
func (e *Error) Unwrap() error {
	switch e.Kind {
	case KindValidation:
		return sharederrors.ErrValidation
	case KindAuth:
		return sharederrors.ErrUnauthorized
	case KindRateLimit:
		return sharederrors.ErrRateLimited
	default:
		return sharederrors.ErrInternal
	}
}

func validationError(msg string) *Error { return &Error{Kind: KindValidation, Message: msg} }

func authError(msg string) *Error { return &Error{Kind: KindAuth, Message: msg} }

func rateLimitError() *Error { return &Error{Kind: KindRateLimit, Message: MsgRateLimited} }

func internalError() *Error { return &Error{Kind: KindInternal, Message: MsgInternal} }

// Caller-facing messages.
const (
	MsgAPIKeyRequired = "API key required"
	MsgInvalidAPIKey  = "Invalid API key"
	MsgRateLimited    = "Rate limit exceeded"
	MsgInternal       = "An unexpected error occurred"
)
