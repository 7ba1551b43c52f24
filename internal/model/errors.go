package model

import "errors"

// Error taxonomy for the control plane. Handlers map these to HTTP status
// codes; channel-side consumers treat ErrTransport as recoverable.
var (
	// ErrConfiguration means a required credential or setting is missing.
	// Surfaced as a 5xx, never degraded to an unscoped token.
	ErrConfiguration = errors.New("missing required configuration")

	// ErrValidation means an inbound message or request body is malformed.
	// Dropped at the channel boundary, 4xx at the HTTP boundary.
	ErrValidation = errors.New("invalid message or request")

	// ErrTransport means a publish/subscribe/presence operation failed.
	ErrTransport = errors.New("realtime transport failure")

	// ErrRateLimited means the caller exceeded its fixed-window budget.
	ErrRateLimited = errors.New("rate limit exceeded")
)
