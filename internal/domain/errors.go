package domain

import "errors"

// Sentinel errors for the domain layer.
var (
	ErrUnknownEvent  = errors.New("domain: unknown board event kind")
	ErrNoDestination = errors.New("domain: notification destination not set")
)
