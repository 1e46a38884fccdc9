package domain

import "errors"

// Sentinel errors shared by services, stores and adapters.
var (
	ErrNotFound          = errors.New("not found")
	ErrForbidden         = errors.New("forbidden")
	ErrInvalidInput      = errors.New("invalid input")
	ErrNotConfigured     = errors.New("not configured")
	ErrNotLinked         = errors.New("no linked account")
	ErrStoreUnavailable  = errors.New("store unavailable")
	ErrRemoteFetchFailed = errors.New("remote fetch failed")
	ErrDeliveryFailed    = errors.New("delivery failed")
	ErrEventStarted      = errors.New("event already started")
)
