package domain

import "errors"

var (
	// ErrCatalogUnavailable is fatal at startup: the catalog is unreadable or empty.
	ErrCatalogUnavailable = errors.New("instrument catalog unavailable")

	ErrUpstreamUnreachable = errors.New("upstream unreachable")
	ErrUpstreamMalformed   = errors.New("upstream response malformed")
	ErrUpstreamEmpty       = errors.New("upstream returned no records")

	// ErrEntryMalformed marks a single upstream record that cannot be normalized.
	ErrEntryMalformed = errors.New("quote entry malformed")

	// ErrNoPrice and ErrNoVolume are expected drops, not failures.
	ErrNoPrice  = errors.New("no close and no carried price")
	ErrNoVolume = errors.New("volume is zero or missing")

	ErrClientDeliveryFailed = errors.New("client delivery failed")
)
