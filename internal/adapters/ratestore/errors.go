package ratestore

import "errors"

// Sentinel kinds for rate-store errors.
var (
	ErrStoreUnavailable = errors.New("rate store unavailable")
	ErrMalformedBlob    = errors.New("rate store blob malformed")
	ErrVersionConflict  = errors.New("rate store version conflict")
)
