package timesource

import "errors"

// Sentinel kinds for source errors.
var (
	ErrSourceUnavailable = errors.New("time-entry source unavailable")
	ErrMalformedResponse = errors.New("time-entry source returned malformed payload")
)
