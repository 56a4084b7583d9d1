package service

import (
	"errors"
)

// Sentinel error kinds for this package. These allow errors.Is/As from callers.
var (
	ErrNoSource    = errors.New("entry source not configured")
	ErrNoRateStore = errors.New("rate store not configured")
	ErrNoPublisher = errors.New("publisher not configured")
)
