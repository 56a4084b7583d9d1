package slack

import "errors"

// Sentinel kinds for publisher errors.
var (
	ErrWebhook = errors.New("chat webhook delivery failed")
)
