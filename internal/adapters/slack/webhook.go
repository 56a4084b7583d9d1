// Package slack delivers formatted report messages to an incoming-webhook
// URL. One-way: nothing beyond the status code is interpreted.
package slack

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/iwdjoe/iwd-bonus-tracker/pkg/logger"
	"github.com/iwdjoe/iwd-bonus-tracker/pkg/metrics"
)

const defaultTimeout = 10 * time.Second

// Webhook posts messages to a single pre-configured webhook URL.
type Webhook struct {
	url        string
	httpClient *http.Client
	log        logger.Logger
}

// Option applies a configuration option to the Webhook.
type Option func(*Webhook)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(w *Webhook) {
		if client != nil {
			w.httpClient = client
		}
	}
}

// WithLogger replaces the publisher's logger.
func WithLogger(log logger.Logger) Option {
	return func(w *Webhook) {
		if log != nil {
			w.log = log
		}
	}
}

// New creates a Webhook publisher for the given URL.
func New(url string, opts ...Option) *Webhook {
	w := &Webhook{
		url:        url,
		httpClient: &http.Client{Timeout: defaultTimeout},
		log:        logger.Get().Named("slack"),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Publish posts the message as a single text payload. Any non-2xx response
// is a hard failure carrying the upstream status and body; delivery is
// never retried here, and duplicate runs produce duplicate messages.
func (w *Webhook) Publish(ctx context.Context, message string) error {
	payload, err := json.Marshal(map[string]string{"text": message})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.httpClient.Do(req)
	if err != nil {
		metrics.RecordPublishFailure()
		metrics.RecordErrorByComponent("slack", "post")
		return fmt.Errorf("%w: %w", ErrWebhook, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		metrics.RecordPublishFailure()
		metrics.RecordErrorByComponent("slack", "rejected")
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%w: webhook returned %d: %s", ErrWebhook, resp.StatusCode, body)
	}

	metrics.RecordPublishSuccess()
	w.log.Info(ctx, "message delivered", logger.Int("bytes", len(message)))
	return nil
}
