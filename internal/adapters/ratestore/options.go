package ratestore

import (
	"net/http"
	"strings"

	"github.com/iwdjoe/iwd-bonus-tracker/pkg/logger"
)

// Option applies a configuration option to the Store.
type Option func(*Store)

// WithBaseURL points the client at a different contents API host.
func WithBaseURL(url string) Option {
	return func(s *Store) {
		if url != "" {
			s.baseURL = strings.TrimRight(url, "/")
		}
	}
}

// WithPath sets the blob path inside the repository.
func WithPath(path string) Option {
	return func(s *Store) {
		if path != "" {
			s.path = path
		}
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(s *Store) {
		if client != nil {
			s.httpClient = client
		}
	}
}

// WithLogger replaces the store's logger.
func WithLogger(log logger.Logger) Option {
	return func(s *Store) {
		if log != nil {
			s.log = log
		}
	}
}
