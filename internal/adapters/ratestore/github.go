// Package ratestore reads and writes the externally stored project rate
// table: a JSON blob in a source-control contents API, versioned by SHA.
package ratestore

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/iwdjoe/iwd-bonus-tracker/internal/domain/model"
	"github.com/iwdjoe/iwd-bonus-tracker/pkg/logger"
	"github.com/iwdjoe/iwd-bonus-tracker/pkg/metrics"
)

// Defaults for the contents API client.
const (
	defaultBaseURL = "https://api.github.com"
	defaultPath    = "rates.json"
	defaultTimeout = 10 * time.Second
)

// Store is a versioned-blob client for the rate table.
type Store struct {
	baseURL    string
	repo       string
	path       string
	token      string
	httpClient *http.Client
	log        logger.Logger
}

// New creates a Store for the given repository ("owner/name") and token.
func New(repo, token string, opts ...Option) *Store {
	s := &Store{
		baseURL:    defaultBaseURL,
		repo:       repo,
		path:       defaultPath,
		token:      token,
		httpClient: &http.Client{Timeout: defaultTimeout},
		log:        logger.Get().Named("ratestore"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// contentsResponse is the envelope returned by GET on the contents API.
type contentsResponse struct {
	Content string `json:"content"`
	SHA     string `json:"sha"`
}

func (s *Store) contentsURL() string {
	return fmt.Sprintf("%s/repos/%s/contents/%s", s.baseURL, s.repo, s.path)
}

// Fetch retrieves the rate table and its current version token. Callers
// treat failure as non-fatal and degrade to the global default rate.
func (s *Store) Fetch(ctx context.Context) (model.RateTable, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.contentsURL(), nil)
	if err != nil {
		return nil, "", err
	}
	req.Header.Set("Authorization", "token "+s.token)
	req.Header.Set("Accept", "application/vnd.github.v3+json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		metrics.RecordErrorByComponent("ratestore", "fetch")
		return nil, "", fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		metrics.RecordErrorByComponent("ratestore", "fetch")
		return nil, "", fmt.Errorf("%w: store returned %d", ErrStoreUnavailable, resp.StatusCode)
	}

	var env contentsResponse
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, "", fmt.Errorf("%w: %w", ErrMalformedBlob, err)
	}

	decoded, err := base64.StdEncoding.DecodeString(stripNewlines(env.Content))
	if err != nil {
		return nil, "", fmt.Errorf("%w: %w", ErrMalformedBlob, err)
	}

	var table model.RateTable
	if err := json.Unmarshal(decoded, &table); err != nil {
		return nil, "", fmt.Errorf("%w: %w", ErrMalformedBlob, err)
	}
	return table, env.SHA, nil
}

// Save commits a full-file replacement of the rate table. sha is the
// version token from the preceding Fetch; a stale token surfaces as
// ErrVersionConflict. Lost updates between concurrent writers are accepted,
// not retried.
func (s *Store) Save(ctx context.Context, table model.RateTable, sha, message string) error {
	content, err := json.MarshalIndent(table, "", "  ")
	if err != nil {
		return err
	}

	payload, err := json.Marshal(map[string]string{
		"message": message,
		"content": base64.StdEncoding.EncodeToString(content),
		"sha":     sha,
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, s.contentsURL(), bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "token "+s.token)
	req.Header.Set("Accept", "application/vnd.github.v3+json")
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		metrics.RecordErrorByComponent("ratestore", "save")
		return fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode <= 299:
		s.log.Info(ctx, "rate table committed", logger.String("sha", sha))
		return nil
	case resp.StatusCode == http.StatusConflict || resp.StatusCode == http.StatusUnprocessableEntity:
		metrics.RecordErrorByComponent("ratestore", "conflict")
		return fmt.Errorf("%w: store returned %d", ErrVersionConflict, resp.StatusCode)
	default:
		metrics.RecordErrorByComponent("ratestore", "save")
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%w: store returned %d: %s", ErrStoreUnavailable, resp.StatusCode, body)
	}
}

// stripNewlines removes the line wrapping the contents API inserts into
// base64 payloads.
func stripNewlines(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		if s[i] != '\n' && s[i] != '\r' {
			out = append(out, s[i])
		}
	}
	return string(out)
}
