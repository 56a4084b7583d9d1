// Package timesource fetches raw time entries from the external
// time-tracking API and normalizes them at the boundary.
package timesource

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/iwdjoe/iwd-bonus-tracker/internal/domain/calendar"
	"github.com/iwdjoe/iwd-bonus-tracker/internal/domain/model"
	"github.com/iwdjoe/iwd-bonus-tracker/pkg/logger"
	"github.com/iwdjoe/iwd-bonus-tracker/pkg/metrics"
	"github.com/sony/gobreaker"
)

// Default client configuration constants.
const (
	defaultPageSize    = 500
	defaultMaxPages    = 10
	defaultConcurrency = 4
	defaultTimeout     = 15 * time.Second
)

// page mirrors the source's paginated response envelope.
type page struct {
	Entries []model.RawEntry `json:"time-entries"`
}

// Client talks to the time-entry source over HTTP with Basic auth.
type Client struct {
	baseURL     string
	token       string
	pageSize    int
	maxPages    int
	concurrency int
	httpClient  *http.Client
	breaker     *gobreaker.CircuitBreaker
	loc         *time.Location
	log         logger.Logger
}

// New creates a Client for the given source base URL and API token.
func New(baseURL, token string, opts ...Option) *Client {
	c := &Client{
		baseURL:     baseURL,
		token:       token,
		pageSize:    defaultPageSize,
		maxPages:    defaultMaxPages,
		concurrency: defaultConcurrency,
		httpClient:  &http.Client{Timeout: defaultTimeout},
		loc:         time.UTC,
		log:         logger.Get().Named("timesource"),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.breaker == nil {
		c.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:    "timesource",
			Timeout: 30 * time.Second,
		})
	}
	return c
}

// FetchEntries retrieves and normalizes all time entries in the inclusive
// date range. Pagination continues until a short page or the page ceiling.
// Any upstream failure fails the whole fetch; there is no sensible
// aggregate without entries.
func (c *Client) FetchEntries(ctx context.Context, from, to time.Time) ([]model.TimeEntry, error) {
	start := time.Now()
	defer func() {
		metrics.RecordSourceFetchDuration(float64(time.Since(start).Milliseconds()))
	}()

	first, err := c.fetchPage(ctx, 1, from, to)
	if err != nil {
		return nil, err
	}

	pages := [][]model.RawEntry{first}
	if len(first) >= c.pageSize && c.maxPages > 1 {
		rest, err := c.fetchRemaining(ctx, from, to)
		if err != nil {
			return nil, err
		}
		pages = append(pages, rest...)
	}

	var entries []model.TimeEntry
	skipped := 0
	for _, p := range pages {
		for _, raw := range p {
			entry, ok := model.Normalize(raw, c.loc)
			if !ok {
				skipped++
				continue
			}
			entries = append(entries, entry)
		}
	}

	metrics.RecordIngestEntries(len(entries))
	if skipped > 0 {
		metrics.RecordIngestSkipped(skipped)
		c.log.Warn(ctx, "skipped malformed entries", logger.Int("count", skipped))
	}
	c.log.Info(ctx, "fetched time entries",
		logger.Int("pages", len(pages)),
		logger.Int("entries", len(entries)),
		logger.String("from", calendar.CompactDate(from)),
		logger.String("to", calendar.CompactDate(to)))
	return entries, nil
}

// fetchRemaining pulls pages 2..maxPages with a bounded worker fan-out.
// Workers stop taking new pages once any page comes back short; results
// keep page order and are trimmed at the first short page.
func (c *Client) fetchRemaining(ctx context.Context, from, to time.Time) ([][]model.RawEntry, error) {
	type result struct {
		page    int
		entries []model.RawEntry
		err     error
	}

	pageCh := make(chan int)
	results := make(chan result, c.maxPages)
	var short atomic.Bool

	var wg sync.WaitGroup
	workers := min(c.concurrency, c.maxPages-1)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for p := range pageCh {
				entries, err := c.fetchPage(ctx, p, from, to)
				if err == nil && len(entries) < c.pageSize {
					short.Store(true)
				}
				results <- result{page: p, entries: entries, err: err}
			}
		}()
	}

	go func() {
		defer close(pageCh)
		for p := 2; p <= c.maxPages; p++ {
			if short.Load() {
				return
			}
			select {
			case pageCh <- p:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	byPage := map[int][]model.RawEntry{}
	for r := range results {
		if r.err != nil {
			return nil, r.err
		}
		byPage[r.page] = r.entries
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("entry fetch canceled: %w", err)
	}

	var out [][]model.RawEntry
	for p := 2; p <= c.maxPages; p++ {
		entries, ok := byPage[p]
		if !ok {
			break
		}
		out = append(out, entries)
		if len(entries) < c.pageSize {
			break
		}
	}
	return out, nil
}

// fetchPage requests one page through the circuit breaker.
func (c *Client) fetchPage(ctx context.Context, pageNum int, from, to time.Time) ([]model.RawEntry, error) {
	url := fmt.Sprintf("%s/time_entries.json?page=%d&pageSize=%d&fromDate=%s&toDate=%s&sortorder=desc",
		c.baseURL, pageNum, c.pageSize, calendar.CompactDate(from), calendar.CompactDate(to))

	body, err := c.breaker.Execute(func() (interface{}, error) {
		return c.get(ctx, url)
	})
	if err != nil {
		metrics.RecordSourceError()
		metrics.RecordErrorByComponent("timesource", "fetch_page")
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			metrics.RecordBreakerOpen()
		}
		return nil, fmt.Errorf("%w: page %d: %w", ErrSourceUnavailable, pageNum, err)
	}

	var p page
	if err := json.Unmarshal(body.([]byte), &p); err != nil {
		metrics.RecordErrorByComponent("timesource", "decode")
		return nil, fmt.Errorf("%w: page %d: %w", ErrMalformedResponse, pageNum, err)
	}
	metrics.RecordIngestPage()
	return p.Entries, nil
}

func (c *Client) get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", basicAuth(c.token))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("source returned %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

// basicAuth builds the source's Basic auth header: token as username, a
// throwaway password, per the API's convention.
func basicAuth(token string) string {
	return "Basic " + base64.StdEncoding.EncodeToString([]byte(token+":xxx"))
}
