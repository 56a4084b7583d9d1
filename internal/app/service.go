// Package service wires ingestion, aggregation, bonus classification, and
// publishing into the operations exposed by the HTTP API and the CLI.
package service

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/iwdjoe/iwd-bonus-tracker/internal/domain/aggregate"
	"github.com/iwdjoe/iwd-bonus-tracker/internal/domain/bonus"
	"github.com/iwdjoe/iwd-bonus-tracker/internal/domain/calendar"
	"github.com/iwdjoe/iwd-bonus-tracker/internal/domain/model"
	"github.com/iwdjoe/iwd-bonus-tracker/internal/domain/report"
	"github.com/iwdjoe/iwd-bonus-tracker/pkg/logger"
	"github.com/iwdjoe/iwd-bonus-tracker/pkg/metrics"
)

// EntrySource fetches normalized time entries for a date window.
type EntrySource interface {
	FetchEntries(ctx context.Context, from, to time.Time) ([]model.TimeEntry, error)
}

// RateStore reads and writes the versioned rate table blob.
type RateStore interface {
	Fetch(ctx context.Context) (model.RateTable, string, error)
	Save(ctx context.Context, table model.RateTable, sha, message string) error
}

// Publisher delivers a finished report message.
type Publisher interface {
	Publish(ctx context.Context, message string) error
}

// Cache holds materialized snapshots between dashboard polls.
type Cache interface {
	Get(key string) (any, bool)
	Put(key string, value any)
	Invalidate()
}

const pulseCacheKey = "pulse"

// WeeklyBuckets groups the three dashboard windows.
type WeeklyBuckets struct {
	Month    aggregate.Bucket `json:"month"`
	ThisWeek aggregate.Bucket `json:"thisWeek"`
	LastWeek aggregate.Bucket `json:"lastWeek"`
}

// Meta carries snapshot provenance for the dashboard.
type Meta struct {
	GlobalRate   int       `json:"globalRate"`
	WeeklyGoal   int       `json:"weeklyGoal"`
	GeneratedAt  time.Time `json:"generatedAt"`
	EntryCount   int       `json:"entryCount"`
	RateFallback bool      `json:"rateFallback"`
}

// Pulse is the dashboard payload: one materialized view of the data.
type Pulse struct {
	Users    []aggregate.UserTotal    `json:"users"`
	Projects []aggregate.ProjectTotal `json:"projects"`
	Weekly   WeeklyBuckets            `json:"weekly"`
	Meta     Meta                     `json:"meta"`
}

// ReportResult is the outcome of one report run.
type ReportResult struct {
	Mode    bonus.Mode `json:"mode"`
	Preview bool       `json:"preview"`
	Message string     `json:"message,omitempty"`
	Posted  bool       `json:"posted"`
}

// Service implements the operations behind the HTTP API and CLI.
type Service struct {
	source    EntrySource
	rates     RateStore
	publisher Publisher
	cache     Cache

	aggregator *aggregate.Aggregator
	clock      calendar.Clock

	globalRate   int
	cutoffHour   int
	fetchDays    int
	dashboardURL string

	startedAt    time.Time
	reportRuns   atomic.Int64
	rateUpdates  atomic.Int64
	lastReportAt atomic.Value // time.Time

	log logger.Logger
}

// New constructs a Service. Source, rate store, and publisher come in via
// options; operations that need a missing dependency fail with a sentinel.
func New(opts ...Option) *Service {
	s := &Service{
		aggregator: aggregate.New(),
		clock:      calendar.SystemClock{Loc: time.Local},
		globalRate: 155,
		cutoffHour: calendar.DefaultCutoffHour,
		fetchDays:  calendar.MinFetchDays,
		startedAt:  time.Now(),
		log:        logger.Get().Named("service"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Pulse returns the dashboard snapshot, serving from cache when fresh.
func (s *Service) Pulse(ctx context.Context) (*Pulse, error) {
	if s.cache != nil {
		if v, ok := s.cache.Get(pulseCacheKey); ok {
			if p, ok := v.(*Pulse); ok {
				return p, nil
			}
		}
	}

	snap, rates, fallback, err := s.materialize(ctx)
	if err != nil {
		return nil, err
	}

	p := &Pulse{
		Users:    snap.PerUser,
		Projects: snap.PerProject,
		Weekly: WeeklyBuckets{
			Month:    snap.Month,
			ThisWeek: snap.ThisWeek,
			LastWeek: snap.LastWeek,
		},
		Meta: Meta{
			GlobalRate:   rates.GlobalRate(s.globalRate),
			WeeklyGoal:   rates.WeeklyGoal(),
			GeneratedAt:  s.clock.Now(),
			EntryCount:   snap.EntryCount,
			RateFallback: fallback,
		},
	}
	if s.cache != nil {
		s.cache.Put(pulseCacheKey, p)
	}
	return p, nil
}

// RunReport executes the full pipeline and, unless preview is set,
// publishes the composed message.
func (s *Service) RunReport(ctx context.Context, mode bonus.Mode, preview bool) (*ReportResult, error) {
	if s.publisher == nil && !preview {
		return nil, ErrNoPublisher
	}

	start := time.Now()
	s.reportRuns.Add(1)

	snap, rates, _, err := s.materialize(ctx)
	if err != nil {
		metrics.RecordReportRun(string(mode), "error")
		metrics.RecordReportRunError()
		return nil, err
	}

	now := s.clock.Now()
	stats := bonus.ComputeStats(snap, rates.GlobalRate(s.globalRate), now, s.cutoffHour)

	resolved := mode
	if resolved == bonus.ModeAuto {
		resolved = bonus.Classify(stats.ProjectedRevenue)
	}
	details := bonus.ComputeDetails(resolved, stats)
	message := report.Format(stats, resolved, details, s.dashboardURL)

	result := &ReportResult{Mode: resolved, Preview: preview, Message: message}

	if preview {
		metrics.RecordPreviewServed()
		metrics.RecordReportRun(string(resolved), "preview")
		metrics.RecordReportDuration(float64(time.Since(start).Milliseconds()))
		return result, nil
	}

	if err := s.publisher.Publish(ctx, message); err != nil {
		metrics.RecordPublishFailure()
		metrics.RecordReportRun(string(resolved), "error")
		return nil, err
	}
	metrics.RecordPublishSuccess()
	metrics.RecordReportRun(string(resolved), "ok")
	metrics.RecordReportDuration(float64(time.Since(start).Milliseconds()))
	s.lastReportAt.Store(now)

	s.log.Info(ctx, "report published",
		logger.String("mode", string(resolved)),
		logger.Float64("projected_revenue", stats.ProjectedRevenue))

	result.Posted = true
	result.Message = ""
	return result, nil
}

// UpdateRate writes one project rate into the rate store using a
// read-modify-write against the blob's version token, then invalidates the
// snapshot cache so the next pulse reflects the change.
func (s *Service) UpdateRate(ctx context.Context, projectID string, rate int) (model.RateTable, error) {
	if s.rates == nil {
		return nil, ErrNoRateStore
	}

	table, sha, err := s.rates.Fetch(ctx)
	if err != nil {
		metrics.RecordRateUpdateError()
		return nil, err
	}

	updated := table.Clone()
	updated[projectID] = rate

	msg := fmt.Sprintf("Set rate for %s to %d", projectID, rate)
	if err := s.rates.Save(ctx, updated, sha, msg); err != nil {
		metrics.RecordRateUpdateError()
		return nil, err
	}

	s.rateUpdates.Add(1)
	metrics.RecordRateUpdate()
	if s.cache != nil {
		s.cache.Invalidate()
	}

	s.log.Info(ctx, "rate updated",
		logger.String("project_id", projectID),
		logger.Int("rate", rate))
	return updated, nil
}

// GetStats reports service counters for the stats endpoint.
func (s *Service) GetStats() map[string]any {
	stats := map[string]any{
		"started_at":     s.startedAt,
		"uptime_seconds": int64(time.Since(s.startedAt).Seconds()),
		"report_runs":    s.reportRuns.Load(),
		"rate_updates":   s.rateUpdates.Load(),
	}
	if t, ok := s.lastReportAt.Load().(time.Time); ok {
		stats["last_report_at"] = t
	}
	return stats
}

// materialize runs fetch + aggregate once. Rate-store failure degrades to
// the default global rate instead of failing the run; source failure is
// fatal because there is nothing to report without entries.
func (s *Service) materialize(ctx context.Context) (aggregate.Snapshot, model.RateTable, bool, error) {
	if s.source == nil {
		return aggregate.Snapshot{}, nil, false, ErrNoSource
	}

	now := s.clock.Now()
	from, to := calendar.FetchWindow(now, s.fetchDays)

	entries, err := s.source.FetchEntries(ctx, from, to)
	if err != nil {
		return aggregate.Snapshot{}, nil, false, err
	}

	fallback := false
	var rates model.RateTable
	if s.rates != nil {
		rates, _, err = s.rates.Fetch(ctx)
	}
	if s.rates == nil || err != nil {
		if err != nil {
			s.log.Warn(ctx, "rate table unavailable, using default rate", logger.Error(err))
			metrics.RecordRateFallback()
		}
		rates = model.RateTable{model.GlobalRateKey: s.globalRate}
		fallback = true
	}

	snap := s.aggregator.Aggregate(entries, rates, s.clock)
	return snap, rates, fallback, nil
}
