package service

import (
	"github.com/iwdjoe/iwd-bonus-tracker/internal/domain/aggregate"
	"github.com/iwdjoe/iwd-bonus-tracker/internal/domain/calendar"
	"github.com/iwdjoe/iwd-bonus-tracker/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithSource sets the time-entry source.
func WithSource(src EntrySource) Option {
	return func(s *Service) {
		s.source = src
	}
}

// WithRateStore sets the rate-table store.
func WithRateStore(store RateStore) Option {
	return func(s *Service) {
		s.rates = store
	}
}

// WithPublisher sets the report publisher.
func WithPublisher(p Publisher) Option {
	return func(s *Service) {
		s.publisher = p
	}
}

// WithCache sets the snapshot cache.
func WithCache(c Cache) Option {
	return func(s *Service) {
		s.cache = c
	}
}

// WithAggregator sets a pre-configured aggregator.
func WithAggregator(a *aggregate.Aggregator) Option {
	return func(s *Service) {
		if a != nil {
			s.aggregator = a
		}
	}
}

// WithClock sets the time source, mainly for tests.
func WithClock(c calendar.Clock) Option {
	return func(s *Service) {
		if c != nil {
			s.clock = c
		}
	}
}

// WithGlobalRate sets the fallback hourly rate.
func WithGlobalRate(rate int) Option {
	return func(s *Service) {
		if rate > 0 {
			s.globalRate = rate
		}
	}
}

// WithCutoffHour sets the hour after which today counts as complete.
func WithCutoffHour(hour int) Option {
	return func(s *Service) {
		if hour >= 0 && hour <= 23 {
			s.cutoffHour = hour
		}
	}
}

// WithFetchWindowDays sets how far back entries are fetched.
func WithFetchWindowDays(days int) Option {
	return func(s *Service) {
		if days > 0 {
			s.fetchDays = days
		}
	}
}

// WithDashboardURL sets the dashboard link embedded in messages.
func WithDashboardURL(url string) Option {
	return func(s *Service) {
		s.dashboardURL = url
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(log logger.Logger) Option {
	return func(s *Service) {
		if log != nil {
			s.log = log
		}
	}
}
