// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Defaults live in New; Load layers an optional YAML file and env vars.
// - Secrets (tokens, webhook URLs, auth secret) have no defaults and must
//   come from the environment or a config file, never from code.
package config

import (
	"time"

	"github.com/iwdjoe/iwd-bonus-tracker/internal/domain/calendar"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// SourceBaseURL is the time-tracking API root, e.g.
	// "https://example.teamwork.com".
	SourceBaseURL string `koanf:"source_base_url"`

	// SourceToken authenticates against the time-tracking API.
	SourceToken string `koanf:"source_token"`

	// SourcePageSize and SourceMaxPages bound entry pagination.
	SourcePageSize int `koanf:"source_page_size"`
	SourceMaxPages int `koanf:"source_max_pages"`

	// SourceTimeoutSeconds bounds each outbound source request.
	SourceTimeoutSeconds int `koanf:"source_timeout_seconds"`

	// FetchWindowDays is how far back entries are fetched. Values below
	// the 45-day floor are raised to it.
	FetchWindowDays int `koanf:"fetch_window_days"`

	// RateRepo, RatePath, RateToken, and RateBaseURL locate the versioned
	// rate-table blob.
	RateRepo    string `koanf:"rate_repo"`
	RatePath    string `koanf:"rate_path"`
	RateToken   string `koanf:"rate_token"`
	RateBaseURL string `koanf:"rate_base_url"`

	// SlackWebhookURL receives published reports; SlackTestWebhookURL
	// receives --test runs from the CLI.
	SlackWebhookURL     string `koanf:"slack_webhook_url"`
	SlackTestWebhookURL string `koanf:"slack_test_webhook_url"`

	// DashboardURL is the public dashboard link placed in every message.
	DashboardURL string `koanf:"dashboard_url"`

	// Timezone anchors all date bucketing, e.g. "Europe/Madrid".
	Timezone string `koanf:"timezone"`

	// GlobalRate is the fallback hourly rate when the rate table is
	// unavailable or carries no global entry.
	GlobalRate int `koanf:"global_rate"`

	// DayCutoffHour is the local hour after which today counts as a
	// completed working day. Business policy, deliberately configurable.
	DayCutoffHour int `koanf:"day_cutoff_hour"`

	// CacheTTLSeconds controls dashboard snapshot freshness.
	CacheTTLSeconds int `koanf:"cache_ttl_seconds"`

	// AllowedEmailDomain gates the dashboard and rate endpoints.
	AllowedEmailDomain string `koanf:"allowed_email_domain"`

	// AuthSecret verifies identity tokens on gated endpoints.
	AuthSecret string `koanf:"auth_secret"`

	// InternalProjects lists denylist fragments for internal work.
	InternalProjects []string `koanf:"internal_projects"`

	// ExcludedWeeklyUser is dropped from weekly buckets only.
	ExcludedWeeklyUser string `koanf:"excluded_weekly_user"`

	// Contractors are excluded from bonus eligibility and shares.
	Contractors []string `koanf:"contractors"`
}

// Location resolves the configured timezone.
func (c *Config) Location() (*time.Location, error) {
	return time.LoadLocation(c.Timezone)
}

// New creates a Config with documented defaults.
func New() *Config {
	return &Config{
		LogLevel:             "info",
		Addr:                 ":8080",
		SourcePageSize:       500,
		SourceMaxPages:       10,
		SourceTimeoutSeconds: 15,
		FetchWindowDays:      calendar.MinFetchDays,
		RatePath:             "rates.json",
		Timezone:             "Europe/Madrid",
		GlobalRate:           155,
		DayCutoffHour:        calendar.DefaultCutoffHour,
		CacheTTLSeconds:      60,
		InternalProjects:     []string{"IWD", "Runners", "Dominate"},
	}
}
