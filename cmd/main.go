package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/iwdjoe/iwd-bonus-tracker/internal/adapters/http/api"
	"github.com/iwdjoe/iwd-bonus-tracker/internal/adapters/http/site"
	"github.com/iwdjoe/iwd-bonus-tracker/internal/adapters/ratestore"
	"github.com/iwdjoe/iwd-bonus-tracker/internal/adapters/repository"
	"github.com/iwdjoe/iwd-bonus-tracker/internal/adapters/slack"
	"github.com/iwdjoe/iwd-bonus-tracker/internal/adapters/timesource"
	app "github.com/iwdjoe/iwd-bonus-tracker/internal/app"
	"github.com/iwdjoe/iwd-bonus-tracker/internal/config"
	"github.com/iwdjoe/iwd-bonus-tracker/internal/domain/aggregate"
	"github.com/iwdjoe/iwd-bonus-tracker/internal/domain/calendar"
	"github.com/iwdjoe/iwd-bonus-tracker/pkg/logger"
	"github.com/iwdjoe/iwd-bonus-tracker/pkg/metrics"
)

// HTTP server timeout constants.
const (
	readTimeout           = 10 * time.Second
	writeTimeout          = 30 * time.Second
	idleTimeout           = 60 * time.Second
	readHeaderTimeout     = 5 * time.Second
	shutdownTimeout       = 30 * time.Second
	systemMetricsInterval = 10 * time.Second
)

func main() {
	// Disable default Go metrics collection to avoid duplicate metrics.
	// We collect our own custom system metrics instead.
	prometheus.Unregister(collectors.NewGoCollector())
	prometheus.Unregister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	// Local development convenience; a missing .env is not an error.
	_ = godotenv.Load()

	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		return
	}
	defer func() {
		_ = logger.Sync()
	}()

	log := logger.Get()

	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration (defaults -> optional file -> env)
	cfg, err := config.Load(ctx)
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		return
	}

	// Apply configured log level (fallback to info on invalid input)
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	// Validated at config load, so this cannot fail here.
	loc, _ := cfg.Location()
	clock := calendar.SystemClock{Loc: loc}

	source := timesource.New(cfg.SourceBaseURL, cfg.SourceToken,
		timesource.WithPageSize(cfg.SourcePageSize),
		timesource.WithMaxPages(cfg.SourceMaxPages),
		timesource.WithTimeout(time.Duration(cfg.SourceTimeoutSeconds)*time.Second),
		timesource.WithLocation(loc),
		timesource.WithLogger(log.Named("timesource")),
	)

	rateOpts := []ratestore.Option{
		ratestore.WithPath(cfg.RatePath),
		ratestore.WithLogger(log.Named("ratestore")),
	}
	if cfg.RateBaseURL != "" {
		rateOpts = append(rateOpts, ratestore.WithBaseURL(cfg.RateBaseURL))
	}
	rates := ratestore.New(cfg.RateRepo, cfg.RateToken, rateOpts...)

	publisher := slack.New(cfg.SlackWebhookURL, slack.WithLogger(log.Named("slack")))

	cache := repository.New(
		repository.WithTTL(time.Duration(cfg.CacheTTLSeconds)*time.Second),
		repository.WithClock(clock),
	)

	aggregator := aggregate.New(
		aggregate.WithInternalProjects(cfg.InternalProjects),
		aggregate.WithExcludedWeeklyUser(cfg.ExcludedWeeklyUser),
		aggregate.WithContractors(cfg.Contractors),
		aggregate.WithDefaultRate(cfg.GlobalRate),
	)

	svc := app.New(
		app.WithLogger(log.Named("service")),
		app.WithSource(source),
		app.WithRateStore(rates),
		app.WithPublisher(publisher),
		app.WithCache(cache),
		app.WithAggregator(aggregator),
		app.WithClock(clock),
		app.WithGlobalRate(cfg.GlobalRate),
		app.WithCutoffHour(cfg.DayCutoffHour),
		app.WithFetchWindowDays(cfg.FetchWindowDays),
		app.WithDashboardURL(cfg.DashboardURL),
	)

	// Start system metrics updater
	go startSystemMetricsUpdater(ctx)

	// HTTP mux and routes.
	mux := http.NewServeMux()

	// Register the embedded dashboard under /
	site.Register(ctx, mux)

	// Register business API routes with the service dependency.
	auth := api.NewAuthenticator(cfg.AuthSecret, cfg.AllowedEmailDomain)
	if cfg.AuthSecret == "" {
		log.Warn(ctx, "auth secret not set; API endpoints are open")
	}
	api.NewServer(svc, svc, auth).Register(ctx, mux)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	// Start the HTTP server
	go func() {
		log.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			os.Stderr.WriteString("HTTP server failed: " + err.Error() + "\n")
			return
		}
	}()

	// Wait for shutdown signal
	<-ctx.Done()
	log.Info(ctx, "shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(ctx, "server shutdown failed", logger.Error(err))
	}

	log.Info(ctx, "server stopped")
}

// startSystemMetricsUpdater starts a background goroutine that updates system metrics.
func startSystemMetricsUpdater(ctx context.Context) {
	ticker := time.NewTicker(systemMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			updateSystemMetrics()
		}
	}
}

// updateSystemMetrics updates system-level metrics.
func updateSystemMetrics() {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	metrics.UpdateSystemMemoryUsage(m.Alloc)
	metrics.UpdateSystemGoroutineCount(runtime.NumGoroutine())
}
