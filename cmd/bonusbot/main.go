// Command bonusbot runs one report cycle from the command line: fetch,
// aggregate, classify, format, and deliver to Slack. It is the scheduled
// entry point; the HTTP server exposes the same pipeline on demand.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/iwdjoe/iwd-bonus-tracker/internal/adapters/ratestore"
	"github.com/iwdjoe/iwd-bonus-tracker/internal/adapters/slack"
	"github.com/iwdjoe/iwd-bonus-tracker/internal/adapters/timesource"
	app "github.com/iwdjoe/iwd-bonus-tracker/internal/app"
	"github.com/iwdjoe/iwd-bonus-tracker/internal/config"
	"github.com/iwdjoe/iwd-bonus-tracker/internal/domain/aggregate"
	"github.com/iwdjoe/iwd-bonus-tracker/internal/domain/bonus"
	"github.com/iwdjoe/iwd-bonus-tracker/internal/domain/calendar"
	"github.com/iwdjoe/iwd-bonus-tracker/pkg/logger"
)

const runTimeout = 2 * time.Minute

func main() {
	var (
		mode   = flag.String("mode", "auto", "Report mode: auto, green, yellow, or red")
		dryRun = flag.Bool("dry-run", false, "Print the message instead of posting it")
		test   = flag.Bool("test", false, "Post to the test webhook instead of the team channel")
	)
	flag.Parse()

	_ = godotenv.Load()

	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer func() {
		_ = logger.Sync()
	}()
	log := logger.Get().Named("bonusbot")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, runTimeout)
	defer cancel()

	cfg, err := config.Load(ctx)
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		os.Exit(1)
	}
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		_ = logger.SetLevelString("info")
	}

	parsed, err := bonus.ParseMode(*mode)
	if err != nil {
		os.Stderr.WriteString(err.Error() + "\n")
		os.Exit(2)
	}

	// Validated at config load, so this cannot fail here.
	loc, _ := cfg.Location()
	clock := calendar.SystemClock{Loc: loc}

	webhookURL := cfg.SlackWebhookURL
	if *test {
		if cfg.SlackTestWebhookURL == "" {
			os.Stderr.WriteString("--test requires BONUS_SLACK_TEST_WEBHOOK_URL\n")
			os.Exit(2)
		}
		webhookURL = cfg.SlackTestWebhookURL
	}

	svc := app.New(
		app.WithLogger(log),
		app.WithSource(timesource.New(cfg.SourceBaseURL, cfg.SourceToken,
			timesource.WithPageSize(cfg.SourcePageSize),
			timesource.WithMaxPages(cfg.SourceMaxPages),
			timesource.WithTimeout(time.Duration(cfg.SourceTimeoutSeconds)*time.Second),
			timesource.WithLocation(loc),
			timesource.WithLogger(log.Named("timesource")),
		)),
		app.WithRateStore(ratestore.New(cfg.RateRepo, cfg.RateToken,
			ratestore.WithPath(cfg.RatePath),
			ratestore.WithLogger(log.Named("ratestore")),
		)),
		app.WithPublisher(slack.New(webhookURL, slack.WithLogger(log.Named("slack")))),
		app.WithAggregator(aggregate.New(
			aggregate.WithInternalProjects(cfg.InternalProjects),
			aggregate.WithExcludedWeeklyUser(cfg.ExcludedWeeklyUser),
			aggregate.WithContractors(cfg.Contractors),
			aggregate.WithDefaultRate(cfg.GlobalRate),
		)),
		app.WithClock(clock),
		app.WithGlobalRate(cfg.GlobalRate),
		app.WithCutoffHour(cfg.DayCutoffHour),
		app.WithFetchWindowDays(cfg.FetchWindowDays),
		app.WithDashboardURL(cfg.DashboardURL),
	)

	result, err := svc.RunReport(ctx, parsed, *dryRun)
	if err != nil {
		os.Stderr.WriteString("report run failed: " + err.Error() + "\n")
		os.Exit(1)
	}

	if *dryRun {
		fmt.Printf("mode: %s\n\n%s\n", result.Mode, result.Message)
		return
	}
	log.Info(ctx, "report delivered",
		logger.String("mode", string(result.Mode)),
		logger.Bool("test", *test))
}
