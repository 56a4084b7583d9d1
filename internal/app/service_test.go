package service_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	service "github.com/iwdjoe/iwd-bonus-tracker/internal/app"
	"github.com/iwdjoe/iwd-bonus-tracker/internal/domain/bonus"
	"github.com/iwdjoe/iwd-bonus-tracker/internal/domain/calendar"
	"github.com/iwdjoe/iwd-bonus-tracker/internal/domain/model"
	"github.com/iwdjoe/iwd-bonus-tracker/pkg/logger"
	"github.com/smartystreets/goconvey/convey"
)

func init() {
	_ = logger.Init()
}

type fakeSource struct {
	entries []model.TimeEntry
	err     error
	calls   int
}

func (f *fakeSource) FetchEntries(_ context.Context, _, _ time.Time) ([]model.TimeEntry, error) {
	f.calls++
	return f.entries, f.err
}

type fakeRateStore struct {
	table    model.RateTable
	sha      string
	fetchErr error
	saveErr  error

	saved    model.RateTable
	savedSHA string
	savedMsg string
}

func (f *fakeRateStore) Fetch(_ context.Context) (model.RateTable, string, error) {
	if f.fetchErr != nil {
		return nil, "", f.fetchErr
	}
	return f.table, f.sha, nil
}

func (f *fakeRateStore) Save(_ context.Context, table model.RateTable, sha, message string) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	f.saved = table
	f.savedSHA = sha
	f.savedMsg = message
	return nil
}

type fakePublisher struct {
	messages []string
	err      error
}

func (f *fakePublisher) Publish(_ context.Context, message string) error {
	if f.err != nil {
		return f.err
	}
	f.messages = append(f.messages, message)
	return nil
}

type fakeCache struct {
	store       map[string]any
	invalidated int
}

func newFakeCache() *fakeCache {
	return &fakeCache{store: map[string]any{}}
}

func (f *fakeCache) Get(key string) (any, bool) {
	v, ok := f.store[key]
	return v, ok
}

func (f *fakeCache) Put(key string, value any) {
	f.store[key] = value
}

func (f *fakeCache) Invalidate() {
	f.store = map[string]any{}
	f.invalidated++
}

// Wednesday evening, 2026-08-12 18:00 UTC: eight working days into a
// 21-working-day August.
var testNow = time.Date(2026, 8, 12, 18, 0, 0, 0, time.UTC)

func testEntries() []model.TimeEntry {
	day := func(d int) time.Time {
		return time.Date(2026, 8, d, 10, 0, 0, 0, time.UTC)
	}
	return []model.TimeEntry{
		{User: "Alice Smith", Project: "Acme Site", ProjectID: "acmesite", Date: day(3), Hours: 10, Billable: true},
		{User: "Bob Jones", Project: "Acme Site", ProjectID: "acmesite", Date: day(10), Hours: 4, Billable: true},
		{User: "Alice Smith", Project: "Acme Site", ProjectID: "acmesite", Date: day(11), Hours: 2, Billable: false},
	}
}

func testRates() model.RateTable {
	return model.RateTable{
		"acmesite":          100,
		model.GlobalRateKey: 155,
		model.WeeklyGoalKey: 150,
	}
}

func TestServicePulse(t *testing.T) {
	convey.Convey("Given a service with a populated source", t, func() {
		ctx := context.Background()
		src := &fakeSource{entries: testEntries()}
		store := &fakeRateStore{table: testRates(), sha: "abc123"}
		cache := newFakeCache()

		svc := service.New(
			service.WithSource(src),
			service.WithRateStore(store),
			service.WithCache(cache),
			service.WithClock(calendar.FixedClock{T: testNow}),
		)

		convey.Convey("When fetching the pulse", func() {
			p, err := svc.Pulse(ctx)

			convey.Convey("Then it materializes users, projects, and buckets", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(p, convey.ShouldNotBeNil)
				convey.So(p.Users, convey.ShouldHaveLength, 2)
				convey.So(p.Users[0].Name, convey.ShouldEqual, "Alice Smith")
				convey.So(p.Projects, convey.ShouldHaveLength, 1)
				convey.So(p.Projects[0].Rate, convey.ShouldEqual, 100)
				convey.So(p.Weekly.Month.Revenue, convey.ShouldAlmostEqual, 1400)
				convey.So(p.Meta.GlobalRate, convey.ShouldEqual, 155)
				convey.So(p.Meta.WeeklyGoal, convey.ShouldEqual, 150)
				convey.So(p.Meta.RateFallback, convey.ShouldBeFalse)
			})

			convey.Convey("Then a second call is served from cache", func() {
				_, err := svc.Pulse(ctx)
				convey.So(err, convey.ShouldBeNil)
				convey.So(src.calls, convey.ShouldEqual, 1)
			})
		})

		convey.Convey("When the rate store is unavailable", func() {
			store.fetchErr = errors.New("github down")

			p, err := svc.Pulse(ctx)

			convey.Convey("Then it degrades to the default rate", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(p.Meta.RateFallback, convey.ShouldBeTrue)
				convey.So(p.Meta.GlobalRate, convey.ShouldEqual, 155)
				convey.So(p.Weekly.Month.Revenue, convey.ShouldAlmostEqual, 14*155)
			})
		})

		convey.Convey("When the source fails", func() {
			src.err = errors.New("upstream 503")

			_, err := svc.Pulse(ctx)

			convey.Convey("Then the error propagates", func() {
				convey.So(err, convey.ShouldNotBeNil)
			})
		})
	})
}

func TestServiceRunReport(t *testing.T) {
	convey.Convey("Given a service wired for reporting", t, func() {
		ctx := context.Background()
		src := &fakeSource{entries: testEntries()}
		store := &fakeRateStore{table: testRates(), sha: "abc123"}
		pub := &fakePublisher{}

		svc := service.New(
			service.WithSource(src),
			service.WithRateStore(store),
			service.WithPublisher(pub),
			service.WithClock(calendar.FixedClock{T: testNow}),
			service.WithDashboardURL("https://dash.example.com"),
		)

		convey.Convey("When running in auto mode", func() {
			res, err := svc.RunReport(ctx, bonus.ModeAuto, false)

			convey.Convey("Then it classifies from the projection and publishes", func() {
				convey.So(err, convey.ShouldBeNil)
				// $1,400 over 8 of 21 working days projects to $3,675.
				convey.So(res.Mode, convey.ShouldEqual, bonus.ModeBehind)
				convey.So(res.Posted, convey.ShouldBeTrue)
				convey.So(res.Message, convey.ShouldBeEmpty)
				convey.So(pub.messages, convey.ShouldHaveLength, 1)
				convey.So(pub.messages[0], convey.ShouldContainSubstring, "Team Bonus Update")
				convey.So(pub.messages[0], convey.ShouldContainSubstring, "$3,675")
				convey.So(pub.messages[0], convey.ShouldContainSubstring, "Day 8 of 21")
				convey.So(pub.messages[0], convey.ShouldContainSubstring, "dash.example.com")
			})
		})

		convey.Convey("When running a preview", func() {
			res, err := svc.RunReport(ctx, bonus.ModeOnTrack, true)

			convey.Convey("Then the message is returned and nothing is published", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(res.Preview, convey.ShouldBeTrue)
				convey.So(res.Posted, convey.ShouldBeFalse)
				convey.So(res.Message, convey.ShouldContainSubstring, "Team Bonus Update")
				convey.So(pub.messages, convey.ShouldBeEmpty)
			})
		})

		convey.Convey("When a forced mode is requested", func() {
			res, err := svc.RunReport(ctx, bonus.ModeClose, true)

			convey.Convey("Then classification is skipped", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(res.Mode, convey.ShouldEqual, bonus.ModeClose)
			})
		})

		convey.Convey("When publishing fails", func() {
			pub.err = errors.New("webhook returned 500")

			_, err := svc.RunReport(ctx, bonus.ModeAuto, false)

			convey.Convey("Then the error surfaces verbatim", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(strings.Contains(err.Error(), "webhook returned 500"), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When no publisher is configured", func() {
			bare := service.New(
				service.WithSource(src),
				service.WithClock(calendar.FixedClock{T: testNow}),
			)

			_, err := bare.RunReport(ctx, bonus.ModeAuto, false)

			convey.Convey("Then it fails fast", func() {
				convey.So(errors.Is(err, service.ErrNoPublisher), convey.ShouldBeTrue)
			})
		})
	})
}

func TestServiceUpdateRate(t *testing.T) {
	convey.Convey("Given a service with a rate store and cache", t, func() {
		ctx := context.Background()
		store := &fakeRateStore{table: testRates(), sha: "abc123"}
		cache := newFakeCache()
		cache.Put("pulse", &service.Pulse{})

		svc := service.New(
			service.WithRateStore(store),
			service.WithCache(cache),
			service.WithClock(calendar.FixedClock{T: testNow}),
		)

		convey.Convey("When updating a project rate", func() {
			updated, err := svc.UpdateRate(ctx, "acmesite", 140)

			convey.Convey("Then it saves against the fetched version token", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(updated["acmesite"], convey.ShouldEqual, 140)
				convey.So(store.saved["acmesite"], convey.ShouldEqual, 140)
				convey.So(store.savedSHA, convey.ShouldEqual, "abc123")
				convey.So(store.savedMsg, convey.ShouldContainSubstring, "acmesite")
			})

			convey.Convey("Then the snapshot cache is invalidated", func() {
				convey.So(cache.invalidated, convey.ShouldEqual, 1)
			})

			convey.Convey("Then the fetched table is not mutated in place", func() {
				convey.So(store.table["acmesite"], convey.ShouldEqual, 100)
			})
		})

		convey.Convey("When the store fetch fails", func() {
			store.fetchErr = errors.New("github down")

			_, err := svc.UpdateRate(ctx, "acmesite", 140)

			convey.Convey("Then the error propagates and nothing is saved", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(store.saved, convey.ShouldBeNil)
			})
		})

		convey.Convey("When no rate store is configured", func() {
			bare := service.New()

			_, err := bare.UpdateRate(ctx, "acmesite", 140)

			convey.Convey("Then it fails fast", func() {
				convey.So(errors.Is(err, service.ErrNoRateStore), convey.ShouldBeTrue)
			})
		})
	})
}

func TestServiceGetStats(t *testing.T) {
	convey.Convey("Given a fresh service", t, func() {
		svc := service.New()

		convey.Convey("When reading stats", func() {
			stats := svc.GetStats()

			convey.Convey("Then counters start at zero", func() {
				convey.So(stats["report_runs"], convey.ShouldEqual, int64(0))
				convey.So(stats["rate_updates"], convey.ShouldEqual, int64(0))
				convey.So(stats, convey.ShouldContainKey, "uptime_seconds")
				convey.So(stats, convey.ShouldNotContainKey, "last_report_at")
			})
		})
	})
}
