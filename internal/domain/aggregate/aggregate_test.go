package aggregate_test

import (
	"testing"
	"time"

	"github.com/iwdjoe/iwd-bonus-tracker/internal/domain/aggregate"
	"github.com/iwdjoe/iwd-bonus-tracker/internal/domain/calendar"
	"github.com/iwdjoe/iwd-bonus-tracker/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

// Wednesday 2026-08-12 11:00 UTC; this week starts Mon Aug 10, last week is
// Aug 3-9, the month starts Sat Aug 1.
var now = calendar.FixedClock{T: time.Date(2026, time.August, 12, 11, 0, 0, 0, time.UTC)}

func entry(user, project, day string, hours float64, billable bool) model.TimeEntry {
	d, _ := time.ParseInLocation("2006-01-02", day, time.UTC)
	return model.TimeEntry{
		User:      user,
		Project:   project,
		ProjectID: model.ProjectID(project),
		Date:      d,
		Hours:     hours,
		Billable:  billable,
	}
}

func TestAggregateBuckets(t *testing.T) {
	Convey("Given entries across month, this week, and last week", t, func() {
		agg := aggregate.New()
		rates := model.RateTable{model.GlobalRateKey: 100, "acmestore": 200}
		entries := []model.TimeEntry{
			entry("Ana Ruiz", "Acme Store", "2026-08-11", 4, true),     // this week + month
			entry("Ana Ruiz", "Acme Store", "2026-08-05", 2, true),     // last week + month
			entry("Ben Ortiz", "Beta Labs", "2026-08-11", 3, false),    // non-billable
			entry("Cara Vega", "Beta Labs", "2026-07-20", 8, true),     // outside all windows
			entry("Dan Igwe", "IWD Internal Ops", "2026-08-11", 6, true), // internal, excluded
		}

		snap := agg.Aggregate(entries, rates, now)

		Convey("Then month totals should cover both weeks inside the month", func() {
			So(snap.Month.Total, ShouldAlmostEqual, 9)    // 4+2+3
			So(snap.Month.Billable, ShouldAlmostEqual, 6) // 4+2
			So(snap.Month.Revenue, ShouldAlmostEqual, 1200)
		})

		Convey("Then weekly buckets should split on the Monday boundary", func() {
			So(snap.ThisWeek.Total, ShouldAlmostEqual, 7)
			So(snap.ThisWeek.Billable, ShouldAlmostEqual, 4)
			So(snap.LastWeek.Total, ShouldAlmostEqual, 2)
			So(snap.LastWeek.Billable, ShouldAlmostEqual, 2)
		})

		Convey("Then billable hours should never exceed total hours", func() {
			for _, b := range []aggregate.Bucket{snap.Month, snap.ThisWeek, snap.LastWeek} {
				So(b.Billable, ShouldBeLessThanOrEqualTo, b.Total)
			}
		})

		Convey("Then internal projects should be absent everywhere", func() {
			for _, p := range snap.PerProject {
				So(p.Name, ShouldNotContainSubstring, "IWD")
			}
			for _, u := range snap.PerUser {
				So(u.Name, ShouldNotEqual, "Dan Igwe")
			}
		})

		Convey("Then only billable hours should reach the leaderboard", func() {
			So(len(snap.PerUser), ShouldEqual, 1)
			So(snap.PerUser[0].Name, ShouldEqual, "Ana Ruiz")
			So(snap.PerUser[0].Hours, ShouldAlmostEqual, 6)
		})

		Convey("Then project rows should carry resolved rates", func() {
			So(len(snap.PerProject), ShouldEqual, 2)
			So(snap.PerProject[0].Name, ShouldEqual, "Acme Store")
			So(snap.PerProject[0].Rate, ShouldEqual, 200)
			So(snap.PerProject[0].DefaultRate, ShouldBeFalse)
			So(snap.PerProject[1].Rate, ShouldEqual, 100)
			So(snap.PerProject[1].DefaultRate, ShouldBeTrue)
		})

		Convey("Then aggregating twice should yield identical output", func() {
			again := agg.Aggregate(entries, rates, now)
			So(again, ShouldResemble, snap)
		})
	})
}

func TestExclusionRules(t *testing.T) {
	Convey("Given the exclusion policies", t, func() {
		Convey("When a project name contains an internal fragment in any case", func() {
			agg := aggregate.New()
			entries := []model.TimeEntry{
				entry("Ana Ruiz", "Fun RUNNERS Club", "2026-08-11", 5, true),
				entry("Ana Ruiz", "the runners shop", "2026-08-11", 5, false),
			}
			snap := agg.Aggregate(entries, model.RateTable{}, now)

			Convey("Then it should be excluded regardless of billable flag", func() {
				So(snap.Month.Total, ShouldAlmostEqual, 0)
				So(snap.EntryCount, ShouldEqual, 0)
				So(snap.PerUser, ShouldBeEmpty)
			})
		})

		Convey("When a user is excluded from weekly totals", func() {
			agg := aggregate.New(aggregate.WithExcludedWeeklyUser("Isah Ramos"))
			entries := []model.TimeEntry{
				entry("Isah Ramos", "Acme Store", "2026-08-11", 4, true),
				entry("Ana Ruiz", "Acme Store", "2026-08-11", 2, true),
			}
			snap := agg.Aggregate(entries, model.RateTable{}, now)

			Convey("Then their hours should stay in the month but not the weeks", func() {
				So(snap.Month.Total, ShouldAlmostEqual, 6)
				So(snap.ThisWeek.Total, ShouldAlmostEqual, 2)
			})
		})

		Convey("When a contractor is on the leaderboard", func() {
			agg := aggregate.New(aggregate.WithContractors([]string{"Cara Vega"}))
			entries := []model.TimeEntry{
				entry("Ana Ruiz", "Acme Store", "2026-08-11", 6, true),
				entry("Cara Vega", "Beta Labs", "2026-08-11", 4, true),
			}
			snap := agg.Aggregate(entries, model.RateTable{}, now)

			Convey("Then share percentages should span eligible users only", func() {
				So(len(snap.PerUser), ShouldEqual, 2)
				So(snap.PerUser[0].SharePct, ShouldAlmostEqual, 100)
				So(snap.PerUser[1].SharePct, ShouldAlmostEqual, 0)
				So(len(aggregate.Eligible(snap.PerUser)), ShouldEqual, 1)
			})
		})
	})
}

func TestLeaderboardOrderingAndShares(t *testing.T) {
	Convey("Given several users with billable hours", t, func() {
		agg := aggregate.New()
		entries := []model.TimeEntry{
			entry("Ana Ruiz", "Acme Store", "2026-08-11", 10, true),
			entry("Ben Ortiz", "Acme Store", "2026-08-11", 30, true),
			entry("Cara Vega", "Acme Store", "2026-08-11", 10, true),
			entry("Dan Igwe", "Acme Store", "2026-08-11", 10, true),
		}
		snap := agg.Aggregate(entries, model.RateTable{}, now)

		Convey("Then sorting should be descending with stable ties", func() {
			So(snap.PerUser[0].Name, ShouldEqual, "Ben Ortiz")
			So(snap.PerUser[1].Name, ShouldEqual, "Ana Ruiz")
			So(snap.PerUser[2].Name, ShouldEqual, "Cara Vega")
			So(snap.PerUser[3].Name, ShouldEqual, "Dan Igwe")
		})

		Convey("Then share percentages should sum to roughly 100", func() {
			sum := 0.0
			for _, u := range snap.PerUser {
				sum += u.SharePct
			}
			So(sum, ShouldAlmostEqual, 100, 0.0001)
		})

		Convey("Then active members should count users with hours", func() {
			So(aggregate.ActiveMembers(snap.PerUser), ShouldEqual, 4)
		})
	})

	Convey("Given no eligible hours at all", t, func() {
		agg := aggregate.New(aggregate.WithContractors([]string{"Ana Ruiz"}))
		entries := []model.TimeEntry{
			entry("Ana Ruiz", "Acme Store", "2026-08-11", 5, true),
		}
		snap := agg.Aggregate(entries, model.RateTable{}, now)

		Convey("Then every share percentage should be zero", func() {
			for _, u := range snap.PerUser {
				So(u.SharePct, ShouldAlmostEqual, 0)
			}
		})
	})
}

func TestHoursDerivation(t *testing.T) {
	Convey("Given entries built from hour and minute parts", t, func() {
		agg := aggregate.New()
		// 1h30m and 2h45m as derived by model.Normalize.
		entries := []model.TimeEntry{
			entry("Ana Ruiz", "Acme Store", "2026-08-11", 1.5, true),
			entry("Ana Ruiz", "Acme Store", "2026-08-11", 2.75, false),
		}
		snap := agg.Aggregate(entries, model.RateTable{}, now)

		Convey("Then bucket totals should equal the sum of derived hours", func() {
			So(snap.ThisWeek.Total, ShouldAlmostEqual, 4.25)
			So(snap.ThisWeek.Billable, ShouldAlmostEqual, 1.5)
		})
	})
}
