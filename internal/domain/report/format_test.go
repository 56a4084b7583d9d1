package report_test

import (
	"strings"
	"testing"
	"time"

	"github.com/iwdjoe/iwd-bonus-tracker/internal/domain/aggregate"
	"github.com/iwdjoe/iwd-bonus-tracker/internal/domain/bonus"
	"github.com/iwdjoe/iwd-bonus-tracker/internal/domain/report"
	. "github.com/smartystreets/goconvey/convey"
)

func baseStats() bonus.Stats {
	return bonus.Stats{
		CurrentRevenue:     40000,
		ProjectedRevenue:   80000,
		CurrentWorkDay:     10,
		TotalWorkDays:      20,
		DaysRemaining:      10,
		TotalBillableHours: 45.26,
		GlobalRate:         155,
		ActiveMembers:      3,
		Date:               time.Date(2026, time.August, 12, 11, 0, 0, 0, time.UTC),
		Leaderboard: []aggregate.UserTotal{
			{Name: "Ana Ruiz", Hours: 20, SharePct: 44.4, Eligible: true},
			{Name: "Ben Ortiz", Hours: 15.26, SharePct: 33.9, Eligible: true},
			{Name: "Cara Vega", Hours: 10, SharePct: 21.7, Eligible: true},
		},
	}
}

func TestFormat(t *testing.T) {
	Convey("Given computed stats for a Wednesday", t, func() {
		stats := baseStats()

		Convey("When formatting a close-mode message", func() {
			details := bonus.ComputeDetails(bonus.ModeClose, stats)
			msg := report.Format(stats, bonus.ModeClose, details, "https://bonus.example.com")

			Convey("Then the header should carry weekday and date", func() {
				So(msg, ShouldContainSubstring, "*Team Bonus Update* — Wednesday, Aug 12")
			})

			Convey("Then the headline should show the exact gap", func() {
				So(msg, ShouldContainSubstring, "*$5,000 away from unlocking a $1,000 bonus pool*")
			})

			Convey("Then the core numbers should use exact formats", func() {
				So(msg, ShouldContainSubstring, "*Revenue:* $40,000 current → $80,000 projected")
				So(msg, ShouldContainSubstring, "*Day 10 of 20* — 10 days remaining")
				So(msg, ShouldContainSubstring, "*Billable Hours:* 45.3 hrs logged")
			})

			Convey("Then the top three should appear with medals and shares", func() {
				So(msg, ShouldContainSubstring, "\U0001F947 Ana Ruiz — 20.0 hrs (44.4%)")
				So(msg, ShouldContainSubstring, "\U0001F948 Ben Ortiz — 15.3 hrs (33.9%)")
				So(msg, ShouldContainSubstring, "\U0001F949 Cara Vega — 10.0 hrs (21.7%)")
			})

			Convey("Then the insight line should carry the effort math", func() {
				So(msg, ShouldContainSubstring, "hrs/person/day* over the next 10 days")
			})

			Convey("Then the dashboard link should close the message", func() {
				So(strings.HasSuffix(msg, "<https://bonus.example.com|View Live Dashboard>"), ShouldBeTrue)
			})
		})

		Convey("When formatting an on-track message between tiers", func() {
			stats.ProjectedRevenue = 120000
			details := bonus.ComputeDetails(bonus.ModeOnTrack, stats)
			msg := report.Format(stats, bonus.ModeOnTrack, details, "https://bonus.example.com")

			Convey("Then the headline should name the tier and pool", func() {
				So(msg, ShouldContainSubstring, "*We're on track for a $3,000 bonus pool!* (Tier 3)")
			})

			Convey("Then the insight should show the next-tier gap", func() {
				So(msg, ShouldContainSubstring, "Just $10,000 more in projected revenue to reach the next tier ($4,000 pool)")
			})
		})

		Convey("When formatting a top-tier message", func() {
			stats.ProjectedRevenue = 170000
			details := bonus.ComputeDetails(bonus.ModeOnTrack, stats)
			msg := report.Format(stats, bonus.ModeOnTrack, details, "https://bonus.example.com")

			Convey("Then no next-tier gap should be reported", func() {
				So(msg, ShouldContainSubstring, "Top Tier territory")
				So(msg, ShouldNotContainSubstring, "next tier")
			})
		})

		Convey("When formatting a behind-mode message", func() {
			msg := report.Format(stats, bonus.ModeBehind, bonus.Details{}, "https://bonus.example.com")

			Convey("Then it should carry only the generic encouragement", func() {
				So(msg, ShouldContainSubstring, "*Here's where we stand this month*")
				So(msg, ShouldContainSubstring, "every billable hour counts")
				So(msg, ShouldNotContainSubstring, "bonus pool!*")
			})
		})

		Convey("When the leaderboard is empty", func() {
			stats.Leaderboard = nil
			msg := report.Format(stats, bonus.ModeBehind, bonus.Details{}, "https://bonus.example.com")

			Convey("Then the contributors section should be omitted", func() {
				So(msg, ShouldNotContainSubstring, "Top Contributors")
			})
		})
	})
}
