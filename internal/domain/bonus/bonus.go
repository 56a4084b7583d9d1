// Package bonus maps projected monthly revenue onto the bonus tier table
// and the green/yellow/red report mode.
package bonus

import (
	"fmt"
	"strings"
	"time"

	"github.com/iwdjoe/iwd-bonus-tracker/internal/domain/aggregate"
	"github.com/iwdjoe/iwd-bonus-tracker/internal/domain/calendar"
)

// Mode classifies a report run.
type Mode string

// Report modes, in descending order of cheer.
const (
	ModeOnTrack Mode = "green"
	ModeClose   Mode = "yellow"
	ModeBehind  Mode = "red"
	ModeAuto    Mode = "auto"
)

// Classification thresholds. Fixed business constants, not configuration.
const (
	OnTrackThreshold = 85000
	CloseThreshold   = OnTrackThreshold * 0.8 // 68000
)

// Tier is one row of the bonus pool table.
type Tier struct {
	Threshold float64
	Pool      int
	Label     string
}

// Tiers is the bonus pool table, descending by threshold.
var Tiers = []Tier{
	{Threshold: 160000, Pool: 6000, Label: "Top Tier"},
	{Threshold: 145000, Pool: 5000, Label: "Tier 5"},
	{Threshold: 130000, Pool: 4000, Label: "Tier 4"},
	{Threshold: 115000, Pool: 3000, Label: "Tier 3"},
	{Threshold: 100000, Pool: 2000, Label: "Tier 2"},
	{Threshold: 85000, Pool: 1000, Label: "Tier 1"},
}

// BaselineLabel names the no-tier state below the lowest threshold.
const BaselineLabel = "Baseline"

// Stats carries everything the formatter and mode details need, computed
// once per report run.
type Stats struct {
	CurrentRevenue     float64
	ProjectedRevenue   float64
	CurrentWorkDay     int
	TotalWorkDays      int
	DaysRemaining      int
	TotalBillableHours float64
	GlobalRate         int
	Leaderboard        []aggregate.UserTotal
	ActiveMembers      int
	Date               time.Time
}

// ComputeStats derives the monthly pace stats from an aggregation snapshot.
func ComputeStats(snap aggregate.Snapshot, globalRate int, now time.Time, cutoffHour int) Stats {
	totalWorkDays := calendar.TotalWorkDaysInMonth(now)
	currentWorkDay := calendar.CurrentWorkDay(now, cutoffHour)
	daysRemaining := totalWorkDays - currentWorkDay
	if daysRemaining < 0 {
		daysRemaining = 0
	}

	return Stats{
		CurrentRevenue:     snap.Month.Revenue,
		ProjectedRevenue:   Project(snap.Month.Revenue, currentWorkDay, totalWorkDays),
		CurrentWorkDay:     currentWorkDay,
		TotalWorkDays:      totalWorkDays,
		DaysRemaining:      daysRemaining,
		TotalBillableHours: snap.Month.Billable,
		GlobalRate:         globalRate,
		Leaderboard:        aggregate.Eligible(snap.PerUser),
		ActiveMembers:      aggregate.ActiveMembers(snap.PerUser),
		Date:               now,
	}
}

// Project extrapolates month-to-date revenue across the full month's
// working days. Zero when no working day has completed.
func Project(monthRevenue float64, currentWorkDay, totalWorkDays int) float64 {
	if currentWorkDay <= 0 {
		return 0
	}
	return monthRevenue / float64(currentWorkDay) * float64(totalWorkDays)
}

// Classify maps projected revenue to a mode.
func Classify(projectedRevenue float64) Mode {
	switch {
	case projectedRevenue >= OnTrackThreshold:
		return ModeOnTrack
	case projectedRevenue >= CloseThreshold:
		return ModeClose
	default:
		return ModeBehind
	}
}

// ParseMode validates a caller-supplied mode string. "auto" and "" request
// threshold classification; anything else must be a concrete mode.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case ModeAuto, Mode(""):
		return ModeAuto, nil
	case ModeOnTrack:
		return ModeOnTrack, nil
	case ModeClose:
		return ModeClose, nil
	case ModeBehind:
		return ModeBehind, nil
	default:
		return "", fmt.Errorf("invalid mode %q: want green, yellow, red, or auto", s)
	}
}

// PoolFor returns the bonus pool for a revenue, 0 below the lowest tier.
func PoolFor(revenue float64) int {
	for _, t := range Tiers {
		if revenue >= t.Threshold {
			return t.Pool
		}
	}
	return 0
}

// LabelFor returns the tier label for a revenue, BaselineLabel below the
// lowest tier.
func LabelFor(revenue float64) string {
	for _, t := range Tiers {
		if revenue >= t.Threshold {
			return t.Label
		}
	}
	return BaselineLabel
}

// nextTier returns the lowest tier strictly above revenue, if any.
func nextTier(revenue float64) (Tier, bool) {
	for i := len(Tiers) - 1; i >= 0; i-- {
		if Tiers[i].Threshold > revenue {
			return Tiers[i], true
		}
	}
	return Tier{}, false
}

// Details carries the mode-specific message fields. Only the fields for the
// resolved mode are populated.
type Details struct {
	// On-track fields.
	Pool         int
	TierLabel    string
	IsTopTier    bool
	NextTierPool int
	GapToNext    float64

	// Close fields.
	GapToBonus        float64
	AdditionalHours   float64
	HoursPerPersonDay float64
}

// ComputeDetails resolves the mode-specific numbers from real stats. The
// mode may have been forced by the caller; the stats are always genuine.
func ComputeDetails(mode Mode, stats Stats) Details {
	switch mode {
	case ModeOnTrack:
		d := Details{
			Pool:      PoolFor(stats.ProjectedRevenue),
			TierLabel: LabelFor(stats.ProjectedRevenue),
			IsTopTier: stats.ProjectedRevenue >= Tiers[0].Threshold,
		}
		if next, ok := nextTier(stats.ProjectedRevenue); ok {
			d.NextTierPool = next.Pool
			d.GapToNext = next.Threshold - stats.ProjectedRevenue
		}
		return d

	case ModeClose:
		d := Details{GapToBonus: OnTrackThreshold - stats.ProjectedRevenue}
		if stats.GlobalRate > 0 {
			d.AdditionalHours = d.GapToBonus / float64(stats.GlobalRate)
		}
		if stats.ActiveMembers > 0 && stats.DaysRemaining > 0 {
			d.HoursPerPersonDay = d.AdditionalHours / float64(stats.ActiveMembers) / float64(stats.DaysRemaining)
		}
		return d

	default:
		// Behind mode carries no numbers, only encouragement.
		return Details{}
	}
}
