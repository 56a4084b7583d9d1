// Package report composes the Slack-flavored team update message from the
// computed stats and mode details.
package report

import (
	"fmt"
	"math"
	"strings"

	"github.com/iwdjoe/iwd-bonus-tracker/internal/domain/bonus"
)

// Top contributors shown in the message.
const leaderboardSize = 3

var medals = []string{"\U0001F947", "\U0001F948", "\U0001F949"} // gold, silver, bronze

// Currency rounds to the nearest whole unit with comma thousands
// separators and a dollar prefix: 72345.6 -> "$72,346".
func Currency(v float64) string {
	n := int64(math.Round(v))
	sign := ""
	if n < 0 {
		sign = "-"
		n = -n
	}
	s := fmt.Sprintf("%d", n)
	var parts []string
	for len(s) > 3 {
		parts = append([]string{s[len(s)-3:]}, parts...)
		s = s[:len(s)-3]
	}
	parts = append([]string{s}, parts...)
	return sign + "$" + strings.Join(parts, ",")
}

// Hours renders hours to one decimal place: 45.26 -> "45.3".
func Hours(v float64) string {
	return fmt.Sprintf("%.1f", v)
}

// Percent renders a percentage to one decimal place.
func Percent(v float64) string {
	return fmt.Sprintf("%.1f", v)
}

// Format builds the full team update message for a resolved mode.
//
// Layout: header with weekday and date, mode headline, core numbers,
// top-3 leaderboard, mode insight, dashboard link. mrkdwn syntax for Slack.
func Format(stats bonus.Stats, mode bonus.Mode, details bonus.Details, dashboardURL string) string {
	var lines []string

	lines = append(lines,
		fmt.Sprintf("\U0001F680 *Team Bonus Update* — %s, %s %d",
			stats.Date.Weekday(), stats.Date.Format("Jan"), stats.Date.Day()),
		"")

	switch mode {
	case bonus.ModeOnTrack:
		lines = append(lines, fmt.Sprintf("\U0001F4B0 *We're on track for a %s bonus pool!* (%s)",
			Currency(float64(details.Pool)), details.TierLabel))
	case bonus.ModeClose:
		lines = append(lines, fmt.Sprintf("⚡ *%s away from unlocking a $1,000 bonus pool*",
			Currency(details.GapToBonus)))
	default:
		lines = append(lines, "\U0001F4CA *Here's where we stand this month*")
	}
	lines = append(lines, "")

	lines = append(lines,
		fmt.Sprintf("\U0001F4CA *Revenue:* %s current → %s projected",
			Currency(stats.CurrentRevenue), Currency(stats.ProjectedRevenue)),
		fmt.Sprintf("⏳ *Day %d of %d* — %d days remaining",
			stats.CurrentWorkDay, stats.TotalWorkDays, stats.DaysRemaining),
		fmt.Sprintf("\U0001F550 *Billable Hours:* %s hrs logged", Hours(stats.TotalBillableHours)),
		"")

	if top := min(len(stats.Leaderboard), leaderboardSize); top > 0 {
		lines = append(lines, "\U0001F3C6 *Top Contributors:*")
		for i := 0; i < top; i++ {
			u := stats.Leaderboard[i]
			lines = append(lines, fmt.Sprintf("%s %s — %s hrs (%s%%)",
				medals[i], u.Name, Hours(u.Hours), Percent(u.SharePct)))
		}
		lines = append(lines, "")
	}

	switch mode {
	case bonus.ModeOnTrack:
		if details.IsTopTier {
			lines = append(lines, "\U0001F525 We're in Top Tier territory — keep this pace and we max out!")
		} else {
			lines = append(lines, fmt.Sprintf("\U0001F4C8 Just %s more in projected revenue to reach the next tier (%s pool)",
				Currency(details.GapToNext), Currency(float64(details.NextTierPool))))
		}
	case bonus.ModeClose:
		lines = append(lines, fmt.Sprintf("\U0001F4A1 That's ~%d extra billable hours, or *%s hrs/person/day* over the next %d days",
			int64(math.Round(details.AdditionalHours)), Hours(details.HoursPerPersonDay), stats.DaysRemaining))
	default:
		lines = append(lines, "\U0001F4AA Let's keep building momentum — every billable hour counts")
	}
	lines = append(lines, "")

	lines = append(lines, fmt.Sprintf("\U0001F449 <%s|View Live Dashboard>", dashboardURL))

	return strings.Join(lines, "\n")
}
