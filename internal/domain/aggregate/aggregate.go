// Package aggregate reduces normalized time entries into the month and week
// buckets, per-user leaderboard, and per-project totals that feed the bonus
// model and the dashboard.
package aggregate

import (
	"sort"
	"strings"

	"github.com/iwdjoe/iwd-bonus-tracker/internal/domain/calendar"
	"github.com/iwdjoe/iwd-bonus-tracker/internal/domain/model"
)

// Bucket accumulates hours and revenue for one time window.
type Bucket struct {
	Total    float64 `json:"total"`
	Billable float64 `json:"billable"`
	Revenue  float64 `json:"revenue"`
}

// UserTotal is one leaderboard row: billable hours grouped by exact name.
type UserTotal struct {
	Name     string  `json:"name"`
	Hours    float64 `json:"hours"`
	SharePct float64 `json:"sharePct"`
	Eligible bool    `json:"-"`
}

// ProjectTotal is one dashboard project row with its resolved rate.
type ProjectTotal struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Hours       float64 `json:"hours"`
	Rate        int     `json:"rate"`
	DefaultRate bool    `json:"defaultRate"`
}

// Snapshot is the full aggregation result for one report run.
type Snapshot struct {
	Month      Bucket         `json:"month"`
	ThisWeek   Bucket         `json:"thisWeek"`
	LastWeek   Bucket         `json:"lastWeek"`
	PerUser    []UserTotal    `json:"perUser"`
	PerProject []ProjectTotal `json:"perProject"`

	// EntryCount is how many entries contributed after exclusions.
	EntryCount int `json:"entryCount"`
}

// Aggregate folds entries into a Snapshot. Pure: same inputs, same output.
//
// Internal projects are excluded from every bucket and from the leaderboard;
// the historical iterations disagreed on whether last week should keep them,
// and the strictest rule is the one applied here. A configured excluded user
// is dropped from the weekly buckets only, matching the dashboard the team
// already reads.
func (a *Aggregator) Aggregate(entries []model.TimeEntry, rates model.RateTable, now calendar.Clock) Snapshot {
	at := now.Now()
	month := calendar.MonthToDate(at)
	thisWeek := calendar.ThisWeek(at)
	lastWeek := calendar.LastWeek(at)
	defaultRate := rates.GlobalRate(a.defaultRate)

	snap := Snapshot{}
	userHours := map[string]float64{}
	userOrder := []string{}
	projHours := map[string]float64{}
	projOrder := []string{}

	for _, e := range entries {
		if a.isInternal(e.Project) {
			continue
		}

		inMonth := month.Contains(e.Date)
		inThisWeek := thisWeek.Contains(e.Date)
		inLastWeek := lastWeek.Contains(e.Date)
		if !inMonth && !inThisWeek && !inLastWeek {
			continue
		}
		snap.EntryCount++

		rate := rates.Resolve(e.ProjectID, e.Project, defaultRate)

		if inMonth {
			accumulate(&snap.Month, e, rate)
			if _, seen := projHours[e.Project]; !seen {
				projOrder = append(projOrder, e.Project)
			}
			projHours[e.Project] += e.Hours
			if e.Billable && e.User != "" {
				if _, seen := userHours[e.User]; !seen {
					userOrder = append(userOrder, e.User)
				}
				userHours[e.User] += e.Hours
			}
		}

		weeklyExcluded := a.excludedWeeklyUser != "" && strings.EqualFold(e.User, a.excludedWeeklyUser)
		if inThisWeek && !weeklyExcluded {
			accumulate(&snap.ThisWeek, e, rate)
		}
		if inLastWeek && !weeklyExcluded {
			accumulate(&snap.LastWeek, e, rate)
		}
	}

	snap.PerUser = a.leaderboard(userHours, userOrder)
	snap.PerProject = perProject(projHours, projOrder, rates, defaultRate)
	return snap
}

func accumulate(b *Bucket, e model.TimeEntry, rate int) {
	b.Total += e.Hours
	if e.Billable {
		b.Billable += e.Hours
		b.Revenue += e.Hours * float64(rate)
	}
}

// leaderboard sorts users by hours descending with a stable tie-break on
// encounter order, then fills share percentages across eligible users.
func (a *Aggregator) leaderboard(hours map[string]float64, order []string) []UserTotal {
	out := make([]UserTotal, 0, len(order))
	eligibleTotal := 0.0
	for _, name := range order {
		eligible := !a.contractors[strings.ToLower(name)]
		if eligible {
			eligibleTotal += hours[name]
		}
		out = append(out, UserTotal{Name: name, Hours: hours[name], Eligible: eligible})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Hours > out[j].Hours })
	for i := range out {
		if out[i].Eligible && eligibleTotal > 0 {
			out[i].SharePct = out[i].Hours / eligibleTotal * 100
		}
	}
	return out
}

func perProject(hours map[string]float64, order []string, rates model.RateTable, defaultRate int) []ProjectTotal {
	out := make([]ProjectTotal, 0, len(order))
	for _, name := range order {
		id := model.ProjectID(name)
		rate := rates.Resolve(id, name, defaultRate)
		out = append(out, ProjectTotal{
			ID:          id,
			Name:        name,
			Hours:       hours[name],
			Rate:        rate,
			DefaultRate: rate == defaultRate,
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Hours > out[j].Hours })
	return out
}

// isInternal reports whether a project name matches the internal denylist
// by case-insensitive substring.
func (a *Aggregator) isInternal(project string) bool {
	p := strings.ToLower(project)
	for _, frag := range a.internalFragments {
		if strings.Contains(p, frag) {
			return true
		}
	}
	return false
}

// Eligible returns the leaderboard filtered down to bonus-eligible users.
func Eligible(users []UserTotal) []UserTotal {
	out := make([]UserTotal, 0, len(users))
	for _, u := range users {
		if u.Eligible {
			out = append(out, u)
		}
	}
	return out
}

// ActiveMembers counts users with any billable hours logged.
func ActiveMembers(users []UserTotal) int {
	n := 0
	for _, u := range users {
		if u.Hours > 0 {
			n++
		}
	}
	return n
}
