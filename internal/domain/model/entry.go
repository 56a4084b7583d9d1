// Package model contains domain models passed between layers.
package model

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

// Reserved keys in the rate table. Everything else maps a project to a rate.
const (
	GlobalRateKey = "__GLOBAL_RATE__"
	WeeklyGoalKey = "__WEEKLY_GOAL__"
)

// RawEntry mirrors one record from the time-entry source. Field presence is
// not guaranteed; hour and minute values arrive as strings or numbers
// depending on the source's mood, hence json.Number via flexNumber.
type RawEntry struct {
	FirstName   string     `json:"person-first-name"`
	LastName    string     `json:"person-last-name"`
	ProjectName string     `json:"project-name"`
	Date        string     `json:"date"`
	Hours       flexNumber `json:"hours"`
	Minutes     flexNumber `json:"minutes"`
	IsBillable  string     `json:"isbillable"`
}

// flexNumber decodes JSON numbers or numeric strings, defaulting to zero on
// anything malformed. A bad record must never abort the whole report.
type flexNumber float64

func (f *flexNumber) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		*f = 0
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		*f = 0
		return nil
	}
	*f = flexNumber(v)
	return nil
}

// TimeEntry is one normalized, immutable time record.
type TimeEntry struct {
	User      string
	Project   string
	ProjectID string
	Date      time.Time
	Hours     float64
	Billable  bool
}

// Normalize converts a raw source record into a TimeEntry. The second return
// is false when the record is unusable (no date) and must be skipped.
func Normalize(raw RawEntry, loc *time.Location) (TimeEntry, bool) {
	if strings.TrimSpace(raw.Date) == "" {
		return TimeEntry{}, false
	}
	date, err := time.ParseInLocation("2006-01-02", raw.Date, loc)
	if err != nil {
		return TimeEntry{}, false
	}

	hours := float64(raw.Hours) + float64(raw.Minutes)/60
	if hours < 0 {
		hours = 0
	}

	project := raw.ProjectName
	if strings.TrimSpace(project) == "" {
		project = "Unknown Project"
	}

	return TimeEntry{
		User:      strings.TrimSpace(raw.FirstName + " " + raw.LastName),
		Project:   project,
		ProjectID: ProjectID(project),
		Date:      date,
		Hours:     hours,
		Billable:  raw.IsBillable == "1",
	}, true
}

// ProjectID strips a project name to its alphanumeric characters, lowercased.
// This matches the key convention used in the externally stored rate table.
func ProjectID(name string) string {
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r >= 'A' && r <= 'Z':
			b.WriteRune(r + ('a' - 'A'))
		}
	}
	return b.String()
}

// RateTable maps project identifiers (or raw project names) to hourly rates.
// The reserved keys carry the global default rate and the weekly hours goal.
type RateTable map[string]int

// Resolve returns the billing rate for a project, preferring the stripped
// project-id key, then the raw name, then the global default.
func (t RateTable) Resolve(projectID, projectName string, defaultRate int) int {
	if t != nil {
		if r, ok := t[projectID]; ok && r > 0 {
			return r
		}
		if r, ok := t[projectName]; ok && r > 0 {
			return r
		}
	}
	return t.GlobalRate(defaultRate)
}

// GlobalRate returns the stored global rate, or fallback when absent.
func (t RateTable) GlobalRate(fallback int) int {
	if t != nil {
		if r, ok := t[GlobalRateKey]; ok && r > 0 {
			return r
		}
	}
	return fallback
}

// WeeklyGoal returns the stored weekly hours goal, or 0 when absent.
func (t RateTable) WeeklyGoal() int {
	if t == nil {
		return 0
	}
	return t[WeeklyGoalKey]
}

// Clone returns a shallow copy so read-modify-write updates never mutate a
// table shared with concurrent readers.
func (t RateTable) Clone() RateTable {
	out := make(RateTable, len(t))
	for k, v := range t {
		out[k] = v
	}
	return out
}

// MarshalJSON keeps the wire shape a flat string-to-int object.
func (t RateTable) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]int(t))
}
