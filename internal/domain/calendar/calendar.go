// Package calendar owns the date-bucketing rules shared by the aggregation
// engine and the bonus model: week and month windows, working-day counts,
// and the working-day completion policy.
package calendar

import "time"

// Minimum fetch window in calendar days. Wide enough to cover month-to-date,
// this week, and last week simultaneously, with slack for the source's own
// timezone skew around month and week boundaries.
const MinFetchDays = 45

// DefaultCutoffHour is the local hour after which today counts as a
// completed working day.
const DefaultCutoffHour = 17

// Clock supplies the current time. Injected so tests control "now".
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock in a fixed location.
type SystemClock struct {
	Loc *time.Location
}

// Now returns the current time in the clock's location.
func (c SystemClock) Now() time.Time {
	loc := c.Loc
	if loc == nil {
		loc = time.Local
	}
	return time.Now().In(loc)
}

// FixedClock always returns the same instant. For tests.
type FixedClock struct {
	T time.Time
}

// Now returns the fixed instant.
func (c FixedClock) Now() time.Time { return c.T }

// Window is an inclusive-start, exclusive-end time range.
type Window struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether t falls inside the window.
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && t.Before(w.End)
}

// MonthToDate spans the first of the current month through now.
func MonthToDate(now time.Time) Window {
	start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	return Window{Start: start, End: now.Add(time.Nanosecond)}
}

// ThisWeek spans the most recent Monday at midnight through now.
func ThisWeek(now time.Time) Window {
	return Window{Start: mondayOf(now), End: now.Add(time.Nanosecond)}
}

// LastWeek spans the seven days before the most recent Monday: previous
// Monday at midnight through previous Sunday end of day.
func LastWeek(now time.Time) Window {
	monday := mondayOf(now)
	return Window{Start: monday.AddDate(0, 0, -7), End: monday}
}

// mondayOf returns the most recent Monday at local midnight, which is the
// day itself when now is a Monday.
func mondayOf(now time.Time) time.Time {
	day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	offset := int(day.Weekday()) - int(time.Monday)
	if offset < 0 {
		offset += 7 // Sunday
	}
	return day.AddDate(0, 0, -offset)
}

// WorkDays counts Monday-Friday days between start and end, inclusive.
// Weekends are excluded entirely; there is no holiday calendar.
func WorkDays(start, end time.Time) int {
	start = time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, start.Location())
	end = time.Date(end.Year(), end.Month(), end.Day(), 0, 0, 0, 0, end.Location())
	count := 0
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		wd := d.Weekday()
		if wd != time.Saturday && wd != time.Sunday {
			count++
		}
	}
	return count
}

// TotalWorkDaysInMonth counts working days across the whole current month.
func TotalWorkDaysInMonth(now time.Time) int {
	start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	end := start.AddDate(0, 1, -1)
	return WorkDays(start, end)
}

// CurrentWorkDay counts completed working days from month start through
// today. Today only counts once the local time reaches cutoffHour; the
// result is floored at 1 so pace projections never divide by zero.
func CurrentWorkDay(now time.Time, cutoffHour int) int {
	count := WorkDays(time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location()), now)
	if now.Hour() < cutoffHour {
		count--
	}
	if count < 1 {
		count = 1
	}
	return count
}

// FetchWindow returns the entry-fetch date range: at least minDays calendar
// days back (floored at MinFetchDays) and one day forward to absorb the
// source's timezone skew.
func FetchWindow(now time.Time, minDays int) (time.Time, time.Time) {
	if minDays < MinFetchDays {
		minDays = MinFetchDays
	}
	return now.AddDate(0, 0, -minDays), now.AddDate(0, 0, 1)
}

// CompactDate renders a date in the source's compact YYYYMMDD query format.
func CompactDate(t time.Time) string {
	return t.Format("20060102")
}
