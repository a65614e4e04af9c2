// Package timewindow computes UTC day, billing period and sliding window
// boundaries. All functions are pure; callers pass the "now" they computed
// once for the whole operation.
package timewindow

import (
	"time"

	"quotagate/internal/ratelimit/models"
)

// StartOfDay returns midnight UTC of t's UTC date.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// NextDay returns midnight UTC of the day after t's UTC date.
func NextDay(t time.Time) time.Time {
	return StartOfDay(t).AddDate(0, 0, 1)
}

// UntilNextDay returns the time left before the next UTC midnight.
func UntilNextDay(t time.Time) time.Duration {
	return NextDay(t).Sub(t)
}

// WindowCutoff returns the oldest instant still outside a sliding window
// ending at now. Events at or before the cutoff are expired.
func WindowCutoff(now time.Time, window time.Duration) time.Time {
	return now.Add(-window)
}

// UnixMillis returns t in milliseconds since the epoch.
func UnixMillis(t time.Time) int64 {
	return t.UnixMilli()
}

// Period is a half-open billing interval [Start, End).
type Period struct {
	Start time.Time
	End   time.Time
}

// StartDay is the day key of the period used by the monthly token counter.
func (p Period) StartDay() models.Day {
	return models.DayOf(p.Start)
}

// LastDay is the final UTC date inside the period.
func (p Period) LastDay() models.Day {
	return models.DayOf(p.End.Add(-time.Nanosecond))
}

// Contains reports whether t falls within the period.
func (p Period) Contains(t time.Time) bool {
	return !t.Before(p.Start) && t.Before(p.End)
}

// BillingPeriod returns the billing month containing now.
//
// With a zero anchor the period is the UTC calendar month. Otherwise the
// period starts on the anchor's day of month, clamped to the length of
// shorter months (an anchor on the 31st starts on Feb 28 or 29).
func BillingPeriod(now time.Time, anchor time.Time) Period {
	now = now.UTC()
	if anchor.IsZero() {
		start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
		return Period{Start: start, End: start.AddDate(0, 1, 0)}
	}

	anchorDay := anchor.UTC().Day()
	start := anchoredStart(now.Year(), now.Month(), anchorDay)
	if now.Before(start) {
		prev := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, -1, 0)
		start = anchoredStart(prev.Year(), prev.Month(), anchorDay)
	}
	next := time.Date(start.Year(), start.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, 1, 0)
	return Period{Start: start, End: anchoredStart(next.Year(), next.Month(), anchorDay)}
}

func anchoredStart(year int, month time.Month, day int) time.Time {
	if last := daysIn(year, month); day > last {
		day = last
	}
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
