package stats

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/2beens/trackfit/internal/workouts"
)

var ErrInvalidPeriod = errors.New("invalid period")

// Period is a named, relative time window ending today.
type Period string

const (
	Period7D  Period = "7d"
	Period30D Period = "30d"
	Period90D Period = "90d"
	PeriodYTD Period = "ytd"
	PeriodAll Period = "all"
)

// Periods lists all the named periods, shortest first.
var Periods = []Period{Period7D, Period30D, Period90D, PeriodYTD, PeriodAll}

func (p Period) String() string {
	return string(p)
}

// ParsePeriod accepts both the chart vocabulary (7d, 30d, 90d, ytd, all)
// and the summary one (weekly, monthly, quarter, all), case-insensitive.
func ParsePeriod(s string) (Period, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "7d", "weekly", "week":
		return Period7D, nil
	case "30d", "monthly", "month":
		return Period30D, nil
	case "90d", "quarter", "quarterly":
		return Period90D, nil
	case "ytd":
		return PeriodYTD, nil
	case "all":
		return PeriodAll, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidPeriod, s)
	}
}

// Cutoff returns the first calendar date included in the period.
// PeriodAll (and any unknown period) has no cutoff.
func (p Period) Cutoff(today time.Time) (time.Time, bool) {
	switch p {
	case Period7D:
		return today.AddDate(0, 0, -7), true
	case Period30D:
		return today.AddDate(0, 0, -30), true
	case Period90D:
		return today.AddDate(0, 0, -90), true
	case PeriodYTD:
		return time.Date(today.Year(), time.January, 1, 0, 0, 0, 0, time.UTC), true
	default:
		return time.Time{}, false
	}
}

// Contains reports whether date is on or after the period cutoff.
func (p Period) Contains(date, today time.Time) bool {
	cutoff, ok := p.Cutoff(today)
	return !ok || !date.Before(cutoff)
}

// FilterByPeriod keeps the entries whose date falls within the period.
// Entries with unparsable dates are always dropped.
func FilterByPeriod(entries []workouts.Entry, period Period, today time.Time) []workouts.Entry {
	filtered := make([]workouts.Entry, 0, len(entries))
	for _, de := range inPeriod(entries, period, today) {
		filtered = append(filtered, *de.entry)
	}
	return filtered
}

// Today returns the calendar date of now in loc, as used by all the aggregations.
func Today(now time.Time, loc *time.Location) time.Time {
	return workouts.CalendarDate(now, loc)
}

type datedEntry struct {
	entry *workouts.Entry
	date  time.Time
}

// dated resolves the entry dates, drops the unparsable ones and sorts the rest
// chronologically. Entries sharing a date are ordered by creation time; the ones
// without a creation time come first and keep their input order.
func dated(entries []workouts.Entry) (_ []datedEntry, skipped int) {
	out := make([]datedEntry, 0, len(entries))
	for i := range entries {
		d, ok := entries[i].Date()
		if !ok {
			skipped++
			continue
		}
		out = append(out, datedEntry{entry: &entries[i], date: d})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].date.Equal(out[j].date) {
			return out[i].date.Before(out[j].date)
		}
		ci, cj := out[i].entry.CreatedAt, out[j].entry.CreatedAt
		if ci.IsZero() || cj.IsZero() {
			// unstamped entries go first, among themselves in input order
			return ci.IsZero() && !cj.IsZero()
		}
		return ci.Before(cj)
	})
	return out, skipped
}

func inPeriod(entries []workouts.Entry, period Period, today time.Time) []datedEntry {
	all, _ := dated(entries)
	filtered := all[:0]
	for _, de := range all {
		if period.Contains(de.date, today) {
			filtered = append(filtered, de)
		}
	}
	return filtered
}
