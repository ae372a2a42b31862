package stats

import (
	"time"

	"github.com/2beens/trackfit/internal/workouts"
)

type MonthSummary struct {
	DaysLogged int `json:"daysLogged"`
	Workouts   int `json:"workouts"`
}

func loggedDays(entries []workouts.Entry) map[time.Time]struct{} {
	days := make(map[time.Time]struct{}, len(entries))
	for i := range entries {
		if d, ok := entries[i].Date(); ok {
			days[d] = struct{}{}
		}
	}
	return days
}

// CurrentStreak counts the consecutive logged days ending today.
// No entry today means no streak.
func CurrentStreak(entries []workouts.Entry, today time.Time) int {
	days := loggedDays(entries)
	streak := 0
	for day := today; ; day = day.AddDate(0, 0, -1) {
		if _, ok := days[day]; !ok {
			return streak
		}
		streak++
	}
}

// LongestStreak is the longest run of consecutive logged days, anywhere in the history.
func LongestStreak(entries []workouts.Entry) int {
	days := loggedDays(entries)
	longest := 0
	for day := range days {
		// only start counting at the first day of a run
		if _, ok := days[day.AddDate(0, 0, -1)]; ok {
			continue
		}
		run := 1
		for next := day.AddDate(0, 0, 1); ; next = next.AddDate(0, 0, 1) {
			if _, ok := days[next]; !ok {
				break
			}
			run++
		}
		longest = max(longest, run)
	}
	return longest
}

// CurrentMonthSummary counts the distinct days logged and the entries in today's calendar month.
func CurrentMonthSummary(entries []workouts.Entry, today time.Time) MonthSummary {
	var summary MonthSummary
	days := make(map[time.Time]struct{})
	for i := range entries {
		d, ok := entries[i].Date()
		if !ok || d.Year() != today.Year() || d.Month() != today.Month() {
			continue
		}
		summary.Workouts++
		days[d] = struct{}{}
	}
	summary.DaysLogged = len(days)
	return summary
}
