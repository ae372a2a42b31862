package stats

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/2beens/trackfit/internal/workouts"
)

var ErrInvalidWeekdayRange = errors.New("invalid weekday range")

// WeekdayRange selects the entries counted by the weekday histogram.
type WeekdayRange string

const (
	WeekdayRangeMonth      WeekdayRange = "month"
	WeekdayRangeThirtyDays WeekdayRange = "30days"
)

func ParseWeekdayRange(s string) (WeekdayRange, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "month", "thismonth":
		return WeekdayRangeMonth, nil
	case "30days", "30d":
		return WeekdayRangeThirtyDays, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidWeekdayRange, s)
	}
}

func (r WeekdayRange) contains(date, today time.Time) bool {
	switch r {
	case WeekdayRangeThirtyDays:
		return date.After(today.AddDate(0, 0, -30))
	default:
		monthStart := time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, time.UTC)
		return !date.Before(monthStart)
	}
}

type WeekdayCount struct {
	Day   string `json:"day"`
	Count int    `json:"count"`
}

var displayWeekdays = []time.Weekday{
	time.Monday, time.Tuesday, time.Wednesday, time.Thursday,
	time.Friday, time.Saturday, time.Sunday,
}

// WeekdayHistogram counts the entries of the range per weekday, ordered Monday to Sunday.
// All seven days are always present.
func WeekdayHistogram(entries []workouts.Entry, r WeekdayRange, today time.Time) []WeekdayCount {
	all, _ := dated(entries)
	var counts [7]int
	for _, de := range all {
		if r.contains(de.date, today) {
			counts[de.date.Weekday()]++
		}
	}

	histogram := make([]WeekdayCount, 0, len(displayWeekdays))
	for _, wd := range displayWeekdays {
		histogram = append(histogram, WeekdayCount{
			Day:   wd.String()[:3],
			Count: counts[wd],
		})
	}
	return histogram
}

// Share is one slice of a percentage breakdown.
type Share struct {
	Label   string `json:"label"`
	Count   int    `json:"count"`
	Percent int    `json:"percent"`
}

func percent(count, total int) int {
	return int(math.Round(float64(count) * 100 / float64(max(total, 1))))
}

const otherMuscleGroup = "Other"

// MuscleGroup is the focus key of a workout type: the text before the first "/".
func MuscleGroup(workoutType string) string {
	group, _, _ := strings.Cut(workoutType, "/")
	if group = strings.TrimSpace(group); group == "" {
		return otherMuscleGroup
	}
	return group
}

// MuscleGroupFocus returns the share of entries per muscle group within the period,
// largest first. Percentages are rounded independently and may not sum to 100.
func MuscleGroupFocus(entries []workouts.Entry, period Period, today time.Time) []Share {
	inRange := inPeriod(entries, period, today)
	counts := make(map[string]int)
	for _, de := range inRange {
		counts[MuscleGroup(de.entry.WorkoutType)]++
	}

	shares := make([]Share, 0, len(counts))
	for label, count := range counts {
		shares = append(shares, Share{
			Label:   label,
			Count:   count,
			Percent: percent(count, len(inRange)),
		})
	}
	sort.Slice(shares, func(i, j int) bool {
		if shares[i].Count != shares[j].Count {
			return shares[i].Count > shares[j].Count
		}
		return shares[i].Label < shares[j].Label
	})
	return shares
}

type WorkoutCategory string

const (
	CategoryStrength WorkoutCategory = "Strength"
	CategoryCardio   WorkoutCategory = "Cardio"
	CategoryHIIT     WorkoutCategory = "HIIT"
)

var workoutCategories = []WorkoutCategory{CategoryStrength, CategoryCardio, CategoryHIIT}

func Categorize(e workouts.Entry) WorkoutCategory {
	switch {
	case strings.Contains(strings.ToLower(e.WorkoutType), "hiit"):
		return CategoryHIIT
	case e.HasCardio():
		return CategoryCardio
	default:
		return CategoryStrength
	}
}

// WorkoutTypeBreakdown returns the Strength, Cardio and HIIT shares within the period,
// always in that order and always all three.
func WorkoutTypeBreakdown(entries []workouts.Entry, period Period, today time.Time) []Share {
	inRange := inPeriod(entries, period, today)
	counts := make(map[WorkoutCategory]int, len(workoutCategories))
	for _, de := range inRange {
		counts[Categorize(*de.entry)]++
	}

	shares := make([]Share, 0, len(workoutCategories))
	for _, c := range workoutCategories {
		shares = append(shares, Share{
			Label:   string(c),
			Count:   counts[c],
			Percent: percent(counts[c], len(inRange)),
		})
	}
	return shares
}

// CardioDays counts the distinct dates within the period with at least one cardio entry.
func CardioDays(entries []workouts.Entry, period Period, today time.Time) int {
	days := make(map[time.Time]struct{})
	for _, de := range inPeriod(entries, period, today) {
		if de.entry.HasCardio() {
			days[de.date] = struct{}{}
		}
	}
	return len(days)
}

// IsPersonalRecord reports whether the entry notes mention a PR.
// This is a plain case-insensitive substring match, so "approach" counts as well.
func IsPersonalRecord(e workouts.Entry) bool {
	return strings.Contains(strings.ToLower(e.Notes), "pr")
}

// PersonalRecords counts the entries within the period flagged as personal records.
func PersonalRecords(entries []workouts.Entry, period Period, today time.Time) int {
	var count int
	for _, de := range inPeriod(entries, period, today) {
		if IsPersonalRecord(*de.entry) {
			count++
		}
	}
	return count
}
