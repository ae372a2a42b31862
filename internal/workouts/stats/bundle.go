package stats

import (
	"time"

	"github.com/2beens/trackfit/internal/workouts"
)

// Options for ComputeStatistics. Zero values fall back to the defaults:
// all time, kg, current month weekdays, daily volume buckets, time.Now in UTC.
type Options struct {
	Period       Period
	Unit         Unit
	SourceUnit   Unit
	WeekdayRange WeekdayRange
	Granularity  Granularity
	Now          time.Time
	Location     *time.Location
}

func (o Options) withDefaults() Options {
	if o.Period == "" {
		o.Period = PeriodAll
	}
	if o.Unit == "" {
		o.Unit = UnitKg
	}
	if o.SourceUnit == "" {
		o.SourceUnit = UnitKg
	}
	if o.WeekdayRange == "" {
		o.WeekdayRange = WeekdayRangeMonth
	}
	if o.Granularity == "" {
		o.Granularity = GranularityDay
	}
	if o.Now.IsZero() {
		o.Now = time.Now()
	}
	if o.Location == nil {
		o.Location = time.UTC
	}
	return o
}

// Bundle holds every derived view over a user's entries.
type Bundle struct {
	Period         Period `json:"period"`
	Unit           Unit   `json:"unit"`
	Today          string `json:"today"`
	EntryCount     int    `json:"entryCount"`
	SkippedEntries int    `json:"skippedEntries"`

	TotalVolume  float64        `json:"totalVolume"`
	VolumeTotals []PeriodVolume `json:"volumeTotals"`
	Granularity  Granularity    `json:"granularity"`
	VolumeSeries []VolumePoint  `json:"volumeSeries"`

	WeightTrend WeightTrend `json:"weightTrend"`

	WeekdayRange     WeekdayRange   `json:"weekdayRange"`
	WeekdayHistogram []WeekdayCount `json:"weekdayHistogram"`
	MuscleGroupFocus []Share        `json:"muscleGroupFocus"`
	WorkoutTypes     []Share        `json:"workoutTypes"`
	CardioDays       int            `json:"cardioDays"`
	PersonalRecords  int            `json:"personalRecords"`

	CurrentStreak int          `json:"currentStreak"`
	LongestStreak int          `json:"longestStreak"`
	ThisMonth     MonthSummary `json:"thisMonth"`
}

// ComputeStatistics derives the full statistics bundle from the entries.
// The entries are never modified.
func ComputeStatistics(entries []workouts.Entry, opts Options) *Bundle {
	opts = opts.withDefaults()
	today := Today(opts.Now, opts.Location)

	_, skipped := dated(entries)
	inRange := FilterByPeriod(entries, opts.Period, today)

	return &Bundle{
		Period:         opts.Period,
		Unit:           opts.Unit,
		Today:          today.Format(workouts.DateLayout),
		EntryCount:     len(inRange),
		SkippedEntries: skipped,

		TotalVolume:  TotalVolume(inRange),
		VolumeTotals: VolumeTotals(entries, today),
		Granularity:  opts.Granularity,
		VolumeSeries: VolumeSeries(entries, opts.Period, opts.Granularity, today),

		WeightTrend: BuildWeightTrend(entries, opts.Period, today, opts.SourceUnit, opts.Unit),

		WeekdayRange:     opts.WeekdayRange,
		WeekdayHistogram: WeekdayHistogram(entries, opts.WeekdayRange, today),
		MuscleGroupFocus: MuscleGroupFocus(entries, opts.Period, today),
		WorkoutTypes:     WorkoutTypeBreakdown(entries, opts.Period, today),
		CardioDays:       CardioDays(entries, opts.Period, today),
		PersonalRecords:  PersonalRecords(entries, opts.Period, today),

		CurrentStreak: CurrentStreak(entries, today),
		LongestStreak: LongestStreak(entries),
		ThisMonth:     CurrentMonthSummary(entries, today),
	}
}
