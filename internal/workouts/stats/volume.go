package stats

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/2beens/trackfit/internal/workouts"
)

var ErrInvalidGranularity = errors.New("invalid granularity")

// Granularity of the volume series buckets.
type Granularity string

const (
	GranularityDay   Granularity = "day"
	GranularityWeek  Granularity = "week"
	GranularityMonth Granularity = "month"
)

func ParseGranularity(s string) (Granularity, error) {
	switch g := Granularity(strings.ToLower(strings.TrimSpace(s))); g {
	case GranularityDay, GranularityWeek, GranularityMonth:
		return g, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidGranularity, s)
	}
}

// bucketStart returns the first day of the bucket the date belongs to.
// Weeks start on Monday.
func (g Granularity) bucketStart(date time.Time) time.Time {
	switch g {
	case GranularityWeek:
		offset := (int(date.Weekday()) + 6) % 7
		return date.AddDate(0, 0, -offset)
	case GranularityMonth:
		return time.Date(date.Year(), date.Month(), 1, 0, 0, 0, 0, time.UTC)
	default:
		return date
	}
}

type VolumePoint struct {
	Date   string  `json:"date"`
	Volume float64 `json:"volume"`
}

type PeriodVolume struct {
	Period Period  `json:"period"`
	Volume float64 `json:"volume"`
}

// EntryVolume is the sum of weight * reps over every set of every exercise.
func EntryVolume(e workouts.Entry) float64 {
	var volume float64
	for _, ex := range e.Exercises {
		for _, raw := range ex.Sets {
			volume += ParseSet(raw).Volume()
		}
	}
	return volume
}

// TotalVolume sums EntryVolume over all the given entries.
func TotalVolume(entries []workouts.Entry) float64 {
	var total float64
	for _, e := range entries {
		total += EntryVolume(e)
	}
	return total
}

// VolumeSeries rolls the entries of the period up into ascending date buckets.
// Only buckets with at least one entry are present.
func VolumeSeries(entries []workouts.Entry, period Period, granularity Granularity, today time.Time) []VolumePoint {
	series := make([]VolumePoint, 0)
	index := make(map[time.Time]int)
	// dated entries are sorted, so the buckets come out sorted as well
	for _, de := range inPeriod(entries, period, today) {
		bucket := granularity.bucketStart(de.date)
		i, ok := index[bucket]
		if !ok {
			i = len(series)
			index[bucket] = i
			series = append(series, VolumePoint{Date: bucket.Format(workouts.DateLayout)})
		}
		series[i].Volume += EntryVolume(*de.entry)
	}
	return series
}

// VolumeTotals returns the total volume for each named period.
func VolumeTotals(entries []workouts.Entry, today time.Time) []PeriodVolume {
	all, _ := dated(entries)
	totals := make([]PeriodVolume, len(Periods))
	for i, p := range Periods {
		totals[i].Period = p
	}
	for _, de := range all {
		volume := EntryVolume(*de.entry)
		for i, p := range Periods {
			if p.Contains(de.date, today) {
				totals[i].Volume += volume
			}
		}
	}
	return totals
}
