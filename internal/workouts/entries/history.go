package entries

import (
	"sort"
	"strings"
	"time"

	"github.com/2beens/trackfit/internal/workouts"
	"github.com/2beens/trackfit/internal/workouts/stats"
)

const AllWorkoutTypes = "All"

type HistoryEntry struct {
	workouts.Entry
	Volume float64 `json:"volume"`
}

// HistoryDay groups the entries logged on one date.
type HistoryDay struct {
	Date    string         `json:"date"`
	Volume  float64        `json:"volume"`
	Entries []HistoryEntry `json:"entries"`
}

type HistoryParams struct {
	// WorkoutType filters by exact workout type; empty or "All" keeps everything.
	WorkoutType string
	// Days keeps the entries dated after today - Days; 0 keeps everything.
	Days  int
	Today time.Time
}

// BuildHistory filters the entries and groups them by date, newest date first.
// Within a date, entries keep their input order. Entries with unparsable dates are left out.
func BuildHistory(entries []workouts.Entry, params HistoryParams) []HistoryDay {
	workoutType := strings.TrimSpace(params.WorkoutType)
	filterType := workoutType != "" && workoutType != AllWorkoutTypes
	var cutoff time.Time
	if params.Days > 0 {
		cutoff = params.Today.AddDate(0, 0, -params.Days)
	}

	index := make(map[time.Time]int)
	days := make([]HistoryDay, 0)
	for _, e := range entries {
		date, ok := e.Date()
		if !ok {
			continue
		}
		if filterType && e.WorkoutType != workoutType {
			continue
		}
		if params.Days > 0 && !date.After(cutoff) {
			continue
		}

		i, ok := index[date]
		if !ok {
			i = len(days)
			index[date] = i
			days = append(days, HistoryDay{Date: date.Format(workouts.DateLayout)})
		}
		volume := stats.EntryVolume(e)
		days[i].Volume += volume
		days[i].Entries = append(days[i].Entries, HistoryEntry{Entry: e, Volume: volume})
	}

	// ISO dates sort chronologically as strings
	sort.Slice(days, func(i, j int) bool {
		return days[i].Date > days[j].Date
	})
	return days
}
