package stats_test

import (
	"time"

	"github.com/2beens/trackfit/internal/workouts"
)

var testToday = time.Date(2024, time.March, 15, 0, 0, 0, 0, time.UTC) // Friday

func daysAgo(n int) string {
	return workouts.FormatDateDay(testToday.AddDate(0, 0, -n))
}

func weightPtr(w float64) *float64 {
	return &w
}

func strengthEntry(dateDay, workoutType string, sets ...string) workouts.Entry {
	return workouts.Entry{
		DateDay:     dateDay,
		WorkoutType: workoutType,
		Exercises: []workouts.Exercise{
			{Name: "Bench", Sets: sets},
		},
	}
}

func weightEntry(dateDay string, weight *float64) workouts.Entry {
	return workouts.Entry{
		DateDay:     dateDay,
		WorkoutType: "Legs",
		Weight:      weight,
	}
}
