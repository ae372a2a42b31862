package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2beens/trackfit/internal/workouts/stats"
)

const entriesExport = `[
	{"id": "1", "dateDay": "2024-03-13 - Wednesday", "workoutType": "Chest/Triceps",
	 "exercises": [{"name": "Bench", "sets": ["100@10", "100x8"]}], "weight": 82.5},
	{"id": "2", "dateDay": "2024-03-14 - Thursday", "workoutType": "Cardio",
	 "cardio": {"incline": "5", "speed": "6", "time": "30"}, "notes": "new PR on the treadmill"},
	{"id": "3", "dateDay": "2024-03-15 - Friday", "workoutType": "Legs",
	 "exercises": [{"name": "Squat", "sets": ["120@5"]}], "weight": 82.0},
	{"id": "4", "dateDay": "sometime", "workoutType": "Legs"}
]`

func writeExport(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "entries.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	buf := new(bytes.Buffer)
	cmd := newRootCmd()
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func TestSummary_JSON(t *testing.T) {
	path := writeExport(t, entriesExport)

	out, err := execute(t, "summary", "--file", path, "--period", "7d", "--now", "2024-03-15", "--json")
	require.NoError(t, err)

	var bundle stats.Bundle
	require.NoError(t, json.Unmarshal([]byte(out), &bundle))
	assert.Equal(t, "2024-03-15", bundle.Today)
	assert.Equal(t, stats.Period7D, bundle.Period)
	assert.Equal(t, 3, bundle.EntryCount)
	assert.Equal(t, 1, bundle.SkippedEntries)
	assert.Equal(t, 2400.0, bundle.TotalVolume)
	assert.Equal(t, 3, bundle.CurrentStreak)
	assert.Equal(t, 1, bundle.CardioDays)
	assert.Equal(t, 1, bundle.PersonalRecords)
	require.NotNil(t, bundle.WeightTrend.Latest)
	assert.Equal(t, 82.0, *bundle.WeightTrend.Latest)
	assert.Equal(t, stats.TrendLosing, bundle.WeightTrend.Trend)
}

func TestSummary_WrappedExportAndPounds(t *testing.T) {
	path := writeExport(t, `{"entries": `+entriesExport+`, "total": 4}`)

	out, err := execute(t, "summary", "-f", path, "--unit", "lb", "--now", "2024-03-15", "--json")
	require.NoError(t, err)

	var bundle stats.Bundle
	require.NoError(t, json.Unmarshal([]byte(out), &bundle))
	assert.Equal(t, stats.UnitLb, bundle.Unit)
	require.NotNil(t, bundle.WeightTrend.Latest)
	assert.InDelta(t, 82.0*2.20462, *bundle.WeightTrend.Latest, 0.001)
}

func TestSummary_Rendered(t *testing.T) {
	path := writeExport(t, entriesExport)

	out, err := execute(t, "summary", "--file", path, "--now", "2024-03-15")
	require.NoError(t, err)
	assert.Contains(t, out, "Workout stats")
	assert.Contains(t, out, "Current streak")
	assert.Contains(t, out, "Muscle group focus")
	assert.Contains(t, out, "1 entries skipped")
}

func TestSummary_InvalidInput(t *testing.T) {
	path := writeExport(t, entriesExport)

	_, err := execute(t, "summary", "--file", path, "--period", "fortnight")
	assert.ErrorIs(t, err, stats.ErrInvalidPeriod)

	_, err = execute(t, "summary", "--file", path, "--unit", "stone")
	assert.ErrorIs(t, err, stats.ErrInvalidUnit)

	_, err = execute(t, "summary", "--file", path, "--weekdays", "year")
	assert.ErrorIs(t, err, stats.ErrInvalidWeekdayRange)

	_, err = execute(t, "summary", "--file", path, "--now", "15.03.2024")
	assert.Error(t, err)

	_, err = execute(t, "summary", "--file", filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)

	_, err = execute(t, "summary", "--file", writeExport(t, "not json"))
	assert.Error(t, err)

	_, err = execute(t, "summary")
	assert.Error(t, err, "file flag is required")
}

func TestParseSet(t *testing.T) {
	out, err := execute(t, "parse-set", "100x10", "60@8", "junk")
	require.NoError(t, err)
	assert.Contains(t, out, `"100x10" -> weight=100 reps=10 volume=1000`)
	assert.Contains(t, out, `"60@8" -> weight=60 reps=8 volume=480`)
	assert.Contains(t, out, `"junk" -> weight=0 reps=0 volume=0`)

	_, err = execute(t, "parse-set")
	assert.Error(t, err)
}

func TestBar(t *testing.T) {
	assert.Len(t, []rune(bar(0, 10)), barWidth)
	assert.Len(t, []rune(bar(10, 10)), barWidth)
	assert.Equal(t, barWidth/2, bytes.Count([]byte(bar(5, 10)), []byte("█")))
	assert.Equal(t, "1.5k", formatVolume(1500))
	assert.Equal(t, "800", formatVolume(800))
}
