package workouts

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	DateLayout = "2006-01-02"

	dateDaySeparator = " - "
)

var ErrInvalidDateDay = errors.New("invalid date day")

// Entry is one logged workout session.
type Entry struct {
	ID          string     `json:"id"`
	UserID      string     `json:"userId"`
	DateDay     string     `json:"dateDay"`
	WorkoutType string     `json:"workoutType"`
	Exercises   []Exercise `json:"exercises"`
	Cardio      *Cardio    `json:"cardio,omitempty"`
	Notes       string     `json:"notes,omitempty"`
	// Weight is the body weight sample for that day, in the user's unit (kg by default).
	Weight    *float64  `json:"weight,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type Exercise struct {
	Name string   `json:"name"`
	Sets []string `json:"sets"`
}

// Cardio fields are free text as typed by the user (e.g. "12", "6.5", "20 min").
type Cardio struct {
	Incline string `json:"incline,omitempty"`
	Speed   string `json:"speed,omitempty"`
	Time    string `json:"time,omitempty"`
}

func (c *Cardio) IsEmpty() bool {
	if c == nil {
		return true
	}
	return strings.TrimSpace(c.Incline) == "" &&
		strings.TrimSpace(c.Speed) == "" &&
		strings.TrimSpace(c.Time) == ""
}

// HasCardio reports whether any cardio field was filled in.
func (e *Entry) HasCardio() bool {
	return !e.Cardio.IsEmpty()
}

// Date returns the calendar date of the entry (midnight UTC).
// Entries with an unparsable date day return ok == false.
func (e *Entry) Date() (time.Time, bool) {
	d, err := ParseDateDay(e.DateDay)
	if err != nil {
		return time.Time{}, false
	}
	return d, true
}

// ParseDateDay extracts the calendar date from a date day identifier.
// Accepted forms: "2024-01-01 - Monday", "2024-01-01 Monday", "2024-01-01".
// The weekday label is ignored; the date is authoritative.
func ParseDateDay(dateDay string) (time.Time, error) {
	raw := strings.TrimSpace(dateDay)
	if i := strings.Index(raw, dateDaySeparator); i >= 0 {
		raw = raw[:i]
	}
	if fields := strings.Fields(raw); len(fields) > 0 {
		raw = fields[0]
	} else {
		return time.Time{}, fmt.Errorf("%w: empty", ErrInvalidDateDay)
	}

	d, err := time.Parse(DateLayout, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q: %w", ErrInvalidDateDay, dateDay, err)
	}
	return d, nil
}

// FormatDateDay returns the canonical date day for the given date, e.g. "2024-01-01 - Monday".
func FormatDateDay(date time.Time) string {
	return date.Format(DateLayout) + dateDaySeparator + date.Weekday().String()
}

// NormalizeDateDay parses the given date day and returns its canonical form,
// so the weekday label always matches the date.
func NormalizeDateDay(dateDay string) (string, error) {
	d, err := ParseDateDay(dateDay)
	if err != nil {
		return "", err
	}
	return FormatDateDay(d), nil
}

// CalendarDate truncates t to its calendar date in loc, returned as midnight UTC,
// so it compares directly with Entry.Date.
func CalendarDate(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
