package stats

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/2beens/trackfit/internal/workouts"
)

var ErrInvalidUnit = errors.New("invalid weight unit")

type Unit string

const (
	UnitKg Unit = "kg"
	UnitLb Unit = "lb"

	kgToLb = 2.20462
)

func ParseUnit(s string) (Unit, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "kg", "kgs", "kilos":
		return UnitKg, nil
	case "lb", "lbs", "pounds":
		return UnitLb, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidUnit, s)
	}
}

// ConvertWeight converts a weight between units. Unknown units are treated as kg.
func ConvertWeight(value float64, from, to Unit) float64 {
	switch {
	case from == to:
		return value
	case to == UnitLb:
		return value * kgToLb
	case from == UnitLb:
		return value / kgToLb
	default:
		return value
	}
}

// default axis bounds, used when there are no weight samples
var defaultWeightBounds = map[Unit][2]float64{
	UnitKg: {60, 100},
	UnitLb: {132, 220},
}

type Trend string

const (
	TrendLosing  Trend = "losing"
	TrendGaining Trend = "gaining"
)

// SeriesPoint is a single chart point; a nil Value means "no data yet".
type SeriesPoint struct {
	Date  string   `json:"date"`
	Value *float64 `json:"value"`
}

type WeightTrend struct {
	Unit   Unit          `json:"unit"`
	Points []SeriesPoint `json:"points"`
	Min    float64       `json:"min"`
	Max    float64       `json:"max"`
	Trend  Trend         `json:"trend"`
	// HasTrend is false when fewer than two filled points exist; Trend is then
	// reported as gaining to keep the chart colour stable.
	HasTrend bool     `json:"hasTrend"`
	Latest   *float64 `json:"latest"`
}

func validWeight(w *float64) (float64, bool) {
	if w == nil || math.IsNaN(*w) || math.IsInf(*w, 0) || *w <= 0 {
		return 0, false
	}
	return *w, true
}

// WeightSeries builds the body weight series for the period: one point per distinct
// entry date, carrying the last known weight forward over dates without a sample.
// Dates before the first valid sample have a nil value. When several entries share
// a date, the last one in chronological order wins.
func WeightSeries(entries []workouts.Entry, period Period, today time.Time) []SeriesPoint {
	all, _ := dated(entries)

	var dates []time.Time
	date2weight := make(map[time.Time]*float64)
	var lastWeight *float64
	for _, de := range all {
		if w, ok := validWeight(de.entry.Weight); ok {
			lastWeight = &w
		}
		if _, seen := date2weight[de.date]; !seen {
			dates = append(dates, de.date)
		}
		date2weight[de.date] = lastWeight
	}

	points := make([]SeriesPoint, 0, len(dates))
	for _, d := range dates {
		if !period.Contains(d, today) {
			continue
		}
		var value *float64
		if w := date2weight[d]; w != nil {
			v := *w
			value = &v
		}
		points = append(points, SeriesPoint{
			Date:  d.Format(workouts.DateLayout),
			Value: value,
		})
	}
	return points
}

// BuildWeightTrend converts the weight series into the display unit and derives
// the axis bounds and the trend direction.
func BuildWeightTrend(entries []workouts.Entry, period Period, today time.Time, sourceUnit, unit Unit) WeightTrend {
	points := WeightSeries(entries, period, today)
	for i := range points {
		if points[i].Value != nil {
			v := ConvertWeight(*points[i].Value, sourceUnit, unit)
			points[i].Value = &v
		}
	}

	trend := WeightTrend{
		Unit:   unit,
		Points: points,
		Trend:  TrendGaining,
	}

	var filled []float64
	for _, p := range points {
		if p.Value != nil {
			filled = append(filled, *p.Value)
		}
	}

	if len(filled) == 0 {
		bounds, ok := defaultWeightBounds[unit]
		if !ok {
			bounds = defaultWeightBounds[UnitKg]
		}
		trend.Min, trend.Max = bounds[0], bounds[1]
		return trend
	}

	minW, maxW := filled[0], filled[0]
	for _, w := range filled[1:] {
		minW = math.Min(minW, w)
		maxW = math.Max(maxW, w)
	}
	trend.Min = math.Floor(minW - 1)
	trend.Max = math.Ceil(maxW + 1)

	latest := filled[len(filled)-1]
	trend.Latest = &latest

	if len(filled) >= 2 {
		trend.HasTrend = true
		if filled[0] > latest {
			trend.Trend = TrendLosing
		}
	}

	return trend
}
