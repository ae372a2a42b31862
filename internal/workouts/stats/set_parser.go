package stats

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

// Set is a parsed set string, e.g. "100@10" -> {Weight: 100, Reps: 10}.
type Set struct {
	Weight float64 `json:"weight"`
	Reps   float64 `json:"reps"`
}

var (
	// mimics a lenient "parse the leading number" behaviour: "100kg" -> 100, "abc" -> no match
	leadingNumberRegex = regexp.MustCompile(`^[+-]?(?:\d+(?:\.\d*)?|\.\d+)`)
	weightByRepsRegex  = regexp.MustCompile(`(?i)(-?\d+(?:\.\d+)?)\s*[x×]\s*(-?\d+(?:\.\d+)?)`)
	numberRegex        = regexp.MustCompile(`-?\d+(?:\.\d+)?`)
)

// ParseSet converts a raw set string into a weight/reps pair. Supported notations,
// tried in order:
//   - "100@10" (split on '@', each side parsed leniently, missing side is 0)
//   - "100x10", "100 X 10", "100×10"
//   - any other string: first number is the weight, second is the reps
//
// It never fails; anything unparsable is {0, 0}.
func ParseSet(raw string) Set {
	s := strings.TrimSpace(raw)
	if s == "" {
		return Set{}
	}

	if parts := strings.Split(s, "@"); len(parts) == 2 {
		return Set{
			Weight: parseLeadingFloat(parts[0]),
			Reps:   parseLeadingFloat(parts[1]),
		}
	}

	if m := weightByRepsRegex.FindStringSubmatch(s); m != nil {
		return Set{
			Weight: toFloat(m[1]),
			Reps:   toFloat(m[2]),
		}
	}

	nums := numberRegex.FindAllString(s, 2)
	switch len(nums) {
	case 2:
		return Set{Weight: toFloat(nums[0]), Reps: toFloat(nums[1])}
	case 1:
		return Set{Weight: toFloat(nums[0])}
	default:
		return Set{}
	}
}

// Volume is weight * reps, or 0 if the product is not a finite number.
func (s Set) Volume() float64 {
	v := s.Weight * s.Reps
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

func parseLeadingFloat(s string) float64 {
	return toFloat(leadingNumberRegex.FindString(strings.TrimSpace(s)))
}

func toFloat(s string) float64 {
	if s == "" {
		return 0
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}
