// Package stats turns free-text workout cells into numbers: total volume and
// an estimated one-rep max.
package stats

import (
	"fmt"
	"math"
	"regexp"
	"strconv"

	jarvisErrors "github.com/harunnryd/jarvis/internal/errors"
)

var numberPattern = regexp.MustCompile(`\d+(?:\.\d+)?`)

// SetRecord is one logged exercise parsed from its weight, reps and sets cells.
type SetRecord struct {
	Weights []float64
	Reps    []float64
	Sets    int
}

// Derived holds the computed values written back to the sheet.
type Derived struct {
	Volume    float64
	OneRepMax float64
}

// ParseNumbers returns every numeric token in s, left to right. "20, 40, 60kg" -> [20 40 60].
func ParseNumbers(s string) []float64 {
	matches := numberPattern.FindAllString(s, -1)
	out := make([]float64, 0, len(matches))
	for _, m := range matches {
		v, err := strconv.ParseFloat(m, 64)
		if err != nil {
			continue
		}
		out = append(out, v)
	}
	return out
}

// ParseSetRecord parses raw cell text. Missing weights or reps cannot be
// computed; a missing or unreadable set count means one set.
func ParseSetRecord(weight, reps, sets string) (SetRecord, error) {
	r := SetRecord{
		Weights: ParseNumbers(weight),
		Reps:    ParseNumbers(reps),
		Sets:    1,
	}
	if len(r.Weights) == 0 {
		return r, jarvisErrors.ParseFailure(fmt.Sprintf("no weight in %q", weight))
	}
	if len(r.Reps) == 0 {
		return r, jarvisErrors.ParseFailure(fmt.Sprintf("no reps in %q", reps))
	}
	if n := ParseNumbers(sets); len(n) > 0 && n[0] >= 1 {
		r.Sets = int(n[0])
	}
	return r, nil
}

// Compute applies the volume policy, first matching case wins:
//
//	several weights, one reps value per weight: sum of w[i]*r[i]
//	several weights, any other reps:          sum of w[i]*r[0]
//	one weight, several reps:                 w[0]*sum(r)
//	one weight, one reps value:               w[0]*r[0]*sets
//
// The one-rep max uses the Epley approximation maxW*(1+r/30), where r is the
// reps paired with the heaviest weight when arities match, else r[0].
func Compute(r SetRecord) (Derived, error) {
	if len(r.Weights) == 0 || len(r.Reps) == 0 {
		return Derived{}, jarvisErrors.ParseFailure("empty weights or reps")
	}

	var volume float64
	switch {
	case len(r.Weights) > 1 && len(r.Reps) == len(r.Weights):
		for i, w := range r.Weights {
			volume += w * r.Reps[i]
		}
	case len(r.Weights) > 1:
		for _, w := range r.Weights {
			volume += w * r.Reps[0]
		}
	case len(r.Reps) > 1:
		for _, reps := range r.Reps {
			volume += r.Weights[0] * reps
		}
	default:
		sets := r.Sets
		if sets < 1 {
			sets = 1
		}
		volume = r.Weights[0] * r.Reps[0] * float64(sets)
	}

	maxIdx := 0
	for i, w := range r.Weights {
		if w > r.Weights[maxIdx] {
			maxIdx = i
		}
	}
	reps := r.Reps[0]
	if len(r.Reps) == len(r.Weights) {
		reps = r.Reps[maxIdx]
	}

	return Derived{
		Volume:    volume,
		OneRepMax: Epley(r.Weights[maxIdx], reps),
	}, nil
}

// Epley estimates a one-rep max from a weight lifted for reps repetitions.
func Epley(weight, reps float64) float64 {
	return weight * (1 + reps/30)
}

// FormatNumber renders a value for a sheet cell with at most one decimal.
func FormatNumber(v float64) string {
	return strconv.FormatFloat(math.Round(v*10)/10, 'f', -1, 64)
}
