// Package journal writes what the assistant hears into the tabular store:
// meals into today's diet row, strength work into a body-part sheet, cardio,
// and free-form facts.
package journal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	jarvisErrors "github.com/harunnryd/jarvis/internal/errors"
	"github.com/harunnryd/jarvis/internal/extract"
	"github.com/harunnryd/jarvis/internal/sheet"
	"github.com/harunnryd/jarvis/internal/stats"
)

const DateLayout = "2006-01-02"

// FactStore receives saved memories in addition to the memory sheet.
type FactStore interface {
	Remember(ctx context.Context, fact string) error
}

type Options struct {
	Location        *time.Location
	DefaultQuantity string
	Now             func() time.Time
	Facts           FactStore
}

type Journal struct {
	store      sheet.Store
	facts      FactStore
	loc        *time.Location
	now        func() time.Time
	defaultQty string

	// serialises find-or-append of the day's diet row
	mu sync.Mutex
}

func New(store sheet.Store, opts Options) *Journal {
	j := &Journal{
		store:      store,
		facts:      opts.Facts,
		loc:        opts.Location,
		now:        opts.Now,
		defaultQty: opts.DefaultQuantity,
	}
	if j.loc == nil {
		j.loc = time.Local
	}
	if j.now == nil {
		j.now = time.Now
	}
	if j.defaultQty == "" {
		j.defaultQty = "1 serving"
	}
	return j
}

// Today is the journal's current date in its configured time zone.
func (j *Journal) Today() string {
	return j.now().In(j.loc).Format(DateLayout)
}

type MealEntry struct {
	Date     string `json:"date"`
	MealType string `json:"meal_type"`
	Entry    string `json:"entry"`
	Row      int    `json:"row"`
}

// LogMeal appends "item (quantity)" to the meal-type cell of today's diet row,
// creating the row when it does not exist yet.
func (j *Journal) LogMeal(ctx context.Context, item, quantity, mealType string) (*MealEntry, error) {
	item = strings.TrimSpace(item)
	if item == "" {
		return nil, jarvisErrors.InvalidInput("meal item is empty")
	}
	if strings.TrimSpace(quantity) == "" {
		quantity = j.defaultQty
	}
	column, known := NormalizeMealType(mealType)
	if !known {
		slog.WarnContext(ctx, "Unknown meal type, logging as snack", "meal_type", mealType)
	}

	j.mu.Lock()
	defer j.mu.Unlock()

	if err := j.store.EnsureSheet(ctx, sheet.Diet, sheet.Headers[sheet.Diet]); err != nil {
		return nil, err
	}

	date := j.Today()
	header := sheet.Headers[sheet.Diet]
	col := indexOf(header, column) + 1

	entry := fmt.Sprintf("%s (%s)", item, strings.TrimSpace(quantity))

	row, err := j.store.FindRow(ctx, sheet.Diet, date)
	switch {
	case errors.Is(err, jarvisErrors.ErrNotFound):
		values := map[string]string{sheet.ColDate: date, column: entry}
		n, err := j.store.AppendRow(ctx, sheet.Diet, sheet.Record(sheet.Diet, values))
		if err != nil {
			return nil, err
		}
		return &MealEntry{Date: date, MealType: column, Entry: entry, Row: n}, nil
	case err != nil:
		return nil, err
	}

	current := ""
	if col <= len(row.Values) {
		current = strings.TrimSpace(row.Values[col-1])
	}
	next := entry
	if current != "" {
		next = current + ", " + entry
	}
	if err := j.store.UpdateCell(ctx, sheet.Diet, row.Number, col, next); err != nil {
		return nil, err
	}

	return &MealEntry{Date: date, MealType: column, Entry: entry, Row: row.Number}, nil
}

type WorkoutEntry struct {
	Date      string `json:"date"`
	Sheet     string `json:"sheet"`
	Exercise  string `json:"exercise"`
	Weight    string `json:"weight,omitempty"`
	Reps      string `json:"reps,omitempty"`
	Sets      string `json:"sets,omitempty"`
	Volume    string `json:"volume,omitempty"`
	OneRepMax string `json:"one_rep_max,omitempty"`
	Duration  string `json:"duration,omitempty"`
	Intensity string `json:"intensity,omitempty"`
	Row       int    `json:"row"`
}

// LogWorkout classifies the exercise and appends it to the matching sheet.
// Derived stats are written right away when the details can be parsed and
// left blank for the batch filler otherwise.
func (j *Journal) LogWorkout(ctx context.Context, exercise, details string) (*WorkoutEntry, error) {
	exercise = strings.TrimSpace(exercise)
	if exercise == "" {
		return nil, jarvisErrors.InvalidInput("exercise is empty")
	}

	target := Classify(exercise)
	if target == sheet.Cardio {
		return j.LogCardio(ctx, exercise, details)
	}

	d := strengthDetail(details)
	entry := &WorkoutEntry{
		Date:     j.Today(),
		Sheet:    target,
		Exercise: exercise,
		Weight:   d.Weight,
		Reps:     d.Reps,
		Sets:     d.Sets,
	}

	if rec, err := stats.ParseSetRecord(d.Weight, d.Reps, d.Sets); err == nil {
		if derived, err := stats.Compute(rec); err == nil {
			entry.Volume = stats.FormatNumber(derived.Volume)
			entry.OneRepMax = stats.FormatNumber(derived.OneRepMax)
		}
	}

	if err := j.store.EnsureSheet(ctx, target, sheet.Headers[target]); err != nil {
		return nil, err
	}
	n, err := j.store.AppendRow(ctx, target, sheet.Record(target, map[string]string{
		sheet.ColDate:     entry.Date,
		sheet.ColExercise: exercise,
		sheet.ColSets:     entry.Sets,
		sheet.ColWeight:   entry.Weight,
		sheet.ColReps:     entry.Reps,
		sheet.ColOneRM:    entry.OneRepMax,
		sheet.ColVolume:   entry.Volume,
		sheet.ColNote:     strings.TrimSpace(details),
	}))
	if err != nil {
		return nil, err
	}
	entry.Row = n
	return entry, nil
}

// strengthDetail accepts either prose or a JSON object the model put in the
// details argument.
func strengthDetail(details string) StrengthDetail {
	trimmed := strings.TrimSpace(details)
	if strings.HasPrefix(trimmed, "{") || strings.HasPrefix(trimmed, "[") {
		if reply, err := extract.Decode(trimmed); err == nil {
			if w, ok := reply.(extract.WorkoutRecord); ok {
				return StrengthDetail{Weight: string(w.Weight), Reps: string(w.Reps), Sets: string(w.Sets)}
			}
		}
	}
	return ParseStrength(details)
}

// LogCardio appends a cardio session with its duration in minutes.
func (j *Journal) LogCardio(ctx context.Context, exercise, details string) (*WorkoutEntry, error) {
	exercise = strings.TrimSpace(exercise)
	if exercise == "" {
		return nil, jarvisErrors.InvalidInput("exercise is empty")
	}

	d := ParseCardio(details)
	entry := &WorkoutEntry{
		Date:      j.Today(),
		Sheet:     sheet.Cardio,
		Exercise:  exercise,
		Duration:  d.Minutes,
		Intensity: d.Intensity,
	}

	if err := j.store.EnsureSheet(ctx, sheet.Cardio, sheet.Headers[sheet.Cardio]); err != nil {
		return nil, err
	}
	n, err := j.store.AppendRow(ctx, sheet.Cardio, sheet.Record(sheet.Cardio, map[string]string{
		sheet.ColDate:      entry.Date,
		sheet.ColExercise:  exercise,
		sheet.ColDuration:  d.Minutes,
		sheet.ColIntensity: d.Intensity,
		sheet.ColNote:      strings.TrimSpace(details),
	}))
	if err != nil {
		return nil, err
	}
	entry.Row = n
	return entry, nil
}

// SaveMemory appends a fact to the memory sheet and, when configured, the
// vector store used for recall. A vector store failure is logged only.
func (j *Journal) SaveMemory(ctx context.Context, fact string) error {
	fact = strings.TrimSpace(fact)
	if fact == "" {
		return jarvisErrors.InvalidInput("fact is empty")
	}

	if err := j.store.EnsureSheet(ctx, sheet.Memory, sheet.Headers[sheet.Memory]); err != nil {
		return err
	}
	if _, err := j.store.AppendRow(ctx, sheet.Memory, []string{j.Today(), fact}); err != nil {
		return err
	}

	if j.facts != nil {
		if err := j.facts.Remember(ctx, fact); err != nil {
			slog.WarnContext(ctx, "Vector memory write failed", "error", err)
		}
	}
	return nil
}

func indexOf(values []string, s string) int {
	for i, v := range values {
		if v == s {
			return i
		}
	}
	return -1
}
