package sheet

import (
	"context"
	"fmt"
)

const (
	Diet    = "diet"
	Cardio  = "cardio"
	Memory  = "memory"
	Summary = "summary"

	Chest     = "chest"
	Back      = "back"
	Legs      = "legs"
	Shoulders = "shoulders"
	Arms      = "arms"
	Core      = "core"
	Etc       = "etc"
)

// Column names shared by several sheets.
const (
	ColDate     = "date"
	ColExercise = "exercise"
	ColSets     = "sets"
	ColWeight   = "weight"
	ColReps     = "reps"
	ColOneRM    = "1rm"
	ColVolume   = "volume"
	ColNote     = "note"
	ColFeedback = "feedback"

	ColTotalKcal = "total_kcal"
	ColScore     = "score"
	ColComment   = "comment"

	ColDuration  = "duration"
	ColIntensity = "intensity"

	ColFact = "fact"

	ColExercises = "exercises"
	ColBodyParts = "body_parts"
)

// MealColumns are the diet sheet columns a meal can be logged into, in order.
var MealColumns = []string{"breakfast", "lunch", "dinner", "snack", "supplement"}

// WorkoutSheets lists every strength sheet, one per body part.
var WorkoutSheets = []string{Chest, Back, Legs, Shoulders, Arms, Core, Etc}

var workoutHeader = []string{ColDate, ColExercise, ColSets, ColWeight, ColReps, ColOneRM, ColVolume, ColNote, ColFeedback}

// Headers maps each sheet to its header row.
var Headers = map[string][]string{
	Diet:    append(append([]string{ColDate}, MealColumns...), ColTotalKcal, ColScore, ColComment),
	Cardio:  {ColDate, ColExercise, ColDuration, ColIntensity, ColNote},
	Memory:  {ColDate, ColFact},
	Summary: {ColDate, ColExercises, ColSets, ColVolume, ColBodyParts},
}

func init() {
	for _, name := range WorkoutSheets {
		Headers[name] = workoutHeader
	}
}

// IsWorkoutSheet reports whether name is a strength sheet.
func IsWorkoutSheet(name string) bool {
	for _, s := range WorkoutSheets {
		if s == name {
			return true
		}
	}
	return false
}

// Bootstrap creates every known sheet with its header if missing.
func Bootstrap(ctx context.Context, store Store) error {
	for name, header := range Headers {
		if err := store.EnsureSheet(ctx, name, header); err != nil {
			return fmt.Errorf("ensure sheet %s: %w", name, err)
		}
	}
	return nil
}

// Record builds a row in header order from named values.
func Record(sheet string, values map[string]string) []string {
	header := Headers[sheet]
	row := make([]string, len(header))
	for i, col := range header {
		row[i] = values[col]
	}
	return row
}
