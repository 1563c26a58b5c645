package journal

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	jarvisErrors "github.com/harunnryd/jarvis/internal/errors"
	"github.com/harunnryd/jarvis/internal/sheet"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingFacts struct {
	facts []string
	err   error
}

func (r *recordingFacts) Remember(_ context.Context, fact string) error {
	r.facts = append(r.facts, fact)
	return r.err
}

func newJournal(t *testing.T, facts FactStore) (*Journal, *sheet.Workbook) {
	t.Helper()
	wb, err := sheet.NewWorkbook(filepath.Join(t.TempDir(), "workbook.json"), time.Millisecond, 10)
	require.NoError(t, err)
	j := New(wb, Options{
		Location: time.UTC,
		Now:      func() time.Time { return time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC) },
		Facts:    facts,
	})
	return j, wb
}

func TestLogMealAppendsToTodaysRow(t *testing.T) {
	ctx := context.Background()
	j, wb := newJournal(t, nil)

	first, err := j.LogMeal(ctx, "oatmeal", "1 bowl", "아침")
	require.NoError(t, err)
	assert.Equal(t, "breakfast", first.MealType)

	second, err := j.LogMeal(ctx, "banana", "", "breakfast")
	require.NoError(t, err)
	assert.Equal(t, first.Row, second.Row)

	_, err = j.LogMeal(ctx, "chicken salad", "200g", "lunch")
	require.NoError(t, err)

	table, err := wb.Rows(ctx, sheet.Diet)
	require.NoError(t, err)
	require.Len(t, table.Rows, 1)
	row := table.Rows[0]
	assert.Equal(t, "2026-10-18", table.Get(row, sheet.ColDate))
	assert.Equal(t, "oatmeal (1 bowl), banana (1 serving)", table.Get(row, "breakfast"))
	assert.Equal(t, "chicken salad (200g)", table.Get(row, "lunch"))
}

func TestLogMealRejectsEmptyItem(t *testing.T) {
	j, _ := newJournal(t, nil)
	_, err := j.LogMeal(context.Background(), "  ", "", "lunch")
	assert.True(t, errors.Is(err, jarvisErrors.ErrInvalidInput))
}

func TestLogWorkoutComputesStats(t *testing.T) {
	ctx := context.Background()
	j, wb := newJournal(t, nil)

	entry, err := j.LogWorkout(ctx, "bench press", "60kg 10 reps 3 sets")
	require.NoError(t, err)
	assert.Equal(t, sheet.Chest, entry.Sheet)
	assert.Equal(t, "1800", entry.Volume)
	assert.Equal(t, "80", entry.OneRepMax)

	table, err := wb.Rows(ctx, sheet.Chest)
	require.NoError(t, err)
	require.Len(t, table.Rows, 1)
	assert.Equal(t, "bench press", table.Get(table.Rows[0], sheet.ColExercise))
	assert.Equal(t, "60kg 10 reps 3 sets", table.Get(table.Rows[0], sheet.ColNote))
	assert.True(t, table.Blank(table.Rows[0], sheet.ColFeedback))
}

func TestLogWorkoutAcceptsJSONDetails(t *testing.T) {
	j, _ := newJournal(t, nil)

	entry, err := j.LogWorkout(context.Background(), "squat",
		`{"type":"workout","exercise":"squat","weight":[100,120],"reps":[5,3]}`)
	require.NoError(t, err)
	assert.Equal(t, sheet.Legs, entry.Sheet)
	assert.Equal(t, "100, 120", entry.Weight)
	assert.Equal(t, "860", entry.Volume)
}

func TestLogWorkoutLeavesUnparsedStatsBlank(t *testing.T) {
	j, _ := newJournal(t, nil)

	entry, err := j.LogWorkout(context.Background(), "push up", "bodyweight, a lot")
	require.NoError(t, err)
	assert.Equal(t, "bodyweight", entry.Weight)
	assert.Empty(t, entry.Volume)
	assert.Empty(t, entry.OneRepMax)
}

func TestLogWorkoutRoutesCardio(t *testing.T) {
	ctx := context.Background()
	j, wb := newJournal(t, nil)

	entry, err := j.LogWorkout(ctx, "treadmill run", "45 min moderate")
	require.NoError(t, err)
	assert.Equal(t, sheet.Cardio, entry.Sheet)
	assert.Equal(t, "45", entry.Duration)

	table, err := wb.Rows(ctx, sheet.Cardio)
	require.NoError(t, err)
	require.Len(t, table.Rows, 1)
	assert.Equal(t, "moderate", table.Get(table.Rows[0], sheet.ColIntensity))
}

func TestSaveMemory(t *testing.T) {
	ctx := context.Background()
	facts := &recordingFacts{err: errors.New("embedding down")}
	j, wb := newJournal(t, facts)

	require.NoError(t, j.SaveMemory(ctx, "allergic to peanuts"))
	assert.Equal(t, []string{"allergic to peanuts"}, facts.facts)

	table, err := wb.Rows(ctx, sheet.Memory)
	require.NoError(t, err)
	require.Len(t, table.Rows, 1)
	assert.Equal(t, "allergic to peanuts", table.Get(table.Rows[0], sheet.ColFact))

	assert.Error(t, j.SaveMemory(ctx, ""))
}
