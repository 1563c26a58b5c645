package sheet

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	jarvisErrors "github.com/harunnryd/jarvis/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newWorkbook(t *testing.T) *Workbook {
	t.Helper()
	wb, err := NewWorkbook(filepath.Join(t.TempDir(), "workbook.json"), time.Millisecond, 10)
	require.NoError(t, err)
	return wb
}

func TestWorkbookRoundTrip(t *testing.T) {
	ctx := context.Background()
	wb := newWorkbook(t)

	require.NoError(t, Bootstrap(ctx, wb))

	row, err := wb.AppendRow(ctx, Chest, Record(Chest, map[string]string{
		ColDate: "2026-10-18", ColExercise: "bench press", ColWeight: "60", ColReps: "10", ColSets: "3",
	}))
	require.NoError(t, err)
	assert.Equal(t, 2, row)

	table, err := wb.Rows(ctx, Chest)
	require.NoError(t, err)
	require.Len(t, table.Rows, 1)
	assert.Equal(t, "bench press", table.Get(table.Rows[0], ColExercise))
	assert.True(t, table.Blank(table.Rows[0], ColVolume))

	require.NoError(t, wb.UpdateCell(ctx, Chest, 2, table.Col(ColVolume), "1800"))

	found, err := wb.FindRow(ctx, Chest, "2026-10-18")
	require.NoError(t, err)
	assert.Equal(t, 2, found.Number)
	assert.Equal(t, "1800", found.Values[table.Col(ColVolume)-1])
}

func TestWorkbookEnsureSheetIsIdempotent(t *testing.T) {
	ctx := context.Background()
	wb := newWorkbook(t)

	require.NoError(t, wb.EnsureSheet(ctx, Memory, Headers[Memory]))
	_, err := wb.AppendRow(ctx, Memory, []string{"2026-10-18", "left knee hurts on deep squats"})
	require.NoError(t, err)
	require.NoError(t, wb.EnsureSheet(ctx, Memory, Headers[Memory]))

	table, err := wb.Rows(ctx, Memory)
	require.NoError(t, err)
	assert.Len(t, table.Rows, 1)
}

func TestWorkbookErrors(t *testing.T) {
	ctx := context.Background()
	wb := newWorkbook(t)

	_, err := wb.Rows(ctx, "nope")
	assert.ErrorIs(t, err, jarvisErrors.ErrNotFound)

	require.NoError(t, wb.EnsureSheet(ctx, Diet, Headers[Diet]))
	_, err = wb.FindRow(ctx, Diet, "2026-01-01")
	assert.ErrorIs(t, err, jarvisErrors.ErrNotFound)

	assert.ErrorIs(t, wb.UpdateCell(ctx, Diet, 0, 1, "x"), jarvisErrors.ErrInvalidInput)
}

func TestUpdateCellExtendsShortRows(t *testing.T) {
	ctx := context.Background()
	wb := newWorkbook(t)
	require.NoError(t, wb.EnsureSheet(ctx, Cardio, Headers[Cardio]))
	_, err := wb.AppendRow(ctx, Cardio, []string{"2026-10-18", "running"})
	require.NoError(t, err)

	require.NoError(t, wb.UpdateCell(ctx, Cardio, 2, 5, "easy pace"))

	table, err := wb.Rows(ctx, Cardio)
	require.NoError(t, err)
	assert.Equal(t, "easy pace", table.Get(table.Rows[0], ColNote))
	assert.Equal(t, "", table.Get(table.Rows[0], ColDuration))
}

func TestA1(t *testing.T) {
	assert.Equal(t, "A", ColumnLetter(1))
	assert.Equal(t, "Z", ColumnLetter(26))
	assert.Equal(t, "AA", ColumnLetter(27))
	assert.Equal(t, "diet!C4", A1("diet", 4, 3))
	assert.Equal(t, "'my sheet'!A2:I2", RowRange("my sheet", 2, 9))
	assert.Equal(t, 12, rowFromRange("diet!A12:I12"))
	assert.Equal(t, 0, rowFromRange("garbage"))
}

func TestHeaders(t *testing.T) {
	assert.Equal(t, []string{"date", "breakfast", "lunch", "dinner", "snack", "supplement", "total_kcal", "score", "comment"}, Headers[Diet])
	for _, s := range WorkoutSheets {
		assert.True(t, IsWorkoutSheet(s))
		assert.Contains(t, Headers[s], ColOneRM)
	}
	assert.False(t, IsWorkoutSheet(Cardio))
}
