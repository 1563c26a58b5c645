package stats

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	jarvisErrors "github.com/harunnryd/jarvis/internal/errors"
	"github.com/harunnryd/jarvis/internal/sheet"
)

// Filler writes volume and one-rep max into blank cells of every workout
// sheet, and optionally a short coaching comment into a blank feedback cell.
// Cells that already hold a value are never touched, so re-running is safe.
type Filler struct {
	store  sheet.Store
	coach  Completer
	prompt string
	delay  time.Duration
}

func NewFiller(store sheet.Store, coach Completer, prompt string, delay time.Duration) *Filler {
	return &Filler{store: store, coach: coach, prompt: prompt, delay: delay}
}

func (f *Filler) Fill(ctx context.Context) (*BatchReport, error) {
	report := &BatchReport{Job: "stats"}

	for _, name := range sheet.WorkoutSheets {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		table, err := f.store.Rows(ctx, name)
		if err != nil {
			if errors.Is(err, jarvisErrors.ErrNotFound) {
				continue
			}
			report.Fail(name, err)
			continue
		}

		for _, row := range table.Rows {
			if err := ctx.Err(); err != nil {
				return report, err
			}
			report.Processed++

			err := f.fillRow(ctx, table, row)
			switch {
			case err == nil:
				report.Filled++
			case errors.Is(err, jarvisErrors.ErrStaleData):
				report.Skipped++
			default:
				slog.WarnContext(ctx, "Skipping workout record", "sheet", name, "row", row.Number, "error", err)
				report.Fail(fmt.Sprintf("%s row %d", name, row.Number), err)
			}
		}
	}

	slog.InfoContext(ctx, "Workout stats pass finished", "processed", report.Processed, "filled", report.Filled, "skipped", report.Skipped, "failed", report.Failed)
	return report, nil
}

func (f *Filler) fillRow(ctx context.Context, table *sheet.Table, row sheet.Row) error {
	needVolume := table.Blank(row, sheet.ColVolume)
	needOneRM := table.Blank(row, sheet.ColOneRM)
	needFeedback := f.coach != nil && table.Blank(row, sheet.ColFeedback)

	if !needVolume && !needOneRM && !needFeedback {
		return jarvisErrors.Stale(fmt.Sprintf("row %d", row.Number))
	}

	rec, err := ParseSetRecord(table.Get(row, sheet.ColWeight), table.Get(row, sheet.ColReps), table.Get(row, sheet.ColSets))
	if err != nil {
		return err
	}
	derived, err := Compute(rec)
	if err != nil {
		return err
	}

	if needVolume {
		if err := f.store.UpdateCell(ctx, table.Name, row.Number, table.Col(sheet.ColVolume), FormatNumber(derived.Volume)); err != nil {
			return err
		}
	}
	if needOneRM {
		if err := f.store.UpdateCell(ctx, table.Name, row.Number, table.Col(sheet.ColOneRM), FormatNumber(derived.OneRepMax)); err != nil {
			return err
		}
	}

	if needFeedback {
		// A failed comment leaves the numbers in place; the next pass retries it.
		if err := f.comment(ctx, table, row, derived); err != nil {
			slog.WarnContext(ctx, "Coach comment failed", "sheet", table.Name, "row", row.Number, "error", err)
		}
	}
	return nil
}

func (f *Filler) comment(ctx context.Context, table *sheet.Table, row sheet.Row, d Derived) error {
	if err := Wait(ctx, f.delay); err != nil {
		return err
	}

	var b strings.Builder
	b.WriteString(f.prompt)
	fmt.Fprintf(&b, "\n\nExercise: %s\nSets: %s\nWeight: %s\nReps: %s\nVolume: %s\nEstimated 1RM: %s",
		table.Get(row, sheet.ColExercise),
		table.Get(row, sheet.ColSets),
		table.Get(row, sheet.ColWeight),
		table.Get(row, sheet.ColReps),
		FormatNumber(d.Volume),
		FormatNumber(d.OneRepMax),
	)
	if note := table.Get(row, sheet.ColNote); note != "" {
		fmt.Fprintf(&b, "\nNote: %s", note)
	}

	text, err := f.coach.Complete(ctx, b.String())
	if err != nil {
		return err
	}
	if text = strings.TrimSpace(text); text == "" {
		return nil
	}
	return f.store.UpdateCell(ctx, table.Name, row.Number, table.Col(sheet.ColFeedback), text)
}
