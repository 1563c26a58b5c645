package stats

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"strconv"
	"strings"

	jarvisErrors "github.com/harunnryd/jarvis/internal/errors"
	"github.com/harunnryd/jarvis/internal/sheet"
)

// DayTotals aggregates every strength record of one date.
type DayTotals struct {
	Date      string
	Exercises int
	Sets      int
	Volume    float64
	BodyParts []string
}

// Totals reads all workout sheets and groups them by date. Volume comes from
// the volume cell when present, otherwise it is computed on the fly; records
// that cannot be parsed contribute to counts but not to volume.
func Totals(ctx context.Context, store sheet.Store) (map[string]*DayTotals, error) {
	days := map[string]*DayTotals{}
	parts := map[string]map[string]bool{}

	for _, name := range sheet.WorkoutSheets {
		table, err := store.Rows(ctx, name)
		if err != nil {
			if errors.Is(err, jarvisErrors.ErrNotFound) {
				continue
			}
			return nil, err
		}

		for _, row := range table.Rows {
			date := table.Get(row, sheet.ColDate)
			if date == "" {
				continue
			}
			day, ok := days[date]
			if !ok {
				day = &DayTotals{Date: date}
				days[date] = day
				parts[date] = map[string]bool{}
			}

			day.Exercises++
			parts[date][name] = true

			rec, parseErr := ParseSetRecord(table.Get(row, sheet.ColWeight), table.Get(row, sheet.ColReps), table.Get(row, sheet.ColSets))
			if parseErr == nil {
				day.Sets += setCount(rec)
			} else if n := ParseNumbers(table.Get(row, sheet.ColSets)); len(n) > 0 {
				day.Sets += int(n[0])
			}

			if v := ParseNumbers(table.Get(row, sheet.ColVolume)); len(v) > 0 {
				day.Volume += v[0]
			} else if parseErr == nil {
				if d, err := Compute(rec); err == nil {
					day.Volume += d.Volume
				}
			}
		}
	}

	for date, day := range days {
		for p := range parts[date] {
			day.BodyParts = append(day.BodyParts, p)
		}
		sort.Strings(day.BodyParts)
	}
	return days, nil
}

// setCount is the declared set count, or the number of listed weights/reps
// when several are written out.
func setCount(r SetRecord) int {
	n := r.Sets
	if len(r.Weights) > n {
		n = len(r.Weights)
	}
	if len(r.Reps) > n {
		n = len(r.Reps)
	}
	return n
}

// SummaryBuilder maintains the per-day summary sheet.
type SummaryBuilder struct {
	store sheet.Store
}

func NewSummaryBuilder(store sheet.Store) *SummaryBuilder {
	return &SummaryBuilder{store: store}
}

// Build appends a row for every new training day and fills blank cells of
// existing days.
func (b *SummaryBuilder) Build(ctx context.Context) (*BatchReport, error) {
	report := &BatchReport{Job: "summary"}

	days, err := Totals(ctx, b.store)
	if err != nil {
		return report, err
	}
	if err := b.store.EnsureSheet(ctx, sheet.Summary, sheet.Headers[sheet.Summary]); err != nil {
		return report, err
	}
	existing, err := b.store.Rows(ctx, sheet.Summary)
	if err != nil {
		return report, err
	}

	byDate := map[string]sheet.Row{}
	for _, row := range existing.Rows {
		byDate[existing.Get(row, sheet.ColDate)] = row
	}

	dates := make([]string, 0, len(days))
	for d := range days {
		dates = append(dates, d)
	}
	sort.Strings(dates)

	for _, date := range dates {
		report.Processed++
		day := days[date]
		values := map[string]string{
			sheet.ColDate:      date,
			sheet.ColExercises: strconv.Itoa(day.Exercises),
			sheet.ColSets:      strconv.Itoa(day.Sets),
			sheet.ColVolume:    FormatNumber(day.Volume),
			sheet.ColBodyParts: strings.Join(day.BodyParts, ", "),
		}

		row, ok := byDate[date]
		if !ok {
			if _, err := b.store.AppendRow(ctx, sheet.Summary, sheet.Record(sheet.Summary, values)); err != nil {
				report.Fail(date, err)
				continue
			}
			report.Filled++
			continue
		}

		wrote := false
		failed := false
		for _, col := range sheet.Headers[sheet.Summary][1:] {
			if !existing.Blank(row, col) {
				continue
			}
			if err := b.store.UpdateCell(ctx, sheet.Summary, row.Number, existing.Col(col), values[col]); err != nil {
				report.Fail(date, err)
				failed = true
				break
			}
			wrote = true
		}
		switch {
		case failed:
		case wrote:
			report.Filled++
		default:
			report.Skipped++
		}
	}

	slog.InfoContext(ctx, "Summary sheet updated", "days", report.Processed, "written", report.Filled)
	return report, nil
}
