// Package diet asks the model to assess each logged day of eating and writes
// the estimate (calories, score, comment) back into blank diet cells.
package diet

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	jarvisErrors "github.com/harunnryd/jarvis/internal/errors"
	"github.com/harunnryd/jarvis/internal/extract"
	"github.com/harunnryd/jarvis/internal/sheet"
	"github.com/harunnryd/jarvis/internal/stats"
)

type Scorer struct {
	store  sheet.Store
	llm    stats.Completer
	prompt string
	delay  time.Duration
}

func NewScorer(store sheet.Store, llm stats.Completer, prompt string, delay time.Duration) *Scorer {
	return &Scorer{store: store, llm: llm, prompt: prompt, delay: delay}
}

// ScoreBlank scores every diet row that has meals and at least one blank
// assessment cell. A failed row is recorded in the report and skipped.
func (s *Scorer) ScoreBlank(ctx context.Context) (*stats.BatchReport, error) {
	report := &stats.BatchReport{Job: "diet"}

	table, err := s.store.Rows(ctx, sheet.Diet)
	if err != nil {
		if errors.Is(err, jarvisErrors.ErrNotFound) {
			return report, nil
		}
		return report, err
	}

	first := true
	for _, row := range table.Rows {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		report.Processed++

		meals := Meals(table, row)
		if meals == "" || !needsScore(table, row) {
			report.Skipped++
			continue
		}

		if !first {
			if err := stats.Wait(ctx, s.delay); err != nil {
				return report, err
			}
		}
		first = false

		if err := s.scoreRow(ctx, table, row, meals); err != nil {
			slog.WarnContext(ctx, "Skipping diet record", "row", row.Number, "error", err)
			report.Fail(fmt.Sprintf("diet %s", table.Get(row, sheet.ColDate)), err)
			continue
		}
		report.Filled++
	}

	slog.InfoContext(ctx, "Diet scoring pass finished", "processed", report.Processed, "filled", report.Filled, "skipped", report.Skipped, "failed", report.Failed)
	return report, nil
}

func needsScore(table *sheet.Table, row sheet.Row) bool {
	return table.Blank(row, sheet.ColTotalKcal) || table.Blank(row, sheet.ColScore) || table.Blank(row, sheet.ColComment)
}

// Meals renders the logged meal cells of a row as "breakfast: ...; lunch: ...".
func Meals(table *sheet.Table, row sheet.Row) string {
	var parts []string
	for _, col := range sheet.MealColumns {
		if v := table.Get(row, col); v != "" {
			parts = append(parts, col+": "+v)
		}
	}
	return strings.Join(parts, "; ")
}

func (s *Scorer) scoreRow(ctx context.Context, table *sheet.Table, row sheet.Row, meals string) error {
	prompt := fmt.Sprintf("%s\n\nDate: %s\nMeals: %s", s.prompt, table.Get(row, sheet.ColDate), meals)

	raw, err := s.llm.Complete(ctx, prompt)
	if err != nil {
		return err
	}
	rec, err := decodeAssessment(raw)
	if err != nil {
		return err
	}

	updates := map[string]string{}
	if rec.TotalKcal != nil {
		updates[sheet.ColTotalKcal] = stats.FormatNumber(float64(*rec.TotalKcal))
	}
	if rec.Score != nil {
		updates[sheet.ColScore] = stats.FormatNumber(float64(*rec.Score))
	}
	if c := strings.TrimSpace(rec.Comment); c != "" {
		updates[sheet.ColComment] = c
	}
	if len(updates) == 0 {
		return jarvisErrors.InvalidModelOutput("diet assessment has no fields")
	}

	for _, col := range []string{sheet.ColTotalKcal, sheet.ColScore, sheet.ColComment} {
		v, ok := updates[col]
		if !ok || !table.Blank(row, col) {
			continue
		}
		if err := s.store.UpdateCell(ctx, sheet.Diet, row.Number, table.Col(col), v); err != nil {
			return err
		}
	}
	return nil
}

func decodeAssessment(raw string) (extract.DietRecord, error) {
	reply, err := extract.Decode(raw)
	if err != nil {
		return extract.DietRecord{}, err
	}
	switch r := reply.(type) {
	case extract.DietRecord:
		return r, nil
	case extract.Chat:
		// prose only: keep it as the comment
		return extract.DietRecord{Comment: r.Text}, nil
	default:
		return extract.DietRecord{}, jarvisErrors.InvalidModelOutput(fmt.Sprintf("expected a diet record, got %s", reply.Kind()))
	}
}
