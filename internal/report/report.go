// Package report builds the weekly email: numbers from the trailing days of
// diet, strength and cardio records, written up by the model when it is
// reachable and sent through a mail.Sender.
package report

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	jarvisErrors "github.com/harunnryd/jarvis/internal/errors"
	"github.com/harunnryd/jarvis/internal/mail"
	"github.com/harunnryd/jarvis/internal/sheet"
	"github.com/harunnryd/jarvis/internal/stats"
)

const dateLayout = "2006-01-02"

type Options struct {
	Days     int
	Prompt   string
	From     string
	To       []string
	Location *time.Location
	Now      func() time.Time
}

type Reporter struct {
	store  sheet.Store
	llm    stats.Completer
	sender mail.Sender
	opts   Options
}

// Summary holds the numbers of one reporting window.
type Summary struct {
	From string
	To   string

	TrainingDays int
	Exercises    int
	Sets         int
	Volume       float64
	VolumeByPart map[string]float64
	BestLifts    map[string]float64

	CardioSessions int
	CardioMinutes  float64

	DietDays  int
	MeanKcal  float64
	MeanScore float64
}

func New(store sheet.Store, llm stats.Completer, sender mail.Sender, opts Options) *Reporter {
	if opts.Days <= 0 {
		opts.Days = 7
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if sender == nil {
		sender = mail.LogSender{}
	}
	return &Reporter{store: store, llm: llm, sender: sender, opts: opts}
}

// window returns the inclusive date range ending today.
func (r *Reporter) window() (string, string) {
	today := r.opts.Now().In(r.opts.Location)
	from := today.AddDate(0, 0, -(r.opts.Days - 1))
	return from.Format(dateLayout), today.Format(dateLayout)
}

// Collect reads the window's records from every sheet. Missing sheets count
// as empty.
func (r *Reporter) Collect(ctx context.Context) (*Summary, error) {
	from, to := r.window()
	s := &Summary{From: from, To: to, VolumeByPart: map[string]float64{}, BestLifts: map[string]float64{}}
	inWindow := func(date string) bool { return date >= from && date <= to }

	days := map[string]bool{}
	for _, name := range sheet.WorkoutSheets {
		table, err := r.rows(ctx, name)
		if err != nil {
			return nil, err
		}
		for _, row := range table.Rows {
			date := table.Get(row, sheet.ColDate)
			if !inWindow(date) {
				continue
			}
			days[date] = true
			s.Exercises++

			rec, parseErr := stats.ParseSetRecord(table.Get(row, sheet.ColWeight), table.Get(row, sheet.ColReps), table.Get(row, sheet.ColSets))
			if parseErr != nil {
				continue
			}
			d, err := stats.Compute(rec)
			if err != nil {
				continue
			}
			s.Sets += max(rec.Sets, len(rec.Weights), len(rec.Reps))
			vol := d.Volume
			if v := stats.ParseNumbers(table.Get(row, sheet.ColVolume)); len(v) > 0 {
				vol = v[0]
			}
			s.Volume += vol
			s.VolumeByPart[name] += vol

			exercise := strings.ToLower(table.Get(row, sheet.ColExercise))
			if d.OneRepMax > s.BestLifts[exercise] {
				s.BestLifts[exercise] = d.OneRepMax
			}
		}
	}
	s.TrainingDays = len(days)

	cardio, err := r.rows(ctx, sheet.Cardio)
	if err != nil {
		return nil, err
	}
	for _, row := range cardio.Rows {
		if !inWindow(cardio.Get(row, sheet.ColDate)) {
			continue
		}
		s.CardioSessions++
		if m := stats.ParseNumbers(cardio.Get(row, sheet.ColDuration)); len(m) > 0 {
			s.CardioMinutes += m[0]
		}
	}

	dietTable, err := r.rows(ctx, sheet.Diet)
	if err != nil {
		return nil, err
	}
	var kcalSum, scoreSum float64
	var kcalN, scoreN int
	for _, row := range dietTable.Rows {
		if !inWindow(dietTable.Get(row, sheet.ColDate)) {
			continue
		}
		s.DietDays++
		if v := stats.ParseNumbers(dietTable.Get(row, sheet.ColTotalKcal)); len(v) > 0 {
			kcalSum += v[0]
			kcalN++
		}
		if v := stats.ParseNumbers(dietTable.Get(row, sheet.ColScore)); len(v) > 0 {
			scoreSum += v[0]
			scoreN++
		}
	}
	if kcalN > 0 {
		s.MeanKcal = kcalSum / float64(kcalN)
	}
	if scoreN > 0 {
		s.MeanScore = scoreSum / float64(scoreN)
	}
	return s, nil
}

func (r *Reporter) rows(ctx context.Context, name string) (*sheet.Table, error) {
	table, err := r.store.Rows(ctx, name)
	if errors.Is(err, jarvisErrors.ErrNotFound) {
		return &sheet.Table{Name: name}, nil
	}
	return table, err
}

// String is the plain numeric report, also used when the model is unavailable.
func (s *Summary) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Week %s to %s\n\n", s.From, s.To)
	fmt.Fprintf(&b, "Strength: %d training days, %d exercises, %d sets, %s kg total volume\n",
		s.TrainingDays, s.Exercises, s.Sets, stats.FormatNumber(s.Volume))

	parts := make([]string, 0, len(s.VolumeByPart))
	for p := range s.VolumeByPart {
		parts = append(parts, p)
	}
	sort.Strings(parts)
	for _, p := range parts {
		fmt.Fprintf(&b, "  %s: %s kg\n", p, stats.FormatNumber(s.VolumeByPart[p]))
	}

	lifts := make([]string, 0, len(s.BestLifts))
	for l := range s.BestLifts {
		lifts = append(lifts, l)
	}
	sort.Strings(lifts)
	if len(lifts) > 0 {
		b.WriteString("Estimated 1RM:\n")
		for _, l := range lifts {
			fmt.Fprintf(&b, "  %s: %s kg\n", l, stats.FormatNumber(s.BestLifts[l]))
		}
	}

	fmt.Fprintf(&b, "Cardio: %d sessions, %s minutes\n", s.CardioSessions, stats.FormatNumber(s.CardioMinutes))
	fmt.Fprintf(&b, "Diet: %d days logged", s.DietDays)
	if s.MeanKcal > 0 {
		fmt.Fprintf(&b, ", avg %s kcal", stats.FormatNumber(s.MeanKcal))
	}
	if s.MeanScore > 0 {
		fmt.Fprintf(&b, ", avg score %s", stats.FormatNumber(s.MeanScore))
	}
	b.WriteString("\n")
	return b.String()
}

// Build collects the numbers and asks the model to write them up. A model
// failure falls back to the numeric summary.
func (r *Reporter) Build(ctx context.Context) (*mail.Message, error) {
	s, err := r.Collect(ctx)
	if err != nil {
		return nil, err
	}

	numbers := s.String()
	body := numbers
	if r.llm != nil {
		text, err := r.llm.Complete(ctx, r.opts.Prompt+"\n\n"+numbers)
		switch {
		case err != nil:
			slog.WarnContext(ctx, "Report write-up failed, sending numbers only", "error", err)
		case strings.TrimSpace(text) != "":
			body = strings.TrimSpace(text) + "\n\n---\n" + numbers
		}
	}

	return &mail.Message{
		From:    r.opts.From,
		To:      r.opts.To,
		Subject: fmt.Sprintf("Jarvis weekly report %s to %s", s.From, s.To),
		Body:    body,
		Date:    r.opts.Now(),
	}, nil
}

// Send builds the report and delivers it.
func (r *Reporter) Send(ctx context.Context) (*mail.Message, error) {
	msg, err := r.Build(ctx)
	if err != nil {
		return nil, err
	}
	if err := r.sender.Send(ctx, *msg); err != nil {
		return msg, err
	}
	slog.InfoContext(ctx, "Weekly report sent", "transport", r.sender.Name(), "to", msg.To)
	return msg, nil
}
