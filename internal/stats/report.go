package stats

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/multierr"
)

// Completer is the single-shot LLM call used for coaching and scoring comments.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// BatchReport summarises one batch pass. Per-record failures are collected in
// Err and never stop the pass.
type BatchReport struct {
	Job       string
	Processed int
	Filled    int
	Skipped   int
	Failed    int
	Err       error
}

// Fail records one record failure.
func (r *BatchReport) Fail(where string, err error) {
	r.Failed++
	r.Err = multierr.Append(r.Err, fmt.Errorf("%s: %w", where, err))
}

// Errors lists the individual record failures.
func (r *BatchReport) Errors() []error {
	return multierr.Errors(r.Err)
}

func (r *BatchReport) String() string {
	return fmt.Sprintf("%s: %d processed, %d filled, %d already done, %d failed", r.Job, r.Processed, r.Filled, r.Skipped, r.Failed)
}

// Wait blocks for d or until ctx is done.
func Wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
