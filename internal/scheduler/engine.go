// Package scheduler runs the nightly batch jobs (stats fill, diet scoring,
// summary) and the weekly report on cron schedules.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/harunnryd/jarvis/internal/config"
	jarvisErrors "github.com/harunnryd/jarvis/internal/errors"
	"github.com/harunnryd/jarvis/internal/logger"
)

type Component interface {
	Init(ctx context.Context) error
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
	Health(ctx context.Context) error
}

// JobFunc performs one run and returns a short notice describing the outcome.
type JobFunc func(ctx context.Context) (string, error)

// Notifier receives job notices; adapter.OutputAdapter satisfies it.
type Notifier interface {
	Send(ctx context.Context, sessionID string, content string) error
}

type Observer interface {
	ObserveJob(job string, ok bool)
}

type Options struct {
	Notifier Notifier
	Metrics  Observer
	Now      func() time.Time
}

type Scheduler struct {
	store     *Store
	jobs      map[string]JobFunc
	schedules map[string]string
	notifier  Notifier
	metrics   Observer
	now       func() time.Time

	mu      sync.RWMutex
	ctx     context.Context
	cancel  context.CancelFunc
	running bool
	ticker  *time.Ticker
	done    chan struct{}

	tickInterval    time.Duration
	shutdownTimeout time.Duration
	leaseDuration   time.Duration
}

// NewScheduler binds each configured cron spec to its job. Specs without a
// job and jobs without a spec are skipped with a warning.
func NewScheduler(store *Store, jobs map[string]JobFunc, cfg config.SchedulerConfig, opts Options) (*Scheduler, error) {
	tickInterval, err := config.DurationOrDefault(cfg.TickInterval, config.DefaultSchedulerTickInterval)
	if err != nil {
		return nil, fmt.Errorf("parse scheduler tick interval: %w", err)
	}

	shutdownTimeout, err := config.DurationOrDefault(cfg.ShutdownTimeout, config.DefaultSchedulerShutdownTimeout)
	if err != nil {
		return nil, fmt.Errorf("parse scheduler shutdown timeout: %w", err)
	}

	schedules := make(map[string]string, len(jobs))
	for id, spec := range cfg.Jobs {
		if spec == "" {
			continue
		}
		if _, ok := jobs[id]; !ok {
			slog.Warn("Scheduled job has no implementation", "job", id)
			continue
		}
		schedules[id] = spec
	}
	for id := range jobs {
		if _, ok := schedules[id]; !ok {
			slog.Info("Job not scheduled", "job", id)
		}
	}

	now := opts.Now
	if now == nil {
		now = time.Now
	}

	return &Scheduler{
		store:           store,
		jobs:            jobs,
		schedules:       schedules,
		notifier:        opts.Notifier,
		metrics:         opts.Metrics,
		now:             now,
		tickInterval:    tickInterval,
		shutdownTimeout: shutdownTimeout,
		leaseDuration:   shutdownTimeout + time.Hour,
	}, nil
}

func (s *Scheduler) Init(ctx context.Context) error {
	s.ctx, s.cancel = context.WithCancel(ctx)

	if err := s.store.Sync(s.schedules, s.now()); err != nil {
		return fmt.Errorf("sync jobs: %w", err)
	}

	recovered, err := s.store.RecoverLeases()
	if err != nil {
		return fmt.Errorf("recover leases: %w", err)
	}
	if recovered > 0 {
		slog.Warn("Recovered interrupted job runs", "count", recovered)
	}

	slog.Info("Scheduler initialized", "jobs", len(s.schedules))
	return nil
}

// Start runs missed jobs once, then checks for due jobs every tick.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil
	}
	if s.ctx == nil {
		s.mu.Unlock()
		return jarvisErrors.Internal("scheduler not initialized")
	}
	s.running = true
	s.ticker = time.NewTicker(s.tickInterval)
	s.done = make(chan struct{})
	s.mu.Unlock()

	go s.run()

	slog.Info("Scheduler started", "tick", s.tickInterval)
	return nil
}

// Stop cancels the loop and waits for the job in flight.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = false
	s.mu.Unlock()

	s.ticker.Stop()
	s.cancel()

	timer := time.NewTimer(s.shutdownTimeout)
	defer timer.Stop()

	select {
	case <-s.done:
		slog.Info("Scheduler stopped gracefully")
		return nil
	case <-timer.C:
		slog.Warn("Scheduler shutdown timeout, force stopping")
		return jarvisErrors.Internal("shutdown timeout")
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Scheduler) Health(ctx context.Context) error {
	if s.ctx == nil {
		return jarvisErrors.Internal("scheduler not initialized")
	}
	if !s.IsRunning() {
		return jarvisErrors.Internal("scheduler not running")
	}
	return nil
}

func (s *Scheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}

// Jobs reports the persisted state of every scheduled job.
func (s *Scheduler) Jobs() []Job {
	return s.store.Jobs()
}

func (s *Scheduler) run() {
	defer close(s.done)

	s.runDue()
	for {
		select {
		case <-s.ticker.C:
			s.runDue()
		case <-s.ctx.Done():
			slog.Info("Scheduler run loop stopped")
			return
		}
	}
}

// runDue executes every due job serially.
func (s *Scheduler) runDue() {
	for _, id := range s.store.Due(s.now()) {
		if s.ctx.Err() != nil {
			return
		}
		s.execute(id)
	}
}

// RunNow executes job id immediately, outside its schedule.
func (s *Scheduler) RunNow(id string) error {
	if _, ok := s.schedules[id]; !ok {
		return jarvisErrors.NotFound("job " + id)
	}
	if s.ctx == nil {
		return jarvisErrors.Internal("scheduler not initialized")
	}
	return s.execute(id)
}

func (s *Scheduler) execute(id string) error {
	fn := s.jobs[id]
	runID := generateRunID()
	ctx := logger.WithTraceID(s.ctx, runID)

	start := s.now()
	if err := s.store.AcquireLease(id, runID, start.Add(s.leaseDuration), start); err != nil {
		slog.ErrorContext(ctx, "Failed to acquire job lease", "job", id, "error", err)
		return err
	}

	slog.InfoContext(ctx, "Job started", "job", id, "run_id", runID)
	notice, runErr := s.call(ctx, id, fn)

	if err := s.store.Finish(id, runID, runErr, s.now()); err != nil {
		slog.ErrorContext(ctx, "Failed to record job run", "job", id, "error", err)
	}
	if s.metrics != nil {
		s.metrics.ObserveJob(id, runErr == nil)
	}

	if runErr != nil {
		slog.ErrorContext(ctx, "Job failed", "job", id, "run_id", runID, "category", jarvisErrors.Category(runErr), "error", runErr)
		s.notify(ctx, id, fmt.Sprintf("*%s* failed: %s", id, jarvisErrors.UserMessage(runErr)))
		return runErr
	}

	slog.InfoContext(ctx, "Job finished", "job", id, "run_id", runID, "duration", s.now().Sub(start))
	if notice != "" {
		s.notify(ctx, id, fmt.Sprintf("*%s* %s", id, notice))
	}
	return nil
}

// call runs fn, turning a panic into an error so one job cannot stop the loop.
func (s *Scheduler) call(ctx context.Context, id string, fn JobFunc) (notice string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = jarvisErrors.Internal(fmt.Sprintf("job %s panicked: %v", id, r))
		}
	}()
	return fn(ctx)
}

func (s *Scheduler) notify(ctx context.Context, id, content string) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Send(ctx, "scheduler:"+id, content); err != nil {
		slog.WarnContext(ctx, "Job notice not delivered", "job", id, "error", err)
	}
}
