package components

import (
	"context"
	"fmt"

	"github.com/harunnryd/jarvis/internal/daemon"
	"github.com/harunnryd/jarvis/internal/scheduler"
)

type SchedulerComponent struct {
	sched *scheduler.Scheduler
}

func NewSchedulerComponent(sched *scheduler.Scheduler) *SchedulerComponent {
	return &SchedulerComponent{sched: sched}
}

func (s *SchedulerComponent) Name() string {
	return "Scheduler"
}

// Dependencies puts the scheduler after the adapters so job notices have a channel.
func (s *SchedulerComponent) Dependencies() []string {
	return []string{"Adapters"}
}

func (s *SchedulerComponent) Init(ctx context.Context) error {
	if s.sched == nil {
		return fmt.Errorf("scheduler not configured")
	}
	return s.sched.Init(ctx)
}

func (s *SchedulerComponent) Start(ctx context.Context) error {
	if err := s.sched.Start(ctx); err != nil {
		return fmt.Errorf("failed to start scheduler: %w", err)
	}
	return nil
}

func (s *SchedulerComponent) Stop(ctx context.Context) error {
	if s.sched == nil {
		return nil
	}
	return s.sched.Stop(ctx)
}

func (s *SchedulerComponent) Health(ctx context.Context) (*daemon.ComponentHealth, error) {
	if s.sched == nil {
		return &daemon.ComponentHealth{Name: s.Name(), Error: fmt.Errorf("not configured")}, nil
	}
	if err := s.sched.Health(ctx); err != nil {
		return &daemon.ComponentHealth{Name: s.Name(), Error: err}, nil
	}
	return &daemon.ComponentHealth{Name: s.Name(), Healthy: true}, nil
}

func (s *SchedulerComponent) GetScheduler() *scheduler.Scheduler {
	return s.sched
}
