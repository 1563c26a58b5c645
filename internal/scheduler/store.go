package scheduler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"sync"
	"time"

	jarvisErrors "github.com/harunnryd/jarvis/internal/errors"

	"github.com/natefinch/atomic"
	"github.com/oklog/ulid/v2"
	"github.com/robfig/cron/v3"
)

type RunStatus string

const (
	StatusIdle    RunStatus = "IDLE"
	StatusRunning RunStatus = "RUNNING"
	StatusDone    RunStatus = "DONE"
	StatusFailed  RunStatus = "FAILED"
)

// Lease marks a run in progress. A lease still present at startup belongs to
// a run the previous process never finished.
type Lease struct {
	RunID     string    `json:"run_id"`
	ExpiresAt time.Time `json:"expires_at"`
}

type Job struct {
	ID         string    `json:"id"`
	Schedule   string    `json:"schedule"`
	NextRun    time.Time `json:"next_run"`
	LastRunID  string    `json:"last_run_id,omitempty"`
	LastRunAt  time.Time `json:"last_run_at,omitempty"`
	LastStatus RunStatus `json:"last_status,omitempty"`
	LastError  string    `json:"last_error,omitempty"`
	Lease      *Lease    `json:"lease,omitempty"`
}

type jobState struct {
	Jobs map[string]*Job `json:"jobs"`
}

// Store persists job state as one JSON file, replaced atomically on every change.
type Store struct {
	path string
	data jobState
	mu   sync.RWMutex
}

func NewStore(path string) (*Store, error) {
	s := &Store{
		path: path,
		data: jobState{Jobs: make(map[string]*Job)},
	}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	content, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}
	if len(content) == 0 {
		return nil
	}
	if err := json.Unmarshal(content, &s.data); err != nil {
		return fmt.Errorf("parse %s: %w", s.path, err)
	}
	if s.data.Jobs == nil {
		s.data.Jobs = make(map[string]*Job)
	}
	return nil
}

// save writes the state; the caller holds the lock.
func (s *Store) save() error {
	b, err := json.MarshalIndent(s.data, "", "  ")
	if err != nil {
		return err
	}
	return atomic.WriteFile(s.path, bytes.NewReader(b))
}

// Sync makes the stored jobs match schedules: new jobs get their first
// next_run after now, changed schedules are recomputed, removed jobs dropped.
// Existing next_run values are kept so a missed run is still due.
func (s *Store) Sync(schedules map[string]string, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, spec := range schedules {
		sched, err := cron.ParseStandard(spec)
		if err != nil {
			return jarvisErrors.InvalidInput(fmt.Sprintf("scheduler.jobs.%s: invalid cron spec %q: %v", id, spec, err))
		}

		job, ok := s.data.Jobs[id]
		if !ok {
			s.data.Jobs[id] = &Job{ID: id, Schedule: spec, NextRun: sched.Next(now), LastStatus: StatusIdle}
			continue
		}
		if job.Schedule != spec {
			job.Schedule = spec
			job.NextRun = sched.Next(now)
		}
	}

	for id := range s.data.Jobs {
		if _, ok := schedules[id]; !ok {
			delete(s.data.Jobs, id)
		}
	}
	return s.save()
}

// Jobs returns copies of all jobs ordered by id.
func (s *Store) Jobs() []Job {
	s.mu.RLock()
	defer s.mu.RUnlock()

	jobs := make([]Job, 0, len(s.data.Jobs))
	for _, j := range s.data.Jobs {
		jobs = append(jobs, *j)
	}
	sort.Slice(jobs, func(a, b int) bool { return jobs[a].ID < jobs[b].ID })
	return jobs
}

func (s *Store) Get(id string) (Job, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	j, ok := s.data.Jobs[id]
	if !ok {
		return Job{}, false
	}
	return *j, true
}

// Due returns the ids of jobs whose next_run is not after now and that hold no live lease.
func (s *Store) Due(now time.Time) []string {
	var due []string
	for _, j := range s.Jobs() {
		if j.NextRun.After(now) {
			continue
		}
		if j.Lease != nil && now.Before(j.Lease.ExpiresAt) {
			continue
		}
		due = append(due, j.ID)
	}
	return due
}

// AcquireLease starts a run of job id.
func (s *Store) AcquireLease(id, runID string, expiresAt, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	j, ok := s.data.Jobs[id]
	if !ok {
		return jarvisErrors.NotFound("job " + id)
	}
	if j.Lease != nil && now.Before(j.Lease.ExpiresAt) {
		return jarvisErrors.Transient("job " + id + " already running")
	}

	j.Lease = &Lease{RunID: runID, ExpiresAt: expiresAt}
	j.LastStatus = StatusRunning
	return s.save()
}

// Finish records the outcome of a run and schedules the next one after now.
func (s *Store) Finish(id, runID string, runErr error, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	j, ok := s.data.Jobs[id]
	if !ok {
		return jarvisErrors.NotFound("job " + id)
	}
	if j.Lease == nil || j.Lease.RunID != runID {
		return jarvisErrors.Internal("lease mismatch for job " + id)
	}

	sched, err := cron.ParseStandard(j.Schedule)
	if err != nil {
		return jarvisErrors.InvalidInput(fmt.Sprintf("invalid cron spec %q: %v", j.Schedule, err))
	}

	j.Lease = nil
	j.LastRunID = runID
	j.LastRunAt = now
	j.LastStatus = StatusDone
	j.LastError = ""
	if runErr != nil {
		j.LastStatus = StatusFailed
		j.LastError = runErr.Error()
	}
	j.NextRun = sched.Next(now)
	return s.save()
}

// RecoverLeases clears leases left by an interrupted process and marks those runs failed.
// The jobs keep their next_run, so they are due again.
func (s *Store) RecoverLeases() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	recovered := 0
	for _, j := range s.data.Jobs {
		if j.Lease == nil {
			continue
		}
		j.LastRunID = j.Lease.RunID
		j.LastStatus = StatusFailed
		j.LastError = "interrupted"
		j.Lease = nil
		recovered++
	}
	if recovered == 0 {
		return 0, nil
	}
	return recovered, s.save()
}

func generateRunID() string {
	return ulid.Make().String()
}
