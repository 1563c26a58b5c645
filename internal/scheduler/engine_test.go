package scheduler

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/harunnryd/jarvis/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type recordingNotifier struct {
	mu      sync.Mutex
	notices []string
}

func (n *recordingNotifier) Send(ctx context.Context, sessionID string, content string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.notices = append(n.notices, content)
	return nil
}

func (n *recordingNotifier) all() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.notices...)
}

type recordingObserver struct {
	mu   sync.Mutex
	runs map[string][]bool
}

func (o *recordingObserver) ObserveJob(job string, ok bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.runs == nil {
		o.runs = make(map[string][]bool)
	}
	o.runs[job] = append(o.runs[job], ok)
}

type clock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *clock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = t
}

func newTestScheduler(t *testing.T, jobs map[string]JobFunc, specs map[string]string, opts Options) *Scheduler {
	t.Helper()
	st, err := NewStore(filepath.Join(t.TempDir(), "scheduler.json"))
	require.NoError(t, err)

	cfg := config.SchedulerConfig{TickInterval: "10ms", ShutdownTimeout: "2s", Jobs: specs}
	s, err := NewScheduler(st, jobs, cfg, opts)
	require.NoError(t, err)
	return s
}

func TestNewScheduler_BadDurations(t *testing.T) {
	st, err := NewStore(filepath.Join(t.TempDir(), "scheduler.json"))
	require.NoError(t, err)

	_, err = NewScheduler(st, nil, config.SchedulerConfig{TickInterval: "often"}, Options{})
	assert.ErrorContains(t, err, "tick interval")
}

func TestScheduler_Lifecycle(t *testing.T) {
	s := newTestScheduler(t, map[string]JobFunc{}, nil, Options{})
	ctx := context.Background()

	assert.Error(t, s.Start(ctx))
	assert.Error(t, s.Health(ctx))

	require.NoError(t, s.Init(ctx))
	require.NoError(t, s.Start(ctx))
	assert.True(t, s.IsRunning())
	assert.NoError(t, s.Health(ctx))

	require.NoError(t, s.Stop(ctx))
	assert.False(t, s.IsRunning())
	assert.NoError(t, s.Stop(ctx))
}

func TestScheduler_RunsDueJobsAndKeepsGoingAfterFailure(t *testing.T) {
	clk := &clock{t: time.Date(2026, 10, 19, 22, 59, 0, 0, time.UTC)}
	notifier := &recordingNotifier{}
	observer := &recordingObserver{}

	var mu sync.Mutex
	var order []string
	record := func(id string) {
		mu.Lock()
		defer mu.Unlock()
		order = append(order, id)
	}

	jobs := map[string]JobFunc{
		"diet": func(ctx context.Context) (string, error) {
			record("diet")
			return "", errors.New("llm down")
		},
		"stats": func(ctx context.Context) (string, error) {
			record("stats")
			return "filled 3, skipped 1, failed 0", nil
		},
		"summary": func(ctx context.Context) (string, error) {
			record("summary")
			panic("boom")
		},
	}
	specs := map[string]string{"stats": "0 23 * * *", "diet": "0 23 * * *", "summary": "0 23 * * *"}
	s := newTestScheduler(t, jobs, specs, Options{Notifier: notifier, Metrics: observer, Now: clk.Now})

	ctx := context.Background()
	require.NoError(t, s.Init(ctx))
	require.NoError(t, s.Start(ctx))
	defer s.Stop(ctx)

	clk.Set(time.Date(2026, 10, 19, 23, 0, 30, 0, time.UTC))

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(order) == 3
	}, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, s.Stop(ctx))

	mu.Lock()
	assert.Equal(t, []string{"diet", "stats", "summary"}, order)
	mu.Unlock()

	notices := notifier.all()
	require.Len(t, notices, 3)
	assert.Contains(t, notices[0], "*diet* failed")
	assert.Equal(t, "*stats* filled 3, skipped 1, failed 0", notices[1])
	assert.Contains(t, notices[2], "*summary* failed")

	assert.Equal(t, []bool{false}, observer.runs["diet"])
	assert.Equal(t, []bool{true}, observer.runs["stats"])

	for _, job := range s.Jobs() {
		assert.Equal(t, time.Date(2026, 10, 20, 23, 0, 0, 0, time.UTC), job.NextRun, job.ID)
	}
	stats, _ := s.store.Get("stats")
	assert.Equal(t, StatusDone, stats.LastStatus)
	assert.Len(t, stats.LastRunID, 26)
}

func TestScheduler_MissedRunFiresOnceOnStart(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "scheduler.json")
	st, err := NewStore(path)
	require.NoError(t, err)
	require.NoError(t, st.Sync(map[string]string{"report": "0 9 * * 1"}, time.Date(2026, 10, 10, 0, 0, 0, 0, time.UTC)))

	clk := &clock{t: time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)}
	var mu sync.Mutex
	runs := 0
	jobs := map[string]JobFunc{"report": func(ctx context.Context) (string, error) {
		mu.Lock()
		defer mu.Unlock()
		runs++
		return "", nil
	}}

	cfg := config.SchedulerConfig{TickInterval: "10ms", ShutdownTimeout: "2s", Jobs: map[string]string{"report": "0 9 * * 1"}}
	s, err := NewScheduler(st, jobs, cfg, Options{Now: clk.Now})
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, s.Init(ctx))
	require.NoError(t, s.Start(ctx))

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return runs == 1
	}, 2*time.Second, 10*time.Millisecond)

	time.Sleep(50 * time.Millisecond)
	require.NoError(t, s.Stop(ctx))

	mu.Lock()
	assert.Equal(t, 1, runs)
	mu.Unlock()

	job, _ := st.Get("report")
	assert.Equal(t, time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC), job.NextRun)
}

func TestScheduler_RunNow(t *testing.T) {
	called := false
	jobs := map[string]JobFunc{"summary": func(ctx context.Context) (string, error) {
		called = true
		return "", nil
	}}
	s := newTestScheduler(t, jobs, map[string]string{"summary": "45 23 * * *"}, Options{})

	assert.Error(t, s.RunNow("summary"))
	require.NoError(t, s.Init(context.Background()))
	assert.Error(t, s.RunNow("stats"))
	require.NoError(t, s.RunNow("summary"))
	assert.True(t, called)
}

func TestNewScheduler_SkipsUnboundJobs(t *testing.T) {
	jobs := map[string]JobFunc{"stats": func(ctx context.Context) (string, error) { return "", nil }}
	s := newTestScheduler(t, jobs, map[string]string{"stats": "0 23 * * *", "backup": "0 1 * * *"}, Options{})

	require.NoError(t, s.Init(context.Background()))
	jobsState := s.Jobs()
	require.Len(t, jobsState, 1)
	assert.Equal(t, "stats", jobsState[0].ID)
}
