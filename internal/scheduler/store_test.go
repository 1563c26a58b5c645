package scheduler

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var monday = time.Date(2026, 10, 19, 8, 0, 0, 0, time.UTC)

func TestStore_SyncAddsUpdatesAndDrops(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scheduler.json")
	st, err := NewStore(path)
	require.NoError(t, err)

	require.NoError(t, st.Sync(map[string]string{"stats": "0 23 * * *", "report": "0 9 * * 1"}, monday))

	stats, ok := st.Get("stats")
	require.True(t, ok)
	assert.Equal(t, time.Date(2026, 10, 19, 23, 0, 0, 0, time.UTC), stats.NextRun)
	assert.Equal(t, StatusIdle, stats.LastStatus)

	report, _ := st.Get("report")
	assert.Equal(t, time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC), report.NextRun)

	require.NoError(t, st.Sync(map[string]string{"stats": "30 22 * * *"}, monday))
	_, ok = st.Get("report")
	assert.False(t, ok)
	stats, _ = st.Get("stats")
	assert.Equal(t, time.Date(2026, 10, 19, 22, 30, 0, 0, time.UTC), stats.NextRun)

	reloaded, err := NewStore(path)
	require.NoError(t, err)
	assert.Len(t, reloaded.Jobs(), 1)
}

func TestStore_SyncRejectsBadSpec(t *testing.T) {
	st, err := NewStore(filepath.Join(t.TempDir(), "scheduler.json"))
	require.NoError(t, err)
	assert.ErrorContains(t, st.Sync(map[string]string{"diet": "every night"}, monday), "scheduler.jobs.diet")
}

func TestStore_SyncKeepsMissedRun(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scheduler.json")
	st, err := NewStore(path)
	require.NoError(t, err)
	require.NoError(t, st.Sync(map[string]string{"stats": "0 23 * * *"}, monday))

	later := monday.Add(48 * time.Hour)
	reloaded, err := NewStore(path)
	require.NoError(t, err)
	require.NoError(t, reloaded.Sync(map[string]string{"stats": "0 23 * * *"}, later))

	assert.Equal(t, []string{"stats"}, reloaded.Due(later))
}

func TestStore_LeaseLifecycle(t *testing.T) {
	st, err := NewStore(filepath.Join(t.TempDir(), "scheduler.json"))
	require.NoError(t, err)
	require.NoError(t, st.Sync(map[string]string{"diet": "30 23 * * *"}, monday))

	at := time.Date(2026, 10, 19, 23, 30, 0, 0, time.UTC)
	assert.Equal(t, []string{"diet"}, st.Due(at))

	require.NoError(t, st.AcquireLease("diet", "run1", at.Add(time.Hour), at))
	assert.Error(t, st.AcquireLease("diet", "run2", at.Add(time.Hour), at))
	assert.Empty(t, st.Due(at))

	assert.Error(t, st.Finish("diet", "run2", nil, at))
	require.NoError(t, st.Finish("diet", "run1", errors.New("llm down"), at.Add(time.Minute)))

	job, _ := st.Get("diet")
	assert.Nil(t, job.Lease)
	assert.Equal(t, "run1", job.LastRunID)
	assert.Equal(t, StatusFailed, job.LastStatus)
	assert.Equal(t, "llm down", job.LastError)
	assert.Equal(t, time.Date(2026, 10, 20, 23, 30, 0, 0, time.UTC), job.NextRun)
}

func TestStore_RecoverLeases(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scheduler.json")
	st, err := NewStore(path)
	require.NoError(t, err)
	require.NoError(t, st.Sync(map[string]string{"summary": "45 23 * * *"}, monday))
	require.NoError(t, st.AcquireLease("summary", "crashed", monday.Add(time.Hour), monday))

	reloaded, err := NewStore(path)
	require.NoError(t, err)
	n, err := reloaded.RecoverLeases()
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	job, _ := reloaded.Get("summary")
	assert.Nil(t, job.Lease)
	assert.Equal(t, StatusFailed, job.LastStatus)
	assert.Equal(t, "interrupted", job.LastError)
	assert.Equal(t, "crashed", job.LastRunID)
}
