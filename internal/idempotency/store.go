// Package idempotency remembers which inbound updates were already handled,
// so a redelivered Telegram update is not logged twice.
package idempotency

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	jarvisErrors "github.com/harunnryd/jarvis/internal/errors"

	"github.com/natefinch/atomic"
)

// Store is a set of keys with per-key expiry, persisted as one JSON file.
type Store struct {
	path string
	now  func() time.Time

	mu      sync.Mutex
	expires map[string]time.Time
}

// NewStore loads path, creating it when missing. Expired keys are dropped.
func NewStore(path string) (*Store, error) {
	s := &Store{path: path, now: time.Now, expires: make(map[string]time.Time)}

	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, jarvisErrors.Wrap(err, "create dedup directory")
		}
	case err != nil:
		return nil, jarvisErrors.Wrap(err, "read dedup keys")
	case len(bytes.TrimSpace(data)) > 0:
		if err := json.Unmarshal(data, &s.expires); err != nil {
			return nil, jarvisErrors.Wrap(err, "decode dedup keys "+path)
		}
	}

	s.Prune()
	return s, nil
}

// CheckAndMark reports whether key was seen and is still live, and marks it
// live for ttl from now.
func (s *Store) CheckAndMark(key string, ttl time.Duration) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if exp, ok := s.expires[key]; ok && exp.After(now) {
		return true
	}
	s.expires[key] = now.Add(ttl)
	return false
}

// Save drops expired keys and writes the rest atomically.
func (s *Store) Save() error {
	s.Prune()

	s.mu.Lock()
	data, err := json.MarshalIndent(s.expires, "", "  ")
	s.mu.Unlock()
	if err != nil {
		return jarvisErrors.Wrap(err, "encode dedup keys")
	}
	if err := atomic.WriteFile(s.path, bytes.NewReader(data)); err != nil {
		return jarvisErrors.Wrap(err, "write dedup keys")
	}
	return nil
}

// Prune removes expired keys and returns how many were dropped.
func (s *Store) Prune() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	dropped := 0
	for k, exp := range s.expires {
		if !exp.After(now) {
			delete(s.expires, k)
			dropped++
		}
	}
	return dropped
}

func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.expires)
}
