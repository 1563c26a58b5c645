package session

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
)

const defaultRotateMaxBytes = 5 << 20

// Transcript stores each session as a JSON-lines file under dir.
type Transcript struct {
	dir            string
	rotateMaxBytes int64
}

type event struct {
	ID string `json:"id"`
	Turn
}

func NewTranscript(dir string, rotateMaxBytes int64) (*Transcript, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create transcript dir %s: %w", dir, err)
	}
	if rotateMaxBytes <= 0 {
		rotateMaxBytes = defaultRotateMaxBytes
	}
	return &Transcript{dir: dir, rotateMaxBytes: rotateMaxBytes}, nil
}

func (t *Transcript) path(sessionID string) string {
	return filepath.Join(t.dir, sanitize(sessionID)+".jsonl")
}

func (t *Transcript) Append(sessionID string, turn Turn) error {
	line, err := json.Marshal(event{ID: ulid.Make().String(), Turn: turn})
	if err != nil {
		return fmt.Errorf("marshal failed: %w", err)
	}

	path := t.path(sessionID)
	if err := t.checkAndRotate(sessionID, path); err != nil {
		slog.Warn("Failed to rotate transcript", "session", sessionID, "error", err)
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	defer f.Close()

	if _, err := f.Write(append(line, '\n')); err != nil {
		return err
	}
	return f.Sync()
}

// Read returns the last limit turns; a missing file is an empty history.
func (t *Transcript) Read(sessionID string, limit int) ([]Turn, error) {
	data, err := os.ReadFile(t.path(sessionID))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if limit > 0 && len(lines) > limit {
		lines = lines[len(lines)-limit:]
	}

	turns := make([]Turn, 0, len(lines))
	for _, line := range lines {
		if line == "" {
			continue
		}
		var evt event
		if err := json.Unmarshal([]byte(line), &evt); err != nil {
			continue
		}
		turns = append(turns, evt.Turn)
	}
	return turns, nil
}

func (t *Transcript) Reset(sessionID string) error {
	if err := os.Remove(t.path(sessionID)); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

func (t *Transcript) checkAndRotate(sessionID, path string) error {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}
	if info.Size() < t.rotateMaxBytes {
		return nil
	}

	slog.Info("Rotating transcript", "session", sessionID, "size", info.Size())
	backupPath := fmt.Sprintf("%s.%s.bak", path, time.Now().Format("20060102150405"))
	if err := os.Rename(path, backupPath); err != nil {
		return fmt.Errorf("failed to rename: %w", err)
	}
	return nil
}

func sanitize(id string) string {
	return strings.Map(func(r rune) rune {
		if r == '/' || r == '\\' || r == ':' || r == '.' {
			return '_'
		}
		return r
	}, id)
}
