// Package session holds one conversation: its append-only history and the
// guarantee that only one turn is in flight at a time.
package session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/harunnryd/jarvis/internal/model/contract"
)

type Role string

const (
	RoleUser  Role = "user"
	RoleModel Role = "model"
)

// Input is what the person sent for one turn.
type Input struct {
	Text  string
	Image *contract.Image
}

// Turn is one history entry. Images are kept in memory only.
type Turn struct {
	Role    Role            `json:"role"`
	Content string          `json:"content"`
	Image   *contract.Image `json:"-"`
	At      time.Time       `json:"at"`
}

type Session struct {
	ID string

	slot       chan struct{}
	mu         sync.Mutex
	turns      []Turn
	limit      int
	transcript *Transcript
}

type Option func(*Session)

// WithHistoryLimit caps how many past turns are replayed to the model.
func WithHistoryLimit(n int) Option {
	return func(s *Session) {
		if n > 0 {
			s.limit = n
		}
	}
}

// WithTranscript persists turns and restores the tail of a previous run.
func WithTranscript(t *Transcript) Option {
	return func(s *Session) { s.transcript = t }
}

func New(id string, opts ...Option) *Session {
	s := &Session{
		ID:    id,
		slot:  make(chan struct{}, 1),
		limit: 40,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.transcript != nil {
		turns, err := s.transcript.Read(id, s.limit)
		if err != nil {
			slog.Warn("Failed to read transcript", "session", id, "error", err)
		}
		s.turns = turns
	}
	return s
}

// Begin waits until no other turn is running on this session. The returned
// func releases the slot.
func (s *Session) Begin(ctx context.Context) (func(), error) {
	select {
	case s.slot <- struct{}{}:
		var once sync.Once
		return func() { once.Do(func() { <-s.slot }) }, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// History returns a copy of the most recent turns, oldest first.
func (s *Session) History() []Turn {
	s.mu.Lock()
	defer s.mu.Unlock()

	turns := s.turns
	if len(turns) > s.limit {
		turns = turns[len(turns)-s.limit:]
	}
	out := make([]Turn, len(turns))
	copy(out, turns)
	return out
}

// Append adds turns to the history. Transcript failures are logged only.
func (s *Session) Append(turns ...Turn) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, t := range turns {
		if t.At.IsZero() {
			t.At = time.Now()
		}
		s.turns = append(s.turns, t)
		if s.transcript != nil {
			if err := s.transcript.Append(s.ID, t); err != nil {
				slog.Warn("Failed to write transcript", "session", s.ID, "error", err)
			}
		}
	}
	// keep memory bounded; the transcript has the rest
	if over := len(s.turns) - 2*s.limit; over > 0 {
		s.turns = append([]Turn(nil), s.turns[over:]...)
	}
}

// Reset forgets the conversation.
func (s *Session) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.turns = nil
	if s.transcript != nil {
		return s.transcript.Reset(s.ID)
	}
	return nil
}

// Messages renders the history in the model contract.
func (s *Session) Messages() []contract.Message {
	history := s.History()
	msgs := make([]contract.Message, 0, len(history))
	for _, t := range history {
		role := contract.RoleUser
		if t.Role == RoleModel {
			role = contract.RoleAssistant
		}
		msgs = append(msgs, contract.Message{Role: role, Content: t.Content, Image: t.Image})
	}
	return msgs
}
