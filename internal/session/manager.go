package session

import "sync"

// Manager hands out one Session per conversation key (a chat ID, "cli").
type Manager struct {
	mu         sync.Mutex
	sessions   map[string]*Session
	transcript *Transcript
	limit      int
}

func NewManager(transcript *Transcript, historyLimit int) *Manager {
	return &Manager{
		sessions:   make(map[string]*Session),
		transcript: transcript,
		limit:      historyLimit,
	}
}

func (m *Manager) Get(id string) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()

	if s, ok := m.sessions[id]; ok {
		return s
	}
	opts := []Option{WithHistoryLimit(m.limit)}
	if m.transcript != nil {
		opts = append(opts, WithTranscript(m.transcript))
	}
	s := New(id, opts...)
	m.sessions[id] = s
	return s
}
