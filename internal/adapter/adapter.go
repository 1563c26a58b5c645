// Package adapter connects chat front-ends (terminal, Telegram) and outbound
// notice channels (Slack) to the dispatch loop.
package adapter

import (
	"context"
	"log/slog"

	"github.com/harunnryd/jarvis/internal/dispatch"
	jarvisErrors "github.com/harunnryd/jarvis/internal/errors"
	"github.com/harunnryd/jarvis/internal/session"
)

// InputAdapter defines the interface for adapters that receive messages from external platforms
type InputAdapter interface {
	// Name returns the adapter name (e.g. "telegram", "cli").
	Name() string

	// Start begins listening for messages. Must respect context cancellation.
	Start(ctx context.Context) error

	// Stop gracefully shuts down the adapter.
	Stop(ctx context.Context) error

	// Health checks if the adapter is healthy and connected.
	Health(ctx context.Context) error
}

// OutputAdapter defines the interface for adapters that send text to external platforms
type OutputAdapter interface {
	Name() string

	// Send delivers content. sessionID maps to a platform identifier (chat ID, channel).
	Send(ctx context.Context, sessionID string, content string) error

	Health(ctx context.Context) error
}

// Reply is what a front-end shows for one turn. Err is set when the turn
// failed; Text then holds the status line for the user.
type Reply struct {
	Text    string
	Visible bool
	Err     error
}

// Responder answers one message of a conversation.
type Responder interface {
	Respond(ctx context.Context, sessionID string, in session.Input) Reply
	Reset(sessionID string) error
}

// Chat is the Responder backed by the dispatch loop, one session per key.
type Chat struct {
	loop     *dispatch.Loop
	sessions *session.Manager
}

func NewChat(loop *dispatch.Loop, sessions *session.Manager) *Chat {
	return &Chat{loop: loop, sessions: sessions}
}

func (c *Chat) Respond(ctx context.Context, sessionID string, in session.Input) Reply {
	res, err := c.loop.Run(ctx, c.sessions.Get(sessionID), in)
	if err != nil {
		slog.ErrorContext(ctx, "Turn failed", "session", sessionID, "category", jarvisErrors.Category(err), "error", err)
		return Reply{Text: jarvisErrors.UserMessage(err), Visible: true, Err: err}
	}
	return Reply{Text: res.Text, Visible: res.Visible}
}

func (c *Chat) Reset(sessionID string) error {
	return c.sessions.Get(sessionID).Reset()
}
