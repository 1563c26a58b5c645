package adapter

import (
	"context"
	"log/slog"
)

// NullAdapter accepts everything and writes it to the log.
type NullAdapter struct {
	name string
}

func NewNullAdapter(name string) *NullAdapter {
	if name == "" {
		name = "null"
	}
	return &NullAdapter{name: name}
}

func (a *NullAdapter) Name() string {
	return a.name
}

func (a *NullAdapter) Send(ctx context.Context, sessionID string, content string) error {
	slog.InfoContext(ctx, "Notice", "adapter", a.name, "session", sessionID, "content", content)
	return nil
}

func (a *NullAdapter) Health(ctx context.Context) error {
	return nil
}
