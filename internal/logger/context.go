package logger

import (
	"context"

	"github.com/oklog/ulid/v2"
)

type ctxKey int

const (
	traceKey ctxKey = iota
	sessionKey
)

// WithTraceID tags ctx with the id of one chat turn or scheduled run.
func WithTraceID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, traceKey, id)
}

// EnsureTraceID keeps an inherited trace id and mints a ULID otherwise.
func EnsureTraceID(ctx context.Context) context.Context {
	if GetTraceID(ctx) != "" {
		return ctx
	}
	return WithTraceID(ctx, ulid.Make().String())
}

func GetTraceID(ctx context.Context) string {
	id, _ := ctx.Value(traceKey).(string)
	return id
}

// WithSessionID tags ctx with the chat session ("cli", "telegram:<chat id>").
func WithSessionID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, sessionKey, id)
}

func GetSessionID(ctx context.Context) string {
	id, _ := ctx.Value(sessionKey).(string)
	return id
}
