package tool

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	jarvisErrors "github.com/harunnryd/jarvis/internal/errors"
	"github.com/harunnryd/jarvis/internal/model/contract"
)

// Observer receives one event per executed tool call.
type Observer func(tool string, ok bool, duration time.Duration)

type Runner struct {
	registry *Registry
	observe  Observer
}

func NewRunner(registry *Registry, observe Observer) *Runner {
	if observe == nil {
		observe = func(string, bool, time.Duration) {}
	}
	return &Runner{
		registry: registry,
		observe:  observe,
	}
}

func (r *Runner) Definitions() []contract.ToolDef {
	if r == nil || r.registry == nil {
		return nil
	}
	return r.registry.Definitions()
}

// Has reports whether a call names a registered tool.
func (r *Runner) Has(name string) bool {
	_, ok := r.registry.Get(name)
	return ok
}

// Execute runs one call: lookup, lenient argument check, execution.
func (r *Runner) Execute(ctx context.Context, call *contract.ToolCall) (json.RawMessage, error) {
	t, ok := r.registry.Get(call.Name)
	if !ok {
		return nil, jarvisErrors.UnknownTool(call.Name)
	}
	name := NormalizeToolName(t.Name())

	input := json.RawMessage(call.Input)
	if len(input) == 0 {
		input = json.RawMessage("{}")
	}

	report, err := CheckArguments(t.Parameters(), input)
	if err != nil {
		slog.WarnContext(ctx, "Tool arguments rejected", "tool", name, "error", err)
		r.observe(name, false, 0)
		return nil, jarvisErrors.InvalidInput(err.Error())
	}
	if !report.Clean() {
		slog.WarnContext(ctx, "Tool arguments differ from schema, passing through",
			"tool", name, "unknown", report.Unknown, "missing", report.Missing, "mismatched", report.Mismatched)
	}

	start := time.Now()
	slog.DebugContext(ctx, "Executing tool", "tool", name, "call_id", call.ID)

	result, err := t.Execute(ctx, input)

	duration := time.Since(start)
	r.observe(name, err == nil, duration)
	if err != nil {
		slog.ErrorContext(ctx, "Tool execution failed", "tool", name, "error", err, "duration", duration)
		return nil, err
	}

	slog.InfoContext(ctx, "Tool execution success", "tool", name, "duration", duration)
	return result, nil
}
