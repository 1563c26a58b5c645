// Package dispatch runs one user turn against the model: it sends the
// message with the session history and tool declarations, executes every
// tool call the model asks for, and feeds the results back until the model
// answers in plain text.
package dispatch

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	jarvisErrors "github.com/harunnryd/jarvis/internal/errors"
	"github.com/harunnryd/jarvis/internal/logger"
	"github.com/harunnryd/jarvis/internal/metrics"
	"github.com/harunnryd/jarvis/internal/model"
	"github.com/harunnryd/jarvis/internal/model/contract"
	"github.com/harunnryd/jarvis/internal/session"
)

const DefaultMaxRounds = 10

// Tools is the slice of tool.Runner the loop needs.
type Tools interface {
	Definitions() []contract.ToolDef
	Has(name string) bool
	Execute(ctx context.Context, call *contract.ToolCall) (json.RawMessage, error)
}

// Recaller returns facts worth reminding the model of for a message.
type Recaller interface {
	Retrieve(ctx context.Context, query string) ([]string, error)
}

type Options struct {
	Model        string
	SystemPrompt string
	MaxRounds    int
	Memory       Recaller
	Metrics      *metrics.Metrics
	Location     *time.Location
	Now          func() time.Time
}

type Loop struct {
	router  model.ModelRouter
	tools   Tools
	model   string
	system  string
	max     int
	memory  Recaller
	metrics *metrics.Metrics
	loc     *time.Location
	now     func() time.Time
}

// Result is the outcome of one turn. Visible is false when the model ended
// with no text, which is not an error.
type Result struct {
	Text        string
	Visible     bool
	ToolResults []contract.ToolResult
	Rounds      int
}

func New(router model.ModelRouter, tools Tools, opts Options) *Loop {
	l := &Loop{
		router:  router,
		tools:   tools,
		model:   opts.Model,
		system:  opts.SystemPrompt,
		max:     opts.MaxRounds,
		memory:  opts.Memory,
		metrics: opts.Metrics,
		loc:     opts.Location,
		now:     opts.Now,
	}
	if l.max <= 0 {
		l.max = DefaultMaxRounds
	}
	if l.loc == nil {
		l.loc = time.Local
	}
	if l.now == nil {
		l.now = time.Now
	}
	return l
}

// Run handles one user turn on sess. Only one turn per session runs at a
// time; a second caller waits. The session history gains the user message
// and the final reply only when the turn succeeds.
func (l *Loop) Run(ctx context.Context, sess *session.Session, in session.Input) (*Result, error) {
	if strings.TrimSpace(in.Text) == "" && in.Image == nil {
		return nil, jarvisErrors.InvalidInput("empty message")
	}

	release, err := sess.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	ctx = logger.EnsureTraceID(logger.WithSessionID(ctx, sess.ID))

	res, err := l.run(ctx, sess, in)
	if err != nil {
		rounds := 0
		var le *Error
		if asLoopError(err, &le) {
			rounds = le.Round
		}
		l.metrics.ObserveTurn(rounds, jarvisErrors.Category(err))
		slog.WarnContext(ctx, "Turn failed", "category", jarvisErrors.Category(err), "error", err)
		return nil, err
	}
	l.metrics.ObserveTurn(res.Rounds, "ok")
	return res, nil
}

func (l *Loop) run(ctx context.Context, sess *session.Session, in session.Input) (*Result, error) {
	req := contract.CompletionRequest{
		Model:  l.model,
		System: l.systemPrompt(ctx, in.Text),
		Tools:  l.tools.Definitions(),
	}
	req.Messages = append(sess.Messages(), contract.Message{
		Role:    contract.RoleUser,
		Content: in.Text,
		Image:   in.Image,
	})

	result := &Result{}
	for round := 1; round <= l.max; round++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		result.Rounds = round

		resp, err := l.router.Route(ctx, l.model, req)
		if err != nil {
			return nil, &Error{Stage: StageModel, Round: round, Cause: err}
		}

		if len(resp.ToolCalls) == 0 {
			result.Text = strings.TrimSpace(resp.Content)
			result.Visible = result.Text != ""

			turns := []session.Turn{{Role: session.RoleUser, Content: in.Text, Image: in.Image}}
			if result.Visible {
				turns = append(turns, session.Turn{Role: session.RoleModel, Content: result.Text})
			}
			sess.Append(turns...)

			slog.InfoContext(ctx, "Turn complete", "rounds", round, "tool_calls", len(result.ToolResults), "visible", result.Visible)
			return result, nil
		}

		// Reject the whole response before running any of it.
		for _, call := range resp.ToolCalls {
			if !l.tools.Has(call.Name) {
				l.metrics.RejectTool(call.Name)
				slog.ErrorContext(ctx, "Model requested unknown tool", "tool", call.Name, "round", round)
				return nil, &Error{Stage: StageTool, Round: round, Cause: jarvisErrors.UnknownTool(call.Name)}
			}
		}

		req.Messages = append(req.Messages, contract.Message{
			Role:      contract.RoleAssistant,
			Content:   resp.Content,
			ToolCalls: resp.ToolCalls,
		})

		for i, call := range resp.ToolCalls {
			if call.ID == "" {
				call.ID = fmt.Sprintf("%s_%d_%d", call.Name, round, i)
			}
			tr := contract.ToolResult{CallID: call.ID, Name: call.Name, Result: l.execute(ctx, call)}
			result.ToolResults = append(result.ToolResults, tr)
			req.Messages = append(req.Messages, tr.Message())
		}
	}

	return nil, &Error{
		Stage: StageRounds,
		Round: l.max,
		Cause: fmt.Errorf("%d rounds: %w", l.max, jarvisErrors.ErrMaxRounds),
	}
}

// execute runs one call and always yields a payload for the model; tool
// errors become a failure status the model can explain.
func (l *Loop) execute(ctx context.Context, call *contract.ToolCall) json.RawMessage {
	out, err := l.tools.Execute(ctx, call)
	if err != nil {
		payload, _ := json.Marshal(map[string]string{
			"status": "failure",
			"error":  jarvisErrors.UserMessage(err),
		})
		return payload
	}
	if len(out) == 0 || !json.Valid(out) {
		payload, _ := json.Marshal(map[string]string{"status": "success", "result": string(out)})
		return payload
	}
	return out
}

func (l *Loop) systemPrompt(ctx context.Context, query string) string {
	var sb strings.Builder
	sb.WriteString(strings.TrimSpace(l.system))
	sb.WriteString("\n\nToday is ")
	sb.WriteString(l.now().In(l.loc).Format("Monday, 2006-01-02"))
	sb.WriteString(".")

	if l.memory == nil || strings.TrimSpace(query) == "" {
		return sb.String()
	}
	facts, err := l.memory.Retrieve(ctx, query)
	if err != nil {
		slog.WarnContext(ctx, "Failed to retrieve memories", "error", err)
		return sb.String()
	}
	if len(facts) > 0 {
		sb.WriteString("\n\nKNOWN FACTS ABOUT THE USER:\n")
		for _, f := range facts {
			sb.WriteString("- ")
			sb.WriteString(f)
			sb.WriteString("\n")
		}
	}
	return sb.String()
}
