package adapter

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/harunnryd/jarvis/internal/concurrency"
	"github.com/harunnryd/jarvis/internal/config"
	jarvisErrors "github.com/harunnryd/jarvis/internal/errors"
	"github.com/harunnryd/jarvis/internal/idempotency"

	"go.uber.org/multierr"
)

// NoticeLog is the output that only logs; it receives notices when no
// chat channel for them is configured.
const NoticeLog = "log"

type RuntimeAdapterOptions struct {
	Dedup *idempotency.Store
}

// RuntimeManager owns the daemon's front-ends. Telegram is both an input and
// an output; Slack and the log sink only receive notices.
type RuntimeManager struct {
	mu      sync.RWMutex
	inputs  []InputAdapter
	outputs map[string]OutputAdapter
	names   []string
	notices string

	runs    *concurrency.Group
	started bool
}

func NewRuntimeManager(cfg *config.Config, responder Responder, opts RuntimeAdapterOptions) (*RuntimeManager, error) {
	m := &RuntimeManager{outputs: make(map[string]OutputAdapter), notices: NoticeLog}

	if err := m.addOutput(NewNullAdapter(NoticeLog)); err != nil {
		return nil, err
	}

	if url := strings.TrimSpace(cfg.Slack.WebhookURL); url != "" {
		if err := m.addOutput(NewSlackAdapter(url)); err != nil {
			return nil, err
		}
		m.notices = "slack"
	}

	if cfg.Telegram.Enabled {
		token := strings.TrimSpace(cfg.Telegram.BotToken)
		if token == "" {
			return nil, jarvisErrors.InvalidInput("telegram.bot_token is required when telegram is enabled")
		}
		dedupTTL, err := config.DurationOrDefault(cfg.Telegram.DedupTTL, config.DefaultTelegramDedupTTL)
		if err != nil {
			return nil, jarvisErrors.InvalidInput("telegram.dedup_ttl: " + err.Error())
		}

		tg := NewTelegramAdapter(token, responder, TelegramOptions{
			UpdateTimeout:  cfg.Telegram.UpdateTimeout,
			AllowedChatIDs: cfg.Telegram.AllowedChatIDs,
			Dedup:          opts.Dedup,
			DedupTTL:       dedupTTL,
		})
		m.inputs = append(m.inputs, tg)
		if err := m.addOutput(tg); err != nil {
			return nil, err
		}
	}

	return m, nil
}

func (m *RuntimeManager) addOutput(o OutputAdapter) error {
	name := o.Name()
	if _, dup := m.outputs[name]; dup {
		return jarvisErrors.InvalidInput("output adapter registered twice: " + name)
	}
	m.outputs[name] = o
	m.names = append(m.names, name)
	return nil
}

// OutputNames lists outputs in registration order.
func (m *RuntimeManager) OutputNames() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]string(nil), m.names...)
}

// Output returns the output adapter registered under name, or nil.
func (m *RuntimeManager) Output(name string) OutputAdapter {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.outputs[name]
}

// NoticeChannel names the output that Send delivers to.
func (m *RuntimeManager) NoticeChannel() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.notices
}

// Send delivers a batch or report notice. A failing chat channel falls back
// to the log so the notice is never lost silently.
func (m *RuntimeManager) Send(ctx context.Context, sessionID string, content string) error {
	m.mu.RLock()
	primary := m.outputs[m.notices]
	fallback := m.outputs[NoticeLog]
	m.mu.RUnlock()

	err := primary.Send(ctx, sessionID, content)
	if err == nil || primary == fallback {
		return err
	}
	slog.WarnContext(ctx, "Notice channel failed, logging instead", "channel", primary.Name(), "error", err)
	return multierr.Append(err, fallback.Send(ctx, sessionID, content))
}

// Start launches every input adapter in the background. Calling it twice is a no-op.
func (m *RuntimeManager) Start(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.started {
		return
	}
	m.started = true
	m.runs = &concurrency.Group{}

	for _, input := range m.inputs {
		in := input
		m.runs.Go("adapter "+in.Name(), func() {
			slog.Info("Starting input adapter", "adapter", in.Name())
			if err := in.Start(ctx); err != nil && ctx.Err() == nil {
				slog.Error("Input adapter stopped with error", "adapter", in.Name(), "error", err)
			}
		})
	}
}

// Stop stops every input adapter and waits for their run goroutines.
func (m *RuntimeManager) Stop(ctx context.Context) error {
	m.mu.Lock()
	if !m.started {
		m.mu.Unlock()
		return nil
	}
	m.started = false
	inputs := append([]InputAdapter(nil), m.inputs...)
	runs := m.runs
	m.mu.Unlock()

	var errs error
	for _, in := range inputs {
		if err := in.Stop(ctx); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("%s: %w", in.Name(), err))
		}
	}

	done := make(chan struct{})
	go func() {
		runs.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		errs = multierr.Append(errs, ctx.Err())
	}
	return errs
}

// Health reports every unhealthy adapter, not only the first.
func (m *RuntimeManager) Health(ctx context.Context) error {
	m.mu.RLock()
	inputs := append([]InputAdapter(nil), m.inputs...)
	outputs := make([]OutputAdapter, 0, len(m.names))
	for _, name := range m.names {
		outputs = append(outputs, m.outputs[name])
	}
	m.mu.RUnlock()

	var errs error
	checked := make(map[string]bool)
	for _, in := range inputs {
		checked[in.Name()] = true
		if err := in.Health(ctx); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("%s: %w", in.Name(), err))
		}
	}
	for _, out := range outputs {
		if checked[out.Name()] {
			continue
		}
		if err := out.Health(ctx); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("%s: %w", out.Name(), err))
		}
	}
	return errs
}
