// Package runtime assembles the Jarvis object graph from configuration for
// the chat REPL, the daemon and the one-shot batch commands.
package runtime

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/harunnryd/jarvis/internal/adapter"
	"github.com/harunnryd/jarvis/internal/config"
	"github.com/harunnryd/jarvis/internal/diet"
	"github.com/harunnryd/jarvis/internal/dispatch"
	"github.com/harunnryd/jarvis/internal/journal"
	"github.com/harunnryd/jarvis/internal/mail"
	"github.com/harunnryd/jarvis/internal/memory"
	"github.com/harunnryd/jarvis/internal/metrics"
	"github.com/harunnryd/jarvis/internal/model"
	"github.com/harunnryd/jarvis/internal/report"
	"github.com/harunnryd/jarvis/internal/scheduler"
	"github.com/harunnryd/jarvis/internal/session"
	"github.com/harunnryd/jarvis/internal/sheet"
	"github.com/harunnryd/jarvis/internal/stats"
	"github.com/harunnryd/jarvis/internal/tool"
)

// StoreFactory opens the tabular store selected by configuration.
type StoreFactory func(ctx context.Context, cfg config.StoreConfig) (sheet.Store, error)

type RuntimeComponents struct {
	Ctx    context.Context
	Cancel context.CancelFunc
	Config *config.Config

	Location *time.Location
	Store    sheet.Store
	Router   model.ModelRouter
	Memory   *memory.VectorMemory
	Metrics  *metrics.Metrics

	Journal      *journal.Journal
	ToolRegistry *tool.Registry
	ToolRunner   *tool.Runner
	Loop         *dispatch.Loop
	Sessions     *session.Manager
	Chat         *adapter.Chat

	Filler   *stats.Filler
	Scorer   *diet.Scorer
	Summary  *stats.SummaryBuilder
	Reporter *report.Reporter
	Sender   mail.Sender
}

func NewRuntimeComponents(ctx context.Context, cfg *config.Config, openStore StoreFactory, router model.ModelRouter) (*RuntimeComponents, error) {
	ctx, cancel := context.WithCancel(ctx)
	rc := &RuntimeComponents{Ctx: ctx, Cancel: cancel, Config: cfg, Metrics: metrics.New()}

	if err := rc.build(openStore, router); err != nil {
		rc.Stop()
		return nil, err
	}
	return rc, nil
}

func (rc *RuntimeComponents) build(openStore StoreFactory, router model.ModelRouter) error {
	cfg := rc.Config

	loc, err := time.LoadLocation(strings.TrimSpace(cfg.Journal.Timezone))
	if err != nil {
		return fmt.Errorf("journal.timezone: %w", err)
	}
	rc.Location = loc

	rc.Store, err = openStore(rc.Ctx, cfg.Store)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}

	if router == nil {
		r, err := model.NewModelRouter(cfg.Models)
		if err != nil {
			return fmt.Errorf("model router: %w", err)
		}
		router = r
	}
	rc.Router = router

	var facts journal.FactStore
	var recall dispatch.Recaller
	if cfg.Memory.Enabled {
		rc.Memory, err = memory.New(router, memory.Options{
			Path:           cfg.Memory.Path,
			Collection:     cfg.Memory.Collection,
			EmbeddingModel: cfg.Models.Embedding,
			TopK:           cfg.Memory.TopK,
		})
		if err != nil {
			return fmt.Errorf("vector memory: %w", err)
		}
		facts, recall = rc.Memory, rc.Memory
	}

	rc.Journal = journal.New(rc.Store, journal.Options{
		Location:        loc,
		DefaultQuantity: cfg.Journal.DefaultQuantity,
		Facts:           facts,
	})

	rc.ToolRegistry = tool.NewRegistry()
	if err := tool.RegisterBuiltins(rc.ToolRegistry, tool.BuiltinOptions{Journal: rc.Journal}); err != nil {
		return fmt.Errorf("register tools: %w", err)
	}
	rc.ToolRunner = tool.NewRunner(rc.ToolRegistry, rc.Metrics.ObserveTool)

	rc.Loop = dispatch.New(router, rc.ToolRunner, dispatch.Options{
		Model:        cfg.Models.Default,
		SystemPrompt: cfg.Prompts.System,
		MaxRounds:    cfg.Dispatch.MaxRounds,
		Memory:       recall,
		Metrics:      rc.Metrics,
		Location:     loc,
	})

	var transcript *session.Transcript
	if dir := strings.TrimSpace(cfg.Dispatch.TranscriptDir); dir != "" {
		transcript, err = session.NewTranscript(dir, 0)
		if err != nil {
			return fmt.Errorf("transcripts: %w", err)
		}
	}
	rc.Sessions = session.NewManager(transcript, cfg.Dispatch.HistoryLimit)
	rc.Chat = adapter.NewChat(rc.Loop, rc.Sessions)

	delay, err := config.DurationOrDefault(cfg.Batch.LLMDelay, config.DefaultBatchLLMDelay)
	if err != nil {
		return fmt.Errorf("batch.llm_delay: %w", err)
	}
	llm := model.NewClient(router, cfg.Models.Default, "")

	var coach stats.Completer
	if cfg.Batch.CoachEnabled {
		coach = llm
	}
	rc.Filler = stats.NewFiller(rc.Store, coach, cfg.Prompts.Coach, delay)
	rc.Scorer = diet.NewScorer(rc.Store, llm, cfg.Prompts.Diet, delay)
	rc.Summary = stats.NewSummaryBuilder(rc.Store)

	rc.Sender, err = NewSender(rc.Ctx, cfg.Report)
	if err != nil {
		return err
	}
	rc.Reporter = report.New(rc.Store, llm, rc.Sender, report.Options{
		Days:     cfg.Report.Days,
		Prompt:   cfg.Prompts.Report,
		From:     cfg.Report.From,
		To:       splitAddresses(cfg.Report.To),
		Location: loc,
	})

	slog.Debug("Runtime assembled", "store", cfg.Store.Backend, "model", cfg.Models.Default, "memory", cfg.Memory.Enabled, "mail", rc.Sender.Name())
	return nil
}

// Jobs binds the scheduler job names to the batch operations. Each job
// reports its counts to metrics and returns a one-line notice.
func (rc *RuntimeComponents) Jobs() map[string]scheduler.JobFunc {
	batch := func(run func(context.Context) (*stats.BatchReport, error)) scheduler.JobFunc {
		return func(ctx context.Context) (string, error) {
			rep, err := run(ctx)
			if err != nil {
				return "", err
			}
			rc.Metrics.ObserveBatch(rep.Job, rep.Filled, rep.Skipped, rep.Failed)
			for _, e := range rep.Errors() {
				slog.WarnContext(ctx, "Record skipped", "job", rep.Job, "error", e)
			}
			return rep.String(), nil
		}
	}

	return map[string]scheduler.JobFunc{
		"stats":   batch(rc.Filler.Fill),
		"diet":    batch(rc.Scorer.ScoreBlank),
		"summary": batch(rc.Summary.Build),
		"report": func(ctx context.Context) (string, error) {
			msg, err := rc.Reporter.Send(ctx)
			if err != nil {
				return "", err
			}
			return fmt.Sprintf("sent %q via %s", msg.Subject, rc.Sender.Name()), nil
		},
	}
}

// Stop cancels the runtime context; in-flight turns and jobs observe it.
func (rc *RuntimeComponents) Stop() {
	if rc.Cancel != nil {
		rc.Cancel()
	}
}

func splitAddresses(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if addr := strings.TrimSpace(part); addr != "" {
			out = append(out, addr)
		}
	}
	return out
}
