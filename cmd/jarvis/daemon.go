package main

import (
	"fmt"
	"path/filepath"

	"github.com/harunnryd/jarvis/cmd/jarvis/runtime"
	"github.com/harunnryd/jarvis/internal/adapter"
	"github.com/harunnryd/jarvis/internal/daemon"
	"github.com/harunnryd/jarvis/internal/daemon/components"
	"github.com/harunnryd/jarvis/internal/idempotency"
	"github.com/harunnryd/jarvis/internal/scheduler"

	"github.com/spf13/cobra"
)

var daemonCmd = &cobra.Command{
	Use:   "daemon",
	Short: "Run the scheduler, Telegram bot and metrics endpoint",
	Long:  `Runs the nightly stats, diet and summary jobs and the weekly report on their cron schedules, serves Telegram chats when enabled, and exposes /metrics and /healthz.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return executeWithRuntime(cmd, func(r *runtime.RuntimeComponents) error {
			dataDir := filepath.Dir(cfg.Scheduler.StatePath)

			daemonMgr, err := daemon.NewDaemon(cfg, daemon.Options{LockPath: filepath.Join(dataDir, "daemon.lock")})
			if err != nil {
				return fmt.Errorf("failed to create daemon manager: %w", err)
			}

			var dedup *idempotency.Store
			if cfg.Telegram.Enabled {
				dedup, err = idempotency.NewStore(cfg.Telegram.DedupPath)
				if err != nil {
					return fmt.Errorf("telegram dedup store: %w", err)
				}
			}

			adapterMgr, err := adapter.NewRuntimeManager(cfg, r.Chat, adapter.RuntimeAdapterOptions{Dedup: dedup})
			if err != nil {
				return fmt.Errorf("failed to configure adapters: %w", err)
			}

			daemonMgr.AddComponent(components.NewAdaptersComponent(adapterMgr))

			if cfg.Scheduler.Enabled {
				store, err := scheduler.NewStore(cfg.Scheduler.StatePath)
				if err != nil {
					return fmt.Errorf("failed to create scheduler store: %w", err)
				}
				sched, err := scheduler.NewScheduler(store, r.Jobs(), cfg.Scheduler, scheduler.Options{
					Notifier: adapterMgr,
					Metrics:  r.Metrics,
				})
				if err != nil {
					return fmt.Errorf("failed to create scheduler: %w", err)
				}
				daemonMgr.AddComponent(components.NewSchedulerComponent(sched))
				daemonMgr.AddComponent(components.NewHTTPServerComponent(daemonMgr, &cfg.Server, r.Metrics.Handler()))
			} else {
				daemonMgr.AddComponent(components.NewHTTPServerComponentWithDependencies(daemonMgr, &cfg.Server, r.Metrics.Handler(), []string{"Adapters"}))
			}

			return daemonMgr.Start(r.Ctx)
		})
	},
}

func init() {
	rootCmd.AddCommand(daemonCmd)
	daemonCmd.Flags().Bool("telegram.enabled", false, "serve Telegram chats")
	daemonCmd.Flags().Bool("scheduler.enabled", true, "run scheduled jobs")
}
