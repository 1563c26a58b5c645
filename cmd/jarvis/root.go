package main

import (
	"fmt"
	"io"
	"os"

	"github.com/harunnryd/jarvis/internal/config"
	"github.com/harunnryd/jarvis/internal/logger"

	"github.com/spf13/cobra"
)

var (
	cfgFile   string
	cfg       *config.Config
	logCloser io.Closer
)

var rootCmd = &cobra.Command{
	Use:           "jarvis",
	Short:         "Jarvis fitness and diet assistant",
	Long:          `Jarvis logs meals and workouts from chat, fills derived training stats, scores diet days and mails a weekly report.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(cmd)
		if err != nil {
			return err
		}

		var file *logger.FileOptions
		if cfg.Log.File != "" {
			file = &logger.FileOptions{
				Path:       cfg.Log.File,
				MaxSizeMB:  cfg.Log.MaxSizeMB,
				MaxBackups: cfg.Log.MaxBackups,
				Compress:   cfg.Log.Compress,
			}
		}
		logCloser = logger.Setup(cfg.Server.LogLevel, file)
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if logCloser != nil {
			return logCloser.Close()
		}
		return nil
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.jarvis/config.yaml)")
	rootCmd.PersistentFlags().String("server.log_level", config.DefaultServerLogLevel, "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().Int("server.port", config.DefaultServerPort, "metrics and health port")
	rootCmd.PersistentFlags().String("store.backend", config.DefaultStoreBackend, "tabular store backend (local, google)")
	rootCmd.PersistentFlags().String("models.default", config.DefaultModelDefault, "chat model")
}
