package main

import (
	"os"

	"github.com/harunnryd/jarvis/cmd/jarvis/runtime"
	"github.com/harunnryd/jarvis/internal/adapter"

	"github.com/spf13/cobra"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Talk to Jarvis in the terminal",
	Long:  `Starts an interactive session. Meals and workouts you mention are logged to the store; use /image <path> to attach a food photo.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return executeWithRuntime(cmd, func(r *runtime.RuntimeComponents) error {
			repl := adapter.NewCLIAdapter(r.Chat, os.Stdin, os.Stdout)
			return repl.Start(r.Ctx)
		})
	},
}

func init() {
	rootCmd.AddCommand(chatCmd)
	chatCmd.Flags().Int("dispatch.max_rounds", 0, "tool rounds allowed per message (0 keeps the configured value)")
}
