package main

import (
	"fmt"

	"github.com/harunnryd/jarvis/cmd/jarvis/runtime"
	"github.com/harunnryd/jarvis/internal/formatter"

	"github.com/spf13/cobra"
)

var dietCmd = &cobra.Command{
	Use:   "diet",
	Short: "Diet sheet operations",
}

var dietScoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Estimate calories and score every unscored diet day",
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := outputFormatter(cmd)
		if err != nil {
			return err
		}
		return executeWithRuntime(cmd, func(r *runtime.RuntimeComponents) error {
			rep, err := r.Scorer.ScoreBlank(r.Ctx)
			if err != nil {
				return fmt.Errorf("diet score: %w", err)
			}
			return printBatch(cmd, f, rep)
		})
	},
}

func init() {
	dietCmd.PersistentFlags().StringP("output", "o", string(formatter.OutputFormatTable), "output format (table, json, yaml)")
	dietCmd.AddCommand(dietScoreCmd)
	rootCmd.AddCommand(dietCmd)
}
