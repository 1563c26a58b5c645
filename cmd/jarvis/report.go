package main

import (
	"fmt"

	"github.com/harunnryd/jarvis/cmd/jarvis/runtime"

	"github.com/spf13/cobra"
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Weekly report",
}

var reportSendCmd = &cobra.Command{
	Use:   "send",
	Short: "Build the weekly report and mail it",
	Long:  `Collects the last report.days days of training and diet numbers, asks the model for a short write-up and sends it with the configured transport. --dry-run prints the message instead.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		dryRun, _ := cmd.Flags().GetBool("dry-run")
		return executeWithRuntime(cmd, func(r *runtime.RuntimeComponents) error {
			if dryRun {
				msg, err := r.Reporter.Build(r.Ctx)
				if err != nil {
					return fmt.Errorf("report: %w", err)
				}
				fmt.Fprint(cmd.OutOrStdout(), string(msg.RFC822()))
				return nil
			}

			msg, err := r.Reporter.Send(r.Ctx)
			if err != nil {
				return fmt.Errorf("report: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Sent %q to %v via %s\n", msg.Subject, msg.To, r.Sender.Name())
			return nil
		})
	},
}

func init() {
	reportSendCmd.Flags().Bool("dry-run", false, "print the message instead of sending it")
	reportSendCmd.Flags().Int("report.days", 0, "days covered by the report (0 keeps the configured value)")
	reportCmd.AddCommand(reportSendCmd)
	rootCmd.AddCommand(reportCmd)
}
