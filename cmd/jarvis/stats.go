package main

import (
	"fmt"
	"sort"

	"github.com/harunnryd/jarvis/cmd/jarvis/runtime"
	"github.com/harunnryd/jarvis/internal/formatter"
	"github.com/harunnryd/jarvis/internal/stats"

	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Fill and summarise workout statistics",
}

var statsFillCmd = &cobra.Command{
	Use:   "fill",
	Short: "Fill blank volume and 1RM cells of the workout sheets",
	Long:  `Visits every row of the strength, cardio, flexibility and sports sheets and fills blank volume, estimated one-rep max and coach comment cells. Rows that cannot be parsed are reported and skipped.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := outputFormatter(cmd)
		if err != nil {
			return err
		}
		return executeWithRuntime(cmd, func(r *runtime.RuntimeComponents) error {
			rep, err := r.Filler.Fill(r.Ctx)
			if err != nil {
				return fmt.Errorf("stats fill: %w", err)
			}
			return printBatch(cmd, f, rep)
		})
	},
}

var statsSummaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Rebuild the per-day training summary sheet",
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := outputFormatter(cmd)
		if err != nil {
			return err
		}
		return executeWithRuntime(cmd, func(r *runtime.RuntimeComponents) error {
			rep, err := r.Summary.Build(r.Ctx)
			if err != nil {
				return fmt.Errorf("stats summary: %w", err)
			}
			if err := printBatch(cmd, f, rep); err != nil {
				return err
			}

			totals, err := stats.Totals(r.Ctx, r.Store)
			if err != nil {
				return fmt.Errorf("stats summary: %w", err)
			}
			days := make([]*stats.DayTotals, 0, len(totals))
			for _, d := range totals {
				days = append(days, d)
			}
			sort.Slice(days, func(i, j int) bool { return days[i].Date < days[j].Date })

			out, err := f.FormatDays(days)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), out)
			return nil
		})
	},
}

func outputFormatter(cmd *cobra.Command) (formatter.Formatter, error) {
	name, _ := cmd.Flags().GetString("output")
	format, err := formatter.ParseOutputFormat(name)
	if err != nil {
		return nil, err
	}
	return formatter.New(format)
}

func printBatch(cmd *cobra.Command, f formatter.Formatter, rep *stats.BatchReport) error {
	out, err := f.FormatBatch(rep)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), out)
	return nil
}

func init() {
	statsCmd.PersistentFlags().StringP("output", "o", string(formatter.OutputFormatTable), "output format (table, json, yaml)")
	statsCmd.AddCommand(statsFillCmd)
	statsCmd.AddCommand(statsSummaryCmd)
	rootCmd.AddCommand(statsCmd)
}
