package main

import (
	"fmt"
	"net/http"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	httpserver "github.com/fyrsmithlabs/fixd/internal/http"
	"github.com/fyrsmithlabs/fixd/internal/orchestrator"
)

var historyLimit int

func init() {
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(historyCmd)

	historyCmd.Flags().IntVar(&historyLimit, "limit", 20, "Maximum number of entries to show (0 for all)")
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show dispatcher statistics",
	Long: `Show the dispatcher's running statistics: task counts per engine,
success rate, mean execution time and strategy usage.

Examples:
  fixctl stats
  fixctl stats --json`,
	RunE: runStats,
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recently completed tasks",
	RunE:  runHistory,
}

func runStats(cmd *cobra.Command, args []string) error {
	var stats orchestrator.Stats
	if err := newAPIClient(serverURL, 10*time.Second).do(cmd.Context(), http.MethodGet, "/api/v1/stats", nil, &stats); err != nil {
		return err
	}
	if outputJSON {
		return printJSON(cmd.OutOrStdout(), stats)
	}
	return stats.WriteReport(cmd.OutOrStdout())
}

func runHistory(cmd *cobra.Command, args []string) error {
	if historyLimit < 0 {
		return fmt.Errorf("--limit cannot be negative")
	}

	path := "/api/v1/history"
	if historyLimit > 0 {
		path = fmt.Sprintf("%s?limit=%d", path, historyLimit)
	}

	var history httpserver.HistoryResponse
	if err := newAPIClient(serverURL, 10*time.Second).do(cmd.Context(), http.MethodGet, path, nil, &history); err != nil {
		return err
	}
	if outputJSON {
		return printJSON(cmd.OutOrStdout(), history)
	}

	if history.Count == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No completed tasks.")
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TIME\tTASK\tSTRATEGY\tPROVIDER\tSUCCESS\tDURATION")
	for _, e := range history.Entries {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%t\t%s\n",
			e.Timestamp.Local().Format(time.DateTime),
			e.TaskID,
			e.Strategy,
			e.Provider,
			e.Success,
			e.ExecutionTime.Round(time.Millisecond))
	}
	return w.Flush()
}
