package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/fyrsmithlabs/fixd/internal/events"
)

var (
	watchNATSURL string
	watchPrefix  string
)

func init() {
	rootCmd.AddCommand(watchCmd)

	watchCmd.Flags().StringVar(&watchNATSURL, "nats-url", "nats://localhost:4222", "NATS server URL")
	watchCmd.Flags().StringVar(&watchPrefix, "prefix", events.DefaultPrefix, "Event subject prefix")
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Follow fix completion events",
	Long: `Subscribe to fix completion events published by fixd over NATS
and print one line per completed task until interrupted.

Examples:
  fixctl watch
  fixctl watch --nats-url nats://nats:4222 --prefix ci --json`,
	RunE: runWatch,
}

func runWatch(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	nc, err := events.Connect(watchNATSURL)
	if err != nil {
		return fmt.Errorf("failed to connect to NATS: %w", err)
	}
	defer nc.Close()

	out := cmd.OutOrStdout()
	sub, err := events.Subscribe(nc, watchPrefix, eventPrinter(out, outputJSON))
	if err != nil {
		return err
	}
	defer func() { _ = sub.Unsubscribe() }()

	fmt.Fprintf(cmd.ErrOrStderr(), "Watching %s.fix.completed.> on %s\n", watchPrefix, watchNATSURL)
	<-ctx.Done()
	return nil
}

// eventPrinter returns a handler writing each event to w. Handlers run on
// the subscription goroutine, so writes are serialized.
func eventPrinter(w io.Writer, asJSON bool) func(events.FixEvent) {
	var mu sync.Mutex
	return func(ev events.FixEvent) {
		mu.Lock()
		defer mu.Unlock()

		if asJSON {
			data, err := json.Marshal(ev)
			if err != nil {
				return
			}
			fmt.Fprintln(w, string(data))
			return
		}

		status := "FAILED"
		if ev.Success {
			status = "FIXED"
		}
		line := fmt.Sprintf("%s %-6s %s kind=%s strategy=%s provider=%s time=%s",
			ev.Timestamp.Local().Format(time.TimeOnly),
			status,
			ev.TaskID,
			ev.FaultKind,
			ev.Strategy,
			ev.Provider,
			ev.ExecutionTime.Round(time.Millisecond))
		if ev.Error != "" {
			line += fmt.Sprintf(" error=%q", ev.Error)
		}
		fmt.Fprintln(w, line)
	}
}
