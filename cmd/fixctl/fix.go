package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/fyrsmithlabs/fixd/internal/classifier"
	httpserver "github.com/fyrsmithlabs/fixd/internal/http"
	"github.com/fyrsmithlabs/fixd/internal/orchestrator"
	"github.com/fyrsmithlabs/fixd/internal/remediation"
)

var (
	// fault flags shared by fix and classify
	fxKind      string
	fxMessage   string
	fxFile      string
	fxLine      int
	fxFunction  string
	fxSnippet   string
	fxTraceback string

	// fix-only flags
	fxTaskFile string
	fxTaskID   string
	fxTargets  []string
	fxStrategy string
	fxPriority string
	fxVerify   bool
	fxPublish  bool
	fxTimeout  time.Duration

	// classify-only flags
	clOffline bool
)

func init() {
	rootCmd.AddCommand(fixCmd)
	rootCmd.AddCommand(classifyCmd)

	for _, c := range []*cobra.Command{fixCmd, classifyCmd} {
		c.Flags().StringVar(&fxKind, "kind", "", "Fault kind, e.g. ImportError")
		c.Flags().StringVar(&fxMessage, "message", "", "Fault message")
		c.Flags().StringVar(&fxFile, "file", "", "File where the fault occurred")
		c.Flags().IntVar(&fxLine, "line", 0, "Line where the fault occurred")
		c.Flags().StringVar(&fxFunction, "function", "", "Function where the fault occurred")
		c.Flags().StringVar(&fxSnippet, "snippet-file", "", "Read the code snippet from a file (- for stdin)")
		c.Flags().StringVar(&fxTraceback, "traceback-file", "", "Read the traceback from a file (- for stdin)")
	}

	fixCmd.Flags().StringVar(&fxTaskFile, "task", "", "Read the whole task as JSON from a file (- for stdin)")
	fixCmd.Flags().StringVar(&fxTaskID, "id", "", "Task ID (default: random UUID)")
	fixCmd.Flags().StringSliceVar(&fxTargets, "target", nil, "File the engine may modify (repeatable)")
	fixCmd.Flags().StringVar(&fxStrategy, "strategy", "", "Dispatch strategy (default: server default)")
	fixCmd.Flags().StringVar(&fxPriority, "priority", "", "Task priority: critical, high, medium or low")
	fixCmd.Flags().BoolVar(&fxVerify, "verify", false, "Request post-fix verification")
	fixCmd.Flags().BoolVar(&fxPublish, "publish", false, "Request downstream publication of a successful fix")
	fixCmd.Flags().DurationVar(&fxTimeout, "timeout", 5*time.Minute, "Request timeout")

	classifyCmd.Flags().BoolVar(&clOffline, "offline", false, "Classify locally without contacting the server")
}

var fixCmd = &cobra.Command{
	Use:   "fix",
	Short: "Submit a fault for remediation",
	Long: `Submit a fault to fixd and print the selected fix.

Examples:
  # Fix an import error with the server's default strategy
  fixctl fix --kind ImportError --message "No module named 'yaml'" --file app.py --line 3

  # Race both engines
  fixctl fix --kind TypeError --file api.py --strategy parallel --traceback-file trace.txt

  # Submit a prepared task
  fixctl fix --task task.json --json`,
	RunE: runFix,
}

var classifyCmd = &cobra.Command{
	Use:   "classify",
	Short: "Show how a fault would be dispatched",
	Long: `Classify a fault and show the strategy the adaptive dispatcher would pick.

Examples:
  # Ask the server
  fixctl classify --kind RecursionError --traceback-file trace.txt

  # Classify locally
  fixctl classify --offline --kind SyntaxError`,
	RunE: runClassify,
}

func runFix(cmd *cobra.Command, args []string) error {
	task, err := buildTask(cmd.InOrStdin())
	if err != nil {
		return err
	}

	// Reject bad strategies before the round trip
	if _, err := remediation.ParseStrategy(fxStrategy); err != nil {
		return err
	}

	var res remediation.Result
	req := httpserver.FixRequest{Task: task, Strategy: fxStrategy}
	if err := newAPIClient(serverURL, fxTimeout).do(cmd.Context(), http.MethodPost, "/api/v1/fix", req, &res); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if outputJSON {
		return printJSON(out, res)
	}
	formatResult(out, &res)
	return nil
}

func runClassify(cmd *cobra.Command, args []string) error {
	fault, err := buildFault(cmd.InOrStdin())
	if err != nil {
		return err
	}

	var resp httpserver.ClassifyResponse
	if clOffline {
		resp.Classification = classifier.New().Classify(fault)
		resp.Strategy = orchestrator.Resolve(resp.Classification)
	} else if err := newAPIClient(serverURL, 10*time.Second).do(cmd.Context(), http.MethodPost, "/api/v1/classify", fault, &resp); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if outputJSON {
		return printJSON(out, resp)
	}
	fmt.Fprintf(out, "Complexity: %s\n", resp.Classification.Complexity)
	fmt.Fprintf(out, "Category:   %s\n", resp.Classification.Category)
	fmt.Fprintf(out, "Confidence: %.2f\n", resp.Classification.Confidence)
	if len(resp.Classification.Factors) > 0 {
		fmt.Fprintf(out, "Factors:    %s\n", strings.Join(resp.Classification.Factors, ", "))
	}
	fmt.Fprintf(out, "Strategy:   %s\n", resp.Strategy)
	return nil
}

// buildTask assembles a task from --task or from the fault flags.
func buildTask(stdin io.Reader) (*remediation.Task, error) {
	var task remediation.Task
	if fxTaskFile != "" {
		data, err := readInput(fxTaskFile, stdin)
		if err != nil {
			return nil, err
		}
		if err := json.Unmarshal(data, &task); err != nil {
			return nil, fmt.Errorf("failed to parse task %s: %w", fxTaskFile, err)
		}
	} else {
		fault, err := buildFault(stdin)
		if err != nil {
			return nil, err
		}
		task = remediation.Task{
			Fault:    fault,
			Targets:  fxTargets,
			Priority: remediation.Priority(fxPriority),
			Options:  remediation.Options{Verify: fxVerify, Publish: fxPublish},
		}
	}

	if fxTaskID != "" {
		task.ID = fxTaskID
	}
	if task.ID == "" {
		task.ID = uuid.NewString()
	}
	return &task, nil
}

func buildFault(stdin io.Reader) (remediation.Fault, error) {
	if fxKind == "" {
		return remediation.Fault{}, fmt.Errorf("--kind is required")
	}
	fault := remediation.Fault{
		Kind:    fxKind,
		Message: fxMessage,
		Location: remediation.Location{
			File:     fxFile,
			Line:     fxLine,
			Function: fxFunction,
		},
	}
	if fxSnippet != "" {
		data, err := readInput(fxSnippet, stdin)
		if err != nil {
			return fault, err
		}
		fault.Snippet = string(data)
	}
	if fxTraceback != "" {
		data, err := readInput(fxTraceback, stdin)
		if err != nil {
			return fault, err
		}
		fault.Traceback = string(data)
	}
	return fault, nil
}

// readInput reads a file, or stdin for "-".
func readInput(path string, stdin io.Reader) ([]byte, error) {
	if path == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return nil, fmt.Errorf("failed to read from stdin: %w", err)
		}
		return data, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", path, err)
	}
	return data, nil
}

func formatResult(w io.Writer, res *remediation.Result) {
	status := "FAILED"
	if res.Success {
		status = "FIXED"
	}
	fmt.Fprintf(w, "Task:     %s\n", res.TaskID)
	fmt.Fprintf(w, "Status:   %s\n", status)
	fmt.Fprintf(w, "Provider: %s\n", res.Provider)
	if res.Strategy != "" {
		fmt.Fprintf(w, "Strategy: %s\n", res.Strategy)
	}
	if res.Confidence != nil {
		fmt.Fprintf(w, "Confidence: %.2f\n", *res.Confidence)
	}
	fmt.Fprintf(w, "Time:     %s\n", res.ExecutionTime.Round(time.Millisecond))
	if len(res.ModifiedFiles) > 0 {
		fmt.Fprintf(w, "Modified: %s\n", strings.Join(res.ModifiedFiles, ", "))
	}
	if res.Error != "" {
		fmt.Fprintf(w, "Error:    %s\n", res.Error)
	}
	if res.Patch != "" {
		fmt.Fprintf(w, "\n%s\n", res.Patch)
	}
}
