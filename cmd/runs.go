package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/eduforge/internal/pipeline"
	"github.com/abhisek/eduforge/internal/store"
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Inspect persisted pipeline runs",
}

var runsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent runs",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		status, _ := cmd.Flags().GetString("status")

		s, err := openStoreFromFlags(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		runs, err := s.RunRepo().ListRuns(cmd.Context(), store.QueryOpts{Limit: limit, Status: status})
		if err != nil {
			return fmt.Errorf("query runs: %w", err)
		}
		if len(runs) == 0 {
			fmt.Println("No runs found.")
			return nil
		}

		fmt.Printf("%-36s  %-19s  %5s  %-28s  %-6s  %-7s  %s\n",
			"ID", "Timestamp", "Grade", "Topic", "Status", "Refined", "Ms")
		fmt.Println(strings.Repeat("─", 120))
		for _, r := range runs {
			refined := ""
			if r.WasRefined {
				refined = "yes"
			}
			st := r.Status
			if r.ErrorKind != "" {
				st += " (" + r.ErrorKind + ")"
			}
			fmt.Printf("%-36s  %-19s  %5d  %-28s  %-6s  %-7s  %d\n",
				r.ID,
				r.Timestamp.Local().Format("2006-01-02 15:04:05"),
				r.Grade,
				truncate(r.Topic, 28),
				st,
				refined,
				r.DurationMs,
			)
		}
		return nil
	},
}

var runsViewCmd = &cobra.Command{
	Use:   "view <id>",
	Short: "Show one run",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		asJSON, _ := cmd.Flags().GetBool("json")

		s, err := openStoreFromFlags(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		r, err := s.RunRepo().GetRun(cmd.Context(), args[0])
		if errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("run %s not found", args[0])
		}
		if err != nil {
			return fmt.Errorf("get run: %w", err)
		}

		if r.Status == pipeline.OutcomeError {
			fmt.Printf("Run %s failed at %s after %dms\n",
				r.ID, r.Timestamp.Local().Format("2006-01-02 15:04:05"), r.DurationMs)
			fmt.Printf("Kind:    %s\nError:   %s\n", r.ErrorKind, r.ErrorMessage)
			if len(r.Result) > 0 {
				fmt.Println()
				fmt.Println(string(r.Result))
			}
			return printRunCalls(cmd.Context(), s.EventRepo(), r.ID)
		}

		var res pipeline.Result
		if err := json.Unmarshal(r.Result, &res); err != nil {
			return fmt.Errorf("decode stored result: %w", err)
		}
		if asJSON {
			return writeJSON(cmd.OutOrStdout(), &res)
		}
		printResult(cmd.OutOrStdout(), r.ID, &res)
		return printRunCalls(cmd.Context(), s.EventRepo(), r.ID)
	},
}

// printRunCalls lists the provider calls recorded for one run.
func printRunCalls(ctx context.Context, events store.EventRepo, runID string) error {
	calls, err := events.QueryLLMEvents(ctx, store.QueryOpts{RunID: runID})
	if err != nil {
		return fmt.Errorf("query run calls: %w", err)
	}
	if len(calls) == 0 {
		return nil
	}

	fmt.Println()
	fmt.Println("LLM calls")
	slices.Reverse(calls)
	for _, e := range calls {
		ok := "✓"
		if !e.Success {
			ok = "✗"
		}
		fmt.Printf("  %s %-5d  %-14s  %-28s  %5d in  %5d out  %6dms\n",
			ok, e.ID, e.Purpose, truncate(e.Model, 28), e.InputTokens, e.OutputTokens, e.LatencyMs)
	}
	return nil
}

func init() {
	runsListCmd.Flags().IntP("limit", "n", 20, "Number of runs to show")
	runsListCmd.Flags().String("status", "", "Filter by status (pass, fail, error)")
	runsViewCmd.Flags().Bool("json", false, "Print the stored result as JSON")

	runsCmd.AddCommand(runsListCmd)
	runsCmd.AddCommand(runsViewCmd)
}
