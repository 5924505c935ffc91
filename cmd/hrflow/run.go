package main

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/xraph/hrflow/engine"
	"github.com/xraph/hrflow/graph"
	"github.com/xraph/hrflow/id"
)

var (
	runInput string
	runSets  []string
)

var runCmd = &cobra.Command{
	Use:   "run <graph>",
	Short: "Start a workflow run",
	Long: `Start a run of the named graph and wait for it to finish.

Initial state comes from --input (a JSON object) merged with any --set
key=value pairs. Values given with --set are parsed as JSON when
possible, otherwise kept as strings.

Example:
  hrflow run candidate_screening --set candidate_id=cand_01h2xcejqtf2nbrexx3vqjhp41`,
	Args: cobra.ExactArgs(1),
	RunE: engineRunE(func(ctx context.Context, eng *engine.Engine, args []string) error {
		initial, err := parseInitialState()
		if err != nil {
			return err
		}

		run, err := eng.StartRun(ctx, args[0], initial)
		if err != nil {
			return err
		}
		return printRun(run)
	}),
}

var resumeCmd = &cobra.Command{
	Use:   "resume <run-id>",
	Short: "Resume a suspended or failed run from its latest checkpoint",
	Args:  cobra.ExactArgs(1),
	RunE: engineRunE(func(ctx context.Context, eng *engine.Engine, args []string) error {
		runID, err := id.ParseRunID(args[0])
		if err != nil {
			return err
		}

		run, err := eng.ResumeRun(ctx, runID)
		if err != nil {
			return err
		}
		return printRun(run)
	}),
}

var cancelCmd = &cobra.Command{
	Use:   "cancel <run-id>",
	Short: "Cancel a pending, running, or suspended run",
	Args:  cobra.ExactArgs(1),
	RunE: engineRunE(func(ctx context.Context, eng *engine.Engine, args []string) error {
		runID, err := id.ParseRunID(args[0])
		if err != nil {
			return err
		}

		store := eng.Runner().Store()
		run, err := store.GetRun(ctx, runID)
		if err != nil {
			return err
		}
		if run.State == graph.RunStateCompleted || run.State == graph.RunStateFailed {
			return fmt.Errorf("run %s already finished (%s)", runID, run.State)
		}

		// Stop an in-process execution and persist the cancellation so
		// the run cannot be resumed later.
		eng.CancelRun(runID)
		now := time.Now().UTC()
		run.State = graph.RunStateFailed
		run.Error = "cancelled"
		run.CompletedAt = &now
		if err := store.UpdateRun(ctx, run); err != nil {
			return err
		}

		fmt.Printf("Run %s cancelled\n", runID)
		return nil
	}),
}

func parseInitialState() (map[string]any, error) {
	initial := make(map[string]any)

	if runInput != "" {
		if err := json.Unmarshal([]byte(runInput), &initial); err != nil {
			return nil, fmt.Errorf("parse --input: %w", err)
		}
	}

	for _, pair := range runSets {
		key, raw, ok := strings.Cut(pair, "=")
		if !ok {
			return nil, fmt.Errorf("invalid --set %q, want key=value", pair)
		}
		var v any
		if err := json.Unmarshal([]byte(raw), &v); err != nil {
			v = raw
		}
		initial[key] = v
	}
	return initial, nil
}

func printRun(run *graph.Run) error {
	fmt.Printf("Run:    %s\n", run.ID)
	fmt.Printf("Graph:  %s\n", run.Graph)
	fmt.Printf("State:  %s\n", run.State)
	if run.Error != "" {
		fmt.Printf("Error:  %s\n", run.Error)
	}
	if len(run.Frontier) > 0 {
		fmt.Printf("Next:   %s\n", strings.Join(run.Frontier, ", "))
	}

	if run.State == graph.RunStateCompleted && len(run.Output) > 0 {
		var pretty map[string]any
		if err := json.Unmarshal(run.Output, &pretty); err != nil {
			return fmt.Errorf("decode run output: %w", err)
		}
		out, err := json.MarshalIndent(pretty, "", "  ")
		if err != nil {
			return err
		}
		fmt.Printf("Output:\n%s\n", out)
	}
	return nil
}

func init() {
	runCmd.Flags().StringVar(&runInput, "input", "", "initial run state as a JSON object")
	runCmd.Flags().StringArrayVar(&runSets, "set", nil, "initial state field as key=value (repeatable)")
}
