package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/xraph/hrflow/engine"
	"github.com/xraph/hrflow/graph"
	"github.com/xraph/hrflow/id"
)

var (
	runsState  string
	runsGraph  string
	runsLimit  int
	runsOffset int
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List workflow runs",
	Args:  cobra.NoArgs,
	RunE: engineRunE(func(ctx context.Context, eng *engine.Engine, args []string) error {
		opts := graph.ListOpts{
			Limit:  runsLimit,
			Offset: runsOffset,
			State:  graph.RunState(runsState),
			Graph:  runsGraph,
		}

		runs, err := eng.Runs(ctx, opts)
		if err != nil {
			return err
		}
		if len(runs) == 0 {
			fmt.Println("No runs found")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tGRAPH\tSTATE\tSTARTED\tERROR")
		for _, r := range runs {
			errMsg := r.Error
			if len(errMsg) > 40 {
				errMsg = errMsg[:37] + "..."
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
				r.ID, r.Graph, r.State,
				r.StartedAt.Format("2006-01-02 15:04:05"), errMsg)
		}
		return w.Flush()
	}),
}

var stateCmd = &cobra.Command{
	Use:   "state <run-id>",
	Short: "Print a run's current state fields as JSON",
	Args:  cobra.ExactArgs(1),
	RunE: engineRunE(func(ctx context.Context, eng *engine.Engine, args []string) error {
		runID, err := id.ParseRunID(args[0])
		if err != nil {
			return err
		}

		fields, err := eng.RunState(ctx, runID)
		if err != nil {
			return err
		}
		out, err := json.MarshalIndent(fields, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(out))
		return nil
	}),
}

var graphsCmd = &cobra.Command{
	Use:   "graphs",
	Short: "List registered workflow graphs and their steps",
	Args:  cobra.NoArgs,
	RunE: engineRunE(func(ctx context.Context, eng *engine.Engine, args []string) error {
		reg := eng.Registry()
		for _, name := range reg.Names() {
			g, ok := reg.Get(name)
			if !ok {
				continue
			}
			fmt.Printf("%s\n", name)
			fmt.Printf("  entry: %s\n", g.Entry())
			fmt.Printf("  steps: %s\n", strings.Join(g.Steps(), ", "))
		}
		return nil
	}),
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show personnel record counts",
	Args:  cobra.NoArgs,
	RunE: engineRunE(func(ctx context.Context, eng *engine.Engine, args []string) error {
		s, err := eng.Stats(ctx)
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintf(w, "Employees\t%d\n", s.Employees)
		fmt.Fprintf(w, "Candidates\t%d\n", s.Candidates)
		fmt.Fprintf(w, "Job postings\t%d\n", s.Postings)
		fmt.Fprintf(w, "Interviews\t%d\n", s.Interviews)
		fmt.Fprintf(w, "Reviews\t%d\n", s.Reviews)
		fmt.Fprintf(w, "Onboardings\t%d\n", s.Onboardings)
		return w.Flush()
	}),
}

func init() {
	runsCmd.Flags().StringVar(&runsState, "state", "", "filter by run state (pending, running, suspended, completed, failed)")
	runsCmd.Flags().StringVar(&runsGraph, "graph", "", "filter by graph name")
	runsCmd.Flags().IntVar(&runsLimit, "limit", 50, "maximum runs to list")
	runsCmd.Flags().IntVar(&runsOffset, "offset", 0, "runs to skip")
}
