package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/xraph/hrflow/engine"
	"github.com/xraph/hrflow/sched"
)

// scheduleConfig is one "schedules" list item from the config file:
//
//	schedules:
//	  - name: quarterly-reviews
//	    cron: "0 9 1 */3 *"
//	    graph: performance_review
//	    input:
//	      period: 2026-Q3
type scheduleConfig struct {
	Name  string         `mapstructure:"name"`
	Cron  string         `mapstructure:"cron"`
	Graph string         `mapstructure:"graph"`
	Input map[string]any `mapstructure:"input"`
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the engine with scheduled workflows until interrupted",
	Long: `Run the engine as a long-lived process. Schedules from the
config file's "schedules" list fire their graphs on cron expressions;
runs left in "running" state from a previous process are resumed on
startup. Stops cleanly on SIGINT or SIGTERM.`,
	Args: cobra.NoArgs,
	RunE: engineRunE(func(ctx context.Context, eng *engine.Engine, args []string) error {
		var schedules []scheduleConfig
		if err := viper.UnmarshalKey("schedules", &schedules); err != nil {
			return fmt.Errorf("parse schedules: %w", err)
		}

		scheduler := sched.NewScheduler(eng.StartRun,
			sched.WithLogger(buildLogger()),
		)
		for _, sc := range schedules {
			entry := &sched.Entry{
				Name:     sc.Name,
				Schedule: sc.Cron,
				Graph:    sc.Graph,
				Initial:  sc.Input,
			}
			if err := scheduler.Register(entry); err != nil {
				return err
			}
		}

		if err := scheduler.Start(ctx); err != nil {
			return err
		}

		fmt.Printf("Engine up with %d schedule(s); Ctrl-C to stop\n", len(schedules))
		<-ctx.Done()

		stopCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
		defer cancel()
		return scheduler.Stop(stopCtx)
	}),
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
