package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

// rootCmd is the base CLI command.
var rootCmd = &cobra.Command{
	Use:   "hrflow",
	Short: "Run and inspect HR workflow graphs",
	Long: `hrflow drives the HR workflow engine from the command line.

It starts workflow runs (candidate screening, interviews, onboarding,
performance reviews), resumes suspended runs from their checkpoints,
and inspects run state and personnel records.

Backends are selected with --store: memory (default), sqlite, postgres,
redis, or mongo. Settings can also come from a hrflow.yaml config file
or HRFLOW_* environment variables.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return initConfig()
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	pf := rootCmd.PersistentFlags()

	pf.StringVar(&cfgFile, "config", "", "config file (default searches . and $HOME/.hrflow)")
	pf.String("store", "memory", "store backend: memory, sqlite, postgres, redis, mongo")
	pf.String("dsn", "", "store connection string (ignored for memory)")
	pf.String("log-level", "info", "log level: debug, info, warn, error")
	pf.String("log-format", "text", "log format: text or json")

	viper.BindPFlag("store.backend", pf.Lookup("store"))
	viper.BindPFlag("store.dsn", pf.Lookup("dsn"))
	viper.BindPFlag("log.level", pf.Lookup("log-level"))
	viper.BindPFlag("log.format", pf.Lookup("log-format"))

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(resumeCmd)
	rootCmd.AddCommand(cancelCmd)
	rootCmd.AddCommand(runsCmd)
	rootCmd.AddCommand(stateCmd)
	rootCmd.AddCommand(graphsCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(seedCmd)
}

// initConfig loads the config file and environment. Flag values bound
// above override both.
func initConfig() error {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("hrflow")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			viper.AddConfigPath(home + "/.hrflow")
		}
	}

	viper.SetEnvPrefix("HRFLOW")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	viper.SetDefault("store.backend", "memory")
	viper.SetDefault("store.dsn", "")
	viper.SetDefault("log.level", "info")
	viper.SetDefault("log.format", "text")
	viper.SetDefault("engine.max_step_retries", 3)
	viper.SetDefault("engine.checkpoint_retries", 5)
	viper.SetDefault("engine.step_timeout", "2m")
	viper.SetDefault("engine.run_timeout", "30m")
	viper.SetDefault("engine.max_concurrent_runs", 10)

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return fmt.Errorf("read config: %w", err)
		}
	}
	return nil
}
