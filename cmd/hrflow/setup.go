package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
	mongod "go.mongodb.org/mongo-driver/v2/mongo"
	mongoopts "go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/xraph/hrflow"
	"github.com/xraph/hrflow/audit"
	"github.com/xraph/hrflow/engine"
	bunstore "github.com/xraph/hrflow/store/bun"
	"github.com/xraph/hrflow/store/memory"
	mongostore "github.com/xraph/hrflow/store/mongo"
	"github.com/xraph/hrflow/store/postgres"
	redisstore "github.com/xraph/hrflow/store/redis"
)

func buildLogger() *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(viper.GetString("log.level"))); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if viper.GetString("log.format") == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	return slog.New(handler)
}

// openStore builds the store backend named by store.backend.
func openStore(ctx context.Context, logger *slog.Logger) (hrflow.Storer, error) {
	backend := viper.GetString("store.backend")
	dsn := viper.GetString("store.dsn")

	switch backend {
	case "memory":
		return memory.New(), nil

	case "sqlite":
		if dsn == "" {
			dsn = "file:hrflow.db"
		}
		sqldb, err := sql.Open(sqliteshim.ShimName, dsn)
		if err != nil {
			return nil, fmt.Errorf("open sqlite: %w", err)
		}
		db := bun.NewDB(sqldb, sqlitedialect.New())
		return bunstore.New(db, bunstore.WithLogger(logger)), nil

	case "postgres":
		if dsn == "" {
			return nil, fmt.Errorf("postgres backend requires --dsn")
		}
		return postgres.New(ctx, dsn, postgres.WithLogger(logger))

	case "redis":
		if dsn == "" {
			dsn = "redis://localhost:6379/0"
		}
		ropts, err := goredis.ParseURL(dsn)
		if err != nil {
			return nil, fmt.Errorf("parse redis url: %w", err)
		}
		return redisstore.New(goredis.NewClient(ropts), redisstore.WithLogger(logger)), nil

	case "mongo":
		if dsn == "" {
			dsn = "mongodb://localhost:27017"
		}
		client, err := mongod.Connect(mongoopts.Client().ApplyURI(dsn))
		if err != nil {
			return nil, fmt.Errorf("connect mongo: %w", err)
		}
		return mongostore.New(client.Database("hrflow"), mongostore.WithLogger(logger)), nil

	default:
		return nil, fmt.Errorf("unknown store backend %q", backend)
	}
}

func engineConfig() hrflow.Config {
	cfg := hrflow.DefaultConfig()
	cfg.MaxStepRetries = viper.GetInt("engine.max_step_retries")
	cfg.CheckpointRetries = viper.GetInt("engine.checkpoint_retries")
	cfg.MaxConcurrentRuns = viper.GetInt("engine.max_concurrent_runs")
	if d := viper.GetDuration("engine.step_timeout"); d > 0 {
		cfg.StepTimeout = d
	}
	if d := viper.GetDuration("engine.run_timeout"); d > 0 {
		cfg.RunTimeout = d
	}
	return cfg
}

func newEngine(ctx context.Context) (*engine.Engine, error) {
	logger := buildLogger()

	st, err := openStore(ctx, logger)
	if err != nil {
		return nil, err
	}

	o, err := hrflow.New(
		hrflow.WithLogger(logger),
		hrflow.WithStore(st),
		hrflow.WithConfig(engineConfig()),
	)
	if err != nil {
		return nil, err
	}
	return engine.Build(o,
		engine.WithExtension(audit.New(audit.NewLogRecorder(logger))),
	)
}

// engineRunE wraps a subcommand body with engine setup and teardown.
// SIGINT and SIGTERM cancel the command context; shutdown still runs.
func engineRunE(fn func(ctx context.Context, eng *engine.Engine, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		eng, err := newEngine(ctx)
		if err != nil {
			return err
		}
		if err := eng.Start(ctx); err != nil {
			return err
		}
		defer func() {
			stopCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 30*time.Second)
			defer cancel()
			if stopErr := eng.Stop(stopCtx); stopErr != nil {
				fmt.Fprintln(os.Stderr, "Warning: shutdown:", stopErr)
			}
		}()

		return fn(ctx, eng, args)
	}
}
