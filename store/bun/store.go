package bunstore

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/uptrace/bun"

	"github.com/xraph/hrflow/graph"
	"github.com/xraph/hrflow/hr"
	"github.com/xraph/hrflow/notify"
)

// Ensure Store implements all store contracts at compile time.
var (
	_ graph.Store  = (*Store)(nil)
	_ hr.Store     = (*Store)(nil)
	_ notify.Store = (*Store)(nil)
)

// Store is a Bun ORM implementation of the hrflow store contracts. The
// caller owns the *bun.DB lifecycle; Store never closes it.
type Store struct {
	db     *bun.DB
	logger *slog.Logger
}

// Option configures the Store.
type Option func(*Store)

// WithLogger sets the logger for the store.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) { s.logger = logger }
}

// New creates a new Bun store. The caller owns the db lifecycle.
func New(db *bun.DB, opts ...Option) *Store {
	s := &Store{db: db, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// DB returns the underlying *bun.DB for advanced usage.
func (s *Store) DB() *bun.DB { return s.db }

// Migrate creates all tables from the model definitions. Table creation
// is generated per dialect so the same store works on SQLite and
// PostgreSQL.
func (s *Store) Migrate(ctx context.Context) error {
	models := []any{
		(*runModel)(nil),
		(*checkpointModel)(nil),
		(*candidateModel)(nil),
		(*employeeModel)(nil),
		(*postingModel)(nil),
		(*interviewModel)(nil),
		(*reviewModel)(nil),
		(*onboardingModel)(nil),
		(*notificationModel)(nil),
	}
	for _, model := range models {
		_, err := s.db.NewCreateTable().
			Model(model).
			IfNotExists().
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("hrflow/bun: create table for %T: %w", model, err)
		}
	}
	s.logger.Info("schema ready", "tables", len(models))
	return nil
}

// Ping checks database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close is a no-op because the caller owns the *bun.DB lifecycle.
func (s *Store) Close() error { return nil }
