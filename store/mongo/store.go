package mongo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	mongod "go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/xraph/hrflow/graph"
	"github.com/xraph/hrflow/hr"
	"github.com/xraph/hrflow/notify"
)

// Collection name constants.
const (
	colRuns          = "hrflow_runs"
	colCheckpoints   = "hrflow_checkpoints"
	colCandidates    = "hrflow_candidates"
	colEmployees     = "hrflow_employees"
	colPostings      = "hrflow_postings"
	colInterviews    = "hrflow_interviews"
	colReviews       = "hrflow_reviews"
	colOnboardings   = "hrflow_onboardings"
	colNotifications = "hrflow_notifications"
)

// Ensure Store implements all store contracts at compile time.
var (
	_ graph.Store  = (*Store)(nil)
	_ hr.Store     = (*Store)(nil)
	_ notify.Store = (*Store)(nil)
)

// Store implements the hrflow store contracts backed by MongoDB. The
// caller owns the client lifecycle; Store never disconnects it.
type Store struct {
	db     *mongod.Database
	logger *slog.Logger
}

// Option configures the Store.
type Option func(*Store)

// WithLogger sets the logger for the store.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) { s.logger = logger }
}

// New creates a new MongoDB store on the given database handle.
func New(db *mongod.Database, opts ...Option) *Store {
	s := &Store{db: db, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Database returns the underlying database handle for advanced usage.
func (s *Store) Database() *mongod.Database { return s.db }

// Migrate creates indexes for all hrflow collections.
func (s *Store) Migrate(ctx context.Context) error {
	for col, models := range migrationIndexes() {
		if len(models) == 0 {
			continue
		}
		_, err := s.db.Collection(col).Indexes().CreateMany(ctx, models)
		if err != nil {
			return fmt.Errorf("hrflow/mongo: migrate %s indexes: %w", col, err)
		}
	}
	return nil
}

// Ping checks database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.Client().Ping(ctx, nil)
}

// Close is a no-op because the caller owns the client lifecycle.
func (s *Store) Close() error { return nil }

// ── helpers ──────────────────────────────────────────────────────

// now returns the current UTC time.
func now() time.Time {
	return time.Now().UTC()
}

// isNoDocuments returns true when err indicates no MongoDB documents found.
func isNoDocuments(err error) bool {
	return errors.Is(err, mongod.ErrNoDocuments)
}

// isDuplicateKey checks if a MongoDB error is a duplicate key violation.
func isDuplicateKey(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "duplicate key") ||
		strings.Contains(err.Error(), "E11000")
}

// migrationIndexes returns the index definitions for all hrflow collections.
func migrationIndexes() map[string][]mongod.IndexModel {
	return map[string][]mongod.IndexModel{
		colRuns: {
			{Keys: bson.D{{Key: "state", Value: 1}}},
			{Keys: bson.D{{Key: "graph", Value: 1}}},
			{Keys: bson.D{{Key: "created_at", Value: 1}}},
		},
		colCheckpoints: {
			// Unique compound index on (run_id, seq) backs first-write-wins.
			{
				Keys:    bson.D{{Key: "run_id", Value: 1}, {Key: "seq", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
		},
		colCandidates: {
			{Keys: bson.D{{Key: "status", Value: 1}}},
		},
		colEmployees: {
			{Keys: bson.D{{Key: "department", Value: 1}}},
		},
		colPostings: {
			{Keys: bson.D{{Key: "status", Value: 1}}},
		},
		colInterviews: {
			{Keys: bson.D{{Key: "candidate_id", Value: 1}}},
		},
		colReviews: {
			{Keys: bson.D{{Key: "employee_id", Value: 1}}},
		},
		colNotifications: {
			{Keys: bson.D{{Key: "recipient", Value: 1}, {Key: "sent_at", Value: 1}}},
		},
	}
}
