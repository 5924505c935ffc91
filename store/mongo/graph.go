package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/xraph/hrflow"
	"github.com/xraph/hrflow/graph"
	"github.com/xraph/hrflow/id"
)

// CreateRun persists a new run.
func (s *Store) CreateRun(ctx context.Context, run *graph.Run) error {
	_, err := s.db.Collection(colRuns).InsertOne(ctx, toRunModel(run))
	if err != nil {
		if isDuplicateKey(err) {
			return hrflow.ErrRunAlreadyExists
		}
		return fmt.Errorf("hrflow/mongo: create run: %w", err)
	}
	return nil
}

// GetRun retrieves a run by ID.
func (s *Store) GetRun(ctx context.Context, runID id.RunID) (*graph.Run, error) {
	var m runModel
	err := s.db.Collection(colRuns).FindOne(ctx, bson.M{"_id": runID.String()}).Decode(&m)
	if err != nil {
		if isNoDocuments(err) {
			return nil, hrflow.ErrRunNotFound
		}
		return nil, fmt.Errorf("hrflow/mongo: get run: %w", err)
	}
	return fromRunModel(&m)
}

// UpdateRun persists changes to an existing run.
func (s *Store) UpdateRun(ctx context.Context, run *graph.Run) error {
	m := toRunModel(run)
	m.UpdatedAt = now()
	res, err := s.db.Collection(colRuns).ReplaceOne(ctx, bson.M{"_id": m.ID}, m)
	if err != nil {
		return fmt.Errorf("hrflow/mongo: update run: %w", err)
	}
	if res.MatchedCount == 0 {
		return hrflow.ErrRunNotFound
	}
	return nil
}

// ListRuns returns runs matching the given options, newest first.
func (s *Store) ListRuns(ctx context.Context, opts graph.ListOpts) ([]*graph.Run, error) {
	filter := bson.M{}
	if opts.State != "" {
		filter["state"] = string(opts.State)
	}
	if opts.Graph != "" {
		filter["graph"] = opts.Graph
	}

	findOpts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	if opts.Limit > 0 {
		findOpts.SetLimit(int64(opts.Limit))
	}
	if opts.Offset > 0 {
		findOpts.SetSkip(int64(opts.Offset))
	}

	cursor, err := s.db.Collection(colRuns).Find(ctx, filter, findOpts)
	if err != nil {
		return nil, fmt.Errorf("hrflow/mongo: list runs: %w", err)
	}
	defer cursor.Close(ctx)

	var models []runModel
	if err := cursor.All(ctx, &models); err != nil {
		return nil, fmt.Errorf("hrflow/mongo: list runs decode: %w", err)
	}

	runs := make([]*graph.Run, 0, len(models))
	for i := range models {
		run, convErr := fromRunModel(&models[i])
		if convErr != nil {
			return nil, fmt.Errorf("hrflow/mongo: list runs convert: %w", convErr)
		}
		runs = append(runs, run)
	}
	return runs, nil
}

// DeleteRun removes a run and its checkpoints.
func (s *Store) DeleteRun(ctx context.Context, runID id.RunID) error {
	rID := runID.String()
	res, err := s.db.Collection(colRuns).DeleteOne(ctx, bson.M{"_id": rID})
	if err != nil {
		return fmt.Errorf("hrflow/mongo: delete run: %w", err)
	}
	if res.DeletedCount == 0 {
		return hrflow.ErrRunNotFound
	}
	_, err = s.db.Collection(colCheckpoints).DeleteMany(ctx, bson.M{"run_id": rID})
	if err != nil {
		return fmt.Errorf("hrflow/mongo: delete run checkpoints: %w", err)
	}
	return nil
}

// SaveCheckpoint persists a checkpoint. A checkpoint that already exists
// for the same (run, seq) is left untouched: the first write wins. The
// unique (run_id, seq) index turns the race into a duplicate key error.
func (s *Store) SaveCheckpoint(ctx context.Context, cp *graph.Checkpoint) error {
	_, err := s.db.Collection(colCheckpoints).InsertOne(ctx, toCheckpointModel(cp))
	if err != nil {
		if isDuplicateKey(err) {
			return nil
		}
		return fmt.Errorf("hrflow/mongo: save checkpoint: %w", err)
	}
	return nil
}

// LoadLatestCheckpoint returns the checkpoint with the highest seq for
// the run, or ErrNoCheckpoint when none exists.
func (s *Store) LoadLatestCheckpoint(ctx context.Context, runID id.RunID) (*graph.Checkpoint, error) {
	findOpts := options.FindOne().SetSort(bson.D{{Key: "seq", Value: -1}})
	var m checkpointModel
	err := s.db.Collection(colCheckpoints).
		FindOne(ctx, bson.M{"run_id": runID.String()}, findOpts).
		Decode(&m)
	if err != nil {
		if isNoDocuments(err) {
			return nil, hrflow.ErrNoCheckpoint
		}
		return nil, fmt.Errorf("hrflow/mongo: load checkpoint: %w", err)
	}
	return fromCheckpointModel(&m)
}

// ListCheckpoints returns all checkpoints for a run ordered by seq.
func (s *Store) ListCheckpoints(ctx context.Context, runID id.RunID) ([]*graph.Checkpoint, error) {
	findOpts := options.Find().SetSort(bson.D{{Key: "seq", Value: 1}})
	cursor, err := s.db.Collection(colCheckpoints).
		Find(ctx, bson.M{"run_id": runID.String()}, findOpts)
	if err != nil {
		return nil, fmt.Errorf("hrflow/mongo: list checkpoints: %w", err)
	}
	defer cursor.Close(ctx)

	var models []checkpointModel
	if err := cursor.All(ctx, &models); err != nil {
		return nil, fmt.Errorf("hrflow/mongo: list checkpoints decode: %w", err)
	}

	cps := make([]*graph.Checkpoint, 0, len(models))
	for i := range models {
		cp, convErr := fromCheckpointModel(&models[i])
		if convErr != nil {
			return nil, fmt.Errorf("hrflow/mongo: list checkpoints convert: %w", convErr)
		}
		cps = append(cps, cp)
	}
	return cps, nil
}
