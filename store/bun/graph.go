package bunstore

import (
	"context"
	"fmt"
	"time"

	"github.com/xraph/hrflow"
	"github.com/xraph/hrflow/graph"
	"github.com/xraph/hrflow/id"
)

// CreateRun persists a new run.
func (s *Store) CreateRun(ctx context.Context, run *graph.Run) error {
	m, err := toRunModel(run)
	if err != nil {
		return err
	}
	res, err := s.db.NewInsert().Model(m).Ignore().Exec(ctx)
	if err != nil {
		return fmt.Errorf("hrflow/bun: create run: %w", err)
	}
	rows, _ := res.RowsAffected() //nolint:errcheck // driver always returns nil
	if rows == 0 {
		return hrflow.ErrRunAlreadyExists
	}
	return nil
}

// GetRun retrieves a run by ID.
func (s *Store) GetRun(ctx context.Context, runID id.RunID) (*graph.Run, error) {
	m := new(runModel)
	err := s.db.NewSelect().Model(m).
		Where("id = ?", runID.String()).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, hrflow.ErrRunNotFound
		}
		return nil, fmt.Errorf("hrflow/bun: get run: %w", err)
	}
	return fromRunModel(m)
}

// UpdateRun persists changes to an existing run.
func (s *Store) UpdateRun(ctx context.Context, run *graph.Run) error {
	m, err := toRunModel(run)
	if err != nil {
		return err
	}
	m.UpdatedAt = time.Now().UTC()
	res, err := s.db.NewUpdate().Model(m).WherePK().Exec(ctx)
	if err != nil {
		return fmt.Errorf("hrflow/bun: update run: %w", err)
	}
	rows, _ := res.RowsAffected() //nolint:errcheck // driver always returns nil
	if rows == 0 {
		return hrflow.ErrRunNotFound
	}
	return nil
}

// ListRuns returns runs matching the given options, newest first.
func (s *Store) ListRuns(ctx context.Context, opts graph.ListOpts) ([]*graph.Run, error) {
	var models []runModel
	q := s.db.NewSelect().Model(&models)

	if opts.State != "" {
		q = q.Where("state = ?", string(opts.State))
	}
	if opts.Graph != "" {
		q = q.Where("graph = ?", opts.Graph)
	}
	q = q.Order("created_at DESC")
	if opts.Limit > 0 {
		q = q.Limit(opts.Limit)
	}
	if opts.Offset > 0 {
		q = q.Offset(opts.Offset)
	}

	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("hrflow/bun: list runs: %w", err)
	}

	runs := make([]*graph.Run, 0, len(models))
	for i := range models {
		run, convErr := fromRunModel(&models[i])
		if convErr != nil {
			return nil, fmt.Errorf("hrflow/bun: list runs convert: %w", convErr)
		}
		runs = append(runs, run)
	}
	return runs, nil
}

// DeleteRun removes a run and its checkpoints.
func (s *Store) DeleteRun(ctx context.Context, runID id.RunID) error {
	rID := runID.String()
	_, err := s.db.NewDelete().
		TableExpr("hrflow_checkpoints").
		Where("run_id = ?", rID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("hrflow/bun: delete run checkpoints: %w", err)
	}

	res, err := s.db.NewDelete().
		TableExpr("hrflow_runs").
		Where("id = ?", rID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("hrflow/bun: delete run: %w", err)
	}
	rows, _ := res.RowsAffected() //nolint:errcheck // driver always returns nil
	if rows == 0 {
		return hrflow.ErrRunNotFound
	}
	return nil
}

// SaveCheckpoint persists a checkpoint. A checkpoint that already exists
// for the same (run, seq) is left untouched: the first write wins.
func (s *Store) SaveCheckpoint(ctx context.Context, cp *graph.Checkpoint) error {
	m, err := toCheckpointModel(cp)
	if err != nil {
		return err
	}
	_, err = s.db.NewInsert().Model(m).Ignore().Exec(ctx)
	if err != nil {
		return fmt.Errorf("hrflow/bun: save checkpoint: %w", err)
	}
	return nil
}

// LoadLatestCheckpoint returns the checkpoint with the highest seq for
// the run, or ErrNoCheckpoint when none exists.
func (s *Store) LoadLatestCheckpoint(ctx context.Context, runID id.RunID) (*graph.Checkpoint, error) {
	m := new(checkpointModel)
	err := s.db.NewSelect().Model(m).
		Where("run_id = ?", runID.String()).
		Order("seq DESC").
		Limit(1).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, hrflow.ErrNoCheckpoint
		}
		return nil, fmt.Errorf("hrflow/bun: load checkpoint: %w", err)
	}
	return fromCheckpointModel(m)
}

// ListCheckpoints returns all checkpoints for a run ordered by seq.
func (s *Store) ListCheckpoints(ctx context.Context, runID id.RunID) ([]*graph.Checkpoint, error) {
	var models []checkpointModel
	err := s.db.NewSelect().Model(&models).
		Where("run_id = ?", runID.String()).
		Order("seq ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("hrflow/bun: list checkpoints: %w", err)
	}

	cps := make([]*graph.Checkpoint, 0, len(models))
	for i := range models {
		cp, convErr := fromCheckpointModel(&models[i])
		if convErr != nil {
			return nil, fmt.Errorf("hrflow/bun: list checkpoints convert: %w", convErr)
		}
		cps = append(cps, cp)
	}
	return cps, nil
}
