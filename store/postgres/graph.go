package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/xraph/hrflow"
	"github.com/xraph/hrflow/graph"
	"github.com/xraph/hrflow/id"
)

const runColumns = `
	id, graph, state, frontier, seq, input, output, error,
	started_at, completed_at, created_at, updated_at`

// CreateRun persists a new run.
func (s *Store) CreateRun(ctx context.Context, run *graph.Run) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO hrflow_runs (
			id, graph, state, frontier, seq, input, output, error,
			started_at, completed_at, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		run.ID.String(), run.Graph, string(run.State), run.Frontier, run.Seq,
		run.Input, run.Output, run.Error,
		run.StartedAt, run.CompletedAt, run.CreatedAt, run.UpdatedAt,
	)
	if err != nil {
		if isDuplicateKey(err) {
			return hrflow.ErrRunAlreadyExists
		}
		return fmt.Errorf("hrflow/postgres: create run: %w", err)
	}
	return nil
}

// GetRun retrieves a run by ID.
func (s *Store) GetRun(ctx context.Context, runID id.RunID) (*graph.Run, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT`+runColumns+` FROM hrflow_runs WHERE id = $1`,
		runID.String(),
	)
	run, err := scanRun(row)
	if err != nil {
		if isNoRows(err) {
			return nil, hrflow.ErrRunNotFound
		}
		return nil, fmt.Errorf("hrflow/postgres: get run: %w", err)
	}
	return run, nil
}

// UpdateRun persists changes to an existing run.
func (s *Store) UpdateRun(ctx context.Context, run *graph.Run) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE hrflow_runs SET
			graph = $2, state = $3, frontier = $4, seq = $5,
			input = $6, output = $7, error = $8,
			started_at = $9, completed_at = $10, updated_at = NOW()
		WHERE id = $1`,
		run.ID.String(), run.Graph, string(run.State), run.Frontier, run.Seq,
		run.Input, run.Output, run.Error,
		run.StartedAt, run.CompletedAt,
	)
	if err != nil {
		return fmt.Errorf("hrflow/postgres: update run: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return hrflow.ErrRunNotFound
	}
	return nil
}

// ListRuns returns runs matching the given options, newest first.
func (s *Store) ListRuns(ctx context.Context, opts graph.ListOpts) ([]*graph.Run, error) {
	query := `SELECT` + runColumns + ` FROM hrflow_runs WHERE 1=1`
	args := []any{}
	if opts.State != "" {
		args = append(args, string(opts.State))
		query += fmt.Sprintf(" AND state = $%d", len(args))
	}
	if opts.Graph != "" {
		args = append(args, opts.Graph)
		query += fmt.Sprintf(" AND graph = $%d", len(args))
	}
	query += " ORDER BY created_at DESC"
	if opts.Limit > 0 {
		args = append(args, opts.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if opts.Offset > 0 {
		args = append(args, opts.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("hrflow/postgres: list runs: %w", err)
	}
	defer rows.Close()

	var runs []*graph.Run
	for rows.Next() {
		run, scanErr := scanRun(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("hrflow/postgres: list runs: %w", scanErr)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// DeleteRun removes a run and its checkpoints.
func (s *Store) DeleteRun(ctx context.Context, runID id.RunID) error {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM hrflow_runs WHERE id = $1`, runID.String())
	if err != nil {
		return fmt.Errorf("hrflow/postgres: delete run: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return hrflow.ErrRunNotFound
	}
	return nil
}

// SaveCheckpoint persists a checkpoint. A checkpoint that already exists
// for the same (run, seq) is left untouched: the first write wins.
func (s *Store) SaveCheckpoint(ctx context.Context, cp *graph.Checkpoint) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO hrflow_checkpoints (id, run_id, seq, steps, next, state, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (run_id, seq) DO NOTHING`,
		cp.ID.String(), cp.RunID.String(), cp.Seq, cp.Steps, cp.Next, cp.State, cp.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("hrflow/postgres: save checkpoint: %w", err)
	}
	return nil
}

// LoadLatestCheckpoint returns the checkpoint with the highest seq for
// the run, or ErrNoCheckpoint when none exists.
func (s *Store) LoadLatestCheckpoint(ctx context.Context, runID id.RunID) (*graph.Checkpoint, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, run_id, seq, steps, next, state, created_at
		FROM hrflow_checkpoints
		WHERE run_id = $1
		ORDER BY seq DESC
		LIMIT 1`,
		runID.String(),
	)
	cp, err := scanCheckpoint(row)
	if err != nil {
		if isNoRows(err) {
			return nil, hrflow.ErrNoCheckpoint
		}
		return nil, fmt.Errorf("hrflow/postgres: load checkpoint: %w", err)
	}
	return cp, nil
}

// ListCheckpoints returns all checkpoints for a run ordered by seq.
func (s *Store) ListCheckpoints(ctx context.Context, runID id.RunID) ([]*graph.Checkpoint, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, run_id, seq, steps, next, state, created_at
		FROM hrflow_checkpoints
		WHERE run_id = $1
		ORDER BY seq ASC`,
		runID.String(),
	)
	if err != nil {
		return nil, fmt.Errorf("hrflow/postgres: list checkpoints: %w", err)
	}
	defer rows.Close()

	var cps []*graph.Checkpoint
	for rows.Next() {
		cp, scanErr := scanCheckpoint(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("hrflow/postgres: list checkpoints: %w", scanErr)
		}
		cps = append(cps, cp)
	}
	return cps, rows.Err()
}

func scanRun(row pgx.Row) (*graph.Run, error) {
	var (
		rawID       string
		run         graph.Run
		state       string
		completedAt *time.Time
	)
	err := row.Scan(
		&rawID, &run.Graph, &state, &run.Frontier, &run.Seq,
		&run.Input, &run.Output, &run.Error,
		&run.StartedAt, &completedAt, &run.CreatedAt, &run.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	parsed, err := id.ParseRunID(rawID)
	if err != nil {
		return nil, fmt.Errorf("parse run id %q: %w", rawID, err)
	}
	run.ID = parsed
	run.State = graph.RunState(state)
	run.CompletedAt = completedAt
	return &run, nil
}

func scanCheckpoint(row pgx.Row) (*graph.Checkpoint, error) {
	var (
		rawID    string
		rawRunID string
		cp       graph.Checkpoint
	)
	err := row.Scan(&rawID, &rawRunID, &cp.Seq, &cp.Steps, &cp.Next, &cp.State, &cp.CreatedAt)
	if err != nil {
		return nil, err
	}

	parsed, err := id.ParseCheckpointID(rawID)
	if err != nil {
		return nil, fmt.Errorf("parse checkpoint id %q: %w", rawID, err)
	}
	parsedRun, err := id.ParseRunID(rawRunID)
	if err != nil {
		return nil, fmt.Errorf("parse run id %q: %w", rawRunID, err)
	}
	cp.ID = parsed
	cp.RunID = parsedRun
	return &cp, nil
}
