package graph

import (
	"context"

	"github.com/xraph/hrflow/id"
)

// ListOpts controls filtering and pagination for run list queries.
type ListOpts struct {
	// Limit is the maximum number of runs to return. Zero means no limit.
	Limit int
	// Offset is the number of runs to skip.
	Offset int
	// State filters by run state. Empty means all states.
	State RunState
	// Graph filters by graph name. Empty means all graphs.
	Graph string
}

// Store defines the persistence contract for runs and checkpoints.
type Store interface {
	// CreateRun persists a new run. It fails with ErrRunAlreadyExists
	// if the run ID is taken.
	CreateRun(ctx context.Context, run *Run) error

	// GetRun retrieves a run by ID. It fails with ErrRunNotFound if
	// the run does not exist.
	GetRun(ctx context.Context, runID id.RunID) (*Run, error)

	// UpdateRun persists changes to an existing run.
	UpdateRun(ctx context.Context, run *Run) error

	// ListRuns returns runs matching the given options, newest first.
	ListRuns(ctx context.Context, opts ListOpts) ([]*Run, error)

	// DeleteRun removes a run and all of its checkpoints.
	DeleteRun(ctx context.Context, runID id.RunID) error

	// SaveCheckpoint persists a checkpoint. Saving an existing
	// (RunID, Seq) pair is a no-op: the first write wins.
	SaveCheckpoint(ctx context.Context, cp *Checkpoint) error

	// LoadLatestCheckpoint returns the highest-seq checkpoint for a
	// run. It fails with ErrNoCheckpoint if none exists.
	LoadLatestCheckpoint(ctx context.Context, runID id.RunID) (*Checkpoint, error)

	// ListCheckpoints returns all checkpoints for a run ordered by Seq.
	ListCheckpoints(ctx context.Context, runID id.RunID) ([]*Checkpoint, error)
}
