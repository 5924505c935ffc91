package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"

	goredis "github.com/redis/go-redis/v9"

	"github.com/xraph/hrflow"
	"github.com/xraph/hrflow/graph"
	"github.com/xraph/hrflow/id"
)

// CreateRun persists a new run.
func (s *Store) CreateRun(ctx context.Context, run *graph.Run) error {
	rID := run.ID.String()
	exists, err := s.client.Exists(ctx, runKey(rID)).Result()
	if err != nil {
		return fmt.Errorf("hrflow/redis: create run exists: %w", err)
	}
	if exists > 0 {
		return hrflow.ErrRunAlreadyExists
	}
	return s.putJSON(ctx, runKey(rID), runIDsKey, rID, run)
}

// GetRun retrieves a run by ID.
func (s *Store) GetRun(ctx context.Context, runID id.RunID) (*graph.Run, error) {
	var run graph.Run
	if err := s.getJSON(ctx, runKey(runID.String()), &run, hrflow.ErrRunNotFound); err != nil {
		return nil, err
	}
	return &run, nil
}

// UpdateRun persists changes to an existing run.
func (s *Store) UpdateRun(ctx context.Context, run *graph.Run) error {
	run.Touch()
	return s.updateJSON(ctx, runKey(run.ID.String()), run, hrflow.ErrRunNotFound)
}

// ListRuns returns runs matching the given options, newest first.
func (s *Store) ListRuns(ctx context.Context, opts graph.ListOpts) ([]*graph.Run, error) {
	ids, err := s.client.SMembers(ctx, runIDsKey).Result()
	if err != nil {
		return nil, fmt.Errorf("hrflow/redis: list runs: %w", err)
	}

	var runs []*graph.Run
	for _, rID := range ids {
		var run graph.Run
		if getErr := s.getJSON(ctx, runKey(rID), &run, hrflow.ErrRunNotFound); getErr != nil {
			continue
		}
		if opts.State != "" && run.State != opts.State {
			continue
		}
		if opts.Graph != "" && run.Graph != opts.Graph {
			continue
		}
		runs = append(runs, &run)
	}
	sort.Slice(runs, func(i, j int) bool {
		return runs[i].CreatedAt.After(runs[j].CreatedAt)
	})

	if opts.Offset > 0 {
		if opts.Offset >= len(runs) {
			return nil, nil
		}
		runs = runs[opts.Offset:]
	}
	if opts.Limit > 0 && opts.Limit < len(runs) {
		runs = runs[:opts.Limit]
	}
	return runs, nil
}

// DeleteRun removes a run and its checkpoints.
func (s *Store) DeleteRun(ctx context.Context, runID id.RunID) error {
	rID := runID.String()
	exists, err := s.client.Exists(ctx, runKey(rID)).Result()
	if err != nil {
		return fmt.Errorf("hrflow/redis: delete run exists: %w", err)
	}
	if exists == 0 {
		return hrflow.ErrRunNotFound
	}

	seqs, err := s.client.ZRange(ctx, checkpointSeqKey(rID), 0, -1).Result()
	if err != nil {
		return fmt.Errorf("hrflow/redis: delete run checkpoints: %w", err)
	}

	pipe := s.client.TxPipeline()
	for _, raw := range seqs {
		seq, convErr := strconv.Atoi(raw)
		if convErr != nil {
			continue
		}
		pipe.Del(ctx, checkpointKey(rID, seq))
	}
	pipe.Del(ctx, checkpointSeqKey(rID))
	pipe.Del(ctx, runKey(rID))
	pipe.SRem(ctx, runIDsKey, rID)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("hrflow/redis: delete run: %w", err)
	}
	return nil
}

// SaveCheckpoint persists a checkpoint. A checkpoint that already exists
// for the same (run, seq) is left untouched: the first write wins.
func (s *Store) SaveCheckpoint(ctx context.Context, cp *graph.Checkpoint) error {
	rID := cp.RunID.String()
	data, err := json.Marshal(cp)
	if err != nil {
		return fmt.Errorf("hrflow/redis: encode checkpoint: %w", err)
	}

	ok, err := s.client.SetNX(ctx, checkpointKey(rID, cp.Seq), data, 0).Result()
	if err != nil {
		return fmt.Errorf("hrflow/redis: save checkpoint: %w", err)
	}
	if !ok {
		return nil
	}
	member := goredis.Z{Score: float64(cp.Seq), Member: strconv.Itoa(cp.Seq)}
	err = s.client.ZAdd(ctx, checkpointSeqKey(rID), member).Err()
	if err != nil {
		return fmt.Errorf("hrflow/redis: index checkpoint: %w", err)
	}
	return nil
}

// LoadLatestCheckpoint returns the checkpoint with the highest seq for
// the run, or ErrNoCheckpoint when none exists.
func (s *Store) LoadLatestCheckpoint(ctx context.Context, runID id.RunID) (*graph.Checkpoint, error) {
	rID := runID.String()
	latest, err := s.client.ZRevRange(ctx, checkpointSeqKey(rID), 0, 0).Result()
	if err != nil {
		return nil, fmt.Errorf("hrflow/redis: load checkpoint: %w", err)
	}
	if len(latest) == 0 {
		return nil, hrflow.ErrNoCheckpoint
	}

	seq, err := strconv.Atoi(latest[0])
	if err != nil {
		return nil, fmt.Errorf("hrflow/redis: load checkpoint seq %q: %w", latest[0], err)
	}
	var cp graph.Checkpoint
	if err := s.getJSON(ctx, checkpointKey(rID, seq), &cp, hrflow.ErrNoCheckpoint); err != nil {
		return nil, err
	}
	return &cp, nil
}

// ListCheckpoints returns all checkpoints for a run ordered by seq.
func (s *Store) ListCheckpoints(ctx context.Context, runID id.RunID) ([]*graph.Checkpoint, error) {
	rID := runID.String()
	seqs, err := s.client.ZRange(ctx, checkpointSeqKey(rID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("hrflow/redis: list checkpoints: %w", err)
	}

	var cps []*graph.Checkpoint
	for _, raw := range seqs {
		seq, convErr := strconv.Atoi(raw)
		if convErr != nil {
			continue
		}
		var cp graph.Checkpoint
		if getErr := s.getJSON(ctx, checkpointKey(rID, seq), &cp, hrflow.ErrNoCheckpoint); getErr != nil {
			continue
		}
		cps = append(cps, &cp)
	}
	return cps, nil
}
