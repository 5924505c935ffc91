package graph

import (
	"time"

	"github.com/xraph/hrflow"
	"github.com/xraph/hrflow/id"
)

// RunState represents the lifecycle state of a workflow run.
type RunState string

const (
	// RunStatePending means the run is created but not yet executing.
	RunStatePending RunState = "pending"
	// RunStateRunning means the run is currently executing steps.
	RunStateRunning RunState = "running"
	// RunStateSuspended means the run is paused between steps and can
	// be resumed.
	RunStateSuspended RunState = "suspended"
	// RunStateCompleted means the run reached a terminal step.
	RunStateCompleted RunState = "completed"
	// RunStateFailed means the run failed terminally. The last good
	// checkpoint remains the resumable point.
	RunStateFailed RunState = "failed"
)

// Run represents a single execution of a graph.
type Run struct {
	hrflow.Entity

	ID    id.RunID `json:"id"`
	Graph string   `json:"graph"`
	State RunState `json:"state"`

	// Frontier is the set of steps to execute next. More than one step
	// means parallel branches.
	Frontier []string `json:"frontier,omitempty"`

	// Seq is the sequence number of the last saved checkpoint.
	Seq int `json:"seq"`

	Input       []byte     `json:"input,omitempty"`
	Output      []byte     `json:"output,omitempty"`
	Error       string     `json:"error,omitempty"`
	StartedAt   time.Time  `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// Terminal reports whether the run reached a final state.
func (r *Run) Terminal() bool {
	return r.State == RunStateCompleted || r.State == RunStateFailed
}
