package graph

import (
	"time"

	"github.com/xraph/hrflow/id"
)

// Checkpoint is an immutable snapshot of workflow state tagged with a
// run identifier and step sequence number, enabling resumption after
// failure from the highest-seq checkpoint.
type Checkpoint struct {
	ID    id.CheckpointID `json:"id"`
	RunID id.RunID        `json:"run_id"`

	// Seq orders checkpoints within a run. Saving the same (RunID, Seq)
	// pair twice is a no-op.
	Seq int `json:"seq"`

	// Steps are the frontier steps whose completion produced this
	// checkpoint.
	Steps []string `json:"steps,omitempty"`

	// Next is the frontier to execute when resuming from this
	// checkpoint. Empty means the run was terminal at this point.
	Next []string `json:"next,omitempty"`

	// State is the JSON snapshot of the workflow state.
	State []byte `json:"state"`

	CreatedAt time.Time `json:"created_at"`
}
