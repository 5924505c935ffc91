package graph

import "fmt"

// StepError wraps a step execution failure. Step errors are retried by
// the runner up to the configured bound, except when the cause is a
// state field error or a cancelled context.
type StepError struct {
	Graph   string
	Step    string
	Attempt int
	Err     error
}

// Error implements the error interface.
func (e *StepError) Error() string {
	return fmt.Sprintf("graph %s step %q attempt %d: %v", e.Graph, e.Step, e.Attempt, e.Err)
}

// Unwrap returns the underlying cause.
func (e *StepError) Unwrap() error { return e.Err }

// CheckpointError wraps a checkpoint store failure. Save failures are
// retried with backoff while the run stays Running; load failures are
// fatal for resumption.
type CheckpointError struct {
	// Op is "save" or "load".
	Op    string
	RunID string
	Seq   int
	Err   error
}

// Error implements the error interface.
func (e *CheckpointError) Error() string {
	return fmt.Sprintf("checkpoint %s run %s seq %d: %v", e.Op, e.RunID, e.Seq, e.Err)
}

// Unwrap returns the underlying cause.
func (e *CheckpointError) Unwrap() error { return e.Err }
