package hrflow

import "time"

// Config holds configuration for the Orchestrator.
type Config struct {
	// MaxStepRetries is the maximum number of retry attempts for a
	// failing step before the run transitions to Failed.
	MaxStepRetries int

	// CheckpointRetries is the maximum number of retry attempts for a
	// failed checkpoint write. The run stays Running while retrying.
	CheckpointRetries int

	// StepTimeout is the maximum duration a single step may run before
	// its context is cancelled. Zero disables the per-step deadline.
	StepTimeout time.Duration

	// RunTimeout bounds one workflow run end to end.
	RunTimeout time.Duration

	// MaxConcurrentRuns caps the number of runs executing at once.
	MaxConcurrentRuns int

	// ShutdownTimeout is the maximum time to wait for graceful shutdown.
	ShutdownTimeout time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		MaxStepRetries:    3,
		CheckpointRetries: 5,
		StepTimeout:       2 * time.Minute,
		RunTimeout:        30 * time.Minute,
		MaxConcurrentRuns: 10,
		ShutdownTimeout:   30 * time.Second,
	}
}
