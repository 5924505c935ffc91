package graph

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/xraph/hrflow"
	"github.com/xraph/hrflow/backoff"
	"github.com/xraph/hrflow/id"
	"github.com/xraph/hrflow/middleware"
	"github.com/xraph/hrflow/state"
)

// StepEmitter emits step-level lifecycle events.
type StepEmitter interface {
	EmitStepCompleted(ctx context.Context, run *Run, step string, elapsed time.Duration)
	EmitStepFailed(ctx context.Context, run *Run, step string, attempt int, err error)
	EmitStepRetrying(ctx context.Context, run *Run, step string, attempt int, delay time.Duration)
}

// RunEmitter emits run-level lifecycle events.
// This interface is satisfied by hook.Registry (via an adapter in the
// engine package) to break the import cycle between graph and hook.
type RunEmitter interface {
	StepEmitter
	EmitRunStarted(ctx context.Context, run *Run)
	EmitRunCompleted(ctx context.Context, run *Run, elapsed time.Duration)
	EmitRunFailed(ctx context.Context, run *Run, err error)
	EmitRunSuspended(ctx context.Context, run *Run)
}

// NopEmitter is a RunEmitter that discards all events.
type NopEmitter struct{}

func (NopEmitter) EmitStepCompleted(context.Context, *Run, string, time.Duration)    {}
func (NopEmitter) EmitStepFailed(context.Context, *Run, string, int, error)          {}
func (NopEmitter) EmitStepRetrying(context.Context, *Run, string, int, time.Duration) {}
func (NopEmitter) EmitRunStarted(context.Context, *Run)                              {}
func (NopEmitter) EmitRunCompleted(context.Context, *Run, time.Duration)             {}
func (NopEmitter) EmitRunFailed(context.Context, *Run, error)                        {}
func (NopEmitter) EmitRunSuspended(context.Context, *Run)                            {}

// control carries the between-step pause/cancel requests for one run.
// Flags are checked by the runner at frontier boundaries only; a step
// that is already executing runs to completion.
type control struct {
	mu     sync.Mutex
	pause  bool
	cancel bool
}

func (c *control) flags() (pause, cancel bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pause, c.cancel
}

// Runner executes graph runs: it walks the frontier, invokes steps with
// retry and backoff, merges parallel branches, and checkpoints state
// between steps.
type Runner struct {
	registry *Registry
	store    Store
	emitter  RunEmitter
	logger   *slog.Logger

	maxRetries        int
	strategy          backoff.Strategy
	checkpointRetries int
	checkpointBackoff backoff.Strategy
	stepTimeout       time.Duration
	chain             middleware.Middleware
	sem               chan struct{}

	controls sync.Map // run ID string → *control
	cpLocks  sync.Map // run ID string → *sync.Mutex
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithMaxRetries sets how many times a failed step is retried before
// the run transitions to Failed.
func WithMaxRetries(n int) RunnerOption {
	return func(r *Runner) { r.maxRetries = n }
}

// WithBackoff sets the delay strategy between step retries.
func WithBackoff(s backoff.Strategy) RunnerOption {
	return func(r *Runner) { r.strategy = s }
}

// WithCheckpointRetries sets how many times a failed checkpoint write
// is retried before the run transitions to Failed.
func WithCheckpointRetries(n int) RunnerOption {
	return func(r *Runner) { r.checkpointRetries = n }
}

// WithCheckpointBackoff sets the delay strategy between checkpoint
// write retries.
func WithCheckpointBackoff(s backoff.Strategy) RunnerOption {
	return func(r *Runner) { r.checkpointBackoff = s }
}

// WithStepTimeout sets a per-step execution deadline. Zero disables it.
func WithStepTimeout(d time.Duration) RunnerOption {
	return func(r *Runner) { r.stepTimeout = d }
}

// WithMiddleware wraps every step invocation with the given middleware
// chain, outermost first.
func WithMiddleware(mws ...middleware.Middleware) RunnerOption {
	return func(r *Runner) { r.chain = middleware.Chain(mws...) }
}

// WithMaxConcurrent bounds how many runs execute at once. Zero means
// unbounded.
func WithMaxConcurrent(n int) RunnerOption {
	return func(r *Runner) {
		if n > 0 {
			r.sem = make(chan struct{}, n)
		}
	}
}

// NewRunner creates a graph runner.
func NewRunner(registry *Registry, store Store, emitter RunEmitter, logger *slog.Logger, opts ...RunnerOption) *Runner {
	if emitter == nil {
		emitter = NopEmitter{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	r := &Runner{
		registry:          registry,
		store:             store,
		emitter:           emitter,
		logger:            logger,
		maxRetries:        3,
		strategy:          backoff.DefaultStrategy(),
		checkpointRetries: 5,
		checkpointBackoff: backoff.CheckpointStrategy(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Registry returns the graph registry.
func (r *Runner) Registry() *Registry { return r.registry }

// Store returns the run store.
func (r *Runner) Store() Store { return r.store }

// Start creates a run for the named graph with an initial state payload
// and executes it synchronously until it reaches a terminal state or is
// suspended. The returned run carries the outcome; a nil error means the
// run was created and executed, not that it completed successfully.
func (r *Runner) Start(ctx context.Context, graphName string, initial map[string]any) (*Run, error) {
	g, ok := r.registry.Get(graphName)
	if !ok {
		return nil, fmt.Errorf("start %q: %w", graphName, hrflow.ErrGraphNotFound)
	}
	if g.Entry() == "" {
		return nil, fmt.Errorf("start %q: graph has no entry step", graphName)
	}

	input, err := json.Marshal(initial)
	if err != nil {
		return nil, fmt.Errorf("marshal input for graph %q: %w", graphName, err)
	}

	run := &Run{
		Entity:    hrflow.NewEntity(),
		ID:        id.NewRunID(),
		Graph:     graphName,
		State:     RunStatePending,
		Frontier:  []string{g.Entry()},
		Input:     input,
		StartedAt: time.Now().UTC(),
	}

	if err := r.store.CreateRun(ctx, run); err != nil {
		return nil, fmt.Errorf("create run for graph %q: %w", graphName, err)
	}

	r.emitter.EmitRunStarted(ctx, run)

	st := state.New(run.ID.String(), initial)
	r.execute(ctx, run, g, st)

	return run, nil
}

// Resume continues a run from its highest-seq checkpoint. A run with no
// checkpoint restarts from the entry step with its original input.
// Failed runs resume from their last good checkpoint; completed runs
// fail with ErrInvalidState.
func (r *Runner) Resume(ctx context.Context, runID id.RunID) (*Run, error) {
	run, err := r.store.GetRun(ctx, runID)
	if err != nil {
		return nil, fmt.Errorf("get run %s: %w", runID, err)
	}
	if run.State == RunStateCompleted {
		return nil, fmt.Errorf("resume run %s in state %q: %w", runID, run.State, hrflow.ErrInvalidState)
	}
	run.Error = ""
	run.CompletedAt = nil

	g, ok := r.registry.Get(run.Graph)
	if !ok {
		return nil, fmt.Errorf("resume run %s: graph %q: %w", runID, run.Graph, hrflow.ErrGraphNotFound)
	}

	var st *state.State
	cp, err := r.store.LoadLatestCheckpoint(ctx, runID)
	switch {
	case errors.Is(err, hrflow.ErrNoCheckpoint):
		// Nothing durable yet: restart from the entry step.
		initial := make(map[string]any)
		if len(run.Input) > 0 {
			if umErr := json.Unmarshal(run.Input, &initial); umErr != nil {
				return nil, fmt.Errorf("unmarshal input for run %s: %w", runID, umErr)
			}
		}
		st = state.New(runID.String(), initial)
		run.Frontier = []string{g.Entry()}
	case err != nil:
		return nil, &CheckpointError{Op: "load", RunID: runID.String(), Err: err}
	default:
		st, err = state.Restore(runID.String(), cp.State)
		if err != nil {
			return nil, &CheckpointError{Op: "load", RunID: runID.String(), Seq: cp.Seq, Err: err}
		}
		run.Seq = cp.Seq
		run.Frontier = cp.Next
	}

	// A fresh resume clears any stale pause/cancel request.
	r.controls.Delete(runID.String())

	r.execute(ctx, run, g, st)
	return run, nil
}

// ResumeAll finds all runs left in "running" state and resumes them.
// Called at startup for crash recovery.
func (r *Runner) ResumeAll(ctx context.Context) error {
	runs, err := r.store.ListRuns(ctx, ListOpts{State: RunStateRunning})
	if err != nil {
		return fmt.Errorf("list running runs: %w", err)
	}

	for _, run := range runs {
		r.logger.Info("resuming run",
			slog.String("run_id", run.ID.String()),
			slog.String("graph", run.Graph),
		)
		if _, resumeErr := r.Resume(ctx, run.ID); resumeErr != nil {
			r.logger.Error("failed to resume run",
				slog.String("run_id", run.ID.String()),
				slog.String("error", resumeErr.Error()),
			)
		}
	}

	return nil
}

// Pause requests that a run suspend at the next frontier boundary.
// The step currently executing runs to completion first.
func (r *Runner) Pause(runID id.RunID) {
	c := r.controlFor(runID)
	c.mu.Lock()
	c.pause = true
	c.mu.Unlock()
}

// Cancel requests that a run stop at the next frontier boundary. The
// run transitions to Failed with a cancellation reason; its last good
// checkpoint remains.
func (r *Runner) Cancel(runID id.RunID) {
	c := r.controlFor(runID)
	c.mu.Lock()
	c.cancel = true
	c.mu.Unlock()
}

func (r *Runner) controlFor(runID id.RunID) *control {
	v, _ := r.controls.LoadOrStore(runID.String(), &control{})
	return v.(*control)
}

// execute walks the frontier until it empties, a failure exhausts its
// retries, or a pause/cancel request lands between steps.
func (r *Runner) execute(ctx context.Context, run *Run, g *Graph, st *state.State) {
	if r.sem != nil {
		select {
		case r.sem <- struct{}{}:
			defer func() { <-r.sem }()
		case <-ctx.Done():
			r.failRun(ctx, run, ctx.Err())
			return
		}
	}

	run.State = RunStateRunning
	r.updateRun(ctx, run)

	start := time.Now()
	defer r.controls.Delete(run.ID.String())

	for len(run.Frontier) > 0 {
		if pause, cancel := r.controlFor(run.ID).flags(); cancel {
			r.failRun(ctx, run, fmt.Errorf("run %s: %w", run.ID, hrflow.ErrRunCancelled))
			return
		} else if pause {
			r.suspendRun(ctx, run)
			return
		}

		if ctx.Err() != nil {
			r.failRun(ctx, run, ctx.Err())
			return
		}

		frontier := run.Frontier
		hints := make([]Hint, len(frontier))

		if len(frontier) == 1 {
			hint, err := r.runStep(ctx, run, g, frontier[0], st)
			if err != nil {
				r.failRun(ctx, run, err)
				return
			}
			hints[0] = hint
		} else {
			// Parallel branches each get a clone; clones merge back in
			// frontier order so the later-declared branch wins on field
			// conflict.
			clones := make([]*state.State, len(frontier))
			eg, gctx := errgroup.WithContext(ctx)
			for i, stepName := range frontier {
				clones[i] = st.Clone()
				eg.Go(func() error {
					hint, err := r.runStep(gctx, run, g, stepName, clones[i])
					if err != nil {
						return err
					}
					hints[i] = hint
					return nil
				})
			}
			if err := eg.Wait(); err != nil {
				r.failRun(ctx, run, err)
				return
			}
			for _, clone := range clones {
				st.Merge(clone)
			}
		}

		next := r.nextFrontier(g, frontier, hints, st)

		if st.Dirty() {
			seq := run.Seq + 1
			if err := r.saveCheckpoint(ctx, run, seq, frontier, next, st); err != nil {
				r.failRun(ctx, run, err)
				return
			}
			st.ClearDirty()
			run.Seq = seq
		}

		run.Frontier = next
		r.updateRun(ctx, run)
	}

	r.completeRun(ctx, run, st, time.Since(start))
}

// nextFrontier computes the next frontier from step hints and declared
// edges. A step hinting End contributes no successors; duplicates are
// collapsed while preserving declaration order.
func (r *Runner) nextFrontier(g *Graph, frontier []string, hints []Hint, st *state.State) []string {
	var next []string
	seen := make(map[string]bool)
	for i, stepName := range frontier {
		h := hints[i]
		if h.IsEnd() {
			continue
		}
		targets := h.Next()
		if targets == nil {
			targets = g.ResolveNext(stepName, st)
		}
		for _, t := range targets {
			if !seen[t] {
				seen[t] = true
				next = append(next, t)
			}
		}
	}
	return next
}

// runStep invokes one step with retry and backoff. Field errors and
// context cancellation are never retried; everything else is retried up
// to the configured bound.
func (r *Runner) runStep(ctx context.Context, run *Run, g *Graph, stepName string, st *state.State) (Hint, error) {
	fn, err := g.Step(stepName)
	if err != nil {
		return Hint{}, err
	}

	for attempt := 1; ; attempt++ {
		var hint Hint
		handler := func(hctx context.Context) error {
			h, stepErr := fn(hctx, st)
			hint = h
			return stepErr
		}

		stepCtx, cancel := ctx, context.CancelFunc(func() {})
		if r.stepTimeout > 0 {
			stepCtx, cancel = context.WithTimeout(ctx, r.stepTimeout)
		}

		start := time.Now()
		var stepErr error
		if r.chain != nil {
			info := middleware.StepInfo{
				RunID:   run.ID.String(),
				Graph:   run.Graph,
				Step:    stepName,
				Attempt: attempt,
				Timeout: r.stepTimeout,
			}
			stepErr = r.chain(stepCtx, info, handler)
		} else {
			stepErr = handler(stepCtx)
		}
		cancel()
		elapsed := time.Since(start)

		if stepErr == nil {
			r.emitter.EmitStepCompleted(ctx, run, stepName, elapsed)
			return hint, nil
		}

		r.emitter.EmitStepFailed(ctx, run, stepName, attempt, stepErr)

		var fieldErr *state.FieldError
		retryable := !errors.As(stepErr, &fieldErr) && ctx.Err() == nil

		if !retryable || attempt > r.maxRetries {
			wrapped := &StepError{Graph: run.Graph, Step: stepName, Attempt: attempt, Err: stepErr}
			if retryable {
				return Hint{}, fmt.Errorf("%w: %w", hrflow.ErrMaxRetriesExceeded, wrapped)
			}
			return Hint{}, wrapped
		}

		delay := r.strategy.Delay(attempt)
		r.emitter.EmitStepRetrying(ctx, run, stepName, attempt, delay)
		r.logger.Warn("retrying step",
			slog.String("run_id", run.ID.String()),
			slog.String("step", stepName),
			slog.Int("attempt", attempt),
			slog.Duration("delay", delay),
			slog.String("error", stepErr.Error()),
		)

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return Hint{}, &StepError{Graph: run.Graph, Step: stepName, Attempt: attempt, Err: ctx.Err()}
		}
	}
}

// saveCheckpoint persists a snapshot with write retries. Writes are
// serialized per run so concurrent saves cannot interleave sequence
// ordering.
func (r *Runner) saveCheckpoint(ctx context.Context, run *Run, seq int, steps, next []string, st *state.State) error {
	v, _ := r.cpLocks.LoadOrStore(run.ID.String(), &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	defer mu.Unlock()

	snapshot, err := st.Snapshot()
	if err != nil {
		return &CheckpointError{Op: "save", RunID: run.ID.String(), Seq: seq, Err: err}
	}

	cp := &Checkpoint{
		ID:        id.NewCheckpointID(),
		RunID:     run.ID,
		Seq:       seq,
		Steps:     steps,
		Next:      next,
		State:     snapshot,
		CreatedAt: time.Now().UTC(),
	}

	var lastErr error
	for attempt := 0; attempt <= r.checkpointRetries; attempt++ {
		if attempt > 0 {
			delay := r.checkpointBackoff.Delay(attempt)
			r.logger.Warn("retrying checkpoint write",
				slog.String("run_id", run.ID.String()),
				slog.Int("seq", seq),
				slog.Int("attempt", attempt),
				slog.Duration("delay", delay),
			)
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return &CheckpointError{Op: "save", RunID: run.ID.String(), Seq: seq, Err: ctx.Err()}
			}
		}
		if lastErr = r.store.SaveCheckpoint(ctx, cp); lastErr == nil {
			return nil
		}
	}

	return &CheckpointError{Op: "save", RunID: run.ID.String(), Seq: seq, Err: lastErr}
}

// failRun transitions a run to Failed exactly once, preserving the
// original cause.
func (r *Runner) failRun(ctx context.Context, run *Run, cause error) {
	if run.State == RunStateFailed {
		return
	}

	now := time.Now().UTC()
	run.State = RunStateFailed
	run.Error = cause.Error()
	run.CompletedAt = &now
	r.updateRun(ctx, run)
	r.emitter.EmitRunFailed(ctx, run, cause)
}

func (r *Runner) suspendRun(ctx context.Context, run *Run) {
	run.State = RunStateSuspended
	r.updateRun(ctx, run)
	r.emitter.EmitRunSuspended(ctx, run)
}

func (r *Runner) completeRun(ctx context.Context, run *Run, st *state.State, elapsed time.Duration) {
	output, err := st.Snapshot()
	if err != nil {
		r.failRun(ctx, run, err)
		return
	}

	now := time.Now().UTC()
	run.State = RunStateCompleted
	run.Output = output
	run.Frontier = nil
	run.CompletedAt = &now
	r.updateRun(ctx, run)
	r.emitter.EmitRunCompleted(ctx, run, elapsed)
}

func (r *Runner) updateRun(ctx context.Context, run *Run) {
	run.Touch()
	if err := r.store.UpdateRun(ctx, run); err != nil {
		r.logger.Error("failed to update run",
			slog.String("run_id", run.ID.String()),
			slog.String("state", string(run.State)),
			slog.String("error", err.Error()),
		)
	}
}
