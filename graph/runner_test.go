package graph_test

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/xraph/hrflow"
	"github.com/xraph/hrflow/backoff"
	"github.com/xraph/hrflow/graph"
	"github.com/xraph/hrflow/id"
	"github.com/xraph/hrflow/state"
	"github.com/xraph/hrflow/store/memory"
)

// setDone marks the named field "done" and follows declared edges.
func setDone(field string) graph.StepFunc {
	return func(_ context.Context, st *state.State) (graph.Hint, error) {
		st.Set(field, "done")
		return graph.Continue, nil
	}
}

func linearGraph(t *testing.T, reg *graph.Registry) {
	t.Helper()
	g := graph.New("linear")
	g.MustRegister("A", setDone("A"), graph.To("B"))
	g.MustRegister("B", setDone("B"), graph.To("C"))
	g.MustRegister("C", setDone("C"))
	if err := reg.Register(g); err != nil {
		t.Fatalf("Register: %v", err)
	}
}

func TestRunner_LinearCompletes(t *testing.T) {
	runner, reg, s, em := newTestRunner()
	linearGraph(t, reg)

	run, err := runner.Start(context.Background(), "linear", map[string]any{"stage": "start"})
	if err != nil {
		t.Fatalf("Start: %v", err)
	}

	if run.State != graph.RunStateCompleted {
		t.Fatalf("run state = %q, want completed (error: %s)", run.State, run.Error)
	}
	if run.CompletedAt == nil {
		t.Error("expected CompletedAt to be set")
	}

	var out map[string]any
	if err := json.Unmarshal(run.Output, &out); err != nil {
		t.Fatalf("unmarshal output: %v", err)
	}
	want := map[string]any{"stage": "start", "A": "done", "B": "done", "C": "done"}
	if len(out) != len(want) {
		t.Errorf("output = %v, want %v", out, want)
	}
	for k, v := range want {
		if out[k] != v {
			t.Errorf("output[%q] = %v, want %v", k, out[k], v)
		}
	}

	stored, err := s.GetRun(context.Background(), run.ID)
	if err != nil {
		t.Fatalf("GetRun: %v", err)
	}
	if stored.State != graph.RunStateCompleted {
		t.Errorf("stored state = %q, want completed", stored.State)
	}

	if em.runStarted != 1 || em.runCompleted != 1 {
		t.Errorf("events: started=%d completed=%d, want 1/1", em.runStarted, em.runCompleted)
	}
}

func TestRunner_StartUnknownGraph(t *testing.T) {
	runner, _, _, _ := newTestRunner()

	_, err := runner.Start(context.Background(), "nonexistent", nil)
	if !errors.Is(err, hrflow.ErrGraphNotFound) {
		t.Fatalf("err = %v, want ErrGraphNotFound", err)
	}
}

func TestRunner_ConditionalRouting(t *testing.T) {
	runner, reg, _, _ := newTestRunner()

	g := graph.New("screening")
	g.MustRegister("screen", func(_ context.Context, st *state.State) (graph.Hint, error) {
		st.Set("recommendation", "reject")
		return graph.Continue, nil
	},
		graph.When("interview", graph.FieldEquals("recommendation", "proceed")),
		graph.When("reject", graph.FieldEquals("recommendation", "reject")),
	)
	g.MustRegister("interview", setDone("interviewed"))
	g.MustRegister("reject", setDone("rejected"))
	if err := reg.Register(g); err != nil {
		t.Fatalf("Register: %v", err)
	}

	run, err := runner.Start(context.Background(), "screening", nil)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if run.State != graph.RunStateCompleted {
		t.Fatalf("run state = %q, want completed", run.State)
	}

	var out map[string]any
	if err := json.Unmarshal(run.Output, &out); err != nil {
		t.Fatalf("unmarshal output: %v", err)
	}
	if out["rejected"] != "done" {
		t.Error("expected reject branch to execute")
	}
	if _, ok := out["interviewed"]; ok {
		t.Error("interview branch must not execute")
	}
}

func TestRunner_HintOverridesEdges(t *testing.T) {
	runner, reg, _, _ := newTestRunner()

	g := graph.New("hinted")
	g.MustRegister("start", func(_ context.Context, _ *state.State) (graph.Hint, error) {
		return graph.Goto("skip_to"), nil
	}, graph.To("declared"))
	g.MustRegister("declared", setDone("declared"))
	g.MustRegister("skip_to", setDone("skipped_to"))
	if err := reg.Register(g); err != nil {
		t.Fatalf("Register: %v", err)
	}

	run, err := runner.Start(context.Background(), "hinted", nil)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}

	var out map[string]any
	if err := json.Unmarshal(run.Output, &out); err != nil {
		t.Fatalf("unmarshal output: %v", err)
	}
	if out["skipped_to"] != "done" {
		t.Error("expected hinted step to execute")
	}
	if _, ok := out["declared"]; ok {
		t.Error("declared edge must be overridden by the hint")
	}
}

func TestRunner_EndHintTerminates(t *testing.T) {
	runner, reg, _, _ := newTestRunner()

	g := graph.New("ended")
	g.MustRegister("start", func(_ context.Context, st *state.State) (graph.Hint, error) {
		st.Set("started", true)
		return graph.End, nil
	}, graph.To("never"))
	g.MustRegister("never", setDone("never"))
	if err := reg.Register(g); err != nil {
		t.Fatalf("Register: %v", err)
	}

	run, err := runner.Start(context.Background(), "ended", nil)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if run.State != graph.RunStateCompleted {
		t.Fatalf("run state = %q, want completed", run.State)
	}

	var out map[string]any
	if err := json.Unmarshal(run.Output, &out); err != nil {
		t.Fatalf("unmarshal output: %v", err)
	}
	if _, ok := out["never"]; ok {
		t.Error("End hint must stop the run before declared edges")
	}
}

func TestRunner_RetryThenSucceed(t *testing.T) {
	runner, reg, _, em := newTestRunner(graph.WithMaxRetries(3))

	var attempts atomic.Int32
	g := graph.New("flaky")
	g.MustRegister("only", func(_ context.Context, st *state.State) (graph.Hint, error) {
		if attempts.Add(1) < 3 {
			return graph.Continue, errors.New("transient")
		}
		st.Set("ok", true)
		return graph.Continue, nil
	})
	if err := reg.Register(g); err != nil {
		t.Fatalf("Register: %v", err)
	}

	run, err := runner.Start(context.Background(), "flaky", nil)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if run.State != graph.RunStateCompleted {
		t.Fatalf("run state = %q, want completed (error: %s)", run.State, run.Error)
	}
	if got := attempts.Load(); got != 3 {
		t.Errorf("attempts = %d, want 3", got)
	}
	if em.stepRetrying != 2 {
		t.Errorf("retry events = %d, want 2", em.stepRetrying)
	}
}

func TestRunner_RetryExhausted_FailsExactlyOnce(t *testing.T) {
	runner, reg, s, em := newTestRunner(graph.WithMaxRetries(2))

	var attempts atomic.Int32
	g := graph.New("doomed")
	g.MustRegister("only", func(_ context.Context, _ *state.State) (graph.Hint, error) {
		attempts.Add(1)
		return graph.Continue, errors.New("permanent")
	})
	if err := reg.Register(g); err != nil {
		t.Fatalf("Register: %v", err)
	}

	run, err := runner.Start(context.Background(), "doomed", nil)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}

	if run.State != graph.RunStateFailed {
		t.Fatalf("run state = %q, want failed", run.State)
	}
	// Initial attempt plus two retries.
	if got := attempts.Load(); got != 3 {
		t.Errorf("attempts = %d, want 3", got)
	}
	if em.runFailed != 1 {
		t.Errorf("run failed events = %d, want exactly 1", em.runFailed)
	}

	stored, err := s.GetRun(context.Background(), run.ID)
	if err != nil {
		t.Fatalf("GetRun: %v", err)
	}
	if !strings.Contains(stored.Error, hrflow.ErrMaxRetriesExceeded.Error()) {
		t.Errorf("stored error = %q, want max retries cause", stored.Error)
	}
}

func TestRunner_FieldErrorNotRetried(t *testing.T) {
	runner, reg, _, _ := newTestRunner(graph.WithMaxRetries(5))

	var attempts atomic.Int32
	g := graph.New("misaccess")
	g.MustRegister("only", func(_ context.Context, st *state.State) (graph.Hint, error) {
		attempts.Add(1)
		_, err := st.Get("never_set")
		return graph.Continue, err
	})
	if err := reg.Register(g); err != nil {
		t.Fatalf("Register: %v", err)
	}

	run, err := runner.Start(context.Background(), "misaccess", nil)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}

	if run.State != graph.RunStateFailed {
		t.Fatalf("run state = %q, want failed", run.State)
	}
	if got := attempts.Load(); got != 1 {
		t.Errorf("attempts = %d, want 1 (field errors are not retried)", got)
	}
	if !strings.Contains(run.Error, "never_set") {
		t.Errorf("run error = %q, want the missing field named", run.Error)
	}
}

func TestRunner_ParallelMerge_LaterDeclaredWins(t *testing.T) {
	runner, reg, _, _ := newTestRunner()

	var b1, b2 atomic.Int32
	g := graph.New("fanout")
	g.MustRegister("split", func(_ context.Context, _ *state.State) (graph.Hint, error) {
		return graph.Goto("branch1", "branch2"), nil
	})
	g.MustRegister("branch1", func(_ context.Context, st *state.State) (graph.Hint, error) {
		b1.Add(1)
		st.Set("result", "from-branch1")
		st.Set("only1", true)
		return graph.End, nil
	})
	g.MustRegister("branch2", func(_ context.Context, st *state.State) (graph.Hint, error) {
		b2.Add(1)
		st.Set("result", "from-branch2")
		return graph.End, nil
	})
	if err := reg.Register(g); err != nil {
		t.Fatalf("Register: %v", err)
	}

	run, err := runner.Start(context.Background(), "fanout", nil)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if run.State != graph.RunStateCompleted {
		t.Fatalf("run state = %q, want completed (error: %s)", run.State, run.Error)
	}
	if b1.Load() != 1 || b2.Load() != 1 {
		t.Errorf("branch executions = %d/%d, want 1/1", b1.Load(), b2.Load())
	}

	var out map[string]any
	if err := json.Unmarshal(run.Output, &out); err != nil {
		t.Fatalf("unmarshal output: %v", err)
	}
	if out["result"] != "from-branch2" {
		t.Errorf("result = %v, want from-branch2 (later-declared branch wins)", out["result"])
	}
	if out["only1"] != true {
		t.Error("non-conflicting branch fields must survive the merge")
	}
}

func TestRunner_NoCheckpointWhenStateClean(t *testing.T) {
	runner, reg, s, _ := newTestRunner()

	g := graph.New("readonly")
	g.MustRegister("a", noop, graph.To("b"))
	g.MustRegister("b", noop)
	if err := reg.Register(g); err != nil {
		t.Fatalf("Register: %v", err)
	}

	run, err := runner.Start(context.Background(), "readonly", map[string]any{"seeded": true})
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if run.State != graph.RunStateCompleted {
		t.Fatalf("run state = %q, want completed", run.State)
	}

	cps, err := s.ListCheckpoints(context.Background(), run.ID)
	if err != nil {
		t.Fatalf("ListCheckpoints: %v", err)
	}
	if len(cps) != 0 {
		t.Errorf("expected no checkpoints for clean run, got %d", len(cps))
	}
}

func TestRunner_CheckpointsSequence(t *testing.T) {
	runner, reg, s, _ := newTestRunner()
	linearGraph(t, reg)

	run, err := runner.Start(context.Background(), "linear", map[string]any{"stage": "start"})
	if err != nil {
		t.Fatalf("Start: %v", err)
	}

	cps, err := s.ListCheckpoints(context.Background(), run.ID)
	if err != nil {
		t.Fatalf("ListCheckpoints: %v", err)
	}
	if len(cps) != 3 {
		t.Fatalf("expected 3 checkpoints, got %d", len(cps))
	}
	for i, cp := range cps {
		if cp.Seq != i+1 {
			t.Errorf("checkpoint %d Seq = %d, want %d", i, cp.Seq, i+1)
		}
	}
	// The final checkpoint records a terminal frontier.
	if len(cps[2].Next) != 0 {
		t.Errorf("final checkpoint Next = %v, want empty", cps[2].Next)
	}
}

// flakySaveStore wraps the memory store and fails SaveCheckpoint a set
// number of times before letting writes through.
type flakySaveStore struct {
	*memory.Store
	failures  atomic.Int32
	saveCalls atomic.Int32
}

func (s *flakySaveStore) SaveCheckpoint(ctx context.Context, cp *graph.Checkpoint) error {
	s.saveCalls.Add(1)
	if s.failures.Add(-1) >= 0 {
		return errors.New("checkpoint backend unavailable")
	}
	return s.Store.SaveCheckpoint(ctx, cp)
}

func newFlakyRunner(failures int32, opts ...graph.RunnerOption) (*graph.Runner, *graph.Registry, *flakySaveStore, *recordingEmitter) {
	s := &flakySaveStore{Store: memory.New()}
	s.failures.Store(failures)
	reg := graph.NewRegistry()
	em := &recordingEmitter{}
	base := []graph.RunnerOption{
		graph.WithBackoff(backoff.NewConstant(time.Millisecond)),
		graph.WithCheckpointBackoff(backoff.NewConstant(time.Millisecond)),
	}
	runner := graph.NewRunner(reg, s, em, testLogger(), append(base, opts...)...)
	return runner, reg, s, em
}

func TestRunner_CheckpointWriteRetriedThenSucceeds(t *testing.T) {
	runner, reg, s, em := newFlakyRunner(3, graph.WithCheckpointRetries(5))
	linearGraph(t, reg)

	run, err := runner.Start(context.Background(), "linear", map[string]any{"stage": "start"})
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if run.State != graph.RunStateCompleted {
		t.Fatalf("run state = %q, want completed (error: %s)", run.State, run.Error)
	}

	cps, err := s.ListCheckpoints(context.Background(), run.ID)
	if err != nil {
		t.Fatalf("ListCheckpoints: %v", err)
	}
	if len(cps) != 3 {
		t.Fatalf("expected 3 checkpoints, got %d", len(cps))
	}
	// Seq 1 took three failed attempts plus one success; seqs 2 and 3
	// wrote first try.
	if got := s.saveCalls.Load(); got != 6 {
		t.Errorf("save calls = %d, want 6", got)
	}
	if em.runFailed != 0 {
		t.Errorf("run failed events = %d, want 0", em.runFailed)
	}
}

func TestRunner_CheckpointWriteExhausted_FailsOnce(t *testing.T) {
	runner, reg, s, em := newFlakyRunner(1<<30, graph.WithCheckpointRetries(1))
	linearGraph(t, reg)

	run, err := runner.Start(context.Background(), "linear", map[string]any{"stage": "start"})
	if err != nil {
		t.Fatalf("Start: %v", err)
	}

	if run.State != graph.RunStateFailed {
		t.Fatalf("run state = %q, want failed", run.State)
	}
	// Initial attempt plus one retry.
	if got := s.saveCalls.Load(); got != 2 {
		t.Errorf("save calls = %d, want 2", got)
	}
	if em.runFailed != 1 {
		t.Errorf("run failed events = %d, want exactly 1", em.runFailed)
	}

	stored, err := s.GetRun(context.Background(), run.ID)
	if err != nil {
		t.Fatalf("GetRun: %v", err)
	}
	if !strings.Contains(stored.Error, "checkpoint save") {
		t.Errorf("stored error = %q, want checkpoint save cause", stored.Error)
	}
	if _, err := s.LoadLatestCheckpoint(context.Background(), run.ID); !errors.Is(err, hrflow.ErrNoCheckpoint) {
		t.Errorf("LoadLatestCheckpoint = %v, want ErrNoCheckpoint", err)
	}
}

func TestRunner_ResumeAfterFailureMatchesUninterrupted(t *testing.T) {
	runner, reg, _, _ := newTestRunner(graph.WithMaxRetries(0))

	var failB atomic.Bool
	failB.Store(true)
	g := graph.New("resumable")
	g.MustRegister("A", setDone("A"), graph.To("B"))
	g.MustRegister("B", func(_ context.Context, st *state.State) (graph.Hint, error) {
		if failB.Load() {
			return graph.Continue, errors.New("storage offline")
		}
		st.Set("B", "done")
		return graph.Continue, nil
	}, graph.To("C"))
	g.MustRegister("C", setDone("C"))
	if err := reg.Register(g); err != nil {
		t.Fatalf("Register: %v", err)
	}

	run, err := runner.Start(context.Background(), "resumable", map[string]any{"stage": "start"})
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if run.State != graph.RunStateFailed {
		t.Fatalf("run state = %q, want failed", run.State)
	}

	// Repair the dependency and resume from the last good checkpoint.
	failB.Store(false)
	resumed, err := runner.Resume(context.Background(), run.ID)
	if err != nil {
		t.Fatalf("Resume: %v", err)
	}
	if resumed.State != graph.RunStateCompleted {
		t.Fatalf("resumed state = %q, want completed (error: %s)", resumed.State, resumed.Error)
	}

	var out map[string]any
	if err := json.Unmarshal(resumed.Output, &out); err != nil {
		t.Fatalf("unmarshal output: %v", err)
	}
	want := map[string]any{"stage": "start", "A": "done", "B": "done", "C": "done"}
	for k, v := range want {
		if out[k] != v {
			t.Errorf("output[%q] = %v, want %v", k, out[k], v)
		}
	}
}

func TestRunner_ResumeCompletedRejected(t *testing.T) {
	runner, reg, _, _ := newTestRunner()
	linearGraph(t, reg)

	run, err := runner.Start(context.Background(), "linear", map[string]any{"stage": "start"})
	if err != nil {
		t.Fatalf("Start: %v", err)
	}

	_, err = runner.Resume(context.Background(), run.ID)
	if !errors.Is(err, hrflow.ErrInvalidState) {
		t.Fatalf("Resume completed run = %v, want ErrInvalidState", err)
	}
}

func TestRunner_CancelBetweenSteps(t *testing.T) {
	runner, reg, _, _ := newTestRunner()

	var cExecuted atomic.Bool
	g := graph.New("cancellable")
	g.MustRegister("A", func(_ context.Context, st *state.State) (graph.Hint, error) {
		runID, err := id.ParseRunID(st.RunID())
		if err != nil {
			return graph.Continue, err
		}
		runner.Cancel(runID)
		st.Set("A", "done")
		return graph.Continue, nil
	}, graph.To("B"))
	g.MustRegister("B", func(_ context.Context, _ *state.State) (graph.Hint, error) {
		cExecuted.Store(true)
		return graph.Continue, nil
	})
	if err := reg.Register(g); err != nil {
		t.Fatalf("Register: %v", err)
	}

	run, err := runner.Start(context.Background(), "cancellable", nil)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}

	if run.State != graph.RunStateFailed {
		t.Fatalf("run state = %q, want failed", run.State)
	}
	if !strings.Contains(run.Error, hrflow.ErrRunCancelled.Error()) {
		t.Errorf("run error = %q, want cancellation reason", run.Error)
	}
	if cExecuted.Load() {
		t.Error("step after cancellation must not execute")
	}
}

func TestRunner_PauseSuspendsThenResumes(t *testing.T) {
	runner, reg, _, em := newTestRunner()

	var aCalls, bCalls atomic.Int32
	g := graph.New("pausable")
	g.MustRegister("A", func(_ context.Context, st *state.State) (graph.Hint, error) {
		aCalls.Add(1)
		runID, err := id.ParseRunID(st.RunID())
		if err != nil {
			return graph.Continue, err
		}
		runner.Pause(runID)
		st.Set("A", "done")
		return graph.Continue, nil
	}, graph.To("B"))
	g.MustRegister("B", func(_ context.Context, st *state.State) (graph.Hint, error) {
		bCalls.Add(1)
		st.Set("B", "done")
		return graph.Continue, nil
	})
	if err := reg.Register(g); err != nil {
		t.Fatalf("Register: %v", err)
	}

	run, err := runner.Start(context.Background(), "pausable", nil)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if run.State != graph.RunStateSuspended {
		t.Fatalf("run state = %q, want suspended", run.State)
	}
	if em.runSuspended != 1 {
		t.Errorf("suspend events = %d, want 1", em.runSuspended)
	}
	if bCalls.Load() != 0 {
		t.Fatal("step B must not run while suspended")
	}

	resumed, err := runner.Resume(context.Background(), run.ID)
	if err != nil {
		t.Fatalf("Resume: %v", err)
	}
	if resumed.State != graph.RunStateCompleted {
		t.Fatalf("resumed state = %q, want completed (error: %s)", resumed.State, resumed.Error)
	}
	if aCalls.Load() != 1 {
		t.Errorf("A calls = %d, want 1 (checkpointed work is not repeated)", aCalls.Load())
	}
	if bCalls.Load() != 1 {
		t.Errorf("B calls = %d, want 1", bCalls.Load())
	}
}

func TestRunner_ResumeAll(t *testing.T) {
	runner, reg, s, _ := newTestRunner()
	linearGraph(t, reg)

	run, err := runner.Start(context.Background(), "linear", map[string]any{"stage": "start"})
	if err != nil {
		t.Fatalf("Start: %v", err)
	}

	// Simulate a crash mid-execution: mark the run running again.
	run.State = graph.RunStateRunning
	run.CompletedAt = nil
	if err := s.UpdateRun(context.Background(), run); err != nil {
		t.Fatalf("UpdateRun: %v", err)
	}

	if err := runner.ResumeAll(context.Background()); err != nil {
		t.Fatalf("ResumeAll: %v", err)
	}

	stored, err := s.GetRun(context.Background(), run.ID)
	if err != nil {
		t.Fatalf("GetRun: %v", err)
	}
	if stored.State != graph.RunStateCompleted {
		t.Errorf("stored state = %q, want completed", stored.State)
	}
}
