package graph_test

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/xraph/hrflow/backoff"
	"github.com/xraph/hrflow/graph"
	"github.com/xraph/hrflow/store/memory"
)

// testLogger returns a silent logger for tests.
func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// recordingEmitter counts lifecycle events for assertions.
type recordingEmitter struct {
	mu           sync.Mutex
	runStarted   int
	runCompleted int
	runFailed    int
	runSuspended int
	stepFailed   int
	stepRetrying int
}

func (e *recordingEmitter) EmitStepCompleted(context.Context, *graph.Run, string, time.Duration) {}

func (e *recordingEmitter) EmitStepFailed(context.Context, *graph.Run, string, int, error) {
	e.mu.Lock()
	e.stepFailed++
	e.mu.Unlock()
}

func (e *recordingEmitter) EmitStepRetrying(context.Context, *graph.Run, string, int, time.Duration) {
	e.mu.Lock()
	e.stepRetrying++
	e.mu.Unlock()
}

func (e *recordingEmitter) EmitRunStarted(context.Context, *graph.Run) {
	e.mu.Lock()
	e.runStarted++
	e.mu.Unlock()
}

func (e *recordingEmitter) EmitRunCompleted(context.Context, *graph.Run, time.Duration) {
	e.mu.Lock()
	e.runCompleted++
	e.mu.Unlock()
}

func (e *recordingEmitter) EmitRunFailed(context.Context, *graph.Run, error) {
	e.mu.Lock()
	e.runFailed++
	e.mu.Unlock()
}

func (e *recordingEmitter) EmitRunSuspended(context.Context, *graph.Run) {
	e.mu.Lock()
	e.runSuspended++
	e.mu.Unlock()
}

// newTestRunner creates a runner over a fresh memory store with fast
// retry delays.
func newTestRunner(opts ...graph.RunnerOption) (*graph.Runner, *graph.Registry, *memory.Store, *recordingEmitter) {
	s := memory.New()
	reg := graph.NewRegistry()
	em := &recordingEmitter{}
	base := []graph.RunnerOption{
		graph.WithBackoff(backoff.NewConstant(time.Millisecond)),
		graph.WithCheckpointBackoff(backoff.NewConstant(time.Millisecond)),
	}
	runner := graph.NewRunner(reg, s, em, testLogger(), append(base, opts...)...)
	return runner, reg, s, em
}
