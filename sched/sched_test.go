package sched_test

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/xraph/hrflow/graph"
	"github.com/xraph/hrflow/id"
	"github.com/xraph/hrflow/sched"
)

// startSpy tracks StartFunc calls with thread safety.
type startSpy struct {
	mu    sync.Mutex
	calls []startCall
}

type startCall struct {
	Graph   string
	Initial map[string]any
}

func (s *startSpy) Fn() sched.StartFunc {
	return func(_ context.Context, graphName string, initial map[string]any) (*graph.Run, error) {
		s.mu.Lock()
		s.calls = append(s.calls, startCall{Graph: graphName, Initial: initial})
		s.mu.Unlock()
		return &graph.Run{ID: id.NewRunID(), Graph: graphName}, nil
	}
}

func (s *startSpy) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}

func (s *startSpy) Last() *startCall {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.calls) == 0 {
		return nil
	}
	return &s.calls[len(s.calls)-1]
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestScheduler_FiresDueEntry(t *testing.T) {
	spy := &startSpy{}
	s := sched.NewScheduler(spy.Fn(),
		sched.WithTickInterval(5*time.Millisecond),
		sched.WithLogger(discardLogger()),
	)

	err := s.Register(&sched.Entry{
		Name:     "review-sweep",
		Schedule: "@every 10ms",
		Graph:    "performance_review",
		Initial:  map[string]any{"period": "2026-Q3"},
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer s.Stop(context.Background())

	deadline := time.Now().Add(2 * time.Second)
	for spy.Count() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if spy.Count() == 0 {
		t.Fatal("entry never fired")
	}

	call := spy.Last()
	if call.Graph != "performance_review" {
		t.Errorf("Graph = %q, want performance_review", call.Graph)
	}
	if call.Initial["period"] != "2026-Q3" {
		t.Errorf("Initial[period] = %v, want 2026-Q3", call.Initial["period"])
	}
}

func TestScheduler_RegisterValidation(t *testing.T) {
	s := sched.NewScheduler((&startSpy{}).Fn(), sched.WithLogger(discardLogger()))

	if err := s.Register(&sched.Entry{Schedule: "@every 1m", Graph: "g"}); err == nil {
		t.Error("expected error for entry without a name")
	}
	if err := s.Register(&sched.Entry{Name: "x", Schedule: "@every 1m"}); err == nil {
		t.Error("expected error for entry without a graph")
	}
	if err := s.Register(&sched.Entry{Name: "x", Schedule: "not a cron", Graph: "g"}); err == nil {
		t.Error("expected error for bad schedule expression")
	}
}

func TestScheduler_DuplicateName(t *testing.T) {
	s := sched.NewScheduler((&startSpy{}).Fn(), sched.WithLogger(discardLogger()))

	entry := func() *sched.Entry {
		return &sched.Entry{Name: "dup", Schedule: "@every 1h", Graph: "candidate_screening"}
	}
	if err := s.Register(entry()); err != nil {
		t.Fatalf("first Register: %v", err)
	}
	if err := s.Register(entry()); err == nil {
		t.Error("expected error registering duplicate entry name")
	}
}

func TestScheduler_StopHaltsFiring(t *testing.T) {
	spy := &startSpy{}
	s := sched.NewScheduler(spy.Fn(),
		sched.WithTickInterval(5*time.Millisecond),
		sched.WithLogger(discardLogger()),
	)
	if err := s.Register(&sched.Entry{Name: "fast", Schedule: "@every 10ms", Graph: "g"}); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for spy.Count() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}

	if err := s.Stop(context.Background()); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	countAtStop := spy.Count()
	time.Sleep(50 * time.Millisecond)
	if spy.Count() != countAtStop {
		t.Errorf("scheduler fired after Stop: %d -> %d", countAtStop, spy.Count())
	}

	// Stop again is a no-op.
	if err := s.Stop(context.Background()); err != nil {
		t.Fatalf("second Stop: %v", err)
	}
}

func TestParseSchedule(t *testing.T) {
	if _, err := sched.ParseSchedule("0 9 * * 1"); err != nil {
		t.Errorf("five-field expression: %v", err)
	}
	if _, err := sched.ParseSchedule("@every 30s"); err != nil {
		t.Errorf("descriptor: %v", err)
	}
	if _, err := sched.ParseSchedule("bogus"); err == nil {
		t.Error("expected error for bogus expression")
	}
}
