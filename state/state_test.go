package state

import (
	"errors"
	"sync"
	"testing"
)

func TestGetMissingField(t *testing.T) {
	s := New("run_test", nil)

	_, err := s.Get("stage")
	if err == nil {
		t.Fatal("expected error for missing field")
	}
	var fe *FieldError
	if !errors.As(err, &fe) {
		t.Fatalf("expected *FieldError, got %T", err)
	}
	if fe.Field != "stage" {
		t.Errorf("expected field %q, got %q", "stage", fe.Field)
	}
}

func TestSetThenGet(t *testing.T) {
	s := New("run_test", nil)
	s.Set("stage", "screening")

	v, err := s.Get("stage")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v != "screening" {
		t.Errorf("expected %q, got %v", "screening", v)
	}
}

func TestGetDefault(t *testing.T) {
	s := New("run_test", map[string]any{"count": 3})

	if got := s.GetDefault("count", 0); got != 3 {
		t.Errorf("expected 3, got %v", got)
	}
	if got := s.GetDefault("missing", "fallback"); got != "fallback" {
		t.Errorf("expected fallback, got %v", got)
	}
}

func TestGetString(t *testing.T) {
	s := New("run_test", map[string]any{"name": "Ada", "count": 2})

	name, err := s.GetString("name")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if name != "Ada" {
		t.Errorf("expected Ada, got %q", name)
	}

	if _, err := s.GetString("count"); err == nil {
		t.Error("expected error for non-string field")
	}
	var fe *FieldError
	if _, err := s.GetString("missing"); !errors.As(err, &fe) {
		t.Errorf("expected *FieldError for missing field, got %v", err)
	}
}

func TestDirtyTracking(t *testing.T) {
	s := New("run_test", map[string]any{"seeded": true})
	if s.Dirty() {
		t.Error("initial payload must not mark state dirty")
	}

	s.Set("stage", "start")
	if !s.Dirty() {
		t.Error("Set must mark state dirty")
	}

	s.ClearDirty()
	if s.Dirty() {
		t.Error("ClearDirty must reset the flag")
	}

	// Reads never dirty the state.
	_, _ = s.Get("stage")
	_ = s.GetDefault("stage", "")
	_ = s.Fields()
	if s.Dirty() {
		t.Error("reads must not mark state dirty")
	}
}

func TestAppend(t *testing.T) {
	s := New("run_test", nil)
	s.Append("messages", "screened")
	s.Append("messages", "interviewed")

	v, err := s.Get("messages")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	msgs, ok := v.([]any)
	if !ok || len(msgs) != 2 {
		t.Fatalf("expected 2 messages, got %v", v)
	}
	if msgs[0] != "screened" || msgs[1] != "interviewed" {
		t.Errorf("unexpected order: %v", msgs)
	}
}

func TestCloneIsIndependent(t *testing.T) {
	s := New("run_test", map[string]any{"stage": "start"})
	s.Set("shared", 1)

	c := s.Clone()
	if c.RunID() != s.RunID() {
		t.Error("clone must share the run ID")
	}
	if c.Dirty() {
		t.Error("clone must start clean")
	}

	c.Set("branch", "a")
	if s.Has("branch") {
		t.Error("clone writes must not leak into the source")
	}
}

func TestMergeLaterWins(t *testing.T) {
	base := New("run_test", map[string]any{"stage": "start"})

	a := base.Clone()
	a.Set("result", "from-a")
	a.Set("only_a", true)

	b := base.Clone()
	b.Set("result", "from-b")

	base.Merge(a)
	base.Merge(b)

	v, err := base.Get("result")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v != "from-b" {
		t.Errorf("later merge must win conflicts, got %v", v)
	}
	if !base.Has("only_a") {
		t.Error("non-conflicting fields must survive the merge")
	}
	if !base.Dirty() {
		t.Error("merging a dirty branch must dirty the target")
	}
}

func TestMergeCleanBranchStaysClean(t *testing.T) {
	base := New("run_test", map[string]any{"stage": "start"})
	branch := base.Clone()

	base.Merge(branch)
	if base.Dirty() {
		t.Error("merging a clean branch must not dirty the target")
	}
}

func TestSnapshotRestore(t *testing.T) {
	s := New("run_abc", nil)
	s.Set("stage", "done")
	s.Set("score", 4.5)

	data, err := s.Snapshot()
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}

	r, err := Restore("run_abc", data)
	if err != nil {
		t.Fatalf("restore: %v", err)
	}
	if r.Dirty() {
		t.Error("restored state must start clean")
	}
	stage, err := r.GetString("stage")
	if err != nil || stage != "done" {
		t.Errorf("expected stage done, got %q (%v)", stage, err)
	}
	if got := r.GetDefault("score", 0.0); got != 4.5 {
		t.Errorf("expected 4.5, got %v", got)
	}
}

func TestRestoreEmptySnapshot(t *testing.T) {
	r, err := Restore("run_abc", nil)
	if err != nil {
		t.Fatalf("restore: %v", err)
	}
	if len(r.Fields()) != 0 {
		t.Error("empty snapshot must restore empty fields")
	}
}

func TestConcurrentAccess(t *testing.T) {
	s := New("run_test", nil)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				s.Set("counter", n)
				_ = s.GetDefault("counter", 0)
				_ = s.Fields()
			}
		}(i)
	}
	wg.Wait()

	if !s.Has("counter") {
		t.Error("expected counter field after concurrent writes")
	}
}
