package hook_test

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/xraph/hrflow/graph"
	"github.com/xraph/hrflow/hook"
	"github.com/xraph/hrflow/notify"
)

// ──────────────────────────────────────────────────
// Test extensions
// ──────────────────────────────────────────────────

// allHooksExt implements every lifecycle hook for testing.
type allHooksExt struct {
	calls []string
}

func (e *allHooksExt) Name() string { return "all-hooks" }

func (e *allHooksExt) OnRunStarted(_ context.Context, _ *graph.Run) error {
	e.calls = append(e.calls, "OnRunStarted")
	return nil
}

func (e *allHooksExt) OnRunCompleted(_ context.Context, _ *graph.Run, _ time.Duration) error {
	e.calls = append(e.calls, "OnRunCompleted")
	return nil
}

func (e *allHooksExt) OnRunFailed(_ context.Context, _ *graph.Run, _ error) error {
	e.calls = append(e.calls, "OnRunFailed")
	return nil
}

func (e *allHooksExt) OnRunSuspended(_ context.Context, _ *graph.Run) error {
	e.calls = append(e.calls, "OnRunSuspended")
	return nil
}

func (e *allHooksExt) OnStepCompleted(_ context.Context, _ *graph.Run, _ string, _ time.Duration) error {
	e.calls = append(e.calls, "OnStepCompleted")
	return nil
}

func (e *allHooksExt) OnStepFailed(_ context.Context, _ *graph.Run, _ string, _ int, _ error) error {
	e.calls = append(e.calls, "OnStepFailed")
	return nil
}

func (e *allHooksExt) OnStepRetrying(_ context.Context, _ *graph.Run, _ string, _ int, _ time.Duration) error {
	e.calls = append(e.calls, "OnStepRetrying")
	return nil
}

func (e *allHooksExt) OnNotificationSent(_ context.Context, _ *notify.Notification) error {
	e.calls = append(e.calls, "OnNotificationSent")
	return nil
}

func (e *allHooksExt) OnShutdown(_ context.Context) error {
	e.calls = append(e.calls, "OnShutdown")
	return nil
}

// runOnlyExt only implements run-level hooks.
type runOnlyExt struct {
	calls []string
}

func (e *runOnlyExt) Name() string { return "run-only" }

func (e *runOnlyExt) OnRunStarted(_ context.Context, _ *graph.Run) error {
	e.calls = append(e.calls, "OnRunStarted")
	return nil
}

func (e *runOnlyExt) OnRunCompleted(_ context.Context, _ *graph.Run, _ time.Duration) error {
	e.calls = append(e.calls, "OnRunCompleted")
	return nil
}

// failingExt returns errors from hooks.
type failingExt struct{}

func (e *failingExt) Name() string { return "failing" }

func (e *failingExt) OnRunStarted(_ context.Context, _ *graph.Run) error {
	return errors.New("boom")
}

func (e *failingExt) OnShutdown(_ context.Context) error {
	return errors.New("shutdown boom")
}

// ──────────────────────────────────────────────────
// Tests
// ──────────────────────────────────────────────────

func TestRegistry_RegisterDiscoversInterfaces(t *testing.T) {
	r := hook.NewRegistry(slog.Default())
	all := &allHooksExt{}
	r.Register(all)

	if got := len(r.Extensions()); got != 1 {
		t.Fatalf("expected 1 extension, got %d", got)
	}
	if got := r.Extensions()[0].Name(); got != "all-hooks" {
		t.Fatalf("expected name 'all-hooks', got %q", got)
	}
}

func TestRegistry_EmitFiresOnlyImplementors(t *testing.T) {
	r := hook.NewRegistry(slog.Default())
	all := &allHooksExt{}
	ro := &runOnlyExt{}
	r.Register(all)
	r.Register(ro)

	ctx := context.Background()
	run := &graph.Run{Graph: "candidate_screening"}

	// Both implement OnRunStarted → both called.
	r.EmitRunStarted(ctx, run)
	if len(all.calls) != 1 || all.calls[0] != "OnRunStarted" {
		t.Fatalf("all: expected [OnRunStarted], got %v", all.calls)
	}
	if len(ro.calls) != 1 || ro.calls[0] != "OnRunStarted" {
		t.Fatalf("ro: expected [OnRunStarted], got %v", ro.calls)
	}

	// Only all implements OnStepCompleted → ro not called.
	r.EmitStepCompleted(ctx, run, "screen_resume", time.Second)
	if len(all.calls) != 2 || all.calls[1] != "OnStepCompleted" {
		t.Fatalf("all: expected OnStepCompleted as 2nd, got %v", all.calls)
	}
	if len(ro.calls) != 1 {
		t.Fatalf("ro: should still have 1 call, got %v", ro.calls)
	}
}

func TestRegistry_AllRunHooksFire(t *testing.T) {
	r := hook.NewRegistry(slog.Default())
	all := &allHooksExt{}
	r.Register(all)

	ctx := context.Background()
	run := &graph.Run{Graph: "employee_onboarding"}

	r.EmitRunStarted(ctx, run)
	r.EmitRunCompleted(ctx, run, time.Second)
	r.EmitRunFailed(ctx, run, errors.New("fail"))
	r.EmitRunSuspended(ctx, run)

	expected := []string{
		"OnRunStarted", "OnRunCompleted", "OnRunFailed", "OnRunSuspended",
	}
	if len(all.calls) != len(expected) {
		t.Fatalf("expected %d calls, got %d: %v", len(expected), len(all.calls), all.calls)
	}
	for i, want := range expected {
		if all.calls[i] != want {
			t.Errorf("call[%d] = %q, want %q", i, all.calls[i], want)
		}
	}
}

func TestRegistry_AllStepHooksFire(t *testing.T) {
	r := hook.NewRegistry(slog.Default())
	all := &allHooksExt{}
	r.Register(all)

	ctx := context.Background()
	run := &graph.Run{Graph: "interview_process"}

	r.EmitStepCompleted(ctx, run, "schedule", time.Second)
	r.EmitStepFailed(ctx, run, "conduct", 1, errors.New("step fail"))
	r.EmitStepRetrying(ctx, run, "conduct", 1, time.Second)

	expected := []string{"OnStepCompleted", "OnStepFailed", "OnStepRetrying"}
	if len(all.calls) != len(expected) {
		t.Fatalf("expected %d calls, got %d: %v", len(expected), len(all.calls), all.calls)
	}
	for i, want := range expected {
		if all.calls[i] != want {
			t.Errorf("call[%d] = %q, want %q", i, all.calls[i], want)
		}
	}
}

func TestRegistry_NotificationAndShutdownHooksFire(t *testing.T) {
	r := hook.NewRegistry(slog.Default())
	all := &allHooksExt{}
	r.Register(all)

	ctx := context.Background()
	r.EmitNotificationSent(ctx, &notify.Notification{Kind: notify.KindWelcome})
	r.EmitShutdown(ctx)

	if len(all.calls) != 2 {
		t.Fatalf("expected 2 calls, got %d: %v", len(all.calls), all.calls)
	}
	if all.calls[0] != "OnNotificationSent" {
		t.Errorf("call[0] = %q, want OnNotificationSent", all.calls[0])
	}
	if all.calls[1] != "OnShutdown" {
		t.Errorf("call[1] = %q, want OnShutdown", all.calls[1])
	}
}

func TestRegistry_HookErrorsLoggedNotPropagated(t *testing.T) {
	r := hook.NewRegistry(slog.Default())
	failing := &failingExt{}
	all := &allHooksExt{}

	// Register failing first, then all-hooks. Both should be called.
	r.Register(failing)
	r.Register(all)

	ctx := context.Background()
	run := &graph.Run{Graph: "candidate_screening"}

	// No panic, no error propagation. allHooksExt should still fire.
	r.EmitRunStarted(ctx, run)

	if len(all.calls) != 1 || all.calls[0] != "OnRunStarted" {
		t.Fatalf("all: expected [OnRunStarted] despite failing ext, got %v", all.calls)
	}
}

func TestRegistry_EmptyRegistryNoOp(_ *testing.T) {
	r := hook.NewRegistry(slog.Default())
	ctx := context.Background()

	// None of these should panic or error.
	r.EmitRunStarted(ctx, &graph.Run{})
	r.EmitRunCompleted(ctx, &graph.Run{}, time.Second)
	r.EmitRunFailed(ctx, &graph.Run{}, errors.New("x"))
	r.EmitRunSuspended(ctx, &graph.Run{})
	r.EmitStepCompleted(ctx, &graph.Run{}, "s", time.Second)
	r.EmitStepFailed(ctx, &graph.Run{}, "s", 1, errors.New("x"))
	r.EmitStepRetrying(ctx, &graph.Run{}, "s", 1, time.Second)
	r.EmitNotificationSent(ctx, &notify.Notification{})
	r.EmitShutdown(ctx)
}

func TestRegistry_MultipleExtensionsOrderPreserved(t *testing.T) {
	r := hook.NewRegistry(slog.Default())
	ext1 := &allHooksExt{}
	ext2 := &allHooksExt{}
	r.Register(ext1)
	r.Register(ext2)

	ctx := context.Background()
	r.EmitRunStarted(ctx, &graph.Run{})

	// Both should be called.
	if len(ext1.calls) != 1 {
		t.Errorf("ext1: expected 1 call, got %d", len(ext1.calls))
	}
	if len(ext2.calls) != 1 {
		t.Errorf("ext2: expected 1 call, got %d", len(ext2.calls))
	}
}
