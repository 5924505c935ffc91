package hook

import (
	"context"
	"log/slog"
	"time"

	"github.com/xraph/hrflow/graph"
	"github.com/xraph/hrflow/notify"
)

// Named entry types pair a hook implementation with the extension name
// captured at registration time. This avoids type-asserting back to
// Extension inside the emit methods.
type runStartedEntry struct {
	name string
	hook RunStarted
}

type runCompletedEntry struct {
	name string
	hook RunCompleted
}

type runFailedEntry struct {
	name string
	hook RunFailed
}

type runSuspendedEntry struct {
	name string
	hook RunSuspended
}

type stepCompletedEntry struct {
	name string
	hook StepCompleted
}

type stepFailedEntry struct {
	name string
	hook StepFailed
}

type stepRetryingEntry struct {
	name string
	hook StepRetrying
}

type notificationSentEntry struct {
	name string
	hook NotificationSent
}

type shutdownEntry struct {
	name string
	hook Shutdown
}

// Registry holds registered extensions and dispatches lifecycle events
// to them. It type-caches extensions at registration time so emit calls
// iterate only over extensions that implement the relevant hook.
type Registry struct {
	extensions []Extension
	logger     *slog.Logger

	// Type-cached slices for each lifecycle hook.
	runStarted       []runStartedEntry
	runCompleted     []runCompletedEntry
	runFailed        []runFailedEntry
	runSuspended     []runSuspendedEntry
	stepCompleted    []stepCompletedEntry
	stepFailed       []stepFailedEntry
	stepRetrying     []stepRetryingEntry
	notificationSent []notificationSentEntry
	shutdown         []shutdownEntry
}

// NewRegistry creates an extension registry with the given logger.
func NewRegistry(logger *slog.Logger) *Registry {
	return &Registry{logger: logger}
}

// Register adds an extension and type-asserts it into all applicable
// hook caches. Extensions are notified in registration order.
func (r *Registry) Register(e Extension) {
	r.extensions = append(r.extensions, e)
	name := e.Name()

	if h, ok := e.(RunStarted); ok {
		r.runStarted = append(r.runStarted, runStartedEntry{name, h})
	}
	if h, ok := e.(RunCompleted); ok {
		r.runCompleted = append(r.runCompleted, runCompletedEntry{name, h})
	}
	if h, ok := e.(RunFailed); ok {
		r.runFailed = append(r.runFailed, runFailedEntry{name, h})
	}
	if h, ok := e.(RunSuspended); ok {
		r.runSuspended = append(r.runSuspended, runSuspendedEntry{name, h})
	}
	if h, ok := e.(StepCompleted); ok {
		r.stepCompleted = append(r.stepCompleted, stepCompletedEntry{name, h})
	}
	if h, ok := e.(StepFailed); ok {
		r.stepFailed = append(r.stepFailed, stepFailedEntry{name, h})
	}
	if h, ok := e.(StepRetrying); ok {
		r.stepRetrying = append(r.stepRetrying, stepRetryingEntry{name, h})
	}
	if h, ok := e.(NotificationSent); ok {
		r.notificationSent = append(r.notificationSent, notificationSentEntry{name, h})
	}
	if h, ok := e.(Shutdown); ok {
		r.shutdown = append(r.shutdown, shutdownEntry{name, h})
	}
}

// Extensions returns all registered extensions.
func (r *Registry) Extensions() []Extension { return r.extensions }

// ──────────────────────────────────────────────────
// Run event emitters
// ──────────────────────────────────────────────────

// EmitRunStarted notifies all extensions that implement RunStarted.
func (r *Registry) EmitRunStarted(ctx context.Context, run *graph.Run) {
	for _, e := range r.runStarted {
		if err := e.hook.OnRunStarted(ctx, run); err != nil {
			r.logHookError("OnRunStarted", e.name, err)
		}
	}
}

// EmitRunCompleted notifies all extensions that implement RunCompleted.
func (r *Registry) EmitRunCompleted(ctx context.Context, run *graph.Run, elapsed time.Duration) {
	for _, e := range r.runCompleted {
		if err := e.hook.OnRunCompleted(ctx, run, elapsed); err != nil {
			r.logHookError("OnRunCompleted", e.name, err)
		}
	}
}

// EmitRunFailed notifies all extensions that implement RunFailed.
func (r *Registry) EmitRunFailed(ctx context.Context, run *graph.Run, runErr error) {
	for _, e := range r.runFailed {
		if err := e.hook.OnRunFailed(ctx, run, runErr); err != nil {
			r.logHookError("OnRunFailed", e.name, err)
		}
	}
}

// EmitRunSuspended notifies all extensions that implement RunSuspended.
func (r *Registry) EmitRunSuspended(ctx context.Context, run *graph.Run) {
	for _, e := range r.runSuspended {
		if err := e.hook.OnRunSuspended(ctx, run); err != nil {
			r.logHookError("OnRunSuspended", e.name, err)
		}
	}
}

// ──────────────────────────────────────────────────
// Step event emitters
// ──────────────────────────────────────────────────

// EmitStepCompleted notifies all extensions that implement StepCompleted.
func (r *Registry) EmitStepCompleted(ctx context.Context, run *graph.Run, stepName string, elapsed time.Duration) {
	for _, e := range r.stepCompleted {
		if err := e.hook.OnStepCompleted(ctx, run, stepName, elapsed); err != nil {
			r.logHookError("OnStepCompleted", e.name, err)
		}
	}
}

// EmitStepFailed notifies all extensions that implement StepFailed.
func (r *Registry) EmitStepFailed(ctx context.Context, run *graph.Run, stepName string, attempt int, stepErr error) {
	for _, e := range r.stepFailed {
		if err := e.hook.OnStepFailed(ctx, run, stepName, attempt, stepErr); err != nil {
			r.logHookError("OnStepFailed", e.name, err)
		}
	}
}

// EmitStepRetrying notifies all extensions that implement StepRetrying.
func (r *Registry) EmitStepRetrying(ctx context.Context, run *graph.Run, stepName string, attempt int, delay time.Duration) {
	for _, e := range r.stepRetrying {
		if err := e.hook.OnStepRetrying(ctx, run, stepName, attempt, delay); err != nil {
			r.logHookError("OnStepRetrying", e.name, err)
		}
	}
}

// ──────────────────────────────────────────────────
// Other event emitters
// ──────────────────────────────────────────────────

// EmitNotificationSent notifies all extensions that implement NotificationSent.
func (r *Registry) EmitNotificationSent(ctx context.Context, n *notify.Notification) {
	for _, e := range r.notificationSent {
		if err := e.hook.OnNotificationSent(ctx, n); err != nil {
			r.logHookError("OnNotificationSent", e.name, err)
		}
	}
}

// EmitShutdown notifies all extensions that implement Shutdown.
func (r *Registry) EmitShutdown(ctx context.Context) {
	for _, e := range r.shutdown {
		if err := e.hook.OnShutdown(ctx); err != nil {
			r.logHookError("OnShutdown", e.name, err)
		}
	}
}

// logHookError logs a warning when a lifecycle hook returns an error.
// Errors from hooks are never propagated — they must not block the run.
func (r *Registry) logHookError(hook, extName string, err error) {
	r.logger.Warn("extension hook error",
		slog.String("hook", hook),
		slog.String("extension", extName),
		slog.String("error", err.Error()),
	)
}
