// Package hook defines the extension system for hrflow. Extensions are
// notified of lifecycle events (run started, step failed, notification
// sent, etc.) and can react to them — logging, metrics, audit trails.
//
// Each lifecycle hook is a separate interface so extensions opt in only
// to the events they care about.
package hook

import (
	"context"
	"time"

	"github.com/xraph/hrflow/graph"
	"github.com/xraph/hrflow/notify"
)

// Extension is the base interface all extensions must implement.
type Extension interface {
	// Name returns a unique human-readable name for the extension.
	Name() string
}

// ──────────────────────────────────────────────────
// Run lifecycle hooks
// ──────────────────────────────────────────────────

// RunStarted is called when a graph run begins.
type RunStarted interface {
	OnRunStarted(ctx context.Context, r *graph.Run) error
}

// RunCompleted is called after a run finishes successfully.
type RunCompleted interface {
	OnRunCompleted(ctx context.Context, r *graph.Run, elapsed time.Duration) error
}

// RunFailed is called when a run fails terminally or is cancelled.
type RunFailed interface {
	OnRunFailed(ctx context.Context, r *graph.Run, err error) error
}

// RunSuspended is called when a run pauses at a frontier boundary.
type RunSuspended interface {
	OnRunSuspended(ctx context.Context, r *graph.Run) error
}

// ──────────────────────────────────────────────────
// Step lifecycle hooks
// ──────────────────────────────────────────────────

// StepCompleted is called after a step completes.
type StepCompleted interface {
	OnStepCompleted(ctx context.Context, r *graph.Run, stepName string, elapsed time.Duration) error
}

// StepFailed is called each time a step attempt fails, including
// attempts that will be retried.
type StepFailed interface {
	OnStepFailed(ctx context.Context, r *graph.Run, stepName string, attempt int, err error) error
}

// StepRetrying is called when a failed step is scheduled for retry.
type StepRetrying interface {
	OnStepRetrying(ctx context.Context, r *graph.Run, stepName string, attempt int, delay time.Duration) error
}

// ──────────────────────────────────────────────────
// Other lifecycle hooks
// ──────────────────────────────────────────────────

// NotificationSent is called after a notification is delivered.
type NotificationSent interface {
	OnNotificationSent(ctx context.Context, n *notify.Notification) error
}

// Shutdown is called during graceful shutdown.
type Shutdown interface {
	OnShutdown(ctx context.Context) error
}
