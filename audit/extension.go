package audit

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/xraph/hrflow/graph"
	"github.com/xraph/hrflow/hook"
	"github.com/xraph/hrflow/notify"
)

// Compile-time interface checks.
var (
	_ hook.Extension        = (*Extension)(nil)
	_ hook.RunStarted       = (*Extension)(nil)
	_ hook.RunCompleted     = (*Extension)(nil)
	_ hook.RunFailed        = (*Extension)(nil)
	_ hook.RunSuspended     = (*Extension)(nil)
	_ hook.StepCompleted    = (*Extension)(nil)
	_ hook.StepFailed       = (*Extension)(nil)
	_ hook.StepRetrying     = (*Extension)(nil)
	_ hook.NotificationSent = (*Extension)(nil)
)

// Recorder is the interface audit backends must implement. It is
// defined locally so callers inject whatever trail they run at wiring
// time — a log, a database table, an external audit service.
type Recorder interface {
	// Record persists a fully-formed audit event.
	Record(ctx context.Context, event *Event) error
}

// Event is one audit trail entry.
type Event struct {
	// What happened
	Action   string `json:"action"`
	Resource string `json:"resource"`
	Category string `json:"category"`

	// Details
	ResourceID string         `json:"resource_id,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	Outcome    string         `json:"outcome"`
	Severity   string         `json:"severity"`
	Reason     string         `json:"reason,omitempty"`
	OccurredAt time.Time      `json:"occurred_at"`
}

// RecorderFunc is an adapter to use a plain function as a Recorder.
type RecorderFunc func(ctx context.Context, event *Event) error

func (f RecorderFunc) Record(ctx context.Context, event *Event) error {
	return f(ctx, event)
}

// Severity constants.
const (
	SeverityInfo     = "info"
	SeverityWarning  = "warning"
	SeverityCritical = "critical"
)

// Outcome constants.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// Extension bridges hrflow lifecycle events to an audit trail backend.
// Each lifecycle hook emits a structured audit event through the
// [Recorder].
type Extension struct {
	recorder Recorder
	enabled  map[string]bool // nil = all enabled
	logger   *slog.Logger
}

// New creates an Extension that emits audit events through the provided
// Recorder.
func New(r Recorder, opts ...Option) *Extension {
	e := &Extension{
		recorder: r,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Name implements hook.Extension.
func (e *Extension) Name() string { return "audit" }

// ── Run lifecycle hooks ─────────────────────────────

// OnRunStarted implements hook.RunStarted.
func (e *Extension) OnRunStarted(ctx context.Context, r *graph.Run) error {
	return e.record(ctx, ActionRunStarted, SeverityInfo, OutcomeSuccess,
		ResourceRun, r.ID.String(), CategoryRun, nil,
		"graph", r.Graph,
	)
}

// OnRunCompleted implements hook.RunCompleted.
func (e *Extension) OnRunCompleted(ctx context.Context, r *graph.Run, elapsed time.Duration) error {
	return e.record(ctx, ActionRunCompleted, SeverityInfo, OutcomeSuccess,
		ResourceRun, r.ID.String(), CategoryRun, nil,
		"graph", r.Graph,
		"elapsed_ms", elapsed.Milliseconds(),
	)
}

// OnRunFailed implements hook.RunFailed.
func (e *Extension) OnRunFailed(ctx context.Context, r *graph.Run, runErr error) error {
	return e.record(ctx, ActionRunFailed, SeverityCritical, OutcomeFailure,
		ResourceRun, r.ID.String(), CategoryRun, runErr,
		"graph", r.Graph,
	)
}

// OnRunSuspended implements hook.RunSuspended.
func (e *Extension) OnRunSuspended(ctx context.Context, r *graph.Run) error {
	return e.record(ctx, ActionRunSuspended, SeverityInfo, OutcomeSuccess,
		ResourceRun, r.ID.String(), CategoryRun, nil,
		"graph", r.Graph,
		"frontier", r.Frontier,
	)
}

// ── Step lifecycle hooks ────────────────────────────

// OnStepCompleted implements hook.StepCompleted.
func (e *Extension) OnStepCompleted(ctx context.Context, r *graph.Run, stepName string, elapsed time.Duration) error {
	return e.record(ctx, ActionStepCompleted, SeverityInfo, OutcomeSuccess,
		ResourceRun, r.ID.String(), CategoryRun, nil,
		"graph", r.Graph,
		"step", stepName,
		"elapsed_ms", elapsed.Milliseconds(),
	)
}

// OnStepFailed implements hook.StepFailed.
func (e *Extension) OnStepFailed(ctx context.Context, r *graph.Run, stepName string, attempt int, stepErr error) error {
	return e.record(ctx, ActionStepFailed, SeverityWarning, OutcomeFailure,
		ResourceRun, r.ID.String(), CategoryRun, stepErr,
		"graph", r.Graph,
		"step", stepName,
		"attempt", attempt,
	)
}

// OnStepRetrying implements hook.StepRetrying.
func (e *Extension) OnStepRetrying(ctx context.Context, r *graph.Run, stepName string, attempt int, delay time.Duration) error {
	return e.record(ctx, ActionStepRetrying, SeverityWarning, OutcomeFailure,
		ResourceRun, r.ID.String(), CategoryRun, nil,
		"graph", r.Graph,
		"step", stepName,
		"attempt", attempt,
		"delay_ms", delay.Milliseconds(),
	)
}

// ── Notification hooks ──────────────────────────────

// OnNotificationSent implements hook.NotificationSent.
func (e *Extension) OnNotificationSent(ctx context.Context, n *notify.Notification) error {
	return e.record(ctx, ActionNotificationSent, SeverityInfo, OutcomeSuccess,
		ResourceNotification, n.ID.String(), CategoryNotification, nil,
		"kind", string(n.Kind),
		"recipient", n.Recipient,
		"run_id", n.RunID.String(),
	)
}

// ── Internal helpers ────────────────────────────────

// record builds and sends an audit event if the action is enabled. The
// kvPairs argument is a list of key-value pairs added to Metadata.
func (e *Extension) record(
	ctx context.Context,
	action, severity, outcome string,
	resource, resourceID, category string,
	err error,
	kvPairs ...any,
) error {
	if e.enabled != nil && !e.enabled[action] {
		return nil
	}

	meta := make(map[string]any, len(kvPairs)/2+1)
	for i := 0; i+1 < len(kvPairs); i += 2 {
		key, ok := kvPairs[i].(string)
		if !ok {
			key = fmt.Sprintf("%v", kvPairs[i])
		}
		meta[key] = kvPairs[i+1]
	}

	var reason string
	if err != nil {
		reason = err.Error()
		meta["error"] = err.Error()
	}

	evt := &Event{
		Action:     action,
		Resource:   resource,
		Category:   category,
		ResourceID: resourceID,
		Metadata:   meta,
		Outcome:    outcome,
		Severity:   severity,
		Reason:     reason,
		OccurredAt: time.Now().UTC(),
	}

	if recErr := e.recorder.Record(ctx, evt); recErr != nil {
		e.logger.Warn("audit: failed to record event",
			"action", action,
			"resource_id", resourceID,
			"error", recErr,
		)
	}
	return nil
}
