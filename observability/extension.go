package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/xraph/hrflow/graph"
	"github.com/xraph/hrflow/hook"
	"github.com/xraph/hrflow/notify"
)

// meterName is the instrumentation scope name for hrflow metrics.
const meterName = "github.com/xraph/hrflow"

// Compile-time interface checks.
var (
	_ hook.Extension        = (*MetricsExtension)(nil)
	_ hook.RunStarted       = (*MetricsExtension)(nil)
	_ hook.RunCompleted     = (*MetricsExtension)(nil)
	_ hook.RunFailed        = (*MetricsExtension)(nil)
	_ hook.RunSuspended     = (*MetricsExtension)(nil)
	_ hook.StepRetrying     = (*MetricsExtension)(nil)
	_ hook.NotificationSent = (*MetricsExtension)(nil)
)

// MetricsExtension records system-wide lifecycle metrics via OpenTelemetry.
// Register it as an hrflow extension to automatically track run starts,
// completion counts, failure rates, suspensions, step retries, and
// notification deliveries, partitioned by graph.
type MetricsExtension struct {
	runStarted        metric.Int64Counter
	runCompleted      metric.Int64Counter
	runFailed         metric.Int64Counter
	runSuspended      metric.Int64Counter
	runDuration       metric.Float64Histogram
	stepRetried       metric.Int64Counter
	notificationsSent metric.Int64Counter
}

// NewMetricsExtension creates a MetricsExtension using the global OTel
// MeterProvider. If no MeterProvider is configured, noop instruments are
// used and the extension records nothing.
func NewMetricsExtension() *MetricsExtension {
	return NewMetricsExtensionWithMeter(otel.Meter(meterName))
}

// NewMetricsExtensionWithMeter creates a MetricsExtension with the
// provided meter. This variant allows injecting a specific MeterProvider
// for testing.
func NewMetricsExtensionWithMeter(meter metric.Meter) *MetricsExtension {
	// Create instruments once at construction time. On error, the OTel
	// API returns noop instruments so the extension degrades gracefully.
	e := &MetricsExtension{}
	e.runStarted, _ = meter.Int64Counter(
		"hrflow.run.started",
		metric.WithDescription("Total number of runs started"),
		metric.WithUnit("{run}"),
	)
	e.runCompleted, _ = meter.Int64Counter(
		"hrflow.run.completed",
		metric.WithDescription("Total number of runs completed successfully"),
		metric.WithUnit("{run}"),
	)
	e.runFailed, _ = meter.Int64Counter(
		"hrflow.run.failed",
		metric.WithDescription("Total number of runs failed or cancelled"),
		metric.WithUnit("{run}"),
	)
	e.runSuspended, _ = meter.Int64Counter(
		"hrflow.run.suspended",
		metric.WithDescription("Total number of runs suspended"),
		metric.WithUnit("{run}"),
	)
	e.runDuration, _ = meter.Float64Histogram(
		"hrflow.run.duration",
		metric.WithDescription("Duration of completed runs in seconds"),
		metric.WithUnit("s"),
	)
	e.stepRetried, _ = meter.Int64Counter(
		"hrflow.step.retried",
		metric.WithDescription("Total number of step retry attempts"),
		metric.WithUnit("{retry}"),
	)
	e.notificationsSent, _ = meter.Int64Counter(
		"hrflow.notifications.sent",
		metric.WithDescription("Total number of notifications delivered"),
		metric.WithUnit("{notification}"),
	)
	return e
}

// Name implements hook.Extension.
func (m *MetricsExtension) Name() string { return "observability-metrics" }

func graphAttrs(r *graph.Run) metric.MeasurementOption {
	return metric.WithAttributes(attribute.String("graph", r.Graph))
}

// ── Run lifecycle hooks ─────────────────────────────

// OnRunStarted implements hook.RunStarted.
func (m *MetricsExtension) OnRunStarted(ctx context.Context, r *graph.Run) error {
	m.runStarted.Add(ctx, 1, graphAttrs(r))
	return nil
}

// OnRunCompleted implements hook.RunCompleted.
func (m *MetricsExtension) OnRunCompleted(ctx context.Context, r *graph.Run, elapsed time.Duration) error {
	m.runCompleted.Add(ctx, 1, graphAttrs(r))
	m.runDuration.Record(ctx, elapsed.Seconds(), graphAttrs(r))
	return nil
}

// OnRunFailed implements hook.RunFailed.
func (m *MetricsExtension) OnRunFailed(ctx context.Context, r *graph.Run, _ error) error {
	m.runFailed.Add(ctx, 1, graphAttrs(r))
	return nil
}

// OnRunSuspended implements hook.RunSuspended.
func (m *MetricsExtension) OnRunSuspended(ctx context.Context, r *graph.Run) error {
	m.runSuspended.Add(ctx, 1, graphAttrs(r))
	return nil
}

// ── Step lifecycle hooks ────────────────────────────

// OnStepRetrying implements hook.StepRetrying.
func (m *MetricsExtension) OnStepRetrying(ctx context.Context, r *graph.Run, stepName string, _ int, _ time.Duration) error {
	m.stepRetried.Add(ctx, 1, metric.WithAttributes(
		attribute.String("graph", r.Graph),
		attribute.String("step", stepName),
	))
	return nil
}

// ── Notification hooks ──────────────────────────────

// OnNotificationSent implements hook.NotificationSent.
func (m *MetricsExtension) OnNotificationSent(ctx context.Context, n *notify.Notification) error {
	m.notificationsSent.Add(ctx, 1, metric.WithAttributes(
		attribute.String("kind", string(n.Kind)),
	))
	return nil
}
