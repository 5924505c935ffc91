// Package engine wires all hrflow subsystems together. It creates the
// extension registry, graph registry, middleware chain, and runner, and
// registers the shipped HR flows.
//
// This package exists to break the import cycle: the root hrflow package
// defines Entity (imported by graph, hr, etc.) and so cannot import
// those packages back. The engine package sits above all subsystem
// packages and below the application layer.
package engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/xraph/hrflow"
	"github.com/xraph/hrflow/assist"
	"github.com/xraph/hrflow/backoff"
	"github.com/xraph/hrflow/flows"
	"github.com/xraph/hrflow/graph"
	"github.com/xraph/hrflow/hook"
	"github.com/xraph/hrflow/hr"
	"github.com/xraph/hrflow/id"
	mw "github.com/xraph/hrflow/middleware"
	"github.com/xraph/hrflow/notify"
	"github.com/xraph/hrflow/observability"
)

// hookRunEmitter adapts *hook.Registry to satisfy graph.RunEmitter.
// This breaks the import cycle: graph defines the interface,
// hook.Registry provides the implementation, and the engine layer
// plugs them together.
type hookRunEmitter struct {
	r *hook.Registry
}

func (a *hookRunEmitter) EmitStepCompleted(ctx context.Context, run *graph.Run, stepName string, elapsed time.Duration) {
	a.r.EmitStepCompleted(ctx, run, stepName, elapsed)
}

func (a *hookRunEmitter) EmitStepFailed(ctx context.Context, run *graph.Run, stepName string, attempt int, err error) {
	a.r.EmitStepFailed(ctx, run, stepName, attempt, err)
}

func (a *hookRunEmitter) EmitStepRetrying(ctx context.Context, run *graph.Run, stepName string, attempt int, delay time.Duration) {
	a.r.EmitStepRetrying(ctx, run, stepName, attempt, delay)
}

func (a *hookRunEmitter) EmitRunStarted(ctx context.Context, run *graph.Run) {
	a.r.EmitRunStarted(ctx, run)
}

func (a *hookRunEmitter) EmitRunCompleted(ctx context.Context, run *graph.Run, elapsed time.Duration) {
	a.r.EmitRunCompleted(ctx, run, elapsed)
}

func (a *hookRunEmitter) EmitRunFailed(ctx context.Context, run *graph.Run, err error) {
	a.r.EmitRunFailed(ctx, run, err)
}

func (a *hookRunEmitter) EmitRunSuspended(ctx context.Context, run *graph.Run) {
	a.r.EmitRunSuspended(ctx, run)
}

// emittingMailer wraps a Mailer so every successful delivery is also
// announced to the extension registry.
type emittingMailer struct {
	inner notify.Mailer
	exts  *hook.Registry
}

func (m *emittingMailer) Send(ctx context.Context, n *notify.Notification) error {
	if err := m.inner.Send(ctx, n); err != nil {
		return err
	}
	m.exts.EmitNotificationSent(ctx, n)
	return nil
}

// Engine wraps an Orchestrator with the wired workflow subsystems.
// Use Build() to create one.
type Engine struct {
	o          *hrflow.Orchestrator
	extensions *hook.Registry
	registry   *graph.Registry
	runner     *graph.Runner
	sender     *notify.Sender
	logger     *slog.Logger

	graphStore  graph.Store
	hrStore     hr.Store
	notifyStore notify.Store

	screener assist.Screener
	mailer   notify.Mailer
	bo       backoff.Strategy
	mws      []mw.Middleware

	// OpenTelemetry providers (optional; nil means use global).
	tracerProvider trace.TracerProvider
	meterProvider  metric.MeterProvider
}

// Option configures an Engine.
type Option func(*Engine)

// WithExtension registers an extension with the engine.
func WithExtension(e hook.Extension) Option {
	return func(eng *Engine) {
		eng.extensions.Register(e)
	}
}

// WithMiddleware appends middleware to the engine's step chain.
func WithMiddleware(m mw.Middleware) Option {
	return func(eng *Engine) {
		eng.mws = append(eng.mws, m)
	}
}

// WithBackoff sets the step retry backoff strategy. If not set,
// backoff.DefaultStrategy() (exponential with jitter) is used.
func WithBackoff(b backoff.Strategy) Option {
	return func(eng *Engine) {
		eng.bo = b
	}
}

// WithScreener sets the candidate screener used by the screening flow.
// If not set, the deterministic rule engine is used.
func WithScreener(s assist.Screener) Option {
	return func(eng *Engine) {
		eng.screener = s
	}
}

// WithMailer sets the notification transport. If not set, a rate-limited
// logging mailer is used.
func WithMailer(m notify.Mailer) Option {
	return func(eng *Engine) {
		eng.mailer = m
	}
}

// WithTracerProvider sets a custom OTel TracerProvider for the engine.
// If not set, the global otel.GetTracerProvider() is used.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(eng *Engine) {
		eng.tracerProvider = tp
	}
}

// WithMeterProvider sets a custom OTel MeterProvider for the engine.
// When set, both the metrics middleware and the observability extension
// use this provider instead of the global one.
func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(eng *Engine) {
		eng.meterProvider = mp
	}
}

// Build creates an Engine from an existing Orchestrator. The
// Orchestrator's store must implement the graph, hr, and notify store
// interfaces; store.Store embeds all three.
func Build(o *hrflow.Orchestrator, opts ...Option) (*Engine, error) {
	logger := o.Logger()
	store := o.Store()

	if store == nil {
		return nil, hrflow.ErrNoStore
	}

	gs, ok := store.(graph.Store)
	if !ok {
		return nil, fmt.Errorf("hrflow: store does not implement graph.Store")
	}
	hs, ok := store.(hr.Store)
	if !ok {
		return nil, fmt.Errorf("hrflow: store does not implement hr.Store")
	}
	ns, ok := store.(notify.Store)
	if !ok {
		return nil, fmt.Errorf("hrflow: store does not implement notify.Store")
	}

	eng := &Engine{
		o:           o,
		extensions:  hook.NewRegistry(logger),
		registry:    graph.NewRegistry(),
		logger:      logger,
		graphStore:  gs,
		hrStore:     hs,
		notifyStore: ns,
	}

	for _, opt := range opts {
		opt(eng)
	}

	if eng.bo == nil {
		eng.bo = backoff.DefaultStrategy()
	}
	if eng.screener == nil {
		eng.screener = assist.NewRuleScreener()
	}
	if eng.mailer == nil {
		eng.mailer = notify.NewLogMailer(logger, 10, 50)
	}

	// Build tracing middleware (custom provider or global).
	var tracingMw mw.Middleware
	if eng.tracerProvider != nil {
		tracer := eng.tracerProvider.Tracer("github.com/xraph/hrflow")
		tracingMw = mw.TracingWithTracer(tracer)
	} else {
		tracingMw = mw.Tracing()
	}

	// Build metrics middleware (custom provider or global).
	var metricsMw mw.Middleware
	if eng.meterProvider != nil {
		meter := eng.meterProvider.Meter("github.com/xraph/hrflow")
		metricsMw = mw.MetricsWithMeter(meter)
	} else {
		metricsMw = mw.Metrics()
	}

	// Register the observability metrics extension.
	var obsExt *observability.MetricsExtension
	if eng.meterProvider != nil {
		meter := eng.meterProvider.Meter("github.com/xraph/hrflow/observability")
		obsExt = observability.NewMetricsExtensionWithMeter(meter)
	} else {
		obsExt = observability.NewMetricsExtension()
	}
	eng.extensions.Register(obsExt)

	// Default middleware stack: recover → tracing → metrics → logging.
	defaultMws := []mw.Middleware{
		mw.Recover(logger),
		tracingMw,
		metricsMw,
		mw.Logging(logger),
	}
	allMws := make([]mw.Middleware, 0, len(defaultMws)+len(eng.mws))
	allMws = append(allMws, defaultMws...)
	allMws = append(allMws, eng.mws...)

	// Deliveries go through the extension registry so hooks see them.
	eng.sender = notify.NewSender(&emittingMailer{inner: eng.mailer, exts: eng.extensions}, ns)

	// Register the shipped HR flows.
	f := flows.New(hs, eng.screener, eng.sender, logger)
	if err := f.RegisterAll(eng.registry); err != nil {
		return nil, fmt.Errorf("register flows: %w", err)
	}

	config := o.Config()
	eng.runner = graph.NewRunner(eng.registry, gs, &hookRunEmitter{r: eng.extensions}, logger,
		graph.WithMaxRetries(config.MaxStepRetries),
		graph.WithCheckpointRetries(config.CheckpointRetries),
		graph.WithStepTimeout(config.StepTimeout),
		graph.WithMaxConcurrent(config.MaxConcurrentRuns),
		graph.WithBackoff(eng.bo),
		graph.WithMiddleware(allMws...),
	)

	return eng, nil
}

// Start prepares the engine for work: it migrates the store and resumes
// any runs left in "running" state (crash recovery).
func (eng *Engine) Start(ctx context.Context) error {
	if err := eng.o.Store().Migrate(ctx); err != nil {
		return fmt.Errorf("%w: %w", hrflow.ErrMigrationFailed, err)
	}

	if resumeErr := eng.runner.ResumeAll(ctx); resumeErr != nil {
		eng.logger.Warn("failed to resume runs",
			slog.String("error", resumeErr.Error()),
		)
	}
	return nil
}

// Stop gracefully shuts down the engine: extensions are notified, then
// the store is closed. The orchestrator's ShutdownTimeout bounds the
// hook fan-out when the caller's context has no deadline.
func (eng *Engine) Stop(ctx context.Context) error {
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, eng.o.Config().ShutdownTimeout)
		defer cancel()
	}

	eng.extensions.EmitShutdown(ctx)
	return eng.o.Store().Close()
}

// StartRun starts a run of the named graph with the given initial state.
// The orchestrator's RunTimeout bounds execution when set.
func (eng *Engine) StartRun(ctx context.Context, graphName string, initial map[string]any) (*graph.Run, error) {
	if timeout := eng.o.Config().RunTimeout; timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	return eng.runner.Start(ctx, graphName, initial)
}

// ResumeRun continues a suspended or failed run from its latest
// checkpoint.
func (eng *Engine) ResumeRun(ctx context.Context, runID id.RunID) (*graph.Run, error) {
	if timeout := eng.o.Config().RunTimeout; timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	return eng.runner.Resume(ctx, runID)
}

// PauseRun requests that a run suspend at the next step boundary.
func (eng *Engine) PauseRun(runID id.RunID) { eng.runner.Pause(runID) }

// CancelRun requests that a run stop at the next step boundary.
func (eng *Engine) CancelRun(runID id.RunID) { eng.runner.Cancel(runID) }

// Run fetches one run by ID.
func (eng *Engine) Run(ctx context.Context, runID id.RunID) (*graph.Run, error) {
	return eng.graphStore.GetRun(ctx, runID)
}

// Runs lists runs matching the given filter.
func (eng *Engine) Runs(ctx context.Context, opts graph.ListOpts) ([]*graph.Run, error) {
	return eng.graphStore.ListRuns(ctx, opts)
}

// RunState returns the current state fields of a run: the output for a
// completed run, otherwise the latest checkpoint snapshot, otherwise the
// original input.
func (eng *Engine) RunState(ctx context.Context, runID id.RunID) (map[string]any, error) {
	run, err := eng.graphStore.GetRun(ctx, runID)
	if err != nil {
		return nil, err
	}

	raw := run.Input
	if run.State == graph.RunStateCompleted {
		raw = run.Output
	} else if cp, cpErr := eng.graphStore.LoadLatestCheckpoint(ctx, runID); cpErr == nil {
		raw = cp.State
	} else if !errors.Is(cpErr, hrflow.ErrNoCheckpoint) {
		return nil, cpErr
	}

	fields := make(map[string]any)
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &fields); err != nil {
			return nil, fmt.Errorf("unmarshal state for run %s: %w", runID, err)
		}
	}
	return fields, nil
}

// Stats counts personnel records in the store.
func (eng *Engine) Stats(ctx context.Context) (hr.Stats, error) {
	return eng.hrStore.Stats(ctx)
}

// Extensions returns the extension registry.
func (eng *Engine) Extensions() *hook.Registry { return eng.extensions }

// Registry returns the graph registry.
func (eng *Engine) Registry() *graph.Registry { return eng.registry }

// Runner returns the graph runner.
func (eng *Engine) Runner() *graph.Runner { return eng.runner }

// Orchestrator returns the underlying Orchestrator.
func (eng *Engine) Orchestrator() *hrflow.Orchestrator { return eng.o }

// HR returns the personnel store.
func (eng *Engine) HR() hr.Store { return eng.hrStore }

// Sender returns the notification sender.
func (eng *Engine) Sender() *notify.Sender { return eng.sender }
