package hrflow

import (
	"context"
	"log/slog"
	"time"
)

// Option configures an Orchestrator.
type Option func(*Orchestrator) error

// Storer is the minimal store interface held by the Orchestrator.
// It covers lifecycle operations only. The full composite interface
// (store.Store) is used in subsystem layers that don't create import
// cycles. Implementations satisfy store.Store which embeds all
// subsystem stores.
type Storer interface {
	Migrate(ctx context.Context) error
	Ping(ctx context.Context) error
	Close() error
}

// Orchestrator holds the configuration, logger, and store shared by the
// hrflow subsystems. Create one with New() and functional options, then
// wire the workflow engine on top with the engine package. The split
// exists because this package defines Entity (imported by graph, hr,
// etc.) and so cannot import those packages back.
type Orchestrator struct {
	config Config
	logger *slog.Logger
	store  Storer
}

// New creates a new Orchestrator with the given options.
func New(opts ...Option) (*Orchestrator, error) {
	o := &Orchestrator{
		config: DefaultConfig(),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, err
		}
	}
	return o, nil
}

// Logger returns the orchestrator's logger.
func (o *Orchestrator) Logger() *slog.Logger { return o.logger }

// Store returns the orchestrator's store.
func (o *Orchestrator) Store() Storer { return o.store }

// Config returns a copy of the orchestrator's configuration.
func (o *Orchestrator) Config() Config { return o.config }

// WithLogger sets the structured logger for the orchestrator.
func WithLogger(l *slog.Logger) Option {
	return func(o *Orchestrator) error {
		o.logger = l
		return nil
	}
}

// WithStore sets the persistence backend for the orchestrator.
// The store must implement Storer at minimum; typically it will be a
// store.Store which embeds all subsystem store interfaces.
func WithStore(s Storer) Option {
	return func(o *Orchestrator) error {
		o.store = s
		return nil
	}
}

// WithConfig replaces the entire configuration.
func WithConfig(c Config) Option {
	return func(o *Orchestrator) error {
		o.config = c
		return nil
	}
}

// WithMaxStepRetries sets the retry budget for failing steps.
func WithMaxStepRetries(n int) Option {
	return func(o *Orchestrator) error {
		o.config.MaxStepRetries = n
		return nil
	}
}

// WithStepTimeout sets the per-step execution deadline.
func WithStepTimeout(d time.Duration) Option {
	return func(o *Orchestrator) error {
		o.config.StepTimeout = d
		return nil
	}
}

// WithMaxConcurrentRuns caps the number of runs executing at once.
func WithMaxConcurrentRuns(n int) Option {
	return func(o *Orchestrator) error {
		o.config.MaxConcurrentRuns = n
		return nil
	}
}
