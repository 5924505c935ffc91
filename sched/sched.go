// Package sched fires recurring workflow runs on cron schedules:
// quarterly performance reviews, weekly screening sweeps, and any other
// graph that should start without a human kicking it off.
//
// The scheduler is single-process. It ticks on an interval, checks each
// registered entry's next fire time, and starts the entry's graph
// through a [StartFunc] callback so it carries no engine dependency.
package sched

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	cronlib "github.com/robfig/cron/v3"

	"github.com/xraph/hrflow"
	"github.com/xraph/hrflow/graph"
	"github.com/xraph/hrflow/id"
)

// StartFunc is the callback the scheduler uses to start runs. This
// breaks the import cycle: the engine provides the implementation.
type StartFunc func(ctx context.Context, graphName string, initial map[string]any) (*graph.Run, error)

// Entry is one recurring schedule.
type Entry struct {
	// Name uniquely identifies the entry.
	Name string

	// Schedule is a cron expression ("0 9 * * 1") or a descriptor
	// ("@every 24h").
	Schedule string

	// Graph is the workflow graph to start on each fire.
	Graph string

	// Initial is the initial run state passed on each fire.
	Initial map[string]any

	nextRunAt time.Time
	lastRunAt time.Time
}

// cronParser supports standard 5-field cron and descriptors like
// "@every 30s".
var cronParser = cronlib.NewParser(
	cronlib.Minute | cronlib.Hour | cronlib.Dom | cronlib.Month | cronlib.Dow | cronlib.Descriptor,
)

// ParseSchedule parses a cron expression and returns the schedule.
func ParseSchedule(expr string) (cronlib.Schedule, error) {
	return cronParser.Parse(expr)
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithTickInterval sets how often the scheduler checks for due entries.
func WithTickInterval(d time.Duration) Option {
	return func(s *Scheduler) { s.tickInterval = d }
}

// WithLogger sets a custom logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Scheduler) { s.logger = l }
}

// Scheduler fires registered entries on a tick loop.
type Scheduler struct {
	start        StartFunc
	logger       *slog.Logger
	tickInterval time.Duration

	mu      sync.Mutex
	entries map[string]*Entry
	parsed  map[string]cronlib.Schedule

	stopCh  chan struct{}
	stopped bool
	wg      sync.WaitGroup
}

// NewScheduler creates a Scheduler. A nil logger defaults to
// slog.Default.
func NewScheduler(start StartFunc, opts ...Option) *Scheduler {
	s := &Scheduler{
		start:        start,
		logger:       slog.Default(),
		tickInterval: time.Second,
		entries:      make(map[string]*Entry),
		parsed:       make(map[string]cronlib.Schedule),
		stopCh:       make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register adds an entry. The schedule is parsed eagerly so a bad
// expression fails at wiring time, not at first fire.
func (s *Scheduler) Register(e *Entry) error {
	if e.Name == "" {
		return fmt.Errorf("%w: schedule entry needs a name", hrflow.ErrInvalidState)
	}
	if e.Graph == "" {
		return fmt.Errorf("%w: schedule entry %q needs a graph", hrflow.ErrInvalidState, e.Name)
	}

	sched, err := ParseSchedule(e.Schedule)
	if err != nil {
		return fmt.Errorf("parse schedule %q for entry %q: %w", e.Schedule, e.Name, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.entries[e.Name]; exists {
		return fmt.Errorf("schedule entry %q already registered", e.Name)
	}
	e.nextRunAt = sched.Next(time.Now().UTC())
	s.entries[e.Name] = e
	s.parsed[e.Schedule] = sched
	return nil
}

// Entries returns the registered entry names.
func (s *Scheduler) Entries() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	names := make([]string, 0, len(s.entries))
	for name := range s.entries {
		names = append(names, name)
	}
	return names
}

// Start launches the tick goroutine.
func (s *Scheduler) Start(_ context.Context) error {
	s.wg.Add(1)
	go s.tickLoop()
	s.logger.Info("scheduler started",
		slog.Int("entries", len(s.entries)),
		slog.Duration("tick_interval", s.tickInterval),
	)
	return nil
}

// Stop signals the scheduler to stop and waits for in-flight fires to
// finish. Safe to call more than once.
func (s *Scheduler) Stop(_ context.Context) error {
	s.mu.Lock()
	if !s.stopped {
		s.stopped = true
		close(s.stopCh)
	}
	s.mu.Unlock()

	s.wg.Wait()
	s.logger.Info("scheduler stopped")
	return nil
}

func (s *Scheduler) tickLoop() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopCh:
			return
		case <-ticker.C:
			s.tick()
		}
	}
}

func (s *Scheduler) tick() {
	now := time.Now().UTC()

	s.mu.Lock()
	var due []*Entry
	for _, e := range s.entries {
		if !e.nextRunAt.After(now) {
			due = append(due, e)
			e.lastRunAt = now
			e.nextRunAt = s.parsed[e.Schedule].Next(now)
		}
	}
	s.mu.Unlock()

	for _, e := range due {
		s.fire(e)
	}
}

func (s *Scheduler) fire(e *Entry) {
	ctx := context.Background()

	run, err := s.start(ctx, e.Graph, cloneInitial(e.Initial))
	if err != nil {
		s.logger.Error("scheduled run failed to start",
			slog.String("entry", e.Name),
			slog.String("graph", e.Graph),
			slog.String("error", err.Error()),
		)
		return
	}

	var runID id.RunID
	if run != nil {
		runID = run.ID
	}
	s.logger.Info("schedule fired",
		slog.String("entry", e.Name),
		slog.String("graph", e.Graph),
		slog.String("run_id", runID.String()),
	)
}

// cloneInitial copies the initial state so runs cannot mutate the
// entry's template map.
func cloneInitial(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
