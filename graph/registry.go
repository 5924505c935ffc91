package graph

import (
	"fmt"
	"sync"

	"github.com/xraph/hrflow"
	"github.com/xraph/hrflow/state"
)

// stepDef binds a step function to its declared outgoing edges.
type stepDef struct {
	fn    StepFunc
	edges []Edge
}

// Graph is a named collection of steps and the edges between them.
// Steps are registered once; the first registered step is the entry
// unless SetEntry overrides it. Registration is not safe for concurrent
// use; build graphs at startup, then treat them as read-only.
type Graph struct {
	name  string
	entry string
	steps map[string]*stepDef
	order []string
}

// New creates an empty graph with the given name.
func New(name string) *Graph {
	return &Graph{
		name:  name,
		steps: make(map[string]*stepDef),
	}
}

// Name returns the graph's name.
func (g *Graph) Name() string { return g.name }

// Register adds a named step with its outgoing edges. It fails with
// ErrDuplicateStep if the name is already registered. The first
// registered step becomes the entry point.
func (g *Graph) Register(name string, fn StepFunc, edges ...Edge) error {
	if _, exists := g.steps[name]; exists {
		return fmt.Errorf("graph %q: step %q: %w", g.name, name, hrflow.ErrDuplicateStep)
	}

	g.steps[name] = &stepDef{fn: fn, edges: edges}
	g.order = append(g.order, name)
	if g.entry == "" {
		g.entry = name
	}
	return nil
}

// MustRegister is Register that panics on error. Intended for static
// graph construction at startup.
func (g *Graph) MustRegister(name string, fn StepFunc, edges ...Edge) {
	if err := g.Register(name, fn, edges...); err != nil {
		panic(err)
	}
}

// SetEntry overrides the entry step. It fails with ErrStepNotFound if
// the step is not registered.
func (g *Graph) SetEntry(name string) error {
	if _, exists := g.steps[name]; !exists {
		return fmt.Errorf("graph %q: entry %q: %w", g.name, name, hrflow.ErrStepNotFound)
	}
	g.entry = name
	return nil
}

// Entry returns the entry step name, or empty for an empty graph.
func (g *Graph) Entry() string { return g.entry }

// Steps returns all step names in registration order.
func (g *Graph) Steps() []string {
	out := make([]string, len(g.order))
	copy(out, g.order)
	return out
}

// Step returns the function for a named step.
func (g *Graph) Step(name string) (StepFunc, error) {
	def, ok := g.steps[name]
	if !ok {
		return nil, fmt.Errorf("graph %q: step %q: %w", g.name, name, hrflow.ErrStepNotFound)
	}
	return def.fn, nil
}

// ResolveNext evaluates the named step's edges against the state in
// declaration order and returns the first satisfied edge's target.
// An empty result means terminal: no edge matched, the path ends there.
// Ambiguous fallthrough is not representable; no-match is never an error.
func (g *Graph) ResolveNext(name string, st *state.State) []string {
	def, ok := g.steps[name]
	if !ok {
		return nil
	}
	for _, e := range def.edges {
		if e.Guard == nil || e.Guard(st) {
			return []string{e.Target}
		}
	}
	return nil
}

// Validate checks that every edge target and the entry step exist.
// Called at registration time so routing errors surface at startup,
// not mid-run.
func (g *Graph) Validate() error {
	if len(g.steps) == 0 {
		return fmt.Errorf("graph %q has no steps", g.name)
	}
	for _, name := range g.order {
		for _, e := range g.steps[name].edges {
			if _, ok := g.steps[e.Target]; !ok {
				return fmt.Errorf("graph %q: step %q: edge target %q: %w",
					g.name, name, e.Target, hrflow.ErrStepNotFound)
			}
		}
	}
	return nil
}

// Registry maps graph names to graphs. It is safe for concurrent use.
type Registry struct {
	mu     sync.RWMutex
	graphs map[string]*Graph
}

// NewRegistry creates an empty graph registry.
func NewRegistry() *Registry {
	return &Registry{graphs: make(map[string]*Graph)}
}

// Register adds a graph. It fails with ErrDuplicateGraph if a graph with
// the same name exists, and validates the graph's edges.
func (r *Registry) Register(g *Graph) error {
	if err := g.Validate(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.graphs[g.name]; exists {
		return fmt.Errorf("graph %q: %w", g.name, hrflow.ErrDuplicateGraph)
	}
	r.graphs[g.name] = g
	return nil
}

// Get returns the graph with the given name.
func (r *Registry) Get(name string) (*Graph, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	g, ok := r.graphs[name]
	return g, ok
}

// Names returns all registered graph names.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.graphs))
	for name := range r.graphs {
		names = append(names, name)
	}
	return names
}
