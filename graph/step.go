package graph

import (
	"context"

	"github.com/xraph/hrflow/state"
)

// StepFunc is a named unit of work over workflow state. It reads and
// mutates the state and returns a routing hint. Return Continue to follow
// the step's declared edges, Goto to override them, or End to terminate
// the run regardless of edges.
type StepFunc func(ctx context.Context, st *state.State) (Hint, error)

// Hint lets a step override its declared edges. The zero value
// (Continue) means "follow the declared edges".
type Hint struct {
	next     []string
	terminal bool
}

// Continue follows the step's declared edges. This is the zero value and
// the common return for steps that don't route dynamically.
var Continue = Hint{}

// End terminates the run after this step, regardless of declared edges.
var End = Hint{terminal: true}

// Goto routes to the named steps next, overriding declared edges.
// More than one step produces a parallel frontier: all named steps
// execute concurrently and their state changes are merged.
func Goto(steps ...string) Hint {
	return Hint{next: steps}
}

// IsEnd reports whether the hint terminates the run.
func (h Hint) IsEnd() bool { return h.terminal }

// Next returns the explicit next steps, or nil when the hint defers to
// declared edges.
func (h Hint) Next() []string { return h.next }

// Predicate guards an edge. It is evaluated against the state after the
// source step completes.
type Predicate func(st *state.State) bool

// Edge is a possible transition from one step to another, optionally
// guarded by a predicate.
type Edge struct {
	// Target is the destination step name.
	Target string

	// Guard gates the edge. A nil Guard always matches.
	Guard Predicate
}

// To declares an unconditional edge to the named step.
func To(step string) Edge {
	return Edge{Target: step}
}

// When declares a guarded edge to the named step.
func When(step string, guard Predicate) Edge {
	return Edge{Target: step, Guard: guard}
}

// FieldEquals returns a predicate that matches when the named state field
// holds the given value. Absent fields never match.
func FieldEquals(field string, value any) Predicate {
	return func(st *state.State) bool {
		return st.GetDefault(field, nil) == value
	}
}
