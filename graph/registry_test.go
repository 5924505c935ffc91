package graph_test

import (
	"context"
	"errors"
	"testing"

	"github.com/xraph/hrflow"
	"github.com/xraph/hrflow/graph"
	"github.com/xraph/hrflow/state"
)

func noop(_ context.Context, _ *state.State) (graph.Hint, error) {
	return graph.Continue, nil
}

func TestGraph_RegisterDuplicate(t *testing.T) {
	g := graph.New("test")
	if err := g.Register("a", noop); err != nil {
		t.Fatalf("Register: %v", err)
	}
	err := g.Register("a", noop)
	if !errors.Is(err, hrflow.ErrDuplicateStep) {
		t.Errorf("err = %v, want ErrDuplicateStep", err)
	}
}

func TestGraph_FirstStepIsEntry(t *testing.T) {
	g := graph.New("test")
	g.MustRegister("first", noop)
	g.MustRegister("second", noop)

	if got := g.Entry(); got != "first" {
		t.Errorf("Entry = %q, want first", got)
	}

	if err := g.SetEntry("second"); err != nil {
		t.Fatalf("SetEntry: %v", err)
	}
	if got := g.Entry(); got != "second" {
		t.Errorf("Entry = %q, want second", got)
	}

	if err := g.SetEntry("missing"); !errors.Is(err, hrflow.ErrStepNotFound) {
		t.Errorf("SetEntry missing = %v, want ErrStepNotFound", err)
	}
}

func TestGraph_ResolveNext_DeclarationOrder(t *testing.T) {
	g := graph.New("test")
	g.MustRegister("start", noop,
		graph.When("high", graph.FieldEquals("score", "high")),
		graph.When("low", graph.FieldEquals("score", "low")),
		graph.To("fallback"),
	)
	g.MustRegister("high", noop)
	g.MustRegister("low", noop)
	g.MustRegister("fallback", noop)

	st := state.New("run_test", map[string]any{"score": "low"})
	if next := g.ResolveNext("start", st); len(next) != 1 || next[0] != "low" {
		t.Errorf("ResolveNext = %v, want [low]", next)
	}

	// No guard matches and no unconditional edge after them: first
	// satisfied edge in declaration order still wins.
	st.Set("score", "high")
	if next := g.ResolveNext("start", st); len(next) != 1 || next[0] != "high" {
		t.Errorf("ResolveNext = %v, want [high]", next)
	}

	st.Set("score", "unknown")
	if next := g.ResolveNext("start", st); len(next) != 1 || next[0] != "fallback" {
		t.Errorf("ResolveNext = %v, want [fallback]", next)
	}
}

func TestGraph_ResolveNext_NoMatchIsTerminal(t *testing.T) {
	g := graph.New("test")
	g.MustRegister("start", noop,
		graph.When("next", graph.FieldEquals("go", true)),
	)
	g.MustRegister("next", noop)

	st := state.New("run_test", nil)
	if next := g.ResolveNext("start", st); next != nil {
		t.Errorf("ResolveNext = %v, want nil (terminal)", next)
	}

	// Unknown step is also terminal, never a panic.
	if next := g.ResolveNext("missing", st); next != nil {
		t.Errorf("ResolveNext unknown step = %v, want nil", next)
	}
}

func TestGraph_Validate_BadEdgeTarget(t *testing.T) {
	g := graph.New("test")
	g.MustRegister("start", noop, graph.To("nowhere"))

	if err := g.Validate(); !errors.Is(err, hrflow.ErrStepNotFound) {
		t.Errorf("Validate = %v, want ErrStepNotFound", err)
	}
}

func TestRegistry_DuplicateGraph(t *testing.T) {
	reg := graph.NewRegistry()

	g1 := graph.New("flow")
	g1.MustRegister("only", noop)
	if err := reg.Register(g1); err != nil {
		t.Fatalf("Register: %v", err)
	}

	g2 := graph.New("flow")
	g2.MustRegister("only", noop)
	if err := reg.Register(g2); !errors.Is(err, hrflow.ErrDuplicateGraph) {
		t.Errorf("err = %v, want ErrDuplicateGraph", err)
	}

	if _, ok := reg.Get("flow"); !ok {
		t.Error("expected registered graph to be retrievable")
	}
	if _, ok := reg.Get("missing"); ok {
		t.Error("expected missing graph to not be found")
	}
}

func TestRegistry_RejectsInvalidGraph(t *testing.T) {
	reg := graph.NewRegistry()

	g := graph.New("broken")
	g.MustRegister("start", noop, graph.To("nowhere"))
	if err := reg.Register(g); err == nil {
		t.Fatal("expected validation error for dangling edge")
	}
}
