// Package graph defines workflow graphs, runs, step checkpointing, and
// the runner that executes them.
//
// A graph is a set of named steps joined by edges. Steps are functions
// over shared workflow state; edges are evaluated in declaration order
// against the state after each step, and the first satisfied edge picks
// the next step. No satisfied edge means the path ends there.
//
// # Defining a Graph
//
//	g := graph.New("candidate_screening")
//	g.MustRegister("screen_resume", screenResume,
//	    graph.When("schedule_interview", graph.FieldEquals("recommendation", "interview")),
//	    graph.To("send_rejection"),
//	)
//	g.MustRegister("schedule_interview", scheduleInterview)
//	g.MustRegister("send_rejection", sendRejection)
//
// # Dynamic Routing
//
// A step can override its edges with a hint:
//
//	func fanOut(ctx context.Context, st *state.State) (graph.Hint, error) {
//	    return graph.Goto("notify_manager", "notify_it"), nil // parallel branches
//	}
//
// Parallel branches execute concurrently on cloned state; clones merge
// back in frontier order, so the later-declared branch wins on field
// conflict.
//
// # Checkpointing
//
// The runner snapshots state between steps whenever it changed, tagged
// with a per-run sequence number. Resumption loads the highest-seq
// checkpoint and continues from its recorded frontier. Saving the same
// (run, seq) pair twice is a no-op, so replayed writes are harmless.
//
// # State Machine
//
// A [Run] moves through these states:
//
//	pending → running → completed
//	          running → suspended → running
//	          running → failed
//
// Failed is terminal but the last good checkpoint remains the resumable
// point for a manually repaired run.
//
// # Key Types
//
//   - [Graph] — named steps plus guarded edges
//   - [Registry] — maps graph names to graphs
//   - [Run] — a single graph execution record
//   - [Checkpoint] — durable state snapshot keyed by (run, seq)
//   - [Runner] — walks the frontier with retry, backoff, and middleware
package graph
