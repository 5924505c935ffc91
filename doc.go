// Package hrflow provides a durable graph-based workflow engine for HR
// process automation. It offers library-first workflow orchestration with
// typed state, conditional routing, checkpoint persistence, and crash
// recovery.
//
// hrflow is designed as a library, not a service. Import it, configure a
// store, and describe workflows as named graphs of ordinary Go functions.
//
// # Quick Start
//
//	o, err := hrflow.New(
//	    hrflow.WithStore(memstore),
//	    hrflow.WithMaxStepRetries(3),
//	)
//
// Wire subsystems together with the engine package:
//
//	eng, err := engine.Build(o)
//	run, err := eng.StartRun(ctx, flows.CandidateScreening, map[string]any{
//	    "candidate_id": cand.ID.String(),
//	})
//
// # Architecture
//
// hrflow follows a composable store pattern where each subsystem (graph,
// hr directory) defines its own store interface. A single backend
// implements all of them: in-memory, Redis, PostgreSQL, Bun (PostgreSQL
// or SQLite), and MongoDB backends ship in store/.
//
// A workflow run threads a mutable State through the steps of a graph.
// After every state-changing step the runner snapshots the state into a
// sequence-numbered checkpoint, so an interrupted run resumes from its
// last good checkpoint with no work lost.
//
// All entity IDs use TypeID — type-prefixed, K-sortable, UUIDv7-based,
// compile-time safe identifiers.
package hrflow
