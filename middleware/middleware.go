// Package middleware provides composable middleware for workflow step
// execution. Middleware wraps step calls synchronously and can modify
// execution (recover from panics, log, enforce timeouts, add tracing).
package middleware

import (
	"context"
	"time"
)

// StepInfo describes the step invocation being wrapped. It is a plain
// value so middleware stays decoupled from the graph package.
type StepInfo struct {
	RunID   string
	Graph   string
	Step    string
	Attempt int
	Timeout time.Duration
}

// Handler is the terminal function that executes step logic.
type Handler func(ctx context.Context) error

// Middleware wraps a Handler with cross-cutting logic.
// It receives the current context, the step being executed, and the
// next handler to call. Middleware MUST call next to continue the chain
// (unless short-circuiting on error).
type Middleware func(ctx context.Context, info StepInfo, next Handler) error

// Chain composes multiple middleware into a single Middleware.
// Middleware are applied right-to-left: the first middleware in the
// list is the outermost wrapper.
//
// Example: Chain(logging, recover, timeout) executes as:
//
//	logging → recover → timeout → handler
func Chain(mws ...Middleware) Middleware {
	return func(ctx context.Context, info StepInfo, next Handler) error {
		h := next
		for i := len(mws) - 1; i >= 0; i-- {
			mw := mws[i]
			prev := h
			h = func(ctx context.Context) error {
				return mw(ctx, info, prev)
			}
		}
		return h(ctx)
	}
}
