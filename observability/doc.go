// Package observability provides OpenTelemetry-based metrics extensions
// for hrflow. The MetricsExtension implements lifecycle hooks to record
// system-wide counters for run start, completion, failure, suspension,
// step retry, and notification events.
//
// For per-step tracing and metrics, see the middleware package:
// middleware.Tracing() and middleware.Metrics().
package observability
