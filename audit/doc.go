// Package audit is an hrflow extension that bridges lifecycle events to
// an audit trail backend.
//
// Every run, step, and notification lifecycle hook emits a structured
// audit event through the [Recorder] interface. The extension assigns
// severity levels (info for normal operations, warning for retries,
// critical for terminal failures) and rich metadata (graph name, step
// name, elapsed time, errors).
//
// # Usage
//
//	eng, err := engine.Build(o,
//	    engine.WithExtension(audit.New(audit.NewLogRecorder(logger))),
//	)
//
// # Selective filtering
//
//	audit.New(recorder,
//	    audit.WithActions(
//	        audit.ActionRunFailed,
//	        audit.ActionStepFailed,
//	    ),
//	)
package audit
