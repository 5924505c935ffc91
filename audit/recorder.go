package audit

import (
	"context"
	"log/slog"
)

// LogRecorder writes audit events to a structured logger. It is the
// default trail for deployments without a dedicated audit backend.
type LogRecorder struct {
	logger *slog.Logger
}

// NewLogRecorder creates a LogRecorder. A nil logger defaults to
// slog.Default.
func NewLogRecorder(logger *slog.Logger) *LogRecorder {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogRecorder{logger: logger}
}

// Record implements Recorder.
func (r *LogRecorder) Record(ctx context.Context, evt *Event) error {
	level := slog.LevelInfo
	switch evt.Severity {
	case SeverityWarning:
		level = slog.LevelWarn
	case SeverityCritical:
		level = slog.LevelError
	}

	r.logger.Log(ctx, level, "audit event",
		slog.String("action", evt.Action),
		slog.String("resource", evt.Resource),
		slog.String("resource_id", evt.ResourceID),
		slog.String("outcome", evt.Outcome),
		slog.Any("metadata", evt.Metadata),
	)
	return nil
}
