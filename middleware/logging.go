package middleware

import (
	"context"
	"log/slog"
	"time"
)

// Logging returns middleware that logs step start and completion.
func Logging(logger *slog.Logger) Middleware {
	return func(ctx context.Context, info StepInfo, next Handler) error {
		logger.Info("step started",
			slog.String("run_id", info.RunID),
			slog.String("graph", info.Graph),
			slog.String("step", info.Step),
			slog.Int("attempt", info.Attempt),
		)

		start := time.Now()
		err := next(ctx)
		elapsed := time.Since(start)

		if err != nil {
			logger.Error("step failed",
				slog.String("run_id", info.RunID),
				slog.String("graph", info.Graph),
				slog.String("step", info.Step),
				slog.Int("attempt", info.Attempt),
				slog.Duration("elapsed", elapsed),
				slog.String("error", err.Error()),
			)
		} else {
			logger.Info("step completed",
				slog.String("run_id", info.RunID),
				slog.String("graph", info.Graph),
				slog.String("step", info.Step),
				slog.Duration("elapsed", elapsed),
			)
		}

		return err
	}
}
