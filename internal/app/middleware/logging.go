package middleware

import (
	"context"
	"log/slog"
	"time"

	"rentgate/internal/app/commands"
	"rentgate/internal/domain/shared/rejection"
)

// Logging reports every command outcome. Rejections are expected and logged at info.
func Logging(logger *slog.Logger) CommandMiddleware {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next commands.Bus) commands.Bus {
		nextFn := wrapCommand(next)
		return commandFunc(func(ctx context.Context, cmd commands.Command) (any, error) {
			start := time.Now()
			res, err := nextFn(ctx, cmd)
			attrs := []any{"command", cmd.Key(), "duration", time.Since(start)}
			switch reason, rejected := rejection.ReasonOf(err); {
			case err == nil:
				logger.DebugContext(ctx, "command handled", attrs...)
			case rejected:
				logger.InfoContext(ctx, "command rejected", append(attrs, "reason", reason, "error", err)...)
			default:
				logger.ErrorContext(ctx, "command failed", append(attrs, "error", err)...)
			}
			return res, err
		})
	}
}
