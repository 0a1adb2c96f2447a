package middleware

import (
	"context"
	"log/slog"
	"time"

	"buckler/internal/app/commands"
	"buckler/internal/domain/shared/errs"
)

// Logging records the outcome of every dispatched command. Domain failures
// log at info, everything unclassified at error.
func Logging(logger *slog.Logger) CommandMiddleware {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next commands.Bus) commands.Bus {
		return commandFunc(func(ctx context.Context, cmd commands.Command) (any, error) {
			start := time.Now()
			res, err := next.Dispatch(ctx, cmd)
			attrs := []slog.Attr{
				slog.String("command", cmd.Key()),
				slog.Duration("duration", time.Since(start)),
			}
			switch kind := errs.KindOf(err); {
			case err == nil:
				logger.LogAttrs(ctx, slog.LevelDebug, "command handled", attrs...)
			case kind == nil || kind == errs.ErrStorageUnavailable:
				logger.LogAttrs(ctx, slog.LevelError, "command failed", append(attrs, slog.Any("error", err))...)
			default:
				logger.LogAttrs(ctx, slog.LevelInfo, "command rejected", append(attrs, slog.String("kind", kind.Error()), slog.Any("error", err))...)
			}
			return res, err
		})
	}
}
