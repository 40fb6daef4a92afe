package middleware

import (
	"context"
	"log/slog"
	"time"

	"directstay/internal/app/commands"
	"directstay/internal/app/faults"
	"directstay/internal/app/queries"
)

func Logging(logger *slog.Logger) CommandMiddleware {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next commands.Bus) commands.Bus {
		nextFn := wrapCommand(next)
		return commandFunc(func(ctx context.Context, cmd commands.Command) (any, error) {
			start := time.Now()
			res, err := nextFn(ctx, cmd)
			logResult(ctx, logger, "command", cmd.Key(), start, err)
			return res, err
		})
	}
}

func QueryLogging(logger *slog.Logger) QueryMiddleware {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next queries.Bus) queries.Bus {
		nextFn := wrapQuery(next)
		return queryFunc(func(ctx context.Context, q queries.Query) (any, error) {
			start := time.Now()
			res, err := nextFn(ctx, q)
			logResult(ctx, logger, "query", q.Key(), start, err)
			return res, err
		})
	}
}

func logResult(ctx context.Context, logger *slog.Logger, kind, key string, start time.Time, err error) {
	elapsed := time.Since(start)
	if err == nil {
		logger.DebugContext(ctx, kind+" handled", "key", key, "duration", elapsed)
		return
	}
	level := slog.LevelWarn
	if faults.KindOf(err) == faults.KindRemoteFailure {
		level = slog.LevelError
	}
	logger.Log(ctx, level, kind+" failed", "key", key, "duration", elapsed, "kind", faults.KindOf(err), "err", err)
}
