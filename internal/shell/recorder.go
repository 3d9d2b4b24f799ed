package shell

import (
	"context"
	"log/slog"
	"time"
)

// LogRecorder logs every command at debug level, failures at warn.
type LogRecorder struct {
	Logger *slog.Logger
}

func (r LogRecorder) Record(ctx context.Context, res Result, elapsed time.Duration) {
	logger := r.Logger
	if logger == nil {
		logger = slog.Default()
	}

	if res.Err != nil {
		logger.WarnContext(ctx, "command failed",
			"command", res.Command,
			"error", res.Err,
			"elapsed", elapsed,
		)
		return
	}
	logger.DebugContext(ctx, "command executed",
		"command", res.Command,
		"elapsed", elapsed,
	)
}

// Recorders fans a result out to several recorders in order.
type Recorders []Recorder

func (rs Recorders) Record(ctx context.Context, res Result, elapsed time.Duration) {
	for _, r := range rs {
		if r != nil {
			r.Record(ctx, res, elapsed)
		}
	}
}
