package storage

import (
	"context"
	"log/slog"
	"time"

	"jshell/internal/server/metrics"
)

// SessionCloser is told about sessions removed by the cleanup loop.
type SessionCloser interface {
	CloseSession(ctx context.Context, id string, reason string) error
}

// CleanupService periodically removes expired sessions from the store.
type CleanupService struct {
	store    Store
	closer   SessionCloser
	interval time.Duration
	now      func() time.Time
	done     chan struct{}
}

// NewCleanupService creates a new cleanup service. closer may be nil.
func NewCleanupService(store Store, closer SessionCloser, interval time.Duration) *CleanupService {
	return &CleanupService{
		store:    store,
		closer:   closer,
		interval: interval,
		now:      time.Now,
		done:     make(chan struct{}),
	}
}

// Start begins the cleanup loop in a background goroutine.
func (cs *CleanupService) Start(ctx context.Context) {
	slog.Info("cleanup service started", "interval", cs.interval)

	go func() {
		ticker := time.NewTicker(cs.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				cs.runCleanup(ctx)
			case <-ctx.Done():
				slog.Info("cleanup service stopping")
				close(cs.done)
				return
			}
		}
	}()
}

// Wait blocks until the cleanup service has fully stopped.
func (cs *CleanupService) Wait() {
	<-cs.done
}

func (cs *CleanupService) runCleanup(ctx context.Context) int {
	expired := cs.store.Expired(cs.now())
	if len(expired) == 0 {
		slog.Debug("no expired sessions to clean up")
		return 0
	}

	var cleaned, failed int
	for _, s := range expired {
		if err := cs.store.Delete(s.ID); err != nil {
			slog.Error("failed to delete session",
				"session_id", s.ID,
				"error", err,
			)
			failed++
			continue
		}
		metrics.RecordSessionClosed("expired")

		if cs.closer != nil {
			if err := cs.closer.CloseSession(ctx, s.ID, "expired"); err != nil {
				slog.Error("failed to record session close",
					"session_id", s.ID,
					"error", err,
				)
			}
		}

		cleaned++
		slog.Info("cleaned up expired session",
			"session_id", s.ID,
			"commands", s.Commands(),
			"created_at", s.CreatedAt,
		)
	}

	metrics.SetActiveSessions(cs.store.Len())
	slog.Info("cleanup cycle complete",
		"cleaned", cleaned,
		"failed", failed,
		"total_expired", len(expired),
	)
	return cleaned
}
