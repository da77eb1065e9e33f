package worker

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"quizhub/internal/database"
)

// TokenCleanupWorker deletes expired refresh tokens on a fixed interval.
type TokenCleanupWorker struct {
	tokens   database.RefreshTokenStore
	interval time.Duration
	logger   *zap.Logger
	now      func() time.Time
	stopChan chan struct{}
	stopOnce sync.Once
}

func NewTokenCleanupWorker(tokens database.RefreshTokenStore, interval time.Duration, logger *zap.Logger) *TokenCleanupWorker {
	return &TokenCleanupWorker{
		tokens:   tokens,
		interval: interval,
		logger:   logger,
		now:      time.Now,
		stopChan: make(chan struct{}),
	}
}

// Start blocks until ctx is cancelled or Stop is called.
func (w *TokenCleanupWorker) Start(ctx context.Context) {
	w.logger.Info("Starting token cleanup worker", zap.Duration("interval", w.interval))

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			w.RunOnce(ctx)

		case <-w.stopChan:
			w.logger.Info("Stopping token cleanup worker")
			return

		case <-ctx.Done():
			w.logger.Info("Context cancelled, stopping token cleanup worker")
			return
		}
	}
}

func (w *TokenCleanupWorker) RunOnce(ctx context.Context) {
	deleted, err := w.tokens.DeleteExpiredRefreshTokens(ctx, w.now().UTC())
	if err != nil {
		w.logger.Error("Token cleanup failed", zap.Error(err))
		return
	}
	if deleted > 0 {
		w.logger.Info("Deleted expired refresh tokens", zap.Int64("count", deleted))
	}
}

func (w *TokenCleanupWorker) Stop() {
	w.stopOnce.Do(func() { close(w.stopChan) })
}
