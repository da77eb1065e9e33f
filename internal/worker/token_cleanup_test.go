package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"quizhub/internal/database/databasetest"
)

func TestRunOnce(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name          string
		deleted       int64
		err           error
		expectedLogs  int
	}{
		{name: "Nothing to delete", deleted: 0, expectedLogs: 0},
		{name: "Deleted tokens", deleted: 3, expectedLogs: 1},
		{name: "Store error", err: errors.New("db down"), expectedLogs: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			core, logs := observer.New(zap.InfoLevel)
			tokens := new(databasetest.MockRefreshTokenStore)
			tokens.On("DeleteExpiredRefreshTokens", mock.Anything, now).Return(tt.deleted, tt.err)

			w := NewTokenCleanupWorker(tokens, time.Hour, zap.New(core))
			w.now = func() time.Time { return now }
			w.RunOnce(t.Context())

			assert.Equal(t, tt.expectedLogs, logs.Len())
			if tt.err != nil {
				require.Equal(t, 1, logs.FilterMessage("Token cleanup failed").Len())
			}
			tokens.AssertExpectations(t)
		})
	}
}

func TestStartRunsOnTickAndStops(t *testing.T) {
	tokens := new(databasetest.MockRefreshTokenStore)
	ticked := make(chan struct{}, 1)
	tokens.On("DeleteExpiredRefreshTokens", mock.Anything, mock.Anything).
		Run(func(mock.Arguments) {
			select {
			case ticked <- struct{}{}:
			default:
			}
		}).Return(int64(0), nil)

	w := NewTokenCleanupWorker(tokens, 10*time.Millisecond, zap.NewNop())

	done := make(chan struct{})
	go func() {
		w.Start(context.Background())
		close(done)
	}()

	select {
	case <-ticked:
	case <-time.After(2 * time.Second):
		t.Fatal("cleanup did not run")
	}

	w.Stop()
	w.Stop()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not stop")
	}
}

func TestStartStopsOnContextCancel(t *testing.T) {
	w := NewTokenCleanupWorker(new(databasetest.MockRefreshTokenStore), time.Hour, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Start(ctx)
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not stop")
	}
}
