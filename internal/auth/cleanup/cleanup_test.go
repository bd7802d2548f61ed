package cleanup_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	authcleanup "github.com/AlibekovAA/dining-quiz/backend/internal/auth/cleanup"
	"github.com/AlibekovAA/dining-quiz/backend/internal/common/logger"
)

type mockDeleter struct {
	calls             atomic.Int64
	deleteExpiredFunc func(ctx context.Context) (int64, error)
}

func (m *mockDeleter) DeleteExpired(ctx context.Context) (int64, error) {
	m.calls.Add(1)
	if m.deleteExpiredFunc != nil {
		return m.deleteExpiredFunc(ctx)
	}
	return 0, nil
}

func TestRunOnce_ReturnsDeletedCount(t *testing.T) {
	deleter := &mockDeleter{
		deleteExpiredFunc: func(ctx context.Context) (int64, error) {
			return 3, nil
		},
	}

	deleted := authcleanup.RunOnce(context.Background(), deleter, logger.Discard(), "revoked_tokens")
	if deleted != 3 {
		t.Errorf("expected 3, got %d", deleted)
	}
}

func TestRunOnce_ErrorHandling(t *testing.T) {
	deleter := &mockDeleter{
		deleteExpiredFunc: func(ctx context.Context) (int64, error) {
			return 0, errors.New("cleanup error")
		},
	}

	if deleted := authcleanup.RunOnce(context.Background(), deleter, logger.Discard(), "revoked_tokens"); deleted != 0 {
		t.Errorf("expected 0, got %d", deleted)
	}
}

func TestStartCleanup_TicksUntilCanceled(t *testing.T) {
	deleter := &mockDeleter{}
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		authcleanup.StartCleanup(ctx, deleter, 10*time.Millisecond, logger.Discard(), "revoked_tokens")
		close(done)
	}()

	time.Sleep(100 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("cleanup loop did not stop after cancel")
	}

	if deleter.calls.Load() == 0 {
		t.Error("expected at least one sweep")
	}
}
