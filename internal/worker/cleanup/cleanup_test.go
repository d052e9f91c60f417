package cleanup

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
)

type mockSessionReaper struct {
	deleteExpiredFn func(ctx context.Context) (int64, error)
}

func (m *mockSessionReaper) DeleteExpired(ctx context.Context) (int64, error) {
	if m.deleteExpiredFn != nil {
		return m.deleteExpiredFn(ctx)
	}
	return 0, nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRun_DeletesExpiredSessions(t *testing.T) {
	called := false
	reaper := &mockSessionReaper{
		deleteExpiredFn: func(ctx context.Context) (int64, error) {
			called = true
			return 42, nil
		},
	}

	job := NewCleanupJob(reaper, discardLogger())

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if !called {
		t.Error("expected DeleteExpired to be called")
	}
}

// 削除対象ゼロでも冪等に成功すること
func TestRun_NoExpiredSessions_Succeeds(t *testing.T) {
	reaper := &mockSessionReaper{
		deleteExpiredFn: func(ctx context.Context) (int64, error) {
			return 0, nil
		},
	}

	job := NewCleanupJob(reaper, discardLogger())

	if err := job.Run(context.Background()); err != nil {
		t.Errorf("Run() error = %v, want nil", err)
	}
}

func TestRun_DeleteError_ReturnsError(t *testing.T) {
	dbErr := errors.New("db connection lost")
	reaper := &mockSessionReaper{
		deleteExpiredFn: func(ctx context.Context) (int64, error) {
			return 0, dbErr
		},
	}

	job := NewCleanupJob(reaper, discardLogger())

	err := job.Run(context.Background())
	if err == nil {
		t.Fatal("expected error from Run")
	}
	if !errors.Is(err, dbErr) {
		t.Errorf("error = %v, want wrapped %v", err, dbErr)
	}
}
