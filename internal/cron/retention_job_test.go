package cron

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/angelmondragon/tunedash-backend/pkg/logger"
)

type fakePurger struct {
	lastCutoff time.Time
	deleted    int64
	err        error
	calls      int
}

func (f *fakePurger) PurgeReadBefore(_ context.Context, cutoff time.Time) (int64, error) {
	f.calls++
	f.lastCutoff = cutoff
	return f.deleted, f.err
}

func quietLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "cron-test", Output: io.Discard})
}

func newRetentionJob(t *testing.T, purger *fakePurger, maxAge time.Duration) *notificationRetentionJob {
	t.Helper()
	job, err := NewNotificationRetentionJob(NotificationRetentionJobParams{
		Logger:  quietLogger(),
		Service: purger,
		MaxAge:  maxAge,
	})
	if err != nil {
		t.Fatalf("NewNotificationRetentionJob: %v", err)
	}
	typed, ok := job.(*notificationRetentionJob)
	if !ok {
		t.Fatalf("unexpected job type %T", job)
	}
	return typed
}

func TestNotificationRetentionJobUsesMaxAge(t *testing.T) {
	now := time.Date(2026, 3, 31, 12, 0, 0, 0, time.UTC)
	purger := &fakePurger{deleted: 12}
	job := newRetentionJob(t, purger, 30*24*time.Hour)
	job.now = func() time.Time { return now }

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if want := now.Add(-30 * 24 * time.Hour); !purger.lastCutoff.Equal(want) {
		t.Fatalf("cutoff = %s, want %s", purger.lastCutoff, want)
	}
	if purger.calls != 1 {
		t.Fatalf("calls = %d", purger.calls)
	}
}

func TestNotificationRetentionJobDefaultsAndErrors(t *testing.T) {
	purger := &fakePurger{err: errors.New("db down")}
	job := newRetentionJob(t, purger, 0)
	if job.maxAge != defaultNotificationMaxAge {
		t.Fatalf("maxAge = %s", job.maxAge)
	}
	if err := job.Run(context.Background()); err == nil {
		t.Fatal("expected error")
	}

	if _, err := NewNotificationRetentionJob(NotificationRetentionJobParams{Service: purger}); err == nil {
		t.Fatal("expected error without logger")
	}
	if _, err := NewNotificationRetentionJob(NotificationRetentionJobParams{Logger: quietLogger()}); err == nil {
		t.Fatal("expected error without service")
	}
}
