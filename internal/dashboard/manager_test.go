package dashboard

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/angelmondragon/tunedash-backend/internal/feed"
	pkgerrors "github.com/angelmondragon/tunedash-backend/pkg/errors"
)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func TestNewManagerRequiresFactory(t *testing.T) {
	if _, err := NewManager(nil, SessionOptions{}); err == nil {
		t.Fatal("expected error for nil factory")
	}
}

func TestManagerCreatesAndCachesSessions(t *testing.T) {
	var (
		mu    sync.Mutex
		built []string
	)
	source := &fakeSource{listFn: func(context.Context) ([]feed.Record, error) { return sampleRecords(), nil }}
	manager, err := NewManager(func(accountID string) (Source, error) {
		mu.Lock()
		built = append(built, accountID)
		mu.Unlock()
		return source, nil
	}, SessionOptions{})
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}

	first, err := manager.Session(context.Background(), "acct-1")
	if err != nil {
		t.Fatalf("Session: %v", err)
	}
	if got := len(first.Snapshot().Items); got != 3 {
		t.Fatalf("first access should refresh, got %d items", got)
	}
	second, err := manager.Session(context.Background(), " acct-1 ")
	if err != nil {
		t.Fatalf("Session: %v", err)
	}
	if first != second {
		t.Fatal("expected cached session")
	}
	if _, err := manager.Session(context.Background(), "acct-2"); err != nil {
		t.Fatalf("Session acct-2: %v", err)
	}
	if manager.Len() != 2 {
		t.Fatalf("Len = %d, want 2", manager.Len())
	}
	if len(built) != 2 {
		t.Fatalf("factory calls = %d, want 2", len(built))
	}
}

func TestManagerDoesNotCacheFailedRefresh(t *testing.T) {
	fail := true
	source := &fakeSource{listFn: func(context.Context) ([]feed.Record, error) {
		if fail {
			return nil, errors.New("unreachable")
		}
		return sampleRecords(), nil
	}}
	manager, _ := NewManager(func(string) (Source, error) { return source, nil }, SessionOptions{})

	if _, err := manager.Session(context.Background(), "acct-1"); !pkgerrors.IsCode(err, pkgerrors.CodeUpstream) {
		t.Fatalf("expected upstream error, got %v", err)
	}
	if manager.Len() != 0 {
		t.Fatal("failed session should not be cached")
	}

	fail = false
	if _, err := manager.Session(context.Background(), "acct-1"); err != nil {
		t.Fatalf("Session after recovery: %v", err)
	}
	if manager.Len() != 1 {
		t.Fatalf("Len = %d, want 1", manager.Len())
	}
}

func TestManagerRejectsMissingAccountAndFactoryErrors(t *testing.T) {
	manager, _ := NewManager(func(string) (Source, error) { return nil, errors.New("bad account") }, SessionOptions{})

	if _, err := manager.Session(context.Background(), ""); !pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized) {
		t.Fatalf("expected unauthorized, got %v", err)
	}
	if _, err := manager.Session(context.Background(), "acct-1"); !pkgerrors.IsCode(err, pkgerrors.CodeDependency) {
		t.Fatalf("expected dependency error, got %v", err)
	}
}

func TestManagerDropAndCloseWaitForPersists(t *testing.T) {
	release := make(chan struct{})
	var (
		mu       sync.Mutex
		finished int
	)
	source := &fakeSource{
		listFn: func(context.Context) ([]feed.Record, error) { return sampleRecords(), nil },
		markReadFn: func(context.Context, string) error {
			<-release
			mu.Lock()
			finished++
			mu.Unlock()
			return nil
		},
	}
	manager, _ := NewManager(func(string) (Source, error) { return source, nil }, SessionOptions{})

	a, _ := manager.Session(context.Background(), "acct-a")
	b, _ := manager.Session(context.Background(), "acct-b")
	a.MarkRead(context.Background(), "1")
	b.MarkRead(context.Background(), "1")

	done := make(chan struct{})
	go func() {
		manager.Drop("acct-a")
		manager.Close()
		close(done)
	}()

	select {
	case <-done:
		t.Fatal("Drop/Close returned before persists finished")
	case <-time.After(20 * time.Millisecond):
	}
	close(release)

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Drop/Close did not return")
	}

	mu.Lock()
	defer mu.Unlock()
	if finished != 2 {
		t.Fatalf("finished persists = %d, want 2", finished)
	}
	if manager.Len() != 0 {
		t.Fatalf("Len = %d after Close", manager.Len())
	}
}

func TestManagerEvictsIdleSessionsAfterPersists(t *testing.T) {
	release := make(chan struct{})
	var (
		mu        sync.Mutex
		finished  int
		factories int
	)
	source := &fakeSource{
		listFn: func(context.Context) ([]feed.Record, error) { return sampleRecords(), nil },
		markReadFn: func(context.Context, string) error {
			<-release
			mu.Lock()
			finished++
			mu.Unlock()
			return nil
		},
	}
	clock := &testClock{now: day}
	manager, _ := NewManager(func(string) (Source, error) {
		mu.Lock()
		factories++
		mu.Unlock()
		return source, nil
	}, SessionOptions{Now: clock.Now, IdleTTL: 10 * time.Minute})

	idle, _ := manager.Session(context.Background(), "acct-idle")
	if _, err := manager.Session(context.Background(), "acct-busy"); err != nil {
		t.Fatalf("Session: %v", err)
	}
	idle.MarkRead(context.Background(), "1")

	clock.Advance(6 * time.Minute)
	if _, err := manager.Session(context.Background(), "acct-busy"); err != nil {
		t.Fatalf("Session: %v", err)
	}
	clock.Advance(5 * time.Minute)

	evicted := make(chan int, 1)
	go func() { evicted <- manager.EvictIdle() }()

	select {
	case <-evicted:
		t.Fatal("EvictIdle returned before the idle session's persist finished")
	case <-time.After(20 * time.Millisecond):
	}
	close(release)

	select {
	case n := <-evicted:
		if n != 1 {
			t.Fatalf("evicted = %d, want 1", n)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("EvictIdle did not return")
	}

	mu.Lock()
	if finished != 1 {
		t.Fatalf("finished persists = %d, want 1", finished)
	}
	mu.Unlock()
	if manager.Len() != 1 {
		t.Fatalf("Len = %d, want 1", manager.Len())
	}

	again, err := manager.Session(context.Background(), "acct-idle")
	if err != nil {
		t.Fatalf("Session after eviction: %v", err)
	}
	if again == idle {
		t.Fatal("expected a fresh session after eviction")
	}
	mu.Lock()
	defer mu.Unlock()
	if factories != 3 {
		t.Fatalf("factory calls = %d, want 3", factories)
	}
}

func TestManagerKeepsSessionsWithoutIdleTTL(t *testing.T) {
	clock := &testClock{now: day}
	source := &fakeSource{listFn: func(context.Context) ([]feed.Record, error) { return nil, nil }}
	manager, _ := NewManager(func(string) (Source, error) { return source, nil }, SessionOptions{Now: clock.Now})

	for _, id := range []string{"a", "b", "c"} {
		if _, err := manager.Session(context.Background(), id); err != nil {
			t.Fatalf("Session %s: %v", id, err)
		}
	}
	clock.Advance(24 * time.Hour)
	if n := manager.EvictIdle(); n != 0 {
		t.Fatalf("evicted = %d, want 0", n)
	}
	if manager.Len() != 3 {
		t.Fatalf("Len = %d, want 3", manager.Len())
	}
}

func TestManagerRunEvictionSweepsUntilCancelled(t *testing.T) {
	clock := &testClock{now: day}
	source := &fakeSource{listFn: func(context.Context) ([]feed.Record, error) { return nil, nil }}
	manager, _ := NewManager(func(string) (Source, error) { return source, nil }, SessionOptions{Now: clock.Now, IdleTTL: time.Minute})

	for i := range 100 {
		if _, err := manager.Session(context.Background(), fmt.Sprintf("acct-%d", i)); err != nil {
			t.Fatalf("Session: %v", err)
		}
	}
	clock.Advance(2 * time.Minute)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		manager.RunEviction(ctx, 5*time.Millisecond)
		close(done)
	}()

	deadline := time.After(2 * time.Second)
	for manager.Len() != 0 {
		select {
		case <-deadline:
			t.Fatalf("Len = %d, sessions not swept", manager.Len())
		case <-time.After(5 * time.Millisecond):
		}
	}
	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("RunEviction did not stop on cancel")
	}
}
