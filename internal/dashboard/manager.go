package dashboard

import (
	"context"
	"strings"
	"sync"
	"time"

	pkgerrors "github.com/angelmondragon/tunedash-backend/pkg/errors"
)

// Manager keeps one Session per account, created and refreshed on first use.
// Every dashboard view of the account shares that session, so filter and
// search state are per account rather than per browser tab. Sessions left
// idle past SessionOptions.IdleTTL are evicted by EvictIdle.
type Manager struct {
	factory SourceFactory
	opts    SessionOptions

	mu       sync.Mutex
	sessions map[string]*Session
}

func NewManager(factory SourceFactory, opts SessionOptions) (*Manager, error) {
	if factory == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "feed source factory required")
	}
	return &Manager{
		factory:  factory,
		opts:     opts.withDefaults(),
		sessions: make(map[string]*Session),
	}, nil
}

// Session returns the account's session, building and refreshing it when none
// exists yet. A session whose first refresh fails is not kept.
func (m *Manager) Session(ctx context.Context, accountID string) (*Session, error) {
	accountID = strings.TrimSpace(accountID)
	if accountID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "account context required")
	}

	m.mu.Lock()
	existing, ok := m.sessions[accountID]
	if ok {
		existing.touch(m.opts.Now())
	}
	m.mu.Unlock()
	if ok {
		return existing, nil
	}

	source, err := m.factory(accountID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "failed to open notification source")
	}
	session, err := NewSession(accountID, source, m.opts)
	if err != nil {
		return nil, err
	}
	if err := session.Refresh(ctx); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.sessions[accountID]; ok {
		existing.touch(m.opts.Now())
		return existing, nil
	}
	session.touch(m.opts.Now())
	m.sessions[accountID] = session
	return session, nil
}

// Drop forgets the account's session after its pending persists finish.
func (m *Manager) Drop(accountID string) {
	m.mu.Lock()
	session, ok := m.sessions[accountID]
	delete(m.sessions, accountID)
	m.mu.Unlock()

	if ok {
		session.Wait()
	}
}

// EvictIdle forgets every session not used within IdleTTL, waits for their
// pending persists and returns how many were evicted.
func (m *Manager) EvictIdle() int {
	if m.opts.IdleTTL <= 0 {
		return 0
	}
	cutoff := m.opts.Now().Add(-m.opts.IdleTTL)

	m.mu.Lock()
	var idle []*Session
	for accountID, session := range m.sessions {
		if session.idleSince(cutoff) {
			idle = append(idle, session)
			delete(m.sessions, accountID)
		}
	}
	m.mu.Unlock()

	for _, session := range idle {
		session.Wait()
	}
	m.opts.Metrics.ObserveEvictions(len(idle))
	return len(idle)
}

// RunEviction calls EvictIdle every interval until ctx is done. A
// non-positive interval defaults to IdleTTL.
func (m *Manager) RunEviction(ctx context.Context, interval time.Duration) {
	if m.opts.IdleTTL <= 0 {
		return
	}
	if interval <= 0 {
		interval = m.opts.IdleTTL
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			evicted := m.EvictIdle()
			if evicted > 0 && m.opts.Logger != nil {
				logCtx := m.opts.Logger.WithFields(ctx, map[string]any{
					"evicted": evicted,
					"live":    m.Len(),
				})
				m.opts.Logger.Info(logCtx, "evicted idle feed sessions")
			}
		}
	}
}

// Len reports how many sessions are live.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Close forgets every session and waits for all pending persists.
func (m *Manager) Close() {
	m.mu.Lock()
	sessions := make([]*Session, 0, len(m.sessions))
	for _, session := range m.sessions {
		sessions = append(sessions, session)
	}
	m.sessions = make(map[string]*Session)
	m.mu.Unlock()

	for _, session := range sessions {
		session.Wait()
	}
}
