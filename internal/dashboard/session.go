package dashboard

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/angelmondragon/tunedash-backend/internal/feed"
	"github.com/angelmondragon/tunedash-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/tunedash-backend/pkg/errors"
	"github.com/angelmondragon/tunedash-backend/pkg/logger"
	"github.com/angelmondragon/tunedash-backend/pkg/metrics"
)

const (
	OpMarkRead    = "mark_read"
	OpMarkAllRead = "mark_all_read"

	defaultPersistTimeout = 10 * time.Second
)

// PersistFailure describes a read-state change that was applied locally but
// could not be written back to the source. The local change is kept.
type PersistFailure struct {
	AccountID string
	Op        string
	RecordID  string
	Err       error
}

// SessionOptions carries the collaborators shared by every session.
type SessionOptions struct {
	Logger           *logger.Logger
	Metrics          *metrics.FeedMetrics
	PersistTimeout   time.Duration
	OnPersistFailure func(ctx context.Context, failure PersistFailure)
	Now              func() time.Time

	// IdleTTL is read by Manager. Sessions untouched for longer are evicted;
	// zero keeps them until Drop or Close.
	IdleTTL time.Duration
}

func (o SessionOptions) withDefaults() SessionOptions {
	if o.PersistTimeout <= 0 {
		o.PersistTimeout = defaultPersistTimeout
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}

// Snapshot is a consistent read of a session taken under one lock.
type Snapshot struct {
	Items       []feed.Record                `json:"items"`
	UnreadCount int                          `json:"unreadCount"`
	Counts      map[feed.FilterKey]int       `json:"counts"`
	Categories  []enums.NotificationCategory `json:"categories"`
	Filter      feed.FilterKey               `json:"filter"`
	Query       string                       `json:"query"`
	RefreshedAt *time.Time                   `json:"refreshedAt,omitempty"`
}

// Session owns one account's feed. Callers may be concurrent; the session
// serializes them so the feed only ever sees one operation at a time.
type Session struct {
	accountID string
	source    Source
	opts      SessionOptions

	mu          sync.Mutex
	feed        *feed.Feed
	refreshedAt time.Time

	inflight sync.WaitGroup
	lastUsed atomic.Int64
}

// NewSession builds an empty session over source.
func NewSession(accountID string, source Source, opts SessionOptions) (*Session, error) {
	if source == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "feed source required")
	}
	return &Session{
		accountID: accountID,
		source:    source,
		opts:      opts.withDefaults(),
		feed:      feed.New(),
	}, nil
}

// Refresh reloads the feed from the source. On failure the current records
// are left untouched.
func (s *Session) Refresh(ctx context.Context) error {
	records, err := s.source.List(ctx)
	s.opts.Metrics.ObserveRefresh(err)
	if err != nil {
		s.logError(ctx, "feed refresh failed", err)
		return pkgerrors.Wrap(pkgerrors.CodeUpstream, err, "failed to load notifications")
	}

	s.mu.Lock()
	s.feed.Load(records)
	s.refreshedAt = s.opts.Now().UTC()
	s.mu.Unlock()
	return nil
}

func (s *Session) SetFilter(key feed.FilterKey) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.feed.SetFilter(key)
}

func (s *Session) SetSearchQuery(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.feed.SetSearchQuery(text)
}

// MarkRead marks id read locally and, when that changed anything, writes the
// change back in the background. It reports whether the record transitioned.
func (s *Session) MarkRead(ctx context.Context, id string) bool {
	s.mu.Lock()
	changed := s.feed.MarkRead(id)
	s.mu.Unlock()

	if changed {
		s.persist(ctx, OpMarkRead, id, func(ctx context.Context) error {
			return s.source.MarkRead(ctx, id)
		})
	}
	return changed
}

// MarkAllRead marks every unread record read locally and returns how many
// changed. The source is only called when at least one did.
func (s *Session) MarkAllRead(ctx context.Context) int {
	s.mu.Lock()
	changed := s.feed.MarkAllRead()
	s.mu.Unlock()

	if len(changed) > 0 {
		s.persist(ctx, OpMarkAllRead, "", s.source.MarkAllRead)
	}
	return len(changed)
}

func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{
		Items:       s.feed.View(),
		UnreadCount: s.feed.UnreadCount(),
		Counts:      s.feed.Counts(),
		Categories:  s.feed.Categories(),
		Filter:      s.feed.Filter(),
		Query:       s.feed.SearchQuery(),
	}
	if !s.refreshedAt.IsZero() {
		at := s.refreshedAt
		snap.RefreshedAt = &at
	}
	return snap
}

// Counts returns the unread badge and per-filter totals.
func (s *Session) Counts() (int, map[feed.FilterKey]int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.feed.UnreadCount(), s.feed.Counts()
}

// Wait blocks until every background persist started so far has finished.
func (s *Session) Wait() {
	s.inflight.Wait()
}

func (s *Session) touch(at time.Time) {
	s.lastUsed.Store(at.UnixNano())
}

func (s *Session) idleSince(cutoff time.Time) bool {
	return s.lastUsed.Load() < cutoff.UnixNano()
}

func (s *Session) persist(ctx context.Context, op, recordID string, call func(context.Context) error) {
	s.inflight.Add(1)
	go func() {
		defer s.inflight.Done()

		pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.opts.PersistTimeout)
		defer cancel()

		err := call(pctx)
		s.opts.Metrics.ObservePersist(op, err)
		if err == nil {
			return
		}

		if s.opts.Logger != nil {
			logCtx := s.opts.Logger.WithFields(pctx, map[string]any{
				"account_id": s.accountID,
				"op":         op,
				"record_id":  recordID,
			})
			s.opts.Logger.Error(logCtx, "persist read state failed", err)
		}
		if s.opts.OnPersistFailure != nil {
			s.opts.OnPersistFailure(pctx, PersistFailure{
				AccountID: s.accountID,
				Op:        op,
				RecordID:  recordID,
				Err:       err,
			})
		}
	}()
}

func (s *Session) logError(ctx context.Context, msg string, err error) {
	if s.opts.Logger == nil {
		return
	}
	s.opts.Logger.Error(s.opts.Logger.WithAccountID(ctx, s.accountID), msg, err)
}
