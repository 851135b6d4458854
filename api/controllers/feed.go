package controllers

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/tunedash-backend/api/middleware"
	"github.com/angelmondragon/tunedash-backend/api/responses"
	"github.com/angelmondragon/tunedash-backend/api/validators"
	"github.com/angelmondragon/tunedash-backend/internal/dashboard"
	"github.com/angelmondragon/tunedash-backend/internal/feed"
	pkgerrors "github.com/angelmondragon/tunedash-backend/pkg/errors"
	"github.com/angelmondragon/tunedash-backend/pkg/logger"
)

// FeedSessions hands out the per-account dashboard session.
type FeedSessions interface {
	Session(ctx context.Context, accountID string) (*dashboard.Session, error)
}

type feedFilterRequest struct {
	Filter string `json:"filter" validate:"max=64"`
}

type feedSearchRequest struct {
	Query string `json:"query" validate:"max=256"`
}

type feedCountsResponse struct {
	Unread int                    `json:"unread"`
	Counts map[feed.FilterKey]int `json:"counts"`
}

type feedMarkReadResponse struct {
	Read    bool `json:"read"`
	Changed bool `json:"changed"`
}

// GetFeed returns the current view with badge and chip counts.
func GetFeed(sessions FeedSessions, logg *logger.Logger) http.HandlerFunc {
	return withFeedSession(sessions, logg, func(w http.ResponseWriter, r *http.Request, session *dashboard.Session) {
		responses.WriteSuccess(w, session.Snapshot())
	})
}

func GetFeedCounts(sessions FeedSessions, logg *logger.Logger) http.HandlerFunc {
	return withFeedSession(sessions, logg, func(w http.ResponseWriter, r *http.Request, session *dashboard.Session) {
		unread, counts := session.Counts()
		responses.WriteSuccess(w, feedCountsResponse{Unread: unread, Counts: counts})
	})
}

// SetFeedFilter switches the active filter. Unknown keys show everything.
func SetFeedFilter(sessions FeedSessions, logg *logger.Logger) http.HandlerFunc {
	return withFeedSession(sessions, logg, func(w http.ResponseWriter, r *http.Request, session *dashboard.Session) {
		var req feedFilterRequest
		if err := validators.DecodeJSONBody(w, r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		session.SetFilter(feed.FilterKey(strings.TrimSpace(req.Filter)))
		responses.WriteSuccess(w, session.Snapshot())
	})
}

// SetFeedSearch replaces the search text. The query is used as sent.
func SetFeedSearch(sessions FeedSessions, logg *logger.Logger) http.HandlerFunc {
	return withFeedSession(sessions, logg, func(w http.ResponseWriter, r *http.Request, session *dashboard.Session) {
		var req feedSearchRequest
		if err := validators.DecodeJSONBody(w, r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		session.SetSearchQuery(req.Query)
		responses.WriteSuccess(w, session.Snapshot())
	})
}

// RefreshFeed reloads the feed from its source.
func RefreshFeed(sessions FeedSessions, logg *logger.Logger) http.HandlerFunc {
	return withFeedSession(sessions, logg, func(w http.ResponseWriter, r *http.Request, session *dashboard.Session) {
		if err := session.Refresh(r.Context()); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, session.Snapshot())
	})
}

// MarkFeedItemRead marks one record read. Unknown or already read ids
// succeed with changed=false.
func MarkFeedItemRead(sessions FeedSessions, logg *logger.Logger) http.HandlerFunc {
	return withFeedSession(sessions, logg, func(w http.ResponseWriter, r *http.Request, session *dashboard.Session) {
		id := strings.TrimSpace(chi.URLParam(r, "notificationId"))
		if id == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "notificationId is required"))
			return
		}
		changed := session.MarkRead(r.Context(), id)
		responses.WriteSuccess(w, feedMarkReadResponse{Read: true, Changed: changed})
	})
}

func MarkAllFeedRead(sessions FeedSessions, logg *logger.Logger) http.HandlerFunc {
	return withFeedSession(sessions, logg, func(w http.ResponseWriter, r *http.Request, session *dashboard.Session) {
		updated := session.MarkAllRead(r.Context())
		responses.WriteSuccess(w, map[string]int{"updated": updated})
	})
}

func withFeedSession(sessions FeedSessions, logg *logger.Logger, handle func(http.ResponseWriter, *http.Request, *dashboard.Session)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if sessions == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "feed unavailable"))
			return
		}
		accountID := middleware.AccountIDFromContext(r.Context())
		if accountID == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "account context missing"))
			return
		}
		session, err := sessions.Session(r.Context(), accountID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		handle(w, r, session)
	}
}
