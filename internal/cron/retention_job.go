package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/angelmondragon/tunedash-backend/pkg/logger"
)

const defaultNotificationMaxAge = 90 * 24 * time.Hour

type readNotificationPurger interface {
	PurgeReadBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

type NotificationRetentionJobParams struct {
	Logger  *logger.Logger
	Service readNotificationPurger
	MaxAge  time.Duration
}

// NewNotificationRetentionJob deletes read notifications older than MaxAge.
// Unread notifications are never purged.
func NewNotificationRetentionJob(params NotificationRetentionJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Service == nil {
		return nil, fmt.Errorf("notifications service required")
	}
	maxAge := params.MaxAge
	if maxAge <= 0 {
		maxAge = defaultNotificationMaxAge
	}
	return &notificationRetentionJob{
		logg:   params.Logger,
		svc:    params.Service,
		maxAge: maxAge,
		now:    time.Now,
	}, nil
}

type notificationRetentionJob struct {
	logg   *logger.Logger
	svc    readNotificationPurger
	maxAge time.Duration
	now    func() time.Time
}

func (j *notificationRetentionJob) Name() string { return "notification-retention" }

func (j *notificationRetentionJob) Run(ctx context.Context) error {
	cutoff := j.now().UTC().Add(-j.maxAge)
	deleted, err := j.svc.PurgeReadBefore(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("notification retention: %w", err)
	}
	j.logg.Info(j.logg.WithFields(ctx, map[string]any{
		"cutoff":       cutoff,
		"max_age_days": int(j.maxAge.Hours() / 24),
		"rows_deleted": deleted,
	}), "notification retention complete")
	return nil
}
