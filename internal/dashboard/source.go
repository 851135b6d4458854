package dashboard

import (
	"context"
	"fmt"
	"strings"

	"github.com/angelmondragon/tunedash-backend/internal/feed"
	"github.com/angelmondragon/tunedash-backend/internal/notifications"
	"github.com/angelmondragon/tunedash-backend/pkg/enums"
	"github.com/angelmondragon/tunedash-backend/pkg/notifapi"
	"github.com/angelmondragon/tunedash-backend/pkg/pagination"
	"github.com/google/uuid"
)

// Source fetches the full notification batch for one account and persists
// read-state changes back to wherever the notifications live.
type Source interface {
	List(ctx context.Context) ([]feed.Record, error)
	MarkRead(ctx context.Context, id string) error
	MarkAllRead(ctx context.Context) error
}

// SourceFactory builds the Source backing one account's session.
type SourceFactory func(accountID string) (Source, error)

// maxSourcePages caps how many pages a source walks per refresh.
const maxSourcePages = 50

// ServiceSource reads notifications in-process through the notifications service.
type ServiceSource struct {
	svc       notifications.Service
	accountID uuid.UUID
}

// NewServiceSource binds svc to accountID.
func NewServiceSource(svc notifications.Service, accountID string) (*ServiceSource, error) {
	if svc == nil {
		return nil, fmt.Errorf("notifications service required")
	}
	id, err := uuid.Parse(strings.TrimSpace(accountID))
	if err != nil {
		return nil, fmt.Errorf("parse account id: %w", err)
	}
	return &ServiceSource{svc: svc, accountID: id}, nil
}

func (s *ServiceSource) List(ctx context.Context) ([]feed.Record, error) {
	var (
		records []feed.Record
		cursor  string
	)
	for range maxSourcePages {
		result, err := s.svc.List(ctx, notifications.ListParams{
			AccountID: s.accountID,
			Limit:     pagination.MaxLimit,
			Cursor:    cursor,
		})
		if err != nil {
			return nil, err
		}
		for _, item := range result.Items {
			records = append(records, recordFromDTO(item))
		}
		if result.Cursor == "" {
			return records, nil
		}
		cursor = result.Cursor
	}
	return nil, fmt.Errorf("notification list exceeded %d pages", maxSourcePages)
}

func (s *ServiceSource) MarkRead(ctx context.Context, id string) error {
	notificationID, err := uuid.Parse(id)
	if err != nil {
		return fmt.Errorf("parse notification id: %w", err)
	}
	return s.svc.MarkRead(ctx, s.accountID, notificationID)
}

func (s *ServiceSource) MarkAllRead(ctx context.Context) error {
	_, err := s.svc.MarkAllRead(ctx, s.accountID)
	return err
}

func recordFromDTO(dto notifications.NotificationDTO) feed.Record {
	record := feed.Record{
		ID:        dto.ID,
		Title:     dto.Title,
		Message:   dto.Message,
		Category:  dto.Category,
		Priority:  dto.Priority,
		Status:    dto.Status,
		CreatedAt: dto.CreatedAt,
	}
	if dto.Link != nil {
		record.Link = *dto.Link
	}
	return record
}

// notificationAPI is the subset of the notifications REST client a
// RemoteSource uses.
type notificationAPI interface {
	ListAll(ctx context.Context) ([]notifapi.Notification, error)
	MarkRead(ctx context.Context, id string) error
	MarkAllRead(ctx context.Context) (int64, error)
}

// RemoteSource reads notifications over the REST API. The bearer token is
// taken from the context of each call.
type RemoteSource struct {
	api notificationAPI
}

// NewRemoteSource wraps an API client.
func NewRemoteSource(api notificationAPI) (*RemoteSource, error) {
	if api == nil {
		return nil, fmt.Errorf("notifications api client required")
	}
	return &RemoteSource{api: api}, nil
}

func (s *RemoteSource) List(ctx context.Context) ([]feed.Record, error) {
	items, err := s.api.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	records := make([]feed.Record, 0, len(items))
	for _, item := range items {
		records = append(records, RecordFromAPI(item))
	}
	return records, nil
}

func (s *RemoteSource) MarkRead(ctx context.Context, id string) error {
	return s.api.MarkRead(ctx, id)
}

func (s *RemoteSource) MarkAllRead(ctx context.Context) error {
	_, err := s.api.MarkAllRead(ctx)
	return err
}

// RecordFromAPI converts a REST notification into a feed record. Unknown
// priorities fall back to normal; unknown statuses are kept and read as unread.
func RecordFromAPI(n notifapi.Notification) feed.Record {
	record := feed.Record{
		ID:        n.ID,
		Title:     n.Title,
		Message:   n.Message,
		Category:  enums.NormalizeNotificationCategory(n.Category),
		Priority:  enums.NotificationPriorityOrDefault(n.Priority),
		Status:    enums.NotificationStatus(strings.ToLower(strings.TrimSpace(n.Status))),
		CreatedAt: n.CreatedAt.UTC(),
	}
	if n.Link != nil {
		record.Link = *n.Link
	}
	return record
}

// localStore is a Source that can also be overwritten wholesale.
type localStore interface {
	Source
	Replace(ctx context.Context, records []feed.Record) error
}

// SeededSource serves a local store and fills it from seed while it is
// empty. Read-state changes only touch the local store.
type SeededSource struct {
	local localStore
	seed  Source
}

func NewSeededSource(local localStore, seed Source) (*SeededSource, error) {
	if local == nil {
		return nil, fmt.Errorf("local store required")
	}
	return &SeededSource{local: local, seed: seed}, nil
}

func (s *SeededSource) List(ctx context.Context) ([]feed.Record, error) {
	records, err := s.local.List(ctx)
	if err != nil || len(records) > 0 || s.seed == nil {
		return records, err
	}

	records, err = s.seed.List(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.local.Replace(ctx, records); err != nil {
		return nil, err
	}
	return records, nil
}

func (s *SeededSource) MarkRead(ctx context.Context, id string) error {
	return s.local.MarkRead(ctx, id)
}

func (s *SeededSource) MarkAllRead(ctx context.Context) error {
	return s.local.MarkAllRead(ctx)
}
