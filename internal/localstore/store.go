package localstore

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/angelmondragon/tunedash-backend/internal/feed"
	"github.com/angelmondragon/tunedash-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/tunedash-backend/pkg/errors"
	"github.com/angelmondragon/tunedash-backend/pkg/redis"
)

// hashStore is the slice of pkg/redis.Client the store needs.
type hashStore interface {
	HGet(ctx context.Context, key, field string) (string, error)
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	HSet(ctx context.Context, key string, fields map[string]string) error
	Del(ctx context.Context, keys ...string) error
	FeedKey(accountID string) string
}

// Store keeps one account's notifications as JSON records in a Redis hash
// keyed by notification id. It stands in for the remote API when the
// dashboard runs without one.
//
// MarkRead and MarkAllRead read, modify and write back; concurrent writers on
// the same account may overwrite each other's status changes.
type Store struct {
	redis     hashStore
	accountID string
	key       string
}

func New(store hashStore, accountID string) (*Store, error) {
	if store == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "redis client required")
	}
	accountID = strings.TrimSpace(accountID)
	if accountID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "account id required")
	}
	return &Store{redis: store, accountID: accountID, key: store.FeedKey(accountID)}, nil
}

// Replace overwrites the stored collection with records.
func (s *Store) Replace(ctx context.Context, records []feed.Record) error {
	fields := make(map[string]string, len(records))
	for _, record := range records {
		if record.ID == "" {
			return pkgerrors.New(pkgerrors.CodeValidation, "record id required")
		}
		encoded, err := encode(record)
		if err != nil {
			return err
		}
		fields[record.ID] = encoded
	}
	if err := s.redis.Del(ctx, s.key); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear local notifications")
	}
	if err := s.redis.HSet(ctx, s.key, fields); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store local notifications")
	}
	return nil
}

func (s *Store) List(ctx context.Context) ([]feed.Record, error) {
	raw, err := s.redis.HGetAll(ctx, s.key)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read local notifications")
	}
	records := make([]feed.Record, 0, len(raw))
	for id, value := range raw {
		record, err := decode(id, value)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, nil
}

// MarkRead flips one stored record to read. Missing ids return NOT_FOUND.
func (s *Store) MarkRead(ctx context.Context, id string) error {
	value, err := s.redis.HGet(ctx, s.key, id)
	if redis.IsNil(err) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "notification not found")
	}
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read local notification")
	}
	record, err := decode(id, value)
	if err != nil {
		return err
	}
	if !record.Unread() {
		return nil
	}
	record.Status = enums.NotificationStatusRead
	encoded, err := encode(record)
	if err != nil {
		return err
	}
	if err := s.redis.HSet(ctx, s.key, map[string]string{id: encoded}); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update local notification")
	}
	return nil
}

// MarkAllRead flips every unread stored record to read.
func (s *Store) MarkAllRead(ctx context.Context) error {
	raw, err := s.redis.HGetAll(ctx, s.key)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read local notifications")
	}
	updates := map[string]string{}
	for id, value := range raw {
		record, err := decode(id, value)
		if err != nil {
			return err
		}
		if !record.Unread() {
			continue
		}
		record.Status = enums.NotificationStatusRead
		encoded, err := encode(record)
		if err != nil {
			return err
		}
		updates[id] = encoded
	}
	if err := s.redis.HSet(ctx, s.key, updates); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update local notifications")
	}
	return nil
}

func encode(record feed.Record) (string, error) {
	payload, err := json.Marshal(record)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode local notification")
	}
	return string(payload), nil
}

func decode(id, value string) (feed.Record, error) {
	var record feed.Record
	if err := json.Unmarshal([]byte(value), &record); err != nil {
		return feed.Record{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, fmt.Sprintf("decode local notification %s", id))
	}
	record.ID = id
	return record, nil
}
