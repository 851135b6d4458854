package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/tunedash-backend/pkg/enums"
)

// Notification is one in-app message addressed to an artist or label account.
// A NULL ReadAt means the notification is unread.
type Notification struct {
	ID        uuid.UUID                  `gorm:"type:uuid;primaryKey"`
	AccountID uuid.UUID                  `gorm:"type:uuid;not null;index"`
	Category  enums.NotificationCategory `gorm:"type:text;not null"`
	Priority  enums.NotificationPriority `gorm:"type:notification_priority;not null"`
	Title     string                     `gorm:"type:text;not null"`
	Message   string                     `gorm:"type:text;not null"`
	Link      *string                    `gorm:"type:text"`
	ReadAt    *time.Time                 `gorm:"type:timestamptz"`
	CreatedAt time.Time                  `gorm:"type:timestamptz;not null"`
}

// BeforeCreate fills the id, priority and timestamp so inserts do not depend on
// database defaults.
func (n *Notification) BeforeCreate(*gorm.DB) error {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	if n.Priority == "" {
		n.Priority = enums.NotificationPriorityNormal
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now().UTC()
	}
	return nil
}

// Status derives the read state from ReadAt.
func (n Notification) Status() enums.NotificationStatus {
	if n.ReadAt != nil {
		return enums.NotificationStatusRead
	}
	return enums.NotificationStatusUnread
}
