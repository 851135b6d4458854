package enums

import (
	"fmt"
	"strings"
)

// NotificationPriority maps to the notification_priority enum in Postgres.
// It only affects how the dashboard styles an entry.
type NotificationPriority string

const (
	NotificationPriorityUrgent NotificationPriority = "urgent"
	NotificationPriorityHigh   NotificationPriority = "high"
	NotificationPriorityNormal NotificationPriority = "normal"
	NotificationPriorityLow    NotificationPriority = "low"
)

var validNotificationPriorities = []NotificationPriority{
	NotificationPriorityUrgent,
	NotificationPriorityHigh,
	NotificationPriorityNormal,
	NotificationPriorityLow,
}

// IsValid checks whether the given priority matches the canonical enum.
func (p NotificationPriority) IsValid() bool {
	for _, candidate := range validNotificationPriorities {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParseNotificationPriority converts raw strings into NotificationPriority.
func ParseNotificationPriority(value string) (NotificationPriority, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	for _, candidate := range validNotificationPriorities {
		if string(candidate) == normalized {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid notification priority %q", value)
}

// NotificationPriorityOrDefault parses value and falls back to normal.
func NotificationPriorityOrDefault(value string) NotificationPriority {
	p, err := ParseNotificationPriority(value)
	if err != nil {
		return NotificationPriorityNormal
	}
	return p
}

// NotificationStatus is the read state of a notification. It only moves unread -> read.
type NotificationStatus string

const (
	NotificationStatusUnread NotificationStatus = "unread"
	NotificationStatusRead   NotificationStatus = "read"
)

// IsValid reports whether the status is unread or read.
func (s NotificationStatus) IsValid() bool {
	return s == NotificationStatusUnread || s == NotificationStatusRead
}

// ParseNotificationStatus converts raw strings into NotificationStatus.
func ParseNotificationStatus(value string) (NotificationStatus, error) {
	switch NotificationStatus(strings.ToLower(strings.TrimSpace(value))) {
	case NotificationStatusUnread:
		return NotificationStatusUnread, nil
	case NotificationStatusRead:
		return NotificationStatusRead, nil
	}
	return "", fmt.Errorf("invalid notification status %q", value)
}

// NotificationCategory tags a notification for grouping and filtering.
// The set is open: the backend may introduce new categories at any time, so
// values outside the constants below are accepted everywhere.
type NotificationCategory string

const (
	NotificationCategoryMusic   NotificationCategory = "music"
	NotificationCategoryPayment NotificationCategory = "payment"
	NotificationCategorySystem  NotificationCategory = "system"
	NotificationCategoryAdmin   NotificationCategory = "admin"
)

// NormalizeNotificationCategory trims and lower-cases a category tag.
func NormalizeNotificationCategory(value string) NotificationCategory {
	return NotificationCategory(strings.ToLower(strings.TrimSpace(value)))
}
