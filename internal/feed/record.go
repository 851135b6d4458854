package feed

import (
	"time"

	"github.com/angelmondragon/tunedash-backend/pkg/enums"
)

// Record is one notification entry as the dashboard sees it. Only Status changes
// after a record is received.
type Record struct {
	ID        string                     `json:"id"`
	Title     string                     `json:"title"`
	Message   string                     `json:"message"`
	Category  enums.NotificationCategory `json:"category"`
	Priority  enums.NotificationPriority `json:"priority"`
	Status    enums.NotificationStatus   `json:"status"`
	Link      string                     `json:"link,omitempty"`
	CreatedAt time.Time                  `json:"createdAt"`
}

// Unread reports whether the record still counts toward the unread badge.
// Anything that is not explicitly read is treated as unread.
func (r Record) Unread() bool {
	return r.Status != enums.NotificationStatusRead
}

// FilterKey selects the subset of records a view shows: FilterAll, FilterUnread,
// or any category currently present in the feed.
type FilterKey string

const (
	FilterAll    FilterKey = "all"
	FilterUnread FilterKey = "unread"
)

// CategoryKey returns the filter key for a category.
func CategoryKey(category enums.NotificationCategory) FilterKey {
	return FilterKey(category)
}

func (k FilterKey) reserved() bool {
	return k == FilterAll || k == FilterUnread
}
