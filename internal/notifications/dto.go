package notifications

import (
	"time"

	"github.com/angelmondragon/tunedash-backend/pkg/db/models"
	"github.com/angelmondragon/tunedash-backend/pkg/enums"
)

// NotificationDTO is the wire shape of a notification.
type NotificationDTO struct {
	ID        string                     `json:"id"`
	Category  enums.NotificationCategory `json:"category"`
	Priority  enums.NotificationPriority `json:"priority"`
	Status    enums.NotificationStatus   `json:"status"`
	Title     string                     `json:"title"`
	Message   string                     `json:"message"`
	Link      *string                    `json:"link,omitempty"`
	ReadAt    *time.Time                 `json:"readAt,omitempty"`
	CreatedAt time.Time                  `json:"createdAt"`
}

// FromModel maps a stored notification to its DTO.
func FromModel(n models.Notification) NotificationDTO {
	return NotificationDTO{
		ID:        n.ID.String(),
		Category:  n.Category,
		Priority:  enums.NotificationPriorityOrDefault(string(n.Priority)),
		Status:    n.Status(),
		Title:     n.Title,
		Message:   n.Message,
		Link:      n.Link,
		ReadAt:    n.ReadAt,
		CreatedAt: n.CreatedAt.UTC(),
	}
}
