package notifications

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/tunedash-backend/pkg/enums"
)

// EventTypeAttribute is the Pub/Sub message attribute carrying the event type.
const EventTypeAttribute = "event_type"

// EventEnvelope wraps every platform event published on the notifications topic.
type EventEnvelope struct {
	Version    int             `json:"version"`
	EventID    string          `json:"eventId" validate:"required"`
	OccurredAt time.Time       `json:"occurredAt"`
	Data       json.RawMessage `json:"data" validate:"required"`
}

// PayoutPayload is carried by payout.completed and payout.failed.
type PayoutPayload struct {
	AccountID uuid.UUID       `json:"accountId" validate:"required"`
	PayoutID  string          `json:"payoutId" validate:"required"`
	Amount    decimal.Decimal `json:"amount"`
	Currency  string          `json:"currency" validate:"required,len=3"`
	Reason    string          `json:"reason,omitempty" validate:"max=500"`
}

// ReleaseLivePayload is carried by release.live.
type ReleaseLivePayload struct {
	AccountID    uuid.UUID `json:"accountId" validate:"required"`
	ReleaseID    string    `json:"releaseId" validate:"required"`
	ReleaseTitle string    `json:"releaseTitle" validate:"required,max=200"`
	StoreCount   int       `json:"storeCount" validate:"min=0"`
}

// StreamMilestonePayload is carried by stream.milestone.
type StreamMilestonePayload struct {
	AccountID  uuid.UUID `json:"accountId" validate:"required"`
	TrackID    string    `json:"trackId" validate:"required"`
	TrackTitle string    `json:"trackTitle" validate:"required,max=200"`
	Streams    int64     `json:"streams" validate:"gt=0"`
}

// MessagePayload is carried by system.announcement and admin.message.
type MessagePayload struct {
	AccountID uuid.UUID `json:"accountId" validate:"required"`
	Title     string    `json:"title" validate:"required,max=200"`
	Message   string    `json:"message" validate:"required,max=2000"`
	Link      string    `json:"link,omitempty" validate:"omitempty,max=500"`
	Priority  string    `json:"priority,omitempty"`
}

var payloadValidator = validator.New()

// BuildNotification turns one decoded event into the notification it produces.
func BuildNotification(eventType enums.DomainEventType, data json.RawMessage, occurredAt time.Time) (CreateInput, error) {
	switch eventType {
	case enums.EventPayoutCompleted, enums.EventPayoutFailed:
		var p PayoutPayload
		if err := decodePayload(data, &p); err != nil {
			return CreateInput{}, err
		}
		if !p.Amount.IsPositive() {
			return CreateInput{}, fmt.Errorf("payout amount must be positive")
		}
		amount := formatAmount(p.Amount, p.Currency)
		in := CreateInput{
			AccountID: p.AccountID,
			Category:  string(enums.NotificationCategoryPayment),
			Link:      "/payouts/" + p.PayoutID,
			CreatedAt: occurredAt,
		}
		if eventType == enums.EventPayoutCompleted {
			in.Priority = string(enums.NotificationPriorityHigh)
			in.Title = "Payout successful"
			in.Message = fmt.Sprintf("Your payout of %s is on its way.", amount)
			return in, nil
		}
		in.Priority = string(enums.NotificationPriorityUrgent)
		in.Title = "Payout failed"
		in.Message = fmt.Sprintf("We could not send your payout of %s.", amount)
		if reason := strings.TrimSpace(p.Reason); reason != "" {
			in.Message = fmt.Sprintf("We could not send your payout of %s. Reason: %s", amount, reason)
		}
		return in, nil

	case enums.EventReleaseLive:
		var p ReleaseLivePayload
		if err := decodePayload(data, &p); err != nil {
			return CreateInput{}, err
		}
		message := fmt.Sprintf("\"%s\" is now live.", p.ReleaseTitle)
		if p.StoreCount > 0 {
			message = fmt.Sprintf("\"%s\" is now live on %d stores.", p.ReleaseTitle, p.StoreCount)
		}
		return CreateInput{
			AccountID: p.AccountID,
			Category:  string(enums.NotificationCategoryMusic),
			Priority:  string(enums.NotificationPriorityNormal),
			Title:     "Release is live",
			Message:   message,
			Link:      "/releases/" + p.ReleaseID,
			CreatedAt: occurredAt,
		}, nil

	case enums.EventStreamMilestone:
		var p StreamMilestonePayload
		if err := decodePayload(data, &p); err != nil {
			return CreateInput{}, err
		}
		return CreateInput{
			AccountID: p.AccountID,
			Category:  string(enums.NotificationCategoryMusic),
			Priority:  string(enums.NotificationPriorityLow),
			Title:     "Stream milestone reached",
			Message:   fmt.Sprintf("\"%s\" passed %d streams.", p.TrackTitle, p.Streams),
			Link:      "/tracks/" + p.TrackID + "/stats",
			CreatedAt: occurredAt,
		}, nil

	case enums.EventSystemAnnouncement, enums.EventAdminMessage:
		var p MessagePayload
		if err := decodePayload(data, &p); err != nil {
			return CreateInput{}, err
		}
		in := CreateInput{
			AccountID: p.AccountID,
			Category:  string(enums.NotificationCategorySystem),
			Priority:  string(enums.NotificationPriorityNormal),
			Title:     p.Title,
			Message:   p.Message,
			Link:      p.Link,
			CreatedAt: occurredAt,
		}
		if eventType == enums.EventAdminMessage {
			in.Category = string(enums.NotificationCategoryAdmin)
			in.Priority = string(enums.NotificationPriorityOrDefault(p.Priority))
		}
		return in, nil
	}
	return CreateInput{}, fmt.Errorf("unsupported event type %q", eventType)
}

func decodePayload(data json.RawMessage, dest any) error {
	if err := json.Unmarshal(data, dest); err != nil {
		return fmt.Errorf("decode payload: %w", err)
	}
	if err := payloadValidator.Struct(dest); err != nil {
		return fmt.Errorf("invalid payload: %w", err)
	}
	return nil
}

// formatAmount renders an amount with two decimals and the ISO currency code,
// e.g. "1250.00 USD".
func formatAmount(amount decimal.Decimal, currency string) string {
	return amount.StringFixed(2) + " " + strings.ToUpper(strings.TrimSpace(currency))
}
