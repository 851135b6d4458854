package notifications

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	pubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"

	"github.com/angelmondragon/tunedash-backend/pkg/enums"
)

const envelopeVersion = 1

// NewEventMessage wraps payload in an EventEnvelope ready for the
// notifications topic. An empty eventID gets a random one.
func NewEventMessage(eventType enums.DomainEventType, eventID string, occurredAt time.Time, payload any) (*pubsub.Message, error) {
	if !eventType.IsValid() {
		return nil, fmt.Errorf("unsupported event type %q", eventType)
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode payload: %w", err)
	}
	// Reject payloads the consumer would drop.
	if _, err := BuildNotification(eventType, data, occurredAt); err != nil {
		return nil, err
	}
	if eventID == "" {
		eventID = uuid.NewString()
	}
	if occurredAt.IsZero() {
		occurredAt = time.Now()
	}

	body, err := json.Marshal(EventEnvelope{
		Version:    envelopeVersion,
		EventID:    eventID,
		OccurredAt: occurredAt.UTC(),
		Data:       data,
	})
	if err != nil {
		return nil, fmt.Errorf("encode envelope: %w", err)
	}
	return &pubsub.Message{
		Data:       body,
		Attributes: map[string]string{EventTypeAttribute: string(eventType)},
	}, nil
}

// EventPublisher sends platform events to the notifications topic.
type EventPublisher struct {
	publisher *pubsub.Publisher
	timeout   time.Duration
}

func NewEventPublisher(publisher *pubsub.Publisher, timeout time.Duration) (*EventPublisher, error) {
	if publisher == nil {
		return nil, fmt.Errorf("notification publisher required")
	}
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &EventPublisher{publisher: publisher, timeout: timeout}, nil
}

// Publish sends one event and waits for the server id.
func (p *EventPublisher) Publish(ctx context.Context, eventType enums.DomainEventType, payload any) (string, error) {
	msg, err := NewEventMessage(eventType, "", time.Now(), payload)
	if err != nil {
		return "", err
	}
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	serverID, err := p.publisher.Publish(ctx, msg).Get(ctx)
	if err != nil {
		return "", fmt.Errorf("publish %s: %w", eventType, err)
	}
	return serverID, nil
}

// Stop flushes pending messages.
func (p *EventPublisher) Stop() {
	p.publisher.Stop()
}
