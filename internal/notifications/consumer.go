package notifications

import (
	"context"
	"encoding/json"
	"fmt"

	pubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"

	"github.com/angelmondragon/tunedash-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/tunedash-backend/pkg/errors"
	"github.com/angelmondragon/tunedash-backend/pkg/idempotency"
	"github.com/angelmondragon/tunedash-backend/pkg/logger"
)

// ConsumerName scopes idempotency markers written by the notification worker.
const ConsumerName = "notification-worker"

type creator interface {
	Create(ctx context.Context, input CreateInput) (*NotificationDTO, error)
}

// eventNamespace seeds the name-based ids of event-driven notifications.
var eventNamespace = uuid.MustParse("5b0f6c1e-8f0a-4c55-9a8e-3f1d2b7c9e41")

// NotificationIDForEvent returns the stable notification id for an event, so
// a redelivery after a lost idempotency marker hits the primary key.
func NotificationIDForEvent(eventID string) uuid.UUID {
	return uuid.NewSHA1(eventNamespace, []byte(eventID))
}

// Consumer turns platform events from Pub/Sub into stored notifications.
type Consumer struct {
	notifications creator
	subscription  *pubsub.Subscriber
	idempotency   *idempotency.Manager
	logg          *logger.Logger
}

// NewConsumer builds a notification event consumer.
func NewConsumer(svc creator, subscription *pubsub.Subscriber, manager *idempotency.Manager, logg *logger.Logger) (*Consumer, error) {
	if svc == nil {
		return nil, fmt.Errorf("notifications service required")
	}
	if subscription == nil {
		return nil, fmt.Errorf("notification subscription required")
	}
	if manager == nil {
		return nil, fmt.Errorf("idempotency manager required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Consumer{
		notifications: svc,
		subscription:  subscription,
		idempotency:   manager,
		logg:          logg,
	}, nil
}

// Run receives messages until the context is canceled.
func (c *Consumer) Run(ctx context.Context) error {
	return c.subscription.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		if c.process(ctx, msg).nack {
			msg.Nack()
			return
		}
		msg.Ack()
	})
}

type processResult struct {
	ack  bool
	nack bool
}

func (c *Consumer) process(ctx context.Context, msg *pubsub.Message) processResult {
	rawType := msg.Attributes[EventTypeAttribute]
	logCtx := c.logg.WithFields(ctx, map[string]any{
		"message_id": msg.ID,
		"event_type": rawType,
	})

	eventType, err := enums.ParseDomainEventType(rawType)
	if err != nil {
		c.logg.Info(logCtx, "skipping unhandled event")
		return processResult{ack: true}
	}

	var envelope EventEnvelope
	if err := json.Unmarshal(msg.Data, &envelope); err != nil {
		c.logg.Error(logCtx, "failed to decode envelope", err)
		return processResult{ack: true}
	}
	if err := payloadValidator.Struct(envelope); err != nil {
		c.logg.Error(logCtx, "invalid envelope", err)
		return processResult{ack: true}
	}
	logCtx = c.logg.WithField(logCtx, "event_id", envelope.EventID)

	already, err := c.idempotency.CheckAndMarkProcessed(ctx, ConsumerName, envelope.EventID)
	if err != nil {
		c.logg.Error(logCtx, "idempotency check failed", err)
		return processResult{nack: true}
	}
	if already {
		c.logg.Info(logCtx, "event already processed")
		return processResult{ack: true}
	}

	input, err := BuildNotification(eventType, envelope.Data, envelope.OccurredAt)
	if err != nil {
		c.logg.Error(logCtx, "failed to build notification", err)
		c.release(logCtx, envelope.EventID)
		return processResult{nack: true}
	}
	input.ID = NotificationIDForEvent(envelope.EventID)
	logCtx = c.logg.WithAccountID(logCtx, input.AccountID.String())

	created, err := c.notifications.Create(ctx, input)
	if pkgerrors.IsCode(err, pkgerrors.CodeConflict) {
		c.logg.Info(logCtx, "notification already stored")
		return processResult{ack: true}
	}
	if err != nil {
		c.logg.Error(logCtx, "failed to store notification", err)
		c.release(logCtx, envelope.EventID)
		return processResult{nack: true}
	}

	c.logg.Info(c.logg.WithField(logCtx, "notification_id", created.ID), "notification created")
	return processResult{ack: true}
}

func (c *Consumer) release(ctx context.Context, eventID string) {
	if err := c.idempotency.Release(ctx, ConsumerName, eventID); err != nil {
		c.logg.Warn(c.logg.WithField(ctx, "release_error", err.Error()), "failed to release idempotency marker")
	}
}
