package notifications

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/tunedash-backend/pkg/enums"
)

func TestNewEventMessageBuildsEnvelope(t *testing.T) {
	accountID := uuid.New()
	occurred := time.Date(2026, 2, 1, 9, 30, 0, 0, time.FixedZone("EST", -5*3600))

	msg, err := NewEventMessage(enums.EventSystemAnnouncement, "evt-1", occurred, MessagePayload{
		AccountID: accountID,
		Title:     "Maintenance window",
		Message:   "Payouts pause for an hour tonight.",
	})
	require.NoError(t, err)
	assert.Equal(t, string(enums.EventSystemAnnouncement), msg.Attributes[EventTypeAttribute])

	var envelope EventEnvelope
	require.NoError(t, json.Unmarshal(msg.Data, &envelope))
	assert.Equal(t, "evt-1", envelope.EventID)
	assert.Equal(t, envelopeVersion, envelope.Version)
	assert.True(t, envelope.OccurredAt.Equal(occurred))

	input, err := BuildNotification(enums.EventSystemAnnouncement, envelope.Data, envelope.OccurredAt)
	require.NoError(t, err)
	assert.Equal(t, accountID, input.AccountID)
	assert.Equal(t, "Maintenance window", input.Title)
}

func TestNewEventMessageRejectsBadInput(t *testing.T) {
	_, err := NewEventMessage(enums.DomainEventType("royalty.paid"), "", time.Now(), MessagePayload{})
	assert.Error(t, err)

	_, err = NewEventMessage(enums.EventSystemAnnouncement, "", time.Now(), MessagePayload{AccountID: uuid.New()})
	assert.Error(t, err, "missing title and message")
}

func TestNewEventMessageGeneratesEventID(t *testing.T) {
	msg, err := NewEventMessage(enums.EventStreamMilestone, "", time.Now(), StreamMilestonePayload{
		AccountID:  uuid.New(),
		TrackID:    "trk-9",
		TrackTitle: "Night Drive",
		Streams:    100000,
	})
	require.NoError(t, err)

	var envelope EventEnvelope
	require.NoError(t, json.Unmarshal(msg.Data, &envelope))
	_, err = uuid.Parse(envelope.EventID)
	assert.NoError(t, err)
}

func TestNewEventPublisherRequiresPublisher(t *testing.T) {
	_, err := NewEventPublisher(nil, 0)
	assert.Error(t, err)
}
