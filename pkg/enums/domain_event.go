package enums

import "fmt"

// DomainEventType names the platform events that produce notifications.
type DomainEventType string

const (
	EventPayoutCompleted    DomainEventType = "payout.completed"
	EventPayoutFailed       DomainEventType = "payout.failed"
	EventReleaseLive        DomainEventType = "release.live"
	EventStreamMilestone    DomainEventType = "stream.milestone"
	EventSystemAnnouncement DomainEventType = "system.announcement"
	EventAdminMessage       DomainEventType = "admin.message"
)

var validDomainEventTypes = []DomainEventType{
	EventPayoutCompleted,
	EventPayoutFailed,
	EventReleaseLive,
	EventStreamMilestone,
	EventSystemAnnouncement,
	EventAdminMessage,
}

// IsValid reports whether the event type is one the notifications consumer understands.
func (e DomainEventType) IsValid() bool {
	for _, candidate := range validDomainEventTypes {
		if candidate == e {
			return true
		}
	}
	return false
}

// ParseDomainEventType converts raw input into DomainEventType.
func ParseDomainEventType(value string) (DomainEventType, error) {
	for _, candidate := range validDomainEventTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid domain event type %q", value)
}
