package domain

import (
	"time"

	"github.com/google/uuid"
)

type EventType string

const (
	EventApplicationSubmitted EventType = "application.submitted"
	EventApplicationDecided   EventType = "application.decided"
	EventLeaseTerminated      EventType = "lease.terminated"
	EventPaymentCaptured      EventType = "payment.captured"
	EventPaymentOverdue       EventType = "payment.overdue"
)

// Event is a logical domain event. Recipients lists the users it concerns;
// delivery is the business of whoever subscribes to the sink.
type Event struct {
	ID         uuid.UUID         `json:"id"`
	Type       EventType         `json:"type"`
	OccurredAt time.Time         `json:"occurred_at"`
	Recipients []uuid.UUID       `json:"recipients"`
	Attributes map[string]string `json:"attributes"`
}

func NewEvent(t EventType, now time.Time, recipients []uuid.UUID, attrs map[string]string) Event {
	return Event{
		ID:         uuid.New(),
		Type:       t,
		OccurredAt: now,
		Recipients: recipients,
		Attributes: attrs,
	}
}

// Concerns reports whether the event is addressed to the user.
func (e Event) Concerns(userID uuid.UUID) bool {
	for _, r := range e.Recipients {
		if r == userID {
			return true
		}
	}
	return false
}
