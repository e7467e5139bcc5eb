package events

import (
	"time"

	"github.com/google/uuid"
)

// Envelope es cualquier evento de integración publicable.
type Envelope interface {
	IntegrationEventType() string
}

// IntegrationEvent es la base común de los contratos publicados fuera del proceso.
type IntegrationEvent struct {
	EventID    uuid.UUID `json:"eventId"`
	OccurredAt time.Time `json:"occurredOnUtc"`
	EventType  string    `json:"eventType"`
}

// NewIntegrationEvent genera un id nuevo y sella la hora en UTC.
func NewIntegrationEvent(eventType string, now time.Time) IntegrationEvent {
	return IntegrationEvent{
		EventID:    uuid.New(),
		OccurredAt: now.UTC(),
		EventType:  eventType,
	}
}

func (e IntegrationEvent) IntegrationEventType() string {
	return e.EventType
}
