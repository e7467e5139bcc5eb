package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// ActivityEvent es un evento de integración tal y como lo guarda la analítica.
type ActivityEvent struct {
	EventID     uuid.UUID
	EventType   string
	AggregateID string
	UserID      uuid.UUID
	OccurredAt  time.Time
	ReceivedAt  time.Time
	Payload     string
}

type DailyActivity struct {
	Day             time.Time
	CreatedCount    uint64
	CompletedCount  uint64
	DeletedCount    uint64
	RegisteredCount uint64
}

// EventSink persiste lotes de eventos recibidos. Un lote se guarda entero o nada.
type EventSink interface {
	Record(ctx context.Context, events []ActivityEvent) error
}

// ActivityAnalytics son las consultas sobre lo ya guardado.
type ActivityAnalytics interface {
	DailyTrend(ctx context.Context, start, end time.Time) ([]DailyActivity, error)
	AverageCompletionTime(ctx context.Context, start, end time.Time) (time.Duration, error)
}
