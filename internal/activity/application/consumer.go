package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/davicafu/todolab/internal/activity/domain"
	sharedDomain "github.com/davicafu/todolab/internal/shared/domain"
	sharedEvents "github.com/davicafu/todolab/internal/shared/events"
	"github.com/davicafu/todolab/internal/shared/infra/metrics"
	sharedBus "github.com/davicafu/todolab/internal/shared/infra/platform/bus"
)

// Resultados del consumidor para la métrica integration_events_consumed_total.
const (
	ResultRecorded    = "recorded"
	ResultUnknown     = "unknown_type"
	ResultUndecodable = "undecodable"
	ResultSinkFailed  = "sink_failed"
)

// IntegrationConsumer recibe los eventos publicados por el relay, los registra en el log
// y los guarda en el EventSink.
type IntegrationConsumer struct {
	registry *sharedEvents.SchemaRegistry
	sink     domain.EventSink
	clock    sharedDomain.Clock
	log      *zap.Logger
}

func NewIntegrationConsumer(registry *sharedEvents.SchemaRegistry, sink domain.EventSink, clock sharedDomain.Clock, log *zap.Logger) *IntegrationConsumer {
	if clock == nil {
		clock = sharedDomain.SystemClock{}
	}
	return &IntegrationConsumer{registry: registry, sink: sink, clock: clock, log: log}
}

// HandleMessage implementa events.MessageHandler.
// Un tipo desconocido se ignora: reintentarlo no lo va a arreglar.
func (c *IntegrationConsumer) HandleMessage(ctx context.Context, msgType string, payload []byte) error {
	evt, err := c.registry.Decode(msgType, payload)
	if errors.Is(err, sharedEvents.ErrUnknownType) {
		metrics.IncConsumed(msgType, ResultUnknown)
		c.log.Warn("⚠️ Evento de integración desconocido, se ignora", zap.String("type", msgType))
		return nil
	}
	if err != nil {
		metrics.IncConsumed(msgType, ResultUndecodable)
		return err
	}

	record := ToActivityEvent(evt, payload, c.clock.Now())
	if record.EventType == "" {
		record.EventType = msgType
	}
	c.log.Info("📥 Evento de integración recibido",
		zap.String("type", record.EventType),
		zap.String("event_id", record.EventID.String()),
		zap.String("aggregate_id", record.AggregateID),
		zap.Time("occurred_at", record.OccurredAt),
	)

	if err := c.sink.Record(ctx, []domain.ActivityEvent{record}); err != nil {
		metrics.IncConsumed(msgType, ResultSinkFailed)
		return fmt.Errorf("record %s: %w", msgType, err)
	}
	metrics.IncConsumed(msgType, ResultRecorded)
	return nil
}

// ToActivityEvent aplana un contrato en la fila de analítica.
func ToActivityEvent(evt sharedEvents.Envelope, payload []byte, receivedAt time.Time) domain.ActivityEvent {
	a := domain.ActivityEvent{
		EventType:  evt.IntegrationEventType(),
		ReceivedAt: receivedAt.UTC(),
		Payload:    string(payload),
	}
	if k, ok := evt.(sharedBus.Keyer); ok {
		a.AggregateID = k.PartitionKey()
	}

	var base sharedEvents.IntegrationEvent
	switch e := evt.(type) {
	case sharedEvents.TodoItemCreatedIntegrationEvent:
		base, a.UserID = e.IntegrationEvent, e.UserID
	case sharedEvents.TodoItemCompletedIntegrationEvent:
		base, a.UserID = e.IntegrationEvent, e.UserID
	case sharedEvents.TodoItemDeletedIntegrationEvent:
		base, a.UserID = e.IntegrationEvent, e.UserID
	case sharedEvents.UserRegisteredIntegrationEvent:
		base, a.UserID = e.IntegrationEvent, e.UserID
	}
	a.EventID = base.EventID
	a.OccurredAt = base.OccurredAt
	return a
}
