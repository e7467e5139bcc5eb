package events

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	sharedEvents "github.com/davicafu/todolab/internal/shared/events"
	sharedBus "github.com/davicafu/todolab/internal/shared/infra/platform/bus"
)

// BrokerBus resuelve el tipo en el registro de esquemas, valida el contenido y lo
// entrega al broker. Un tipo desconocido o indecodificable devuelve error para que
// el relay consuma un intento en lugar de marcarlo como publicado.
type BrokerBus struct {
	client  sharedBus.BrokerClient
	schemas *sharedEvents.SchemaRegistry
	system  string
	log     *zap.Logger
	tracer  trace.Tracer
}

// NewBrokerBus; system es el nombre del broker para logs y trazas ("kafka", "rabbitmq", ...).
func NewBrokerBus(client sharedBus.BrokerClient, schemas *sharedEvents.SchemaRegistry, system string, log *zap.Logger) *BrokerBus {
	return &BrokerBus{
		client:  client,
		schemas: schemas,
		system:  system,
		log:     log,
		tracer:  otel.Tracer("todolab/events"),
	}
}

func (b *BrokerBus) Publish(ctx context.Context, msgType, content string) error {
	ctx, span := b.tracer.Start(ctx, "outbox.publish",
		trace.WithSpanKind(trace.SpanKindProducer),
		trace.WithAttributes(
			attribute.String("messaging.system", b.system),
			attribute.String("messaging.message.type", msgType),
			attribute.Int("messaging.message.body.size", len(content)),
		),
	)
	defer span.End()

	evt, err := b.schemas.Decode(msgType, []byte(content))
	if err != nil {
		switch {
		case errors.Is(err, sharedEvents.ErrUnknownType):
			err = fmt.Errorf("%w: %s", sharedBus.ErrUnknownMessageType, msgType)
		case errors.Is(err, sharedEvents.ErrUndecodable):
			err = fmt.Errorf("%w: %v", sharedBus.ErrUndecodableMessage, err)
		}
		b.log.Warn("⚠️ Cannot resolve integration event", zap.String("type", msgType), zap.Error(err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "unresolvable message")
		return err
	}

	msg := sharedBus.BrokerMessage{
		Type:    msgType,
		Body:    []byte(content),
		Headers: map[string]string{sharedBus.HeaderEventType: msgType},
	}
	if keyer, ok := evt.(sharedBus.Keyer); ok {
		msg.Key = []byte(keyer.PartitionKey())
	}
	otel.GetTextMapPropagator().Inject(ctx, propagation.MapCarrier(msg.Headers))

	if err := b.client.Send(ctx, msg); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "send failed")
		return fmt.Errorf("%s publish failed: %w", b.system, err)
	}

	b.log.Debug("Event published successfully", zap.String("system", b.system), zap.String("type", msgType))
	return nil
}

// Close libera el cliente del broker.
func (b *BrokerBus) Close() error {
	return b.client.Close()
}

var _ sharedBus.EventBus = (*BrokerBus)(nil)
