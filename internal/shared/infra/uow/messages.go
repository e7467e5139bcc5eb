package uow

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	sharedDomain "github.com/davicafu/todolab/internal/shared/domain"
	sharedEvents "github.com/davicafu/todolab/internal/shared/events"
)

// ErrEventSerialization aborta el guardado: sin outbox no hay commit.
var ErrEventSerialization = errors.New("failed to serialize event for outbox")

// BuildMessages convierte los eventos drenados en filas de outbox, en el mismo orden.
// Si un mapper reconoce el evento se guarda el contrato de integración;
// si no, el propio evento de dominio con su nombre como tipo.
func BuildMessages(mappers *sharedEvents.MapperRegistry, evts []sharedDomain.DomainEvent, now time.Time) ([]sharedDomain.OutboxMessage, error) {
	msgs := make([]sharedDomain.OutboxMessage, 0, len(evts))
	for _, evt := range evts {
		var payload interface{} = evt
		typ := evt.EventName()
		if mappers != nil {
			if integration, ok := mappers.Map(evt); ok {
				payload = integration
				typ = integration.IntegrationEventType()
			}
		}

		content, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrEventSerialization, typ, err)
		}

		msgs = append(msgs, sharedDomain.OutboxMessage{
			ID:         uuid.New(),
			OccurredAt: now.UTC(),
			Type:       typ,
			Content:    string(content),
		})
	}
	return msgs, nil
}
