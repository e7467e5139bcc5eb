package application

import (
	sharedDomain "github.com/davicafu/todolab/internal/shared/domain"
	sharedEvents "github.com/davicafu/todolab/internal/shared/events"
	todoDomain "github.com/davicafu/todolab/internal/todo/domain"
)

// NewIntegrationMapper traduce los eventos de Todo a los contratos publicados.
func NewIntegrationMapper(clock sharedDomain.Clock) sharedEvents.Mapper {
	return sharedEvents.MapperFunc(func(evt sharedDomain.DomainEvent) (sharedEvents.Envelope, bool) {
		switch e := evt.(type) {
		case todoDomain.TodoItemCreatedDomainEvent:
			return sharedEvents.TodoItemCreatedIntegrationEvent{
				IntegrationEvent: sharedEvents.NewIntegrationEvent(sharedEvents.TodoItemCreatedType, clock.Now()),
				TodoItemID:       e.TodoItemID,
				UserID:           e.UserID,
				Description:      e.Description,
			}, true
		case todoDomain.TodoItemCompletedDomainEvent:
			return sharedEvents.TodoItemCompletedIntegrationEvent{
				IntegrationEvent: sharedEvents.NewIntegrationEvent(sharedEvents.TodoItemCompletedType, clock.Now()),
				TodoItemID:       e.TodoItemID,
				UserID:           e.UserID,
			}, true
		case todoDomain.TodoItemDeletedDomainEvent:
			return sharedEvents.TodoItemDeletedIntegrationEvent{
				IntegrationEvent: sharedEvents.NewIntegrationEvent(sharedEvents.TodoItemDeletedType, clock.Now()),
				TodoItemID:       e.TodoItemID,
				UserID:           e.UserID,
			}, true
		}
		return nil, false
	})
}
