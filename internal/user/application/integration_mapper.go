package application

import (
	sharedDomain "github.com/davicafu/todolab/internal/shared/domain"
	sharedEvents "github.com/davicafu/todolab/internal/shared/events"
	userDomain "github.com/davicafu/todolab/internal/user/domain"
)

func NewIntegrationMapper(clock sharedDomain.Clock) sharedEvents.Mapper {
	return sharedEvents.MapperFunc(func(evt sharedDomain.DomainEvent) (sharedEvents.Envelope, bool) {
		e, ok := evt.(userDomain.UserRegisteredDomainEvent)
		if !ok {
			return nil, false
		}
		return sharedEvents.UserRegisteredIntegrationEvent{
			IntegrationEvent: sharedEvents.NewIntegrationEvent(sharedEvents.UserRegisteredType, clock.Now()),
			UserID:           e.UserID,
			Email:            e.Email,
			FirstName:        e.FirstName,
			LastName:         e.LastName,
		}, true
	})
}
