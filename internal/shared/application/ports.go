package application

import (
	"context"

	sharedDomain "github.com/davicafu/todolab/internal/shared/domain"
)

// Session es lo que ve el caso de uso dentro de una unidad de trabajo.
// Track registra los agregados cuyos eventos se drenarán al confirmar.
type Session interface {
	Track(aggregates ...sharedDomain.HasDomainEvents)
}

// UnitOfWork ejecuta fn en una transacción. Si fn termina bien, los eventos de
// los agregados registrados se guardan en el outbox dentro de la misma
// transacción; tras el commit se despachan a los handlers en proceso.
// Los repositorios deben usar el ctx recibido por fn.
type UnitOfWork interface {
	Execute(ctx context.Context, fn func(ctx context.Context, s Session) error) error
}

// DomainEventDispatcher entrega eventos ya confirmados a los handlers en proceso.
// Nunca devuelve error: los fallos se registran y se descartan.
type DomainEventDispatcher interface {
	Dispatch(ctx context.Context, events []sharedDomain.DomainEvent)
}
