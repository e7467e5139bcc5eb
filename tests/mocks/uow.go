package mocks

import (
	"context"
	"sync"

	sharedApp "github.com/davicafu/todolab/internal/shared/application"
	sharedDomain "github.com/davicafu/todolab/internal/shared/domain"
	sharedEvents "github.com/davicafu/todolab/internal/shared/events"
	"github.com/davicafu/todolab/internal/shared/infra/uow"
)

// FakeUnitOfWork reproduce el hook de guardado sin base de datos: si fn termina
// bien, los eventos se convierten en filas de Outbox y se despachan.
// Los repositorios en memoria no deshacen escrituras, así que los tests de
// atomicidad real viven en el paquete uow.
type FakeUnitOfWork struct {
	Mappers    *sharedEvents.MapperRegistry
	Clock      sharedDomain.Clock
	Dispatcher sharedApp.DomainEventDispatcher
	// AddErr simula un fallo al escribir el outbox.
	AddErr error

	mu     sync.Mutex
	Outbox []sharedDomain.OutboxMessage
	Events []sharedDomain.DomainEvent
}

func NewFakeUnitOfWork(mappers *sharedEvents.MapperRegistry, clock sharedDomain.Clock) *FakeUnitOfWork {
	return &FakeUnitOfWork{Mappers: mappers, Clock: clock}
}

type fakeSession struct {
	tracked []sharedDomain.HasDomainEvents
}

func (s *fakeSession) Track(aggregates ...sharedDomain.HasDomainEvents) {
	s.tracked = append(s.tracked, aggregates...)
}

func (u *FakeUnitOfWork) Execute(ctx context.Context, fn func(ctx context.Context, s sharedApp.Session) error) error {
	s := &fakeSession{}
	if err := fn(ctx, s); err != nil {
		return err
	}

	var drained []sharedDomain.DomainEvent
	for _, a := range s.tracked {
		drained = append(drained, a.TakePendingEvents()...)
	}
	msgs, err := uow.BuildMessages(u.Mappers, drained, u.Clock.Now())
	if err != nil {
		return err
	}
	if u.AddErr != nil && len(msgs) > 0 {
		return u.AddErr
	}

	u.mu.Lock()
	u.Outbox = append(u.Outbox, msgs...)
	u.Events = append(u.Events, drained...)
	u.mu.Unlock()

	if u.Dispatcher != nil && len(drained) > 0 {
		u.Dispatcher.Dispatch(context.WithoutCancel(ctx), drained)
	}
	return nil
}

// Types devuelve los tipos de las filas de outbox en orden.
func (u *FakeUnitOfWork) Types() []string {
	u.mu.Lock()
	defer u.mu.Unlock()
	out := make([]string, 0, len(u.Outbox))
	for _, m := range u.Outbox {
		out = append(out, m.Type)
	}
	return out
}

var _ sharedApp.UnitOfWork = (*FakeUnitOfWork)(nil)
