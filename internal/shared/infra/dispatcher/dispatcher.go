package dispatcher

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	sharedApp "github.com/davicafu/todolab/internal/shared/application"
	sharedDomain "github.com/davicafu/todolab/internal/shared/domain"
	"github.com/davicafu/todolab/internal/shared/infra/metrics"
)

// HandlerFunc procesa un evento de dominio ya confirmado.
type HandlerFunc func(ctx context.Context, evt sharedDomain.DomainEvent) error

// Dispatcher entrega eventos de dominio a los handlers registrados por nombre.
// Es best-effort: el fallo de un handler se registra y no afecta al resto.
type Dispatcher struct {
	mu       sync.RWMutex
	handlers map[string][]HandlerFunc
	log      *zap.Logger
}

func New(log *zap.Logger) *Dispatcher {
	return &Dispatcher{
		handlers: make(map[string][]HandlerFunc),
		log:      log,
	}
}

// Register añade un handler para el nombre de evento dado.
func (d *Dispatcher) Register(eventName string, h HandlerFunc) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.handlers[eventName] = append(d.handlers[eventName], h)
}

// Handle registra un handler tipado; el nombre se toma del propio tipo T.
func Handle[T sharedDomain.DomainEvent](d *Dispatcher, fn func(ctx context.Context, evt T) error) {
	var zero T
	d.Register(zero.EventName(), func(ctx context.Context, evt sharedDomain.DomainEvent) error {
		typed, ok := evt.(T)
		if !ok {
			return fmt.Errorf("unexpected event type %T for %s", evt, zero.EventName())
		}
		return fn(ctx, typed)
	})
}

// Dispatch invoca en orden todos los handlers de cada evento.
func (d *Dispatcher) Dispatch(ctx context.Context, events []sharedDomain.DomainEvent) {
	for _, evt := range events {
		d.mu.RLock()
		hs := d.handlers[evt.EventName()]
		d.mu.RUnlock()

		for _, h := range hs {
			d.invoke(ctx, evt, h)
		}
	}
}

func (d *Dispatcher) invoke(ctx context.Context, evt sharedDomain.DomainEvent, h HandlerFunc) {
	defer func() {
		if r := recover(); r != nil {
			metrics.IncDispatchFailure(evt.EventName())
			d.log.Error("💥 Domain event handler panicked",
				zap.String("event", evt.EventName()),
				zap.Any("panic", r),
			)
		}
	}()

	if err := h(ctx, evt); err != nil {
		metrics.IncDispatchFailure(evt.EventName())
		d.log.Error("Domain event handler failed",
			zap.String("event", evt.EventName()),
			zap.Error(err),
		)
	}
}

var _ sharedApp.DomainEventDispatcher = (*Dispatcher)(nil)
