package uow

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	sharedApp "github.com/davicafu/todolab/internal/shared/application"
	sharedDomain "github.com/davicafu/todolab/internal/shared/domain"
	sharedEvents "github.com/davicafu/todolab/internal/shared/events"
	"github.com/davicafu/todolab/internal/shared/infra/metrics"
	sharedDB "github.com/davicafu/todolab/internal/shared/infra/platform/db"
)

// UnitOfWork es el hook de guardado: escritura de negocio y outbox en la misma transacción.
type UnitOfWork struct {
	db         *sql.DB
	outbox     sharedDomain.OutboxRepository
	mappers    *sharedEvents.MapperRegistry
	dispatcher sharedApp.DomainEventDispatcher
	clock      sharedDomain.Clock
	log        *zap.Logger
}

type Option func(*UnitOfWork)

func WithClock(c sharedDomain.Clock) Option {
	return func(u *UnitOfWork) { u.clock = c }
}

// WithDispatcher activa el despacho en proceso tras el commit.
func WithDispatcher(d sharedApp.DomainEventDispatcher) Option {
	return func(u *UnitOfWork) { u.dispatcher = d }
}

func New(db *sql.DB, outbox sharedDomain.OutboxRepository, mappers *sharedEvents.MapperRegistry, log *zap.Logger, opts ...Option) *UnitOfWork {
	u := &UnitOfWork{
		db:      db,
		outbox:  outbox,
		mappers: mappers,
		clock:   sharedDomain.SystemClock{},
		log:     log,
	}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

type session struct {
	tracked []sharedDomain.HasDomainEvents
}

func (s *session) Track(aggregates ...sharedDomain.HasDomainEvents) {
	for _, a := range aggregates {
		if a != nil {
			s.tracked = append(s.tracked, a)
		}
	}
}

// drain vacía los agregados en orden de registro.
func (s *session) drain() []sharedDomain.DomainEvent {
	var out []sharedDomain.DomainEvent
	for _, a := range s.tracked {
		out = append(out, a.TakePendingEvents()...)
	}
	return out
}

// Execute abre la transacción, ejecuta fn y, si termina bien, añade los mensajes
// del outbox y confirma. Cualquier error antes del commit deshace todo.
func (u *UnitOfWork) Execute(ctx context.Context, fn func(ctx context.Context, s sharedApp.Session) error) error {
	tx, err := u.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin tx: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	txCtx := sharedDB.WithTx(ctx, tx)
	s := &session{}
	if err := fn(txCtx, s); err != nil {
		return err
	}

	drained := s.drain()
	msgs, err := BuildMessages(u.mappers, drained, u.clock.Now())
	if err != nil {
		u.log.Error("Outbox serialization failed, rolling back", zap.Error(err))
		return err
	}

	if len(msgs) > 0 {
		if err := u.outbox.Add(txCtx, msgs); err != nil {
			return fmt.Errorf("failed to store outbox messages: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}
	committed = true

	for _, m := range msgs {
		metrics.IncOutboxWritten(m.Type)
		u.log.Debug("📥 Outbox message stored",
			zap.String("message_id", m.ID.String()),
			zap.String("type", m.Type),
		)
	}

	// El despacho no debe cancelarse porque la petición HTTP haya terminado.
	if u.dispatcher != nil && len(drained) > 0 {
		u.dispatcher.Dispatch(context.WithoutCancel(ctx), drained)
	}
	return nil
}

var _ sharedApp.UnitOfWork = (*UnitOfWork)(nil)
