package domain

// DomainEvent es un hecho de negocio ocurrido dentro de un agregado.
// EventName devuelve el nombre del tipo (ej. "TodoItemCreatedDomainEvent"),
// que se usa como tipo del mensaje outbox cuando no hay evento de integración.
type DomainEvent interface {
	EventName() string
}

// HasDomainEvents lo implementa cualquier agregado que acumule eventos.
type HasDomainEvents interface {
	TakePendingEvents() []DomainEvent
}

// AggregateRoot se embebe en las entidades que emiten eventos de dominio.
// No es seguro para uso concurrente: un agregado pertenece a una sola petición.
type AggregateRoot struct {
	pending []DomainEvent
}

// Raise añade un evento al final de la lista pendiente.
func (a *AggregateRoot) Raise(evt DomainEvent) {
	a.pending = append(a.pending, evt)
}

// PendingEvents devuelve una copia de los eventos sin vaciar la lista.
func (a *AggregateRoot) PendingEvents() []DomainEvent {
	out := make([]DomainEvent, len(a.pending))
	copy(out, a.pending)
	return out
}

// TakePendingEvents devuelve los eventos en orden y vacía la lista.
func (a *AggregateRoot) TakePendingEvents() []DomainEvent {
	out := a.pending
	a.pending = nil
	return out
}

var _ HasDomainEvents = (*AggregateRoot)(nil)
