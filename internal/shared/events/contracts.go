package events

import "github.com/google/uuid"

// Nombres de los contratos publicados. Son el valor de la columna type del outbox.
const (
	TodoItemCreatedType   = "TodoItemCreatedIntegrationEvent"
	TodoItemCompletedType = "TodoItemCompletedIntegrationEvent"
	TodoItemDeletedType   = "TodoItemDeletedIntegrationEvent"
	UserRegisteredType    = "UserRegisteredIntegrationEvent"
)

// ---------------- Todo ----------------

type TodoItemCreatedIntegrationEvent struct {
	IntegrationEvent
	TodoItemID  uuid.UUID `json:"todoItemId"`
	UserID      uuid.UUID `json:"userId"`
	Description string    `json:"description"`
}

func (e TodoItemCreatedIntegrationEvent) PartitionKey() string { return e.TodoItemID.String() }

type TodoItemCompletedIntegrationEvent struct {
	IntegrationEvent
	TodoItemID uuid.UUID `json:"todoItemId"`
	UserID     uuid.UUID `json:"userId"`
}

func (e TodoItemCompletedIntegrationEvent) PartitionKey() string { return e.TodoItemID.String() }

type TodoItemDeletedIntegrationEvent struct {
	IntegrationEvent
	TodoItemID uuid.UUID `json:"todoItemId"`
	UserID     uuid.UUID `json:"userId"`
}

func (e TodoItemDeletedIntegrationEvent) PartitionKey() string { return e.TodoItemID.String() }

// ---------------- User ----------------

type UserRegisteredIntegrationEvent struct {
	IntegrationEvent
	UserID    uuid.UUID `json:"userId"`
	Email     string    `json:"email"`
	FirstName string    `json:"firstName"`
	LastName  string    `json:"lastName"`
}

func (e UserRegisteredIntegrationEvent) PartitionKey() string { return e.UserID.String() }

// NewDefaultSchemaRegistry registra todos los contratos conocidos.
// Lo comparten el relay (BrokerBus) y los consumidores.
func NewDefaultSchemaRegistry() *SchemaRegistry {
	r := NewSchemaRegistry()
	Register[TodoItemCreatedIntegrationEvent](r, TodoItemCreatedType)
	Register[TodoItemCompletedIntegrationEvent](r, TodoItemCompletedType)
	Register[TodoItemDeletedIntegrationEvent](r, TodoItemDeletedType)
	Register[UserRegisteredIntegrationEvent](r, UserRegisteredType)
	return r
}
