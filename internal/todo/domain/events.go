package domain

import (
	"github.com/google/uuid"

	sharedDomain "github.com/davicafu/todolab/internal/shared/domain"
)

type TodoItemCreatedDomainEvent struct {
	TodoItemID  uuid.UUID `json:"todoItemId"`
	UserID      uuid.UUID `json:"userId"`
	Description string    `json:"description"`
}

func (TodoItemCreatedDomainEvent) EventName() string { return "TodoItemCreatedDomainEvent" }

type TodoItemCompletedDomainEvent struct {
	TodoItemID uuid.UUID `json:"todoItemId"`
	UserID     uuid.UUID `json:"userId"`
}

func (TodoItemCompletedDomainEvent) EventName() string { return "TodoItemCompletedDomainEvent" }

type TodoItemDeletedDomainEvent struct {
	TodoItemID uuid.UUID `json:"todoItemId"`
	UserID     uuid.UUID `json:"userId"`
}

func (TodoItemDeletedDomainEvent) EventName() string { return "TodoItemDeletedDomainEvent" }

var (
	_ sharedDomain.DomainEvent = TodoItemCreatedDomainEvent{}
	_ sharedDomain.DomainEvent = TodoItemCompletedDomainEvent{}
	_ sharedDomain.DomainEvent = TodoItemDeletedDomainEvent{}
)
