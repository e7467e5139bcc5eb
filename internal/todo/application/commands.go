package application

import (
	"time"

	"github.com/google/uuid"

	todoDomain "github.com/davicafu/todolab/internal/todo/domain"
)

type CreateTodoCommand struct {
	UserID      uuid.UUID           `validate:"required"`
	Description string              `validate:"required,max=500"`
	DueDate     *time.Time          `validate:"omitempty"`
	Labels      []string            `validate:"max=10,dive,required,max=32"`
	Priority    todoDomain.Priority `validate:"gte=0,lte=4"`
}

// TodoRef identifica un todo de un usuario. Lo usan copy, complete y delete.
type TodoRef struct {
	UserID uuid.UUID `validate:"required"`
	TodoID uuid.UUID `validate:"required"`
}

type UpdateDescriptionCommand struct {
	TodoRef
	Description string `validate:"required,max=500"`
}

type ListTodosQuery struct {
	UserID    uuid.UUID `validate:"required"`
	Completed *bool
	Search    string `validate:"max=100"`
	Limit     int    `validate:"gte=0,lte=200"`
	Offset    int    `validate:"gte=0"`
	SortBy    string `validate:"omitempty,oneof=created_at priority due_date"`
	Desc      bool
}
