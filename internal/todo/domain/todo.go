package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"

	sharedDomain "github.com/davicafu/todolab/internal/shared/domain"
)

type Priority int

const (
	PriorityLow Priority = iota
	PriorityNormal
	PriorityMedium
	PriorityHigh
	PriorityTop
)

func (p Priority) Valid() bool { return p >= PriorityLow && p <= PriorityTop }

func (p Priority) String() string {
	switch p {
	case PriorityLow:
		return "low"
	case PriorityNormal:
		return "normal"
	case PriorityMedium:
		return "medium"
	case PriorityHigh:
		return "high"
	case PriorityTop:
		return "top"
	}
	return "unknown"
}

const MaxDescriptionLength = 500

type TodoItem struct {
	sharedDomain.AggregateRoot

	ID          uuid.UUID
	UserID      uuid.UUID
	Description string
	DueDate     *time.Time
	Labels      []string
	IsCompleted bool
	CompletedAt *time.Time
	Priority    Priority
	CreatedAt   time.Time
}

// NewTodoItem valida los datos y emite TodoItemCreatedDomainEvent.
func NewTodoItem(userID uuid.UUID, description string, dueDate *time.Time, labels []string, priority Priority, now time.Time) (*TodoItem, error) {
	description = strings.TrimSpace(description)
	if userID == uuid.Nil || description == "" || len(description) > MaxDescriptionLength || !priority.Valid() {
		return nil, ErrInvalidTodo
	}

	t := &TodoItem{
		ID:          uuid.New(),
		UserID:      userID,
		Description: description,
		DueDate:     utcPtr(dueDate),
		Labels:      append([]string(nil), labels...),
		Priority:    priority,
		CreatedAt:   now.UTC(),
	}
	t.Raise(TodoItemCreatedDomainEvent{TodoItemID: t.ID, UserID: userID, Description: description})
	return t, nil
}

// Copy crea un todo nuevo, sin completar, con los mismos datos. Cuenta como una creación.
func (t *TodoItem) Copy(now time.Time) (*TodoItem, error) {
	return NewTodoItem(t.UserID, t.Description, t.DueDate, t.Labels, t.Priority, now)
}

func (t *TodoItem) Complete(now time.Time) error {
	if t.IsCompleted {
		return ErrTodoAlreadyCompleted
	}
	at := now.UTC()
	t.IsCompleted = true
	t.CompletedAt = &at
	t.Raise(TodoItemCompletedDomainEvent{TodoItemID: t.ID, UserID: t.UserID})
	return nil
}

// UpdateDescription no emite evento.
func (t *TodoItem) UpdateDescription(description string) error {
	description = strings.TrimSpace(description)
	if description == "" || len(description) > MaxDescriptionLength {
		return ErrInvalidTodo
	}
	t.Description = description
	return nil
}

// MarkDeleted solo registra el evento; el borrado lo hace el repositorio.
func (t *TodoItem) MarkDeleted() {
	t.Raise(TodoItemDeletedDomainEvent{TodoItemID: t.ID, UserID: t.UserID})
}

func (t *TodoItem) OwnedBy(userID uuid.UUID) bool { return t.UserID == userID }

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
