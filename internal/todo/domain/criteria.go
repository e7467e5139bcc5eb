package domain

import (
	"github.com/google/uuid"

	shared "github.com/davicafu/todolab/internal/shared/domain"
)

// OwnerCriteria filtra por dueño. Es obligatorio en los listados.
type OwnerCriteria struct {
	UserID uuid.UUID
}

func (c OwnerCriteria) ToConditions() []shared.Criterion {
	return []shared.Criterion{{Field: "user_id", Op: shared.OpEq, Value: c.UserID.String()}}
}

type CompletedCriteria struct {
	Completed bool
}

func (c CompletedCriteria) ToConditions() []shared.Criterion {
	return []shared.Criterion{{Field: "is_completed", Op: shared.OpEq, Value: c.Completed}}
}

// DescriptionLikeCriteria busca por texto contenido en la descripción.
type DescriptionLikeCriteria struct {
	Text string
}

func (c DescriptionLikeCriteria) ToConditions() []shared.Criterion {
	return []shared.Criterion{{Field: "description", Op: shared.OpLike, Value: "%" + c.Text + "%"}}
}

// MinPriorityCriteria devuelve los todos con prioridad igual o superior.
type MinPriorityCriteria struct {
	Priority Priority
}

func (c MinPriorityCriteria) ToConditions() []shared.Criterion {
	return []shared.Criterion{{Field: "priority", Op: shared.OpGte, Value: int(c.Priority)}}
}

// SortableFields son las columnas permitidas para ordenar.
var SortableFields = map[string]bool{
	"created_at": true,
	"priority":   true,
	"due_date":   true,
}
