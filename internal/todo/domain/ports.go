package domain

import (
	"context"
	"errors"

	"github.com/google/uuid"

	sharedDomain "github.com/davicafu/todolab/internal/shared/domain"
	sharedQuery "github.com/davicafu/todolab/internal/shared/infra/platform/query"
	sharedCache "github.com/davicafu/todolab/internal/shared/infra/platform/cache"
)

var (
	ErrTodoNotFound         = errors.New("todo item not found")
	ErrTodoAlreadyCompleted = errors.New("todo item already completed")
	ErrInvalidTodo          = errors.New("invalid todo item")
	ErrUserNotFound         = errors.New("owner user not found")
)

// TodoRepository toma la transacción del ctx cuando la hay.
type TodoRepository interface {
	Insert(ctx context.Context, t *TodoItem) error
	Update(ctx context.Context, t *TodoItem) error
	Delete(ctx context.Context, id uuid.UUID) error
	GetByID(ctx context.Context, id uuid.UUID) (*TodoItem, error)
	List(ctx context.Context, criteria sharedDomain.Criteria, page sharedQuery.OffsetPagination, sort sharedQuery.Sort) ([]*TodoItem, error)
}

// UserDirectory permite comprobar el dueño sin depender del contexto user.
type UserDirectory interface {
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
}

func TodoCacheKey(id uuid.UUID) string {
	return sharedCache.Key("todo", id.String())
}
