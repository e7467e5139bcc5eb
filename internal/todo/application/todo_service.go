package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	sharedApp "github.com/davicafu/todolab/internal/shared/application"
	sharedDomain "github.com/davicafu/todolab/internal/shared/domain"
	sharedCache "github.com/davicafu/todolab/internal/shared/infra/platform/cache"
	sharedQuery "github.com/davicafu/todolab/internal/shared/infra/platform/query"
	sharedUtils "github.com/davicafu/todolab/internal/shared/infra/utils"
	todoDomain "github.com/davicafu/todolab/internal/todo/domain"
)

const todoCacheTTL = 2 * time.Minute

// TodoService agrupa los casos de uso de Todo. Cada escritura pasa por la
// UnitOfWork, así que sus eventos quedan en el outbox en la misma transacción.
type TodoService struct {
	uow   sharedApp.UnitOfWork
	repo  todoDomain.TodoRepository
	users todoDomain.UserDirectory
	cache sharedCache.Cache
	clock sharedDomain.Clock
	log   *zap.Logger

	create     sharedApp.Handler[CreateTodoCommand, *todoDomain.TodoItem]
	copy       sharedApp.Handler[TodoRef, *todoDomain.TodoItem]
	complete   sharedApp.Handler[TodoRef, *todoDomain.TodoItem]
	updateDesc sharedApp.Handler[UpdateDescriptionCommand, *todoDomain.TodoItem]
	delete     sharedApp.Handler[TodoRef, struct{}]
	list       sharedApp.Handler[ListTodosQuery, []*todoDomain.TodoItem]
}

func NewTodoService(
	uow sharedApp.UnitOfWork,
	repo todoDomain.TodoRepository,
	users todoDomain.UserDirectory,
	cache sharedCache.Cache,
	clock sharedDomain.Clock,
	v *validator.Validate,
	log *zap.Logger,
) *TodoService {
	s := &TodoService{uow: uow, repo: repo, users: users, cache: cache, clock: clock, log: log}

	s.create = sharedApp.Standard("CreateTodo", s.handleCreate, log, v)
	s.copy = sharedApp.Standard("CopyTodo", s.handleCopy, log, v)
	s.complete = sharedApp.Standard("CompleteTodo", s.handleComplete, log, v)
	s.updateDesc = sharedApp.Standard("UpdateTodoDescription", s.handleUpdateDescription, log, v)
	s.delete = sharedApp.Standard("DeleteTodo", s.handleDelete, log, v)
	s.list = sharedApp.Standard("ListTodos", s.handleList, log, v)
	return s
}

func (s *TodoService) CreateTodo(ctx context.Context, cmd CreateTodoCommand) (*todoDomain.TodoItem, error) {
	return s.create(ctx, cmd)
}

func (s *TodoService) CopyTodo(ctx context.Context, ref TodoRef) (*todoDomain.TodoItem, error) {
	return s.copy(ctx, ref)
}

func (s *TodoService) CompleteTodo(ctx context.Context, ref TodoRef) (*todoDomain.TodoItem, error) {
	return s.complete(ctx, ref)
}

func (s *TodoService) UpdateDescription(ctx context.Context, cmd UpdateDescriptionCommand) (*todoDomain.TodoItem, error) {
	return s.updateDesc(ctx, cmd)
}

func (s *TodoService) DeleteTodo(ctx context.Context, ref TodoRef) error {
	_, err := s.delete(ctx, ref)
	return err
}

func (s *TodoService) ListTodos(ctx context.Context, q ListTodosQuery) ([]*todoDomain.TodoItem, error) {
	return s.list(ctx, q)
}

// --- comandos ---

func (s *TodoService) handleCreate(ctx context.Context, cmd CreateTodoCommand) (*todoDomain.TodoItem, error) {
	exists, err := s.users.Exists(ctx, cmd.UserID)
	if err != nil {
		return nil, fmt.Errorf("check owner: %w", err)
	}
	if !exists {
		return nil, todoDomain.ErrUserNotFound
	}

	todo, err := todoDomain.NewTodoItem(cmd.UserID, cmd.Description, cmd.DueDate, cmd.Labels, cmd.Priority, s.clock.Now())
	if err != nil {
		return nil, err
	}

	err = s.uow.Execute(ctx, func(ctx context.Context, session sharedApp.Session) error {
		if err := s.repo.Insert(ctx, todo); err != nil {
			return err
		}
		session.Track(todo)
		return nil
	})
	if err != nil {
		s.log.Error("Failed to create todo", zap.String("user_id", cmd.UserID.String()), zap.Error(err))
		return nil, err
	}

	s.log.Info("📝 Todo created", zap.String("todo_id", todo.ID.String()), zap.String("user_id", cmd.UserID.String()))
	sharedCache.SetAsync(s.cache, todoDomain.TodoCacheKey(todo.ID), todo, todoCacheTTL, s.log)
	return todo, nil
}

func (s *TodoService) handleCopy(ctx context.Context, ref TodoRef) (*todoDomain.TodoItem, error) {
	var copied *todoDomain.TodoItem
	err := s.uow.Execute(ctx, func(ctx context.Context, session sharedApp.Session) error {
		src, err := s.loadOwned(ctx, ref)
		if err != nil {
			return err
		}
		copied, err = src.Copy(s.clock.Now())
		if err != nil {
			return err
		}
		if err := s.repo.Insert(ctx, copied); err != nil {
			return err
		}
		session.Track(copied)
		return nil
	})
	if err != nil {
		return nil, err
	}
	sharedCache.SetAsync(s.cache, todoDomain.TodoCacheKey(copied.ID), copied, todoCacheTTL, s.log)
	return copied, nil
}

func (s *TodoService) handleComplete(ctx context.Context, ref TodoRef) (*todoDomain.TodoItem, error) {
	todo, err := s.mutate(ctx, ref, func(t *todoDomain.TodoItem) error {
		return t.Complete(s.clock.Now())
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("✅ Todo completed", zap.String("todo_id", todo.ID.String()))
	return todo, nil
}

func (s *TodoService) handleUpdateDescription(ctx context.Context, cmd UpdateDescriptionCommand) (*todoDomain.TodoItem, error) {
	return s.mutate(ctx, cmd.TodoRef, func(t *todoDomain.TodoItem) error {
		return t.UpdateDescription(cmd.Description)
	})
}

func (s *TodoService) handleDelete(ctx context.Context, ref TodoRef) (struct{}, error) {
	err := s.uow.Execute(ctx, func(ctx context.Context, session sharedApp.Session) error {
		todo, err := s.loadOwned(ctx, ref)
		if err != nil {
			return err
		}
		todo.MarkDeleted()
		if err := s.repo.Delete(ctx, todo.ID); err != nil {
			return err
		}
		session.Track(todo)
		return nil
	})
	if err != nil {
		return struct{}{}, err
	}
	sharedCache.Invalidate(ctx, s.cache, todoDomain.TodoCacheKey(ref.TodoID), s.log)
	return struct{}{}, nil
}

// mutate carga, modifica y guarda un todo dentro de una unidad de trabajo.
func (s *TodoService) mutate(ctx context.Context, ref TodoRef, change func(*todoDomain.TodoItem) error) (*todoDomain.TodoItem, error) {
	var todo *todoDomain.TodoItem
	err := s.uow.Execute(ctx, func(ctx context.Context, session sharedApp.Session) error {
		var err error
		if todo, err = s.loadOwned(ctx, ref); err != nil {
			return err
		}
		if err := change(todo); err != nil {
			return err
		}
		if err := s.repo.Update(ctx, todo); err != nil {
			return err
		}
		session.Track(todo)
		return nil
	})
	if err != nil {
		return nil, err
	}
	sharedCache.Invalidate(ctx, s.cache, todoDomain.TodoCacheKey(todo.ID), s.log)
	return todo, nil
}

// loadOwned oculta los todos ajenos como no encontrados.
func (s *TodoService) loadOwned(ctx context.Context, ref TodoRef) (*todoDomain.TodoItem, error) {
	todo, err := s.repo.GetByID(ctx, ref.TodoID)
	if err != nil {
		return nil, err
	}
	if !todo.OwnedBy(ref.UserID) {
		return nil, todoDomain.ErrTodoNotFound
	}
	return todo, nil
}

// --- consultas ---

// GetTodo aplica cache-aside con reintentos sobre el repositorio.
func (s *TodoService) GetTodo(ctx context.Context, userID, todoID uuid.UUID) (*todoDomain.TodoItem, error) {
	key := todoDomain.TodoCacheKey(todoID)
	if s.cache != nil {
		var cached todoDomain.TodoItem
		if hit, _ := s.cache.Get(ctx, key, &cached); hit {
			if !cached.OwnedBy(userID) {
				return nil, todoDomain.ErrTodoNotFound
			}
			return &cached, nil
		}
	}

	var todo *todoDomain.TodoItem
	err := sharedUtils.Retry(ctx, 3, 100*time.Millisecond, func() error {
		var errRetry error
		todo, errRetry = s.repo.GetByID(ctx, todoID)
		if errors.Is(errRetry, todoDomain.ErrTodoNotFound) {
			return fmt.Errorf("%w: %w", sharedUtils.ErrPermanent, errRetry)
		}
		return errRetry
	})
	if err != nil {
		if errors.Is(err, todoDomain.ErrTodoNotFound) {
			return nil, todoDomain.ErrTodoNotFound
		}
		s.log.Error("Failed to fetch todo", zap.String("todo_id", todoID.String()), zap.Error(err))
		return nil, err
	}
	if !todo.OwnedBy(userID) {
		return nil, todoDomain.ErrTodoNotFound
	}

	sharedCache.SetAsync(s.cache, key, todo, todoCacheTTL, s.log)
	return todo, nil
}

func (s *TodoService) handleList(ctx context.Context, q ListTodosQuery) ([]*todoDomain.TodoItem, error) {
	criteria := []sharedDomain.Criteria{todoDomain.OwnerCriteria{UserID: q.UserID}}
	if q.Completed != nil {
		criteria = append(criteria, todoDomain.CompletedCriteria{Completed: *q.Completed})
	}
	if q.Search != "" {
		criteria = append(criteria, todoDomain.DescriptionLikeCriteria{Text: q.Search})
	}

	sort := sharedQuery.Sort{Field: sharedUtils.Ternary(q.SortBy == "", "created_at", q.SortBy), Desc: q.Desc}
	page := sharedQuery.OffsetPagination{Limit: q.Limit, Offset: q.Offset}.Normalize()

	return s.repo.List(ctx, sharedDomain.And(criteria...), page, sort)
}
