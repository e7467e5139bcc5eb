package mocks

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	sharedDomain "github.com/davicafu/todolab/internal/shared/domain"
	sharedQuery "github.com/davicafu/todolab/internal/shared/infra/platform/query"
	todoDomain "github.com/davicafu/todolab/internal/todo/domain"
)

// InMemoryTodoRepo guarda copias para que los eventos pendientes del agregado no se filtren.
type InMemoryTodoRepo struct {
	mu    sync.Mutex
	Todos map[uuid.UUID]todoDomain.TodoItem
	// Gets cuenta las lecturas por id; sirve para comprobar el cache-aside.
	Gets int
}

func NewInMemoryTodoRepo() *InMemoryTodoRepo {
	return &InMemoryTodoRepo{Todos: make(map[uuid.UUID]todoDomain.TodoItem)}
}

func snapshot(t *todoDomain.TodoItem) todoDomain.TodoItem {
	c := *t
	c.AggregateRoot = sharedDomain.AggregateRoot{}
	c.Labels = append([]string(nil), t.Labels...)
	return c
}

func (r *InMemoryTodoRepo) Insert(ctx context.Context, t *todoDomain.TodoItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Todos[t.ID] = snapshot(t)
	return nil
}

func (r *InMemoryTodoRepo) Update(ctx context.Context, t *todoDomain.TodoItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.Todos[t.ID]; !ok {
		return todoDomain.ErrTodoNotFound
	}
	r.Todos[t.ID] = snapshot(t)
	return nil
}

func (r *InMemoryTodoRepo) Delete(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.Todos[id]; !ok {
		return todoDomain.ErrTodoNotFound
	}
	delete(r.Todos, id)
	return nil
}

func (r *InMemoryTodoRepo) GetByID(ctx context.Context, id uuid.UUID) (*todoDomain.TodoItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Gets++
	t, ok := r.Todos[id]
	if !ok {
		return nil, todoDomain.ErrTodoNotFound
	}
	return &t, nil
}

// List interpreta solo los operadores = y LIKE, suficiente para los criterios de Todo.
func (r *InMemoryTodoRepo) List(ctx context.Context, criteria sharedDomain.Criteria, page sharedQuery.OffsetPagination, s sharedQuery.Sort) ([]*todoDomain.TodoItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []*todoDomain.TodoItem
	for _, t := range r.Todos {
		t := t
		if matches(&t, criteria.ToConditions()) {
			out = append(out, &t)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		less := out[i].CreatedAt.Before(out[j].CreatedAt)
		if s.Field == "priority" {
			less = out[i].Priority < out[j].Priority
		}
		if s.Desc {
			return !less
		}
		return less
	})

	if page.Offset >= len(out) {
		return []*todoDomain.TodoItem{}, nil
	}
	out = out[page.Offset:]
	if page.Limit > 0 && len(out) > page.Limit {
		out = out[:page.Limit]
	}
	return out, nil
}

func matches(t *todoDomain.TodoItem, conds []sharedDomain.Criterion) bool {
	for _, c := range conds {
		switch c.Field {
		case "user_id":
			if t.UserID.String() != c.Value {
				return false
			}
		case "is_completed":
			if t.IsCompleted != c.Value {
				return false
			}
		case "description":
			needle := strings.Trim(c.Value.(string), "%")
			if !strings.Contains(t.Description, needle) {
				return false
			}
		}
	}
	return true
}

// FakeUserDirectory responde Exists sobre un conjunto fijo.
type FakeUserDirectory struct {
	Known map[uuid.UUID]bool
	Err   error
}

func (d FakeUserDirectory) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	return d.Known[id], d.Err
}

var (
	_ todoDomain.TodoRepository = (*InMemoryTodoRepo)(nil)
	_ todoDomain.UserDirectory  = FakeUserDirectory{}
)
