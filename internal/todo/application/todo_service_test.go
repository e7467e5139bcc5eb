package application

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	sharedApp "github.com/davicafu/todolab/internal/shared/application"
	sharedDomain "github.com/davicafu/todolab/internal/shared/domain"
	sharedEvents "github.com/davicafu/todolab/internal/shared/events"
	todoDomain "github.com/davicafu/todolab/internal/todo/domain"
	"github.com/davicafu/todolab/tests/mocks"
)

var now = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

type fixture struct {
	svc   *TodoService
	repo  *mocks.InMemoryTodoRepo
	uow   *mocks.FakeUnitOfWork
	cache *mocks.DummyCache
	owner uuid.UUID
}

func newFixture() *fixture {
	clock := sharedDomain.FixedClock{T: now}
	owner := uuid.New()
	repo := mocks.NewInMemoryTodoRepo()
	cache := mocks.NewDummyCache()
	uow := mocks.NewFakeUnitOfWork(sharedEvents.NewMapperRegistry(NewIntegrationMapper(clock)), clock)
	users := mocks.FakeUserDirectory{Known: map[uuid.UUID]bool{owner: true}}

	svc := NewTodoService(uow, repo, users, cache, clock, validator.New(), zap.NewNop())
	return &fixture{svc: svc, repo: repo, uow: uow, cache: cache, owner: owner}
}

// create espera a que termine la escritura asíncrona en caché para que no pise invalidaciones posteriores.
func (f *fixture) create(t *testing.T, desc string) *todoDomain.TodoItem {
	t.Helper()
	todo, err := f.svc.CreateTodo(context.Background(), CreateTodoCommand{UserID: f.owner, Description: desc, Priority: todoDomain.PriorityNormal})
	require.NoError(t, err)
	require.Eventually(t, func() bool { return f.cache.Has(todoDomain.TodoCacheKey(todo.ID)) }, time.Second, 5*time.Millisecond)
	return todo
}

func TestCreateTodo_WritesOneIntegrationRow(t *testing.T) {
	f := newFixture()

	todo := f.create(t, "Buy milk")

	assert.Contains(t, f.repo.Todos, todo.ID)
	require.Len(t, f.uow.Outbox, 1)
	msg := f.uow.Outbox[0]
	assert.Equal(t, sharedEvents.TodoItemCreatedType, msg.Type)
	assert.Nil(t, msg.ProcessedAt)
	assert.Zero(t, msg.Attempt)

	var body sharedEvents.TodoItemCreatedIntegrationEvent
	require.NoError(t, json.Unmarshal([]byte(msg.Content), &body))
	assert.Equal(t, todo.ID, body.TodoItemID)
	assert.Equal(t, f.owner, body.UserID)
	assert.Equal(t, "Buy milk", body.Description)
	assert.Equal(t, sharedEvents.TodoItemCreatedType, body.EventType)

	// el agregado quedó drenado
	assert.Empty(t, todo.PendingEvents())
}

func TestCreateTodo_UnknownOwner(t *testing.T) {
	f := newFixture()

	_, err := f.svc.CreateTodo(context.Background(), CreateTodoCommand{UserID: uuid.New(), Description: "x"})

	assert.ErrorIs(t, err, todoDomain.ErrUserNotFound)
	assert.Empty(t, f.uow.Outbox)
}

func TestCreateTodo_ValidationFails(t *testing.T) {
	f := newFixture()

	_, err := f.svc.CreateTodo(context.Background(), CreateTodoCommand{UserID: f.owner, Description: ""})

	var vErr *sharedApp.ValidationError
	assert.ErrorAs(t, err, &vErr)
	assert.Empty(t, f.repo.Todos)
}

func TestCreateTodo_OutboxFailure(t *testing.T) {
	f := newFixture()
	f.uow.AddErr = errors.New("outbox down")

	_, err := f.svc.CreateTodo(context.Background(), CreateTodoCommand{UserID: f.owner, Description: "x"})

	assert.ErrorContains(t, err, "outbox down")
	assert.Empty(t, f.uow.Outbox)
}

func TestCompleteTodo(t *testing.T) {
	f := newFixture()
	todo := f.create(t, "Pay rent")

	done, err := f.svc.CompleteTodo(context.Background(), TodoRef{UserID: f.owner, TodoID: todo.ID})
	require.NoError(t, err)
	assert.True(t, done.IsCompleted)
	assert.True(t, f.repo.Todos[todo.ID].IsCompleted)
	assert.Equal(t, []string{sharedEvents.TodoItemCreatedType, sharedEvents.TodoItemCompletedType}, f.uow.Types())

	_, err = f.svc.CompleteTodo(context.Background(), TodoRef{UserID: f.owner, TodoID: todo.ID})
	assert.ErrorIs(t, err, todoDomain.ErrTodoAlreadyCompleted)
	assert.Len(t, f.uow.Outbox, 2)
}

func TestCompleteTodo_OtherUserSeesNotFound(t *testing.T) {
	f := newFixture()
	todo := f.create(t, "private")

	_, err := f.svc.CompleteTodo(context.Background(), TodoRef{UserID: uuid.New(), TodoID: todo.ID})

	assert.ErrorIs(t, err, todoDomain.ErrTodoNotFound)
}

func TestCopyTodo(t *testing.T) {
	f := newFixture()
	todo := f.create(t, "weekly review")

	cp, err := f.svc.CopyTodo(context.Background(), TodoRef{UserID: f.owner, TodoID: todo.ID})
	require.NoError(t, err)

	assert.NotEqual(t, todo.ID, cp.ID)
	assert.Len(t, f.repo.Todos, 2)
	assert.Equal(t, []string{sharedEvents.TodoItemCreatedType, sharedEvents.TodoItemCreatedType}, f.uow.Types())
}

func TestUpdateDescription_NoOutboxRow(t *testing.T) {
	f := newFixture()
	todo := f.create(t, "old")

	updated, err := f.svc.UpdateDescription(context.Background(), UpdateDescriptionCommand{
		TodoRef:     TodoRef{UserID: f.owner, TodoID: todo.ID},
		Description: "new",
	})
	require.NoError(t, err)

	assert.Equal(t, "new", updated.Description)
	assert.Equal(t, "new", f.repo.Todos[todo.ID].Description)
	assert.Len(t, f.uow.Outbox, 1)
}

func TestDeleteTodo(t *testing.T) {
	f := newFixture()
	todo := f.create(t, "to delete")

	require.NoError(t, f.svc.DeleteTodo(context.Background(), TodoRef{UserID: f.owner, TodoID: todo.ID}))

	assert.NotContains(t, f.repo.Todos, todo.ID)
	assert.Equal(t, sharedEvents.TodoItemDeletedType, f.uow.Outbox[1].Type)
	assert.False(t, f.cache.Has(todoDomain.TodoCacheKey(todo.ID)))

	err := f.svc.DeleteTodo(context.Background(), TodoRef{UserID: f.owner, TodoID: todo.ID})
	assert.ErrorIs(t, err, todoDomain.ErrTodoNotFound)
}

func TestGetTodo_CacheAside(t *testing.T) {
	f := newFixture()
	todo := f.create(t, "cached")
	require.NoError(t, f.cache.Delete(context.Background(), todoDomain.TodoCacheKey(todo.ID)))

	got, err := f.svc.GetTodo(context.Background(), f.owner, todo.ID)
	require.NoError(t, err)
	assert.Equal(t, "cached", got.Description)
	assert.Equal(t, 1, f.repo.Gets)

	assert.Eventually(t, func() bool { return f.cache.Has(todoDomain.TodoCacheKey(todo.ID)) }, time.Second, 5*time.Millisecond)
	_, err = f.svc.GetTodo(context.Background(), f.owner, todo.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, f.repo.Gets)

	_, err = f.svc.GetTodo(context.Background(), uuid.New(), todo.ID)
	assert.ErrorIs(t, err, todoDomain.ErrTodoNotFound)
}

func TestGetTodo_NotFoundIsNotRetried(t *testing.T) {
	f := newFixture()

	_, err := f.svc.GetTodo(context.Background(), f.owner, uuid.New())

	assert.ErrorIs(t, err, todoDomain.ErrTodoNotFound)
	assert.Equal(t, 1, f.repo.Gets)
}

func TestListTodos(t *testing.T) {
	f := newFixture()
	a := f.create(t, "alpha task")
	f.create(t, "beta task")
	_, err := f.svc.CompleteTodo(context.Background(), TodoRef{UserID: f.owner, TodoID: a.ID})
	require.NoError(t, err)

	all, err := f.svc.ListTodos(context.Background(), ListTodosQuery{UserID: f.owner})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	completed := true
	done, err := f.svc.ListTodos(context.Background(), ListTodosQuery{UserID: f.owner, Completed: &completed})
	require.NoError(t, err)
	require.Len(t, done, 1)
	assert.Equal(t, a.ID, done[0].ID)

	search, err := f.svc.ListTodos(context.Background(), ListTodosQuery{UserID: f.owner, Search: "beta"})
	require.NoError(t, err)
	require.Len(t, search, 1)

	other, err := f.svc.ListTodos(context.Background(), ListTodosQuery{UserID: uuid.New()})
	require.NoError(t, err)
	assert.Empty(t, other)

	_, err = f.svc.ListTodos(context.Background(), ListTodosQuery{UserID: f.owner, SortBy: "title"})
	assert.Error(t, err)
}

func TestIntegrationMapper_IgnoresForeignEvents(t *testing.T) {
	m := NewIntegrationMapper(sharedDomain.FixedClock{T: now})

	_, ok := m.Map(foreignEvent{})
	assert.False(t, ok)

	out, ok := m.Map(todoDomain.TodoItemDeletedDomainEvent{TodoItemID: uuid.New()})
	require.True(t, ok)
	assert.Equal(t, sharedEvents.TodoItemDeletedType, out.IntegrationEventType())
}

type foreignEvent struct{}

func (foreignEvent) EventName() string { return "ForeignDomainEvent" }
