package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	sharedDomain "github.com/davicafu/todolab/internal/shared/domain"
	sharedEvents "github.com/davicafu/todolab/internal/shared/events"
	todoApp "github.com/davicafu/todolab/internal/todo/application"
	"github.com/davicafu/todolab/tests/mocks"
)

type tokenAuth map[string]uuid.UUID

func (a tokenAuth) Authenticate(_ context.Context, token string) (uuid.UUID, error) {
	if id, ok := a[token]; ok {
		return id, nil
	}
	return uuid.Nil, errors.New("no session")
}

type apiFixture struct {
	router *gin.Engine
	uow    *mocks.FakeUnitOfWork
}

func newAPI() *apiFixture {
	gin.SetMode(gin.TestMode)
	clock := sharedDomain.FixedClock{T: time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)}
	alice, bob := uuid.New(), uuid.New()
	uow := mocks.NewFakeUnitOfWork(sharedEvents.NewMapperRegistry(todoApp.NewIntegrationMapper(clock)), clock)
	svc := todoApp.NewTodoService(uow, mocks.NewInMemoryTodoRepo(),
		mocks.FakeUserDirectory{Known: map[uuid.UUID]bool{alice: true, bob: true}},
		nil, clock, validator.New(), zap.NewNop())

	r := gin.New()
	RegisterTodoRoutes(r, NewTodoHandler(svc, zap.NewNop()), tokenAuth{"alice": alice, "bob": bob})
	return &apiFixture{router: r, uow: uow}
}

func (f *apiFixture) do(method, path, token, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	f.router.ServeHTTP(w, req)
	return w
}

type envelope struct {
	Data TodoResponse `json:"data"`
}

func TestTodoAPI_Lifecycle(t *testing.T) {
	f := newAPI()

	w := f.do(http.MethodPost, "/todos", "alice", `{"description":"Buy milk","labels":["home"],"priority":3}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var created envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.Equal(t, "high", created.Data.Priority)
	path := "/todos/" + created.Data.ID.String()

	w = f.do(http.MethodGet, path, "alice", "")
	assert.Equal(t, http.StatusOK, w.Code)

	// otro usuario no lo ve
	w = f.do(http.MethodGet, path, "bob", "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = f.do(http.MethodPut, path+"/complete", "alice", "")
	assert.Equal(t, http.StatusOK, w.Code)
	w = f.do(http.MethodPut, path+"/complete", "alice", "")
	assert.Equal(t, http.StatusConflict, w.Code)

	w = f.do(http.MethodPost, path+"/copy", "alice", "")
	assert.Equal(t, http.StatusCreated, w.Code)

	w = f.do(http.MethodGet, "/todos?completed=false", "alice", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"items":[{`)

	w = f.do(http.MethodDelete, path, "alice", "")
	assert.Equal(t, http.StatusNoContent, w.Code)

	assert.Equal(t, []string{
		sharedEvents.TodoItemCreatedType,
		sharedEvents.TodoItemCompletedType,
		sharedEvents.TodoItemCreatedType,
		sharedEvents.TodoItemDeletedType,
	}, f.uow.Types())
}

func TestTodoAPI_Errors(t *testing.T) {
	f := newAPI()

	assert.Equal(t, http.StatusUnauthorized, f.do(http.MethodGet, "/todos", "", "").Code)
	assert.Equal(t, http.StatusBadRequest, f.do(http.MethodPost, "/todos", "alice", `{}`).Code)
	assert.Equal(t, http.StatusBadRequest, f.do(http.MethodPost, "/todos", "alice", `{"description":"x","priority":7}`).Code)
	assert.Equal(t, http.StatusBadRequest, f.do(http.MethodGet, "/todos/not-a-uuid", "alice", "").Code)
	assert.Equal(t, http.StatusNotFound, f.do(http.MethodGet, "/todos/"+uuid.NewString(), "alice", "").Code)
	assert.Equal(t, http.StatusBadRequest, f.do(http.MethodGet, "/todos?completed=maybe", "alice", "").Code)
	assert.Empty(t, f.uow.Outbox)
}
