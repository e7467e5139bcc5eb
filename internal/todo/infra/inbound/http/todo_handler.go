package http

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/davicafu/todolab/internal/shared/infra/platform/web"
	todoApp "github.com/davicafu/todolab/internal/todo/application"
	todoDomain "github.com/davicafu/todolab/internal/todo/domain"
	"github.com/davicafu/todolab/pkg/utils"
)

var todoErrors = web.ErrorMapping{
	todoDomain.ErrTodoNotFound:         http.StatusNotFound,
	todoDomain.ErrTodoAlreadyCompleted: http.StatusConflict,
	todoDomain.ErrInvalidTodo:          http.StatusBadRequest,
	todoDomain.ErrUserNotFound:         http.StatusNotFound,
}

// TodoResponse es la representación pública de un TodoItem.
type TodoResponse struct {
	ID          uuid.UUID  `json:"id"`
	Description string     `json:"description"`
	DueDate     *time.Time `json:"dueDate,omitempty"`
	Labels      []string   `json:"labels"`
	IsCompleted bool       `json:"isCompleted"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
	Priority    string     `json:"priority"`
	CreatedAt   time.Time  `json:"createdAt"`
}

func toResponse(t *todoDomain.TodoItem) TodoResponse {
	labels := t.Labels
	if labels == nil {
		labels = []string{}
	}
	return TodoResponse{
		ID:          t.ID,
		Description: t.Description,
		DueDate:     t.DueDate,
		Labels:      labels,
		IsCompleted: t.IsCompleted,
		CompletedAt: t.CompletedAt,
		Priority:    t.Priority.String(),
		CreatedAt:   t.CreatedAt,
	}
}

// TodoHandler expone los casos de uso de Todo. Todas las rutas requieren sesión.
type TodoHandler struct {
	service *todoApp.TodoService
	log     *zap.Logger
}

func NewTodoHandler(service *todoApp.TodoService, log *zap.Logger) *TodoHandler {
	return &TodoHandler{service: service, log: log}
}

// CreateTodo endpoint POST /todos
func (h *TodoHandler) CreateTodo(c *gin.Context) {
	var req struct {
		Description string     `json:"description" binding:"required"`
		DueDate     *time.Time `json:"dueDate"`
		Labels      []string   `json:"labels"`
		Priority    int        `json:"priority"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendBadRequest(c, err.Error())
		return
	}

	todo, err := h.service.CreateTodo(c.Request.Context(), todoApp.CreateTodoCommand{
		UserID:      web.CurrentUserID(c),
		Description: req.Description,
		DueDate:     req.DueDate,
		Labels:      req.Labels,
		Priority:    todoDomain.Priority(req.Priority),
	})
	if err != nil {
		web.WriteError(c, err, todoErrors, h.log)
		return
	}
	utils.SendSuccess(c, http.StatusCreated, toResponse(todo))
}

// GetTodo endpoint GET /todos/:id
func (h *TodoHandler) GetTodo(c *gin.Context) {
	id, ok := web.ParamUUID(c, "id")
	if !ok {
		return
	}
	todo, err := h.service.GetTodo(c.Request.Context(), web.CurrentUserID(c), id)
	if err != nil {
		web.WriteError(c, err, todoErrors, h.log)
		return
	}
	utils.SendSuccess(c, http.StatusOK, toResponse(todo))
}

// ListTodos endpoint GET /todos?completed=&q=&limit=&offset=&sort=&desc=
func (h *TodoHandler) ListTodos(c *gin.Context) {
	q := todoApp.ListTodosQuery{
		UserID: web.CurrentUserID(c),
		Search: c.Query("q"),
		SortBy: c.Query("sort"),
		Desc:   c.Query("desc") == "true",
	}
	if v := c.Query("completed"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			utils.SendBadRequest(c, "completed must be a boolean")
			return
		}
		q.Completed = &b
	}
	q.Limit, _ = strconv.Atoi(c.DefaultQuery("limit", "50"))
	q.Offset, _ = strconv.Atoi(c.DefaultQuery("offset", "0"))

	todos, err := h.service.ListTodos(c.Request.Context(), q)
	if err != nil {
		web.WriteError(c, err, todoErrors, h.log)
		return
	}
	items := make([]TodoResponse, 0, len(todos))
	for _, t := range todos {
		items = append(items, toResponse(t))
	}
	utils.SendSuccess(c, http.StatusOK, utils.Page[TodoResponse]{Items: items, Limit: q.Limit, Offset: q.Offset})
}

// UpdateTodo endpoint PUT /todos/:id. Solo la descripción es editable.
func (h *TodoHandler) UpdateTodo(c *gin.Context) {
	id, ok := web.ParamUUID(c, "id")
	if !ok {
		return
	}
	var req struct {
		Description string `json:"description" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendBadRequest(c, err.Error())
		return
	}

	todo, err := h.service.UpdateDescription(c.Request.Context(), todoApp.UpdateDescriptionCommand{
		TodoRef:     todoApp.TodoRef{UserID: web.CurrentUserID(c), TodoID: id},
		Description: req.Description,
	})
	if err != nil {
		web.WriteError(c, err, todoErrors, h.log)
		return
	}
	utils.SendSuccess(c, http.StatusOK, toResponse(todo))
}

// CompleteTodo endpoint PUT /todos/:id/complete
func (h *TodoHandler) CompleteTodo(c *gin.Context) {
	h.withRef(c, func(ref todoApp.TodoRef) (*todoDomain.TodoItem, error) {
		return h.service.CompleteTodo(c.Request.Context(), ref)
	}, http.StatusOK)
}

// CopyTodo endpoint POST /todos/:id/copy
func (h *TodoHandler) CopyTodo(c *gin.Context) {
	h.withRef(c, func(ref todoApp.TodoRef) (*todoDomain.TodoItem, error) {
		return h.service.CopyTodo(c.Request.Context(), ref)
	}, http.StatusCreated)
}

// DeleteTodo endpoint DELETE /todos/:id
func (h *TodoHandler) DeleteTodo(c *gin.Context) {
	id, ok := web.ParamUUID(c, "id")
	if !ok {
		return
	}
	if err := h.service.DeleteTodo(c.Request.Context(), todoApp.TodoRef{UserID: web.CurrentUserID(c), TodoID: id}); err != nil {
		web.WriteError(c, err, todoErrors, h.log)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *TodoHandler) withRef(c *gin.Context, fn func(todoApp.TodoRef) (*todoDomain.TodoItem, error), status int) {
	id, ok := web.ParamUUID(c, "id")
	if !ok {
		return
	}
	todo, err := fn(todoApp.TodoRef{UserID: web.CurrentUserID(c), TodoID: id})
	if err != nil {
		web.WriteError(c, err, todoErrors, h.log)
		return
	}
	utils.SendSuccess(c, status, toResponse(todo))
}
