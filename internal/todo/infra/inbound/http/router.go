package http

import (
	"github.com/gin-gonic/gin"

	"github.com/davicafu/todolab/internal/shared/infra/platform/web"
)

// RegisterTodoRoutes registra /todos detrás del middleware de sesión.
func RegisterTodoRoutes(r gin.IRouter, handler *TodoHandler, auth web.Authenticator) {
	todos := r.Group("/todos", web.RequireAuth(auth))
	{
		todos.POST("", handler.CreateTodo)
		todos.GET("", handler.ListTodos)
		todos.GET("/:id", handler.GetTodo)
		todos.PUT("/:id", handler.UpdateTodo)
		todos.DELETE("/:id", handler.DeleteTodo)
		todos.PUT("/:id/complete", handler.CompleteTodo)
		todos.POST("/:id/copy", handler.CopyTodo)
	}
}
