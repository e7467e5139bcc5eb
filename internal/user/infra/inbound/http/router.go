package http

import (
	"github.com/gin-gonic/gin"

	"github.com/davicafu/todolab/internal/shared/infra/platform/web"
)

// RegisterUserRoutes registra las rutas de usuario. Solo /users/:id requiere sesión.
func RegisterUserRoutes(r gin.IRouter, handler *UserHandler, auth web.Authenticator) {
	users := r.Group("/users")
	{
		users.POST("/register", handler.Register)
		users.POST("/login", handler.Login)
		users.GET("/confirm-email", handler.ConfirmEmail)
		users.GET("/:id", web.RequireAuth(auth), handler.GetUser)
	}
}
