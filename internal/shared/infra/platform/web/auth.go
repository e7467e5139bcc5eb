package web

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/davicafu/todolab/pkg/utils"
)

const userIDKey = "auth.user_id"

// Authenticator resuelve un token de sesión a un id de usuario.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (uuid.UUID, error)
}

// RequireAuth exige "Authorization: Bearer <token>".
func RequireAuth(a Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(token) == "" {
			utils.SendUnauthorized(c, "missing bearer token")
			return
		}
		userID, err := a.Authenticate(c.Request.Context(), strings.TrimSpace(token))
		if err != nil {
			utils.SendUnauthorized(c, "invalid or expired session")
			return
		}
		c.Set(userIDKey, userID)
		c.Next()
	}
}

// CurrentUserID solo es válido detrás de RequireAuth.
func CurrentUserID(c *gin.Context) uuid.UUID {
	v, _ := c.Get(userIDKey)
	id, _ := v.(uuid.UUID)
	return id
}

// ParamUUID lee un parámetro de ruta y responde 400 si no es un uuid.
func ParamUUID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		utils.SendBadRequest(c, "invalid "+name)
		return uuid.Nil, false
	}
	return id, true
}
