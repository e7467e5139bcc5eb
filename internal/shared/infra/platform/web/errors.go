package web

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	sharedApp "github.com/davicafu/todolab/internal/shared/application"
	"github.com/davicafu/todolab/pkg/utils"
)

// ErrorMapping asocia errores de dominio a códigos HTTP.
type ErrorMapping map[error]int

// WriteError responde según el mapping; lo no mapeado es un 500 y se registra.
func WriteError(c *gin.Context, err error, mapping ErrorMapping, log *zap.Logger) {
	var vErr *sharedApp.ValidationError
	if errors.As(err, &vErr) {
		utils.SendBadRequest(c, vErr.Error())
		return
	}
	for target, status := range mapping {
		if errors.Is(err, target) {
			utils.SendError(c, status, codeFor(status), target.Error())
			return
		}
	}
	log.Error("Unhandled request error", zap.String("path", c.FullPath()), zap.Error(err))
	utils.SendInternalServerError(c)
}

func codeFor(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "bad_request"
	case http.StatusUnauthorized:
		return "unauthorized"
	case http.StatusNotFound:
		return "not_found"
	case http.StatusConflict:
		return "conflict"
	}
	return "error"
}
