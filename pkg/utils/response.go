package utils

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// ErrorResponse es el cuerpo estándar de los errores HTTP.
type ErrorResponse struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// Page envuelve listados paginados.
type Page[T any] struct {
	Items  []T `json:"items"`
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}

func SendSuccess(c *gin.Context, statusCode int, data any) {
	c.JSON(statusCode, gin.H{"data": data})
}

func SendError(c *gin.Context, statusCode int, code, message string) {
	c.AbortWithStatusJSON(statusCode, gin.H{
		"error": ErrorResponse{Message: message, Code: code},
	})
}

func SendBadRequest(c *gin.Context, message string) {
	SendError(c, http.StatusBadRequest, "bad_request", message)
}

func SendUnauthorized(c *gin.Context, message string) {
	SendError(c, http.StatusUnauthorized, "unauthorized", message)
}

func SendNotFound(c *gin.Context, message string) {
	SendError(c, http.StatusNotFound, "not_found", message)
}

func SendConflict(c *gin.Context, message string) {
	SendError(c, http.StatusConflict, "conflict", message)
}

// SendInternalServerError no expone el detalle del error al cliente.
func SendInternalServerError(c *gin.Context) {
	SendError(c, http.StatusInternalServerError, "internal", "internal server error")
}
