package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/davicafu/todolab/internal/shared/infra/platform/web"
	userApp "github.com/davicafu/todolab/internal/user/application"
	userDomain "github.com/davicafu/todolab/internal/user/domain"
	"github.com/davicafu/todolab/pkg/utils"
)

var userErrors = web.ErrorMapping{
	userDomain.ErrUserNotFound:          http.StatusNotFound,
	userDomain.ErrEmailAlreadyInUse:     http.StatusConflict,
	userDomain.ErrInvalidUser:           http.StatusBadRequest,
	userDomain.ErrInvalidCredentials:    http.StatusUnauthorized,
	userDomain.ErrInvalidActivation:     http.StatusBadRequest,
	userDomain.ErrEmailAlreadyConfirmed: http.StatusConflict,
}

type UserHandler struct {
	service *userApp.UserService
	log     *zap.Logger
}

func NewUserHandler(service *userApp.UserService, log *zap.Logger) *UserHandler {
	return &UserHandler{service: service, log: log}
}

// Register endpoint POST /users/register
func (h *UserHandler) Register(c *gin.Context) {
	var req struct {
		Email     string `json:"email" binding:"required"`
		FirstName string `json:"firstName" binding:"required"`
		LastName  string `json:"lastName"`
		Password  string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendBadRequest(c, err.Error())
		return
	}

	view, err := h.service.Register(c.Request.Context(), userApp.RegisterCommand{
		Email:     req.Email,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Password:  req.Password,
	})
	if err != nil {
		web.WriteError(c, err, userErrors, h.log)
		return
	}
	utils.SendSuccess(c, http.StatusCreated, view)
}

// Login endpoint POST /users/login
func (h *UserHandler) Login(c *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendBadRequest(c, err.Error())
		return
	}

	res, err := h.service.Login(c.Request.Context(), userApp.LoginCommand{Email: req.Email, Password: req.Password})
	if err != nil {
		web.WriteError(c, err, userErrors, h.log)
		return
	}
	utils.SendSuccess(c, http.StatusOK, res)
}

// ConfirmEmail endpoint GET /users/confirm-email?userId=&token=
// Es el enlace que llega en el correo de activación.
func (h *UserHandler) ConfirmEmail(c *gin.Context) {
	userID, err := uuid.Parse(c.Query("userId"))
	if err != nil {
		utils.SendBadRequest(c, "invalid userId")
		return
	}
	view, err := h.service.ConfirmEmail(c.Request.Context(), userApp.ConfirmEmailCommand{UserID: userID, Token: c.Query("token")})
	if err != nil {
		web.WriteError(c, err, userErrors, h.log)
		return
	}
	utils.SendSuccess(c, http.StatusOK, view)
}

// GetUser endpoint GET /users/:id. Cada usuario solo puede leerse a sí mismo.
func (h *UserHandler) GetUser(c *gin.Context) {
	id, ok := web.ParamUUID(c, "id")
	if !ok {
		return
	}
	if id != web.CurrentUserID(c) {
		utils.SendNotFound(c, userDomain.ErrUserNotFound.Error())
		return
	}
	view, err := h.service.GetUser(c.Request.Context(), id)
	if err != nil {
		web.WriteError(c, err, userErrors, h.log)
		return
	}
	utils.SendSuccess(c, http.StatusOK, view)
}
