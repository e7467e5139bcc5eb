package application

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	sharedCache "github.com/davicafu/todolab/internal/shared/infra/platform/cache"
	userDomain "github.com/davicafu/todolab/internal/user/domain"
)

const DefaultActivationTTL = 24 * time.Hour

// ActivationEmailHandler envía el enlace de activación tras un registro.
// Corre fuera de la transacción: si falla, el usuario ya existe y solo se registra el error.
type ActivationEmailHandler struct {
	cache   sharedCache.Cache
	sender  userDomain.EmailSender
	baseURL string
	ttl     time.Duration
	log     *zap.Logger
}

func NewActivationEmailHandler(cache sharedCache.Cache, sender userDomain.EmailSender, baseURL string, ttl time.Duration, log *zap.Logger) *ActivationEmailHandler {
	if ttl <= 0 {
		ttl = DefaultActivationTTL
	}
	return &ActivationEmailHandler{cache: cache, sender: sender, baseURL: strings.TrimRight(baseURL, "/"), ttl: ttl, log: log}
}

func (h *ActivationEmailHandler) Handle(ctx context.Context, evt userDomain.UserRegisteredDomainEvent) error {
	token := uuid.NewString()
	if err := h.cache.Set(ctx, userDomain.ActivationCacheKey(evt.UserID), token, h.ttl); err != nil {
		return fmt.Errorf("store activation token: %w", err)
	}

	link := h.ActivationLink(evt.UserID, token)
	msg := userDomain.EmailMessage{
		To:      evt.Email,
		Subject: "Activate your todolab account",
		Body:    fmt.Sprintf("Hi %s,\n\nConfirm your email address by opening this link:\n%s\n", evt.FirstName, link),
	}
	if err := h.sender.Send(ctx, msg); err != nil {
		return fmt.Errorf("send activation email: %w", err)
	}

	h.log.Info("✉️ Activation email sent", zap.String("user_id", evt.UserID.String()))
	return nil
}

func (h *ActivationEmailHandler) ActivationLink(userID uuid.UUID, token string) string {
	q := url.Values{}
	q.Set("userId", userID.String())
	q.Set("token", token)
	return h.baseURL + "/users/confirm-email?" + q.Encode()
}
