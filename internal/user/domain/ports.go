package domain

import (
	"context"
	"errors"

	"github.com/google/uuid"

	sharedCache "github.com/davicafu/todolab/internal/shared/infra/platform/cache"
)

// ---------- Errores de dominio ----------
var (
	ErrUserNotFound          = errors.New("user not found")
	ErrEmailAlreadyInUse     = errors.New("email already in use")
	ErrInvalidUser           = errors.New("invalid user")
	ErrInvalidCredentials    = errors.New("invalid credentials")
	ErrInvalidSession        = errors.New("invalid or expired session")
	ErrInvalidActivation     = errors.New("invalid or expired activation token")
	ErrEmailAlreadyConfirmed = errors.New("email already confirmed")
)

// ---------- Puertos ----------

// UserRepository toma la transacción del ctx cuando la hay.
type UserRepository interface {
	Insert(ctx context.Context, u *User) error
	Update(ctx context.Context, u *User) error
	GetByID(ctx context.Context, id uuid.UUID) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	EmailExists(ctx context.Context, email string) (bool, error)
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
}

type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(password, hash string) bool
}

type EmailMessage struct {
	To      string
	Subject string
	Body    string
}

// EmailSender entrega correos. Su fallo nunca afecta al registro.
type EmailSender interface {
	Send(ctx context.Context, msg EmailMessage) error
}

// ---------- Claves de caché ----------

func UserCacheKey(id uuid.UUID) string { return sharedCache.Key("user", id.String()) }

func SessionCacheKey(token string) string { return sharedCache.Key("session", token) }

func ActivationCacheKey(userID uuid.UUID) string { return sharedCache.Key("activation", userID.String()) }
