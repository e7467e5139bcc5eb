package application

import (
	"time"

	"github.com/google/uuid"
)

type RegisterCommand struct {
	Email     string `validate:"required,email,max=254"`
	FirstName string `validate:"required,max=100"`
	LastName  string `validate:"max=100"`
	Password  string `validate:"required,min=8,max=72"`
}

type LoginCommand struct {
	Email    string `validate:"required,email"`
	Password string `validate:"required"`
}

type LoginResult struct {
	Token     string    `json:"token"`
	UserID    uuid.UUID `json:"userId"`
	ExpiresAt time.Time `json:"expiresAt"`
}

type ConfirmEmailCommand struct {
	UserID uuid.UUID `validate:"required"`
	Token  string    `validate:"required"`
}

// UserView es lo que se cachea y se devuelve: nunca incluye el hash.
type UserView struct {
	ID             uuid.UUID `json:"id"`
	Email          string    `json:"email"`
	FirstName      string    `json:"firstName"`
	LastName       string    `json:"lastName"`
	EmailConfirmed bool      `json:"emailConfirmed"`
	CreatedAt      time.Time `json:"createdAt"`
}
