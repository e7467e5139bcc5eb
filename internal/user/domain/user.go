package domain

import (
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"

	sharedDomain "github.com/davicafu/todolab/internal/shared/domain"
)

// User representa un usuario registrado.
type User struct {
	sharedDomain.AggregateRoot

	ID             uuid.UUID
	Email          string
	FirstName      string
	LastName       string
	PasswordHash   string
	EmailConfirmed bool
	CreatedAt      time.Time
}

// NormalizeEmail es la forma canónica con la que se guarda y busca un email.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// NewUser crea el usuario y emite UserRegisteredDomainEvent.
// La unicidad del email la comprueba el caso de uso antes de llamar aquí.
func NewUser(email, firstName, lastName, passwordHash string, now time.Time) (*User, error) {
	email = NormalizeEmail(email)
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, ErrInvalidUser
	}
	firstName, lastName = strings.TrimSpace(firstName), strings.TrimSpace(lastName)
	if firstName == "" || passwordHash == "" {
		return nil, ErrInvalidUser
	}

	u := &User{
		ID:           uuid.New(),
		Email:        email,
		FirstName:    firstName,
		LastName:     lastName,
		PasswordHash: passwordHash,
		CreatedAt:    now.UTC(),
	}
	u.Raise(UserRegisteredDomainEvent{UserID: u.ID, Email: email, FirstName: firstName, LastName: lastName})
	return u, nil
}

func (u *User) ConfirmEmail() error {
	if u.EmailConfirmed {
		return ErrEmailAlreadyConfirmed
	}
	u.EmailConfirmed = true
	return nil
}

func (u *User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}
