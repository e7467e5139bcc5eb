package mocks

import (
	"context"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	sharedDomain "github.com/davicafu/todolab/internal/shared/domain"
	userDomain "github.com/davicafu/todolab/internal/user/domain"
)

// InMemoryUserRepo simula UserRepository guardando copias.
type InMemoryUserRepo struct {
	mu    sync.Mutex
	Users map[uuid.UUID]userDomain.User
}

func NewInMemoryUserRepo() *InMemoryUserRepo {
	return &InMemoryUserRepo{Users: make(map[uuid.UUID]userDomain.User)}
}

func (r *InMemoryUserRepo) Insert(ctx context.Context, u *userDomain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.Users {
		if existing.Email == u.Email {
			return userDomain.ErrEmailAlreadyInUse
		}
	}
	c := *u
	c.AggregateRoot = sharedDomain.AggregateRoot{}
	r.Users[u.ID] = c
	return nil
}

func (r *InMemoryUserRepo) Update(ctx context.Context, u *userDomain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.Users[u.ID]; !ok {
		return userDomain.ErrUserNotFound
	}
	c := *u
	c.AggregateRoot = sharedDomain.AggregateRoot{}
	r.Users[u.ID] = c
	return nil
}

func (r *InMemoryUserRepo) GetByID(ctx context.Context, id uuid.UUID) (*userDomain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.Users[id]
	if !ok {
		return nil, userDomain.ErrUserNotFound
	}
	return &u, nil
}

func (r *InMemoryUserRepo) GetByEmail(ctx context.Context, email string) (*userDomain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.Users {
		if strings.EqualFold(u.Email, email) {
			u := u
			return &u, nil
		}
	}
	return nil, userDomain.ErrUserNotFound
}

func (r *InMemoryUserRepo) EmailExists(ctx context.Context, email string) (bool, error) {
	_, err := r.GetByEmail(ctx, email)
	return err == nil, nil
}

func (r *InMemoryUserRepo) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	_, err := r.GetByID(ctx, id)
	return err == nil, nil
}

// PlainHasher "hashea" con un prefijo. Solo para tests.
type PlainHasher struct{}

func (PlainHasher) Hash(password string) (string, error) { return "plain:" + password, nil }

func (PlainHasher) Verify(password, hash string) bool { return hash == "plain:"+password }

// MockEmailSender registra los correos enviados.
type MockEmailSender struct {
	mock.Mock
}

func (m *MockEmailSender) Send(ctx context.Context, msg userDomain.EmailMessage) error {
	return m.Called(ctx, msg).Error(0)
}

var (
	_ userDomain.UserRepository = (*InMemoryUserRepo)(nil)
	_ userDomain.PasswordHasher = PlainHasher{}
	_ userDomain.EmailSender    = (*MockEmailSender)(nil)
)
