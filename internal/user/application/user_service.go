package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	sharedApp "github.com/davicafu/todolab/internal/shared/application"
	sharedDomain "github.com/davicafu/todolab/internal/shared/domain"
	sharedCache "github.com/davicafu/todolab/internal/shared/infra/platform/cache"
	userDomain "github.com/davicafu/todolab/internal/user/domain"
)

const userCacheTTL = 5 * time.Minute

// UserService: registro, sesiones y confirmación de email.
type UserService struct {
	uow        sharedApp.UnitOfWork
	repo       userDomain.UserRepository
	hasher     userDomain.PasswordHasher
	cache      sharedCache.Cache
	clock      sharedDomain.Clock
	sessionTTL time.Duration
	log        *zap.Logger

	register sharedApp.Handler[RegisterCommand, UserView]
	login    sharedApp.Handler[LoginCommand, LoginResult]
	confirm  sharedApp.Handler[ConfirmEmailCommand, UserView]
}

// NewUserService necesita una caché: en ella viven sesiones y tokens de activación.
func NewUserService(
	uow sharedApp.UnitOfWork,
	repo userDomain.UserRepository,
	hasher userDomain.PasswordHasher,
	cache sharedCache.Cache,
	clock sharedDomain.Clock,
	sessionTTL time.Duration,
	v *validator.Validate,
	log *zap.Logger,
) *UserService {
	s := &UserService{uow: uow, repo: repo, hasher: hasher, cache: cache, clock: clock, sessionTTL: sessionTTL, log: log}
	s.register = sharedApp.Standard("RegisterUser", s.handleRegister, log, v)
	s.login = sharedApp.Standard("LoginUser", s.handleLogin, log, v)
	s.confirm = sharedApp.Standard("ConfirmEmail", s.handleConfirm, log, v)
	return s
}

func (s *UserService) Register(ctx context.Context, cmd RegisterCommand) (UserView, error) {
	return s.register(ctx, cmd)
}

func (s *UserService) Login(ctx context.Context, cmd LoginCommand) (LoginResult, error) {
	return s.login(ctx, cmd)
}

func (s *UserService) ConfirmEmail(ctx context.Context, cmd ConfirmEmailCommand) (UserView, error) {
	return s.confirm(ctx, cmd)
}

// handleRegister: un email repetido no crea usuario, ni evento, ni fila de outbox.
func (s *UserService) handleRegister(ctx context.Context, cmd RegisterCommand) (UserView, error) {
	hash, err := s.hasher.Hash(cmd.Password)
	if err != nil {
		return UserView{}, fmt.Errorf("hash password: %w", err)
	}

	var user *userDomain.User
	err = s.uow.Execute(ctx, func(ctx context.Context, session sharedApp.Session) error {
		taken, err := s.repo.EmailExists(ctx, userDomain.NormalizeEmail(cmd.Email))
		if err != nil {
			return err
		}
		if taken {
			return userDomain.ErrEmailAlreadyInUse
		}
		if user, err = userDomain.NewUser(cmd.Email, cmd.FirstName, cmd.LastName, hash, s.clock.Now()); err != nil {
			return err
		}
		if err := s.repo.Insert(ctx, user); err != nil {
			return err
		}
		session.Track(user)
		return nil
	})
	if err != nil {
		if errors.Is(err, userDomain.ErrEmailAlreadyInUse) {
			s.log.Info("Registration rejected, email in use", zap.String("email", userDomain.NormalizeEmail(cmd.Email)))
		}
		return UserView{}, err
	}

	s.log.Info("👤 User registered", zap.String("user_id", user.ID.String()))
	view := toView(user)
	sharedCache.SetAsync(s.cache, userDomain.UserCacheKey(user.ID), view, userCacheTTL, s.log)
	return view, nil
}

func (s *UserService) handleLogin(ctx context.Context, cmd LoginCommand) (LoginResult, error) {
	user, err := s.repo.GetByEmail(ctx, userDomain.NormalizeEmail(cmd.Email))
	if errors.Is(err, userDomain.ErrUserNotFound) {
		return LoginResult{}, userDomain.ErrInvalidCredentials
	}
	if err != nil {
		return LoginResult{}, err
	}
	if !s.hasher.Verify(cmd.Password, user.PasswordHash) {
		return LoginResult{}, userDomain.ErrInvalidCredentials
	}

	token := uuid.NewString()
	if err := s.cache.Set(ctx, userDomain.SessionCacheKey(token), user.ID, s.sessionTTL); err != nil {
		return LoginResult{}, fmt.Errorf("store session: %w", err)
	}
	return LoginResult{Token: token, UserID: user.ID, ExpiresAt: s.clock.Now().Add(s.sessionTTL)}, nil
}

// Authenticate resuelve un token de sesión. Implementa web.Authenticator.
func (s *UserService) Authenticate(ctx context.Context, token string) (uuid.UUID, error) {
	var id uuid.UUID
	hit, err := s.cache.Get(ctx, userDomain.SessionCacheKey(token), &id)
	if err != nil {
		return uuid.Nil, err
	}
	if !hit {
		return uuid.Nil, userDomain.ErrInvalidSession
	}
	return id, nil
}

func (s *UserService) Logout(ctx context.Context, token string) error {
	return s.cache.Delete(ctx, userDomain.SessionCacheKey(token))
}

// GetUser aplica cache-aside.
func (s *UserService) GetUser(ctx context.Context, id uuid.UUID) (UserView, error) {
	var cached UserView
	if hit, _ := s.cache.Get(ctx, userDomain.UserCacheKey(id), &cached); hit {
		return cached, nil
	}
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return UserView{}, err
	}
	view := toView(user)
	sharedCache.SetAsync(s.cache, userDomain.UserCacheKey(id), view, userCacheTTL, s.log)
	return view, nil
}

func (s *UserService) handleConfirm(ctx context.Context, cmd ConfirmEmailCommand) (UserView, error) {
	var expected string
	hit, err := s.cache.Get(ctx, userDomain.ActivationCacheKey(cmd.UserID), &expected)
	if err != nil {
		return UserView{}, err
	}
	if !hit || expected != cmd.Token {
		return UserView{}, userDomain.ErrInvalidActivation
	}

	var user *userDomain.User
	err = s.uow.Execute(ctx, func(ctx context.Context, session sharedApp.Session) error {
		var err error
		if user, err = s.repo.GetByID(ctx, cmd.UserID); err != nil {
			return err
		}
		if err := user.ConfirmEmail(); err != nil {
			return err
		}
		return s.repo.Update(ctx, user)
	})
	if err != nil {
		return UserView{}, err
	}

	sharedCache.Invalidate(ctx, s.cache, userDomain.ActivationCacheKey(cmd.UserID), s.log)
	sharedCache.Invalidate(ctx, s.cache, userDomain.UserCacheKey(cmd.UserID), s.log)
	s.log.Info("📧 Email confirmed", zap.String("user_id", user.ID.String()))
	return toView(user), nil
}

// Exists permite que el contexto Todo valide dueños sin conocer UserRepository.
func (s *UserService) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	return s.repo.Exists(ctx, id)
}

func toView(u *userDomain.User) UserView {
	return UserView{
		ID:             u.ID,
		Email:          u.Email,
		FirstName:      u.FirstName,
		LastName:       u.LastName,
		EmailConfirmed: u.EmailConfirmed,
		CreatedAt:      u.CreatedAt,
	}
}
