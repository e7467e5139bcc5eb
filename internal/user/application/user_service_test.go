package application

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	sharedApp "github.com/davicafu/todolab/internal/shared/application"
	sharedDomain "github.com/davicafu/todolab/internal/shared/domain"
	sharedEvents "github.com/davicafu/todolab/internal/shared/events"
	"github.com/davicafu/todolab/internal/shared/infra/dispatcher"
	userDomain "github.com/davicafu/todolab/internal/user/domain"
	"github.com/davicafu/todolab/tests/mocks"
)

var now = time.Date(2024, 4, 2, 10, 0, 0, 0, time.UTC)

type fixture struct {
	svc    *UserService
	repo   *mocks.InMemoryUserRepo
	uow    *mocks.FakeUnitOfWork
	cache  *mocks.DummyCache
	sender *mocks.MockEmailSender
}

func newFixture() *fixture {
	clock := sharedDomain.FixedClock{T: now}
	repo := mocks.NewInMemoryUserRepo()
	cache := mocks.NewDummyCache()
	sender := new(mocks.MockEmailSender)
	log := zap.NewNop()

	d := dispatcher.New(log)
	activation := NewActivationEmailHandler(cache, sender, "http://localhost:8080/", time.Hour, log)
	dispatcher.Handle(d, activation.Handle)

	uow := mocks.NewFakeUnitOfWork(sharedEvents.NewMapperRegistry(NewIntegrationMapper(clock)), clock)
	uow.Dispatcher = d

	svc := NewUserService(uow, repo, mocks.PlainHasher{}, cache, clock, time.Hour, validator.New(), log)
	return &fixture{svc: svc, repo: repo, uow: uow, cache: cache, sender: sender}
}

func (f *fixture) register(t *testing.T, email string) UserView {
	t.Helper()
	view, err := f.svc.Register(context.Background(), RegisterCommand{Email: email, FirstName: "Ada", LastName: "Lovelace", Password: "s3cret-pass"})
	require.NoError(t, err)
	require.Eventually(t, func() bool { return f.cache.Has(userDomain.UserCacheKey(view.ID)) }, time.Second, 5*time.Millisecond)
	return view
}

func TestRegister_WritesOutboxAndSendsActivation(t *testing.T) {
	f := newFixture()
	var sent userDomain.EmailMessage
	f.sender.On("Send", mock.Anything, mock.Anything).Return(nil).Run(func(args mock.Arguments) {
		sent = args.Get(1).(userDomain.EmailMessage)
	}).Once()

	view := f.register(t, "Ada@Example.com")

	assert.Equal(t, "ada@example.com", view.Email)
	assert.Equal(t, []string{sharedEvents.UserRegisteredType}, f.uow.Types())
	assert.Contains(t, f.uow.Outbox[0].Content, `"email":"ada@example.com"`)
	assert.Contains(t, f.uow.Outbox[0].Content, `"lastName":"Lovelace"`)

	assert.Equal(t, "ada@example.com", sent.To)
	assert.Contains(t, sent.Body, "/users/confirm-email?")
	assert.Contains(t, sent.Body, "token=")
	f.sender.AssertExpectations(t)
}

func TestRegister_DuplicateEmail_NoEventNoOutbox(t *testing.T) {
	f := newFixture()
	f.sender.On("Send", mock.Anything, mock.Anything).Return(nil).Once()
	f.register(t, "ada@example.com")

	_, err := f.svc.Register(context.Background(), RegisterCommand{Email: "ADA@example.com", FirstName: "Other", Password: "another-pass"})

	assert.ErrorIs(t, err, userDomain.ErrEmailAlreadyInUse)
	assert.Len(t, f.uow.Outbox, 1)
	assert.Len(t, f.uow.Events, 1)
	assert.Len(t, f.repo.Users, 1)
	f.sender.AssertNumberOfCalls(t, "Send", 1)
}

func TestRegister_EmailFailureDoesNotFailRegistration(t *testing.T) {
	f := newFixture()
	f.sender.On("Send", mock.Anything, mock.Anything).Return(errors.New("smtp down")).Once()

	view := f.register(t, "grace@example.com")

	assert.Contains(t, f.repo.Users, view.ID)
	assert.Len(t, f.uow.Outbox, 1)
}

func TestRegister_Validation(t *testing.T) {
	f := newFixture()
	_, err := f.svc.Register(context.Background(), RegisterCommand{Email: "x", FirstName: "A", Password: "short"})

	var vErr *sharedApp.ValidationError
	assert.ErrorAs(t, err, &vErr)
	assert.Empty(t, f.uow.Outbox)
}

func TestLoginAndAuthenticate(t *testing.T) {
	f := newFixture()
	f.sender.On("Send", mock.Anything, mock.Anything).Return(nil)
	view := f.register(t, "ada@example.com")

	_, err := f.svc.Login(context.Background(), LoginCommand{Email: "ada@example.com", Password: "wrong-pass"})
	assert.ErrorIs(t, err, userDomain.ErrInvalidCredentials)
	_, err = f.svc.Login(context.Background(), LoginCommand{Email: "nobody@example.com", Password: "whatever"})
	assert.ErrorIs(t, err, userDomain.ErrInvalidCredentials)

	res, err := f.svc.Login(context.Background(), LoginCommand{Email: "ADA@example.com", Password: "s3cret-pass"})
	require.NoError(t, err)
	assert.Equal(t, view.ID, res.UserID)
	assert.Equal(t, now.Add(time.Hour), res.ExpiresAt)

	id, err := f.svc.Authenticate(context.Background(), res.Token)
	require.NoError(t, err)
	assert.Equal(t, view.ID, id)

	require.NoError(t, f.svc.Logout(context.Background(), res.Token))
	_, err = f.svc.Authenticate(context.Background(), res.Token)
	assert.ErrorIs(t, err, userDomain.ErrInvalidSession)
}

func TestConfirmEmail(t *testing.T) {
	f := newFixture()
	var body string
	f.sender.On("Send", mock.Anything, mock.Anything).Return(nil).Run(func(args mock.Arguments) {
		body = args.Get(1).(userDomain.EmailMessage).Body
	})
	view := f.register(t, "ada@example.com")

	link := strings.TrimSpace(body[strings.Index(body, "http"):])
	u, err := url.Parse(link)
	require.NoError(t, err)
	token := u.Query().Get("token")
	assert.Equal(t, view.ID.String(), u.Query().Get("userId"))

	_, err = f.svc.ConfirmEmail(context.Background(), ConfirmEmailCommand{UserID: view.ID, Token: "bogus"})
	assert.ErrorIs(t, err, userDomain.ErrInvalidActivation)

	confirmed, err := f.svc.ConfirmEmail(context.Background(), ConfirmEmailCommand{UserID: view.ID, Token: token})
	require.NoError(t, err)
	assert.True(t, confirmed.EmailConfirmed)
	assert.True(t, f.repo.Users[view.ID].EmailConfirmed)

	// el token es de un solo uso y confirmar no genera eventos
	_, err = f.svc.ConfirmEmail(context.Background(), ConfirmEmailCommand{UserID: view.ID, Token: token})
	assert.ErrorIs(t, err, userDomain.ErrInvalidActivation)
	assert.Len(t, f.uow.Outbox, 1)

	got, err := f.svc.GetUser(context.Background(), view.ID)
	require.NoError(t, err)
	assert.True(t, got.EmailConfirmed)
}

func TestGetUser_NotFound(t *testing.T) {
	f := newFixture()
	_, err := f.svc.GetUser(context.Background(), uuid.New())
	assert.ErrorIs(t, err, userDomain.ErrUserNotFound)
}
