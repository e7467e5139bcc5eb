package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	sharedDomain "github.com/davicafu/todolab/internal/shared/domain"
	sharedBus "github.com/davicafu/todolab/internal/shared/infra/platform/bus"
)

// MockOutboxRepository simula la tabla outbox para el relay.
type MockOutboxRepository struct {
	mock.Mock
}

func (m *MockOutboxRepository) Add(ctx context.Context, msgs []sharedDomain.OutboxMessage) error {
	return m.Called(ctx, msgs).Error(0)
}

func (m *MockOutboxRepository) FetchDue(ctx context.Context, limit, maxAttempts int) ([]sharedDomain.OutboxMessage, error) {
	args := m.Called(ctx, limit, maxAttempts)
	msgs, _ := args.Get(0).([]sharedDomain.OutboxMessage)
	return msgs, args.Error(1)
}

func (m *MockOutboxRepository) SaveResults(ctx context.Context, msgs []sharedDomain.OutboxMessage) error {
	return m.Called(ctx, msgs).Error(0)
}

// MockEventBus simula el bus de eventos.
type MockEventBus struct {
	mock.Mock
}

func (m *MockEventBus) Publish(ctx context.Context, msgType, content string) error {
	return m.Called(ctx, msgType, content).Error(0)
}

var (
	_ sharedDomain.OutboxRepository = (*MockOutboxRepository)(nil)
	_ sharedBus.EventBus            = (*MockEventBus)(nil)
)
