package relayer

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	sharedDomain "github.com/davicafu/todolab/internal/shared/domain"
	sharedBus "github.com/davicafu/todolab/internal/shared/infra/platform/bus"
	"github.com/davicafu/todolab/tests/mocks"
)

var fixedNow = time.Date(2024, 2, 1, 10, 0, 0, 0, time.UTC)

func pending(typ string, attempt int) sharedDomain.OutboxMessage {
	return sharedDomain.OutboxMessage{
		ID:         uuid.New(),
		OccurredAt: fixedNow.Add(-time.Minute),
		Type:       typ,
		Content:    fmt.Sprintf(`{"type":%q}`, typ),
		Attempt:    attempt,
	}
}

func newWorker(repo *mocks.MockOutboxRepository, bus *mocks.MockEventBus, opts ...Option) *Worker {
	opts = append(opts, WithClock(sharedDomain.FixedClock{T: fixedNow}))
	return NewOutboxWorker(repo, bus, Config{BatchSize: 50, MaxAttempts: 10}, zap.NewNop(), opts...)
}

func TestProcessBatch_AllPublished(t *testing.T) {
	// ARRANGE
	repo := new(mocks.MockOutboxRepository)
	bus := new(mocks.MockEventBus)
	m := pending("TodoItemCreatedIntegrationEvent", 0)

	repo.On("FetchDue", mock.Anything, 50, 10).Return([]sharedDomain.OutboxMessage{m}, nil).Once()
	bus.On("Publish", mock.Anything, m.Type, m.Content).Return(nil).Once()
	repo.On("SaveResults", mock.Anything, mock.MatchedBy(func(msgs []sharedDomain.OutboxMessage) bool {
		return len(msgs) == 1 &&
			msgs[0].ID == m.ID &&
			msgs[0].ProcessedAt != nil && msgs[0].ProcessedAt.Equal(fixedNow) &&
			msgs[0].Error == nil &&
			msgs[0].Attempt == 0
	})).Return(nil).Once()

	// ACT
	res, err := newWorker(repo, bus).ProcessBatch(context.Background())

	// ASSERT
	require.NoError(t, err)
	assert.Equal(t, BatchResult{Fetched: 1, Published: 1}, res)
	repo.AssertExpectations(t)
	bus.AssertExpectations(t)
}

func TestProcessBatch_MiddleMessageFails(t *testing.T) {
	repo := new(mocks.MockOutboxRepository)
	bus := new(mocks.MockEventBus)
	m1, m2, m3 := pending("A", 0), pending("B", 0), pending("C", 0)

	var order []string
	repo.On("FetchDue", mock.Anything, 50, 10).Return([]sharedDomain.OutboxMessage{m1, m2, m3}, nil).Once()
	bus.On("Publish", mock.Anything, "A", mock.Anything).Return(nil).Run(func(args mock.Arguments) { order = append(order, "A") }).Once()
	bus.On("Publish", mock.Anything, "B", mock.Anything).Return(errors.New("broker timeout")).Run(func(args mock.Arguments) { order = append(order, "B") }).Once()
	bus.On("Publish", mock.Anything, "C", mock.Anything).Return(nil).Run(func(args mock.Arguments) { order = append(order, "C") }).Once()

	var saved []sharedDomain.OutboxMessage
	repo.On("SaveResults", mock.Anything, mock.Anything).Return(nil).Run(func(args mock.Arguments) {
		saved = args.Get(1).([]sharedDomain.OutboxMessage)
	}).Once()

	res, err := newWorker(repo, bus).ProcessBatch(context.Background())

	require.NoError(t, err)
	assert.Equal(t, BatchResult{Fetched: 3, Published: 2, Failed: 1}, res)
	assert.Equal(t, []string{"A", "B", "C"}, order)

	require.Len(t, saved, 3)
	assert.NotNil(t, saved[0].ProcessedAt)
	assert.Nil(t, saved[1].ProcessedAt)
	assert.Equal(t, 1, saved[1].Attempt)
	assert.Equal(t, "broker timeout", *saved[1].Error)
	assert.NotNil(t, saved[2].ProcessedAt)
	// una sola persistencia por lote
	repo.AssertNumberOfCalls(t, "SaveResults", 1)
}

func TestProcessBatch_PreviouslyFailedMessageClearsError(t *testing.T) {
	repo := new(mocks.MockOutboxRepository)
	bus := new(mocks.MockEventBus)
	m := pending("A", 3)
	prev := "old failure"
	m.Error = &prev

	repo.On("FetchDue", mock.Anything, 50, 10).Return([]sharedDomain.OutboxMessage{m}, nil).Once()
	bus.On("Publish", mock.Anything, "A", mock.Anything).Return(nil).Once()
	repo.On("SaveResults", mock.Anything, mock.MatchedBy(func(msgs []sharedDomain.OutboxMessage) bool {
		return msgs[0].ProcessedAt != nil && msgs[0].Error == nil && msgs[0].Attempt == 3
	})).Return(nil).Once()

	_, err := newWorker(repo, bus).ProcessBatch(context.Background())

	require.NoError(t, err)
	repo.AssertExpectations(t)
}

func TestProcessBatch_UnknownTypeConsumesAttempt(t *testing.T) {
	repo := new(mocks.MockOutboxRepository)
	bus := new(mocks.MockEventBus)
	m := pending("LegacyDomainEvent", 9)

	repo.On("FetchDue", mock.Anything, 50, 10).Return([]sharedDomain.OutboxMessage{m}, nil).Once()
	bus.On("Publish", mock.Anything, "LegacyDomainEvent", mock.Anything).
		Return(fmt.Errorf("%w: LegacyDomainEvent", sharedBus.ErrUnknownMessageType)).Once()
	repo.On("SaveResults", mock.Anything, mock.MatchedBy(func(msgs []sharedDomain.OutboxMessage) bool {
		return msgs[0].Attempt == 10 && msgs[0].ProcessedAt == nil && msgs[0].IsDead(10)
	})).Return(nil).Once()

	res, err := newWorker(repo, bus).ProcessBatch(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 1, res.Failed)
	repo.AssertExpectations(t)
}

func TestProcessBatch_FetchError(t *testing.T) {
	repo := new(mocks.MockOutboxRepository)
	bus := new(mocks.MockEventBus)
	repo.On("FetchDue", mock.Anything, 50, 10).Return(nil, errors.New("db is gone")).Once()

	_, err := newWorker(repo, bus).ProcessBatch(context.Background())

	assert.ErrorContains(t, err, "db is gone")
	repo.AssertNotCalled(t, "SaveResults", mock.Anything, mock.Anything)
	bus.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything, mock.Anything)
}

func TestProcessBatch_SaveError(t *testing.T) {
	repo := new(mocks.MockOutboxRepository)
	bus := new(mocks.MockEventBus)
	m := pending("A", 0)
	repo.On("FetchDue", mock.Anything, 50, 10).Return([]sharedDomain.OutboxMessage{m}, nil).Once()
	bus.On("Publish", mock.Anything, "A", mock.Anything).Return(nil).Once()
	repo.On("SaveResults", mock.Anything, mock.Anything).Return(errors.New("disk full")).Once()

	_, err := newWorker(repo, bus).ProcessBatch(context.Background())

	assert.ErrorContains(t, err, "disk full")
}

func TestProcessBatch_Empty(t *testing.T) {
	repo := new(mocks.MockOutboxRepository)
	bus := new(mocks.MockEventBus)
	repo.On("FetchDue", mock.Anything, 50, 10).Return([]sharedDomain.OutboxMessage{}, nil).Once()

	res, err := newWorker(repo, bus).ProcessBatch(context.Background())

	require.NoError(t, err)
	assert.Zero(t, res.Fetched)
	repo.AssertNotCalled(t, "SaveResults", mock.Anything, mock.Anything)
}

func TestProcessBatch_ShutdownBetweenMessages(t *testing.T) {
	repo := new(mocks.MockOutboxRepository)
	bus := new(mocks.MockEventBus)
	m1, m2 := pending("A", 0), pending("B", 0)
	ctx, cancel := context.WithCancel(context.Background())

	repo.On("FetchDue", mock.Anything, 50, 10).Return([]sharedDomain.OutboxMessage{m1, m2}, nil).Once()
	// el apagado llega mientras se publica A: A termina, B queda intacto
	bus.On("Publish", mock.Anything, "A", mock.Anything).Return(nil).Run(func(args mock.Arguments) {
		cancel()
		assert.NoError(t, args.Get(0).(context.Context).Err())
	}).Once()

	var saveCtxErr error
	repo.On("SaveResults", mock.Anything, mock.MatchedBy(func(msgs []sharedDomain.OutboxMessage) bool {
		return len(msgs) == 1 && msgs[0].ID == m1.ID && msgs[0].ProcessedAt != nil
	})).Return(nil).Run(func(args mock.Arguments) {
		saveCtxErr = args.Get(0).(context.Context).Err()
	}).Once()

	res, err := newWorker(repo, bus).ProcessBatch(ctx)

	require.NoError(t, err)
	assert.Equal(t, 1, res.Published)
	assert.NoError(t, saveCtxErr)
	bus.AssertNotCalled(t, "Publish", mock.Anything, "B", mock.Anything)
	repo.AssertExpectations(t)
}

func TestProcessBatch_LockHeldElsewhere(t *testing.T) {
	repo := new(mocks.MockOutboxRepository)
	bus := new(mocks.MockEventBus)

	res, err := newWorker(repo, bus, WithLock(heldLock{})).ProcessBatch(context.Background())

	require.NoError(t, err)
	assert.True(t, res.Skipped)
	repo.AssertNotCalled(t, "FetchDue", mock.Anything, mock.Anything, mock.Anything)
}

type heldLock struct{}

func (heldLock) TryLock(context.Context) (func(), bool, error) { return nil, false, nil }

func TestNextDelay(t *testing.T) {
	w := NewOutboxWorker(nil, nil, Config{PollInterval: 5 * time.Second, ErrorBackoff: 10 * time.Second, BatchSize: 2}, zap.NewNop())

	assert.Equal(t, 10*time.Second, w.nextDelay(BatchResult{}, errors.New("x")))
	assert.Equal(t, 5*time.Second, w.nextDelay(BatchResult{Fetched: 0}, nil))
	assert.Equal(t, 5*time.Second, w.nextDelay(BatchResult{Fetched: 1, Published: 1}, nil))
	assert.Equal(t, time.Duration(0), w.nextDelay(BatchResult{Fetched: 2, Published: 1}, nil))
	// lote lleno pero todo fallido: no se martillea el broker
	assert.Equal(t, 5*time.Second, w.nextDelay(BatchResult{Fetched: 2, Failed: 2}, nil))
}

func TestDefaultConfig(t *testing.T) {
	c := Config{}.withDefaults()
	assert.Equal(t, 5*time.Second, c.PollInterval)
	assert.Equal(t, 10*time.Second, c.ErrorBackoff)
	assert.Equal(t, 50, c.BatchSize)
	assert.Equal(t, 10, c.MaxAttempts)
}

// countingRepo cuenta los polls sin mensajes; el segundo falla para probar que el bucle sigue vivo.
type countingRepo struct {
	sharedDomain.OutboxRepository
	polls atomic.Int32
}

func (r *countingRepo) FetchDue(ctx context.Context, limit, maxAttempts int) ([]sharedDomain.OutboxMessage, error) {
	if r.polls.Add(1) == 2 {
		return nil, errors.New("transient")
	}
	return nil, nil
}

func TestStartStop_KeepsPollingAfterErrors(t *testing.T) {
	repo := &countingRepo{}
	w := NewOutboxWorker(repo, new(mocks.MockEventBus), Config{
		PollInterval: 5 * time.Millisecond,
		ErrorBackoff: 5 * time.Millisecond,
	}, zap.NewNop())

	w.Start(context.Background())
	w.Start(context.Background()) // idempotente

	assert.Eventually(t, func() bool { return repo.polls.Load() >= 4 }, 2*time.Second, 5*time.Millisecond)

	w.Stop()
	after := repo.polls.Load()
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, after, repo.polls.Load())
}

type panickyBus struct{}

func (panickyBus) Publish(context.Context, string, string) error { panic("driver bug") }

func TestRun_RecoversFromPanic(t *testing.T) {
	repo := new(mocks.MockOutboxRepository)
	var fetches atomic.Int32
	repo.On("FetchDue", mock.Anything, 50, 10).Return([]sharedDomain.OutboxMessage{pending("A", 0)}, nil).
		Run(func(mock.Arguments) { fetches.Add(1) })

	w := NewOutboxWorker(repo, panickyBus{}, Config{PollInterval: time.Millisecond, ErrorBackoff: time.Millisecond}, zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		w.Run(ctx)
		close(done)
	}()

	assert.Eventually(t, func() bool {
		return fetches.Load() >= 2
	}, 2*time.Second, 5*time.Millisecond)
	cancel()
	<-done
}
