package relayer

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	sharedDomain "github.com/davicafu/todolab/internal/shared/domain"
	"github.com/davicafu/todolab/internal/shared/infra/metrics"
	sharedBus "github.com/davicafu/todolab/internal/shared/infra/platform/bus"
)

// Config del relay. Los ceros se sustituyen por los valores por defecto.
type Config struct {
	PollInterval   time.Duration
	ErrorBackoff   time.Duration
	PublishTimeout time.Duration
	BatchSize      int
	MaxAttempts    int
}

func DefaultConfig() Config {
	return Config{
		PollInterval:   5 * time.Second,
		ErrorBackoff:   10 * time.Second,
		PublishTimeout: 30 * time.Second,
		BatchSize:      sharedDomain.DefaultBatchSize,
		MaxAttempts:    sharedDomain.DefaultMaxAttempts,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.PollInterval <= 0 {
		c.PollInterval = d.PollInterval
	}
	if c.ErrorBackoff <= 0 {
		c.ErrorBackoff = d.ErrorBackoff
	}
	if c.PublishTimeout <= 0 {
		c.PublishTimeout = d.PublishTimeout
	}
	if c.BatchSize <= 0 {
		c.BatchSize = d.BatchSize
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = d.MaxAttempts
	}
	return c
}

// BatchResult resume un ciclo del relay.
type BatchResult struct {
	Fetched   int
	Published int
	Failed    int
	Skipped   bool // otra instancia tiene el lock
}

// Worker publica los mensajes pendientes del outbox de forma secuencial.
// Debe haber una sola instancia activa por base de datos, salvo que se configure un RelayLock.
type Worker struct {
	repo   sharedDomain.OutboxRepository
	bus    sharedBus.EventBus
	lock   RelayLock
	clock  sharedDomain.Clock
	cfg    Config
	log    *zap.Logger
	tracer trace.Tracer

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

type Option func(*Worker)

func WithLock(l RelayLock) Option {
	return func(w *Worker) { w.lock = l }
}

func WithClock(c sharedDomain.Clock) Option {
	return func(w *Worker) { w.clock = c }
}

func NewOutboxWorker(repo sharedDomain.OutboxRepository, bus sharedBus.EventBus, cfg Config, log *zap.Logger, opts ...Option) *Worker {
	w := &Worker{
		repo:   repo,
		bus:    bus,
		lock:   NoopLock{},
		clock:  sharedDomain.SystemClock{},
		cfg:    cfg.withDefaults(),
		log:    log,
		tracer: otel.Tracer("todolab/relayer"),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Start lanza el bucle en segundo plano. Llamadas repetidas no hacen nada.
func (w *Worker) Start(ctx context.Context) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.done != nil {
		return
	}
	runCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel
	w.done = make(chan struct{})

	go func(done chan struct{}) {
		defer close(done)
		w.Run(runCtx)
	}(w.done)
}

// Stop cancela el bucle y espera a que termine. La publicación en curso se completa.
func (w *Worker) Stop() {
	w.mu.Lock()
	cancel, done := w.cancel, w.done
	w.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// Run ejecuta el bucle de polling hasta que ctx se cancele. Solo sale por cancelación.
func (w *Worker) Run(ctx context.Context) {
	w.log.Info("🚀 Outbox relay iniciado",
		zap.Duration("poll_interval", w.cfg.PollInterval),
		zap.Int("batch_size", w.cfg.BatchSize),
		zap.Int("max_attempts", w.cfg.MaxAttempts),
	)

	for {
		res, err := w.safeProcessBatch(ctx)
		if ctx.Err() != nil {
			break
		}
		if err != nil {
			metrics.IncRelayError()
			w.log.Error("❌ Outbox relay cycle failed", zap.Error(err), zap.Duration("backoff", w.cfg.ErrorBackoff))
		}

		delay := w.nextDelay(res, err)
		if delay == 0 {
			continue
		}
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
		case <-timer.C:
		}
		if ctx.Err() != nil {
			break
		}
	}

	w.log.Info("🛑 Outbox relay detenido.")
}

// nextDelay: error -> backoff; lote lleno con publicaciones -> sin espera; resto -> intervalo.
func (w *Worker) nextDelay(res BatchResult, err error) time.Duration {
	switch {
	case err != nil:
		return w.cfg.ErrorBackoff
	case res.Fetched >= w.cfg.BatchSize && res.Published > 0:
		return 0
	default:
		return w.cfg.PollInterval
	}
}

func (w *Worker) safeProcessBatch(ctx context.Context) (res BatchResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("relay cycle panicked: %v", r)
		}
	}()
	return w.ProcessBatch(ctx)
}

// ProcessBatch ejecuta un ciclo: leer pendientes, publicar en orden y guardar
// los resultados en una sola transacción.
func (w *Worker) ProcessBatch(ctx context.Context) (BatchResult, error) {
	var res BatchResult
	ctx, span := w.tracer.Start(ctx, "outbox.relay.batch")
	defer span.End()

	start := time.Now()
	defer func() { metrics.ObserveRelayBatch(time.Since(start)) }()

	release, acquired, err := w.lock.TryLock(ctx)
	if err != nil {
		span.RecordError(err)
		return res, fmt.Errorf("relay lock: %w", err)
	}
	if !acquired {
		w.log.Debug("Relay lock held by another instance, skipping cycle")
		res.Skipped = true
		return res, nil
	}
	defer release()

	msgs, err := w.repo.FetchDue(ctx, w.cfg.BatchSize, w.cfg.MaxAttempts)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "fetch failed")
		return res, fmt.Errorf("fetch due outbox messages: %w", err)
	}
	res.Fetched = len(msgs)
	span.SetAttributes(attribute.Int("outbox.batch.size", len(msgs)))

	if len(msgs) == 0 {
		w.refreshBacklog(ctx)
		return res, nil
	}
	w.log.Debug("📬 Outbox messages to publish", zap.Int("count", len(msgs)))

	processed := make([]sharedDomain.OutboxMessage, 0, len(msgs))
	for i := range msgs {
		// el apagado solo se atiende entre mensajes
		if ctx.Err() != nil {
			w.log.Info("Shutdown requested, leaving remaining messages for next run",
				zap.Int("remaining", len(msgs)-i))
			break
		}
		m := msgs[i]
		w.publishOne(ctx, &m, &res)
		processed = append(processed, m)
	}

	// Los resultados se guardan aunque ctx esté cancelado para no repetir lo ya publicado.
	saveCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), w.cfg.PublishTimeout)
	defer cancel()
	if err := w.repo.SaveResults(saveCtx, processed); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "save failed")
		return res, fmt.Errorf("save outbox results: %w", err)
	}

	span.SetAttributes(
		attribute.Int("outbox.batch.published", res.Published),
		attribute.Int("outbox.batch.failed", res.Failed),
	)
	w.refreshBacklog(saveCtx)
	return res, nil
}

func (w *Worker) publishOne(ctx context.Context, m *sharedDomain.OutboxMessage, res *BatchResult) {
	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), w.cfg.PublishTimeout)
	defer cancel()

	err := w.bus.Publish(pubCtx, m.Type, m.Content)
	if err == nil {
		m.MarkPublished(w.clock.Now())
		res.Published++
		metrics.IncRelayMessage(metrics.ResultPublished)
		w.log.Info("✅ Outbox message published",
			zap.String("message_id", m.ID.String()),
			zap.String("type", m.Type),
		)
		return
	}

	m.MarkFailed(err)
	res.Failed++

	fields := []zap.Field{
		zap.String("message_id", m.ID.String()),
		zap.String("type", m.Type),
		zap.Int("attempt", m.Attempt),
		zap.Error(err),
	}
	if sharedBus.IsNonRetryable(err) {
		metrics.IncRelayMessage(metrics.ResultUnknown)
		w.log.Error("Outbox message cannot be published (non-retryable)", fields...)
	} else {
		metrics.IncRelayMessage(metrics.ResultFailed)
		w.log.Warn("⚠️ Outbox message publish failed", fields...)
	}
	if m.IsDead(w.cfg.MaxAttempts) {
		w.log.Error("💀 Outbox message exhausted its attempts", fields...)
	}
}

func (w *Worker) refreshBacklog(ctx context.Context) {
	reader, ok := w.repo.(sharedDomain.OutboxStatsReader)
	if !ok {
		return
	}
	stats, err := reader.Stats(ctx, w.cfg.MaxAttempts)
	if err != nil {
		w.log.Debug("Failed to read outbox stats", zap.Error(err))
		return
	}
	metrics.SetBacklog(stats.Pending, stats.Dead, stats.Processed)
}
