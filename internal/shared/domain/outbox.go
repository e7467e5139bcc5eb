package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Valores por defecto del relay.
const (
	DefaultMaxAttempts = 10
	DefaultBatchSize   = 50
)

// OutboxMessage es la fila persistida junto a la escritura de negocio.
type OutboxMessage struct {
	ID          uuid.UUID  `json:"id"`
	OccurredAt  time.Time  `json:"occurred_at"`
	Type        string     `json:"type"`    // nombre del evento de integración o de dominio
	Content     string     `json:"content"` // JSON del evento
	ProcessedAt *time.Time `json:"processed_at,omitempty"`
	Attempt     int        `json:"attempt"`
	Error       *string    `json:"error,omitempty"`
}

// IsDue indica si el relay debe intentar publicar el mensaje.
func (m OutboxMessage) IsDue(maxAttempts int) bool {
	return m.ProcessedAt == nil && m.Attempt < maxAttempts
}

// IsDead indica que el mensaje agotó los reintentos sin publicarse.
func (m OutboxMessage) IsDead(maxAttempts int) bool {
	return m.ProcessedAt == nil && m.Attempt >= maxAttempts
}

// MarkPublished fija processed_at y limpia el último error.
func (m *OutboxMessage) MarkPublished(now time.Time) {
	t := now.UTC()
	m.ProcessedAt = &t
	m.Error = nil
}

// MarkFailed consume un intento y guarda la descripción del fallo.
func (m *OutboxMessage) MarkFailed(err error) {
	m.Attempt++
	msg := err.Error()
	m.Error = &msg
}

// OutboxRepository es el acceso a la tabla outbox.
// Add escribe dentro de la transacción activa en ctx (ver platform/db).
// FetchDue y SaveResults los usa el relay.
type OutboxRepository interface {
	Add(ctx context.Context, msgs []OutboxMessage) error
	FetchDue(ctx context.Context, limit, maxAttempts int) ([]OutboxMessage, error)
	SaveResults(ctx context.Context, msgs []OutboxMessage) error
}

// OutboxStats resume el estado de la tabla para métricas y administración.
type OutboxStats struct {
	Pending   int64 `json:"pending"`
	Dead      int64 `json:"dead"`
	Processed int64 `json:"processed"`
}

// OutboxStatsReader es opcional; lo implementan los stores SQL.
type OutboxStatsReader interface {
	Stats(ctx context.Context, maxAttempts int) (OutboxStats, error)
}
