package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	sharedDomain "github.com/davicafu/todolab/internal/shared/domain"
	sharedDB "github.com/davicafu/todolab/internal/shared/infra/platform/db"
)

// OutboxRepoPostgres implementa sharedDomain.OutboxRepository.
type OutboxRepoPostgres struct {
	db *sql.DB
}

func NewOutboxRepoPostgres(db *sql.DB) *OutboxRepoPostgres {
	return &OutboxRepoPostgres{db: db}
}

func nullTime(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return t.UTC()
}

// Add inserta los mensajes usando la transacción del contexto si la hay.
func (r *OutboxRepoPostgres) Add(ctx context.Context, msgs []sharedDomain.OutboxMessage) error {
	conn := sharedDB.Conn(ctx, r.db)
	for _, m := range msgs {
		_, err := conn.ExecContext(ctx,
			`INSERT INTO outbox (id, occurred_at, type, content, processed_at, attempt, error)
			 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			m.ID, m.OccurredAt.UTC(), m.Type, m.Content, nullTime(m.ProcessedAt), m.Attempt, sharedDB.NullString(m.Error),
		)
		if err != nil {
			return fmt.Errorf("failed to insert outbox message %s: %w", m.ID, err)
		}
	}
	return nil
}

// FetchDue devuelve los mensajes pendientes más antiguos primero.
func (r *OutboxRepoPostgres) FetchDue(ctx context.Context, limit, maxAttempts int) ([]sharedDomain.OutboxMessage, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+sharedDB.OutboxColumns+`
		 FROM outbox
		 WHERE processed_at IS NULL AND attempt < $1
		 ORDER BY occurred_at
		 LIMIT $2`, maxAttempts, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var msgs []sharedDomain.OutboxMessage
	for rows.Next() {
		m, err := sharedDB.ScanOutbox(rows)
		if err != nil {
			return nil, err
		}
		msgs = append(msgs, m)
	}
	return msgs, rows.Err()
}

// SaveResults persiste el resultado de todo el lote en una única transacción.
func (r *OutboxRepoPostgres) SaveResults(ctx context.Context, msgs []sharedDomain.OutboxMessage) error {
	if len(msgs) == 0 {
		return nil
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin tx: %w", err)
	}
	defer tx.Rollback()

	for _, m := range msgs {
		if _, err := tx.ExecContext(ctx,
			`UPDATE outbox SET processed_at = $1, attempt = $2, error = $3 WHERE id = $4`,
			nullTime(m.ProcessedAt), m.Attempt, sharedDB.NullString(m.Error), m.ID,
		); err != nil {
			return fmt.Errorf("failed to update outbox message %s: %w", m.ID, err)
		}
	}
	return tx.Commit()
}

func (r *OutboxRepoPostgres) Stats(ctx context.Context, maxAttempts int) (sharedDomain.OutboxStats, error) {
	var s sharedDomain.OutboxStats
	err := r.db.QueryRowContext(ctx,
		`SELECT
			COUNT(*) FILTER (WHERE processed_at IS NULL AND attempt < $1),
			COUNT(*) FILTER (WHERE processed_at IS NULL AND attempt >= $1),
			COUNT(*) FILTER (WHERE processed_at IS NOT NULL)
		 FROM outbox`, maxAttempts,
	).Scan(&s.Pending, &s.Dead, &s.Processed)
	return s, err
}

// Verificación estática
var (
	_ sharedDomain.OutboxRepository  = (*OutboxRepoPostgres)(nil)
	_ sharedDomain.OutboxStatsReader = (*OutboxRepoPostgres)(nil)
)
