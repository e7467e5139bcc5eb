package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	sharedDomain "github.com/davicafu/todolab/internal/shared/domain"
	sharedDB "github.com/davicafu/todolab/internal/shared/infra/platform/db"
)

// OutboxRepoSQLite implementa sharedDomain.OutboxRepository.
type OutboxRepoSQLite struct {
	db *sql.DB
}

func NewOutboxRepoSQLite(db *sql.DB) *OutboxRepoSQLite {
	return &OutboxRepoSQLite{db: db}
}

// Add inserta los mensajes usando la transacción del contexto si la hay.
func (r *OutboxRepoSQLite) Add(ctx context.Context, msgs []sharedDomain.OutboxMessage) error {
	conn := sharedDB.Conn(ctx, r.db)
	for _, m := range msgs {
		_, err := conn.ExecContext(ctx,
			`INSERT INTO outbox (id, occurred_at, type, content, processed_at, attempt, error)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			m.ID.String(), sharedDB.FormatTime(m.OccurredAt), m.Type, m.Content,
			sharedDB.FormatNullTime(m.ProcessedAt), m.Attempt, sharedDB.NullString(m.Error),
		)
		if err != nil {
			return fmt.Errorf("failed to insert outbox message %s: %w", m.ID, err)
		}
	}
	return nil
}

// FetchDue devuelve los mensajes pendientes más antiguos primero.
func (r *OutboxRepoSQLite) FetchDue(ctx context.Context, limit, maxAttempts int) ([]sharedDomain.OutboxMessage, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+sharedDB.OutboxColumns+`
		 FROM outbox
		 WHERE processed_at IS NULL AND attempt < ?
		 ORDER BY occurred_at, rowid
		 LIMIT ?`, maxAttempts, limit,
	)
	if err != nil {
		return nil, err
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
func (r *OutboxRepoSQLite) SaveResults(ctx context.Context, msgs []sharedDomain.OutboxMessage) error {
	if len(msgs) == 0 {
		return nil
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback() // Se ignora si el Commit() es exitoso

	for _, m := range msgs {
		if _, err := tx.ExecContext(ctx,
			`UPDATE outbox SET processed_at = ?, attempt = ?, error = ? WHERE id = ?`,
			sharedDB.FormatNullTime(m.ProcessedAt), m.Attempt, sharedDB.NullString(m.Error), m.ID.String(),
		); err != nil {
			return fmt.Errorf("failed to update outbox message %s: %w", m.ID, err)
		}
	}
	return tx.Commit()
}

// Get devuelve un mensaje por id (administración y tests).
func (r *OutboxRepoSQLite) Get(ctx context.Context, id string) (sharedDomain.OutboxMessage, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+sharedDB.OutboxColumns+` FROM outbox WHERE id = ?`, id)
	m, err := sharedDB.ScanOutbox(row)
	if err == sql.ErrNoRows {
		return m, fmt.Errorf("outbox message not found: %s", id)
	}
	return m, err
}

// List devuelve todas las filas en orden de aparición.
func (r *OutboxRepoSQLite) List(ctx context.Context) ([]sharedDomain.OutboxMessage, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+sharedDB.OutboxColumns+` FROM outbox ORDER BY occurred_at`)
	if err != nil {
		return nil, err
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

func (r *OutboxRepoSQLite) Stats(ctx context.Context, maxAttempts int) (sharedDomain.OutboxStats, error) {
	var s sharedDomain.OutboxStats
	err := r.db.QueryRowContext(ctx,
		`SELECT
			COALESCE(SUM(CASE WHEN processed_at IS NULL AND attempt < ? THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN processed_at IS NULL AND attempt >= ? THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN processed_at IS NOT NULL THEN 1 ELSE 0 END), 0)
		 FROM outbox`, maxAttempts, maxAttempts,
	).Scan(&s.Pending, &s.Dead, &s.Processed)
	return s, err
}

// Verificación estática
var (
	_ sharedDomain.OutboxRepository  = (*OutboxRepoSQLite)(nil)
	_ sharedDomain.OutboxStatsReader = (*OutboxRepoSQLite)(nil)
)
