package db

import (
	"database/sql"
	"fmt"

	sharedDomain "github.com/davicafu/todolab/internal/shared/domain"
)

// OutboxColumns es el orden de columnas que espera ScanOutbox.
const OutboxColumns = "id, occurred_at, type, content, processed_at, attempt, error"

type rowScanner interface {
	Scan(dest ...interface{}) error
}

// ScanOutbox lee una fila de outbox en el orden de OutboxColumns.
func ScanOutbox(row rowScanner) (sharedDomain.OutboxMessage, error) {
	var (
		m           sharedDomain.OutboxMessage
		occurredAt  string
		processedAt sql.NullString
		errMsg      sql.NullString
	)
	if err := row.Scan(&m.ID, &occurredAt, &m.Type, &m.Content, &processedAt, &m.Attempt, &errMsg); err != nil {
		return m, err
	}

	var err error
	if m.OccurredAt, err = ParseTime(occurredAt); err != nil {
		return m, fmt.Errorf("outbox row %s: %w", m.ID, err)
	}
	if m.ProcessedAt, err = ParseNullTime(processedAt); err != nil {
		return m, fmt.Errorf("outbox row %s: %w", m.ID, err)
	}
	if errMsg.Valid {
		s := errMsg.String
		m.Error = &s
	}
	return m, nil
}
