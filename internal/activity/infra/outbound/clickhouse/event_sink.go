package clickhouse

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"

	"github.com/davicafu/todolab/internal/activity/domain"
	sharedEvents "github.com/davicafu/todolab/internal/shared/events"
)

type Options struct {
	Addr     string
	Database string
	Username string
	Password string
}

// EventSink guarda los eventos de integración en ClickHouse y responde a las consultas de analítica.
type EventSink struct {
	db *sql.DB
}

// Open conecta con ClickHouse y comprueba la conexión.
func Open(ctx context.Context, opts Options) (*EventSink, error) {
	conn := clickhouse.OpenDB(&clickhouse.Options{
		Addr: []string{opts.Addr},
		Auth: clickhouse.Auth{
			Database: opts.Database,
			Username: opts.Username,
			Password: opts.Password,
		},
		Settings: clickhouse.Settings{
			"max_execution_time": 60,
		},
	})

	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("could not ping clickhouse: %w", err)
	}
	return &EventSink{db: conn}, nil
}

// NewEventSink usa una conexión ya abierta.
func NewEventSink(db *sql.DB) *EventSink {
	return &EventSink{db: db}
}

const insertEvents = "INSERT INTO integration_events (event_id, event_type, aggregate_id, user_id, occurred_at, received_at, payload)"

// Record inserta el lote dentro de una transacción: ClickHouse lo envía como un único bloque.
func (s *EventSink) Record(ctx context.Context, events []domain.ActivityEvent) error {
	if len(events) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	stmt, err := tx.PrepareContext(ctx, insertEvents)
	if err != nil {
		_ = tx.Rollback()
		return err
	}
	defer stmt.Close()

	for _, e := range events {
		if _, err := stmt.ExecContext(
			ctx,
			e.EventID,
			e.EventType,
			e.AggregateID,
			e.UserID,
			e.OccurredAt,
			e.ReceivedAt,
			e.Payload,
		); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to exec statement for event %s: %w", e.EventID, err)
		}
	}

	return tx.Commit()
}

func (s *EventSink) DailyTrend(ctx context.Context, start, end time.Time) ([]domain.DailyActivity, error) {
	query := `
		SELECT
			toStartOfDay(occurred_at) AS day,
			countIf(event_type = ?) AS created,
			countIf(event_type = ?) AS completed,
			countIf(event_type = ?) AS deleted,
			countIf(event_type = ?) AS registered
		FROM integration_events
		WHERE occurred_at BETWEEN ? AND ?
		GROUP BY day
		ORDER BY day
	`
	rows, err := s.db.QueryContext(ctx, query,
		sharedEvents.TodoItemCreatedType,
		sharedEvents.TodoItemCompletedType,
		sharedEvents.TodoItemDeletedType,
		sharedEvents.UserRegisteredType,
		start, end,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var trend []domain.DailyActivity
	for rows.Next() {
		var d domain.DailyActivity
		if err := rows.Scan(&d.Day, &d.CreatedCount, &d.CompletedCount, &d.DeletedCount, &d.RegisteredCount); err != nil {
			return nil, err
		}
		trend = append(trend, d)
	}
	return trend, rows.Err()
}

// AverageCompletionTime mide, para las tareas completadas en el rango, el tiempo entre
// su evento de creación y el de completado.
func (s *EventSink) AverageCompletionTime(ctx context.Context, start, end time.Time) (time.Duration, error) {
	query := `
		SELECT
			avg(dateDiff('second', creation_time, completion_time)) AS avg_completion_seconds
		FROM (
			SELECT
				aggregate_id,
				minIf(occurred_at, event_type = ?) AS creation_time,
				maxIf(occurred_at, event_type = ?) AS completion_time
			FROM integration_events
			WHERE aggregate_id IN (
				SELECT DISTINCT aggregate_id FROM integration_events
				WHERE event_type = ? AND occurred_at BETWEEN ? AND ?
			)
			GROUP BY aggregate_id
		)
		WHERE creation_time > 0 AND completion_time > 0
	`
	var avgSeconds sql.NullFloat64
	err := s.db.QueryRowContext(ctx, query,
		sharedEvents.TodoItemCreatedType,
		sharedEvents.TodoItemCompletedType,
		sharedEvents.TodoItemCompletedType,
		start, end,
	).Scan(&avgSeconds)
	if err != nil {
		return 0, err
	}
	if !avgSeconds.Valid {
		return 0, nil
	}
	return time.Duration(avgSeconds.Float64 * float64(time.Second)), nil
}

// InitSchema crea la tabla si no existe. Se particiona por mes y se ordena por tipo y fecha.
func (s *EventSink) InitSchema(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS integration_events (
			event_id     UUID,
			event_type   LowCardinality(String),
			aggregate_id String,
			user_id      UUID,
			occurred_at  DateTime64(3),
			received_at  DateTime64(3),
			payload      String
		) ENGINE = ReplacingMergeTree(received_at)
		PARTITION BY toYYYYMM(occurred_at)
		ORDER BY (event_type, occurred_at, event_id);
	`
	_, err := s.db.ExecContext(ctx, query)
	return err
}

func (s *EventSink) Close() error {
	return s.db.Close()
}

var (
	_ domain.EventSink         = (*EventSink)(nil)
	_ domain.ActivityAnalytics = (*EventSink)(nil)
)
