package db

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"
)

type Dialect string

const (
	SQLite   Dialect = "sqlite"
	Postgres Dialect = "postgres"
)

// ParseDialect acepta los nombres usados en la configuración.
func ParseDialect(s string) (Dialect, error) {
	switch strings.ToLower(s) {
	case "sqlite", "sqlite3":
		return SQLite, nil
	case "postgres", "postgresql", "pgx":
		return Postgres, nil
	}
	return "", fmt.Errorf("unsupported database driver %q", s)
}

// DriverName es el nombre con el que se registra el driver en database/sql.
func (d Dialect) DriverName() string {
	if d == Postgres {
		return "pgx"
	}
	return "sqlite"
}

// Rebind traduce los placeholders '?' al formato $n de Postgres.
func (d Dialect) Rebind(query string) string {
	if d != Postgres {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteByte(query[i])
	}
	return b.String()
}

// Open abre la base de datos y comprueba la conexión.
// SQLite se limita a una conexión: las escrituras se serializan igualmente
// y así se evitan errores "database is locked" entre API y relay.
func Open(ctx context.Context, d Dialect, dsn string) (*sql.DB, error) {
	conn, err := sql.Open(d.DriverName(), dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", d, err)
	}
	if d == SQLite {
		conn.SetMaxOpenConns(1)
	}
	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("ping %s: %w", d, err)
	}
	return conn, nil
}

// ---------------- Tiempos ----------------

// timeLayout tiene ancho fijo para que el orden lexicográfico en SQLite coincida con el cronológico.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// FormatTime serializa en UTC con ancho fijo.
func FormatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

// FormatNullTime devuelve nil para punteros nulos.
func FormatNullTime(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return FormatTime(*t)
}

// ParseTime acepta el layout propio y RFC3339 (lo que devuelve database/sql al
// convertir un TIMESTAMPTZ de Postgres a string).
func ParseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid timestamp %q: %w", s, err)
	}
	return t.UTC(), nil
}

// ParseNullTime convierte una columna anulable.
func ParseNullTime(ns sql.NullString) (*time.Time, error) {
	if !ns.Valid || ns.String == "" {
		return nil, nil
	}
	t, err := ParseTime(ns.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// NullString convierte un puntero a string en un valor apto para Exec.
func NullString(s *string) interface{} {
	if s == nil {
		return nil
	}
	return *s
}
