package cache

import (
	"context"
	"strings"
	"time"
)

// Cache es una caché clave-valor que serializa en JSON.
type Cache interface {
	// Get rellena dest (puntero) y devuelve true si hubo hit.
	Get(ctx context.Context, key string, dest any) (bool, error)
	// Set guarda val. Un ttl <= 0 usa el TTL por defecto de la implementación.
	Set(ctx context.Context, key string, val any, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// Key construye claves con el formato "todolab:<parte>:<parte>".
func Key(parts ...string) string {
	return "todolab:" + strings.Join(parts, ":")
}
