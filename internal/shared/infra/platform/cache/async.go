package cache

import (
	"context"
	"time"

	"go.uber.org/zap"
)

const asyncTimeout = 200 * time.Millisecond

// SetAsync actualiza la caché en segundo plano. Los fallos solo se registran.
func SetAsync(c Cache, key string, val any, ttl time.Duration, log *zap.Logger) {
	if c == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), asyncTimeout)
		defer cancel()
		if err := c.Set(ctx, key, val, ttl); err != nil {
			log.Warn("Cache update failed", zap.String("key", key), zap.Error(err))
		}
	}()
}

// Invalidate borra la clave de forma síncrona: tras escribir en BD no queremos servir datos viejos.
func Invalidate(ctx context.Context, c Cache, key string, log *zap.Logger) {
	if c == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), asyncTimeout)
	defer cancel()
	if err := c.Delete(ctx, key); err != nil {
		log.Warn("Cache invalidation failed", zap.String("key", key), zap.Error(err))
	}
}
