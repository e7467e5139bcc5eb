package relayer

import (
	"context"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// RelayLock evita que dos relays procesen el mismo lote.
// release siempre es no nulo cuando acquired es true.
type RelayLock interface {
	TryLock(ctx context.Context) (release func(), acquired bool, err error)
}

// NoopLock se usa con una única instancia de relay.
type NoopLock struct{}

func (NoopLock) TryLock(context.Context) (func(), bool, error) {
	return func() {}, true, nil
}

// releaseScript borra la clave solo si sigue siendo nuestra.
const releaseScript = `
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0`

// RedisLock es un lock con expiración sobre una única clave de Redis.
// El TTL debe cubrir la duración de un lote completo.
type RedisLock struct {
	client redis.Cmdable
	key    string
	ttl    time.Duration
	log    *zap.Logger
}

func NewRedisLock(client redis.Cmdable, key string, ttl time.Duration, log *zap.Logger) *RedisLock {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &RedisLock{client: client, key: key, ttl: ttl, log: log}
}

func (l *RedisLock) TryLock(ctx context.Context) (func(), bool, error) {
	token := uuid.NewString()
	ok, err := l.client.SetNX(ctx, l.key, token, l.ttl).Result()
	if err != nil {
		return nil, false, err
	}
	if !ok {
		return nil, false, nil
	}

	release := func() {
		relCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := l.client.Eval(relCtx, releaseScript, []string{l.key}, token).Err(); err != nil {
			l.log.Warn("Failed to release relay lock", zap.String("key", l.key), zap.Error(err))
		}
	}
	return release, true, nil
}

var (
	_ RelayLock = NoopLock{}
	_ RelayLock = (*RedisLock)(nil)
)
