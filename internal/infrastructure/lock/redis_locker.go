package lock

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	redis "github.com/redis/go-redis/v9"
	"github.com/tu-usuario/lotes-pos/internal/domain"
)

// releaseScript borra la clave solo si el token coincide: un proceso nunca
// libera el lock de otro (por ejemplo tras expirar el TTL).
var releaseScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0`)

// RedisLocker serialización por clave entre varios nodos vía SET NX PX.
// El TTL evita locks huérfanos si un proceso muere con el lock tomado; la
// espera por clave está acotada y al agotarse devuelve ErrBusy.
type RedisLocker struct {
	client  *redis.Client
	ttl     time.Duration
	maxWait time.Duration
	backoff time.Duration
}

// NewRedisLocker construye el locker. Valores <= 0 usan 10s TTL, 3s espera,
// 25ms entre reintentos.
func NewRedisLocker(client *redis.Client, ttl, maxWait time.Duration) *RedisLocker {
	if ttl <= 0 {
		ttl = 10 * time.Second
	}
	if maxWait <= 0 {
		maxWait = 3 * time.Second
	}
	return &RedisLocker{client: client, ttl: ttl, maxWait: maxWait, backoff: 25 * time.Millisecond}
}

// Acquire toma todas las claves en orden lexicográfico. Cada clave se intenta
// con SET NX y reintentos con backoff hasta la espera máxima; si alguna no se
// consigue, libera las ya tomadas y devuelve ErrBusy.
func (l *RedisLocker) Acquire(ctx context.Context, keys ...string) (func(), error) {
	sorted := append([]string(nil), keys...)
	sort.Strings(sorted)

	token := uuid.New().String()
	deadline := time.Now().Add(l.maxWait)

	acquired := make([]string, 0, len(sorted))
	rollback := func() {
		for i := len(acquired) - 1; i >= 0; i-- {
			_ = releaseScript.Run(context.WithoutCancel(ctx), l.client, []string{acquired[i]}, token).Err()
		}
	}

	for _, key := range sorted {
		ok, err := l.tryUntil(ctx, key, token, deadline)
		if err != nil {
			rollback()
			return nil, err
		}
		if !ok {
			rollback()
			return nil, domain.ErrBusy
		}
		acquired = append(acquired, key)
	}

	var once sync.Once
	return func() { once.Do(rollback) }, nil
}

func (l *RedisLocker) tryUntil(ctx context.Context, key, token string, deadline time.Time) (bool, error) {
	for {
		ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
		if err != nil {
			return false, err
		}
		if ok {
			return true, nil
		}
		if time.Now().Add(l.backoff).After(deadline) {
			return false, nil
		}
		select {
		case <-time.After(l.backoff):
		case <-ctx.Done():
			return false, ctx.Err()
		}
	}
}
