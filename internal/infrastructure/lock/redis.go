package lock

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/jhoicas/stock-ledger/internal/domain"
)

// DefaultKey clave del lock de reemplazo compartida por todas las réplicas.
const DefaultKey = "stock-ledger:replace-lock"

// releaseScript borra la clave solo si el token coincide (no libera el lock de otro dueño).
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`)

// Redis lock distribuido con SET NX PX y token por dueño.
type Redis struct {
	client *redis.Client
	key    string
	ttl    time.Duration
}

// NewRedis crea el lock. ttl acota la vida del lock si el proceso muere sin liberarlo.
func NewRedis(client *redis.Client, key string, ttl time.Duration) *Redis {
	if key == "" {
		key = DefaultKey
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &Redis{client: client, key: key, ttl: ttl}
}

// Connect abre el cliente Redis y verifica la conexión.
func Connect(ctx context.Context, addr string) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return client, nil
}

// TryAcquire intenta tomar el lock; si otro dueño lo tiene devuelve domain.ErrImportInProgress.
func (r *Redis) TryAcquire(ctx context.Context) (func(context.Context) error, error) {
	token := uuid.New().String()
	ok, err := r.client.SetNX(ctx, r.key, token, r.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("redis lock: %w", err)
	}
	if !ok {
		return nil, domain.ErrImportInProgress
	}
	return func(ctx context.Context) error {
		if err := releaseScript.Run(ctx, r.client, []string{r.key}, token).Err(); err != nil {
			return fmt.Errorf("redis unlock: %w", err)
		}
		return nil
	}, nil
}
