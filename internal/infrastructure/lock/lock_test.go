package lock

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/stock-ledger/internal/domain"
)

func TestLocal_Exclusivo(t *testing.T) {
	l := NewLocal()
	ctx := context.Background()

	release, err := l.TryAcquire(ctx)
	require.NoError(t, err)

	_, err = l.TryAcquire(ctx)
	assert.ErrorIs(t, err, domain.ErrImportInProgress)

	require.NoError(t, release(ctx))
	// Caso: liberar dos veces no entra en pánico
	require.NoError(t, release(ctx))

	again, err := l.TryAcquire(ctx)
	require.NoError(t, err)
	require.NoError(t, again(ctx))
}

func newRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestRedis_ExclusivoEntreDuenos(t *testing.T) {
	_, client := newRedis(t)
	ctx := context.Background()
	a := NewRedis(client, "", time.Minute)
	b := NewRedis(client, "", time.Minute)

	release, err := a.TryAcquire(ctx)
	require.NoError(t, err)

	_, err = b.TryAcquire(ctx)
	assert.ErrorIs(t, err, domain.ErrImportInProgress)

	require.NoError(t, release(ctx))

	releaseB, err := b.TryAcquire(ctx)
	require.NoError(t, err)
	require.NoError(t, releaseB(ctx))
}

func TestRedis_ExpiraYNoLiberaLockAjeno(t *testing.T) {
	mr, client := newRedis(t)
	ctx := context.Background()
	a := NewRedis(client, "k", time.Second)
	b := NewRedis(client, "k", time.Minute)

	releaseA, err := a.TryAcquire(ctx)
	require.NoError(t, err)

	mr.FastForward(2 * time.Second)

	releaseB, err := b.TryAcquire(ctx)
	require.NoError(t, err)

	// Caso: el dueño vencido no borra el lock del nuevo dueño
	require.NoError(t, releaseA(ctx))
	assert.True(t, mr.Exists("k"))

	require.NoError(t, releaseB(ctx))
	assert.False(t, mr.Exists("k"))
}

func TestConnect(t *testing.T) {
	mr := miniredis.RunT(t)
	client, err := Connect(context.Background(), mr.Addr())
	require.NoError(t, err)
	require.NoError(t, client.Close())
}
