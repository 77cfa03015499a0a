//go:build integration

package redis

import (
	"context"
	"testing"

	"github.com/bissquit/fitgram/internal/testutil"
	"github.com/bissquit/fitgram/internal/userdata"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore(t *testing.T) {
	ctx := context.Background()

	container, err := testutil.NewRedisContainer(ctx)
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	client := goredis.NewClient(&goredis.Options{Addr: container.Addr})
	t.Cleanup(func() { _ = client.Close() })

	store := NewStore(client, "test:")
	require.NoError(t, store.Ping(ctx))

	_, err = store.Get(ctx, "progress:1")
	assert.ErrorIs(t, err, userdata.ErrNotFound)

	require.NoError(t, store.Set(ctx, "progress:1", []byte(`["2026-01-01"]`)))

	raw, err := client.Get(ctx, "test:progress:1").Result()
	require.NoError(t, err)
	assert.Equal(t, `["2026-01-01"]`, raw, "keys are prefixed")

	got, err := store.Get(ctx, "progress:1")
	require.NoError(t, err)
	assert.Equal(t, []byte(`["2026-01-01"]`), got)

	require.NoError(t, store.Delete(ctx, "progress:1"))
	_, err = store.Get(ctx, "progress:1")
	assert.ErrorIs(t, err, userdata.ErrNotFound)
}

func TestStore_WithService(t *testing.T) {
	ctx := context.Background()

	container, err := testutil.NewRedisContainer(ctx)
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	client := goredis.NewClient(&goredis.Options{Addr: container.Addr})
	t.Cleanup(func() { _ = client.Close() })

	svc := userdata.NewService(NewStore(client, "fitgram:"))

	_, err = svc.MarkDone(ctx, 5, "2026-02-02")
	require.NoError(t, err)
	dates, err := svc.MarkDone(ctx, 5, "2026-02-01")
	require.NoError(t, err)
	assert.Equal(t, []string{"2026-02-01", "2026-02-02"}, dates)

	// A second service over the same redis sees the same data.
	other := userdata.NewService(NewStore(client, "fitgram:"))
	dates, err = other.Progress(ctx, 5)
	require.NoError(t, err)
	assert.Equal(t, []string{"2026-02-01", "2026-02-02"}, dates)
}
