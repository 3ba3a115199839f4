package redisstore

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func TestKeyBuilders(t *testing.T) {
	assert.Equal(t, "fulfillment:side_effect:pi_1:release:lock", lockKey("pi_1:release"))
	assert.Equal(t, "fulfillment:side_effect:pi_1:release:done", doneKey("pi_1:release"))
}

func startRedis(t *testing.T) string {
	t.Helper()
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections").WithStartupTimeout(30 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	endpoint, err := container.Endpoint(ctx, "")
	require.NoError(t, err)
	return "redis://" + endpoint + "/0"
}

func TestIdempotencyStoreIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("integration test")
	}
	ctx := context.Background()

	store, err := New(ctx, startRedis(t))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	const key = "pi_1:capture_and_transfer"

	done, err := store.Done(ctx, key)
	require.NoError(t, err)
	assert.False(t, done)

	acquired, err := store.Acquire(ctx, key, time.Minute)
	require.NoError(t, err)
	assert.True(t, acquired)

	acquired, err = store.Acquire(ctx, key, time.Minute)
	require.NoError(t, err)
	assert.False(t, acquired, "lock is exclusive")

	require.NoError(t, store.Release(ctx, key))
	acquired, err = store.Acquire(ctx, key, time.Minute)
	require.NoError(t, err)
	assert.True(t, acquired, "released lock can be retaken")

	require.NoError(t, store.MarkDone(ctx, key))
	done, err = store.Done(ctx, key)
	require.NoError(t, err)
	assert.True(t, done)

	ttl, err := store.raw.TTL(ctx, doneKey(key)).Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, 6*24*time.Hour)

	_, err = store.raw.Get(ctx, lockKey(key)).Result()
	assert.ErrorIs(t, err, redis.Nil, "marking done drops the lock")
}

func TestNew_RejectsBadURL(t *testing.T) {
	_, err := New(context.Background(), "")
	require.Error(t, err)

	_, err = New(context.Background(), "http://not-redis")
	require.ErrorContains(t, err, "parsing redis url")
}
