//go:build integration

package redis

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func startRedis(t *testing.T) string {
	t.Helper()
	ctx := context.Background()

	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: tc.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForListeningPort("6379/tcp").WithStartupTimeout(time.Minute),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "6379")
	require.NoError(t, err)
	return host + ":" + port.Port()
}

func TestAttemptLimiter(t *testing.T) {
	ctx := context.Background()
	client, err := Connect(ctx, Config{Addr: startRedis(t)})
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	limiter := NewAttemptLimiter(client, 3, time.Minute)

	exceeded, err := limiter.Exceeded(ctx, "login", "a@example.com")
	require.NoError(t, err)
	assert.False(t, exceeded)

	for i := 0; i < 3; i++ {
		require.NoError(t, limiter.RecordFailure(ctx, "login", "a@example.com"))
	}

	exceeded, err = limiter.Exceeded(ctx, "login", "a@example.com")
	require.NoError(t, err)
	assert.True(t, exceeded)

	exceeded, err = limiter.Exceeded(ctx, "confirm", "a@example.com")
	require.NoError(t, err)
	assert.False(t, exceeded, "scopes are counted separately")

	ttl, err := client.TTL(ctx, "attempts:login:a@example.com").Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))
	assert.LessOrEqual(t, ttl, time.Minute)

	require.NoError(t, limiter.Reset(ctx, "login", "a@example.com"))
	exceeded, err = limiter.Exceeded(ctx, "login", "a@example.com")
	require.NoError(t, err)
	assert.False(t, exceeded)
}
