//go:build integration

package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/99minutos/accounts-api/internal/core/ports"
)

func startRabbit(t *testing.T) string {
	t.Helper()
	ctx := context.Background()

	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: tc.ContainerRequest{
			Image:        "rabbitmq:3-alpine",
			ExposedPorts: []string{"5672/tcp"},
			WaitingFor:   wait.ForLog("Server startup complete").WithStartupTimeout(2 * time.Minute),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5672")
	require.NoError(t, err)
	return fmt.Sprintf("amqp://guest:guest@%s:%s/", host, port.Port())
}

func TestRabbitPublisher_Notify(t *testing.T) {
	url := startRabbit(t)
	ctx := context.Background()

	pub, err := DialRabbitPublisher(url, "", zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = pub.Close() })

	notice := ports.ConfirmationNotice{
		AccountID: "64b7f0000000000000000001",
		Email:     "john@example.com",
		FirstName: "John",
		Token:     "abc",
		IssuedAt:  time.Now().UTC().Truncate(time.Second),
	}
	require.NoError(t, pub.Notify(ctx, notice))

	conn, err := amqp.Dial(url)
	require.NoError(t, err)
	defer conn.Close()
	ch, err := conn.Channel()
	require.NoError(t, err)
	defer ch.Close()

	msg, ok, err := ch.Get(DefaultQueue, true)
	require.NoError(t, err)
	require.True(t, ok, "expected a message on the queue")
	assert.Equal(t, "application/json", msg.ContentType)
	assert.Equal(t, amqp.Persistent, msg.DeliveryMode)

	var got ports.ConfirmationNotice
	require.NoError(t, json.Unmarshal(msg.Body, &got))
	assert.Equal(t, notice.AccountID, got.AccountID)
	assert.Equal(t, notice.Token, got.Token)
	assert.True(t, notice.IssuedAt.Equal(got.IssuedAt))
}
