package messaging

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"samguk-server/internal/models"

	"github.com/docker/docker/client"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/rabbitmq"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
)

func requireDocker(t *testing.T) {
	t.Helper()
	if testing.Short() {
		t.Skip("Skipping integration tests in short mode")
	}
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		t.Skipf("Docker client init error: %v", err)
	}
	defer cli.Close()
	if _, err := cli.Ping(context.Background()); err != nil {
		t.Skipf("Docker daemon is not accessible: %v", err)
	}
}

func TestRabbitMQTurnEventPublisherIntegration(t *testing.T) {
	requireDocker(t)
	ctx := context.Background()

	container, err := rabbitmq.Run(ctx,
		"rabbitmq:3-management-alpine",
		testcontainers.WithWaitStrategy(
			wait.ForLog("Server startup complete").WithStartupTimeout(2*time.Minute),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	amqpURL, err := container.AmqpURL(ctx)
	require.NoError(t, err)
	conn, err := amqp.Dial(amqpURL)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	const queue = "turn_events_test"
	publisher, err := NewRabbitMQTurnEventPublisher(conn, queue, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = publisher.Close() })

	event := testEvent()
	require.NoError(t, publisher.PublishTurnCompleted(ctx, event))

	consumeCh, err := conn.Channel()
	require.NoError(t, err)
	defer consumeCh.Close()
	deliveries, err := consumeCh.Consume(queue, "", true, false, false, false, nil)
	require.NoError(t, err)

	select {
	case d := <-deliveries:
		assert.Equal(t, "application/json", d.ContentType)
		assert.Equal(t, turnCompletedEvent, d.Type)
		assert.Equal(t, event.TurnID, d.MessageId)
		assert.Equal(t, amqp.Persistent, d.DeliveryMode)

		var got models.TurnCompletedEvent
		require.NoError(t, json.Unmarshal(d.Body, &got))
		assert.Equal(t, event.CountryName, got.CountryName)
		assert.Equal(t, event.Deltas, got.Deltas)
		assert.Equal(t, event.Stats, got.Stats)
		require.NotNil(t, got.ImageURL)
		assert.Equal(t, *event.ImageURL, *got.ImageURL)
	case <-time.After(10 * time.Second):
		t.Fatal("turn event was not delivered")
	}
}
