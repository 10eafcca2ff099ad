package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"samguk-server/internal/interfaces"
	"samguk-server/internal/models"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

const (
	appID              = "samguk-server"
	publishAttempts    = 3
	publishTimeout     = 10 * time.Second
	turnCompletedEvent = "turn.completed"
)

var errChannelNotInitialized = errors.New("RabbitMQ channel is not initialized")

// amqpChannel - часть *amqp.Channel, которая нужна паблишеру.
type amqpChannel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// rabbitMQPublisher публикует события ходов в очередь через default exchange.
type rabbitMQPublisher struct {
	channel   amqpChannel
	queueName string
	logger    *zap.Logger
	backoff   time.Duration
}

var _ interfaces.TurnEventPublisher = (*rabbitMQPublisher)(nil)

// NewRabbitMQTurnEventPublisher открывает канал и объявляет durable очередь.
func NewRabbitMQTurnEventPublisher(conn *amqp.Connection, queueName string, logger *zap.Logger) (interfaces.TurnEventPublisher, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("turn event publisher: failed to open channel: %w", err)
	}
	_, err = ch.QueueDeclare(
		queueName, // name
		true,      // durable
		false,     // delete when unused
		false,     // exclusive
		false,     // no-wait
		nil,       // arguments
	)
	if err != nil {
		ch.Close()
		return nil, fmt.Errorf("turn event publisher: failed to declare queue '%s': %w", queueName, err)
	}
	log := logger.Named("TurnEventPublisher")
	log.Info("Queue declared", zap.String("queue", queueName))
	return newRabbitMQPublisher(ch, queueName, log), nil
}

func newRabbitMQPublisher(ch amqpChannel, queueName string, logger *zap.Logger) *rabbitMQPublisher {
	return &rabbitMQPublisher{
		channel:   ch,
		queueName: queueName,
		logger:    logger,
		backoff:   100 * time.Millisecond,
	}
}

// PublishTurnCompleted publishes a turn completed event.
func (p *rabbitMQPublisher) PublishTurnCompleted(ctx context.Context, event models.TurnCompletedEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal turn event %s: %w", event.TurnID, err)
	}
	if err := p.publishMessage(ctx, turnCompletedEvent, event.TurnID, body); err != nil {
		p.logger.Error("Failed to publish turn event", zap.String("turn_id", event.TurnID), zap.Error(err))
		return fmt.Errorf("failed to publish turn event %s: %w", event.TurnID, err)
	}
	return nil
}

// publishMessage публикует сообщение с повторами.
func (p *rabbitMQPublisher) publishMessage(ctx context.Context, eventType, messageID string, body []byte) error {
	if p.channel == nil {
		return errChannelNotInitialized
	}
	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	var err error
	for attempt := 1; attempt <= publishAttempts; attempt++ {
		err = p.channel.PublishWithContext(ctx,
			"",          // exchange (default)
			p.queueName, // routing key (имя очереди)
			false,       // mandatory
			false,       // immediate
			amqp.Publishing{
				ContentType:  "application/json",
				DeliveryMode: amqp.Persistent,
				Body:         body,
				Timestamp:    time.Now(),
				AppId:        appID,
				Type:         eventType,
				MessageId:    messageID,
			},
		)
		if err == nil {
			p.logger.Debug("Message published", zap.String("queue", p.queueName), zap.Int("attempt", attempt))
			return nil
		}
		p.logger.Warn("Publish attempt failed", zap.String("queue", p.queueName), zap.Int("attempt", attempt), zap.Error(err))

		select {
		case <-ctx.Done():
			return fmt.Errorf("publish to queue %s cancelled: %w", p.queueName, ctx.Err())
		case <-time.After(time.Duration(attempt) * p.backoff):
		}
	}
	return fmt.Errorf("publish to queue %s failed after retries: %w", p.queueName, err)
}

func (p *rabbitMQPublisher) Close() error {
	if p.channel == nil {
		return nil
	}
	return p.channel.Close()
}

// noopPublisher используется, когда RabbitMQ не настроен.
type noopPublisher struct {
	logger *zap.Logger
}

var _ interfaces.TurnEventPublisher = (*noopPublisher)(nil)

// NewNoopTurnEventPublisher возвращает паблишер, который только пишет событие в debug лог.
func NewNoopTurnEventPublisher(logger *zap.Logger) interfaces.TurnEventPublisher {
	return &noopPublisher{logger: logger.Named("NoopTurnEventPublisher")}
}

func (p *noopPublisher) PublishTurnCompleted(_ context.Context, event models.TurnCompletedEvent) error {
	p.logger.Debug("Turn event dropped, publisher disabled", zap.String("turn_id", event.TurnID))
	return nil
}

func (p *noopPublisher) Close() error { return nil }
