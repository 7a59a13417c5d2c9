package broadcast

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/iho/gowallet/internal/domain"
)

// Driver names accepted by BROADCAST_DRIVER.
const (
	DriverLog   = "log"
	DriverRedis = "redis"
	DriverAMQP  = "amqp"
)

// RedisPublisher publishes to the sender's and receiver's channels with PUBLISH.
type RedisPublisher struct {
	client redis.UniversalClient
}

func NewRedisPublisher(client redis.UniversalClient) *RedisPublisher {
	return &RedisPublisher{client: client}
}

func (p *RedisPublisher) Driver() string { return DriverRedis }

// Publish sends the payload to every channel in one pipeline.
func (p *RedisPublisher) Publish(ctx context.Context, n domain.TransferCompleted) error {
	payload, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}

	pipe := p.client.Pipeline()
	for _, channel := range n.Channels() {
		pipe.Publish(ctx, channel, payload)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis publish: %w", err)
	}
	return nil
}

type amqpChannel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// AMQPPublisher publishes to a topic exchange, routing each copy by channel name.
type AMQPPublisher struct {
	conn     *amqp.Connection
	channel  amqpChannel
	exchange string
	timeout  time.Duration
}

// NewAMQPPublisher dials the broker and declares a durable topic exchange.
func NewAMQPPublisher(url, exchange string) (*AMQPPublisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial AMQP: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	err = ch.ExchangeDeclare(
		exchange, // name
		"topic",  // type
		true,     // durable
		false,    // auto-deleted
		false,    // internal
		false,    // no-wait
		nil,      // arguments
	)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("declare exchange: %w", err)
	}

	return &AMQPPublisher{conn: conn, channel: ch, exchange: exchange, timeout: 5 * time.Second}, nil
}

func newAMQPPublisherWithChannel(ch amqpChannel, exchange string) *AMQPPublisher {
	return &AMQPPublisher{channel: ch, exchange: exchange, timeout: 5 * time.Second}
}

func (p *AMQPPublisher) Driver() string { return DriverAMQP }

func (p *AMQPPublisher) Publish(ctx context.Context, n domain.TransferCompleted) error {
	body, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	for _, routingKey := range n.Channels() {
		err := p.channel.PublishWithContext(
			ctx,
			p.exchange, // exchange
			routingKey, // routing key
			false,      // mandatory
			false,      // immediate
			amqp.Publishing{
				ContentType:  "application/json",
				DeliveryMode: amqp.Persistent,
				MessageId:    n.ID,
				Timestamp:    n.OccurredAt,
				Type:         "transfer.completed",
				Body:         body,
			},
		)
		if err != nil {
			return fmt.Errorf("publish to %s: %w", routingKey, err)
		}
	}

	return nil
}

// Close closes the channel and the connection.
func (p *AMQPPublisher) Close() error {
	if p.channel != nil {
		p.channel.Close()
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}

// LogPublisher writes notifications to the log. Used when no broker is configured.
type LogPublisher struct {
	logger zerolog.Logger
}

func NewLogPublisher(logger zerolog.Logger) *LogPublisher {
	return &LogPublisher{logger: logger}
}

func (p *LogPublisher) Driver() string { return DriverLog }

func (p *LogPublisher) Publish(_ context.Context, n domain.TransferCompleted) error {
	p.logger.Info().
		Str("notification_id", n.ID).
		Int64("transaction_id", n.TransactionID).
		Strs("channels", n.Channels()).
		Str("amount", n.Amount.Amount()).
		Str("commission", n.Commission.Amount()).
		Msg("transfer completed")
	return nil
}
