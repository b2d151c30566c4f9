package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"booking-engine/internal/status"

	amqp "github.com/rabbitmq/amqp091-go"
)

type amqpChannel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// AMQPDispatcher publishes intents as persistent JSON messages on a durable
// queue.
type AMQPDispatcher struct {
	conn    *amqp.Connection
	channel amqpChannel
	queue   string
}

type AMQPConfig struct {
	URL       string
	QueueName string
}

func NewAMQPDispatcher(config AMQPConfig) (*AMQPDispatcher, error) {
	conn, err := amqp.Dial(config.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	q, err := channel.QueueDeclare(
		config.QueueName, // name
		true,             // durable
		false,            // delete when unused
		false,            // exclusive
		false,            // no-wait
		amqp.Table{
			"x-queue-mode": "lazy",
		},
	)
	if err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare queue: %w", err)
	}

	return &AMQPDispatcher{conn: conn, channel: channel, queue: q.Name}, nil
}

func (d *AMQPDispatcher) Dispatch(ctx context.Context, intent Intent) error {
	body, err := json.Marshal(intent)
	if err != nil {
		return fmt.Errorf("%w: marshal intent: %v", status.ErrNotificationDispatch, err)
	}

	err = d.channel.PublishWithContext(
		ctx,
		"",      // exchange
		d.queue, // routing key
		false,   // mandatory
		false,   // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			MessageId:    intent.ID,
			Body:         body,
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now(),
		},
	)
	if err != nil {
		return fmt.Errorf("%w: publish to %s: %v", status.ErrNotificationDispatch, d.queue, err)
	}
	return nil
}

func (d *AMQPDispatcher) Close() error {
	var errs []error

	if d.channel != nil {
		if err := d.channel.Close(); err != nil {
			errs = append(errs, err)
		}
	}

	if d.conn != nil {
		if err := d.conn.Close(); err != nil {
			errs = append(errs, err)
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("errors while closing RabbitMQ: %v", errs)
	}
	return nil
}
