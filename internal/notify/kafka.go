package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"booking-engine/internal/status"

	"github.com/segmentio/kafka-go"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaDispatcher writes intents to a topic keyed by booking id, so every
// intent of one booking lands on the same partition.
type KafkaDispatcher struct {
	writer messageWriter
	topic  string
}

func NewKafkaDispatcher(brokers []string, topic string) *KafkaDispatcher {
	writer := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		BatchTimeout:           10 * time.Millisecond,
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: true,
	}
	return &KafkaDispatcher{writer: writer, topic: topic}
}

func (d *KafkaDispatcher) Dispatch(ctx context.Context, intent Intent) error {
	body, err := json.Marshal(intent)
	if err != nil {
		return fmt.Errorf("%w: marshal intent: %v", status.ErrNotificationDispatch, err)
	}

	msg := kafka.Message{
		Key:   []byte(intent.BookingID),
		Value: body,
		Time:  time.Now(),
		Headers: []kafka.Header{
			{Key: "intent-id", Value: []byte(intent.ID)},
		},
	}

	if err := d.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("%w: write to %s: %v", status.ErrNotificationDispatch, d.topic, err)
	}
	return nil
}

func (d *KafkaDispatcher) Close() error {
	return d.writer.Close()
}
