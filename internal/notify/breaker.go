package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"booking-engine/internal/status"
	"booking-engine/monitoring"
	"booking-engine/utils"
)

// BreakerDispatcher stops calling a failing transport until the breaker
// half-opens again.
type BreakerDispatcher struct {
	next      Dispatcher
	breaker   *utils.CircuitBreaker
	transport string
}

func NewBreakerDispatcher(transport string, next Dispatcher, breaker *utils.CircuitBreaker) *BreakerDispatcher {
	return &BreakerDispatcher{next: next, breaker: breaker, transport: transport}
}

func (d *BreakerDispatcher) Dispatch(ctx context.Context, intent Intent) error {
	_, err := d.breaker.Execute(ctx, func() (any, error) {
		return nil, d.next.Dispatch(ctx, intent)
	})
	switch {
	case err == nil:
		monitoring.TrackNotification(d.transport, "sent")
		return nil
	case errors.Is(err, status.ErrCircuitOpen), errors.Is(err, utils.ErrTooManyRequests):
		monitoring.TrackNotification(d.transport, "rejected")
		slog.Warn("Notification transport unavailable", "transport", d.transport, "booking_id", intent.BookingID)
		return fmt.Errorf("%w: %w", status.ErrNotificationDispatch, err)
	default:
		monitoring.TrackNotification(d.transport, "failed")
		if !errors.Is(err, status.ErrNotificationDispatch) {
			err = fmt.Errorf("%w: %v", status.ErrNotificationDispatch, err)
		}
		return err
	}
}

// New builds the dispatcher named by transport ("amqp", "kafka" or "log"),
// wrapped in a circuit breaker. The returned close func releases the
// transport.
func New(transport string, amqpConfig AMQPConfig, kafkaBrokers []string, kafkaTopic string) (Dispatcher, func() error, error) {
	breaker := utils.NewCircuitBreakerWithSettings("notify-"+transport, utils.BreakerSettings{
		MaxRequests:  10,
		FailureRatio: 0.5,
	})

	switch transport {
	case "amqp":
		d, err := NewAMQPDispatcher(amqpConfig)
		if err != nil {
			return nil, nil, err
		}
		return NewBreakerDispatcher(transport, d, breaker), d.Close, nil
	case "kafka":
		d := NewKafkaDispatcher(kafkaBrokers, kafkaTopic)
		return NewBreakerDispatcher(transport, d, breaker), d.Close, nil
	case "log", "":
		return NewBreakerDispatcher("log", NewLogDispatcher(nil), breaker), func() error { return nil }, nil
	}
	return nil, nil, fmt.Errorf("unknown notification transport %q", transport)
}
