package notify

import (
	"context"
	"log/slog"
)

// LogDispatcher only logs the intent. It is the default in development.
type LogDispatcher struct {
	logger *slog.Logger
}

func NewLogDispatcher(logger *slog.Logger) *LogDispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogDispatcher{logger: logger}
}

func (d *LogDispatcher) Dispatch(ctx context.Context, intent Intent) error {
	d.logger.InfoContext(ctx, "Notification intent",
		"intent_id", intent.ID,
		"booking_id", intent.BookingID,
		"recipient", intent.RecipientEmail,
		"tickets", len(intent.TicketNumbers),
	)
	return nil
}
