// Package notify shapes the booking confirmation intent and hands it to an
// external delivery transport. Delivery itself (email, SMS, WhatsApp) happens
// outside this service.
package notify

import (
	"context"
	"sort"

	"booking-engine/models"

	"github.com/google/uuid"
)

// Intent is the fixed payload consumed by the delivery workers.
type Intent struct {
	ID             string   `json:"id"`
	BookingID      string   `json:"bookingId"`
	RecipientEmail string   `json:"recipientEmail"`
	RecipientPhone string   `json:"recipientPhone"`
	BookerName     string   `json:"bookerName"`
	EventTitle     string   `json:"eventTitle"`
	EventDate      string   `json:"eventDate"`
	EventTime      string   `json:"eventTime"`
	EventVenue     string   `json:"eventVenue"`
	TicketNumbers  []string `json:"ticketNumbers"`
	QRPayloads     []string `json:"qrPayloads"`
	HolderNames    []string `json:"holderNames"`
}

type Dispatcher interface {
	Dispatch(ctx context.Context, intent Intent) error
}

// BuildIntent lists the booking's tickets in seat order as parallel arrays.
func BuildIntent(booking models.Booking, event models.Event, tickets []models.Ticket) Intent {
	ordered := append([]models.Ticket(nil), tickets...)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].SeatIndex < ordered[j].SeatIndex })

	intent := Intent{
		ID:             uuid.NewString(),
		BookingID:      booking.ID,
		RecipientEmail: booking.Email,
		RecipientPhone: booking.Phone,
		BookerName:     booking.Name,
		EventTitle:     event.Title,
		EventDate:      event.Date,
		EventTime:      event.Time,
		EventVenue:     event.Venue,
		TicketNumbers:  make([]string, 0, len(ordered)),
		QRPayloads:     make([]string, 0, len(ordered)),
		HolderNames:    make([]string, 0, len(ordered)),
	}
	for _, t := range ordered {
		intent.TicketNumbers = append(intent.TicketNumbers, t.TicketNumber)
		intent.QRPayloads = append(intent.QRPayloads, t.QRPayload)
		intent.HolderNames = append(intent.HolderNames, t.HolderName)
	}
	return intent
}
