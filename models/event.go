package models

import (
	"fmt"
	"time"
)

const (
	EventStatusUpcoming  = "upcoming"
	EventStatusOngoing   = "ongoing"
	EventStatusCompleted = "completed"
)

// DateLayout is the format of Event.Date.
const DateLayout = "2006-01-02"

// DefaultEventGrace is used as the event length when no duration was entered.
const DefaultEventGrace = 4 * time.Hour

type Event struct {
	ID              string  `json:"id"`
	Title           string  `json:"title"`
	Date            string  `json:"date"` // YYYY-MM-DD
	Time            string  `json:"time"` // HH:MM
	DurationMinutes int     `json:"duration_minutes,omitempty"`
	Price           float64 `json:"price"`
	BasePrice       float64 `json:"base_price"`
	GST             float64 `json:"gst"`
	ConvenienceFee  float64 `json:"convenience_fee"`
	Subtotal        float64 `json:"subtotal"`
	TicketPrice     float64 `json:"ticket_price"`
	HasDiscount     bool    `json:"has_discount"`
	RealPrice       float64 `json:"real_price"`
	DiscountedPrice float64 `json:"discounted_price"`
	City            string  `json:"city"`
	Venue           string  `json:"venue"`
}

// UnitPrice is the amount charged per ticket. Older events only carry price.
func (e Event) UnitPrice() float64 {
	if e.TicketPrice > 0 {
		return e.TicketPrice
	}
	return e.Price
}

// StartsAt parses Date and Time in loc. A missing time means midnight.
func (e Event) StartsAt(loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	if e.Time == "" {
		return time.ParseInLocation(DateLayout, e.Date, loc)
	}
	layouts := []string{DateLayout + " 15:04", DateLayout + " 15:04:05"}
	for _, layout := range layouts {
		if t, err := time.ParseInLocation(layout, e.Date+" "+e.Time, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("event %s: unparseable schedule %q %q", e.ID, e.Date, e.Time)
}

// EndsAt is the scheduled start plus the duration, or plus DefaultEventGrace.
func (e Event) EndsAt(loc *time.Location) (time.Time, error) {
	start, err := e.StartsAt(loc)
	if err != nil {
		return time.Time{}, err
	}
	if e.DurationMinutes > 0 {
		return start.Add(time.Duration(e.DurationMinutes) * time.Minute), nil
	}
	return start.Add(DefaultEventGrace), nil
}

// Status derives upcoming/ongoing/completed from the schedule and now. It is
// never persisted.
func (e Event) Status(now time.Time, loc *time.Location) (string, error) {
	start, err := e.StartsAt(loc)
	if err != nil {
		return "", err
	}
	end, _ := e.EndsAt(loc)

	switch {
	case now.Before(start):
		return EventStatusUpcoming, nil
	case end.Before(now):
		return EventStatusCompleted, nil
	default:
		return EventStatusOngoing, nil
	}
}
