package models

import (
	"time"
)

const (
	BookingStatusPending   = "pending"
	BookingStatusConfirmed = "confirmed"
	BookingStatusCancelled = "cancelled"
)

type Contact struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

type Booking struct {
	ID             string    `json:"id"`
	UserID         string    `json:"user_id"`
	EventID        string    `json:"event_id"`
	Name           string    `json:"name"`
	Email          string    `json:"email"`
	Phone          string    `json:"phone"`
	Tickets        int       `json:"tickets"`
	Amount         float64   `json:"amount"`
	Status         string    `json:"status"` // pending, confirmed, cancelled
	TicketNames    []string  `json:"ticket_names,omitempty"`
	CouponCode     string    `json:"coupon_code,omitempty"`
	DiscountAmount float64   `json:"discount_amount"`
	PaymentID      string    `json:"payment_id,omitempty"`
	Created        time.Time `json:"created"`
}

func (b Booking) Contact() Contact {
	return Contact{Name: b.Name, Email: b.Email, Phone: b.Phone}
}
