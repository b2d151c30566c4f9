package models

import (
	"time"
)

const (
	AttendancePresent = "present"
	AttendanceAbsent  = "absent"
)

type Ticket struct {
	ID           string     `json:"id"`
	BookingID    string     `json:"booking_id"`
	EventID      string     `json:"event_id"`
	SeatIndex    int        `json:"seat_index"`
	TicketNumber string     `json:"ticket_number"`
	QRPayload    string     `json:"qr_payload"`
	HolderName   string     `json:"holder_name"`
	Attended     *bool      `json:"attended"`
	AttendedAt   *time.Time `json:"attended_at,omitempty"`
	Created      time.Time  `json:"created"`
}

// AttendanceStatus maps the tri-state Attended flag to its stored form:
// "" while unmarked.
func (t Ticket) AttendanceStatus() string {
	switch {
	case t.Attended == nil:
		return ""
	case *t.Attended:
		return AttendancePresent
	default:
		return AttendanceAbsent
	}
}

func (t Ticket) IsMarked() bool {
	return t.Attended != nil
}

// AttendedFromStatus is the inverse of AttendanceStatus.
func AttendedFromStatus(status string) *bool {
	switch status {
	case AttendancePresent:
		v := true
		return &v
	case AttendanceAbsent:
		v := false
		return &v
	}
	return nil
}
