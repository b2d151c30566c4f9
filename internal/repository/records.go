package repository

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"booking-engine/internal/status"
	"booking-engine/models"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/pocketbase/pocketbase/core"
)

func eventFromRecord(r *core.Record) models.Event {
	return models.Event{
		ID:              r.Id,
		Title:           r.GetString("title"),
		Date:            r.GetString("date"),
		Time:            r.GetString("time"),
		DurationMinutes: r.GetInt("duration_minutes"),
		Price:           r.GetFloat("price"),
		BasePrice:       r.GetFloat("base_price"),
		GST:             r.GetFloat("gst"),
		ConvenienceFee:  r.GetFloat("convenience_fee"),
		Subtotal:        r.GetFloat("subtotal"),
		TicketPrice:     r.GetFloat("ticket_price"),
		HasDiscount:     r.GetBool("has_discount"),
		RealPrice:       r.GetFloat("real_price"),
		DiscountedPrice: r.GetFloat("discounted_price"),
		City:            r.GetString("city"),
		Venue:           r.GetString("venue"),
	}
}

func bookingFromRecord(r *core.Record) models.Booking {
	var names []string
	_ = r.UnmarshalJSONField("ticket_names", &names)

	return models.Booking{
		ID:             r.Id,
		UserID:         r.GetString("user_id"),
		EventID:        r.GetString("event_id"),
		Name:           r.GetString("name"),
		Email:          r.GetString("email"),
		Phone:          r.GetString("phone"),
		Tickets:        r.GetInt("tickets"),
		Amount:         r.GetFloat("amount"),
		Status:         r.GetString("status"),
		TicketNames:    names,
		CouponCode:     r.GetString("coupon_code"),
		DiscountAmount: r.GetFloat("discount_amount"),
		PaymentID:      r.GetString("payment_id"),
		Created:        r.GetDateTime("created").Time(),
	}
}

func bookingToRecord(b *models.Booking, r *core.Record) {
	names := b.TicketNames
	if names == nil {
		names = []string{}
	}

	r.Set("user_id", b.UserID)
	r.Set("event_id", b.EventID)
	r.Set("name", b.Name)
	r.Set("email", b.Email)
	r.Set("phone", b.Phone)
	r.Set("tickets", b.Tickets)
	r.Set("amount", b.Amount)
	r.Set("status", b.Status)
	r.Set("ticket_names", names)
	r.Set("coupon_code", b.CouponCode)
	r.Set("discount_amount", b.DiscountAmount)
	r.Set("payment_id", b.PaymentID)
}

func ticketFromRecord(r *core.Record) models.Ticket {
	t := models.Ticket{
		ID:           r.Id,
		BookingID:    r.GetString("booking_id"),
		EventID:      r.GetString("event_id"),
		SeatIndex:    r.GetInt("seat_index"),
		TicketNumber: r.GetString("ticket_number"),
		QRPayload:    r.GetString("qr_payload"),
		HolderName:   r.GetString("holder_name"),
		Attended:     models.AttendedFromStatus(r.GetString("attendance")),
		Created:      r.GetDateTime("created").Time(),
	}
	if at := r.GetDateTime("attended_at"); !at.IsZero() {
		v := at.Time()
		t.AttendedAt = &v
	}
	return t
}

func ticketToRecord(t *models.Ticket, r *core.Record) {
	r.Set("booking_id", t.BookingID)
	r.Set("event_id", t.EventID)
	r.Set("seat_index", t.SeatIndex)
	r.Set("ticket_number", t.TicketNumber)
	r.Set("qr_payload", t.QRPayload)
	r.Set("holder_name", t.HolderName)
	r.Set("attendance", t.AttendanceStatus())
	if t.AttendedAt != nil {
		r.Set("attended_at", *t.AttendedAt)
	} else {
		r.Set("attended_at", "")
	}
}

func attendanceRecordFromRecord(r *core.Record) models.AttendanceRecord {
	return models.AttendanceRecord{
		ID:       r.Id,
		TicketID: r.GetString("ticket_id"),
		EventID:  r.GetString("event_id"),
		HostID:   r.GetString("host_id"),
		Status:   r.GetString("status"),
		Notes:    r.GetString("notes"),
		MarkedAt: r.GetDateTime("marked_at").Time(),
	}
}

func attendanceMarkToRecord(m AttendanceMark, r *core.Record) {
	r.Set("ticket_id", m.TicketID)
	r.Set("event_id", m.EventID)
	r.Set("host_id", m.HostID)
	r.Set("status", m.Status)
	r.Set("notes", m.Notes)
	r.Set("marked_at", m.At)
}

// applyMark moves the ticket record to m.Status.
func applyMark(m AttendanceMark, r *core.Record) {
	r.Set("attendance", m.Status)
	r.Set("attended_at", m.At)
}

func hostFromRecord(r *core.Record) models.Host {
	return models.Host{
		ID:         r.Id,
		UserID:     r.GetString("user_id"),
		Name:       r.GetString("name"),
		IsVerified: r.GetBool("is_verified"),
		IsActive:   r.GetBool("is_active"),
	}
}

func hostEventFromRecord(r *core.Record) models.HostEvent {
	return models.HostEvent{
		ID:             r.Id,
		HostID:         r.GetString("host_id"),
		EventID:        r.GetString("event_id"),
		MarkAttendance: r.GetBool("mark_attendance"),
		ViewBookings:   r.GetBool("view_bookings"),
		CreateEvents:   r.GetBool("create_events"),
	}
}

// ticketConflict maps a unique index violation on tickets to its sentinel. It
// recognises both the record validator's field errors and the raw SQLite
// constraint message.
func ticketConflict(err error) error {
	if err == nil {
		return nil
	}

	var verrs validation.Errors
	if errors.As(err, &verrs) {
		if isNotUnique(verrs["ticket_number"]) {
			return fmt.Errorf("%w: %v", status.ErrDuplicateTicketNumber, err)
		}
		if isNotUnique(verrs["seat_index"]) || isNotUnique(verrs["booking_id"]) {
			return fmt.Errorf("%w: %v", status.ErrSeatAlreadyIssued, err)
		}
	}

	msg := err.Error()
	if strings.Contains(msg, "UNIQUE constraint failed") {
		switch {
		case strings.Contains(msg, "ticket_number"):
			return fmt.Errorf("%w: %v", status.ErrDuplicateTicketNumber, err)
		case strings.Contains(msg, "seat_index"):
			return fmt.Errorf("%w: %v", status.ErrSeatAlreadyIssued, err)
		}
	}
	return nil
}

func isNotUnique(err error) bool {
	var verr validation.Error
	return errors.As(err, &verr) && verr.Code() == "validation_not_unique"
}

// notFound converts sql.ErrNoRows into the given sentinel.
func notFound(err error, sentinel error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return sentinel
	}
	return fmt.Errorf("%w: %v", status.ErrPersistence, err)
}
