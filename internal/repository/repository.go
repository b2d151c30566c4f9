// Package repository is the booking store. Store is the PocketBase-backed
// implementation used in production; package memory holds an in-process one
// for tests.
package repository

import (
	"context"
	"time"

	"booking-engine/models"
)

const (
	CollectionEvents     = "events"
	CollectionBookings   = "bookings"
	CollectionTickets    = "tickets"
	CollectionAttendance = "attendance_records"
	CollectionHosts      = "hosts"
	CollectionHostEvents = "host_events"
)

type EventRepository interface {
	GetEvent(ctx context.Context, id string) (*models.Event, error)
	// ListEventsWithUnmarkedTickets returns events dated on or before
	// onOrBefore ("YYYY-MM-DD") that still have at least one unmarked ticket,
	// ordered by date and time.
	ListEventsWithUnmarkedTickets(ctx context.Context, onOrBefore string) ([]models.Event, error)
}

type BookingRepository interface {
	// CreateBooking inserts b and fills in its ID and Created time.
	CreateBooking(ctx context.Context, b *models.Booking) error
	GetBooking(ctx context.Context, id string) (*models.Booking, error)
	ListBookingsByUser(ctx context.Context, userID string) ([]models.Booking, error)
}

type TicketRepository interface {
	// InsertTicket returns status.ErrDuplicateTicketNumber or
	// status.ErrSeatAlreadyIssued on the matching unique conflict.
	InsertTicket(ctx context.Context, t *models.Ticket) error
	GetTicket(ctx context.Context, id string) (*models.Ticket, error)
	// ListTicketsByBooking returns tickets in seat order.
	ListTicketsByBooking(ctx context.Context, bookingID string) ([]models.Ticket, error)
	ListUnmarkedTickets(ctx context.Context, eventID string) ([]models.Ticket, error)
	FindTicketByNumber(ctx context.Context, ticketNumber, eventID string) (*models.Ticket, error)
}

// AttendanceMark is one attendance transition together with its audit entry.
type AttendanceMark struct {
	TicketID string
	EventID  string
	HostID   string
	Status   string
	Notes    string
	At       time.Time
}

type AttendanceRepository interface {
	// MarkAttendance updates the ticket and appends the audit record in one
	// transaction.
	MarkAttendance(ctx context.Context, m AttendanceMark) (*models.Ticket, error)
	// MarkIfUnset is MarkAttendance for tickets that are still unmarked when
	// the transaction runs. It reports whether the ticket was changed.
	MarkIfUnset(ctx context.Context, m AttendanceMark) (bool, error)
	ListAttendanceRecords(ctx context.Context, ticketID string) ([]models.AttendanceRecord, error)
}

type HostRepository interface {
	FindHostByUser(ctx context.Context, userID string) (*models.Host, error)
	// GetAssignment returns nil without error when the host is not assigned.
	GetAssignment(ctx context.Context, hostID, eventID string) (*models.HostEvent, error)
}

// AttendanceCounts is the tally of one event's tickets.
type AttendanceCounts struct {
	Total   int
	Present int
	Absent  int
}

type CityCounts struct {
	City   string
	Events int
	AttendanceCounts
}

type ReportRepository interface {
	CountAttendance(ctx context.Context, eventID string) (AttendanceCounts, error)
	// CountAttendanceByCity is ordered by city.
	CountAttendanceByCity(ctx context.Context) ([]CityCounts, error)
}

// Repository is everything the services need from storage.
type Repository interface {
	EventRepository
	BookingRepository
	TicketRepository
	AttendanceRepository
	HostRepository
	ReportRepository
}
