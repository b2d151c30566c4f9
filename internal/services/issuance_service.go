package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"booking-engine/internal/notify"
	"booking-engine/internal/repository"
	"booking-engine/internal/status"
	"booking-engine/models"
	"booking-engine/monitoring"
)

// Locker guards work that must not run twice at once across instances.
type Locker interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (release func(), err error)
}

// TicketNumberer hands out candidate ticket numbers and their QR payloads.
type TicketNumberer interface {
	Reserve(ctx context.Context) (string, error)
	QRPayload(ticketNumber string) string
}

type issuanceStore interface {
	repository.EventRepository
	repository.BookingRepository
	repository.TicketRepository
}

type IssueResult struct {
	BookingID string `json:"booking_id"`
	Issued    int    `json:"issued"`
	Existing  int    `json:"existing"`
	Failed    int    `json:"failed"`
	// Skipped is set when nothing needed issuing or another worker holds
	// the booking.
	Skipped       bool     `json:"skipped"`
	InProgress    bool     `json:"in_progress"`
	TicketNumbers []string `json:"ticket_numbers,omitempty"`
}

type IssuanceConfig struct {
	LockTTL time.Duration
	Retries int
}

type IssuanceService struct {
	store      issuanceStore
	numbers    TicketNumberer
	locker     Locker
	dispatcher notify.Dispatcher
	config     IssuanceConfig
}

// NewIssuanceService wires issuance. locker and dispatcher may be nil.
func NewIssuanceService(store issuanceStore, numbers TicketNumberer, locker Locker, dispatcher notify.Dispatcher, config IssuanceConfig) *IssuanceService {
	if config.LockTTL <= 0 {
		config.LockTTL = 30 * time.Second
	}
	if config.Retries <= 0 {
		config.Retries = 5
	}
	return &IssuanceService{
		store:      store,
		numbers:    numbers,
		locker:     locker,
		dispatcher: dispatcher,
		config:     config,
	}
}

func issuanceLockKey(bookingID string) string {
	return fmt.Sprintf("lock:issuance:%s", bookingID)
}

// IssueTickets creates one ticket per seat of the booking that does not have
// one yet, in seat order. It is safe to call any number of times: seats
// already issued are left alone. Per-seat and notification failures are
// logged and counted, never returned.
func (s *IssuanceService) IssueTickets(ctx context.Context, bookingID string) (IssueResult, error) {
	result := IssueResult{BookingID: bookingID}

	booking, err := s.store.GetBooking(ctx, bookingID)
	if err != nil {
		return result, err
	}
	if booking.Status == models.BookingStatusCancelled {
		result.Skipped = true
		monitoring.TrackIssuanceRun("cancelled")
		return result, nil
	}

	event, err := s.store.GetEvent(ctx, booking.EventID)
	if err != nil {
		return result, err
	}

	if s.locker != nil {
		release, err := s.locker.Acquire(ctx, issuanceLockKey(bookingID), s.config.LockTTL)
		switch {
		case errors.Is(err, status.ErrLockNotAcquired):
			slog.Info("Issuance already running", "booking_id", bookingID)
			result.Skipped = true
			result.InProgress = true
			monitoring.TrackIssuanceRun("in_progress")
			return result, nil
		case err != nil:
			// the seat unique index still prevents double issuance
			slog.Warn("Issuance lock unavailable, continuing without it", "booking_id", bookingID, "error", err)
		default:
			defer release()
		}
	}

	existing, err := s.store.ListTicketsByBooking(ctx, bookingID)
	if err != nil {
		return result, err
	}

	missing := missingSeats(booking.Tickets, existing)
	result.Existing = booking.Tickets - len(missing)
	if len(missing) == 0 {
		result.Skipped = true
		monitoring.TrackIssuanceRun("skipped")
		return result, nil
	}

	for _, seat := range missing {
		ticket, err := s.issueSeat(ctx, booking, seat)
		switch {
		case errors.Is(err, status.ErrSeatAlreadyIssued):
			result.Existing++
		case err != nil:
			result.Failed++
			slog.Error("Failed to issue ticket", "booking_id", bookingID, "seat_index", seat, "error", err)
		default:
			result.Issued++
			result.TicketNumbers = append(result.TicketNumbers, ticket.TicketNumber)
		}
	}

	monitoring.TrackTickets("issued", result.Issued)
	monitoring.TrackTickets("failed", result.Failed)
	monitoring.TrackIssuanceRun("issued")

	if result.Issued > 0 {
		s.notify(ctx, *booking, *event)
	}

	slog.Info("Tickets issued",
		"booking_id", bookingID,
		"issued", result.Issued,
		"existing", result.Existing,
		"failed", result.Failed,
	)
	return result, nil
}

// missingSeats returns the seat indices in [0, tickets) without a ticket.
func missingSeats(tickets int, existing []models.Ticket) []int {
	have := make(map[int]bool, len(existing))
	for _, t := range existing {
		have[t.SeatIndex] = true
	}

	var missing []int
	for i := 0; i < tickets; i++ {
		if !have[i] {
			missing = append(missing, i)
		}
	}
	return missing
}

// HolderName is the name printed on seat i: the listed holder when given,
// otherwise "<booker> <i+1>".
func HolderName(booking models.Booking, seat int) string {
	if seat < len(booking.TicketNames) {
		if name := strings.TrimSpace(booking.TicketNames[seat]); name != "" {
			return name
		}
	}
	return fmt.Sprintf("%s %d", booking.Name, seat+1)
}

func (s *IssuanceService) issueSeat(ctx context.Context, booking *models.Booking, seat int) (*models.Ticket, error) {
	for attempt := 1; attempt <= s.config.Retries; attempt++ {
		number, err := s.numbers.Reserve(ctx)
		if err != nil {
			return nil, err
		}

		ticket := &models.Ticket{
			BookingID:    booking.ID,
			EventID:      booking.EventID,
			SeatIndex:    seat,
			TicketNumber: number,
			QRPayload:    s.numbers.QRPayload(number),
			HolderName:   HolderName(*booking, seat),
		}

		err = s.store.InsertTicket(ctx, ticket)
		if errors.Is(err, status.ErrDuplicateTicketNumber) {
			monitoring.TrackTicketNumberCollision()
			slog.Warn("Ticket number collision, regenerating", "ticket_number", number, "attempt", attempt)
			continue
		}
		if err != nil {
			return nil, err
		}
		return ticket, nil
	}
	return nil, status.ErrTicketNumberExhausted
}

func (s *IssuanceService) notify(ctx context.Context, booking models.Booking, event models.Event) {
	if s.dispatcher == nil {
		return
	}

	tickets, err := s.store.ListTicketsByBooking(ctx, booking.ID)
	if err != nil {
		slog.Warn("Skipping notification, could not reload tickets", "booking_id", booking.ID, "error", err)
		return
	}

	intent := notify.BuildIntent(booking, event, tickets)
	if err := s.dispatcher.Dispatch(ctx, intent); err != nil {
		slog.Warn("Notification dispatch failed", "booking_id", booking.ID, "intent_id", intent.ID, "error", err)
	}
}
