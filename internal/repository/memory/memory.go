// Package memory is an in-process Repository used by service and handler
// tests. It enforces the same unique constraints as the PocketBase schema.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"booking-engine/internal/repository"
	"booking-engine/internal/status"
	"booking-engine/models"

	"github.com/google/uuid"
)

type Store struct {
	mu sync.RWMutex

	events      map[string]models.Event
	bookings    map[string]models.Booking
	tickets     map[string]models.Ticket
	records     []models.AttendanceRecord
	hosts       map[string]models.Host
	assignments []models.HostEvent

	// FailTicketInsert, when set, is consulted before every ticket insert.
	FailTicketInsert func(t *models.Ticket) error
	// FailBookingInsert, when set, fails every booking insert with its error.
	FailBookingInsert error
	// FailAuditInsert, when set, fails the audit half of an attendance mark.
	FailAuditInsert error

	now func() time.Time
}

var _ repository.Repository = (*Store)(nil)

func New() *Store {
	return &Store{
		events:   make(map[string]models.Event),
		bookings: make(map[string]models.Booking),
		tickets:  make(map[string]models.Ticket),
		hosts:    make(map[string]models.Host),
		now:      time.Now,
	}
}

func newID() string {
	return uuid.NewString()
}

// Seeding helpers.

func (s *Store) PutEvent(e models.Event) models.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e.ID == "" {
		e.ID = newID()
	}
	s.events[e.ID] = e
	return e
}

func (s *Store) PutTicket(t models.Ticket) models.Ticket {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t.ID == "" {
		t.ID = newID()
	}
	s.tickets[t.ID] = t
	return t
}

func (s *Store) PutHost(h models.Host) models.Host {
	s.mu.Lock()
	defer s.mu.Unlock()
	if h.ID == "" {
		h.ID = newID()
	}
	s.hosts[h.ID] = h
	return h
}

func (s *Store) PutAssignment(a models.HostEvent) models.HostEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	if a.ID == "" {
		a.ID = newID()
	}
	s.assignments = append(s.assignments, a)
	return a
}

// Tickets returns every stored ticket of a booking, in seat order.
func (s *Store) Tickets(bookingID string) []models.Ticket {
	out, _ := s.ListTicketsByBooking(context.Background(), bookingID)
	return out
}

func (s *Store) AttendanceRecords() []models.AttendanceRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.AttendanceRecord(nil), s.records...)
}

func (s *Store) BookingCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.bookings)
}

// EventRepository

func (s *Store) GetEvent(ctx context.Context, id string) (*models.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.events[id]
	if !ok {
		return nil, status.ErrEventNotFound
	}
	return &e, nil
}

func (s *Store) ListEventsWithUnmarkedTickets(ctx context.Context, onOrBefore string) ([]models.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	pending := make(map[string]bool)
	for _, t := range s.tickets {
		if !t.IsMarked() {
			pending[t.EventID] = true
		}
	}

	var out []models.Event
	for _, e := range s.events {
		if e.Date <= onOrBefore && pending[e.ID] {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date < out[j].Date
		}
		return out[i].Time < out[j].Time
	})
	return out, nil
}

// BookingRepository

func (s *Store) CreateBooking(ctx context.Context, b *models.Booking) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailBookingInsert != nil {
		return fmt.Errorf("%w: %v", status.ErrPersistence, s.FailBookingInsert)
	}
	b.ID = newID()
	b.Created = s.now()
	stored := *b
	stored.TicketNames = append([]string(nil), b.TicketNames...)
	s.bookings[b.ID] = stored
	return nil
}

func (s *Store) GetBooking(ctx context.Context, id string) (*models.Booking, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.bookings[id]
	if !ok {
		return nil, status.ErrBookingNotFound
	}
	return &b, nil
}

func (s *Store) ListBookingsByUser(ctx context.Context, userID string) ([]models.Booking, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.Booking
	for _, b := range s.bookings {
		if b.UserID == userID {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Created.After(out[j].Created) })
	return out, nil
}

// TicketRepository

func (s *Store) InsertTicket(ctx context.Context, t *models.Ticket) error {
	if s.FailTicketInsert != nil {
		if err := s.FailTicketInsert(t); err != nil {
			return err
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.tickets {
		if existing.TicketNumber == t.TicketNumber {
			return status.ErrDuplicateTicketNumber
		}
		if existing.BookingID == t.BookingID && existing.SeatIndex == t.SeatIndex {
			return status.ErrSeatAlreadyIssued
		}
	}
	t.ID = newID()
	t.Created = s.now()
	s.tickets[t.ID] = *t
	return nil
}

func (s *Store) GetTicket(ctx context.Context, id string) (*models.Ticket, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.tickets[id]
	if !ok {
		return nil, status.ErrTicketNotFound
	}
	return &t, nil
}

func (s *Store) ListTicketsByBooking(ctx context.Context, bookingID string) ([]models.Ticket, error) {
	return s.filterTickets(func(t models.Ticket) bool { return t.BookingID == bookingID }), nil
}

func (s *Store) ListUnmarkedTickets(ctx context.Context, eventID string) ([]models.Ticket, error) {
	return s.filterTickets(func(t models.Ticket) bool { return t.EventID == eventID && !t.IsMarked() }), nil
}

func (s *Store) filterTickets(keep func(models.Ticket) bool) []models.Ticket {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.Ticket
	for _, t := range s.tickets {
		if keep(t) {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].BookingID != out[j].BookingID {
			return out[i].BookingID < out[j].BookingID
		}
		return out[i].SeatIndex < out[j].SeatIndex
	})
	return out
}

func (s *Store) FindTicketByNumber(ctx context.Context, ticketNumber, eventID string) (*models.Ticket, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, t := range s.tickets {
		if t.TicketNumber == ticketNumber && t.EventID == eventID {
			return &t, nil
		}
	}
	return nil, status.ErrTicketNotFound
}

// AttendanceRepository

func (s *Store) MarkAttendance(ctx context.Context, m repository.AttendanceMark) (*models.Ticket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tickets[m.TicketID]
	if !ok {
		return nil, status.ErrTicketNotFound
	}
	if err := s.applyLocked(t, m); err != nil {
		return nil, err
	}
	updated := s.tickets[m.TicketID]
	return &updated, nil
}

func (s *Store) MarkIfUnset(ctx context.Context, m repository.AttendanceMark) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tickets[m.TicketID]
	if !ok {
		return false, status.ErrTicketNotFound
	}
	if t.IsMarked() {
		return false, nil
	}
	if err := s.applyLocked(t, m); err != nil {
		return false, err
	}
	return true, nil
}

// applyLocked writes both halves of a mark or neither.
func (s *Store) applyLocked(t models.Ticket, m repository.AttendanceMark) error {
	if s.FailAuditInsert != nil {
		return fmt.Errorf("%w: %v", status.ErrPersistence, s.FailAuditInsert)
	}
	at := m.At
	t.Attended = models.AttendedFromStatus(m.Status)
	t.AttendedAt = &at
	s.tickets[t.ID] = t

	s.records = append(s.records, models.AttendanceRecord{
		ID:       newID(),
		TicketID: m.TicketID,
		EventID:  m.EventID,
		HostID:   m.HostID,
		Status:   m.Status,
		Notes:    m.Notes,
		MarkedAt: m.At,
	})
	return nil
}

func (s *Store) ListAttendanceRecords(ctx context.Context, ticketID string) ([]models.AttendanceRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.AttendanceRecord
	for _, r := range s.records {
		if r.TicketID == ticketID {
			out = append(out, r)
		}
	}
	return out, nil
}

// HostRepository

func (s *Store) FindHostByUser(ctx context.Context, userID string) (*models.Host, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, h := range s.hosts {
		if h.UserID == userID {
			return &h, nil
		}
	}
	return nil, status.ErrForbidden
}

func (s *Store) GetAssignment(ctx context.Context, hostID, eventID string) (*models.HostEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, a := range s.assignments {
		if a.HostID == hostID && a.EventID == eventID {
			return &a, nil
		}
	}
	return nil, nil
}

// ReportRepository

func (s *Store) CountAttendance(ctx context.Context, eventID string) (repository.AttendanceCounts, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var c repository.AttendanceCounts
	for _, t := range s.tickets {
		if t.EventID == eventID {
			tally(&c, t)
		}
	}
	return c, nil
}

func (s *Store) CountAttendanceByCity(ctx context.Context) ([]repository.CityCounts, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	byCity := make(map[string]*repository.CityCounts)
	for _, e := range s.events {
		c, ok := byCity[e.City]
		if !ok {
			c = &repository.CityCounts{City: e.City}
			byCity[e.City] = c
		}
		c.Events++
		for _, t := range s.tickets {
			if t.EventID == e.ID {
				tally(&c.AttendanceCounts, t)
			}
		}
	}

	out := make([]repository.CityCounts, 0, len(byCity))
	for _, c := range byCity {
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].City < out[j].City })
	return out, nil
}

func tally(c *repository.AttendanceCounts, t models.Ticket) {
	c.Total++
	switch t.AttendanceStatus() {
	case models.AttendancePresent:
		c.Present++
	case models.AttendanceAbsent:
		c.Absent++
	}
}
