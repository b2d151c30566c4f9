package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"booking-engine/internal/repository"
	"booking-engine/internal/status"
	"booking-engine/internal/ticketno"
	"booking-engine/models"
	"booking-engine/monitoring"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

type MarkParams struct {
	TicketID string `json:"ticket_id"`
	EventID  string `json:"event_id"`
	Status   string `json:"status"`
	Notes    string `json:"notes"`
}

func (p MarkParams) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.TicketID, validation.Required),
		validation.Field(&p.EventID, validation.Required),
		validation.Field(&p.Status, validation.Required, validation.In(models.AttendancePresent, models.AttendanceAbsent)),
		validation.Field(&p.Notes, validation.Length(0, 500)),
	)
}

type attendanceStore interface {
	repository.TicketRepository
	repository.AttendanceRepository
}

type AttendanceService struct {
	store      attendanceStore
	authorizer *Authorizer
	now        func() time.Time
}

func NewAttendanceService(store attendanceStore, authorizer *Authorizer) *AttendanceService {
	return &AttendanceService{store: store, authorizer: authorizer, now: time.Now}
}

// MarkAttendance records a host's present/absent decision. Re-marking
// overwrites the ticket's current state and appends another audit record.
func (s *AttendanceService) MarkAttendance(ctx context.Context, session models.Session, p MarkParams) (*models.Ticket, error) {
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", status.ErrValidation, err)
	}

	if err := s.authorizer.Require(ctx, session, p.EventID, CapMarkAttendance); err != nil {
		return nil, err
	}
	session = s.authorizer.ResolveHost(ctx, session)

	ticket, err := s.store.GetTicket(ctx, p.TicketID)
	if err != nil {
		return nil, err
	}
	if ticket.EventID != p.EventID {
		return nil, fmt.Errorf("%w: ticket %s is not for event %s", status.ErrTicketNotFound, p.TicketID, p.EventID)
	}

	hostID := session.HostID
	if hostID == "" {
		hostID = session.UserID
	}

	updated, err := s.store.MarkAttendance(ctx, repository.AttendanceMark{
		TicketID: p.TicketID,
		EventID:  p.EventID,
		HostID:   hostID,
		Status:   p.Status,
		Notes:    strings.TrimSpace(p.Notes),
		At:       s.now(),
	})
	if err != nil {
		slog.Error("Failed to mark attendance", "ticket_id", p.TicketID, "status", p.Status, "error", err)
		return nil, err
	}

	monitoring.TrackAttendance(p.Status, "host")
	slog.Info("Attendance marked", "ticket_id", p.TicketID, "event_id", p.EventID, "status", p.Status, "host_id", hostID)
	return updated, nil
}

// SearchTicket resolves a scanned or typed ticket number within an event.
func (s *AttendanceService) SearchTicket(ctx context.Context, session models.Session, ticketNumber, eventID string) (*models.Ticket, error) {
	ticketNumber = strings.TrimSpace(ticketNumber)
	if ticketNumber == "" || eventID == "" {
		return nil, fmt.Errorf("%w: ticket number and event are required", status.ErrValidation)
	}
	if err := s.authorizer.Require(ctx, session, eventID, CapMarkAttendance); err != nil {
		return nil, err
	}
	// no issued ticket can match a number in any other shape
	if _, _, err := ticketno.Parse(ticketNumber); err != nil {
		return nil, fmt.Errorf("%w: %v", status.ErrTicketNotFound, err)
	}
	return s.store.FindTicketByNumber(ctx, ticketNumber, eventID)
}

// History returns the audit trail of a ticket, oldest first.
func (s *AttendanceService) History(ctx context.Context, session models.Session, ticketID string) ([]models.AttendanceRecord, error) {
	ticket, err := s.store.GetTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if err := s.authorizer.Require(ctx, session, ticket.EventID, CapViewBookings); err != nil {
		return nil, err
	}
	return s.store.ListAttendanceRecords(ctx, ticketID)
}
