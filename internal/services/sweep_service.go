package services

import (
	"context"
	"log/slog"
	"time"

	"booking-engine/internal/repository"
	"booking-engine/models"
	"booking-engine/monitoring"
)

// SweepNote is written on the audit records of auto-marked tickets.
const SweepNote = "auto-marked after event end"

type SweepResult struct {
	EventsProcessed int `json:"events_processed"`
	TicketsUpdated  int `json:"tickets_updated"`
	Failed          int `json:"failed"`
}

type sweepStore interface {
	repository.EventRepository
	repository.TicketRepository
	repository.AttendanceRepository
}

// SweepService closes out completed events: every ticket still unmarked
// when its event ends is marked present.
type SweepService struct {
	store    sweepStore
	location *time.Location
}

func NewSweepService(store sweepStore, location *time.Location) *SweepService {
	if location == nil {
		location = time.UTC
	}
	return &SweepService{store: store, location: location}
}

// SweepCompletedEvents marks the unset tickets of every event whose end is
// strictly before now. Only events dated up to today that still have unset
// tickets are loaded, so a second run with no new marks processes nothing.
func (s *SweepService) SweepCompletedEvents(ctx context.Context, now time.Time) (SweepResult, error) {
	started := time.Now()
	var result SweepResult

	today := now.In(s.location).Format(models.DateLayout)
	events, err := s.store.ListEventsWithUnmarkedTickets(ctx, today)
	if err != nil {
		monitoring.TrackSweep("error", time.Since(started))
		return result, err
	}

	for _, event := range events {
		if err := ctx.Err(); err != nil {
			monitoring.TrackSweep("cancelled", time.Since(started))
			return result, err
		}

		end, err := event.EndsAt(s.location)
		if err != nil {
			slog.Warn("Skipping event with invalid schedule", "event_id", event.ID, "error", err)
			continue
		}
		if !end.Before(now) {
			continue
		}

		result.EventsProcessed++
		updated, failed := s.sweepEvent(ctx, event, now)
		result.TicketsUpdated += updated
		result.Failed += failed
	}

	monitoring.TrackSweep("ok", time.Since(started))
	slog.Info("Attendance sweep completed",
		"events_processed", result.EventsProcessed,
		"tickets_updated", result.TicketsUpdated,
		"failed", result.Failed,
	)
	return result, nil
}

func (s *SweepService) sweepEvent(ctx context.Context, event models.Event, now time.Time) (updated, failed int) {
	tickets, err := s.store.ListUnmarkedTickets(ctx, event.ID)
	if err != nil {
		slog.Error("Failed to list unmarked tickets", "event_id", event.ID, "error", err)
		return 0, 1
	}

	for _, ticket := range tickets {
		changed, err := s.store.MarkIfUnset(ctx, repository.AttendanceMark{
			TicketID: ticket.ID,
			EventID:  event.ID,
			HostID:   models.SystemHostID,
			Status:   models.AttendancePresent,
			Notes:    SweepNote,
			At:       now,
		})
		if err != nil {
			failed++
			slog.Error("Failed to auto-mark ticket", "ticket_id", ticket.ID, "event_id", event.ID, "error", err)
			continue
		}
		if changed {
			updated++
			monitoring.TrackAttendance(models.AttendancePresent, "sweep")
		}
	}

	if updated > 0 {
		slog.Info("Auto-marked tickets present", "event_id", event.ID, "tickets", updated)
	}
	return updated, failed
}
