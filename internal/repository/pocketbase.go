package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"booking-engine/internal/status"
	"booking-engine/models"

	"github.com/pocketbase/dbx"
	"github.com/pocketbase/pocketbase/core"
)

// Store implements Repository on PocketBase collections.
type Store struct {
	app core.App
}

var _ Repository = (*Store)(nil)

func NewStore(app core.App) *Store {
	return &Store{app: app}
}

func (s *Store) GetEvent(ctx context.Context, id string) (*models.Event, error) {
	record, err := s.app.FindRecordById(CollectionEvents, id)
	if err != nil {
		return nil, notFound(err, status.ErrEventNotFound)
	}
	event := eventFromRecord(record)
	return &event, nil
}

func (s *Store) ListEventsWithUnmarkedTickets(ctx context.Context, onOrBefore string) ([]models.Event, error) {
	var records []*core.Record
	err := s.app.RecordQuery(CollectionEvents).
		WithContext(ctx).
		AndWhere(dbx.NewExp("[[events.date]] <= {:until}", dbx.Params{"until": onOrBefore})).
		AndWhere(dbx.Exists(dbx.NewExp(
			"SELECT 1 FROM [[tickets]] t WHERE t.event_id = [[events.id]] AND t.attendance = ''",
		))).
		OrderBy("events.date ASC", "events.time ASC").
		All(&records)
	if err != nil {
		return nil, fmt.Errorf("%w: list events to sweep: %v", status.ErrPersistence, err)
	}

	events := make([]models.Event, 0, len(records))
	for _, r := range records {
		events = append(events, eventFromRecord(r))
	}
	return events, nil
}

func (s *Store) CreateBooking(ctx context.Context, b *models.Booking) error {
	collection, err := s.app.FindCollectionByNameOrId(CollectionBookings)
	if err != nil {
		return fmt.Errorf("%w: %v", status.ErrPersistence, err)
	}

	record := core.NewRecord(collection)
	bookingToRecord(b, record)

	if err := s.app.SaveWithContext(ctx, record); err != nil {
		return fmt.Errorf("%w: save booking: %v", status.ErrPersistence, err)
	}

	b.ID = record.Id
	b.Created = record.GetDateTime("created").Time()
	return nil
}

func (s *Store) GetBooking(ctx context.Context, id string) (*models.Booking, error) {
	record, err := s.app.FindRecordById(CollectionBookings, id)
	if err != nil {
		return nil, notFound(err, status.ErrBookingNotFound)
	}
	booking := bookingFromRecord(record)
	return &booking, nil
}

func (s *Store) ListBookingsByUser(ctx context.Context, userID string) ([]models.Booking, error) {
	records, err := s.app.FindRecordsByFilter(
		CollectionBookings,
		"user_id = {:userId}",
		"-created",
		0,
		0,
		dbx.Params{"userId": userID},
	)
	if err != nil {
		return nil, fmt.Errorf("%w: list bookings: %v", status.ErrPersistence, err)
	}

	bookings := make([]models.Booking, 0, len(records))
	for _, r := range records {
		bookings = append(bookings, bookingFromRecord(r))
	}
	return bookings, nil
}

func (s *Store) InsertTicket(ctx context.Context, t *models.Ticket) error {
	collection, err := s.app.FindCollectionByNameOrId(CollectionTickets)
	if err != nil {
		return fmt.Errorf("%w: %v", status.ErrPersistence, err)
	}

	record := core.NewRecord(collection)
	ticketToRecord(t, record)

	if err := s.app.SaveWithContext(ctx, record); err != nil {
		if conflict := ticketConflict(err); conflict != nil {
			return conflict
		}
		return fmt.Errorf("%w: save ticket: %v", status.ErrPersistence, err)
	}

	t.ID = record.Id
	t.Created = record.GetDateTime("created").Time()
	return nil
}

func (s *Store) GetTicket(ctx context.Context, id string) (*models.Ticket, error) {
	record, err := s.app.FindRecordById(CollectionTickets, id)
	if err != nil {
		return nil, notFound(err, status.ErrTicketNotFound)
	}
	ticket := ticketFromRecord(record)
	return &ticket, nil
}

func (s *Store) ListTicketsByBooking(ctx context.Context, bookingID string) ([]models.Ticket, error) {
	return s.findTickets("booking_id = {:bookingId}", dbx.Params{"bookingId": bookingID})
}

func (s *Store) ListUnmarkedTickets(ctx context.Context, eventID string) ([]models.Ticket, error) {
	return s.findTickets("event_id = {:eventId} && attendance = ''", dbx.Params{"eventId": eventID})
}

func (s *Store) findTickets(filter string, params dbx.Params) ([]models.Ticket, error) {
	records, err := s.app.FindRecordsByFilter(CollectionTickets, filter, "seat_index", 0, 0, params)
	if err != nil {
		return nil, fmt.Errorf("%w: list tickets: %v", status.ErrPersistence, err)
	}

	tickets := make([]models.Ticket, 0, len(records))
	for _, r := range records {
		tickets = append(tickets, ticketFromRecord(r))
	}
	return tickets, nil
}

func (s *Store) FindTicketByNumber(ctx context.Context, ticketNumber, eventID string) (*models.Ticket, error) {
	record, err := s.app.FindFirstRecordByFilter(
		CollectionTickets,
		"ticket_number = {:number} && event_id = {:eventId}",
		dbx.Params{"number": ticketNumber, "eventId": eventID},
	)
	if err != nil {
		return nil, notFound(err, status.ErrTicketNotFound)
	}
	ticket := ticketFromRecord(record)
	return &ticket, nil
}

func (s *Store) MarkAttendance(ctx context.Context, m AttendanceMark) (*models.Ticket, error) {
	var updated models.Ticket
	err := s.app.RunInTransaction(func(txApp core.App) error {
		record, err := txApp.FindRecordById(CollectionTickets, m.TicketID)
		if err != nil {
			return notFound(err, status.ErrTicketNotFound)
		}

		if err := saveMark(ctx, txApp, m, record); err != nil {
			return err
		}
		updated = ticketFromRecord(record)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

func (s *Store) MarkIfUnset(ctx context.Context, m AttendanceMark) (bool, error) {
	changed := false
	err := s.app.RunInTransaction(func(txApp core.App) error {
		record, err := txApp.FindRecordById(CollectionTickets, m.TicketID)
		if err != nil {
			return notFound(err, status.ErrTicketNotFound)
		}
		// a host marked it since the ticket was listed
		if record.GetString("attendance") != "" {
			return nil
		}

		if err := saveMark(ctx, txApp, m, record); err != nil {
			return err
		}
		changed = true
		return nil
	})
	return changed, err
}

func saveMark(ctx context.Context, txApp core.App, m AttendanceMark, ticket *core.Record) error {
	applyMark(m, ticket)
	if err := txApp.SaveWithContext(ctx, ticket); err != nil {
		return fmt.Errorf("%w: save ticket attendance: %v", status.ErrPersistence, err)
	}

	collection, err := txApp.FindCollectionByNameOrId(CollectionAttendance)
	if err != nil {
		return fmt.Errorf("%w: %v", status.ErrPersistence, err)
	}
	audit := core.NewRecord(collection)
	attendanceMarkToRecord(m, audit)
	if err := txApp.SaveWithContext(ctx, audit); err != nil {
		return fmt.Errorf("%w: save attendance record: %v", status.ErrPersistence, err)
	}
	return nil
}

func (s *Store) ListAttendanceRecords(ctx context.Context, ticketID string) ([]models.AttendanceRecord, error) {
	records, err := s.app.FindRecordsByFilter(
		CollectionAttendance,
		"ticket_id = {:ticketId}",
		"marked_at,created",
		0,
		0,
		dbx.Params{"ticketId": ticketID},
	)
	if err != nil {
		return nil, fmt.Errorf("%w: list attendance records: %v", status.ErrPersistence, err)
	}

	out := make([]models.AttendanceRecord, 0, len(records))
	for _, r := range records {
		out = append(out, attendanceRecordFromRecord(r))
	}
	return out, nil
}

func (s *Store) FindHostByUser(ctx context.Context, userID string) (*models.Host, error) {
	record, err := s.app.FindFirstRecordByFilter(CollectionHosts, "user_id = {:userId}", dbx.Params{"userId": userID})
	if err != nil {
		return nil, notFound(err, status.ErrForbidden)
	}
	host := hostFromRecord(record)
	return &host, nil
}

func (s *Store) GetAssignment(ctx context.Context, hostID, eventID string) (*models.HostEvent, error) {
	record, err := s.app.FindFirstRecordByFilter(
		CollectionHostEvents,
		"host_id = {:hostId} && event_id = {:eventId}",
		dbx.Params{"hostId": hostID, "eventId": eventID},
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: %v", status.ErrPersistence, err)
	}
	assignment := hostEventFromRecord(record)
	return &assignment, nil
}

type countsRow struct {
	City    string `db:"city"`
	Events  int    `db:"events"`
	Total   int    `db:"total"`
	Present int    `db:"present"`
	Absent  int    `db:"absent"`
}

const countsColumns = `
	COUNT(t.id) AS total,
	COALESCE(SUM(CASE WHEN t.attendance = 'present' THEN 1 ELSE 0 END), 0) AS present,
	COALESCE(SUM(CASE WHEN t.attendance = 'absent' THEN 1 ELSE 0 END), 0) AS absent`

func (s *Store) CountAttendance(ctx context.Context, eventID string) (AttendanceCounts, error) {
	var row countsRow
	err := s.app.DB().
		NewQuery("SELECT " + countsColumns + " FROM tickets t WHERE t.event_id = {:eventId}").
		WithContext(ctx).
		Bind(dbx.Params{"eventId": eventID}).
		One(&row)
	if err != nil {
		return AttendanceCounts{}, fmt.Errorf("%w: count attendance: %v", status.ErrPersistence, err)
	}
	return AttendanceCounts{Total: row.Total, Present: row.Present, Absent: row.Absent}, nil
}

func (s *Store) CountAttendanceByCity(ctx context.Context) ([]CityCounts, error) {
	var rows []countsRow
	err := s.app.DB().
		NewQuery(`SELECT e.city AS city, COUNT(DISTINCT e.id) AS events,` + countsColumns + `
			FROM events e
			LEFT JOIN tickets t ON t.event_id = e.id
			GROUP BY e.city
			ORDER BY e.city`).
		WithContext(ctx).
		All(&rows)
	if err != nil {
		return nil, fmt.Errorf("%w: count attendance by city: %v", status.ErrPersistence, err)
	}

	out := make([]CityCounts, 0, len(rows))
	for _, row := range rows {
		out = append(out, CityCounts{
			City:             row.City,
			Events:           row.Events,
			AttendanceCounts: AttendanceCounts{Total: row.Total, Present: row.Present, Absent: row.Absent},
		})
	}
	return out, nil
}
