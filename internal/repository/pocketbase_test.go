package repository_test

import (
	"context"
	"testing"
	"time"

	"booking-engine/internal/repository"
	"booking-engine/internal/services"
	"booking-engine/internal/status"
	"booking-engine/internal/ticketno"
	_ "booking-engine/migrations"
	"booking-engine/models"

	"github.com/pocketbase/pocketbase/core"
	"github.com/pocketbase/pocketbase/tests"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	admin    = models.Session{UserID: "admin-1", IsAdmin: true}
	afterEnd = time.Date(2026, 3, 15, 0, 30, 0, 0, time.UTC)
)

func newTestStore(t *testing.T) (*tests.TestApp, *repository.Store) {
	t.Helper()
	app, err := tests.NewTestApp()
	require.NoError(t, err)
	t.Cleanup(app.Cleanup)
	return app, repository.NewStore(app)
}

func saveRecord(t *testing.T, app core.App, collection string, fields map[string]any) *core.Record {
	t.Helper()
	c, err := app.FindCollectionByNameOrId(collection)
	require.NoError(t, err)
	record := core.NewRecord(c)
	record.Load(fields)
	require.NoError(t, app.Save(record))
	return record
}

func seedEvent(t *testing.T, app core.App, date, city string) models.Event {
	t.Helper()
	record := saveRecord(t, app, repository.CollectionEvents, map[string]any{
		"title":        "Sunburn " + city,
		"date":         date,
		"time":         "19:30",
		"ticket_price": 500,
		"city":         city,
		"venue":        "Main stage",
	})
	return models.Event{ID: record.Id, Date: date, Time: "19:30", City: city}
}

func seedBooking(t *testing.T, store *repository.Store, eventID string, tickets int) *models.Booking {
	t.Helper()
	booking, err := services.NewBookingService(store).CreateBooking(context.Background(), services.CreateBookingParams{
		UserID:      "user-1",
		EventID:     eventID,
		Contact:     models.Contact{Name: "Ravi", Email: "ravi@example.com", Phone: "+919800000000"},
		TicketCount: tickets,
		Amount:      float64(500 * tickets),
	})
	require.NoError(t, err)
	return booking
}

func newIssuance(store *repository.Store) *services.IssuanceService {
	numbers := ticketno.NewGenerator("https://tickets.example.com/verify?ticket=%s")
	return services.NewIssuanceService(store, numbers, nil, nil, services.IssuanceConfig{})
}

func TestStore_IssueTicketsThenSkip(t *testing.T) {
	app, store := newTestStore(t)
	event := seedEvent(t, app, "2026-03-14", "Goa")
	booking := seedBooking(t, store, event.ID, 3)
	issuance := newIssuance(store)
	ctx := context.Background()

	first, err := issuance.IssueTickets(ctx, booking.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, first.Issued)
	assert.Len(t, first.TicketNumbers, 3)

	tickets, err := store.ListTicketsByBooking(ctx, booking.ID)
	require.NoError(t, err)
	require.Len(t, tickets, 3)
	for i, ticket := range tickets {
		assert.Equal(t, i, ticket.SeatIndex)
		assert.Equal(t, event.ID, ticket.EventID)
		assert.Nil(t, ticket.Attended)
		assert.Contains(t, ticket.QRPayload, ticket.TicketNumber)
		_, _, err := ticketno.Parse(ticket.TicketNumber)
		assert.NoError(t, err)
	}

	second, err := issuance.IssueTickets(ctx, booking.ID)
	require.NoError(t, err)
	assert.True(t, second.Skipped)
	assert.Equal(t, 0, second.Issued)
	assert.Equal(t, 3, second.Existing)

	tickets, err = store.ListTicketsByBooking(ctx, booking.ID)
	require.NoError(t, err)
	assert.Len(t, tickets, 3)
}

func TestStore_InsertTicketConflicts(t *testing.T) {
	app, store := newTestStore(t)
	event := seedEvent(t, app, "2026-03-14", "Goa")
	booking := seedBooking(t, store, event.ID, 2)
	ctx := context.Background()

	first := &models.Ticket{BookingID: booking.ID, EventID: event.ID, SeatIndex: 0, TicketNumber: "MJ-1718000000000-1"}
	require.NoError(t, store.InsertTicket(ctx, first))
	assert.NotEmpty(t, first.ID)

	sameNumber := &models.Ticket{BookingID: booking.ID, EventID: event.ID, SeatIndex: 1, TicketNumber: first.TicketNumber}
	err := store.InsertTicket(ctx, sameNumber)
	assert.ErrorIs(t, err, status.ErrDuplicateTicketNumber)
	assert.NotErrorIs(t, err, status.ErrSeatAlreadyIssued)

	sameSeat := &models.Ticket{BookingID: booking.ID, EventID: event.ID, SeatIndex: 0, TicketNumber: "MJ-1718000000000-2"}
	err = store.InsertTicket(ctx, sameSeat)
	assert.ErrorIs(t, err, status.ErrSeatAlreadyIssued)
	assert.NotErrorIs(t, err, status.ErrDuplicateTicketNumber)

	tickets, err := store.ListTicketsByBooking(ctx, booking.ID)
	require.NoError(t, err)
	assert.Len(t, tickets, 1)
}

func TestStore_SweepMarksThenFindsNothing(t *testing.T) {
	app, store := newTestStore(t)
	event := seedEvent(t, app, "2026-03-14", "Goa")
	booking := seedBooking(t, store, event.ID, 3)
	_, err := newIssuance(store).IssueTickets(context.Background(), booking.ID)
	require.NoError(t, err)
	sweep := services.NewSweepService(store, time.UTC)

	result, err := sweep.SweepCompletedEvents(context.Background(), afterEnd)
	require.NoError(t, err)
	assert.Equal(t, 1, result.EventsProcessed)
	assert.Equal(t, 3, result.TicketsUpdated)

	tickets, err := store.ListTicketsByBooking(context.Background(), booking.ID)
	require.NoError(t, err)
	for _, ticket := range tickets {
		require.NotNil(t, ticket.Attended)
		assert.True(t, *ticket.Attended)
		require.NotNil(t, ticket.AttendedAt)
		assert.True(t, afterEnd.Equal(*ticket.AttendedAt))

		history, err := store.ListAttendanceRecords(context.Background(), ticket.ID)
		require.NoError(t, err)
		require.Len(t, history, 1)
		assert.Equal(t, models.SystemHostID, history[0].HostID)
		assert.Equal(t, services.SweepNote, history[0].Notes)
	}

	again, err := sweep.SweepCompletedEvents(context.Background(), afterEnd.Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 0, again.EventsProcessed)
	assert.Equal(t, 0, again.TicketsUpdated)
}

func TestStore_ListEventsWithUnmarkedTickets(t *testing.T) {
	app, store := newTestStore(t)
	ctx := context.Background()

	past := seedEvent(t, app, "2026-03-01", "Goa")
	seedEvent(t, app, "2026-03-02", "Pune")
	future := seedEvent(t, app, "2026-04-01", "Goa")
	for _, event := range []models.Event{past, future} {
		booking := seedBooking(t, store, event.ID, 1)
		_, err := newIssuance(store).IssueTickets(ctx, booking.ID)
		require.NoError(t, err)
	}

	events, err := store.ListEventsWithUnmarkedTickets(ctx, "2026-03-15")
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, past.ID, events[0].ID)
	assert.Equal(t, "Goa", events[0].City)

	unmarked, err := store.ListUnmarkedTickets(ctx, past.ID)
	require.NoError(t, err)
	require.Len(t, unmarked, 1)
	_, err = store.MarkAttendance(ctx, repository.AttendanceMark{
		TicketID: unmarked[0].ID,
		EventID:  past.ID,
		HostID:   "host-1",
		Status:   models.AttendanceAbsent,
		At:       afterEnd,
	})
	require.NoError(t, err)

	events, err = store.ListEventsWithUnmarkedTickets(ctx, "2026-03-15")
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestStore_RemarkKeepsBothAuditRecords(t *testing.T) {
	app, store := newTestStore(t)
	event := seedEvent(t, app, "2026-03-14", "Goa")
	booking := seedBooking(t, store, event.ID, 1)
	_, err := newIssuance(store).IssueTickets(context.Background(), booking.ID)
	require.NoError(t, err)
	tickets, err := store.ListTicketsByBooking(context.Background(), booking.ID)
	require.NoError(t, err)
	ticket := tickets[0]

	ctx := context.Background()

	mark := repository.AttendanceMark{TicketID: ticket.ID, EventID: event.ID, HostID: "host-1", Status: models.AttendancePresent, At: afterEnd}
	_, err = store.MarkAttendance(ctx, mark)
	require.NoError(t, err)

	mark.Status = models.AttendanceAbsent
	mark.Notes = "left early"
	mark.At = afterEnd.Add(time.Minute)
	updated, err := store.MarkAttendance(ctx, mark)
	require.NoError(t, err)
	require.NotNil(t, updated.Attended)
	assert.False(t, *updated.Attended)

	stored, err := store.GetTicket(ctx, ticket.ID)
	require.NoError(t, err)
	assert.Equal(t, models.AttendanceAbsent, stored.AttendanceStatus())

	history, err := store.ListAttendanceRecords(ctx, ticket.ID)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, models.AttendancePresent, history[0].Status)
	assert.Equal(t, models.AttendanceAbsent, history[1].Status)
	assert.Equal(t, "left early", history[1].Notes)

	attendance := services.NewAttendanceService(store, services.NewAuthorizer(store))
	found, err := attendance.SearchTicket(ctx, admin, ticket.TicketNumber, event.ID)
	require.NoError(t, err)
	assert.Equal(t, ticket.ID, found.ID)
}

func TestStore_MarkUnknownTicket(t *testing.T) {
	_, store := newTestStore(t)
	ctx := context.Background()
	mark := repository.AttendanceMark{TicketID: "missingticket1", EventID: "e", HostID: "h", Status: models.AttendancePresent, At: afterEnd}

	_, err := store.MarkAttendance(ctx, mark)
	assert.ErrorIs(t, err, status.ErrTicketNotFound)

	_, err = store.MarkIfUnset(ctx, mark)
	assert.ErrorIs(t, err, status.ErrTicketNotFound)

	_, err = store.FindTicketByNumber(ctx, "MJ-1-1", "e")
	assert.ErrorIs(t, err, status.ErrTicketNotFound)
}

func TestStore_MarkIfUnsetLeavesHostMark(t *testing.T) {
	app, store := newTestStore(t)
	event := seedEvent(t, app, "2026-03-14", "Goa")
	booking := seedBooking(t, store, event.ID, 1)
	_, err := newIssuance(store).IssueTickets(context.Background(), booking.ID)
	require.NoError(t, err)
	tickets, err := store.ListTicketsByBooking(context.Background(), booking.ID)
	require.NoError(t, err)
	ctx := context.Background()

	hostMark := repository.AttendanceMark{TicketID: tickets[0].ID, EventID: event.ID, HostID: "host-1", Status: models.AttendanceAbsent, At: afterEnd}
	changed, err := store.MarkIfUnset(ctx, hostMark)
	require.NoError(t, err)
	assert.True(t, changed)

	sweepMark := hostMark
	sweepMark.HostID = models.SystemHostID
	sweepMark.Status = models.AttendancePresent
	changed, err = store.MarkIfUnset(ctx, sweepMark)
	require.NoError(t, err)
	assert.False(t, changed)

	stored, err := store.GetTicket(ctx, tickets[0].ID)
	require.NoError(t, err)
	assert.Equal(t, models.AttendanceAbsent, stored.AttendanceStatus())

	history, err := store.ListAttendanceRecords(ctx, tickets[0].ID)
	require.NoError(t, err)
	assert.Len(t, history, 1)
}

func TestStore_AttendanceCounts(t *testing.T) {
	app, store := newTestStore(t)
	goa := seedEvent(t, app, "2026-03-14", "Goa")
	seedEvent(t, app, "2026-03-20", "Pune")
	booking := seedBooking(t, store, goa.ID, 3)
	_, err := newIssuance(store).IssueTickets(context.Background(), booking.ID)
	require.NoError(t, err)
	tickets, err := store.ListTicketsByBooking(context.Background(), booking.ID)
	require.NoError(t, err)
	ctx := context.Background()

	for i, s := range []string{models.AttendancePresent, models.AttendanceAbsent} {
		_, err := store.MarkAttendance(ctx, repository.AttendanceMark{TicketID: tickets[i].ID, EventID: goa.ID, HostID: "host-1", Status: s, At: afterEnd})
		require.NoError(t, err)
	}

	counts, err := store.CountAttendance(ctx, goa.ID)
	require.NoError(t, err)
	assert.Equal(t, repository.AttendanceCounts{Total: 3, Present: 1, Absent: 1}, counts)

	byCity, err := store.CountAttendanceByCity(ctx)
	require.NoError(t, err)
	require.Len(t, byCity, 2)
	assert.Equal(t, repository.CityCounts{City: "Goa", Events: 1, AttendanceCounts: counts}, byCity[0])
	assert.Equal(t, repository.CityCounts{City: "Pune", Events: 1}, byCity[1])
}

func TestStore_HostAssignment(t *testing.T) {
	app, store := newTestStore(t)
	event := seedEvent(t, app, "2026-03-14", "Goa")
	other := seedEvent(t, app, "2026-03-15", "Goa")
	host := saveRecord(t, app, repository.CollectionHosts, map[string]any{
		"user_id":     "host-user",
		"name":        "Asha",
		"is_active":   true,
		"is_verified": true,
	})
	saveRecord(t, app, repository.CollectionHostEvents, map[string]any{
		"host_id":         host.Id,
		"event_id":        event.ID,
		"mark_attendance": true,
	})
	ctx := context.Background()

	found, err := store.FindHostByUser(ctx, "host-user")
	require.NoError(t, err)
	assert.Equal(t, host.Id, found.ID)
	assert.True(t, found.IsActive)

	assignment, err := store.GetAssignment(ctx, host.Id, event.ID)
	require.NoError(t, err)
	require.NotNil(t, assignment)
	assert.True(t, assignment.MarkAttendance)
	assert.False(t, assignment.ViewBookings)

	assignment, err = store.GetAssignment(ctx, host.Id, other.ID)
	require.NoError(t, err)
	assert.Nil(t, assignment)

	_, err = store.FindHostByUser(ctx, "nobody")
	assert.ErrorIs(t, err, status.ErrForbidden)
}
