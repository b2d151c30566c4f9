package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"booking-engine/internal/notify"
	"booking-engine/internal/repository/memory"
	"booking-engine/internal/status"
	"booking-engine/models"
)

// sequentialNumbers hands out MJ-1000-0, MJ-1000-1, ... unless a scripted
// list is given, which is consumed first.
type sequentialNumbers struct {
	mu       sync.Mutex
	next     int
	scripted []string
}

func (n *sequentialNumbers) Reserve(ctx context.Context) (string, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.scripted) > 0 {
		number := n.scripted[0]
		n.scripted = n.scripted[1:]
		return number, nil
	}
	number := fmt.Sprintf("MJ-1000-%d", n.next)
	n.next++
	return number, nil
}

func (n *sequentialNumbers) QRPayload(ticketNumber string) string {
	return "https://tickets.example.com/verify?ticket=" + ticketNumber
}

type recordingDispatcher struct {
	mu      sync.Mutex
	intents []notify.Intent
	err     error
}

func (d *recordingDispatcher) Dispatch(ctx context.Context, intent notify.Intent) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.intents = append(d.intents, intent)
	return d.err
}

func (d *recordingDispatcher) sent() []notify.Intent {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]notify.Intent(nil), d.intents...)
}

type fakeLocker struct {
	mu       sync.Mutex
	held     map[string]bool
	err      error
	acquired int
}

func (l *fakeLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (func(), error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.err != nil {
		return nil, l.err
	}
	if l.held == nil {
		l.held = make(map[string]bool)
	}
	if l.held[key] {
		return nil, status.ErrLockNotAcquired
	}
	l.held[key] = true
	l.acquired++
	return func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		delete(l.held, key)
	}, nil
}

type fixture struct {
	store      *memory.Store
	numbers    *sequentialNumbers
	dispatcher *recordingDispatcher
	locker     *fakeLocker
	bookings   *BookingService
	issuance   *IssuanceService
	checkout   *CheckoutService
	event      models.Event
}

func newFixture() *fixture {
	f := &fixture{
		store:      memory.New(),
		numbers:    &sequentialNumbers{},
		dispatcher: &recordingDispatcher{},
		locker:     &fakeLocker{},
	}
	f.event = f.store.PutEvent(models.Event{
		ID:          "event-1",
		Title:       "Sunburn",
		Date:        "2026-03-14",
		Time:        "19:30",
		TicketPrice: 500,
		City:        "Goa",
		Venue:       "Vagator",
	})
	f.bookings = NewBookingService(f.store)
	f.issuance = NewIssuanceService(f.store, f.numbers, f.locker, f.dispatcher, IssuanceConfig{Retries: 5})
	return f
}

func (f *fixture) createBooking(tickets int, names ...string) *models.Booking {
	booking, err := f.bookings.CreateBooking(context.Background(), CreateBookingParams{
		UserID:      "user-1",
		EventID:     f.event.ID,
		Contact:     models.Contact{Name: "Ravi", Email: "ravi@example.com", Phone: "+919800000000"},
		TicketCount: tickets,
		Amount:      float64(500 * tickets),
		HolderNames: names,
	})
	if err != nil {
		panic(err)
	}
	return booking
}

var errDiskFull = errors.New("disk full")
