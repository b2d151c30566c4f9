package services

import (
	"context"
	"errors"
	"testing"

	"booking-engine/internal/repository/memory"
	"booking-engine/internal/status"
	"booking-engine/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validParams() CreateBookingParams {
	return CreateBookingParams{
		UserID:      "user-1",
		EventID:     "event-1",
		Contact:     models.Contact{Name: "Ravi", Email: "ravi@example.com", Phone: "+919800000000"},
		TicketCount: 2,
		Amount:      1000,
	}
}

func TestBookingService_CreateBooking(t *testing.T) {
	store := memory.New()
	svc := NewBookingService(store)

	booking, err := svc.CreateBooking(context.Background(), validParams())
	require.NoError(t, err)

	assert.NotEmpty(t, booking.ID)
	assert.Equal(t, models.BookingStatusConfirmed, booking.Status)
	assert.Equal(t, 2, booking.Tickets)
	assert.False(t, booking.Created.IsZero())

	stored, err := svc.GetBooking(context.Background(), booking.ID)
	require.NoError(t, err)
	assert.Equal(t, booking.ID, stored.ID)
}

func TestBookingService_Validation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(p *CreateBookingParams)
	}{
		{"Missing name", func(p *CreateBookingParams) { p.Contact.Name = "" }},
		{"Blank name", func(p *CreateBookingParams) { p.Contact.Name = "   " }},
		{"Bad email", func(p *CreateBookingParams) { p.Contact.Email = "not-an-email" }},
		{"Missing phone", func(p *CreateBookingParams) { p.Contact.Phone = "" }},
		{"Zero tickets", func(p *CreateBookingParams) { p.TicketCount = 0 }},
		{"Negative amount", func(p *CreateBookingParams) { p.Amount = -1 }},
		{"Holder names wrong length", func(p *CreateBookingParams) { p.HolderNames = []string{"Asha"} }},
		{"Missing user", func(p *CreateBookingParams) { p.UserID = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := memory.New()
			svc := NewBookingService(store)

			p := validParams()
			tt.mutate(&p)

			_, err := svc.CreateBooking(context.Background(), p)
			assert.ErrorIs(t, err, status.ErrValidation)
			assert.Equal(t, 0, store.BookingCount(), "nothing may be written on validation failure")
		})
	}
}

func TestBookingService_HolderNamesMatchingCount(t *testing.T) {
	svc := NewBookingService(memory.New())

	p := validParams()
	p.HolderNames = []string{"Asha", ""}
	booking, err := svc.CreateBooking(context.Background(), p)
	require.NoError(t, err)
	assert.Equal(t, []string{"Asha", ""}, booking.TicketNames)
}

func TestBookingService_PersistenceFailure(t *testing.T) {
	store := memory.New()
	store.FailBookingInsert = errors.New("database is locked")
	svc := NewBookingService(store)

	_, err := svc.CreateBooking(context.Background(), validParams())
	assert.ErrorIs(t, err, status.ErrPersistence)
}

func TestBookingService_ListByUser(t *testing.T) {
	svc := NewBookingService(memory.New())
	ctx := context.Background()

	_, err := svc.CreateBooking(ctx, validParams())
	require.NoError(t, err)
	other := validParams()
	other.UserID = "user-2"
	_, err = svc.CreateBooking(ctx, other)
	require.NoError(t, err)

	bookings, err := svc.ListByUser(ctx, "user-1")
	require.NoError(t, err)
	assert.Len(t, bookings, 1)
}
