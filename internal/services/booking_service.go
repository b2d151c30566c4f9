package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"booking-engine/internal/repository"
	"booking-engine/internal/status"
	"booking-engine/models"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
)

type CreateBookingParams struct {
	UserID      string
	EventID     string
	Contact     models.Contact
	TicketCount int
	Amount      float64
	HolderNames []string
	CouponCode  string
	Discount    float64
	PaymentID   string
}

func (p CreateBookingParams) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.UserID, validation.Required),
		validation.Field(&p.EventID, validation.Required),
		validation.Field(&p.Contact, validation.By(validateContact)),
		validation.Field(&p.TicketCount, validation.Required, validation.Min(1)),
		validation.Field(&p.HolderNames, validation.By(func(value any) error {
			if n := len(p.HolderNames); n != 0 && n != p.TicketCount {
				return validation.NewError("validation_holder_names_length",
					fmt.Sprintf("must list 0 or %d names", p.TicketCount))
			}
			return nil
		})),
		validation.Field(&p.Amount, validation.Min(0.0)),
		validation.Field(&p.Discount, validation.Min(0.0)),
	)
}

func validateContact(value any) error {
	c, _ := value.(models.Contact)
	return validation.ValidateStruct(&c,
		validation.Field(&c.Name, validation.Required, validation.By(notBlank)),
		validation.Field(&c.Email, validation.Required, is.EmailFormat),
		validation.Field(&c.Phone, validation.Required, validation.By(notBlank)),
	)
}

func notBlank(value any) error {
	if s, ok := value.(string); ok && strings.TrimSpace(s) == "" {
		return validation.NewError("validation_blank", "cannot be blank")
	}
	return nil
}

type BookingService struct {
	bookings repository.BookingRepository
}

func NewBookingService(bookings repository.BookingRepository) *BookingService {
	return &BookingService{bookings: bookings}
}

// CreateBooking validates p and writes one confirmed booking. Payment is
// taken to have succeeded before this call.
func (s *BookingService) CreateBooking(ctx context.Context, p CreateBookingParams) (*models.Booking, error) {
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", status.ErrValidation, err)
	}

	booking := &models.Booking{
		UserID:         p.UserID,
		EventID:        p.EventID,
		Name:           strings.TrimSpace(p.Contact.Name),
		Email:          strings.TrimSpace(p.Contact.Email),
		Phone:          strings.TrimSpace(p.Contact.Phone),
		Tickets:        p.TicketCount,
		Amount:         p.Amount,
		Status:         models.BookingStatusConfirmed,
		TicketNames:    p.HolderNames,
		CouponCode:     p.CouponCode,
		DiscountAmount: p.Discount,
		PaymentID:      p.PaymentID,
	}

	if err := s.bookings.CreateBooking(ctx, booking); err != nil {
		slog.Error("Failed to create booking", "event_id", p.EventID, "user_id", p.UserID, "error", err)
		return nil, err
	}

	slog.Info("Booking created", "booking_id", booking.ID, "event_id", booking.EventID, "tickets", booking.Tickets)
	return booking, nil
}

func (s *BookingService) GetBooking(ctx context.Context, id string) (*models.Booking, error) {
	return s.bookings.GetBooking(ctx, id)
}

func (s *BookingService) ListByUser(ctx context.Context, userID string) ([]models.Booking, error) {
	return s.bookings.ListBookingsByUser(ctx, userID)
}
