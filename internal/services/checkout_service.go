package services

import (
	"context"
	"log/slog"

	"booking-engine/internal/pricing"
	"booking-engine/internal/repository"
	"booking-engine/internal/status"
	"booking-engine/models"
	"booking-engine/monitoring"
)

type CheckoutRequest struct {
	EventID     string         `json:"event_id"`
	Contact     models.Contact `json:"contact"`
	TicketCount int            `json:"ticket_count"`
	HolderNames []string       `json:"holder_names"`
	CouponCode  string         `json:"coupon_code"`
	PaymentID   string         `json:"payment_id"`
}

type CheckoutResult struct {
	Booking     *models.Booking `json:"booking"`
	Quote       pricing.Quote   `json:"quote"`
	Issue       IssueResult     `json:"issue"`
	CouponError string          `json:"coupon_error,omitempty"`
}

// CheckoutService runs price, persist booking, issue tickets. The booking
// write is the only fatal step; issuance can be re-run for the booking.
type CheckoutService struct {
	events   repository.EventRepository
	calc     *pricing.Calculator
	bookings *BookingService
	issuance *IssuanceService
}

func NewCheckoutService(events repository.EventRepository, calc *pricing.Calculator, bookings *BookingService, issuance *IssuanceService) *CheckoutService {
	return &CheckoutService{
		events:   events,
		calc:     calc,
		bookings: bookings,
		issuance: issuance,
	}
}

func (s *CheckoutService) Checkout(ctx context.Context, session models.Session, req CheckoutRequest) (*CheckoutResult, error) {
	if session.UserID == "" {
		return nil, status.ErrUnauthorized
	}

	event, err := s.events.GetEvent(ctx, req.EventID)
	if err != nil {
		return nil, err
	}

	result := &CheckoutResult{}

	cart := s.calc.NewSession()
	if req.CouponCode != "" {
		if err := cart.Apply(req.CouponCode); err != nil {
			result.CouponError = err.Error()
			slog.Info("Coupon rejected", "event_id", req.EventID, "coupon", req.CouponCode, "error", err)
		}
	}
	quote := cart.Quote(*event, req.TicketCount)
	result.Quote = quote

	booking, err := s.bookings.CreateBooking(ctx, CreateBookingParams{
		UserID:      session.UserID,
		EventID:     event.ID,
		Contact:     req.Contact,
		TicketCount: quote.TicketCount,
		Amount:      quote.Final.InexactFloat64(),
		HolderNames: fitHolderNames(req.HolderNames, quote.TicketCount),
		CouponCode:  quote.CouponCode,
		Discount:    quote.Discount.InexactFloat64(),
		PaymentID:   req.PaymentID,
	})
	if err != nil {
		return nil, err
	}
	result.Booking = booking
	monitoring.TrackBooking(quote.CouponCode != "")

	issue, err := s.issuance.IssueTickets(ctx, booking.ID)
	if err != nil {
		slog.Warn("Ticket issuance deferred", "booking_id", booking.ID, "error", err)
	}
	result.Issue = issue
	return result, nil
}

// Quote prices a cart without side effects.
func (s *CheckoutService) Quote(ctx context.Context, eventID string, ticketCount int, coupon string) (pricing.Quote, error) {
	event, err := s.events.GetEvent(ctx, eventID)
	if err != nil {
		return pricing.Quote{}, err
	}
	return s.calc.Price(*event, ticketCount, coupon)
}

// fitHolderNames pads with blanks or truncates to exactly n names. An empty
// list stays empty.
func fitHolderNames(names []string, n int) []string {
	if len(names) == 0 {
		return nil
	}
	out := make([]string, n)
	copy(out, names)
	return out
}
