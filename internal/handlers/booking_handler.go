package handlers

import (
	"net/http"

	"booking-engine/internal/services"

	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"
)

type BookingHandler struct {
	checkout *services.CheckoutService
	bookings *services.BookingService
	issuance *services.IssuanceService
}

func NewBookingHandler(checkout *services.CheckoutService, bookings *services.BookingService, issuance *services.IssuanceService) *BookingHandler {
	return &BookingHandler{
		checkout: checkout,
		bookings: bookings,
		issuance: issuance,
	}
}

// Checkout prices the cart, stores the confirmed booking and issues its tickets.
func (h *BookingHandler) Checkout(e *core.RequestEvent) error {
	if e.Auth == nil {
		return apis.NewUnauthorizedError("Unauthorized", nil)
	}

	var req services.CheckoutRequest
	if err := e.BindBody(&req); err != nil {
		return apis.NewBadRequestError("Invalid request", err)
	}

	result, err := h.checkout.Checkout(e.Request.Context(), sessionFrom(e), req)
	if err != nil {
		return apiError(err, "checkout")
	}
	return e.JSON(http.StatusOK, result)
}

// Quote prices a cart without writing anything. An unknown coupon is reported
// next to the undiscounted totals.
func (h *BookingHandler) Quote(e *core.RequestEvent) error {
	var req struct {
		EventID     string `json:"event_id"`
		TicketCount int    `json:"ticket_count"`
		CouponCode  string `json:"coupon_code"`
	}
	if err := e.BindBody(&req); err != nil {
		return apis.NewBadRequestError("Invalid request", err)
	}

	quote, err := h.checkout.Quote(e.Request.Context(), req.EventID, req.TicketCount, req.CouponCode)
	resp := map[string]any{"quote": quote}
	if err != nil {
		if apiErr := apiError(err, "quote"); !isBadRequest(apiErr) {
			return apiErr
		}
		resp["coupon_error"] = err.Error()
	}
	return e.JSON(http.StatusOK, resp)
}

func (h *BookingHandler) ListBookings(e *core.RequestEvent) error {
	if e.Auth == nil {
		return apis.NewUnauthorizedError("Unauthorized", nil)
	}

	bookings, err := h.bookings.ListByUser(e.Request.Context(), e.Auth.Id)
	if err != nil {
		return apiError(err, "list bookings")
	}
	return e.JSON(http.StatusOK, map[string]any{"bookings": bookings})
}

// IssueTickets re-runs issuance for a booking. Only the booking owner or an
// admin may trigger it; seats already issued are left alone.
func (h *BookingHandler) IssueTickets(e *core.RequestEvent) error {
	session := sessionFrom(e)
	if session.UserID == "" {
		return apis.NewUnauthorizedError("Unauthorized", nil)
	}

	ctx := e.Request.Context()
	bookingID := e.Request.PathValue("bookingId")

	booking, err := h.bookings.GetBooking(ctx, bookingID)
	if err != nil {
		return apiError(err, "issue tickets")
	}
	if !session.IsAdmin && booking.UserID != session.UserID {
		return apis.NewForbiddenError("Access denied", nil)
	}

	result, err := h.issuance.IssueTickets(ctx, bookingID)
	if err != nil {
		return apiError(err, "issue tickets")
	}
	return e.JSON(http.StatusOK, result)
}
