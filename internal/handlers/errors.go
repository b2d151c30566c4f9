package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"booking-engine/internal/status"
	"booking-engine/models"

	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"
	"github.com/pocketbase/pocketbase/tools/router"
)

// apiError converts a service error into the matching PocketBase API error.
func apiError(err error, action string) error {
	switch {
	case errors.Is(err, status.ErrValidation), errors.Is(err, status.ErrInvalidCoupon):
		return apis.NewBadRequestError(err.Error(), nil)
	case errors.Is(err, status.ErrEventNotFound),
		errors.Is(err, status.ErrBookingNotFound),
		errors.Is(err, status.ErrTicketNotFound):
		return apis.NewNotFoundError(err.Error(), nil)
	case errors.Is(err, status.ErrUnauthorized):
		return apis.NewUnauthorizedError("Authentication required", nil)
	case errors.Is(err, status.ErrForbidden):
		return apis.NewForbiddenError("Access denied", nil)
	case errors.Is(err, status.ErrLockNotAcquired):
		return apis.NewApiError(http.StatusConflict, "Operation already in progress", nil)
	}
	slog.Error("Request failed", "action", action, "error", err)
	return apis.NewInternalServerError("internal error", nil)
}

// sessionFrom builds the explicit caller identity passed to every service.
func sessionFrom(e *core.RequestEvent) models.Session {
	if e.Auth == nil {
		return models.Session{}
	}
	return models.Session{
		UserID:  e.Auth.Id,
		IsAdmin: e.HasSuperuserAuth(),
	}
}

func isBadRequest(err error) bool {
	var apiErr *router.ApiError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusBadRequest
}
