package handlers

import (
	"net/http"

	"booking-engine/internal/services"

	"github.com/pocketbase/pocketbase/core"
)

type ReportHandler struct {
	reports    *services.ReportService
	authorizer *services.Authorizer
}

func NewReportHandler(reports *services.ReportService, authorizer *services.Authorizer) *ReportHandler {
	return &ReportHandler{reports: reports, authorizer: authorizer}
}

// EventSummary - attendance totals for one event, visible to hosts with view_bookings
func (h *ReportHandler) EventSummary(e *core.RequestEvent) error {
	ctx := e.Request.Context()
	eventID := e.Request.PathValue("eventId")

	if err := h.authorizer.Require(ctx, sessionFrom(e), eventID, services.CapViewBookings); err != nil {
		return apiError(err, "event summary")
	}

	summary, err := h.reports.EventSummary(ctx, eventID)
	if err != nil {
		return apiError(err, "event summary")
	}
	return e.JSON(http.StatusOK, summary)
}

// CityRollups - admin only
func (h *ReportHandler) CityRollups(e *core.RequestEvent) error {
	rollups, err := h.reports.CityRollups(e.Request.Context())
	if err != nil {
		return apiError(err, "city rollups")
	}
	return e.JSON(http.StatusOK, map[string]any{"cities": rollups})
}
