package handlers

import (
	"net/http"

	"booking-engine/internal/services"

	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"
)

type AttendanceHandler struct {
	attendance *services.AttendanceService
}

func NewAttendanceHandler(attendance *services.AttendanceService) *AttendanceHandler {
	return &AttendanceHandler{attendance: attendance}
}

// SearchTicket - look up a scanned or typed ticket number within an event
func (h *AttendanceHandler) SearchTicket(e *core.RequestEvent) error {
	eventID := e.Request.PathValue("eventId")
	number := e.Request.URL.Query().Get("number")

	ticket, err := h.attendance.SearchTicket(e.Request.Context(), sessionFrom(e), number, eventID)
	if err != nil {
		return apiError(err, "search ticket")
	}
	return e.JSON(http.StatusOK, ticket)
}

// MarkAttendance - record present/absent for one ticket
func (h *AttendanceHandler) MarkAttendance(e *core.RequestEvent) error {
	var req services.MarkParams
	if err := e.BindBody(&req); err != nil {
		return apis.NewBadRequestError("Invalid request", err)
	}

	ticket, err := h.attendance.MarkAttendance(e.Request.Context(), sessionFrom(e), req)
	if err != nil {
		return apiError(err, "mark attendance")
	}
	return e.JSON(http.StatusOK, ticket)
}

func (h *AttendanceHandler) History(e *core.RequestEvent) error {
	records, err := h.attendance.History(e.Request.Context(), sessionFrom(e), e.Request.PathValue("ticketId"))
	if err != nil {
		return apiError(err, "attendance history")
	}
	return e.JSON(http.StatusOK, map[string]any{"records": records})
}
