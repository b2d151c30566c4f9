package handlers

import (
	"context"
	"net/http"

	"booking-engine/internal/services"

	"github.com/pocketbase/pocketbase/core"
)

type Sweeper interface {
	RunOnce(ctx context.Context) (services.SweepResult, error)
}

type AdminHandler struct {
	sweeper Sweeper
}

func NewAdminHandler(sweeper Sweeper) *AdminHandler {
	return &AdminHandler{sweeper: sweeper}
}

// RunSweep - auto-mark every unset ticket of completed events right now
func (h *AdminHandler) RunSweep(e *core.RequestEvent) error {
	result, err := h.sweeper.RunOnce(e.Request.Context())
	if err != nil {
		return apiError(err, "sweep")
	}
	return e.JSON(http.StatusOK, result)
}
