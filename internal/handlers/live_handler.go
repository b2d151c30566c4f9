package handlers

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"slices"
	"time"

	"booking-engine/internal/notifier"
	"booking-engine/internal/services"

	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"
)

const liveHeartbeat = 25 * time.Second

type LiveHandler struct {
	hub        *notifier.Hub
	authorizer *services.Authorizer
}

func NewLiveHandler(hub *notifier.Hub, authorizer *services.Authorizer) *LiveHandler {
	return &LiveHandler{hub: hub, authorizer: authorizer}
}

// Stream sends change hints for one event as server-sent events until the
// client goes away. Hints carry no authority; clients re-fetch on each one.
func (h *LiveHandler) Stream(e *core.RequestEvent) error {
	ctx := e.Request.Context()
	eventID := e.Request.PathValue("eventId")

	topic := e.Request.URL.Query().Get("topic")
	if topic == "" {
		topic = notifier.TopicTickets
	}
	if !slices.Contains(notifier.Topics, topic) {
		return apis.NewBadRequestError("Unknown topic", nil)
	}

	if err := h.authorizer.Require(ctx, sessionFrom(e), eventID, services.CapViewBookings); err != nil {
		return apiError(err, "live stream")
	}

	sub := h.hub.Subscribe(topic, notifier.Filter{Field: "event_id", Value: eventID})
	defer sub.Close()

	e.Response.Header().Set("Content-Type", "text/event-stream")
	e.Response.Header().Set("Cache-Control", "no-store")
	e.Response.Header().Set("Connection", "keep-alive")
	e.Response.WriteHeader(http.StatusOK)
	if err := e.Flush(); err != nil {
		return err
	}

	heartbeat := time.NewTicker(liveHeartbeat)
	defer heartbeat.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-heartbeat.C:
			if _, err := fmt.Fprint(e.Response, ": ping\n\n"); err != nil {
				return nil
			}
		case change, ok := <-sub.C:
			if !ok {
				return nil
			}
			if err := writeChange(e, change); err != nil {
				slog.Debug("Live client gone", "event_id", eventID, "error", err)
				return nil
			}
		}
		if err := e.Flush(); err != nil {
			return nil
		}
	}
}

func writeChange(e *core.RequestEvent, c notifier.Change) error {
	data, err := json.Marshal(map[string]any{
		"type":      "refetch",
		"topic":     c.Topic,
		"action":    c.Action,
		"record_id": c.RecordID,
		"event_id":  c.EventID,
	})
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(e.Response, "id: %s\nevent: %s\ndata: %s\n\n", c.ID, c.Topic, data)
	return err
}
