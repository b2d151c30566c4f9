package notifier

import (
	"testing"

	_ "booking-engine/migrations"

	"github.com/pocketbase/pocketbase/core"
	"github.com/pocketbase/pocketbase/tests"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newHookedApp(t *testing.T) (*tests.TestApp, *Hub) {
	t.Helper()
	app, err := tests.NewTestApp()
	require.NoError(t, err)
	t.Cleanup(app.Cleanup)

	hub := NewHub(8)
	BindHooks(app, hub)
	return app, hub
}

func newRecord(t *testing.T, app core.App, collection string, fields map[string]any) *core.Record {
	t.Helper()
	c, err := app.FindCollectionByNameOrId(collection)
	require.NoError(t, err)
	record := core.NewRecord(c)
	record.Load(fields)
	return record
}

func saveEvent(t *testing.T, app core.App, city string) string {
	t.Helper()
	event := newRecord(t, app, "events", map[string]any{"title": "Show " + city, "date": "2026-03-14", "city": city})
	require.NoError(t, app.Save(event))
	return event.Id
}

func TestBindHooks_BookingLifecycleReachesEventSubscribers(t *testing.T) {
	app, hub := newHookedApp(t)
	goa := saveEvent(t, app, "Goa")
	pune := saveEvent(t, app, "Pune")

	watching := hub.Subscribe(TopicBookings, Filter{Field: "event_id", Value: goa})
	defer watching.Close()
	elsewhere := hub.Subscribe(TopicBookings, Filter{Field: "event_id", Value: pune})
	defer elsewhere.Close()

	booking := newRecord(t, app, TopicBookings, map[string]any{
		"user_id":      "user-1",
		"event_id":     goa,
		"name":         "Ravi",
		"email":        "ravi@example.com",
		"phone":        "+919800000000",
		"tickets":      2,
		"status":       "confirmed",
		"ticket_names": []string{},
	})
	require.NoError(t, app.Save(booking))

	created := receive(t, watching)
	assert.Equal(t, ActionCreate, created.Action)
	assert.Equal(t, booking.Id, created.RecordID)
	assert.Equal(t, goa, created.EventID)
	assert.Equal(t, "Ravi", created.Row["name"])
	assert.NotEmpty(t, created.ID)

	booking.Set("status", "cancelled")
	require.NoError(t, app.Save(booking))
	updated := receive(t, watching)
	assert.Equal(t, ActionUpdate, updated.Action)
	assert.Equal(t, "cancelled", updated.Row["status"])

	require.NoError(t, app.Delete(booking))
	deleted := receive(t, watching)
	assert.Equal(t, ActionDelete, deleted.Action)
	assert.Equal(t, booking.Id, deleted.RecordID)

	assertNothing(t, elsewhere)
}

func TestBindHooks_FailedSavePublishesNothing(t *testing.T) {
	app, hub := newHookedApp(t)
	goa := saveEvent(t, app, "Goa")

	sub := hub.Subscribe(TopicBookings, Filter{})
	defer sub.Close()

	// tickets must be at least one
	booking := newRecord(t, app, TopicBookings, map[string]any{
		"user_id":  "user-1",
		"event_id": goa,
		"name":     "Ravi",
		"email":    "ravi@example.com",
		"phone":    "+919800000000",
		"tickets":  0,
		"status":   "confirmed",
	})
	require.Error(t, app.Save(booking))

	assertNothing(t, sub)
}

func TestBindHooks_IgnoresUnwatchedCollections(t *testing.T) {
	app, hub := newHookedApp(t)

	sub := hub.Subscribe(TopicBookings, Filter{})
	defer sub.Close()

	saveEvent(t, app, "Goa")

	assertNothing(t, sub)
	assert.Equal(t, 1, hub.Subscribers(TopicBookings))
}
