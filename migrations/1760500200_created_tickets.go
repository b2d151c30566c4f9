package migrations

import (
	"github.com/pocketbase/pocketbase/core"
	m "github.com/pocketbase/pocketbase/migrations"
	"github.com/pocketbase/pocketbase/tools/types"
)

func init() {
	m.Register(func(app core.App) error {
		bookings, err := app.FindCollectionByNameOrId("bookings")
		if err != nil {
			return err
		}
		events, err := app.FindCollectionByNameOrId("events")
		if err != nil {
			return err
		}

		collection := core.NewBaseCollection("tickets", "pbc_tickets_0001")

		collection.ViewRule = types.Pointer("@request.auth.id != '' && booking_id.user_id = @request.auth.id")

		collection.Fields.Add(
			&core.RelationField{Name: "booking_id", Required: true, CollectionId: bookings.Id, MaxSelect: 1, CascadeDelete: true},
			&core.RelationField{Name: "event_id", Required: true, CollectionId: events.Id, MaxSelect: 1},
			&core.NumberField{Name: "seat_index", OnlyInt: true, Min: types.Pointer(0.0)},
			&core.TextField{Name: "ticket_number", Required: true, Max: 64},
			&core.TextField{Name: "qr_payload", Max: 1024},
			&core.TextField{Name: "holder_name", Max: 200},
			&core.SelectField{Name: "attendance", MaxSelect: 1, Values: []string{"present", "absent"}},
			&core.AutodateField{Name: "created", OnCreate: true},
			&core.AutodateField{Name: "updated", OnCreate: true, OnUpdate: true},
		)

		collection.AddIndex("idx_tickets_number", true, "ticket_number", "")
		collection.AddIndex("idx_tickets_booking_seat", true, "booking_id, seat_index", "")
		collection.AddIndex("idx_tickets_event_attendance", false, "event_id, attendance", "")

		return app.Save(collection)
	}, func(app core.App) error {
		collection, err := app.FindCollectionByNameOrId("pbc_tickets_0001")
		if err != nil {
			return err
		}

		return app.Delete(collection)
	})
}
