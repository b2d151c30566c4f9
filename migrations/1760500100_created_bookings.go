package migrations

import (
	"github.com/pocketbase/pocketbase/core"
	m "github.com/pocketbase/pocketbase/migrations"
	"github.com/pocketbase/pocketbase/tools/types"
)

func init() {
	m.Register(func(app core.App) error {
		events, err := app.FindCollectionByNameOrId("events")
		if err != nil {
			return err
		}

		collection := core.NewBaseCollection("bookings", "pbc_bookings_0001")

		// owners read their own bookings; writes go through the checkout route
		collection.ListRule = types.Pointer("@request.auth.id != '' && user_id = @request.auth.id")
		collection.ViewRule = types.Pointer("@request.auth.id != '' && user_id = @request.auth.id")

		collection.Fields.Add(
			&core.TextField{Name: "user_id", Required: true},
			&core.RelationField{Name: "event_id", Required: true, CollectionId: events.Id, MaxSelect: 1},
			&core.TextField{Name: "name", Required: true, Max: 200},
			&core.EmailField{Name: "email", Required: true},
			&core.TextField{Name: "phone", Required: true, Max: 32},
			&core.NumberField{Name: "tickets", Required: true, OnlyInt: true, Min: types.Pointer(1.0)},
			&core.NumberField{Name: "amount", Min: types.Pointer(0.0)},
			&core.SelectField{Name: "status", Required: true, MaxSelect: 1, Values: []string{"pending", "confirmed", "cancelled"}},
			&core.JSONField{Name: "ticket_names", MaxSize: 64 << 10},
			&core.TextField{Name: "coupon_code", Max: 32},
			&core.NumberField{Name: "discount_amount", Min: types.Pointer(0.0)},
			&core.TextField{Name: "payment_id", Max: 128},
			&core.AutodateField{Name: "created", OnCreate: true},
			&core.AutodateField{Name: "updated", OnCreate: true, OnUpdate: true},
		)

		collection.AddIndex("idx_bookings_user", false, "user_id", "")
		collection.AddIndex("idx_bookings_event", false, "event_id", "")

		return app.Save(collection)
	}, func(app core.App) error {
		collection, err := app.FindCollectionByNameOrId("pbc_bookings_0001")
		if err != nil {
			return err
		}

		return app.Delete(collection)
	})
}
