package migrations

import (
	"github.com/pocketbase/pocketbase/core"
	m "github.com/pocketbase/pocketbase/migrations"
	"github.com/pocketbase/pocketbase/tools/types"
)

func init() {
	m.Register(func(app core.App) error {
		collection := core.NewBaseCollection("events", "pbc_events_0001")

		collection.ListRule = types.Pointer("")
		collection.ViewRule = types.Pointer("")

		collection.Fields.Add(
			&core.TextField{Name: "title", Required: true, Max: 200},
			&core.TextField{Name: "date", Required: true, Pattern: `^\d{4}-\d{2}-\d{2}$`},
			&core.TextField{Name: "time", Pattern: `^(\d{2}:\d{2}(:\d{2})?)?$`},
			&core.NumberField{Name: "duration_minutes", OnlyInt: true, Min: types.Pointer(0.0)},
			&core.NumberField{Name: "price", Min: types.Pointer(0.0)},
			&core.NumberField{Name: "base_price", Min: types.Pointer(0.0)},
			&core.NumberField{Name: "gst", Min: types.Pointer(0.0)},
			&core.NumberField{Name: "convenience_fee", Min: types.Pointer(0.0)},
			&core.NumberField{Name: "subtotal", Min: types.Pointer(0.0)},
			&core.NumberField{Name: "ticket_price", Min: types.Pointer(0.0)},
			&core.BoolField{Name: "has_discount"},
			&core.NumberField{Name: "real_price", Min: types.Pointer(0.0)},
			&core.NumberField{Name: "discounted_price", Min: types.Pointer(0.0)},
			&core.TextField{Name: "city", Max: 100},
			&core.TextField{Name: "venue", Max: 200},
			&core.AutodateField{Name: "created", OnCreate: true},
			&core.AutodateField{Name: "updated", OnCreate: true, OnUpdate: true},
		)

		collection.AddIndex("idx_events_date", false, "date", "")
		collection.AddIndex("idx_events_city", false, "city", "")

		return app.Save(collection)
	}, func(app core.App) error {
		collection, err := app.FindCollectionByNameOrId("pbc_events_0001")
		if err != nil {
			return err
		}

		return app.Delete(collection)
	})
}
