package migrations

import (
	"github.com/pocketbase/pocketbase/core"
	m "github.com/pocketbase/pocketbase/migrations"
)

func init() {
	m.Register(func(app core.App) error {
		tickets, err := app.FindCollectionByNameOrId("tickets")
		if err != nil {
			return err
		}

		collection := core.NewBaseCollection("attendance_records", "pbc_attendance_0001")

		collection.Fields.Add(
			&core.RelationField{Name: "ticket_id", Required: true, CollectionId: tickets.Id, MaxSelect: 1, CascadeDelete: true},
			&core.TextField{Name: "event_id", Required: true},
			&core.TextField{Name: "host_id", Required: true},
			&core.SelectField{Name: "status", Required: true, MaxSelect: 1, Values: []string{"present", "absent"}},
			&core.TextField{Name: "notes", Max: 500},
			&core.DateField{Name: "marked_at", Required: true},
			&core.AutodateField{Name: "created", OnCreate: true},
		)

		collection.AddIndex("idx_attendance_ticket", false, "ticket_id, marked_at", "")
		collection.AddIndex("idx_attendance_event", false, "event_id", "")

		return app.Save(collection)
	}, func(app core.App) error {
		collection, err := app.FindCollectionByNameOrId("pbc_attendance_0001")
		if err != nil {
			return err
		}

		return app.Delete(collection)
	})
}
