package migrations

import (
	"github.com/pocketbase/pocketbase/core"
	m "github.com/pocketbase/pocketbase/migrations"
)

func init() {
	m.Register(func(app core.App) error {
		hosts := core.NewBaseCollection("hosts", "pbc_hosts_0001")
		hosts.Fields.Add(
			&core.TextField{Name: "user_id", Required: true},
			&core.TextField{Name: "name", Max: 200},
			&core.BoolField{Name: "is_verified"},
			&core.BoolField{Name: "is_active"},
			&core.AutodateField{Name: "created", OnCreate: true},
			&core.AutodateField{Name: "updated", OnCreate: true, OnUpdate: true},
		)
		hosts.AddIndex("idx_hosts_user", true, "user_id", "")

		if err := app.Save(hosts); err != nil {
			return err
		}

		events, err := app.FindCollectionByNameOrId("events")
		if err != nil {
			return err
		}

		hostEvents := core.NewBaseCollection("host_events", "pbc_host_events_0001")
		hostEvents.Fields.Add(
			&core.RelationField{Name: "host_id", Required: true, CollectionId: hosts.Id, MaxSelect: 1, CascadeDelete: true},
			&core.RelationField{Name: "event_id", Required: true, CollectionId: events.Id, MaxSelect: 1, CascadeDelete: true},
			&core.BoolField{Name: "mark_attendance"},
			&core.BoolField{Name: "view_bookings"},
			&core.BoolField{Name: "create_events"},
		)
		hostEvents.AddIndex("idx_host_events_pair", true, "host_id, event_id", "")

		return app.Save(hostEvents)
	}, func(app core.App) error {
		for _, id := range []string{"pbc_host_events_0001", "pbc_hosts_0001"} {
			collection, err := app.FindCollectionByNameOrId(id)
			if err != nil {
				return err
			}
			if err := app.Delete(collection); err != nil {
				return err
			}
		}
		return nil
	})
}
