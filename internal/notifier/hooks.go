package notifier

import (
	"github.com/pocketbase/pocketbase/core"
)

// BindHooks feeds the hub from PocketBase record hooks on every topic
// collection. Hooks fire only after the write committed.
func BindHooks(app core.App, hub *Hub) {
	for _, topic := range Topics {
		topic := topic

		app.OnRecordAfterCreateSuccess(topic).BindFunc(func(e *core.RecordEvent) error {
			hub.Publish(changeFromRecord(topic, ActionCreate, e.Record))
			return e.Next()
		})

		app.OnRecordAfterUpdateSuccess(topic).BindFunc(func(e *core.RecordEvent) error {
			hub.Publish(changeFromRecord(topic, ActionUpdate, e.Record))
			return e.Next()
		})

		app.OnRecordAfterDeleteSuccess(topic).BindFunc(func(e *core.RecordEvent) error {
			hub.Publish(changeFromRecord(topic, ActionDelete, e.Record))
			return e.Next()
		})
	}
}

func changeFromRecord(topic, action string, record *core.Record) Change {
	return Change{
		Topic:    topic,
		Action:   action,
		RecordID: record.Id,
		EventID:  record.GetString("event_id"),
		Row:      record.PublicExport(),
	}
}
