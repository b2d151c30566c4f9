package notifier

import (
	"context"
	"fmt"
	"log/slog"

	pubnub "github.com/pubnub/go"
)

// Publisher sends a message to a named realtime channel.
type Publisher interface {
	Publish(channel string, message any) error
}

type pubnubPublisher struct {
	pn *pubnub.PubNub
}

type PubNubConfig struct {
	PublishKey   string
	SubscribeKey string
	SecretKey    string
	UUID         string
}

func NewPubNubPublisher(cfg PubNubConfig) Publisher {
	pnConfig := pubnub.NewConfig()
	pnConfig.PublishKey = cfg.PublishKey
	pnConfig.SubscribeKey = cfg.SubscribeKey
	pnConfig.SecretKey = cfg.SecretKey
	pnConfig.UUID = cfg.UUID

	return &pubnubPublisher{pn: pubnub.NewPubNub(pnConfig)}
}

func (p *pubnubPublisher) Publish(channel string, message any) error {
	_, _, err := p.pn.Publish().
		Channel(channel).
		Message(message).
		Execute()
	return err
}

// Bridge forwards hub changes to remote dashboards as re-fetch hints on
// "dashboard.<topic>" and, when the row belongs to an event,
// "dashboard.<topic>.<event_id>".
type Bridge struct {
	hub       *Hub
	publisher Publisher
}

func NewBridge(hub *Hub, publisher Publisher) *Bridge {
	return &Bridge{hub: hub, publisher: publisher}
}

// Run forwards until ctx is cancelled.
func (b *Bridge) Run(ctx context.Context) error {
	merged := make(chan Change, b.hub.buffer)
	for _, topic := range Topics {
		sub := b.hub.Subscribe(topic, Filter{})
		defer sub.Close()

		go func() {
			for c := range sub.C {
				select {
				case merged <- c:
				case <-ctx.Done():
					return
				}
			}
		}()
	}

	slog.Info("Dashboard bridge started", "topics", Topics)
	for {
		select {
		case <-ctx.Done():
			slog.Info("Dashboard bridge stopped")
			return nil
		case c := <-merged:
			b.forward(c)
		}
	}
}

func (b *Bridge) forward(c Change) {
	hint := map[string]any{
		"type":      "refetch",
		"topic":     c.Topic,
		"action":    c.Action,
		"record_id": c.RecordID,
		"event_id":  c.EventID,
	}

	for _, channel := range Channels(c) {
		if err := b.publisher.Publish(channel, hint); err != nil {
			slog.Warn("Failed to publish dashboard hint", "channel", channel, "record_id", c.RecordID, "error", err)
		}
	}
}

// Channels returns the realtime channels a change is published on.
func Channels(c Change) []string {
	channels := []string{fmt.Sprintf("dashboard.%s", c.Topic)}
	if c.EventID != "" {
		channels = append(channels, fmt.Sprintf("dashboard.%s.%s", c.Topic, c.EventID))
	}
	return channels
}
