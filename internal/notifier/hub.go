// Package notifier fans record changes out to live dashboards. A change is
// only a hint that something moved; subscribers re-query the store for the
// authoritative state.
package notifier

import (
	"fmt"
	"sync"
	"time"

	"booking-engine/monitoring"

	"github.com/google/uuid"
)

const (
	TopicBookings   = "bookings"
	TopicTickets    = "tickets"
	TopicAttendance = "attendance_records"

	ActionCreate = "create"
	ActionUpdate = "update"
	ActionDelete = "delete"
)

// Topics lists every topic the hub is fed with.
var Topics = []string{TopicBookings, TopicTickets, TopicAttendance}

type Change struct {
	ID       string         `json:"id"`
	Topic    string         `json:"topic"`
	Action   string         `json:"action"`
	RecordID string         `json:"record_id"`
	EventID  string         `json:"event_id,omitempty"`
	Row      map[string]any `json:"row,omitempty"`
	At       time.Time      `json:"at"`
}

// Filter narrows a subscription to rows whose Field equals Value. The zero
// Filter matches every change of the topic.
type Filter struct {
	Field string
	Value string
}

func (f Filter) matches(c Change) bool {
	if f.Field == "" {
		return true
	}
	if f.Field == "event_id" && c.EventID != "" {
		return c.EventID == f.Value
	}
	v, ok := c.Row[f.Field]
	if !ok || v == nil {
		return false
	}
	return fmt.Sprint(v) == f.Value
}

type Subscription struct {
	C <-chan Change

	ch     chan Change
	hub    *Hub
	id     uint64
	topic  string
	filter Filter
	once   sync.Once
}

// Close unsubscribes and closes C. It is safe to call more than once.
func (s *Subscription) Close() {
	s.once.Do(func() {
		s.hub.remove(s)
	})
}

// Hub is an in-process topic+filter pub/sub. It holds subscriptions only,
// never authoritative state.
type Hub struct {
	mu      sync.RWMutex
	subs    map[string]map[uint64]*Subscription
	nextID  uint64
	buffer  int
	nowFunc func() time.Time
}

func NewHub(buffer int) *Hub {
	if buffer <= 0 {
		buffer = 64
	}
	return &Hub{
		subs:    make(map[string]map[uint64]*Subscription),
		buffer:  buffer,
		nowFunc: time.Now,
	}
}

func (h *Hub) Subscribe(topic string, filter Filter) *Subscription {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.nextID++
	ch := make(chan Change, h.buffer)
	sub := &Subscription{
		C:      ch,
		ch:     ch,
		hub:    h,
		id:     h.nextID,
		topic:  topic,
		filter: filter,
	}

	if h.subs[topic] == nil {
		h.subs[topic] = make(map[uint64]*Subscription)
	}
	h.subs[topic][sub.id] = sub
	monitoring.SetSubscribers(topic, len(h.subs[topic]))
	return sub
}

func (h *Hub) remove(sub *Subscription) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if subs, ok := h.subs[sub.topic]; ok {
		delete(subs, sub.id)
		monitoring.SetSubscribers(sub.topic, len(subs))
	}
	close(sub.ch)
}

// Publish delivers c to every matching subscriber without blocking. A full
// subscriber buffer drops the hint. It returns the number of deliveries.
func (h *Hub) Publish(c Change) int {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if c.At.IsZero() {
		c.At = h.nowFunc()
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	delivered := 0
	for _, sub := range h.subs[c.Topic] {
		if !sub.filter.matches(c) {
			continue
		}
		select {
		case sub.ch <- c:
			delivered++
		default:
			monitoring.TrackDroppedHint(c.Topic)
		}
	}
	return delivered
}

// Subscribers reports the live subscription count of a topic.
func (h *Hub) Subscribers(topic string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[topic])
}
