package notifier

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func receive(t *testing.T, sub *Subscription) Change {
	t.Helper()
	select {
	case c := <-sub.C:
		return c
	case <-time.After(time.Second):
		t.Fatal("no change delivered")
		return Change{}
	}
}

func assertNothing(t *testing.T, sub *Subscription) {
	t.Helper()
	select {
	case c := <-sub.C:
		t.Fatalf("unexpected change %+v", c)
	case <-time.After(20 * time.Millisecond):
	}
}

func TestHub_FilterByEvent(t *testing.T) {
	hub := NewHub(8)
	sub := hub.Subscribe(TopicTickets, Filter{Field: "event_id", Value: "event-1"})
	defer sub.Close()

	hub.Publish(Change{Topic: TopicTickets, Action: ActionCreate, RecordID: "t1", EventID: "event-1"})
	hub.Publish(Change{Topic: TopicTickets, Action: ActionCreate, RecordID: "t2", EventID: "event-2"})
	hub.Publish(Change{Topic: TopicBookings, Action: ActionCreate, RecordID: "b1", EventID: "event-1"})

	c := receive(t, sub)
	assert.Equal(t, "t1", c.RecordID)
	assert.NotEmpty(t, c.ID)
	assert.False(t, c.At.IsZero())
	assertNothing(t, sub)
}

func TestHub_FilterByRowField(t *testing.T) {
	hub := NewHub(8)
	sub := hub.Subscribe(TopicBookings, Filter{Field: "user_id", Value: "user-7"})
	defer sub.Close()

	hub.Publish(Change{Topic: TopicBookings, RecordID: "b1", Row: map[string]any{"user_id": "user-7"}})
	hub.Publish(Change{Topic: TopicBookings, RecordID: "b2", Row: map[string]any{"user_id": "user-8"}})
	hub.Publish(Change{Topic: TopicBookings, RecordID: "b3"})

	assert.Equal(t, "b1", receive(t, sub).RecordID)
	assertNothing(t, sub)
}

func TestHub_FullBufferDropsHint(t *testing.T) {
	hub := NewHub(1)
	slow := hub.Subscribe(TopicTickets, Filter{})
	fast := hub.Subscribe(TopicTickets, Filter{})
	defer slow.Close()
	defer fast.Close()

	assert.Equal(t, 2, hub.Publish(Change{Topic: TopicTickets, RecordID: "t1"}))
	receive(t, fast)

	// slow still holds t1, so t2 is dropped for it only
	assert.Equal(t, 1, hub.Publish(Change{Topic: TopicTickets, RecordID: "t2"}))
	assert.Equal(t, "t1", receive(t, slow).RecordID)
	assert.Equal(t, "t2", receive(t, fast).RecordID)
}

func TestHub_CloseUnsubscribes(t *testing.T) {
	hub := NewHub(4)
	sub := hub.Subscribe(TopicAttendance, Filter{})
	assert.Equal(t, 1, hub.Subscribers(TopicAttendance))

	sub.Close()
	sub.Close()

	assert.Equal(t, 0, hub.Subscribers(TopicAttendance))
	_, open := <-sub.C
	assert.False(t, open)
	assert.Equal(t, 0, hub.Publish(Change{Topic: TopicAttendance}))
}

func TestHub_ConcurrentPublishAndClose(t *testing.T) {
	hub := NewHub(2)
	var wg sync.WaitGroup

	for i := 0; i < 20; i++ {
		wg.Add(2)
		sub := hub.Subscribe(TopicTickets, Filter{})
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				hub.Publish(Change{Topic: TopicTickets})
			}
		}()
		go func() {
			defer wg.Done()
			sub.Close()
		}()
	}
	wg.Wait()
	assert.Equal(t, 0, hub.Subscribers(TopicTickets))
}

func TestChannels(t *testing.T) {
	assert.Equal(t, []string{"dashboard.tickets", "dashboard.tickets.event-1"},
		Channels(Change{Topic: TopicTickets, EventID: "event-1"}))
	assert.Equal(t, []string{"dashboard.bookings"}, Channels(Change{Topic: TopicBookings}))
}

type recordingPublisher struct {
	mu       sync.Mutex
	channels []string
	fail     bool
}

func (p *recordingPublisher) Publish(channel string, message any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.channels = append(p.channels, channel)
	if p.fail {
		return errors.New("pubnub 403")
	}
	return nil
}

func (p *recordingPublisher) published() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.channels...)
}

func TestBridge_ForwardsHints(t *testing.T) {
	hub := NewHub(8)
	pub := &recordingPublisher{}
	bridge := NewBridge(hub, pub)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- bridge.Run(ctx) }()

	require.Eventually(t, func() bool { return hub.Subscribers(TopicTickets) == 1 }, time.Second, 5*time.Millisecond)
	hub.Publish(Change{Topic: TopicTickets, Action: ActionUpdate, RecordID: "t1", EventID: "event-1"})

	require.Eventually(t, func() bool { return len(pub.published()) == 2 }, time.Second, 5*time.Millisecond)
	assert.ElementsMatch(t, []string{"dashboard.tickets", "dashboard.tickets.event-1"}, pub.published())

	cancel()
	require.NoError(t, <-done)
	assert.Equal(t, 0, hub.Subscribers(TopicTickets))
}

func TestBridge_PublishErrorsAreNotFatal(t *testing.T) {
	hub := NewHub(8)
	pub := &recordingPublisher{fail: true}
	bridge := NewBridge(hub, pub)

	bridge.forward(Change{Topic: TopicBookings, RecordID: "b1"})
	assert.Equal(t, []string{"dashboard.bookings"}, pub.published())
}
