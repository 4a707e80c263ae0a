package websocket

import (
	"context"
	"testing"
	"time"

	"noteguard-be/internal/pkg/logger"
	"noteguard-be/pkg/events"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startHub(t *testing.T) (*Hub, context.CancelFunc) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	hub := NewHub(logger.NewNopLogger())
	go hub.Run(ctx)
	t.Cleanup(cancel)
	return hub, cancel
}

func newClient(hub *Hub, buffer int) *Client {
	return &Client{Hub: hub, UserID: uuid.New(), Send: make(chan []byte, buffer)}
}

func receive(t *testing.T, c *Client) []byte {
	t.Helper()
	select {
	case msg, ok := <-c.Send:
		require.True(t, ok, "send channel closed")
		return msg
	case <-time.After(time.Second):
		t.Fatal("no message received")
		return nil
	}
}

func TestHubBroadcastReachesEveryClient(t *testing.T) {
	hub, _ := startHub(t)
	a, b := newClient(hub, 4), newClient(hub, 4)
	require.True(t, hub.join(a))
	require.True(t, hub.join(b))

	require.True(t, hub.Broadcast([]byte("hello")))

	assert.Equal(t, "hello", string(receive(t, a)))
	assert.Equal(t, "hello", string(receive(t, b)))
	assert.Equal(t, 2, hub.ClientCount())
}

func TestHubDisconnectsSlowClient(t *testing.T) {
	hub, _ := startHub(t)
	slow := newClient(hub, 1)
	require.True(t, hub.join(slow))

	hub.Broadcast([]byte("first"))
	hub.Broadcast([]byte("second"))

	assert.Eventually(t, func() bool { return hub.ClientCount() == 0 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, "first", string(<-slow.Send))
	_, ok := <-slow.Send
	assert.False(t, ok)
}

func TestHubLeaveClosesSend(t *testing.T) {
	hub, _ := startHub(t)
	c := newClient(hub, 1)
	require.True(t, hub.join(c))

	hub.leave(c)
	_, ok := <-c.Send
	assert.False(t, ok)
	assert.Equal(t, 0, hub.ClientCount())

	// a second leave is a no-op
	hub.leave(c)
}

func TestHubStopsWithContext(t *testing.T) {
	hub, cancel := startHub(t)
	c := newClient(hub, 1)
	require.True(t, hub.join(c))

	cancel()
	<-hub.done

	_, ok := <-c.Send
	assert.False(t, ok)
	assert.False(t, hub.join(newClient(hub, 1)))
	assert.False(t, hub.Broadcast([]byte("late")))
	hub.leave(c)
}

func TestHubRejectsEveryBroadcastAfterStop(t *testing.T) {
	hub, cancel := startHub(t)
	cancel()
	<-hub.done

	for i := 0; i < 1000; i++ {
		require.False(t, hub.Broadcast([]byte("late")), "broadcast %d accepted after stop", i)
		require.False(t, hub.join(newClient(hub, 1)), "join %d accepted after stop", i)
	}
	assert.Empty(t, hub.broadcast)
	assert.Zero(t, hub.ClientCount())
}

func TestFeedForwardsLifecycleEvents(t *testing.T) {
	hub, _ := startHub(t)
	c := newClient(hub, 4)
	require.True(t, hub.join(c))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	bus := gochannel.NewGoChannel(gochannel.Config{}, watermill.NopLogger{})
	defer bus.Close()
	require.NoError(t, Feed(ctx, bus, "lifecycle", hub))

	payload, err := events.Marshal(events.BaseEvent{
		Type:       events.NoteShared,
		Data:       map[string]interface{}{"note_id": "n-1"},
		OccurredAt: time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	require.NoError(t, bus.Publish("lifecycle", message.NewMessage(watermill.NewUUID(), []byte("not json"))))
	require.NoError(t, bus.Publish("lifecycle", message.NewMessage(watermill.NewUUID(), payload)))

	got := receive(t, c)
	event, err := events.Unmarshal(got)
	require.NoError(t, err)
	assert.Equal(t, events.NoteShared, event.EventType())
	assert.Equal(t, "n-1", event.Payload()["note_id"])

	select {
	case extra := <-c.Send:
		t.Fatalf("unexpected message %q", extra)
	case <-time.After(50 * time.Millisecond):
	}
}
