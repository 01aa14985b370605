package realtime

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func receive(t *testing.T, client *Client) Event {
	t.Helper()
	select {
	case data := <-client.Send:
		var event Event
		require.NoError(t, json.Unmarshal(data, &event))
		return event
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
		return Event{}
	}
}

func TestHubDeliversOnlyToProjectSubscribers(t *testing.T) {
	hub := NewHub(zerolog.Nop())
	go hub.Run()

	subscriber := NewClient("alice", []string{"p1"})
	bystander := NewClient("bob", []string{"p2"})
	hub.Register(subscriber)
	hub.Register(bystander)
	defer hub.Unregister(subscriber)
	defer hub.Unregister(bystander)

	hub.PublishTaskEvent(EventTaskCreated, "p1", "t1", "alice")

	event := receive(t, subscriber)
	assert.Equal(t, EventTaskCreated, event.Type)

	select {
	case data := <-bystander.Send:
		t.Fatalf("bystander received event for another project: %s", data)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestHubFansOutToAllSubscribers(t *testing.T) {
	hub := NewHub(zerolog.Nop())
	go hub.Run()

	first := NewClient("alice", []string{"p1"})
	second := NewClient("bob", []string{"p1", "p2"})
	hub.Register(first)
	hub.Register(second)
	defer hub.Unregister(first)
	defer hub.Unregister(second)

	hub.PublishProjectDeleted("p1")

	assert.Equal(t, EventProjectDeleted, receive(t, first).Type)
	assert.Equal(t, EventProjectDeleted, receive(t, second).Type)
}

func TestHubDropsEventsForFullClientBuffer(t *testing.T) {
	hub := NewHub(zerolog.Nop())
	go hub.Run()

	slow := NewClient("alice", []string{"p1"})
	hub.Register(slow)
	defer hub.Unregister(slow)

	// Overrun the client buffer without draining it. The hub must keep
	// going: the excess is dropped, nothing blocks.
	for i := 0; i < cap(slow.Send)*2; i++ {
		hub.PublishTaskEvent(EventTaskUpdated, "p1", "t1", "alice")
	}

	// A healthy client on a different project still receives traffic; it
	// is isolated from whatever part of the flood is still in flight.
	healthy := NewClient("bob", []string{"p2"})
	hub.Register(healthy)
	defer hub.Unregister(healthy)

	hub.PublishTaskEvent(EventTaskDeleted, "p2", "t2", "alice")
	assert.Equal(t, EventTaskDeleted, receive(t, healthy).Type)

	// The slow client got exactly a bufferful; the rest were dropped.
	assert.Len(t, slow.Send, cap(slow.Send))
}

func TestClientSubscriptionSet(t *testing.T) {
	client := NewClient("alice", []string{"p1", "p2"})
	assert.True(t, client.Projects["p1"])
	assert.True(t, client.Projects["p2"])
	assert.False(t, client.Projects["p3"])
	assert.NotEmpty(t, client.ID)
}
