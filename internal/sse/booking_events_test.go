package sse

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ms-gymbooking/internal/models"
)

func TestSubscribeAndBroadcast(t *testing.T) {
	e := NewBookingEventEmitter()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch := e.Subscribe(ctx, "session-1")
	other := e.Subscribe(ctx, "session-2")
	assert.Equal(t, 1, e.SubscriberCount("session-1"))

	event := models.BookingEvent{
		Type:      models.BookingEventPromoted,
		BookingID: "b1",
		SessionID: "session-1",
		Status:    models.StatusConfirmed,
	}
	e.Broadcast(event)

	select {
	case got := <-ch:
		assert.Equal(t, event, got)
	case <-time.After(time.Second):
		t.Fatal("subscriber did not receive the event")
	}

	// Subscribers of other sessions see nothing.
	select {
	case <-other:
		t.Fatal("event leaked to another session's subscriber")
	default:
	}
}

func TestUnsubscribeOnContextEnd(t *testing.T) {
	e := NewBookingEventEmitter()
	ctx, cancel := context.WithCancel(context.Background())

	ch := e.Subscribe(ctx, "session-1")
	require.Equal(t, 1, e.SubscriberCount("session-1"))

	cancel()

	// The unsubscribe goroutine closes the channel.
	deadline := time.After(time.Second)
	for e.SubscriberCount("session-1") != 0 {
		select {
		case <-deadline:
			t.Fatal("subscriber was not removed after context cancellation")
		case <-time.After(5 * time.Millisecond):
		}
	}

	_, open := <-ch
	assert.False(t, open, "channel should be closed after unsubscribe")
}

func TestBroadcastSkipsFullBuffers(t *testing.T) {
	e := NewBookingEventEmitter()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch := e.Subscribe(ctx, "session-1")

	// Fill the buffer past capacity; Broadcast must not block.
	done := make(chan struct{})
	go func() {
		for i := 0; i < 25; i++ {
			e.Broadcast(models.BookingEvent{Type: models.BookingEventConfirmed, SessionID: "session-1"})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("broadcast blocked on a slow subscriber")
	}
	assert.Equal(t, 10, len(ch), "buffered events up to channel capacity")
}
