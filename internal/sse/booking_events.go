package sse

import (
	"context"
	"sync"

	"ms-gymbooking/internal/models"
)

// BookingEventEmitter manages SSE connections and broadcasts booking
// confirmations and promotions to clients watching a session.
type BookingEventEmitter struct {
	// key: session id, value: subscriber channels
	sessionClients map[string][]chan models.BookingEvent
	mu             sync.RWMutex
}

func NewBookingEventEmitter() *BookingEventEmitter {
	return &BookingEventEmitter{
		sessionClients: make(map[string][]chan models.BookingEvent),
	}
}

// Subscribe adds a client to a session's event stream. The returned channel
// is removed and closed when the context ends.
func (e *BookingEventEmitter) Subscribe(ctx context.Context, sessionID string) chan models.BookingEvent {
	clientChan := make(chan models.BookingEvent, 10)

	e.mu.Lock()
	e.sessionClients[sessionID] = append(e.sessionClients[sessionID], clientChan)
	e.mu.Unlock()

	go func() {
		<-ctx.Done()
		e.unsubscribe(sessionID, clientChan)
	}()

	return clientChan
}

func (e *BookingEventEmitter) unsubscribe(sessionID string, clientChan chan models.BookingEvent) {
	e.mu.Lock()
	defer e.mu.Unlock()

	clients := e.sessionClients[sessionID]
	for i, ch := range clients {
		if ch == clientChan {
			e.sessionClients[sessionID] = append(clients[:i], clients[i+1:]...)
			close(ch)
			break
		}
	}
	if len(e.sessionClients[sessionID]) == 0 {
		delete(e.sessionClients, sessionID)
	}
}

// Broadcast fans an event out to every subscriber of its session. Slow
// clients with a full buffer miss the event instead of blocking the engine.
func (e *BookingEventEmitter) Broadcast(event models.BookingEvent) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	for _, ch := range e.sessionClients[event.SessionID] {
		select {
		case ch <- event:
		default:
		}
	}
}

// SubscriberCount reports how many clients watch a session.
func (e *BookingEventEmitter) SubscriberCount(sessionID string) int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.sessionClients[sessionID])
}
