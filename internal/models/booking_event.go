package models

import "time"

// Booking lifecycle event types streamed to Kafka and SSE subscribers.
const (
	BookingEventCreated   = "booking_created"
	BookingEventQueued    = "booking_queued"
	BookingEventConfirmed = "booking_confirmed"
	BookingEventPromoted  = "booking_promoted"
	BookingEventCancelled = "booking_cancelled"
)

type BookingEvent struct {
	Type       string        `json:"type"`
	BookingID  string        `json:"booking_id"`
	SessionID  string        `json:"session_id"`
	UserID     string        `json:"user_id"`
	Status     BookingStatus `json:"status"`
	OccurredAt time.Time     `json:"occurred_at"`
}

// NewBookingEvent snapshots a booking into its wire event.
func NewBookingEvent(eventType string, b *Booking, at time.Time) BookingEvent {
	return BookingEvent{
		Type:       eventType,
		BookingID:  b.ID,
		SessionID:  b.SessionID,
		UserID:     b.UserID,
		Status:     b.Status,
		OccurredAt: at,
	}
}
