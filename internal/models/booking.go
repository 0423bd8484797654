package models

import (
	"time"

	"github.com/uptrace/bun"
)

type BookingStatus string

const (
	StatusPending   BookingStatus = "pending"
	StatusConfirmed BookingStatus = "confirmed"
	StatusQueued    BookingStatus = "queued"
	// StatusCancelled never appears in the ledger: cancelling a booking
	// deletes the row. It exists so admin status updates can name it.
	StatusCancelled BookingStatus = "cancelled"
)

// Valid reports whether the value is one of the known statuses.
func (s BookingStatus) Valid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusQueued, StatusCancelled:
		return true
	}
	return false
}

// ReservesSpot reports whether a booking in this status holds capacity.
// Pending bookings reserve a spot while they await staff confirmation;
// queued bookings do not.
func (s BookingStatus) ReservesSpot() bool {
	return s == StatusConfirmed || s == StatusPending
}

type Booking struct {
	bun.BaseModel `bun:"table:bookings"`

	ID        string        `bun:"id,pk" json:"id"`
	UserID    string        `bun:"user_id,notnull,unique:user_session" json:"user_id"`
	SessionID string        `bun:"session_id,notnull,unique:user_session" json:"session_id"`
	Status    BookingStatus `bun:"status,notnull" json:"status"`
	CreatedAt time.Time     `bun:"created_at,notnull" json:"created_at"`

	Session *Session `bun:"rel:belongs-to,join:session_id=id" json:"session,omitempty"`
}

// StatusTotals aggregates the ledger for dashboard counters.
type StatusTotals struct {
	Total     int `json:"total"`
	Confirmed int `json:"confirmed"`
	Pending   int `json:"pending"`
	Queued    int `json:"queued"`
}
