package models

import (
	"time"

	"github.com/uptrace/bun"

	"ms-gymbooking/internal/utils"
)

type Session struct {
	bun.BaseModel `bun:"table:gym_sessions"`

	ID        string    `bun:"id,pk" json:"id"`
	Name      string    `bun:"name,notnull" json:"name"`
	Date      time.Time `bun:"date,notnull" json:"date"`
	StartTime string    `bun:"start_time,notnull" json:"start_time"`
	EndTime   string    `bun:"end_time,notnull" json:"end_time"`
	Capacity  int       `bun:"capacity,notnull" json:"capacity"`
	ImageURL  string    `bun:"image_url,nullzero" json:"image_url,omitempty"`
	CreatedAt time.Time `bun:"created_at,notnull" json:"created_at"`
}

// StartsAt combines the session date with its start time.
func (s *Session) StartsAt() time.Time {
	t, err := utils.CombineDateAndClock(s.Date, s.StartTime)
	if err != nil {
		return s.Date
	}
	return t
}

// EndsAt combines the session date with its end time.
func (s *Session) EndsAt() time.Time {
	t, err := utils.CombineDateAndClock(s.Date, s.EndTime)
	if err != nil {
		return s.Date
	}
	return t
}

// OverlapsWith reports whether two sessions share a calendar date and their
// [start,end) windows intersect. Sessions on different dates never overlap.
func (s *Session) OverlapsWith(other *Session) bool {
	if !utils.DateOf(s.Date).Equal(utils.DateOf(other.Date)) {
		return false
	}
	return s.StartsAt().Before(other.EndsAt()) && s.EndsAt().After(other.StartsAt())
}

// SessionWithAvailability is the listing shape: a session annotated with its
// live confirmed count. IsFull and AvailableSpots intentionally count
// confirmed bookings only; the admission path counts pending too.
type SessionWithAvailability struct {
	Session
	ConfirmedCount int  `json:"confirmed_count"`
	AvailableSpots int  `json:"available_spots"`
	IsFull         bool `json:"is_full"`
}

// Annotate fills the derived availability fields from a confirmed count.
func (s *SessionWithAvailability) Annotate(confirmed int) {
	s.ConfirmedCount = confirmed
	s.AvailableSpots = s.Capacity - confirmed
	if s.AvailableSpots < 0 {
		s.AvailableSpots = 0
	}
	s.IsFull = confirmed >= s.Capacity
}
