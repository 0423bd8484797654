package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func makeSession(date time.Time, start, end string) *Session {
	return &Session{
		ID:        "session-" + start,
		Name:      "Morning HIIT",
		Date:      date,
		StartTime: start,
		EndTime:   end,
		Capacity:  10,
	}
}

func TestSessionOverlap(t *testing.T) {
	day := time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC)
	otherDay := day.AddDate(0, 0, 1)

	tests := []struct {
		name     string
		a, b     *Session
		overlaps bool
	}{
		{
			name:     "partial overlap",
			a:        makeSession(day, "09:00", "10:00"),
			b:        makeSession(day, "09:30", "10:30"),
			overlaps: true,
		},
		{
			name:     "contained window",
			a:        makeSession(day, "09:00", "11:00"),
			b:        makeSession(day, "09:30", "10:00"),
			overlaps: true,
		},
		{
			name:     "touching intervals do not overlap",
			a:        makeSession(day, "09:00", "10:00"),
			b:        makeSession(day, "10:00", "11:00"),
			overlaps: false,
		},
		{
			name:     "same window on different dates",
			a:        makeSession(day, "09:00", "10:00"),
			b:        makeSession(otherDay, "09:00", "10:00"),
			overlaps: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.overlaps, tt.a.OverlapsWith(tt.b))
			assert.Equal(t, tt.overlaps, tt.b.OverlapsWith(tt.a), "overlap must be symmetric")
		})
	}
}

func TestSessionStartsAt(t *testing.T) {
	s := makeSession(time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC), "18:30", "19:30")

	assert.Equal(t, time.Date(2026, 3, 9, 18, 30, 0, 0, time.UTC), s.StartsAt())
	assert.Equal(t, time.Date(2026, 3, 9, 19, 30, 0, 0, time.UTC), s.EndsAt())
}

func TestAnnotateAvailability(t *testing.T) {
	s := SessionWithAvailability{Session: *makeSession(time.Now(), "09:00", "10:00")}

	s.Annotate(4)
	assert.Equal(t, 4, s.ConfirmedCount)
	assert.Equal(t, 6, s.AvailableSpots)
	assert.False(t, s.IsFull)

	s.Annotate(10)
	assert.Equal(t, 0, s.AvailableSpots)
	assert.True(t, s.IsFull)

	// Over-capacity can happen transiently while pending bookings confirm;
	// available spots must not go negative.
	s.Annotate(12)
	assert.Equal(t, 0, s.AvailableSpots)
	assert.True(t, s.IsFull)
}

func TestBookingStatus(t *testing.T) {
	assert.True(t, StatusPending.Valid())
	assert.True(t, StatusCancelled.Valid())
	assert.False(t, BookingStatus("expired").Valid())

	assert.True(t, StatusPending.ReservesSpot())
	assert.True(t, StatusConfirmed.ReservesSpot())
	assert.False(t, StatusQueued.ReservesSpot())
	assert.False(t, StatusCancelled.ReservesSpot())
}
