package membership

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestWeekBounds(t *testing.T) {
	monday := time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC)
	nextMonday := monday.AddDate(0, 0, 7)

	tests := []struct {
		name string
		date time.Time
	}{
		{"monday opens its own week", monday},
		{"midweek", time.Date(2026, 3, 11, 0, 0, 0, 0, time.UTC)},
		{"sunday closes the week", time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)},
		{"time of day is ignored", time.Date(2026, 3, 13, 18, 45, 0, 0, time.UTC)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start, end := WeekBounds(tt.date)
			assert.Equal(t, monday, start)
			assert.Equal(t, nextMonday, end)
		})
	}
}

func TestWeekBoundsAdjacentWeeks(t *testing.T) {
	sunday := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)
	monday := sunday.AddDate(0, 0, 1)

	_, endOfFirst := WeekBounds(sunday)
	startOfSecond, _ := WeekBounds(monday)

	// The interval is half-open, so consecutive weeks share a boundary
	// without double counting any date.
	assert.Equal(t, endOfFirst, startOfSecond)
	assert.Equal(t, monday, startOfSecond)
}
