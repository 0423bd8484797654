// Package membership resolves a member's booking privileges: the weekly
// quota their level grants, whether they may queue on full sessions, and the
// calendar week a session's date falls into.
package membership

import (
	"time"

	"ms-gymbooking/internal/utils"
)

// WeekBounds returns the half-open [start, end) interval of the ISO calendar
// week (Monday through Sunday) containing the given date. Confirmed bookings
// whose session date falls inside the interval count against the weekly limit.
func WeekBounds(date time.Time) (time.Time, time.Time) {
	d := utils.DateOf(date)
	// time.Weekday puts Sunday at 0; shift so Monday opens the week.
	offset := (int(d.Weekday()) + 6) % 7
	start := d.AddDate(0, 0, -offset)
	return start, start.AddDate(0, 0, 7)
}
