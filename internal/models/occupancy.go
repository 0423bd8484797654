package models

// Occupancy is the live breakdown of a session's ledger against its
// capacity. TakenSpots (confirmed + pending) is the number the admission
// path compares with capacity; queued bookings wait outside of it.
type Occupancy struct {
	SessionID      string `json:"session_id"`
	ConfirmedCount int    `json:"confirmed_count"`
	PendingCount   int    `json:"pending_count"`
	QueuedCount    int    `json:"queued_count"`
	Capacity       int    `json:"capacity"`
}

func (o *Occupancy) TakenSpots() int {
	return o.ConfirmedCount + o.PendingCount
}

func (o *Occupancy) IsFull() bool {
	return o.TakenSpots() >= o.Capacity
}
