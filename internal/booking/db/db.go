package db

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/lib/pq"
	"github.com/uptrace/bun"

	"ms-gymbooking/internal/models"
	"ms-gymbooking/internal/utils"
)

// ErrDuplicateBooking reports a violation of the one-booking-per-user-per-session
// constraint. The engine checks for an existing booking before inserting, but
// that check runs outside the session lock, so two simultaneous requests by the
// same user can both pass it and race to the insert.
var ErrDuplicateBooking = errors.New("booking already exists for this user and session")

// DB is the booking ledger: the record store of bookings per session and
// user. All occupancy arithmetic the admission engine relies on lives here.
type DB struct {
	Bun *bun.DB
}

// CreateBooking inserts a new ledger row. A unique-constraint violation on
// (user_id, session_id) surfaces as ErrDuplicateBooking.
func (d *DB) CreateBooking(ctx context.Context, booking *models.Booking) error {
	_, err := d.Bun.NewInsert().Model(booking).Exec(ctx)
	if err != nil && isUniqueViolation(err) {
		return ErrDuplicateBooking
	}
	return err
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	// sqlite, used by the test suites
	return strings.Contains(err.Error(), "UNIQUE constraint")
}

// GetBookingByID fetches one booking with its session attached.
func (d *DB) GetBookingByID(ctx context.Context, id string) (*models.Booking, error) {
	var booking models.Booking
	err := d.Bun.NewSelect().
		Model(&booking).
		Relation("Session").
		Where("booking.id = ?", id).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return &booking, nil
}

// FindBookingForUserSession returns the booking for a (user, session) pair,
// or nil when none exists. Cancelled bookings are deleted, so any row
// found blocks a re-book.
func (d *DB) FindBookingForUserSession(ctx context.Context, userID, sessionID string) (*models.Booking, error) {
	var booking models.Booking
	err := d.Bun.NewSelect().
		Model(&booking).
		Where("user_id = ?", userID).
		Where("session_id = ?", sessionID).
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &booking, nil
}

// BookingsForUserOnDate returns a user's bookings whose session falls on the
// given calendar date, sessions attached. Used for the overlap check.
func (d *DB) BookingsForUserOnDate(ctx context.Context, userID string, date time.Time) ([]models.Booking, error) {
	var bookings []models.Booking
	err := d.Bun.NewSelect().
		Model(&bookings).
		Relation("Session").
		Where("booking.user_id = ?", userID).
		Where("session.date = ?", utils.DateOf(date)).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return bookings, nil
}

// CountConfirmedInWeek counts a user's confirmed bookings whose session date
// lies in [weekStart, weekEnd). Pending and queued rows do not count.
func (d *DB) CountConfirmedInWeek(ctx context.Context, userID string, weekStart, weekEnd time.Time) (int, error) {
	return d.Bun.NewSelect().
		Model((*models.Booking)(nil)).
		Relation("Session").
		Where("booking.user_id = ?", userID).
		Where("booking.status = ?", models.StatusConfirmed).
		Where("session.date >= ?", weekStart).
		Where("session.date < ?", weekEnd).
		Count(ctx)
}

// CountTakenSpots counts confirmed plus pending bookings on a session. This is the
// occupancy the admission check compares with capacity.
func (d *DB) CountTakenSpots(ctx context.Context, sessionID string) (int, error) {
	return d.Bun.NewSelect().
		Model((*models.Booking)(nil)).
		Where("session_id = ?", sessionID).
		Where("status IN (?)", bun.In([]models.BookingStatus{models.StatusConfirmed, models.StatusPending})).
		Count(ctx)
}

// CountTakenSpotsExcluding is CountTakenSpots with one booking ignored, for
// re-checks when that booking itself is being confirmed.
func (d *DB) CountTakenSpotsExcluding(ctx context.Context, sessionID, excludeBookingID string) (int, error) {
	return d.Bun.NewSelect().
		Model((*models.Booking)(nil)).
		Where("session_id = ?", sessionID).
		Where("id != ?", excludeBookingID).
		Where("status IN (?)", bun.In([]models.BookingStatus{models.StatusConfirmed, models.StatusPending})).
		Count(ctx)
}

// OccupancyBreakdown returns per-status counts for a session.
func (d *DB) OccupancyBreakdown(ctx context.Context, sessionID string) (*models.Occupancy, error) {
	var rows []struct {
		Status models.BookingStatus `bun:"status"`
		Count  int                  `bun:"count"`
	}
	err := d.Bun.NewSelect().
		Model((*models.Booking)(nil)).
		Column("status").
		ColumnExpr("count(*) AS count").
		Where("session_id = ?", sessionID).
		Group("status").
		Scan(ctx, &rows)
	if err != nil {
		return nil, err
	}

	occ := &models.Occupancy{SessionID: sessionID}
	for _, row := range rows {
		switch row.Status {
		case models.StatusConfirmed:
			occ.ConfirmedCount = row.Count
		case models.StatusPending:
			occ.PendingCount = row.Count
		case models.StatusQueued:
			occ.QueuedCount = row.Count
		}
	}
	return occ, nil
}

// EarliestQueued returns the oldest queued booking on a session, or nil when
// the queue is empty. Creation timestamp ascending, id as a tie-breaker so the
// promotion order is deterministic.
func (d *DB) EarliestQueued(ctx context.Context, sessionID string) (*models.Booking, error) {
	var booking models.Booking
	err := d.Bun.NewSelect().
		Model(&booking).
		Where("session_id = ?", sessionID).
		Where("status = ?", models.StatusQueued).
		Order("created_at ASC", "id ASC").
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &booking, nil
}

// UpdateBookingStatus sets the status of one booking.
func (d *DB) UpdateBookingStatus(ctx context.Context, id string, status models.BookingStatus) error {
	_, err := d.Bun.NewUpdate().
		Model((*models.Booking)(nil)).
		Set("status = ?", status).
		Where("id = ?", id).
		Exec(ctx)
	return err
}

// DeleteBooking removes a booking row. Cancellation is a hard delete.
func (d *DB) DeleteBooking(ctx context.Context, id string) error {
	_, err := d.Bun.NewDelete().
		Model((*models.Booking)(nil)).
		Where("id = ?", id).
		Exec(ctx)
	return err
}

// BookingsForUser returns a user's bookings with sessions, newest first.
func (d *DB) BookingsForUser(ctx context.Context, userID string) ([]models.Booking, error) {
	var bookings []models.Booking
	err := d.Bun.NewSelect().
		Model(&bookings).
		Relation("Session").
		Where("booking.user_id = ?", userID).
		Order("booking.created_at DESC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return bookings, nil
}

// ListBookings returns all bookings with sessions, optionally filtered by
// session and status, newest first. Staff/admin listing.
func (d *DB) ListBookings(ctx context.Context, sessionID string, status models.BookingStatus) ([]models.Booking, error) {
	var bookings []models.Booking
	q := d.Bun.NewSelect().
		Model(&bookings).
		Relation("Session").
		Order("booking.created_at DESC")
	if sessionID != "" {
		q = q.Where("booking.session_id = ?", sessionID)
	}
	if status != "" {
		q = q.Where("booking.status = ?", status)
	}

	if err := q.Scan(ctx); err != nil {
		return nil, err
	}
	return bookings, nil
}

// StatusTotals aggregates ledger-wide per-status counts for dashboard stats.
func (d *DB) StatusTotals(ctx context.Context) (*models.StatusTotals, error) {
	var rows []struct {
		Status models.BookingStatus `bun:"status"`
		Count  int                  `bun:"count"`
	}
	err := d.Bun.NewSelect().
		Model((*models.Booking)(nil)).
		Column("status").
		ColumnExpr("count(*) AS count").
		Group("status").
		Scan(ctx, &rows)
	if err != nil {
		return nil, err
	}

	totals := &models.StatusTotals{}
	for _, row := range rows {
		totals.Total += row.Count
		switch row.Status {
		case models.StatusConfirmed:
			totals.Confirmed = row.Count
		case models.StatusPending:
			totals.Pending = row.Count
		case models.StatusQueued:
			totals.Queued = row.Count
		}
	}
	return totals, nil
}

// DeleteBookingsBySession is the cascade path when a session is removed.
func (d *DB) DeleteBookingsBySession(ctx context.Context, sessionID string) error {
	_, err := d.Bun.NewDelete().
		Model((*models.Booking)(nil)).
		Where("session_id = ?", sessionID).
		Exec(ctx)
	return err
}
