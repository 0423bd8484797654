package db

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/uptrace/bun"

	"ms-gymbooking/internal/models"
	"ms-gymbooking/internal/utils"
)

// DB is the session catalog store.
type DB struct {
	Bun *bun.DB
}

// Filter narrows a session listing. When FutureOnly is set, Now marks the
// instant sessions must still lie ahead of.
type Filter struct {
	Date       *time.Time
	FutureOnly bool
	Now        time.Time
}

// ListSessions returns sessions ordered by date then start time.
func (d *DB) ListSessions(ctx context.Context, filter Filter) ([]models.Session, error) {
	var sessions []models.Session
	q := d.Bun.NewSelect().
		Model(&sessions).
		Order("date ASC", "start_time ASC")

	if filter.Date != nil {
		q = q.Where("date = ?", utils.DateOf(*filter.Date))
	}
	if filter.FutureOnly {
		today := utils.DateOf(filter.Now)
		clock := filter.Now.UTC().Format(utils.ClockLayout)
		q = q.Where("(date > ? OR (date = ? AND start_time > ?))", today, today, clock)
	}

	if err := q.Scan(ctx); err != nil {
		return nil, err
	}
	return sessions, nil
}

// ConfirmedCounts returns confirmed booking counts per session for listing
// annotations. Sessions with no confirmed bookings are absent from the map.
func (d *DB) ConfirmedCounts(ctx context.Context, sessionIDs []string) (map[string]int, error) {
	counts := make(map[string]int, len(sessionIDs))
	if len(sessionIDs) == 0 {
		return counts, nil
	}

	var rows []struct {
		SessionID string `bun:"session_id"`
		Count     int    `bun:"count"`
	}
	err := d.Bun.NewSelect().
		Model((*models.Booking)(nil)).
		Column("session_id").
		ColumnExpr("count(*) AS count").
		Where("session_id IN (?)", bun.In(sessionIDs)).
		Where("status = ?", models.StatusConfirmed).
		Group("session_id").
		Scan(ctx, &rows)
	if err != nil {
		return nil, err
	}

	for _, row := range rows {
		counts[row.SessionID] = row.Count
	}
	return counts, nil
}

// FindSession returns one session by id, or nil when it does not exist.
func (d *DB) FindSession(ctx context.Context, id string) (*models.Session, error) {
	var session models.Session
	err := d.Bun.NewSelect().
		Model(&session).
		Where("id = ?", id).
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &session, nil
}

// SessionsByNameAndDate returns sessions sharing a name and calendar date, used
// for the overlap constraint on create/update.
func (d *DB) SessionsByNameAndDate(ctx context.Context, name string, date time.Time, excludeID string) ([]models.Session, error) {
	var sessions []models.Session
	q := d.Bun.NewSelect().
		Model(&sessions).
		Where("name = ?", name).
		Where("date = ?", utils.DateOf(date))
	if excludeID != "" {
		q = q.Where("id != ?", excludeID)
	}

	if err := q.Scan(ctx); err != nil {
		return nil, err
	}
	return sessions, nil
}

// CreateSession inserts a new session.
func (d *DB) CreateSession(ctx context.Context, session *models.Session) error {
	_, err := d.Bun.NewInsert().Model(session).Exec(ctx)
	return err
}

// UpdateSession updates the mutable fields.
func (d *DB) UpdateSession(ctx context.Context, session *models.Session) error {
	_, err := d.Bun.NewUpdate().
		Model(session).
		Column("name", "date", "start_time", "end_time", "capacity", "image_url").
		Where("id = ?", session.ID).
		Exec(ctx)
	return err
}

// DeleteSession removes a session and cascades its bookings. The FK carries
// ON DELETE CASCADE in Postgres; the explicit delete keeps sqlite-backed
// tests honest too.
func (d *DB) DeleteSession(ctx context.Context, id string) error {
	_, err := d.Bun.NewDelete().
		Model((*models.Booking)(nil)).
		Where("session_id = ?", id).
		Exec(ctx)
	if err != nil {
		return err
	}

	_, err = d.Bun.NewDelete().
		Model((*models.Session)(nil)).
		Where("id = ?", id).
		Exec(ctx)
	return err
}
