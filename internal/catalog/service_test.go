package catalog

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"

	booking_db "ms-gymbooking/internal/booking/db"
	catalog_db "ms-gymbooking/internal/catalog/db"
	"ms-gymbooking/internal/models"
)

var frozenNow = time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC)

func setupTestService(t *testing.T) (*Service, *bun.DB) {
	sqldb, err := sql.Open(sqliteshim.ShimName, "file::memory:?cache=shared")
	require.NoError(t, err)
	sqldb.SetMaxOpenConns(1)

	bunDB := bun.NewDB(sqldb, sqlitedialect.New())
	t.Cleanup(func() { bunDB.Close() })

	ctx := context.Background()
	require.NoError(t, bunDB.ResetModel(ctx, (*models.Session)(nil)))
	require.NoError(t, bunDB.ResetModel(ctx, (*models.Booking)(nil)))

	svc := NewService(&catalog_db.DB{Bun: bunDB}, &booking_db.DB{Bun: bunDB}, nil)
	svc.Now = func() time.Time { return frozenNow }
	return svc, bunDB
}

func validInput() SessionInput {
	return SessionInput{
		Name:      "Morning HIIT",
		Date:      frozenNow.AddDate(0, 0, 1),
		StartTime: "09:00",
		EndTime:   "10:00",
		Capacity:  10,
	}
}

func addBooking(t *testing.T, bunDB *bun.DB, id, sessionID string, status models.BookingStatus) {
	t.Helper()
	booking := &models.Booking{
		ID:        id,
		UserID:    "user-" + id,
		SessionID: sessionID,
		Status:    status,
		CreatedAt: frozenNow,
	}
	_, err := bunDB.NewInsert().Model(booking).Exec(context.Background())
	require.NoError(t, err)
}

func TestCreateSessionValidation(t *testing.T) {
	ctx := context.Background()

	t.Run("name required", func(t *testing.T) {
		svc, _ := setupTestService(t)
		input := validInput()
		input.Name = "  "
		_, err := svc.CreateSession(ctx, input)
		assert.ErrorIs(t, err, ErrNameRequired)
	})

	t.Run("capacity must be positive", func(t *testing.T) {
		svc, _ := setupTestService(t)
		input := validInput()
		input.Capacity = 0
		_, err := svc.CreateSession(ctx, input)
		assert.ErrorIs(t, err, ErrInvalidCapacity)
	})

	t.Run("end must be after start", func(t *testing.T) {
		svc, _ := setupTestService(t)
		input := validInput()
		input.StartTime = "10:00"
		input.EndTime = "10:00"
		_, err := svc.CreateSession(ctx, input)
		assert.ErrorIs(t, err, ErrEndNotAfterStart)
	})

	t.Run("start must not be in the past", func(t *testing.T) {
		svc, _ := setupTestService(t)
		input := validInput()
		input.Date = frozenNow
		input.StartTime = "09:00" // frozenNow is 12:00 that day
		input.EndTime = "10:00"
		_, err := svc.CreateSession(ctx, input)
		assert.ErrorIs(t, err, ErrPastSession)
	})

	t.Run("same name and date must not overlap", func(t *testing.T) {
		svc, _ := setupTestService(t)
		_, err := svc.CreateSession(ctx, validInput())
		require.NoError(t, err)

		clash := validInput()
		clash.StartTime = "09:30"
		clash.EndTime = "10:30"
		_, err = svc.CreateSession(ctx, clash)
		assert.ErrorIs(t, err, ErrOverlappingSession)

		// Adjacent window of the same class on the same day is fine.
		adjacent := validInput()
		adjacent.StartTime = "10:00"
		adjacent.EndTime = "11:00"
		_, err = svc.CreateSession(ctx, adjacent)
		assert.NoError(t, err)
	})

	t.Run("valid input persists", func(t *testing.T) {
		svc, _ := setupTestService(t)
		created, err := svc.CreateSession(ctx, validInput())
		require.NoError(t, err)
		assert.NotEmpty(t, created.ID)

		found, err := svc.GetSession(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, "Morning HIIT", found.Name)
		assert.Equal(t, 10, found.AvailableSpots)
		assert.False(t, found.IsFull)
	})
}

func TestUpdateSession(t *testing.T) {
	ctx := context.Background()

	t.Run("unknown session", func(t *testing.T) {
		svc, _ := setupTestService(t)
		_, err := svc.UpdateSession(ctx, "missing", validInput())
		assert.ErrorIs(t, err, ErrSessionNotFound)
	})

	t.Run("partial update keeps unset fields", func(t *testing.T) {
		svc, _ := setupTestService(t)
		created, err := svc.CreateSession(ctx, validInput())
		require.NoError(t, err)

		updated, err := svc.UpdateSession(ctx, created.ID, SessionInput{Capacity: 15})
		require.NoError(t, err)
		assert.Equal(t, 15, updated.Capacity)
		assert.Equal(t, created.Name, updated.Name)
		assert.Equal(t, created.StartTime, updated.StartTime)
	})

	t.Run("capacity cannot drop below reserved spots", func(t *testing.T) {
		svc, bunDB := setupTestService(t)
		created, err := svc.CreateSession(ctx, validInput())
		require.NoError(t, err)

		addBooking(t, bunDB, "b1", created.ID, models.StatusConfirmed)
		addBooking(t, bunDB, "b2", created.ID, models.StatusPending)
		addBooking(t, bunDB, "b3", created.ID, models.StatusQueued)

		// Two spots are reserved (confirmed + pending); queued rows hold none.
		_, err = svc.UpdateSession(ctx, created.ID, SessionInput{Capacity: 1})
		assert.ErrorIs(t, err, ErrCapacityBelowOccupancy)

		updated, err := svc.UpdateSession(ctx, created.ID, SessionInput{Capacity: 2})
		require.NoError(t, err)
		assert.Equal(t, 2, updated.Capacity)
	})
}

func TestListSessions(t *testing.T) {
	svc, bunDB := setupTestService(t)
	ctx := context.Background()

	tomorrow := frozenNow.AddDate(0, 0, 1)
	dayAfter := frozenNow.AddDate(0, 0, 2)

	late, err := svc.CreateSession(ctx, SessionInput{Name: "Evening Yoga", Date: tomorrow, StartTime: "18:00", EndTime: "19:00", Capacity: 2})
	require.NoError(t, err)
	early, err := svc.CreateSession(ctx, SessionInput{Name: "Morning HIIT", Date: tomorrow, StartTime: "07:00", EndTime: "08:00", Capacity: 5})
	require.NoError(t, err)
	_, err = svc.CreateSession(ctx, SessionInput{Name: "Open Gym", Date: dayAfter, StartTime: "10:00", EndTime: "12:00", Capacity: 20})
	require.NoError(t, err)

	addBooking(t, bunDB, "b1", late.ID, models.StatusConfirmed)
	addBooking(t, bunDB, "b2", late.ID, models.StatusConfirmed)
	addBooking(t, bunDB, "b3", early.ID, models.StatusPending)

	all, err := svc.ListSessions(ctx, ListFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)

	// Ordered by date then start time.
	assert.Equal(t, early.ID, all[0].ID)
	assert.Equal(t, late.ID, all[1].ID)

	// Display availability counts confirmed bookings only.
	assert.Equal(t, 0, all[0].ConfirmedCount)
	assert.Equal(t, 5, all[0].AvailableSpots)
	assert.False(t, all[0].IsFull)
	assert.Equal(t, 2, all[1].ConfirmedCount)
	assert.Equal(t, 0, all[1].AvailableSpots)
	assert.True(t, all[1].IsFull)

	byDate, err := svc.ListSessions(ctx, ListFilter{Date: &tomorrow})
	require.NoError(t, err)
	assert.Len(t, byDate, 2)
}

func TestListSessionsFutureOnly(t *testing.T) {
	svc, bunDB := setupTestService(t)
	ctx := context.Background()

	// Inserted directly: the service would refuse to create past sessions.
	past := &models.Session{ID: "s-past", Name: "Earlier Today", Date: frozenNow.Truncate(24 * time.Hour), StartTime: "08:00", EndTime: "09:00", Capacity: 5, CreatedAt: frozenNow}
	_, err := bunDB.NewInsert().Model(past).Exec(ctx)
	require.NoError(t, err)

	_, err = svc.CreateSession(ctx, SessionInput{Name: "Later Today", Date: frozenNow, StartTime: "15:00", EndTime: "16:00", Capacity: 5})
	require.NoError(t, err)

	upcoming, err := svc.ListSessions(ctx, ListFilter{FutureOnly: true})
	require.NoError(t, err)
	require.Len(t, upcoming, 1)
	assert.Equal(t, "Later Today", upcoming[0].Name)
}

func TestDeleteSessionCascades(t *testing.T) {
	svc, bunDB := setupTestService(t)
	ctx := context.Background()

	created, err := svc.CreateSession(ctx, validInput())
	require.NoError(t, err)
	addBooking(t, bunDB, "b1", created.ID, models.StatusConfirmed)

	require.NoError(t, svc.DeleteSession(ctx, created.ID))

	_, err = svc.GetSession(ctx, created.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound)

	count, err := bunDB.NewSelect().
		Model((*models.Booking)(nil)).
		Where("session_id = ?", created.ID).
		Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, count, "bookings must go with their session")

	assert.ErrorIs(t, svc.DeleteSession(ctx, "missing"), ErrSessionNotFound)
}
