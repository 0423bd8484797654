// Package booking implements the admission and queueing engine: it decides,
// under concurrent access, whether a booking may occupy a session's capacity,
// how membership tiers affect admission, and how vacated spots are reassigned.
package booking

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"ms-gymbooking/internal/booking/db"
	"ms-gymbooking/internal/logger"
	"ms-gymbooking/internal/membership"
	"ms-gymbooking/internal/models"
)

// LedgerDB is the booking record store.
type LedgerDB interface {
	CreateBooking(ctx context.Context, booking *models.Booking) error
	GetBookingByID(ctx context.Context, id string) (*models.Booking, error)
	FindBookingForUserSession(ctx context.Context, userID, sessionID string) (*models.Booking, error)
	BookingsForUserOnDate(ctx context.Context, userID string, date time.Time) ([]models.Booking, error)
	CountConfirmedInWeek(ctx context.Context, userID string, weekStart, weekEnd time.Time) (int, error)
	CountTakenSpots(ctx context.Context, sessionID string) (int, error)
	CountTakenSpotsExcluding(ctx context.Context, sessionID, excludeBookingID string) (int, error)
	OccupancyBreakdown(ctx context.Context, sessionID string) (*models.Occupancy, error)
	EarliestQueued(ctx context.Context, sessionID string) (*models.Booking, error)
	UpdateBookingStatus(ctx context.Context, id string, status models.BookingStatus) error
	DeleteBooking(ctx context.Context, id string) error
	BookingsForUser(ctx context.Context, userID string) ([]models.Booking, error)
	ListBookings(ctx context.Context, sessionID string, status models.BookingStatus) ([]models.Booking, error)
	StatusTotals(ctx context.Context) (*models.StatusTotals, error)
}

// SessionStore looks sessions up for admission checks. FindSession returns
// (nil, nil) when no session matches.
type SessionStore interface {
	FindSession(ctx context.Context, id string) (*models.Session, error)
}

// MemberDirectory resolves a user into their booking identity. GetMember
// returns (nil, nil) when the user is unknown.
type MemberDirectory interface {
	GetMember(ctx context.Context, userID string) (*models.Member, error)
}

// SessionLock serializes the admission critical section per session id.
// AcquireSession blocks until held or the context ends.
type SessionLock interface {
	AcquireSession(ctx context.Context, sessionID, ownerID string) (bool, error)
	ReleaseSession(ctx context.Context, sessionID, ownerID string) error
}

// EventPublisher streams booking lifecycle events.
type EventPublisher interface {
	PublishBookingCreated(event models.BookingEvent) error
	PublishBookingConfirmed(event models.BookingEvent) error
	PublishBookingPromoted(event models.BookingEvent) error
	PublishBookingCancelled(event models.BookingEvent) error
}

// Notifier pushes events to live subscribers (SSE).
type Notifier interface {
	Broadcast(event models.BookingEvent)
}

// Service wires the admission engine, the ledger and the promotion logic.
type Service struct {
	DB       LedgerDB
	Sessions SessionStore
	Members  MemberDirectory
	Lock     SessionLock
	Kafka    EventPublisher
	Events   Notifier
	Logger   *logger.Logger
	Now      func() time.Time
}

func NewService(db LedgerDB, sessions SessionStore, members MemberDirectory, lock SessionLock, kafka EventPublisher, events Notifier, log *logger.Logger) *Service {
	return &Service{
		DB:       db,
		Sessions: sessions,
		Members:  members,
		Lock:     lock,
		Kafka:    kafka,
		Events:   events,
		Logger:   log,
		Now:      time.Now,
	}
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// RequestBooking admits a member-initiated booking request. The outcome is
// pending when the session has room, queued when it is full and the member's
// level is privileged, and a named rejection otherwise.
func (s *Service) RequestBooking(ctx context.Context, userID, sessionID string) (*models.Booking, error) {
	session, err := s.Sessions.FindSession(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load session %s: %w", sessionID, err)
	}
	if session == nil {
		return nil, ErrSessionNotFound
	}

	now := s.now()
	if session.StartsAt().Before(now) {
		return nil, ErrSessionInPast
	}

	member, err := s.Members.GetMember(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve member %s: %w", userID, err)
	}
	if member == nil || member.Level == nil {
		return nil, ErrNoMembership
	}
	if !member.SubscriptionActive(now) {
		return nil, ErrSubscriptionInactive
	}

	existing, err := s.DB.FindBookingForUserSession(ctx, userID, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing booking: %w", err)
	}
	if existing != nil {
		return nil, ErrAlreadyBooked
	}

	sameDay, err := s.DB.BookingsForUserOnDate(ctx, userID, session.Date)
	if err != nil {
		return nil, fmt.Errorf("failed to check overlapping bookings: %w", err)
	}
	for i := range sameDay {
		other := sameDay[i].Session
		if other != nil && session.OverlapsWith(other) {
			return nil, ErrOverlappingBooking
		}
	}

	if !member.Level.IsUnlimited() {
		weekStart, weekEnd := membership.WeekBounds(session.Date)
		confirmed, err := s.DB.CountConfirmedInWeek(ctx, userID, weekStart, weekEnd)
		if err != nil {
			return nil, fmt.Errorf("failed to count weekly bookings: %w", err)
		}
		if confirmed >= *member.Level.WeeklyLimit {
			return nil, ErrWeeklyLimitReached
		}
	}

	// Atomic admission: the occupancy re-read and the insert happen under an
	// exclusive lock scoped to this session. Creation is the last write, so
	// a rejection here leaves no partial row behind.
	lockOwner := uuid.NewString()
	acquired, err := s.Lock.AcquireSession(ctx, sessionID, lockOwner)
	if err != nil {
		return nil, fmt.Errorf("admission lock error: %w", err)
	}
	if !acquired {
		return nil, ErrLockNotAcquired
	}
	defer func() {
		if err := s.Lock.ReleaseSession(context.WithoutCancel(ctx), sessionID, lockOwner); err != nil {
			s.logError("ADMISSION", fmt.Sprintf("Failed to release lock for session %s: %v", sessionID, err))
		}
	}()

	taken, err := s.DB.CountTakenSpots(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to count occupancy: %w", err)
	}

	status := models.StatusPending
	if taken >= session.Capacity {
		if !member.Level.IsPrivileged() {
			return nil, ErrSessionFull
		}
		status = models.StatusQueued
	}

	booking := &models.Booking{
		ID:        uuid.NewString(),
		UserID:    userID,
		SessionID: sessionID,
		Status:    status,
		CreatedAt: now,
	}
	if err := s.DB.CreateBooking(ctx, booking); err != nil {
		// The duplicate precondition runs outside the session lock, so a
		// simultaneous request by the same user can slip past it and lose
		// the insert race on the unique constraint instead.
		if errors.Is(err, db.ErrDuplicateBooking) {
			return nil, ErrAlreadyBooked
		}
		return nil, fmt.Errorf("failed to create booking: %w", err)
	}

	eventType := models.BookingEventCreated
	if status == models.StatusQueued {
		eventType = models.BookingEventQueued
	}
	s.publish(eventType, booking, now)
	s.logInfo("ADMISSION", fmt.Sprintf("Booking %s admitted as %s for session %s (taken=%d/%d)",
		booking.ID, status, sessionID, taken, session.Capacity))

	return booking, nil
}

// AdminCreateBooking books on behalf of a member: default target status is
// confirmed, overlap and weekly-limit checks are skipped, and there is no
// queue fallback when the session is full.
func (s *Service) AdminCreateBooking(ctx context.Context, userID, sessionID string, status models.BookingStatus) (*models.Booking, error) {
	if status == "" {
		status = models.StatusConfirmed
	}
	if !status.Valid() || status == models.StatusCancelled {
		return nil, ErrInvalidStatus
	}

	session, err := s.Sessions.FindSession(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load session %s: %w", sessionID, err)
	}
	if session == nil {
		return nil, ErrSessionNotFound
	}

	now := s.now()
	if session.StartsAt().Before(now) {
		return nil, ErrSessionInPast
	}

	existing, err := s.DB.FindBookingForUserSession(ctx, userID, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing booking: %w", err)
	}
	if existing != nil {
		return nil, ErrAlreadyBooked
	}

	lockOwner := uuid.NewString()
	acquired, err := s.Lock.AcquireSession(ctx, sessionID, lockOwner)
	if err != nil {
		return nil, fmt.Errorf("admission lock error: %w", err)
	}
	if !acquired {
		return nil, ErrLockNotAcquired
	}
	defer func() {
		if err := s.Lock.ReleaseSession(context.WithoutCancel(ctx), sessionID, lockOwner); err != nil {
			s.logError("ADMISSION", fmt.Sprintf("Failed to release lock for session %s: %v", sessionID, err))
		}
	}()

	// Only a confirmed target consumes capacity up front. There is no queue
	// fallback on this path: a full session is a rejection.
	if status == models.StatusConfirmed {
		taken, err := s.DB.CountTakenSpots(ctx, sessionID)
		if err != nil {
			return nil, fmt.Errorf("failed to count occupancy: %w", err)
		}
		if taken >= session.Capacity {
			return nil, ErrSessionFull
		}
	}

	booking := &models.Booking{
		ID:        uuid.NewString(),
		UserID:    userID,
		SessionID: sessionID,
		Status:    status,
		CreatedAt: now,
	}
	if err := s.DB.CreateBooking(ctx, booking); err != nil {
		if errors.Is(err, db.ErrDuplicateBooking) {
			return nil, ErrAlreadyBooked
		}
		return nil, fmt.Errorf("failed to create booking: %w", err)
	}

	s.publish(models.BookingEventCreated, booking, now)
	if status == models.StatusConfirmed {
		s.notify(models.BookingEventConfirmed, booking, now)
	}
	s.logInfo("ADMISSION", fmt.Sprintf("Staff booking %s created as %s for user %s on session %s",
		booking.ID, status, userID, sessionID))

	return booking, nil
}

// SetBookingStatus applies a staff status change. Confirming a booking
// re-runs the capacity check with the booking itself excluded; every other
// transition is authoritative and applies unconditionally. A cancelled
// target deletes the row and triggers promotion like any other cancellation.
func (s *Service) SetBookingStatus(ctx context.Context, bookingID string, status models.BookingStatus) (*models.Booking, error) {
	if !status.Valid() {
		return nil, ErrInvalidStatus
	}

	booking, err := s.getBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	if status == models.StatusCancelled {
		if err := s.removeAndPromote(ctx, booking); err != nil {
			return nil, err
		}
		booking.Status = models.StatusCancelled
		return booking, nil
	}

	if booking.Status == status {
		return booking, nil
	}

	now := s.now()
	if status == models.StatusConfirmed {
		session, err := s.Sessions.FindSession(ctx, booking.SessionID)
		if err != nil {
			return nil, fmt.Errorf("failed to load session %s: %w", booking.SessionID, err)
		}
		if session == nil {
			return nil, ErrSessionNotFound
		}

		lockOwner := uuid.NewString()
		acquired, err := s.Lock.AcquireSession(ctx, booking.SessionID, lockOwner)
		if err != nil {
			return nil, fmt.Errorf("admission lock error: %w", err)
		}
		if !acquired {
			return nil, ErrLockNotAcquired
		}
		defer func() {
			if err := s.Lock.ReleaseSession(context.WithoutCancel(ctx), booking.SessionID, lockOwner); err != nil {
				s.logError("LEDGER", fmt.Sprintf("Failed to release lock for session %s: %v", booking.SessionID, err))
			}
		}()

		taken, err := s.DB.CountTakenSpotsExcluding(ctx, booking.SessionID, booking.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to count occupancy: %w", err)
		}
		if taken >= session.Capacity {
			return nil, ErrSessionFull
		}

		if err := s.DB.UpdateBookingStatus(ctx, booking.ID, status); err != nil {
			return nil, fmt.Errorf("failed to update booking: %w", err)
		}
		booking.Status = status
		s.publish(models.BookingEventConfirmed, booking, now)
		s.notify(models.BookingEventConfirmed, booking, now)
		s.logInfo("LEDGER", fmt.Sprintf("Booking %s confirmed on session %s", booking.ID, booking.SessionID))
		return booking, nil
	}

	if err := s.DB.UpdateBookingStatus(ctx, booking.ID, status); err != nil {
		return nil, fmt.Errorf("failed to update booking: %w", err)
	}
	booking.Status = status
	s.logInfo("LEDGER", fmt.Sprintf("Booking %s moved to %s on session %s", booking.ID, status, booking.SessionID))
	return booking, nil
}

// CancelOwnBooking removes a member's own booking. Bookings for sessions
// that already started stay on the ledger.
func (s *Service) CancelOwnBooking(ctx context.Context, userID, bookingID string) error {
	booking, err := s.getBooking(ctx, bookingID)
	if err != nil {
		return err
	}
	if booking.UserID != userID {
		return ErrNotBookingOwner
	}
	if booking.Session != nil && booking.Session.StartsAt().Before(s.now()) {
		return ErrBookingStarted
	}
	return s.removeAndPromote(ctx, booking)
}

// CancelBooking removes any booking (staff path).
func (s *Service) CancelBooking(ctx context.Context, bookingID string) error {
	booking, err := s.getBooking(ctx, bookingID)
	if err != nil {
		return err
	}
	return s.removeAndPromote(ctx, booking)
}

// removeAndPromote deletes the booking and, when a confirmed booking was
// removed, promotes the earliest queued one. Delete and promotion run under
// the same session lock so no admission can race into the vacated spot.
func (s *Service) removeAndPromote(ctx context.Context, booking *models.Booking) error {
	lockOwner := uuid.NewString()
	acquired, err := s.Lock.AcquireSession(ctx, booking.SessionID, lockOwner)
	if err != nil {
		return fmt.Errorf("admission lock error: %w", err)
	}
	if !acquired {
		return ErrLockNotAcquired
	}
	defer func() {
		if err := s.Lock.ReleaseSession(context.WithoutCancel(ctx), booking.SessionID, lockOwner); err != nil {
			s.logError("PROMOTION", fmt.Sprintf("Failed to release lock for session %s: %v", booking.SessionID, err))
		}
	}()

	wasConfirmed := booking.Status == models.StatusConfirmed

	if err := s.DB.DeleteBooking(ctx, booking.ID); err != nil {
		return fmt.Errorf("failed to delete booking %s: %w", booking.ID, err)
	}

	now := s.now()
	s.publish(models.BookingEventCancelled, booking, now)
	s.logInfo("LEDGER", fmt.Sprintf("Booking %s removed from session %s (was %s)",
		booking.ID, booking.SessionID, booking.Status))

	// Only removal of a confirmed booking vacates a reserved spot; the spot
	// is handed to the queue head without a capacity re-check.
	if !wasConfirmed {
		return nil
	}

	queued, err := s.DB.EarliestQueued(ctx, booking.SessionID)
	if err != nil {
		return fmt.Errorf("failed to read queue for session %s: %w", booking.SessionID, err)
	}
	if queued == nil {
		return nil
	}

	if err := s.DB.UpdateBookingStatus(ctx, queued.ID, models.StatusConfirmed); err != nil {
		return fmt.Errorf("failed to promote booking %s: %w", queued.ID, err)
	}
	queued.Status = models.StatusConfirmed
	s.publish(models.BookingEventPromoted, queued, now)
	s.notify(models.BookingEventPromoted, queued, now)
	if s.Logger != nil {
		s.Logger.LogPromotion(booking.SessionID, queued.ID, "queued booking promoted to confirmed")
	}

	return nil
}

// ListOccupancy returns the live per-status breakdown for a session.
func (s *Service) ListOccupancy(ctx context.Context, sessionID string) (*models.Occupancy, error) {
	session, err := s.Sessions.FindSession(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load session %s: %w", sessionID, err)
	}
	if session == nil {
		return nil, ErrSessionNotFound
	}

	occupancy, err := s.DB.OccupancyBreakdown(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to compute occupancy: %w", err)
	}
	occupancy.Capacity = session.Capacity
	return occupancy, nil
}

// GetBooking fetches one booking with its session attached.
func (s *Service) GetBooking(ctx context.Context, bookingID string) (*models.Booking, error) {
	return s.getBooking(ctx, bookingID)
}

// MyBookings lists a user's bookings, newest first.
func (s *Service) MyBookings(ctx context.Context, userID string) ([]models.Booking, error) {
	return s.DB.BookingsForUser(ctx, userID)
}

// ListBookings lists the whole ledger with optional session/status filters.
func (s *Service) ListBookings(ctx context.Context, sessionID string, status models.BookingStatus) ([]models.Booking, error) {
	if status != "" && !status.Valid() {
		return nil, ErrInvalidStatus
	}
	return s.DB.ListBookings(ctx, sessionID, status)
}

// Stats returns ledger-wide status totals.
func (s *Service) Stats(ctx context.Context) (*models.StatusTotals, error) {
	return s.DB.StatusTotals(ctx)
}

func (s *Service) getBooking(ctx context.Context, bookingID string) (*models.Booking, error) {
	booking, err := s.DB.GetBookingByID(ctx, bookingID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrBookingNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load booking %s: %w", bookingID, err)
	}
	return booking, nil
}

func (s *Service) publish(eventType string, booking *models.Booking, at time.Time) {
	if s.Kafka == nil {
		return
	}
	event := models.NewBookingEvent(eventType, booking, at)

	var err error
	switch eventType {
	case models.BookingEventConfirmed:
		err = s.Kafka.PublishBookingConfirmed(event)
	case models.BookingEventPromoted:
		err = s.Kafka.PublishBookingPromoted(event)
	case models.BookingEventCancelled:
		err = s.Kafka.PublishBookingCancelled(event)
	default:
		err = s.Kafka.PublishBookingCreated(event)
	}
	if err != nil {
		s.logError("KAFKA", fmt.Sprintf("Publish error (%s) for booking %s: %v", eventType, booking.ID, err))
	}
}

func (s *Service) notify(eventType string, booking *models.Booking, at time.Time) {
	if s.Events == nil {
		return
	}
	s.Events.Broadcast(models.NewBookingEvent(eventType, booking, at))
}

func (s *Service) logInfo(category, message string) {
	if s.Logger != nil {
		s.Logger.Info(category, message)
	}
}

func (s *Service) logError(category, message string) {
	if s.Logger != nil {
		s.Logger.Error(category, message)
	}
}
