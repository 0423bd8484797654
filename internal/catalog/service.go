// Package catalog is the session read/write model: listing with live
// availability, and the validation invariants on session definitions.
package catalog

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"ms-gymbooking/internal/catalog/db"
	"ms-gymbooking/internal/logger"
	"ms-gymbooking/internal/models"
	"ms-gymbooking/internal/utils"
)

// DBLayer is the catalog store.
type DBLayer interface {
	ListSessions(ctx context.Context, filter db.Filter) ([]models.Session, error)
	ConfirmedCounts(ctx context.Context, sessionIDs []string) (map[string]int, error)
	FindSession(ctx context.Context, id string) (*models.Session, error)
	SessionsByNameAndDate(ctx context.Context, name string, date time.Time, excludeID string) ([]models.Session, error)
	CreateSession(ctx context.Context, session *models.Session) error
	UpdateSession(ctx context.Context, session *models.Session) error
	DeleteSession(ctx context.Context, id string) error
}

// Ledger is the slice of the booking store the catalog needs: reserved
// spots (confirmed + pending) when validating capacity reductions.
type Ledger interface {
	CountTakenSpots(ctx context.Context, sessionID string) (int, error)
}

type Service struct {
	DB     DBLayer
	Ledger Ledger
	Logger *logger.Logger
	Now    func() time.Time
}

func NewService(database DBLayer, ledger Ledger, log *logger.Logger) *Service {
	return &Service{
		DB:     database,
		Ledger: ledger,
		Logger: log,
		Now:    time.Now,
	}
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// ListFilter mirrors the public listing query parameters.
type ListFilter struct {
	Date       *time.Time
	FutureOnly bool
}

// ListSessions returns sessions ordered by date then start time, each
// annotated with its confirmed count, available spots and display is_full.
func (s *Service) ListSessions(ctx context.Context, filter ListFilter) ([]models.SessionWithAvailability, error) {
	sessions, err := s.DB.ListSessions(ctx, db.Filter{
		Date:       filter.Date,
		FutureOnly: filter.FutureOnly,
		Now:        s.now(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}

	ids := make([]string, len(sessions))
	for i := range sessions {
		ids[i] = sessions[i].ID
	}
	counts, err := s.DB.ConfirmedCounts(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to count bookings: %w", err)
	}

	result := make([]models.SessionWithAvailability, len(sessions))
	for i := range sessions {
		result[i] = models.SessionWithAvailability{Session: sessions[i]}
		result[i].Annotate(counts[sessions[i].ID])
	}
	return result, nil
}

// GetSession returns one session with availability annotations.
func (s *Service) GetSession(ctx context.Context, id string) (*models.SessionWithAvailability, error) {
	session, err := s.DB.FindSession(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load session %s: %w", id, err)
	}
	if session == nil {
		return nil, ErrSessionNotFound
	}

	counts, err := s.DB.ConfirmedCounts(ctx, []string{id})
	if err != nil {
		return nil, fmt.Errorf("failed to count bookings: %w", err)
	}

	annotated := &models.SessionWithAvailability{Session: *session}
	annotated.Annotate(counts[id])
	return annotated, nil
}

// SessionInput carries the mutable session fields. On update, zero-valued
// fields keep their current values.
type SessionInput struct {
	Name      string
	Date      time.Time
	StartTime string
	EndTime   string
	Capacity  int
	ImageURL  string
}

// CreateSession validates and stores a new session definition.
func (s *Service) CreateSession(ctx context.Context, input SessionInput) (*models.Session, error) {
	if strings.TrimSpace(input.Name) == "" {
		return nil, ErrNameRequired
	}
	if input.Capacity < 1 {
		return nil, ErrInvalidCapacity
	}

	session := &models.Session{
		ID:        uuid.NewString(),
		Name:      input.Name,
		Date:      utils.DateOf(input.Date),
		StartTime: input.StartTime,
		EndTime:   input.EndTime,
		Capacity:  input.Capacity,
		ImageURL:  input.ImageURL,
		CreatedAt: s.now(),
	}

	if err := s.validateWindow(ctx, session, ""); err != nil {
		return nil, err
	}

	if err := s.DB.CreateSession(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	if s.Logger != nil {
		s.Logger.Info("CATALOG", fmt.Sprintf("Session %s (%s %s-%s) created with capacity %d",
			session.ID, session.Date.Format("2006-01-02"), session.StartTime, session.EndTime, session.Capacity))
	}
	return session, nil
}

// UpdateSession validates and applies a partial session update. Capacity can
// never drop below the session's current reserved (confirmed + pending)
// spots.
func (s *Service) UpdateSession(ctx context.Context, id string, input SessionInput) (*models.Session, error) {
	session, err := s.DB.FindSession(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load session %s: %w", id, err)
	}
	if session == nil {
		return nil, ErrSessionNotFound
	}

	if input.Name != "" {
		session.Name = input.Name
	}
	if !input.Date.IsZero() {
		session.Date = utils.DateOf(input.Date)
	}
	if input.StartTime != "" {
		session.StartTime = input.StartTime
	}
	if input.EndTime != "" {
		session.EndTime = input.EndTime
	}
	if input.ImageURL != "" {
		session.ImageURL = input.ImageURL
	}
	if input.Capacity != 0 {
		if input.Capacity < 1 {
			return nil, ErrInvalidCapacity
		}
		taken, err := s.Ledger.CountTakenSpots(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("failed to count reserved spots: %w", err)
		}
		if input.Capacity < taken {
			return nil, ErrCapacityBelowOccupancy
		}
		session.Capacity = input.Capacity
	}

	if err := s.validateWindow(ctx, session, id); err != nil {
		return nil, err
	}

	if err := s.DB.UpdateSession(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to update session: %w", err)
	}
	return session, nil
}

// DeleteSession removes a session and its bookings.
func (s *Service) DeleteSession(ctx context.Context, id string) error {
	session, err := s.DB.FindSession(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to load session %s: %w", id, err)
	}
	if session == nil {
		return ErrSessionNotFound
	}

	if err := s.DB.DeleteSession(ctx, id); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	if s.Logger != nil {
		s.Logger.Info("CATALOG", fmt.Sprintf("Session %s deleted with its bookings", id))
	}
	return nil
}

// FindSession exposes the raw lookup for the admission engine, which does
// its own not-found mapping. (nil, nil) when absent.
func (s *Service) FindSession(ctx context.Context, id string) (*models.Session, error) {
	return s.DB.FindSession(ctx, id)
}

// validateWindow enforces the time-window invariants: end strictly after
// start, the start instant not in the past, and no overlap with another
// session of the same name on the same date.
func (s *Service) validateWindow(ctx context.Context, session *models.Session, excludeID string) error {
	start, err := utils.CombineDateAndClock(session.Date, session.StartTime)
	if err != nil {
		return err
	}
	end, err := utils.CombineDateAndClock(session.Date, session.EndTime)
	if err != nil {
		return err
	}
	if !end.After(start) {
		return ErrEndNotAfterStart
	}
	if start.Before(s.now()) {
		return ErrPastSession
	}

	siblings, err := s.DB.SessionsByNameAndDate(ctx, session.Name, session.Date, excludeID)
	if err != nil {
		return fmt.Errorf("failed to check session overlaps: %w", err)
	}
	for i := range siblings {
		if session.OverlapsWith(&siblings[i]) {
			return ErrOverlappingSession
		}
	}
	return nil
}
