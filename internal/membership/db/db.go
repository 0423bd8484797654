package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/uptrace/bun"

	"ms-gymbooking/internal/models"
)

type DB struct {
	Bun *bun.DB
}

// GetMember resolves a user into the booking identity the admission engine
// consumes: user id, membership level (nil when none assigned) and
// subscription expiry. An unknown user yields (nil, nil); to the engine an
// absent user and a user without a level are the same case.
func (d *DB) GetMember(ctx context.Context, userID string) (*models.Member, error) {
	var user models.User
	err := d.Bun.NewSelect().
		Model(&user).
		Relation("MembershipLevel").
		Where("\"user\".id = ?", userID).
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load user %s: %w", userID, err)
	}

	return &models.Member{
		UserID:                user.ID,
		Level:                 user.MembershipLevel,
		SubscriptionExpiresAt: user.SubscriptionExpiresAt,
	}, nil
}

// ListLevels returns all membership levels ordered by priority then name.
func (d *DB) ListLevels(ctx context.Context) ([]models.MembershipLevel, error) {
	var levels []models.MembershipLevel
	err := d.Bun.NewSelect().
		Model(&levels).
		Order("priority DESC", "name ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return levels, nil
}
