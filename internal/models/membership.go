package models

import (
	"time"

	"github.com/uptrace/bun"
)

// PriorityPrivileged marks membership levels whose members are queued
// instead of rejected when a session is full.
const PriorityPrivileged = 1

type MembershipLevel struct {
	bun.BaseModel `bun:"table:membership_levels"`

	ID                  string `bun:"id,pk" json:"id"`
	Name                string `bun:"name,notnull" json:"name"`
	WeeklyLimit         *int   `bun:"weekly_limit,nullzero" json:"weekly_limit"`
	Priority            int    `bun:"priority,notnull,default:0" json:"priority"`
	DefaultDurationDays *int   `bun:"default_duration_days,nullzero" json:"default_duration_days"`
}

// IsUnlimited reports whether the level has no weekly booking cap.
func (ml *MembershipLevel) IsUnlimited() bool {
	return ml.WeeklyLimit == nil
}

// IsPrivileged reports whether members at this level may be queued when a
// session is full.
func (ml *MembershipLevel) IsPrivileged() bool {
	return ml.Priority == PriorityPrivileged
}

// Member is the resolved booking identity the engine works with: who is
// booking, under which level, and until when their subscription runs.
type Member struct {
	UserID                string           `json:"user_id"`
	Level                 *MembershipLevel `json:"level"`
	SubscriptionExpiresAt *time.Time       `json:"subscription_expires_at"`
}

// SubscriptionActive reports whether the member can book at the given
// instant. A missing expiry means the subscription never lapses.
func (m *Member) SubscriptionActive(now time.Time) bool {
	if m.SubscriptionExpiresAt == nil {
		return true
	}
	return m.SubscriptionExpiresAt.After(now)
}
