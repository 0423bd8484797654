package models

import (
	"time"

	"github.com/uptrace/bun"
)

type User struct {
	bun.BaseModel `bun:"table:users"`

	ID                    string     `bun:"id,pk" json:"id"`
	Email                 string     `bun:"email,unique,notnull" json:"email"`
	FullName              string     `bun:"full_name,notnull" json:"full_name"`
	Role                  Role       `bun:"role,notnull,default:'user'" json:"role"`
	MembershipLevelID     *string    `bun:"membership_level_id,nullzero" json:"membership_level_id"`
	SubscriptionExpiresAt *time.Time `bun:"subscription_expires_at,nullzero" json:"subscription_expires_at"`
	CreatedAt             time.Time  `bun:"created_at,notnull" json:"created_at"`

	MembershipLevel *MembershipLevel `bun:"rel:belongs-to,join:membership_level_id=id" json:"membership_level,omitempty"`
}
