package models

type Role string

const (
	RoleUser       Role = "user"
	RoleStaff      Role = "staff"
	RoleAdmin      Role = "admin"
	RoleSuperAdmin Role = "super_admin"
)

// CanManageBookings gates booking administration: creating bookings on
// behalf of members, changing statuses and deleting bookings.
func (r Role) CanManageBookings() bool {
	switch r {
	case RoleStaff, RoleAdmin, RoleSuperAdmin:
		return true
	}
	return false
}

// CanManageSessions gates session catalog writes.
func (r Role) CanManageSessions() bool {
	switch r {
	case RoleAdmin, RoleSuperAdmin:
		return true
	}
	return false
}

// Claims is what the auth middleware resolves from a verified token.
type Claims struct {
	UserID string `json:"sub"`
	Role   Role   `json:"role"`
}
