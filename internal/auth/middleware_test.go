package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"ms-gymbooking/internal/models"
)

func roleRequest(role models.Role) *http.Request {
	r := httptest.NewRequest(http.MethodPost, "/api/admin/bookings", nil)
	if role == "" {
		return r
	}
	ctx := WithClaims(r.Context(), &models.Claims{UserID: "u1", Role: role})
	return r.WithContext(ctx)
}

func TestRequireBookingManager(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	handler := RequireBookingManager(next)

	tests := []struct {
		role models.Role
		want int
	}{
		{"", http.StatusForbidden},
		{models.RoleUser, http.StatusForbidden},
		{models.RoleStaff, http.StatusNoContent},
		{models.RoleAdmin, http.StatusNoContent},
		{models.RoleSuperAdmin, http.StatusNoContent},
	}
	for _, tt := range tests {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, roleRequest(tt.role))
		assert.Equal(t, tt.want, rec.Code, "role %q", tt.role)
	}
}

func TestRequireSessionManager(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	handler := RequireSessionManager(next)

	tests := []struct {
		role models.Role
		want int
	}{
		{models.RoleUser, http.StatusForbidden},
		{models.RoleStaff, http.StatusForbidden},
		{models.RoleAdmin, http.StatusNoContent},
		{models.RoleSuperAdmin, http.StatusNoContent},
	}
	for _, tt := range tests {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, roleRequest(tt.role))
		assert.Equal(t, tt.want, rec.Code, "role %q", tt.role)
	}
}
