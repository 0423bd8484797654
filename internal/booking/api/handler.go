package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"ms-gymbooking/internal/auth"
	"ms-gymbooking/internal/booking"
	"ms-gymbooking/internal/booking/qr"
	"ms-gymbooking/internal/logger"
	"ms-gymbooking/internal/models"
	"ms-gymbooking/internal/sse"
	"ms-gymbooking/internal/utils"
)

type Handler struct {
	Booking *booking.Service
	QR      *qr.Generator
	Events  *sse.BookingEventEmitter
	Logger  *logger.Logger
}

// rejectionStatus maps a named rejection to its HTTP status. Every reason
// keeps its own code so clients can message each case distinctly.
func rejectionStatus(reason booking.RejectionReason) int {
	switch reason {
	case booking.ReasonSessionNotFound:
		return http.StatusNotFound
	case booking.ReasonNoMembership, booking.ReasonSubscriptionInactive:
		return http.StatusForbidden
	default:
		return http.StatusBadRequest
	}
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.Logger.Error("API", fmt.Sprintf("Failed to encode response: %v", err))
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, utils.ErrorResponse(message, message))
}

// writeServiceError translates engine errors: rejections keep their reason,
// everything else is an internal failure.
func (h *Handler) writeServiceError(w http.ResponseWriter, err error) {
	if rej, ok := booking.AsRejection(err); ok {
		h.writeJSON(w, rejectionStatus(rej.Reason), utils.RejectionResponse(string(rej.Reason), rej.Message))
		return
	}

	switch {
	case errors.Is(err, booking.ErrBookingNotFound):
		h.writeError(w, http.StatusNotFound, "Booking not found")
	case errors.Is(err, booking.ErrNotBookingOwner):
		h.writeError(w, http.StatusForbidden, "Booking belongs to another user")
	case errors.Is(err, booking.ErrBookingStarted):
		h.writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, booking.ErrInvalidStatus):
		h.writeError(w, http.StatusUnprocessableEntity, "Invalid booking status")
	default:
		h.Logger.Error("API", fmt.Sprintf("Internal error: %v", err))
		h.writeError(w, http.StatusInternalServerError, "Internal server error")
	}
}

// RequestBooking handles a member booking request.
func (h *Handler) RequestBooking(w http.ResponseWriter, r *http.Request) {
	claims := auth.ClaimsFrom(r.Context())
	if claims == nil {
		h.writeError(w, http.StatusUnauthorized, "Missing identity")
		return
	}

	var req struct {
		SessionID string `json:"session_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if req.SessionID == "" {
		h.writeError(w, http.StatusUnprocessableEntity, "session_id is required")
		return
	}

	result, err := h.Booking.RequestBooking(r.Context(), claims.UserID, req.SessionID)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	message := "Booking created successfully. Waiting for staff confirmation."
	if result.Status == models.StatusQueued {
		message = "You have been added to the queue. You will be automatically confirmed if a spot becomes available."
	}
	h.writeJSON(w, http.StatusCreated, utils.SuccessResponse(message, result))
}

// MyBookings lists the caller's bookings.
func (h *Handler) MyBookings(w http.ResponseWriter, r *http.Request) {
	claims := auth.ClaimsFrom(r.Context())
	if claims == nil {
		h.writeError(w, http.StatusUnauthorized, "Missing identity")
		return
	}

	bookings, err := h.Booking.MyBookings(r.Context(), claims.UserID)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, utils.SuccessResponse("Bookings fetched", bookings))
}

// CancelBooking removes the caller's own booking and may trigger promotion.
func (h *Handler) CancelBooking(w http.ResponseWriter, r *http.Request) {
	claims := auth.ClaimsFrom(r.Context())
	if claims == nil {
		h.writeError(w, http.StatusUnauthorized, "Missing identity")
		return
	}

	bookingID := chi.URLParam(r, "bookingId")
	if err := h.Booking.CancelOwnBooking(r.Context(), claims.UserID, bookingID); err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, utils.SuccessResponse("Booking cancelled successfully", nil))
}

// CheckInQR serves the encrypted check-in code for a confirmed booking.
func (h *Handler) CheckInQR(w http.ResponseWriter, r *http.Request) {
	claims := auth.ClaimsFrom(r.Context())
	if claims == nil {
		h.writeError(w, http.StatusUnauthorized, "Missing identity")
		return
	}

	bookingID := chi.URLParam(r, "bookingId")
	result, err := h.Booking.GetBooking(r.Context(), bookingID)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	if result.UserID != claims.UserID && !claims.Role.CanManageBookings() {
		h.writeError(w, http.StatusForbidden, "Booking belongs to another user")
		return
	}
	if result.Status != models.StatusConfirmed {
		h.writeError(w, http.StatusBadRequest, booking.ErrQRNotConfirmed.Error())
		return
	}

	png, err := h.QR.GenerateCheckInQR(result)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("QR generation failed for booking %s: %v", bookingID, err))
		h.writeError(w, http.StatusInternalServerError, "Failed to generate check-in code")
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(png); err != nil {
		h.Logger.Error("API", fmt.Sprintf("Failed to write QR response: %v", err))
	}
}

// Occupancy reports the live status breakdown for a session.
func (h *Handler) Occupancy(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionId")
	occupancy, err := h.Booking.ListOccupancy(r.Context(), sessionID)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, utils.SuccessResponse("Occupancy fetched", occupancy))
}

// StreamSessionEvents streams booking confirmations and promotions for one
// session over SSE.
func (h *Handler) StreamSessionEvents(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionId")

	flusher, ok := w.(http.Flusher)
	if !ok {
		h.writeError(w, http.StatusInternalServerError, "Streaming unsupported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	events := h.Events.Subscribe(r.Context(), sessionID)
	h.Logger.Info("SSE", fmt.Sprintf("Client subscribed to session %s events", sessionID))

	for event := range events {
		payload, err := json.Marshal(event)
		if err != nil {
			h.Logger.Error("SSE", fmt.Sprintf("Failed to marshal event: %v", err))
			continue
		}
		fmt.Fprintf(w, "data: %s\n\n", payload)
		flusher.Flush()
	}
}

// --- staff/admin surface ---

// AdminCreateBooking books on behalf of a member.
func (h *Handler) AdminCreateBooking(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID    string               `json:"user_id"`
		SessionID string               `json:"session_id"`
		Status    models.BookingStatus `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if req.UserID == "" || req.SessionID == "" {
		h.writeError(w, http.StatusUnprocessableEntity, "user_id and session_id are required")
		return
	}

	result, err := h.Booking.AdminCreateBooking(r.Context(), req.UserID, req.SessionID, req.Status)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, utils.SuccessResponse("Booking created successfully", result))
}

// UpdateBookingStatus applies a staff status change.
func (h *Handler) UpdateBookingStatus(w http.ResponseWriter, r *http.Request) {
	bookingID := chi.URLParam(r, "bookingId")

	var req struct {
		Status models.BookingStatus `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	result, err := h.Booking.SetBookingStatus(r.Context(), bookingID, req.Status)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, utils.SuccessResponse("Booking updated successfully", result))
}

// AdminDeleteBooking removes any booking and may trigger promotion.
func (h *Handler) AdminDeleteBooking(w http.ResponseWriter, r *http.Request) {
	bookingID := chi.URLParam(r, "bookingId")
	if err := h.Booking.CancelBooking(r.Context(), bookingID); err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, utils.SuccessResponse("Booking deleted successfully", nil))
}

// ListBookings lists the ledger with optional session/status filters.
func (h *Handler) ListBookings(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("session_id")
	status := models.BookingStatus(r.URL.Query().Get("status"))

	bookings, err := h.Booking.ListBookings(r.Context(), sessionID, status)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, utils.SuccessResponse("Bookings fetched", bookings))
}

// BookingStats returns ledger-wide status totals.
func (h *Handler) BookingStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.Booking.Stats(r.Context())
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, utils.SuccessResponse("Stats fetched", stats))
}
