package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"ms-gymbooking/internal/catalog"
	"ms-gymbooking/internal/logger"
	"ms-gymbooking/internal/utils"
)

const dateLayout = "2006-01-02"

type Handler struct {
	Catalog *catalog.Service
	Logger  *logger.Logger
}

type sessionRequest struct {
	Name      string `json:"name"`
	Date      string `json:"date"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
	Capacity  int    `json:"capacity"`
	ImageURL  string `json:"image_url"`
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

func (h *Handler) writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, catalog.ErrSessionNotFound):
		h.writeError(w, http.StatusNotFound, "Session not found")
	case errors.Is(err, catalog.ErrNameRequired),
		errors.Is(err, catalog.ErrInvalidCapacity),
		errors.Is(err, catalog.ErrEndNotAfterStart),
		errors.Is(err, catalog.ErrPastSession),
		errors.Is(err, catalog.ErrOverlappingSession),
		errors.Is(err, catalog.ErrCapacityBelowOccupancy):
		h.writeError(w, http.StatusUnprocessableEntity, err.Error())
	default:
		h.Logger.Error("API", fmt.Sprintf("Internal error: %v", err))
		h.writeError(w, http.StatusInternalServerError, "Internal server error")
	}
}

func (r sessionRequest) toInput() (catalog.SessionInput, error) {
	input := catalog.SessionInput{
		Name:      r.Name,
		StartTime: r.StartTime,
		EndTime:   r.EndTime,
		Capacity:  r.Capacity,
		ImageURL:  r.ImageURL,
	}
	if r.Date != "" {
		date, err := time.Parse(dateLayout, r.Date)
		if err != nil {
			return input, fmt.Errorf("invalid date %q (expected YYYY-MM-DD)", r.Date)
		}
		input.Date = date
	}
	return input, nil
}

// ListSessions is the public catalog listing. Supports ?date=YYYY-MM-DD and
// ?future_only=true.
func (h *Handler) ListSessions(w http.ResponseWriter, r *http.Request) {
	var filter catalog.ListFilter

	if dateStr := r.URL.Query().Get("date"); dateStr != "" {
		date, err := time.Parse(dateLayout, dateStr)
		if err != nil {
			h.writeError(w, http.StatusBadRequest, "invalid date filter (expected YYYY-MM-DD)")
			return
		}
		filter.Date = &date
	}
	filter.FutureOnly = r.URL.Query().Get("future_only") == "true"

	sessions, err := h.Catalog.ListSessions(r.Context(), filter)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, utils.SuccessResponse("Sessions fetched", sessions))
}

// GetSession returns one session with availability annotations.
func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionId")
	session, err := h.Catalog.GetSession(r.Context(), sessionID)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, utils.SuccessResponse("Session fetched", session))
}

// CreateSession adds a session definition (session managers only).
func (h *Handler) CreateSession(w http.ResponseWriter, r *http.Request) {
	var req sessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	input, err := req.toInput()
	if err != nil {
		h.writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	session, err := h.Catalog.CreateSession(r.Context(), input)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, utils.SuccessResponse("Gym session created successfully", session))
}

// UpdateSession applies a partial session update.
func (h *Handler) UpdateSession(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionId")

	var req sessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	input, err := req.toInput()
	if err != nil {
		h.writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	session, err := h.Catalog.UpdateSession(r.Context(), sessionID, input)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, utils.SuccessResponse("Gym session updated successfully", session))
}

// DeleteSession removes a session and cascades its bookings.
func (h *Handler) DeleteSession(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionId")
	if err := h.Catalog.DeleteSession(r.Context(), sessionID); err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, utils.SuccessResponse("Gym session deleted successfully", nil))
}
