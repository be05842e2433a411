package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"community-app/internal/auth"
	"community-app/internal/database"
	"community-app/internal/models"
	"community-app/internal/services"
	"community-app/pkg/logger"
)

type MeetingHandlers struct {
	meetings    *services.MeetingService
	authService *auth.Service
}

func NewMeetingHandlers(meetings *services.MeetingService, authService *auth.Service) *MeetingHandlers {
	return &MeetingHandlers{
		meetings:    meetings,
		authService: authService,
	}
}

func (h *MeetingHandlers) Schedule(w http.ResponseWriter, r *http.Request) {
	user, err := h.getUserFromToken(r)
	if err != nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	var req models.ScheduleMeetingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}

	meeting, err := h.meetings.Schedule(r.Context(), &req, user.ID)
	if err != nil {
		logger.Error("Schedule meeting error: %v", err)
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(meeting)
}

func (h *MeetingHandlers) List(w http.ResponseWriter, r *http.Request) {
	if _, err := h.getUserFromToken(r); err != nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	meetings, err := h.meetings.List(r.Context())
	if err != nil {
		logger.Error("List meetings error: %v", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(meetings)
}

// GetByCode resolves a join code before a client enters the signaling room.
func (h *MeetingHandlers) GetByCode(w http.ResponseWriter, r *http.Request) {
	parts := strings.Split(r.URL.Path, "/")
	if len(parts) < 3 || parts[2] == "" {
		http.Error(w, "invalid meeting code", http.StatusBadRequest)
		return
	}

	meeting, err := h.meetings.GetByCode(r.Context(), parts[2])
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			http.Error(w, "meeting not found", http.StatusNotFound)
			return
		}
		logger.Error("Get meeting error: %v", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(meeting)
}

func (h *MeetingHandlers) getUserFromToken(r *http.Request) (*models.User, error) {
	tokenStr := r.URL.Query().Get("token")
	if tokenStr == "" {
		return nil, fmt.Errorf("missing token")
	}

	return h.authService.GetUserFromToken(r.Context(), tokenStr)
}
