package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"community-app/internal/auth"
	"community-app/internal/database"
	"community-app/internal/models"
	"community-app/internal/realtime"
	"community-app/pkg/logger"
)

type GDHandlers struct {
	status      *database.GDStatusStore
	broadcaster realtime.Broadcaster
	authService *auth.Service
}

func NewGDHandlers(status *database.GDStatusStore, broadcaster realtime.Broadcaster, authService *auth.Service) *GDHandlers {
	return &GDHandlers{
		status:      status,
		broadcaster: broadcaster,
		authService: authService,
	}
}

func (h *GDHandlers) Status(w http.ResponseWriter, r *http.Request) {
	status, err := h.status.GetStatus(r.Context())
	if err != nil {
		logger.Error("GD status error: %v", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(status)
}

type setGDStatusRequest struct {
	IsActive        bool `json:"isActive"`
	DurationMinutes int  `json:"durationMinutes"`
}

// SetStatus opens or closes the discussion window. Admin only; everyone
// connected hears about the change.
func (h *GDHandlers) SetStatus(w http.ResponseWriter, r *http.Request) {
	user, err := h.getUserFromToken(r)
	if err != nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	if user.Role != "admin" {
		http.Error(w, "only admins can manage the discussion", http.StatusForbidden)
		return
	}

	var req setGDStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}

	status := &models.GDStatus{
		IsActive:        req.IsActive,
		DurationMinutes: req.DurationMinutes,
	}
	if req.IsActive && req.DurationMinutes > 0 {
		status.EndTime = time.Now().Add(time.Duration(req.DurationMinutes) * time.Minute)
	}

	if err := h.status.SetStatus(r.Context(), status); err != nil {
		logger.Error("Set GD status error: %v", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	h.broadcaster.BroadcastAll(models.EventGDStatusUpdate, status)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(status)
}

func (h *GDHandlers) getUserFromToken(r *http.Request) (*models.User, error) {
	tokenStr := r.URL.Query().Get("token")
	if tokenStr == "" {
		return nil, fmt.Errorf("missing token")
	}

	return h.authService.GetUserFromToken(r.Context(), tokenStr)
}
