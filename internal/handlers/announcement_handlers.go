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
	"community-app/internal/realtime"
	"community-app/internal/services"
	"community-app/pkg/logger"
)

type AnnouncementHandlers struct {
	announcements *services.AnnouncementService
	votes         *realtime.VoteEngine
	authService   *auth.Service
}

func NewAnnouncementHandlers(announcements *services.AnnouncementService, votes *realtime.VoteEngine, authService *auth.Service) *AnnouncementHandlers {
	return &AnnouncementHandlers{
		announcements: announcements,
		votes:         votes,
		authService:   authService,
	}
}

func (h *AnnouncementHandlers) Create(w http.ResponseWriter, r *http.Request) {
	user, err := h.getUserFromToken(r)
	if err != nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	if user.Role != "admin" {
		http.Error(w, "only admins can post announcements", http.StatusForbidden)
		return
	}

	var req models.CreateAnnouncementRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}

	announcement, err := h.announcements.Create(r.Context(), &req, user.ID)
	if err != nil {
		logger.Error("Create announcement error: %v", err)
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(announcement)
}

func (h *AnnouncementHandlers) List(w http.ResponseWriter, r *http.Request) {
	announcements, err := h.announcements.List(r.Context())
	if err != nil {
		logger.Error("List announcements error: %v", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(announcements)
}

func (h *AnnouncementHandlers) Get(w http.ResponseWriter, r *http.Request) {
	id, err := getAnnouncementIDFromPath(r)
	if err != nil {
		http.Error(w, "invalid announcement ID", http.StatusBadRequest)
		return
	}

	announcement, err := h.announcements.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			http.Error(w, "announcement not found", http.StatusNotFound)
			return
		}
		logger.Error("Get announcement error: %v", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(announcement)
}

func (h *AnnouncementHandlers) Delete(w http.ResponseWriter, r *http.Request) {
	user, err := h.getUserFromToken(r)
	if err != nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	id, err := getAnnouncementIDFromPath(r)
	if err != nil {
		http.Error(w, "invalid announcement ID", http.StatusBadRequest)
		return
	}

	if err := h.announcements.Delete(r.Context(), id, user); err != nil {
		switch {
		case errors.Is(err, database.ErrNotFound):
			http.Error(w, "announcement not found", http.StatusNotFound)
		case errors.Is(err, realtime.ErrUnauthorized):
			http.Error(w, "forbidden", http.StatusForbidden)
		default:
			logger.Error("Delete announcement error: %v", err)
			http.Error(w, "internal server error", http.StatusInternalServerError)
		}
		return
	}

	w.WriteHeader(http.StatusOK)
	w.Write([]byte("announcement deleted"))
}

// Vote applies a poll vote through the vote engine and returns the updated
// poll so the voting client can render without waiting for the broadcast.
func (h *AnnouncementHandlers) Vote(w http.ResponseWriter, r *http.Request) {
	user, err := h.getUserFromToken(r)
	if err != nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	id, err := getAnnouncementIDFromPath(r)
	if err != nil {
		http.Error(w, "invalid announcement ID", http.StatusBadRequest)
		return
	}

	var req models.VoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}

	poll, err := h.votes.Vote(r.Context(), id, user.ID, req.OptionIndex)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			http.Error(w, "poll not found", http.StatusNotFound)
			return
		}
		logger.Error("Vote error on announcement %s: %v", id, err)
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(models.PollUpdate{AnnouncementID: id, Poll: poll})
}

func (h *AnnouncementHandlers) getUserFromToken(r *http.Request) (*models.User, error) {
	tokenStr := r.URL.Query().Get("token")
	if tokenStr == "" {
		return nil, fmt.Errorf("missing token")
	}

	return h.authService.GetUserFromToken(r.Context(), tokenStr)
}

// getAnnouncementIDFromPath extracts the id from /announcements/{id}[/vote].
func getAnnouncementIDFromPath(r *http.Request) (string, error) {
	parts := strings.Split(r.URL.Path, "/")
	if len(parts) < 3 || parts[2] == "" {
		return "", fmt.Errorf("invalid path")
	}
	return parts[2], nil
}
