package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"community-app/internal/auth"
	"community-app/internal/database"
	"community-app/internal/models"
	"community-app/pkg/logger"
)

const defaultHistoryLimit = 50

// MessageHandlers serves chat history. Missed realtime events are
// reconciled by re-fetching here; the socket layer itself never retries.
type MessageHandlers struct {
	db           database.MessageRepository
	authService  *auth.Service
	groupRoomKey string
}

func NewMessageHandlers(db database.MessageRepository, authService *auth.Service, groupRoomKey string) *MessageHandlers {
	return &MessageHandlers{
		db:           db,
		authService:  authService,
		groupRoomKey: groupRoomKey,
	}
}

// DirectHistory returns the conversation between the caller and ?peer=.
func (h *MessageHandlers) DirectHistory(w http.ResponseWriter, r *http.Request) {
	user, err := h.getUserFromToken(r)
	if err != nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	peer := r.URL.Query().Get("peer")
	if peer == "" {
		http.Error(w, "missing peer", http.StatusBadRequest)
		return
	}

	messages, err := h.db.ListDirectMessages(r.Context(), user.ID, peer, historyLimit(r))
	if err != nil {
		logger.Error("Direct history error: %v", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(messages)
}

// GroupHistory returns the group discussion backlog.
func (h *MessageHandlers) GroupHistory(w http.ResponseWriter, r *http.Request) {
	if _, err := h.getUserFromToken(r); err != nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	messages, err := h.db.ListGroupMessages(r.Context(), h.groupRoomKey, historyLimit(r))
	if err != nil {
		logger.Error("Group history error: %v", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(messages)
}

func historyLimit(r *http.Request) int {
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 && n <= 200 {
			return n
		}
	}
	return defaultHistoryLimit
}

func (h *MessageHandlers) getUserFromToken(r *http.Request) (*models.User, error) {
	tokenStr := r.URL.Query().Get("token")
	if tokenStr == "" {
		return nil, fmt.Errorf("missing token")
	}

	return h.authService.GetUserFromToken(r.Context(), tokenStr)
}
