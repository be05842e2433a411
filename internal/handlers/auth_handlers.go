package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"community-app/internal/auth"
	"community-app/internal/database"
	"community-app/internal/models"
	"community-app/pkg/logger"
)

type AuthHandlers struct {
	authService *auth.Service
	db          database.UserRepository
}

func NewAuthHandlers(authService *auth.Service, db database.UserRepository) *AuthHandlers {
	return &AuthHandlers{
		authService: authService,
		db:          db,
	}
}

func (h *AuthHandlers) Register(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}

	response, err := h.authService.Register(r.Context(), &req)
	if err != nil {
		logger.Error("Registration error: %v", err)
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(response)
}

func (h *AuthHandlers) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}

	response, err := h.authService.Login(r.Context(), &req)
	if err != nil {
		logger.Error("Login error: %v", err)
		http.Error(w, "invalid credentials", http.StatusUnauthorized)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

// AdminID reports which user is the admin, so clients know who moderates
// the group discussion.
func (h *AuthHandlers) AdminID(w http.ResponseWriter, r *http.Request) {
	adminID, err := h.db.GetAdminID(r.Context())
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			http.Error(w, "no admin found", http.StatusNotFound)
			return
		}
		logger.Error("Admin lookup error: %v", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"adminId": adminID})
}
