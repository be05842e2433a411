package handlers

import (
	"net/http"

	"community-app/internal/auth"
	"community-app/internal/realtime"
	"community-app/pkg/logger"

	"github.com/gorilla/websocket"
)

type WebSocketHandlers struct {
	authService *auth.Service
	router      *realtime.Router
	upgrader    websocket.Upgrader
}

func NewWebSocketHandlers(authService *auth.Service, router *realtime.Router) *WebSocketHandlers {
	return &WebSocketHandlers{
		authService: authService,
		router:      router,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true }, // Configure for production
		},
	}
}

func (h *WebSocketHandlers) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	// Get JWT token from query parameters
	tokenStr := r.URL.Query().Get("token")
	if tokenStr == "" {
		http.Error(w, "missing token", http.StatusUnauthorized)
		return
	}

	// Validate token before upgrading
	if _, err := h.authService.GetUserFromToken(r.Context(), tokenStr); err != nil {
		http.Error(w, "invalid token", http.StatusUnauthorized)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Error("Upgrade error: %v", err)
		return
	}

	session := realtime.NewSession(conn)
	h.router.Connect(session)

	go session.WritePump()
	go session.ReadPump(h.router)
}
