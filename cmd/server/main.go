package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"community-app/internal/auth"
	"community-app/internal/config"
	"community-app/internal/database"
	"community-app/internal/handlers"
	"community-app/internal/realtime"
	"community-app/internal/services"
	"community-app/pkg/logger"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize database
	db, err := database.NewPostgresDB(cfg.Database.URL)
	if err != nil {
		logger.Fatal("Failed to connect to database: %v", err)
	}
	defer db.Close()

	gdStatus, err := database.NewGDStatusStore(context.Background(), cfg.Redis.Addr, cfg.Redis.Password)
	if err != nil {
		logger.Fatal("Failed to connect to redis: %v", err)
	}
	defer gdStatus.Close()

	// The registry is built once here and handed to every consumer; nothing
	// looks it up through ambient state.
	registry := realtime.NewRegistry()
	delivery := realtime.NewDeliveryService(db, registry)
	votes := realtime.NewVoteEngine(db, registry)
	router := realtime.NewRouter(registry, db, delivery, cfg.Chat.GroupRoomKey)

	// Initialize services
	authService := auth.NewService(db, cfg)
	announcementService := services.NewAnnouncementService(db, registry)
	meetingService := services.NewMeetingService(db)

	// Initialize handlers
	authHandlers := handlers.NewAuthHandlers(authService, db)
	announcementHandlers := handlers.NewAnnouncementHandlers(announcementService, votes, authService)
	meetingHandlers := handlers.NewMeetingHandlers(meetingService, authService)
	gdHandlers := handlers.NewGDHandlers(gdStatus, registry, authService)
	messageHandlers := handlers.NewMessageHandlers(db, authService, cfg.Chat.GroupRoomKey)
	wsHandlers := handlers.NewWebSocketHandlers(authService, router)

	// Setup routes
	mux := http.NewServeMux()
	setupRoutes(mux, authHandlers, announcementHandlers, meetingHandlers, gdHandlers, messageHandlers, wsHandlers)

	// Create server
	server := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      corsMiddleware(mux),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Start server
	logger.Info("🚀 Server started on http://localhost%s", cfg.Server.Port)
	logger.Info("📡 WebSocket endpoint: ws://localhost%s/ws", cfg.Server.Port)

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server error: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Server shutting down...")
}

func setupRoutes(
	mux *http.ServeMux,
	authHandlers *handlers.AuthHandlers,
	announcementHandlers *handlers.AnnouncementHandlers,
	meetingHandlers *handlers.MeetingHandlers,
	gdHandlers *handlers.GDHandlers,
	messageHandlers *handlers.MessageHandlers,
	wsHandlers *handlers.WebSocketHandlers,
) {
	// Auth routes
	mux.HandleFunc("/login", authHandlers.Login)
	mux.HandleFunc("/register", authHandlers.Register)
	mux.HandleFunc("/auth/admin-id", authHandlers.AdminID)

	// Announcement routes
	mux.HandleFunc("/announcements", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			announcementHandlers.List(w, r)
		case http.MethodPost:
			announcementHandlers.Create(w, r)
		default:
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		}
	})

	// Announcement sub-routes
	mux.HandleFunc("/announcements/", func(w http.ResponseWriter, r *http.Request) {
		parts := strings.Split(r.URL.Path, "/")
		if len(parts) < 3 || parts[2] == "" {
			http.Error(w, "invalid path", http.StatusBadRequest)
			return
		}

		// /announcements/{id}/vote
		if len(parts) == 4 && parts[3] == "vote" && r.Method == http.MethodPost {
			announcementHandlers.Vote(w, r)
			return
		}

		// /announcements/{id}
		if len(parts) == 3 {
			switch r.Method {
			case http.MethodGet:
				announcementHandlers.Get(w, r)
				return
			case http.MethodDelete:
				announcementHandlers.Delete(w, r)
				return
			}
		}

		http.Error(w, "endpoint not found", http.StatusNotFound)
	})

	// Meeting routes
	mux.HandleFunc("/meetings", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			meetingHandlers.List(w, r)
		case http.MethodPost:
			meetingHandlers.Schedule(w, r)
		default:
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		}
	})
	mux.HandleFunc("/meetings/", meetingHandlers.GetByCode)

	// Group discussion routes
	mux.HandleFunc("/gd/status", gdHandlers.Status)
	mux.HandleFunc("/admin/gd/status", gdHandlers.SetStatus)

	// Message history routes
	mux.HandleFunc("/messages/direct", messageHandlers.DirectHistory)
	mux.HandleFunc("/messages/group", messageHandlers.GroupHistory)

	// WebSocket route
	mux.HandleFunc("/ws", wsHandlers.HandleWebSocket)
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
