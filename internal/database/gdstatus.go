package database

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"community-app/internal/models"

	"github.com/redis/go-redis/v9"
)

const gdStatusKey = "gd:status"

// GDStatusStore keeps the group discussion window singleton in Redis. The
// window is short-lived operational state, so it lives next to nothing else
// and survives server restarts without touching Postgres.
type GDStatusStore struct {
	client *redis.Client
}

func NewGDStatusStore(ctx context.Context, addr, password string) (*GDStatusStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       0,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &GDStatusStore{client: client}, nil
}

func (s *GDStatusStore) Close() error {
	return s.client.Close()
}

func (s *GDStatusStore) SetStatus(ctx context.Context, status *models.GDStatus) error {
	fields := map[string]interface{}{
		"is_active":        strconv.FormatBool(status.IsActive),
		"duration_minutes": status.DurationMinutes,
		"end_time":         "",
	}
	if !status.EndTime.IsZero() {
		fields["end_time"] = status.EndTime.Format(time.RFC3339)
	}

	if err := s.client.HSet(ctx, gdStatusKey, fields).Err(); err != nil {
		return fmt.Errorf("failed to store gd status: %w", err)
	}
	return nil
}

func (s *GDStatusStore) GetStatus(ctx context.Context) (*models.GDStatus, error) {
	data, err := s.client.HGetAll(ctx, gdStatusKey).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to load gd status: %w", err)
	}
	if len(data) == 0 {
		// Never started: inactive window.
		return &models.GDStatus{}, nil
	}

	status := &models.GDStatus{}
	status.IsActive, _ = strconv.ParseBool(data["is_active"])
	status.DurationMinutes, _ = strconv.Atoi(data["duration_minutes"])
	if raw := data["end_time"]; raw != "" {
		if t, err := time.Parse(time.RFC3339, raw); err == nil {
			status.EndTime = t
		}
	}

	// An expired window reads as inactive even if nobody stopped it.
	if status.IsActive && !status.EndTime.IsZero() && time.Now().After(status.EndTime) {
		status.IsActive = false
	}
	return status, nil
}
