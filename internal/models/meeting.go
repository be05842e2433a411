package models

import "time"

type Meeting struct {
	ID            string    `json:"id"`
	Title         string    `json:"title"`
	HostID        string    `json:"hostId"`
	ScheduledTime time.Time `json:"scheduledTime"`
	Code          string    `json:"code"`
	CreatedAt     time.Time `json:"createdAt"`
}

type ScheduleMeetingRequest struct {
	Title         string    `json:"title"`
	ScheduledTime time.Time `json:"scheduledTime"`
}

// GDStatus is the singleton state of the group discussion window.
type GDStatus struct {
	IsActive        bool      `json:"isActive"`
	EndTime         time.Time `json:"endTime,omitempty"`
	DurationMinutes int       `json:"durationMinutes"`
}
