package models

import "time"

type MessageStatus string

const (
	StatusSent      MessageStatus = "sent"
	StatusDelivered MessageStatus = "delivered"
	StatusRead      MessageStatus = "read"
)

type ContentType string

const (
	ContentTypeText      ContentType = "text"
	ContentTypeImage     ContentType = "image"
	ContentTypeVideoLink ContentType = "video_link"
)

// Message is a persisted chat message. Exactly one of Recipient, GroupKey and
// AnnouncementID carries the routing target; Read mirrors Status for older
// clients that only understand the boolean flag.
type Message struct {
	ID             string        `json:"id"`
	Sender         string        `json:"sender"`
	Recipient      string        `json:"recipient,omitempty"`
	GroupKey       string        `json:"groupId,omitempty"`
	AnnouncementID string        `json:"announcementId,omitempty"`
	Content        string        `json:"content"`
	Type           ContentType   `json:"type"`
	Status         MessageStatus `json:"status"`
	Read           bool          `json:"read"`
	CreatedAt      time.Time     `json:"createdAt"`
}
