package models

import "encoding/json"

// Inbound socket event names.
const (
	EventJoin             = "join"
	EventJoinGD           = "joinGD"
	EventLeaveGD          = "leaveGD"
	EventJoinAnnouncement = "joinAnnouncement"
	EventSendMessage      = "sendMessage"
	EventMarkDelivered    = "markAsDelivered"
	EventMarkRead         = "markAsRead"
	EventDeleteMessage    = "deleteMessage"
	EventJoinMeet         = "joinMeet"
	EventOffer            = "offer"
	EventAnswer           = "answer"
	EventICECandidate     = "ice-candidate"
)

// Outbound socket event names.
const (
	EventReceiveMessage      = "receiveMessage"
	EventReceiveAnnouncement = "receiveAnnouncement"
	EventMessageStatusUpdate = "messageStatusUpdate"
	EventMessageDeleted      = "messageDeleted"
	EventPollUpdated         = "pollUpdated"
	EventNewAnnouncement     = "newAnnouncement"
	EventDeleteAnnouncement  = "deleteAnnouncement"
	EventGDStatusUpdate      = "gdStatusUpdate"
	EventUserConnected       = "user-connected"
)

// Envelope is the wire frame for every socket event in both directions.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

type JoinPayload struct {
	UserID string `json:"userId"`
}

type JoinAnnouncementPayload struct {
	AnnouncementID string `json:"announcementId"`
}

type SendMessagePayload struct {
	Sender         string      `json:"sender"`
	Recipient      string      `json:"recipient,omitempty"`
	GroupKey       string      `json:"groupId,omitempty"`
	AnnouncementID string      `json:"announcementId,omitempty"`
	Content        string      `json:"content"`
	Type           ContentType `json:"type,omitempty"`
}

type MessageStatusPayload struct {
	MessageID string `json:"msgId"`
	UserID    string `json:"userId,omitempty"`
}

type JoinMeetPayload struct {
	RoomCode string `json:"roomCode"`
}

// SignalPayload carries a WebRTC negotiation frame. Everything besides the
// room code is opaque to the relay.
type SignalPayload struct {
	RoomCode string `json:"roomCode"`
}

type StatusUpdate struct {
	MessageID string        `json:"msgId"`
	Status    MessageStatus `json:"status"`
}

type MessageDeleted struct {
	MessageID string `json:"msgId"`
}

type PollUpdate struct {
	AnnouncementID string `json:"announcementId"`
	Poll           *Poll  `json:"poll"`
}

// RoutingTarget is the closed set of destinations a message can be sent to.
// It is constructed at the transport boundary so routing is a total type
// switch rather than field-presence checks.
type RoutingTarget interface {
	isRoutingTarget()
}

type DirectTarget struct {
	Recipient string
}

type GroupTarget struct {
	GroupKey string
}

type AnnouncementTarget struct {
	AnnouncementID string
}

func (DirectTarget) isRoutingTarget()       {}
func (GroupTarget) isRoutingTarget()        {}
func (AnnouncementTarget) isRoutingTarget() {}
