package realtime

import (
	"context"
	"encoding/json"
	"errors"

	"community-app/internal/database"
	"community-app/internal/models"
	"community-app/pkg/logger"
)

// ErrNoRoutingTarget is returned for a message that names neither a
// recipient, a group, nor an announcement. Such a message is dropped before
// it is persisted.
var ErrNoRoutingTarget = errors.New("message has no routing target")

// Router demultiplexes inbound socket events and dispatches them to the
// delivery service, the signaling relay, and the room registry. Every error
// is contained to the event that caused it; the connection stays up.
type Router struct {
	registry *Registry
	messages database.MessageRepository
	delivery *DeliveryService

	// groupRoomKey is the single always-on group discussion room.
	groupRoomKey string
}

func NewRouter(registry *Registry, messages database.MessageRepository, delivery *DeliveryService, groupRoomKey string) *Router {
	return &Router{
		registry:     registry,
		messages:     messages,
		delivery:     delivery,
		groupRoomKey: groupRoomKey,
	}
}

// Connect registers a fresh session with no room memberships.
func (r *Router) Connect(s *Session) {
	r.registry.Register(s)
	logger.Info("New client connected %s", s.SessionID())
}

// Disconnect removes the session from every room before it is discarded.
func (r *Router) Disconnect(c Client) {
	r.registry.Unregister(c)
	logger.Info("Client disconnected %s", c.SessionID())
}

// Dispatch routes one inbound frame. Events from a single connection arrive
// here in order because the session's read pump calls it synchronously.
func (r *Router) Dispatch(c Client, raw []byte) {
	var env models.Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		logger.Error("Bad frame from session %s: %v", c.SessionID(), err)
		return
	}

	ctx := context.Background()

	switch env.Event {
	case models.EventJoin:
		r.handleJoin(c, env.Data)
	case models.EventJoinGD:
		r.registry.Join(c, r.groupRoomKey)
		logger.Info("Session %s joined GD", c.SessionID())
	case models.EventLeaveGD:
		r.registry.Leave(c, r.groupRoomKey)
		logger.Info("Session %s left GD", c.SessionID())
	case models.EventJoinAnnouncement:
		r.handleJoinAnnouncement(c, env.Data)
	case models.EventSendMessage:
		r.handleSendMessage(ctx, env.Data)
	case models.EventMarkDelivered:
		r.handleMarkDelivered(ctx, env.Data)
	case models.EventMarkRead:
		r.handleMarkRead(ctx, env.Data)
	case models.EventDeleteMessage:
		r.handleDeleteMessage(ctx, env.Data)
	case models.EventJoinMeet:
		r.handleJoinMeet(c, env.Data)
	case models.EventOffer, models.EventAnswer, models.EventICECandidate:
		r.handleSignal(c, env.Event, env.Data)
	default:
		logger.Error("Unknown event %q from session %s", env.Event, c.SessionID())
	}
}

func (r *Router) handleJoin(c Client, data json.RawMessage) {
	var p models.JoinPayload
	if err := json.Unmarshal(data, &p); err != nil || p.UserID == "" {
		logger.Error("Bad join payload from session %s: %v", c.SessionID(), err)
		return
	}
	r.registry.Join(c, p.UserID)
	logger.Info("User %s joined room %s", p.UserID, p.UserID)
}

func (r *Router) handleJoinAnnouncement(c Client, data json.RawMessage) {
	var p models.JoinAnnouncementPayload
	if err := json.Unmarshal(data, &p); err != nil || p.AnnouncementID == "" {
		logger.Error("Bad joinAnnouncement payload from session %s: %v", c.SessionID(), err)
		return
	}
	r.registry.Join(c, p.AnnouncementID)
	logger.Info("Session %s joined announcement room %s", c.SessionID(), p.AnnouncementID)
}

// resolveTarget turns optional payload fields into one member of the closed
// routing-target set. Field precedence matches the original client
// contract: recipient, then announcement, then group.
func resolveTarget(p *models.SendMessagePayload) (models.RoutingTarget, error) {
	switch {
	case p.Recipient != "":
		return models.DirectTarget{Recipient: p.Recipient}, nil
	case p.AnnouncementID != "":
		return models.AnnouncementTarget{AnnouncementID: p.AnnouncementID}, nil
	case p.GroupKey != "":
		return models.GroupTarget{GroupKey: p.GroupKey}, nil
	default:
		return nil, ErrNoRoutingTarget
	}
}

func (r *Router) handleSendMessage(ctx context.Context, data json.RawMessage) {
	var p models.SendMessagePayload
	if err := json.Unmarshal(data, &p); err != nil {
		logger.Error("Bad sendMessage payload: %v", err)
		return
	}
	if p.Sender == "" {
		logger.Error("sendMessage without sender dropped")
		return
	}

	target, err := resolveTarget(&p)
	if err != nil {
		logger.Error("Routing error for message from %s: %v", p.Sender, err)
		return
	}

	msg := &models.Message{
		Sender:         p.Sender,
		Recipient:      p.Recipient,
		GroupKey:       p.GroupKey,
		AnnouncementID: p.AnnouncementID,
		Content:        p.Content,
		Type:           p.Type,
		Status:         models.StatusSent,
	}
	if err := r.messages.SaveMessage(ctx, msg); err != nil {
		// The sender gets no confirmation; at-most-once is accepted.
		logger.Error("Failed to save message from %s: %v", p.Sender, err)
		return
	}

	switch t := target.(type) {
	case models.DirectTarget:
		// Echo to the sender's personal room so their other sessions
		// see the message too.
		r.registry.Broadcast(t.Recipient, models.EventReceiveMessage, msg)
		r.registry.Broadcast(msg.Sender, models.EventReceiveMessage, msg)
	case models.AnnouncementTarget:
		r.registry.Broadcast(t.AnnouncementID, models.EventReceiveAnnouncement, msg)
	case models.GroupTarget:
		r.registry.Broadcast(t.GroupKey, models.EventReceiveMessage, msg)
	}
}

func (r *Router) handleMarkDelivered(ctx context.Context, data json.RawMessage) {
	var p models.MessageStatusPayload
	if err := json.Unmarshal(data, &p); err != nil {
		logger.Error("Bad markAsDelivered payload: %v", err)
		return
	}
	if err := r.delivery.MarkDelivered(ctx, p.MessageID); err != nil {
		logger.Error("Mark delivered error for %s: %v", p.MessageID, err)
	}
}

func (r *Router) handleMarkRead(ctx context.Context, data json.RawMessage) {
	var p models.MessageStatusPayload
	if err := json.Unmarshal(data, &p); err != nil {
		logger.Error("Bad markAsRead payload: %v", err)
		return
	}
	if err := r.delivery.MarkRead(ctx, p.MessageID); err != nil {
		logger.Error("Mark read error for %s: %v", p.MessageID, err)
	}
}

func (r *Router) handleDeleteMessage(ctx context.Context, data json.RawMessage) {
	var p models.MessageStatusPayload
	if err := json.Unmarshal(data, &p); err != nil {
		logger.Error("Bad deleteMessage payload: %v", err)
		return
	}
	if err := r.delivery.Delete(ctx, p.MessageID, p.UserID); err != nil {
		if errors.Is(err, ErrUnauthorized) {
			logger.Error("Unauthorized delete attempt on %s by %s", p.MessageID, p.UserID)
			return
		}
		logger.Error("Delete error for %s: %v", p.MessageID, err)
	}
}
