package realtime

import (
	"encoding/json"

	"community-app/internal/models"
	"community-app/pkg/logger"
)

// Signaling relay: WebRTC negotiation frames pass through untouched, scoped
// to a meeting room, never echoed back to the sender. Nothing is persisted.

func (r *Router) handleJoinMeet(c Client, data json.RawMessage) {
	var p models.JoinMeetPayload
	if err := json.Unmarshal(data, &p); err != nil || p.RoomCode == "" {
		logger.Error("Bad joinMeet payload from session %s: %v", c.SessionID(), err)
		return
	}

	r.registry.Join(c, p.RoomCode)
	// Existing members learn about the new peer; the joiner hears nothing.
	r.registry.BroadcastExcept(p.RoomCode, c, models.EventUserConnected, c.SessionID())
	logger.Info("Session %s joined meeting room %s", c.SessionID(), p.RoomCode)
}

func (r *Router) handleSignal(c Client, event string, data json.RawMessage) {
	var p models.SignalPayload
	if err := json.Unmarshal(data, &p); err != nil || p.RoomCode == "" {
		logger.Error("Bad %s payload from session %s: %v", event, c.SessionID(), err)
		return
	}

	// The payload is opaque to the relay; forward it verbatim.
	r.registry.BroadcastExcept(p.RoomCode, c, event, json.RawMessage(data))
}
