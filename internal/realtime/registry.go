package realtime

import (
	"encoding/json"
	"sync"

	"community-app/internal/models"
	"community-app/pkg/logger"
)

// Client is one live connection as the registry sees it. Session implements
// it; tests substitute fakes.
type Client interface {
	SessionID() string
	TrySend(data []byte) error
}

// Broadcaster is the outbound fan-out surface handed to the engines and the
// HTTP collaborators. The registry is the only implementation; consumers
// receive it at construction instead of reaching for a global handle.
type Broadcaster interface {
	Broadcast(roomKey, event string, data interface{})
	BroadcastAll(event string, data interface{})
}

// Registry maps room keys to the set of currently connected sessions. Rooms
// have no existence of their own: a room with no members is simply absent
// from the map.
type Registry struct {
	mu       sync.Mutex
	sessions map[Client]bool
	rooms    map[string]map[Client]bool
	joined   map[Client]map[string]bool
}

func NewRegistry() *Registry {
	return &Registry{
		sessions: make(map[Client]bool),
		rooms:    make(map[string]map[Client]bool),
		joined:   make(map[Client]map[string]bool),
	}
}

// Register records a freshly connected session. It belongs to no room yet.
func (r *Registry) Register(c Client) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[c] = true
}

// Unregister removes the session from every room and forgets it entirely.
// Called exactly once, on disconnect.
func (r *Registry) Unregister(c Client) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.leaveAllLocked(c)
	delete(r.sessions, c)
}

// Join adds the session to the room's member set. Joining a room twice is a
// no-op.
func (r *Registry) Join(c Client, roomKey string) {
	if roomKey == "" {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.rooms[roomKey] == nil {
		r.rooms[roomKey] = make(map[Client]bool)
	}
	r.rooms[roomKey][c] = true

	if r.joined[c] == nil {
		r.joined[c] = make(map[string]bool)
	}
	r.joined[c][roomKey] = true
}

// Leave removes the session from the room. Leaving a room it never joined is
// a no-op.
func (r *Registry) Leave(c Client, roomKey string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.leaveLocked(c, roomKey)
}

// LeaveAll removes the session from every room it belongs to. Called on
// disconnect so no room holds a reference to a dead session.
func (r *Registry) LeaveAll(c Client) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.leaveAllLocked(c)
}

func (r *Registry) leaveAllLocked(c Client) {
	for roomKey := range r.joined[c] {
		r.leaveLocked(c, roomKey)
	}
	delete(r.joined, c)
}

func (r *Registry) leaveLocked(c Client, roomKey string) {
	if members, ok := r.rooms[roomKey]; ok {
		delete(members, c)
		if len(members) == 0 {
			delete(r.rooms, roomKey)
		}
	}
	if rooms, ok := r.joined[c]; ok {
		delete(rooms, roomKey)
	}
}

// Broadcast delivers the event to every member of the room. Delivery order
// per room follows invocation order; an empty room is not an error. A member
// whose send buffer is full just misses this frame.
func (r *Registry) Broadcast(roomKey, event string, data interface{}) {
	frame, err := encodeFrame(event, data)
	if err != nil {
		logger.Error("Error encoding %s event: %v", event, err)
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for member := range r.rooms[roomKey] {
		if err := member.TrySend(frame); err != nil {
			logger.Error("Dropping %s frame for session %s in room %s: %v", event, member.SessionID(), roomKey, err)
		}
	}
}

// BroadcastExcept behaves like Broadcast but skips the sender. Used by the
// signaling relay, which never echoes a frame back to its origin.
func (r *Registry) BroadcastExcept(roomKey string, sender Client, event string, data interface{}) {
	frame, err := encodeFrame(event, data)
	if err != nil {
		logger.Error("Error encoding %s event: %v", event, err)
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for member := range r.rooms[roomKey] {
		if member == sender {
			continue
		}
		if err := member.TrySend(frame); err != nil {
			logger.Error("Dropping %s frame for session %s in room %s: %v", event, member.SessionID(), roomKey, err)
		}
	}
}

// BroadcastAll delivers the event to every connected session regardless of
// room membership. Announcement feed and discussion status updates use it.
func (r *Registry) BroadcastAll(event string, data interface{}) {
	frame, err := encodeFrame(event, data)
	if err != nil {
		logger.Error("Error encoding %s event: %v", event, err)
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for member := range r.sessions {
		if err := member.TrySend(frame); err != nil {
			logger.Error("Dropping %s frame for session %s: %v", event, member.SessionID(), err)
		}
	}
}

// RoomSize reports the current member count of a room.
func (r *Registry) RoomSize(roomKey string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.rooms[roomKey])
}

func encodeFrame(event string, data interface{}) ([]byte, error) {
	env := models.Envelope{Event: event}
	if data != nil {
		raw, err := json.Marshal(data)
		if err != nil {
			return nil, err
		}
		env.Data = raw
	}
	return json.Marshal(env)
}
