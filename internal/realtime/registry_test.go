package realtime_test

import (
	"encoding/json"
	"fmt"
	"testing"

	"community-app/internal/realtime"
)

func TestBroadcastReachesRoomMembers(t *testing.T) {
	registry := realtime.NewRegistry()
	a := newFakeClient("a")
	b := newFakeClient("b")
	registry.Register(a)
	registry.Register(b)
	registry.Join(a, "room-1")
	registry.Join(b, "room-1")

	registry.Broadcast("room-1", "hello", map[string]string{"text": "hi"})

	for _, c := range []*fakeClient{a, b} {
		events := c.eventNames(t)
		if len(events) != 1 || events[0] != "hello" {
			t.Errorf("client %s got events %v, want [hello]", c.SessionID(), events)
		}
	}
}

func TestRoomIsolation(t *testing.T) {
	registry := realtime.NewRegistry()
	member := newFakeClient("member")
	outsider := newFakeClient("outsider")
	registry.Register(member)
	registry.Register(outsider)
	registry.Join(member, "room-1")
	registry.Join(outsider, "room-2")

	registry.Broadcast("room-1", "secret", nil)

	if got := outsider.eventNames(t); len(got) != 0 {
		t.Errorf("outsider observed events from a room it never joined: %v", got)
	}
	if got := member.eventNames(t); len(got) != 1 {
		t.Errorf("member got %d events, want 1", len(got))
	}
}

func TestBroadcastToEmptyRoomIsNoError(t *testing.T) {
	registry := realtime.NewRegistry()
	// Must not panic or block.
	registry.Broadcast("nobody-here", "ping", nil)
}

func TestJoinIsIdempotent(t *testing.T) {
	registry := realtime.NewRegistry()
	c := newFakeClient("c")
	registry.Register(c)
	registry.Join(c, "room-1")
	registry.Join(c, "room-1")

	registry.Broadcast("room-1", "once", nil)

	if got := len(c.eventNames(t)); got != 1 {
		t.Errorf("double join caused %d deliveries, want 1", got)
	}
}

func TestLeaveUnjoinedRoomIsNoop(t *testing.T) {
	registry := realtime.NewRegistry()
	c := newFakeClient("c")
	registry.Register(c)
	registry.Leave(c, "never-joined")
}

func TestUnregisterLeavesEveryRoom(t *testing.T) {
	registry := realtime.NewRegistry()
	c := newFakeClient("c")
	registry.Register(c)
	registry.Join(c, "room-1")
	registry.Join(c, "room-2")
	registry.Join(c, "room-3")

	registry.Unregister(c)

	for _, room := range []string{"room-1", "room-2", "room-3"} {
		if size := registry.RoomSize(room); size != 0 {
			t.Errorf("room %s still has %d members after unregister", room, size)
		}
		registry.Broadcast(room, "after", nil)
	}
	if got := c.eventNames(t); len(got) != 0 {
		t.Errorf("unregistered client still received events: %v", got)
	}
}

func TestBroadcastFIFOPerRoom(t *testing.T) {
	registry := realtime.NewRegistry()
	c := newFakeClient("c")
	registry.Register(c)
	registry.Join(c, "room-1")

	const n = 100
	for i := 0; i < n; i++ {
		registry.Broadcast("room-1", "seq", i)
	}

	envs := c.envelopes(t)
	if len(envs) != n {
		t.Fatalf("got %d frames, want %d", len(envs), n)
	}
	for i, env := range envs {
		var got int
		if err := json.Unmarshal(env.Data, &got); err != nil {
			t.Fatalf("frame %d: %v", i, err)
		}
		if got != i {
			t.Fatalf("frame %d carries %d: broadcasts reordered within room", i, got)
		}
	}
}

func TestBroadcastExceptSkipsSender(t *testing.T) {
	registry := realtime.NewRegistry()
	sender := newFakeClient("sender")
	peer := newFakeClient("peer")
	registry.Register(sender)
	registry.Register(peer)
	registry.Join(sender, "meet-1")
	registry.Join(peer, "meet-1")

	registry.BroadcastExcept("meet-1", sender, "offer", map[string]string{"sdp": "x"})

	if got := sender.eventNames(t); len(got) != 0 {
		t.Errorf("sender received its own relayed frame: %v", got)
	}
	if got := peer.eventNames(t); len(got) != 1 || got[0] != "offer" {
		t.Errorf("peer got %v, want [offer]", got)
	}
}

func TestSlowClientOnlyMissesItsOwnFrames(t *testing.T) {
	registry := realtime.NewRegistry()
	slow := newFakeClient("slow")
	slow.fail = true
	healthy := newFakeClient("healthy")
	registry.Register(slow)
	registry.Register(healthy)
	registry.Join(slow, "room-1")
	registry.Join(healthy, "room-1")

	registry.Broadcast("room-1", "update", nil)

	if got := healthy.eventNames(t); len(got) != 1 {
		t.Errorf("healthy client got %d events, want 1", len(got))
	}
}

func TestBroadcastAllReachesRoomlessSessions(t *testing.T) {
	registry := realtime.NewRegistry()
	fresh := newFakeClient("fresh")
	registry.Register(fresh)

	registry.BroadcastAll("gdStatusUpdate", map[string]bool{"isActive": true})

	if got := fresh.eventNames(t); len(got) != 1 || got[0] != "gdStatusUpdate" {
		t.Errorf("roomless session got %v, want [gdStatusUpdate]", got)
	}
}

func TestConcurrentJoinLeaveBroadcast(t *testing.T) {
	registry := realtime.NewRegistry()
	done := make(chan bool)

	for i := 0; i < 8; i++ {
		go func(n int) {
			c := newFakeClient(fmt.Sprintf("c%d", n))
			registry.Register(c)
			for j := 0; j < 50; j++ {
				registry.Join(c, "busy")
				registry.Broadcast("busy", "tick", j)
				registry.Leave(c, "busy")
			}
			registry.Unregister(c)
			done <- true
		}(i)
	}

	for i := 0; i < 8; i++ {
		<-done
	}

	if size := registry.RoomSize("busy"); size != 0 {
		t.Errorf("room still has %d members after all sessions left", size)
	}
}
