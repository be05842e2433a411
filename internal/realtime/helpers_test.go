package realtime_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"community-app/internal/database"
	"community-app/internal/models"
)

// fakeClient records every frame delivered to it.
type fakeClient struct {
	id   string
	fail bool

	mu     sync.Mutex
	frames [][]byte
}

func newFakeClient(id string) *fakeClient {
	return &fakeClient{id: id}
}

func (c *fakeClient) SessionID() string { return c.id }

func (c *fakeClient) TrySend(data []byte) error {
	if c.fail {
		return errors.New("send buffer full")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.frames = append(c.frames, data)
	return nil
}

func (c *fakeClient) envelopes(t *testing.T) []models.Envelope {
	t.Helper()
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]models.Envelope, 0, len(c.frames))
	for _, frame := range c.frames {
		var env models.Envelope
		if err := json.Unmarshal(frame, &env); err != nil {
			t.Fatalf("bad frame %q: %v", frame, err)
		}
		out = append(out, env)
	}
	return out
}

func (c *fakeClient) eventNames(t *testing.T) []string {
	t.Helper()
	envs := c.envelopes(t)
	names := make([]string, len(envs))
	for i, env := range envs {
		names[i] = env.Event
	}
	return names
}

// fakeBroadcaster records broadcasts for engine tests that do not need a
// real registry.
type fakeBroadcaster struct {
	mu    sync.Mutex
	calls []broadcastCall
}

type broadcastCall struct {
	room  string
	event string
	data  interface{}
}

func (b *fakeBroadcaster) Broadcast(roomKey, event string, data interface{}) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls = append(b.calls, broadcastCall{room: roomKey, event: event, data: data})
}

func (b *fakeBroadcaster) BroadcastAll(event string, data interface{}) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls = append(b.calls, broadcastCall{event: event, data: data})
}

func (b *fakeBroadcaster) callCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.calls)
}

// fakeMessageStore is an in-memory database.MessageRepository.
type fakeMessageStore struct {
	mu       sync.Mutex
	seq      int
	messages map[string]*models.Message
	saveErr  error
}

func newFakeMessageStore() *fakeMessageStore {
	return &fakeMessageStore{messages: make(map[string]*models.Message)}
}

func (s *fakeMessageStore) SaveMessage(_ context.Context, msg *models.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saveErr != nil {
		return s.saveErr
	}
	if msg.ID == "" {
		s.seq++
		msg.ID = fmt.Sprintf("msg-%d", s.seq)
	}
	if msg.Status == "" {
		msg.Status = models.StatusSent
	}
	msg.CreatedAt = time.Now()
	stored := *msg
	s.messages[msg.ID] = &stored
	return nil
}

func (s *fakeMessageStore) GetMessageByID(_ context.Context, id string) (*models.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	msg, ok := s.messages[id]
	if !ok {
		return nil, database.ErrNotFound
	}
	copy := *msg
	return &copy, nil
}

func (s *fakeMessageStore) UpdateMessageStatus(_ context.Context, id string, status models.MessageStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	msg, ok := s.messages[id]
	if !ok {
		return database.ErrNotFound
	}
	msg.Status = status
	if status == models.StatusRead {
		msg.Read = true
	}
	return nil
}

func (s *fakeMessageStore) DeleteMessage(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.messages[id]; !ok {
		return database.ErrNotFound
	}
	delete(s.messages, id)
	return nil
}

func (s *fakeMessageStore) ListDirectMessages(_ context.Context, userA, userB string, limit int) ([]*models.Message, error) {
	return nil, nil
}

func (s *fakeMessageStore) ListGroupMessages(_ context.Context, groupKey string, limit int) ([]*models.Message, error) {
	return nil, nil
}

func (s *fakeMessageStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.messages)
}

// fakeAnnouncementStore is an in-memory database.AnnouncementRepository.
type fakeAnnouncementStore struct {
	mu            sync.Mutex
	announcements map[string]*models.Announcement
	pollSaves     int
}

func newFakeAnnouncementStore() *fakeAnnouncementStore {
	return &fakeAnnouncementStore{announcements: make(map[string]*models.Announcement)}
}

func (s *fakeAnnouncementStore) CreateAnnouncement(_ context.Context, a *models.Announcement) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.announcements[a.ID] = a
	return nil
}

func (s *fakeAnnouncementStore) GetAnnouncementByID(_ context.Context, id string) (*models.Announcement, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.announcements[id]
	if !ok {
		return nil, database.ErrNotFound
	}
	copy := *a
	if a.Poll != nil {
		copy.Poll = clonePoll(a.Poll)
	}
	return &copy, nil
}

func (s *fakeAnnouncementStore) ListAnnouncements(_ context.Context) ([]*models.Announcement, error) {
	return nil, nil
}

func (s *fakeAnnouncementStore) DeleteAnnouncement(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.announcements[id]; !ok {
		return database.ErrNotFound
	}
	delete(s.announcements, id)
	return nil
}

func (s *fakeAnnouncementStore) SavePoll(_ context.Context, announcementID string, poll *models.Poll) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.announcements[announcementID]
	if !ok {
		return database.ErrNotFound
	}
	a.Poll = clonePoll(poll)
	s.pollSaves++
	return nil
}

func clonePoll(poll *models.Poll) *models.Poll {
	out := &models.Poll{Question: poll.Question}
	out.Options = append([]models.PollOption(nil), poll.Options...)
	out.UserVotes = append([]models.PollVote(nil), poll.UserVotes...)
	return out
}
