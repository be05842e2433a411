package database

import (
	"context"
	"errors"

	"community-app/internal/models"
)

// ErrNotFound is returned when a looked-up entity does not exist.
var ErrNotFound = errors.New("not found")

type UserRepository interface {
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	CreateUser(ctx context.Context, req *models.RegisterRequest) (*models.User, error)
	GetAdminID(ctx context.Context) (string, error)
}

type MessageRepository interface {
	SaveMessage(ctx context.Context, msg *models.Message) error
	GetMessageByID(ctx context.Context, id string) (*models.Message, error)
	UpdateMessageStatus(ctx context.Context, id string, status models.MessageStatus) error
	DeleteMessage(ctx context.Context, id string) error
	ListDirectMessages(ctx context.Context, userA, userB string, limit int) ([]*models.Message, error)
	ListGroupMessages(ctx context.Context, groupKey string, limit int) ([]*models.Message, error)
}

type AnnouncementRepository interface {
	CreateAnnouncement(ctx context.Context, a *models.Announcement) error
	GetAnnouncementByID(ctx context.Context, id string) (*models.Announcement, error)
	ListAnnouncements(ctx context.Context) ([]*models.Announcement, error)
	DeleteAnnouncement(ctx context.Context, id string) error
	// SavePoll replaces the announcement's poll document in a single write.
	SavePoll(ctx context.Context, announcementID string, poll *models.Poll) error
}

type MeetingRepository interface {
	CreateMeeting(ctx context.Context, m *models.Meeting) error
	GetMeetingByCode(ctx context.Context, code string) (*models.Meeting, error)
	ListMeetings(ctx context.Context) ([]*models.Meeting, error)
}

type Database interface {
	UserRepository
	MessageRepository
	AnnouncementRepository
	MeetingRepository
	Close() error
}
