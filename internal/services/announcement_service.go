package services

import (
	"context"
	"crypto/rand"
	"fmt"

	"community-app/internal/database"
	"community-app/internal/models"
	"community-app/internal/realtime"
)

// AnnouncementService is a thin collaborator over the announcement store.
// It receives the broadcaster at construction; nothing here reaches for a
// process-wide handle.
type AnnouncementService struct {
	db          database.AnnouncementRepository
	broadcaster realtime.Broadcaster
}

func NewAnnouncementService(db database.AnnouncementRepository, broadcaster realtime.Broadcaster) *AnnouncementService {
	return &AnnouncementService{db: db, broadcaster: broadcaster}
}

func (s *AnnouncementService) Create(ctx context.Context, req *models.CreateAnnouncementRequest, creatorID string) (*models.Announcement, error) {
	if req.Title == "" || req.Content == "" {
		return nil, fmt.Errorf("title and content are required")
	}

	announcement := &models.Announcement{
		Title:     req.Title,
		Content:   req.Content,
		LinkCode:  generateLinkCode(),
		FileURL:   req.FileURL,
		FileType:  req.FileType,
		FileName:  req.FileName,
		CreatedBy: creatorID,
	}

	if req.Question != "" {
		if len(req.Options) < 2 {
			return nil, fmt.Errorf("a poll needs at least two options")
		}
		poll := &models.Poll{
			Question:  req.Question,
			Options:   make([]models.PollOption, len(req.Options)),
			UserVotes: []models.PollVote{},
		}
		for i, text := range req.Options {
			poll.Options[i] = models.PollOption{Text: text}
		}
		announcement.Poll = poll
	}

	if err := s.db.CreateAnnouncement(ctx, announcement); err != nil {
		return nil, err
	}

	s.broadcaster.BroadcastAll(models.EventNewAnnouncement, announcement)
	return announcement, nil
}

func (s *AnnouncementService) List(ctx context.Context) ([]*models.Announcement, error) {
	return s.db.ListAnnouncements(ctx)
}

func (s *AnnouncementService) Get(ctx context.Context, id string) (*models.Announcement, error) {
	return s.db.GetAnnouncementByID(ctx, id)
}

func (s *AnnouncementService) Delete(ctx context.Context, id string, requester *models.User) error {
	announcement, err := s.db.GetAnnouncementByID(ctx, id)
	if err != nil {
		return err
	}

	if announcement.CreatedBy != requester.ID && requester.Role != "admin" {
		return realtime.ErrUnauthorized
	}

	if err := s.db.DeleteAnnouncement(ctx, id); err != nil {
		return err
	}

	s.broadcaster.BroadcastAll(models.EventDeleteAnnouncement, id)
	return nil
}

const linkCodeAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"

func generateLinkCode() string {
	buf := make([]byte, 8)
	rand.Read(buf)
	for i, b := range buf {
		buf[i] = linkCodeAlphabet[int(b)%len(linkCodeAlphabet)]
	}
	return string(buf)
}
