package services

import (
	"context"
	"crypto/rand"
	"fmt"

	"community-app/internal/database"
	"community-app/internal/models"
)

type MeetingService struct {
	db database.MeetingRepository
}

func NewMeetingService(db database.MeetingRepository) *MeetingService {
	return &MeetingService{db: db}
}

func (s *MeetingService) Schedule(ctx context.Context, req *models.ScheduleMeetingRequest, hostID string) (*models.Meeting, error) {
	if req.Title == "" {
		return nil, fmt.Errorf("meeting title is required")
	}
	if req.ScheduledTime.IsZero() {
		return nil, fmt.Errorf("scheduled time is required")
	}

	meeting := &models.Meeting{
		Title:         req.Title,
		HostID:        hostID,
		ScheduledTime: req.ScheduledTime,
		Code:          generateMeetingCode(),
	}
	if err := s.db.CreateMeeting(ctx, meeting); err != nil {
		return nil, err
	}
	return meeting, nil
}

func (s *MeetingService) List(ctx context.Context) ([]*models.Meeting, error) {
	return s.db.ListMeetings(ctx)
}

func (s *MeetingService) GetByCode(ctx context.Context, code string) (*models.Meeting, error) {
	return s.db.GetMeetingByCode(ctx, code)
}

const meetingCodeAlphabet = "abcdefghjkmnpqrstuvwxyz23456789"

// generateMeetingCode produces a short join code in the xxx-xxxx shape
// people can read out loud.
func generateMeetingCode() string {
	buf := make([]byte, 7)
	rand.Read(buf)
	for i, b := range buf {
		buf[i] = meetingCodeAlphabet[int(b)%len(meetingCodeAlphabet)]
	}
	return string(buf[:3]) + "-" + string(buf[3:])
}
