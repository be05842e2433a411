package realtime

import (
	"context"
	"errors"
	"fmt"

	"community-app/internal/database"
	"community-app/internal/models"
)

// ErrUnauthorized is returned when a client tries to delete a message it did
// not send.
var ErrUnauthorized = errors.New("unauthorized")

// DeliveryService owns the sent -> delivered -> read transitions of a
// message and the ownership check for deletion. Status never regresses.
type DeliveryService struct {
	store       database.MessageRepository
	broadcaster Broadcaster
}

func NewDeliveryService(store database.MessageRepository, broadcaster Broadcaster) *DeliveryService {
	return &DeliveryService{
		store:       store,
		broadcaster: broadcaster,
	}
}

// MarkDelivered advances the message to delivered, but only from sent. Any
// other current status means a duplicate or late event and is ignored, so
// the sender never sees a second transition broadcast.
func (s *DeliveryService) MarkDelivered(ctx context.Context, messageID string) error {
	msg, err := s.store.GetMessageByID(ctx, messageID)
	if err != nil {
		return err
	}
	if msg.Status != models.StatusSent {
		return nil
	}

	if err := s.store.UpdateMessageStatus(ctx, messageID, models.StatusDelivered); err != nil {
		return fmt.Errorf("failed to mark delivered: %w", err)
	}

	s.broadcaster.Broadcast(msg.Sender, models.EventMessageStatusUpdate, models.StatusUpdate{
		MessageID: messageID,
		Status:    models.StatusDelivered,
	})
	return nil
}

// MarkRead advances the message to read from any non-read status, syncing
// the legacy boolean flag along the way.
func (s *DeliveryService) MarkRead(ctx context.Context, messageID string) error {
	msg, err := s.store.GetMessageByID(ctx, messageID)
	if err != nil {
		return err
	}
	if msg.Status == models.StatusRead {
		return nil
	}

	if err := s.store.UpdateMessageStatus(ctx, messageID, models.StatusRead); err != nil {
		return fmt.Errorf("failed to mark read: %w", err)
	}

	s.broadcaster.Broadcast(msg.Sender, models.EventMessageStatusUpdate, models.StatusUpdate{
		MessageID: messageID,
		Status:    models.StatusRead,
	})
	return nil
}

// Delete hard-deletes the message if the requester is its sender, then tells
// every room that could be showing it.
func (s *DeliveryService) Delete(ctx context.Context, messageID, requesterID string) error {
	msg, err := s.store.GetMessageByID(ctx, messageID)
	if err != nil {
		return err
	}
	if msg.Sender != requesterID {
		return ErrUnauthorized
	}

	if err := s.store.DeleteMessage(ctx, messageID); err != nil {
		return fmt.Errorf("failed to delete message: %w", err)
	}

	deleted := models.MessageDeleted{MessageID: messageID}
	switch {
	case msg.Recipient != "":
		s.broadcaster.Broadcast(msg.Recipient, models.EventMessageDeleted, deleted)
		s.broadcaster.Broadcast(msg.Sender, models.EventMessageDeleted, deleted)
	case msg.GroupKey != "":
		s.broadcaster.Broadcast(msg.GroupKey, models.EventMessageDeleted, deleted)
	case msg.AnnouncementID != "":
		s.broadcaster.Broadcast(msg.AnnouncementID, models.EventMessageDeleted, deleted)
	}
	return nil
}
