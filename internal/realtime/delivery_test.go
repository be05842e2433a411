package realtime_test

import (
	"context"
	"errors"
	"testing"

	"community-app/internal/database"
	"community-app/internal/models"
	"community-app/internal/realtime"
)

func seedMessage(t *testing.T, store *fakeMessageStore, msg models.Message) string {
	t.Helper()
	if err := store.SaveMessage(context.Background(), &msg); err != nil {
		t.Fatalf("seed message: %v", err)
	}
	return msg.ID
}

func TestMarkDeliveredFromSent(t *testing.T) {
	store := newFakeMessageStore()
	broadcaster := &fakeBroadcaster{}
	delivery := realtime.NewDeliveryService(store, broadcaster)
	ctx := context.Background()

	id := seedMessage(t, store, models.Message{Sender: "u1", Recipient: "u2", Content: "hi"})

	if err := delivery.MarkDelivered(ctx, id); err != nil {
		t.Fatalf("MarkDelivered: %v", err)
	}

	msg, _ := store.GetMessageByID(ctx, id)
	if msg.Status != models.StatusDelivered {
		t.Errorf("status = %s, want delivered", msg.Status)
	}
	if broadcaster.callCount() != 1 {
		t.Errorf("broadcast count = %d, want 1", broadcaster.callCount())
	}
	if broadcaster.calls[0].room != "u1" {
		t.Errorf("status update went to room %s, want sender room u1", broadcaster.calls[0].room)
	}
}

func TestMarkDeliveredIsIdempotent(t *testing.T) {
	store := newFakeMessageStore()
	broadcaster := &fakeBroadcaster{}
	delivery := realtime.NewDeliveryService(store, broadcaster)
	ctx := context.Background()

	id := seedMessage(t, store, models.Message{Sender: "u1", Recipient: "u2"})

	delivery.MarkDelivered(ctx, id)
	if err := delivery.MarkDelivered(ctx, id); err != nil {
		t.Fatalf("second MarkDelivered: %v", err)
	}

	if broadcaster.callCount() != 1 {
		t.Errorf("duplicate transition broadcast: %d calls, want 1", broadcaster.callCount())
	}
}

func TestStatusNeverRegresses(t *testing.T) {
	store := newFakeMessageStore()
	delivery := realtime.NewDeliveryService(store, &fakeBroadcaster{})
	ctx := context.Background()

	id := seedMessage(t, store, models.Message{Sender: "u1", Recipient: "u2"})

	// Read first, then a late delivered event arrives.
	if err := delivery.MarkRead(ctx, id); err != nil {
		t.Fatalf("MarkRead: %v", err)
	}
	if err := delivery.MarkDelivered(ctx, id); err != nil {
		t.Fatalf("late MarkDelivered: %v", err)
	}

	msg, _ := store.GetMessageByID(ctx, id)
	if msg.Status != models.StatusRead {
		t.Errorf("status regressed to %s after late delivered event", msg.Status)
	}
}

func TestMarkReadSetsLegacyFlag(t *testing.T) {
	store := newFakeMessageStore()
	delivery := realtime.NewDeliveryService(store, &fakeBroadcaster{})
	ctx := context.Background()

	id := seedMessage(t, store, models.Message{Sender: "u1", Recipient: "u2"})

	if err := delivery.MarkRead(ctx, id); err != nil {
		t.Fatalf("MarkRead: %v", err)
	}

	msg, _ := store.GetMessageByID(ctx, id)
	if !msg.Read {
		t.Error("legacy read flag not set")
	}
	if msg.Status != models.StatusRead {
		t.Errorf("status = %s, want read", msg.Status)
	}
}

func TestMarkReadSkipsAlreadyRead(t *testing.T) {
	store := newFakeMessageStore()
	broadcaster := &fakeBroadcaster{}
	delivery := realtime.NewDeliveryService(store, broadcaster)
	ctx := context.Background()

	id := seedMessage(t, store, models.Message{Sender: "u1", Recipient: "u2"})

	delivery.MarkRead(ctx, id)
	delivery.MarkRead(ctx, id)

	if broadcaster.callCount() != 1 {
		t.Errorf("already-read message rebroadcast: %d calls, want 1", broadcaster.callCount())
	}
}

func TestMarkDeliveredMissingMessage(t *testing.T) {
	delivery := realtime.NewDeliveryService(newFakeMessageStore(), &fakeBroadcaster{})

	err := delivery.MarkDelivered(context.Background(), "no-such-id")
	if !errors.Is(err, database.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestDeleteRequiresOwnership(t *testing.T) {
	store := newFakeMessageStore()
	broadcaster := &fakeBroadcaster{}
	delivery := realtime.NewDeliveryService(store, broadcaster)
	ctx := context.Background()

	id := seedMessage(t, store, models.Message{Sender: "u1", Recipient: "u2", Content: "mine"})

	err := delivery.Delete(ctx, id, "u2")
	if !errors.Is(err, realtime.ErrUnauthorized) {
		t.Fatalf("delete by non-owner: err = %v, want ErrUnauthorized", err)
	}

	// The message must still be retrievable.
	if _, err := store.GetMessageByID(ctx, id); err != nil {
		t.Error("message was deleted despite failed authorization")
	}
	if broadcaster.callCount() != 0 {
		t.Errorf("unauthorized delete broadcast %d events", broadcaster.callCount())
	}
}

func TestDeleteDirectMessageFanout(t *testing.T) {
	store := newFakeMessageStore()
	broadcaster := &fakeBroadcaster{}
	delivery := realtime.NewDeliveryService(store, broadcaster)
	ctx := context.Background()

	id := seedMessage(t, store, models.Message{Sender: "u1", Recipient: "u2"})

	if err := delivery.Delete(ctx, id, "u1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	if _, err := store.GetMessageByID(ctx, id); !errors.Is(err, database.ErrNotFound) {
		t.Error("message still present after delete")
	}
	rooms := map[string]bool{}
	for _, call := range broadcaster.calls {
		if call.event != models.EventMessageDeleted {
			t.Errorf("unexpected event %s", call.event)
		}
		rooms[call.room] = true
	}
	if !rooms["u1"] || !rooms["u2"] {
		t.Errorf("deletion fan-out reached rooms %v, want both u1 and u2", rooms)
	}
}

func TestDeleteGroupMessageFanout(t *testing.T) {
	store := newFakeMessageStore()
	broadcaster := &fakeBroadcaster{}
	delivery := realtime.NewDeliveryService(store, broadcaster)
	ctx := context.Background()

	id := seedMessage(t, store, models.Message{Sender: "u1", GroupKey: "finance-gd"})

	if err := delivery.Delete(ctx, id, "u1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	if broadcaster.callCount() != 1 || broadcaster.calls[0].room != "finance-gd" {
		t.Errorf("group delete fan-out = %+v, want single broadcast to finance-gd", broadcaster.calls)
	}
}
