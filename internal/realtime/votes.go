package realtime

import (
	"context"
	"fmt"
	"sync"

	"community-app/internal/database"
	"community-app/internal/models"
	"community-app/pkg/logger"
)

// VoteEngine applies poll votes with toggle semantics: a first vote selects
// an option, voting the same option again deselects it, voting a different
// option moves the vote. Option counts always equal the number of vote
// records referencing them.
type VoteEngine struct {
	store       database.AnnouncementRepository
	broadcaster Broadcaster

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewVoteEngine(store database.AnnouncementRepository, broadcaster Broadcaster) *VoteEngine {
	return &VoteEngine{
		store:       store,
		broadcaster: broadcaster,
		locks:       make(map[string]*sync.Mutex),
	}
}

// lockFor serializes votes per announcement. Votes on different
// announcements never contend.
func (e *VoteEngine) lockFor(announcementID string) *sync.Mutex {
	e.mu.Lock()
	defer e.mu.Unlock()
	lock, ok := e.locks[announcementID]
	if !ok {
		lock = &sync.Mutex{}
		e.locks[announcementID] = lock
	}
	return lock
}

// Vote records, moves, or withdraws the user's vote and returns the updated
// poll. The poll is persisted in a single write; the update broadcast to the
// announcement room is best-effort and never fails the vote.
func (e *VoteEngine) Vote(ctx context.Context, announcementID, userID string, optionIndex int) (*models.Poll, error) {
	lock := e.lockFor(announcementID)
	lock.Lock()
	defer lock.Unlock()

	announcement, err := e.store.GetAnnouncementByID(ctx, announcementID)
	if err != nil {
		return nil, err
	}
	poll := announcement.Poll
	if poll == nil {
		return nil, database.ErrNotFound
	}
	if optionIndex < 0 || optionIndex >= len(poll.Options) {
		return nil, fmt.Errorf("option index %d out of range", optionIndex)
	}

	existing, hasVoted := poll.VoteFor(userID)
	switch {
	case !hasVoted:
		// New vote.
		poll.Options[optionIndex].Votes++
		poll.UserVotes = append(poll.UserVotes, models.PollVote{UserID: userID, OptionIndex: optionIndex})

	case existing.OptionIndex == optionIndex:
		// Tapping the selected option again withdraws the vote.
		decrementVotes(poll, optionIndex)
		removeVote(poll, userID)

	default:
		// Vote moved to a different option.
		decrementVotes(poll, existing.OptionIndex)
		poll.Options[optionIndex].Votes++
		updateVote(poll, userID, optionIndex)
	}

	if err := e.store.SavePoll(ctx, announcementID, poll); err != nil {
		return nil, fmt.Errorf("failed to persist vote: %w", err)
	}

	logger.Debug("Poll %s: user %s now has %d vote records", announcementID, userID, len(poll.UserVotes))
	e.broadcaster.Broadcast(announcementID, models.EventPollUpdated, models.PollUpdate{
		AnnouncementID: announcementID,
		Poll:           poll,
	})
	return poll, nil
}

// decrementVotes floors at zero so a duplicate or racing decrement can never
// drive a count negative.
func decrementVotes(poll *models.Poll, optionIndex int) {
	if poll.Options[optionIndex].Votes > 0 {
		poll.Options[optionIndex].Votes--
	}
}

func removeVote(poll *models.Poll, userID string) {
	for i, v := range poll.UserVotes {
		if v.UserID == userID {
			poll.UserVotes = append(poll.UserVotes[:i], poll.UserVotes[i+1:]...)
			return
		}
	}
}

func updateVote(poll *models.Poll, userID string, optionIndex int) {
	for i, v := range poll.UserVotes {
		if v.UserID == userID {
			poll.UserVotes[i].OptionIndex = optionIndex
			return
		}
	}
}
