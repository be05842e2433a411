package models

import "time"

type PollOption struct {
	Text  string `json:"text"`
	Votes int    `json:"votes"`
}

// PollVote links one user to their currently chosen option. At most one
// record exists per user; removing it is how a vote is deselected.
type PollVote struct {
	UserID      string `json:"userId"`
	OptionIndex int    `json:"optionIndex"`
}

type Poll struct {
	Question  string       `json:"question"`
	Options   []PollOption `json:"options"`
	UserVotes []PollVote   `json:"userVotes"`
}

// VoteFor returns the user's current vote record, if any.
func (p *Poll) VoteFor(userID string) (PollVote, bool) {
	for _, v := range p.UserVotes {
		if v.UserID == userID {
			return v, true
		}
	}
	return PollVote{}, false
}

type Announcement struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	LinkCode  string    `json:"linkCode,omitempty"`
	FileURL   string    `json:"fileUrl,omitempty"`
	FileType  string    `json:"fileType,omitempty"`
	FileName  string    `json:"fileName,omitempty"`
	Poll      *Poll     `json:"poll,omitempty"`
	CreatedBy string    `json:"createdBy"`
	CreatedAt time.Time `json:"createdAt"`
}

type CreateAnnouncementRequest struct {
	Title    string   `json:"title"`
	Content  string   `json:"content"`
	FileURL  string   `json:"fileUrl,omitempty"`
	FileType string   `json:"fileType,omitempty"`
	FileName string   `json:"fileName,omitempty"`
	Question string   `json:"question,omitempty"`
	Options  []string `json:"options,omitempty"`
}

type VoteRequest struct {
	OptionIndex int `json:"optionIndex"`
}
