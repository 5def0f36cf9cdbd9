package models

import "time"

// VoteTargetType names the kind of content a vote applies to.
type VoteTargetType = string

const (
	VoteTargetReview  VoteTargetType = "REVIEW"
	VoteTargetComment VoteTargetType = "COMMENT"
)

const (
	VoteUp   = 1
	VoteDown = -1
)

// Vote is a single up or down vote. A user holds at most one vote per target.
type Vote struct {
	ID         uint           `gorm:"primaryKey" json:"id"`
	UserID     uint           `gorm:"not null;uniqueIndex:idx_votes_user_target,priority:1" json:"userId"`
	TargetType VoteTargetType `gorm:"size:16;not null;uniqueIndex:idx_votes_user_target,priority:2;index:idx_votes_target,priority:1" json:"targetType"`
	TargetID   uint           `gorm:"not null;uniqueIndex:idx_votes_user_target,priority:3;index:idx_votes_target,priority:2" json:"targetId"`
	Value      int            `gorm:"not null" json:"value"`
	CreatedAt  time.Time      `gorm:"index" json:"createdAt"`
	UpdatedAt  time.Time      `json:"updatedAt"`
}

// VoteTally holds up and down counts for one target.
type VoteTally struct {
	Upvotes   int `json:"upvotes"`
	Downvotes int `json:"downvotes"`
}
