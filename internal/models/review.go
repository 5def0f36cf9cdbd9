package models

import (
	"math"
	"slices"
	"time"

	"gorm.io/datatypes"
)

// ReviewStatus is the moderation state of a review.
type ReviewStatus = string

const (
	ReviewStatusPending   ReviewStatus = "PENDING"
	ReviewStatusPublished ReviewStatus = "PUBLISHED"
	ReviewStatusApproved  ReviewStatus = "APPROVED"
	ReviewStatusRejected  ReviewStatus = "REJECTED"
)

// ReviewStatuses lists every status an admin may assign.
var ReviewStatuses = []ReviewStatus{
	ReviewStatusPending,
	ReviewStatusPublished,
	ReviewStatusApproved,
	ReviewStatusRejected,
}

// VisibleReviewStatuses are shown on public listings when no status filter is given.
var VisibleReviewStatuses = []ReviewStatus{ReviewStatusPublished, ReviewStatusApproved}

// IsValidReviewStatus reports whether s names a known review status.
func IsValidReviewStatus(s string) bool {
	return slices.Contains(ReviewStatuses, s)
}

const (
	MinRating = 1.0
	MaxRating = 10.0
)

// IsValidRating reports whether r lies in [1, 10] on a half-point step.
func IsValidRating(r float64) bool {
	if math.IsNaN(r) || r < MinRating || r > MaxRating {
		return false
	}
	return r*2 == math.Trunc(r*2)
}

// Review is one user's rating and write-up of a game.
// A user may hold at most one review per game (idx_reviews_user_game).
type Review struct {
	ID               uint                        `gorm:"primaryKey" json:"id"`
	UserID           uint                        `gorm:"not null;uniqueIndex:idx_reviews_user_game,priority:1" json:"userId"`
	GameID           uint                        `gorm:"not null;uniqueIndex:idx_reviews_user_game,priority:2;index" json:"gameId"`
	Rating           float64                     `gorm:"not null" json:"rating"`
	BodyMD           string                      `gorm:"type:text;not null" json:"bodyMd"`
	Pros             datatypes.JSONSlice[string] `json:"pros"`
	Cons             datatypes.JSONSlice[string] `json:"cons"`
	PlaytimeHours    *float64                    `json:"playtimeHours"`
	ContainsSpoilers bool                        `gorm:"default:false" json:"containsSpoilers"`
	Status           ReviewStatus                `gorm:"size:20;not null;default:'PUBLISHED';index" json:"status"`
	UpvotesCount     int                         `gorm:"not null;default:0" json:"upvotesCount"`
	DownvotesCount   int                         `gorm:"not null;default:0" json:"downvotesCount"`
	CreatedAt        time.Time                   `gorm:"index" json:"createdAt"`
	UpdatedAt        time.Time                   `json:"updatedAt"`

	User *UserSummary `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Game *GameSummary `gorm:"foreignKey:GameID" json:"game,omitempty"`
}
