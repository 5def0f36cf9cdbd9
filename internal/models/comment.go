package models

import "time"

const (
	CommentStatusPublished = "PUBLISHED"
	CommentStatusHidden    = "HIDDEN"
)

// Comment is a reply left on a review.
type Comment struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	ReviewID  uint      `gorm:"not null;index" json:"reviewId"`
	UserID    uint      `gorm:"not null;index" json:"userId"`
	BodyMD    string    `gorm:"type:text;not null" json:"bodyMd"`
	Status    string    `gorm:"size:20;not null;default:'PUBLISHED'" json:"status"`
	CreatedAt time.Time `gorm:"index" json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	User *UserSummary `gorm:"foreignKey:UserID" json:"user,omitempty"`
}
