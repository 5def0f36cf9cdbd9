package models

import "time"

// Follow records that FollowerID follows FolloweeID.
type Follow struct {
	FollowerID uint      `gorm:"primaryKey;autoIncrement:false" json:"followerId"`
	FolloweeID uint      `gorm:"primaryKey;autoIncrement:false;index" json:"followeeId"`
	CreatedAt  time.Time `json:"createdAt"`

	Follower *UserSummary `gorm:"foreignKey:FollowerID" json:"follower,omitempty"`
	Followee *UserSummary `gorm:"foreignKey:FolloweeID" json:"followee,omitempty"`
}
