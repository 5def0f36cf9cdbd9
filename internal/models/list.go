package models

import "time"

// ListVisibility controls who may read a list.
type ListVisibility = string

const (
	ListVisibilityPrivate  ListVisibility = "PRIVATE"
	ListVisibilityPublic   ListVisibility = "PUBLIC"
	ListVisibilityUnlisted ListVisibility = "UNLISTED"
)

// List is a user-curated, ordered collection of games.
type List struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	UserID      uint           `gorm:"not null;index" json:"userId"`
	Title       string         `gorm:"size:100;not null" json:"title"`
	Description string         `gorm:"size:500" json:"description"`
	Visibility  ListVisibility `gorm:"size:16;not null;default:'PRIVATE';index" json:"visibility"`
	CreatedAt   time.Time      `gorm:"index" json:"createdAt"`
	UpdatedAt   time.Time      `json:"updatedAt"`

	User      *UserSummary `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Items     []ListItem   `gorm:"foreignKey:ListID" json:"items,omitempty"`
	ItemCount int64        `gorm:"->;-:migration" json:"itemCount"`
}

// ListItem places one game at a position inside a list.
type ListItem struct {
	ID       uint      `gorm:"primaryKey" json:"id"`
	ListID   uint      `gorm:"not null;uniqueIndex:idx_list_items_list_game,priority:1" json:"listId"`
	GameID   uint      `gorm:"not null;uniqueIndex:idx_list_items_list_game,priority:2;index" json:"gameId"`
	Position int       `gorm:"not null;default:0" json:"position"`
	Note     string    `gorm:"size:500" json:"note"`
	AddedAt  time.Time `gorm:"autoCreateTime" json:"addedAt"`

	Game *GameSummary `gorm:"foreignKey:GameID" json:"game,omitempty"`
}
