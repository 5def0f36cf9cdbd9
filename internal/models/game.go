package models

import (
	"time"

	"gorm.io/datatypes"
)

// Game is a catalog entry that users review and collect into lists.
type Game struct {
	ID            uint                        `gorm:"primaryKey" json:"id"`
	Slug          string                      `gorm:"size:200;uniqueIndex;not null" json:"slug"`
	Title         string                      `gorm:"size:200;not null" json:"title"`
	DescriptionMD string                      `gorm:"type:text" json:"descriptionMd"`
	Developer     string                      `json:"developer"`
	Publisher     string                      `json:"publisher"`
	Genres        datatypes.JSONSlice[string] `json:"genres"`
	Tags          datatypes.JSONSlice[string] `json:"tags"`
	Platforms     datatypes.JSONSlice[string] `json:"platforms"`
	CoverURL      string                      `json:"coverUrl"`
	TrailerURL    string                      `json:"trailerUrl"`
	ESRBRating    string                      `gorm:"size:16" json:"esrbRating"`
	CriticScore   *int                        `json:"criticScore"`
	ReleaseDate   *time.Time                  `json:"releaseDate"`
	CreatedAt     time.Time                   `gorm:"index" json:"createdAt"`
	UpdatedAt     time.Time                   `json:"updatedAt"`
}

// GameSummary is the compact game shape preloaded into reviews and list items.
type GameSummary struct {
	ID       uint   `gorm:"primaryKey" json:"id"`
	Title    string `json:"title"`
	Slug     string `json:"slug"`
	CoverURL string `json:"coverUrl"`
}

// TableName maps GameSummary onto the games table.
func (GameSummary) TableName() string {
	return "games"
}

// GameWithStats is a game annotated with review aggregates computed at query time.
type GameWithStats struct {
	Game
	ReviewCount   int64   `gorm:"->" json:"reviewCount"`
	AverageRating float64 `gorm:"->" json:"averageRating"`
}
