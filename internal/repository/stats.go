package repository

import (
	"context"
	"time"

	"respawn/internal/models"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Entity names accepted by StatsRepository.Count.
const (
	EntityUsers    = "users"
	EntityGames    = "games"
	EntityReviews  = "reviews"
	EntityLists    = "lists"
	EntityComments = "comments"
	EntityVotes    = "votes"
)

// GameReviewStat carries the raw review aggregate for one game.
// Averages are derived by the caller so zero-review games stay at 0.
type GameReviewStat struct {
	ID          uint
	Title       string
	Slug        string
	ReviewCount int64
	RatingSum   float64
}

// UserReviewStat carries review and follower counts for one user.
type UserReviewStat struct {
	ID            uint
	Username      string
	ReviewCount   int64
	FollowerCount int64
}

// GameGenreStat is one game's genre list with its review count.
type GameGenreStat struct {
	ID          uint
	Genres      datatypes.JSONSlice[string]
	ReviewCount int64
}

// StatsRepository serves the read-only aggregate queries behind analytics.
type StatsRepository interface {
	Count(ctx context.Context, entity string, since *time.Time) (int64, error)
	TopGames(ctx context.Context, limit int) ([]GameReviewStat, error)
	TopUsers(ctx context.Context, limit int) ([]UserReviewStat, error)
	GameGenres(ctx context.Context) ([]GameGenreStat, error)
}

type statsRepository struct {
	db *gorm.DB
}

// NewStatsRepository creates a new StatsRepository
func NewStatsRepository(db *gorm.DB) StatsRepository {
	return &statsRepository{db: db}
}

var statsModels = map[string]any{
	EntityUsers:    &models.User{},
	EntityGames:    &models.Game{},
	EntityReviews:  &models.Review{},
	EntityLists:    &models.List{},
	EntityComments: &models.Comment{},
	EntityVotes:    &models.Vote{},
}

// Count returns the row count of entity, restricted to rows created at or
// after since when it is set.
func (r *statsRepository) Count(ctx context.Context, entity string, since *time.Time) (int64, error) {
	model, ok := statsModels[entity]
	if !ok {
		return 0, models.NewValidationError("unknown entity " + entity)
	}
	q := readDB(r.db).WithContext(ctx).Model(model)
	if since != nil {
		q = q.Where("created_at >= ?", *since)
	}
	var count int64
	if err := q.Count(&count).Error; err != nil {
		return 0, models.NewInternalError(err)
	}
	return count, nil
}

func (r *statsRepository) TopGames(ctx context.Context, limit int) ([]GameReviewStat, error) {
	var rows []GameReviewStat
	err := readDB(r.db).WithContext(ctx).
		Table("games").
		Select("games.id, games.title, games.slug, " +
			"COUNT(reviews.id) AS review_count, COALESCE(SUM(reviews.rating), 0) AS rating_sum").
		Joins("LEFT JOIN reviews ON reviews.game_id = games.id").
		Group("games.id, games.title, games.slug").
		Order("review_count DESC").Order("games.id ASC").
		Limit(limit).
		Scan(&rows).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return rows, nil
}

func (r *statsRepository) TopUsers(ctx context.Context, limit int) ([]UserReviewStat, error) {
	var rows []UserReviewStat
	err := readDB(r.db).WithContext(ctx).
		Table("users").
		Select("users.id, users.username, " +
			"(SELECT COUNT(*) FROM reviews WHERE reviews.user_id = users.id) AS review_count, " +
			"(SELECT COUNT(*) FROM follows WHERE follows.followee_id = users.id) AS follower_count").
		Order("review_count DESC").Order("users.id ASC").
		Limit(limit).
		Scan(&rows).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return rows, nil
}

// GameGenres loads every game's genres and review count for the in-memory genre fold.
func (r *statsRepository) GameGenres(ctx context.Context) ([]GameGenreStat, error) {
	var rows []GameGenreStat
	err := readDB(r.db).WithContext(ctx).
		Table("games").
		Select("games.id, games.genres, " +
			"(SELECT COUNT(*) FROM reviews WHERE reviews.game_id = games.id) AS review_count").
		Order("games.id ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return rows, nil
}
