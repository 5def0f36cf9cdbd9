package repository

import (
	"context"

	"respawn/internal/cache"
	"respawn/internal/models"

	"gorm.io/gorm"
)

// FollowRepository persists the follower graph.
type FollowRepository interface {
	Create(ctx context.Context, followerID, followeeID uint) error
	Delete(ctx context.Context, followerID, followeeID uint) error
	Exists(ctx context.Context, followerID, followeeID uint) (bool, error)
	Followers(ctx context.Context, userID uint, limit, offset int) ([]models.UserSummary, int64, error)
	Following(ctx context.Context, userID uint, limit, offset int) ([]models.UserSummary, int64, error)
}

type followRepository struct {
	db *gorm.DB
}

// NewFollowRepository creates a new FollowRepository
func NewFollowRepository(db *gorm.DB) FollowRepository {
	return &followRepository{db: db}
}

// Create inserts the pair. The composite primary key turns a repeat into CONFLICT.
func (r *followRepository) Create(ctx context.Context, followerID, followeeID uint) error {
	follow := &models.Follow{FollowerID: followerID, FolloweeID: followeeID}
	if err := r.db.WithContext(ctx).Omit("Follower", "Followee").Create(follow).Error; err != nil {
		return mapWriteError(err, "You are already following this user")
	}
	cache.InvalidateAggregates(ctx)
	return nil
}

func (r *followRepository) Delete(ctx context.Context, followerID, followeeID uint) error {
	res := r.db.WithContext(ctx).
		Where("follower_id = ? AND followee_id = ?", followerID, followeeID).
		Delete(&models.Follow{})
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("Follow", followeeID)
	}
	cache.InvalidateAggregates(ctx)
	return nil
}

func (r *followRepository) Exists(ctx context.Context, followerID, followeeID uint) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Follow{}).
		Where("follower_id = ? AND followee_id = ?", followerID, followeeID).
		Count(&count).Error; err != nil {
		return false, models.NewInternalError(err)
	}
	return count > 0, nil
}

func (r *followRepository) Followers(ctx context.Context, userID uint, limit, offset int) ([]models.UserSummary, int64, error) {
	return r.page(ctx, "follows.follower_id", "follows.followee_id = ?", userID, limit, offset)
}

func (r *followRepository) Following(ctx context.Context, userID uint, limit, offset int) ([]models.UserSummary, int64, error) {
	return r.page(ctx, "follows.followee_id", "follows.follower_id = ?", userID, limit, offset)
}

// page joins users on joinCol, filtered by where, newest follow first.
func (r *followRepository) page(ctx context.Context, joinCol, where string, userID uint, limit, offset int) ([]models.UserSummary, int64, error) {
	limit, offset = clampPage(limit, offset)

	q := readDB(r.db).WithContext(ctx).Table("users").
		Joins("JOIN follows ON users.id = "+joinCol).
		Where(where, userID)

	var total int64
	if err := q.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, models.NewInternalError(err)
	}

	var users []models.UserSummary
	if err := q.Select("users.id, users.username, users.avatar_url").
		Order("follows.created_at DESC").Order("users.id ASC").
		Limit(limit).Offset(offset).
		Find(&users).Error; err != nil {
		return nil, 0, models.NewInternalError(err)
	}
	return users, total, nil
}
