package repository

import (
	"context"

	"respawn/internal/cache"
	"respawn/internal/middleware"
	"respawn/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ReviewFilter narrows review listings. An empty Statuses means every status.
type ReviewFilter struct {
	GameID   uint
	UserID   uint
	Statuses []string
}

// ReviewRepository defines persistence operations for reviews.
type ReviewRepository interface {
	List(ctx context.Context, filter ReviewFilter, limit, offset int) ([]models.Review, int64, error)
	GetByID(ctx context.Context, id uint) (*models.Review, error)
	CountByUser(ctx context.Context, userID uint) (int64, error)
	Create(ctx context.Context, review *models.Review) error
	Update(ctx context.Context, review *models.Review) error
	UpdateStatus(ctx context.Context, id uint, status string) error
	Delete(ctx context.Context, id uint) error
}

type reviewRepository struct {
	db *gorm.DB
}

// NewReviewRepository creates a new ReviewRepository
func NewReviewRepository(db *gorm.DB) ReviewRepository {
	return &reviewRepository{db: db}
}

func withReviewRelations(db *gorm.DB) *gorm.DB {
	return db.Preload("User").Preload("Game")
}

func (r *reviewRepository) List(ctx context.Context, filter ReviewFilter, limit, offset int) ([]models.Review, int64, error) {
	limit, offset = clampPage(limit, offset)

	q := readDB(r.db).WithContext(ctx).Model(&models.Review{})
	if filter.GameID != 0 {
		q = q.Where("game_id = ?", filter.GameID)
	}
	if filter.UserID != 0 {
		q = q.Where("user_id = ?", filter.UserID)
	}
	if len(filter.Statuses) > 0 {
		q = q.Where("status IN ?", filter.Statuses)
	}

	var total int64
	if err := q.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, models.NewInternalError(err)
	}

	var reviews []models.Review
	if err := withReviewRelations(q).
		Order("created_at DESC").Order("id DESC").
		Limit(limit).Offset(offset).
		Find(&reviews).Error; err != nil {
		return nil, 0, models.NewInternalError(err)
	}
	return reviews, total, nil
}

func (r *reviewRepository) GetByID(ctx context.Context, id uint) (*models.Review, error) {
	var review models.Review
	if err := withReviewRelations(r.db.WithContext(ctx)).First(&review, id).Error; err != nil {
		return nil, mapFindError(err, "Review", id)
	}
	return &review, nil
}

func (r *reviewRepository) CountByUser(ctx context.Context, userID uint) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Review{}).Where("user_id = ?", userID).Count(&count).Error; err != nil {
		return 0, models.NewInternalError(err)
	}
	return count, nil
}

// Create inserts the review. A second review for the same (user, game) hits
// idx_reviews_user_game and comes back as CONFLICT.
func (r *reviewRepository) Create(ctx context.Context, review *models.Review) error {
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(review).Error; err != nil {
		return mapWriteError(err, "You have already reviewed this game")
	}
	r.invalidateGameStats(ctx, review.GameID)
	return nil
}

// reviewEditableColumns are the columns an author edit may change. Vote
// counters are owned by vote transactions and never written from here.
var reviewEditableColumns = []string{
	"rating", "body_md", "pros", "cons", "playtime_hours", "contains_spoilers", "updated_at",
}

func (r *reviewRepository) Update(ctx context.Context, review *models.Review) error {
	res := r.db.WithContext(ctx).Model(review).Select(reviewEditableColumns).Updates(review)
	if res.Error != nil {
		return mapWriteError(res.Error, "You have already reviewed this game")
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("Review", review.ID)
	}
	r.invalidateGameStats(ctx, review.GameID)
	return nil
}

func (r *reviewRepository) UpdateStatus(ctx context.Context, id uint, status string) error {
	res := r.db.WithContext(ctx).Model(&models.Review{}).Where("id = ?", id).Update("status", status)
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("Review", id)
	}
	cache.InvalidateAggregates(ctx)
	return nil
}

// invalidateGameStats drops the cached detail of the reviewed game, whose
// review count and average just changed, and the aggregate payloads.
func (r *reviewRepository) invalidateGameStats(ctx context.Context, gameID uint) {
	cache.InvalidateAggregates(ctx)
	var slugs []string
	if err := r.db.WithContext(ctx).Model(&models.Game{}).Where("id = ?", gameID).Pluck("slug", &slugs).Error; err != nil {
		middleware.Logger.WarnContext(ctx, "game cache not invalidated", "game_id", gameID, "error", err)
		return
	}
	for _, slug := range slugs {
		cache.InvalidateGame(ctx, slug)
	}
}

// Delete removes the review together with its comments and every vote on either.
func (r *reviewRepository) Delete(ctx context.Context, id uint) error {
	var gameID uint
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var review models.Review
		if err := tx.Select("id", "game_id").First(&review, id).Error; err != nil {
			return mapFindError(err, "Review", id)
		}
		gameID = review.GameID

		commentIDs := tx.Model(&models.Comment{}).Select("id").Where("review_id = ?", id)
		if err := tx.Where("target_type = ? AND target_id IN (?)", models.VoteTargetComment, commentIDs).
			Delete(&models.Vote{}).Error; err != nil {
			return err
		}
		if err := tx.Where("target_type = ? AND target_id = ?", models.VoteTargetReview, id).
			Delete(&models.Vote{}).Error; err != nil {
			return err
		}
		if err := tx.Where("review_id = ?", id).Delete(&models.Comment{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&models.Review{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return models.NewNotFoundError("Review", id)
		}
		return nil
	})
	if err != nil {
		if models.HasCode(err, models.CodeNotFound) {
			return err
		}
		return models.NewInternalError(err)
	}
	r.invalidateGameStats(ctx, gameID)
	return nil
}
