package repository

import (
	"context"

	"respawn/internal/cache"
	"respawn/internal/models"

	"gorm.io/gorm"
)

// VoteRepository persists votes and keeps review vote counters in step with them.
type VoteRepository interface {
	Get(ctx context.Context, userID uint, targetType string, targetID uint) (*models.Vote, error)
	TargetExists(ctx context.Context, targetType string, targetID uint) (bool, error)
	Create(ctx context.Context, vote *models.Vote) error
	UpdateValue(ctx context.Context, vote *models.Vote) error
	Delete(ctx context.Context, userID uint, targetType string, targetID uint) error
	Tally(ctx context.Context, targetType string, targetID uint) (models.VoteTally, error)
}

type voteRepository struct {
	db *gorm.DB
}

// NewVoteRepository creates a new VoteRepository
func NewVoteRepository(db *gorm.DB) VoteRepository {
	return &voteRepository{db: db}
}

func (r *voteRepository) Get(ctx context.Context, userID uint, targetType string, targetID uint) (*models.Vote, error) {
	var vote models.Vote
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND target_type = ? AND target_id = ?", userID, targetType, targetID).
		First(&vote).Error
	if err != nil {
		return nil, mapFindError(err, "Vote", targetID)
	}
	return &vote, nil
}

func (r *voteRepository) TargetExists(ctx context.Context, targetType string, targetID uint) (bool, error) {
	var model any
	switch targetType {
	case models.VoteTargetReview:
		model = &models.Review{}
	case models.VoteTargetComment:
		model = &models.Comment{}
	default:
		return false, nil
	}
	var count int64
	if err := r.db.WithContext(ctx).Model(model).Where("id = ?", targetID).Count(&count).Error; err != nil {
		return false, models.NewInternalError(err)
	}
	return count > 0, nil
}

// Create inserts the vote and recounts the target in one transaction. The
// idx_votes_user_target index turns a second vote into CONFLICT.
func (r *voteRepository) Create(ctx context.Context, vote *models.Vote) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(vote).Error; err != nil {
			return err
		}
		return recountVotes(tx, vote.TargetType, vote.TargetID)
	})
	if err != nil {
		return mapWriteError(err, "You have already voted on this item")
	}
	cache.InvalidateAggregates(ctx)
	return nil
}

func (r *voteRepository) UpdateValue(ctx context.Context, vote *models.Vote) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Vote{}).
			Where("user_id = ? AND target_type = ? AND target_id = ?", vote.UserID, vote.TargetType, vote.TargetID).
			Update("value", vote.Value)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return models.NewNotFoundError("Vote", vote.TargetID)
		}
		return recountVotes(tx, vote.TargetType, vote.TargetID)
	})
	if err != nil {
		if models.HasCode(err, models.CodeNotFound) {
			return err
		}
		return models.NewInternalError(err)
	}
	cache.InvalidateAggregates(ctx)
	return nil
}

func (r *voteRepository) Delete(ctx context.Context, userID uint, targetType string, targetID uint) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("user_id = ? AND target_type = ? AND target_id = ?", userID, targetType, targetID).
			Delete(&models.Vote{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return models.NewNotFoundError("Vote", targetID)
		}
		return recountVotes(tx, targetType, targetID)
	})
	if err != nil {
		if models.HasCode(err, models.CodeNotFound) {
			return err
		}
		return models.NewInternalError(err)
	}
	cache.InvalidateAggregates(ctx)
	return nil
}

func (r *voteRepository) Tally(ctx context.Context, targetType string, targetID uint) (models.VoteTally, error) {
	tally, err := tallyVotes(r.db.WithContext(ctx), targetType, targetID)
	if err != nil {
		return models.VoteTally{}, models.NewInternalError(err)
	}
	return tally, nil
}

func tallyVotes(db *gorm.DB, targetType string, targetID uint) (models.VoteTally, error) {
	var tally models.VoteTally
	err := db.Model(&models.Vote{}).
		Select(
			"COALESCE(SUM(CASE WHEN value > 0 THEN 1 ELSE 0 END), 0) AS upvotes, "+
				"COALESCE(SUM(CASE WHEN value < 0 THEN 1 ELSE 0 END), 0) AS downvotes").
		Where("target_type = ? AND target_id = ?", targetType, targetID).
		Scan(&tally).Error
	return tally, err
}

// recountVotes rewrites the denormalized counters. Only reviews carry them.
func recountVotes(tx *gorm.DB, targetType string, targetID uint) error {
	if targetType != models.VoteTargetReview {
		return nil
	}
	tally, err := tallyVotes(tx, targetType, targetID)
	if err != nil {
		return err
	}
	return tx.Model(&models.Review{}).Where("id = ?", targetID).
		UpdateColumns(map[string]any{
			"upvotes_count":   tally.Upvotes,
			"downvotes_count": tally.Downvotes,
		}).Error
}
