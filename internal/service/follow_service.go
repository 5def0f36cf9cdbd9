package service

import (
	"context"

	"respawn/internal/models"
	"respawn/internal/observability"
	"respawn/internal/repository"
)

type FollowService struct {
	followRepo repository.FollowRepository
	userRepo   repository.UserRepository
}

func NewFollowService(followRepo repository.FollowRepository, userRepo repository.UserRepository) *FollowService {
	return &FollowService{followRepo: followRepo, userRepo: userRepo}
}

// Follow rejects self-follows and missing users. A repeat follow surfaces as
// CONFLICT from the composite primary key.
func (s *FollowService) Follow(ctx context.Context, followerID, followeeID uint) error {
	if followerID == followeeID {
		return models.NewValidationError("You cannot follow yourself")
	}
	if _, err := s.userRepo.GetByID(ctx, followeeID); err != nil {
		return err
	}
	if err := s.followRepo.Create(ctx, followerID, followeeID); err != nil {
		return err
	}
	observability.RecordEvent(observability.EventFollowCreated)
	return nil
}

func (s *FollowService) Unfollow(ctx context.Context, followerID, followeeID uint) error {
	return s.followRepo.Delete(ctx, followerID, followeeID)
}

func (s *FollowService) Followers(ctx context.Context, userID uint, page, limit int) ([]models.UserSummary, int64, error) {
	if _, err := s.userRepo.GetByID(ctx, userID); err != nil {
		return nil, 0, err
	}
	return s.followRepo.Followers(ctx, userID, limit, pageOffset(page, limit))
}

func (s *FollowService) Following(ctx context.Context, userID uint, page, limit int) ([]models.UserSummary, int64, error) {
	if _, err := s.userRepo.GetByID(ctx, userID); err != nil {
		return nil, 0, err
	}
	return s.followRepo.Following(ctx, userID, limit, pageOffset(page, limit))
}
