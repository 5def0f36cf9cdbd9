package service

import (
	"context"

	"respawn/internal/models"
	"respawn/internal/observability"
	"respawn/internal/repository"
	"respawn/internal/validation"
)

type VoteService struct {
	voteRepo repository.VoteRepository
}

type VoteInput struct {
	UserID     uint   `json:"-"`
	TargetType string `json:"targetType" validate:"required,oneof=REVIEW COMMENT"`
	TargetID   uint   `json:"targetId" validate:"required"`
	Value      int    `json:"value" validate:"required,oneof=1 -1"`
}

func NewVoteService(voteRepo repository.VoteRepository) *VoteService {
	return &VoteService{voteRepo: voteRepo}
}

// Cast records a new vote. Self-votes are allowed.
func (s *VoteService) Cast(ctx context.Context, in VoteInput) (*models.Vote, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	if err := s.ensureTarget(ctx, in.TargetType, in.TargetID); err != nil {
		return nil, err
	}

	vote := &models.Vote{
		UserID:     in.UserID,
		TargetType: in.TargetType,
		TargetID:   in.TargetID,
		Value:      in.Value,
	}
	if err := s.voteRepo.Create(ctx, vote); err != nil {
		return nil, err
	}
	observability.RecordEvent(observability.EventVoteCast)
	return vote, nil
}

// Change flips the value of the caller's existing vote.
func (s *VoteService) Change(ctx context.Context, in VoteInput) (*models.Vote, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	vote := &models.Vote{
		UserID:     in.UserID,
		TargetType: in.TargetType,
		TargetID:   in.TargetID,
		Value:      in.Value,
	}
	if err := s.voteRepo.UpdateValue(ctx, vote); err != nil {
		return nil, err
	}
	return s.voteRepo.Get(ctx, in.UserID, in.TargetType, in.TargetID)
}

func (s *VoteService) Remove(ctx context.Context, userID uint, targetType string, targetID uint) error {
	if targetType != models.VoteTargetReview && targetType != models.VoteTargetComment {
		return models.NewValidationError("targetType must be one of: REVIEW, COMMENT")
	}
	if targetID == 0 {
		return models.NewValidationError("targetId is required")
	}
	return s.voteRepo.Delete(ctx, userID, targetType, targetID)
}

func (s *VoteService) Tally(ctx context.Context, targetType string, targetID uint) (models.VoteTally, error) {
	return s.voteRepo.Tally(ctx, targetType, targetID)
}

func (s *VoteService) ensureTarget(ctx context.Context, targetType string, targetID uint) error {
	ok, err := s.voteRepo.TargetExists(ctx, targetType, targetID)
	if err != nil {
		return err
	}
	if !ok {
		return models.NewNotFoundError(displayType(targetType), targetID)
	}
	return nil
}

func displayType(targetType string) string {
	switch targetType {
	case models.VoteTargetReview:
		return "Review"
	case models.VoteTargetComment:
		return "Comment"
	case models.ReportTargetUser:
		return "User"
	case models.ReportTargetGame:
		return "Game"
	}
	return targetType
}
