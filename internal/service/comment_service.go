package service

import (
	"context"
	"fmt"
	"strings"

	"respawn/internal/models"
	"respawn/internal/observability"
	"respawn/internal/repository"
	"respawn/internal/validation"
)

type CommentService struct {
	commentRepo repository.CommentRepository
	reviewRepo  repository.ReviewRepository
	userRepo    repository.UserRepository
	settings    SettingsLoader
	isStaff     RoleCheck
}

type CreateCommentInput struct {
	UserID   uint   `json:"-"`
	ReviewID uint   `json:"-"`
	BodyMD   string `json:"bodyMd" validate:"required,max=1000"`
}

type UpdateCommentInput struct {
	UserID    uint   `json:"-"`
	CommentID uint   `json:"-"`
	BodyMD    string `json:"bodyMd" validate:"required,max=1000"`
}

func NewCommentService(
	commentRepo repository.CommentRepository,
	reviewRepo repository.ReviewRepository,
	userRepo repository.UserRepository,
	settings SettingsLoader,
	isStaff RoleCheck,
) *CommentService {
	return &CommentService{
		commentRepo: commentRepo,
		reviewRepo:  reviewRepo,
		userRepo:    userRepo,
		settings:    settings,
		isStaff:     isStaff,
	}
}

func (s *CommentService) ListComments(ctx context.Context, reviewID uint) ([]models.Comment, error) {
	if _, err := s.reviewRepo.GetByID(ctx, reviewID); err != nil {
		return nil, err
	}
	return s.commentRepo.ListByReview(ctx, reviewID)
}

func (s *CommentService) CreateComment(ctx context.Context, in CreateCommentInput) (*models.Comment, error) {
	in.BodyMD = strings.TrimSpace(in.BodyMD)
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	if _, err := s.reviewRepo.GetByID(ctx, in.ReviewID); err != nil {
		return nil, err
	}
	user, err := s.userRepo.GetByID(ctx, in.UserID)
	if err != nil {
		return nil, err
	}
	if user.IsBanned {
		return nil, models.NewForbiddenError("Banned users cannot comment")
	}

	settings, err := s.settings.Load(ctx)
	if err != nil {
		return nil, err
	}
	count, err := s.commentRepo.CountByReview(ctx, in.ReviewID)
	if err != nil {
		return nil, err
	}
	if count >= int64(settings.Moderation.MaxCommentsPerReview) {
		return nil, models.NewValidationError(fmt.Sprintf("Comment limit reached (max %d per review)", settings.Moderation.MaxCommentsPerReview))
	}

	comment := &models.Comment{
		ReviewID: in.ReviewID,
		UserID:   in.UserID,
		BodyMD:   in.BodyMD,
		Status:   models.CommentStatusPublished,
	}
	if err := s.commentRepo.Create(ctx, comment); err != nil {
		return nil, err
	}
	observability.RecordEvent(observability.EventCommentCreated)

	return s.commentRepo.GetByID(ctx, comment.ID)
}

func (s *CommentService) UpdateComment(ctx context.Context, in UpdateCommentInput) (*models.Comment, error) {
	comment, err := s.commentRepo.GetByID(ctx, in.CommentID)
	if err != nil {
		return nil, err
	}
	allowed, err := ensureOwnerOr(ctx, s.isStaff, comment.UserID, in.UserID)
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, models.NewForbiddenError("You can only edit your own comments")
	}
	in.BodyMD = strings.TrimSpace(in.BodyMD)
	if err := validation.Struct(in); err != nil {
		return nil, err
	}

	comment.BodyMD = in.BodyMD
	comment.User = nil
	if err := s.commentRepo.Update(ctx, comment); err != nil {
		return nil, err
	}

	return s.commentRepo.GetByID(ctx, comment.ID)
}

func (s *CommentService) DeleteComment(ctx context.Context, userID, commentID uint) error {
	comment, err := s.commentRepo.GetByID(ctx, commentID)
	if err != nil {
		return err
	}
	allowed, err := ensureOwnerOr(ctx, s.isStaff, comment.UserID, userID)
	if err != nil {
		return err
	}
	if !allowed {
		return models.NewForbiddenError("You can only delete your own comments")
	}
	return s.commentRepo.Delete(ctx, commentID)
}
