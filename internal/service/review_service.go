package service

import (
	"context"
	"fmt"
	"strings"

	"respawn/internal/middleware"
	"respawn/internal/models"
	"respawn/internal/observability"
	"respawn/internal/repository"
	"respawn/internal/validation"
)

// ReviewService enforces review ownership, moderation and the per-user cap.
type ReviewService struct {
	reviewRepo repository.ReviewRepository
	gameRepo   repository.GameRepository
	userRepo   repository.UserRepository
	settings   SettingsLoader
	audit      *AuditService
	isAdmin    RoleCheck
}

type ReviewQuery struct {
	GameID uint
	UserID uint
	Status string
	Page   int
	Limit  int
}

type CreateReviewInput struct {
	UserID           uint     `json:"-"`
	GameID           uint     `json:"gameId" validate:"required"`
	Rating           float64  `json:"rating" validate:"halfstep"`
	BodyMD           string   `json:"bodyMd" validate:"min=50,max=2000"`
	Pros             []string `json:"pros" validate:"nonemptyitems,max=20,dive,max=200"`
	Cons             []string `json:"cons" validate:"nonemptyitems,max=20,dive,max=200"`
	PlaytimeHours    *float64 `json:"playtimeHours" validate:"omitempty,gte=0"`
	ContainsSpoilers bool     `json:"containsSpoilers"`
}

// UpdateReviewInput applies only the fields that are set.
type UpdateReviewInput struct {
	ActorID          uint      `json:"-"`
	ReviewID         uint      `json:"-"`
	Rating           *float64  `json:"rating" validate:"omitempty,halfstep"`
	BodyMD           *string   `json:"bodyMd" validate:"omitempty,min=50,max=2000"`
	Pros             *[]string `json:"pros" validate:"omitempty,nonemptyitems"`
	Cons             *[]string `json:"cons" validate:"omitempty,nonemptyitems"`
	PlaytimeHours    *float64  `json:"playtimeHours" validate:"omitempty,gte=0"`
	ContainsSpoilers *bool     `json:"containsSpoilers"`
}

func NewReviewService(
	reviewRepo repository.ReviewRepository,
	gameRepo repository.GameRepository,
	userRepo repository.UserRepository,
	settings SettingsLoader,
	audit *AuditService,
	isAdmin RoleCheck,
) *ReviewService {
	return &ReviewService{
		reviewRepo: reviewRepo,
		gameRepo:   gameRepo,
		userRepo:   userRepo,
		settings:   settings,
		audit:      audit,
		isAdmin:    isAdmin,
	}
}

// ListReviews shows visible reviews unless a status is requested explicitly.
func (s *ReviewService) ListReviews(ctx context.Context, q ReviewQuery) ([]models.Review, int64, error) {
	filter := repository.ReviewFilter{GameID: q.GameID, UserID: q.UserID}
	if status := strings.ToUpper(strings.TrimSpace(q.Status)); status != "" {
		filter.Statuses = []string{status}
	} else {
		filter.Statuses = models.VisibleReviewStatuses
	}
	return s.reviewRepo.List(ctx, filter, q.Limit, pageOffset(q.Page, q.Limit))
}

// ListForModeration lists every status unless one is requested.
func (s *ReviewService) ListForModeration(ctx context.Context, status string, page, limit int) ([]models.Review, int64, error) {
	filter := repository.ReviewFilter{}
	if status = strings.ToUpper(strings.TrimSpace(status)); status != "" {
		filter.Statuses = []string{status}
	}
	return s.reviewRepo.List(ctx, filter, limit, pageOffset(page, limit))
}

func (s *ReviewService) GetReview(ctx context.Context, id uint) (*models.Review, error) {
	return s.reviewRepo.GetByID(ctx, id)
}

func (s *ReviewService) CreateReview(ctx context.Context, in CreateReviewInput) (*models.Review, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}

	user, err := s.userRepo.GetByID(ctx, in.UserID)
	if err != nil {
		return nil, err
	}
	if user.IsBanned {
		return nil, models.NewForbiddenError("Banned users cannot post reviews")
	}
	if _, err := s.gameRepo.GetByID(ctx, in.GameID); err != nil {
		return nil, err
	}

	settings, err := s.settings.Load(ctx)
	if err != nil {
		return nil, err
	}
	count, err := s.reviewRepo.CountByUser(ctx, in.UserID)
	if err != nil {
		return nil, err
	}
	if count >= int64(settings.Moderation.MaxReviewsPerUser) {
		return nil, models.NewValidationError(fmt.Sprintf("Review limit reached (max %d per user)", settings.Moderation.MaxReviewsPerUser))
	}

	status := models.ReviewStatusPublished
	if settings.Moderation.RequireReviewApproval {
		status = models.ReviewStatusPending
	}

	review := &models.Review{
		UserID:           in.UserID,
		GameID:           in.GameID,
		Rating:           in.Rating,
		BodyMD:           in.BodyMD,
		Pros:             trimItems(in.Pros),
		Cons:             trimItems(in.Cons),
		PlaytimeHours:    in.PlaytimeHours,
		ContainsSpoilers: in.ContainsSpoilers,
		Status:           status,
	}
	if err := s.reviewRepo.Create(ctx, review); err != nil {
		return nil, err
	}
	observability.RecordEvent(observability.EventReviewCreated)

	return s.reviewRepo.GetByID(ctx, review.ID)
}

func (s *ReviewService) UpdateReview(ctx context.Context, in UpdateReviewInput) (*models.Review, error) {
	review, err := s.reviewRepo.GetByID(ctx, in.ReviewID)
	if err != nil {
		return nil, err
	}
	allowed, err := ensureOwnerOr(ctx, s.isAdmin, review.UserID, in.ActorID)
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, models.NewForbiddenError("You can only edit your own reviews")
	}
	if err := validation.Struct(in); err != nil {
		return nil, err
	}

	if in.Rating != nil {
		review.Rating = *in.Rating
	}
	if in.BodyMD != nil {
		review.BodyMD = *in.BodyMD
	}
	if in.Pros != nil {
		review.Pros = trimItems(*in.Pros)
	}
	if in.Cons != nil {
		review.Cons = trimItems(*in.Cons)
	}
	if in.PlaytimeHours != nil {
		review.PlaytimeHours = in.PlaytimeHours
	}
	if in.ContainsSpoilers != nil {
		review.ContainsSpoilers = *in.ContainsSpoilers
	}

	review.User, review.Game = nil, nil
	if err := s.reviewRepo.Update(ctx, review); err != nil {
		return nil, err
	}
	return s.reviewRepo.GetByID(ctx, review.ID)
}

// DeleteReview allows the owner or an admin.
func (s *ReviewService) DeleteReview(ctx context.Context, actorID, id uint) error {
	review, err := s.reviewRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	allowed, err := ensureOwnerOr(ctx, s.isAdmin, review.UserID, actorID)
	if err != nil {
		return err
	}
	if !allowed {
		return models.NewForbiddenError("You can only delete your own reviews")
	}
	if err := s.reviewRepo.Delete(ctx, id); err != nil {
		return err
	}
	if review.UserID != actorID {
		s.audit.Record(ctx, actorID, models.AuditReviewDeleted, models.ReportTargetReview, id, nil)
	}
	return nil
}

// ModerateDelete is the staff path; the route already enforces the role.
func (s *ReviewService) ModerateDelete(ctx context.Context, actorID, id uint) error {
	if err := s.reviewRepo.Delete(ctx, id); err != nil {
		return err
	}
	s.audit.Record(ctx, actorID, models.AuditReviewDeleted, models.ReportTargetReview, id, nil)
	return nil
}

// UpdateStatus validates before touching the store, so an invalid status
// leaves the review unchanged.
func (s *ReviewService) UpdateStatus(ctx context.Context, actorID, id uint, status string) (*models.Review, error) {
	if !models.IsValidReviewStatus(status) {
		return nil, models.NewValidationError("Invalid status. Must be one of: " + strings.Join(models.ReviewStatuses, ", "))
	}
	review, err := s.reviewRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	previous := review.Status
	if err := s.reviewRepo.UpdateStatus(ctx, id, status); err != nil {
		return nil, err
	}
	review.Status = status

	s.audit.Record(ctx, actorID, models.AuditReviewStatusChanged, models.ReportTargetReview, id, map[string]any{
		"from": previous,
		"to":   status,
	})
	middleware.Logger.InfoContext(ctx, "review status changed", "review_id", id, "status", status)
	return review, nil
}

func trimItems(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		if t := strings.TrimSpace(item); t != "" {
			out = append(out, t)
		}
	}
	return out
}
