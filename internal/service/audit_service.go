package service

import (
	"context"

	"respawn/internal/middleware"
	"respawn/internal/models"
	"respawn/internal/observability"
	"respawn/internal/repository"

	"github.com/goccy/go-json"
	"gorm.io/datatypes"
)

// AuditService records staff actions. A failed write is logged and never
// fails the action it describes.
type AuditService struct {
	repo repository.AuditRepository
}

func NewAuditService(repo repository.AuditRepository) *AuditService {
	return &AuditService{repo: repo}
}

// Record appends an audit entry. A nil receiver is a no-op.
func (s *AuditService) Record(ctx context.Context, actorID uint, action, targetType string, targetID uint, details map[string]any) {
	if s == nil || s.repo == nil {
		return
	}
	entry := &models.AuditLog{
		ActorID:    actorID,
		Action:     action,
		TargetType: targetType,
		TargetID:   targetID,
	}
	if len(details) > 0 {
		raw, err := json.Marshal(details)
		if err == nil {
			entry.Details = datatypes.JSON(raw)
		}
	}
	if err := s.repo.Create(ctx, entry); err != nil {
		middleware.Logger.WarnContext(ctx, "audit write failed",
			"action", action, "target_type", targetType, "target_id", targetID, "error", err)
		return
	}
	observability.RecordEvent(observability.EventModerationActed)
}

func (s *AuditService) List(ctx context.Context, action string, page, limit int) ([]models.AuditLog, int64, error) {
	return s.repo.List(ctx, action, limit, pageOffset(page, limit))
}
