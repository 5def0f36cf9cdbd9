package service

import (
	"context"
	"strings"
	"time"

	"respawn/internal/models"
	"respawn/internal/observability"
	"respawn/internal/repository"
	"respawn/internal/validation"
)

type ReportService struct {
	reportRepo repository.ReportRepository
	audit      *AuditService
}

type CreateReportInput struct {
	ReporterID uint   `json:"-"`
	TargetType string `json:"targetType" validate:"required,oneof=REVIEW USER GAME COMMENT"`
	TargetID   uint   `json:"targetId" validate:"required"`
	Reason     string `json:"reason" validate:"required,max=200"`
	Notes      string `json:"notes" validate:"max=1000"`
}

type ReportQuery struct {
	Status     string
	TargetType string
	Page       int
	Limit      int
}

func NewReportService(reportRepo repository.ReportRepository, audit *AuditService) *ReportService {
	return &ReportService{reportRepo: reportRepo, audit: audit}
}

func (s *ReportService) CreateReport(ctx context.Context, in CreateReportInput) (*models.Report, error) {
	in.TargetType = strings.ToUpper(strings.TrimSpace(in.TargetType))
	in.Reason = strings.TrimSpace(in.Reason)
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	ok, err := s.reportRepo.TargetExists(ctx, in.TargetType, in.TargetID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, models.NewNotFoundError(displayType(in.TargetType), in.TargetID)
	}

	report := &models.Report{
		ReporterID: in.ReporterID,
		TargetType: in.TargetType,
		TargetID:   in.TargetID,
		Reason:     in.Reason,
		Notes:      in.Notes,
		Status:     models.ReportStatusPending,
	}
	if err := s.reportRepo.Create(ctx, report); err != nil {
		return nil, err
	}
	observability.RecordEvent(observability.EventReportFiled)
	return report, nil
}

// ListReports returns the moderation queue newest first with target previews.
func (s *ReportService) ListReports(ctx context.Context, q ReportQuery) ([]models.Report, int64, error) {
	filter := repository.ReportFilter{
		Status:     strings.ToUpper(strings.TrimSpace(q.Status)),
		TargetType: strings.ToUpper(strings.TrimSpace(q.TargetType)),
	}
	reports, total, err := s.reportRepo.List(ctx, filter, q.Limit, pageOffset(q.Page, q.Limit))
	if err != nil {
		return nil, 0, err
	}
	if err := s.reportRepo.LoadTargetContent(ctx, reports); err != nil {
		return nil, 0, err
	}
	return reports, total, nil
}

// UpdateStatus stamps the resolver on RESOLVED and DISMISSED and clears it otherwise.
func (s *ReportService) UpdateStatus(ctx context.Context, actorID, id uint, status string) (*models.Report, error) {
	if !models.IsValidReportStatus(status) {
		return nil, models.NewValidationError("Invalid status. Must be one of: " + strings.Join(models.ReportStatuses, ", "))
	}
	report, err := s.reportRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	previous := report.Status

	report.Status = status
	if models.IsClosedReportStatus(status) {
		now := time.Now()
		report.ResolvedByID = &actorID
		report.ResolvedAt = &now
	} else {
		report.ResolvedByID = nil
		report.ResolvedAt = nil
	}
	reporter := report.Reporter
	report.Reporter = nil
	if err := s.reportRepo.Update(ctx, report); err != nil {
		return nil, err
	}
	report.Reporter = reporter

	s.audit.Record(ctx, actorID, models.AuditReportStatusChanged, "REPORT", id, map[string]any{
		"from": previous,
		"to":   status,
	})
	return report, nil
}

func (s *ReportService) DeleteReport(ctx context.Context, actorID, id uint) error {
	if err := s.reportRepo.Delete(ctx, id); err != nil {
		return err
	}
	s.audit.Record(ctx, actorID, models.AuditReportDeleted, "REPORT", id, nil)
	return nil
}
