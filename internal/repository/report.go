package repository

import (
	"context"

	"respawn/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ReportFilter narrows the moderation queue. Empty fields match everything.
type ReportFilter struct {
	Status     string
	TargetType string
}

// ReportRepository defines persistence operations for user reports.
type ReportRepository interface {
	Create(ctx context.Context, report *models.Report) error
	GetByID(ctx context.Context, id uint) (*models.Report, error)
	List(ctx context.Context, filter ReportFilter, limit, offset int) ([]models.Report, int64, error)
	Update(ctx context.Context, report *models.Report) error
	Delete(ctx context.Context, id uint) error
	TargetExists(ctx context.Context, targetType string, targetID uint) (bool, error)
	LoadTargetContent(ctx context.Context, reports []models.Report) error
}

type reportRepository struct {
	db *gorm.DB
}

// NewReportRepository creates a new ReportRepository
func NewReportRepository(db *gorm.DB) ReportRepository {
	return &reportRepository{db: db}
}

func (r *reportRepository) Create(ctx context.Context, report *models.Report) error {
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(report).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *reportRepository) GetByID(ctx context.Context, id uint) (*models.Report, error) {
	var report models.Report
	if err := r.db.WithContext(ctx).Preload("Reporter").First(&report, id).Error; err != nil {
		return nil, mapFindError(err, "Report", id)
	}
	return &report, nil
}

func (r *reportRepository) List(ctx context.Context, filter ReportFilter, limit, offset int) ([]models.Report, int64, error) {
	limit, offset = clampPage(limit, offset)

	q := r.db.WithContext(ctx).Model(&models.Report{})
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	if filter.TargetType != "" {
		q = q.Where("target_type = ?", filter.TargetType)
	}

	var total int64
	if err := q.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, models.NewInternalError(err)
	}

	var reports []models.Report
	if err := q.Preload("Reporter").
		Order("created_at DESC").Order("id DESC").
		Limit(limit).Offset(offset).
		Find(&reports).Error; err != nil {
		return nil, 0, models.NewInternalError(err)
	}
	return reports, total, nil
}

func (r *reportRepository) Update(ctx context.Context, report *models.Report) error {
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Save(report).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *reportRepository) Delete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&models.Report{}, id)
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("Report", id)
	}
	return nil
}

func reportTargetModel(targetType string) any {
	switch targetType {
	case models.ReportTargetReview:
		return &models.Review{}
	case models.ReportTargetComment:
		return &models.Comment{}
	case models.ReportTargetUser:
		return &models.User{}
	case models.ReportTargetGame:
		return &models.Game{}
	}
	return nil
}

func (r *reportRepository) TargetExists(ctx context.Context, targetType string, targetID uint) (bool, error) {
	model := reportTargetModel(targetType)
	if model == nil {
		return false, nil
	}
	var count int64
	if err := r.db.WithContext(ctx).Model(model).Where("id = ?", targetID).Count(&count).Error; err != nil {
		return false, models.NewInternalError(err)
	}
	return count > 0, nil
}

// LoadTargetContent fills TargetContent with one query per target type.
// Targets that no longer exist are left empty.
func (r *reportRepository) LoadTargetContent(ctx context.Context, reports []models.Report) error {
	ids := make(map[string][]uint)
	for _, rep := range reports {
		ids[rep.TargetType] = append(ids[rep.TargetType], rep.TargetID)
	}

	content := make(map[string]map[uint]map[string]any)
	db := r.db.WithContext(ctx)

	if list := ids[models.ReportTargetReview]; len(list) > 0 {
		var rows []models.Review
		if err := db.Select("id", "rating", "body_md").Where("id IN ?", list).Find(&rows).Error; err != nil {
			return models.NewInternalError(err)
		}
		m := make(map[uint]map[string]any, len(rows))
		for _, row := range rows {
			m[row.ID] = map[string]any{"rating": row.Rating, "content": row.BodyMD}
		}
		content[models.ReportTargetReview] = m
	}
	if list := ids[models.ReportTargetComment]; len(list) > 0 {
		var rows []models.Comment
		if err := db.Select("id", "body_md").Where("id IN ?", list).Find(&rows).Error; err != nil {
			return models.NewInternalError(err)
		}
		m := make(map[uint]map[string]any, len(rows))
		for _, row := range rows {
			m[row.ID] = map[string]any{"content": row.BodyMD}
		}
		content[models.ReportTargetComment] = m
	}
	if list := ids[models.ReportTargetUser]; len(list) > 0 {
		var rows []models.UserSummary
		if err := db.Where("id IN ?", list).Find(&rows).Error; err != nil {
			return models.NewInternalError(err)
		}
		m := make(map[uint]map[string]any, len(rows))
		for _, row := range rows {
			m[row.ID] = map[string]any{"username": row.Username}
		}
		content[models.ReportTargetUser] = m
	}
	if list := ids[models.ReportTargetGame]; len(list) > 0 {
		var rows []models.GameSummary
		if err := db.Where("id IN ?", list).Find(&rows).Error; err != nil {
			return models.NewInternalError(err)
		}
		m := make(map[uint]map[string]any, len(rows))
		for _, row := range rows {
			m[row.ID] = map[string]any{"title": row.Title}
		}
		content[models.ReportTargetGame] = m
	}

	for i := range reports {
		if byID, ok := content[reports[i].TargetType]; ok {
			reports[i].TargetContent = byID[reports[i].TargetID]
		}
	}
	return nil
}
