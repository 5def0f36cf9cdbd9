package repository

import (
	"context"

	"respawn/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SettingsRepository loads and stores the single platform settings row.
type SettingsRepository interface {
	Get(ctx context.Context) (*models.PlatformSettings, error)
	Save(ctx context.Context, settings *models.PlatformSettings) error
}

type settingsRepository struct {
	db *gorm.DB
}

// NewSettingsRepository creates a new SettingsRepository
func NewSettingsRepository(db *gorm.DB) SettingsRepository {
	return &settingsRepository{db: db}
}

// Get returns NOT_FOUND until the row has been saved once.
func (r *settingsRepository) Get(ctx context.Context) (*models.PlatformSettings, error) {
	var row models.PlatformSettings
	if err := r.db.WithContext(ctx).Where(&models.PlatformSettings{Key: models.PlatformSettingsKey}).Take(&row).Error; err != nil {
		return nil, mapFindError(err, "Settings", models.PlatformSettingsKey)
	}
	return &row, nil
}

// Save upserts the row keyed by PlatformSettingsKey.
func (r *settingsRepository) Save(ctx context.Context, settings *models.PlatformSettings) error {
	settings.Key = models.PlatformSettingsKey
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		UpdateAll: true,
	}).Create(settings).Error
	if err != nil {
		return models.NewInternalError(err)
	}
	return nil
}
