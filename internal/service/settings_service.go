package service

import (
	"context"
	"sync"
	"time"

	"respawn/internal/middleware"
	"respawn/internal/models"
	"respawn/internal/repository"
)

// SettingsLoader is the read side of SettingsService used by other services.
type SettingsLoader interface {
	Load(ctx context.Context) (models.Settings, error)
}

const settingsSnapshotTTL = 30 * time.Second

// SettingsService loads and saves the platform settings row. Reads are served
// from a short-lived in-process snapshot since middleware consults them per request.
type SettingsService struct {
	repo  repository.SettingsRepository
	audit *AuditService

	mu       sync.RWMutex
	snapshot *models.Settings
	loadedAt time.Time
}

func NewSettingsService(repo repository.SettingsRepository, audit *AuditService) *SettingsService {
	return &SettingsService{repo: repo, audit: audit}
}

// Load returns the persisted settings, seeding the defaults on first use.
func (s *SettingsService) Load(ctx context.Context) (models.Settings, error) {
	s.mu.RLock()
	if s.snapshot != nil && time.Since(s.loadedAt) < settingsSnapshotTTL {
		out := *s.snapshot
		s.mu.RUnlock()
		return out, nil
	}
	s.mu.RUnlock()

	row, err := s.repo.Get(ctx)
	var settings models.Settings
	switch {
	case err == nil:
		settings = row.Settings()
	case models.HasCode(err, models.CodeNotFound):
		settings = models.DefaultSettings()
		if err := s.repo.Save(ctx, models.NewPlatformSettings(settings)); err != nil {
			return models.Settings{}, err
		}
	default:
		return models.Settings{}, err
	}

	s.remember(settings)
	return settings, nil
}

// Save clamps numeric values into range, persists them and records the change.
func (s *SettingsService) Save(ctx context.Context, actorID uint, in models.Settings) (models.Settings, error) {
	settings := in.Clamp()

	row := models.NewPlatformSettings(settings)
	if actorID != 0 {
		row.UpdatedByID = &actorID
	}
	if err := s.repo.Save(ctx, row); err != nil {
		return models.Settings{}, err
	}
	s.remember(settings)

	s.audit.Record(ctx, actorID, models.AuditSettingsUpdated, "SETTINGS", 0, map[string]any{
		"maintenanceMode": settings.System.MaintenanceMode,
	})
	middleware.Logger.InfoContext(ctx, "platform settings updated", "actor_id", actorID)
	return settings, nil
}

// Invalidate drops the in-process snapshot.
func (s *SettingsService) Invalidate() {
	s.mu.Lock()
	s.snapshot = nil
	s.mu.Unlock()
}

func (s *SettingsService) remember(settings models.Settings) {
	s.mu.Lock()
	s.snapshot = &settings
	s.loadedAt = time.Now()
	s.mu.Unlock()
}
