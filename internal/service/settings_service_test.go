package service

import (
	"context"
	"testing"

	"respawn/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSettingsService_LoadSeedsDefaults(t *testing.T) {
	repo := &settingsRepoStub{}
	svc := NewSettingsService(repo, NewAuditService(&auditRepoStub{}))

	settings, err := svc.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, models.DefaultSettings(), settings)
	assert.Equal(t, 1, repo.saves)
	require.NotNil(t, repo.row)
	assert.Equal(t, models.PlatformSettingsKey, repo.row.Key)

	_, err = svc.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, repo.gets, "second load is served from the snapshot")

	svc.Invalidate()
	_, err = svc.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, repo.gets)
	assert.Equal(t, 1, repo.saves)
}

func TestSettingsService_SaveClampsAndAudits(t *testing.T) {
	repo := &settingsRepoStub{}
	audit := &auditRepoStub{}
	svc := NewSettingsService(repo, NewAuditService(audit))

	in := models.DefaultSettings()
	in.Moderation.MaxReviewsPerUser = 0
	in.System.CacheTimeout = 999999
	in.System.MaintenanceMode = true

	saved, err := svc.Save(context.Background(), 7, in)
	require.NoError(t, err)
	assert.Equal(t, 1, saved.Moderation.MaxReviewsPerUser)
	assert.Equal(t, 86400, saved.System.CacheTimeout)
	require.NotNil(t, repo.row.UpdatedByID)
	assert.Equal(t, uint(7), *repo.row.UpdatedByID)
	assert.Equal(t, []string{models.AuditSettingsUpdated}, audit.actions())

	loaded, err := svc.Load(context.Background())
	require.NoError(t, err)
	assert.True(t, loaded.System.MaintenanceMode)
	assert.Equal(t, 0, repo.gets)
}
