package repository

import (
	"context"
	"testing"

	"respawn/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSettingsRepository_SaveUpserts(t *testing.T) {
	db := setupSQLiteDB(t)
	repo := NewSettingsRepository(db)
	ctx := context.Background()

	_, err := repo.Get(ctx)
	assert.True(t, models.HasCode(err, models.CodeNotFound))

	s := models.DefaultSettings()
	require.NoError(t, repo.Save(ctx, models.NewPlatformSettings(s)))

	s.System.MaintenanceMode = true
	s.Content.MaxGamesPerList = 12
	require.NoError(t, repo.Save(ctx, models.NewPlatformSettings(s)))

	row, err := repo.Get(ctx)
	require.NoError(t, err)
	got := row.Settings()
	assert.True(t, got.System.MaintenanceMode)
	assert.Equal(t, 12, got.Content.MaxGamesPerList)

	var count int64
	db.Model(&models.PlatformSettings{}).Count(&count)
	assert.Equal(t, int64(1), count)
}
