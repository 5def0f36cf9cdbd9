package main

import (
	"testing"

	"respawn/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newAdminDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, db.AutoMigrate(&models.User{}))
	return db
}

func createPlayer(t *testing.T, db *gorm.DB, name string, roles ...string) *models.User {
	t.Helper()
	u := &models.User{Username: name, Email: name + "@example.com", Password: "x", Roles: append([]string{models.RoleUser}, roles...)}
	require.NoError(t, db.Create(u).Error)
	return u
}

func TestSetRole_PromoteAndDemote(t *testing.T) {
	db := newAdminDB(t)
	u := createPlayer(t, db, "player")

	user, changed, err := setRole(db, u.ID, models.RoleAdmin, true)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.True(t, user.IsAdmin())

	_, changed, err = setRole(db, u.ID, models.RoleAdmin, true)
	require.NoError(t, err)
	assert.False(t, changed, "second promotion is a no-op")

	user, changed, err = setRole(db, u.ID, models.RoleAdmin, false)
	require.NoError(t, err)
	assert.True(t, changed)

	var stored models.User
	require.NoError(t, db.First(&stored, user.ID).Error)
	assert.Equal(t, []string{models.RoleUser}, []string(stored.Roles))
}

func TestSetRole_Rejections(t *testing.T) {
	db := newAdminDB(t)
	u := createPlayer(t, db, "player")

	_, _, err := setRole(db, u.ID, models.RoleVerified, true)
	assert.Error(t, err)

	_, _, err = setRole(db, 999, models.RoleAdmin, true)
	assert.ErrorContains(t, err, "not found")

	assert.Error(t, runRoleChange(db, "abc", models.RoleAdmin, true))
	assert.Error(t, runRoleChange(db, "0", models.RoleAdmin, true))
}

func TestListStaff(t *testing.T) {
	db := newAdminDB(t)
	createPlayer(t, db, "player")
	createPlayer(t, db, "mod", models.RoleModerator)
	createPlayer(t, db, "boss", models.RoleAdmin)

	staff, err := listStaff(db)
	require.NoError(t, err)
	require.Len(t, staff, 2)
	assert.Equal(t, "mod", staff[0].Username)
	assert.Equal(t, "boss", staff[1].Username)
}
