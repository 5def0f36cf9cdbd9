package bootstrap

import (
	"testing"

	"respawn/internal/config"
	"respawn/internal/database"
	"respawn/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, db.AutoMigrate(database.PersistentModels()...))
	return db
}

func devConfig() *config.Config {
	return &config.Config{
		Env:              "development",
		DevBootstrapRoot: true,
		DevRootPassword:  "RootPassw0rd",
	}
}

func TestEnsureDevRootAdmin_CreatesRoot(t *testing.T) {
	db := newDB(t)
	require.NoError(t, EnsureDevRootAdmin(devConfig(), db))

	var root models.User
	require.NoError(t, db.First(&root, 1).Error)
	assert.Equal(t, "respawn_root", root.Username)
	assert.Equal(t, "root@respawn.local", root.Email)
	assert.True(t, root.IsAdmin())
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(root.Password), []byte("RootPassw0rd")))
}

func TestEnsureDevRootAdmin_PromotesExistingUser(t *testing.T) {
	db := newDB(t)
	existing := models.User{ID: 1, Username: "first", Email: "first@example.com", Password: "x", Roles: []string{models.RoleUser}}
	require.NoError(t, db.Create(&existing).Error)

	require.NoError(t, EnsureDevRootAdmin(devConfig(), db))

	var root models.User
	require.NoError(t, db.First(&root, 1).Error)
	assert.Equal(t, "first", root.Username, "credentials are kept unless forced")
	assert.ElementsMatch(t, []string{models.RoleUser, models.RoleAdmin}, []string(root.Roles))
}

func TestEnsureDevRootAdmin_ForceCredentials(t *testing.T) {
	db := newDB(t)
	existing := models.User{ID: 1, Username: "first", Email: "first@example.com", Password: "x", Roles: []string{models.RoleUser}}
	require.NoError(t, db.Create(&existing).Error)

	cfg := devConfig()
	cfg.DevRootForceCredentials = true
	cfg.DevRootUsername = "boss"
	require.NoError(t, EnsureDevRootAdmin(cfg, db))

	var root models.User
	require.NoError(t, db.First(&root, 1).Error)
	assert.Equal(t, "boss", root.Username)
}

func TestEnsureDevRootAdmin_Skipped(t *testing.T) {
	db := newDB(t)

	prod := devConfig()
	prod.Env = "production"
	require.NoError(t, EnsureDevRootAdmin(prod, db))

	off := devConfig()
	off.DevBootstrapRoot = false
	require.NoError(t, EnsureDevRootAdmin(off, db))

	var count int64
	require.NoError(t, db.Model(&models.User{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestEnsureDevRootAdmin_RequiresPassword(t *testing.T) {
	cfg := devConfig()
	cfg.DevRootPassword = ""
	assert.Error(t, EnsureDevRootAdmin(cfg, newDB(t)))
}
