package repository

import (
	"context"
	"fmt"
	"testing"

	"respawn/internal/database"
	"respawn/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn: db,
	}), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)

	return gormDB, mock
}

// setupSQLiteDB opens a private in-memory database with the full model set migrated.
func setupSQLiteDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// Every connection to :memory: is a new database.
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(database.PersistentModels()...))
	return db
}

func createUser(t *testing.T, db *gorm.DB, username string, roles ...string) *models.User {
	t.Helper()
	if len(roles) == 0 {
		roles = []string{models.RoleUser}
	}
	user := &models.User{
		Username: username,
		Email:    fmt.Sprintf("%s@example.com", username),
		Password: "hash",
		Roles:    roles,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

func createGame(t *testing.T, db *gorm.DB, slug string, genres ...string) *models.Game {
	t.Helper()
	game := &models.Game{
		Slug:   slug,
		Title:  "Title " + slug,
		Genres: genres,
	}
	require.NoError(t, db.Create(game).Error)
	return game
}

func createReview(t *testing.T, db *gorm.DB, userID, gameID uint, rating float64) *models.Review {
	t.Helper()
	review := &models.Review{
		UserID: userID,
		GameID: gameID,
		Rating: rating,
		BodyMD: "A review body long enough to be stored by the repository layer in tests.",
		Pros:   []string{"A"},
		Cons:   []string{"B"},
		Status: models.ReviewStatusPublished,
	}
	require.NoError(t, NewReviewRepository(db).Create(context.Background(), review))
	return review
}
