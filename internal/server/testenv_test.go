package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"respawn/internal/config"
	"respawn/internal/database"
	"respawn/internal/middleware"
	"respawn/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const testSecret = "test-secret-key-12345678901234567890123456789012"

// testEnv is a fully wired server over in-memory SQLite and miniredis.
type testEnv struct {
	srv *Server
	app *fiber.App
	db  *gorm.DB
	mr  *miniredis.Miniredis
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, db.AutoMigrate(database.PersistentModels()...))

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	cfg := &config.Config{JWTSecret: testSecret, Env: "test"}
	srv, err := NewServerWithDeps(cfg, db, rdb)
	require.NoError(t, err)

	return &testEnv{srv: srv, app: srv.NewApp(), db: db, mr: mr}
}

func (e *testEnv) createUser(t *testing.T, username string, roles ...string) *models.User {
	t.Helper()
	if len(roles) == 0 {
		roles = []string{models.RoleUser}
	}
	hash, err := bcrypt.GenerateFromPassword([]byte("Sup3rSecret"), bcrypt.MinCost)
	require.NoError(t, err)
	user := &models.User{
		Username: username,
		Email:    username + "@example.com",
		Password: string(hash),
		Roles:    roles,
	}
	require.NoError(t, e.db.Create(user).Error)
	return user
}

func (e *testEnv) createGame(t *testing.T, slug string, genres ...string) *models.Game {
	t.Helper()
	game := &models.Game{Slug: slug, Title: "Title " + slug, Genres: genres}
	require.NoError(t, e.db.Create(game).Error)
	return game
}

func (e *testEnv) token(t *testing.T, user *models.User) string {
	t.Helper()
	signed, _, err := middleware.IssueToken(testSecret, user.ID, user.Username, user.Roles, time.Hour)
	require.NoError(t, err)
	return signed
}

// do sends a JSON request and decodes the JSON response body, if any.
func (e *testEnv) do(t *testing.T, method, path string, body any, token string) (int, map[string]any) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		switch b := body.(type) {
		case string:
			reader = bytes.NewBufferString(b)
		default:
			raw, err := json.Marshal(b)
			require.NoError(t, err)
			reader = bytes.NewReader(raw)
		}
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	out := map[string]any{}
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(raw) > 0 && raw[0] == '{' {
		require.NoError(t, json.Unmarshal(raw, &out), string(raw))
	}
	return resp.StatusCode, out
}

func reviewBody(gameID uint) map[string]any {
	return map[string]any{
		"gameId": gameID,
		"rating": 9.5,
		"bodyMd": "A thoroughly enjoyable campaign with tight controls and a memorable soundtrack.",
		"pros":   []string{"A"},
		"cons":   []string{"B"},
	}
}

func idOf(t *testing.T, m map[string]any) uint {
	t.Helper()
	v, ok := m["id"].(float64)
	require.True(t, ok, fmt.Sprintf("no id in %v", m))
	return uint(v)
}

func paginationOf(t *testing.T, m map[string]any) map[string]any {
	t.Helper()
	p, ok := m["pagination"].(map[string]any)
	require.True(t, ok, fmt.Sprintf("no pagination in %v", m))
	return p
}
