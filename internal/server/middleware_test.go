package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"respawn/internal/config"
	"respawn/internal/middleware"
	"respawn/internal/models"
	"respawn/internal/service"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServer_AuthRequired(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	s := &Server{
		config: &config.Config{JWTSecret: testSecret},
		redis:  rdb,
	}
	app := fiber.New()

	app.Get("/protected", s.AuthRequired(), func(c *fiber.Ctx) error {
		userID := c.Locals("userID")
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"userID": userID})
	})

	generateToken := func(userID uint, issuer, audience string, exp time.Duration, jti string) string {
		claims := jwt.MapClaims{
			"sub": strconv.FormatUint(uint64(userID), 10),
			"iss": issuer,
			"aud": audience,
			"exp": time.Now().Add(exp).Unix(),
			"jti": jti,
		}
		token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
		str, _ := token.SignedString([]byte(testSecret))
		return str
	}

	mr.Set(service.BlacklistKey("revoked-jti"), "1")

	tests := []struct {
		name           string
		authHeader     string
		tokenParam     string
		expectedStatus int
	}{
		{
			name:           "Valid Token",
			authHeader:     "Bearer " + generateToken(123, "respawn-api", "respawn-client", time.Hour, "jti-ok"),
			expectedStatus: http.StatusOK,
		},
		{
			name:           "Query Param Not Accepted",
			tokenParam:     generateToken(123, "respawn-api", "respawn-client", time.Hour, "jti-ok"),
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "Expired Token",
			authHeader:     "Bearer " + generateToken(123, "respawn-api", "respawn-client", -time.Hour, "jti-ok"),
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "Invalid Issuer",
			authHeader:     "Bearer " + generateToken(123, "wrong-issuer", "respawn-client", time.Hour, "jti-ok"),
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "Invalid Audience",
			authHeader:     "Bearer " + generateToken(123, "respawn-api", "wrong-audience", time.Hour, "jti-ok"),
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "Revoked Token",
			authHeader:     "Bearer " + generateToken(123, "respawn-api", "respawn-client", time.Hour, "revoked-jti"),
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "Missing Header",
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "Malformed Bearer Format",
			authHeader:     "BearerTokenOnly",
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name: "Numeric Subject",
			authHeader: "Bearer " + func() string {
				claims := jwt.MapClaims{"sub": 123, "iss": "respawn-api", "aud": "respawn-client", "exp": time.Now().Add(time.Hour).Unix()}
				token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
				str, _ := token.SignedString([]byte(testSecret))
				return str
			}(),
			expectedStatus: http.StatusUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := "/protected"
			if tt.tokenParam != "" {
				path += "?token=" + tt.tokenParam
			}
			req := httptest.NewRequest(http.MethodGet, path, nil)
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}

			resp, err := app.Test(req)
			assert.NoError(t, err)
			assert.Equal(t, tt.expectedStatus, resp.StatusCode)

			if tt.expectedStatus == http.StatusOK {
				var body map[string]interface{}
				_ = json.NewDecoder(resp.Body).Decode(&body)
				assert.Equal(t, float64(123), body["userID"])
			}
			_ = resp.Body.Close()
		})
	}
}

func TestServer_OptionalAuth(t *testing.T) {
	s := &Server{config: &config.Config{JWTSecret: testSecret}}
	app := fiber.New()
	app.Get("/lists", s.OptionalAuth(), func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"userID": currentUserID(c)})
	})

	signed, _, err := middleware.IssueToken(testSecret, 9, "viewer", nil, time.Hour)
	require.NoError(t, err)

	tests := []struct {
		name   string
		header string
		want   float64
	}{
		{"anonymous", "", 0},
		{"valid token", "Bearer " + signed, 9},
		{"bad token stays anonymous", "Bearer nope", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/lists", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			resp, err := app.Test(req)
			require.NoError(t, err)
			defer func() { _ = resp.Body.Close() }()

			assert.Equal(t, http.StatusOK, resp.StatusCode)
			var body map[string]float64
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
			assert.Equal(t, tt.want, body["userID"])
		})
	}
}

func TestActiveUserRequired(t *testing.T) {
	env := newTestEnv(t)
	banned := env.createUser(t, "banned_player")
	require.NoError(t, env.db.Model(banned).Update("is_banned", true).Error)
	token := env.token(t, banned)

	// Reads still work for banned accounts.
	status, _ := env.do(t, http.MethodGet, "/api/users/me", nil, token)
	assert.Equal(t, http.StatusOK, status)

	status, body := env.do(t, http.MethodPost, "/api/lists", map[string]any{"title": "Mine"}, token)
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, "Account is banned", body["error"])
}

func TestActiveUserRequired_DeletedAccount(t *testing.T) {
	env := newTestEnv(t)
	ghost := env.createUser(t, "ghost_player")
	token := env.token(t, ghost)
	require.NoError(t, env.db.Delete(ghost).Error)

	status, _ := env.do(t, http.MethodPost, "/api/lists", map[string]any{"title": "Mine"}, token)
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestMaintenanceGuard(t *testing.T) {
	env := newTestEnv(t)
	admin := env.createUser(t, "root_admin", "USER", "ADMIN")
	player := env.createUser(t, "casual_player")
	adminToken, playerToken := env.token(t, admin), env.token(t, player)

	settings, err := env.srv.settingsService.Load(t.Context())
	require.NoError(t, err)
	settings.System.MaintenanceMode = true
	_, err = env.srv.settingsService.Save(t.Context(), admin.ID, settings)
	require.NoError(t, err)

	status, body := env.do(t, http.MethodPost, "/api/lists", map[string]any{"title": "Mine"}, playerToken)
	assert.Equal(t, http.StatusServiceUnavailable, status)
	assert.Equal(t, models.CodeUnavailable, body["code"])

	status, _ = env.do(t, http.MethodPost, "/api/lists", map[string]any{"title": "Admin list"}, adminToken)
	assert.Equal(t, http.StatusCreated, status)

	status, _ = env.do(t, http.MethodGet, "/api/games", nil, "")
	assert.Equal(t, http.StatusOK, status)

	status, _ = env.do(t, http.MethodPost, "/api/auth/login",
		map[string]any{"email": "casual_player@example.com", "password": "Sup3rSecret"}, "")
	assert.Equal(t, http.StatusOK, status)
}
