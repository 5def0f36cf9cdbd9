package server

import (
	"context"
	"errors"
	"time"

	"respawn/internal/middleware"
	"respawn/internal/models"
	"respawn/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

// AuthRequired validates the bearer token and rejects revoked sessions.
func (s *Server) AuthRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		claims, err := s.authenticate(c)
		if err != nil {
			return models.RespondWithError(c, fiber.StatusUnauthorized, err)
		}
		s.setSession(c, claims)
		return c.Next()
	}
}

// OptionalAuth attaches the session when a valid token is present and
// otherwise lets the request through anonymously.
func (s *Server) OptionalAuth() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if middleware.BearerToken(c.Get(fiber.HeaderAuthorization)) == "" {
			return c.Next()
		}
		if claims, err := s.authenticate(c); err == nil {
			s.setSession(c, claims)
		}
		return c.Next()
	}
}

func (s *Server) authenticate(c *fiber.Ctx) (*middleware.TokenClaims, error) {
	token := middleware.BearerToken(c.Get(fiber.HeaderAuthorization))
	if token == "" {
		return nil, models.NewUnauthorizedError("Missing or malformed token")
	}

	claims, err := middleware.ParseToken(s.config.JWTSecret, token)
	if err != nil {
		return nil, models.NewUnauthorizedError("Invalid or expired token")
	}

	if s.redis != nil && claims.JTI != "" {
		n, rerr := s.redis.Exists(c.UserContext(), service.BlacklistKey(claims.JTI)).Result()
		if rerr != nil && !errors.Is(rerr, redis.Nil) {
			middleware.Logger.WarnContext(c.UserContext(), "blacklist lookup failed", "error", rerr)
		}
		if n > 0 {
			return nil, models.NewUnauthorizedError("Token has been revoked")
		}
	}
	return claims, nil
}

func (s *Server) setSession(c *fiber.Ctx, claims *middleware.TokenClaims) {
	c.Locals("userID", claims.UserID)
	c.Locals("jti", claims.JTI)
	c.Locals("tokenExp", claims.ExpiresAt)
	c.SetUserContext(context.WithValue(c.UserContext(), middleware.UserIDKey, claims.UserID))
}

// ActiveUserRequired blocks mutations from banned or deleted accounts.
func (s *Server) ActiveUserRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if isReadMethod(c.Method()) {
			return c.Next()
		}
		user, err := s.userRepo.GetByID(c.UserContext(), currentUserID(c))
		if err != nil {
			if models.HasCode(err, models.CodeNotFound) {
				return models.RespondWithError(c, fiber.StatusUnauthorized,
					models.NewUnauthorizedError("Account no longer exists"))
			}
			return respondServiceError(c, err)
		}
		if user.IsBanned {
			return models.RespondWithError(c, fiber.StatusForbidden,
				models.NewForbiddenError("Account is banned"))
		}
		return c.Next()
	}
}

// AdminRequired re-reads the caller's roles and requires ADMIN.
func (s *Server) AdminRequired() fiber.Handler {
	return s.roleRequired(s.userService.IsAdmin, "Admin access required")
}

// StaffRequired requires ADMIN or MODERATOR.
func (s *Server) StaffRequired() fiber.Handler {
	return s.roleRequired(s.userService.IsStaff, "Moderator access required")
}

func (s *Server) roleRequired(check service.RoleCheck, message string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ok, err := check(c.UserContext(), currentUserID(c))
		if err != nil && !models.HasCode(err, models.CodeNotFound) {
			return respondServiceError(c, err)
		}
		if !ok {
			return models.RespondWithError(c, fiber.StatusForbidden, models.NewForbiddenError(message))
		}
		return c.Next()
	}
}

// MaintenanceGuard answers 503 to every write except login and admin
// traffic while settings.system.maintenanceMode is on.
func (s *Server) MaintenanceGuard() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if isReadMethod(c.Method()) || c.Path() == "/api/auth/login" {
			return c.Next()
		}
		settings, err := s.settingsService.Load(c.UserContext())
		if err != nil || !settings.System.MaintenanceMode {
			return c.Next()
		}

		if claims, aerr := s.authenticate(c); aerr == nil {
			ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
			admin, _ := s.userService.IsAdmin(ctx, claims.UserID)
			cancel()
			if admin {
				return c.Next()
			}
		}

		return models.RespondWithError(c, fiber.StatusServiceUnavailable,
			models.NewUnavailableError("The site is in maintenance mode"))
	}
}

func isReadMethod(method string) bool {
	switch method {
	case fiber.MethodGet, fiber.MethodHead, fiber.MethodOptions:
		return true
	}
	return false
}
