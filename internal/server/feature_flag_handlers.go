package server

import (
	"respawn/internal/models"

	"github.com/gofiber/fiber/v2"
)

// GetFeatureFlags returns configured rollouts and their state for the current user.
// @Summary Feature flags
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} object{rollouts=map[string]string,evaluated=map[string]bool,invalid=[]string}
// @Router /admin/feature-flags [get]
func (s *Server) GetFeatureFlags(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"rollouts":  s.featureFlags.Rollouts(),
		"evaluated": s.featureFlags.Snapshot(currentUserID(c)),
		"invalid":   s.featureFlags.Invalid(),
	})
}

// FeatureGate answers 404 when flag is disabled for the caller.
func (s *Server) FeatureGate(flag string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !s.featureFlags.Enabled(flag, currentUserID(c)) {
			return models.RespondWithError(c, fiber.StatusNotFound,
				&models.AppError{Code: models.CodeNotFound, Message: "This feature is not available"})
		}
		return c.Next()
	}
}
