package server

import (
	"strings"

	"respawn/internal/models"
	"respawn/internal/service"

	"github.com/gofiber/fiber/v2"
)

// GetCommunityStats handles GET /api/community/stats
// @Summary Community statistics
// @Tags community
// @Produce json
// @Success 200 {object} service.CommunityStats
// @Router /community/stats [get]
func (s *Server) GetCommunityStats(c *fiber.Ctx) error {
	stats, err := s.analyticsService.CommunityStats(c.UserContext())
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(stats)
}

// AdminGetAnalytics handles GET /api/admin/analytics
// @Summary Platform analytics
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param range query string false "7d, 30d, 90d or 1y" default(30d)
// @Success 200 {object} service.Analytics
// @Failure 400 {object} models.ErrorResponse
// @Router /admin/analytics [get]
func (s *Server) AdminGetAnalytics(c *fiber.Ctx) error {
	analytics, err := s.analyticsService.Analytics(c.UserContext(), c.Query("range", "30d"))
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(analytics)
}

// AdminGetUsers handles GET /api/admin/users
// @Summary List users
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param q query string false "Username or email search"
// @Param page query int false "Page" default(1)
// @Param limit query int false "Page size" default(20)
// @Success 200 {object} object{users=[]models.UserProfile,pagination=PageMeta}
// @Router /admin/users [get]
func (s *Server) AdminGetUsers(c *fiber.Ctx) error {
	p := parsePagination(c, 20)
	users, total, err := s.userService.ListUsers(c.UserContext(), strings.TrimSpace(c.Query("q")), p.Page, p.Limit)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{"users": users, "pagination": p.meta(total)})
}

// AdminUpdateUser handles PUT /api/admin/users/:id
// @Summary Update user account
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "User ID"
// @Param request body service.AdminUpdateUserInput true "Account fields"
// @Success 200 {object} models.User
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /admin/users/{id} [put]
func (s *Server) AdminUpdateUser(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	var req service.AdminUpdateUserInput
	if err := parseBody(c, &req); err != nil {
		return nil
	}
	req.ActorID = currentUserID(c)
	req.UserID = id

	user, err := s.userService.AdminUpdateUser(c.UserContext(), req)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(user)
}

// AdminDeleteUser handles DELETE /api/admin/users/:id
// @Summary Delete user
// @Description Users who still own reviews or lists cannot be deleted
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param id path int true "User ID"
// @Success 200 {object} object{message=string}
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /admin/users/{id} [delete]
func (s *Server) AdminDeleteUser(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	if err := s.userService.DeleteUser(c.UserContext(), currentUserID(c), id); err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{"message": "User deleted successfully"})
}

// AdminBanUser handles PUT /api/admin/users/:id/ban
// @Summary Ban or unban user
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "User ID"
// @Param request body object{isBanned=bool} true "Ban flag"
// @Success 200 {object} object{message=string,user=models.User}
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /admin/users/{id}/ban [put]
func (s *Server) AdminBanUser(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	var req struct {
		IsBanned *bool `json:"isBanned"`
	}
	if err := parseBody(c, &req); err != nil {
		return nil
	}
	if req.IsBanned == nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("isBanned must be a boolean"))
	}

	user, err := s.userService.SetBanned(c.UserContext(), currentUserID(c), id, *req.IsBanned)
	if err != nil {
		return respondServiceError(c, err)
	}
	message := "User unbanned"
	if user.IsBanned {
		message = "User banned"
	}
	return c.JSON(fiber.Map{"message": message, "user": user})
}

// AdminVerifyUser handles PUT /api/admin/users/:id/verify
// @Summary Verify or unverify user
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "User ID"
// @Param request body object{isVerified=bool} true "Verified flag"
// @Success 200 {object} object{message=string,user=models.User}
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /admin/users/{id}/verify [put]
func (s *Server) AdminVerifyUser(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	var req struct {
		IsVerified *bool `json:"isVerified"`
	}
	if err := parseBody(c, &req); err != nil {
		return nil
	}
	if req.IsVerified == nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("isVerified must be a boolean"))
	}

	user, err := s.userService.SetVerified(c.UserContext(), currentUserID(c), id, *req.IsVerified)
	if err != nil {
		return respondServiceError(c, err)
	}
	message := "User unverified"
	if user.IsVerified {
		message = "User verified"
	}
	return c.JSON(fiber.Map{"message": message, "user": user})
}

// AdminGetSettings handles GET /api/admin/settings
// @Summary Platform settings
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.Settings
// @Router /admin/settings [get]
func (s *Server) AdminGetSettings(c *fiber.Ctx) error {
	settings, err := s.settingsService.Load(c.UserContext())
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(settings)
}

// AdminUpdateSettings handles PUT /api/admin/settings
// @Summary Replace platform settings
// @Description All four categories are required; numeric values are clamped
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body models.Settings true "Settings"
// @Success 200 {object} object{message=string,settings=models.Settings}
// @Failure 400 {object} models.ErrorResponse
// @Router /admin/settings [put]
func (s *Server) AdminUpdateSettings(c *fiber.Ctx) error {
	var req struct {
		Moderation *models.ModerationSettings `json:"moderation"`
		Content    *models.ContentSettings    `json:"content"`
		User       *models.UserSettings       `json:"user"`
		System     *models.SystemSettings     `json:"system"`
	}
	if err := parseBody(c, &req); err != nil {
		return nil
	}
	if req.Moderation == nil || req.Content == nil || req.User == nil || req.System == nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("moderation, content, user and system settings are all required"))
	}

	saved, err := s.settingsService.Save(c.UserContext(), currentUserID(c), models.Settings{
		Moderation: *req.Moderation,
		Content:    *req.Content,
		User:       *req.User,
		System:     *req.System,
	})
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Settings updated successfully", "settings": saved})
}

// AdminGetAuditLogs handles GET /api/admin/audit-logs
// @Summary Audit trail
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param action query string false "Action filter"
// @Param page query int false "Page" default(1)
// @Param limit query int false "Page size" default(50)
// @Success 200 {object} object{logs=[]models.AuditLog,pagination=PageMeta}
// @Router /admin/audit-logs [get]
func (s *Server) AdminGetAuditLogs(c *fiber.Ctx) error {
	p := parsePagination(c, 50)
	logs, total, err := s.auditService.List(c.UserContext(), strings.TrimSpace(c.Query("action")), p.Page, p.Limit)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{"logs": logs, "pagination": p.meta(total)})
}
