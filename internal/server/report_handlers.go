package server

import (
	"strings"

	"respawn/internal/service"

	"github.com/gofiber/fiber/v2"
)

// CreateReport handles POST /api/reports
// @Summary Report content
// @Tags reports
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body service.CreateReportInput true "Report"
// @Success 201 {object} models.Report
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /reports [post]
func (s *Server) CreateReport(c *fiber.Ctx) error {
	var req service.CreateReportInput
	if err := parseBody(c, &req); err != nil {
		return nil
	}
	req.ReporterID = currentUserID(c)
	req.TargetType = strings.ToUpper(req.TargetType)

	report, err := s.reportService.CreateReport(c.UserContext(), req)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(report)
}

// AdminGetReports handles GET /api/admin/reports
// @Summary Report queue
// @Description Newest first with reporter and a preview of the reported content
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param status query string false "Status filter"
// @Param targetType query string false "Target type filter"
// @Param page query int false "Page" default(1)
// @Param limit query int false "Page size" default(20)
// @Success 200 {object} object{reports=[]models.Report,pagination=PageMeta}
// @Router /admin/reports [get]
func (s *Server) AdminGetReports(c *fiber.Ctx) error {
	p := parsePagination(c, 20)
	reports, total, err := s.reportService.ListReports(c.UserContext(), service.ReportQuery{
		Status:     c.Query("status"),
		TargetType: c.Query("targetType"),
		Page:       p.Page,
		Limit:      p.Limit,
	})
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{"reports": reports, "pagination": p.meta(total)})
}

// AdminUpdateReportStatus handles PUT /api/admin/reports/:id/status
// @Summary Change report status
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Report ID"
// @Param request body object{status=string} true "PENDING, INVESTIGATING, RESOLVED or DISMISSED"
// @Success 200 {object} object{message=string,report=models.Report}
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /admin/reports/{id}/status [put]
func (s *Server) AdminUpdateReportStatus(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	var req struct {
		Status string `json:"status"`
	}
	if err := parseBody(c, &req); err != nil {
		return nil
	}
	status := strings.ToUpper(strings.TrimSpace(req.Status))

	report, err := s.reportService.UpdateStatus(c.UserContext(), currentUserID(c), id, status)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{
		"message": "Report status updated to " + status,
		"report":  report,
	})
}

// AdminDeleteReport handles DELETE /api/admin/reports/:id
// @Summary Delete report
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param id path int true "Report ID"
// @Success 200 {object} object{message=string}
// @Failure 404 {object} models.ErrorResponse
// @Router /admin/reports/{id} [delete]
func (s *Server) AdminDeleteReport(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	if err := s.reportService.DeleteReport(c.UserContext(), currentUserID(c), id); err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Report deleted successfully"})
}
