package server

import (
	"strings"

	"respawn/internal/service"

	"github.com/gofiber/fiber/v2"
)

// GetReviews handles GET /api/reviews
// @Summary List reviews
// @Description Newest first. Without status only published and approved reviews are listed.
// @Tags reviews
// @Produce json
// @Param page query int false "Page" default(1)
// @Param limit query int false "Page size" default(10)
// @Param gameId query int false "Filter by game"
// @Param userId query int false "Filter by author"
// @Param status query string false "Exact status filter"
// @Success 200 {object} object{reviews=[]models.Review,pagination=PageMeta}
// @Failure 400 {object} models.ErrorResponse
// @Router /reviews [get]
func (s *Server) GetReviews(c *fiber.Ctx) error {
	p := parsePagination(c, 10)
	gameID, err := queryID(c, "gameId")
	if err != nil {
		return respondServiceError(c, err)
	}
	userID, err := queryID(c, "userId")
	if err != nil {
		return respondServiceError(c, err)
	}

	reviews, total, err := s.reviewService.ListReviews(c.UserContext(), service.ReviewQuery{
		GameID: gameID,
		UserID: userID,
		Status: c.Query("status"),
		Page:   p.Page,
		Limit:  p.Limit,
	})
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{"reviews": reviews, "pagination": p.meta(total)})
}

// GetReview handles GET /api/reviews/:id
// @Summary Get review
// @Tags reviews
// @Produce json
// @Param id path int true "Review ID"
// @Success 200 {object} models.Review
// @Failure 404 {object} models.ErrorResponse
// @Router /reviews/{id} [get]
func (s *Server) GetReview(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	review, err := s.reviewService.GetReview(c.UserContext(), id)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(review)
}

// CreateReview handles POST /api/reviews
// @Summary Create review
// @Tags reviews
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body service.CreateReviewInput true "Review"
// @Success 201 {object} models.Review
// @Failure 400 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /reviews [post]
func (s *Server) CreateReview(c *fiber.Ctx) error {
	var req service.CreateReviewInput
	if err := parseBody(c, &req); err != nil {
		return nil
	}
	req.UserID = currentUserID(c)

	review, err := s.reviewService.CreateReview(c.UserContext(), req)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(review)
}

// UpdateReview handles PUT /api/reviews/:id
// @Summary Update review
// @Tags reviews
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Review ID"
// @Param request body service.UpdateReviewInput true "Fields to change"
// @Success 200 {object} models.Review
// @Failure 400 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /reviews/{id} [put]
func (s *Server) UpdateReview(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	var req service.UpdateReviewInput
	if err := parseBody(c, &req); err != nil {
		return nil
	}
	req.ActorID = currentUserID(c)
	req.ReviewID = id

	review, err := s.reviewService.UpdateReview(c.UserContext(), req)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(review)
}

// DeleteReview handles DELETE /api/reviews/:id
// @Summary Delete review
// @Tags reviews
// @Produce json
// @Security BearerAuth
// @Param id path int true "Review ID"
// @Success 200 {object} object{message=string}
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /reviews/{id} [delete]
func (s *Server) DeleteReview(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	if err := s.reviewService.DeleteReview(c.UserContext(), currentUserID(c), id); err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Review deleted successfully"})
}

// AdminGetReviews handles GET /api/admin/reviews
// @Summary Moderation queue
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param status query string false "Status filter"
// @Param page query int false "Page" default(1)
// @Param limit query int false "Page size" default(20)
// @Success 200 {object} object{reviews=[]models.Review,pagination=PageMeta}
// @Router /admin/reviews [get]
func (s *Server) AdminGetReviews(c *fiber.Ctx) error {
	p := parsePagination(c, 20)
	reviews, total, err := s.reviewService.ListForModeration(c.UserContext(), c.Query("status"), p.Page, p.Limit)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{"reviews": reviews, "pagination": p.meta(total)})
}

// AdminDeleteReview handles DELETE /api/admin/reviews/:id
// @Summary Remove review
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param id path int true "Review ID"
// @Success 200 {object} object{message=string}
// @Failure 404 {object} models.ErrorResponse
// @Router /admin/reviews/{id} [delete]
func (s *Server) AdminDeleteReview(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	if err := s.reviewService.ModerateDelete(c.UserContext(), currentUserID(c), id); err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Review deleted successfully"})
}

// AdminUpdateReviewStatus handles PUT /api/admin/reviews/:id/status
// @Summary Change review status
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Review ID"
// @Param request body object{status=string} true "PENDING, PUBLISHED, APPROVED or REJECTED"
// @Success 200 {object} object{message=string,review=models.Review}
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /admin/reviews/{id}/status [put]
func (s *Server) AdminUpdateReviewStatus(c *fiber.Ctx) error {
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

	review, err := s.reviewService.UpdateStatus(c.UserContext(), currentUserID(c), id, status)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{
		"message": "Review status updated to " + status,
		"review":  review,
	})
}
