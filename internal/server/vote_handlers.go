package server

import (
	"strings"

	"respawn/internal/models"
	"respawn/internal/service"

	"github.com/gofiber/fiber/v2"
)

// CastVote handles POST /api/votes
// @Summary Vote on a review or comment
// @Tags votes
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body service.VoteInput true "Vote"
// @Success 201 {object} models.Vote
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /votes [post]
func (s *Server) CastVote(c *fiber.Ctx) error {
	var req service.VoteInput
	if err := parseBody(c, &req); err != nil {
		return nil
	}
	req.UserID = currentUserID(c)
	req.TargetType = strings.ToUpper(req.TargetType)

	vote, err := s.voteService.Cast(c.UserContext(), req)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(vote)
}

// ChangeVote handles PUT /api/votes
// @Summary Change an existing vote
// @Tags votes
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body service.VoteInput true "Vote"
// @Success 200 {object} models.Vote
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /votes [put]
func (s *Server) ChangeVote(c *fiber.Ctx) error {
	var req service.VoteInput
	if err := parseBody(c, &req); err != nil {
		return nil
	}
	req.UserID = currentUserID(c)
	req.TargetType = strings.ToUpper(req.TargetType)

	vote, err := s.voteService.Change(c.UserContext(), req)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(vote)
}

// RemoveVote handles DELETE /api/votes
// @Summary Remove the caller's vote
// @Tags votes
// @Produce json
// @Security BearerAuth
// @Param targetType query string true "REVIEW or COMMENT"
// @Param targetId query int true "Target ID"
// @Success 200 {object} object{message=string,tally=models.VoteTally}
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /votes [delete]
func (s *Server) RemoveVote(c *fiber.Ctx) error {
	targetType := strings.ToUpper(strings.TrimSpace(c.Query("targetType")))
	targetID, err := queryID(c, "targetId")
	if err == nil && targetID == 0 {
		err = models.NewValidationError("targetId is required")
	}
	if err != nil {
		return respondServiceError(c, err)
	}

	ctx := c.UserContext()
	if err := s.voteService.Remove(ctx, currentUserID(c), targetType, targetID); err != nil {
		return respondServiceError(c, err)
	}
	tally, err := s.voteService.Tally(ctx, targetType, targetID)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Vote removed", "tally": tally})
}
