package server

import (
	"strings"

	"respawn/internal/featureflags"
	"respawn/internal/service"

	"github.com/gofiber/fiber/v2"
)

// GetGames handles GET /api/games
// @Summary List games
// @Description Paginated catalog with review count and average rating
// @Tags games
// @Produce json
// @Param page query int false "Page" default(1)
// @Param limit query int false "Page size" default(12)
// @Param q query string false "Title search"
// @Param genre query string false "Genre filter"
// @Success 200 {object} object{games=[]models.GameWithStats,pagination=PageMeta}
// @Router /games [get]
func (s *Server) GetGames(c *fiber.Ctx) error {
	p := parsePagination(c, 12)
	query := strings.TrimSpace(c.Query("q"))
	if !s.featureFlags.Enabled(featureflags.GameSearch, currentUserID(c)) {
		query = ""
	}
	games, total, err := s.gameService.ListGames(c.UserContext(), query, strings.TrimSpace(c.Query("genre")), p.Page, p.Limit)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{"games": games, "pagination": p.meta(total)})
}

// GetGame handles GET /api/games/:slug
// @Summary Get game
// @Tags games
// @Produce json
// @Param slug path string true "Game slug"
// @Success 200 {object} models.GameWithStats
// @Failure 404 {object} models.ErrorResponse
// @Router /games/{slug} [get]
func (s *Server) GetGame(c *fiber.Ctx) error {
	game, err := s.gameService.GetBySlug(c.UserContext(), c.Params("slug"))
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(game)
}

// AdminGetGames handles GET /api/admin/games
// @Summary List games for administration
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page" default(1)
// @Param limit query int false "Page size" default(20)
// @Param q query string false "Title search"
// @Success 200 {object} object{games=[]models.GameWithStats,pagination=PageMeta}
// @Router /admin/games [get]
func (s *Server) AdminGetGames(c *fiber.Ctx) error {
	p := parsePagination(c, 20)
	games, total, err := s.gameService.ListGames(c.UserContext(), strings.TrimSpace(c.Query("q")), "", p.Page, p.Limit)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{"games": games, "pagination": p.meta(total)})
}

// AdminCreateGame handles POST /api/admin/games
// @Summary Create game
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body service.GameInput true "Game"
// @Success 201 {object} models.Game
// @Failure 400 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /admin/games [post]
func (s *Server) AdminCreateGame(c *fiber.Ctx) error {
	var req service.GameInput
	if err := parseBody(c, &req); err != nil {
		return nil
	}
	req.ActorID = currentUserID(c)

	game, err := s.gameService.CreateGame(c.UserContext(), req)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(game)
}

// AdminUpdateGame handles PUT /api/admin/games/:id
// @Summary Update game
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Game ID"
// @Param request body service.GameInput true "Game"
// @Success 200 {object} models.Game
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /admin/games/{id} [put]
func (s *Server) AdminUpdateGame(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	var req service.GameInput
	if err := parseBody(c, &req); err != nil {
		return nil
	}
	req.ActorID = currentUserID(c)

	game, err := s.gameService.UpdateGame(c.UserContext(), id, req)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(game)
}

// AdminDeleteGame handles DELETE /api/admin/games/:id
// @Summary Delete game
// @Description Games that still have reviews cannot be deleted
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param id path int true "Game ID"
// @Success 200 {object} object{message=string}
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /admin/games/{id} [delete]
func (s *Server) AdminDeleteGame(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	if err := s.gameService.DeleteGame(c.UserContext(), currentUserID(c), id); err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Game deleted successfully"})
}
