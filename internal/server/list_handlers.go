package server

import (
	"strings"

	"respawn/internal/service"

	"github.com/gofiber/fiber/v2"
)

// GetLists handles GET /api/lists
// @Summary Browse lists
// @Description Public lists, plus the caller's own when userId is the caller
// @Tags lists
// @Produce json
// @Param page query int false "Page" default(1)
// @Param limit query int false "Page size" default(12)
// @Param userId query int false "Owner filter"
// @Success 200 {object} object{lists=[]models.List,pagination=PageMeta}
// @Router /lists [get]
func (s *Server) GetLists(c *fiber.Ctx) error {
	p := parsePagination(c, 12)
	ownerID, err := queryID(c, "userId")
	if err != nil {
		return respondServiceError(c, err)
	}

	lists, total, err := s.listService.ListLists(c.UserContext(), ownerID, currentUserID(c), p.Page, p.Limit)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{"lists": lists, "pagination": p.meta(total)})
}

// GetList handles GET /api/lists/:id
// @Summary Get list
// @Tags lists
// @Produce json
// @Param id path int true "List ID"
// @Success 200 {object} models.List
// @Failure 404 {object} models.ErrorResponse
// @Router /lists/{id} [get]
func (s *Server) GetList(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	list, err := s.listService.GetList(c.UserContext(), currentUserID(c), id)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(list)
}

// CreateList handles POST /api/lists
// @Summary Create list
// @Tags lists
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body service.ListInput true "List"
// @Success 201 {object} models.List
// @Failure 400 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Router /lists [post]
func (s *Server) CreateList(c *fiber.Ctx) error {
	var req service.ListInput
	if err := parseBody(c, &req); err != nil {
		return nil
	}
	req.UserID = currentUserID(c)
	req.Visibility = strings.ToUpper(req.Visibility)

	list, err := s.listService.CreateList(c.UserContext(), req)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(list)
}

// UpdateList handles PUT /api/lists/:id
// @Summary Update list
// @Tags lists
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "List ID"
// @Param request body service.ListInput true "List"
// @Success 200 {object} models.List
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /lists/{id} [put]
func (s *Server) UpdateList(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	var req service.ListInput
	if err := parseBody(c, &req); err != nil {
		return nil
	}
	req.UserID = currentUserID(c)
	req.Visibility = strings.ToUpper(req.Visibility)

	list, err := s.listService.UpdateList(c.UserContext(), id, req)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(list)
}

// DeleteList handles DELETE /api/lists/:id
// @Summary Delete list
// @Tags lists
// @Produce json
// @Security BearerAuth
// @Param id path int true "List ID"
// @Success 200 {object} object{message=string}
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /lists/{id} [delete]
func (s *Server) DeleteList(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	if err := s.listService.DeleteList(c.UserContext(), currentUserID(c), id); err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{"message": "List deleted successfully"})
}

// AddListItem handles POST /api/lists/:id/items
// @Summary Add game to list
// @Tags lists
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "List ID"
// @Param request body service.AddListItemInput true "Item"
// @Success 201 {object} models.ListItem
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /lists/{id}/items [post]
func (s *Server) AddListItem(c *fiber.Ctx) error {
	listID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	var req service.AddListItemInput
	if err := parseBody(c, &req); err != nil {
		return nil
	}
	req.UserID = currentUserID(c)
	req.ListID = listID

	item, err := s.listService.AddItem(c.UserContext(), req)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(item)
}

// ReorderListItems handles PUT /api/lists/:id/items
// @Summary Reorder list items
// @Tags lists
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "List ID"
// @Param request body service.ReorderInput true "Game IDs in the new order"
// @Success 200 {object} models.List
// @Failure 400 {object} models.ErrorResponse
// @Router /lists/{id}/items [put]
func (s *Server) ReorderListItems(c *fiber.Ctx) error {
	listID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	var req service.ReorderInput
	if err := parseBody(c, &req); err != nil {
		return nil
	}
	req.UserID = currentUserID(c)
	req.ListID = listID

	list, err := s.listService.Reorder(c.UserContext(), req)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(list)
}

// RemoveListItem handles DELETE /api/lists/:id/items/:gameId
// @Summary Remove game from list
// @Tags lists
// @Produce json
// @Security BearerAuth
// @Param id path int true "List ID"
// @Param gameId path int true "Game ID"
// @Success 200 {object} object{message=string}
// @Failure 404 {object} models.ErrorResponse
// @Router /lists/{id}/items/{gameId} [delete]
func (s *Server) RemoveListItem(c *fiber.Ctx) error {
	listID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	gameID, err := s.parseID(c, "gameId")
	if err != nil {
		return nil
	}
	if err := s.listService.RemoveItem(c.UserContext(), currentUserID(c), listID, gameID); err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Game removed from list"})
}
