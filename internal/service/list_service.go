package service

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"respawn/internal/models"
	"respawn/internal/observability"
	"respawn/internal/repository"
	"respawn/internal/validation"
)

// ListService manages user game lists and their ordered items.
type ListService struct {
	listRepo repository.ListRepository
	gameRepo repository.GameRepository
	settings SettingsLoader
	isAdmin  RoleCheck
}

type ListInput struct {
	UserID      uint   `json:"-"`
	Title       string `json:"title" validate:"required,max=100"`
	Description string `json:"description" validate:"max=500"`
	Visibility  string `json:"visibility" validate:"omitempty,oneof=PRIVATE PUBLIC UNLISTED"`
}

type AddListItemInput struct {
	UserID uint   `json:"-"`
	ListID uint   `json:"-"`
	GameID uint   `json:"gameId" validate:"required"`
	Note   string `json:"note" validate:"max=500"`
}

type ReorderInput struct {
	UserID  uint   `json:"-"`
	ListID  uint   `json:"-"`
	GameIDs []uint `json:"gameIds" validate:"required"`
}

func NewListService(
	listRepo repository.ListRepository,
	gameRepo repository.GameRepository,
	settings SettingsLoader,
	isAdmin RoleCheck,
) *ListService {
	return &ListService{
		listRepo: listRepo,
		gameRepo: gameRepo,
		settings: settings,
		isAdmin:  isAdmin,
	}
}

// ListLists returns PUBLIC lists, plus every list of ownerID when the viewer is that owner.
func (s *ListService) ListLists(ctx context.Context, ownerID, viewerID uint, page, limit int) ([]models.List, int64, error) {
	filter := repository.ListFilter{OwnerID: ownerID, ViewerID: viewerID}
	return s.listRepo.List(ctx, filter, limit, pageOffset(page, limit))
}

// GetList hides PRIVATE lists from everyone but the owner and admins by
// reporting them as missing.
func (s *ListService) GetList(ctx context.Context, viewerID, id uint) (*models.List, error) {
	list, err := s.listRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if list.Visibility != models.ListVisibilityPrivate {
		return list, nil
	}
	if viewerID != 0 {
		allowed, err := ensureOwnerOr(ctx, s.isAdmin, list.UserID, viewerID)
		if err != nil {
			return nil, err
		}
		if allowed {
			return list, nil
		}
	}
	return nil, models.NewNotFoundError("List", id)
}

func (s *ListService) CreateList(ctx context.Context, in ListInput) (*models.List, error) {
	in.Title = strings.TrimSpace(in.Title)
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	settings, err := s.settings.Load(ctx)
	if err != nil {
		return nil, err
	}
	if !settings.Content.AllowUserGeneratedLists {
		return nil, models.NewForbiddenError("Creating lists is currently disabled")
	}

	list := &models.List{
		UserID:      in.UserID,
		Title:       in.Title,
		Description: in.Description,
		Visibility:  in.Visibility,
	}
	if list.Visibility == "" {
		list.Visibility = models.ListVisibilityPrivate
	}
	if err := s.listRepo.Create(ctx, list); err != nil {
		return nil, err
	}
	observability.RecordEvent(observability.EventListCreated)
	return s.listRepo.GetByID(ctx, list.ID)
}

func (s *ListService) UpdateList(ctx context.Context, id uint, in ListInput) (*models.List, error) {
	list, err := s.owned(ctx, in.UserID, id, "edit")
	if err != nil {
		return nil, err
	}
	in.Title = strings.TrimSpace(in.Title)
	if err := validation.Struct(in); err != nil {
		return nil, err
	}

	list.Title = in.Title
	list.Description = in.Description
	if in.Visibility != "" {
		list.Visibility = in.Visibility
	}
	if err := s.listRepo.Update(ctx, list); err != nil {
		return nil, err
	}
	return s.listRepo.GetByID(ctx, id)
}

func (s *ListService) DeleteList(ctx context.Context, userID, id uint) error {
	if _, err := s.owned(ctx, userID, id, "delete"); err != nil {
		return err
	}
	return s.listRepo.Delete(ctx, id)
}

func (s *ListService) AddItem(ctx context.Context, in AddListItemInput) (*models.ListItem, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	if _, err := s.owned(ctx, in.UserID, in.ListID, "edit"); err != nil {
		return nil, err
	}
	game, err := s.gameRepo.GetByID(ctx, in.GameID)
	if err != nil {
		return nil, err
	}

	settings, err := s.settings.Load(ctx)
	if err != nil {
		return nil, err
	}
	count, err := s.listRepo.CountItems(ctx, in.ListID)
	if err != nil {
		return nil, err
	}
	if count >= int64(settings.Content.MaxGamesPerList) {
		return nil, models.NewValidationError(fmt.Sprintf("List is full (max %d games)", settings.Content.MaxGamesPerList))
	}

	item := &models.ListItem{ListID: in.ListID, GameID: in.GameID, Note: in.Note}
	if err := s.listRepo.AddItem(ctx, item); err != nil {
		return nil, err
	}
	item.Game = &models.GameSummary{ID: game.ID, Title: game.Title, Slug: game.Slug, CoverURL: game.CoverURL}
	return item, nil
}

func (s *ListService) RemoveItem(ctx context.Context, userID, listID, gameID uint) error {
	if _, err := s.owned(ctx, userID, listID, "edit"); err != nil {
		return err
	}
	return s.listRepo.RemoveItem(ctx, listID, gameID)
}

// Reorder requires gameIDs to be a permutation of the list's current games.
func (s *ListService) Reorder(ctx context.Context, in ReorderInput) (*models.List, error) {
	if _, err := s.owned(ctx, in.UserID, in.ListID, "edit"); err != nil {
		return nil, err
	}
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	current, err := s.listRepo.ItemGameIDs(ctx, in.ListID)
	if err != nil {
		return nil, err
	}
	if !samePermutation(current, in.GameIDs) {
		return nil, models.NewValidationError("gameIds must contain exactly the games in the list")
	}
	if err := s.listRepo.Reorder(ctx, in.ListID, in.GameIDs); err != nil {
		return nil, err
	}
	return s.listRepo.GetByID(ctx, in.ListID)
}

func (s *ListService) owned(ctx context.Context, userID, listID uint, verb string) (*models.List, error) {
	list, err := s.listRepo.GetByID(ctx, listID)
	if err != nil {
		return nil, err
	}
	allowed, err := ensureOwnerOr(ctx, s.isAdmin, list.UserID, userID)
	if err != nil {
		return nil, err
	}
	if !allowed {
		if list.Visibility == models.ListVisibilityPrivate {
			return nil, models.NewNotFoundError("List", listID)
		}
		return nil, models.NewForbiddenError("You can only " + verb + " your own lists")
	}
	list.User, list.Items = nil, nil
	return list, nil
}

func samePermutation(current, proposed []uint) bool {
	if len(current) != len(proposed) {
		return false
	}
	a := slices.Clone(current)
	b := slices.Clone(proposed)
	slices.Sort(a)
	slices.Sort(b)
	return slices.Equal(a, b)
}
