package service

import (
	"context"
	"strings"
	"time"

	"respawn/internal/models"
	"respawn/internal/repository"
	"respawn/internal/validation"
)

// GameService provides catalog reads and admin catalog management.
type GameService struct {
	gameRepo repository.GameRepository
	audit    *AuditService
}

// GameInput is the admin create/update payload. ReleaseDate accepts
// RFC 3339 or YYYY-MM-DD; an empty string clears it.
type GameInput struct {
	ActorID       uint     `json:"-"`
	Slug          string   `json:"slug" validate:"required,slug"`
	Title         string   `json:"title" validate:"required,max=200"`
	DescriptionMD string   `json:"descriptionMd"`
	Developer     string   `json:"developer" validate:"max=200"`
	Publisher     string   `json:"publisher" validate:"max=200"`
	Genres        []string `json:"genres" validate:"omitempty,dive,required,max=50"`
	Tags          []string `json:"tags" validate:"omitempty,dive,required,max=50"`
	Platforms     []string `json:"platforms" validate:"omitempty,dive,required,max=50"`
	CoverURL      string   `json:"coverUrl" validate:"omitempty,max=2048"`
	TrailerURL    string   `json:"trailerUrl" validate:"omitempty,max=2048"`
	ESRBRating    string   `json:"esrbRating" validate:"max=16"`
	CriticScore   *int     `json:"criticScore" validate:"omitempty,gte=0,lte=100"`
	ReleaseDate   string   `json:"releaseDate"`
}

// NewGameService returns a new GameService.
func NewGameService(gameRepo repository.GameRepository, audit *AuditService) *GameService {
	return &GameService{gameRepo: gameRepo, audit: audit}
}

func (s *GameService) ListGames(ctx context.Context, query, genre string, page, limit int) ([]models.GameWithStats, int64, error) {
	return s.gameRepo.List(ctx, repository.GameFilter{Query: query, Genre: genre}, limit, pageOffset(page, limit))
}

func (s *GameService) GetBySlug(ctx context.Context, slug string) (*models.GameWithStats, error) {
	return s.gameRepo.GetBySlug(ctx, strings.ToLower(strings.TrimSpace(slug)))
}

func (s *GameService) CreateGame(ctx context.Context, in GameInput) (*models.Game, error) {
	game := &models.Game{}
	if err := applyGameInput(game, &in); err != nil {
		return nil, err
	}
	taken, err := s.gameRepo.SlugTaken(ctx, game.Slug, 0)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, models.NewConflictError("A game with this slug already exists", nil)
	}
	if err := s.gameRepo.Create(ctx, game); err != nil {
		return nil, err
	}
	s.audit.Record(ctx, in.ActorID, models.AuditGameCreated, models.ReportTargetGame, game.ID, map[string]any{"slug": game.Slug})
	return game, nil
}

func (s *GameService) UpdateGame(ctx context.Context, id uint, in GameInput) (*models.Game, error) {
	game, err := s.gameRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	previousSlug := game.Slug
	if err := applyGameInput(game, &in); err != nil {
		return nil, err
	}
	taken, err := s.gameRepo.SlugTaken(ctx, game.Slug, game.ID)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, models.NewConflictError("A game with this slug already exists", nil)
	}
	if err := s.gameRepo.Update(ctx, game, previousSlug); err != nil {
		return nil, err
	}
	s.audit.Record(ctx, in.ActorID, models.AuditGameUpdated, models.ReportTargetGame, game.ID, map[string]any{"slug": game.Slug})
	return game, nil
}

// DeleteGame refuses while the game has reviews and leaves everything untouched.
func (s *GameService) DeleteGame(ctx context.Context, actorID, id uint) error {
	game, err := s.gameRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	count, err := s.gameRepo.CountReviews(ctx, id)
	if err != nil {
		return err
	}
	if count > 0 {
		return models.NewValidationError("Cannot delete a game that has reviews")
	}
	if err := s.gameRepo.Delete(ctx, game); err != nil {
		return err
	}
	s.audit.Record(ctx, actorID, models.AuditGameDeleted, models.ReportTargetGame, id, map[string]any{"slug": game.Slug})
	return nil
}

func applyGameInput(game *models.Game, in *GameInput) error {
	in.Slug = strings.ToLower(strings.TrimSpace(in.Slug))
	in.Title = strings.TrimSpace(in.Title)
	if err := validation.Struct(in); err != nil {
		return err
	}

	var release *time.Time
	if d := strings.TrimSpace(in.ReleaseDate); d != "" {
		parsed, err := parseReleaseDate(d)
		if err != nil {
			return models.NewValidationError("Invalid release date")
		}
		release = &parsed
	}

	game.Slug = in.Slug
	game.Title = in.Title
	game.DescriptionMD = in.DescriptionMD
	game.Developer = in.Developer
	game.Publisher = in.Publisher
	game.Genres = orEmpty(in.Genres)
	game.Tags = orEmpty(in.Tags)
	game.Platforms = orEmpty(in.Platforms)
	game.CoverURL = in.CoverURL
	game.TrailerURL = in.TrailerURL
	game.ESRBRating = in.ESRBRating
	game.CriticScore = in.CriticScore
	game.ReleaseDate = release
	return nil
}

func parseReleaseDate(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Parse(time.DateOnly, s)
}

func orEmpty(items []string) []string {
	if items == nil {
		return []string{}
	}
	return items
}
