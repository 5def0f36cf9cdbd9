package repository

import (
	"context"
	"strings"

	"respawn/internal/cache"
	"respawn/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GameFilter narrows the catalog listing.
type GameFilter struct {
	Query string
	Genre string
}

// GameRepository defines persistence operations for the game catalog.
type GameRepository interface {
	List(ctx context.Context, filter GameFilter, limit, offset int) ([]models.GameWithStats, int64, error)
	GetByID(ctx context.Context, id uint) (*models.Game, error)
	GetBySlug(ctx context.Context, slug string) (*models.GameWithStats, error)
	SlugTaken(ctx context.Context, slug string, excludeID uint) (bool, error)
	CountReviews(ctx context.Context, gameID uint) (int64, error)
	Create(ctx context.Context, game *models.Game) error
	Update(ctx context.Context, game *models.Game, previousSlug string) error
	Delete(ctx context.Context, game *models.Game) error
}

type gameRepository struct {
	db *gorm.DB
}

// NewGameRepository creates and returns a new GameRepository instance.
func NewGameRepository(db *gorm.DB) GameRepository {
	return &gameRepository{db: db}
}

const gameStatsSelect = `games.*,
	(SELECT COUNT(*) FROM reviews WHERE reviews.game_id = games.id) AS review_count,
	COALESCE((SELECT AVG(reviews.rating) FROM reviews WHERE reviews.game_id = games.id), 0) AS average_rating`

func (r *gameRepository) List(ctx context.Context, filter GameFilter, limit, offset int) ([]models.GameWithStats, int64, error) {
	limit, offset = clampPage(limit, offset)

	q := readDB(r.db).WithContext(ctx).Table("games")
	if s := strings.TrimSpace(filter.Query); s != "" {
		like := "%" + strings.ToLower(s) + "%"
		q = q.Where("LOWER(games.title) LIKE ? OR LOWER(games.developer) LIKE ?", like, like)
	}
	if g := strings.TrimSpace(filter.Genre); g != "" {
		q = q.Where("CAST(games.genres AS TEXT) LIKE ?", `%"`+g+`"%`)
	}

	var total int64
	if err := q.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, models.NewInternalError(err)
	}

	var games []models.GameWithStats
	if err := q.Select(gameStatsSelect).
		Order("games.title ASC").Order("games.id ASC").
		Limit(limit).Offset(offset).
		Find(&games).Error; err != nil {
		return nil, 0, models.NewInternalError(err)
	}
	return games, total, nil
}

func (r *gameRepository) GetByID(ctx context.Context, id uint) (*models.Game, error) {
	var game models.Game
	if err := readDB(r.db).WithContext(ctx).First(&game, id).Error; err != nil {
		return nil, mapFindError(err, "Game", id)
	}
	return &game, nil
}

func (r *gameRepository) GetBySlug(ctx context.Context, slug string) (*models.GameWithStats, error) {
	var game models.GameWithStats
	err := cache.Aside(ctx, cache.GameKey(slug), &game, cache.GameTTL, func() error {
		if err := readDB(r.db).WithContext(ctx).
			Table("games").
			Select(gameStatsSelect).
			Where("games.slug = ?", slug).
			Take(&game).Error; err != nil {
			return mapFindError(err, "Game", slug)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &game, nil
}

func (r *gameRepository) SlugTaken(ctx context.Context, slug string, excludeID uint) (bool, error) {
	var count int64
	q := r.db.WithContext(ctx).Model(&models.Game{}).Where("slug = ?", slug)
	if excludeID != 0 {
		q = q.Where("id <> ?", excludeID)
	}
	if err := q.Count(&count).Error; err != nil {
		return false, models.NewInternalError(err)
	}
	return count > 0, nil
}

func (r *gameRepository) CountReviews(ctx context.Context, gameID uint) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Review{}).Where("game_id = ?", gameID).Count(&count).Error; err != nil {
		return 0, models.NewInternalError(err)
	}
	return count, nil
}

func (r *gameRepository) Create(ctx context.Context, game *models.Game) error {
	if err := r.db.WithContext(ctx).Create(game).Error; err != nil {
		return mapWriteError(err, "A game with this slug already exists")
	}
	cache.InvalidateAggregates(ctx)
	return nil
}

func (r *gameRepository) Update(ctx context.Context, game *models.Game, previousSlug string) error {
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Save(game).Error; err != nil {
		return mapWriteError(err, "A game with this slug already exists")
	}
	cache.InvalidateGame(ctx, previousSlug)
	cache.InvalidateGame(ctx, game.Slug)
	cache.InvalidateAggregates(ctx)
	return nil
}

// Delete removes the game and its list entries. Callers check CountReviews first.
func (r *gameRepository) Delete(ctx context.Context, game *models.Game) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("game_id = ?", game.ID).Delete(&models.ListItem{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Game{}, game.ID).Error
	})
	if err != nil {
		return models.NewInternalError(err)
	}
	cache.InvalidateGame(ctx, game.Slug)
	cache.InvalidateAggregates(ctx)
	return nil
}
