package repository

import (
	"context"

	"respawn/internal/cache"
	"respawn/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ListFilter narrows list browsing. When OwnerID equals ViewerID every
// visibility is returned, otherwise only PUBLIC lists.
type ListFilter struct {
	OwnerID  uint
	ViewerID uint
}

// ListRepository defines persistence operations for user game lists.
type ListRepository interface {
	List(ctx context.Context, filter ListFilter, limit, offset int) ([]models.List, int64, error)
	GetByID(ctx context.Context, id uint) (*models.List, error)
	CountByUser(ctx context.Context, userID uint) (int64, error)
	Create(ctx context.Context, list *models.List) error
	Update(ctx context.Context, list *models.List) error
	Delete(ctx context.Context, id uint) error
	CountItems(ctx context.Context, listID uint) (int64, error)
	ItemGameIDs(ctx context.Context, listID uint) ([]uint, error)
	AddItem(ctx context.Context, item *models.ListItem) error
	RemoveItem(ctx context.Context, listID, gameID uint) error
	Reorder(ctx context.Context, listID uint, gameIDs []uint) error
}

type listRepository struct {
	db *gorm.DB
}

// NewListRepository creates a new ListRepository
func NewListRepository(db *gorm.DB) ListRepository {
	return &listRepository{db: db}
}

const listCountSelect = `lists.*,
	(SELECT COUNT(*) FROM list_items WHERE list_items.list_id = lists.id) AS item_count`

func (r *listRepository) List(ctx context.Context, filter ListFilter, limit, offset int) ([]models.List, int64, error) {
	limit, offset = clampPage(limit, offset)

	q := readDB(r.db).WithContext(ctx).Model(&models.List{})
	if filter.OwnerID != 0 {
		q = q.Where("lists.user_id = ?", filter.OwnerID)
	}
	if filter.OwnerID == 0 || filter.OwnerID != filter.ViewerID {
		q = q.Where("lists.visibility = ?", models.ListVisibilityPublic)
	}

	var total int64
	if err := q.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, models.NewInternalError(err)
	}

	var lists []models.List
	if err := q.Select(listCountSelect).Preload("User").
		Order("lists.created_at DESC").Order("lists.id DESC").
		Limit(limit).Offset(offset).
		Find(&lists).Error; err != nil {
		return nil, 0, models.NewInternalError(err)
	}
	return lists, total, nil
}

func (r *listRepository) GetByID(ctx context.Context, id uint) (*models.List, error) {
	var list models.List
	err := r.db.WithContext(ctx).
		Select(listCountSelect).
		Preload("User").
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("list_items.position ASC").Order("list_items.id ASC")
		}).
		Preload("Items.Game").
		First(&list, id).Error
	if err != nil {
		return nil, mapFindError(err, "List", id)
	}
	return &list, nil
}

func (r *listRepository) CountByUser(ctx context.Context, userID uint) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.List{}).Where("user_id = ?", userID).Count(&count).Error; err != nil {
		return 0, models.NewInternalError(err)
	}
	return count, nil
}

func (r *listRepository) Create(ctx context.Context, list *models.List) error {
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(list).Error; err != nil {
		return models.NewInternalError(err)
	}
	cache.InvalidateAggregates(ctx)
	return nil
}

func (r *listRepository) Update(ctx context.Context, list *models.List) error {
	err := r.db.WithContext(ctx).Model(&models.List{}).Where("id = ?", list.ID).
		Updates(map[string]any{
			"title":       list.Title,
			"description": list.Description,
			"visibility":  list.Visibility,
		}).Error
	if err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *listRepository) Delete(ctx context.Context, id uint) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("list_id = ?", id).Delete(&models.ListItem{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&models.List{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return models.NewNotFoundError("List", id)
		}
		return nil
	})
	if err != nil {
		if models.HasCode(err, models.CodeNotFound) {
			return err
		}
		return models.NewInternalError(err)
	}
	cache.InvalidateAggregates(ctx)
	return nil
}

func (r *listRepository) CountItems(ctx context.Context, listID uint) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.ListItem{}).Where("list_id = ?", listID).Count(&count).Error; err != nil {
		return 0, models.NewInternalError(err)
	}
	return count, nil
}

func (r *listRepository) ItemGameIDs(ctx context.Context, listID uint) ([]uint, error) {
	var ids []uint
	if err := r.db.WithContext(ctx).Model(&models.ListItem{}).
		Where("list_id = ?", listID).
		Order("position ASC").Order("id ASC").
		Pluck("game_id", &ids).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return ids, nil
}

// AddItem appends the game after the current last position.
func (r *listRepository) AddItem(ctx context.Context, item *models.ListItem) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var maxPos int
		if err := tx.Model(&models.ListItem{}).Where("list_id = ?", item.ListID).
			Select("COALESCE(MAX(position), -1)").Row().Scan(&maxPos); err != nil {
			return err
		}
		item.Position = maxPos + 1
		if err := tx.Omit(clause.Associations).Create(item).Error; err != nil {
			return err
		}
		return tx.Model(&models.List{}).Where("id = ?", item.ListID).Update("updated_at", item.AddedAt).Error
	})
	if err != nil {
		return mapWriteError(err, "This game is already in the list")
	}
	return nil
}

func (r *listRepository) RemoveItem(ctx context.Context, listID, gameID uint) error {
	res := r.db.WithContext(ctx).Where("list_id = ? AND game_id = ?", listID, gameID).Delete(&models.ListItem{})
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("List item", gameID)
	}
	return nil
}

// Reorder assigns positions in the order of gameIDs. The caller has checked
// that gameIDs is exactly the list's current game set.
func (r *listRepository) Reorder(ctx context.Context, listID uint, gameIDs []uint) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for pos, gameID := range gameIDs {
			if err := tx.Model(&models.ListItem{}).
				Where("list_id = ? AND game_id = ?", listID, gameID).
				Update("position", pos).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return models.NewInternalError(err)
	}
	return nil
}
