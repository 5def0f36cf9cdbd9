package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"respawn/internal/cache"
	"respawn/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// UserFilter narrows the admin user listing.
type UserFilter struct {
	Query string
}

// UserRepository defines persistence operations for users.
type UserRepository interface {
	GetByID(ctx context.Context, id uint) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	GetProfile(ctx context.Context, id uint) (*models.UserProfile, error)
	List(ctx context.Context, filter UserFilter, limit, offset int) ([]models.UserProfile, int64, error)
	ListAdmins(ctx context.Context) ([]models.User, error)
	CountContent(ctx context.Context, id uint) (reviews int64, lists int64, err error)
	Create(ctx context.Context, user *models.User) error
	Update(ctx context.Context, user *models.User) error
	TouchLastLogin(ctx context.Context, id uint) error
	Delete(ctx context.Context, id uint) error
}

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository returns a new UserRepository implementation.
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

const userCountsSelect = `users.*,
	(SELECT COUNT(*) FROM reviews WHERE reviews.user_id = users.id) AS review_count,
	(SELECT COUNT(*) FROM lists WHERE lists.user_id = users.id) AS list_count,
	(SELECT COUNT(*) FROM follows WHERE follows.followee_id = users.id) AS follower_count,
	(SELECT COUNT(*) FROM follows WHERE follows.follower_id = users.id) AS following_count`

func (r *userRepository) GetByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := readDB(r.db).WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, mapFindError(err, "User", id)
	}
	return &user, nil
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := readDB(r.db).WithContext(ctx).Where("LOWER(email) = ?", strings.ToLower(email)).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, models.NewInternalError(err)
	}
	return &user, nil
}

func (r *userRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	if err := readDB(r.db).WithContext(ctx).Where("username = ?", username).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, models.NewInternalError(err)
	}
	return &user, nil
}

func (r *userRepository) GetProfile(ctx context.Context, id uint) (*models.UserProfile, error) {
	var profile models.UserProfile
	err := readDB(r.db).WithContext(ctx).
		Table("users").
		Select(userCountsSelect).
		Where("users.id = ?", id).
		Take(&profile).Error
	if err != nil {
		return nil, mapFindError(err, "User", id)
	}
	return &profile, nil
}

func (r *userRepository) List(ctx context.Context, filter UserFilter, limit, offset int) ([]models.UserProfile, int64, error) {
	limit, offset = clampPage(limit, offset)

	q := readDB(r.db).WithContext(ctx).Table("users")
	if s := strings.TrimSpace(filter.Query); s != "" {
		like := "%" + strings.ToLower(s) + "%"
		q = q.Where("LOWER(users.username) LIKE ? OR LOWER(users.email) LIKE ?", like, like)
	}

	var total int64
	if err := q.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, models.NewInternalError(err)
	}

	var users []models.UserProfile
	if err := q.Select(userCountsSelect).
		Order("users.created_at DESC").Order("users.id DESC").
		Limit(limit).Offset(offset).
		Find(&users).Error; err != nil {
		return nil, 0, models.NewInternalError(err)
	}
	return users, total, nil
}

// ListAdmins matches the quoted role inside the JSON array so it works on Postgres and SQLite.
func (r *userRepository) ListAdmins(ctx context.Context) ([]models.User, error) {
	var users []models.User
	if err := readDB(r.db).WithContext(ctx).
		Where("CAST(roles AS TEXT) LIKE ?", `%"`+models.RoleAdmin+`"%`).
		Order("id ASC").
		Find(&users).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return users, nil
}

func (r *userRepository) CountContent(ctx context.Context, id uint) (int64, int64, error) {
	var reviews, lists int64
	db := r.db.WithContext(ctx)
	if err := db.Model(&models.Review{}).Where("user_id = ?", id).Count(&reviews).Error; err != nil {
		return 0, 0, models.NewInternalError(err)
	}
	if err := db.Model(&models.List{}).Where("user_id = ?", id).Count(&lists).Error; err != nil {
		return 0, 0, models.NewInternalError(err)
	}
	return reviews, lists, nil
}

func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	if len(user.Roles) == 0 {
		user.Roles = []string{models.RoleUser}
	}
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		return mapWriteError(err, "Username or email already in use")
	}
	cache.InvalidateAggregates(ctx)
	return nil
}

func (r *userRepository) Update(ctx context.Context, user *models.User) error {
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Save(user).Error; err != nil {
		return mapWriteError(err, "Username or email already in use")
	}
	return nil
}

func (r *userRepository) TouchLastLogin(ctx context.Context, id uint) error {
	if err := r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).
		UpdateColumn("last_login", time.Now()).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

// Delete removes the user with their follows, votes, comments and reports in one transaction.
// Callers check CountContent first; reviews and lists block deletion.
func (r *userRepository) Delete(ctx context.Context, id uint) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("follower_id = ? OR followee_id = ?", id, id).Delete(&models.Follow{}).Error; err != nil {
			return models.NewInternalError(err)
		}
		if err := tx.Where("user_id = ?", id).Delete(&models.Vote{}).Error; err != nil {
			return models.NewInternalError(err)
		}
		if err := tx.Where("user_id = ?", id).Delete(&models.Comment{}).Error; err != nil {
			return models.NewInternalError(err)
		}
		if err := tx.Where("reporter_id = ?", id).Delete(&models.Report{}).Error; err != nil {
			return models.NewInternalError(err)
		}
		res := tx.Delete(&models.User{}, id)
		if res.Error != nil {
			return models.NewInternalError(res.Error)
		}
		if res.RowsAffected == 0 {
			return models.NewNotFoundError("User", id)
		}
		return nil
	})
	if err != nil {
		return err
	}
	cache.InvalidateAggregates(ctx)
	return nil
}
