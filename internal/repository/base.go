// Package repository implements the data access layer for the application.
package repository

import (
	"errors"
	"strings"

	"respawn/internal/database"
	"respawn/internal/models"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

const pgUniqueViolation = "23505"

// DefaultLimit and MaxLimit bound every paginated query.
const (
	DefaultLimit = 20
	MaxLimit     = 100
)

func readDB(primary *gorm.DB) *gorm.DB {
	if db := database.GetReadDB(); db != nil {
		return db
	}
	return primary
}

// isUniqueViolation reports whether err came from a unique index or primary key.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgUniqueViolation
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	// SQLite reports constraint failures only through the message.
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// mapFindError turns gorm.ErrRecordNotFound into a NOT_FOUND AppError and wraps everything else.
func mapFindError(err error, resource string, id any) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.NewNotFoundError(resource, id)
	}
	return models.NewInternalError(err)
}

// mapWriteError turns unique violations into a CONFLICT AppError.
func mapWriteError(err error, conflictMessage string) error {
	if isUniqueViolation(err) {
		return models.NewConflictError(conflictMessage, err)
	}
	return models.NewInternalError(err)
}

func clampPage(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
