package database

import "respawn/internal/models"

// PersistentModels returns the authoritative set of schema-managed GORM models,
// parents before children so foreign keys resolve.
func PersistentModels() []interface{} {
	return []interface{}{
		&models.User{},
		&models.Game{},
		&models.Review{},
		&models.Comment{},
		&models.Vote{},
		&models.List{},
		&models.ListItem{},
		&models.Follow{},
		&models.Report{},
		&models.AuditLog{},
		&models.PlatformSettings{},
	}
}
