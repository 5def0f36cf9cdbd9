package models

import (
	"time"

	"gorm.io/datatypes"
)

// Audit actions recorded for privileged mutations.
const (
	AuditGameCreated         = "game.created"
	AuditGameUpdated         = "game.updated"
	AuditGameDeleted         = "game.deleted"
	AuditUserUpdated         = "user.updated"
	AuditUserDeleted         = "user.deleted"
	AuditUserBanned          = "user.banned"
	AuditUserUnbanned        = "user.unbanned"
	AuditUserVerified        = "user.verified"
	AuditUserUnverified      = "user.unverified"
	AuditUserRolesChanged    = "user.roles_changed"
	AuditReviewStatusChanged = "review.status_changed"
	AuditReviewDeleted       = "review.deleted"
	AuditReportStatusChanged = "report.status_changed"
	AuditReportDeleted       = "report.deleted"
	AuditSettingsUpdated     = "settings.updated"
)

// AuditLog is an append-only record of a staff action.
type AuditLog struct {
	ID         uint           `gorm:"primaryKey" json:"id"`
	ActorID    uint           `gorm:"not null;index" json:"actorId"`
	Action     string         `gorm:"size:64;not null;index" json:"action"`
	TargetType string         `gorm:"size:16" json:"targetType"`
	TargetID   uint           `json:"targetId"`
	Details    datatypes.JSON `json:"details,omitempty"`
	CreatedAt  time.Time      `gorm:"index" json:"createdAt"`

	Actor *UserSummary `gorm:"foreignKey:ActorID" json:"actor,omitempty"`
}
