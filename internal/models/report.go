package models

import (
	"slices"
	"time"
)

// ReportTargetType names the kind of entity a report flags.
type ReportTargetType = string

const (
	ReportTargetReview  ReportTargetType = "REVIEW"
	ReportTargetComment ReportTargetType = "COMMENT"
	ReportTargetUser    ReportTargetType = "USER"
	ReportTargetGame    ReportTargetType = "GAME"
)

// ReportStatus is the moderation lifecycle state of a report.
type ReportStatus = string

const (
	ReportStatusPending       ReportStatus = "PENDING"
	ReportStatusInvestigating ReportStatus = "INVESTIGATING"
	ReportStatusResolved      ReportStatus = "RESOLVED"
	ReportStatusDismissed     ReportStatus = "DISMISSED"
)

// ReportStatuses lists every assignable report status.
var ReportStatuses = []ReportStatus{
	ReportStatusPending,
	ReportStatusInvestigating,
	ReportStatusResolved,
	ReportStatusDismissed,
}

// IsValidReportStatus reports whether s names a known report status.
func IsValidReportStatus(s string) bool {
	return slices.Contains(ReportStatuses, s)
}

// IsClosedReportStatus reports whether s ends the report lifecycle.
func IsClosedReportStatus(s string) bool {
	return s == ReportStatusResolved || s == ReportStatusDismissed
}

// Report is a user-submitted flag against content or another user.
type Report struct {
	ID           uint             `gorm:"primaryKey" json:"id"`
	ReporterID   uint             `gorm:"not null;index" json:"reporterId"`
	TargetType   ReportTargetType `gorm:"size:16;not null;index:idx_reports_target,priority:1" json:"targetType"`
	TargetID     uint             `gorm:"not null;index:idx_reports_target,priority:2" json:"targetId"`
	Reason       string           `gorm:"size:200;not null" json:"reason"`
	Notes        string           `gorm:"size:1000" json:"notes"`
	Status       ReportStatus     `gorm:"size:20;not null;default:'PENDING';index" json:"status"`
	ResolvedByID *uint            `json:"resolvedById,omitempty"`
	ResolvedAt   *time.Time       `json:"resolvedAt,omitempty"`
	CreatedAt    time.Time        `gorm:"index" json:"createdAt"`
	UpdatedAt    time.Time        `json:"updatedAt"`

	Reporter *UserSummary `gorm:"foreignKey:ReporterID" json:"reporter,omitempty"`

	// TargetContent is filled in for moderator listings.
	TargetContent map[string]any `gorm:"-" json:"targetContent,omitempty"`
}
