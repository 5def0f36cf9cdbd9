package models

import (
	"time"

	"gorm.io/datatypes"
)

// PlatformSettingsKey is the primary key of the single settings row.
const PlatformSettingsKey = "platform"

type ModerationSettings struct {
	AutoModerateReviews   bool `json:"autoModerateReviews"`
	RequireReviewApproval bool `json:"requireReviewApproval"`
	MaxReviewsPerUser     int  `json:"maxReviewsPerUser"`
	MaxCommentsPerReview  int  `json:"maxCommentsPerReview"`
	ProfanityFilter       bool `json:"profanityFilter"`
	SpamProtection        bool `json:"spamProtection"`
}

type ContentSettings struct {
	AllowUserGeneratedGames bool     `json:"allowUserGeneratedGames"`
	AllowUserGeneratedLists bool     `json:"allowUserGeneratedLists"`
	MaxGamesPerList         int      `json:"maxGamesPerList"`
	AllowImageUploads       bool     `json:"allowImageUploads"`
	MaxImageSize            int      `json:"maxImageSize"`
	AllowedImageTypes       []string `json:"allowedImageTypes"`
}

type UserSettings struct {
	AllowUserRegistration     bool `json:"allowUserRegistration"`
	RequireEmailVerification  bool `json:"requireEmailVerification"`
	AllowOAuthLogin           bool `json:"allowOAuthLogin"`
	MaxLoginAttempts          int  `json:"maxLoginAttempts"`
	SessionTimeout            int  `json:"sessionTimeout"`
	AllowProfileCustomization bool `json:"allowProfileCustomization"`
}

type SystemSettings struct {
	MaintenanceMode      bool `json:"maintenanceMode"`
	AllowGuestAccess     bool `json:"allowGuestAccess"`
	EnableRateLimiting   bool `json:"enableRateLimiting"`
	MaxRequestsPerMinute int  `json:"maxRequestsPerMinute"`
	EnableCaching        bool `json:"enableCaching"`
	CacheTimeout         int  `json:"cacheTimeout"`
}

// Settings is the platform configuration editable from the admin panel.
type Settings struct {
	Moderation ModerationSettings `json:"moderation"`
	Content    ContentSettings    `json:"content"`
	User       UserSettings       `json:"user"`
	System     SystemSettings     `json:"system"`
}

// DefaultSettings returns the configuration used before an admin saves any changes.
func DefaultSettings() Settings {
	return Settings{
		Moderation: ModerationSettings{
			MaxReviewsPerUser:    100,
			MaxCommentsPerReview: 50,
			ProfanityFilter:      true,
			SpamProtection:       true,
		},
		Content: ContentSettings{
			AllowUserGeneratedLists: true,
			MaxGamesPerList:         100,
			AllowImageUploads:       true,
			MaxImageSize:            5,
			AllowedImageTypes:       []string{"jpg", "jpeg", "png", "gif", "webp"},
		},
		User: UserSettings{
			AllowUserRegistration:     true,
			AllowOAuthLogin:           true,
			MaxLoginAttempts:          5,
			SessionTimeout:            24,
			AllowProfileCustomization: true,
		},
		System: SystemSettings{
			AllowGuestAccess:     true,
			EnableRateLimiting:   true,
			MaxRequestsPerMinute: 100,
			EnableCaching:        true,
			CacheTimeout:         3600,
		},
	}
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Clamp forces every numeric setting into its allowed range.
func (s Settings) Clamp() Settings {
	s.Moderation.MaxReviewsPerUser = clampInt(s.Moderation.MaxReviewsPerUser, 1, 1000)
	s.Moderation.MaxCommentsPerReview = clampInt(s.Moderation.MaxCommentsPerReview, 1, 500)
	s.Content.MaxGamesPerList = clampInt(s.Content.MaxGamesPerList, 1, 1000)
	s.Content.MaxImageSize = clampInt(s.Content.MaxImageSize, 1, 50)
	s.User.MaxLoginAttempts = clampInt(s.User.MaxLoginAttempts, 1, 20)
	s.User.SessionTimeout = clampInt(s.User.SessionTimeout, 1, 168)
	s.System.MaxRequestsPerMinute = clampInt(s.System.MaxRequestsPerMinute, 10, 1000)
	s.System.CacheTimeout = clampInt(s.System.CacheTimeout, 60, 86400)
	if s.Content.AllowedImageTypes == nil {
		s.Content.AllowedImageTypes = []string{}
	}
	return s
}

// PlatformSettings is the persisted form of Settings, one JSON column per category.
type PlatformSettings struct {
	Key         string                                 `gorm:"primaryKey;size:32"`
	Moderation  datatypes.JSONType[ModerationSettings] `gorm:"not null"`
	Content     datatypes.JSONType[ContentSettings]    `gorm:"not null"`
	User        datatypes.JSONType[UserSettings]       `gorm:"column:user_settings;not null"`
	System      datatypes.JSONType[SystemSettings]     `gorm:"not null"`
	UpdatedByID *uint
	UpdatedAt   time.Time
}

// NewPlatformSettings wraps s for persistence.
func NewPlatformSettings(s Settings) *PlatformSettings {
	return &PlatformSettings{
		Key:        PlatformSettingsKey,
		Moderation: datatypes.NewJSONType(s.Moderation),
		Content:    datatypes.NewJSONType(s.Content),
		User:       datatypes.NewJSONType(s.User),
		System:     datatypes.NewJSONType(s.System),
	}
}

// Settings unwraps the persisted categories.
func (p *PlatformSettings) Settings() Settings {
	return Settings{
		Moderation: p.Moderation.Data(),
		Content:    p.Content.Data(),
		User:       p.User.Data(),
		System:     p.System.Data(),
	}
}
