// Package models contains data structures for the application's domain models.
package models

import (
	"slices"
	"time"

	"gorm.io/datatypes"
)

// Role names a capability granted to a user.
type Role = string

const (
	RoleUser      Role = "USER"
	RoleVerified  Role = "VERIFIED"
	RoleModerator Role = "MODERATOR"
	RoleAdmin     Role = "ADMIN"
)

// ValidRoles lists every role a user may hold.
var ValidRoles = []Role{RoleUser, RoleVerified, RoleModerator, RoleAdmin}

// User represents a registered member of the platform.
type User struct {
	ID         uint                        `gorm:"primaryKey" json:"id"`
	Username   string                      `gorm:"size:30;uniqueIndex;not null" json:"username"`
	Email      string                      `gorm:"size:255;uniqueIndex;not null" json:"email,omitempty"`
	Password   string                      `gorm:"not null" json:"-"`
	Roles      datatypes.JSONSlice[string] `json:"roles"`
	IsVerified bool                        `gorm:"default:false" json:"isVerified"`
	IsBanned   bool                        `gorm:"default:false;index" json:"isBanned"`
	Bio        string                      `gorm:"size:500" json:"bio"`
	AvatarURL  string                      `json:"avatarUrl"`
	LastLogin  *time.Time                  `json:"lastLogin,omitempty"`
	CreatedAt  time.Time                   `gorm:"index" json:"createdAt"`
	UpdatedAt  time.Time                   `json:"updatedAt"`
}

// HasRole reports whether the user holds role.
func (u *User) HasRole(role Role) bool {
	return slices.Contains(u.Roles, role)
}

// IsAdmin reports whether the user holds the ADMIN role.
func (u *User) IsAdmin() bool {
	return u.HasRole(RoleAdmin)
}

// IsStaff reports whether the user may moderate content.
func (u *User) IsStaff() bool {
	return u.HasRole(RoleAdmin) || u.HasRole(RoleModerator)
}

// SetRole adds or removes role, keeping the slice free of duplicates.
func (u *User) SetRole(role Role, on bool) {
	idx := slices.Index(u.Roles, role)
	switch {
	case on && idx < 0:
		u.Roles = append(u.Roles, role)
	case !on && idx >= 0:
		u.Roles = slices.Delete(u.Roles, idx, idx+1)
	}
}

// UserSummary is the compact author shape preloaded into other resources.
type UserSummary struct {
	ID        uint   `gorm:"primaryKey" json:"id"`
	Username  string `json:"username"`
	AvatarURL string `json:"avatarUrl"`
}

// TableName maps UserSummary onto the users table.
func (UserSummary) TableName() string {
	return "users"
}

// UserProfile is a user with relationship counts.
type UserProfile struct {
	User
	ReviewCount    int64 `gorm:"->" json:"reviewCount"`
	ListCount      int64 `gorm:"->" json:"listCount"`
	FollowerCount  int64 `gorm:"->" json:"followerCount"`
	FollowingCount int64 `gorm:"->" json:"followingCount"`
}
