package service

import (
	"context"
	"strings"

	"respawn/internal/middleware"
	"respawn/internal/models"
	"respawn/internal/repository"
	"respawn/internal/validation"

	"golang.org/x/crypto/bcrypt"
)

// UserService covers profiles, passwords and admin user management.
type UserService struct {
	userRepo repository.UserRepository
	settings SettingsLoader
	audit    *AuditService
}

type UpdateProfileInput struct {
	ActorID   uint    `json:"-"`
	UserID    uint    `json:"-"`
	Username  *string `json:"username" validate:"omitempty,username"`
	Bio       *string `json:"bio" validate:"omitempty,max=500"`
	AvatarURL *string `json:"avatarUrl" validate:"omitempty,max=2048"`
}

type ChangePasswordInput struct {
	ActorID         uint   `json:"-"`
	UserID          uint   `json:"-"`
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required,strongpassword"`
}

// AdminUpdateUserInput replaces the editable account fields. Omitted flags
// keep their stored values.
type AdminUpdateUserInput struct {
	ActorID    uint     `json:"-"`
	UserID     uint     `json:"-"`
	Username   string   `json:"username" validate:"required,username"`
	Email      string   `json:"email" validate:"required,email,max=254"`
	Roles      []string `json:"roles" validate:"omitempty,dive,oneof=USER VERIFIED MODERATOR ADMIN"`
	IsVerified *bool    `json:"isVerified"`
	IsBanned   *bool    `json:"isBanned"`
	Bio        string   `json:"bio" validate:"max=500"`
}

func NewUserService(userRepo repository.UserRepository, settings SettingsLoader, audit *AuditService) *UserService {
	return &UserService{userRepo: userRepo, settings: settings, audit: audit}
}

func (s *UserService) GetProfile(ctx context.Context, id uint) (*models.UserProfile, error) {
	return s.userRepo.GetProfile(ctx, id)
}

// IsAdmin re-reads roles from the store so role changes apply immediately.
func (s *UserService) IsAdmin(ctx context.Context, userID uint) (bool, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return false, err
	}
	return user.IsAdmin(), nil
}

// IsStaff is IsAdmin widened to moderators.
func (s *UserService) IsStaff(ctx context.Context, userID uint) (bool, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return false, err
	}
	return user.IsStaff(), nil
}

func (s *UserService) UpdateProfile(ctx context.Context, in UpdateProfileInput) (*models.UserProfile, error) {
	if in.ActorID != in.UserID {
		return nil, models.NewForbiddenError("You can only edit your own profile")
	}
	if err := validation.Struct(in); err != nil {
		return nil, err
	}

	user, err := s.userRepo.GetByID(ctx, in.UserID)
	if err != nil {
		return nil, err
	}

	if in.Bio != nil || in.AvatarURL != nil {
		settings, err := s.settings.Load(ctx)
		if err != nil {
			return nil, err
		}
		if !settings.User.AllowProfileCustomization {
			return nil, models.NewForbiddenError("Profile customization is disabled")
		}
	}

	if in.Username != nil {
		user.Username = strings.TrimSpace(*in.Username)
	}
	if in.Bio != nil {
		user.Bio = *in.Bio
	}
	if in.AvatarURL != nil {
		user.AvatarURL = strings.TrimSpace(*in.AvatarURL)
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}
	return s.userRepo.GetProfile(ctx, user.ID)
}

func (s *UserService) ChangePassword(ctx context.Context, in ChangePasswordInput) error {
	if in.ActorID != in.UserID {
		return models.NewForbiddenError("You can only change your own password")
	}
	if err := validation.Struct(in); err != nil {
		return err
	}

	user, err := s.userRepo.GetByID(ctx, in.UserID)
	if err != nil {
		return err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(in.CurrentPassword)) != nil {
		return models.NewValidationError("Current password is incorrect")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		return models.NewInternalError(err)
	}
	user.Password = string(hash)
	if err := s.userRepo.Update(ctx, user); err != nil {
		return err
	}
	middleware.Logger.InfoContext(ctx, "password changed", "user_id", user.ID)
	return nil
}

// ListUsers is the admin listing with content and follow counts.
func (s *UserService) ListUsers(ctx context.Context, query string, page, limit int) ([]models.UserProfile, int64, error) {
	return s.userRepo.List(ctx, repository.UserFilter{Query: query}, limit, pageOffset(page, limit))
}

func (s *UserService) AdminUpdateUser(ctx context.Context, in AdminUpdateUserInput) (*models.User, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	if in.IsBanned != nil && *in.IsBanned && in.ActorID == in.UserID {
		return nil, models.NewValidationError("You cannot ban yourself")
	}

	user, err := s.userRepo.GetByID(ctx, in.UserID)
	if err != nil {
		return nil, err
	}
	previousRoles := append([]string(nil), user.Roles...)

	user.Username = in.Username
	user.Email = in.Email
	user.Bio = in.Bio
	if in.IsVerified != nil {
		user.IsVerified = *in.IsVerified
	}
	if in.IsBanned != nil {
		user.IsBanned = *in.IsBanned
	}
	if len(in.Roles) == 0 {
		user.Roles = []string{models.RoleUser}
	} else {
		user.Roles = dedupe(in.Roles)
	}
	user.SetRole(models.RoleVerified, user.IsVerified)

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}

	s.audit.Record(ctx, in.ActorID, models.AuditUserUpdated, models.ReportTargetUser, user.ID, map[string]any{
		"username": user.Username,
		"isBanned": user.IsBanned,
	})
	if !sameRoles(previousRoles, user.Roles) {
		s.audit.Record(ctx, in.ActorID, models.AuditUserRolesChanged, models.ReportTargetUser, user.ID, map[string]any{
			"from": previousRoles,
			"to":   []string(user.Roles),
		})
	}
	return user, nil
}

// DeleteUser refuses while the user still owns reviews or lists.
func (s *UserService) DeleteUser(ctx context.Context, actorID, userID uint) error {
	if _, err := s.userRepo.GetByID(ctx, userID); err != nil {
		return err
	}
	reviews, lists, err := s.userRepo.CountContent(ctx, userID)
	if err != nil {
		return err
	}
	if reviews > 0 || lists > 0 {
		return models.NewValidationError("Cannot delete a user who has reviews or lists")
	}
	if err := s.userRepo.Delete(ctx, userID); err != nil {
		return err
	}
	s.audit.Record(ctx, actorID, models.AuditUserDeleted, models.ReportTargetUser, userID, nil)
	return nil
}

func (s *UserService) SetBanned(ctx context.Context, actorID, userID uint, banned bool) (*models.User, error) {
	if banned && actorID == userID {
		return nil, models.NewValidationError("You cannot ban yourself")
	}
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	user.IsBanned = banned
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}

	action := models.AuditUserUnbanned
	if banned {
		action = models.AuditUserBanned
	}
	s.audit.Record(ctx, actorID, action, models.ReportTargetUser, userID, nil)
	return user, nil
}

// SetVerified toggles the verified flag and keeps the VERIFIED role in step.
func (s *UserService) SetVerified(ctx context.Context, actorID, userID uint, verified bool) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	user.IsVerified = verified
	user.SetRole(models.RoleVerified, verified)
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}

	action := models.AuditUserUnverified
	if verified {
		action = models.AuditUserVerified
	}
	s.audit.Record(ctx, actorID, action, models.ReportTargetUser, userID, nil)
	return user, nil
}

func dedupe(roles []string) []string {
	seen := make(map[string]bool, len(roles))
	out := make([]string, 0, len(roles))
	for _, r := range roles {
		if !seen[r] {
			seen[r] = true
			out = append(out, r)
		}
	}
	return out
}

func sameRoles(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	set := make(map[string]bool, len(a))
	for _, r := range a {
		set[r] = true
	}
	for _, r := range b {
		if !set[r] {
			return false
		}
	}
	return true
}
