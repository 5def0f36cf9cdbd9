package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"respawn/internal/middleware"
	"respawn/internal/models"
	"respawn/internal/observability"
	"respawn/internal/repository"
	"respawn/internal/validation"

	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"
)

const loginWindow = 15 * time.Minute

// AuthService handles signup, login and logout.
type AuthService struct {
	userRepo  repository.UserRepository
	settings  SettingsLoader
	redis     *redis.Client
	jwtSecret string
}

type SignupInput struct {
	Username string `json:"username" validate:"required,username"`
	Email    string `json:"email" validate:"required,email,max=254"`
	Password string `json:"password" validate:"required,strongpassword"`
}

type LoginInput struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
	IP       string `json:"-"`
}

// AuthResult is returned by signup and login.
type AuthResult struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expiresAt"`
	User      *models.User `json:"user"`
}

func NewAuthService(userRepo repository.UserRepository, settings SettingsLoader, rdb *redis.Client, jwtSecret string) *AuthService {
	return &AuthService{
		userRepo:  userRepo,
		settings:  settings,
		redis:     rdb,
		jwtSecret: jwtSecret,
	}
}

func (s *AuthService) Signup(ctx context.Context, in SignupInput) (*AuthResult, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if err := validation.Struct(in); err != nil {
		return nil, err
	}

	settings, err := s.settings.Load(ctx)
	if err != nil {
		return nil, err
	}
	if !settings.User.AllowUserRegistration {
		return nil, models.NewForbiddenError("Registration is currently disabled")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	user := &models.User{
		Username: in.Username,
		Email:    in.Email,
		Password: string(hash),
		Roles:    []string{models.RoleUser},
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}
	observability.RecordEvent(observability.EventUserRegistered)
	middleware.Logger.InfoContext(ctx, "user registered", "user_id", user.ID)

	return s.issue(user, settings)
}

func (s *AuthService) Login(ctx context.Context, in LoginInput) (*AuthResult, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}

	settings, err := s.settings.Load(ctx)
	if err != nil {
		return nil, err
	}

	if in.IP != "" {
		allowed, err := middleware.CheckRateLimit(ctx, s.redis, "login", in.IP, settings.User.MaxLoginAttempts, loginWindow)
		if err != nil {
			middleware.Logger.WarnContext(ctx, "login rate limit unavailable", "error", err)
		} else if !allowed {
			return nil, models.NewRateLimitError("Too many login attempts, try again later")
		}
	}

	user, err := s.userRepo.GetByEmail(ctx, strings.TrimSpace(in.Email))
	if err != nil {
		return nil, err
	}
	if user == nil || bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(in.Password)) != nil {
		observability.RecordEvent(observability.EventLoginFailed)
		return nil, models.NewUnauthorizedError("Invalid email or password")
	}
	if user.IsBanned {
		return nil, models.NewForbiddenError("This account has been banned")
	}

	if err := s.userRepo.TouchLastLogin(ctx, user.ID); err != nil {
		return nil, err
	}
	now := time.Now()
	user.LastLogin = &now
	if in.IP != "" {
		_ = middleware.ResetRateLimit(ctx, s.redis, "login", in.IP)
	}

	return s.issue(user, settings)
}

// Logout blacklists the token id until the token would have expired anyway.
func (s *AuthService) Logout(ctx context.Context, jti string, expiresAt time.Time) error {
	if jti == "" {
		return models.NewUnauthorizedError("Invalid token")
	}
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		return nil
	}
	if s.redis == nil {
		return models.NewInternalError(fmt.Errorf("redis unavailable"))
	}
	if err := s.redis.Set(ctx, BlacklistKey(jti), "1", ttl).Err(); err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

// BlacklistKey is the Redis key marking a revoked token id.
func BlacklistKey(jti string) string {
	return "blacklist:" + jti
}

func (s *AuthService) issue(user *models.User, settings models.Settings) (*AuthResult, error) {
	ttl := time.Duration(settings.User.SessionTimeout) * time.Hour
	token, claims, err := middleware.IssueToken(s.jwtSecret, user.ID, user.Username, user.Roles, ttl)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return &AuthResult{Token: token, ExpiresAt: claims.ExpiresAt, User: user}, nil
}
