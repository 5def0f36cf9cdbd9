// Package bootstrap wires the process-wide runtime shared by the server and CLIs.
package bootstrap

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"strings"

	"respawn/internal/cache"
	"respawn/internal/config"
	"respawn/internal/database"
	"respawn/internal/middleware"
	"respawn/internal/models"
	"respawn/internal/seed"

	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Options control runtime initialization behavior.
type Options struct {
	// SeedCatalog inserts the built-in game catalog when it is missing.
	SeedCatalog bool
}

// InitRuntime connects to DB and Redis and optionally seeds the game catalog.
func InitRuntime(cfg *config.Config, opts Options) (*gorm.DB, *redis.Client, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("database connection failed: %w", err)
	}

	// Redis is optional; a nil client disables caching and blacklist checks.
	if err := cache.InitRedis(context.Background(), cfg.RedisURL); err != nil {
		middleware.Logger.Warn("continuing without redis", "error", err)
	}
	r := cache.GetClient()

	if err := EnsureDevRootAdmin(cfg, db); err != nil {
		return nil, nil, fmt.Errorf("failed to bootstrap development root admin: %w", err)
	}

	if opts.SeedCatalog {
		n, err := seed.Catalog(db)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to seed game catalog: %w", err)
		}
		if n > 0 {
			middleware.Logger.Info("seeded built-in games", "count", n)
		}
	}

	return db, r, nil
}

const rootUserID = 1

type rootAccount struct {
	username string
	email    string
	hash     string
}

func devRootAccount(cfg *config.Config) (rootAccount, error) {
	if cfg.DevRootPassword == "" {
		return rootAccount{}, errors.New("DEV_ROOT_PASSWORD must be set when DEV_BOOTSTRAP_ROOT is enabled")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(cfg.DevRootPassword), bcrypt.DefaultCost)
	if err != nil {
		return rootAccount{}, fmt.Errorf("hash root password: %w", err)
	}
	acct := rootAccount{
		username: cmp.Or(strings.TrimSpace(cfg.DevRootUsername), "respawn_root"),
		email:    cmp.Or(strings.ToLower(strings.TrimSpace(cfg.DevRootEmail)), "root@respawn.local"),
		hash:     string(hash),
	}
	return acct, nil
}

// EnsureDevRootAdmin makes user 1 an administrator in development when
// DEV_BOOTSTRAP_ROOT is set. A missing user 1 is created; an existing one is
// promoted and keeps its credentials unless DEV_ROOT_FORCE_CREDENTIALS is set.
func EnsureDevRootAdmin(cfg *config.Config, db *gorm.DB) error {
	if cfg == nil || db == nil || !cfg.DevBootstrapRoot || !strings.EqualFold(cfg.Env, "development") {
		return nil
	}
	acct, err := devRootAccount(cfg)
	if err != nil {
		return err
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		var root models.User
		err := tx.First(&root, rootUserID).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			err = tx.Create(&models.User{
				ID:         rootUserID,
				Username:   acct.username,
				Email:      acct.email,
				Password:   acct.hash,
				Roles:      []string{models.RoleUser, models.RoleAdmin},
				IsVerified: true,
			}).Error
		case err == nil:
			err = promoteRoot(tx, &root, acct, cfg.DevRootForceCredentials)
		}
		if err != nil {
			return err
		}
		return syncUserSequence(tx)
	})
	if err != nil {
		return err
	}

	middleware.Logger.Info("development root admin ensured", "user_id", rootUserID, "email", acct.email)
	return nil
}

func promoteRoot(tx *gorm.DB, root *models.User, acct rootAccount, force bool) error {
	root.SetRole(models.RoleAdmin, true)
	updates := map[string]any{"roles": root.Roles}
	if force {
		updates["username"] = acct.username
		updates["email"] = acct.email
		updates["password"] = acct.hash
	}
	return tx.Model(&models.User{}).Where("id = ?", rootUserID).Updates(updates).Error
}

// syncUserSequence moves the postgres id sequence past rows inserted with explicit ids.
func syncUserSequence(tx *gorm.DB) error {
	if tx.Dialector.Name() != "postgres" {
		return nil
	}
	err := tx.Exec(`SELECT setval(pg_get_serial_sequence('users', 'id'), GREATEST((SELECT COALESCE(MAX(id), 1) FROM users), 1), true)`).Error
	if err != nil {
		return fmt.Errorf("failed to reset users sequence: %w", err)
	}
	return nil
}
