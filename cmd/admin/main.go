// Package main provides role management utilities for Respawn.
package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"respawn/internal/config"
	"respawn/internal/database"
	"respawn/internal/middleware"
	"respawn/internal/models"

	"gorm.io/gorm"
)

func usage() {
	fmt.Println("Usage:")
	fmt.Println("  go run ./cmd/admin promote <user_id> [ADMIN|MODERATOR]  - Grant a staff role (default ADMIN)")
	fmt.Println("  go run ./cmd/admin demote <user_id> [ADMIN|MODERATOR]   - Revoke a staff role (default ADMIN)")
	fmt.Println("  go run ./cmd/admin list-admins                           - List all staff accounts")
}

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		middleware.Logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	db, err := database.ConnectWithOptions(cfg, database.ConnectOptions{ApplySchema: false})
	if err != nil {
		middleware.Logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}

	switch command := os.Args[1]; command {
	case "promote", "demote":
		if len(os.Args) < 3 {
			usage()
			os.Exit(1)
		}
		role := models.RoleAdmin
		if len(os.Args) > 3 {
			role = strings.ToUpper(os.Args[3])
		}
		if err := runRoleChange(db, os.Args[2], role, command == "promote"); err != nil {
			fmt.Println(err)
			os.Exit(1)
		}

	case "list-admins":
		staff, err := listStaff(db)
		if err != nil {
			middleware.Logger.Error("failed to fetch staff", "error", err)
			os.Exit(1)
		}
		printStaff(staff)

	default:
		fmt.Printf("Unknown command: %s\n", command)
		usage()
		os.Exit(1)
	}
}

func runRoleChange(db *gorm.DB, rawID, role string, grant bool) error {
	id, err := strconv.ParseUint(rawID, 10, 64)
	if err != nil || id == 0 {
		return fmt.Errorf("invalid user ID %q", rawID)
	}
	user, changed, err := setRole(db, uint(id), role, grant)
	if err != nil {
		return err
	}

	verb := "granted"
	if !grant {
		verb = "revoked"
	}
	if !changed {
		fmt.Printf("%s (ID: %d) roles unchanged: %v\n", user.Username, user.ID, []string(user.Roles))
		return nil
	}
	fmt.Printf("%s %s for %s (ID: %d), roles now %v\n", role, verb, user.Username, user.ID, []string(user.Roles))
	return nil
}

// setRole grants or revokes a staff role and reports whether anything changed.
func setRole(db *gorm.DB, userID uint, role string, grant bool) (*models.User, bool, error) {
	if role != models.RoleAdmin && role != models.RoleModerator {
		return nil, false, fmt.Errorf("role must be %s or %s", models.RoleAdmin, models.RoleModerator)
	}

	var user models.User
	if err := db.First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, false, fmt.Errorf("user with ID %d not found", userID)
		}
		return nil, false, fmt.Errorf("database error: %w", err)
	}

	if user.HasRole(role) == grant {
		return &user, false, nil
	}
	user.SetRole(role, grant)
	if err := db.Model(&user).Update("roles", user.Roles).Error; err != nil {
		return nil, false, fmt.Errorf("update roles: %w", err)
	}
	return &user, true, nil
}

// listStaff returns every user holding ADMIN or MODERATOR.
func listStaff(db *gorm.DB) ([]models.User, error) {
	var users []models.User
	if err := db.Order("id").Find(&users).Error; err != nil {
		return nil, err
	}
	staff := users[:0]
	for _, u := range users {
		if u.IsStaff() {
			staff = append(staff, u)
		}
	}
	return staff, nil
}

func printStaff(staff []models.User) {
	if len(staff) == 0 {
		fmt.Println("No admins found in the system")
		return
	}
	fmt.Println("\nCurrent staff:")
	fmt.Println("─────────────────────────────────────")
	for _, u := range staff {
		fmt.Printf("ID: %d | Username: %s | Email: %s | Roles: %s\n", u.ID, u.Username, u.Email, strings.Join(u.Roles, ","))
	}
	fmt.Println("─────────────────────────────────────")
}
