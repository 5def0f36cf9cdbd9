// Command main runs the database seeder for Respawn.
package main

import (
	"flag"
	"os"

	"respawn/internal/config"
	"respawn/internal/database"
	"respawn/internal/middleware"
	"respawn/internal/seed"
)

func main() {
	numUsers := flag.Int("users", 50, "Number of users to create")
	reviews := flag.Int("reviews", 4, "Reviews written by each user")
	lists := flag.Int("lists", 1, "Lists curated by each user")
	follows := flag.Int("follows", 5, "Accounts followed by each user")
	shouldClean := flag.Bool("clean", true, "Clean database before seeding")
	catalogOnly := flag.Bool("catalog-only", false, "Insert the built-in game catalog and exit")
	dryRun := flag.Bool("dry-run", false, "Generate data without writing to the database")
	fast := flag.Bool("fast", false, "Skip password hashing; seeded accounts cannot log in")
	randomSeed := flag.Int64("seed", 0, "Random seed for reproducible runs")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		middleware.Logger.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		middleware.Logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}

	if *catalogOnly {
		n, err := seed.Catalog(db)
		if err != nil {
			middleware.Logger.Error("catalog seeding failed", "error", err)
			os.Exit(1)
		}
		middleware.Logger.Info("catalog seeded", "inserted", n)
		return
	}

	if *fast && cfg.IsProduction() {
		middleware.Logger.Error("refusing to store plain-text passwords in production")
		os.Exit(1)
	}

	summary, err := seed.Seed(db, seed.Options{
		NumUsers:       *numUsers,
		ReviewsPerUser: *reviews,
		ListsPerUser:   *lists,
		FollowsPerUser: *follows,
		ShouldClean:    *shouldClean,
		SkipBcrypt:     *fast,
		DryRun:         *dryRun,
		RandomSeed:     *randomSeed,
	})
	if err != nil {
		middleware.Logger.Error("seeding failed", "error", err)
		os.Exit(1)
	}

	middleware.Logger.Info("all done",
		"users", summary.Users,
		"reviews", summary.Reviews,
		"password", seed.DefaultPassword,
	)
}
