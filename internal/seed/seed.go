// Package seed provides database seeding utilities for development and testing.
package seed

import (
	"fmt"

	"respawn/internal/middleware"
	"respawn/internal/models"

	"gorm.io/gorm"
)

// Options configuration for the seeder
type Options struct {
	NumUsers       int
	ReviewsPerUser int
	ListsPerUser   int
	FollowsPerUser int
	ShouldClean    bool
	SkipBcrypt     bool
	DryRun         bool
	MaxDays        int
	// RandomSeed makes a run reproducible when non-zero.
	RandomSeed int64
}

// Summary counts what a seeding run created.
type Summary struct {
	Games    int
	Users    int
	Reviews  int
	Comments int
	Votes    int
	Lists    int
	Follows  int
}

// truncation order respects foreign keys when TRUNCATE CASCADE is unavailable.
var seededTables = []string{
	"votes", "comments", "list_items", "lists", "reports",
	"follows", "reviews", "audit_logs", "games", "users",
}

// Seed populates the database with demo data on top of the built-in catalog.
func Seed(db *gorm.DB, opts Options) (*Summary, error) {
	log := middleware.Logger.With("component", "seed")
	log.Info("starting database seeding", "users", opts.NumUsers, "dry_run", opts.DryRun)

	if opts.ShouldClean && !opts.DryRun {
		if err := clearData(db); err != nil {
			log.Warn("could not clear all existing data, continuing", "error", err)
		}
	}

	summary := &Summary{}
	var games []models.Game
	if !opts.DryRun {
		n, err := Catalog(db)
		if err != nil {
			return nil, err
		}
		summary.Games = n
		if err := db.Order("id").Find(&games).Error; err != nil {
			return nil, fmt.Errorf("failed to load games: %w", err)
		}
	} else {
		entries, err := LoadCatalog()
		if err != nil {
			return nil, err
		}
		for i, entry := range entries {
			game, err := entry.Model()
			if err != nil {
				return nil, err
			}
			game.ID = uint(i + 1)
			games = append(games, game)
		}
	}
	if len(games) == 0 {
		return nil, fmt.Errorf("no games available to seed against")
	}
	log.Info("catalog ready", "games", len(games), "inserted", summary.Games)

	f := NewFactory(db, opts)

	users := make([]*models.User, 0, opts.NumUsers)
	for i := 0; i < opts.NumUsers; i++ {
		user, err := f.CreateUser()
		if err != nil {
			log.Warn("failed to create user", "error", err)
			continue
		}
		users = append(users, user)
	}
	summary.Users = len(users)
	log.Info("users created", "count", summary.Users)

	reviews, err := seedReviews(f, users, games, opts.ReviewsPerUser)
	if err != nil {
		return nil, fmt.Errorf("failed to create reviews: %w", err)
	}
	summary.Reviews = len(reviews)

	if err := seedDiscussion(f, users, reviews, summary); err != nil {
		return nil, err
	}

	for _, user := range users {
		for i := 0; i < opts.ListsPerUser; i++ {
			picks := pickGames(f, games, 3+f.rng.Intn(5))
			if _, err := f.CreateList(user, picks); err != nil {
				return nil, fmt.Errorf("failed to create list: %w", err)
			}
			summary.Lists++
		}
	}

	summary.Follows, err = seedFollows(f, users, opts.FollowsPerUser)
	if err != nil {
		return nil, fmt.Errorf("failed to create follows: %w", err)
	}

	log.Info("database seeding completed",
		"reviews", summary.Reviews,
		"comments", summary.Comments,
		"votes", summary.Votes,
		"lists", summary.Lists,
		"follows", summary.Follows,
	)
	return summary, nil
}

func seedReviews(f *Factory, users []*models.User, games []models.Game, perUser int) ([]*models.Review, error) {
	reviews := make([]*models.Review, 0, len(users)*perUser)
	for _, user := range users {
		// pickGames returns distinct games, keeping one review per user and game.
		for _, game := range pickGames(f, games, perUser) {
			review, err := f.CreateReview(user, &game)
			if err != nil {
				return nil, err
			}
			reviews = append(reviews, review)
		}
	}
	return reviews, nil
}

// seedDiscussion adds comments and votes from other users, then stores the
// resulting vote counters on each review.
func seedDiscussion(f *Factory, users []*models.User, reviews []*models.Review, summary *Summary) error {
	if len(users) < 2 {
		return nil
	}
	for _, review := range reviews {
		up, down := 0, 0
		for _, idx := range f.rng.Perm(len(users))[:min(len(users), 6)] {
			voter := users[idx]
			if voter.ID == review.UserID {
				continue
			}
			if f.rng.Intn(3) == 0 {
				if _, err := f.CreateComment(voter, review); err != nil {
					return fmt.Errorf("failed to create comment: %w", err)
				}
				summary.Comments++
			}
			vote, err := f.CreateVote(voter, review)
			if err != nil {
				return fmt.Errorf("failed to create vote: %w", err)
			}
			summary.Votes++
			if vote.Value == models.VoteUp {
				up++
			} else {
				down++
			}
		}
		review.UpvotesCount, review.DownvotesCount = up, down
		if f.opts.DryRun {
			continue
		}
		if err := f.db.Model(&models.Review{}).Where("id = ?", review.ID).Updates(map[string]any{
			"upvotes_count":   up,
			"downvotes_count": down,
		}).Error; err != nil {
			return fmt.Errorf("failed to store vote counters: %w", err)
		}
	}
	return nil
}

func seedFollows(f *Factory, users []*models.User, perUser int) (int, error) {
	count := 0
	for i, follower := range users {
		made := 0
		for _, idx := range f.rng.Perm(len(users)) {
			if made >= perUser {
				break
			}
			if idx == i {
				continue
			}
			if err := f.CreateFollow(follower, users[idx]); err != nil {
				return count, err
			}
			made++
			count++
		}
	}
	return count, nil
}

// pickGames returns up to n distinct games in random order.
func pickGames(f *Factory, games []models.Game, n int) []models.Game {
	n = min(n, len(games))
	picks := make([]models.Game, 0, n)
	for _, idx := range f.rng.Perm(len(games))[:n] {
		picks = append(picks, games[idx])
	}
	return picks
}

func clearData(db *gorm.DB) error {
	middleware.Logger.Info("clearing existing data")
	if db.Dialector.Name() == "postgres" {
		return db.Exec(`TRUNCATE TABLE votes, comments, list_items, lists, reports, follows, reviews, audit_logs, games, users RESTART IDENTITY CASCADE`).Error
	}
	for _, table := range seededTables {
		if err := db.Exec("DELETE FROM " + table).Error; err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}
	return nil
}
