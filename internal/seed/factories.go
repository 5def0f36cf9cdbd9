package seed

import (
	"fmt"
	"math/rand"
	"strings"
	"time"

	"respawn/internal/middleware"
	"respawn/internal/models"

	"github.com/brianvoe/gofakeit/v6"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// DefaultPassword is the plain-text password every seeded account shares.
const DefaultPassword = "password123"

// Factory builds domain entities and persists them to the database.
// It is a thin helper used by the seeder and tests.
type Factory struct {
	db   *gorm.DB
	opts Options
	rng  *rand.Rand
	// synthetic ID counter when running in DryRun mode
	nextID uint
	// hashed once; bcrypt dominates seeding time otherwise
	password string
}

// NewFactory creates a new Factory bound to the provided Gorm DB.
func NewFactory(db *gorm.DB, opts Options) *Factory {
	seed := opts.RandomSeed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	gofakeit.Seed(seed)
	//nolint:gosec // Weak random number generator is fine for seeding
	return &Factory{db: db, opts: opts, rng: rand.New(rand.NewSource(seed)), nextID: 1000}
}

func (f *Factory) hashedPassword() string {
	if f.password != "" {
		return f.password
	}
	if f.opts.SkipBcrypt {
		f.password = DefaultPassword
		return f.password
	}
	hashed, _ := bcrypt.GenerateFromPassword([]byte(DefaultPassword), bcrypt.DefaultCost)
	f.password = string(hashed)
	return f.password
}

// createdAt spreads timestamps across the last MaxDays days.
func (f *Factory) createdAt() time.Time {
	maxDays := f.opts.MaxDays
	if maxDays <= 0 {
		maxDays = 90
	}
	back := time.Duration(f.rng.Intn(maxDays))*24*time.Hour +
		time.Duration(f.rng.Intn(24))*time.Hour +
		time.Duration(f.rng.Intn(60))*time.Minute
	return time.Now().Add(-back)
}

func (f *Factory) persist(value any, id *uint, label string) error {
	if f.opts.DryRun {
		f.nextID++
		*id = f.nextID
		middleware.Logger.Debug("dry-run create", "kind", label, "id", *id)
		return nil
	}
	return f.db.Create(value).Error
}

// CreateUser constructs and persists a sample user.
// Optional override functions may modify the generated user before saving.
func (f *Factory) CreateUser(overrides ...func(*models.User)) (*models.User, error) {
	username := strings.ToLower(gofakeit.Username()) + fmt.Sprintf("%d", gofakeit.Number(100, 999))
	if len(username) > 30 {
		username = username[len(username)-30:]
	}
	user := &models.User{
		Username:  username,
		Email:     username + "@example.com",
		Password:  f.hashedPassword(),
		Roles:     []string{models.RoleUser},
		Bio:       gofakeit.Sentence(10),
		AvatarURL: fmt.Sprintf("https://i.pravatar.cc/150?u=%s", gofakeit.UUID()),
		CreatedAt: f.createdAt(),
	}

	for _, override := range overrides {
		override(user)
	}

	if err := f.persist(user, &user.ID, "user"); err != nil {
		return nil, err
	}
	return user, nil
}

// BuildReview constructs a review without persisting it.
func (f *Factory) BuildReview(user *models.User, game *models.Game, overrides ...func(*models.Review)) *models.Review {
	hours := float64(gofakeit.Number(2, 300))
	review := &models.Review{
		UserID:           user.ID,
		GameID:           game.ID,
		Rating:           float64(f.rng.Intn(19)+2) / 2,
		BodyMD:           gofakeit.Paragraph(2, 4, 12, "\n\n"),
		Pros:             []string{gofakeit.HipsterSentence(4), gofakeit.HipsterSentence(3)},
		Cons:             []string{gofakeit.HipsterSentence(4)},
		PlaytimeHours:    &hours,
		ContainsSpoilers: f.rng.Float32() < 0.15,
		Status:           models.ReviewStatusPublished,
		CreatedAt:        f.createdAt(),
	}
	for _, override := range overrides {
		override(review)
	}
	return review
}

// CreateReview constructs and persists a review of game by user.
func (f *Factory) CreateReview(user *models.User, game *models.Game, overrides ...func(*models.Review)) (*models.Review, error) {
	review := f.BuildReview(user, game, overrides...)
	if err := f.persist(review, &review.ID, "review"); err != nil {
		return nil, err
	}
	return review, nil
}

// CreateComment persists a comment by user on review.
func (f *Factory) CreateComment(user *models.User, review *models.Review, overrides ...func(*models.Comment)) (*models.Comment, error) {
	comment := &models.Comment{
		ReviewID:  review.ID,
		UserID:    user.ID,
		BodyMD:    gofakeit.Sentence(12),
		Status:    models.CommentStatusPublished,
		CreatedAt: f.createdAt(),
	}
	for _, override := range overrides {
		override(comment)
	}
	if err := f.persist(comment, &comment.ID, "comment"); err != nil {
		return nil, err
	}
	return comment, nil
}

// CreateVote persists a vote by user on a review. Upvotes outnumber downvotes three to one.
func (f *Factory) CreateVote(user *models.User, review *models.Review) (*models.Vote, error) {
	value := models.VoteUp
	if f.rng.Intn(4) == 0 {
		value = models.VoteDown
	}
	vote := &models.Vote{
		UserID:     user.ID,
		TargetType: models.VoteTargetReview,
		TargetID:   review.ID,
		Value:      value,
	}
	if err := f.persist(vote, &vote.ID, "vote"); err != nil {
		return nil, err
	}
	return vote, nil
}

// CreateList persists a list owned by user holding games in the given order.
func (f *Factory) CreateList(user *models.User, games []models.Game, overrides ...func(*models.List)) (*models.List, error) {
	visibilities := []string{models.ListVisibilityPublic, models.ListVisibilityPublic, models.ListVisibilityUnlisted, models.ListVisibilityPrivate}
	list := &models.List{
		UserID:      user.ID,
		Title:       strings.TrimSuffix(gofakeit.Sentence(3), "."),
		Description: gofakeit.Sentence(10),
		Visibility:  visibilities[f.rng.Intn(len(visibilities))],
		CreatedAt:   f.createdAt(),
	}
	for _, override := range overrides {
		override(list)
	}
	if err := f.persist(list, &list.ID, "list"); err != nil {
		return nil, err
	}

	for i := range games {
		item := &models.ListItem{
			ListID:   list.ID,
			GameID:   games[i].ID,
			Position: i,
			Note:     gofakeit.Sentence(6),
		}
		if err := f.persist(item, &item.ID, "list_item"); err != nil {
			return nil, err
		}
		list.Items = append(list.Items, *item)
	}
	return list, nil
}

// CreateFollow persists follower following followee.
func (f *Factory) CreateFollow(follower, followee *models.User) error {
	if f.opts.DryRun {
		return nil
	}
	return f.db.Create(&models.Follow{FollowerID: follower.ID, FolloweeID: followee.ID}).Error
}
