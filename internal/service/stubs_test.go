package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"respawn/internal/models"
	"respawn/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// assertCode asserts that err is an AppError carrying code.
func assertCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	var appErr *models.AppError
	require.True(t, errors.As(err, &appErr), "expected AppError, got %T: %v", err, err)
	assert.Equal(t, code, appErr.Code)
}

// settingsStub is a fixed SettingsLoader.
type settingsStub struct {
	settings models.Settings
	err      error
}

func (s *settingsStub) Load(context.Context) (models.Settings, error) {
	return s.settings, s.err
}

func defaultSettings() *settingsStub {
	return &settingsStub{settings: models.DefaultSettings()}
}

func roleCheck(ok bool) RoleCheck {
	return func(context.Context, uint) (bool, error) { return ok, nil }
}

// userRepoStub is a stub for repository.UserRepository. Unset functions return zero values.
type userRepoStub struct {
	users          map[uint]*models.User
	updated        []*models.User
	deleted        []uint
	reviews, lists int64
	createFn       func(context.Context, *models.User) error
	getByEmailFn   func(context.Context, string) (*models.User, error)
	updateFn       func(context.Context, *models.User) error
}

func newUserRepoStub(users ...*models.User) *userRepoStub {
	s := &userRepoStub{users: map[uint]*models.User{}}
	for _, u := range users {
		s.users[u.ID] = u
	}
	return s
}

func (s *userRepoStub) GetByID(_ context.Context, id uint) (*models.User, error) {
	u, ok := s.users[id]
	if !ok {
		return nil, models.NewNotFoundError("User", id)
	}
	cp := *u
	return &cp, nil
}
func (s *userRepoStub) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	if s.getByEmailFn != nil {
		return s.getByEmailFn(ctx, email)
	}
	return nil, nil
}
func (s *userRepoStub) GetByUsername(context.Context, string) (*models.User, error) {
	return nil, nil
}
func (s *userRepoStub) GetProfile(ctx context.Context, id uint) (*models.UserProfile, error) {
	u, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return &models.UserProfile{User: *u}, nil
}
func (s *userRepoStub) List(context.Context, repository.UserFilter, int, int) ([]models.UserProfile, int64, error) {
	return nil, 0, nil
}
func (s *userRepoStub) ListAdmins(context.Context) ([]models.User, error) {
	return nil, nil
}
func (s *userRepoStub) CountContent(context.Context, uint) (int64, int64, error) {
	return s.reviews, s.lists, nil
}
func (s *userRepoStub) Create(ctx context.Context, user *models.User) error {
	if s.createFn != nil {
		return s.createFn(ctx, user)
	}
	user.ID = uint(len(s.users) + 1)
	s.users[user.ID] = user
	return nil
}
func (s *userRepoStub) Update(ctx context.Context, user *models.User) error {
	if s.updateFn != nil {
		return s.updateFn(ctx, user)
	}
	s.updated = append(s.updated, user)
	s.users[user.ID] = user
	return nil
}
func (s *userRepoStub) TouchLastLogin(context.Context, uint) error {
	return nil
}
func (s *userRepoStub) Delete(_ context.Context, id uint) error {
	s.deleted = append(s.deleted, id)
	return nil
}

// gameRepoStub is a stub for repository.GameRepository.
type gameRepoStub struct {
	games     map[uint]*models.Game
	reviews   int64
	slugTaken bool
	created   []*models.Game
	deleted   []uint
}

func newGameRepoStub(games ...*models.Game) *gameRepoStub {
	s := &gameRepoStub{games: map[uint]*models.Game{}}
	for _, g := range games {
		s.games[g.ID] = g
	}
	return s
}

func (s *gameRepoStub) List(context.Context, repository.GameFilter, int, int) ([]models.GameWithStats, int64, error) {
	return nil, 0, nil
}
func (s *gameRepoStub) GetByID(_ context.Context, id uint) (*models.Game, error) {
	g, ok := s.games[id]
	if !ok {
		return nil, models.NewNotFoundError("Game", id)
	}
	cp := *g
	return &cp, nil
}
func (s *gameRepoStub) GetBySlug(_ context.Context, slug string) (*models.GameWithStats, error) {
	for _, g := range s.games {
		if g.Slug == slug {
			return &models.GameWithStats{Game: *g}, nil
		}
	}
	return nil, models.NewNotFoundError("Game", slug)
}
func (s *gameRepoStub) SlugTaken(context.Context, string, uint) (bool, error) {
	return s.slugTaken, nil
}
func (s *gameRepoStub) CountReviews(context.Context, uint) (int64, error) {
	return s.reviews, nil
}
func (s *gameRepoStub) Create(_ context.Context, game *models.Game) error {
	game.ID = uint(len(s.games) + 1)
	s.games[game.ID] = game
	s.created = append(s.created, game)
	return nil
}
func (s *gameRepoStub) Update(_ context.Context, game *models.Game, _ string) error {
	s.games[game.ID] = game
	return nil
}
func (s *gameRepoStub) Delete(_ context.Context, game *models.Game) error {
	s.deleted = append(s.deleted, game.ID)
	return nil
}

// reviewRepoStub is a stub for repository.ReviewRepository.
type reviewRepoStub struct {
	reviews       map[uint]*models.Review
	countByUser   int64
	createFn      func(context.Context, *models.Review) error
	statusUpdates []string
	deleted       []uint
	lastFilter    repository.ReviewFilter
}

func newReviewRepoStub(reviews ...*models.Review) *reviewRepoStub {
	s := &reviewRepoStub{reviews: map[uint]*models.Review{}}
	for _, r := range reviews {
		s.reviews[r.ID] = r
	}
	return s
}

func (s *reviewRepoStub) List(_ context.Context, filter repository.ReviewFilter, _, _ int) ([]models.Review, int64, error) {
	s.lastFilter = filter
	return nil, 0, nil
}
func (s *reviewRepoStub) GetByID(_ context.Context, id uint) (*models.Review, error) {
	r, ok := s.reviews[id]
	if !ok {
		return nil, models.NewNotFoundError("Review", id)
	}
	cp := *r
	return &cp, nil
}
func (s *reviewRepoStub) CountByUser(context.Context, uint) (int64, error) {
	return s.countByUser, nil
}
func (s *reviewRepoStub) Create(ctx context.Context, review *models.Review) error {
	if s.createFn != nil {
		return s.createFn(ctx, review)
	}
	review.ID = uint(len(s.reviews) + 1)
	s.reviews[review.ID] = review
	return nil
}
func (s *reviewRepoStub) Update(_ context.Context, review *models.Review) error {
	s.reviews[review.ID] = review
	return nil
}
func (s *reviewRepoStub) UpdateStatus(_ context.Context, id uint, status string) error {
	s.statusUpdates = append(s.statusUpdates, status)
	if r, ok := s.reviews[id]; ok {
		r.Status = status
	}
	return nil
}
func (s *reviewRepoStub) Delete(_ context.Context, id uint) error {
	s.deleted = append(s.deleted, id)
	return nil
}

// auditRepoStub records every entry written.
type auditRepoStub struct {
	entries []*models.AuditLog
}

func (s *auditRepoStub) Create(_ context.Context, entry *models.AuditLog) error {
	s.entries = append(s.entries, entry)
	return nil
}
func (s *auditRepoStub) List(context.Context, string, int, int) ([]models.AuditLog, int64, error) {
	return nil, 0, nil
}

func (s *auditRepoStub) actions() []string {
	out := make([]string, 0, len(s.entries))
	for _, e := range s.entries {
		out = append(out, e.Action)
	}
	return out
}

// settingsRepoStub keeps the settings row in memory.
type settingsRepoStub struct {
	row   *models.PlatformSettings
	saves int
	gets  int
}

func (s *settingsRepoStub) Get(context.Context) (*models.PlatformSettings, error) {
	s.gets++
	if s.row == nil {
		return nil, models.NewNotFoundError("Settings", models.PlatformSettingsKey)
	}
	return s.row, nil
}
func (s *settingsRepoStub) Save(_ context.Context, row *models.PlatformSettings) error {
	s.saves++
	row.UpdatedAt = time.Now()
	s.row = row
	return nil
}

// followRepoStub tracks edges as follower->followee pairs.
type followRepoStub struct {
	edges map[[2]uint]bool
}

func newFollowRepoStub() *followRepoStub {
	return &followRepoStub{edges: map[[2]uint]bool{}}
}

func (s *followRepoStub) Create(_ context.Context, followerID, followeeID uint) error {
	key := [2]uint{followerID, followeeID}
	if s.edges[key] {
		return models.NewConflictError("You are already following this user", nil)
	}
	s.edges[key] = true
	return nil
}
func (s *followRepoStub) Delete(_ context.Context, followerID, followeeID uint) error {
	key := [2]uint{followerID, followeeID}
	if !s.edges[key] {
		return models.NewNotFoundError("Follow", followeeID)
	}
	delete(s.edges, key)
	return nil
}
func (s *followRepoStub) Exists(_ context.Context, followerID, followeeID uint) (bool, error) {
	return s.edges[[2]uint{followerID, followeeID}], nil
}
func (s *followRepoStub) Followers(context.Context, uint, int, int) ([]models.UserSummary, int64, error) {
	return nil, 0, nil
}
func (s *followRepoStub) Following(context.Context, uint, int, int) ([]models.UserSummary, int64, error) {
	return nil, 0, nil
}

// listRepoStub keeps lists and their ordered game ids in memory.
type listRepoStub struct {
	lists    map[uint]*models.List
	items    map[uint][]uint
	reorders [][]uint
	deleted  []uint
}

func newListRepoStub(lists ...*models.List) *listRepoStub {
	s := &listRepoStub{lists: map[uint]*models.List{}, items: map[uint][]uint{}}
	for _, l := range lists {
		s.lists[l.ID] = l
	}
	return s
}

func (s *listRepoStub) List(context.Context, repository.ListFilter, int, int) ([]models.List, int64, error) {
	return nil, 0, nil
}
func (s *listRepoStub) GetByID(_ context.Context, id uint) (*models.List, error) {
	l, ok := s.lists[id]
	if !ok {
		return nil, models.NewNotFoundError("List", id)
	}
	cp := *l
	return &cp, nil
}
func (s *listRepoStub) CountByUser(context.Context, uint) (int64, error) {
	return int64(len(s.lists)), nil
}
func (s *listRepoStub) Create(_ context.Context, list *models.List) error {
	list.ID = uint(len(s.lists) + 1)
	s.lists[list.ID] = list
	return nil
}
func (s *listRepoStub) Update(_ context.Context, list *models.List) error {
	s.lists[list.ID] = list
	return nil
}
func (s *listRepoStub) Delete(_ context.Context, id uint) error {
	s.deleted = append(s.deleted, id)
	delete(s.lists, id)
	return nil
}
func (s *listRepoStub) CountItems(_ context.Context, listID uint) (int64, error) {
	return int64(len(s.items[listID])), nil
}
func (s *listRepoStub) ItemGameIDs(_ context.Context, listID uint) ([]uint, error) {
	return s.items[listID], nil
}
func (s *listRepoStub) AddItem(_ context.Context, item *models.ListItem) error {
	item.Position = len(s.items[item.ListID])
	s.items[item.ListID] = append(s.items[item.ListID], item.GameID)
	return nil
}
func (s *listRepoStub) RemoveItem(context.Context, uint, uint) error {
	return nil
}
func (s *listRepoStub) Reorder(_ context.Context, listID uint, gameIDs []uint) error {
	s.reorders = append(s.reorders, gameIDs)
	s.items[listID] = gameIDs
	return nil
}

// voteRepoStub holds votes keyed by user and target.
type voteRepoStub struct {
	targets map[string]bool
	votes   map[string]*models.Vote
}

func newVoteRepoStub(targets ...string) *voteRepoStub {
	s := &voteRepoStub{targets: map[string]bool{}, votes: map[string]*models.Vote{}}
	for _, t := range targets {
		s.targets[t] = true
	}
	return s
}

func voteKey(userID uint, targetType string, targetID uint) string {
	return fmt.Sprintf("%d:%s:%d", userID, targetType, targetID)
}

func (s *voteRepoStub) Get(_ context.Context, userID uint, targetType string, targetID uint) (*models.Vote, error) {
	v, ok := s.votes[voteKey(userID, targetType, targetID)]
	if !ok {
		return nil, models.NewNotFoundError("Vote", targetID)
	}
	return v, nil
}
func (s *voteRepoStub) TargetExists(_ context.Context, targetType string, targetID uint) (bool, error) {
	return s.targets[fmt.Sprintf("%s:%d", targetType, targetID)], nil
}
func (s *voteRepoStub) Create(_ context.Context, vote *models.Vote) error {
	key := voteKey(vote.UserID, vote.TargetType, vote.TargetID)
	if _, ok := s.votes[key]; ok {
		return models.NewConflictError("You have already voted on this item", nil)
	}
	s.votes[key] = vote
	return nil
}
func (s *voteRepoStub) UpdateValue(_ context.Context, vote *models.Vote) error {
	key := voteKey(vote.UserID, vote.TargetType, vote.TargetID)
	existing, ok := s.votes[key]
	if !ok {
		return models.NewNotFoundError("Vote", vote.TargetID)
	}
	existing.Value = vote.Value
	return nil
}
func (s *voteRepoStub) Delete(_ context.Context, userID uint, targetType string, targetID uint) error {
	delete(s.votes, voteKey(userID, targetType, targetID))
	return nil
}
func (s *voteRepoStub) Tally(_ context.Context, targetType string, targetID uint) (models.VoteTally, error) {
	var tally models.VoteTally
	for _, v := range s.votes {
		if v.TargetType != targetType || v.TargetID != targetID {
			continue
		}
		if v.Value > 0 {
			tally.Upvotes++
		} else {
			tally.Downvotes++
		}
	}
	return tally, nil
}

// commentRepoStub keeps comments in memory.
type commentRepoStub struct {
	comments map[uint]*models.Comment
	count    int64
	deleted  []uint
}

func newCommentRepoStub(comments ...*models.Comment) *commentRepoStub {
	s := &commentRepoStub{comments: map[uint]*models.Comment{}}
	for _, c := range comments {
		s.comments[c.ID] = c
	}
	return s
}

func (s *commentRepoStub) Create(_ context.Context, comment *models.Comment) error {
	comment.ID = uint(len(s.comments) + 1)
	s.comments[comment.ID] = comment
	return nil
}
func (s *commentRepoStub) GetByID(_ context.Context, id uint) (*models.Comment, error) {
	c, ok := s.comments[id]
	if !ok {
		return nil, models.NewNotFoundError("Comment", id)
	}
	cp := *c
	return &cp, nil
}
func (s *commentRepoStub) ListByReview(context.Context, uint) ([]models.Comment, error) {
	return nil, nil
}
func (s *commentRepoStub) CountByReview(context.Context, uint) (int64, error) {
	return s.count, nil
}
func (s *commentRepoStub) Update(_ context.Context, comment *models.Comment) error {
	s.comments[comment.ID] = comment
	return nil
}
func (s *commentRepoStub) Delete(_ context.Context, id uint) error {
	s.deleted = append(s.deleted, id)
	return nil
}

// reportRepoStub keeps reports in memory; every target exists unless listed in missing.
type reportRepoStub struct {
	reports map[uint]*models.Report
	missing map[uint]bool
	loaded  int
}

func newReportRepoStub(reports ...*models.Report) *reportRepoStub {
	s := &reportRepoStub{reports: map[uint]*models.Report{}, missing: map[uint]bool{}}
	for _, r := range reports {
		s.reports[r.ID] = r
	}
	return s
}

func (s *reportRepoStub) Create(_ context.Context, report *models.Report) error {
	report.ID = uint(len(s.reports) + 1)
	s.reports[report.ID] = report
	return nil
}
func (s *reportRepoStub) GetByID(_ context.Context, id uint) (*models.Report, error) {
	r, ok := s.reports[id]
	if !ok {
		return nil, models.NewNotFoundError("Report", id)
	}
	cp := *r
	return &cp, nil
}
func (s *reportRepoStub) List(context.Context, repository.ReportFilter, int, int) ([]models.Report, int64, error) {
	out := make([]models.Report, 0, len(s.reports))
	for _, r := range s.reports {
		out = append(out, *r)
	}
	return out, int64(len(out)), nil
}
func (s *reportRepoStub) Update(_ context.Context, report *models.Report) error {
	s.reports[report.ID] = report
	return nil
}
func (s *reportRepoStub) Delete(_ context.Context, id uint) error {
	if _, ok := s.reports[id]; !ok {
		return models.NewNotFoundError("Report", id)
	}
	delete(s.reports, id)
	return nil
}
func (s *reportRepoStub) TargetExists(_ context.Context, _ string, targetID uint) (bool, error) {
	return !s.missing[targetID], nil
}
func (s *reportRepoStub) LoadTargetContent(context.Context, []models.Report) error {
	s.loaded++
	return nil
}
