package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync/atomic"
	"testing"
	"time"

	"respawn/internal/cache"
	"respawn/internal/models"
	"respawn/internal/repository"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// statsRepoStub serves fixed aggregates and counts every call.
type statsRepoStub struct {
	counts   map[string]int64
	recent   map[string]int64
	games    []repository.GameReviewStat
	users    []repository.UserReviewStat
	genres   []repository.GameGenreStat
	countErr error
	calls    atomic.Int64
}

func (s *statsRepoStub) Count(_ context.Context, entity string, since *time.Time) (int64, error) {
	s.calls.Add(1)
	if s.countErr != nil {
		return 0, s.countErr
	}
	if since != nil {
		return s.recent[entity], nil
	}
	return s.counts[entity], nil
}
func (s *statsRepoStub) TopGames(_ context.Context, limit int) ([]repository.GameReviewStat, error) {
	s.calls.Add(1)
	return s.games[:min(limit, len(s.games))], nil
}
func (s *statsRepoStub) TopUsers(_ context.Context, limit int) ([]repository.UserReviewStat, error) {
	s.calls.Add(1)
	return s.users[:min(limit, len(s.users))], nil
}
func (s *statsRepoStub) GameGenres(context.Context) ([]repository.GameGenreStat, error) {
	s.calls.Add(1)
	return s.genres, nil
}

func genreGame(reviews int64, genres ...string) repository.GameGenreStat {
	return repository.GameGenreStat{Genres: genres, ReviewCount: reviews}
}

func TestParseRange(t *testing.T) {
	r, err := ParseRange("")
	require.NoError(t, err)
	assert.Equal(t, "30d", r)

	for _, valid := range []string{"7d", "30d", "90d", "1y", " 1Y "} {
		_, err := ParseRange(valid)
		assert.NoError(t, err, valid)
	}

	_, err = ParseRange("2w")
	assertCode(t, err, models.CodeValidation)
}

func TestRangeCutoff(t *testing.T) {
	now := time.Date(2024, time.March, 1, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, now.AddDate(0, 0, -7), RangeCutoff(now, "7d"))
	assert.Equal(t, now.AddDate(0, 0, -30), RangeCutoff(now, "30d"))
	assert.Equal(t, now.AddDate(0, 0, -90), RangeCutoff(now, "90d"))
	assert.Equal(t, time.Date(2023, time.March, 1, 12, 0, 0, 0, time.UTC), RangeCutoff(now, "1y"))
}

func TestAverageRating_ZeroReviewsIsZero(t *testing.T) {
	assert.Equal(t, 0.0, AverageRating(0, 0))
	assert.Equal(t, 0.0, AverageRating(17, 0))
	assert.InDelta(t, 7.75, AverageRating(15.5, 2), 1e-9)
}

func TestFoldGenres_SumProperty(t *testing.T) {
	games := []repository.GameGenreStat{
		genreGame(4, "RPG", "Action"),
		genreGame(0, "Puzzle"),
		genreGame(7, "Action"),
		genreGame(2, "RPG", "Puzzle", "Indie"),
		genreGame(5),
	}

	var want int64
	for _, g := range games {
		want += g.ReviewCount * int64(len(g.Genres))
	}

	folded := FoldGenres(games)
	var got int64
	for _, st := range folded {
		got += st.ReviewCount
	}
	assert.Equal(t, want, got)

	assert.Equal(t, []GenreStat{
		{Genre: "Action", GameCount: 2, ReviewCount: 11},
		{Genre: "RPG", GameCount: 2, ReviewCount: 6},
		{Genre: "Indie", GameCount: 1, ReviewCount: 2},
		{Genre: "Puzzle", GameCount: 2, ReviewCount: 2},
	}, folded)
}

func TestFoldGenres_OrderIndependent(t *testing.T) {
	games := make([]repository.GameGenreStat, 0, 40)
	names := []string{"RPG", "Action", "Puzzle", "Indie", "Shooter", "Racing"}
	for i := 0; i < 40; i++ {
		games = append(games, genreGame(int64(i%5), names[i%len(names)], names[(i*7)%len(names)]))
	}
	want := FoldGenres(games)

	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 10; i++ {
		shuffled := append([]repository.GameGenreStat(nil), games...)
		rng.Shuffle(len(shuffled), func(a, b int) { shuffled[a], shuffled[b] = shuffled[b], shuffled[a] })
		assert.Equal(t, want, FoldGenres(shuffled))
	}
}

func fixtureStats() *statsRepoStub {
	genres := make([]repository.GameGenreStat, 0, 12)
	for i := 0; i < 12; i++ {
		genres = append(genres, genreGame(int64(i), fmt.Sprintf("G%02d", i)))
	}
	return &statsRepoStub{
		counts: map[string]int64{
			repository.EntityUsers: 10, repository.EntityGames: 12, repository.EntityReviews: 30,
			repository.EntityLists: 4, repository.EntityComments: 9, repository.EntityVotes: 21,
		},
		recent: map[string]int64{
			repository.EntityUsers: 2, repository.EntityReviews: 5, repository.EntityGames: 1, repository.EntityLists: 3,
		},
		games: []repository.GameReviewStat{
			{ID: 1, Title: "Hades", Slug: "hades", ReviewCount: 2, RatingSum: 19},
			{ID: 2, Title: "Unloved", Slug: "unloved", ReviewCount: 0, RatingSum: 0},
		},
		users: []repository.UserReviewStat{
			{ID: 1, Username: "a", ReviewCount: 9, FollowerCount: 3},
			{ID: 2, Username: "b", ReviewCount: 4},
			{ID: 3, Username: "c", ReviewCount: 3},
			{ID: 4, Username: "d", ReviewCount: 2},
			{ID: 5, Username: "e", ReviewCount: 1},
			{ID: 6, Username: "f", ReviewCount: 0},
		},
		genres: genres,
	}
}

func TestAnalyticsService_Analytics(t *testing.T) {
	now := time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC)
	svc := NewAnalyticsService(fixtureStats(), nil)
	svc.now = func() time.Time { return now }

	report, err := svc.Analytics(context.Background(), "7d")
	require.NoError(t, err)

	assert.Equal(t, "7d", report.Range)
	assert.Equal(t, now, report.GeneratedAt)
	assert.Equal(t, AnalyticsOverview{
		TotalUsers: 10, TotalGames: 12, TotalReviews: 30, TotalLists: 4, TotalComments: 9, TotalVotes: 21,
	}, report.Overview)

	require.Len(t, report.ContentMetrics.TopGames, 2)
	assert.Equal(t, 9.5, report.ContentMetrics.TopGames[0].AverageRating)
	assert.Equal(t, 0.0, report.ContentMetrics.TopGames[1].AverageRating)
	assert.Len(t, report.ContentMetrics.TopUsers, 6)

	require.Len(t, report.ContentMetrics.TopGenres, 9)
	assert.Equal(t, "G11", report.ContentMetrics.TopGenres[0].Genre)
	assert.Equal(t, "G03", report.ContentMetrics.TopGenres[8].Genre)

	activity := report.Performance.RecentActivity
	require.Len(t, activity, 4)
	assert.Equal(t, ActivityEntry{Type: "USERS", Description: "New users joined", Timestamp: now, Count: 2}, activity[0])
	assert.Equal(t, "REVIEWS", activity[1].Type)
	assert.Equal(t, int64(5), activity[1].Count)
	assert.Equal(t, "New games added", activity[2].Description)
	assert.Equal(t, "New lists created", activity[3].Description)
	assert.Equal(t, int64(3), activity[3].Count)
}

func TestAnalyticsService_InvalidRangeAndErrors(t *testing.T) {
	stats := fixtureStats()
	svc := NewAnalyticsService(stats, nil)

	_, err := svc.Analytics(context.Background(), "forever")
	assertCode(t, err, models.CodeValidation)
	assert.Zero(t, stats.calls.Load())

	stats.countErr = errors.New("db down")
	_, err = svc.Analytics(context.Background(), "30d")
	assert.ErrorIs(t, err, stats.countErr)
}

func TestAnalyticsService_CommunityStats(t *testing.T) {
	svc := NewAnalyticsService(fixtureStats(), nil)

	stats, err := svc.CommunityStats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(10), stats.UserCount)
	assert.Equal(t, int64(30), stats.ReviewCount)
	assert.Equal(t, int64(12), stats.GameCount)
	assert.Equal(t, int64(4), stats.ListCount)
	require.Len(t, stats.TopReviewers, 5)
	assert.Equal(t, "a", stats.TopReviewers[0].Username)
}

func TestAnalyticsService_CachesWhenEnabled(t *testing.T) {
	mr := miniredis.RunT(t)
	cache.SetClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	t.Cleanup(func() { cache.SetClient(nil) })

	stats := fixtureStats()
	settings := defaultSettings()
	svc := NewAnalyticsService(stats, settings)
	ctx := context.Background()

	first, err := svc.Analytics(ctx, "30d")
	require.NoError(t, err)
	calls := stats.calls.Load()
	require.NotZero(t, calls)

	second, err := svc.Analytics(ctx, "30d")
	require.NoError(t, err)
	assert.Equal(t, calls, stats.calls.Load(), "second call should be served from cache")
	assert.Equal(t, first.Overview, second.Overview)
	assert.True(t, mr.Exists(cache.AnalyticsKey("30d")))

	cache.InvalidateAggregates(ctx)
	_, err = svc.Analytics(ctx, "30d")
	require.NoError(t, err)
	assert.Greater(t, stats.calls.Load(), calls)

	settings.settings.System.EnableCaching = false
	cache.InvalidateAggregates(ctx)
	before := stats.calls.Load()
	_, err = svc.Analytics(ctx, "30d")
	require.NoError(t, err)
	assert.False(t, mr.Exists(cache.AnalyticsKey("30d")))
	assert.Greater(t, stats.calls.Load(), before)
}
