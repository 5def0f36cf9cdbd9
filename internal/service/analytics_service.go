package service

import (
	"context"
	"slices"
	"strings"
	"time"

	"respawn/internal/cache"
	"respawn/internal/models"
	"respawn/internal/observability"
	"respawn/internal/repository"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultAnalyticsRange = "30d"
	topGamesLimit         = 10
	topUsersLimit         = 10
	topGenresLimit        = 9
	topReviewersLimit     = 5
	statsQueryConcurrency = 4
)

type AnalyticsOverview struct {
	TotalUsers    int64 `json:"totalUsers"`
	TotalGames    int64 `json:"totalGames"`
	TotalReviews  int64 `json:"totalReviews"`
	TotalLists    int64 `json:"totalLists"`
	TotalComments int64 `json:"totalComments"`
	TotalVotes    int64 `json:"totalVotes"`
}

type TopGame struct {
	ID            uint    `json:"id"`
	Title         string  `json:"title"`
	Slug          string  `json:"slug"`
	ReviewCount   int64   `json:"reviewCount"`
	AverageRating float64 `json:"averageRating"`
}

type TopUser struct {
	ID            uint   `json:"id"`
	Username      string `json:"username"`
	ReviewCount   int64  `json:"reviewCount"`
	FollowerCount int64  `json:"followerCount"`
}

type GenreStat struct {
	Genre       string `json:"genre"`
	GameCount   int64  `json:"gameCount"`
	ReviewCount int64  `json:"reviewCount"`
}

type ActivityEntry struct {
	Type        string    `json:"type"`
	Description string    `json:"description"`
	Timestamp   time.Time `json:"timestamp"`
	Count       int64     `json:"count"`
}

type ContentMetrics struct {
	TopGames  []TopGame   `json:"topGames"`
	TopUsers  []TopUser   `json:"topUsers"`
	TopGenres []GenreStat `json:"topGenres"`
}

type Performance struct {
	RecentActivity []ActivityEntry `json:"recentActivity"`
}

// Analytics is the admin dashboard payload.
type Analytics struct {
	Overview       AnalyticsOverview `json:"overview"`
	ContentMetrics ContentMetrics    `json:"contentMetrics"`
	Performance    Performance       `json:"performance"`
	Range          string            `json:"range"`
	GeneratedAt    time.Time         `json:"generatedAt"`
}

// CommunityStats is the public community summary.
type CommunityStats struct {
	UserCount    int64     `json:"userCount"`
	ReviewCount  int64     `json:"reviewCount"`
	GameCount    int64     `json:"gameCount"`
	ListCount    int64     `json:"listCount"`
	TopReviewers []TopUser `json:"topReviewers"`
}

// AnalyticsService builds the admin analytics and community stats reports.
type AnalyticsService struct {
	stats    repository.StatsRepository
	settings SettingsLoader
	now      func() time.Time
}

func NewAnalyticsService(stats repository.StatsRepository, settings SettingsLoader) *AnalyticsService {
	return &AnalyticsService{stats: stats, settings: settings, now: time.Now}
}

// ParseRange defaults an empty range to 30d and rejects anything unknown.
func ParseRange(r string) (string, error) {
	r = strings.ToLower(strings.TrimSpace(r))
	if r == "" {
		return DefaultAnalyticsRange, nil
	}
	if !slices.Contains(cache.AnalyticsRanges, r) {
		return "", models.NewValidationError("Invalid range. Must be one of: " + strings.Join(cache.AnalyticsRanges, ", "))
	}
	return r, nil
}

// RangeCutoff is one calendar year back for 1y and N days back otherwise.
func RangeCutoff(now time.Time, r string) time.Time {
	switch r {
	case "7d":
		return now.AddDate(0, 0, -7)
	case "90d":
		return now.AddDate(0, 0, -90)
	case "1y":
		return now.AddDate(-1, 0, 0)
	default:
		return now.AddDate(0, 0, -30)
	}
}

// AverageRating is sum/count, and exactly 0 for a game with no reviews.
func AverageRating(sum float64, count int64) float64 {
	if count == 0 {
		return 0
	}
	return sum / float64(count)
}

// FoldGenres counts every genre of every game, so a multi-genre game adds
// its reviews to each of its genres. The result is sorted by review count
// descending, then genre name.
func FoldGenres(games []repository.GameGenreStat) []GenreStat {
	byGenre := make(map[string]*GenreStat)
	for _, g := range games {
		for _, genre := range g.Genres {
			st, ok := byGenre[genre]
			if !ok {
				st = &GenreStat{Genre: genre}
				byGenre[genre] = st
			}
			st.GameCount++
			st.ReviewCount += g.ReviewCount
		}
	}

	out := make([]GenreStat, 0, len(byGenre))
	for _, st := range byGenre {
		out = append(out, *st)
	}
	slices.SortFunc(out, func(a, b GenreStat) int {
		if a.ReviewCount != b.ReviewCount {
			if a.ReviewCount > b.ReviewCount {
				return -1
			}
			return 1
		}
		return strings.Compare(a.Genre, b.Genre)
	})
	return out
}

func (s *AnalyticsService) cacheTTL(ctx context.Context) time.Duration {
	if s.settings == nil {
		return cache.DefaultAggregateTTL
	}
	settings, err := s.settings.Load(ctx)
	if err != nil {
		return 0
	}
	if !settings.System.EnableCaching {
		return 0
	}
	return time.Duration(settings.System.CacheTimeout) * time.Second
}

// Analytics returns the report for rangeKey, served from cache when enabled.
func (s *AnalyticsService) Analytics(ctx context.Context, rangeKey string) (*Analytics, error) {
	r, err := ParseRange(rangeKey)
	if err != nil {
		return nil, err
	}

	ctx, span := observability.StartServiceSpan(ctx, "AnalyticsService", "Analytics", attribute.String("analytics.range", r))
	var out Analytics
	err = cache.Aside(ctx, cache.AnalyticsKey(r), &out, s.cacheTTL(ctx), func() error {
		report, err := s.build(ctx, r)
		if err != nil {
			return err
		}
		out = *report
		return nil
	})
	observability.EndSpan(span, err)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *AnalyticsService) build(ctx context.Context, r string) (*Analytics, error) {
	start := time.Now()
	defer func() {
		observability.AnalyticsDuration.WithLabelValues(r).Observe(time.Since(start).Seconds())
	}()

	now := s.now()
	cutoff := RangeCutoff(now, r)

	report := &Analytics{Range: r, GeneratedAt: now}
	var (
		topGames    []repository.GameReviewStat
		topUsers    []repository.UserReviewStat
		genres      []repository.GameGenreStat
		recentUsers int64
		recentRevs  int64
		recentGames int64
		recentLists int64
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(statsQueryConcurrency)

	count := func(dst *int64, entity string, since *time.Time) {
		g.Go(func() error {
			n, err := s.stats.Count(gctx, entity, since)
			if err != nil {
				return err
			}
			*dst = n
			return nil
		})
	}
	count(&report.Overview.TotalUsers, repository.EntityUsers, nil)
	count(&report.Overview.TotalGames, repository.EntityGames, nil)
	count(&report.Overview.TotalReviews, repository.EntityReviews, nil)
	count(&report.Overview.TotalLists, repository.EntityLists, nil)
	count(&report.Overview.TotalComments, repository.EntityComments, nil)
	count(&report.Overview.TotalVotes, repository.EntityVotes, nil)
	count(&recentUsers, repository.EntityUsers, &cutoff)
	count(&recentRevs, repository.EntityReviews, &cutoff)
	count(&recentGames, repository.EntityGames, &cutoff)
	count(&recentLists, repository.EntityLists, &cutoff)

	g.Go(func() error {
		var err error
		topGames, err = s.stats.TopGames(gctx, topGamesLimit)
		return err
	})
	g.Go(func() error {
		var err error
		topUsers, err = s.stats.TopUsers(gctx, topUsersLimit)
		return err
	})
	g.Go(func() error {
		var err error
		genres, err = s.stats.GameGenres(gctx)
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	report.ContentMetrics.TopGames = toTopGames(topGames)
	report.ContentMetrics.TopUsers = toTopUsers(topUsers)

	folded := FoldGenres(genres)
	if len(folded) > topGenresLimit {
		folded = folded[:topGenresLimit]
	}
	report.ContentMetrics.TopGenres = folded

	report.Performance.RecentActivity = []ActivityEntry{
		{Type: "USERS", Description: "New users joined", Timestamp: now, Count: recentUsers},
		{Type: "REVIEWS", Description: "New reviews posted", Timestamp: now, Count: recentRevs},
		{Type: "GAMES", Description: "New games added", Timestamp: now, Count: recentGames},
		{Type: "LISTS", Description: "New lists created", Timestamp: now, Count: recentLists},
	}
	return report, nil
}

// CommunityStats returns the public summary, cached like Analytics.
func (s *AnalyticsService) CommunityStats(ctx context.Context) (*CommunityStats, error) {
	ctx, span := observability.StartServiceSpan(ctx, "AnalyticsService", "CommunityStats")
	var out CommunityStats
	err := cache.Aside(ctx, cache.CommunityStatsKey, &out, s.cacheTTL(ctx), func() error {
		var reviewers []repository.UserReviewStat
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(statsQueryConcurrency)
		for _, c := range []struct {
			dst    *int64
			entity string
		}{
			{&out.UserCount, repository.EntityUsers},
			{&out.ReviewCount, repository.EntityReviews},
			{&out.GameCount, repository.EntityGames},
			{&out.ListCount, repository.EntityLists},
		} {
			g.Go(func() error {
				n, err := s.stats.Count(gctx, c.entity, nil)
				if err != nil {
					return err
				}
				*c.dst = n
				return nil
			})
		}
		g.Go(func() error {
			var err error
			reviewers, err = s.stats.TopUsers(gctx, topReviewersLimit)
			return err
		})
		if err := g.Wait(); err != nil {
			return err
		}
		out.TopReviewers = toTopUsers(reviewers)
		return nil
	})
	observability.EndSpan(span, err)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func toTopGames(rows []repository.GameReviewStat) []TopGame {
	out := make([]TopGame, 0, len(rows))
	for _, row := range rows {
		out = append(out, TopGame{
			ID:            row.ID,
			Title:         row.Title,
			Slug:          row.Slug,
			ReviewCount:   row.ReviewCount,
			AverageRating: AverageRating(row.RatingSum, row.ReviewCount),
		})
	}
	return out
}

func toTopUsers(rows []repository.UserReviewStat) []TopUser {
	out := make([]TopUser, 0, len(rows))
	for _, row := range rows {
		out = append(out, TopUser{
			ID:            row.ID,
			Username:      row.Username,
			ReviewCount:   row.ReviewCount,
			FollowerCount: row.FollowerCount,
		})
	}
	return out
}
