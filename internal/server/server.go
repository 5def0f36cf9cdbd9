package server

import (
	"context"
	"errors"
	"slices"
	"time"

	_ "respawn/docs" // swagger docs
	"respawn/internal/bootstrap"
	"respawn/internal/config"
	"respawn/internal/featureflags"
	"respawn/internal/middleware"
	"respawn/internal/models"
	"respawn/internal/repository"
	"respawn/internal/service"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/getsentry/sentry-go"
	sentryfiber "github.com/getsentry/sentry-go/fiber"
	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/monitor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/swagger"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Server holds all dependencies and provides handlers
type Server struct {
	config         *config.Config
	db             *gorm.DB
	redis          *redis.Client
	app            *fiber.App
	promMiddleware *fiberprometheus.FiberPrometheus
	featureFlags   *featureflags.Manager

	userRepo repository.UserRepository

	authService      *service.AuthService
	userService      *service.UserService
	followService    *service.FollowService
	gameService      *service.GameService
	reviewService    *service.ReviewService
	commentService   *service.CommentService
	voteService      *service.VoteService
	listService      *service.ListService
	reportService    *service.ReportService
	analyticsService *service.AnalyticsService
	settingsService  *service.SettingsService
	auditService     *service.AuditService
}

// NewServer connects to the database and Redis and wires every service.
func NewServer(cfg *config.Config) (*Server, error) {
	db, rdb, err := bootstrap.InitRuntime(cfg, bootstrap.Options{SeedCatalog: !cfg.IsProduction()})
	if err != nil {
		return nil, err
	}
	return NewServerWithDeps(cfg, db, rdb)
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// Use this in tests or when a bootstrap layer establishes DB/Redis itself.
func NewServerWithDeps(cfg *config.Config, db *gorm.DB, redisClient *redis.Client) (*Server, error) {
	userRepo := repository.NewUserRepository(db)
	gameRepo := repository.NewGameRepository(db)
	reviewRepo := repository.NewReviewRepository(db)

	s := &Server{
		config:         cfg,
		db:             db,
		redis:          redisClient,
		promMiddleware: middleware.InitMetrics("respawn-api"),
		featureFlags:   featureflags.NewManager(cfg.FeatureFlags),
		userRepo:       userRepo,
	}
	if invalid := s.featureFlags.Invalid(); len(invalid) > 0 {
		middleware.Logger.Warn("ignoring malformed feature flags", "flags", invalid)
	}

	s.auditService = service.NewAuditService(repository.NewAuditRepository(db))
	s.settingsService = service.NewSettingsService(repository.NewSettingsRepository(db), s.auditService)
	s.userService = service.NewUserService(userRepo, s.settingsService, s.auditService)
	s.authService = service.NewAuthService(userRepo, s.settingsService, redisClient, cfg.JWTSecret)
	s.followService = service.NewFollowService(repository.NewFollowRepository(db), userRepo)
	s.gameService = service.NewGameService(gameRepo, s.auditService)
	s.reviewService = service.NewReviewService(reviewRepo, gameRepo, userRepo, s.settingsService, s.auditService, s.userService.IsAdmin)
	s.commentService = service.NewCommentService(repository.NewCommentRepository(db), reviewRepo, userRepo, s.settingsService, s.userService.IsStaff)
	s.voteService = service.NewVoteService(repository.NewVoteRepository(db))
	s.listService = service.NewListService(repository.NewListRepository(db), gameRepo, s.settingsService, s.userService.IsAdmin)
	s.reportService = service.NewReportService(repository.NewReportRepository(db), s.auditService)
	s.analyticsService = service.NewAnalyticsService(repository.NewStatsRepository(db), s.settingsService)

	return s, nil
}

// NewApp builds the Fiber app with the JSON codec and error handler.
func (s *Server) NewApp() *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      "Respawn API",
		BodyLimit:    1 * 1024 * 1024,
		JSONEncoder:  json.Marshal,
		JSONDecoder:  json.Unmarshal,
		ErrorHandler: s.errorHandler,
	})
	s.SetupMiddleware(app)
	s.SetupRoutes(app)
	return app
}

// errorHandler renders errors that escape the handlers.
func (s *Server) errorHandler(c *fiber.Ctx, err error) error {
	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) && fiberErr.Code < fiber.StatusInternalServerError {
		return c.Status(fiberErr.Code).JSON(models.ErrorResponse{Error: fiberErr.Message})
	}

	middleware.Logger.ErrorContext(c.UserContext(), "unhandled error",
		"method", c.Method(), "path", c.Path(), "error", err)
	if hub := sentryfiber.GetHubFromContext(c); hub != nil {
		hub.CaptureException(err)
	}
	return models.RespondWithError(c, fiber.StatusInternalServerError, models.NewInternalError(err))
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	app.Use(recover.New())

	if s.config.SentryDSN != "" {
		app.Use(sentryfiber.New(sentryfiber.Options{
			Repanic:         true,
			WaitForDelivery: false,
		}))
	}

	app.Use(requestid.New())

	if s.config.TracingEnabled {
		app.Use(middleware.TracingMiddleware())
	}

	// Context Middleware to propagate Request ID and User ID
	app.Use(middleware.ContextMiddleware())

	if s.promMiddleware != nil {
		app.Use(middleware.MetricsMiddleware(s.promMiddleware))
	}

	app.Use(helmet.New())

	// Structured Logging middleware (after requestid and context middleware)
	app.Use(middleware.StructuredLogger())

	// CORS runs before anything that can short-circuit so error responses keep their headers.
	origins := s.config.AllowedOrigins
	if origins == "" {
		origins = "http://localhost:5173,http://localhost:3000,http://127.0.0.1:5173"
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	// Coarse per-IP ceiling; the settings-driven limit applies under /api.
	app.Use(limiter.New(limiter.Config{
		Max:        100,
		Expiration: 1 * time.Minute,
		Next: func(c *fiber.Ctx) bool {
			return c.Method() == fiber.MethodOptions || s.config.Env == "test"
		},
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return models.RespondWithError(c, fiber.StatusTooManyRequests,
				models.NewRateLimitError("Too many requests, please try again later."))
		},
	}))
}

// guardedRouter registers routes with its guard handlers prepended to each
// one. Unlike a fiber Group with handlers it installs no prefix-wide Use, so
// a request that matches none of its routes never runs the guards.
type guardedRouter struct {
	router fiber.Router
	prefix string
	guards []fiber.Handler
}

func guard(router fiber.Router, guards ...fiber.Handler) guardedRouter {
	return guardedRouter{router: router, guards: guards}
}

// Group returns a router under prefix that runs the parent guards, then guards.
func (g guardedRouter) Group(prefix string, guards ...fiber.Handler) guardedRouter {
	return guardedRouter{
		router: g.router,
		prefix: g.prefix + prefix,
		guards: append(slices.Clip(g.guards), guards...),
	}
}

func (g guardedRouter) add(method, path string, handlers ...fiber.Handler) {
	chain := append(slices.Clip(g.guards), handlers...)
	g.router.Add(method, g.prefix+path, chain...)
}

func (g guardedRouter) Get(path string, handlers ...fiber.Handler) {
	g.add(fiber.MethodGet, path, handlers...)
}

func (g guardedRouter) Post(path string, handlers ...fiber.Handler) {
	g.add(fiber.MethodPost, path, handlers...)
}

func (g guardedRouter) Put(path string, handlers ...fiber.Handler) {
	g.add(fiber.MethodPut, path, handlers...)
}

func (g guardedRouter) Delete(path string, handlers ...fiber.Handler) {
	g.add(fiber.MethodDelete, path, handlers...)
}

// SetupRoutes configures all routes for the application
func (s *Server) SetupRoutes(app *fiber.App) {
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)

	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}

	api := app.Group("/api", s.MaintenanceGuard(), middleware.RateLimitDynamic(
		s.redis, s.requestsPerMinute, time.Minute, middleware.FailOpen, "api"))

	api.Get("/metrics/dashboard", monitor.New(monitor.Config{
		Title: "Respawn Metrics Dashboard",
	}))
	api.Get("/swagger/*", swagger.HandlerDefault)

	// Auth
	auth := api.Group("/auth")
	auth.Post("/signup", middleware.RateLimit(s.redis, 5, 10*time.Minute, "signup"), s.Signup)
	auth.Post("/login", s.Login)
	auth.Post("/logout", s.AuthRequired(), s.Logout)

	// Public reads
	api.Get("/games", s.GetGames)
	api.Get("/games/:slug", s.GetGame)
	api.Get("/reviews", s.GetReviews)
	api.Get("/reviews/:id/comments", s.GetComments)
	api.Get("/reviews/:id", s.GetReview)
	api.Get("/lists", s.OptionalAuth(), s.GetLists)
	api.Get("/lists/:id", s.OptionalAuth(), s.GetList)
	api.Get("/community/stats", s.FeatureGate(featureflags.CommunityStats), s.GetCommunityStats)

	// Users: specific routes before the generic /:id route
	users := api.Group("/users")
	users.Get("/me", s.AuthRequired(), s.GetMyProfile)
	users.Get("/:id/followers", s.GetFollowers)
	users.Get("/:id/following", s.GetFollowing)
	users.Get("/:id", s.GetUserProfile)

	// Protected routes. Guards are attached per route so unmatched /api paths
	// still fall through to 404.
	protected := guard(api, s.AuthRequired(), s.ActiveUserRequired())

	protected.Put("/users/:id/profile", s.UpdateProfile)
	protected.Put("/users/:id/password", s.ChangePassword)
	protected.Post("/users/:id/follow", middleware.RateLimit(s.redis, 30, time.Minute, "follow"), s.FollowUser)
	protected.Delete("/users/:id/follow", s.UnfollowUser)

	protected.Post("/reviews", middleware.RateLimit(s.redis, 10, 5*time.Minute, "create_review"), s.CreateReview)
	protected.Put("/reviews/:id", s.UpdateReview)
	protected.Delete("/reviews/:id", s.DeleteReview)
	protected.Post("/reviews/:id/comments", middleware.RateLimit(s.redis, 10, time.Minute, "create_comment"), s.CreateComment)
	protected.Put("/comments/:id", s.UpdateComment)
	protected.Delete("/comments/:id", s.DeleteComment)

	protected.Post("/votes", s.CastVote)
	protected.Put("/votes", s.ChangeVote)
	protected.Delete("/votes", s.RemoveVote)

	protected.Post("/lists", s.CreateList)
	protected.Put("/lists/:id", s.UpdateList)
	protected.Delete("/lists/:id", s.DeleteList)
	protected.Post("/lists/:id/items", s.AddListItem)
	protected.Put("/lists/:id/items", s.ReorderListItems)
	protected.Delete("/lists/:id/items/:gameId", s.RemoveListItem)

	protected.Post("/reports", s.FeatureGate(featureflags.ReviewReports), middleware.RateLimit(s.redis, 10, 10*time.Minute, "create_report"), s.CreateReport)

	// Staff moderation
	staff := protected.Group("/admin", s.StaffRequired())
	staff.Get("/reviews", s.AdminGetReviews)
	staff.Delete("/reviews/:id", s.AdminDeleteReview)
	staff.Put("/reviews/:id/status", s.AdminUpdateReviewStatus)
	staff.Get("/reports", s.AdminGetReports)
	staff.Put("/reports/:id/status", s.AdminUpdateReportStatus)
	staff.Delete("/reports/:id", s.AdminDeleteReport)

	// Admin
	admin := protected.Group("/admin", s.AdminRequired())
	admin.Get("/analytics", s.AdminGetAnalytics)
	admin.Get("/games", s.AdminGetGames)
	admin.Post("/games", s.AdminCreateGame)
	admin.Put("/games/:id", s.AdminUpdateGame)
	admin.Delete("/games/:id", s.AdminDeleteGame)
	admin.Get("/users", s.AdminGetUsers)
	admin.Put("/users/:id/ban", s.AdminBanUser)
	admin.Put("/users/:id/verify", s.AdminVerifyUser)
	admin.Put("/users/:id", s.AdminUpdateUser)
	admin.Delete("/users/:id", s.AdminDeleteUser)
	admin.Get("/settings", s.AdminGetSettings)
	admin.Put("/settings", s.AdminUpdateSettings)
	admin.Get("/audit-logs", s.AdminGetAuditLogs)
	admin.Get("/feature-flags", s.GetFeatureFlags)
}

// requestsPerMinute resolves the settings-driven API limit; 0 disables it.
func (s *Server) requestsPerMinute(ctx context.Context) int {
	settings, err := s.settingsService.Load(ctx)
	if err != nil || !settings.System.EnableRateLimiting {
		return 0
	}
	return settings.System.MaxRequestsPerMinute
}

// LivenessCheck handles liveness check requests
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "up",
		"time":   time.Now(),
	})
}

// ReadinessCheck handles readiness check requests
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 5*time.Second)
	defer cancel()

	dbStatus := "healthy"
	sqlDB, err := s.db.DB()
	if err != nil {
		dbStatus = "unhealthy"
	} else if err := sqlDB.PingContext(ctx); err != nil {
		dbStatus = "unhealthy"
	}

	redisStatus := "healthy"
	if s.redis != nil {
		if err := s.redis.Ping(ctx).Err(); err != nil {
			redisStatus = "unhealthy"
		}
	} else {
		redisStatus = "unavailable"
	}

	status := fiber.StatusOK
	overallStatus := "healthy"
	if dbStatus == "unhealthy" || redisStatus != "healthy" {
		status = fiber.StatusServiceUnavailable
		overallStatus = "unhealthy"
	}

	return c.Status(status).JSON(fiber.Map{
		"status": overallStatus,
		"checks": fiber.Map{
			"database": dbStatus,
			"redis":    redisStatus,
		},
		"time": time.Now(),
	})
}

// Start builds the app and listens on the configured port.
func (s *Server) Start() error {
	s.app = s.NewApp()
	middleware.Logger.Info("server starting", "port", s.config.Port)
	return s.app.Listen(":" + s.config.Port)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			middleware.Logger.Error("error shutting down HTTP server", "error", err)
		}
	}

	if sqlDB, err := s.db.DB(); err == nil {
		if cerr := sqlDB.Close(); cerr != nil {
			middleware.Logger.Error("error closing sql DB", "error", cerr)
		}
	}

	if s.redis != nil {
		if rerr := s.redis.Close(); rerr != nil {
			middleware.Logger.Error("error closing redis", "error", rerr)
		}
	}

	sentry.Flush(2 * time.Second)
	middleware.Logger.Info("server shutdown complete")
	return nil
}
