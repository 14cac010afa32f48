// Package server contains the HTTP handlers for the charter administration API.
package server

import (
	"context"
	"fmt"
	"time"

	_ "muster/docs"
	"muster/internal/access"
	"muster/internal/cache"
	"muster/internal/config"
	"muster/internal/database"
	"muster/internal/featureflags"
	"muster/internal/middleware"
	"muster/internal/models"
	"muster/internal/notifications"
	"muster/internal/repository"
	"muster/internal/service"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/swagger"
	"github.com/jonboulle/clockwork"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Deps are the already-initialized collaborators of a Server.
type Deps struct {
	DB     *gorm.DB
	Redis  *redis.Client
	Mailer notifications.Mailer
	Clock  clockwork.Clock
}

// Server holds all dependencies and provides handlers
type Server struct {
	config         *config.Config
	db             *gorm.DB
	redis          *redis.Client
	app            *fiber.App
	promMiddleware *fiberprometheus.FiberPrometheus
	shutdownCtx    context.Context
	shutdownFn     context.CancelFunc
	userRepo       repository.UserRepository
	notifier       *notifications.Notifier
	dispatcher     *notifications.Dispatcher
	gate           *access.Gate
	featureFlags   *featureflags.Manager
	charterService *service.CharterService
	leagueService  *service.LeagueService
	authService    *service.AuthService
	roleService    *service.RoleService
}

// NewServer creates a new server instance with all dependencies
func NewServer(cfg *config.Config) (*Server, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}

	cache.InitRedis(cfg.RedisURL)

	mailer, err := notifications.NewMailer(cfg, middleware.Logger)
	if err != nil {
		return nil, fmt.Errorf("mailer setup failed: %w", err)
	}

	return NewServerWithDeps(cfg, Deps{DB: db, Redis: cache.GetClient(), Mailer: mailer})
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// Use this in tests or when a bootstrap layer establishes DB/Redis itself.
func NewServerWithDeps(cfg *config.Config, deps Deps) (*Server, error) {
	if deps.DB == nil {
		return nil, fmt.Errorf("database is required")
	}
	clock := deps.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	middleware.InitMiddleware(cfg)

	userRepo := repository.NewUserRepository(deps.DB)
	leagueRepo := repository.NewLeagueRepository(deps.DB)
	charterRepo := repository.NewCharterRepository(deps.DB)
	typeRepo := repository.NewCharterTypeRepository(deps.DB)
	eventRepo := repository.NewEventRepository(deps.DB)

	s := &Server{
		config:         cfg,
		db:             deps.DB,
		redis:          deps.Redis,
		promMiddleware: middleware.InitMetrics("muster-api"),
		userRepo:       userRepo,
		gate:           access.NewGate(access.DefaultRegistry(), clock),
		featureFlags:   featureflags.NewManager(cfg.FeatureFlags),
	}

	if deps.Redis != nil {
		s.notifier = notifications.NewNotifier(deps.Redis)
	}
	s.dispatcher = notifications.NewDispatcher(deps.Mailer, s.notifier, notifications.DispatcherConfig{
		OperatorAddress: cfg.MailFromAddress,
		OperatorName:    cfg.MailFromName,
		AppURL:          cfg.AppURL,
	}, clock, middleware.Logger)

	s.charterService = service.NewCharterService(leagueRepo, charterRepo, typeRepo, s.gate,
		s.featureFlags, s.dispatcher, service.NewAuditor(eventRepo), clock)
	s.leagueService = service.NewLeagueService(leagueRepo, charterRepo, userRepo, s.gate, clock)
	s.authService = service.NewAuthService(userRepo)
	s.roleService = service.NewRoleService(userRepo, s.gate.Registry())

	return s, nil
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(middleware.ContextMiddleware())

	if s.promMiddleware != nil {
		app.Use(middleware.MetricsMiddleware(s.promMiddleware))
	}

	app.Use(helmet.New())
	app.Use(middleware.TracingMiddleware())
	app.Use(middleware.StructuredLogger())

	// CORS runs before the limiter so rejected requests still carry the headers.
	origins := s.config.AllowedOrigins
	if origins == "" {
		origins = "http://localhost:5173,http://localhost:3000"
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: origins != "*",
		MaxAge:           86400,
	}))

	app.Use(limiter.New(limiter.Config{
		Max:        120,
		Expiration: time.Minute,
		Next: func(c *fiber.Ctx) bool {
			return c.Method() == fiber.MethodOptions || !s.config.IsProduction()
		},
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(models.ErrorResponse{
				Error: "Too many requests, please try again later.",
			})
		},
	}))
}

// SetupRoutes configures all routes for the application
func (s *Server) SetupRoutes(app *fiber.App) {
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)

	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}

	api := app.Group("/api")

	auth := api.Group("/auth")
	auth.Post("/login", middleware.RateLimit(s.redis, 10, 5*time.Minute, "login"), s.Login)
	auth.Get("/me", middleware.AuthRequired, s.Me)

	api.Get("/swagger/*", swagger.HandlerDefault)
	api.Get("/charter-types", s.GetCharterTypes)

	// Anonymous visitors may browse leagues and current charters.
	leagues := api.Group("/leagues")
	leagues.Get("/", s.GetLeagues)
	leagues.Get("/:league", middleware.OptionalAuth, s.GetLeague)
	leagues.Get("/:league/charters", middleware.OptionalAuth, s.GetLeague)
	leagues.Get("/:league/charters/:charter", middleware.OptionalAuth, s.ShowCharter)

	charters := leagues.Group("/:league/charters", middleware.AuthRequired)
	charters.Post("/", middleware.RateLimit(s.redis, 20, time.Minute, "charter_upload"), s.CreateCharter)
	// Specific /:charter/:action routes before the generic /:charter ones
	charters.Get("/:charter/edit", s.EditCharter)
	charters.Post("/:charter/request-approval", s.RequestApproval)
	charters.Post("/:charter/approve", s.ApproveCharter)
	charters.Post("/:charter/reject", s.RejectCharter)
	charters.Put("/:charter", middleware.RateLimit(s.redis, 20, time.Minute, "charter_upload"), s.UpdateCharter)
	charters.Delete("/:charter", s.DeleteCharter)

	admin := api.Group("/admin", middleware.AuthRequired, s.PermissionRequired(access.PermRoles))
	admin.Get("/users", s.GetUsers)
	admin.Post("/roles/grant", s.GrantRole)
	admin.Post("/roles/revoke", s.RevokeRole)
	admin.Get("/feature-flags", s.GetFeatureFlags)

	manageLeagues := s.PermissionRequired(access.PermLeagues)
	admin.Post("/leagues", manageLeagues, s.CreateLeague)
	admin.Get("/leagues/owner-candidates", manageLeagues, s.GetOwnerCandidates)
	admin.Get("/leagues/:league/owner-candidates", manageLeagues, s.GetOwnerCandidates)
	admin.Put("/leagues/:league", manageLeagues, s.UpdateLeague)
}

// App builds a Fiber app with middleware and routes configured.
func (s *Server) App() *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:   "Muster Charter API",
		BodyLimit: s.config.UploadMaxBytes(),
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			if fe, ok := err.(*fiber.Error); ok {
				return c.Status(fe.Code).JSON(models.ErrorResponse{Error: fe.Message})
			}
			middleware.Logger.ErrorContext(c.UserContext(), "unhandled error", "error", err)
			return models.RespondWithError(c, fiber.StatusInternalServerError, models.NewInternalError(err))
		},
	})
	s.SetupMiddleware(app)
	s.SetupRoutes(app)
	return app
}

// Start starts the server
func (s *Server) Start() error {
	ctx, cancel := context.WithCancel(context.Background())
	s.shutdownCtx = ctx
	s.shutdownFn = cancel

	s.app = s.App()

	if s.notifier != nil {
		go func() {
			if err := s.notifier.StartSubscriber(s.shutdownCtx, s.logNotification); err != nil {
				middleware.Logger.Error("failed to start notification subscriber", "error", err)
			}
		}()
	}

	middleware.Logger.Info("server starting", "port", s.config.Port)
	return s.app.Listen(":" + s.config.Port)
}

// logNotification mirrors the charter feed into the application log.
func (s *Server) logNotification(channel, payload string) {
	middleware.Logger.Info("charter notification", "channel", channel, "payload", payload)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.shutdownFn != nil {
		s.shutdownFn()
	}

	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			middleware.Logger.Error("error shutting down HTTP server", "error", err)
		}
	}

	// Let in-flight notifications finish before their transports close.
	done := make(chan struct{})
	go func() {
		s.dispatcher.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		middleware.Logger.Warn("notifications still in flight at shutdown")
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

	middleware.Logger.Info("server shutdown complete")
	return nil
}

// LivenessCheck handles liveness checks
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "up",
		"time":   time.Now(),
	})
}

// ReadinessCheck handles readiness checks. Redis is optional, only
// the database decides readiness.
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), 5*time.Second)
	defer cancel()

	dbStatus := "healthy"
	sqlDB, err := s.db.DB()
	if err != nil {
		dbStatus = "unhealthy"
	} else if err := sqlDB.PingContext(ctx); err != nil {
		dbStatus = "unhealthy"
	}

	redisStatus := "unavailable"
	if s.redis != nil {
		redisStatus = "healthy"
		if err := s.redis.Ping(ctx).Err(); err != nil {
			redisStatus = "unhealthy"
		}
	}

	status := fiber.StatusOK
	overallStatus := "healthy"
	if dbStatus != "healthy" {
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
