// Package server contains the HTTP handlers for the application's API endpoints.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/monitor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"

	"oneiro/internal/ai"
	"oneiro/internal/bootstrap"
	"oneiro/internal/cache"
	"oneiro/internal/config"
	"oneiro/internal/featureflags"
	"oneiro/internal/middleware"
	"oneiro/internal/models"
	"oneiro/internal/observability"
	"oneiro/internal/repository"
	"oneiro/internal/service"
	"oneiro/internal/store"
)

const (
	tokenIssuer   = "oneiro-api"
	tokenAudience = "oneiro-client"
)

// Server holds all dependencies and provides handlers.
type Server struct {
	config         *config.Config
	db             store.Store
	redis          *redis.Client
	app            *fiber.App
	promMiddleware *fiberprometheus.FiberPrometheus
	logger         *slog.Logger
	flags          *featureflags.Manager

	userRepo     repository.UserRepository
	dreamRepo    repository.DreamRepository
	analysisRepo repository.AnalysisRepository
	commentRepo  repository.CommentRepository
	reactionRepo repository.ReactionRepository
	postRepo     repository.PostRepository

	analysisService *service.AnalysisService
	statsService    *service.StatsService
	imageService    *service.ImageService
}

// NewServer creates a server instance, opening the database and Redis
// from configuration.
func NewServer(cfg *config.Config) (*Server, error) {
	db, err := store.Open(cfg, middleware.Logger)
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := store.EnsureSchema(ctx, db, middleware.Logger); err != nil {
		return nil, fmt.Errorf("schema setup failed: %w", err)
	}

	if err := bootstrap.EnsureDevRootAdmin(ctx, cfg, db); err != nil {
		return nil, fmt.Errorf("root admin bootstrap failed: %w", err)
	}

	cache.InitRedis(cfg.RedisURL)

	var client ai.Client
	if cfg.AIAPIKey != "" {
		client, err = ai.NewClient(ai.Config{
			APIKey:  cfg.AIAPIKey,
			BaseURL: cfg.AIBaseURL,
			Model:   cfg.AIModel,
		})
		if err != nil {
			return nil, fmt.Errorf("AI client setup failed: %w", err)
		}
	}

	return NewServerWithDeps(cfg, db, cache.GetClient(), client), nil
}

// NewServerWithDeps creates a Server from already-initialized
// dependencies. Used by tests and the seeding command.
func NewServerWithDeps(cfg *config.Config, db store.Store, redisClient *redis.Client, client ai.Client) *Server {
	userRepo := repository.NewUserRepository(db)
	dreamRepo := repository.NewDreamRepository(db)
	analysisRepo := repository.NewAnalysisRepository(db)
	commentRepo := repository.NewCommentRepository(db)
	reactionRepo := repository.NewReactionRepository(db)
	postRepo := repository.NewPostRepository(db)

	s := &Server{
		config:         cfg,
		db:             db,
		redis:          redisClient,
		promMiddleware: observability.InitMetrics("oneiro-api"),
		logger:         middleware.Logger,
		flags:          featureflags.NewManager(cfg.FeatureFlags),
		userRepo:       userRepo,
		dreamRepo:      dreamRepo,
		analysisRepo:   analysisRepo,
		commentRepo:    commentRepo,
		reactionRepo:   reactionRepo,
		postRepo:       postRepo,
	}
	s.analysisService = service.NewAnalysisService(dreamRepo, analysisRepo, userRepo, client, s.logger)
	s.statsService = service.NewStatsService(userRepo, dreamRepo, analysisRepo)
	s.imageService = service.NewImageService(cfg)
	return s
}

// SetupMiddleware configures middleware for the Fiber app.
func (s *Server) SetupMiddleware(app *fiber.App) {
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(middleware.ContextMiddleware())
	app.Use(middleware.TracingMiddleware())

	if s.promMiddleware != nil {
		app.Use(s.promMiddleware.Middleware)
	}

	app.Use(helmet.New())
	app.Use(middleware.StructuredLogger())

	// CORS must run before middlewares that can short-circuit (e.g.
	// limiter) so browser clients still receive CORS headers on error
	// responses.
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

	// Global rate limiting (100 requests per minute per IP)
	app.Use(limiter.New(limiter.Config{
		Max:        100,
		Expiration: 1 * time.Minute,
		Next: func(c *fiber.Ctx) bool {
			return c.Method() == fiber.MethodOptions
		},
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "Too many requests, please try again later.",
			})
		},
	}))
}

// SetupRoutes configures all routes for the application.
func (s *Server) SetupRoutes(app *fiber.App) {
	api := app.Group("/api")

	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)
	app.Get("/health", s.ReadinessCheck)

	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}
	api.Get("/metrics/dashboard", monitor.New(monitor.Config{
		Title: "Oneiro Backend Metrics Dashboard",
	}))

	// Processed profile images are served statically.
	app.Static("/uploads", s.imageService.UploadDir())

	auth := api.Group("/auth")
	auth.Post("/register", middleware.RateLimit(
		s.redis, 3, 10*time.Minute, "register"), s.Register)
	auth.Post("/login", middleware.RateLimit(
		s.redis, 10, 5*time.Minute, "login"), s.Login)
	auth.Get("/me", s.AuthRequired(), s.GetProfile)
	auth.Get("/profile", s.AuthRequired(), s.GetProfile)
	auth.Put("/profile", s.AuthRequired(), s.UpdateProfile)

	dreams := api.Group("/dreams", s.AuthRequired())
	dreams.Post("/", s.CreateDream)
	dreams.Get("/", s.GetDreams)
	dreams.Get("/:id", s.GetDream)
	dreams.Put("/:id", s.UpdateDream)
	dreams.Delete("/:id", s.DeleteDream)

	analysis := api.Group("/analysis", s.AuthRequired())
	analysis.Post("/analyze", middleware.RateLimit(
		s.redis, 5, time.Minute, "analyze"), s.AnalyzeDream)
	analysis.Get("/:dreamId", s.GetAnalysis)

	community := api.Group("/community")
	community.Get("/", s.GetCommunityDreams)
	community.Get("/:dreamId/comments", s.GetComments)
	community.Post("/react", s.AuthRequired(), s.ToggleReaction)
	community.Put("/:dreamId/visibility", s.AuthRequired(), s.SetDreamVisibility)
	community.Post("/:dreamId/comments", s.AuthRequired(), middleware.RateLimit(
		s.redis, 10, time.Minute, "create_comment"), s.CreateComment)
	community.Delete("/comments/:id", s.AuthRequired(), s.DeleteComment)

	posts := api.Group("/posts")
	posts.Get("/", s.GetPosts)
	posts.Post("/", s.AuthRequired(), middleware.RateLimit(
		s.redis, 3, 5*time.Minute, "create_post"), s.CreatePost)
	posts.Delete("/:id", s.AuthRequired(), s.DeletePost)

	admin := api.Group("/admin", s.AuthRequired(), s.AdminRequired())
	admin.Get("/stats", s.GetStats)
	admin.Get("/stats/detailed", s.GetDetailedStats)
	admin.Get("/flags", s.GetFeatureFlags)
}

// LivenessCheck handles liveness probe requests.
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "up",
		"time":   time.Now(),
	})
}

// ReadinessCheck handles readiness probe requests. Redis is optional,
// so only the database gates readiness.
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), 5*time.Second)
	defer cancel()

	dbStatus := "healthy"
	if _, err := s.db.Execute(ctx, "SELECT 1"); err != nil {
		dbStatus = "unhealthy"
	}

	redisStatus := "disabled"
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

// AuthRequired returns the authentication middleware.
func (s *Server) AuthRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		tokenString := ""
		if authHeader != "" {
			parts := strings.Split(authHeader, " ")
			if len(parts) == 2 && parts[0] == "Bearer" {
				tokenString = parts[1]
			}
		}
		if tokenString == "" {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Authorization required"))
		}

		token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fiber.NewError(fiber.StatusUnauthorized, "Invalid signing method")
			}
			return []byte(s.config.JWTSecret), nil
		})
		if err != nil || !token.Valid {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Invalid or expired token"))
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Invalid token claims"))
		}

		if issuer, issuerOk := claims["iss"].(string); !issuerOk || issuer != tokenIssuer {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Invalid token issuer"))
		}
		if audience, audienceOk := claims["aud"].(string); !audienceOk || audience != tokenAudience {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Invalid token audience"))
		}

		sub, ok := claims["sub"].(string)
		if !ok {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Invalid subject claim"))
		}
		userID, err := strconv.ParseInt(sub, 10, 64)
		if err != nil {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Invalid user ID in token"))
		}

		c.Locals("userID", userID)
		ctx := context.WithValue(c.UserContext(), middleware.UserIDKey, userID)
		c.SetUserContext(ctx)
		return c.Next()
	}
}

// AdminRequired returns middleware that rejects non-admin users with
// 403. Must be placed after AuthRequired so that userID is available.
func (s *Server) AdminRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID := c.Locals("userID").(int64)

		admin, err := s.userRepo.IsAdmin(c.UserContext(), userID)
		if err != nil {
			return models.RespondError(c, err)
		}
		if !admin {
			return models.RespondWithError(c, fiber.StatusForbidden,
				models.NewForbiddenError("Admin access required"))
		}
		return c.Next()
	}
}

// Start starts the server.
func (s *Server) Start() error {
	app := fiber.New(fiber.Config{
		AppName: "Oneiro API",
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			s.logger.Error("Unhandled error", slog.String("error", err.Error()))
			return models.RespondWithError(c, fiber.StatusInternalServerError,
				models.NewInternalError(err))
		},
	})
	s.app = app

	s.SetupMiddleware(app)
	s.SetupRoutes(app)

	s.logger.Info("Server starting", slog.String("port", s.config.Port))
	return app.Listen(":" + s.config.Port)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			s.logger.Error("Error shutting down HTTP server", slog.String("error", err.Error()))
		}
	}
	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			s.logger.Error("Error closing Redis client", slog.String("error", err.Error()))
		}
	}
	return s.db.Close()
}
