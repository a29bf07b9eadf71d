// Package server wires the HTTP and WebSocket API together.
package server

import (
	"context"
	"fmt"
	"log"
	"time"

	_ "campusconnect/docs" // swagger docs
	"campusconnect/internal/cache"
	"campusconnect/internal/config"
	"campusconnect/internal/database"
	"campusconnect/internal/directory"
	"campusconnect/internal/featureflags"
	"campusconnect/internal/feed"
	"campusconnect/internal/middleware"
	"campusconnect/internal/models"
	"campusconnect/internal/notifications"
	"campusconnect/internal/projection"
	"campusconnect/internal/repository"
	"campusconnect/internal/service"
	"campusconnect/internal/store"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/swagger"
	"github.com/redis/go-redis/v9"
)

// Server holds all dependencies and provides handlers.
type Server struct {
	config         *config.Config
	store          store.EntityStore
	redis          *redis.Client
	app            *fiber.App
	promMiddleware *fiberprometheus.FiberPrometheus
	shutdownCtx    context.Context
	shutdownFn     context.CancelFunc

	userRepo    repository.UserRepository
	postRepo    repository.PostRepository
	groupRepo   repository.GroupRepository
	eventRepo   repository.EventRepository
	commentRepo repository.CommentRepository

	directory *directory.Directory
	projector *projection.Projector

	authService   *service.AuthService
	postService   *service.PostService
	groupService  *service.GroupService
	eventService  *service.EventService
	ledgerService *service.LedgerService

	notifier     *notifications.Notifier
	feedHub      *feed.Hub
	featureFlags *featureflags.Manager
}

// NewServer creates a server, opening the entity store named by
// STORE_DRIVER and Redis per the config.
func NewServer(cfg *config.Config) (*Server, error) {
	cache.InitRedis(cfg.RedisURL)
	redisClient := cache.GetClient()

	entityStore, err := openStore(cfg, redisClient)
	if err != nil {
		return nil, err
	}

	return NewServerWithDeps(cfg, entityStore, redisClient)
}

// openStore builds the entity store for the configured driver.
func openStore(cfg *config.Config, redisClient *redis.Client) (store.EntityStore, error) {
	switch cfg.StoreDriver {
	case "redis":
		if redisClient == nil {
			return nil, fmt.Errorf("store driver redis requires a reachable redis at %s", cfg.RedisURL)
		}
		return store.NewRedisStore(redisClient), nil
	case "gorm":
		db, err := database.Connect(cfg)
		if err != nil {
			return nil, fmt.Errorf("database connection failed: %w", err)
		}
		gs := store.NewGormStore(db)
		if err := gs.Migrate(); err != nil {
			return nil, fmt.Errorf("store migration failed: %w", err)
		}
		return gs, nil
	case "memory":
		return store.NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// Use this in tests or when a bootstrap layer establishes the store and Redis.
func NewServerWithDeps(cfg *config.Config, entityStore store.EntityStore, redisClient *redis.Client) (*Server, error) {
	middleware.InitMiddleware(cfg)

	entityStore = store.WithMetrics(entityStore)

	userRepo := repository.NewUserRepository(entityStore)
	postRepo := repository.NewPostRepository(entityStore)
	groupRepo := repository.NewGroupRepository(entityStore)
	eventRepo := repository.NewEventRepository(entityStore)
	commentRepo := repository.NewCommentRepository(entityStore, postRepo)

	dir := directory.New(userRepo)
	projector := projection.New(dir)

	s := &Server{
		config:         cfg,
		store:          entityStore,
		redis:          redisClient,
		promMiddleware: fiberprometheus.New("campusconnect-api"),
		userRepo:       userRepo,
		postRepo:       postRepo,
		groupRepo:      groupRepo,
		eventRepo:      eventRepo,
		commentRepo:    commentRepo,
		directory:      dir,
		projector:      projector,
		authService:    service.NewAuthService(userRepo, cfg.JWTSecret),
		postService:    service.NewPostService(postRepo, commentRepo),
		groupService:   service.NewGroupService(groupRepo),
		eventService:   service.NewEventService(eventRepo),
		ledgerService:  service.NewLedgerService(groupRepo, eventRepo, postRepo),
		notifier:       notifications.NewNotifier(redisClient),
		feedHub:        feed.NewHub(buildFeedSnapshot(postRepo, projector)),
		featureFlags:   featureflags.NewManager(cfg.FeatureFlags),
	}

	return s, nil
}

// buildFeedSnapshot returns the hub's rebuild function: the first page of
// posts, projected.
func buildFeedSnapshot(posts repository.PostRepository, projector *projection.Projector) feed.BuildFunc {
	return func(ctx context.Context) (*feed.Snapshot, error) {
		page, err := posts.List(ctx, feedSnapshotSize, 0)
		if err != nil {
			return nil, err
		}
		views, err := projector.ProjectPosts(ctx, page)
		if err != nil {
			return nil, err
		}
		return &feed.Snapshot{Posts: views, GeneratedAt: time.Now().UTC()}, nil
	}
}

const feedSnapshotSize = 50

// SetupMiddleware configures middleware for the Fiber app.
func (s *Server) SetupMiddleware(app *fiber.App) {
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(middleware.ContextMiddleware())

	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
		app.Use(s.promMiddleware.Middleware)
	}

	app.Use(helmet.New())
	app.Use(middleware.StructuredLogger())
	app.Use(middleware.TracingMiddleware())

	// CORS runs before middlewares that can short-circuit (e.g. limiter)
	// so browser clients still receive CORS headers on error responses.
	origins := s.config.AllowedOrigins
	if origins == "" {
		origins = "http://localhost:5173,http://localhost:3000"
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, Upgrade, Connection",
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	// Global rate limiting (100 requests per minute per IP)
	app.Use(limiter.New(limiter.Config{
		Max:        100,
		Expiration: time.Minute,
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

	app.Get("/health", s.HealthCheck)
	api.Get("/swagger/*", swagger.HandlerDefault)

	auth := api.Group("/auth")
	auth.Post("/signup", middleware.RateLimit(
		s.redis, 3, 10*time.Minute, "signup"), s.Signup)
	auth.Post("/login", middleware.RateLimit(
		s.redis, 10, 5*time.Minute, "login"), s.Login)

	// Public reads
	api.Get("/posts", s.GetPosts)
	api.Get("/posts/:id/comments", s.GetComments)
	api.Get("/posts/:id", s.GetPost)
	api.Get("/groups", s.GetGroups)
	api.Get("/groups/:id", s.GetGroup)
	api.Get("/events", s.GetEvents)
	api.Get("/events/:id", s.GetEvent)

	// Protected routes
	protected := api.Group("", middleware.AuthRequired)

	protected.Get("/users/me", s.GetMyProfile)
	protected.Get("/feature-flags", s.GetFeatureFlags)

	posts := protected.Group("/posts")
	posts.Post("/", middleware.RateLimit(
		s.redis, 5, time.Minute, "create_post"), s.CreatePost)
	posts.Post("/:id/like", s.LikePost)
	posts.Delete("/:id/like", s.UnlikePost)
	posts.Post("/:id/comments", middleware.RateLimit(
		s.redis, 10, time.Minute, "create_comment"), s.CreateComment)

	groups := protected.Group("/groups")
	groups.Post("/", middleware.RateLimit(
		s.redis, 5, time.Minute, "create_group"), s.CreateGroup)
	groups.Post("/:id/join", s.JoinGroup)
	groups.Delete("/:id/join", s.LeaveGroup)

	events := protected.Group("/events")
	events.Post("/", middleware.RateLimit(
		s.redis, 5, time.Minute, "create_event"), s.CreateEvent)
	events.Post("/:id/attend", s.AttendEvent)
	events.Delete("/:id/attend", s.UnattendEvent)

	// WebSocket feed stream
	ws := api.Group("/ws", middleware.WebSocketAuthRequired)
	ws.Get("/feed", s.FeedWebSocketUpgrade, s.FeedWebSocketHandler())
}

// HealthCheck reports store and redis health.
func (s *Server) HealthCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), 5*time.Second)
	defer cancel()

	storeStatus := "healthy"
	if _, err := s.store.Query(ctx, "posts", store.QueryOptions{Limit: 1}); err != nil {
		storeStatus = "unhealthy"
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
	overall := "healthy"
	if storeStatus != "healthy" {
		status = fiber.StatusServiceUnavailable
		overall = "unhealthy"
	}

	return c.Status(status).JSON(fiber.Map{
		"status": overall,
		"checks": fiber.Map{
			"store": storeStatus,
			"redis": redisStatus,
		},
		"time": time.Now(),
	})
}

// Start runs the server until Shutdown or a listen failure.
func (s *Server) Start() error {
	ctx, cancel := context.WithCancel(context.Background())
	s.shutdownCtx = ctx
	s.shutdownFn = cancel

	app := fiber.New(fiber.Config{
		AppName: "CampusConnect API",
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			log.Printf("Error: %v", err)
			return models.RespondWithError(c, models.StatusForError(err), err)
		},
	})
	s.app = app

	s.SetupMiddleware(app)
	s.SetupRoutes(app)

	// Rebuild and push the feed snapshot whenever any instance announces a
	// change.
	if err := s.notifier.StartFeedSubscriber(s.shutdownCtx, func(string) {
		if err := s.feedHub.Publish(s.shutdownCtx); err != nil {
			log.Printf("feed publish failed: %v", err)
		}
	}); err != nil {
		log.Printf("failed to start feed subscriber: %v", err)
	}

	log.Printf("Server starting on port %s...", s.config.Port)
	return app.Listen(":" + s.config.Port)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.shutdownFn != nil {
		s.shutdownFn()
	}

	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			log.Printf("error shutting down HTTP server: %v", err)
		}
	}

	s.feedHub.Shutdown(ctx)

	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			log.Printf("error closing redis: %v", err)
		}
	}

	log.Println("Server shutdown complete")
	return nil
}

// notifyFeedChanged announces a post-feed mutation. Single-instance
// deployments without Redis publish straight to the local hub.
func (s *Server) notifyFeedChanged(ctx context.Context, kind string) {
	if s.redis != nil {
		if err := s.notifier.PublishFeedChange(ctx, kind); err != nil {
			log.Printf("feed change publish failed: %v", err)
		}
		return
	}
	if err := s.feedHub.Publish(ctx); err != nil {
		log.Printf("feed publish failed: %v", err)
	}
}
