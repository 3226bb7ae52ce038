package server

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/sifan077/PowerLink/config"
	apprepository "github.com/sifan077/PowerLink/internal/app/repository"
	"github.com/sifan077/PowerLink/internal/app/service"
	inthttp "github.com/sifan077/PowerLink/internal/http/handler"
	"github.com/sifan077/PowerLink/internal/http/middleware"
	httpUtil "github.com/sifan077/PowerLink/internal/http/util"
	"go.uber.org/zap"
)

const (
	readTimeout  = 30 * time.Second
	writeTimeout = 30 * time.Second
	// multipart overhead on top of the largest accepted upload
	bodySlack = 1 << 20
)

// Dependencies bundles the services and infrastructure required by the HTTP server.
type Dependencies struct {
	Config         *config.Config
	Logger         *zap.Logger
	Redis          redis.Cmdable
	Tokens         *httpUtil.TokenSigner
	Auth           *service.AuthService
	Users          *service.UserService
	Profiles       *service.ProfileService
	Workspaces     *service.Workspaces
	Notifications  apprepository.NotificationRepository
	ClickStats     apprepository.ClickStatsRepository
	ClickPublisher *service.ClickPublisher
	Checks         map[string]inthttp.ReadinessCheck
}

// Server wraps the Fiber application and its dependencies.
type Server struct {
	app  *fiber.App
	deps Dependencies
}

// New creates the HTTP server with every route registered.
func New(deps Dependencies) *Server {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}

	maxUpload := deps.Config.Links.MaxUploadBytes
	app := fiber.New(fiber.Config{
		AppName:               "PowerLink",
		BodyLimit:             int(maxUpload)*2 + bodySlack,
		ReadTimeout:           readTimeout,
		WriteTimeout:          writeTimeout,
		DisableStartupMessage: true,
	})

	s := &Server{
		app:  app,
		deps: deps,
	}

	s.registerRoutes()
	return s
}

// App exposes the Fiber application, mainly for tests.
func (s *Server) App() *fiber.App {
	return s.app
}

// Listen starts the Fiber server on the given address.
func (s *Server) Listen(addr string) error {
	return s.app.Listen(addr)
}

// Shutdown gracefully stops the Fiber server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}

func (s *Server) registerRoutes() {
	cfg := s.deps.Config
	logger := s.deps.Logger

	s.app.Use(
		middleware.RequestID(),
		middleware.Recovery(logger),
		middleware.Metrics(),
		middleware.Logger(logger),
		middleware.CORS(cfg.Server.AllowedOrigins),
	)

	publicHandler := inthttp.NewPublicHandler(inthttp.PublicDeps{
		Logger:         logger,
		Profiles:       s.deps.Profiles,
		ClickPublisher: s.deps.ClickPublisher,
		Checks:         s.deps.Checks,
	})
	publicHandler.RegisterProbes(s.app)

	limiter := middleware.RateLimit(s.deps.Redis, middleware.RateLimitConfig{
		MaxRequests: cfg.RateLimit.MaxRequests,
		Window:      cfg.RateLimit.Window,
	}, logger)
	requireSession := middleware.SessionRequired(s.deps.Tokens, s.deps.Auth, logger)

	api := s.app.Group("/api")

	authHandler := inthttp.NewAuthHandler(inthttp.AuthDeps{
		Logger:        logger,
		Auth:          s.deps.Auth,
		Tokens:        s.deps.Tokens,
		SecureCookies: cfg.Server.SecureCookies,
	})
	authHandler.Register(api.Group("/auth", limiter), requireSession)

	dashboardHandler := inthttp.NewDashboardHandler(inthttp.DashboardDeps{
		Logger:         logger,
		Workspaces:     s.deps.Workspaces,
		Users:          s.deps.Users,
		Notifications:  s.deps.Notifications,
		ClickStats:     s.deps.ClickStats,
		MaxUploadBytes: cfg.Links.MaxUploadBytes,
	})
	dashboardHandler.Register(api.Group("", requireSession, limiter))

	api.Use(func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "route not found"})
	})

	// profile routes last: /:username would shadow everything above
	publicHandler.Register(s.app)
}
