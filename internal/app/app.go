package app

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/pixelgate/server/internal/infra/config"
	"github.com/pixelgate/server/internal/shared/response"
	"github.com/pixelgate/server/internal/utils/middleware"
)

// App represents the application.
type App struct {
	config  *config.Config
	deps    *Dependencies
	router  *gin.Engine
	cleanup func()
}

// New creates a new application instance.
func New(cfg *config.Config) (*App, error) {
	deps, cleanup, err := InitializeDependencies(cfg)
	if err != nil {
		return nil, fmt.Errorf("init dependencies: %w", err)
	}
	return newApp(cfg, deps, cleanup), nil
}

func newApp(cfg *config.Config, deps *Dependencies, cleanup func()) *App {
	app := &App{
		config:  cfg,
		deps:    deps,
		cleanup: cleanup,
	}
	app.router = app.setupRouter()
	app.registerRoutes()

	deps.ZapLogger.Info("application initialized",
		zap.String("quota_backend", cfg.Quota.Backend),
		zap.Int("free_limit", cfg.Quota.FreeLimit),
		zap.String("model", cfg.Generation.Model),
		zap.Bool("circuit_breaker", cfg.Generation.CircuitBreaker.Enabled),
	)
	return app
}

// Router returns the HTTP handler of the application.
func (a *App) Router() *gin.Engine {
	return a.router
}

// Stop releases connections held by the application.
func (a *App) Stop() {
	if a.cleanup != nil {
		a.cleanup()
	}
	_ = a.deps.ZapLogger.Sync()
}

// setupRouter creates and configures the Gin router.
func (a *App) setupRouter() *gin.Engine {
	// Set Gin mode based on environment
	if a.config.Log.Level == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Apply global middleware
	r.Use(middleware.Recovery(a.deps.Logger))
	r.Use(middleware.RequestID())
	r.Use(middleware.Logging(a.deps.Logger))
	r.Use(middleware.Metrics(a.deps.Metrics))
	r.Use(middleware.CORS(middleware.NewCORSConfig(a.config.CORS)))

	return r
}

// registerRoutes mounts the metrics endpoint outside the route guard and
// everything else behind it.
func (a *App) registerRoutes() {
	r := a.router

	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(a.deps.Registry, promhttp.HandlerOpts{})))

	guard := middleware.RouteGuard(a.deps.SessionVerifier, middleware.GuardConfig{
		PublicRoutes:  a.config.Auth.PublicRoutes,
		SessionCookie: a.config.Auth.SessionCookie,
	})

	guarded := r.Group("/", guard)
	guarded.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := guarded.Group("/api")
	a.deps.ConversationHandler.RegisterRoutes(api)
	a.deps.APILimitHandler.RegisterRoutes(api)
	a.deps.WebhookHandler.RegisterRoutes(api)

	r.NoRoute(guard, func(c *gin.Context) {
		response.Text(c, http.StatusNotFound, "Not Found")
	})
}
