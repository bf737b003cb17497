// Package http provides the REST API for the CEO Assistant dashboard.
package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/fyrsmithlabs/ceo-assistant/internal/auth"
	"github.com/fyrsmithlabs/ceo-assistant/internal/events"
	"github.com/fyrsmithlabs/ceo-assistant/internal/goal"
	"github.com/fyrsmithlabs/ceo-assistant/internal/logging"
	"github.com/fyrsmithlabs/ceo-assistant/internal/post"
	"github.com/fyrsmithlabs/ceo-assistant/internal/stats"
	"github.com/fyrsmithlabs/ceo-assistant/internal/task"
	"github.com/fyrsmithlabs/ceo-assistant/internal/telemetry"
)

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// TelemetryReporter reports exporter health for GET /ready.
type TelemetryReporter interface {
	Health() telemetry.HealthStatus
}

// Deps are the services the API serves.
type Deps struct {
	Tasks       task.Service
	WeeklyGoals goal.Service
	DailyGoals  goal.Service
	Posts       post.Service
	Stats       *stats.Service
	Feed        *events.Feed
	Auth        auth.Authenticator
	Store       Pinger

	// Telemetry is optional. A degraded exporter is reported but does not
	// fail readiness.
	Telemetry TelemetryReporter
}

func (d Deps) validate() error {
	switch {
	case d.Tasks == nil:
		return errors.New("task service is required")
	case d.WeeklyGoals == nil || d.DailyGoals == nil:
		return errors.New("goal services are required")
	case d.Posts == nil:
		return errors.New("post service is required")
	case d.Stats == nil:
		return errors.New("stats service is required")
	case d.Feed == nil:
		return errors.New("activity feed is required")
	case d.Auth == nil:
		return errors.New("authenticator is required")
	case d.Store == nil:
		return errors.New("store is required")
	}
	return nil
}

// Config holds HTTP server configuration.
type Config struct {
	Host string
	Port int

	// Production marks session cookies Secure.
	Production  bool
	CORSOrigins []string
	BodyLimit   string

	// RequestsPerSecond and Burst bound each caller. Zero disables limiting.
	RequestsPerSecond float64
	Burst             int
}

// Server provides HTTP endpoints for the dashboard.
type Server struct {
	echo    *echo.Echo
	deps    Deps
	logger  *zap.Logger
	config  *Config
	metrics *HTTPMetrics
}

// NewServer creates a new HTTP server.
func NewServer(deps Deps, logger *zap.Logger, cfg *Config) (*Server, error) {
	if err := deps.validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required for request tracking and debugging")
	}
	if cfg == nil {
		cfg = &Config{
			Host: "localhost",
			Port: 5000,
		}
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	s := &Server{
		echo:    e,
		deps:    deps,
		logger:  logger,
		config:  cfg,
		metrics: NewHTTPMetrics(logger),
	}

	// Middleware
	e.Use(middleware.Recover())
	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		RequestIDHandler: func(c echo.Context, id string) {
			c.SetRequest(c.Request().WithContext(logging.WithRequestID(c.Request().Context(), id)))
		},
	}))
	e.Use(s.requestLogger())
	e.Use(s.metrics.MetricsMiddleware())
	e.Use(middleware.CORSWithConfig(corsConfig(cfg.CORSOrigins)))
	if cfg.BodyLimit != "" {
		e.Use(middleware.BodyLimit(cfg.BodyLimit))
	}

	s.registerRoutes()

	return s, nil
}

func (s *Server) requestLogger() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			if err != nil {
				c.Error(err)
			}
			duration := time.Since(start)

			s.logger.Info("http request",
				zap.String("method", c.Request().Method),
				zap.String("uri", c.Request().RequestURI),
				zap.Int("status", c.Response().Status),
				zap.Duration("duration", duration),
				zap.String("request_id", c.Response().Header().Get(echo.HeaderXRequestID)),
				zap.String("user.id", auth.UserID(c)),
			)

			return nil
		}
	}
}

func corsConfig(origins []string) middleware.CORSConfig {
	cfg := middleware.CORSConfig{
		AllowOrigins: origins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization, auth.HeaderUserID},
	}
	if len(origins) == 0 {
		cfg.AllowOrigins = []string{"*"}
	}
	// Browsers reject credentialed responses for a wildcard origin.
	cfg.AllowCredentials = !(len(cfg.AllowOrigins) == 1 && cfg.AllowOrigins[0] == "*")
	return cfg
}

func (s *Server) rateLimiter() echo.MiddlewareFunc {
	store := middleware.NewRateLimiterMemoryStoreWithConfig(middleware.RateLimiterMemoryStoreConfig{
		Rate:      rate.Limit(s.config.RequestsPerSecond),
		Burst:     s.config.Burst,
		ExpiresIn: 3 * time.Minute,
	})
	return middleware.RateLimiterWithConfig(middleware.RateLimiterConfig{
		Store: store,
		IdentifierExtractor: func(c echo.Context) (string, error) {
			if uid := auth.UserID(c); uid != "" {
				return "user:" + uid, nil
			}
			return "ip:" + c.RealIP(), nil
		},
		ErrorHandler: func(c echo.Context, err error) error {
			return c.JSON(http.StatusForbidden, messageResponse{Message: "Forbidden"})
		},
		DenyHandler: func(c echo.Context, identifier string, err error) error {
			return c.JSON(http.StatusTooManyRequests, messageResponse{Message: "Too Many Requests"})
		},
	})
}

// rejectedCallerLimiter runs ahead of authentication. Every 401 spends a
// token from the caller's IP bucket, and an empty bucket is answered with
// 429 before the authenticator is consulted. Authenticated traffic never
// spends tokens here; rateLimiter meters it per user.
func (s *Server) rejectedCallerLimiter() echo.MiddlewareFunc {
	var (
		mu          sync.Mutex
		limiters    = make(map[string]*rate.Limiter)
		lastCleanup = time.Now()
	)
	limiterFor := func(ip string) *rate.Limiter {
		mu.Lock()
		defer mu.Unlock()
		if time.Since(lastCleanup) > time.Hour {
			limiters = make(map[string]*rate.Limiter)
			lastCleanup = time.Now()
		}
		lim, ok := limiters[ip]
		if !ok {
			lim = rate.NewLimiter(rate.Limit(s.config.RequestsPerSecond), max(s.config.Burst, 1))
			limiters[ip] = lim
		}
		return lim
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			lim := limiterFor(c.RealIP())
			if lim.Tokens() < 1 {
				return c.JSON(http.StatusTooManyRequests, messageResponse{Message: "Too Many Requests"})
			}
			err := next(c)
			if c.Response().Status == http.StatusUnauthorized {
				lim.Allow()
			}
			return err
		}
	}
}

// registerRoutes sets up the HTTP endpoints.
func (s *Server) registerRoutes() {
	s.echo.GET("/", s.handleRoot)
	s.echo.GET("/health", s.handleHealth)
	s.echo.GET("/ready", s.handleReady)
	s.echo.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	// Session exchange runs before authentication.
	session := s.echo.Group("/api/session")
	if s.config.RequestsPerSecond > 0 {
		session.Use(s.rateLimiter())
	}
	session.POST("", s.handleCreateSession)
	session.DELETE("", s.handleDeleteSession)

	api := s.echo.Group("/api")
	if s.config.RequestsPerSecond > 0 {
		api.Use(s.rejectedCallerLimiter(), auth.Middleware(s.deps.Auth, s.logger), s.rateLimiter())
	} else {
		api.Use(auth.Middleware(s.deps.Auth, s.logger))
	}

	tasks := api.Group("/tasks")
	tasks.GET("", s.handleListTasks)
	tasks.POST("", s.handleCreateTask)
	tasks.GET("/category/:category", s.handleTasksByCategory)
	tasks.GET("/date/:date", s.handleTasksByDate)
	tasks.GET("/:id", s.handleGetTask)
	tasks.PUT("/:id", s.handleUpdateTask)
	tasks.DELETE("/:id", s.handleDeleteTask)
	tasks.PATCH("/:id/toggle-completion", s.handleToggleTask)
	tasks.PATCH("/:id/toggle", s.handleToggleTask)

	s.registerGoalRoutes(api.Group("/weekly-goals"), s.deps.WeeklyGoals)
	s.registerGoalRoutes(api.Group("/daily-goals"), s.deps.DailyGoals)

	posts := api.Group("/linkedin-posts")
	posts.GET("", s.handleListPosts)
	posts.POST("", s.handleCreatePost)
	posts.GET("/status/:status", s.handlePostsByStatus)
	posts.GET("/:id", s.handleGetPost)
	posts.PUT("/:id", s.handleUpdatePost)
	posts.DELETE("/:id", s.handleDeletePost)
	posts.PATCH("/:id/status", s.handleUpdatePostStatus)

	api.GET("/activity", s.handleActivity)
	api.GET("/stats", s.handleStats)
}

func (s *Server) registerGoalRoutes(g *echo.Group, svc goal.Service) {
	h := goalHandlers{s: s, svc: svc}
	g.GET("", h.list)
	g.POST("", h.create)
	g.GET("/date/:date", h.byDate)
	g.GET("/:id", h.get)
	g.PUT("/:id", h.update)
	g.DELETE("/:id", h.delete)
	g.PATCH("/:id/toggle-completion", h.toggle)
	g.PATCH("/:id/toggle", h.toggle)
}

// Echo returns the underlying echo instance.
func (s *Server) Echo() *echo.Echo {
	return s.echo
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	s.logger.Info("starting http server", zap.String("addr", addr))
	return s.echo.Start(addr)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down http server")
	return s.echo.Shutdown(ctx)
}
