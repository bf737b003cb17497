// Ceod is the CEO Assistant API daemon.
//
// It serves the task, goal and LinkedIn post REST API over HTTP, backed by
// SQLite (default), MongoDB or process memory, and authenticates requests
// with Firebase ID tokens or, in development, the X-User-Id header.
//
// Configuration is loaded from ~/.config/ceo-assistant/config.yaml and
// CEO_-prefixed environment variables. See internal/config for details.
//
// Usage:
//
//	# Start with defaults (SQLite, header auth, port 5000)
//	ceod
//
//	# Try it with demo data in memory
//	CEO_STORAGE_PROVIDER=memory CEO_STORAGE_SEED_DEMO=true ceod
//
//	# Use MongoDB
//	CEO_STORAGE_PROVIDER=mongo CEO_STORAGE_MONGO_URI=mongodb://localhost:27017 ceod
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/ceo-assistant/internal/auth"
	"github.com/fyrsmithlabs/ceo-assistant/internal/calendar"
	"github.com/fyrsmithlabs/ceo-assistant/internal/config"
	"github.com/fyrsmithlabs/ceo-assistant/internal/demo"
	"github.com/fyrsmithlabs/ceo-assistant/internal/events"
	"github.com/fyrsmithlabs/ceo-assistant/internal/goal"
	httpserver "github.com/fyrsmithlabs/ceo-assistant/internal/http"
	"github.com/fyrsmithlabs/ceo-assistant/internal/logging"
	"github.com/fyrsmithlabs/ceo-assistant/internal/model"
	"github.com/fyrsmithlabs/ceo-assistant/internal/post"
	"github.com/fyrsmithlabs/ceo-assistant/internal/stats"
	"github.com/fyrsmithlabs/ceo-assistant/internal/store"
	"github.com/fyrsmithlabs/ceo-assistant/internal/task"
	"github.com/fyrsmithlabs/ceo-assistant/internal/telemetry"
)

// Version information (set via ldflags during build)
var (
	version   = "dev"
	gitCommit = "unknown"
	buildDate = "unknown"
)

func main() {
	configPath := flag.String("config", "", "path to config file (default ~/.config/ceo-assistant/config.yaml)")
	flag.Parse()
	args := flag.Args()

	if len(args) > 0 {
		switch args[0] {
		case "version":
			printVersion()
			os.Exit(0)
		default:
			fmt.Fprintf(os.Stderr, "Unknown command: %s\n", args[0])
			fmt.Fprintf(os.Stderr, "\nUsage:\n")
			fmt.Fprintf(os.Stderr, "  ceod [-config path]   Start the API daemon\n")
			fmt.Fprintf(os.Stderr, "  ceod version          Show version information\n")
			os.Exit(1)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, *configPath); err != nil {
		log.Fatalf("Server error: %v", err)
	}

	log.Println("Server shutdown complete")
}

func printVersion() {
	fmt.Printf("ceod by Fyrsmith Labs\n")
	fmt.Printf("Version:    %s\n", version)
	fmt.Printf("Commit:     %s\n", gitCommit)
	fmt.Printf("Build Date: %s\n", buildDate)
}

// run starts the daemon and blocks until ctx is cancelled.
//
// Startup order:
//  1. Loads and validates configuration
//  2. Initializes logger and telemetry
//  3. Opens the store and event transport
//  4. Creates the domain services, seeding demo data if configured
//  5. Starts the HTTP server
//  6. Shuts down gracefully on context cancellation
func run(ctx context.Context, configPath string) error {
	cfg, err := config.LoadWithFile(configPath)
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logCfg := logging.FromConfig(cfg.Log, cfg.Telemetry.ServiceName)
	bootCfg := *logCfg
	bootCfg.OTEL = false
	lg, err := logging.NewLogger(&bootCfg, nil)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	tel, err := telemetry.New(ctx, telemetry.FromConfig(cfg, version), lg.Underlying())
	if err != nil {
		return fmt.Errorf("failed to initialize telemetry: %w", err)
	}
	defer func() {
		if err := tel.Shutdown(context.Background()); err != nil {
			lg.Underlying().Warn("telemetry shutdown failed", zap.Error(err))
		}
	}()

	// Re-create the logger once the OTLP log provider exists.
	if lp := tel.LoggerProvider(); lp != nil {
		if lg, err = logging.NewLogger(logCfg, lp); err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
	}
	logger := lg.Underlying()
	defer func() {
		_ = lg.Sync() // Best-effort sync on shutdown
	}()

	logger.Info("Starting ceod",
		zap.String("version", version),
		zap.Int("port", cfg.Server.Port),
		zap.String("storage", cfg.Storage.Provider),
		zap.String("auth", cfg.Auth.Mode),
		zap.Bool("otel_logs", tel.LoggerProvider() != nil),
		zap.Duration("shutdown_timeout", cfg.Server.ShutdownTimeout))

	deps, err := initDependencies(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize dependencies: %w", err)
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		deps.Close(closeCtx)
	}()

	logger.Info("Dependencies initialized",
		zap.String("store", deps.db.Provider()),
		zap.Bool("nats_connected", deps.natsConn != nil),
		zap.String("timezone", cfg.Server.Timezone))

	svcs, err := initServices(deps, lg)
	if err != nil {
		return fmt.Errorf("failed to initialize services: %w", err)
	}

	if cfg.Storage.SeedDemo {
		n, err := demo.Seed(ctx, demo.Services{
			UserID:      demo.UserID,
			Tasks:       svcs.tasks,
			WeeklyGoals: svcs.weekly,
			DailyGoals:  svcs.daily,
			Posts:       svcs.posts,
		}, demo.Data(deps.cal.Now()))
		if err != nil {
			return fmt.Errorf("failed to seed demo data: %w", err)
		}
		logger.Info("Demo data seeded", zap.String("user_id", demo.UserID), zap.Any("counts", n))
	}

	authn, err := auth.New(ctx, cfg.Auth, cfg.Server.Production, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize auth: %w", err)
	}

	srv, err := httpserver.NewServer(httpserver.Deps{
		Tasks:       svcs.tasks,
		WeeklyGoals: svcs.weekly,
		DailyGoals:  svcs.daily,
		Posts:       svcs.posts,
		Stats:       svcs.stats,
		Feed:        deps.feed,
		Auth:        authn,
		Store:       deps.db,
		Telemetry:   tel,
	}, logger, &httpserver.Config{
		Host:              cfg.Server.Host,
		Port:              cfg.Server.Port,
		Production:        cfg.Server.Production,
		CORSOrigins:       cfg.Server.CORSOrigins,
		BodyLimit:         cfg.Limits.BodyLimit,
		RequestsPerSecond: cfg.Limits.RequestsPerSecond,
		Burst:             cfg.Limits.Burst,
	})
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	logger.Info("Server configured",
		zap.String("health_endpoint", fmt.Sprintf("http://localhost:%d/health", cfg.Server.Port)),
		zap.String("api_prefix", "/api"),
		zap.String("metrics_endpoint", "/metrics"))

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown failed: %w", err)
	}
	return nil
}

// dependencies holds all infrastructure dependencies.
type dependencies struct {
	db        store.DB
	cal       *calendar.Calendar
	natsConn  *nats.Conn
	feed      *events.Feed
	publisher events.Publisher
	logger    *zap.Logger
}

// Close drains NATS, then closes the store. Both share ctx's deadline.
func (d *dependencies) Close(ctx context.Context) {
	if d.natsConn != nil {
		if err := events.Drain(ctx, d.natsConn); err != nil {
			d.logger.Warn("nats drain incomplete", zap.Error(err))
		}
	}
	if d.db != nil {
		if err := d.db.Close(ctx); err != nil {
			d.logger.Warn("failed to close store", zap.Error(err))
		}
	}
}

// initDependencies opens the store and, when enabled, connects to NATS.
//
// Without NATS, events go straight into the in-process activity feed. With
// NATS, events are published there and the feed is fed by a subscription,
// so every ceod replica sees the same activity.
func initDependencies(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*dependencies, error) {
	cal, err := calendar.Load(cfg.Server.Timezone)
	if err != nil {
		return nil, err
	}

	db, err := store.NewDB(ctx, cfg.Storage, logger)
	if err != nil {
		return nil, err
	}

	deps := &dependencies{
		db:     db,
		cal:    cal,
		feed:   events.NewFeed(cfg.Events.FeedSize),
		logger: logger,
	}

	var pub events.Publisher = deps.feed
	if cfg.Events.NATSEnabled {
		nc, err := events.Connect(cfg.Events.NATSURL, logger.Named("nats"))
		if err != nil {
			deps.Close(ctx)
			return nil, err
		}
		deps.natsConn = nc
		if _, err := deps.feed.Subscribe(nc, cfg.Events.SubjectPrefix, logger); err != nil {
			deps.Close(ctx)
			return nil, err
		}
		pub = events.NewNATSPublisher(nc, cfg.Events.SubjectPrefix)
		logger.Info("Connected to NATS",
			zap.String("url", cfg.Events.NATSURL),
			zap.String("subject_prefix", cfg.Events.SubjectPrefix))
	}
	deps.publisher = events.Instrumented(pub, events.NewMetrics())

	return deps, nil
}

// services holds all domain services.
type services struct {
	tasks  task.Service
	weekly goal.Service
	daily  goal.Service
	posts  post.Service
	stats  *stats.Service
}

func initServices(deps *dependencies, logger *logging.Logger) (*services, error) {
	tasks, err := store.Open[model.Task](deps.db, store.Tasks)
	if err != nil {
		return nil, err
	}
	weekly, err := store.Open[model.Goal](deps.db, store.WeeklyGoals)
	if err != nil {
		return nil, err
	}
	daily, err := store.Open[model.Goal](deps.db, store.DailyGoals)
	if err != nil {
		return nil, err
	}
	posts, err := store.Open[model.LinkedInPost](deps.db, store.LinkedInPosts)
	if err != nil {
		return nil, err
	}

	s := &services{}
	if s.tasks, err = task.NewService(tasks, deps.publisher, deps.cal, logger); err != nil {
		return nil, err
	}
	if s.weekly, err = goal.NewService(model.Weekly, weekly, deps.publisher, deps.cal, logger); err != nil {
		return nil, err
	}
	if s.daily, err = goal.NewService(model.Daily, daily, deps.publisher, deps.cal, logger); err != nil {
		return nil, err
	}
	if s.posts, err = post.NewService(posts, deps.publisher, deps.cal, logger); err != nil {
		return nil, err
	}
	if s.stats, err = stats.NewService(stats.Collections{
		Tasks:       tasks,
		WeeklyGoals: weekly,
		DailyGoals:  daily,
		Posts:       posts,
	}, deps.cal); err != nil {
		return nil, err
	}
	return s, nil
}
