// AngelaMos | 2026
// main.go

package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/carterperez-dev/citylistings/internal/admin"
	"github.com/carterperez-dev/citylistings/internal/auth"
	"github.com/carterperez-dev/citylistings/internal/city"
	"github.com/carterperez-dev/citylistings/internal/config"
	"github.com/carterperez-dev/citylistings/internal/core"
	"github.com/carterperez-dev/citylistings/internal/health"
	"github.com/carterperez-dev/citylistings/internal/listing"
	"github.com/carterperez-dev/citylistings/internal/mailer"
	"github.com/carterperez-dev/citylistings/internal/middleware"
	"github.com/carterperez-dev/citylistings/internal/server"
	"github.com/carterperez-dev/citylistings/internal/settings"
	"github.com/carterperez-dev/citylistings/internal/storage"
	"github.com/carterperez-dev/citylistings/internal/user"
)

const (
	drainDelay = 5 * time.Second
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	envPath := flag.String("env", ".env", "path to .env file")
	flag.Parse()

	if err := run(*configPath, *envPath); err != nil {
		slog.Error("application error", "error", err)
		os.Exit(1)
	}
}

// repositories is the store-specific half of the wiring.
type repositories struct {
	users    user.Repository
	cities   city.Repository
	listings listing.Repository
	settings settings.Repository
	checker  health.Checker
	dbStats  func() sql.DBStats
	close    func() error
}

//nolint:funlen // bootstrap code is inherently verbose
func run(configPath, envPath string) error {
	ctx, stop := signal.NotifyContext(
		context.Background(),
		syscall.SIGINT,
		syscall.SIGTERM,
	)
	defer stop()

	cfg, err := config.Load(configPath, envPath)
	if err != nil {
		return err
	}

	logger := setupLogger(cfg.Log)
	slog.SetDefault(logger)
	core.ExposeInternalErrors(!cfg.IsProduction())

	logger.Info("starting application",
		"name", cfg.App.Name,
		"version", cfg.App.Version,
		"environment", cfg.App.Environment,
		"driver", cfg.Database.Driver,
	)

	telemetry, err := core.NewTelemetry(ctx, cfg.Otel, cfg.App)
	if err != nil {
		return err
	}
	if cfg.Otel.Enabled {
		logger.Info("OpenTelemetry tracer initialized",
			"endpoint", cfg.Otel.Endpoint,
		)
	}

	repos, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}

	redis, err := core.NewRedis(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	logger.Info("redis connected",
		"pool_size", cfg.Redis.PoolSize,
	)

	uploads, err := storage.NewLocal(
		cfg.Uploads.Dir,
		cfg.Uploads.PublicPrefix,
		cfg.Uploads.MaxBytes,
	)
	if err != nil {
		return err
	}

	sender, err := mailer.New(cfg.Mail, logger)
	if err != nil {
		return err
	}

	jwtManager, err := auth.NewJWTManager(cfg.JWT)
	if err != nil {
		return err
	}

	userSvc := user.NewService(repos.users)
	if err := userSvc.EnsureAdmin(ctx,
		cfg.Auth.AdminEmail,
		cfg.Auth.AdminPassword,
		"",
	); err != nil {
		return err
	}

	authSvc := auth.NewService(
		jwtManager,
		userSvc,
		auth.NewRevocationStore(redis.Client),
		sender,
		auth.ServiceConfig{
			SiteName:      cfg.App.Name,
			BaseURL:       cfg.App.BaseURL,
			ResetTokenTTL: cfg.Auth.ResetTokenTTL,
		},
	)

	citySvc := city.NewService(repos.cities, uploads)
	listingSvc := listing.NewService(repos.listings, citySvc, uploads)

	broadcaster := settings.NewBroadcaster(redis.Client)
	go broadcaster.Run(ctx)
	settingsSvc := settings.NewService(repos.settings, redis, uploads)

	healthHandler := health.NewHandler(repos.checker, redis)

	authHandler := auth.NewHandler(authSvc, auth.HandlerConfig{
		CookieName:   cfg.Auth.CookieName,
		SecureCookie: cfg.IsProduction(),
	})
	userHandler := user.NewHandler(userSvc)
	cityHandler := city.NewHandler(citySvc)
	listingHandler := listing.NewHandler(listingSvc, cfg.Uploads.MaxBytes)
	settingsHandler := settings.NewHandler(settingsSvc, broadcaster, cfg.Uploads.MaxBytes)
	adminHandler := admin.NewHandler(admin.HandlerConfig{
		Listings:        listingSvc,
		Cities:          citySvc,
		Users:           userSvc,
		Checks:          healthHandler.Check,
		DBStats:         repos.dbStats,
		RedisStats:      redis.PoolStats,
		LiveSubscribers: broadcaster.Subscribers,
	})

	srv := server.New(server.Config{
		ServerConfig:  cfg.Server,
		HealthHandler: healthHandler,
		Logger:        logger,
	})
	srv.OnShutdown(broadcaster.Close)

	router := srv.Router()

	router.Use(middleware.Recoverer)
	router.Use(middleware.RequestID)
	router.Use(middleware.Tracing(telemetry.Tracer))
	router.Use(middleware.Metrics)
	router.Use(middleware.Logger(logger))
	router.Use(
		middleware.NewRateLimiter(redis.Client, middleware.RateLimitConfig{
			Limit: middleware.Every(
				cfg.RateLimit.Window,
				cfg.RateLimit.Requests,
				cfg.RateLimit.Burst,
			),
			FailOpen:   true,
			BypassFunc: isInfraPath(cfg.Metrics.Path, uploads.PublicPrefix()),
		}).Handler,
	)
	router.Use(middleware.SecurityHeaders(cfg.IsProduction()))
	router.Use(middleware.CORS(cfg.CORS))

	healthHandler.RegisterRoutes(router)

	if cfg.Metrics.Enabled {
		router.Handle(cfg.Metrics.Path, middleware.MetricsHandler())
	}

	prefix := uploads.PublicPrefix()
	router.Handle(prefix+"/*", http.StripPrefix(
		prefix,
		http.FileServer(http.Dir(uploads.Dir())),
	))

	authLimiter := middleware.NewRateLimiter(redis.Client, middleware.RateLimitConfig{
		Limit: middleware.Every(
			cfg.RateLimit.Window,
			cfg.RateLimit.AuthRequests,
			cfg.RateLimit.AuthBurst,
		),
		KeyFunc:  middleware.KeyByIPAndEndpoint,
		FailOpen: true,
	}).Handler

	authenticator := middleware.Authenticator(authSvc, cfg.Auth.CookieName)
	adminOnly := func(next http.Handler) http.Handler {
		return authenticator(middleware.RequireAdmin(next))
	}

	router.Route("/api", func(r chi.Router) {
		authHandler.RegisterRoutes(r, authenticator, authLimiter)
		cityHandler.RegisterRoutes(r, adminOnly)
		listingHandler.RegisterRoutes(r, adminOnly)
		settingsHandler.RegisterRoutes(r, adminOnly)
		userHandler.RegisterAdminRoutes(r, adminOnly)
		adminHandler.RegisterRoutes(r, adminOnly)
	})

	errChan := make(chan error, 1)
	go func() {
		errChan <- srv.Start()
	}()

	select {
	case err := <-errChan:
		return err
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(
		context.Background(),
		cfg.Server.ShutdownTimeout+drainDelay+5*time.Second,
	)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx, drainDelay); err != nil {
		logger.Error("server shutdown error", "error", err)
	}

	if err := telemetry.Shutdown(shutdownCtx); err != nil {
		logger.Error("telemetry shutdown error", "error", err)
	}

	if err := redis.Close(); err != nil {
		logger.Error("redis close error", "error", err)
	}

	if err := repos.close(); err != nil {
		logger.Error("database close error", "error", err)
	}

	logger.Info("application stopped")
	return nil
}

func openStore(
	ctx context.Context,
	cfg *config.Config,
	logger *slog.Logger,
) (*repositories, error) {
	switch cfg.Database.Driver {
	case config.DriverMongo:
		m, err := core.NewMongo(ctx, cfg.Mongo)
		if err != nil {
			return nil, err
		}
		logger.Info("mongo connected", "database", cfg.Mongo.Database)

		for _, ensure := range []func(context.Context) error{
			func(ctx context.Context) error { return user.EnsureUserIndexes(ctx, m.DB) },
			func(ctx context.Context) error { return city.EnsureCityIndexes(ctx, m.DB) },
			func(ctx context.Context) error { return listing.EnsureListingIndexes(ctx, m.DB) },
		} {
			if err := ensure(ctx); err != nil {
				_ = m.Close() //nolint:errcheck // cleanup on bootstrap failure
				return nil, err
			}
		}

		return &repositories{
			users:    user.NewMongoRepository(m.DB),
			cities:   city.NewMongoRepository(m.Client, m.DB),
			listings: listing.NewMongoRepository(m.DB),
			settings: settings.NewMongoRepository(m.DB),
			checker:  m,
			close:    m.Close,
		}, nil

	case config.DriverPostgres:
		db, err := core.NewDatabase(ctx, cfg.Database)
		if err != nil {
			return nil, err
		}
		logger.Info("database connected",
			"max_open_conns", cfg.Database.MaxOpenConns,
			"max_idle_conns", cfg.Database.MaxIdleConns,
		)

		if cfg.Database.AutoMigrate {
			if err := core.Migrate(ctx, db.DB); err != nil {
				_ = db.Close() //nolint:errcheck // cleanup on bootstrap failure
				return nil, err
			}
			logger.Info("database migrations applied")
		}

		return &repositories{
			users:    user.NewRepository(db.DB),
			cities:   city.NewRepository(db.DB),
			listings: listing.NewRepository(db.DB),
			settings: settings.NewRepository(db.DB),
			checker:  db,
			dbStats:  db.Stats,
			close:    db.Close,
		}, nil
	}

	return nil, fmt.Errorf("unsupported database driver %q", cfg.Database.Driver)
}

func isInfraPath(metricsPath, uploadsPrefix string) func(*http.Request) bool {
	return func(r *http.Request) bool {
		p := r.URL.Path
		return p == "/healthz" || p == "/livez" || p == "/readyz" ||
			p == metricsPath ||
			strings.HasPrefix(p, uploadsPrefix+"/")
	}
}

func setupLogger(cfg config.LogConfig) *slog.Logger {
	var handler slog.Handler

	level := slog.LevelInfo
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	opts := &slog.HandlerOptions{Level: level}

	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	return slog.New(handler)
}
