// AngelaMos | 2026
// main.go

package main

import (
	"context"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/carterperez-dev/articles-api/internal/admin"
	"github.com/carterperez-dev/articles-api/internal/article"
	"github.com/carterperez-dev/articles-api/internal/auth"
	"github.com/carterperez-dev/articles-api/internal/blob"
	"github.com/carterperez-dev/articles-api/internal/comment"
	"github.com/carterperez-dev/articles-api/internal/config"
	"github.com/carterperez-dev/articles-api/internal/core"
	"github.com/carterperez-dev/articles-api/internal/health"
	"github.com/carterperez-dev/articles-api/internal/middleware"
	"github.com/carterperez-dev/articles-api/internal/reaction"
	"github.com/carterperez-dev/articles-api/internal/server"
	"github.com/carterperez-dev/articles-api/internal/share"
	"github.com/carterperez-dev/articles-api/internal/user"
)

const (
	drainDelay = 5 * time.Second
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		slog.Error("application error", "error", err)
		os.Exit(1)
	}
}

//nolint:funlen // bootstrap code is inherently verbose
func run(configPath string) error {
	ctx, stop := signal.NotifyContext(
		context.Background(),
		syscall.SIGINT,
		syscall.SIGTERM,
	)
	defer stop()

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	logger := setupLogger(cfg.Log)
	slog.SetDefault(logger)

	logger.Info("starting application",
		"name", cfg.App.Name,
		"version", cfg.App.Version,
		"environment", cfg.App.Environment,
	)

	var telemetry *core.Telemetry
	if cfg.Otel.Enabled {
		tel, telErr := core.NewTelemetry(ctx, cfg.Otel, cfg.App)
		if telErr != nil {
			logger.Warn("failed to initialize telemetry", "error", telErr)
		} else {
			telemetry = tel
			logger.Info("OpenTelemetry tracer initialized",
				"endpoint", cfg.Otel.Endpoint,
			)
		}
	}

	db, err := core.NewDatabase(ctx, cfg.Database)
	if err != nil {
		return err
	}
	logger.Info("database connected",
		"max_open_conns", cfg.Database.MaxOpenConns,
		"max_idle_conns", cfg.Database.MaxIdleConns,
	)

	if cfg.Database.AutoMigrate {
		applied, migErr := core.Migrate(ctx, db.DB)
		if migErr != nil {
			return migErr
		}
		logger.Info("migrations applied", "count", applied)
	}

	redis, err := core.NewRedis(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	logger.Info("redis connected",
		"pool_size", cfg.Redis.PoolSize,
	)

	store, err := blob.New(cfg.Storage)
	if err != nil {
		return err
	}
	logger.Info("blob store ready",
		"driver", cfg.Storage.Driver,
		"public_url", cfg.Storage.PublicURL,
	)

	jwtManager, err := auth.NewJWTManager(cfg.JWT)
	if err != nil {
		return err
	}
	logger.Info("JWT manager initialized",
		"algorithm", "ES256",
		"key_id", jwtManager.GetKeyID(),
	)

	userSvc := user.NewService(user.NewRepository(db.DB), store)
	seeded, err := userSvc.SeedAdmin(ctx, cfg.Admin)
	if err != nil {
		return err
	}
	if seeded {
		logger.Info("admin account seeded", "email", cfg.Admin.Email)
	}

	authSvc := auth.NewService(jwtManager, userSvc, redis)
	articleSvc := article.NewService(article.NewRepository(db.DB), store)
	reactionSvc := reaction.NewService(reaction.NewRepository(db.DB), store)
	commentSvc := comment.NewService(comment.NewRepository(db.DB), store)
	shareSvc := share.NewService(share.NewRepository(db.DB), store)

	healthHandler := health.NewHandler(
		health.Dependency{Name: "database", Checker: db},
		health.Dependency{Name: "redis", Checker: redis},
		health.Dependency{Name: "storage", Checker: store},
	)

	adminHandler := admin.NewHandler(admin.HandlerConfig{
		DBStats:     db.Stats,
		RedisStats:  redis.PoolStats,
		DBPing:      db.Ping,
		RedisPing:   redis.Ping,
		StoragePing: store.Ping,
		Recount:     reactionSvc.Recount,
	})

	srv := server.New(server.Config{
		ServerConfig:  cfg.Server,
		HealthHandler: healthHandler,
		Logger:        logger,
	})

	router := srv.Router()

	router.Use(middleware.RequestID)
	router.Use(middleware.Tracing)
	router.Use(middleware.Logger(logger))
	router.Use(
		middleware.NewRateLimiter(redis.Client, middleware.RateLimitConfig{
			Scope: "global",
			Limit: middleware.PerMinute(
				cfg.RateLimit.Requests,
				cfg.RateLimit.Burst,
			),
			FailOpen: true,
		}).Handler,
	)
	router.Use(middleware.SecurityHeaders(cfg.IsProduction()))
	router.Use(middleware.CORS(cfg.CORS))

	healthHandler.RegisterRoutes(router)

	router.Get("/.well-known/jwks.json", jwtManager.GetJWKSHandler())

	if local, ok := store.(*blob.LocalStore); ok {
		router.Handle("/storage/*", http.StripPrefix("/storage", local.FileServer()))
	}

	authenticator := middleware.Authenticator(authSvc)
	adminOnly := middleware.RequireAdmin
	authLimiter := middleware.NewRateLimiter(redis.Client, middleware.RateLimitConfig{
		Scope: "auth",
		Limit: middleware.PerMinute(
			cfg.RateLimit.AuthRequests,
			cfg.RateLimit.AuthBurst,
		),
		FailOpen: true,
	}).Handler

	auth.NewHandler(authSvc).RegisterRoutes(router, authenticator, authLimiter)
	user.NewHandler(userSvc, cfg.Storage.MaxImageBytes).
		RegisterRoutes(router, authenticator, adminOnly)
	article.NewHandler(articleSvc, cfg.Storage.MaxImageBytes).
		RegisterRoutes(router, authenticator)
	reaction.NewHandler(reactionSvc).RegisterRoutes(router, authenticator)
	comment.NewHandler(commentSvc).RegisterRoutes(router, authenticator)
	share.NewHandler(shareSvc).RegisterRoutes(router, authenticator)
	adminHandler.RegisterRoutes(router, authenticator, adminOnly)

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

	if telemetry != nil {
		if err := telemetry.Shutdown(shutdownCtx); err != nil {
			logger.Error("telemetry shutdown error", "error", err)
		}
	}

	if err := redis.Close(); err != nil {
		logger.Error("redis close error", "error", err)
	}

	if err := db.Close(); err != nil {
		logger.Error("database close error", "error", err)
	}

	logger.Info("application stopped")
	return nil
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
