// Package main is the entrypoint for the game reviews API server.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"regexp"
	"strings"

	"github.com/gamereviews/gamereviews/internal/auth"
	"github.com/gamereviews/gamereviews/internal/cache"
	"github.com/gamereviews/gamereviews/internal/config"
	"github.com/gamereviews/gamereviews/internal/handler"
	"github.com/gamereviews/gamereviews/internal/metrics"
	"github.com/gamereviews/gamereviews/internal/repository"
	"github.com/gamereviews/gamereviews/internal/repository/sqlite"
	"github.com/gamereviews/gamereviews/internal/server"
	"github.com/gamereviews/gamereviews/internal/service"
)

// store is satisfied by both the PostgreSQL and the SQLite backends.
type store interface {
	service.UserStore
	service.ReviewStore
	Ping(ctx context.Context) error
	Close() error
}

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := initLogger(cfg)

	db, err := openStore(ctx, cfg)
	if err != nil {
		logger.Error(
			"failed to open database",
			slog.String("error", sanitizeError(err, cfg.DatabaseURL)),
			slog.String("database_url", redactURL(cfg.DatabaseURL)),
		)
		os.Exit(1)
	}
	logger.Info("connected to database", slog.String("database_url", redactURL(cfg.DatabaseURL)))

	// Typed nils would defeat the nil checks in the service and health handler.
	var (
		reviewCache service.ReviewCache
		cacheHealth handler.HealthChecker
		redisCache  *cache.Cache
	)
	if cfg.RedisURL != "" {
		redisCache, err = cache.New(ctx, cfg.RedisURL, cache.WithTTL(cfg.ReviewCacheTTL))
		if err != nil {
			logger.Error(
				"failed to connect to Redis",
				slog.String("error", sanitizeError(err, cfg.RedisURL)),
				slog.String("redis_url", redactURL(cfg.RedisURL)),
			)
			_ = db.Close()
			os.Exit(1)
		}
		reviewCache = redisCache
		cacheHealth = redisCache
		logger.Info("connected to Redis")
	} else {
		logger.Info("review cache disabled", "reason", "REDIS_URL not set")
	}

	tokens, err := auth.NewTokenService(cfg.JWTSecret, cfg.TokenTTL)
	if err != nil {
		logger.Error("failed to create token service", "error", err)
		os.Exit(1)
	}
	hasher := auth.NewPasswordHasher(auth.DefaultArgon2Params)
	recorder := metrics.NewInMemory()

	accountService := service.NewAccountService(db, hasher, tokens, logger, recorder)
	reviewService := service.NewReviewService(db, reviewCache, logger, recorder)

	router := handler.NewRouter(handler.RouterConfig{
		Logger:             logger,
		Accounts:           handler.NewAccountHandler(accountService, logger, cfg.StrictStatusCodes),
		Reviews:            handler.NewReviewHandler(reviewService, logger, cfg.StrictStatusCodes),
		Health:             handler.NewHealthHandler(db, cacheHealth),
		Metrics:            handler.NewMetricsHandler(recorder),
		Verifier:           tokens,
		AuthHeader:         cfg.AuthHeader,
		AuthRecorder:       recorder,
		IsDevelopment:      cfg.IsDevelopment(),
		AllowedOrigins:     cfg.GetCORSAllowedOrigins(),
		MaxRequestBodySize: cfg.MaxRequestBodySize,
	})

	srv := server.New(router, server.Options{
		Port:            cfg.AppPort,
		ReadTimeout:     cfg.ReadTimeout,
		WriteTimeout:    cfg.WriteTimeout,
		ShutdownTimeout: cfg.ShutdownTimeout,
	}, logger)

	srv.OnShutdown("database", func(context.Context) error { return db.Close() })
	if redisCache != nil {
		srv.OnShutdown("cache", func(context.Context) error { return redisCache.Close() })
	}

	logger.Info("starting server",
		"port", cfg.AppPort,
		"env", cfg.AppEnv,
		"auth_header", cfg.AuthHeader,
		"strict_status_codes", cfg.StrictStatusCodes,
	)

	if err := srv.Run(); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}

// openStore connects to the backend selected by DATABASE_URL.
// PostgreSQL migrations are applied on startup; SQLite creates its schema on open.
func openStore(ctx context.Context, cfg *config.Config) (store, error) {
	driver, target, err := cfg.Database()
	if err != nil {
		return nil, err
	}

	switch driver {
	case config.DriverPostgres:
		repo, err := repository.New(ctx, target)
		if err != nil {
			return nil, err
		}
		if err := repo.Migrate(ctx); err != nil {
			_ = repo.Close()
			return nil, fmt.Errorf("migrate: %w", err)
		}
		return repo, nil
	case config.DriverSQLite:
		s, err := sqlite.Open(target)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, config.ErrUnsupportedDatabase
	}
}

// initLogger initializes the slog logger based on configuration.
func initLogger(cfg *config.Config) *slog.Logger {
	var h slog.Handler

	opts := &slog.HandlerOptions{
		Level: parseLogLevel(cfg.LogLevel),
	}

	if cfg.LogFormat == "json" {
		h = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		h = slog.NewTextHandler(os.Stdout, opts)
	}

	logger := slog.New(h)
	slog.SetDefault(logger)

	return logger
}

// parseLogLevel converts string log level to slog.Level.
func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

var passwordPattern = regexp.MustCompile(`(?i)password=[^\s&]+`)

func redactURL(raw string) string {
	if raw == "" {
		return ""
	}

	parsed, err := url.Parse(raw)
	if err != nil {
		return "[redacted]"
	}

	if parsed.User != nil {
		username := parsed.User.Username()
		if username == "" {
			parsed.User = url.User("redacted")
		} else {
			parsed.User = url.User(username)
		}
	}

	return parsed.String()
}

func sanitizeError(err error, secrets ...string) string {
	if err == nil {
		return ""
	}

	msg := err.Error()
	for _, secret := range secrets {
		if secret == "" {
			continue
		}
		redacted := redactURL(secret)
		if redacted == "" {
			redacted = "[redacted]"
		}
		msg = strings.ReplaceAll(msg, secret, redacted)
	}

	return passwordPattern.ReplaceAllString(msg, "password=redacted")
}
