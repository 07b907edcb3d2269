package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/posa/jerseyapp/internal/api"
	"github.com/posa/jerseyapp/internal/factory"
	"github.com/posa/jerseyapp/internal/services/auth"
	redisstorage "github.com/posa/jerseyapp/internal/storage/redis"
)

const sessionSweepInterval = time.Hour

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	cfg, serverConfig, err := configFromEnv(logger)
	if err != nil {
		logger.Error("invalid configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := factory.New(ctx, cfg)
	if err != nil {
		logger.Error("failed to create application", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer app.Close()

	router := api.NewRouter(api.RouterConfig{
		Logger:         logger,
		AuthService:    app.AuthService,
		IngestService:  app.IngestService,
		RosterService:  app.RosterService,
		Storage:        app.Storage,
		HTTPMetrics:    app.HTTPMetrics,
		MetricsHandler: app.MetricsHandler(),
	})

	go sweepSessions(ctx, app.AuthService)

	logger.Info("server starting",
		slog.String("storage", storageName(cfg.StorageType)),
		slog.String("notifier", cfg.Notifier),
	)

	if err := api.NewServer(router, serverConfig, logger).Run(ctx); err != nil {
		logger.Error("server error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

// configFromEnv reads STORAGE_TYPE, REDIS_URL, DATABASE_URL, NOTIFIER,
// ORDER_URL and PORT.
func configFromEnv(logger *slog.Logger) (factory.Config, api.ServerConfig, error) {
	cfg := factory.Config{
		Logger:      logger,
		StorageType: os.Getenv("STORAGE_TYPE"),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		Notifier:    os.Getenv("NOTIFIER"),
		OrderURL:    os.Getenv("ORDER_URL"),
	}
	serverConfig := api.DefaultServerConfig()

	switch cfg.StorageType {
	case factory.StorageTypeRedis:
		redisURL := os.Getenv("REDIS_URL")
		if redisURL == "" {
			return cfg, serverConfig, errMissingEnv("REDIS_URL")
		}
		redisCfg := redisstorage.DefaultConfig()
		redisCfg.URL = redisURL
		cfg.RedisConfig = &redisCfg
	case factory.StorageTypePostgres:
		if cfg.DatabaseURL == "" {
			return cfg, serverConfig, errMissingEnv("DATABASE_URL")
		}
	}

	if port := os.Getenv("PORT"); port != "" {
		p, err := strconv.Atoi(port)
		if err != nil {
			return cfg, serverConfig, err
		}
		serverConfig.Port = p
	}

	return cfg, serverConfig, nil
}

type errMissingEnv string

func (e errMissingEnv) Error() string {
	return string(e) + " is required for this STORAGE_TYPE"
}

// sweepSessions drops expired admin sessions until ctx is done
func sweepSessions(ctx context.Context, svc *auth.Service) {
	ticker := time.NewTicker(sessionSweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			svc.CleanExpiredSessions()
		}
	}
}

func storageName(storageType string) string {
	if storageType == "" {
		return factory.StorageTypeMemory
	}
	return storageType
}
