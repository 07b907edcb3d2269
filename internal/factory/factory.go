package factory

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/posa/jerseyapp/internal/dependencies/clock"
	"github.com/posa/jerseyapp/internal/metrics"
	"github.com/posa/jerseyapp/internal/services/auth"
	"github.com/posa/jerseyapp/internal/services/ingest"
	"github.com/posa/jerseyapp/internal/services/jersey"
	"github.com/posa/jerseyapp/internal/services/notify"
	"github.com/posa/jerseyapp/internal/services/roster"
	"github.com/posa/jerseyapp/internal/storage"
	"github.com/posa/jerseyapp/internal/storage/memory"
	"github.com/posa/jerseyapp/internal/storage/postgres"
	redisstorage "github.com/posa/jerseyapp/internal/storage/redis"
)

// Storage type constants
const (
	StorageTypeMemory   = "memory"
	StorageTypeRedis    = "redis"
	StorageTypePostgres = "postgres"
)

// Notifier type constants
const (
	NotifierNone = "none"
	NotifierLog  = "log"
)

// App contains all wired application components
type App struct {
	Storage     storage.Storage
	Clock       clock.Clock
	Registry    *prometheus.Registry
	Metrics     *metrics.Ingestion
	HTTPMetrics *metrics.HTTP
	Notifier    notify.Notifier

	Parser        *ingest.Parser
	Allocator     *jersey.Allocator
	IngestService *ingest.Service
	RosterService *roster.Service
	AuthService   *auth.Service
}

// Config holds configuration for the application factory
type Config struct {
	// StorageType selects the storage backend ("memory", "redis" or "postgres")
	// If empty, defaults to "memory"
	StorageType string
	// RedisConfig holds Redis connection settings (required if StorageType is "redis")
	RedisConfig *redisstorage.Config
	// DatabaseURL is the postgres DSN (required if StorageType is "postgres")
	DatabaseURL string
	// Notifier selects confirmation delivery ("none" or "log"), default "none"
	Notifier string
	// OrderURL is passed along with confirmations (optional)
	OrderURL string
	// AuthConfig holds configuration for the auth service (optional)
	AuthConfig auth.Config
	// Logger is the application logger (optional)
	// If nil, a no-op logger is used
	Logger *slog.Logger
}

// New creates a new application with all dependencies wired
func New(ctx context.Context, cfg Config) (*App, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}

	store, err := newStorage(ctx, cfg)
	if err != nil {
		return nil, err
	}

	var notifier notify.Notifier
	switch cfg.Notifier {
	case "", NotifierNone:
		notifier = notify.Nop{}
	case NotifierLog:
		notifier = notify.NewLogNotifier(logger)
	default:
		return nil, fmt.Errorf("invalid Notifier %q: must be 'none' or 'log'", cfg.Notifier)
	}

	authCfg := cfg.AuthConfig
	if authCfg.SessionDuration == 0 {
		authCfg = auth.DefaultConfig()
	}

	return newWithDependencies(store, clock.New(), notifier, cfg.OrderURL, authCfg, logger), nil
}

func newStorage(ctx context.Context, cfg Config) (storage.Storage, error) {
	storageType := cfg.StorageType
	if storageType == "" {
		storageType = StorageTypeMemory
	}

	switch storageType {
	case StorageTypeMemory:
		return memory.New(), nil
	case StorageTypeRedis:
		if cfg.RedisConfig == nil {
			return nil, errors.New("RedisConfig required when StorageType is redis")
		}
		return redisstorage.New(*cfg.RedisConfig)
	case StorageTypePostgres:
		if cfg.DatabaseURL == "" {
			return nil, errors.New("DatabaseURL required when StorageType is postgres")
		}
		pg, err := postgres.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		if err := pg.Migrate(ctx); err != nil {
			_ = pg.Close()
			return nil, err
		}
		return pg, nil
	default:
		return nil, errors.New("invalid StorageType: must be 'memory', 'redis' or 'postgres'")
	}
}

// newWithDependencies creates an App with the given dependencies (useful for testing)
func newWithDependencies(
	store storage.Storage,
	clk clock.Clock,
	notifier notify.Notifier,
	orderURL string,
	authCfg auth.Config,
	logger *slog.Logger,
) *App {
	if orderURL == "" {
		orderURL = notify.DefaultOrderURL
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(registry)

	parser := ingest.NewDefaultParser(logger)
	allocator := jersey.New(jersey.DefaultPool())

	ingestCfg := ingest.DefaultConfig()
	ingestCfg.OrderURL = orderURL
	rosterCfg := roster.DefaultConfig()
	rosterCfg.OrderURL = orderURL

	return &App{
		Storage:       store,
		Clock:         clk,
		Registry:      registry,
		Metrics:       m,
		HTTPMetrics:   metrics.NewHTTP(registry),
		Notifier:      notifier,
		Parser:        parser,
		Allocator:     allocator,
		IngestService: ingest.New(store, parser, allocator, notifier, clk, m, ingestCfg, logger),
		RosterService: roster.New(store, allocator, notifier, clk, rosterCfg, logger),
		AuthService:   auth.New(store, clk, authCfg),
	}
}

// MetricsHandler serves the app's prometheus registry
func (a *App) MetricsHandler() http.Handler {
	return promhttp.HandlerFor(a.Registry, promhttp.HandlerOpts{Registry: a.Registry})
}

// Close releases the storage backend's connections, if it holds any
func (a *App) Close() error {
	if c, ok := a.Storage.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
