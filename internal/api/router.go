package api

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/posa/jerseyapp/internal/api/handler"
	"github.com/posa/jerseyapp/internal/api/middleware"
	"github.com/posa/jerseyapp/internal/metrics"
	"github.com/posa/jerseyapp/internal/services/auth"
	"github.com/posa/jerseyapp/internal/services/ingest"
	"github.com/posa/jerseyapp/internal/services/roster"
	"github.com/posa/jerseyapp/internal/storage"
)

// RouterConfig holds configuration for the API router
type RouterConfig struct {
	Logger        *slog.Logger
	AuthService   *auth.Service
	IngestService *ingest.Service
	RosterService *roster.Service
	// Storage is pinged by /health when it supports it
	Storage storage.Storage
	// HTTPMetrics may be nil
	HTTPMetrics *metrics.HTTP
	// MetricsHandler serves /metrics when set
	MetricsHandler http.Handler
}

// NewRouter creates a new API router with all routes configured
func NewRouter(cfg RouterConfig) http.Handler {
	r := mux.NewRouter()

	emailHandler := handler.NewEmailHandler(cfg.IngestService)
	userHandler := handler.NewUserHandler(cfg.AuthService)
	playerHandler := handler.NewPlayerHandler(cfg.RosterService)
	healthHandler := handler.NewHealthHandler(cfg.Storage, cfg.Logger)

	authMiddleware := middleware.Auth(cfg.AuthService)
	optionalAuthMiddleware := middleware.OptionalAuth(cfg.AuthService)
	loggingMiddleware := middleware.Logging(cfg.Logger, cfg.HTTPMetrics)
	recoveryMiddleware := middleware.Recovery(cfg.Logger)

	api := r.PathPrefix("/api/v1").Subrouter()
	api.Use(recoveryMiddleware)
	api.Use(loggingMiddleware)

	// Inbound email webhook (no auth)
	api.HandleFunc("/email/receive", emailHandler.Receive).Methods(http.MethodPost)

	// Admin accounts
	api.HandleFunc("/admin/login", userHandler.Login).Methods(http.MethodPost)
	register := api.PathPrefix("/admin/users").Subrouter()
	register.Use(optionalAuthMiddleware)
	register.HandleFunc("/register", userHandler.Register).Methods(http.MethodPost)

	// Roster administration
	admin := api.PathPrefix("/admin").Subrouter()
	admin.Use(authMiddleware)
	admin.HandleFunc("/logout", userHandler.Logout).Methods(http.MethodPost)
	admin.HandleFunc("/roster", playerHandler.Roster).Methods(http.MethodGet)
	admin.HandleFunc("/export", playerHandler.Export).Methods(http.MethodGet)
	admin.HandleFunc("/players", playerHandler.List).Methods(http.MethodGet)
	admin.HandleFunc("/players", playerHandler.Create).Methods(http.MethodPost)
	admin.HandleFunc("/players/{id}", playerHandler.Get).Methods(http.MethodGet)
	admin.HandleFunc("/players/{id}", playerHandler.Update).Methods(http.MethodPatch)
	admin.HandleFunc("/players/{id}", playerHandler.Delete).Methods(http.MethodDelete)
	admin.HandleFunc("/registrations/backfill-promo", playerHandler.BackfillPromo).Methods(http.MethodPost)

	api.HandleFunc("/health", healthHandler.Check).Methods(http.MethodGet)

	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler).Methods(http.MethodGet)
	}

	return r
}
