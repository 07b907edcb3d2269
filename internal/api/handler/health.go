package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/posa/jerseyapp/internal/api/response"
	"github.com/posa/jerseyapp/internal/storage"
)

const healthPingTimeout = 2 * time.Second

// HealthHandler reports liveness and, for networked backends, storage reachability
type HealthHandler struct {
	store  storage.Storage
	logger *slog.Logger
}

func NewHealthHandler(store storage.Storage, logger *slog.Logger) *HealthHandler {
	return &HealthHandler{
		store:  store,
		logger: logger.With(slog.String("component", "health")),
	}
}

// Check handles GET /health
func (h *HealthHandler) Check(w http.ResponseWriter, r *http.Request) {
	if p, ok := h.store.(storage.Pinger); ok {
		ctx, cancel := context.WithTimeout(r.Context(), healthPingTimeout)
		defer cancel()
		if err := p.Ping(ctx); err != nil {
			h.logger.Warn("storage ping failed", slog.String("error", err.Error()))
			response.JSON(w, http.StatusServiceUnavailable, response.Health{Status: response.HealthUnavailable})
			return
		}
	}
	response.JSON(w, http.StatusOK, response.Health{Status: response.HealthOK})
}
