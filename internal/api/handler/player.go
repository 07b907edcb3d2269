package handler

import (
	"bytes"
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/posa/jerseyapp/internal/api/request"
	"github.com/posa/jerseyapp/internal/api/response"
	"github.com/posa/jerseyapp/internal/model"
	"github.com/posa/jerseyapp/internal/services/roster"
)

// PlayerHandler handles roster administration endpoints
type PlayerHandler struct {
	roster *roster.Service
}

// NewPlayerHandler creates a new player handler
func NewPlayerHandler(rosterService *roster.Service) *PlayerHandler {
	return &PlayerHandler{
		roster: rosterService,
	}
}

func playerID(r *http.Request) model.PlayerID {
	return model.PlayerID(mux.Vars(r)["id"])
}

// Roster handles GET /api/v1/admin/roster
func (h *PlayerHandler) Roster(w http.ResponseWriter, r *http.Request) {
	sports, err := h.roster.Roster(r.Context())
	if err != nil {
		WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, response.RosterFromService(sports))
}

// List handles GET /api/v1/admin/players
func (h *PlayerHandler) List(w http.ResponseWriter, r *http.Request) {
	details, err := h.roster.ListPlayers(r.Context())
	if err != nil {
		WriteError(w, err)
		return
	}

	out := make([]response.PlayerDetail, len(details))
	for i, d := range details {
		out[i] = response.PlayerDetailFromRoster(d)
	}
	response.JSON(w, http.StatusOK, out)
}

// Get handles GET /api/v1/admin/players/{id}
func (h *PlayerHandler) Get(w http.ResponseWriter, r *http.Request) {
	detail, err := h.roster.GetPlayer(r.Context(), playerID(r))
	if err != nil {
		WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, response.PlayerDetailFromRoster(*detail))
}

// Create handles POST /api/v1/admin/players
func (h *PlayerHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req request.CreatePlayerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, NewInvalidRequestError("invalid request body"))
		return
	}

	player, err := h.roster.CreatePlayer(r.Context(), roster.CreatePlayerInput{
		FullName:    req.FullName,
		ParentEmail: req.ParentEmail,
		Division:    req.Division,
	})
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusCreated, response.PlayerFromModel(player))
}

// Update handles PATCH /api/v1/admin/players/{id}
func (h *PlayerHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req request.UpdatePlayerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, NewInvalidRequestError("invalid request body"))
		return
	}

	player, err := h.roster.UpdatePlayer(r.Context(), playerID(r), roster.UpdatePlayerInput{
		FullName:     req.FullName,
		ParentEmail:  req.ParentEmail,
		JerseyNumber: req.JerseyNumber,
	})
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.PlayerFromModel(player))
}

// Delete handles DELETE /api/v1/admin/players/{id}
func (h *PlayerHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.roster.DeletePlayer(r.Context(), playerID(r)); err != nil {
		WriteError(w, err)
		return
	}
	response.NoContent(w)
}

// BackfillPromo handles POST /api/v1/admin/registrations/backfill-promo
func (h *PlayerHandler) BackfillPromo(w http.ResponseWriter, r *http.Request) {
	updated, err := h.roster.BackfillPromo(r.Context())
	if err != nil {
		WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, response.PromoBackfill{Updated: updated})
}

// Export handles GET /api/v1/admin/export
func (h *PlayerHandler) Export(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := h.roster.ExportCSV(r.Context(), &buf); err != nil {
		WriteError(w, err)
		return
	}
	response.CSV(w, "players.csv", buf.Bytes())
}
