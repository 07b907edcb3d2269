package handler

import (
	"encoding/json"
	"net/http"

	"github.com/posa/jerseyapp/internal/api/middleware"
	"github.com/posa/jerseyapp/internal/api/request"
	"github.com/posa/jerseyapp/internal/api/response"
	"github.com/posa/jerseyapp/internal/services/auth"
)

// UserHandler handles admin account endpoints
type UserHandler struct {
	authService *auth.Service
}

// NewUserHandler creates a new user handler
func NewUserHandler(authService *auth.Service) *UserHandler {
	return &UserHandler{
		authService: authService,
	}
}

func decodeCredentials(r *http.Request) (request.CredentialsRequest, error) {
	var req request.CredentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return req, NewInvalidRequestError("invalid request body")
	}
	if req.Email == "" {
		return req, NewInvalidRequestError("email is required")
	}
	if req.Password == "" {
		return req, NewInvalidRequestError("password is required")
	}
	return req, nil
}

// Register handles POST /api/v1/admin/users/register
func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	req, err := decodeCredentials(r)
	if err != nil {
		WriteError(w, err)
		return
	}

	session, err := h.authService.Register(r.Context(), req.Email, req.Password, middleware.GetSession(r.Context()))
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusCreated, response.AuthResponseFromSession(session))
}

// Login handles POST /api/v1/admin/login
func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	req, err := decodeCredentials(r)
	if err != nil {
		WriteError(w, err)
		return
	}

	session, err := h.authService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.AuthResponseFromSession(session))
}

// Logout handles POST /api/v1/admin/logout
func (h *UserHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if session := middleware.GetSession(r.Context()); session != nil {
		h.authService.InvalidateSession(session.Token)
	}
	response.NoContent(w)
}
