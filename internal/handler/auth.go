package handler

import (
	"log/slog"
	"net/http"

	"github.com/sakif/devconnector/internal/service"
)

// AuthHandler serves registration, login and "who am I".
//
// HANDLER RESPONSIBILITIES:
//   - HandleRegister → POST /api/users
//   - HandleLogin    → POST /api/auth
//   - HandleMe       → GET  /api/auth (behind auth.RequireAuth)
type AuthHandler struct {
	svc    *service.AuthService
	logger *slog.Logger
}

// NewAuthHandler creates an AuthHandler.
func NewAuthHandler(svc *service.AuthService, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{svc: svc, logger: logger}
}

type registerRequest struct {
	Name     string `json:"name" validate:"notblank,max=100"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6,max=72"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// TokenResponse carries a freshly issued access token.
type TokenResponse struct {
	Token string `json:"token"`
}

// HandleRegister creates an account and logs it in.
//
// HTTP: POST /api/users
// REQUEST BODY: {"name": "Ada", "email": "ada@example.com", "password": "secret123"}
// RESPONSE: 201 {"token": "<jwt>"}
func (h *AuthHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}

	token, err := h.svc.Register(r.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusCreated, TokenResponse{Token: token})
}

// HandleLogin exchanges email and password for a token.
//
// HTTP: POST /api/auth
// RESPONSE: 200 {"token": "<jwt>"}, or 400 "invalid credentials"
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}

	token, err := h.svc.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, TokenResponse{Token: token})
}

// HandleMe returns the authenticated user. The password hash is never
// serialized (model.User tags it `json:"-"`).
//
// HTTP: GET /api/auth
func (h *AuthHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	userID, err := actingUser(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	user, err := h.svc.CurrentUser(r.Context(), userID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, user)
}
