package identity

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/wolfman30/salestracker/internal/httpx"
	"github.com/wolfman30/salestracker/pkg/logging"
)

// SignInClient is the subset of the auth service the login route needs.
type SignInClient interface {
	SignIn(ctx context.Context, email, password string) (*Session, error)
}

// Handler serves the login/logout routes.
type Handler struct {
	client       SignInClient
	cookieSecure bool
	logger       *logging.Logger
}

// NewHandler creates the session handler.
func NewHandler(client SignInClient, cookieSecure bool, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{client: client, cookieSecure: cookieSecure, logger: logger}
}

// RegisterRoutes mounts /login and /logout on r.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/login", h.Login)
	r.Post("/logout", h.Logout)
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login exchanges credentials for session cookies.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := httpx.DecodeJSON(r.Body, &req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "Email et mot de passe requis")
		return
	}
	email := strings.TrimSpace(req.Email)
	if email == "" || req.Password == "" {
		httpx.WriteError(w, http.StatusBadRequest, "Email et mot de passe requis")
		return
	}

	session, err := h.client.SignIn(r.Context(), email, req.Password)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			httpx.WriteError(w, http.StatusUnauthorized, "Identifiants invalides")
			return
		}
		h.logger.Error("sign-in failed", "error", err)
		httpx.WriteError(w, http.StatusInternalServerError, "Erreur serveur")
		return
	}

	SetSessionCookies(w, session, h.cookieSecure)
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"user": session.User})
}

// Logout clears the session cookies.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	ClearSessionCookies(w, h.cookieSecure)
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"success": true})
}
