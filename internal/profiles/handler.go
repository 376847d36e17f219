package profiles

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/wolfman30/salestracker/internal/httpx"
	"github.com/wolfman30/salestracker/internal/identity"
	"github.com/wolfman30/salestracker/pkg/logging"
)

// Reader is the read side of the profile store used by the HTTP routes.
type Reader interface {
	Get(ctx context.Context, id string) (*Profile, error)
	ListTeam(ctx context.Context) ([]TeamMember, error)
}

// Handler serves the profile and team routes.
type Handler struct {
	store  Reader
	logger *logging.Logger
}

// NewHandler creates the profile handler.
func NewHandler(store Reader, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{store: store, logger: logger}
}

// RegisterRoutes mounts the routes on an authenticated router.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/profiles/me", h.Me)
	r.Get("/team", h.Team)
}

// Me returns the caller's own profile.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	user, ok := identity.UserFromContext(r.Context())
	if !ok {
		httpx.WriteError(w, http.StatusUnauthorized, "Utilisateur non authentifié.")
		return
	}
	p, err := h.store.Get(r.Context(), user.ID)
	if errors.Is(err, ErrNotFound) {
		httpx.WriteError(w, http.StatusNotFound, "Profil introuvable.")
		return
	}
	if err != nil {
		h.logger.Error("failed to load profile", "user_id", user.ID, "error", err)
		httpx.WriteError(w, http.StatusInternalServerError, "Impossible de récupérer le profil.")
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"data": p})
}

// Team lists every team member with their visit totals.
func (h *Handler) Team(w http.ResponseWriter, r *http.Request) {
	if _, ok := identity.UserFromContext(r.Context()); !ok {
		httpx.WriteError(w, http.StatusUnauthorized, "Utilisateur non authentifié.")
		return
	}
	team, err := h.store.ListTeam(r.Context())
	if err != nil {
		h.logger.Error("failed to list team", "error", err)
		httpx.WriteError(w, http.StatusInternalServerError, "Impossible de récupérer les membres de l'équipe.")
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"data": team})
}
