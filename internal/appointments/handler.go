package appointments

import (
	"context"
	"crypto/subtle"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/wolfman30/salestracker/internal/httpx"
	"github.com/wolfman30/salestracker/internal/identity"
	"github.com/wolfman30/salestracker/pkg/logging"
)

// Facade is what the HTTP layer needs from the appointment service.
type Facade interface {
	Create(ctx context.Context, caller identity.User, form FormData) (*Appointment, error)
	List(ctx context.Context, caller identity.User, f Filter) ([]*Appointment, error)
}

// SweepRunner runs one reminder sweep.
type SweepRunner interface {
	Sweep(ctx context.Context, now time.Time) (SweepResult, error)
}

// Handler serves /appointments.
type Handler struct {
	svc     Facade
	sweeper SweepRunner
	secret  string
	logger  *logging.Logger
	now     func() time.Time
}

// NewHandler creates the appointments handler. An empty secret rejects every
// sweep request.
func NewHandler(svc Facade, sweeper SweepRunner, secret string, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{svc: svc, sweeper: sweeper, secret: secret, logger: logger, now: time.Now}
}

// RegisterRoutes mounts the session-protected routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/appointments", h.Create)
	r.Get("/appointments", h.List)
}

// RegisterReminderRoutes mounts the secret-guarded sweep trigger. It must sit
// outside session authentication.
func (h *Handler) RegisterReminderRoutes(r chi.Router) {
	r.Post("/appointments/reminders", h.Reminders)
}

type createRequest struct {
	Data *FormData `json:"data"`
}

type createResponse struct {
	Message string       `json:"message"`
	Data    *Appointment `json:"data"`
}

// Create handles POST /appointments.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFrom(w, r)
	if !ok {
		return
	}
	var req createRequest
	if err := httpx.DecodeJSON(r.Body, &req); err != nil || req.Data == nil {
		httpx.WriteError(w, http.StatusBadRequest, "Données de rendez-vous requises.")
		return
	}

	a, err := h.svc.Create(r.Context(), caller, *req.Data)
	if errors.Is(err, ErrInvalidForm) {
		httpx.WriteError(w, http.StatusBadRequest, "Entreprise, date et heure de début sont obligatoires.")
		return
	}
	if err != nil {
		h.logger.Error("failed to create appointment", "user_id", caller.ID, "error", err)
		httpx.WriteError(w, http.StatusInternalServerError, "Impossible de créer le rendez-vous.")
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, createResponse{Message: "Rendez-vous créé avec succès.", Data: a})
}

// List handles GET /appointments?visite_id&statut&from&to.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFrom(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	f := Filter{
		VisiteID: strings.TrimSpace(q.Get("visite_id")),
		Statut:   strings.TrimSpace(q.Get("statut")),
		From:     strings.TrimSpace(q.Get("from")),
		To:       strings.TrimSpace(q.Get("to")),
	}
	list, err := h.svc.List(r.Context(), caller, f)
	if err != nil {
		h.logger.Error("failed to list appointments", "user_id", caller.ID, "error", err)
		httpx.WriteError(w, http.StatusInternalServerError, "Impossible de récupérer les rendez-vous.")
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"data": list})
}

type sweepResponse struct {
	Message string `json:"message"`
	SweepResult
}

// Reminders handles POST /appointments/reminders?secret=.
func (h *Handler) Reminders(w http.ResponseWriter, r *http.Request) {
	if !h.authorizedSweep(r.URL.Query().Get("secret")) {
		httpx.WriteError(w, http.StatusUnauthorized, "Accès non autorisé.")
		return
	}

	res, err := h.sweeper.Sweep(r.Context(), h.now())
	if err != nil {
		h.logger.Error("reminder sweep failed", "error", err)
		httpx.WriteError(w, http.StatusInternalServerError, "Impossible de récupérer les rendez-vous à rappeler.")
		return
	}

	msg := "Traitement des rappels terminé."
	if res.Processed == 0 {
		msg = "Aucun rappel à envoyer."
	}
	httpx.WriteJSON(w, http.StatusOK, sweepResponse{Message: msg, SweepResult: res})
}

func (h *Handler) authorizedSweep(secret string) bool {
	if h.secret == "" || secret == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(secret), []byte(h.secret)) == 1
}

func callerFrom(w http.ResponseWriter, r *http.Request) (identity.User, bool) {
	u, ok := identity.UserFromContext(r.Context())
	if !ok {
		httpx.WriteError(w, http.StatusUnauthorized, "Utilisateur non authentifié.")
		return identity.User{}, false
	}
	return *u, true
}
