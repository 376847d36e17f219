package visits

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/wolfman30/salestracker/internal/export"
	"github.com/wolfman30/salestracker/internal/httpx"
	"github.com/wolfman30/salestracker/internal/identity"
	"github.com/wolfman30/salestracker/pkg/logging"
)

// Facade is what the HTTP layer needs from the visit service.
type Facade interface {
	Create(ctx context.Context, caller identity.User, form FormData) (string, error)
	List(ctx context.Context, caller identity.User, p ListParams) (*Page, error)
	Stats(ctx context.Context, caller identity.User, from, to string) (Stats, error)
	CheckDuplicate(ctx context.Context, caller identity.User, entreprise string) (DuplicateCheck, error)
	UpdateStatus(ctx context.Context, caller identity.User, id string, u StatusUpdate) error
	Delete(ctx context.Context, caller identity.User, id string) error
	ListForExport(ctx context.Context, caller identity.User, consultantID string) ([]*Visit, error)
}

// Handler serves /visits.
type Handler struct {
	svc    Facade
	logger *logging.Logger
	now    func() time.Time
}

// NewHandler creates the visits handler.
func NewHandler(svc Facade, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{svc: svc, logger: logger, now: time.Now}
}

// RegisterRoutes mounts the visit routes on an authenticated router.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/visits", func(r chi.Router) {
		r.Post("/", h.Create)
		r.Get("/", h.List)
		r.Get("/stats", h.Stats)
		r.Get("/duplicate", h.Duplicate)
		r.Get("/export", h.Export)
		r.Patch("/{id}", h.UpdateStatus)
		r.Delete("/{id}", h.Delete)
	})
}

type createRequest struct {
	Data *FormData `json:"data"`
}

// Create handles POST /visits.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFrom(w, r)
	if !ok {
		return
	}
	var req createRequest
	if err := httpx.DecodeJSON(r.Body, &req); err != nil || req.Data == nil {
		httpx.WriteError(w, http.StatusBadRequest, "Aucune donnée de visite fournie.")
		return
	}

	id, err := h.svc.Create(r.Context(), caller, *req.Data)
	if errors.Is(err, ErrInvalidForm) {
		httpx.WriteError(w, http.StatusBadRequest, "Données de visite invalides.")
		return
	}
	if err != nil {
		h.logger.Error("failed to create visit", "user_id", caller.ID, "error", err)
		httpx.WriteError(w, http.StatusInternalServerError, "Impossible d'enregistrer la visite.")
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, map[string]string{"id": id})
}

// List handles GET /visits.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFrom(w, r)
	if !ok {
		return
	}
	page, err := h.svc.List(r.Context(), caller, ParseListParams(r.URL.Query()))
	if err != nil {
		h.logger.Error("failed to list visits", "user_id", caller.ID, "error", err)
		httpx.WriteError(w, http.StatusInternalServerError, "Impossible de récupérer les visites.")
		return
	}
	httpx.WriteJSON(w, http.StatusOK, page)
}

// Stats handles GET /visits/stats.
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFrom(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	stats, err := h.svc.Stats(r.Context(), caller, strings.TrimSpace(q.Get("from")), strings.TrimSpace(q.Get("to")))
	if err != nil {
		h.logger.Error("failed to compute visit stats", "user_id", caller.ID, "error", err)
		httpx.WriteError(w, http.StatusInternalServerError, "Impossible de calculer les statistiques.")
		return
	}
	httpx.WriteJSON(w, http.StatusOK, stats)
}

// Duplicate handles GET /visits/duplicate?entreprise=.
func (h *Handler) Duplicate(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFrom(w, r)
	if !ok {
		return
	}
	check, err := h.svc.CheckDuplicate(r.Context(), caller, r.URL.Query().Get("entreprise"))
	if errors.Is(err, ErrInvalidForm) {
		httpx.WriteError(w, http.StatusBadRequest, "Le paramètre 'entreprise' est requis.")
		return
	}
	if err != nil {
		h.logger.Error("failed to check duplicate visit", "user_id", caller.ID, "error", err)
		httpx.WriteError(w, http.StatusInternalServerError, "Impossible de vérifier les doublons.")
		return
	}
	httpx.WriteJSON(w, http.StatusOK, check)
}

// UpdateStatus handles PATCH /visits/{id}.
func (h *Handler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFrom(w, r)
	if !ok {
		return
	}
	var u StatusUpdate
	if err := httpx.DecodeJSON(r.Body, &u); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "Statut invalide.")
		return
	}
	err := h.svc.UpdateStatus(r.Context(), caller, chi.URLParam(r, "id"), u)
	if h.writeMutationError(w, caller, "update", err) {
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// Delete handles DELETE /visits/{id}.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFrom(w, r)
	if !ok {
		return
	}
	err := h.svc.Delete(r.Context(), caller, chi.URLParam(r, "id"))
	if h.writeMutationError(w, caller, "delete", err) {
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (h *Handler) writeMutationError(w http.ResponseWriter, caller identity.User, op string, err error) bool {
	switch {
	case err == nil:
		return false
	case errors.Is(err, ErrInvalidStatus):
		httpx.WriteError(w, http.StatusBadRequest, "Statut invalide.")
	case errors.Is(err, ErrNotFound):
		httpx.WriteError(w, http.StatusNotFound, "Visite introuvable.")
	case errors.Is(err, ErrForbidden):
		httpx.WriteError(w, http.StatusForbidden, "Accès refusé.")
	default:
		h.logger.Error("visit mutation failed", "op", op, "user_id", caller.ID, "error", err)
		httpx.WriteError(w, http.StatusInternalServerError, "Erreur interne du serveur.")
	}
	return true
}

// Export handles GET /visits/export and streams an xlsx attachment.
func (h *Handler) Export(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFrom(w, r)
	if !ok {
		return
	}
	if caller.Role == "" {
		httpx.WriteError(w, http.StatusNotFound, "Profil non trouvé")
		return
	}

	rows, err := h.svc.ListForExport(r.Context(), caller, r.URL.Query().Get("consultant_id"))
	if errors.Is(err, identity.ErrForbidden) {
		httpx.WriteError(w, http.StatusForbidden, "Accès refusé.")
		return
	}
	if err != nil {
		h.logger.Error("failed to load visits for export", "user_id", caller.ID, "error", err)
		httpx.WriteError(w, http.StatusInternalServerError, "Erreur lors de la récupération des visites")
		return
	}
	if len(rows) == 0 {
		httpx.WriteError(w, http.StatusNotFound, "Aucune visite à exporter")
		return
	}

	body, err := export.RenderVisits(ExportRows(rows))
	if err != nil {
		h.logger.Error("failed to render export", "user_id", caller.ID, "error", err)
		httpx.WriteError(w, http.StatusInternalServerError, "Erreur lors de l'export Excel")
		return
	}

	w.Header().Set("Content-Type", export.ContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+export.Filename(h.now())+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

// ExportRows maps visits onto sheet rows.
func ExportRows(list []*Visit) []export.Row {
	rows := make([]export.Row, 0, len(list))
	for _, v := range list {
		date, _ := time.Parse(time.DateOnly, v.DateVisite)
		rows = append(rows, export.Row{
			DateVisite:   date,
			Entreprise:   v.Entreprise,
			Personne:     v.PersonneRencontree,
			Fonction:     deref(v.FonctionPoste),
			Email:        deref(v.Email),
			Telephone:    v.Phone(),
			Adresse:      deref(v.Adresse),
			Ville:        deref(v.Ville),
			Zone:         deref(v.Zone),
			Objet:        v.ObjetVisite,
			Commentaire:  deref(v.Remarques),
			StatutVisite: v.StatutVisite.Label(),
			StatutAction: v.StatutAction.Label(),
			Montant:      v.Montant,
			Probabilite:  v.Probabilite,
			Commercial:   deref(v.CommercialName),
			CreatedAt:    v.CreatedAt,
		})
	}
	return rows
}

func callerFrom(w http.ResponseWriter, r *http.Request) (identity.User, bool) {
	u, ok := identity.UserFromContext(r.Context())
	if !ok {
		httpx.WriteError(w, http.StatusUnauthorized, "Utilisateur non authentifié.")
		return identity.User{}, false
	}
	return *u, true
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
