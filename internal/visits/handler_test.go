package visits

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/wolfman30/salestracker/internal/export"
	"github.com/wolfman30/salestracker/internal/identity"
)

func newTestRouter(h *Handler) http.Handler {
	r := chi.NewRouter()
	h.RegisterRoutes(r)
	return r
}

func do(t *testing.T, h *Handler, method, target, body string, user *identity.User) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	if user != nil {
		req = req.WithContext(identity.WithUser(req.Context(), user))
	}
	rec := httptest.NewRecorder()
	newTestRouter(h).ServeHTTP(rec, req)
	return rec
}

func TestCreateVisitHandler(t *testing.T) {
	store := &memoryStore{}
	h := NewHandler(NewService(store, nil, nil), nil)
	commercial := &identity.User{ID: "A", Role: identity.RoleCommercial}

	rec := do(t, h, http.MethodPost, "/visits", `{"data":{"entreprise":"Acme","personne_rencontree":"X","date_visite":"2026-01-01","objet_visite":"Demo","statut_visite":"a_faire"}}`, commercial)
	require.Equal(t, http.StatusCreated, rec.Code)
	var body map[string]string
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "new-id", body["id"])

	rec = do(t, h, http.MethodPost, "/visits", `{}`, commercial)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodPost, "/visits", `{"data":{"entreprise":"Acme"}}`, commercial)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodPost, "/visits", `{"data":{}}`, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestListVisitsHandler(t *testing.T) {
	h := NewHandler(NewService(twoCommercials(), &fakeLookup{}, nil), nil)

	rec := do(t, h, http.MethodGet, "/visits?page=1&pageSize=0", "", &identity.User{ID: "B", Role: identity.RoleCommercial})
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Data       []map[string]any `json:"data"`
		Pagination Pagination       `json:"pagination"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, Pagination{Page: 1, PageSize: 1, Total: 2}, body.Pagination)
	require.Len(t, body.Data, 2)
	assert.Contains(t, body.Data[0], "montant")
	assert.Nil(t, body.Data[0]["montant"])
	assert.Nil(t, body.Data[0]["probabilite"])
}

func TestListVisitsHandlerStoreErrorIsGeneric(t *testing.T) {
	h := NewHandler(NewService(&memoryStore{listErr: assert.AnError}, nil, nil), nil)
	rec := do(t, h, http.MethodGet, "/visits", "", &identity.User{ID: "A"})
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), assert.AnError.Error())
}

func TestPatchAndDeleteVisitHandler(t *testing.T) {
	store := twoCommercials()
	h := NewHandler(NewService(store, nil, nil), nil)

	rec := do(t, h, http.MethodPatch, "/visits/v-a", `{"statut_visite":"termine"}`, &identity.User{ID: "B"})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = do(t, h, http.MethodPatch, "/visits/v-a", `{"statut_visite":"bogus"}`, &identity.User{ID: "A"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodPatch, "/visits/v-a", `{"statut_visite":"termine"}`, &identity.User{ID: "A"})
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, h, http.MethodDelete, "/visits/nope", "", &identity.User{ID: "A"})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, h, http.MethodDelete, "/visits/v-b", "", &identity.User{ID: "B"})
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestStatsAndDuplicateHandlers(t *testing.T) {
	store := &memoryStore{visits: []*Visit{{ID: "v-1", CommercialID: "A", Entreprise: "Acme", DateVisite: "2026-03-01", StatutVisite: StatutTermine}}}
	h := NewHandler(NewService(store, nil, nil), nil)
	caller := &identity.User{ID: "A"}

	rec := do(t, h, http.MethodGet, "/visits/stats", "", caller)
	require.Equal(t, http.StatusOK, rec.Code)
	var st Stats
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&st))
	assert.Equal(t, 1, st.VisitesTerminees)

	rec = do(t, h, http.MethodGet, "/visits/duplicate", "", caller)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodGet, "/visits/duplicate?entreprise=Acme", "", caller)
	require.Equal(t, http.StatusOK, rec.Code)
	var dup DuplicateCheck
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&dup))
	assert.True(t, dup.Existe)
}

func TestExportHandler(t *testing.T) {
	store := twoCommercials()
	h := NewHandler(NewService(store, &fakeLookup{}, nil), nil)
	h.now = func() time.Time { return time.Date(2026, 4, 2, 10, 0, 0, 0, time.UTC) }

	rec := do(t, h, http.MethodGet, "/visits/export", "", &identity.User{ID: "X", Role: identity.RoleAdmin})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, export.ContentType, rec.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="visites_export_2026-04-02.xlsx"`, rec.Header().Get("Content-Disposition"))

	f, err := excelize.OpenReader(bytes.NewReader(rec.Body.Bytes()))
	require.NoError(t, err)
	defer f.Close()
	company, _ := f.GetCellValue("Visites", "B2")
	assert.Equal(t, "Acme", company)
}

func TestExportHandlerEmptyIs404(t *testing.T) {
	h := NewHandler(NewService(&memoryStore{}, &fakeLookup{}, nil), nil)
	rec := do(t, h, http.MethodGet, "/visits/export", "", &identity.User{ID: "A", Role: identity.RoleCommercial})
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "Aucune visite")
}

func TestExportHandlerWithoutProfile(t *testing.T) {
	h := NewHandler(NewService(twoCommercials(), &fakeLookup{}, nil), nil)
	rec := do(t, h, http.MethodGet, "/visits/export", "", &identity.User{ID: "A"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
