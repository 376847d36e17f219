package visits

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolfman30/salestracker/internal/identity"
	"github.com/wolfman30/salestracker/internal/profiles"
)

type memoryStore struct {
	visits     []*Visit
	lastFilter Filter
	listErr    error
	updated    map[string]StatusUpdate
	deleted    []string
}

func (m *memoryStore) Create(ctx context.Context, v *Visit) error {
	v.ID = "new-id"
	m.visits = append(m.visits, v)
	return nil
}

func (m *memoryStore) List(ctx context.Context, f Filter, limit, offset int) ([]*Visit, int, error) {
	m.lastFilter = f
	if m.listErr != nil {
		return nil, 0, m.listErr
	}
	return cloneAll(m.visits), len(m.visits), nil
}

func (m *memoryStore) Get(ctx context.Context, id string) (*Visit, error) {
	for _, v := range m.visits {
		if v.ID == id {
			c := *v
			return &c, nil
		}
	}
	return nil, ErrNotFound
}

func (m *memoryStore) GetMany(ctx context.Context, ids []string) (map[string]*Visit, error) {
	return nil, nil
}

func (m *memoryStore) UpdateStatus(ctx context.Context, id string, u StatusUpdate) error {
	if m.updated == nil {
		m.updated = map[string]StatusUpdate{}
	}
	m.updated[id] = u
	return nil
}

func (m *memoryStore) Delete(ctx context.Context, id string) error {
	m.deleted = append(m.deleted, id)
	return nil
}

func (m *memoryStore) ListOwnStats(ctx context.Context, commercialID, from, to string) ([]*Visit, error) {
	var out []*Visit
	for _, v := range m.visits {
		if v.CommercialID == commercialID {
			out = append(out, v)
		}
	}
	return out, nil
}

func (m *memoryStore) LatestByCompany(ctx context.Context, commercialID, entreprise string) (*Visit, error) {
	for _, v := range m.visits {
		if v.CommercialID == commercialID && v.Entreprise == entreprise {
			return v, nil
		}
	}
	return nil, nil
}

func (m *memoryStore) ListForExport(ctx context.Context, f Filter) ([]*Visit, error) {
	m.lastFilter = f
	return cloneAll(m.visits), nil
}

func cloneAll(in []*Visit) []*Visit {
	out := make([]*Visit, len(in))
	for i, v := range in {
		c := *v
		out[i] = &c
	}
	return out
}

type fakeLookup struct {
	profiles map[string]profiles.Profile
	err      error
	calls    [][]string
}

func (f *fakeLookup) ListByIDs(ctx context.Context, ids []string) (map[string]profiles.Profile, error) {
	f.calls = append(f.calls, ids)
	return f.profiles, f.err
}

func floatPtr(f float64) *float64 { return &f }
func intPtr(i int) *int           { return &i }

func twoCommercials() *memoryStore {
	return &memoryStore{visits: []*Visit{
		{ID: "v-a", CommercialID: "A", Entreprise: "Acme", Montant: floatPtr(500), Probabilite: intPtr(80)},
		{ID: "v-b", CommercialID: "B", Entreprise: "Beta"},
	}}
}

func TestListRedactsForeignSensitiveFields(t *testing.T) {
	store := twoCommercials()
	svc := NewService(store, &fakeLookup{}, nil)

	asA, err := svc.List(context.Background(), identity.User{ID: "A", Role: identity.RoleCommercial}, ListParams{Page: 1, PageSize: 20})
	require.NoError(t, err)
	require.NotNil(t, asA.Data[0].Montant)
	assert.Equal(t, 500.0, *asA.Data[0].Montant)
	assert.Nil(t, asA.Data[1].Montant)

	asB, err := svc.List(context.Background(), identity.User{ID: "B", Role: identity.RoleCommercial}, ListParams{Page: 1, PageSize: 20})
	require.NoError(t, err)
	assert.Nil(t, asB.Data[0].Montant)
	assert.Nil(t, asB.Data[0].Probabilite)
	assert.Nil(t, asB.Data[1].Montant)

	asConsultant, err := svc.List(context.Background(), identity.User{ID: "C", Role: identity.RoleConsultant}, ListParams{Page: 1, PageSize: 20})
	require.NoError(t, err)
	require.NotNil(t, asConsultant.Data[0].Probabilite)
	assert.Equal(t, 80, *asConsultant.Data[0].Probabilite)
}

func TestListPaginationEchoesClampedValues(t *testing.T) {
	svc := NewService(twoCommercials(), &fakeLookup{}, nil)
	page, err := svc.List(context.Background(), identity.User{ID: "A"}, ListParams{Page: -2, PageSize: 0})
	require.NoError(t, err)
	assert.Equal(t, Pagination{Page: 1, PageSize: 1, Total: 2}, page.Pagination)
}

func TestListCommercialFilterOnlyForElevatedRoles(t *testing.T) {
	store := twoCommercials()
	svc := NewService(store, &fakeLookup{}, nil)

	_, err := svc.List(context.Background(), identity.User{ID: "A", Role: identity.RoleCommercial}, ListParams{Page: 1, PageSize: 20, CommercialID: "B"})
	require.NoError(t, err)
	assert.Equal(t, "", store.lastFilter.CommercialID)

	_, err = svc.List(context.Background(), identity.User{ID: "X", Role: identity.RoleAdmin}, ListParams{Page: 1, PageSize: 20, CommercialID: "B", Search: "be"})
	require.NoError(t, err)
	assert.Equal(t, "B", store.lastFilter.CommercialID)
	assert.Equal(t, "be", store.lastFilter.Search)
}

func TestListNamesOwnFromSessionOthersFromLookup(t *testing.T) {
	store := &memoryStore{visits: []*Visit{
		{ID: "1", CommercialID: "A"},
		{ID: "2", CommercialID: "B"},
		{ID: "3", CommercialID: "B"},
		{ID: "4", CommercialID: "Z"},
	}}
	lookup := &fakeLookup{profiles: map[string]profiles.Profile{
		"B": {ID: "B", Prenom: "Omar", Nom: "Zouari"},
		"A": {ID: "A", Prenom: "Stale", Nom: "Name"},
	}}
	svc := NewService(store, lookup, nil)

	caller := identity.User{ID: "A", FirstName: "Lina", LastName: "Ayari", Role: identity.RoleCommercial}
	page, err := svc.List(context.Background(), caller, ListParams{Page: 1, PageSize: 20})
	require.NoError(t, err)

	require.Len(t, lookup.calls, 1)
	assert.ElementsMatch(t, []string{"B", "Z"}, lookup.calls[0])

	require.NotNil(t, page.Data[0].CommercialName)
	assert.Equal(t, "Lina Ayari", *page.Data[0].CommercialName)
	assert.Equal(t, "Omar Zouari", *page.Data[1].CommercialName)
	assert.Equal(t, "Omar Zouari", *page.Data[2].CommercialName)
	assert.Nil(t, page.Data[3].CommercialName)
}

func TestListLookupFailureKeepsOwnName(t *testing.T) {
	store := &memoryStore{visits: []*Visit{{ID: "1", CommercialID: "A"}, {ID: "2", CommercialID: "B"}}}
	svc := NewService(store, &fakeLookup{err: errors.New("profiles down")}, nil)

	page, err := svc.List(context.Background(), identity.User{ID: "A", Email: "a@example.com"}, ListParams{Page: 1, PageSize: 20})
	require.NoError(t, err)
	require.NotNil(t, page.Data[0].CommercialName)
	assert.Equal(t, "a@example.com", *page.Data[0].CommercialName)
	assert.Nil(t, page.Data[1].CommercialName)
}

func TestListStoreError(t *testing.T) {
	svc := NewService(&memoryStore{listErr: errors.New("db")}, &fakeLookup{}, nil)
	_, err := svc.List(context.Background(), identity.User{ID: "A"}, ListParams{Page: 1, PageSize: 20})
	assert.Error(t, err)
}

func TestCreateValidates(t *testing.T) {
	store := &memoryStore{}
	svc := NewService(store, nil, nil)

	_, err := svc.Create(context.Background(), identity.User{ID: "A"}, FormData{Entreprise: "Acme"})
	assert.ErrorIs(t, err, ErrInvalidForm)

	_, err = svc.Create(context.Background(), identity.User{ID: "A"}, FormData{
		Entreprise: "Acme", PersonneRencontree: "X", DateVisite: "2026-01-01", ObjetVisite: "Demo",
		StatutVisite: StatutAFaire, Probabilite: intPtr(140),
	})
	assert.ErrorIs(t, err, ErrInvalidForm)

	id, err := svc.Create(context.Background(), identity.User{ID: "A"}, FormData{
		Entreprise: "Acme", PersonneRencontree: "X", DateVisite: "2026-01-01", ObjetVisite: "Demo",
		StatutVisite: StatutAFaire, Ville: "  ",
	})
	require.NoError(t, err)
	assert.Equal(t, "new-id", id)
	require.Len(t, store.visits, 1)
	assert.Equal(t, "A", store.visits[0].CommercialID)
	assert.Equal(t, ActionEnAttente, store.visits[0].StatutAction)
	assert.Nil(t, store.visits[0].Ville)
}

func TestStats(t *testing.T) {
	store := &memoryStore{visits: []*Visit{
		{CommercialID: "A", StatutVisite: StatutAFaire, StatutAction: ActionEnAttente, Montant: floatPtr(100), Probabilite: intPtr(50)},
		{CommercialID: "A", StatutVisite: StatutTermine, StatutAction: ActionAccepte, Montant: floatPtr(250.5), Probabilite: intPtr(33)},
		{CommercialID: "A", StatutVisite: StatutEnCours, StatutAction: ActionRefuse, Probabilite: intPtr(20)},
		{CommercialID: "B", StatutVisite: StatutTermine, Montant: floatPtr(9999)},
	}}
	svc := NewService(store, nil, nil)

	st, err := svc.Stats(context.Background(), identity.User{ID: "A"}, "", "")
	require.NoError(t, err)
	assert.Equal(t, 3, st.TotalVisites)
	assert.Equal(t, 1, st.VisitesAFaire)
	assert.Equal(t, 1, st.VisitesEnCours)
	assert.Equal(t, 1, st.VisitesTerminees)
	assert.Equal(t, 1, st.VisitesAcceptees)
	assert.Equal(t, 1, st.VisitesRefusees)
	assert.InDelta(t, 350.5, st.MontantTotal, 0.001)
	assert.Equal(t, 34.3, st.ProbabiliteMoyenne)
}

func TestStatsEmpty(t *testing.T) {
	st, err := NewService(&memoryStore{}, nil, nil).Stats(context.Background(), identity.User{ID: "A"}, "", "")
	require.NoError(t, err)
	assert.Equal(t, Stats{}, st)
}

func TestCheckDuplicate(t *testing.T) {
	store := &memoryStore{visits: []*Visit{{ID: "v-1", CommercialID: "A", Entreprise: "Acme", DateVisite: "2026-03-01"}}}
	svc := NewService(store, nil, nil)
	svc.now = func() time.Time { return time.Date(2026, 3, 11, 15, 0, 0, 0, time.UTC) }

	caller := identity.User{ID: "A", FirstName: "Lina", LastName: "Ayari"}
	got, err := svc.CheckDuplicate(context.Background(), caller, " Acme ")
	require.NoError(t, err)
	assert.True(t, got.Existe)
	assert.Equal(t, "v-1", *got.DerniereVisiteID)
	assert.Equal(t, "2026-03-01", *got.DerniereDate)
	assert.Equal(t, "Ayari Lina", *got.CommercialNom)
	assert.Equal(t, 10, *got.JoursDepuisVisite)

	none, err := svc.CheckDuplicate(context.Background(), caller, "Other")
	require.NoError(t, err)
	assert.False(t, none.Existe)
	assert.Nil(t, none.DerniereVisiteID)

	_, err = svc.CheckDuplicate(context.Background(), caller, "  ")
	assert.ErrorIs(t, err, ErrInvalidForm)

	nameless, err := svc.CheckDuplicate(context.Background(), identity.User{ID: "A", Email: "lina@rfid.tn"}, "Acme")
	require.NoError(t, err)
	assert.True(t, nameless.Existe)
	assert.Nil(t, nameless.CommercialNom)
}

func TestUpdateStatusAuthorization(t *testing.T) {
	store := twoCommercials()
	svc := NewService(store, nil, nil)
	accepted := ActionAccepte

	err := svc.UpdateStatus(context.Background(), identity.User{ID: "B", Role: identity.RoleCommercial}, "v-a", StatusUpdate{StatutAction: &accepted})
	assert.ErrorIs(t, err, ErrForbidden)

	err = svc.UpdateStatus(context.Background(), identity.User{ID: "C", Role: identity.RoleConsultant}, "v-a", StatusUpdate{StatutAction: &accepted})
	assert.ErrorIs(t, err, ErrForbidden)

	require.NoError(t, svc.UpdateStatus(context.Background(), identity.User{ID: "A"}, "v-a", StatusUpdate{StatutAction: &accepted}))
	require.NoError(t, svc.UpdateStatus(context.Background(), identity.User{ID: "X", Role: identity.RoleAdmin}, "v-b", StatusUpdate{StatutAction: &accepted}))
	assert.Len(t, store.updated, 2)

	bogus := StatutAction("maybe")
	assert.ErrorIs(t, svc.UpdateStatus(context.Background(), identity.User{ID: "A"}, "v-a", StatusUpdate{StatutAction: &bogus}), ErrInvalidStatus)
	assert.ErrorIs(t, svc.UpdateStatus(context.Background(), identity.User{ID: "A"}, "v-a", StatusUpdate{}), ErrInvalidStatus)
	assert.ErrorIs(t, svc.UpdateStatus(context.Background(), identity.User{ID: "A"}, "missing", StatusUpdate{StatutAction: &accepted}), ErrNotFound)
}

func TestDeleteAuthorization(t *testing.T) {
	store := twoCommercials()
	svc := NewService(store, nil, nil)

	assert.ErrorIs(t, svc.Delete(context.Background(), identity.User{ID: "B"}, "v-a"), ErrForbidden)
	require.NoError(t, svc.Delete(context.Background(), identity.User{ID: "X", Role: identity.RoleSuperieur}, "v-a"))
	assert.Equal(t, []string{"v-a"}, store.deleted)
}

func TestExportScope(t *testing.T) {
	cases := []struct {
		name       string
		caller     identity.User
		consultant string
		want       Filter
		wantErr    error
	}{
		{"commercial ignores filter", identity.User{ID: "A", Role: identity.RoleCommercial}, "B", Filter{CommercialID: "A"}, nil},
		{"consultant own", identity.User{ID: "C", Role: identity.RoleConsultant}, "", Filter{CreatedBy: "C"}, nil},
		{"consultant other", identity.User{ID: "C", Role: identity.RoleConsultant}, "D", Filter{CreatedBy: "D"}, nil},
		{"consultant all", identity.User{ID: "C", Role: identity.RoleConsultant}, "all", Filter{}, nil},
		{"admin all", identity.User{ID: "X", Role: identity.RoleAdmin}, "", Filter{}, nil},
		{"admin filtered", identity.User{ID: "X", Role: identity.RoleAdmin}, "A", Filter{CommercialID: "A"}, nil},
		{"superieur as admin", identity.User{ID: "X", Role: identity.RoleSuperieur}, "all", Filter{}, nil},
		{"no role", identity.User{ID: "N"}, "", Filter{}, identity.ErrForbidden},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ExportScope(tc.caller, tc.consultant)
			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestListForExportRedacts(t *testing.T) {
	store := twoCommercials()
	svc := NewService(store, &fakeLookup{}, nil)

	rows, err := svc.ListForExport(context.Background(), identity.User{ID: "B", Role: identity.RoleCommercial}, "")
	require.NoError(t, err)
	assert.Equal(t, Filter{CommercialID: "B"}, store.lastFilter)
	assert.Nil(t, rows[0].Montant)
}
