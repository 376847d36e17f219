package router

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolfman30/salestracker/internal/appointments"
	httpmiddleware "github.com/wolfman30/salestracker/internal/http/middleware"
	"github.com/wolfman30/salestracker/internal/identity"
	"github.com/wolfman30/salestracker/internal/profiles"
	"github.com/wolfman30/salestracker/internal/visits"
)

type stubAuth struct{}

func (stubAuth) Authenticate(_ context.Context, token string) (*identity.User, error) {
	if token != "good" {
		return nil, identity.ErrUnauthenticated
	}
	return &identity.User{ID: "c-1", Email: "sami@rfid.tn", Role: identity.RoleCommercial}, nil
}

type stubSignIn struct{}

func (stubSignIn) SignIn(_ context.Context, email, password string) (*identity.Session, error) {
	if password != "pw" {
		return nil, identity.ErrInvalidCredentials
	}
	return &identity.Session{AccessToken: "good", RefreshToken: "r", User: identity.User{ID: "c-1", Email: email}}, nil
}

type stubAppointments struct{}

func (stubAppointments) Create(context.Context, identity.User, appointments.FormData) (*appointments.Appointment, error) {
	return &appointments.Appointment{ID: "rdv-1"}, nil
}

func (stubAppointments) List(context.Context, identity.User, appointments.Filter) ([]*appointments.Appointment, error) {
	return []*appointments.Appointment{{ID: "rdv-1"}}, nil
}

type stubSweeper struct{ calls int }

func (s *stubSweeper) Sweep(context.Context, time.Time) (appointments.SweepResult, error) {
	s.calls++
	return appointments.SweepResult{}, nil
}

type stubProfiles struct{}

func (stubProfiles) Get(_ context.Context, id string) (*profiles.Profile, error) {
	return &profiles.Profile{ID: id, Nom: "Trabelsi", Prenom: "Sami"}, nil
}

func (stubProfiles) ListTeam(context.Context) ([]profiles.TeamMember, error) {
	return nil, nil
}

func newTestRouter(t *testing.T, loginLimit int, health func(context.Context) error) (http.Handler, *stubSweeper) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	reg := prometheus.NewRegistry()
	sweeper := &stubSweeper{}
	return New(&Config{
		Authenticator:       stubAuth{},
		AuthHandler:         identity.NewHandler(stubSignIn{}, false, nil),
		VisitsHandler:       visits.NewHandler(nil, nil),
		AppointmentsHandler: appointments.NewHandler(stubAppointments{}, sweeper, "s3cret", nil),
		ProfilesHandler:     profiles.NewHandler(stubProfiles{}, nil),
		LoginLimiter:        httpmiddleware.NewRedisLimiter(client, "test:login:", loginLimit, time.Minute),
		MetricsHandler:      promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
		CORSAllowedOrigins:  []string{"https://crm.example.tn"},
		HealthCheck:         health,
	}), sweeper
}

func serve(h http.Handler, method, target, body, token string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	if token != "" {
		req.AddCookie(&http.Cookie{Name: identity.AccessCookie, Value: token})
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestRouterHealthEndpoint(t *testing.T) {
	h, _ := newTestRouter(t, 10, nil)
	rec := serve(h, http.MethodGet, "/health", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())

	h, _ = newTestRouter(t, 10, func(context.Context) error { return errors.New("db down") })
	rec = serve(h, http.MethodGet, "/health", "", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestRouterProtectsSessionRoutes(t *testing.T) {
	h, _ := newTestRouter(t, 10, nil)

	for _, target := range []string{"/visits", "/visits/stats", "/appointments", "/profiles/me", "/team"} {
		rec := serve(h, http.MethodGet, target, "", "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code, target)
	}

	rec := serve(h, http.MethodGet, "/appointments", "", "expired")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = serve(h, http.MethodGet, "/appointments", "", "good")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "rdv-1")

	rec = serve(h, http.MethodGet, "/profiles/me", "", "good")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Trabelsi")
}

func TestRouterRemindersBypassSession(t *testing.T) {
	h, sweeper := newTestRouter(t, 10, nil)

	rec := serve(h, http.MethodPost, "/appointments/reminders?secret=nope", "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "Accès non autorisé.")

	rec = serve(h, http.MethodPost, "/appointments/reminders?secret=s3cret", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, sweeper.calls)
}

func TestRouterLoginIsRateLimited(t *testing.T) {
	h, _ := newTestRouter(t, 2, nil)
	body := `{"email":"sami@rfid.tn","password":"bad"}`

	assert.Equal(t, http.StatusUnauthorized, serve(h, http.MethodPost, "/auth/login", body, "").Code)
	assert.Equal(t, http.StatusUnauthorized, serve(h, http.MethodPost, "/auth/login", body, "").Code)
	rec := serve(h, http.MethodPost, "/auth/login", `{"email":"sami@rfid.tn","password":"pw"}`, "")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}

func TestRouterLoginSetsCookies(t *testing.T) {
	h, _ := newTestRouter(t, 10, nil)
	rec := serve(h, http.MethodPost, "/auth/login", `{"email":"sami@rfid.tn","password":"pw"}`, "")
	require.Equal(t, http.StatusOK, rec.Code)

	var names []string
	for _, c := range rec.Result().Cookies() {
		names = append(names, c.Name)
	}
	assert.ElementsMatch(t, []string{identity.AccessCookie, identity.RefreshCookie}, names)
}

func TestRouterMetricsAndCORS(t *testing.T) {
	h, _ := newTestRouter(t, 10, nil)

	rec := serve(h, http.MethodGet, "/metrics", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	req := httptest.NewRequest(http.MethodOptions, "/visits", nil)
	req.Header.Set("Origin", "https://crm.example.tn")
	req.Header.Set("Access-Control-Request-Method", "GET")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))
}
