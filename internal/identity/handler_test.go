package identity

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSignIn struct {
	session *Session
	err     error
}

func (f fakeSignIn) SignIn(ctx context.Context, email, password string) (*Session, error) {
	return f.session, f.err
}

func newTestRouter(h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Route("/auth", h.RegisterRoutes)
	return r
}

func TestLoginSetsCookies(t *testing.T) {
	h := NewHandler(fakeSignIn{session: &Session{
		AccessToken:  "acc",
		RefreshToken: "ref",
		User:         User{ID: "user-1", Email: "ines@example.com"},
	}}, true, nil)

	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(`{"email":"ines@example.com","password":"pw"}`))
	rec := httptest.NewRecorder()
	newTestRouter(h).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	cookies := map[string]*http.Cookie{}
	for _, c := range rec.Result().Cookies() {
		cookies[c.Name] = c
	}
	require.Contains(t, cookies, AccessCookie)
	require.Contains(t, cookies, RefreshCookie)
	assert.Equal(t, "acc", cookies[AccessCookie].Value)
	assert.Equal(t, 7*24*3600, cookies[AccessCookie].MaxAge)
	assert.Equal(t, 30*24*3600, cookies[RefreshCookie].MaxAge)
	assert.True(t, cookies[AccessCookie].HttpOnly)
	assert.True(t, cookies[AccessCookie].Secure)
	assert.Equal(t, http.SameSiteLaxMode, cookies[AccessCookie].SameSite)

	var body struct {
		User User `json:"user"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "user-1", body.User.ID)
}

func TestLoginMissingFields(t *testing.T) {
	h := NewHandler(fakeSignIn{}, false, nil)
	for _, payload := range []string{``, `{"email":"a@b.c"}`, `{"password":"pw"}`} {
		req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(payload))
		rec := httptest.NewRecorder()
		newTestRouter(h).ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code, payload)
	}
}

func TestLoginInvalidCredentials(t *testing.T) {
	h := NewHandler(fakeSignIn{err: ErrInvalidCredentials}, false, nil)
	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(`{"email":"a@b.c","password":"bad"}`))
	rec := httptest.NewRecorder()
	newTestRouter(h).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Empty(t, rec.Result().Cookies())
}

func TestLogoutClearsCookies(t *testing.T) {
	h := NewHandler(fakeSignIn{}, false, nil)
	req := httptest.NewRequest(http.MethodPost, "/auth/logout", nil)
	rec := httptest.NewRecorder()
	newTestRouter(h).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	cleared := 0
	for _, c := range rec.Result().Cookies() {
		if c.Name == AccessCookie || c.Name == RefreshCookie {
			assert.True(t, c.MaxAge < 0)
			cleared++
		}
	}
	assert.Equal(t, 2, cleared)
}
