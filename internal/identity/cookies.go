package identity

import (
	"net/http"
	"time"
)

const (
	AccessCookie  = "sb-access-token"
	RefreshCookie = "sb-refresh-token"

	accessCookieTTL  = 7 * 24 * time.Hour
	refreshCookieTTL = 30 * 24 * time.Hour
)

// SetSessionCookies stores the token pair as HttpOnly cookies.
func SetSessionCookies(w http.ResponseWriter, s *Session, secure bool) {
	http.SetCookie(w, sessionCookie(AccessCookie, s.AccessToken, accessCookieTTL, secure))
	http.SetCookie(w, sessionCookie(RefreshCookie, s.RefreshToken, refreshCookieTTL, secure))
}

// ClearSessionCookies expires both session cookies.
func ClearSessionCookies(w http.ResponseWriter, secure bool) {
	for _, name := range []string{AccessCookie, RefreshCookie} {
		c := sessionCookie(name, "", 0, secure)
		c.MaxAge = -1
		c.Expires = time.Unix(0, 0)
		http.SetCookie(w, c)
	}
}

// AccessToken reads the access token cookie from r.
func AccessToken(r *http.Request) string {
	c, err := r.Cookie(AccessCookie)
	if err != nil {
		return ""
	}
	return c.Value
}

func sessionCookie(name, value string, ttl time.Duration, secure bool) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
}
