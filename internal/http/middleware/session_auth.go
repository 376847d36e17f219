package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/wolfman30/salestracker/internal/httpx"
	"github.com/wolfman30/salestracker/internal/identity"
	"github.com/wolfman30/salestracker/pkg/logging"
)

// Authenticator resolves an access token into the calling user.
type Authenticator interface {
	Authenticate(ctx context.Context, accessToken string) (*identity.User, error)
}

// SessionAuth requires a valid session and stores the caller in the request
// context. The token comes from the access cookie, or a Bearer header for
// non-browser clients.
func SessionAuth(auth Authenticator, logger *logging.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := identity.AccessToken(r)
			if token == "" {
				if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
					token = strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
				}
			}
			if token == "" {
				httpx.WriteError(w, http.StatusUnauthorized, "Utilisateur non authentifié.")
				return
			}

			user, err := auth.Authenticate(r.Context(), token)
			switch {
			case errors.Is(err, identity.ErrUnauthenticated):
				httpx.WriteError(w, http.StatusUnauthorized, "Impossible de récupérer l'utilisateur courant.")
				return
			case err != nil:
				logger.Error("session lookup failed", "path", r.URL.Path, "error", err)
				httpx.WriteError(w, http.StatusInternalServerError, "Erreur interne du serveur.")
				return
			}

			next.ServeHTTP(w, r.WithContext(identity.WithUser(r.Context(), user)))
		})
	}
}
