package router

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/wolfman30/salestracker/internal/appointments"
	httpmiddleware "github.com/wolfman30/salestracker/internal/http/middleware"
	"github.com/wolfman30/salestracker/internal/httpx"
	"github.com/wolfman30/salestracker/internal/identity"
	"github.com/wolfman30/salestracker/internal/profiles"
	"github.com/wolfman30/salestracker/internal/visits"
	"github.com/wolfman30/salestracker/pkg/logging"
)

// Config holds router configuration
type Config struct {
	Logger              *logging.Logger
	Authenticator       httpmiddleware.Authenticator
	AuthHandler         *identity.Handler
	VisitsHandler       *visits.Handler
	AppointmentsHandler *appointments.Handler
	ProfilesHandler     *profiles.Handler
	LoginLimiter        *httpmiddleware.RedisLimiter
	MetricsHandler      http.Handler
	CORSAllowedOrigins  []string

	// HealthCheck reports backend reachability on /health (optional).
	HealthCheck func(ctx context.Context) error
}

// New creates a new Chi router with all routes configured
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}
	r.Use(httpmiddleware.RequestLogger(cfg.Logger))

	// Public endpoints
	r.Group(func(public chi.Router) {
		public.Get("/health", healthHandler(cfg.HealthCheck))
		if cfg.MetricsHandler != nil {
			public.Handle("/metrics", cfg.MetricsHandler)
		}
		if cfg.AuthHandler != nil {
			public.Route("/auth", func(auth chi.Router) {
				auth.Use(httpmiddleware.RateLimit(cfg.LoginLimiter, cfg.Logger))
				cfg.AuthHandler.RegisterRoutes(auth)
			})
		}
		// Cron trigger, guarded by its shared secret instead of a session.
		if cfg.AppointmentsHandler != nil {
			cfg.AppointmentsHandler.RegisterReminderRoutes(public)
		}
	})

	// Session-protected API
	if cfg.Authenticator != nil {
		r.Group(func(api chi.Router) {
			api.Use(httpmiddleware.SessionAuth(cfg.Authenticator, cfg.Logger))
			if cfg.VisitsHandler != nil {
				cfg.VisitsHandler.RegisterRoutes(api)
			}
			if cfg.AppointmentsHandler != nil {
				cfg.AppointmentsHandler.RegisterRoutes(api)
			}
			if cfg.ProfilesHandler != nil {
				cfg.ProfilesHandler.RegisterRoutes(api)
			}
		})
	}

	return r
}

func healthHandler(check func(ctx context.Context) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if check != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := check(ctx); err != nil {
				httpx.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded"})
				return
			}
		}
		httpx.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
