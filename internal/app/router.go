package app

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"

	"github.com/opsgate/opsgate/internal/audit"
	"github.com/opsgate/opsgate/internal/auth"
	"github.com/opsgate/opsgate/internal/endpoints"
	"github.com/opsgate/opsgate/internal/observability"
	"github.com/opsgate/opsgate/internal/rbac"
	"github.com/opsgate/opsgate/internal/sqlexec"
	"github.com/opsgate/opsgate/internal/token"
	"github.com/opsgate/opsgate/internal/users"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger           *slog.Logger
	Config           *Config
	TokenManager     *token.Manager
	AuthHandler      *auth.Handler
	UsersHandler     *users.Handler
	RBACHandler      *rbac.Handler
	SQLHandler       *sqlexec.Handler
	EndpointsHandler *endpoints.Handler
	AuditHandler     *audit.Handler
	Metrics          *observability.Metrics
}

// NewRouter constructs the chi.Router with Opsgate defaults. Auth routes are
// public behind a tight per-IP throttle; everything under /api requires a
// verified credential.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	r.Route("/auth", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(httprate.Limit(30, time.Minute, httprate.WithKeyFuncs(httprate.KeyByIP)))
			params.AuthHandler.MountRoutes(r)
		})
		r.Group(func(r chi.Router) {
			r.Use(token.Authenticator(params.TokenManager))
			params.AuthHandler.MountProtectedRoutes(r)
		})
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(token.Authenticator(params.TokenManager))
		if params.UsersHandler != nil {
			r.Route("/users", params.UsersHandler.MountRoutes)
		}
		if params.RBACHandler != nil {
			params.RBACHandler.MountRoutes(r)
		}
		if params.SQLHandler != nil {
			r.Route("/sql", params.SQLHandler.MountRoutes)
		}
		if params.EndpointsHandler != nil {
			params.EndpointsHandler.MountRoutes(r)
		}
		if params.AuditHandler != nil {
			params.AuditHandler.MountRoutes(r)
		}
	})

	return r
}
