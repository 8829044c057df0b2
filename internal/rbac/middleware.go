package rbac

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/opsgate/opsgate/internal/observability"
	"github.com/opsgate/opsgate/internal/platform/httpx"
	"github.com/opsgate/opsgate/internal/shared"
)

// PermissionResolver resolves the current permission set for a role.
type PermissionResolver interface {
	ResolvePermissions(ctx context.Context, roleName string) ([]string, error)
}

// Middleware wires the authorization gate into HTTP handlers.
type Middleware struct {
	Logger   *slog.Logger
	Mode     string
	Resolver PermissionResolver
	Metrics  *observability.Metrics
}

// Require gates a route on a single permission from the registry. In live
// mode the credential's embedded snapshot is replaced by a fresh resolution
// from the graph before the gate runs; in snapshot mode the embedded copy is
// authoritative until the credential is reissued.
func (m Middleware) Require(perm string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity := shared.IdentityFromContext(r.Context())
			if identity != nil && m.Mode == shared.PermissionModeLive && m.Resolver != nil {
				perms, err := m.Resolver.ResolvePermissions(r.Context(), identity.RoleName)
				if err != nil {
					if m.Logger != nil {
						m.Logger.Error("resolve permissions", slog.String("role", identity.RoleName), slog.Any("error", err))
					}
					httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
					return
				}
				identity = identity.WithPermissions(perms)
			}
			if err := Authorize(identity, perm); err != nil {
				m.Metrics.AuthzDenied(perm)
				httpx.RespondError(w, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(shared.ContextWithIdentity(r.Context(), identity)))
		})
	}
}
