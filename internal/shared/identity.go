package shared

import (
	"context"
	"time"
)

// Permission resolution modes. In snapshot mode the gate trusts the
// permission set embedded in the bearer credential; in live mode the set is
// re-resolved from the role-permission graph on every request. Exactly one
// mode is active at a time; the two are never blended.
const (
	PermissionModeSnapshot = "snapshot"
	PermissionModeLive     = "live"
)

// Identity describes the authenticated caller as decoded from a bearer
// credential. Permissions is the point-in-time snapshot embedded at issue
// time; it does not track later grant changes unless the credential is
// reissued (or the live permission mode is active).
type Identity struct {
	ID          int64
	Email       string
	RoleName    string
	Permissions []string
	TokenID     string
	ExpiresAt   time.Time
}

// HasPermission reports whether the snapshot carries the named permission.
func (id *Identity) HasPermission(name string) bool {
	if id == nil {
		return false
	}
	for _, p := range id.Permissions {
		if p == name {
			return true
		}
	}
	return false
}

// WithPermissions returns a copy of the identity carrying the given snapshot.
func (id *Identity) WithPermissions(perms []string) *Identity {
	if id == nil {
		return nil
	}
	clone := *id
	clone.Permissions = append([]string(nil), perms...)
	return &clone
}

type identityContextKey struct{}

// ContextWithIdentity stores the caller identity in context.
func ContextWithIdentity(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, identityContextKey{}, id)
}

// IdentityFromContext extracts the caller identity from context.
func IdentityFromContext(ctx context.Context) *Identity {
	id, _ := ctx.Value(identityContextKey{}).(*Identity)
	return id
}
