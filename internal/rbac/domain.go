package rbac

import (
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/opsgate/opsgate/internal/shared"
)

// Role represents a named bundle of permissions.
type Role struct {
	ID        int64
	Name      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Permission represents an atomic capability.
type Permission struct {
	ID          int64
	Name        string
	Description string
}

// RoleWithGrants is a role together with its resolved grant set.
type RoleWithGrants struct {
	Role
	Permissions []Permission
}

var roleCaser = cases.Upper(language.Und)

// CanonicalRoleName normalises a role name to its canonical uppercase form.
// Role uniqueness is case-insensitive.
func CanonicalRoleName(name string) string {
	return roleCaser.String(strings.TrimSpace(name))
}

// IsSystemRole reports whether name identifies one of the two immutable
// system default roles.
func IsSystemRole(name string) bool {
	canonical := CanonicalRoleName(name)
	return canonical == shared.RoleAdmin || canonical == shared.RoleUser
}
