package shared

// Permission catalog. The registry is closed: it is seeded once and the
// runtime never invents new permission strings.
const (
	PermUserRead   = "user:read"
	PermUserUpdate = "user:update"

	PermRoleRead   = "role:read"
	PermRoleManage = "role:manage"

	PermPermissionRead = "permission:read"

	PermSQLExecute = "sql:execute"

	PermEndpointManage = "endpoint:manage"

	PermAuditRead = "audit:read"
)

// System default roles. Both are immutable identities: they can be neither
// renamed nor deleted.
const (
	// RoleAdmin is the superuser role; it resolves to the entire permission
	// catalog regardless of explicit grants.
	RoleAdmin = "ADMIN"
	// RoleUser is the baseline role; it holds no elevated permission by default.
	RoleUser = "USER"
)

// PermissionCatalog lists every permission the system recognises.
func PermissionCatalog() []string {
	return []string{
		PermUserRead,
		PermUserUpdate,
		PermRoleRead,
		PermRoleManage,
		PermPermissionRead,
		PermSQLExecute,
		PermEndpointManage,
		PermAuditRead,
	}
}

// InCatalog reports whether name is a recognised permission.
func InCatalog(name string) bool {
	for _, p := range PermissionCatalog() {
		if p == name {
			return true
		}
	}
	return false
}
