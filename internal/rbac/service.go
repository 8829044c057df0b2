package rbac

import (
	"context"
	"fmt"
	"strconv"

	"github.com/opsgate/opsgate/internal/platform/db"
	"github.com/opsgate/opsgate/internal/shared"
)

// Service orchestrates role-permission graph operations.
type Service struct {
	repo  Repository
	audit *shared.AuditLogger
}

// NewService constructs a Service.
func NewService(repo Repository, audit *shared.AuditLogger) *Service {
	return &Service{repo: repo, audit: audit}
}

// ListRoles returns all roles with their resolved grant sets, in creation order.
func (s *Service) ListRoles(ctx context.Context) ([]RoleWithGrants, error) {
	roles, err := s.repo.ListRoles(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]RoleWithGrants, 0, len(roles))
	for _, role := range roles {
		perms, err := s.repo.RolePermissions(ctx, role.ID)
		if err != nil {
			return nil, err
		}
		out = append(out, RoleWithGrants{Role: role, Permissions: perms})
	}
	return out, nil
}

// CreateRole creates a new role under its canonical name.
func (s *Service) CreateRole(ctx context.Context, name string) (Role, error) {
	canonical := CanonicalRoleName(name)
	if canonical == "" {
		return Role{}, fmt.Errorf("%w: role name required", shared.ErrValidation)
	}
	role, err := s.repo.CreateRole(ctx, canonical)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return Role{}, fmt.Errorf("%w: role %s already exists", shared.ErrConflict, canonical)
		}
		return Role{}, err
	}
	s.record(ctx, "role.create", "role", role.ID, map[string]any{"name": role.Name})
	return role, nil
}

// DeleteRole removes a role. System default roles are immutable; roles still
// referenced by users cannot be removed. Grant rows cascade with the role.
func (s *Service) DeleteRole(ctx context.Context, id int64) error {
	role, err := s.repo.GetRole(ctx, id)
	if err != nil {
		return err
	}
	if IsSystemRole(role.Name) {
		return fmt.Errorf("%w: system role %s cannot be deleted", shared.ErrForbidden, role.Name)
	}
	count, err := s.repo.CountUsersWithRole(ctx, role.Name)
	if err != nil {
		return err
	}
	if count > 0 {
		return fmt.Errorf("%w: role %s is referenced by %d user(s)", shared.ErrConflict, role.Name, count)
	}
	if err := s.repo.DeleteRole(ctx, id); err != nil {
		// A user assigned between the count and the delete trips the
		// users.role_name foreign key; that is still a reference conflict.
		if db.IsForeignKeyViolation(err) {
			return fmt.Errorf("%w: role %s is referenced by existing users", shared.ErrConflict, role.Name)
		}
		return err
	}
	s.record(ctx, "role.delete", "role", id, map[string]any{"name": role.Name})
	return nil
}

// ListPermissions returns the permission registry.
func (s *Service) ListPermissions(ctx context.Context) ([]Permission, error) {
	return s.repo.ListPermissions(ctx)
}

// CreatePermission inserts a permission. The registry is closed: names
// outside the catalog are rejected, so this only restores seeded entries.
func (s *Service) CreatePermission(ctx context.Context, name, description string) (Permission, error) {
	if !shared.InCatalog(name) {
		return Permission{}, fmt.Errorf("%w: permission %s is not in the catalog", shared.ErrValidation, name)
	}
	perm, err := s.repo.CreatePermission(ctx, name, description)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return Permission{}, fmt.Errorf("%w: permission %s already exists", shared.ErrConflict, name)
		}
		return Permission{}, err
	}
	s.record(ctx, "permission.create", "permission", perm.ID, map[string]any{"name": perm.Name})
	return perm, nil
}

// DeletePermission removes a permission from the registry.
func (s *Service) DeletePermission(ctx context.Context, id int64) error {
	if err := s.repo.DeletePermission(ctx, id); err != nil {
		return err
	}
	s.record(ctx, "permission.delete", "permission", id, nil)
	return nil
}

// TogglePermission enables or disables a grant. Enabling an existing grant is
// a no-op success; disabling an absent grant is NotFound. Returns whether the
// graph actually changed.
func (s *Service) TogglePermission(ctx context.Context, roleID, permissionID int64, enable bool) (bool, error) {
	role, err := s.repo.GetRole(ctx, roleID)
	if err != nil {
		return false, err
	}
	perm, err := s.repo.GetPermission(ctx, permissionID)
	if err != nil {
		return false, err
	}
	var changed bool
	if enable {
		changed, err = s.repo.InsertGrant(ctx, roleID, permissionID)
	} else {
		changed, err = s.repo.DeleteGrant(ctx, roleID, permissionID)
		if err == nil && !changed {
			return false, fmt.Errorf("%w: role %s does not hold %s", shared.ErrNotFound, role.Name, perm.Name)
		}
	}
	if err != nil {
		return false, err
	}
	if changed {
		s.record(ctx, "grant.toggle", "role", roleID, map[string]any{
			"role":       role.Name,
			"permission": perm.Name,
			"enable":     enable,
		})
	}
	return changed, nil
}

// ResolvePermissions resolves the permission snapshot for a role. The
// superuser role resolves to the entire catalog regardless of explicit grants.
func (s *Service) ResolvePermissions(ctx context.Context, roleName string) ([]string, error) {
	canonical := CanonicalRoleName(roleName)
	if canonical == shared.RoleAdmin {
		return shared.PermissionCatalog(), nil
	}
	if _, err := s.repo.GetRoleByName(ctx, canonical); err != nil {
		return nil, fmt.Errorf("%w: role %s", shared.ErrNotFound, canonical)
	}
	return s.repo.RolePermissionNames(ctx, canonical)
}

// TestPermission reports whether a role resolves to the named permission.
func (s *Service) TestPermission(ctx context.Context, roleName, permName string) (bool, error) {
	names, err := s.ResolvePermissions(ctx, roleName)
	if err != nil {
		return false, err
	}
	for _, n := range names {
		if n == permName {
			return true, nil
		}
	}
	return false, nil
}

func (s *Service) record(ctx context.Context, action, entity string, entityID int64, meta map[string]any) {
	if s.audit == nil {
		return
	}
	var actor int64
	if id := shared.IdentityFromContext(ctx); id != nil {
		actor = id.ID
	}
	s.audit.Write(ctx, shared.AuditLog{
		ActorID:  actor,
		Action:   action,
		Entity:   entity,
		EntityID: strconv.FormatInt(entityID, 10),
		Meta:     meta,
	})
}
