package rbac

import (
	"fmt"

	"github.com/opsgate/opsgate/internal/shared"
)

// Authorize is the policy decision point. It allows a call iff the caller's
// permission snapshot carries the required permission, or carries
// role:manage: holding the permission-administration capability is treated
// as holding every other capability. The rule lives here, in one place,
// rather than as an inheritance relation between permissions.
//
// A caller without any decoded credential is denied with a distinct failure
// kind before the snapshot is consulted. The function is pure: no side
// effects beyond the decision.
func Authorize(id *shared.Identity, required string) error {
	if id == nil {
		return fmt.Errorf("%w: no credential", shared.ErrUnauthenticated)
	}
	if id.HasPermission(required) || id.HasPermission(shared.PermRoleManage) {
		return nil
	}
	return fmt.Errorf("%w: requires permission %s", shared.ErrForbidden, required)
}

// CheckRoleChange enforces the standing invariants on user role mutation.
// They hold independently of whatever permission strings the caller carries:
//
//   - a caller may never change their own role reference;
//   - accounts holding the superuser role cannot have their role changed
//     through this path, on any entry point.
func CheckRoleChange(caller *shared.Identity, targetID int64, targetRoleName string) error {
	if caller == nil {
		return fmt.Errorf("%w: no credential", shared.ErrUnauthenticated)
	}
	if caller.ID == targetID {
		return fmt.Errorf("%w: cannot change your own role", shared.ErrForbidden)
	}
	if CanonicalRoleName(targetRoleName) == shared.RoleAdmin {
		return fmt.Errorf("%w: cannot change the role of a superuser account", shared.ErrForbidden)
	}
	return nil
}
