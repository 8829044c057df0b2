package users

import (
	"context"
	"fmt"
	"strconv"

	"github.com/opsgate/opsgate/internal/platform/db"
	"github.com/opsgate/opsgate/internal/rbac"
	"github.com/opsgate/opsgate/internal/shared"
)

// Service handles user management rules.
type Service struct {
	repo  Repository
	audit *shared.AuditLogger
}

// NewService builds Service instance.
func NewService(repo Repository, audit *shared.AuditLogger) *Service {
	return &Service{repo: repo, audit: audit}
}

// ListUsers returns all users.
func (s *Service) ListUsers(ctx context.Context) ([]User, error) {
	return s.repo.ListUsers(ctx)
}

// UpdateRole changes the target user's role reference. The standing gate
// invariants apply before any permission string is considered: a caller can
// never change their own role, and accounts holding the superuser role are
// never mutated through this path.
func (s *Service) UpdateRole(ctx context.Context, targetID int64, newRoleName string) (User, error) {
	caller := shared.IdentityFromContext(ctx)
	target, err := s.repo.GetUser(ctx, targetID)
	if err != nil {
		return User{}, err
	}
	if err := rbac.CheckRoleChange(caller, targetID, target.RoleName); err != nil {
		return User{}, err
	}
	canonical := rbac.CanonicalRoleName(newRoleName)
	if canonical == "" {
		return User{}, fmt.Errorf("%w: role name required", shared.ErrValidation)
	}
	updated, err := s.repo.UpdateUserRole(ctx, targetID, canonical)
	if err != nil {
		if db.IsForeignKeyViolation(err) {
			return User{}, fmt.Errorf("%w: role %s", shared.ErrNotFound, canonical)
		}
		return User{}, err
	}
	if s.audit != nil {
		s.audit.Write(ctx, shared.AuditLog{
			ActorID:  caller.ID,
			Action:   "user.role_change",
			Entity:   "user",
			EntityID: strconv.FormatInt(targetID, 10),
			Meta:     map[string]any{"from": target.RoleName, "to": canonical},
		})
	}
	return updated, nil
}
