package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/opsgate/opsgate/internal/platform/db"
	"github.com/opsgate/opsgate/internal/shared"
)

// TokenIssuer signs an identity into a bearer credential.
type TokenIssuer interface {
	Issue(id *shared.Identity) (string, error)
}

// PermissionResolver resolves the permission snapshot for a role at issue time.
type PermissionResolver interface {
	ResolvePermissions(ctx context.Context, roleName string) ([]string, error)
}

// Service wraps authentication business rules.
type Service struct {
	repo     Repository
	issuer   TokenIssuer
	resolver PermissionResolver
}

// NewService constructs a new Service.
func NewService(repo Repository, issuer TokenIssuer, resolver PermissionResolver) *Service {
	return &Service{repo: repo, issuer: issuer, resolver: resolver}
}

// Account is a user together with the resolved permission snapshot.
type Account struct {
	User        *User
	Permissions []string
}

// Register creates an account. The very first account becomes the superuser;
// every later one starts with the baseline role.
func (s *Service) Register(ctx context.Context, email, name, password string) (*Account, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, fmt.Errorf("%w: email and password are required", shared.ErrValidation)
	}
	count, err := s.repo.CountUsers(ctx)
	if err != nil {
		return nil, err
	}
	roleName := shared.RoleUser
	if count == 0 {
		roleName = shared.RoleAdmin
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	user, err := s.repo.CreateUser(ctx, email, strings.TrimSpace(name), string(hash), roleName)
	if err != nil {
		if db.IsUniqueViolation(err) || errors.Is(err, shared.ErrConflict) {
			return nil, fmt.Errorf("%w: email %s already registered", shared.ErrConflict, email)
		}
		return nil, err
	}
	return s.withPermissions(ctx, user)
}

// Authenticate validates email/password credentials and issues a bearer
// credential embedding the permission snapshot resolved at this moment. The
// snapshot is a point-in-time copy; concurrent grant changes do not affect
// tokens already issued.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*Account, string, error) {
	user, err := s.repo.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return nil, "", shared.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, "", shared.ErrInvalidCredentials
	}
	account, err := s.withPermissions(ctx, user)
	if err != nil {
		return nil, "", err
	}
	token, err := s.issuer.Issue(&shared.Identity{
		ID:          user.ID,
		Email:       user.Email,
		RoleName:    user.RoleName,
		Permissions: account.Permissions,
	})
	if err != nil {
		return nil, "", err
	}
	return account, token, nil
}

// Me re-reads the caller's account with the current permission resolution.
func (s *Service) Me(ctx context.Context, id *shared.Identity) (*Account, error) {
	if id == nil {
		return nil, fmt.Errorf("%w: no credential", shared.ErrUnauthenticated)
	}
	user, err := s.repo.FindByID(ctx, id.ID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, fmt.Errorf("%w: account no longer exists", shared.ErrUnauthenticated)
		}
		return nil, err
	}
	return s.withPermissions(ctx, user)
}

func (s *Service) withPermissions(ctx context.Context, user *User) (*Account, error) {
	perms, err := s.resolver.ResolvePermissions(ctx, user.RoleName)
	if err != nil {
		return nil, err
	}
	if perms == nil {
		perms = []string{}
	}
	return &Account{User: user, Permissions: perms}, nil
}
