package auth

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/opsgate/opsgate/internal/shared"
	"github.com/opsgate/opsgate/internal/token"
)

type stubRepo struct {
	byEmail map[string]*User
	byID    map[int64]*User
	nextID  int64
}

func newStubRepo() *stubRepo {
	return &stubRepo{byEmail: map[string]*User{}, byID: map[int64]*User{}, nextID: 1}
}

func (s *stubRepo) FindByEmail(ctx context.Context, email string) (*User, error) {
	u, ok := s.byEmail[email]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return u, nil
}

func (s *stubRepo) FindByID(ctx context.Context, id int64) (*User, error) {
	u, ok := s.byID[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return u, nil
}

func (s *stubRepo) CountUsers(ctx context.Context) (int64, error) {
	return int64(len(s.byID)), nil
}

func (s *stubRepo) CreateUser(ctx context.Context, email, name, passwordHash, roleName string) (*User, error) {
	if _, ok := s.byEmail[email]; ok {
		return nil, fmt.Errorf("%w: email taken", shared.ErrConflict)
	}
	u := &User{ID: s.nextID, Email: email, Name: name, PasswordHash: passwordHash, RoleName: roleName, CreatedAt: time.Now()}
	s.nextID++
	s.byEmail[email] = u
	s.byID[u.ID] = u
	return u, nil
}

type stubResolver struct {
	grants map[string][]string
}

func (s *stubResolver) ResolvePermissions(ctx context.Context, roleName string) ([]string, error) {
	if roleName == shared.RoleAdmin {
		return shared.PermissionCatalog(), nil
	}
	return s.grants[roleName], nil
}

func newTestService() (*Service, *stubRepo, *stubResolver) {
	repo := newStubRepo()
	resolver := &stubResolver{grants: map[string][]string{}}
	issuer := token.NewManager("test-secret", time.Hour)
	return NewService(repo, issuer, resolver), repo, resolver
}

func TestRegisterFirstUserBecomesSuperuser(t *testing.T) {
	svc, _, _ := newTestService()

	first, err := svc.Register(context.Background(), "Root@Opsgate.Local", "Root", "password123")
	require.NoError(t, err)
	assert.Equal(t, shared.RoleAdmin, first.User.RoleName)
	assert.Equal(t, "root@opsgate.local", first.User.Email, "email is normalised")
	assert.ElementsMatch(t, shared.PermissionCatalog(), first.Permissions)

	second, err := svc.Register(context.Background(), "op@opsgate.local", "Op", "password123")
	require.NoError(t, err)
	assert.Equal(t, shared.RoleUser, second.User.RoleName)
	assert.Empty(t, second.Permissions)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc, _, _ := newTestService()
	_, err := svc.Register(context.Background(), "root@opsgate.local", "", "password123")
	require.NoError(t, err)

	_, err = svc.Register(context.Background(), "root@opsgate.local", "", "password123")
	require.Error(t, err)
	assert.True(t, errors.Is(err, shared.ErrConflict))
	assert.Contains(t, err.Error(), "root@opsgate.local", "the conflicting value is named")
}

func TestRegisterHashesPassword(t *testing.T) {
	svc, repo, _ := newTestService()
	_, err := svc.Register(context.Background(), "root@opsgate.local", "", "password123")
	require.NoError(t, err)

	stored := repo.byEmail["root@opsgate.local"]
	assert.NotEqual(t, "password123", stored.PasswordHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("password123")))
}

func TestAuthenticate(t *testing.T) {
	svc, _, _ := newTestService()
	_, err := svc.Register(context.Background(), "root@opsgate.local", "", "password123")
	require.NoError(t, err)

	account, bearer, err := svc.Authenticate(context.Background(), "root@opsgate.local", "password123")
	require.NoError(t, err)
	assert.NotEmpty(t, bearer)
	assert.Equal(t, shared.RoleAdmin, account.User.RoleName)

	verifier := token.NewManager("test-secret", time.Hour)
	identity, err := verifier.Verify(bearer)
	require.NoError(t, err)
	assert.Equal(t, account.User.ID, identity.ID)
	assert.ElementsMatch(t, shared.PermissionCatalog(), identity.Permissions)
}

func TestAuthenticateWrongPassword(t *testing.T) {
	svc, _, _ := newTestService()
	_, err := svc.Register(context.Background(), "root@opsgate.local", "", "password123")
	require.NoError(t, err)

	_, _, err = svc.Authenticate(context.Background(), "root@opsgate.local", "wrong")
	assert.True(t, errors.Is(err, shared.ErrInvalidCredentials))

	_, _, err = svc.Authenticate(context.Background(), "ghost@opsgate.local", "password123")
	assert.True(t, errors.Is(err, shared.ErrInvalidCredentials), "unknown email and bad password are indistinguishable")
}

func TestSnapshotIsPointInTime(t *testing.T) {
	svc, _, resolver := newTestService()
	_, err := svc.Register(context.Background(), "root@opsgate.local", "", "password123")
	require.NoError(t, err)
	op, err := svc.Register(context.Background(), "op@opsgate.local", "", "password123")
	require.NoError(t, err)
	require.Equal(t, shared.RoleUser, op.User.RoleName)

	_, bearer, err := svc.Authenticate(context.Background(), "op@opsgate.local", "password123")
	require.NoError(t, err)

	// An administrator grants the baseline role a permission after issue.
	resolver.grants[shared.RoleUser] = []string{shared.PermUserRead}

	verifier := token.NewManager("test-secret", time.Hour)
	identity, err := verifier.Verify(bearer)
	require.NoError(t, err)
	assert.Empty(t, identity.Permissions, "an already-issued credential keeps its snapshot until reissued")

	// A reissued credential carries the new snapshot.
	_, bearer2, err := svc.Authenticate(context.Background(), "op@opsgate.local", "password123")
	require.NoError(t, err)
	identity2, err := verifier.Verify(bearer2)
	require.NoError(t, err)
	assert.Equal(t, []string{shared.PermUserRead}, identity2.Permissions)
}

func TestMe(t *testing.T) {
	svc, _, _ := newTestService()
	account, err := svc.Register(context.Background(), "root@opsgate.local", "", "password123")
	require.NoError(t, err)

	me, err := svc.Me(context.Background(), &shared.Identity{ID: account.User.ID})
	require.NoError(t, err)
	assert.Equal(t, "root@opsgate.local", me.User.Email)

	_, err = svc.Me(context.Background(), &shared.Identity{ID: 999})
	assert.True(t, errors.Is(err, shared.ErrUnauthenticated), "a deleted account's token no longer authenticates")

	_, err = svc.Me(context.Background(), nil)
	assert.True(t, errors.Is(err, shared.ErrUnauthenticated))
}
