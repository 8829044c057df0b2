// Package token issues and verifies the signed bearer credential carrying a
// caller's identity and permission snapshot.
package token

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/opsgate/opsgate/internal/shared"
)

// Manager signs and verifies HS256 bearer tokens.
type Manager struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewManager constructs a Manager with the given signing secret and token TTL.
func NewManager(secret string, ttl time.Duration) *Manager {
	return &Manager{secret: []byte(secret), ttl: ttl, now: time.Now}
}

type tokenClaims struct {
	jwt.RegisteredClaims
	Email       string   `json:"email,omitempty"`
	RoleName    string   `json:"role_name,omitempty"`
	Permissions []string `json:"permissions,omitempty"`
}

// Issue creates a signed credential embedding the identity's permission
// snapshot. The snapshot is a point-in-time copy: later grant changes do not
// affect tokens already issued.
func (m *Manager) Issue(id *shared.Identity) (string, error) {
	if id == nil {
		return "", errors.New("token: identity required")
	}
	now := m.now()
	claims := &tokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(id.ID, 10),
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
		Email:       id.Email,
		RoleName:    id.RoleName,
		Permissions: id.Permissions,
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("token: sign: %w", err)
	}
	return signed, nil
}

// Verify decodes a credential. Missing, malformed and expired tokens all
// surface as ErrUnauthenticated.
func (m *Manager) Verify(raw string) (*shared.Identity, error) {
	if raw == "" {
		return nil, fmt.Errorf("%w: missing token", shared.ErrUnauthenticated)
	}
	parsed, err := jwt.ParseWithClaims(raw, &tokenClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return m.secret, nil
	}, jwt.WithTimeFunc(m.now))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, fmt.Errorf("%w: token expired", shared.ErrUnauthenticated)
		}
		return nil, fmt.Errorf("%w: invalid token", shared.ErrUnauthenticated)
	}
	claims, ok := parsed.Claims.(*tokenClaims)
	if !ok || !parsed.Valid {
		return nil, fmt.Errorf("%w: invalid token claims", shared.ErrUnauthenticated)
	}
	subject, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid subject", shared.ErrUnauthenticated)
	}
	id := &shared.Identity{
		ID:          subject,
		Email:       claims.Email,
		RoleName:    claims.RoleName,
		Permissions: claims.Permissions,
		TokenID:     claims.ID,
	}
	if claims.ExpiresAt != nil {
		id.ExpiresAt = claims.ExpiresAt.Time
	}
	return id, nil
}
