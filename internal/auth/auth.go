// Package auth turns session tokens into the authenticated actor id.
// Issuing accounts and credentials belongs to the identity service; this package only
// signs and verifies the HS256 bearer tokens that carry the user id in "sub".
package auth

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrMissingToken = errors.New("missing or invalid authorization header")
	ErrInvalidToken = errors.New("invalid token")
)

// Manager signs and verifies session tokens.
type Manager struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewManager creates a Manager signing HS256 tokens valid for ttl.
func NewManager(secret string, ttl time.Duration) *Manager {
	return &Manager{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Issue returns a signed token whose subject is userID.
func (m *Manager) Issue(userID uint64) (string, error) {
	now := m.now()
	claims := jwt.RegisteredClaims{
		Subject:   strconv.FormatUint(userID, 10),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return token, nil
}

// Parse verifies a token and returns the user id it was issued for.
func (m *Manager) Parse(token string) (uint64, error) {
	claims := &jwt.RegisteredClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		return m.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(m.now))
	if err != nil || !parsed.Valid {
		return 0, ErrInvalidToken
	}

	id, err := strconv.ParseUint(claims.Subject, 10, 64)
	if err != nil || id == 0 {
		return 0, ErrInvalidToken
	}
	return id, nil
}

// ParseBearer accepts an "Authorization" header value ("Bearer <jwt>").
func (m *Manager) ParseBearer(header string) (uint64, error) {
	if header == "" || !strings.HasPrefix(header, "Bearer ") {
		return 0, ErrMissingToken
	}
	return m.Parse(strings.TrimSpace(strings.TrimPrefix(header, "Bearer ")))
}

type actorKey struct{}

// WithActor stores the authenticated actor id on ctx.
func WithActor(ctx context.Context, userID uint64) context.Context {
	return context.WithValue(ctx, actorKey{}, userID)
}

// ActorFromContext returns the authenticated actor id placed by the transport.
func ActorFromContext(ctx context.Context) (uint64, bool) {
	id, ok := ctx.Value(actorKey{}).(uint64)
	return id, ok && id > 0
}
