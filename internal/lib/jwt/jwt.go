// Package jwt issues and parses the signed session tokens: a short-lived
// access token carrying identity and role, and a longer-lived refresh token
// used only to mint new access tokens. Both are signed, not encrypted.
package jwt

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"chat_backend/internal/models"
)

var (
	ErrInvalid = errors.New("invalid token")
	ErrExpired = errors.New("token expired")
)

type Claims struct {
	Email   string `json:"email"`
	Role    string `json:"role,omitempty"`
	Refresh bool   `json:"refresh"`
	jwt.RegisteredClaims
}

type Manager struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
}

func NewManager(secret string, accessTTL, refreshTTL time.Duration) *Manager {
	return &Manager{
		secret:     []byte(secret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
	}
}

// NewAccessToken mints an access token for the user. The jti claim is a
// fresh UUID per issuance and is the key under which the token can later be
// revoked.
func (m *Manager) NewAccessToken(user models.User) (string, error) {
	return m.newToken(user, user.Role, false, m.accessTTL)
}

// NewRefreshToken mints a refresh token. Role is deliberately omitted: the
// role is re-read from the user store when the token is exchanged.
func (m *Manager) NewRefreshToken(user models.User) (string, error) {
	return m.newToken(user, "", true, m.refreshTTL)
}

func (m *Manager) newToken(user models.User, role string, refresh bool, ttl time.Duration) (string, error) {
	now := time.Now()

	claims := Claims{
		Email:   user.Email,
		Role:    role,
		Refresh: refresh,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.UID.String(),
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	return token.SignedString(m.secret)
}

// Parse verifies signature and expiry and returns the claims. It fails with
// ErrExpired only when the token is well-formed, correctly signed and past
// its exp; every other fault is ErrInvalid.
func (m *Manager) Parse(tokenStr string) (*Claims, error) {
	var claims Claims

	token, err := jwt.ParseWithClaims(tokenStr, &claims, func(t *jwt.Token) (interface{}, error) {
		return m.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpired
		}

		return nil, ErrInvalid
	}

	if !token.Valid {
		return nil, ErrInvalid
	}

	if claims.ExpiresAt == nil || claims.ID == "" {
		return nil, ErrInvalid
	}

	return &claims, nil
}
