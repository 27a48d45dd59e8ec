package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims is the payload of a session token.
type Claims struct {
	AccountID string `json:"id"`
	Email     string `json:"email"`
	jwt.RegisteredClaims
}

// TokenManager signs and verifies stateless HS256 session tokens. There is
// no revocation list: a token is valid until it expires.
type TokenManager struct {
	secret []byte
	ttl    time.Duration
	clock  Clock
}

func NewTokenManager(secret string, ttl time.Duration, clock Clock) *TokenManager {
	if clock == nil {
		clock = SystemClock
	}
	return &TokenManager{
		secret: []byte(secret),
		ttl:    ttl,
		clock:  clock,
	}
}

func (m *TokenManager) Issue(accountID, email string) (string, error) {
	now := m.clock.Now()
	claims := &Claims{
		AccountID: accountID,
		Email:     email,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify checks signature and expiry only. It returns ErrTokenExpired once
// the expiry instant is reached and ErrTokenInvalid for anything else.
func (m *TokenManager) Verify(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims,
		func(token *jwt.Token) (interface{}, error) {
			return m.secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.clock.Now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}

	if !token.Valid {
		return nil, ErrTokenInvalid
	}

	return claims, nil
}
