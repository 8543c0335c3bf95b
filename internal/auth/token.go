// Package auth issues and verifies bearer tokens and turns them into a caller identity.
package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/eaglebank/bank-api/internal/apperr"
	"github.com/eaglebank/bank-api/shared/models"
	"github.com/golang-jwt/jwt/v5"
)

// Claims is the JWT payload.
type Claims struct {
	UserID string `json:"userId"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

type TokenManager struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewTokenManager(secret string, ttl time.Duration) *TokenManager {
	return &TokenManager{secret: []byte(secret), ttl: ttl, now: time.Now}
}

func (m *TokenManager) Generate(userID, email string) (string, error) {
	now := m.now()
	claims := Claims{
		UserID: userID,
		Email:  email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	return signed, nil
}

// Parse returns apperr.ErrUnauthenticated for any token that is malformed,
// expired or signed with another key or method.
func (m *TokenManager) Parse(token string) (*Claims, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims,
		func(*jwt.Token) (any, error) { return m.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil || !parsed.Valid || claims.UserID == "" {
		return nil, apperr.ErrUnauthenticated
	}
	return claims, nil
}

// PrincipalResolver confirms that a token subject is still a registered user.
type PrincipalResolver interface {
	ResolvePrincipal(ctx context.Context, userID string) (*models.UserView, error)
}

// Authenticator turns a bearer token into the id of an existing user.
type Authenticator struct {
	tokens     *TokenManager
	principals PrincipalResolver
}

func NewAuthenticator(tokens *TokenManager, principals PrincipalResolver) *Authenticator {
	return &Authenticator{tokens: tokens, principals: principals}
}

func (a *Authenticator) Authenticate(ctx context.Context, token string) (string, error) {
	claims, err := a.tokens.Parse(token)
	if err != nil {
		return "", err
	}
	user, err := a.principals.ResolvePrincipal(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, apperr.ErrUnauthenticated) {
			return "", err
		}
		return "", fmt.Errorf("resolve principal: %w", err)
	}
	return user.ID, nil
}
