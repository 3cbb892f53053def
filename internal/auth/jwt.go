// Package auth verifies bearer tokens issued by the external identity provider.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"studynest/config"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrMissingToken = errors.New("missing bearer token")
	ErrInvalidToken = errors.New("invalid token")
	ErrNoEmail      = errors.New("no user email")
)

// Claims are the identity provider's access-token claims. Subject is the user id.
type Claims struct {
	Email string `json:"email"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

// User is an authenticated caller.
type User struct {
	ID    string
	Email string
}

// Verifier resolves bearer tokens to users.
type Verifier struct {
	secret   []byte
	issuer   string
	audience string
}

func NewVerifier(cfg *config.JWTConfig) *Verifier {
	return &Verifier{secret: []byte(cfg.Secret), issuer: cfg.Issuer, audience: cfg.Audience}
}

// ParseToken validates signature, expiry and, when configured, issuer and audience.
func (v *Verifier) ParseToken(tokenString string) (*Claims, error) {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}
	if v.audience != "" {
		opts = append(opts, jwt.WithAudience(v.audience))
	}
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		return v.secret, nil
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.Subject == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// Authenticate resolves a raw token to a user. The user must carry an email.
func (v *Verifier) Authenticate(_ context.Context, tokenString string) (*User, error) {
	if tokenString == "" {
		return nil, ErrMissingToken
	}
	claims, err := v.ParseToken(tokenString)
	if err != nil {
		return nil, err
	}
	if claims.Email == "" {
		return nil, ErrNoEmail
	}
	return &User{ID: claims.Subject, Email: claims.Email}, nil
}

// BearerToken extracts the token from an Authorization header value.
func BearerToken(header string) (string, bool) {
	parts := strings.SplitN(strings.TrimSpace(header), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
		return "", false
	}
	return strings.TrimSpace(parts[1]), true
}

// SignToken issues an HS256 token in the identity provider's format. Used by tests
// and local tooling; production tokens come from the provider.
func SignToken(cfg *config.JWTConfig, userID, email string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		Email: email,
		Role:  "authenticated",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			Issuer:    cfg.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	if cfg.Audience != "" {
		claims.Audience = jwt.ClaimStrings{cfg.Audience}
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(cfg.Secret))
}
