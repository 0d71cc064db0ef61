// Package authn establishes the per-request identity from a signed bearer
// credential. It never consults the permission table; authorization is the
// authz package's job.
package authn

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/sitebridge/sitebridge/internal/authz"
)

// ErrInvalidToken covers every verification failure: missing credential,
// bad signature, expired token, missing subject. Callers must not reveal
// which check failed.
var ErrInvalidToken = errors.New("authn: invalid token")

// TokenIssuer signs and verifies HMAC JWT access tokens.
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenIssuer constructs a TokenIssuer.
func NewTokenIssuer(secret string, ttl time.Duration) *TokenIssuer {
	if ttl == 0 {
		ttl = 12 * time.Hour
	}
	return &TokenIssuer{secret: []byte(secret), ttl: ttl}
}

type accessClaims struct {
	Role      string `json:"role"`
	CompanyID int64  `json:"company_id,omitempty"`
	jwt.RegisteredClaims
}

// Issue creates a signed access token for the identity.
func (t *TokenIssuer) Issue(ident authz.Identity) (string, error) {
	now := time.Now()
	claims := accessClaims{
		Role:      ident.Role.String(),
		CompanyID: ident.CompanyID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(ident.UserID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(t.secret)
	if err != nil {
		return "", fmt.Errorf("authn: sign token: %w", err)
	}
	return signed, nil
}

// Verify parses and validates a token string and returns the identity it
// carries. The role claim is taken as issued; a role change after login is
// not reflected until the token expires.
func (t *TokenIssuer) Verify(tokenString string) (authz.Identity, error) {
	token, err := jwt.ParseWithClaims(tokenString, &accessClaims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return t.secret, nil
	})
	if err != nil || !token.Valid {
		return authz.Identity{}, ErrInvalidToken
	}
	claims, ok := token.Claims.(*accessClaims)
	if !ok || claims.Subject == "" {
		return authz.Identity{}, ErrInvalidToken
	}
	userID, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil {
		return authz.Identity{}, ErrInvalidToken
	}
	return authz.Identity{
		UserID:    userID,
		Role:      authz.Role(claims.Role),
		CompanyID: claims.CompanyID,
	}, nil
}

// TTL exposes the configured token lifetime.
func (t *TokenIssuer) TTL() time.Duration { return t.ttl }
