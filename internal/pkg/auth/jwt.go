// internal/pkg/auth/jwt.go
package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/your-org/marketplace-backend/internal/config"
	"github.com/your-org/marketplace-backend/internal/domain/shared"
)

// Kind distinguishes the two principal populations
type Kind string

const (
	KindBuyer  Kind = "buyer"
	KindSeller Kind = "seller"
)

// Valid reports whether k is a known principal kind
func (k Kind) Valid() bool {
	return k == KindBuyer || k == KindSeller
}

// Principal is an authenticated buyer or seller
type Principal struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Kind  Kind   `json:"kind"`
}

// Claims represents the JWT claims
type Claims struct {
	PrincipalID string `json:"id"`
	Name        string `json:"name"`
	Email       string `json:"email"`
	Kind        Kind   `json:"kind"`
	jwt.RegisteredClaims
}

// Principal returns the principal the token was issued to
func (c *Claims) Principal() Principal {
	return Principal{ID: c.PrincipalID, Name: c.Name, Email: c.Email, Kind: c.Kind}
}

// JWTManager handles JWT operations
type JWTManager struct {
	secret []byte
	expiry time.Duration
	issuer string
	now    func() time.Time
}

// NewJWTManager creates a new JWT manager
func NewJWTManager(cfg *config.Config) *JWTManager {
	return &JWTManager{
		secret: []byte(cfg.JWT.Secret),
		expiry: cfg.JWT.AccessTokenExpiry,
		issuer: cfg.App.Name,
		now:    time.Now,
	}
}

// Issue signs a bearer token for p. Buyers and sellers share one expiry.
func (j *JWTManager) Issue(p Principal) (string, *Claims, error) {
	if !p.Kind.Valid() {
		return "", nil, fmt.Errorf("unknown principal kind %q", p.Kind)
	}

	now := j.now().UTC()
	claims := &Claims{
		PrincipalID: p.ID,
		Name:        p.Name,
		Email:       p.Email,
		Kind:        p.Kind,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			ExpiresAt: jwt.NewNumericDate(now.Add(j.expiry)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    j.issuer,
			Subject:   fmt.Sprintf("%s:%s", p.Kind, p.ID),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(j.secret)
	if err != nil {
		return "", nil, fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, claims, nil
}

// Verify parses and validates a token. Expired tokens yield ErrTokenExpired;
// every other problem yields ErrTokenInvalid.
func (j *JWTManager) Verify(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return j.secret, nil
	}, jwt.WithTimeFunc(j.now), jwt.WithIssuer(j.issuer))

	if errors.Is(err, jwt.ErrTokenExpired) {
		return nil, shared.ErrTokenExpired
	}
	if err != nil {
		return nil, shared.ErrTokenInvalid
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.PrincipalID == "" || !claims.Kind.Valid() {
		return nil, shared.ErrTokenInvalid
	}

	return claims, nil
}

// ExtractTokenFromHeader extracts JWT token from Authorization header
func ExtractTokenFromHeader(authHeader string) string {
	const prefix = "Bearer "
	if len(authHeader) > len(prefix) && strings.EqualFold(authHeader[:len(prefix)], prefix) {
		return strings.TrimSpace(authHeader[len(prefix):])
	}
	return ""
}
