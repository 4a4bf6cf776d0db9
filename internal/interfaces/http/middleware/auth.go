// internal/interfaces/http/middleware/auth.go
package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/your-org/marketplace-backend/internal/domain/shared"
	"github.com/your-org/marketplace-backend/internal/pkg/auth"
)

const (
	principalKey = "principal"
	claimsKey    = "token_claims"
)

// Authenticator verifies bearer tokens and rejects revoked ones
type Authenticator struct {
	tokens      *auth.JWTManager
	revocations *auth.Revocations
	logger      *logrus.Logger
}

// NewAuthenticator creates the bearer-token gate
func NewAuthenticator(tokens *auth.JWTManager, revocations *auth.Revocations, logger *logrus.Logger) *Authenticator {
	return &Authenticator{tokens: tokens, revocations: revocations, logger: logger}
}

// RequirePrincipal admits requests carrying a valid token of one of the given
// kinds. No kinds means any authenticated principal.
func (a *Authenticator) RequirePrincipal(kinds ...auth.Kind) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := auth.ExtractTokenFromHeader(c.GetHeader("Authorization"))
		if token == "" {
			abortWith(c, http.StatusUnauthorized, shared.ErrUnauthorized)
			return
		}

		claims, err := a.tokens.Verify(token)
		if err != nil {
			var derr *shared.DomainError
			if !errors.As(err, &derr) {
				derr = shared.ErrTokenInvalid
			}
			abortWith(c, http.StatusUnauthorized, derr)
			return
		}

		revoked, err := a.revocations.IsRevoked(c.Request.Context(), claims.ID)
		if err != nil {
			a.logger.WithError(err).Error("Failed to check token revocation")
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"error": "Internal server error",
				"code":  "INTERNAL_ERROR",
			})
			return
		}
		if revoked {
			abortWith(c, http.StatusUnauthorized, shared.ErrTokenInvalid)
			return
		}

		if !kindAllowed(claims.Kind, kinds) {
			abortWith(c, http.StatusForbidden, shared.ErrForbidden)
			return
		}

		c.Set(principalKey, claims.Principal())
		c.Set(claimsKey, claims)
		c.Next()
	}
}

func kindAllowed(kind auth.Kind, allowed []auth.Kind) bool {
	if len(allowed) == 0 {
		return true
	}
	for _, k := range allowed {
		if k == kind {
			return true
		}
	}
	return false
}

func abortWith(c *gin.Context, status int, err *shared.DomainError) {
	c.AbortWithStatusJSON(status, gin.H{
		"error": err.Message,
		"code":  err.Code,
	})
}

// GetPrincipal returns the authenticated principal
func GetPrincipal(c *gin.Context) (auth.Principal, bool) {
	v, ok := c.Get(principalKey)
	if !ok {
		return auth.Principal{}, false
	}
	p, ok := v.(auth.Principal)
	return p, ok
}

// GetClaims returns the verified token claims
func GetClaims(c *gin.Context) (*auth.Claims, bool) {
	v, ok := c.Get(claimsKey)
	if !ok {
		return nil, false
	}
	claims, ok := v.(*auth.Claims)
	return claims, ok
}
