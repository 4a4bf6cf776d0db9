// internal/interfaces/http/middleware/session.go
package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/your-org/marketplace-backend/internal/config"
)

const sessionKey = "session_id"

// Session makes sure every request has a session id, issuing an HttpOnly
// cookie when the client has none or sent a malformed one.
func Session(cfg *config.SessionConfig) gin.HandlerFunc {
	maxAge := int(cfg.CookieTTL.Seconds())

	return func(c *gin.Context) {
		id, err := c.Cookie(cfg.CookieName)
		if err != nil || uuid.Validate(id) != nil {
			id = uuid.NewString()
		}

		// Refresh the cookie so active sessions slide forward
		c.SetSameSite(http.SameSiteLaxMode)
		c.SetCookie(cfg.CookieName, id, maxAge, "/", "", cfg.CookieSecure, true)

		c.Set(sessionKey, id)
		c.Next()
	}
}

// GetSessionID returns the request's session id
func GetSessionID(c *gin.Context) string {
	return c.GetString(sessionKey)
}
