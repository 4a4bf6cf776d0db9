// internal/interfaces/http/handlers/auth.go
package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/your-org/marketplace-backend/internal/domain/session"
	"github.com/your-org/marketplace-backend/internal/domain/shared"
	"github.com/your-org/marketplace-backend/internal/domain/user"
	"github.com/your-org/marketplace-backend/internal/interfaces/http/middleware"
	"github.com/your-org/marketplace-backend/internal/pkg/auth"
)

// AuthHandler handles signup, login, logout and session restore
type AuthHandler struct {
	users       *user.Service
	tokens      *auth.JWTManager
	revocations *auth.Revocations
	credentials *session.Credentials
	logger      *logrus.Logger
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(users *user.Service, tokens *auth.JWTManager, revocations *auth.Revocations, credentials *session.Credentials, logger *logrus.Logger) *AuthHandler {
	return &AuthHandler{
		users:       users,
		tokens:      tokens,
		revocations: revocations,
		credentials: credentials,
		logger:      logger,
	}
}

// BuyerSignup handles POST /auth/buyers/signup
func (h *AuthHandler) BuyerSignup(c *gin.Context) {
	var req user.SignupRequest
	if !bindJSON(c, h.logger, &req) {
		return
	}
	resp, err := h.users.SignupBuyer(c.Request.Context(), &req)
	h.finishAuth(c, http.StatusCreated, "Buyer registered successfully", resp, err)
}

// BuyerLogin handles POST /auth/buyers/login
func (h *AuthHandler) BuyerLogin(c *gin.Context) {
	var req user.LoginRequest
	if !bindJSON(c, h.logger, &req) {
		return
	}
	resp, err := h.users.LoginBuyer(c.Request.Context(), &req)
	h.finishAuth(c, http.StatusOK, "Login successful", resp, err)
}

// SellerSignup handles POST /auth/sellers/signup
func (h *AuthHandler) SellerSignup(c *gin.Context) {
	var req user.SellerSignupRequest
	if !bindJSON(c, h.logger, &req) {
		return
	}
	resp, err := h.users.SignupSeller(c.Request.Context(), &req)
	h.finishAuth(c, http.StatusCreated, "Seller registered successfully", resp, err)
}

// SellerLogin handles POST /auth/sellers/login
func (h *AuthHandler) SellerLogin(c *gin.Context) {
	var req user.LoginRequest
	if !bindJSON(c, h.logger, &req) {
		return
	}
	resp, err := h.users.LoginSeller(c.Request.Context(), &req)
	h.finishAuth(c, http.StatusOK, "Login successful", resp, err)
}

// finishAuth stores the fresh credential in the session slot for its kind,
// replacing whatever that slot held before.
func (h *AuthHandler) finishAuth(c *gin.Context, status int, message string, resp *user.AuthResponse, err error) {
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	cred := session.Credential{
		Token:       resp.AccessToken,
		Kind:        string(resp.Claims.Kind),
		PrincipalID: resp.Claims.PrincipalID,
		Name:        resp.Claims.Name,
		Email:       resp.Claims.Email,
		ExpiresAt:   resp.ExpiresAt,
	}
	if err := h.credentials.Set(c.Request.Context(), middleware.GetSessionID(c), cred); err != nil {
		h.logger.WithError(err).WithField("principal_id", cred.PrincipalID).Warn("Failed to store session credential")
	}

	respond(c, status, message, resp)
}

// Logout handles POST /auth/logout. The token is revoked and removed from
// the session slot.
func (h *AuthHandler) Logout(c *gin.Context) {
	claims, ok := middleware.GetClaims(c)
	if !ok {
		respondError(c, h.logger, shared.ErrUnauthorized)
		return
	}

	ctx := c.Request.Context()
	if err := h.revocations.Revoke(ctx, claims); err != nil {
		respondError(c, h.logger, err)
		return
	}
	if err := h.credentials.Clear(ctx, middleware.GetSessionID(c), string(claims.Kind)); err != nil {
		h.logger.WithError(err).Warn("Failed to clear session credential")
	}

	respond(c, http.StatusOK, "Logout successful", nil)
}

// SessionView is what a client needs to restore its signed-in state
type SessionView struct {
	Buyer  *session.Credential `json:"buyer"`
	Seller *session.Credential `json:"seller"`
}

// Session handles GET /session
func (h *AuthHandler) Session(c *gin.Context) {
	ctx := c.Request.Context()
	sessionID := middleware.GetSessionID(c)

	buyer, err := h.restore(ctx, sessionID, auth.KindBuyer)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	seller, err := h.restore(ctx, sessionID, auth.KindSeller)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	respond(c, http.StatusOK, "Session retrieved successfully", SessionView{Buyer: buyer, Seller: seller})
}

// restore returns the stored credential for kind if its token still verifies.
// Stale credentials are dropped from the slot.
func (h *AuthHandler) restore(ctx context.Context, sessionID string, kind auth.Kind) (*session.Credential, error) {
	cred, err := h.credentials.Get(ctx, sessionID, string(kind))
	if err != nil || cred == nil {
		return nil, err
	}

	claims, err := h.tokens.Verify(cred.Token)
	if err == nil {
		var revoked bool
		revoked, err = h.revocations.IsRevoked(ctx, claims.ID)
		if err != nil {
			return nil, err
		}
		if !revoked {
			return cred, nil
		}
	}

	if err := h.credentials.Clear(ctx, sessionID, string(kind)); err != nil {
		return nil, err
	}
	return nil, nil
}
