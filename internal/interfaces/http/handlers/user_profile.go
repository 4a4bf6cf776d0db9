// internal/interfaces/http/handlers/user_profile.go
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/your-org/marketplace-backend/internal/domain/shared"
	"github.com/your-org/marketplace-backend/internal/domain/user"
	"github.com/your-org/marketplace-backend/internal/interfaces/http/middleware"
)

// ProfileHandler handles the /me endpoints and the public seller directory
type ProfileHandler struct {
	users  *user.Service
	logger *logrus.Logger
}

// NewProfileHandler creates a new profile handler
func NewProfileHandler(users *user.Service, logger *logrus.Logger) *ProfileHandler {
	return &ProfileHandler{users: users, logger: logger}
}

// GetBuyerProfile handles GET /buyers/me
func (h *ProfileHandler) GetBuyerProfile(c *gin.Context) {
	p, ok := middleware.GetPrincipal(c)
	if !ok {
		respondError(c, h.logger, shared.ErrUnauthorized)
		return
	}
	profile, err := h.users.GetBuyer(c.Request.Context(), p.ID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respond(c, http.StatusOK, "Profile retrieved successfully", profile)
}

// UpdateBuyerProfile handles PUT /buyers/me
func (h *ProfileHandler) UpdateBuyerProfile(c *gin.Context) {
	p, ok := middleware.GetPrincipal(c)
	if !ok {
		respondError(c, h.logger, shared.ErrUnauthorized)
		return
	}
	var req user.UpdateProfileRequest
	if !bindJSON(c, h.logger, &req) {
		return
	}
	profile, err := h.users.UpdateBuyer(c.Request.Context(), p.ID, &req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respond(c, http.StatusOK, "Profile updated successfully", profile)
}

// GetSellerProfile handles GET /sellers/me
func (h *ProfileHandler) GetSellerProfile(c *gin.Context) {
	p, ok := middleware.GetPrincipal(c)
	if !ok {
		respondError(c, h.logger, shared.ErrUnauthorized)
		return
	}
	profile, err := h.users.GetSeller(c.Request.Context(), p.ID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respond(c, http.StatusOK, "Profile retrieved successfully", profile)
}

// UpdateSellerProfile handles PUT /sellers/me
func (h *ProfileHandler) UpdateSellerProfile(c *gin.Context) {
	p, ok := middleware.GetPrincipal(c)
	if !ok {
		respondError(c, h.logger, shared.ErrUnauthorized)
		return
	}
	var req user.UpdateProfileRequest
	if !bindJSON(c, h.logger, &req) {
		return
	}
	profile, err := h.users.UpdateSeller(c.Request.Context(), p.ID, &req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respond(c, http.StatusOK, "Profile updated successfully", profile)
}

// ListSellers handles GET /sellers
func (h *ProfileHandler) ListSellers(c *gin.Context) {
	sellers, err := h.users.ListSellers(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respond(c, http.StatusOK, "Sellers retrieved successfully", sellers)
}
