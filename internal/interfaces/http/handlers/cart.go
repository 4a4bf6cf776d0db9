// internal/interfaces/http/handlers/cart.go
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/your-org/marketplace-backend/internal/domain/cart"
	"github.com/your-org/marketplace-backend/internal/interfaces/http/middleware"
)

// CartHandler handles the session cart. No sign-in is needed.
type CartHandler struct {
	carts  *cart.Service
	logger *logrus.Logger
}

// NewCartHandler creates a new cart handler
func NewCartHandler(carts *cart.Service, logger *logrus.Logger) *CartHandler {
	return &CartHandler{carts: carts, logger: logger}
}

// GetCart handles GET /cart
func (h *CartHandler) GetCart(c *gin.Context) {
	resp, err := h.carts.GetCart(c.Request.Context(), middleware.GetSessionID(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respond(c, http.StatusOK, "Cart retrieved successfully", resp)
}

// AddItem handles POST /cart/items
func (h *CartHandler) AddItem(c *gin.Context) {
	var req cart.AddItemRequest
	if !bindJSON(c, h.logger, &req) {
		return
	}
	resp, err := h.carts.AddItem(c.Request.Context(), middleware.GetSessionID(c), &req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respond(c, http.StatusOK, "Item added to cart", resp)
}

// SetQuantity handles PUT /cart/items/:productId. A quantity of zero removes the line.
func (h *CartHandler) SetQuantity(c *gin.Context) {
	var req cart.SetQuantityRequest
	if !bindJSON(c, h.logger, &req) {
		return
	}
	resp, err := h.carts.SetQuantity(c.Request.Context(), middleware.GetSessionID(c), c.Param("productId"), *req.Quantity)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respond(c, http.StatusOK, "Cart updated", resp)
}

// RemoveItem handles DELETE /cart/items/:productId
func (h *CartHandler) RemoveItem(c *gin.Context) {
	resp, err := h.carts.RemoveItem(c.Request.Context(), middleware.GetSessionID(c), c.Param("productId"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respond(c, http.StatusOK, "Item removed from cart", resp)
}

// ClearCart handles DELETE /cart
func (h *CartHandler) ClearCart(c *gin.Context) {
	if err := h.carts.Clear(c.Request.Context(), middleware.GetSessionID(c)); err != nil {
		respondError(c, h.logger, err)
		return
	}
	respond(c, http.StatusOK, "Cart cleared", nil)
}
