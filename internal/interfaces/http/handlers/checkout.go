// internal/interfaces/http/handlers/checkout.go
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/your-org/marketplace-backend/internal/domain/order"
	"github.com/your-org/marketplace-backend/internal/domain/shared"
	"github.com/your-org/marketplace-backend/internal/interfaces/http/middleware"
)

// CheckoutHandler turns the session cart into an order
type CheckoutHandler struct {
	orders *order.Service
	logger *logrus.Logger
}

// NewCheckoutHandler creates a new checkout handler
func NewCheckoutHandler(orders *order.Service, logger *logrus.Logger) *CheckoutHandler {
	return &CheckoutHandler{orders: orders, logger: logger}
}

// Checkout handles POST /checkout. The request has no body; the cart comes
// from the session and the buyer from the token.
func (h *CheckoutHandler) Checkout(c *gin.Context) {
	p, ok := middleware.GetPrincipal(c)
	if !ok {
		respondError(c, h.logger, shared.ErrUnauthorized)
		return
	}

	buyer := order.Buyer{ID: p.ID, Name: p.Name, Email: p.Email}
	placed, err := h.orders.Checkout(c.Request.Context(), buyer, middleware.GetSessionID(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respond(c, http.StatusCreated, "Order placed successfully", placed)
}
