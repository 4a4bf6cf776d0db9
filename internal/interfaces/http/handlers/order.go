// internal/interfaces/http/handlers/order.go
package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/your-org/marketplace-backend/internal/domain/order"
	"github.com/your-org/marketplace-backend/internal/domain/shared"
	"github.com/your-org/marketplace-backend/internal/interfaces/http/middleware"
)

// OrderHandler serves a buyer's order history
type OrderHandler struct {
	orders *order.Service
	logger *logrus.Logger
}

// NewOrderHandler creates a new order handler
func NewOrderHandler(orders *order.Service, logger *logrus.Logger) *OrderHandler {
	return &OrderHandler{orders: orders, logger: logger}
}

// ListOrders handles GET /orders
func (h *OrderHandler) ListOrders(c *gin.Context) {
	p, ok := middleware.GetPrincipal(c)
	if !ok {
		respondError(c, h.logger, shared.ErrUnauthorized)
		return
	}
	orders, err := h.orders.ListOrders(c.Request.Context(), p.ID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respond(c, http.StatusOK, "Orders retrieved successfully", orders)
}

// GetOrder handles GET /orders/:reference
func (h *OrderHandler) GetOrder(c *gin.Context) {
	p, ok := middleware.GetPrincipal(c)
	if !ok {
		respondError(c, h.logger, shared.ErrUnauthorized)
		return
	}
	o, err := h.orders.GetOrder(c.Request.Context(), p.ID, c.Param("reference"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respond(c, http.StatusOK, "Order retrieved successfully", o)
}

// DownloadReceipt handles GET /orders/:reference/receipt
func (h *OrderHandler) DownloadReceipt(c *gin.Context) {
	p, ok := middleware.GetPrincipal(c)
	if !ok {
		respondError(c, h.logger, shared.ErrUnauthorized)
		return
	}
	reference := c.Param("reference")
	doc, err := h.orders.Receipt(c.Request.Context(), p.ID, reference)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="receipt-%s.pdf"`, reference))
	c.Data(http.StatusOK, "application/pdf", doc)
}
