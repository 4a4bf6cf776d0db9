// internal/interfaces/http/handlers/product.go
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/your-org/marketplace-backend/internal/domain/product"
	"github.com/your-org/marketplace-backend/internal/domain/shared"
	"github.com/your-org/marketplace-backend/internal/interfaces/http/middleware"
)

// ProductHandler handles catalog endpoints
type ProductHandler struct {
	products *product.Service
	logger   *logrus.Logger
}

// NewProductHandler creates a new product handler
func NewProductHandler(products *product.Service, logger *logrus.Logger) *ProductHandler {
	return &ProductHandler{products: products, logger: logger}
}

// ListProducts handles GET /products
func (h *ProductHandler) ListProducts(c *gin.Context) {
	var req product.ProductListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		respondError(c, h.logger, shared.NewValidationError("invalid query parameters: "+err.Error()))
		return
	}

	resp, err := h.products.ListProducts(c.Request.Context(), &req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respond(c, http.StatusOK, "Products retrieved successfully", resp)
}

// ListCategories handles GET /products/categories
func (h *ProductHandler) ListCategories(c *gin.Context) {
	categories, err := h.products.ListCategories(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respond(c, http.StatusOK, "Categories retrieved successfully", categories)
}

// GetProduct handles GET /products/:id
func (h *ProductHandler) GetProduct(c *gin.Context) {
	p, err := h.products.GetProduct(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respond(c, http.StatusOK, "Product retrieved successfully", p)
}

// GetProductsByName handles GET /products/name/:name
func (h *ProductHandler) GetProductsByName(c *gin.Context) {
	products, err := h.products.GetProductsByName(c.Request.Context(), c.Param("name"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	if products == nil {
		products = []product.Product{}
	}
	respond(c, http.StatusOK, "Products retrieved successfully", products)
}

// ListSellerProducts handles GET /sellers/:id/products
func (h *ProductHandler) ListSellerProducts(c *gin.Context) {
	p, _ := middleware.GetPrincipal(c)
	products, err := h.products.ListSellerProducts(c.Request.Context(), p.ID, c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	if products == nil {
		products = []product.Product{}
	}
	respond(c, http.StatusOK, "Products retrieved successfully", products)
}

// CreateProduct handles POST /products
func (h *ProductHandler) CreateProduct(c *gin.Context) {
	p, ok := middleware.GetPrincipal(c)
	if !ok {
		respondError(c, h.logger, shared.ErrUnauthorized)
		return
	}
	var req product.CreateProductRequest
	if !bindJSON(c, h.logger, &req) {
		return
	}

	created, err := h.products.CreateProduct(c.Request.Context(), p.ID, &req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respond(c, http.StatusCreated, "Product created successfully", created)
}

// UpdateProduct handles PUT /products/:id
func (h *ProductHandler) UpdateProduct(c *gin.Context) {
	p, ok := middleware.GetPrincipal(c)
	if !ok {
		respondError(c, h.logger, shared.ErrUnauthorized)
		return
	}
	var req product.UpdateProductRequest
	if !bindJSON(c, h.logger, &req) {
		return
	}

	updated, err := h.products.UpdateProduct(c.Request.Context(), p.ID, c.Param("id"), &req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respond(c, http.StatusOK, "Product updated successfully", updated)
}

// DeleteProduct handles DELETE /products/:id
func (h *ProductHandler) DeleteProduct(c *gin.Context) {
	p, ok := middleware.GetPrincipal(c)
	if !ok {
		respondError(c, h.logger, shared.ErrUnauthorized)
		return
	}
	if err := h.products.DeleteProduct(c.Request.Context(), p.ID, c.Param("id")); err != nil {
		respondError(c, h.logger, err)
		return
	}
	respond(c, http.StatusOK, "Product deleted successfully", nil)
}
