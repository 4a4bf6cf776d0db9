// internal/domain/product/service.go
package product

import (
	"context"
	"math"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/your-org/marketplace-backend/internal/domain/shared"
)

var validate = shared.NewValidator()

// Service handles catalog business logic
type Service struct {
	repo   Repository
	logger *logrus.Logger
}

// NewService creates a new product service
func NewService(repo Repository, logger *logrus.Logger) *Service {
	return &Service{
		repo:   repo,
		logger: logger,
	}
}

// ProductListRequest represents product list query parameters
type ProductListRequest struct {
	Page     int    `form:"page,default=1"`
	Limit    int    `form:"limit,default=20"`
	Category string `form:"category"`
	Search   string `form:"search"`
}

// CreateProductRequest represents product creation data
type CreateProductRequest struct {
	Name        string           `json:"name" binding:"required"`
	Price       *decimal.Decimal `json:"price" binding:"required"`
	Stock       *int             `json:"stock"`
	Category    string           `json:"category" binding:"required"`
	ImageURL    string           `json:"image_url" binding:"required"`
	Description string           `json:"description"`
}

// UpdateProductRequest represents a partial product update
type UpdateProductRequest struct {
	Name        *string          `json:"name"`
	Price       *decimal.Decimal `json:"price"`
	Stock       *int             `json:"stock"`
	Category    *string          `json:"category"`
	ImageURL    *string          `json:"image_url"`
	Description *string          `json:"description"`
}

// ProductListResponse represents a page of products
type ProductListResponse struct {
	Products   []Product  `json:"products"`
	Pagination Pagination `json:"pagination"`
}

// Pagination represents pagination information
type Pagination struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
	HasPrev    bool  `json:"has_prev"`
}

// CreateProduct validates and stores a new product owned by sellerID
func (s *Service) CreateProduct(ctx context.Context, sellerID string, req *CreateProductRequest) (*Product, error) {
	p := &Product{
		Name:        strings.TrimSpace(req.Name),
		Category:    strings.TrimSpace(req.Category),
		ImageURL:    strings.TrimSpace(req.ImageURL),
		Description: strings.TrimSpace(req.Description),
	}
	if sellerID != "" {
		p.SellerID = &sellerID
	}
	if req.Price == nil {
		return nil, shared.NewValidationError("validation failed", shared.FieldError{
			Field: "price", Rule: "required", Message: "price is required",
		})
	}
	p.Price = req.Price.Round(2)
	if req.Stock != nil {
		p.Stock = *req.Stock
	}

	if err := validate.Struct(p); err != nil {
		return nil, shared.FromValidator(err)
	}

	if err := s.repo.Create(ctx, p); err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"product_id": p.ID,
		"seller_id":  sellerID,
	}).Info("product created")

	return p, nil
}

// GetProduct returns a product by id
func (s *Service) GetProduct(ctx context.Context, id string) (*Product, error) {
	return s.repo.FindByID(ctx, id)
}

// GetProductsByName returns products whose name matches exactly
func (s *Service) GetProductsByName(ctx context.Context, name string) ([]Product, error) {
	return s.repo.FindByName(ctx, strings.TrimSpace(name))
}

// ListSellerProducts returns a seller's own catalog. Only the seller may list it.
func (s *Service) ListSellerProducts(ctx context.Context, principalID, sellerID string) ([]Product, error) {
	if principalID == "" || principalID != sellerID {
		return nil, shared.ErrForbidden
	}
	return s.repo.FindBySeller(ctx, sellerID)
}

// ListProducts returns one page of the public catalog
func (s *Service) ListProducts(ctx context.Context, req *ProductListRequest) (*ProductListResponse, error) {
	filter := ListFilter{
		Category: strings.TrimSpace(req.Category),
		Search:   strings.TrimSpace(req.Search),
		Page:     req.Page,
		Limit:    req.Limit,
	}
	filter = filter.Normalized()

	products, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	if products == nil {
		products = []Product{}
	}

	totalPages := int(math.Ceil(float64(total) / float64(filter.Limit)))
	return &ProductListResponse{
		Products: products,
		Pagination: Pagination{
			Page:       filter.Page,
			Limit:      filter.Limit,
			Total:      total,
			TotalPages: totalPages,
			HasNext:    filter.Page < totalPages,
			HasPrev:    filter.Page > 1,
		},
	}, nil
}

// ListCategories returns the distinct categories in the catalog
func (s *Service) ListCategories(ctx context.Context) ([]string, error) {
	categories, err := s.repo.Categories(ctx)
	if err != nil {
		return nil, err
	}
	if categories == nil {
		categories = []string{}
	}
	return categories, nil
}

// UpdateProduct applies a partial update by the owning seller and re-validates the result
func (s *Service) UpdateProduct(ctx context.Context, sellerID, id string, req *UpdateProductRequest) (*Product, error) {
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !p.OwnedBy(sellerID) {
		return nil, shared.ErrForbidden
	}
	readStock := p.Stock

	if req.Name != nil {
		p.Name = strings.TrimSpace(*req.Name)
	}
	if req.Price != nil {
		p.Price = req.Price.Round(2)
	}
	if req.Stock != nil {
		p.Stock = *req.Stock
	}
	if req.Category != nil {
		p.Category = strings.TrimSpace(*req.Category)
	}
	if req.ImageURL != nil {
		p.ImageURL = strings.TrimSpace(*req.ImageURL)
	}
	if req.Description != nil {
		p.Description = strings.TrimSpace(*req.Description)
	}

	if err := validate.Struct(p); err != nil {
		return nil, shared.FromValidator(err)
	}

	// Stock moves only if nothing else touched it since the read above
	if req.Stock != nil && p.Stock != readStock {
		if err := s.repo.SetStock(ctx, id, readStock, p.Stock); err != nil {
			return nil, err
		}
	}

	p.UpdatedAt = time.Now().UTC()
	if err := s.repo.Update(ctx, p); err != nil {
		return nil, err
	}

	s.logger.WithField("product_id", p.ID).Info("product updated")
	return s.repo.FindByID(ctx, id)
}

// DeleteProduct removes a product owned by the seller
func (s *Service) DeleteProduct(ctx context.Context, sellerID, id string) error {
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if !p.OwnedBy(sellerID) {
		return shared.ErrForbidden
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	s.logger.WithField("product_id", id).Info("product deleted")
	return nil
}

// DecrementStock takes qty units out of stock, failing when not enough remain
func (s *Service) DecrementStock(ctx context.Context, id string, qty int) (*Product, error) {
	return s.repo.DecrementStock(ctx, id, qty)
}

// IncrementStock puts qty units back into stock
func (s *Service) IncrementStock(ctx context.Context, id string, qty int) error {
	return s.repo.IncrementStock(ctx, id, qty)
}
