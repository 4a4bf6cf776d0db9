// internal/domain/cart/service.go
package cart

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/your-org/marketplace-backend/internal/domain/product"
	"github.com/your-org/marketplace-backend/internal/domain/session"
	"github.com/your-org/marketplace-backend/internal/domain/shared"
)

// ProductFinder resolves the product a buyer is adding
type ProductFinder interface {
	GetProduct(ctx context.Context, id string) (*product.Product, error)
}

// Service loads and saves a session's cart from the key-value slot
type Service struct {
	store    session.Store
	products ProductFinder
	ttl      time.Duration
	logger   *logrus.Logger
}

// NewService creates a new cart service
func NewService(store session.Store, products ProductFinder, ttl time.Duration, logger *logrus.Logger) *Service {
	return &Service{
		store:    store,
		products: products,
		ttl:      ttl,
		logger:   logger,
	}
}

func cartKey(sessionID string) string {
	return fmt.Sprintf("cart:session:%s", sessionID)
}

// Load returns the session's cart, empty when nothing is stored
func (s *Service) Load(ctx context.Context, sessionID string) (*Cart, error) {
	if sessionID == "" {
		return nil, shared.NewValidationError("session ID required for cart")
	}

	var c Cart
	if _, err := s.store.GetJSON(ctx, cartKey(sessionID), &c); err != nil {
		return nil, fmt.Errorf("failed to load cart: %w", err)
	}
	return &c, nil
}

func (s *Service) save(ctx context.Context, sessionID string, c *Cart) error {
	c.UpdatedAt = time.Now().UTC()
	if err := s.store.SetJSON(ctx, cartKey(sessionID), c, s.ttl); err != nil {
		return fmt.Errorf("failed to save cart: %w", err)
	}
	return nil
}

// GetCart returns the cart with its totals
func (s *Service) GetCart(ctx context.Context, sessionID string) (*CartResponse, error) {
	c, err := s.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return toResponse(c), nil
}

// AddItem snapshots the product's current price and display fields into the cart
func (s *Service) AddItem(ctx context.Context, sessionID string, req *AddItemRequest) (*CartResponse, error) {
	c, err := s.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	p, err := s.products.GetProduct(ctx, req.ProductID)
	if err != nil {
		return nil, err
	}

	err = c.AddItem(LineItem{
		ProductID: p.ID,
		Quantity:  req.Quantity,
		UnitPrice: p.Price,
		Name:      p.Name,
		ImageURL:  p.ImageURL,
	})
	if err != nil {
		return nil, err
	}

	if err := s.save(ctx, sessionID, c); err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"product_id": p.ID,
		"quantity":   req.Quantity,
	}).Debug("Item added to cart")

	return toResponse(c), nil
}

// SetQuantity changes a line's quantity; zero or less removes the line
func (s *Service) SetQuantity(ctx context.Context, sessionID, productID string, quantity int) (*CartResponse, error) {
	c, err := s.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if err := c.SetQuantity(productID, quantity); err != nil {
		return nil, err
	}
	if err := s.save(ctx, sessionID, c); err != nil {
		return nil, err
	}
	return toResponse(c), nil
}

// RemoveItem removes a line from the cart
func (s *Service) RemoveItem(ctx context.Context, sessionID, productID string) (*CartResponse, error) {
	c, err := s.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	c.RemoveItem(productID)
	if err := s.save(ctx, sessionID, c); err != nil {
		return nil, err
	}
	return toResponse(c), nil
}

// Clear removes all items from the cart
func (s *Service) Clear(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return shared.NewValidationError("session ID required for cart")
	}
	if err := s.store.Del(ctx, cartKey(sessionID)); err != nil {
		return fmt.Errorf("failed to clear cart: %w", err)
	}
	return nil
}

// ItemCount returns the total quantity in the cart
func (s *Service) ItemCount(ctx context.Context, sessionID string) (int, error) {
	c, err := s.Load(ctx, sessionID)
	if err != nil {
		return 0, err
	}
	return c.Totals().TotalQuantity, nil
}

func toResponse(c *Cart) *CartResponse {
	items := c.Items
	if items == nil {
		items = []LineItem{}
	}
	return &CartResponse{Items: items, Totals: c.Totals()}
}
