// internal/domain/order/service.go
package order

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/your-org/marketplace-backend/internal/domain/cart"
	"github.com/your-org/marketplace-backend/internal/domain/product"
	"github.com/your-org/marketplace-backend/internal/domain/shared"
	"gorm.io/gorm"
)

// StockKeeper is the slice of the catalog that checkout needs
type StockKeeper interface {
	GetProduct(ctx context.Context, id string) (*product.Product, error)
	DecrementStock(ctx context.Context, id string, qty int) (*product.Product, error)
	IncrementStock(ctx context.Context, id string, qty int) error
}

// CartStore loads and clears a session's cart
type CartStore interface {
	Load(ctx context.Context, sessionID string) (*cart.Cart, error)
	Clear(ctx context.Context, sessionID string) error
}

// Notifier tells the buyer about a confirmed order
type Notifier interface {
	SendOrderConfirmation(ctx context.Context, o *Order) error
}

// ReceiptRenderer turns an order into a printable document
type ReceiptRenderer interface {
	RenderReceipt(o *Order) ([]byte, error)
}

// Recorder counts checkout outcomes
type Recorder interface {
	CheckoutFinished(state CheckoutState)
	StockConflict()
	StockRestored()
}

// restoreTimeout bounds giving stock back after a failed checkout. It runs
// detached from the request, which may already be cancelled.
const restoreTimeout = 10 * time.Second

// Buyer is the authenticated principal placing the order
type Buyer struct {
	ID    string
	Name  string
	Email string
}

// Options carries the optional collaborators of the order service
type Options struct {
	Notifier Notifier
	Receipts ReceiptRenderer
	Metrics  Recorder
}

// Service turns carts into confirmed orders
type Service struct {
	db     *gorm.DB
	stock  StockKeeper
	carts  CartStore
	opts   Options
	logger *logrus.Logger
	now    func() time.Time
}

// NewService creates a new order service
func NewService(db *gorm.DB, stock StockKeeper, carts CartStore, opts Options, logger *logrus.Logger) *Service {
	return &Service{
		db:     db,
		stock:  stock,
		carts:  carts,
		opts:   opts,
		logger: logger,
		now:    time.Now,
	}
}

// Checkout validates the session's cart against live stock, takes the stock,
// records the order and clears the cart. On failure the cart is left intact
// and any stock already taken is given back.
func (s *Service) Checkout(ctx context.Context, buyer Buyer, sessionID string) (*Order, error) {
	log := s.logger.WithFields(logrus.Fields{
		"buyer_id": buyer.ID,
		"state":    StatePending,
	})

	c, err := s.carts.Load(ctx, sessionID)
	if err != nil {
		return nil, s.fail(log, err)
	}
	if c.IsEmpty() {
		return nil, s.fail(log, shared.NewValidationError("cart is empty"))
	}

	log = log.WithField("state", StateValidating)
	log.WithField("lines", len(c.Items)).Debug("Validating cart against stock")

	if err := s.validate(ctx, c); err != nil {
		return nil, s.fail(log, err)
	}

	taken, err := s.takeStock(ctx, c)
	if err != nil {
		return nil, s.fail(log, s.restoreStock(ctx, log, taken, err))
	}

	order, err := s.persist(ctx, buyer, c)
	if err != nil {
		return nil, s.fail(log, s.restoreStock(ctx, log, taken, err))
	}

	if err := s.carts.Clear(ctx, sessionID); err != nil {
		log.WithError(err).Warn("Failed to clear cart after checkout")
	}

	s.record(StateSucceeded)
	log.WithFields(logrus.Fields{
		"state":     StateSucceeded,
		"reference": order.Reference,
		"total":     order.Total.StringFixed(2),
	}).Info("Order confirmed")

	if s.opts.Notifier != nil {
		if err := s.opts.Notifier.SendOrderConfirmation(ctx, order); err != nil {
			log.WithError(err).WithField("reference", order.Reference).Warn("Failed to send order confirmation")
		}
	}

	return order, nil
}

// validate reports every line that cannot be fulfilled, not just the first
func (s *Service) validate(ctx context.Context, c *cart.Cart) error {
	var problems []error
	for _, item := range c.Items {
		p, err := s.stock.GetProduct(ctx, item.ProductID)
		if errors.Is(err, shared.ErrNotFound) {
			problems = append(problems, &shared.ProductUnavailableError{ProductID: item.ProductID})
			continue
		}
		if err != nil {
			return fmt.Errorf("failed to load product %s: %w", item.ProductID, err)
		}
		if item.Quantity > p.Stock {
			problems = append(problems, &shared.InsufficientStockError{
				ProductID: item.ProductID,
				Requested: item.Quantity,
				Available: p.Stock,
			})
		}
	}

	for range problems {
		s.conflict()
	}
	return errors.Join(problems...)
}

// takeStock decrements each line in cart order and returns the lines it managed to take
func (s *Service) takeStock(ctx context.Context, c *cart.Cart) ([]cart.LineItem, error) {
	taken := make([]cart.LineItem, 0, len(c.Items))
	for _, item := range c.Items {
		if _, err := s.stock.DecrementStock(ctx, item.ProductID, item.Quantity); err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				err = &shared.ProductUnavailableError{ProductID: item.ProductID}
			}
			if len(shared.Conflicts(err)) > 0 {
				s.conflict()
			}
			return taken, err
		}
		taken = append(taken, item)
	}
	return taken, nil
}

// restoreStock gives back taken stock in reverse order. Failures to restore
// are joined onto cause.
func (s *Service) restoreStock(ctx context.Context, log *logrus.Entry, taken []cart.LineItem, cause error) error {
	errs := []error{cause}
	if len(taken) == 0 {
		return cause
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), restoreTimeout)
	defer cancel()
	for i := len(taken) - 1; i >= 0; i-- {
		item := taken[i]
		if err := s.stock.IncrementStock(ctx, item.ProductID, item.Quantity); err != nil {
			log.WithError(err).WithFields(logrus.Fields{
				"product_id": item.ProductID,
				"quantity":   item.Quantity,
			}).Error("Failed to restore stock")
			errs = append(errs, fmt.Errorf("failed to restore stock for product %s: %w", item.ProductID, err))
			continue
		}
		if s.opts.Metrics != nil {
			s.opts.Metrics.StockRestored()
		}
	}
	return errors.Join(errs...)
}

func (s *Service) persist(ctx context.Context, buyer Buyer, c *cart.Cart) (*Order, error) {
	now := s.now().UTC()
	order := &Order{
		BuyerID:   buyer.ID,
		BuyerName: buyer.Name,
		Email:     buyer.Email,
		Status:    StatusConfirmed,
		Subtotal:  c.Subtotal().Round(2),
		Tax:       c.Tax(),
		Shipping:  c.Shipping(),
		Total:     c.Total().Round(2),
		CreatedAt: now,
		Items:     make([]OrderItem, 0, len(c.Items)),
	}
	for _, item := range c.Items {
		order.Items = append(order.Items, OrderItem{
			ProductID: item.ProductID,
			Name:      item.Name,
			ImageURL:  item.ImageURL,
			UnitPrice: item.UnitPrice,
			Quantity:  item.Quantity,
			LineTotal: item.LineTotal().Round(2),
		})
	}

	// References are random; retry the rare collision with a fresh one
	var err error
	for attempt := 0; attempt < 3; attempt++ {
		order.Reference = GenerateReference(now)
		err = s.db.WithContext(ctx).Create(order).Error
		if !errors.Is(err, gorm.ErrDuplicatedKey) {
			break
		}
		order.ID = ""
		for i := range order.Items {
			order.Items[i].ID = ""
			order.Items[i].OrderID = ""
		}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create order: %w", err)
	}
	return order, nil
}

func (s *Service) fail(log *logrus.Entry, err error) error {
	s.record(StateFailed)

	entry := log.WithField("state", StateFailed).WithError(err)
	if len(shared.Conflicts(err)) > 0 || isValidation(err) {
		entry.Info("Checkout rejected")
	} else {
		entry.Error("Checkout failed")
	}
	return err
}

func (s *Service) record(state CheckoutState) {
	if s.opts.Metrics != nil {
		s.opts.Metrics.CheckoutFinished(state)
	}
}

func (s *Service) conflict() {
	if s.opts.Metrics != nil {
		s.opts.Metrics.StockConflict()
	}
}

func isValidation(err error) bool {
	var verr *shared.ValidationError
	return errors.As(err, &verr)
}

// ListOrders returns the buyer's orders, newest first
func (s *Service) ListOrders(ctx context.Context, buyerID string) ([]Order, error) {
	orders := []Order{}
	err := s.db.WithContext(ctx).
		Preload("Items").
		Where("buyer_id = ?", buyerID).
		Order("created_at DESC").
		Find(&orders).Error
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve orders: %w", err)
	}
	return orders, nil
}

// GetOrder returns one of the buyer's orders by reference.
// Orders of other buyers are reported as not found.
func (s *Service) GetOrder(ctx context.Context, buyerID, reference string) (*Order, error) {
	var order Order
	err := s.db.WithContext(ctx).
		Preload("Items").
		Where("reference = ? AND buyer_id = ?", reference, buyerID).
		First(&order).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, shared.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve order: %w", err)
	}
	return &order, nil
}

// Receipt renders the buyer's order as a PDF document
func (s *Service) Receipt(ctx context.Context, buyerID, reference string) ([]byte, error) {
	if s.opts.Receipts == nil {
		return nil, errors.New("receipt rendering is not configured")
	}
	order, err := s.GetOrder(ctx, buyerID, reference)
	if err != nil {
		return nil, err
	}
	doc, err := s.opts.Receipts.RenderReceipt(order)
	if err != nil {
		return nil, fmt.Errorf("failed to render receipt: %w", err)
	}
	return doc, nil
}
