// internal/domain/product/repository.go
package product

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/your-org/marketplace-backend/internal/domain/shared"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository is the persistence port of the catalog store.
// Stock changes go through DecrementStock, IncrementStock and SetStock only;
// Update never writes stock.
type Repository interface {
	Create(ctx context.Context, p *Product) error
	FindByID(ctx context.Context, id string) (*Product, error)
	FindByName(ctx context.Context, name string) ([]Product, error)
	FindBySeller(ctx context.Context, sellerID string) ([]Product, error)
	List(ctx context.Context, filter ListFilter) ([]Product, int64, error)
	Categories(ctx context.Context) ([]string, error)
	Update(ctx context.Context, p *Product) error
	SetStock(ctx context.Context, id string, from, to int) error
	Delete(ctx context.Context, id string) error
	DecrementStock(ctx context.Context, id string, qty int) (*Product, error)
	IncrementStock(ctx context.Context, id string, qty int) error
}

// GormRepository is the PostgreSQL-backed catalog store
type GormRepository struct {
	db *gorm.DB
}

// NewGormRepository creates a catalog repository on top of gorm
func NewGormRepository(db *gorm.DB) *GormRepository {
	return &GormRepository{db: db}
}

var _ Repository = (*GormRepository)(nil)

// Create inserts a new product
func (r *GormRepository) Create(ctx context.Context, p *Product) error {
	if err := r.db.WithContext(ctx).Create(p).Error; err != nil {
		return fmt.Errorf("failed to create product: %w", err)
	}
	return nil
}

// FindByID loads a product by id
func (r *GormRepository) FindByID(ctx context.Context, id string) (*Product, error) {
	var p Product
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&p).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, fmt.Errorf("failed to load product: %w", err)
	}
	return &p, nil
}

// FindByName returns every product with exactly the given name
func (r *GormRepository) FindByName(ctx context.Context, name string) ([]Product, error) {
	var products []Product
	err := r.db.WithContext(ctx).
		Where("name = ?", name).
		Order("created_at DESC").
		Find(&products).Error
	if err != nil {
		return nil, fmt.Errorf("failed to find products by name: %w", err)
	}
	return products, nil
}

// FindBySeller returns the seller's products, newest first
func (r *GormRepository) FindBySeller(ctx context.Context, sellerID string) ([]Product, error) {
	var products []Product
	err := r.db.WithContext(ctx).
		Where("seller_id = ?", sellerID).
		Order("created_at DESC").
		Find(&products).Error
	if err != nil {
		return nil, fmt.Errorf("failed to find seller products: %w", err)
	}
	return products, nil
}

// List returns one page of the public catalog and the total match count
func (r *GormRepository) List(ctx context.Context, filter ListFilter) ([]Product, int64, error) {
	filter = filter.Normalized()

	query := r.db.WithContext(ctx).Model(&Product{})
	if filter.Category != "" {
		query = query.Where("category = ?", filter.Category)
	}
	if filter.Search != "" {
		query = query.Where("LOWER(name) LIKE ?", "%"+strings.ToLower(filter.Search)+"%")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count products: %w", err)
	}

	var products []Product
	err := query.
		Order("created_at DESC").
		Offset(filter.Offset()).
		Limit(filter.Limit).
		Find(&products).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list products: %w", err)
	}
	return products, total, nil
}

// Categories returns the distinct category labels in use
func (r *GormRepository) Categories(ctx context.Context) ([]string, error) {
	var categories []string
	err := r.db.WithContext(ctx).
		Model(&Product{}).
		Distinct("category").
		Order("category").
		Pluck("category", &categories).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	return categories, nil
}

// Update writes the descriptive fields of an existing product. Stock is left alone.
func (r *GormRepository) Update(ctx context.Context, p *Product) error {
	result := r.db.WithContext(ctx).
		Model(p).
		Select("name", "price", "category", "image_url", "description", "updated_at").
		Updates(p)
	if result.Error != nil {
		return fmt.Errorf("failed to update product: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Delete removes a product permanently
func (r *GormRepository) Delete(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&Product{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete product: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// DecrementStock atomically subtracts qty from stock when enough is available
// and returns the updated product. No row matching means the product is gone
// or short, which a re-read distinguishes.
func (r *GormRepository) DecrementStock(ctx context.Context, id string, qty int) (*Product, error) {
	if qty < 1 {
		return nil, shared.NewValidationError("quantity must be at least 1")
	}

	var updated Product
	result := r.db.WithContext(ctx).
		Model(&updated).
		Clauses(clause.Returning{}).
		Where("id = ? AND stock >= ?", id, qty).
		UpdateColumn("stock", gorm.Expr("stock - ?", qty))
	if result.Error != nil {
		return nil, fmt.Errorf("failed to decrement stock: %w", result.Error)
	}
	if result.RowsAffected > 0 {
		return &updated, nil
	}

	current, err := r.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return nil, &shared.InsufficientStockError{ProductID: id, Requested: qty, Available: current.Stock}
}

// SetStock replaces stock with to, but only while it still equals from.
// A checkout that moved stock in between makes it fail with ErrStockChanged.
func (r *GormRepository) SetStock(ctx context.Context, id string, from, to int) error {
	if to < 0 {
		return shared.NewValidationError("stock cannot be negative")
	}

	result := r.db.WithContext(ctx).
		Model(&Product{}).
		Where("id = ? AND stock = ?", id, from).
		UpdateColumns(map[string]interface{}{
			"stock":      to,
			"updated_at": time.Now().UTC(),
		})
	if result.Error != nil {
		return fmt.Errorf("failed to set stock: %w", result.Error)
	}
	if result.RowsAffected > 0 {
		return nil
	}

	if _, err := r.FindByID(ctx, id); err != nil {
		return err
	}
	return shared.ErrStockChanged
}

// IncrementStock returns qty units to stock
func (r *GormRepository) IncrementStock(ctx context.Context, id string, qty int) error {
	if qty < 1 {
		return shared.NewValidationError("quantity must be at least 1")
	}

	result := r.db.WithContext(ctx).
		Model(&Product{}).
		Where("id = ?", id).
		UpdateColumn("stock", gorm.Expr("stock + ?", qty))
	if result.Error != nil {
		return fmt.Errorf("failed to increment stock: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}
