// internal/infrastructure/database/postgres/migration.go
package postgres

import (
	"context"
	"fmt"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/your-org/marketplace-backend/internal/domain/order"
	"github.com/your-org/marketplace-backend/internal/domain/product"
	"github.com/your-org/marketplace-backend/internal/domain/user"
	"github.com/your-org/marketplace-backend/internal/pkg/auth"
	"gorm.io/gorm"
)

// Demo accounts created by SeedInitialData
const (
	DemoSellerEmail = "seller@example.com"
	DemoBuyerEmail  = "buyer@example.com"
	DemoPassword    = "marketplace-demo"
)

// Migration handles schema migrations and development seed data
type Migration struct {
	db     *gorm.DB
	logger *logrus.Logger
}

// NewMigration creates a new migration instance
func NewMigration(db *gorm.DB, logger *logrus.Logger) *Migration {
	return &Migration{db: db, logger: logger}
}

// RunAutoMigrations runs gorm auto-migrations for every relational model.
// Products are migrated even when the catalog lives in MongoDB.
func (m *Migration) RunAutoMigrations() error {
	models := []interface{}{
		&user.Buyer{},
		&user.Seller{},
		&product.Product{},
		&product.Review{},
		&order.Order{},
		&order.OrderItem{},
	}

	for _, model := range models {
		m.logger.Debugf("Migrating model: %T", model)
		if err := m.db.AutoMigrate(model); err != nil {
			return fmt.Errorf("failed to migrate model %T: %w", model, err)
		}
	}

	m.logger.Info("Database auto-migrations completed")
	return nil
}

// CreateIndexes creates composite indexes gorm tags cannot express
func (m *Migration) CreateIndexes() error {
	indexes := []string{
		"CREATE INDEX IF NOT EXISTS idx_products_category_created ON products(category, created_at DESC)",
		"CREATE INDEX IF NOT EXISTS idx_products_seller_created ON products(seller_id, created_at DESC)",
		"CREATE INDEX IF NOT EXISTS idx_reviews_product_created ON reviews(product_id, created_at DESC)",
		"CREATE INDEX IF NOT EXISTS idx_orders_buyer_created ON orders(buyer_id, created_at DESC)",
	}

	for _, stmt := range indexes {
		if err := m.db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("failed to create index: %w", err)
		}
	}
	return nil
}

// SeedInitialData creates a demo seller, a demo buyer and a generated catalog.
// It does nothing once any seller exists.
func (m *Migration) SeedInitialData(ctx context.Context, passwords *auth.PasswordManager, catalog product.Repository, count int) error {
	var sellers int64
	if err := m.db.WithContext(ctx).Model(&user.Seller{}).Count(&sellers).Error; err != nil {
		return fmt.Errorf("failed to count sellers: %w", err)
	}
	if sellers > 0 {
		m.logger.Debug("Seed data already present")
		return nil
	}

	hash, err := passwords.HashPassword(DemoPassword)
	if err != nil {
		return err
	}

	faker := gofakeit.New(0)
	seller := &user.Seller{
		Account: user.Account{
			Name:         faker.Name(),
			Email:        DemoSellerEmail,
			PasswordHash: hash,
		},
		BusinessName:        truncate(faker.Company(), 100),
		BusinessDescription: truncate(faker.Slogan(), 500),
	}
	buyer := &user.Buyer{Account: user.Account{
		Name:         faker.Name(),
		Email:        DemoBuyerEmail,
		PasswordHash: hash,
	}}

	err = m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(seller).Error; err != nil {
			return fmt.Errorf("failed to seed seller: %w", err)
		}
		if err := tx.Create(buyer).Error; err != nil {
			return fmt.Errorf("failed to seed buyer: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	for _, p := range FakeProducts(faker, seller.ID, count) {
		if err := catalog.Create(ctx, p); err != nil {
			return fmt.Errorf("failed to seed product: %w", err)
		}
	}

	m.logger.WithFields(logrus.Fields{
		"seller":   DemoSellerEmail,
		"buyer":    DemoBuyerEmail,
		"products": count,
	}).Info("Seed data created")
	return nil
}

// FakeProducts generates count plausible products owned by sellerID
func FakeProducts(faker *gofakeit.Faker, sellerID string, count int) []*product.Product {
	products := make([]*product.Product, 0, count)
	for i := 0; i < count; i++ {
		owner := sellerID
		price := decimal.NewFromFloat(faker.Price(1, 500)).Round(2)
		products = append(products, &product.Product{
			SellerID:    &owner,
			Name:        truncate(faker.ProductName(), 100),
			Price:       price,
			Stock:       faker.IntRange(0, 50),
			Category:    truncate(faker.ProductCategory(), 50),
			ImageURL:    fmt.Sprintf("https://picsum.photos/seed/%s/600/600", faker.UUID()),
			Description: truncate(faker.ProductDescription(), 500),
		})
	}
	return products
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max])
}
