// internal/domain/product/entity.go
package product

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Product represents a sellable catalog entry owned by a seller
type Product struct {
	ID          string          `gorm:"type:varchar(36);primaryKey" json:"id"`
	SellerID    *string         `gorm:"type:varchar(36);index" json:"seller_id,omitempty"`
	Name        string          `gorm:"size:100;not null;index" json:"name" validate:"required,max=100"`
	Price       decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"price" validate:"gte=0"`
	Stock       int             `gorm:"not null;default:0" json:"stock" validate:"gte=0"`
	Category    string          `gorm:"size:50;not null;index" json:"category" validate:"required,max=50"`
	ImageURL    string          `gorm:"not null" json:"image_url" validate:"required"`
	Description string          `gorm:"size:500" json:"description" validate:"max=500"`
	CreatedAt   time.Time       `gorm:"index" json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// TableName overrides the table name
func (Product) TableName() string {
	return "products"
}

// BeforeCreate assigns an id when the caller did not
func (p *Product) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}

// OwnedBy reports whether the given seller owns the product.
// Products without a seller are owned by nobody.
func (p *Product) OwnedBy(sellerID string) bool {
	return p.SellerID != nil && *p.SellerID == sellerID
}

// ListFilter narrows the public product listing
type ListFilter struct {
	Category string
	Search   string
	Page     int
	Limit    int
}

// Offset returns the row offset for the filter's page
func (f ListFilter) Offset() int {
	return (f.Page - 1) * f.Limit
}

// Normalized returns the filter with page and limit defaults applied
func (f ListFilter) Normalized() ListFilter {
	if f.Page <= 0 {
		f.Page = 1
	}
	if f.Limit <= 0 || f.Limit > 100 {
		f.Limit = 20
	}
	return f
}
