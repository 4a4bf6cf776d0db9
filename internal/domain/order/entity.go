// internal/domain/order/entity.go
package order

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Status represents the order status
type Status string

// Orders are only ever written once checkout has succeeded
const StatusConfirmed Status = "confirmed"

// CheckoutState tracks one checkout attempt
type CheckoutState string

const (
	StatePending    CheckoutState = "pending"
	StateValidating CheckoutState = "validating"
	StateSucceeded  CheckoutState = "succeeded"
	StateFailed     CheckoutState = "failed"
)

// Order is a confirmed purchase. Items and amounts are copied from the cart
// at checkout and never change afterwards.
type Order struct {
	ID        string          `gorm:"type:varchar(36);primaryKey" json:"id"`
	Reference string          `gorm:"uniqueIndex;not null;size:30" json:"reference"`
	BuyerID   string          `gorm:"type:varchar(36);not null;index" json:"buyer_id"`
	BuyerName string          `gorm:"size:100" json:"buyer_name"`
	Email     string          `gorm:"not null;size:255" json:"email"`
	Status    Status          `gorm:"not null;size:20;default:'confirmed'" json:"status"`
	Subtotal  decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"subtotal"`
	Tax       decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"tax"`
	Shipping  decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"shipping"`
	Total     decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"total"`
	CreatedAt time.Time       `gorm:"index" json:"created_at"`

	Items []OrderItem `gorm:"foreignKey:OrderID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"items"`
}

// OrderItem represents items in an order
type OrderItem struct {
	ID        string          `gorm:"type:varchar(36);primaryKey" json:"id"`
	OrderID   string          `gorm:"type:varchar(36);not null;index" json:"order_id"`
	ProductID string          `gorm:"type:varchar(36);not null;index" json:"product_id"` // No FK: products can be deleted
	Name      string          `gorm:"not null;size:100" json:"name"`
	ImageURL  string          `json:"image_url"`
	UnitPrice decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"unit_price"`
	Quantity  int             `gorm:"not null" json:"quantity"`
	LineTotal decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"line_total"`
}

// TableName overrides
func (Order) TableName() string     { return "orders" }
func (OrderItem) TableName() string { return "order_items" }

// BeforeCreate assigns an id when the caller did not
func (o *Order) BeforeCreate(tx *gorm.DB) error {
	if o.ID == "" {
		o.ID = uuid.NewString()
	}
	return nil
}

// BeforeCreate assigns an id when the caller did not
func (i *OrderItem) BeforeCreate(tx *gorm.DB) error {
	if i.ID == "" {
		i.ID = uuid.NewString()
	}
	return nil
}

// ItemCount returns the total quantity ordered
func (o *Order) ItemCount() int {
	n := 0
	for _, item := range o.Items {
		n += item.Quantity
	}
	return n
}

// GenerateReference returns a buyer-facing order reference.
// Format: ORD-YYYYMMDD-XXXXXXXX
func GenerateReference(now time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
	return fmt.Sprintf("ORD-%s-%s", now.UTC().Format("20060102"), suffix)
}
