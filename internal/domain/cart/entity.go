// internal/domain/cart/entity.go
package cart

import (
	"time"

	"github.com/shopspring/decimal"
)

// TaxRate is the flat rate applied to every cart subtotal
var TaxRate = decimal.NewFromFloat(0.10)

// MaxQuantity caps a single line, including quantities merged by repeated adds
const MaxQuantity = 999

// LineItem is one product in a cart. UnitPrice is the price seen when the
// product was first added and is what the buyer pays at checkout.
type LineItem struct {
	ProductID string          `json:"product_id"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Name      string          `json:"name"`
	ImageURL  string          `json:"image_url"`
	AddedAt   time.Time       `json:"added_at"`
}

// LineTotal returns unit price times quantity
func (li LineItem) LineTotal() decimal.Decimal {
	return li.UnitPrice.Mul(decimal.NewFromInt(int64(li.Quantity)))
}

// Totals represents calculated cart totals
type Totals struct {
	ItemCount     int             `json:"item_count"`     // Number of distinct products
	TotalQuantity int             `json:"total_quantity"` // Sum of all quantities
	Subtotal      decimal.Decimal `json:"subtotal"`
	Tax           decimal.Decimal `json:"tax"`
	Shipping      decimal.Decimal `json:"shipping"`
	Total         decimal.Decimal `json:"total"`
}

// CartResponse is the cart as returned to clients
type CartResponse struct {
	Items  []LineItem `json:"items"`
	Totals Totals     `json:"totals"`
}

// AddItemRequest represents add to cart request
type AddItemRequest struct {
	ProductID string `json:"product_id" binding:"required"`
	Quantity  int    `json:"quantity" binding:"required,min=1,max=999"`
}

// SetQuantityRequest represents update cart item request. Zero or less removes the item.
type SetQuantityRequest struct {
	Quantity *int `json:"quantity" binding:"required,max=999"`
}
