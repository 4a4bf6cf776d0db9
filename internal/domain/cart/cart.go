package cart

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/your-org/marketplace-backend/internal/domain/shared"
)

// Cart is a buyer's working selection. It is plain state plus arithmetic and
// never talks to the catalog.
type Cart struct {
	Items     []LineItem `json:"items"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// AddItem appends a line item, or sums quantities when the product is already
// in the cart. The existing price snapshot is kept on merge.
func (c *Cart) AddItem(item LineItem) error {
	if item.Quantity < 1 {
		return shared.NewValidationError("quantity must be at least 1",
			shared.FieldError{Field: "quantity", Rule: "min", Message: "must be at least 1"})
	}

	if item.Quantity > MaxQuantity {
		return quantityTooLarge()
	}

	if i := c.indexOf(item.ProductID); i >= 0 {
		if item.Quantity > MaxQuantity-c.Items[i].Quantity {
			return quantityTooLarge()
		}
		c.Items[i].Quantity += item.Quantity
		return nil
	}

	if item.AddedAt.IsZero() {
		item.AddedAt = time.Now().UTC()
	}
	c.Items = append(c.Items, item)
	return nil
}

// RemoveItem deletes the line for productID. Absent products are ignored.
func (c *Cart) RemoveItem(productID string) {
	if i := c.indexOf(productID); i >= 0 {
		c.Items = append(c.Items[:i], c.Items[i+1:]...)
	}
}

// SetQuantity replaces the quantity of an existing line; quantity <= 0 removes it
func (c *Cart) SetQuantity(productID string, quantity int) error {
	if quantity <= 0 {
		c.RemoveItem(productID)
		return nil
	}
	if quantity > MaxQuantity {
		return quantityTooLarge()
	}
	if i := c.indexOf(productID); i >= 0 {
		c.Items[i].Quantity = quantity
	}
	return nil
}

// Clear empties the cart
func (c *Cart) Clear() {
	c.Items = nil
}

// IsEmpty reports whether the cart holds no lines
func (c *Cart) IsEmpty() bool {
	return len(c.Items) == 0
}

// Subtotal is the sum of unit price times quantity over every line
func (c *Cart) Subtotal() decimal.Decimal {
	sum := decimal.Zero
	for _, item := range c.Items {
		sum = sum.Add(item.LineTotal())
	}
	return sum
}

// Tax is the flat rate on the subtotal, rounded to cents
func (c *Cart) Tax() decimal.Decimal {
	return c.Subtotal().Mul(TaxRate).Round(2)
}

// Shipping is always free
func (c *Cart) Shipping() decimal.Decimal {
	return decimal.Zero
}

// Total is subtotal plus tax plus shipping
func (c *Cart) Total() decimal.Decimal {
	return c.Subtotal().Add(c.Tax()).Add(c.Shipping())
}

// Totals computes all derived amounts at once
func (c *Cart) Totals() Totals {
	t := Totals{
		ItemCount: len(c.Items),
		Subtotal:  c.Subtotal().Round(2),
		Tax:       c.Tax(),
		Shipping:  c.Shipping(),
		Total:     c.Total().Round(2),
	}
	for _, item := range c.Items {
		t.TotalQuantity += item.Quantity
	}
	return t
}

func (c *Cart) indexOf(productID string) int {
	for i := range c.Items {
		if c.Items[i].ProductID == productID {
			return i
		}
	}
	return -1
}

func quantityTooLarge() error {
	msg := fmt.Sprintf("must be at most %d", MaxQuantity)
	return shared.NewValidationError("quantity "+msg,
		shared.FieldError{Field: "quantity", Rule: "max", Message: msg})
}
