// internal/domain/product/review.go
package product

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Review is a buyer's rating of a product. A buyer reviews a product at most once.
type Review struct {
	ID        string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	ProductID string    `gorm:"type:varchar(36);not null;uniqueIndex:idx_reviews_product_user,priority:1" json:"product_id"`
	UserID    string    `gorm:"type:varchar(36);not null;uniqueIndex:idx_reviews_product_user,priority:2" json:"user_id"`
	Rating    int       `gorm:"not null" json:"rating" validate:"gte=1,lte=5"`
	Comment   string    `gorm:"type:text;not null" json:"comment" validate:"required,max=2000"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
}

// TableName overrides the table name
func (Review) TableName() string {
	return "reviews"
}

// BeforeCreate assigns an id when the caller did not
func (r *Review) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	return nil
}
