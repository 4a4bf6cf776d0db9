// internal/domain/user/entity.go
package user

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/your-org/marketplace-backend/internal/pkg/auth"
	"gorm.io/gorm"
)

// Account holds the fields buyers and sellers share
type Account struct {
	ID           string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	Name         string    `gorm:"size:100;not null" json:"name" validate:"required,max=100"`
	Email        string    `gorm:"uniqueIndex;not null;size:255" json:"email" validate:"required,email,max=255"`
	PasswordHash string    `gorm:"not null;size:255" json:"-"`
	PhoneNumber  string    `gorm:"size:20" json:"phone_number" validate:"max=20"`
	Avatar       string    `gorm:"size:500" json:"avatar" validate:"max=500"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// BeforeCreate assigns an id and normalizes the email
func (a *Account) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	a.Email = NormalizeEmail(a.Email)
	return nil
}

// Buyer is a principal that shops, reviews and checks out
type Buyer struct {
	Account
}

// Seller is a principal that owns catalog products
type Seller struct {
	Account
	BusinessName        string `gorm:"size:100" json:"business_name" validate:"max=100"`
	BusinessDescription string `gorm:"size:500" json:"business_description" validate:"max=500"`
}

// TableName overrides the table name for Buyer
func (Buyer) TableName() string {
	return "buyers"
}

// TableName overrides the table name for Seller
func (Seller) TableName() string {
	return "sellers"
}

// Principal returns the token subject for the buyer
func (b *Buyer) Principal() auth.Principal {
	return auth.Principal{ID: b.ID, Name: b.Name, Email: b.Email, Kind: auth.KindBuyer}
}

// Principal returns the token subject for the seller
func (s *Seller) Principal() auth.Principal {
	return auth.Principal{ID: s.ID, Name: s.Name, Email: s.Email, Kind: auth.KindSeller}
}

// Profile is the public view of a principal
type Profile struct {
	ID                  string    `json:"id"`
	Kind                auth.Kind `json:"kind"`
	Name                string    `json:"name"`
	Email               string    `json:"email"`
	PhoneNumber         string    `json:"phone_number"`
	Avatar              string    `json:"avatar"`
	BusinessName        string    `json:"business_name,omitempty"`
	BusinessDescription string    `json:"business_description,omitempty"`
	CreatedAt           time.Time `json:"created_at"`
}

// Profile returns the buyer's public view
func (b *Buyer) Profile() *Profile {
	return &Profile{
		ID:          b.ID,
		Kind:        auth.KindBuyer,
		Name:        b.Name,
		Email:       b.Email,
		PhoneNumber: b.PhoneNumber,
		Avatar:      b.Avatar,
		CreatedAt:   b.CreatedAt,
	}
}

// Profile returns the seller's public view
func (s *Seller) Profile() *Profile {
	return &Profile{
		ID:                  s.ID,
		Kind:                auth.KindSeller,
		Name:                s.Name,
		Email:               s.Email,
		PhoneNumber:         s.PhoneNumber,
		Avatar:              s.Avatar,
		BusinessName:        s.BusinessName,
		BusinessDescription: s.BusinessDescription,
		CreatedAt:           s.CreatedAt,
	}
}

// SellerSummary is what anyone may see about a seller
type SellerSummary struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	BusinessName string `json:"business_name"`
}

// NormalizeEmail trims and lowercases an email address
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
