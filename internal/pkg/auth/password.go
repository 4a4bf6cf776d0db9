// internal/pkg/auth/password.go
package auth

import (
	"fmt"

	"github.com/your-org/marketplace-backend/internal/config"
	"github.com/your-org/marketplace-backend/internal/domain/shared"
	"golang.org/x/crypto/bcrypt"
)

const (
	minPasswordLength = 8
	// bcrypt ignores everything past 72 bytes
	maxPasswordBytes = 72
)

// PasswordManager handles password operations
type PasswordManager struct {
	cost int
}

// NewPasswordManager creates a new password manager
func NewPasswordManager(cfg *config.Config) *PasswordManager {
	cost := cfg.Security.BcryptCost
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &PasswordManager{cost: cost}
}

// HashPassword hashes a password using bcrypt
func (p *PasswordManager) HashPassword(password string) (string, error) {
	if err := p.ValidatePassword(password); err != nil {
		return "", err
	}

	hashedBytes, err := bcrypt.GenerateFromPassword([]byte(password), p.cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}

	return string(hashedBytes), nil
}

// VerifyPassword verifies a password against its hash in constant time
func (p *PasswordManager) VerifyPassword(password, hash string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
}

// ValidatePassword checks the password length bounds
func (p *PasswordManager) ValidatePassword(password string) error {
	if len(password) < minPasswordLength {
		return shared.NewValidationError("invalid password", shared.FieldError{
			Field:   "password",
			Rule:    "min",
			Message: fmt.Sprintf("password must be at least %d characters long", minPasswordLength),
		})
	}
	if len(password) > maxPasswordBytes {
		return shared.NewValidationError("invalid password", shared.FieldError{
			Field:   "password",
			Rule:    "max",
			Message: fmt.Sprintf("password must be no more than %d bytes long", maxPasswordBytes),
		})
	}
	return nil
}
