// internal/domain/user/service.go
package user

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/your-org/marketplace-backend/internal/domain/shared"
	"github.com/your-org/marketplace-backend/internal/pkg/auth"
	"gorm.io/gorm"
)

var validate = shared.NewValidator()

// WelcomeSender greets new accounts
type WelcomeSender interface {
	SendWelcome(ctx context.Context, p auth.Principal) error
}

// Service handles signup, login and profiles for buyers and sellers
type Service struct {
	db              *gorm.DB
	passwordManager *auth.PasswordManager
	jwtManager      *auth.JWTManager
	welcome         WelcomeSender
	logger          *logrus.Logger
}

// NewService creates a new user service. welcome may be nil.
func NewService(db *gorm.DB, passwords *auth.PasswordManager, tokens *auth.JWTManager, welcome WelcomeSender, logger *logrus.Logger) *Service {
	return &Service{
		db:              db,
		passwordManager: passwords,
		jwtManager:      tokens,
		welcome:         welcome,
		logger:          logger,
	}
}

// SignupRequest represents buyer registration data
type SignupRequest struct {
	Name        string `json:"name" binding:"required"`
	Email       string `json:"email" binding:"required,email"`
	Password    string `json:"password" binding:"required"`
	PhoneNumber string `json:"phone_number"`
	Avatar      string `json:"avatar"`
}

// SellerSignupRequest represents seller registration data
type SellerSignupRequest struct {
	SignupRequest
	BusinessName        string `json:"business_name"`
	BusinessDescription string `json:"business_description"`
}

// LoginRequest represents login data for either kind
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// UpdateProfileRequest lists the mutable profile fields
type UpdateProfileRequest struct {
	Name                *string `json:"name"`
	PhoneNumber         *string `json:"phone_number"`
	Avatar              *string `json:"avatar"`
	BusinessName        *string `json:"business_name"`
	BusinessDescription *string `json:"business_description"`
}

// AuthResponse represents authentication response
type AuthResponse struct {
	User        *Profile     `json:"user"`
	AccessToken string       `json:"access_token"`
	TokenType   string       `json:"token_type"`
	ExpiresIn   int64        `json:"expires_in"`
	ExpiresAt   time.Time    `json:"expires_at"`
	Claims      *auth.Claims `json:"-"`
}

// SignupBuyer creates a buyer account and signs them in
func (s *Service) SignupBuyer(ctx context.Context, req *SignupRequest) (*AuthResponse, error) {
	acct, err := s.newAccount(req)
	if err != nil {
		return nil, err
	}

	buyer := &Buyer{Account: *acct}
	if err := s.create(ctx, buyer, &buyer.Account); err != nil {
		return nil, err
	}

	s.greet(ctx, buyer.Principal())
	return s.issue(buyer.Principal(), buyer.Profile())
}

// SignupSeller creates a seller account and signs them in
func (s *Service) SignupSeller(ctx context.Context, req *SellerSignupRequest) (*AuthResponse, error) {
	acct, err := s.newAccount(&req.SignupRequest)
	if err != nil {
		return nil, err
	}

	seller := &Seller{
		Account:             *acct,
		BusinessName:        strings.TrimSpace(req.BusinessName),
		BusinessDescription: strings.TrimSpace(req.BusinessDescription),
	}
	if err := validate.Struct(seller); err != nil {
		return nil, shared.FromValidator(err)
	}
	if err := s.create(ctx, seller, &seller.Account); err != nil {
		return nil, err
	}

	s.greet(ctx, seller.Principal())
	return s.issue(seller.Principal(), seller.Profile())
}

// LoginBuyer authenticates a buyer
func (s *Service) LoginBuyer(ctx context.Context, req *LoginRequest) (*AuthResponse, error) {
	var buyer Buyer
	if err := s.authenticate(ctx, &buyer, &buyer.Account, req); err != nil {
		return nil, err
	}
	return s.issue(buyer.Principal(), buyer.Profile())
}

// LoginSeller authenticates a seller
func (s *Service) LoginSeller(ctx context.Context, req *LoginRequest) (*AuthResponse, error) {
	var seller Seller
	if err := s.authenticate(ctx, &seller, &seller.Account, req); err != nil {
		return nil, err
	}
	return s.issue(seller.Principal(), seller.Profile())
}

// GetBuyer gets buyer profile by ID
func (s *Service) GetBuyer(ctx context.Context, id string) (*Profile, error) {
	var buyer Buyer
	if err := s.findByID(ctx, &buyer, id); err != nil {
		return nil, err
	}
	return buyer.Profile(), nil
}

// GetSeller gets seller profile by ID
func (s *Service) GetSeller(ctx context.Context, id string) (*Profile, error) {
	var seller Seller
	if err := s.findByID(ctx, &seller, id); err != nil {
		return nil, err
	}
	return seller.Profile(), nil
}

// UpdateBuyer updates the buyer's own profile. Business fields are ignored.
func (s *Service) UpdateBuyer(ctx context.Context, id string, req *UpdateProfileRequest) (*Profile, error) {
	var buyer Buyer
	if err := s.findByID(ctx, &buyer, id); err != nil {
		return nil, err
	}

	applyAccount(&buyer.Account, req)
	if err := validate.Struct(&buyer); err != nil {
		return nil, shared.FromValidator(err)
	}

	err := s.db.WithContext(ctx).Model(&buyer).
		Select("name", "phone_number", "avatar", "updated_at").
		Updates(&buyer).Error
	if err != nil {
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}
	return buyer.Profile(), nil
}

// UpdateSeller updates the seller's own profile
func (s *Service) UpdateSeller(ctx context.Context, id string, req *UpdateProfileRequest) (*Profile, error) {
	var seller Seller
	if err := s.findByID(ctx, &seller, id); err != nil {
		return nil, err
	}

	applyAccount(&seller.Account, req)
	if req.BusinessName != nil {
		seller.BusinessName = strings.TrimSpace(*req.BusinessName)
	}
	if req.BusinessDescription != nil {
		seller.BusinessDescription = strings.TrimSpace(*req.BusinessDescription)
	}
	if err := validate.Struct(&seller); err != nil {
		return nil, shared.FromValidator(err)
	}

	err := s.db.WithContext(ctx).Model(&seller).
		Select("name", "phone_number", "avatar", "business_name", "business_description", "updated_at").
		Updates(&seller).Error
	if err != nil {
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}
	return seller.Profile(), nil
}

// ListSellers returns the public directory of sellers
func (s *Service) ListSellers(ctx context.Context) ([]SellerSummary, error) {
	sellers := []SellerSummary{}
	err := s.db.WithContext(ctx).Model(&Seller{}).
		Select("id", "name", "business_name").
		Order("name ASC").
		Scan(&sellers).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list sellers: %w", err)
	}
	return sellers, nil
}

func (s *Service) newAccount(req *SignupRequest) (*Account, error) {
	acct := &Account{
		Name:        strings.TrimSpace(req.Name),
		Email:       NormalizeEmail(req.Email),
		PhoneNumber: strings.TrimSpace(req.PhoneNumber),
		Avatar:      strings.TrimSpace(req.Avatar),
	}
	if err := validate.Struct(acct); err != nil {
		return nil, shared.FromValidator(err)
	}

	hash, err := s.passwordManager.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}
	acct.PasswordHash = hash
	return acct, nil
}

// create inserts a buyer or seller; duplicate emails surface as ErrDuplicateEmail
func (s *Service) create(ctx context.Context, model interface{}, acct *Account) error {
	var existing int64
	err := s.db.WithContext(ctx).Model(model).Where("email = ?", acct.Email).Count(&existing).Error
	if err != nil {
		return fmt.Errorf("failed to check email: %w", err)
	}
	if existing > 0 {
		return shared.ErrDuplicateEmail
	}

	err = s.db.WithContext(ctx).Create(model).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return shared.ErrDuplicateEmail
	}
	if err != nil {
		return fmt.Errorf("failed to create account: %w", err)
	}

	s.logger.WithField("account_id", acct.ID).Info("Account created")
	return nil
}

func (s *Service) authenticate(ctx context.Context, model interface{}, acct *Account, req *LoginRequest) error {
	err := s.db.WithContext(ctx).Where("email = ?", NormalizeEmail(req.Email)).First(model).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return shared.ErrUnauthorized
	}
	if err != nil {
		return fmt.Errorf("failed to load account: %w", err)
	}

	if err := s.passwordManager.VerifyPassword(req.Password, acct.PasswordHash); err != nil {
		return shared.ErrUnauthorized
	}
	return nil
}

func (s *Service) findByID(ctx context.Context, model interface{}, id string) error {
	err := s.db.WithContext(ctx).Where("id = ?", id).First(model).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return shared.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to load account: %w", err)
	}
	return nil
}

func (s *Service) issue(p auth.Principal, profile *Profile) (*AuthResponse, error) {
	token, claims, err := s.jwtManager.Issue(p)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}

	return &AuthResponse{
		User:        profile,
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   int64(time.Until(claims.ExpiresAt.Time).Seconds()),
		ExpiresAt:   claims.ExpiresAt.Time,
		Claims:      claims,
	}, nil
}

func (s *Service) greet(ctx context.Context, p auth.Principal) {
	if s.welcome == nil {
		return
	}
	if err := s.welcome.SendWelcome(ctx, p); err != nil {
		s.logger.WithError(err).WithField("account_id", p.ID).Warn("Failed to send welcome email")
	}
}

func applyAccount(acct *Account, req *UpdateProfileRequest) {
	if req.Name != nil {
		acct.Name = strings.TrimSpace(*req.Name)
	}
	if req.PhoneNumber != nil {
		acct.PhoneNumber = strings.TrimSpace(*req.PhoneNumber)
	}
	if req.Avatar != nil {
		acct.Avatar = strings.TrimSpace(*req.Avatar)
	}
	acct.UpdatedAt = time.Now().UTC()
}
