// internal/domain/product/review_service.go
package product

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/your-org/marketplace-backend/internal/domain/shared"
	"gorm.io/gorm"
)

// ReviewService handles review business logic
type ReviewService struct {
	db       *gorm.DB
	products Repository
	logger   *logrus.Logger
}

// NewReviewService creates a new review service
func NewReviewService(db *gorm.DB, products Repository, logger *logrus.Logger) *ReviewService {
	return &ReviewService{
		db:       db,
		products: products,
		logger:   logger,
	}
}

// reviewRow is a review joined with the reviewer's name
type reviewRow struct {
	Review
	UserName string
}

// AddReview records a buyer's review. A second review of the same product by the
// same buyer is rejected with ErrAlreadyReviewed and the first one is kept.
func (s *ReviewService) AddReview(ctx context.Context, productID, userID string, req *CreateReviewRequest) (*ReviewResponse, error) {
	review := Review{
		ProductID: productID,
		UserID:    userID,
		Rating:    req.Rating,
		Comment:   strings.TrimSpace(req.Comment),
	}
	if err := validate.Struct(&review); err != nil {
		return nil, shared.FromValidator(err)
	}

	if _, err := s.products.FindByID(ctx, productID); err != nil {
		return nil, err
	}

	var existing int64
	err := s.db.WithContext(ctx).
		Model(&Review{}).
		Where("product_id = ? AND user_id = ?", productID, userID).
		Count(&existing).Error
	if err != nil {
		return nil, fmt.Errorf("failed to check existing review: %w", err)
	}
	if existing > 0 {
		return nil, shared.ErrAlreadyReviewed
	}

	if err := s.db.WithContext(ctx).Create(&review).Error; err != nil {
		// lost a race with a concurrent submission by the same buyer
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, shared.ErrAlreadyReviewed
		}
		return nil, fmt.Errorf("failed to create review: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"review_id":  review.ID,
		"product_id": productID,
		"user_id":    userID,
		"rating":     review.Rating,
	}).Info("review added")

	row, err := s.findRow(s.joined(ctx).Where("reviews.id = ?", review.ID))
	if err != nil {
		return nil, err
	}
	resp := row.toResponse()
	return &resp, nil
}

// ListForProduct returns a product's reviews, newest first
func (s *ReviewService) ListForProduct(ctx context.Context, productID string) (*ReviewListResponse, error) {
	var rows []reviewRow
	err := s.joined(ctx).
		Where("reviews.product_id = ?", productID).
		Order("reviews.created_at DESC").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve reviews: %w", err)
	}

	resp := &ReviewListResponse{Reviews: make([]ReviewResponse, len(rows))}
	total := 0
	for i, row := range rows {
		resp.Reviews[i] = row.toResponse()
		total += row.Rating
	}

	resp.Summary.TotalReviews = len(rows)
	if len(rows) > 0 {
		avg := float64(total) / float64(len(rows))
		resp.Summary.AverageRating = math.Round(avg*10) / 10
	}
	return resp, nil
}

// joined selects reviews with the reviewer's name. Reviewers are a weak
// reference, so a missing buyer yields an empty name rather than dropping the review.
func (s *ReviewService) joined(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx).
		Table("reviews").
		Select("reviews.*, COALESCE(buyers.name, '') AS user_name").
		Joins("LEFT JOIN buyers ON buyers.id = reviews.user_id")
}

func (s *ReviewService) findRow(query *gorm.DB) (*reviewRow, error) {
	var row reviewRow
	result := query.Limit(1).Scan(&row)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to load review: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, shared.ErrNotFound
	}
	return &row, nil
}

func (r reviewRow) toResponse() ReviewResponse {
	return ReviewResponse{
		ID:        r.ID,
		ProductID: r.ProductID,
		UserID:    r.UserID,
		UserName:  r.UserName,
		Rating:    r.Rating,
		Comment:   r.Comment,
		CreatedAt: r.CreatedAt,
	}
}
