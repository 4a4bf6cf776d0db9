// internal/domain/product/review_dto.go
package product

import "time"

// CreateReviewRequest represents the request to create a review
type CreateReviewRequest struct {
	Rating  int    `json:"rating" binding:"required"`
	Comment string `json:"comment" binding:"required"`
}

// ReviewResponse represents a single review with the reviewer's display name
type ReviewResponse struct {
	ID        string    `json:"id"`
	ProductID string    `json:"product_id"`
	UserID    string    `json:"user_id"`
	UserName  string    `json:"user_name"`
	Rating    int       `json:"rating"`
	Comment   string    `json:"comment"`
	CreatedAt time.Time `json:"created_at"`
}

// ReviewListResponse represents every review of a product
type ReviewListResponse struct {
	Reviews []ReviewResponse `json:"reviews"`
	Summary ReviewSummary    `json:"summary"`
}

// ReviewSummary provides review statistics
type ReviewSummary struct {
	TotalReviews  int     `json:"total_reviews"`
	AverageRating float64 `json:"average_rating"`
}
