package product

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/your-org/marketplace-backend/internal/domain/shared"
	"github.com/your-org/marketplace-backend/internal/pkg/logger"
	"github.com/your-org/marketplace-backend/internal/pkg/testutil"
)

// buyerRow stands in for the buyers table the review listing joins against
type buyerRow struct {
	ID   string `gorm:"primaryKey"`
	Name string
}

func (buyerRow) TableName() string { return "buyers" }

type reviewFixture struct {
	svc     *ReviewService
	product *Product
}

func newReviewFixture(t *testing.T) reviewFixture {
	t.Helper()
	db := testutil.NewSQLiteDB(t, &Product{}, &Review{}, &buyerRow{})
	repo := NewGormRepository(db)

	p := &Product{Name: "Pepper", Price: decimal.NewFromInt(3), Category: "Spices", ImageURL: "https://img", Stock: 1}
	require.NoError(t, repo.Create(context.Background(), p))
	require.NoError(t, db.Create(&buyerRow{ID: "buyer-1", Name: "Asha"}).Error)
	require.NoError(t, db.Create(&buyerRow{ID: "buyer-2", Name: "Ravi"}).Error)

	return reviewFixture{svc: NewReviewService(db, repo, logger.Discard()), product: p}
}

func TestReviewService_AddReview(t *testing.T) {
	ctx := context.Background()

	t.Run("stores the review with the reviewer name", func(t *testing.T) {
		f := newReviewFixture(t)

		review, err := f.svc.AddReview(ctx, f.product.ID, "buyer-1", &CreateReviewRequest{Rating: 5, Comment: " Lovely aroma "})
		require.NoError(t, err)
		assert.Equal(t, "Asha", review.UserName)
		assert.Equal(t, "Lovely aroma", review.Comment)
		assert.Equal(t, 5, review.Rating)
	})

	t.Run("second review by the same buyer is rejected", func(t *testing.T) {
		f := newReviewFixture(t)

		_, err := f.svc.AddReview(ctx, f.product.ID, "buyer-1", &CreateReviewRequest{Rating: 4, Comment: "Good"})
		require.NoError(t, err)
		_, err = f.svc.AddReview(ctx, f.product.ID, "buyer-2", &CreateReviewRequest{Rating: 2, Comment: "Meh"})
		require.NoError(t, err)

		_, err = f.svc.AddReview(ctx, f.product.ID, "buyer-1", &CreateReviewRequest{Rating: 1, Comment: "Changed my mind"})
		assert.ErrorIs(t, err, shared.ErrAlreadyReviewed)

		list, err := f.svc.ListForProduct(ctx, f.product.ID)
		require.NoError(t, err)
		require.Len(t, list.Reviews, 2)
		for _, r := range list.Reviews {
			if r.UserID == "buyer-1" {
				assert.Equal(t, 4, r.Rating)
			}
		}
	})

	t.Run("unique index rejects a concurrent duplicate", func(t *testing.T) {
		f := newReviewFixture(t)

		require.NoError(t, f.svc.db.Create(&Review{ProductID: f.product.ID, UserID: "buyer-1", Rating: 3, Comment: "first"}).Error)
		err := f.svc.db.Create(&Review{ProductID: f.product.ID, UserID: "buyer-1", Rating: 3, Comment: "second"}).Error
		assert.Error(t, err)
	})

	t.Run("rating must be between one and five", func(t *testing.T) {
		f := newReviewFixture(t)

		for _, rating := range []int{0, 6, -1} {
			_, err := f.svc.AddReview(ctx, f.product.ID, "buyer-1", &CreateReviewRequest{Rating: rating, Comment: "x"})
			var verr *shared.ValidationError
			assert.ErrorAs(t, err, &verr, "rating %d", rating)
		}
	})

	t.Run("comment must not be blank", func(t *testing.T) {
		f := newReviewFixture(t)

		_, err := f.svc.AddReview(ctx, f.product.ID, "buyer-1", &CreateReviewRequest{Rating: 3, Comment: "   "})
		var verr *shared.ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, "comment", verr.Fields[0].Field)
	})

	t.Run("unknown product is not found", func(t *testing.T) {
		f := newReviewFixture(t)

		_, err := f.svc.AddReview(ctx, "missing", "buyer-1", &CreateReviewRequest{Rating: 3, Comment: "x"})
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}

func TestReviewService_ListForProduct(t *testing.T) {
	ctx := context.Background()
	f := newReviewFixture(t)
	db := f.svc.db

	base := time.Now().Add(-time.Hour)
	require.NoError(t, db.Create(&Review{ProductID: f.product.ID, UserID: "buyer-1", Rating: 4, Comment: "older", CreatedAt: base}).Error)
	require.NoError(t, db.Create(&Review{ProductID: f.product.ID, UserID: "ghost", Rating: 5, Comment: "newer", CreatedAt: base.Add(time.Minute)}).Error)

	list, err := f.svc.ListForProduct(ctx, f.product.ID)
	require.NoError(t, err)

	require.Len(t, list.Reviews, 2)
	assert.Equal(t, "newer", list.Reviews[0].Comment)
	assert.Equal(t, "", list.Reviews[0].UserName)
	assert.Equal(t, "older", list.Reviews[1].Comment)
	assert.Equal(t, "Asha", list.Reviews[1].UserName)
	assert.Equal(t, 2, list.Summary.TotalReviews)
	assert.Equal(t, 4.5, list.Summary.AverageRating)

	empty, err := f.svc.ListForProduct(ctx, "other")
	require.NoError(t, err)
	assert.Empty(t, empty.Reviews)
	assert.Zero(t, empty.Summary.AverageRating)
}
