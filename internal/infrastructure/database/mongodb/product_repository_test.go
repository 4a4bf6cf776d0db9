package mongodb

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/your-org/marketplace-backend/internal/domain/product"
	"github.com/your-org/marketplace-backend/internal/domain/shared"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

func productDoc(t testing.TB, id string, stock int) bson.D {
	price, err := primitive.ParseDecimal128("12.50")
	require.NoError(t, err)
	return bson.D{
		{Key: "_id", Value: id},
		{Key: "seller_id", Value: "seller-1"},
		{Key: "name", Value: "Cardamom"},
		{Key: "price", Value: price},
		{Key: "stock", Value: stock},
		{Key: "category", Value: "spices"},
		{Key: "image_url", Value: "https://img.test/c.jpg"},
		{Key: "created_at", Value: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)},
	}
}

func TestDocumentRoundTrip(t *testing.T) {
	seller := "seller-1"
	p := &product.Product{ID: "p-1", SellerID: &seller, Name: "Cardamom", Price: decimal.RequireFromString("12.50"), Stock: 3}

	doc, err := toDocument(p)
	require.NoError(t, err)
	back, err := doc.toProduct()
	require.NoError(t, err)

	assert.True(t, p.Price.Equal(back.Price))
	assert.True(t, back.OwnedBy("seller-1"))
	assert.Equal(t, 3, back.Stock)
}

func TestProductRepository(t *testing.T) {
	ctx := context.Background()
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("find by id", func(mt *mtest.T) {
		repo := NewProductRepository(mt.DB)
		ns := mt.DB.Name() + "." + ProductCollection
		mt.AddMockResponses(mtest.CreateCursorResponse(1, ns, mtest.FirstBatch, productDoc(mt, "p-1", 4)))

		p, err := repo.FindByID(ctx, "p-1")
		require.NoError(mt, err)
		assert.Equal(mt, "Cardamom", p.Name)
		assert.Equal(mt, "12.5", p.Price.String())
		assert.True(mt, p.OwnedBy("seller-1"))
	})

	mt.Run("missing product", func(mt *mtest.T) {
		repo := NewProductRepository(mt.DB)
		ns := mt.DB.Name() + "." + ProductCollection
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch))

		_, err := repo.FindByID(ctx, "nope")
		assert.ErrorIs(mt, err, shared.ErrNotFound)
	})

	mt.Run("decrement returns the updated document", func(mt *mtest.T) {
		repo := NewProductRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "value", Value: productDoc(mt, "p-1", 1)}))

		p, err := repo.DecrementStock(ctx, "p-1", 3)
		require.NoError(mt, err)
		assert.Equal(mt, 1, p.Stock)
	})

	mt.Run("decrement short of stock reports availability", func(mt *mtest.T) {
		repo := NewProductRepository(mt.DB)
		ns := mt.DB.Name() + "." + ProductCollection
		mt.AddMockResponses(
			mtest.CreateSuccessResponse(bson.E{Key: "value", Value: nil}),
			mtest.CreateCursorResponse(1, ns, mtest.FirstBatch, productDoc(mt, "p-1", 2)),
		)

		_, err := repo.DecrementStock(ctx, "p-1", 5)
		var stockErr *shared.InsufficientStockError
		require.ErrorAs(mt, err, &stockErr)
		assert.Equal(mt, 2, stockErr.Available)
		assert.Equal(mt, 5, stockErr.Requested)
	})

	mt.Run("decrement rejects non-positive quantities", func(mt *mtest.T) {
		repo := NewProductRepository(mt.DB)
		_, err := repo.DecrementStock(ctx, "p-1", 0)
		var verr *shared.ValidationError
		assert.ErrorAs(mt, err, &verr)
	})

	mt.Run("increment on a deleted product", func(mt *mtest.T) {
		repo := NewProductRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}, bson.E{Key: "nModified", Value: 0}))

		assert.ErrorIs(mt, repo.IncrementStock(ctx, "gone", 1), shared.ErrNotFound)
	})

	mt.Run("set stock applies when unchanged", func(mt *mtest.T) {
		repo := NewProductRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}, bson.E{Key: "nModified", Value: 1}))

		assert.NoError(mt, repo.SetStock(ctx, "p-1", 4, 10))
	})

	mt.Run("set stock refuses a stale read", func(mt *mtest.T) {
		repo := NewProductRepository(mt.DB)
		ns := mt.DB.Name() + "." + ProductCollection
		mt.AddMockResponses(
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}, bson.E{Key: "nModified", Value: 0}),
			mtest.CreateCursorResponse(1, ns, mtest.FirstBatch, productDoc(mt, "p-1", 1)),
		)

		assert.ErrorIs(mt, repo.SetStock(ctx, "p-1", 4, 10), shared.ErrStockChanged)
	})

	mt.Run("set stock on a deleted product", func(mt *mtest.T) {
		repo := NewProductRepository(mt.DB)
		ns := mt.DB.Name() + "." + ProductCollection
		mt.AddMockResponses(
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}, bson.E{Key: "nModified", Value: 0}),
			mtest.CreateCursorResponse(0, ns, mtest.FirstBatch),
		)

		assert.ErrorIs(mt, repo.SetStock(ctx, "gone", 4, 10), shared.ErrNotFound)
	})

	mt.Run("delete missing product", func(mt *mtest.T) {
		repo := NewProductRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}))

		assert.ErrorIs(mt, repo.Delete(ctx, "gone"), shared.ErrNotFound)
	})

	mt.Run("categories are sorted", func(mt *mtest.T) {
		repo := NewProductRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "values", Value: bson.A{"tea", "spices"}}))

		categories, err := repo.Categories(ctx)
		require.NoError(mt, err)
		assert.Equal(mt, []string{"spices", "tea"}, categories)
	})

	mt.Run("create assigns id and timestamps", func(mt *mtest.T) {
		repo := NewProductRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse())

		p := &product.Product{Name: "Saffron", Price: decimal.RequireFromString("5"), Category: "spices"}
		require.NoError(mt, repo.Create(ctx, p))
		assert.NotEmpty(mt, p.ID)
		assert.False(mt, p.CreatedAt.IsZero())
	})
}
