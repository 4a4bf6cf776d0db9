package product

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/your-org/marketplace-backend/internal/domain/shared"
	"github.com/your-org/marketplace-backend/internal/pkg/logger"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	return NewService(newSQLiteRepository(t), logger.Discard())
}

func validCreateRequest() *CreateProductRequest {
	price := decimal.RequireFromString("12.50")
	stock := 7
	return &CreateProductRequest{
		Name:        "  Ceylon Cinnamon  ",
		Price:       &price,
		Stock:       &stock,
		Category:    "Spices",
		ImageURL:    "https://cdn.example.com/cinnamon.png",
		Description: "Sweet and fragrant",
	}
}

func fieldNames(err error) []string {
	var verr *shared.ValidationError
	if !errors.As(err, &verr) {
		return nil
	}
	names := make([]string, len(verr.Fields))
	for i, f := range verr.Fields {
		names[i] = f.Field
	}
	return names
}

func TestService_CreateProduct(t *testing.T) {
	ctx := context.Background()

	t.Run("round-trips every field", func(t *testing.T) {
		svc := newTestService(t)

		created, err := svc.CreateProduct(ctx, "seller-1", validCreateRequest())
		require.NoError(t, err)
		require.NotEmpty(t, created.ID)
		require.NotNil(t, created.SellerID)
		assert.Equal(t, "seller-1", *created.SellerID)
		assert.False(t, created.CreatedAt.IsZero())

		fetched, err := svc.GetProduct(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, "Ceylon Cinnamon", fetched.Name)
		assert.True(t, fetched.Price.Equal(decimal.RequireFromString("12.50")))
		assert.Equal(t, 7, fetched.Stock)
		assert.Equal(t, "Spices", fetched.Category)
		assert.Equal(t, "https://cdn.example.com/cinnamon.png", fetched.ImageURL)
		assert.Equal(t, "Sweet and fragrant", fetched.Description)
	})

	t.Run("stock defaults to zero", func(t *testing.T) {
		svc := newTestService(t)
		req := validCreateRequest()
		req.Stock = nil

		created, err := svc.CreateProduct(ctx, "seller-1", req)
		require.NoError(t, err)

		fetched, err := svc.GetProduct(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, 0, fetched.Stock)
	})

	t.Run("rejects out-of-range fields", func(t *testing.T) {
		svc := newTestService(t)
		req := validCreateRequest()
		negative := decimal.NewFromInt(-1)
		stock := -3
		req.Name = strings.Repeat("n", 101)
		req.Price = &negative
		req.Stock = &stock
		req.Category = "   "
		req.ImageURL = ""
		req.Description = strings.Repeat("d", 501)

		_, err := svc.CreateProduct(ctx, "seller-1", req)

		assert.ElementsMatch(t,
			[]string{"name", "price", "stock", "category", "image_url", "description"},
			fieldNames(err))
	})

	t.Run("requires a price", func(t *testing.T) {
		svc := newTestService(t)
		req := validCreateRequest()
		req.Price = nil

		_, err := svc.CreateProduct(ctx, "seller-1", req)
		assert.Equal(t, []string{"price"}, fieldNames(err))
	})
}

func TestService_GetProduct_NotFound(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.GetProduct(context.Background(), "nope")
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestService_UpdateProduct(t *testing.T) {
	ctx := context.Background()

	t.Run("applies a partial update", func(t *testing.T) {
		svc := newTestService(t)
		created, err := svc.CreateProduct(ctx, "seller-1", validCreateRequest())
		require.NoError(t, err)

		price := decimal.RequireFromString("9.999")
		name := "Cassia"
		updated, err := svc.UpdateProduct(ctx, "seller-1", created.ID, &UpdateProductRequest{Name: &name, Price: &price})
		require.NoError(t, err)
		assert.Equal(t, "Cassia", updated.Name)
		assert.Equal(t, "10", updated.Price.String())

		fetched, err := svc.GetProduct(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, "Cassia", fetched.Name)
		assert.Equal(t, "Spices", fetched.Category)
		assert.Equal(t, 7, fetched.Stock)
	})

	t.Run("re-validates the merged product", func(t *testing.T) {
		svc := newTestService(t)
		created, err := svc.CreateProduct(ctx, "seller-1", validCreateRequest())
		require.NoError(t, err)

		empty := ""
		_, err = svc.UpdateProduct(ctx, "seller-1", created.ID, &UpdateProductRequest{Category: &empty})
		assert.Equal(t, []string{"category"}, fieldNames(err))

		fetched, err := svc.GetProduct(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, "Spices", fetched.Category)
	})

	t.Run("only the owner may update", func(t *testing.T) {
		svc := newTestService(t)
		created, err := svc.CreateProduct(ctx, "seller-1", validCreateRequest())
		require.NoError(t, err)

		name := "Stolen"
		_, err = svc.UpdateProduct(ctx, "seller-2", created.ID, &UpdateProductRequest{Name: &name})
		assert.ErrorIs(t, err, shared.ErrForbidden)
	})

	t.Run("missing product is not found", func(t *testing.T) {
		svc := newTestService(t)

		_, err := svc.UpdateProduct(ctx, "seller-1", "missing", &UpdateProductRequest{})
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}

// sellingRepository sells units of a product right after the next read of it,
// the way a checkout can land between a seller's read and write.
type sellingRepository struct {
	Repository
	sell int
}

func (r *sellingRepository) FindByID(ctx context.Context, id string) (*Product, error) {
	p, err := r.Repository.FindByID(ctx, id)
	if err == nil && r.sell > 0 {
		qty := r.sell
		r.sell = 0
		if _, err := r.Repository.DecrementStock(ctx, id, qty); err != nil {
			return nil, err
		}
	}
	return p, err
}

func TestService_UpdateProduct_ConcurrentCheckout(t *testing.T) {
	ctx := context.Background()

	t.Run("descriptive update keeps stock sold meanwhile", func(t *testing.T) {
		repo := &sellingRepository{Repository: newSQLiteRepository(t)}
		svc := NewService(repo, logger.Discard())
		created, err := svc.CreateProduct(ctx, "seller-1", validCreateRequest())
		require.NoError(t, err)

		repo.sell = 7
		name := "Cassia"
		updated, err := svc.UpdateProduct(ctx, "seller-1", created.ID, &UpdateProductRequest{Name: &name})
		require.NoError(t, err)
		assert.Equal(t, "Cassia", updated.Name)
		assert.Equal(t, 0, updated.Stock)

		fetched, err := svc.GetProduct(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, 0, fetched.Stock)
	})

	t.Run("restock over a stale read is refused", func(t *testing.T) {
		repo := &sellingRepository{Repository: newSQLiteRepository(t)}
		svc := NewService(repo, logger.Discard())
		created, err := svc.CreateProduct(ctx, "seller-1", validCreateRequest())
		require.NoError(t, err)

		repo.sell = 2
		stock := 20
		_, err = svc.UpdateProduct(ctx, "seller-1", created.ID, &UpdateProductRequest{Stock: &stock})
		assert.ErrorIs(t, err, shared.ErrStockChanged)

		fetched, err := svc.GetProduct(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, 5, fetched.Stock)
	})

	t.Run("restock without interference", func(t *testing.T) {
		svc := newTestService(t)
		created, err := svc.CreateProduct(ctx, "seller-1", validCreateRequest())
		require.NoError(t, err)

		stock := 20
		updated, err := svc.UpdateProduct(ctx, "seller-1", created.ID, &UpdateProductRequest{Stock: &stock})
		require.NoError(t, err)
		assert.Equal(t, 20, updated.Stock)
	})
}

func TestService_DeleteProduct(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)
	created, err := svc.CreateProduct(ctx, "seller-1", validCreateRequest())
	require.NoError(t, err)

	assert.ErrorIs(t, svc.DeleteProduct(ctx, "seller-2", created.ID), shared.ErrForbidden)
	require.NoError(t, svc.DeleteProduct(ctx, "seller-1", created.ID))
	assert.ErrorIs(t, svc.DeleteProduct(ctx, "seller-1", created.ID), shared.ErrNotFound)
}

func TestService_ListSellerProducts(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)
	_, err := svc.CreateProduct(ctx, "seller-1", validCreateRequest())
	require.NoError(t, err)
	_, err = svc.CreateProduct(ctx, "seller-2", validCreateRequest())
	require.NoError(t, err)

	products, err := svc.ListSellerProducts(ctx, "seller-1", "seller-1")
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, "seller-1", *products[0].SellerID)

	_, err = svc.ListSellerProducts(ctx, "seller-2", "seller-1")
	assert.ErrorIs(t, err, shared.ErrForbidden)
}

func TestService_ListProducts(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)

	t.Run("empty catalog yields an empty page", func(t *testing.T) {
		resp, err := svc.ListProducts(ctx, &ProductListRequest{})
		require.NoError(t, err)
		assert.NotNil(t, resp.Products)
		assert.Empty(t, resp.Products)
		assert.Equal(t, 1, resp.Pagination.Page)
		assert.Equal(t, 20, resp.Pagination.Limit)

		categories, err := svc.ListCategories(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{}, categories)
	})

	t.Run("pagination metadata", func(t *testing.T) {
		for i := 0; i < 3; i++ {
			_, err := svc.CreateProduct(ctx, "seller-1", validCreateRequest())
			require.NoError(t, err)
		}

		resp, err := svc.ListProducts(ctx, &ProductListRequest{Page: 1, Limit: 2, Category: "Spices"})
		require.NoError(t, err)
		assert.Len(t, resp.Products, 2)
		assert.EqualValues(t, 3, resp.Pagination.Total)
		assert.Equal(t, 2, resp.Pagination.TotalPages)
		assert.True(t, resp.Pagination.HasNext)
		assert.False(t, resp.Pagination.HasPrev)
	})
}
