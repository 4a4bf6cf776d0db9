package order

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/your-org/marketplace-backend/internal/domain/cart"
	"github.com/your-org/marketplace-backend/internal/domain/product"
	"github.com/your-org/marketplace-backend/internal/domain/session"
	"github.com/your-org/marketplace-backend/internal/domain/shared"
	"github.com/your-org/marketplace-backend/internal/pkg/logger"
	"github.com/your-org/marketplace-backend/internal/pkg/testutil"
	"gorm.io/gorm"
)

type recordedMetrics struct {
	mu        sync.Mutex
	states    map[CheckoutState]int
	conflicts int
	restored  int
}

func newRecordedMetrics() *recordedMetrics {
	return &recordedMetrics{states: map[CheckoutState]int{}}
}

func (m *recordedMetrics) CheckoutFinished(state CheckoutState) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.states[state]++
}

func (m *recordedMetrics) StockConflict() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.conflicts++
}

func (m *recordedMetrics) StockRestored() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.restored++
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []string
	err  error
}

func (n *recordingNotifier) SendOrderConfirmation(_ context.Context, o *Order) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, o.Reference)
	return n.err
}

type stubReceipts struct{}

func (stubReceipts) RenderReceipt(o *Order) ([]byte, error) {
	return []byte("%PDF " + o.Reference), nil
}

type fixture struct {
	db       *gorm.DB
	products *product.Service
	carts    *cart.Service
	svc      *Service
	metrics  *recordedMetrics
	notifier *recordingNotifier
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testutil.NewSQLiteDB(t, &product.Product{}, &Order{}, &OrderItem{})
	log := logger.Discard()

	products := product.NewService(product.NewGormRepository(db), log)
	carts := cart.NewService(session.NewMemoryStore(), products, time.Hour, log)
	metrics := newRecordedMetrics()
	notifier := &recordingNotifier{}

	svc := NewService(db, products, carts, Options{
		Notifier: notifier,
		Receipts: stubReceipts{},
		Metrics:  metrics,
	}, log)

	return &fixture{db: db, products: products, carts: carts, svc: svc, metrics: metrics, notifier: notifier}
}

func (f *fixture) product(t *testing.T, name, price string, stock int) *product.Product {
	t.Helper()
	p := &product.Product{
		Name:     name,
		Price:    decimal.RequireFromString(price),
		Stock:    stock,
		Category: "Kitchen",
		ImageURL: "https://img/" + name,
	}
	require.NoError(t, f.db.Create(p).Error)
	return p
}

func (f *fixture) add(t *testing.T, sessionID string, p *product.Product, qty int) {
	t.Helper()
	_, err := f.carts.AddItem(context.Background(), sessionID, &cart.AddItemRequest{ProductID: p.ID, Quantity: qty})
	require.NoError(t, err)
}

func (f *fixture) stockOf(t *testing.T, id string) int {
	t.Helper()
	p, err := f.products.GetProduct(context.Background(), id)
	require.NoError(t, err)
	return p.Stock
}

var buyer = Buyer{ID: "buyer-1", Name: "Asha", Email: "asha@example.com"}

func TestService_Checkout(t *testing.T) {
	ctx := context.Background()

	t.Run("confirms the order and takes the stock", func(t *testing.T) {
		f := newFixture(t)
		tea := f.product(t, "tea", "10.00", 5)
		mug := f.product(t, "mug", "5.00", 3)
		f.add(t, "s1", tea, 2)
		f.add(t, "s1", mug, 1)

		order, err := f.svc.Checkout(ctx, buyer, "s1")
		require.NoError(t, err)

		assert.Regexp(t, `^ORD-\d{8}-[0-9A-F]{8}$`, order.Reference)
		assert.Equal(t, StatusConfirmed, order.Status)
		assert.Equal(t, "25.00", order.Subtotal.StringFixed(2))
		assert.Equal(t, "2.50", order.Tax.StringFixed(2))
		assert.Equal(t, "0.00", order.Shipping.StringFixed(2))
		assert.Equal(t, "27.50", order.Total.StringFixed(2))
		assert.Len(t, order.Items, 2)
		assert.Equal(t, 3, order.ItemCount())

		assert.Equal(t, 3, f.stockOf(t, tea.ID))
		assert.Equal(t, 2, f.stockOf(t, mug.ID))

		c, err := f.carts.Load(ctx, "s1")
		require.NoError(t, err)
		assert.True(t, c.IsEmpty())

		assert.Equal(t, []string{order.Reference}, f.notifier.sent)
		assert.Equal(t, 1, f.metrics.states[StateSucceeded])
	})

	t.Run("charges the price seen at add time", func(t *testing.T) {
		f := newFixture(t)
		tea := f.product(t, "tea", "10.00", 5)
		f.add(t, "s1", tea, 1)

		require.NoError(t, f.db.Model(tea).Update("price", decimal.RequireFromString("50.00")).Error)

		order, err := f.svc.Checkout(ctx, buyer, "s1")
		require.NoError(t, err)
		assert.Equal(t, "10.00", order.Items[0].UnitPrice.StringFixed(2))
		assert.Equal(t, "11.00", order.Total.StringFixed(2))
	})

	t.Run("insufficient stock leaves stock and cart untouched", func(t *testing.T) {
		f := newFixture(t)
		tea := f.product(t, "tea", "10.00", 5)
		f.add(t, "s1", tea, 6)

		_, err := f.svc.Checkout(ctx, buyer, "s1")

		var stockErr *shared.InsufficientStockError
		require.ErrorAs(t, err, &stockErr)
		assert.Equal(t, tea.ID, stockErr.ProductID)
		assert.Equal(t, 6, stockErr.Requested)
		assert.Equal(t, 5, stockErr.Available)

		assert.Equal(t, 5, f.stockOf(t, tea.ID))
		c, err := f.carts.Load(ctx, "s1")
		require.NoError(t, err)
		require.Len(t, c.Items, 1)
		assert.Equal(t, 6, c.Items[0].Quantity)
		assert.Equal(t, 1, f.metrics.states[StateFailed])
		assert.Empty(t, f.notifier.sent)
	})

	t.Run("reports every failing line", func(t *testing.T) {
		f := newFixture(t)
		gone := f.product(t, "gone", "1.00", 5)
		short := f.product(t, "short", "1.00", 1)
		fine := f.product(t, "fine", "1.00", 9)
		f.add(t, "s1", gone, 1)
		f.add(t, "s1", short, 2)
		f.add(t, "s1", fine, 1)
		require.NoError(t, f.db.Delete(&product.Product{}, "id = ?", gone.ID).Error)

		_, err := f.svc.Checkout(ctx, buyer, "s1")
		require.Error(t, err)

		conflicts := shared.Conflicts(err)
		require.Len(t, conflicts, 2)
		var unavailable *shared.ProductUnavailableError
		require.ErrorAs(t, conflicts[0], &unavailable)
		assert.Equal(t, gone.ID, unavailable.ProductID)
		var stockErr *shared.InsufficientStockError
		require.ErrorAs(t, conflicts[1], &stockErr)
		assert.Equal(t, short.ID, stockErr.ProductID)

		assert.Equal(t, 9, f.stockOf(t, fine.ID))
		assert.Equal(t, 2, f.metrics.conflicts)
	})

	t.Run("empty cart is rejected", func(t *testing.T) {
		f := newFixture(t)

		_, err := f.svc.Checkout(ctx, buyer, "s1")
		var verr *shared.ValidationError
		assert.ErrorAs(t, err, &verr)
	})

	t.Run("notification failure does not fail the order", func(t *testing.T) {
		f := newFixture(t)
		f.notifier.err = errors.New("smtp down")
		tea := f.product(t, "tea", "10.00", 5)
		f.add(t, "s1", tea, 1)

		order, err := f.svc.Checkout(ctx, buyer, "s1")
		require.NoError(t, err)
		assert.Equal(t, []string{order.Reference}, f.notifier.sent)
	})
}

func TestService_Checkout_ConcurrentLastUnit(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	last := f.product(t, "last", "7.00", 1)

	const buyers = 8
	for i := 0; i < buyers; i++ {
		f.add(t, sessionName(i), last, 1)
	}

	var wg sync.WaitGroup
	results := make(chan error, buyers)
	for i := 0; i < buyers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := f.svc.Checkout(ctx, Buyer{ID: sessionName(i), Email: "b@example.com"}, sessionName(i))
			results <- err
		}(i)
	}
	wg.Wait()
	close(results)

	succeeded, rejected := 0, 0
	for err := range results {
		if err == nil {
			succeeded++
			continue
		}
		var stockErr *shared.InsufficientStockError
		require.ErrorAs(t, err, &stockErr)
		rejected++
	}

	assert.Equal(t, 1, succeeded)
	assert.Equal(t, buyers-1, rejected)
	assert.Equal(t, 0, f.stockOf(t, last.ID))

	var orders int64
	require.NoError(t, f.db.Model(&Order{}).Count(&orders).Error)
	assert.EqualValues(t, 1, orders)
}

func sessionName(i int) string {
	return "session-" + string(rune('a'+i))
}

type mockStock struct {
	mock.Mock
}

func (m *mockStock) GetProduct(ctx context.Context, id string) (*product.Product, error) {
	args := m.Called(ctx, id)
	p, _ := args.Get(0).(*product.Product)
	return p, args.Error(1)
}

func (m *mockStock) DecrementStock(ctx context.Context, id string, qty int) (*product.Product, error) {
	args := m.Called(ctx, id, qty)
	p, _ := args.Get(0).(*product.Product)
	return p, args.Error(1)
}

func (m *mockStock) IncrementStock(ctx context.Context, id string, qty int) error {
	return m.Called(ctx, id, qty).Error(0)
}

type memoryCarts struct {
	carts   map[string]*cart.Cart
	cleared int
}

func (m *memoryCarts) Load(_ context.Context, sessionID string) (*cart.Cart, error) {
	if c, ok := m.carts[sessionID]; ok {
		return c, nil
	}
	return &cart.Cart{}, nil
}

func (m *memoryCarts) Clear(_ context.Context, sessionID string) error {
	m.cleared++
	delete(m.carts, sessionID)
	return nil
}

func TestService_Checkout_RestoresStockWhenADecrementLosesARace(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewSQLiteDB(t, &Order{}, &OrderItem{})

	c := &cart.Cart{}
	require.NoError(t, c.AddItem(cart.LineItem{ProductID: "a", Quantity: 2, UnitPrice: decimal.NewFromInt(1)}))
	require.NoError(t, c.AddItem(cart.LineItem{ProductID: "b", Quantity: 1, UnitPrice: decimal.NewFromInt(1)}))
	require.NoError(t, c.AddItem(cart.LineItem{ProductID: "c", Quantity: 1, UnitPrice: decimal.NewFromInt(1)}))
	carts := &memoryCarts{carts: map[string]*cart.Cart{"s1": c}}

	stock := &mockStock{}
	for _, id := range []string{"a", "b", "c"} {
		stock.On("GetProduct", mock.Anything, id).Return(&product.Product{ID: id, Stock: 10}, nil)
	}
	stock.On("DecrementStock", mock.Anything, "a", 2).Return(&product.Product{ID: "a", Stock: 8}, nil).Once()
	stock.On("DecrementStock", mock.Anything, "b", 1).Return(&product.Product{ID: "b", Stock: 9}, nil).Once()
	stock.On("DecrementStock", mock.Anything, "c", 1).
		Return(nil, &shared.InsufficientStockError{ProductID: "c", Requested: 1, Available: 0}).Once()

	var restored []string
	stock.On("IncrementStock", mock.Anything, "b", 1).Return(nil).Once().
		Run(func(mock.Arguments) { restored = append(restored, "b") })
	stock.On("IncrementStock", mock.Anything, "a", 2).Return(nil).Once().
		Run(func(mock.Arguments) { restored = append(restored, "a") })

	metrics := newRecordedMetrics()
	svc := NewService(db, stock, carts, Options{Metrics: metrics}, logger.Discard())

	_, err := svc.Checkout(ctx, buyer, "s1")

	var stockErr *shared.InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, "c", stockErr.ProductID)
	assert.Equal(t, []string{"b", "a"}, restored)
	assert.Equal(t, 2, metrics.restored)
	assert.Equal(t, 0, carts.cleared)
	assert.Len(t, carts.carts["s1"].Items, 3)
	stock.AssertExpectations(t)

	t.Run("restore failures are reported with the cause", func(t *testing.T) {
		stock := &mockStock{}
		stock.On("GetProduct", mock.Anything, mock.Anything).Return(&product.Product{Stock: 10}, nil)
		stock.On("DecrementStock", mock.Anything, "a", 2).Return(&product.Product{}, nil).Once()
		stock.On("DecrementStock", mock.Anything, "b", 1).Return(nil, shared.ErrNotFound).Once()
		stock.On("IncrementStock", mock.Anything, "a", 2).Return(errors.New("connection reset")).Once()

		svc := NewService(db, stock, carts, Options{}, logger.Discard())
		_, err := svc.Checkout(ctx, buyer, "s1")

		var unavailable *shared.ProductUnavailableError
		require.ErrorAs(t, err, &unavailable)
		assert.Equal(t, "b", unavailable.ProductID)
		assert.Contains(t, err.Error(), "connection reset")
		stock.AssertExpectations(t)
	})
}

// cancellingStock cancels the request just before the decrement numbered cancelAt
type cancellingStock struct {
	StockKeeper
	cancel   context.CancelFunc
	cancelAt int
	calls    int
}

func (s *cancellingStock) DecrementStock(ctx context.Context, id string, qty int) (*product.Product, error) {
	s.calls++
	if s.calls == s.cancelAt {
		s.cancel()
	}
	return s.StockKeeper.DecrementStock(ctx, id, qty)
}

func TestService_Checkout_RestoresStockAfterRequestIsCancelled(t *testing.T) {
	f := newFixture(t)
	tea := f.product(t, "tea", "4.00", 5)
	mug := f.product(t, "mug", "9.00", 3)
	f.add(t, "s1", tea, 2)
	f.add(t, "s1", mug, 1)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stock := &cancellingStock{StockKeeper: f.products, cancel: cancel, cancelAt: 2}
	svc := NewService(f.db, stock, f.carts, Options{Metrics: f.metrics}, logger.Discard())

	_, err := svc.Checkout(ctx, buyer, "s1")
	require.ErrorIs(t, err, context.Canceled)

	assert.Equal(t, 5, f.stockOf(t, tea.ID), "stock taken before the cancellation is given back")
	assert.Equal(t, 3, f.stockOf(t, mug.ID))
	assert.Equal(t, 1, f.metrics.restored)

	var orders int64
	require.NoError(t, f.db.Model(&Order{}).Count(&orders).Error)
	assert.Zero(t, orders)

	kept, err := f.carts.Load(context.Background(), "s1")
	require.NoError(t, err)
	assert.Len(t, kept.Items, 2)
}

func TestService_Orders(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	tea := f.product(t, "tea", "10.00", 10)

	f.add(t, "s1", tea, 1)
	first, err := f.svc.Checkout(ctx, buyer, "s1")
	require.NoError(t, err)

	f.svc.now = func() time.Time { return time.Now().Add(time.Minute) }
	f.add(t, "s1", tea, 2)
	second, err := f.svc.Checkout(ctx, buyer, "s1")
	require.NoError(t, err)

	t.Run("lists the buyer's orders newest first", func(t *testing.T) {
		orders, err := f.svc.ListOrders(ctx, buyer.ID)
		require.NoError(t, err)
		require.Len(t, orders, 2)
		assert.Equal(t, second.Reference, orders[0].Reference)
		assert.Equal(t, first.Reference, orders[1].Reference)
		assert.Len(t, orders[0].Items, 1)

		none, err := f.svc.ListOrders(ctx, "someone-else")
		require.NoError(t, err)
		assert.Empty(t, none)
	})

	t.Run("orders of other buyers are not found", func(t *testing.T) {
		got, err := f.svc.GetOrder(ctx, buyer.ID, first.Reference)
		require.NoError(t, err)
		assert.Equal(t, "11.00", got.Total.StringFixed(2))

		_, err = f.svc.GetOrder(ctx, "someone-else", first.Reference)
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("renders receipts", func(t *testing.T) {
		doc, err := f.svc.Receipt(ctx, buyer.ID, second.Reference)
		require.NoError(t, err)
		assert.Equal(t, "%PDF "+second.Reference, string(doc))

		_, err = f.svc.Receipt(ctx, buyer.ID, "ORD-00000000-DEADBEEF")
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}
