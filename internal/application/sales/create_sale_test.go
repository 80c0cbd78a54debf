package sales

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/jhoicas/ventas-api/internal/application/dto"
	"github.com/jhoicas/ventas-api/internal/domain"
	"github.com/jhoicas/ventas-api/internal/domain/entity"
	"github.com/jhoicas/ventas-api/internal/domain/repository"
	"github.com/jhoicas/ventas-api/internal/infrastructure/memory"
	"github.com/jhoicas/ventas-api/pkg/metrics"
)

var testConfig = Config{
	LowStockThreshold: 2,
	RetryAttempts:     3,
	RetryBackoff:      time.Millisecond,
	TxTimeout:         time.Second,
}

type fixture struct {
	store *memory.Store
	uc    *CreateSaleUseCase
	m     *metrics.Metrics
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.NewStore()
	m := metrics.New()
	return &fixture{store: store, uc: NewCreateSaleUseCase(store, testConfig, nil, m), m: m}
}

func (f *fixture) product(t *testing.T, name, price string, stock int64) *entity.Product {
	t.Helper()
	p := &entity.Product{Name: name, Price: decimal.RequireFromString(price), Stock: stock}
	require.NoError(t, f.store.Products().Create(context.Background(), p))
	return p
}

func (f *fixture) stock(t *testing.T, id int64) int64 {
	t.Helper()
	p, err := f.store.Products().GetByID(context.Background(), id)
	require.NoError(t, err)
	require.NotNil(t, p)
	return p.Stock
}

func (f *fixture) salesCount(t *testing.T) int {
	t.Helper()
	list, err := f.store.Sales().List(context.Background(), 1000, 0)
	require.NoError(t, err)
	return len(list)
}

func (f *fixture) pendingEvents(t *testing.T) []*entity.OutboxEvent {
	t.Helper()
	events, err := f.store.Outbox().FetchPending(context.Background(), 1000)
	require.NoError(t, err)
	return events
}

func cart(lines ...dto.SaleItemRequest) dto.CreateSaleRequest {
	return dto.CreateSaleRequest{Items: lines}
}

func line(productID, qty int64) dto.SaleItemRequest {
	return dto.SaleItemRequest{ProductID: productID, Quantity: qty}
}

func TestCreateSale_CommitsAndDecrementsStock(t *testing.T) {
	f := newFixture(t)
	p := f.product(t, "Café", "4.25", 5)

	out, err := f.uc.CreateSale(context.Background(), "", cart(line(p.ID, 3)))
	require.NoError(t, err)

	assert.Equal(t, int64(2), f.stock(t, p.ID))
	assert.True(t, out.Total.Equal(decimal.RequireFromString("12.75")), out.Total.String())
	assert.Equal(t, entity.SaleStatusCompleted, out.Status)
	_, err = uuid.Parse(out.Reference)
	assert.NoError(t, err)
	require.Len(t, out.Details, 1)
	assert.Equal(t, "Café", out.Details[0].ProductName)
	assert.Equal(t, int64(3), out.Details[0].Quantity)
	assert.NotZero(t, out.Details[0].ID)
}

func TestCreateSale_TotalIsSumOfSubtotals(t *testing.T) {
	f := newFixture(t)
	a := f.product(t, "A", "0.10", 100)
	b := f.product(t, "B", "19.99", 100)
	c := f.product(t, "C", "1.005", 100)

	out, err := f.uc.CreateSale(context.Background(), "", cart(line(a.ID, 3), line(b.ID, 7), line(c.ID, 1)))
	require.NoError(t, err)

	sum := decimal.Zero
	for _, d := range out.Details {
		assert.True(t, d.Subtotal.Equal(d.UnitPrice.Mul(decimal.NewFromInt(d.Quantity)).Round(2)))
		sum = sum.Add(d.Subtotal)
	}
	assert.True(t, out.Total.Equal(sum))
	assert.Equal(t, "0.3", out.Details[0].Subtotal.String())
	assert.Equal(t, "1.01", out.Details[2].Subtotal.String())

	// lo persistido coincide con lo devuelto
	stored, err := NewQueryUseCase(f.store.Sales()).GetByID(context.Background(), out.ID)
	require.NoError(t, err)
	assert.True(t, stored.Total.Equal(out.Total))
	require.Len(t, stored.Details, 3)
	assert.Equal(t, []int64{a.ID, b.ID, c.ID}, []int64{stored.Details[0].ProductID, stored.Details[1].ProductID, stored.Details[2].ProductID})
}

func TestCreateSale_InsufficientStockLeavesNoTrace(t *testing.T) {
	f := newFixture(t)
	p := f.product(t, "Café", "4.00", 2)
	other := f.product(t, "Azúcar", "1.00", 10)

	_, err := f.uc.CreateSale(context.Background(), "", cart(line(other.ID, 1), line(p.ID, 5)))
	require.ErrorIs(t, err, domain.ErrInsufficientStock)

	var saleErr *domain.SaleError
	require.ErrorAs(t, err, &saleErr)
	assert.Equal(t, []domain.Shortage{{ProductID: p.ID, Requested: 5, Available: 2}}, saleErr.Shortages)

	assert.Equal(t, int64(2), f.stock(t, p.ID))
	assert.Equal(t, int64(10), f.stock(t, other.ID))
	assert.Zero(t, f.salesCount(t))
	assert.Empty(t, f.pendingEvents(t))
}

func TestCreateSale_EmptyCart(t *testing.T) {
	f := newFixture(t)
	_, err := f.uc.CreateSale(context.Background(), "", cart())
	assert.ErrorIs(t, err, domain.ErrEmptyCart)
}

func TestCreateSale_InvalidQuantityReportsLines(t *testing.T) {
	f := newFixture(t)
	p := f.product(t, "Café", "4.00", 10)

	_, err := f.uc.CreateSale(context.Background(), "", cart(line(p.ID, 1), line(p.ID, 0), line(p.ID, -2)))
	require.ErrorIs(t, err, domain.ErrInvalidQuantity)

	var saleErr *domain.SaleError
	require.ErrorAs(t, err, &saleErr)
	require.Len(t, saleErr.Lines, 2)
	assert.Equal(t, 1, saleErr.Lines[0].Line)
	assert.Equal(t, 2, saleErr.Lines[1].Line)
	assert.Equal(t, int64(10), f.stock(t, p.ID))
}

func TestCreateSale_QuantityOverflowIsRejected(t *testing.T) {
	f := newFixture(t)
	p := f.product(t, "Café", "4.00", 5)

	_, err := f.uc.CreateSale(context.Background(), "", cart(line(p.ID, math.MaxInt64), line(p.ID, math.MaxInt64)))
	require.ErrorIs(t, err, domain.ErrInvalidQuantity)
	var saleErr *domain.SaleError
	require.ErrorAs(t, err, &saleErr)
	assert.Equal(t, []domain.LineProblem{{Line: 1, ProductID: p.ID, Quantity: math.MaxInt64}}, saleErr.Lines)
	assert.Equal(t, int64(5), f.stock(t, p.ID))
	assert.Zero(t, f.salesCount(t))
}

func TestCreateSale_TotalAboveMoneyColumnIsRejected(t *testing.T) {
	f := newFixture(t)
	p := f.product(t, "Lingote", "500000000000.00", 10)

	_, err := f.uc.CreateSale(context.Background(), "", cart(line(p.ID, 1), line(p.ID, 1)))
	require.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Equal(t, int64(10), f.stock(t, p.ID))
	assert.Zero(t, f.salesCount(t))

	_, err = f.uc.CreateSale(context.Background(), "", cart(line(p.ID, 3)))
	require.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Equal(t, int64(10), f.stock(t, p.ID))
}

func TestCreateSale_UnknownProductAndClient(t *testing.T) {
	f := newFixture(t)
	p := f.product(t, "Café", "4.00", 10)

	_, err := f.uc.CreateSale(context.Background(), "", cart(line(p.ID, 1), line(404, 1)))
	require.ErrorIs(t, err, domain.ErrUnknownProduct)
	var saleErr *domain.SaleError
	require.ErrorAs(t, err, &saleErr)
	assert.Equal(t, []domain.LineProblem{{Line: 1, ProductID: 404, Quantity: 1}}, saleErr.Lines)

	ghost := int64(99)
	req := cart(line(p.ID, 1))
	req.ClientID = &ghost
	_, err = f.uc.CreateSale(context.Background(), "", req)
	assert.ErrorIs(t, err, domain.ErrUnknownClient)
	assert.Equal(t, int64(10), f.stock(t, p.ID))
}

func TestCreateSale_WithClient(t *testing.T) {
	f := newFixture(t)
	p := f.product(t, "Café", "4.00", 10)
	client := &entity.Client{Name: "Ana"}
	require.NoError(t, f.store.Clients().Create(context.Background(), client))

	req := cart(line(p.ID, 1))
	req.ClientID = &client.ID
	out, err := f.uc.CreateSale(context.Background(), "", req)
	require.NoError(t, err)
	require.NotNil(t, out.ClientID)
	assert.Equal(t, client.ID, *out.ClientID)
}

func TestCreateSale_DuplicateLinesAreCheckedTogether(t *testing.T) {
	f := newFixture(t)
	p := f.product(t, "Café", "1.00", 4)

	_, err := f.uc.CreateSale(context.Background(), "", cart(line(p.ID, 3), line(p.ID, 2)))
	require.ErrorIs(t, err, domain.ErrInsufficientStock)
	assert.Equal(t, int64(4), f.stock(t, p.ID))

	out, err := f.uc.CreateSale(context.Background(), "", cart(line(p.ID, 3), line(p.ID, 1)))
	require.NoError(t, err)
	assert.Len(t, out.Details, 2)
	assert.Equal(t, int64(0), f.stock(t, p.ID))
}

func TestCreateSale_CatalogPriceWins(t *testing.T) {
	f := newFixture(t)
	p := f.product(t, "Café", "4.00", 10)

	cheap := decimal.RequireFromString("0.01")
	total := decimal.RequireFromString("0.02")
	out, err := f.uc.CreateSale(context.Background(), "", dto.CreateSaleRequest{
		Items: []dto.SaleItemRequest{{ProductID: p.ID, Quantity: 2, UnitPrice: &cheap}},
		Total: &total,
	})
	require.NoError(t, err)
	assert.True(t, out.Details[0].UnitPrice.Equal(decimal.RequireFromString("4")))
	assert.True(t, out.Total.Equal(decimal.RequireFromString("8")))
}

func TestCreateSale_WritesOutboxEvents(t *testing.T) {
	f := newFixture(t)
	low := f.product(t, "Café", "1.00", 3)
	plenty := f.product(t, "Azúcar", "1.00", 50)

	out, err := f.uc.CreateSale(context.Background(), "", cart(line(low.ID, 2), line(plenty.ID, 1)))
	require.NoError(t, err)

	events := f.pendingEvents(t)
	require.Len(t, events, 2)
	assert.Equal(t, entity.TopicSaleCompleted, events[0].Topic)
	assert.Equal(t, out.Reference, events[0].Key)

	var completed SaleCompletedEvent
	require.NoError(t, json.Unmarshal(events[0].Payload, &completed))
	assert.Equal(t, out.ID, completed.SaleID)
	assert.Len(t, completed.Lines, 2)

	assert.Equal(t, entity.TopicStockLow, events[1].Topic)
	var stockLow StockLowEvent
	require.NoError(t, json.Unmarshal(events[1].Payload, &stockLow))
	assert.Equal(t, low.ID, stockLow.ProductID)
	assert.Equal(t, int64(1), stockLow.Stock)
	assert.Equal(t, testConfig.LowStockThreshold, stockLow.Threshold)
}

func TestCreateSale_ReplayReturnsOriginalSale(t *testing.T) {
	f := newFixture(t)
	p := f.product(t, "Café", "2.00", 10)
	ref := uuid.NewString()

	first, err := f.uc.CreateSale(context.Background(), ref, cart(line(p.ID, 3)))
	require.NoError(t, err)
	second, err := f.uc.CreateSale(context.Background(), ref, cart(line(p.ID, 3)))
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, first.Reference, second.Reference)
	require.Len(t, second.Details, 1)
	assert.Equal(t, "Café", second.Details[0].ProductName)
	assert.Equal(t, int64(7), f.stock(t, p.ID))
	assert.Equal(t, 1, f.salesCount(t))
}

func TestCreateSale_RejectsMalformedReference(t *testing.T) {
	f := newFixture(t)
	p := f.product(t, "Café", "2.00", 10)
	_, err := f.uc.CreateSale(context.Background(), "no-es-uuid", cart(line(p.ID, 1)))
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestCreateSale_ConcurrentSameProduct(t *testing.T) {
	f := newFixture(t)
	p := f.product(t, "Café", "1.00", 3)

	// Dos ventas de 3 contra stock 3: exactamente una se confirma.
	var ok, short atomic.Int32
	var g errgroup.Group
	for i := 0; i < 2; i++ {
		g.Go(func() error {
			_, err := f.uc.CreateSale(context.Background(), "", cart(line(p.ID, 3)))
			switch {
			case err == nil:
				ok.Add(1)
			case errors.Is(err, domain.ErrInsufficientStock):
				short.Add(1)
			default:
				return err
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())
	assert.Equal(t, int32(1), ok.Load())
	assert.Equal(t, int32(1), short.Load())
	assert.Equal(t, int64(0), f.stock(t, p.ID))
}

func TestCreateSale_ConcurrentSalesNeverOversell(t *testing.T) {
	f := newFixture(t)
	p := f.product(t, "Café", "1.00", 25)
	q := f.product(t, "Té", "1.00", 1000)

	const workers = 40
	var ok atomic.Int32
	var g errgroup.Group
	for i := 0; i < workers; i++ {
		g.Go(func() error {
			_, err := f.uc.CreateSale(context.Background(), "", cart(line(q.ID, 1), line(p.ID, 2)))
			if err == nil {
				ok.Add(1)
				return nil
			}
			if errors.Is(err, domain.ErrInsufficientStock) {
				return nil
			}
			return err
		})
	}
	require.NoError(t, g.Wait())

	assert.Equal(t, int32(12), ok.Load())
	assert.Equal(t, int64(1), f.stock(t, p.ID))
	assert.Equal(t, int64(1000-12), f.stock(t, q.ID))
	assert.Equal(t, 12, f.salesCount(t))
}

func TestCreateSale_CancelledContextLeavesNoEffects(t *testing.T) {
	f := newFixture(t)
	p := f.product(t, "Café", "1.00", 5)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := f.uc.CreateSale(ctx, "", cart(line(p.ID, 1)))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, int64(5), f.stock(t, p.ID))
	assert.Zero(t, f.salesCount(t))
}

// flakyRunner falla con un error transitorio las primeras n transacciones.
type flakyRunner struct {
	inner    TxRunner
	failures int32
	calls    atomic.Int32
}

func (r *flakyRunner) RunSale(ctx context.Context, fn func(repository.StockLedger, repository.ProductRepository, repository.ClientRepository, repository.SaleRepository, repository.OutboxRepository) error) error {
	if r.calls.Add(1) <= r.failures {
		return fmt.Errorf("%w: conexión reiniciada", domain.ErrTransient)
	}
	return r.inner.RunSale(ctx, fn)
}

func TestCreateSale_RetriesTransientFailures(t *testing.T) {
	f := newFixture(t)
	p := f.product(t, "Café", "1.00", 5)
	runner := &flakyRunner{inner: f.store, failures: 2}
	uc := NewCreateSaleUseCase(runner, testConfig, nil, f.m)

	out, err := uc.CreateSale(context.Background(), "", cart(line(p.ID, 1)))
	require.NoError(t, err)
	assert.NotZero(t, out.ID)
	assert.Equal(t, int32(3), runner.calls.Load())
	assert.Equal(t, int64(4), f.stock(t, p.ID))
}

func TestCreateSale_UnavailableAfterRetryBudget(t *testing.T) {
	f := newFixture(t)
	p := f.product(t, "Café", "1.00", 5)
	runner := &flakyRunner{inner: f.store, failures: 100}
	uc := NewCreateSaleUseCase(runner, testConfig, nil, nil)

	_, err := uc.CreateSale(context.Background(), "", cart(line(p.ID, 1)))
	require.ErrorIs(t, err, domain.ErrUnavailable)
	assert.ErrorIs(t, err, domain.ErrTransient)
	assert.Equal(t, int32(testConfig.RetryAttempts), runner.calls.Load())
	assert.Equal(t, int64(5), f.stock(t, p.ID))
}

// commitLostRunner confirma la primera transacción pero informa una falla transitoria,
// como cuando la conexión se corta durante el COMMIT.
type commitLostRunner struct {
	inner TxRunner
	calls atomic.Int32
}

func (r *commitLostRunner) RunSale(ctx context.Context, fn func(repository.StockLedger, repository.ProductRepository, repository.ClientRepository, repository.SaleRepository, repository.OutboxRepository) error) error {
	err := r.inner.RunSale(ctx, fn)
	if r.calls.Add(1) == 1 && err == nil {
		return fmt.Errorf("%w: conexión perdida en commit", domain.ErrTransient)
	}
	return err
}

func TestCreateSale_RetryAfterLostCommitDoesNotDoubleCharge(t *testing.T) {
	f := newFixture(t)
	p := f.product(t, "Café", "1.00", 5)
	uc := NewCreateSaleUseCase(&commitLostRunner{inner: f.store}, testConfig, nil, nil)

	out, err := uc.CreateSale(context.Background(), "", cart(line(p.ID, 2)))
	require.NoError(t, err)
	assert.NotZero(t, out.ID)
	assert.Equal(t, int64(3), f.stock(t, p.ID))
	assert.Equal(t, 1, f.salesCount(t))
}

func TestQueryUseCase(t *testing.T) {
	f := newFixture(t)
	p := f.product(t, "Café", "1.00", 5)
	q := NewQueryUseCase(f.store.Sales())

	_, err := q.GetByID(context.Background(), 1)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	for i := 0; i < 3; i++ {
		_, err := f.uc.CreateSale(context.Background(), "", cart(line(p.ID, 1)))
		require.NoError(t, err)
	}
	list, err := q.List(context.Background(), dto.PageRequest{Limit: 2})
	require.NoError(t, err)
	require.Len(t, list.Items, 2)
	assert.Greater(t, list.Items[0].ID, list.Items[1].ID)
}
