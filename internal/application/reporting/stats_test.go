package reporting

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/jhoicas/ventas-api/internal/application/dto"
	"github.com/jhoicas/ventas-api/internal/application/sales"
	"github.com/jhoicas/ventas-api/internal/domain/entity"
	"github.com/jhoicas/ventas-api/internal/infrastructure/memory"
)

func TestStatsUseCase_Get(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()

	require.NoError(t, store.Categories().Create(ctx, &entity.Category{Name: "Lácteos"}))
	require.NoError(t, store.Clients().Create(ctx, &entity.Client{Name: "Luis"}))
	leche := &entity.Product{Name: "Leche", Price: decimal.RequireFromString("1.25"), Stock: 10}
	queso := &entity.Product{Name: "Queso", Price: decimal.RequireFromString("7.10"), Stock: 1}
	require.NoError(t, store.Products().Create(ctx, leche))
	require.NoError(t, store.Products().Create(ctx, queso))

	engine := sales.NewCreateSaleUseCase(store, sales.Config{LowStockThreshold: 3}, nil, nil)
	_, err := engine.CreateSale(ctx, uuid.NewString(), dto.CreateSaleRequest{
		Items: []dto.SaleItemRequest{{ProductID: leche.ID, Quantity: 8}},
	})
	require.NoError(t, err)

	uc := NewStatsUseCase(store, 3)
	out, err := uc.Get(ctx, -1)
	require.NoError(t, err)
	assert.Equal(t, int64(2), out.Products)
	assert.Equal(t, int64(1), out.Categories)
	assert.Equal(t, int64(1), out.Clients)
	assert.Equal(t, int64(1), out.Sales)
	assert.True(t, out.Revenue.Equal(decimal.RequireFromString("10.00")), "ingresos %s", out.Revenue)
	assert.Equal(t, int64(2), out.LowStockProducts)
	assert.Equal(t, int64(3), out.LowStockThreshold)

	out, err = uc.Get(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(0), out.LowStockProducts)
}

func TestStatsUseCase_EmptyStore(t *testing.T) {
	out, err := NewStatsUseCase(memory.NewStore(), 5).Get(context.Background(), -1)
	require.NoError(t, err)
	assert.True(t, out.Revenue.IsZero())
	assert.Zero(t, out.Sales)
}

func TestStatsUseCase_ConsistentDuringConcurrentSales(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()
	pan := &entity.Product{Name: "Pan", Price: decimal.RequireFromString("2.50"), Stock: 40}
	require.NoError(t, store.Products().Create(ctx, pan))

	engine := sales.NewCreateSaleUseCase(store, sales.Config{LowStockThreshold: 3, RetryAttempts: 3}, nil, nil)
	uc := NewStatsUseCase(store, 3)
	unit := decimal.RequireFromString("2.50")

	var writers errgroup.Group
	for w := 0; w < 4; w++ {
		writers.Go(func() error {
			for i := 0; i < 10; i++ {
				if _, err := engine.CreateSale(ctx, uuid.NewString(), dto.CreateSaleRequest{
					Items: []dto.SaleItemRequest{{ProductID: pan.ID, Quantity: 1}},
				}); err != nil {
					return err
				}
			}
			return nil
		})
	}

	var done atomic.Bool
	var readers errgroup.Group
	var snapshots atomic.Int64
	for r := 0; r < 2; r++ {
		readers.Go(func() error {
			var last int64
			for {
				stop := done.Load()
				out, err := uc.Get(ctx, -1)
				if err != nil {
					return err
				}
				want := unit.Mul(decimal.NewFromInt(out.Sales))
				if !out.Revenue.Equal(want) {
					t.Errorf("ingresos %s con %d ventas, se esperaba %s", out.Revenue, out.Sales, want)
				}
				if out.Sales < last {
					t.Errorf("el conteo de ventas retrocedió de %d a %d", last, out.Sales)
				}
				last = out.Sales
				snapshots.Add(1)
				if stop {
					return nil
				}
			}
		})
	}

	require.NoError(t, writers.Wait())
	done.Store(true)
	require.NoError(t, readers.Wait())
	assert.Positive(t, snapshots.Load())

	out, err := uc.Get(ctx, -1)
	require.NoError(t, err)
	assert.Equal(t, int64(40), out.Sales)
	assert.True(t, out.Revenue.Equal(decimal.RequireFromString("100")), "ingresos %s", out.Revenue)
}
