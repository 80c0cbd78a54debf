package postgres

import (
	"context"
	"errors"
	"math"
	"regexp"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/ventas-api/internal/domain"
	"github.com/jhoicas/ventas-api/internal/domain/entity"
)

var (
	lockQuery     = regexp.QuoteMeta(`SELECT id, name, stock FROM products WHERE id = ANY($1) ORDER BY id FOR UPDATE`)
	decrementExec = regexp.QuoteMeta(`UPDATE products SET stock = stock - $2, updated_at = now() WHERE id = $1 AND stock >= $2 RETURNING stock`)
	creditQuery   = regexp.QuoteMeta(`UPDATE products SET stock = stock + $2, updated_at = now() WHERE id = $1 RETURNING name, stock`)
	movementExec  = `INSERT INTO stock_movements`
)

func TestStockLedger_ReserveAndCommit_AggregatesAndLocksInOrder(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery(lockQuery).
		WithArgs([]int64{3, 7}).
		WillReturnRows(mock.NewRows([]string{"id", "name", "stock"}).
			AddRow(int64(3), "Café", int64(10)).
			AddRow(int64(7), "Azúcar", int64(5)))
	mock.ExpectQuery(decrementExec).WithArgs(int64(3), int64(4)).
		WillReturnRows(mock.NewRows([]string{"stock"}).AddRow(int64(6)))
	mock.ExpectExec(movementExec).WithArgs(int64(3), entity.MovementTypeOUT, int64(-4), int64(6), "ref-1").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectQuery(decrementExec).WithArgs(int64(7), int64(5)).
		WillReturnRows(mock.NewRows([]string{"stock"}).AddRow(int64(0)))
	mock.ExpectExec(movementExec).WithArgs(int64(7), entity.MovementTypeOUT, int64(-5), int64(0), "ref-1").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	ledger := NewStockLedger(mock)
	levels, err := ledger.ReserveAndCommit(context.Background(), "ref-1", []entity.StockRequest{
		{ProductID: 7, Quantity: 5},
		{ProductID: 3, Quantity: 1},
		{ProductID: 3, Quantity: 3},
	})
	require.NoError(t, err)
	assert.Equal(t, []entity.StockLevel{
		{ProductID: 3, Name: "Café", Stock: 6},
		{ProductID: 7, Name: "Azúcar", Stock: 0},
	}, levels)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStockLedger_ReserveAndCommit_ReportsEveryShortage(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery(lockQuery).
		WithArgs([]int64{1, 2, 3}).
		WillReturnRows(mock.NewRows([]string{"id", "name", "stock"}).
			AddRow(int64(1), "A", int64(1)).
			AddRow(int64(2), "B", int64(50)).
			AddRow(int64(3), "C", int64(0)))

	ledger := NewStockLedger(mock)
	_, err = ledger.ReserveAndCommit(context.Background(), "ref", []entity.StockRequest{
		{ProductID: 1, Quantity: 2},
		{ProductID: 2, Quantity: 5},
		{ProductID: 3, Quantity: 1},
	})
	require.ErrorIs(t, err, domain.ErrInsufficientStock)

	var saleErr *domain.SaleError
	require.True(t, errors.As(err, &saleErr))
	assert.Equal(t, []domain.Shortage{
		{ProductID: 1, Requested: 2, Available: 1},
		{ProductID: 3, Requested: 1, Available: 0},
	}, saleErr.Shortages)
	// Ningún UPDATE: la verificación ocurre antes de descontar.
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStockLedger_ReserveAndCommit_UnknownProduct(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery(lockQuery).
		WithArgs([]int64{1, 99}).
		WillReturnRows(mock.NewRows([]string{"id", "name", "stock"}).AddRow(int64(1), "A", int64(10)))

	_, err = NewStockLedger(mock).ReserveAndCommit(context.Background(), "ref", []entity.StockRequest{
		{ProductID: 1, Quantity: 1},
		{ProductID: 99, Quantity: 1},
	})
	assert.ErrorIs(t, err, domain.ErrUnknownProduct)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStockLedger_ReserveAndCommit_RejectsQuantityOverflow(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	_, err = NewStockLedger(mock).ReserveAndCommit(context.Background(), "ref", []entity.StockRequest{
		{ProductID: 1, Quantity: math.MaxInt64},
		{ProductID: 1, Quantity: math.MaxInt64},
	})
	assert.ErrorIs(t, err, domain.ErrInvalidQuantity)
	// Se rechaza antes de bloquear filas.
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStockLedger_Credit(t *testing.T) {
	t.Run("suma y registra movimiento IN", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		mock.ExpectQuery(creditQuery).WithArgs(int64(4), int64(10)).
			WillReturnRows(mock.NewRows([]string{"name", "stock"}).AddRow("Harina", int64(12)))
		mock.ExpectExec(movementExec).WithArgs(int64(4), entity.MovementTypeIN, int64(10), int64(12), "repo-1").
			WillReturnResult(pgxmock.NewResult("INSERT", 1))

		lvl, err := NewStockLedger(mock).Credit(context.Background(), 4, 10, "repo-1")
		require.NoError(t, err)
		assert.Equal(t, &entity.StockLevel{ProductID: 4, Name: "Harina", Stock: 12}, lvl)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("producto inexistente", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		mock.ExpectQuery(creditQuery).WithArgs(int64(4), int64(1)).
			WillReturnRows(mock.NewRows([]string{"name", "stock"}))

		_, err = NewStockLedger(mock).Credit(context.Background(), 4, 1, "x")
		assert.ErrorIs(t, err, domain.ErrUnknownProduct)
	})

	t.Run("cantidad no positiva", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		_, err = NewStockLedger(mock).Credit(context.Background(), 4, 0, "x")
		assert.ErrorIs(t, err, domain.ErrInvalidQuantity)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("error del almacén se envuelve", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		mock.ExpectQuery(creditQuery).WithArgs(int64(4), int64(1)).
			WillReturnError(&pgconn.PgError{Code: "57P01"})

		_, err = NewStockLedger(mock).Credit(context.Background(), 4, 1, "x")
		require.Error(t, err)
		assert.True(t, isTransient(err))
	})
}
