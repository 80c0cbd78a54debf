package sales_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/jhoicas/ventas-api/internal/domain/sales"
)

func TestLineSubtotal_SinDerivaDeCentavos(t *testing.T) {
	// 0.1 * 3 en float64 da 0.30000000000000004
	got := sales.LineSubtotal(decimal.RequireFromString("0.10"), 3)
	assert.True(t, got.Equal(decimal.RequireFromString("0.30")), "got %s", got)
}

func TestLineSubtotal_RedondeaPrecioConMasDecimales(t *testing.T) {
	got := sales.LineSubtotal(decimal.RequireFromString("1.005"), 1)
	assert.Equal(t, "1.01", got.StringFixed(2))

	got = sales.LineSubtotal(decimal.RequireFromString("2.3333"), 3)
	assert.Equal(t, "7.00", got.StringFixed(2))
}

func TestSaleTotal_SumaExacta(t *testing.T) {
	subtotals := []decimal.Decimal{
		sales.LineSubtotal(decimal.RequireFromString("19.99"), 3),
		sales.LineSubtotal(decimal.RequireFromString("0.01"), 7),
		sales.LineSubtotal(decimal.RequireFromString("1250.50"), 2),
	}
	assert.Equal(t, "2561.04", sales.SaleTotal(subtotals).StringFixed(2))
	assert.True(t, sales.SaleTotal(nil).IsZero())
}

func TestMarginPercent(t *testing.T) {
	assert.Equal(t, "25.00", sales.MarginPercent(decimal.NewFromInt(100), decimal.NewFromInt(75)).StringFixed(2))
	assert.Equal(t, "33.33", sales.MarginPercent(decimal.NewFromInt(3), decimal.NewFromInt(2)).StringFixed(2))
	assert.True(t, sales.MarginPercent(decimal.Zero, decimal.NewFromInt(10)).IsZero())
	assert.Equal(t, "-50.00", sales.MarginPercent(decimal.NewFromInt(10), decimal.NewFromInt(15)).StringFixed(2))
}

func TestFitsMoney(t *testing.T) {
	assert.True(t, sales.FitsMoney(decimal.RequireFromString("999999999999.99")))
	assert.True(t, sales.FitsMoney(decimal.RequireFromString("-999999999999.99")))
	assert.False(t, sales.FitsMoney(decimal.RequireFromString("1000000000000.00")))
}
