// Package sales contiene los servicios de dominio de precios de venta.
package sales

import "github.com/shopspring/decimal"

// MoneyPlaces decimales con los que se guardan precios, subtotales y totales (NUMERIC(14,2)).
const MoneyPlaces = 2

var (
	hundred = decimal.NewFromInt(100)

	// MaxAmount mayor importe que cabe en NUMERIC(14,2).
	MaxAmount = decimal.RequireFromString("999999999999.99")
)

// FitsMoney indica si el importe cabe en la columna monetaria.
func FitsMoney(amount decimal.Decimal) bool {
	return amount.Abs().LessThanOrEqual(MaxAmount)
}

// LineSubtotal calcula Subtotal = PrecioUnitario * Cantidad.
// El resultado se redondea a MoneyPlaces con redondeo "half away from zero" (decimal.Round).
func LineSubtotal(unitPrice decimal.Decimal, quantity int64) decimal.Decimal {
	return unitPrice.Mul(decimal.NewFromInt(quantity)).Round(MoneyPlaces)
}

// SaleTotal suma los subtotales. No redondea: cada subtotal ya viene en MoneyPlaces.
func SaleTotal(subtotals []decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, s := range subtotals {
		total = total.Add(s)
	}
	return total
}

// MarginPercent implementa Margen = (Precio - Costo) / Precio * 100, redondeado a 2 decimales.
// Precio <= 0 devuelve 0.
func MarginPercent(price, cost decimal.Decimal) decimal.Decimal {
	if !price.IsPositive() {
		return decimal.Zero
	}
	return price.Sub(cost).Div(price).Mul(hundred).Round(2)
}
