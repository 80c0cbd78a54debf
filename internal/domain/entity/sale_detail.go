package entity

import "github.com/shopspring/decimal"

// SaleDetail representa una línea de detalle de una venta. Inmutable tras su creación.
type SaleDetail struct {
	ID          int64
	SaleID      int64
	ProductID   int64
	ProductName string // resuelto por join al leer; no se persiste
	Quantity    int64
	UnitPrice   decimal.Decimal // precio capturado al momento de la venta
	Subtotal    decimal.Decimal
}
