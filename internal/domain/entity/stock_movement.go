package entity

import "time"

// Tipos de movimiento de stock.
const (
	MovementTypeIN  = "IN"  // entrada (crédito)
	MovementTypeOUT = "OUT" // salida (venta)
)

// StockMovement registro del diario de stock: cada mutación del libro deja uno.
type StockMovement struct {
	ID         int64
	ProductID  int64
	Type       string
	Quantity   int64 // positivo entrada, negativo salida
	StockAfter int64
	Reference  string // referencia de la venta o del crédito
	CreatedAt  time.Time
}
