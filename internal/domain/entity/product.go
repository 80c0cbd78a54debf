package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product representa un producto del catálogo.
// Stock solo se modifica a través del libro de stock (StockLedger); las actualizaciones de catálogo no lo tocan.
type Product struct {
	ID          int64
	Name        string
	Description string
	Price       decimal.Decimal // precio de venta unitario
	Cost        decimal.Decimal // costo unitario
	Margin      decimal.Decimal // porcentaje de margen sobre el precio: (precio - costo) / precio * 100
	Stock       int64           // existencias, nunca negativo
	CategoryID  *int64          // nil si no tiene categoría
	Code        string          // código único (opcional)
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
