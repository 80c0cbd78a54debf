package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Estados de una venta.
const (
	SaleStatusCompleted = "completed"
)

// Sale representa la cabecera de una venta.
// Se crea una sola vez, de forma atómica junto con sus detalles y el descuento de stock.
type Sale struct {
	ID        int64
	ClientID  *int64 // nil = venta anónima
	Total     decimal.Decimal
	Date      time.Time
	Status    string
	Reference string // uuid; clave de idempotencia y referencia en movimientos de stock
	Details   []*SaleDetail
}
