package sales

import (
	"time"

	"github.com/shopspring/decimal"
)

// SaleCompletedEvent payload del tópico sale.completed.
type SaleCompletedEvent struct {
	SaleID    int64               `json:"venta_id"`
	Reference string              `json:"referencia"`
	ClientID  *int64              `json:"cliente_id,omitempty"`
	Total     decimal.Decimal     `json:"total"`
	Date      time.Time           `json:"fecha"`
	Lines     []SaleCompletedLine `json:"lineas"`
}

// SaleCompletedLine línea dentro de SaleCompletedEvent.
type SaleCompletedLine struct {
	ProductID int64           `json:"producto_id"`
	Quantity  int64           `json:"cantidad"`
	UnitPrice decimal.Decimal `json:"precio_unitario"`
	Subtotal  decimal.Decimal `json:"subtotal"`
}

// StockLowEvent payload del tópico stock.low: el producto quedó en o bajo el umbral.
type StockLowEvent struct {
	ProductID int64  `json:"producto_id"`
	Name      string `json:"nombre"`
	Stock     int64  `json:"stock"`
	Threshold int64  `json:"umbral"`
	Reference string `json:"referencia"`
}
