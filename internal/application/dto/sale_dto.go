package dto

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// CreateSaleRequest entrada para registrar una venta.
// PrecioUnitario y Total son informativos: el precio vigente del catálogo prevalece.
// El cliente se recibe como client_id; cliente_id se acepta como alias.
type CreateSaleRequest struct {
	ClientID *int64            `json:"client_id" validate:"omitempty,gt=0"`
	Items    []SaleItemRequest `json:"productos"`
	Total    *decimal.Decimal  `json:"total"`
}

// UnmarshalJSON acepta client_id y, si falta, el alias cliente_id.
func (r *CreateSaleRequest) UnmarshalJSON(data []byte) error {
	type plain CreateSaleRequest
	aux := struct {
		*plain
		Alias *int64 `json:"cliente_id"`
	}{plain: (*plain)(r)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if r.ClientID == nil {
		r.ClientID = aux.Alias
	}
	return nil
}

// SaleItemRequest una línea del carrito.
type SaleItemRequest struct {
	ProductID int64            `json:"producto_id"`
	Quantity  int64            `json:"cantidad"`
	UnitPrice *decimal.Decimal `json:"precio_unitario"`
}

// SaleResponse venta registrada con sus detalles.
type SaleResponse struct {
	ID        int64                `json:"id"`
	ClientID  *int64               `json:"cliente_id,omitempty"`
	Total     decimal.Decimal      `json:"total"`
	Date      time.Time            `json:"fecha"`
	Status    string               `json:"estado"`
	Reference string               `json:"referencia"`
	Details   []SaleDetailResponse `json:"detalles"`
}

// SaleDetailResponse una línea de la venta.
type SaleDetailResponse struct {
	ID          int64           `json:"id"`
	ProductID   int64           `json:"producto_id"`
	Quantity    int64           `json:"cantidad"`
	UnitPrice   decimal.Decimal `json:"precio_unitario"`
	Subtotal    decimal.Decimal `json:"subtotal"`
	ProductName string          `json:"producto_nombre"`
}

// SaleSummaryResponse cabecera de venta para listados.
type SaleSummaryResponse struct {
	ID        int64           `json:"id"`
	ClientID  *int64          `json:"cliente_id,omitempty"`
	Total     decimal.Decimal `json:"total"`
	Date      time.Time       `json:"fecha"`
	Status    string          `json:"estado"`
	Reference string          `json:"referencia"`
}

// SaleListResponse lista paginada de ventas.
type SaleListResponse struct {
	Items []SaleSummaryResponse `json:"items"`
	Page  PageResponse          `json:"page"`
}

// StatsResponse agregados de /api/estadisticas, todos de la misma instantánea.
type StatsResponse struct {
	Products          int64           `json:"total_productos"`
	Categories        int64           `json:"total_categorias"`
	Clients           int64           `json:"total_clientes"`
	Sales             int64           `json:"total_ventas"`
	Revenue           decimal.Decimal `json:"ingresos_totales"`
	LowStockProducts  int64           `json:"productos_bajo_stock"`
	LowStockThreshold int64           `json:"umbral_bajo_stock"`
}
