package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreateProductRequest entrada para crear un producto. El margen se calcula a partir de precio y costo.
type CreateProductRequest struct {
	Name        string          `json:"nombre" validate:"required,min=1,max=200"`
	Description string          `json:"descripcion" validate:"max=2000"`
	Price       decimal.Decimal `json:"precio"`
	Cost        decimal.Decimal `json:"costo"`
	Stock       int64           `json:"stock" validate:"min=0"`
	CategoryID  *int64          `json:"categoria_id" validate:"omitempty,gt=0"`
	Code        string          `json:"codigo" validate:"max=64"`
}

// UpdateProductRequest entrada para actualizar un producto (sin Stock: se maneja vía /stock y ventas).
type UpdateProductRequest struct {
	Name        *string          `json:"nombre" validate:"omitempty,min=1,max=200"`
	Description *string          `json:"descripcion" validate:"omitempty,max=2000"`
	Price       *decimal.Decimal `json:"precio"`
	Cost        *decimal.Decimal `json:"costo"`
	CategoryID  *int64           `json:"categoria_id" validate:"omitempty,gte=0"` // 0 desasocia la categoría
	Code        *string          `json:"codigo" validate:"omitempty,max=64"`
}

// ProductResponse salida de un producto.
type ProductResponse struct {
	ID          int64           `json:"id"`
	Name        string          `json:"nombre"`
	Description string          `json:"descripcion"`
	Price       decimal.Decimal `json:"precio"`
	Cost        decimal.Decimal `json:"costo"`
	Margin      decimal.Decimal `json:"margen"`
	Stock       int64           `json:"stock"`
	CategoryID  *int64          `json:"categoria_id,omitempty"`
	Code        string          `json:"codigo,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// ProductListResponse lista paginada de productos.
type ProductListResponse struct {
	Items []ProductResponse `json:"items"`
	Page  PageResponse      `json:"page"`
}

// LowStockResponse productos en o bajo el umbral.
type LowStockResponse struct {
	Threshold int64             `json:"umbral"`
	Items     []ProductResponse `json:"items"`
}

// StockCreditRequest entrada para sumar existencias a un producto.
type StockCreditRequest struct {
	Quantity  int64  `json:"cantidad" validate:"required,gt=0"`
	Reference string `json:"referencia" validate:"max=100"`
}

// StockLevelResponse existencias tras una operación del libro de stock.
type StockLevelResponse struct {
	ProductID int64  `json:"producto_id"`
	Name      string `json:"nombre"`
	Stock     int64  `json:"stock"`
	Reference string `json:"referencia"`
}

// StockMovementResponse un registro del diario de stock.
type StockMovementResponse struct {
	ID         int64     `json:"id"`
	ProductID  int64     `json:"producto_id"`
	Type       string    `json:"tipo"`
	Quantity   int64     `json:"cantidad"`
	StockAfter int64     `json:"stock_resultante"`
	Reference  string    `json:"referencia"`
	CreatedAt  time.Time `json:"created_at"`
}

// StockMovementListResponse lista paginada de movimientos.
type StockMovementListResponse struct {
	Items []StockMovementResponse `json:"items"`
	Page  PageResponse            `json:"page"`
}
