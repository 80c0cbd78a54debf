package repository

import (
	"context"

	"github.com/jhoicas/ventas-api/internal/domain/entity"
)

// ProductRepository define el puerto de persistencia para Product (DIP).
// GetByID devuelve (nil, nil) si el producto no existe.
type ProductRepository interface {
	Create(ctx context.Context, product *entity.Product) error
	GetByID(ctx context.Context, id int64) (*entity.Product, error)
	// GetByIDs devuelve los productos existentes indexados por ID; los ausentes no aparecen en el mapa.
	GetByIDs(ctx context.Context, ids []int64) (map[int64]*entity.Product, error)
	GetByCode(ctx context.Context, code string) (*entity.Product, error)
	// Update actualiza los datos de catálogo. No modifica Stock (se maneja vía StockLedger).
	Update(ctx context.Context, product *entity.Product) error
	List(ctx context.Context, limit, offset int) ([]*entity.Product, error)
	// ListLowStock devuelve los productos con stock <= threshold, el menor stock primero.
	ListLowStock(ctx context.Context, threshold int64) ([]*entity.Product, error)
	Delete(ctx context.Context, id int64) error
}
