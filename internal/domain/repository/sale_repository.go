package repository

import (
	"context"

	"github.com/jhoicas/ventas-api/internal/domain/entity"
)

// SaleRepository define el puerto de persistencia para Sale y sus detalles.
// Create y CreateDetail solo deben usarse dentro de la transacción del motor de ventas.
type SaleRepository interface {
	// Create inserta la cabecera y asigna ID. Una referencia repetida devuelve domain.ErrDuplicate.
	Create(ctx context.Context, sale *entity.Sale) error
	CreateDetail(ctx context.Context, detail *entity.SaleDetail) error
	GetByID(ctx context.Context, id int64) (*entity.Sale, error)
	GetByReference(ctx context.Context, reference string) (*entity.Sale, error)
	// GetDetails devuelve las líneas en el orden del carrito, con el nombre del producto resuelto.
	GetDetails(ctx context.Context, saleID int64) ([]*entity.SaleDetail, error)
	List(ctx context.Context, limit, offset int) ([]*entity.Sale, error)
}
