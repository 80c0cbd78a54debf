package repository

import (
	"context"

	"github.com/jhoicas/ventas-api/internal/domain/entity"
)

// StockLedger es el libro de existencias por producto. Las implementaciones se atan a una transacción
// (ver TxRunner) y serializan decrementos concurrentes sobre el mismo producto con bloqueo de fila.
type StockLedger interface {
	// ReserveAndCommit bloquea los productos solicitados, verifica disponibilidad de todos y los descuenta.
	// Si alguno no alcanza devuelve *domain.SaleError (InsufficientStock) sin descontar ninguno.
	ReserveAndCommit(ctx context.Context, reference string, requests []entity.StockRequest) ([]entity.StockLevel, error)
	// Credit suma existencias a un producto (reposición o corrección).
	Credit(ctx context.Context, productID, quantity int64, reference string) (*entity.StockLevel, error)
}

// StockMovementRepository lectura del diario de movimientos de stock.
type StockMovementRepository interface {
	ListByProduct(ctx context.Context, productID int64, limit, offset int) ([]*entity.StockMovement, error)
}
