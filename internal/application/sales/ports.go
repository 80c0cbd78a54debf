package sales

import (
	"context"

	"github.com/jhoicas/ventas-api/internal/domain/repository"
)

// TxRunner ejecuta una función dentro de una transacción que incluye el libro de stock
// y los repositorios de la venta. Si fn devuelve error, nada de lo hecho en ella se confirma.
// Los errores reintentables vienen envueltos con domain.ErrTransient.
type TxRunner interface {
	RunSale(ctx context.Context, fn func(
		ledger repository.StockLedger,
		productRepo repository.ProductRepository,
		clientRepo repository.ClientRepository,
		saleRepo repository.SaleRepository,
		outboxRepo repository.OutboxRepository,
	) error) error
}
