package postgres

import (
	"context"
	"fmt"

	"github.com/jhoicas/ventas-api/internal/domain/entity"
	"github.com/jhoicas/ventas-api/internal/domain/repository"
)

var _ repository.StockMovementRepository = (*StockMovementRepo)(nil)

// StockMovementRepo lectura del diario de stock.
type StockMovementRepo struct {
	q Querier
}

// NewStockMovementRepository construye el adaptador de movimientos.
func NewStockMovementRepository(q Querier) *StockMovementRepo {
	return &StockMovementRepo{q: q}
}

// ListByProduct lista los movimientos de un producto, el más reciente primero.
func (r *StockMovementRepo) ListByProduct(ctx context.Context, productID int64, limit, offset int) ([]*entity.StockMovement, error) {
	rows, err := r.q.Query(ctx, `
		SELECT id, product_id, type, quantity, stock_after, reference, created_at
		FROM stock_movements
		WHERE product_id = $1
		ORDER BY id DESC
		LIMIT $2 OFFSET $3`, productID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list stock movements: %w", err)
	}
	defer rows.Close()
	list := make([]*entity.StockMovement, 0)
	for rows.Next() {
		var m entity.StockMovement
		if err := rows.Scan(&m.ID, &m.ProductID, &m.Type, &m.Quantity, &m.StockAfter, &m.Reference, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan stock movement: %w", err)
		}
		list = append(list, &m)
	}
	return list, rows.Err()
}
