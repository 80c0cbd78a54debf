package postgres

import (
	"context"
	"errors"
	"fmt"
	"math"
	"slices"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/ventas-api/internal/domain"
	"github.com/jhoicas/ventas-api/internal/domain/entity"
	"github.com/jhoicas/ventas-api/internal/domain/repository"
)

var _ repository.StockLedger = (*StockLedger)(nil)

// StockLedger libro de existencias sobre la tabla products. Debe construirse sobre una pgx.Tx:
// los bloqueos FOR UPDATE se mantienen hasta el Commit/Rollback del runner.
type StockLedger struct {
	q Querier
}

// NewStockLedger construye el libro atado a la transacción q.
func NewStockLedger(q Querier) *StockLedger {
	return &StockLedger{q: q}
}

// ReserveAndCommit agrega las solicitudes por producto, bloquea las filas en orden de ID y,
// si todas alcanzan, descuenta y registra un movimiento OUT por producto.
func (l *StockLedger) ReserveAndCommit(ctx context.Context, reference string, requests []entity.StockRequest) ([]entity.StockLevel, error) {
	totals := make(map[int64]int64, len(requests))
	ids := make([]int64, 0, len(requests))
	for _, req := range requests {
		if req.Quantity <= 0 {
			return nil, &domain.SaleError{
				Kind:  domain.KindInvalidQuantity,
				Lines: []domain.LineProblem{{Line: -1, ProductID: req.ProductID, Quantity: req.Quantity}},
			}
		}
		if req.Quantity > math.MaxInt64-totals[req.ProductID] {
			return nil, &domain.SaleError{
				Kind:  domain.KindInvalidQuantity,
				Lines: []domain.LineProblem{{Line: -1, ProductID: req.ProductID, Quantity: req.Quantity}},
			}
		}
		if _, ok := totals[req.ProductID]; !ok {
			ids = append(ids, req.ProductID)
		}
		totals[req.ProductID] += req.Quantity
	}
	slices.Sort(ids)

	// Bloqueo en orden ascendente: dos ventas con productos en común no se interbloquean.
	rows, err := l.q.Query(ctx,
		`SELECT id, name, stock FROM products WHERE id = ANY($1) ORDER BY id FOR UPDATE`, ids)
	if err != nil {
		return nil, fmt.Errorf("lock products: %w", err)
	}
	locked := make(map[int64]entity.StockLevel, len(ids))
	for rows.Next() {
		var lvl entity.StockLevel
		if err := rows.Scan(&lvl.ProductID, &lvl.Name, &lvl.Stock); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan locked product: %w", err)
		}
		locked[lvl.ProductID] = lvl
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("lock products: %w", err)
	}

	var missing []domain.LineProblem
	var shortages []domain.Shortage
	for _, id := range ids {
		lvl, ok := locked[id]
		if !ok {
			missing = append(missing, domain.LineProblem{Line: -1, ProductID: id, Quantity: totals[id]})
			continue
		}
		if lvl.Stock < totals[id] {
			shortages = append(shortages, domain.Shortage{ProductID: id, Requested: totals[id], Available: lvl.Stock})
		}
	}
	if len(missing) > 0 {
		return nil, &domain.SaleError{Kind: domain.KindUnknownProduct, Lines: missing}
	}
	if len(shortages) > 0 {
		return nil, domain.NewInsufficientStock(shortages...)
	}

	levels := make([]entity.StockLevel, 0, len(ids))
	for _, id := range ids {
		var after int64
		err := l.q.QueryRow(ctx,
			`UPDATE products SET stock = stock - $2, updated_at = now() WHERE id = $1 AND stock >= $2 RETURNING stock`,
			id, totals[id],
		).Scan(&after)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				// La fila está bloqueada por esta tx; no debería ocurrir, pero nunca se deja stock negativo.
				return nil, domain.NewInsufficientStock(domain.Shortage{ProductID: id, Requested: totals[id], Available: locked[id].Stock})
			}
			return nil, fmt.Errorf("decrement stock: %w", err)
		}
		if err := l.journal(ctx, id, entity.MovementTypeOUT, -totals[id], after, reference); err != nil {
			return nil, err
		}
		levels = append(levels, entity.StockLevel{ProductID: id, Name: locked[id].Name, Stock: after})
	}
	return levels, nil
}

// Credit suma quantity al stock del producto y registra un movimiento IN.
func (l *StockLedger) Credit(ctx context.Context, productID, quantity int64, reference string) (*entity.StockLevel, error) {
	if quantity <= 0 {
		return nil, &domain.SaleError{
			Kind:  domain.KindInvalidQuantity,
			Lines: []domain.LineProblem{{Line: -1, ProductID: productID, Quantity: quantity}},
		}
	}
	lvl := entity.StockLevel{ProductID: productID}
	err := l.q.QueryRow(ctx,
		`UPDATE products SET stock = stock + $2, updated_at = now() WHERE id = $1 RETURNING name, stock`,
		productID, quantity,
	).Scan(&lvl.Name, &lvl.Stock)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &domain.SaleError{
				Kind:  domain.KindUnknownProduct,
				Lines: []domain.LineProblem{{Line: -1, ProductID: productID, Quantity: quantity}},
			}
		}
		return nil, fmt.Errorf("credit stock: %w", err)
	}
	if err := l.journal(ctx, productID, entity.MovementTypeIN, quantity, lvl.Stock, reference); err != nil {
		return nil, err
	}
	return &lvl, nil
}

func (l *StockLedger) journal(ctx context.Context, productID int64, movementType string, quantity, after int64, reference string) error {
	_, err := l.q.Exec(ctx, `
		INSERT INTO stock_movements (product_id, type, quantity, stock_after, reference)
		VALUES ($1, $2, $3, $4, $5)`,
		productID, movementType, quantity, after, reference,
	)
	if err != nil {
		return fmt.Errorf("insert stock movement: %w", err)
	}
	return nil
}
