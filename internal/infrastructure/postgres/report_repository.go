package postgres

import (
	"context"
	"fmt"

	"github.com/jhoicas/ventas-api/internal/domain/repository"
)

var _ repository.ReportRepository = (*ReportRepo)(nil)

// ReportRepo agregados para /api/estadisticas.
type ReportRepo struct {
	q Querier
}

// NewReportRepository construye el adaptador. Pasar la tx de solo lectura de TxRunner.RunReadOnly.
func NewReportRepository(q Querier) *ReportRepo {
	return &ReportRepo{q: q}
}

// GetStats calcula los conteos y la suma de ventas en una sola sentencia.
func (r *ReportRepo) GetStats(ctx context.Context, lowStockThreshold int64) (*repository.StatsResult, error) {
	var s repository.StatsResult
	err := r.q.QueryRow(ctx, `
		SELECT
			(SELECT COUNT(*) FROM products),
			(SELECT COUNT(*) FROM categories),
			(SELECT COUNT(*) FROM clients),
			(SELECT COUNT(*) FROM sales),
			(SELECT COALESCE(SUM(total), 0) FROM sales),
			(SELECT COUNT(*) FROM products WHERE stock <= $1)`, lowStockThreshold,
	).Scan(&s.Products, &s.Categories, &s.Clients, &s.Sales, &s.Revenue, &s.LowStockCount)
	if err != nil {
		return nil, fmt.Errorf("get stats: %w", err)
	}
	return &s, nil
}
