package repository

import (
	"context"

	"github.com/shopspring/decimal"
)

// StatsResult agregados crudos del almacén.
type StatsResult struct {
	Products      int64
	Categories    int64
	Clients       int64
	Sales         int64
	Revenue       decimal.Decimal
	LowStockCount int64
}

// ReportRepository consultas de solo lectura para la superficie de reportes.
// Debe ejecutarse sobre una instantánea consistente (ver TxRunner.RunReadOnly).
type ReportRepository interface {
	GetStats(ctx context.Context, lowStockThreshold int64) (*StatsResult, error)
}
