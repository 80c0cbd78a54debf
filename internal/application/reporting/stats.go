// Package reporting agrega estadísticas de solo lectura sobre una instantánea consistente del almacén.
package reporting

import (
	"context"

	"github.com/jhoicas/ventas-api/internal/application/dto"
	"github.com/jhoicas/ventas-api/internal/domain/repository"
)

// TxRunner abre una transacción de solo lectura (REPEATABLE READ en Postgres).
type TxRunner interface {
	RunReadOnly(ctx context.Context, fn func(reportRepo repository.ReportRepository) error) error
}

// StatsUseCase calcula los totales de /api/estadisticas.
type StatsUseCase struct {
	txRunner  TxRunner
	threshold int64
}

// NewStatsUseCase construye el caso de uso con el umbral de bajo stock por defecto.
func NewStatsUseCase(txRunner TxRunner, lowStockThreshold int64) *StatsUseCase {
	return &StatsUseCase{txRunner: txRunner, threshold: lowStockThreshold}
}

// Get devuelve los agregados. threshold < 0 usa el umbral configurado.
func (uc *StatsUseCase) Get(ctx context.Context, threshold int64) (*dto.StatsResponse, error) {
	if threshold < 0 {
		threshold = uc.threshold
	}
	var res *repository.StatsResult
	err := uc.txRunner.RunReadOnly(ctx, func(reportRepo repository.ReportRepository) error {
		var err error
		res, err = reportRepo.GetStats(ctx, threshold)
		return err
	})
	if err != nil {
		return nil, err
	}
	return &dto.StatsResponse{
		Products:          res.Products,
		Categories:        res.Categories,
		Clients:           res.Clients,
		Sales:             res.Sales,
		Revenue:           res.Revenue,
		LowStockProducts:  res.LowStockCount,
		LowStockThreshold: threshold,
	}, nil
}
