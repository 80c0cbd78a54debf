// Package storage abre el almacén configurado (PostgreSQL o memoria) y expone sus repositorios.
package storage

import (
	"context"
	"fmt"

	"github.com/jhoicas/ventas-api/internal/application/outbox"
	"github.com/jhoicas/ventas-api/internal/application/reporting"
	"github.com/jhoicas/ventas-api/internal/application/sales"
	"github.com/jhoicas/ventas-api/internal/application/usecase"
	"github.com/jhoicas/ventas-api/internal/domain/repository"
	"github.com/jhoicas/ventas-api/internal/infrastructure/memory"
	"github.com/jhoicas/ventas-api/internal/infrastructure/postgres"
	"github.com/jhoicas/ventas-api/pkg/config"
	"github.com/jhoicas/ventas-api/pkg/logger"
)

// TxRunner todas las transacciones que ofrece un almacén.
type TxRunner interface {
	sales.TxRunner
	usecase.StockTxRunner
	reporting.TxRunner
	outbox.TxRunner
}

// Backend repositorios de lectura/escritura fuera de transacción y el ejecutor de transacciones.
type Backend struct {
	Products   repository.ProductRepository
	Categories repository.CategoryRepository
	Clients    repository.ClientRepository
	Sales      repository.SaleRepository
	Movements  repository.StockMovementRepository
	Tx         TxRunner
	close      func()
}

// Close libera el pool de conexiones, si lo hay.
func (b *Backend) Close() {
	if b.close != nil {
		b.close()
	}
}

// Open construye el backend según cfg.Driver. Con postgres aplica el esquema si AutoMigrate.
func Open(ctx context.Context, cfg config.DBConfig, log *logger.Logger) (*Backend, error) {
	switch cfg.Driver {
	case config.StoreDriverMemory:
		log.Warn().Msg("almacén en memoria: los datos se pierden al reiniciar")
		s := memory.NewStore()
		return &Backend{
			Products:   s.Products(),
			Categories: s.Categories(),
			Clients:    s.Clients(),
			Sales:      s.Sales(),
			Movements:  s.Movements(),
			Tx:         s,
		}, nil
	case config.StoreDriverPostgres, "":
		pool, err := postgres.NewPool(ctx, cfg)
		if err != nil {
			return nil, err
		}
		if cfg.AutoMigrate {
			if err := postgres.Migrate(ctx, pool); err != nil {
				pool.Close()
				return nil, err
			}
			log.Info().Msg("esquema aplicado")
		}
		return &Backend{
			Products:   postgres.NewProductRepository(pool),
			Categories: postgres.NewCategoryRepository(pool),
			Clients:    postgres.NewClientRepository(pool),
			Sales:      postgres.NewSaleRepository(pool),
			Movements:  postgres.NewStockMovementRepository(pool),
			Tx:         postgres.NewTxRunner(pool),
			close:      pool.Close,
		}, nil
	}
	return nil, fmt.Errorf("driver de almacén desconocido: %q", cfg.Driver)
}
