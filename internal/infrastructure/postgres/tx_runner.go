package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/ventas-api/internal/application/outbox"
	"github.com/jhoicas/ventas-api/internal/application/reporting"
	"github.com/jhoicas/ventas-api/internal/application/sales"
	"github.com/jhoicas/ventas-api/internal/application/usecase"
	"github.com/jhoicas/ventas-api/internal/domain/repository"
)

var (
	_ sales.TxRunner        = (*TxRunner)(nil)
	_ reporting.TxRunner    = (*TxRunner)(nil)
	_ usecase.StockTxRunner = (*TxRunner)(nil)
	_ outbox.TxRunner       = (*TxRunner)(nil)
)

// TxRunner ejecuta callbacks dentro de una transacción PostgreSQL.
type TxRunner struct {
	db DB
}

// NewTxRunner construye el runner con el pool.
func NewTxRunner(db DB) *TxRunner {
	return &TxRunner{db: db}
}

// RunSale inicia una transacción con el libro de stock y los repos de venta atados a ella.
// Commit si fn no falla; Rollback en cualquier otro caso (incluida la cancelación de ctx).
func (r *TxRunner) RunSale(ctx context.Context, fn func(
	ledger repository.StockLedger,
	productRepo repository.ProductRepository,
	clientRepo repository.ClientRepository,
	saleRepo repository.SaleRepository,
	outboxRepo repository.OutboxRepository,
) error) error {
	return r.run(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted}, func(tx pgx.Tx) error {
		return fn(
			NewStockLedger(tx),
			NewProductRepository(tx),
			NewClientRepository(tx),
			NewSaleRepository(tx),
			NewOutboxRepository(tx),
		)
	})
}

// RunStock inicia una transacción para operaciones del libro fuera del flujo de venta (créditos).
func (r *TxRunner) RunStock(ctx context.Context, fn func(ledger repository.StockLedger) error) error {
	return r.run(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted}, func(tx pgx.Tx) error {
		return fn(NewStockLedger(tx))
	})
}

// RunOutbox ejecuta fn con el outbox atado a una tx: los eventos leídos quedan bloqueados hasta el Commit.
func (r *TxRunner) RunOutbox(ctx context.Context, fn func(outboxRepo repository.OutboxRepository) error) error {
	return r.run(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted}, func(tx pgx.Tx) error {
		return fn(NewOutboxRepository(tx))
	})
}

// RunReadOnly ejecuta fn sobre una instantánea REPEATABLE READ de solo lectura:
// todas las consultas ven el mismo estado confirmado.
func (r *TxRunner) RunReadOnly(ctx context.Context, fn func(reportRepo repository.ReportRepository) error) error {
	opts := pgx.TxOptions{IsoLevel: pgx.RepeatableRead, AccessMode: pgx.ReadOnly}
	return r.run(ctx, opts, func(tx pgx.Tx) error {
		return fn(NewReportRepository(tx))
	})
}

func (r *TxRunner) run(ctx context.Context, opts pgx.TxOptions, fn func(tx pgx.Tx) error) error {
	tx, err := r.db.BeginTx(ctx, opts)
	if err != nil {
		return markTransient(fmt.Errorf("begin transaction: %w", err))
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(tx); err != nil {
		return markTransient(err)
	}
	if err := tx.Commit(ctx); err != nil {
		return markTransient(fmt.Errorf("commit transaction: %w", err))
	}
	return nil
}
