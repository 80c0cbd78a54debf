package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/ventas-api/internal/domain"
	"github.com/jhoicas/ventas-api/internal/domain/entity"
	"github.com/jhoicas/ventas-api/internal/domain/repository"
)

var _ repository.SaleRepository = (*SaleRepo)(nil)

const saleColumns = `id, client_id, total, date, status, reference::text`

// SaleRepo implementación de SaleRepository sobre PostgreSQL.
type SaleRepo struct {
	q Querier
}

// NewSaleRepository construye el adaptador de ventas (pool para lecturas, tx para escrituras).
func NewSaleRepository(q Querier) *SaleRepo {
	return &SaleRepo{q: q}
}

// Create inserta la cabecera de la venta y asigna ID y fecha.
func (r *SaleRepo) Create(ctx context.Context, sale *entity.Sale) error {
	err := r.q.QueryRow(ctx, `
		INSERT INTO sales (client_id, total, date, status, reference)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`,
		sale.ClientID, sale.Total, sale.Date, sale.Status, sale.Reference,
	).Scan(&sale.ID)
	if err != nil {
		switch {
		case isUniqueViolation(err):
			return domain.ErrDuplicate
		case isForeignKeyViolation(err):
			return &domain.SaleError{Kind: domain.KindUnknownClient, ClientID: derefID(sale.ClientID)}
		case isNumericOverflow(err):
			return fmt.Errorf("%w: el total %s excede la columna", domain.ErrInvalidInput, sale.Total)
		}
		return fmt.Errorf("insert sale: %w", err)
	}
	return nil
}

// CreateDetail inserta una línea de la venta.
func (r *SaleRepo) CreateDetail(ctx context.Context, d *entity.SaleDetail) error {
	err := r.q.QueryRow(ctx, `
		INSERT INTO sale_details (sale_id, product_id, quantity, unit_price, subtotal)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`,
		d.SaleID, d.ProductID, d.Quantity, d.UnitPrice, d.Subtotal,
	).Scan(&d.ID)
	if err != nil {
		if isNumericOverflow(err) {
			return fmt.Errorf("%w: el subtotal %s excede la columna", domain.ErrInvalidInput, d.Subtotal)
		}
		return fmt.Errorf("insert sale detail: %w", err)
	}
	return nil
}

// GetByID obtiene la cabecera de una venta; (nil, nil) si no existe.
func (r *SaleRepo) GetByID(ctx context.Context, id int64) (*entity.Sale, error) {
	return r.getOne(ctx, `SELECT `+saleColumns+` FROM sales WHERE id = $1`, id)
}

// GetByReference obtiene la venta registrada con una referencia (clave de idempotencia).
func (r *SaleRepo) GetByReference(ctx context.Context, reference string) (*entity.Sale, error) {
	return r.getOne(ctx, `SELECT `+saleColumns+` FROM sales WHERE reference = $1::uuid`, reference)
}

func (r *SaleRepo) getOne(ctx context.Context, query string, arg any) (*entity.Sale, error) {
	var s entity.Sale
	err := r.q.QueryRow(ctx, query, arg).Scan(&s.ID, &s.ClientID, &s.Total, &s.Date, &s.Status, &s.Reference)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get sale: %w", err)
	}
	return &s, nil
}

// GetDetails devuelve las líneas de una venta con el nombre del producto, en orden de inserción.
func (r *SaleRepo) GetDetails(ctx context.Context, saleID int64) ([]*entity.SaleDetail, error) {
	rows, err := r.q.Query(ctx, `
		SELECT d.id, d.sale_id, d.product_id, p.name, d.quantity, d.unit_price, d.subtotal
		FROM sale_details d
		JOIN products p ON p.id = d.product_id
		WHERE d.sale_id = $1
		ORDER BY d.id`, saleID)
	if err != nil {
		return nil, fmt.Errorf("get sale details: %w", err)
	}
	defer rows.Close()
	list := make([]*entity.SaleDetail, 0)
	for rows.Next() {
		var d entity.SaleDetail
		if err := rows.Scan(&d.ID, &d.SaleID, &d.ProductID, &d.ProductName, &d.Quantity, &d.UnitPrice, &d.Subtotal); err != nil {
			return nil, fmt.Errorf("scan sale detail: %w", err)
		}
		list = append(list, &d)
	}
	return list, rows.Err()
}

// List lista cabeceras de ventas, la más reciente primero.
func (r *SaleRepo) List(ctx context.Context, limit, offset int) ([]*entity.Sale, error) {
	rows, err := r.q.Query(ctx, `SELECT `+saleColumns+` FROM sales ORDER BY id DESC LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list sales: %w", err)
	}
	defer rows.Close()
	list := make([]*entity.Sale, 0)
	for rows.Next() {
		var s entity.Sale
		if err := rows.Scan(&s.ID, &s.ClientID, &s.Total, &s.Date, &s.Status, &s.Reference); err != nil {
			return nil, fmt.Errorf("scan sale: %w", err)
		}
		list = append(list, &s)
	}
	return list, rows.Err()
}

func derefID(id *int64) int64 {
	if id == nil {
		return 0
	}
	return *id
}
