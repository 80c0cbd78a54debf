package memory

import (
	"context"
	"math"
	"slices"
	"time"

	"github.com/jhoicas/ventas-api/internal/domain"
	"github.com/jhoicas/ventas-api/internal/domain/entity"
	"github.com/jhoicas/ventas-api/internal/domain/repository"
)

var (
	_ repository.SaleRepository          = (*SaleRepo)(nil)
	_ repository.StockLedger             = (*StockLedger)(nil)
	_ repository.StockMovementRepository = (*StockMovementRepo)(nil)
	_ repository.OutboxRepository        = (*OutboxRepo)(nil)
	_ repository.ReportRepository        = (*ReportRepo)(nil)
)

// SaleRepo ventas en memoria.
type SaleRepo struct {
	acc access
}

func copySale(s *entity.Sale) *entity.Sale {
	cp := *s
	cp.Details = nil
	if s.ClientID != nil {
		id := *s.ClientID
		cp.ClientID = &id
	}
	return &cp
}

// Create guarda la cabecera. Una referencia repetida devuelve domain.ErrDuplicate.
func (r *SaleRepo) Create(ctx context.Context, s *entity.Sale) error {
	return r.acc(ctx, true, func(st *state) error {
		if _, ok := st.references[s.Reference]; ok {
			return domain.ErrDuplicate
		}
		if s.ClientID != nil {
			if _, ok := st.clients[*s.ClientID]; !ok {
				return &domain.SaleError{Kind: domain.KindUnknownClient, ClientID: *s.ClientID}
			}
		}
		st.seq.sale++
		s.ID = st.seq.sale
		st.sales[s.ID] = copySale(s)
		st.references[s.Reference] = s.ID
		return nil
	})
}

// CreateDetail agrega una línea a una venta existente.
func (r *SaleRepo) CreateDetail(ctx context.Context, d *entity.SaleDetail) error {
	return r.acc(ctx, true, func(st *state) error {
		if _, ok := st.sales[d.SaleID]; !ok {
			return domain.ErrNotFound
		}
		if _, ok := st.products[d.ProductID]; !ok {
			return &domain.SaleError{Kind: domain.KindUnknownProduct, Lines: []domain.LineProblem{{Line: -1, ProductID: d.ProductID, Quantity: d.Quantity}}}
		}
		st.seq.detail++
		d.ID = st.seq.detail
		cp := *d
		cp.ProductName = ""
		st.details[d.SaleID] = append(slices.Clip(st.details[d.SaleID]), &cp)
		return nil
	})
}

// GetByID devuelve la cabecera o (nil, nil).
func (r *SaleRepo) GetByID(ctx context.Context, id int64) (*entity.Sale, error) {
	var out *entity.Sale
	err := r.acc(ctx, false, func(st *state) error {
		if s, ok := st.sales[id]; ok {
			out = copySale(s)
		}
		return nil
	})
	return out, err
}

// GetByReference busca por la clave de idempotencia.
func (r *SaleRepo) GetByReference(ctx context.Context, reference string) (*entity.Sale, error) {
	var out *entity.Sale
	err := r.acc(ctx, false, func(st *state) error {
		if id, ok := st.references[reference]; ok {
			out = copySale(st.sales[id])
		}
		return nil
	})
	return out, err
}

// GetDetails devuelve las líneas en orden de inserción con el nombre del producto.
func (r *SaleRepo) GetDetails(ctx context.Context, saleID int64) ([]*entity.SaleDetail, error) {
	out := make([]*entity.SaleDetail, 0)
	err := r.acc(ctx, false, func(st *state) error {
		for _, d := range st.details[saleID] {
			cp := *d
			if p, ok := st.products[d.ProductID]; ok {
				cp.ProductName = p.Name
			}
			out = append(out, &cp)
		}
		return nil
	})
	return out, err
}

// List lista cabeceras, la más reciente primero.
func (r *SaleRepo) List(ctx context.Context, limit, offset int) ([]*entity.Sale, error) {
	var out []*entity.Sale
	err := r.acc(ctx, false, func(st *state) error {
		ids := sortedKeys(st.sales)
		slices.Reverse(ids)
		all := make([]*entity.Sale, 0, len(ids))
		for _, id := range ids {
			all = append(all, copySale(st.sales[id]))
		}
		out = page(all, limit, offset)
		return nil
	})
	return out, err
}

// StockLedger libro de stock en memoria. Dentro de RunSale/RunStock el candado del almacén
// ya serializa a los escritores, así que basta con verificar antes de descontar.
type StockLedger struct {
	acc access
	now func() time.Time
}

// ReserveAndCommit verifica todas las solicitudes agregadas por producto y luego descuenta.
func (l *StockLedger) ReserveAndCommit(ctx context.Context, reference string, requests []entity.StockRequest) ([]entity.StockLevel, error) {
	totals := make(map[int64]int64, len(requests))
	for _, req := range requests {
		if req.Quantity <= 0 {
			return nil, &domain.SaleError{
				Kind:  domain.KindInvalidQuantity,
				Lines: []domain.LineProblem{{Line: -1, ProductID: req.ProductID, Quantity: req.Quantity}},
			}
		}
		// La suma por producto no puede desbordar int64.
		if req.Quantity > math.MaxInt64-totals[req.ProductID] {
			return nil, &domain.SaleError{
				Kind:  domain.KindInvalidQuantity,
				Lines: []domain.LineProblem{{Line: -1, ProductID: req.ProductID, Quantity: req.Quantity}},
			}
		}
		totals[req.ProductID] += req.Quantity
	}
	ids := sortedKeys(totals)

	var levels []entity.StockLevel
	err := l.acc(ctx, true, func(st *state) error {
		var missing []domain.LineProblem
		var shortages []domain.Shortage
		for _, id := range ids {
			p, ok := st.products[id]
			if !ok {
				missing = append(missing, domain.LineProblem{Line: -1, ProductID: id, Quantity: totals[id]})
				continue
			}
			if p.Stock < totals[id] {
				shortages = append(shortages, domain.Shortage{ProductID: id, Requested: totals[id], Available: p.Stock})
			}
		}
		if len(missing) > 0 {
			return &domain.SaleError{Kind: domain.KindUnknownProduct, Lines: missing}
		}
		if len(shortages) > 0 {
			return domain.NewInsufficientStock(shortages...)
		}

		now := l.now()
		levels = make([]entity.StockLevel, 0, len(ids))
		for _, id := range ids {
			p := st.products[id]
			p.Stock -= totals[id]
			p.UpdatedAt = now
			journal(st, id, entity.MovementTypeOUT, -totals[id], p.Stock, reference, now)
			levels = append(levels, entity.StockLevel{ProductID: id, Name: p.Name, Stock: p.Stock})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return levels, nil
}

// Credit suma existencias y registra un movimiento IN.
func (l *StockLedger) Credit(ctx context.Context, productID, quantity int64, reference string) (*entity.StockLevel, error) {
	if quantity <= 0 {
		return nil, &domain.SaleError{
			Kind:  domain.KindInvalidQuantity,
			Lines: []domain.LineProblem{{Line: -1, ProductID: productID, Quantity: quantity}},
		}
	}
	var lvl *entity.StockLevel
	err := l.acc(ctx, true, func(st *state) error {
		p, ok := st.products[productID]
		if !ok {
			return &domain.SaleError{
				Kind:  domain.KindUnknownProduct,
				Lines: []domain.LineProblem{{Line: -1, ProductID: productID, Quantity: quantity}},
			}
		}
		now := l.now()
		p.Stock += quantity
		p.UpdatedAt = now
		journal(st, productID, entity.MovementTypeIN, quantity, p.Stock, reference, now)
		lvl = &entity.StockLevel{ProductID: productID, Name: p.Name, Stock: p.Stock}
		return nil
	})
	return lvl, err
}

func journal(st *state, productID int64, movementType string, quantity, after int64, reference string, at time.Time) {
	st.seq.movement++
	st.movements = append(st.movements, &entity.StockMovement{
		ID:         st.seq.movement,
		ProductID:  productID,
		Type:       movementType,
		Quantity:   quantity,
		StockAfter: after,
		Reference:  reference,
		CreatedAt:  at,
	})
}

// StockMovementRepo lectura del diario.
type StockMovementRepo struct {
	acc access
}

// ListByProduct movimientos de un producto, el más reciente primero.
func (r *StockMovementRepo) ListByProduct(ctx context.Context, productID int64, limit, offset int) ([]*entity.StockMovement, error) {
	var out []*entity.StockMovement
	err := r.acc(ctx, false, func(st *state) error {
		all := make([]*entity.StockMovement, 0)
		for i := len(st.movements) - 1; i >= 0; i-- {
			if m := st.movements[i]; m.ProductID == productID {
				cp := *m
				all = append(all, &cp)
			}
		}
		out = page(all, limit, offset)
		return nil
	})
	return out, err
}

// OutboxRepo eventos pendientes en memoria.
type OutboxRepo struct {
	acc access
	now func() time.Time
}

// Insert agrega un evento. El event_id es único como en la tabla outbox.
func (r *OutboxRepo) Insert(ctx context.Context, e *entity.OutboxEvent) error {
	return r.acc(ctx, true, func(st *state) error {
		for _, existing := range st.outbox {
			if existing.EventID == e.EventID {
				return domain.ErrDuplicate
			}
		}
		st.seq.outbox++
		e.ID = st.seq.outbox
		e.CreatedAt = r.now()
		cp := *e
		st.outbox = append(st.outbox, &cp)
		return nil
	})
}

// FetchPending devuelve hasta limit eventos sin enviar, en orden de creación.
func (r *OutboxRepo) FetchPending(ctx context.Context, limit int) ([]*entity.OutboxEvent, error) {
	out := make([]*entity.OutboxEvent, 0)
	err := r.acc(ctx, false, func(st *state) error {
		for _, e := range st.outbox {
			if e.SentAt != nil {
				continue
			}
			if limit > 0 && len(out) == limit {
				break
			}
			cp := *e
			out = append(out, &cp)
		}
		return nil
	})
	return out, err
}

// MarkSent marca el evento como publicado.
func (r *OutboxRepo) MarkSent(ctx context.Context, id int64) error {
	return r.acc(ctx, true, func(st *state) error {
		for i, e := range st.outbox {
			if e.ID == id {
				cp := *e
				at := r.now()
				cp.SentAt = &at
				st.outbox[i] = &cp
				return nil
			}
		}
		return domain.ErrNotFound
	})
}

// ReportRepo agregados sobre la instantánea de RunReadOnly.
type ReportRepo struct {
	acc access
}

// GetStats cuenta y suma sobre el estado de la transacción.
func (r *ReportRepo) GetStats(ctx context.Context, lowStockThreshold int64) (*repository.StatsResult, error) {
	var out repository.StatsResult
	err := r.acc(ctx, false, func(st *state) error {
		out.Products = int64(len(st.products))
		out.Categories = int64(len(st.categories))
		out.Clients = int64(len(st.clients))
		out.Sales = int64(len(st.sales))
		for _, s := range st.sales {
			out.Revenue = out.Revenue.Add(s.Total)
		}
		for _, p := range st.products {
			if p.Stock <= lowStockThreshold {
				out.LowStockCount++
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}
