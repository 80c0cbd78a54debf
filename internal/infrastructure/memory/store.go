// Package memory implementa los puertos de persistencia en memoria, para desarrollo local
// (STORE_DRIVER=memory) y para los tests del motor de ventas.
//
// Una transacción toma el candado del almacén, trabaja sobre una copia del estado y la publica
// al confirmar; si fn falla o el contexto se cancela, la copia se descarta.
package memory

import (
	"context"
	"maps"
	"slices"
	"time"

	"github.com/jhoicas/ventas-api/internal/domain/entity"
	"github.com/jhoicas/ventas-api/internal/domain/repository"
)

type state struct {
	products   map[int64]*entity.Product
	categories map[int64]*entity.Category
	clients    map[int64]*entity.Client
	sales      map[int64]*entity.Sale
	references map[string]int64
	details    map[int64][]*entity.SaleDetail
	movements  []*entity.StockMovement
	outbox     []*entity.OutboxEvent
	seq        sequences
}

type sequences struct {
	product, category, client, sale, detail, movement, outbox int64
}

func newState() *state {
	return &state{
		products:   make(map[int64]*entity.Product),
		categories: make(map[int64]*entity.Category),
		clients:    make(map[int64]*entity.Client),
		sales:      make(map[int64]*entity.Sale),
		references: make(map[string]int64),
		details:    make(map[int64][]*entity.SaleDetail),
	}
}

// clone copia los mapas y los valores mutables. Detalles, movimientos y eventos son inmutables
// una vez escritos (MarkSent reemplaza el puntero), así que basta con copiar los slices.
func (s *state) clone() *state {
	c := &state{
		products:   make(map[int64]*entity.Product, len(s.products)),
		categories: make(map[int64]*entity.Category, len(s.categories)),
		clients:    make(map[int64]*entity.Client, len(s.clients)),
		sales:      make(map[int64]*entity.Sale, len(s.sales)),
		references: make(map[string]int64, len(s.references)),
		details:    make(map[int64][]*entity.SaleDetail, len(s.details)),
		movements:  append([]*entity.StockMovement(nil), s.movements...),
		outbox:     append([]*entity.OutboxEvent(nil), s.outbox...),
		seq:        s.seq,
	}
	for id, p := range s.products {
		cp := *p
		c.products[id] = &cp
	}
	for id, v := range s.categories {
		cp := *v
		c.categories[id] = &cp
	}
	for id, v := range s.clients {
		cp := *v
		c.clients[id] = &cp
	}
	for id, v := range s.sales {
		cp := *v
		c.sales[id] = &cp
	}
	for ref, id := range s.references {
		c.references[ref] = id
	}
	for id, v := range s.details {
		c.details[id] = v
	}
	return c
}

// Store almacén en memoria. Un semáforo de capacidad 1 serializa transacciones y escrituras
// sueltas; esperar por él respeta la cancelación del contexto.
type Store struct {
	sem chan struct{}
	st  *state
	now func() time.Time
}

// NewStore construye un almacén vacío.
func NewStore() *Store {
	return &Store{sem: make(chan struct{}, 1), st: newState(), now: time.Now}
}

func (s *Store) acquire(ctx context.Context) error {
	select {
	case s.sem <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Store) release() { <-s.sem }

// access ejecuta fn sobre un estado. Los repos sueltos usan autocommit; los atados a una tx, el estado de la tx.
// write indica si fn modifica el estado.
type access func(ctx context.Context, write bool, fn func(st *state) error) error

func (s *Store) autocommit(ctx context.Context, write bool, fn func(st *state) error) error {
	if err := s.acquire(ctx); err != nil {
		return err
	}
	defer s.release()
	if !write {
		return fn(s.st)
	}
	next := s.st.clone()
	if err := fn(next); err != nil {
		return err
	}
	s.st = next
	return nil
}

func txAccess(st *state) access {
	return func(ctx context.Context, _ bool, fn func(st *state) error) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		return fn(st)
	}
}

func (s *Store) run(ctx context.Context, readOnly bool, fn func(acc access) error) error {
	if err := s.acquire(ctx); err != nil {
		return err
	}
	defer s.release()

	work := s.st.clone()
	if err := fn(txAccess(work)); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if !readOnly {
		s.st = work
	}
	return nil
}

// Products repositorio de productos en autocommit.
func (s *Store) Products() *ProductRepo { return &ProductRepo{acc: s.autocommit} }

// Categories repositorio de categorías en autocommit.
func (s *Store) Categories() *CategoryRepo { return &CategoryRepo{acc: s.autocommit} }

// Clients repositorio de clientes en autocommit.
func (s *Store) Clients() *ClientRepo { return &ClientRepo{acc: s.autocommit} }

// Sales repositorio de ventas para lecturas.
func (s *Store) Sales() *SaleRepo { return &SaleRepo{acc: s.autocommit} }

// Movements lectura del diario de stock.
func (s *Store) Movements() *StockMovementRepo { return &StockMovementRepo{acc: s.autocommit} }

// Outbox repositorio de eventos en autocommit.
func (s *Store) Outbox() *OutboxRepo { return &OutboxRepo{acc: s.autocommit, now: s.now} }

// RunSale ejecuta fn con los repos del flujo de venta atados a una transacción.
func (s *Store) RunSale(ctx context.Context, fn func(
	ledger repository.StockLedger,
	productRepo repository.ProductRepository,
	clientRepo repository.ClientRepository,
	saleRepo repository.SaleRepository,
	outboxRepo repository.OutboxRepository,
) error) error {
	return s.run(ctx, false, func(acc access) error {
		return fn(
			&StockLedger{acc: acc, now: s.now},
			&ProductRepo{acc: acc},
			&ClientRepo{acc: acc},
			&SaleRepo{acc: acc},
			&OutboxRepo{acc: acc, now: s.now},
		)
	})
}

// RunStock ejecuta fn con el libro de stock atado a una transacción.
func (s *Store) RunStock(ctx context.Context, fn func(ledger repository.StockLedger) error) error {
	return s.run(ctx, false, func(acc access) error {
		return fn(&StockLedger{acc: acc, now: s.now})
	})
}

// RunOutbox ejecuta fn con el outbox atado a una transacción.
func (s *Store) RunOutbox(ctx context.Context, fn func(outboxRepo repository.OutboxRepository) error) error {
	return s.run(ctx, false, func(acc access) error {
		return fn(&OutboxRepo{acc: acc, now: s.now})
	})
}

// RunReadOnly ejecuta fn sobre una instantánea; nada de lo que haga se publica.
func (s *Store) RunReadOnly(ctx context.Context, fn func(reportRepo repository.ReportRepository) error) error {
	return s.run(ctx, true, func(acc access) error {
		return fn(&ReportRepo{acc: acc})
	})
}

func page[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return make([]T, 0)
	}
	end := len(items)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return items[offset:end]
}

func sortedKeys[V any](m map[int64]V) []int64 {
	return slices.Sorted(maps.Keys(m))
}
