package memory

import (
	"cmp"
	"context"
	"fmt"
	"slices"

	"github.com/jhoicas/ventas-api/internal/domain"
	"github.com/jhoicas/ventas-api/internal/domain/entity"
	"github.com/jhoicas/ventas-api/internal/domain/repository"
)

var (
	_ repository.ProductRepository  = (*ProductRepo)(nil)
	_ repository.CategoryRepository = (*CategoryRepo)(nil)
	_ repository.ClientRepository   = (*ClientRepo)(nil)
)

// ProductRepo productos en memoria.
type ProductRepo struct {
	acc access
}

func copyProduct(p *entity.Product) *entity.Product {
	cp := *p
	if p.CategoryID != nil {
		id := *p.CategoryID
		cp.CategoryID = &id
	}
	return &cp
}

func checkProductRefs(st *state, p *entity.Product) error {
	if p.CategoryID != nil {
		if _, ok := st.categories[*p.CategoryID]; !ok {
			return fmt.Errorf("%w: categoría inexistente", domain.ErrInvalidInput)
		}
	}
	if p.Code != "" {
		for id, other := range st.products {
			if id != p.ID && other.Code == p.Code {
				return domain.ErrDuplicate
			}
		}
	}
	return nil
}

// Create guarda el producto y asigna ID.
func (r *ProductRepo) Create(ctx context.Context, p *entity.Product) error {
	if p.Stock < 0 {
		return fmt.Errorf("%w: stock negativo", domain.ErrInvalidInput)
	}
	return r.acc(ctx, true, func(st *state) error {
		if err := checkProductRefs(st, p); err != nil {
			return err
		}
		st.seq.product++
		p.ID = st.seq.product
		st.products[p.ID] = copyProduct(p)
		return nil
	})
}

// GetByID devuelve una copia del producto o (nil, nil).
func (r *ProductRepo) GetByID(ctx context.Context, id int64) (*entity.Product, error) {
	var out *entity.Product
	err := r.acc(ctx, false, func(st *state) error {
		if p, ok := st.products[id]; ok {
			out = copyProduct(p)
		}
		return nil
	})
	return out, err
}

// GetByIDs devuelve los productos existentes indexados por ID.
func (r *ProductRepo) GetByIDs(ctx context.Context, ids []int64) (map[int64]*entity.Product, error) {
	out := make(map[int64]*entity.Product, len(ids))
	err := r.acc(ctx, false, func(st *state) error {
		for _, id := range ids {
			if p, ok := st.products[id]; ok {
				out[id] = copyProduct(p)
			}
		}
		return nil
	})
	return out, err
}

// GetByCode busca por código.
func (r *ProductRepo) GetByCode(ctx context.Context, code string) (*entity.Product, error) {
	var out *entity.Product
	err := r.acc(ctx, false, func(st *state) error {
		for _, p := range st.products {
			if code != "" && p.Code == code {
				out = copyProduct(p)
				return nil
			}
		}
		return nil
	})
	return out, err
}

// Update reemplaza los datos de catálogo conservando el stock vigente.
func (r *ProductRepo) Update(ctx context.Context, p *entity.Product) error {
	return r.acc(ctx, true, func(st *state) error {
		current, ok := st.products[p.ID]
		if !ok {
			return domain.ErrNotFound
		}
		if err := checkProductRefs(st, p); err != nil {
			return err
		}
		next := copyProduct(p)
		next.Stock = current.Stock
		next.CreatedAt = current.CreatedAt
		st.products[p.ID] = next
		return nil
	})
}

// List lista por ID ascendente.
func (r *ProductRepo) List(ctx context.Context, limit, offset int) ([]*entity.Product, error) {
	var out []*entity.Product
	err := r.acc(ctx, false, func(st *state) error {
		all := make([]*entity.Product, 0, len(st.products))
		for _, id := range sortedKeys(st.products) {
			all = append(all, copyProduct(st.products[id]))
		}
		out = page(all, limit, offset)
		return nil
	})
	return out, err
}

// ListLowStock productos con stock <= threshold, el menor stock primero.
func (r *ProductRepo) ListLowStock(ctx context.Context, threshold int64) ([]*entity.Product, error) {
	out := make([]*entity.Product, 0)
	err := r.acc(ctx, false, func(st *state) error {
		for _, id := range sortedKeys(st.products) {
			if p := st.products[id]; p.Stock <= threshold {
				out = append(out, copyProduct(p))
			}
		}
		return nil
	})
	// estable: a igual stock se conserva el orden por ID
	slices.SortStableFunc(out, func(a, b *entity.Product) int { return cmp.Compare(a.Stock, b.Stock) })
	return out, err
}

// Delete elimina el producto; si figura en alguna venta devuelve domain.ErrConflict.
func (r *ProductRepo) Delete(ctx context.Context, id int64) error {
	return r.acc(ctx, true, func(st *state) error {
		if _, ok := st.products[id]; !ok {
			return domain.ErrNotFound
		}
		for _, details := range st.details {
			for _, d := range details {
				if d.ProductID == id {
					return domain.ErrConflict
				}
			}
		}
		delete(st.products, id)
		kept := st.movements[:0:0]
		for _, m := range st.movements {
			if m.ProductID != id {
				kept = append(kept, m)
			}
		}
		st.movements = kept
		return nil
	})
}

// CategoryRepo categorías en memoria.
type CategoryRepo struct {
	acc access
}

// Create guarda la categoría y asigna ID.
func (r *CategoryRepo) Create(ctx context.Context, c *entity.Category) error {
	return r.acc(ctx, true, func(st *state) error {
		st.seq.category++
		c.ID = st.seq.category
		cp := *c
		st.categories[c.ID] = &cp
		return nil
	})
}

// GetByID devuelve una copia o (nil, nil).
func (r *CategoryRepo) GetByID(ctx context.Context, id int64) (*entity.Category, error) {
	var out *entity.Category
	err := r.acc(ctx, false, func(st *state) error {
		if c, ok := st.categories[id]; ok {
			cp := *c
			out = &cp
		}
		return nil
	})
	return out, err
}

// Update reemplaza nombre y descripción.
func (r *CategoryRepo) Update(ctx context.Context, c *entity.Category) error {
	return r.acc(ctx, true, func(st *state) error {
		current, ok := st.categories[c.ID]
		if !ok {
			return domain.ErrNotFound
		}
		cp := *c
		cp.CreatedAt = current.CreatedAt
		st.categories[c.ID] = &cp
		return nil
	})
}

// List lista por ID ascendente.
func (r *CategoryRepo) List(ctx context.Context, limit, offset int) ([]*entity.Category, error) {
	var out []*entity.Category
	err := r.acc(ctx, false, func(st *state) error {
		all := make([]*entity.Category, 0, len(st.categories))
		for _, id := range sortedKeys(st.categories) {
			cp := *st.categories[id]
			all = append(all, &cp)
		}
		out = page(all, limit, offset)
		return nil
	})
	return out, err
}

// Delete elimina la categoría y desasocia sus productos.
func (r *CategoryRepo) Delete(ctx context.Context, id int64) error {
	return r.acc(ctx, true, func(st *state) error {
		if _, ok := st.categories[id]; !ok {
			return domain.ErrNotFound
		}
		delete(st.categories, id)
		for _, p := range st.products {
			if p.CategoryID != nil && *p.CategoryID == id {
				p.CategoryID = nil
			}
		}
		return nil
	})
}

// ClientRepo clientes en memoria.
type ClientRepo struct {
	acc access
}

// Create guarda el cliente y asigna ID.
func (r *ClientRepo) Create(ctx context.Context, c *entity.Client) error {
	return r.acc(ctx, true, func(st *state) error {
		st.seq.client++
		c.ID = st.seq.client
		cp := *c
		st.clients[c.ID] = &cp
		return nil
	})
}

// GetByID devuelve una copia o (nil, nil).
func (r *ClientRepo) GetByID(ctx context.Context, id int64) (*entity.Client, error) {
	var out *entity.Client
	err := r.acc(ctx, false, func(st *state) error {
		if c, ok := st.clients[id]; ok {
			cp := *c
			out = &cp
		}
		return nil
	})
	return out, err
}

// Update reemplaza los datos de contacto.
func (r *ClientRepo) Update(ctx context.Context, c *entity.Client) error {
	return r.acc(ctx, true, func(st *state) error {
		current, ok := st.clients[c.ID]
		if !ok {
			return domain.ErrNotFound
		}
		cp := *c
		cp.CreatedAt = current.CreatedAt
		st.clients[c.ID] = &cp
		return nil
	})
}

// List lista por ID ascendente.
func (r *ClientRepo) List(ctx context.Context, limit, offset int) ([]*entity.Client, error) {
	var out []*entity.Client
	err := r.acc(ctx, false, func(st *state) error {
		all := make([]*entity.Client, 0, len(st.clients))
		for _, id := range sortedKeys(st.clients) {
			cp := *st.clients[id]
			all = append(all, &cp)
		}
		out = page(all, limit, offset)
		return nil
	})
	return out, err
}

// Delete elimina el cliente; sus ventas quedan anónimas.
func (r *ClientRepo) Delete(ctx context.Context, id int64) error {
	return r.acc(ctx, true, func(st *state) error {
		if _, ok := st.clients[id]; !ok {
			return domain.ErrNotFound
		}
		delete(st.clients, id)
		for _, s := range st.sales {
			if s.ClientID != nil && *s.ClientID == id {
				s.ClientID = nil
			}
		}
		return nil
	})
}
