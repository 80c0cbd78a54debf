package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/ventas-api/internal/application/dto"
	"github.com/jhoicas/ventas-api/internal/domain"
	"github.com/jhoicas/ventas-api/internal/domain/catalog"
	"github.com/jhoicas/ventas-api/internal/domain/entity"
	"github.com/jhoicas/ventas-api/internal/domain/repository"
	"github.com/jhoicas/ventas-api/internal/domain/sales"
)

// ProductUseCase casos de uso CRUD para productos. Stock solo cambia vía ventas y créditos del libro.
type ProductUseCase struct {
	repo         repository.ProductRepository
	categoryRepo repository.CategoryRepository
}

// NewProductUseCase construye el caso de uso.
func NewProductUseCase(repo repository.ProductRepository, categoryRepo repository.CategoryRepository) *ProductUseCase {
	return &ProductUseCase{repo: repo, categoryRepo: categoryRepo}
}

// Create crea un nuevo producto con su stock inicial. Sin código, se deriva del nombre.
func (uc *ProductUseCase) Create(ctx context.Context, in dto.CreateProductRequest) (*dto.ProductResponse, error) {
	if err := validateMoney(in.Price, in.Cost); err != nil {
		return nil, err
	}
	if in.Stock < 0 {
		return nil, fmt.Errorf("%w: stock negativo", domain.ErrInvalidInput)
	}
	if err := uc.checkCategory(ctx, in.CategoryID); err != nil {
		return nil, err
	}
	code := in.Code
	if code == "" {
		code = catalog.CodeFromName(in.Name)
	}
	if code != "" {
		existing, err := uc.repo.GetByCode(ctx, code)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			return nil, domain.ErrDuplicate
		}
	}

	now := time.Now().UTC()
	price := in.Price.Round(sales.MoneyPlaces)
	cost := in.Cost.Round(sales.MoneyPlaces)
	product := &entity.Product{
		Name:        in.Name,
		Description: in.Description,
		Price:       price,
		Cost:        cost,
		Margin:      sales.MarginPercent(price, cost),
		Stock:       in.Stock,
		CategoryID:  in.CategoryID,
		Code:        code,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := uc.repo.Create(ctx, product); err != nil {
		return nil, err
	}
	return ToProductResponse(product), nil
}

// GetByID obtiene un producto por ID.
func (uc *ProductUseCase) GetByID(ctx context.Context, id int64) (*dto.ProductResponse, error) {
	product, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, domain.ErrNotFound
	}
	return ToProductResponse(product), nil
}

// Update actualiza un producto. No modifica Stock; el margen se recalcula.
func (uc *ProductUseCase) Update(ctx context.Context, id int64, in dto.UpdateProductRequest) (*dto.ProductResponse, error) {
	product, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, domain.ErrNotFound
	}
	if in.Name != nil {
		product.Name = *in.Name
	}
	if in.Description != nil {
		product.Description = *in.Description
	}
	if in.Price != nil {
		product.Price = in.Price.Round(sales.MoneyPlaces)
	}
	if in.Cost != nil {
		product.Cost = in.Cost.Round(sales.MoneyPlaces)
	}
	if err := validateMoney(product.Price, product.Cost); err != nil {
		return nil, err
	}
	if in.CategoryID != nil {
		if *in.CategoryID == 0 {
			product.CategoryID = nil
		} else {
			if err := uc.checkCategory(ctx, in.CategoryID); err != nil {
				return nil, err
			}
			product.CategoryID = in.CategoryID
		}
	}
	if in.Code != nil && *in.Code != product.Code {
		if *in.Code != "" {
			existing, err := uc.repo.GetByCode(ctx, *in.Code)
			if err != nil {
				return nil, err
			}
			if existing != nil && existing.ID != product.ID {
				return nil, domain.ErrDuplicate
			}
		}
		product.Code = *in.Code
	}
	product.Margin = sales.MarginPercent(product.Price, product.Cost)
	product.UpdatedAt = time.Now().UTC()
	if err := uc.repo.Update(ctx, product); err != nil {
		return nil, err
	}
	// Releer: el stock pudo cambiar por una venta concurrente.
	return uc.GetByID(ctx, id)
}

// List lista productos con paginación.
func (uc *ProductUseCase) List(ctx context.Context, page dto.PageRequest) (*dto.ProductListResponse, error) {
	page.DefaultPage()
	list, err := uc.repo.List(ctx, page.Limit, page.Offset)
	if err != nil {
		return nil, err
	}
	return &dto.ProductListResponse{
		Items: toProductResponses(list),
		Page:  dto.PageResponse{Limit: page.Limit, Offset: page.Offset},
	}, nil
}

// LowStock lista los productos con stock <= threshold, el menor primero.
func (uc *ProductUseCase) LowStock(ctx context.Context, threshold int64) (*dto.LowStockResponse, error) {
	if threshold < 0 {
		return nil, fmt.Errorf("%w: umbral negativo", domain.ErrInvalidInput)
	}
	list, err := uc.repo.ListLowStock(ctx, threshold)
	if err != nil {
		return nil, err
	}
	return &dto.LowStockResponse{Threshold: threshold, Items: toProductResponses(list)}, nil
}

// Delete elimina un producto por ID.
func (uc *ProductUseCase) Delete(ctx context.Context, id int64) error {
	return uc.repo.Delete(ctx, id)
}

func (uc *ProductUseCase) checkCategory(ctx context.Context, id *int64) error {
	if id == nil {
		return nil
	}
	c, err := uc.categoryRepo.GetByID(ctx, *id)
	if err != nil {
		return err
	}
	if c == nil {
		return fmt.Errorf("%w: categoría %d inexistente", domain.ErrInvalidInput, *id)
	}
	return nil
}

func validateMoney(price, cost decimal.Decimal) error {
	if price.IsNegative() || cost.IsNegative() {
		return fmt.Errorf("%w: precio y costo no pueden ser negativos", domain.ErrInvalidInput)
	}
	return nil
}

func toProductResponses(list []*entity.Product) []dto.ProductResponse {
	items := make([]dto.ProductResponse, 0, len(list))
	for _, p := range list {
		items = append(items, *ToProductResponse(p))
	}
	return items
}

// ToProductResponse mapea la entidad al DTO de salida.
func ToProductResponse(p *entity.Product) *dto.ProductResponse {
	if p == nil {
		return nil
	}
	return &dto.ProductResponse{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price,
		Cost:        p.Cost,
		Margin:      p.Margin,
		Stock:       p.Stock,
		CategoryID:  p.CategoryID,
		Code:        p.Code,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}
