package usecase

import (
	"context"

	"github.com/google/uuid"

	"github.com/jhoicas/ventas-api/internal/application/dto"
	"github.com/jhoicas/ventas-api/internal/domain"
	"github.com/jhoicas/ventas-api/internal/domain/entity"
	"github.com/jhoicas/ventas-api/internal/domain/repository"
)

// StockTxRunner ejecuta operaciones del libro de stock dentro de una transacción.
type StockTxRunner interface {
	RunStock(ctx context.Context, fn func(ledger repository.StockLedger) error) error
}

// StockUseCase reposiciones (créditos del libro) y consulta del diario de movimientos.
type StockUseCase struct {
	txRunner     StockTxRunner
	movementRepo repository.StockMovementRepository
	productRepo  repository.ProductRepository
}

// NewStockUseCase construye el caso de uso.
func NewStockUseCase(txRunner StockTxRunner, movementRepo repository.StockMovementRepository, productRepo repository.ProductRepository) *StockUseCase {
	return &StockUseCase{txRunner: txRunner, movementRepo: movementRepo, productRepo: productRepo}
}

// Credit suma existencias al producto. Sin referencia se genera una.
func (uc *StockUseCase) Credit(ctx context.Context, productID int64, in dto.StockCreditRequest) (*dto.StockLevelResponse, error) {
	ref := in.Reference
	if ref == "" {
		ref = uuid.NewString()
	}
	var lvl *entity.StockLevel
	err := uc.txRunner.RunStock(ctx, func(ledger repository.StockLedger) error {
		var err error
		lvl, err = ledger.Credit(ctx, productID, in.Quantity, ref)
		return err
	})
	if err != nil {
		return nil, err
	}
	return &dto.StockLevelResponse{ProductID: lvl.ProductID, Name: lvl.Name, Stock: lvl.Stock, Reference: ref}, nil
}

// Movements lista el diario de un producto, el movimiento más reciente primero.
func (uc *StockUseCase) Movements(ctx context.Context, productID int64, page dto.PageRequest) (*dto.StockMovementListResponse, error) {
	page.DefaultPage()
	p, err := uc.productRepo.GetByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, domain.ErrNotFound
	}
	list, err := uc.movementRepo.ListByProduct(ctx, productID, page.Limit, page.Offset)
	if err != nil {
		return nil, err
	}
	items := make([]dto.StockMovementResponse, 0, len(list))
	for _, m := range list {
		items = append(items, dto.StockMovementResponse{
			ID:         m.ID,
			ProductID:  m.ProductID,
			Type:       m.Type,
			Quantity:   m.Quantity,
			StockAfter: m.StockAfter,
			Reference:  m.Reference,
			CreatedAt:  m.CreatedAt,
		})
	}
	return &dto.StockMovementListResponse{Items: items, Page: dto.PageResponse{Limit: page.Limit, Offset: page.Offset}}, nil
}
