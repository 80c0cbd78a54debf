package sales

import (
	"context"

	"github.com/jhoicas/ventas-api/internal/application/dto"
	"github.com/jhoicas/ventas-api/internal/domain"
	"github.com/jhoicas/ventas-api/internal/domain/entity"
	"github.com/jhoicas/ventas-api/internal/domain/repository"
)

// QueryUseCase lecturas de ventas ya registradas.
type QueryUseCase struct {
	saleRepo repository.SaleRepository
}

// NewQueryUseCase construye el caso de uso.
func NewQueryUseCase(saleRepo repository.SaleRepository) *QueryUseCase {
	return &QueryUseCase{saleRepo: saleRepo}
}

// GetByID devuelve la venta con sus detalles.
func (uc *QueryUseCase) GetByID(ctx context.Context, id int64) (*dto.SaleResponse, error) {
	sale, err := uc.saleRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if sale == nil {
		return nil, domain.ErrNotFound
	}
	details, err := uc.saleRepo.GetDetails(ctx, id)
	if err != nil {
		return nil, err
	}
	sale.Details = details
	return ToSaleResponse(sale), nil
}

// List lista cabeceras de ventas, la más reciente primero.
func (uc *QueryUseCase) List(ctx context.Context, page dto.PageRequest) (*dto.SaleListResponse, error) {
	page.DefaultPage()
	list, err := uc.saleRepo.List(ctx, page.Limit, page.Offset)
	if err != nil {
		return nil, err
	}
	items := make([]dto.SaleSummaryResponse, 0, len(list))
	for _, s := range list {
		items = append(items, dto.SaleSummaryResponse{
			ID: s.ID, ClientID: s.ClientID, Total: s.Total, Date: s.Date, Status: s.Status, Reference: s.Reference,
		})
	}
	return &dto.SaleListResponse{Items: items, Page: dto.PageResponse{Limit: page.Limit, Offset: page.Offset}}, nil
}

// ToSaleResponse mapea la venta y sus detalles al DTO de salida.
func ToSaleResponse(s *entity.Sale) *dto.SaleResponse {
	out := &dto.SaleResponse{
		ID:        s.ID,
		ClientID:  s.ClientID,
		Total:     s.Total,
		Date:      s.Date,
		Status:    s.Status,
		Reference: s.Reference,
		Details:   make([]dto.SaleDetailResponse, 0, len(s.Details)),
	}
	for _, d := range s.Details {
		out.Details = append(out.Details, dto.SaleDetailResponse{
			ID:          d.ID,
			ProductID:   d.ProductID,
			Quantity:    d.Quantity,
			UnitPrice:   d.UnitPrice,
			Subtotal:    d.Subtotal,
			ProductName: d.ProductName,
		})
	}
	return out
}
