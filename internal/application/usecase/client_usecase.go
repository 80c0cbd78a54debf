package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/jhoicas/ventas-api/internal/application/dto"
	"github.com/jhoicas/ventas-api/internal/domain"
	"github.com/jhoicas/ventas-api/internal/domain/entity"
	"github.com/jhoicas/ventas-api/internal/domain/repository"
)

// ClientUseCase CRUD de clientes.
type ClientUseCase struct {
	repo repository.ClientRepository
}

// NewClientUseCase construye el caso de uso.
func NewClientUseCase(repo repository.ClientRepository) *ClientUseCase {
	return &ClientUseCase{repo: repo}
}

// Create crea un cliente. El email se guarda en minúsculas.
func (uc *ClientUseCase) Create(ctx context.Context, in dto.ClientRequest) (*dto.ClientResponse, error) {
	now := time.Now().UTC()
	c := &entity.Client{
		Name:      in.Name,
		Email:     strings.ToLower(strings.TrimSpace(in.Email)),
		Phone:     in.Phone,
		Address:   in.Address,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := uc.repo.Create(ctx, c); err != nil {
		return nil, err
	}
	return toClientResponse(c), nil
}

// GetByID obtiene un cliente.
func (uc *ClientUseCase) GetByID(ctx context.Context, id int64) (*dto.ClientResponse, error) {
	c, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, domain.ErrNotFound
	}
	return toClientResponse(c), nil
}

// Update reemplaza los datos de contacto.
func (uc *ClientUseCase) Update(ctx context.Context, id int64, in dto.ClientRequest) (*dto.ClientResponse, error) {
	c, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, domain.ErrNotFound
	}
	c.Name = in.Name
	c.Email = strings.ToLower(strings.TrimSpace(in.Email))
	c.Phone = in.Phone
	c.Address = in.Address
	c.UpdatedAt = time.Now().UTC()
	if err := uc.repo.Update(ctx, c); err != nil {
		return nil, err
	}
	return toClientResponse(c), nil
}

// List lista clientes.
func (uc *ClientUseCase) List(ctx context.Context, page dto.PageRequest) (*dto.ClientListResponse, error) {
	page.DefaultPage()
	list, err := uc.repo.List(ctx, page.Limit, page.Offset)
	if err != nil {
		return nil, err
	}
	items := make([]dto.ClientResponse, 0, len(list))
	for _, c := range list {
		items = append(items, *toClientResponse(c))
	}
	return &dto.ClientListResponse{Items: items, Page: dto.PageResponse{Limit: page.Limit, Offset: page.Offset}}, nil
}

// Delete elimina un cliente; sus ventas quedan anónimas.
func (uc *ClientUseCase) Delete(ctx context.Context, id int64) error {
	return uc.repo.Delete(ctx, id)
}

func toClientResponse(c *entity.Client) *dto.ClientResponse {
	return &dto.ClientResponse{
		ID:        c.ID,
		Name:      c.Name,
		Email:     c.Email,
		Phone:     c.Phone,
		Address:   c.Address,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}
