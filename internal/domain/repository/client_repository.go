package repository

import (
	"context"

	"github.com/jhoicas/ventas-api/internal/domain/entity"
)

// ClientRepository define el puerto de persistencia para Client.
type ClientRepository interface {
	Create(ctx context.Context, client *entity.Client) error
	GetByID(ctx context.Context, id int64) (*entity.Client, error)
	Update(ctx context.Context, client *entity.Client) error
	List(ctx context.Context, limit, offset int) ([]*entity.Client, error)
	Delete(ctx context.Context, id int64) error
}
