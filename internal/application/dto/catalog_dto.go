package dto

import "time"

// CategoryRequest entrada para crear o actualizar una categoría.
type CategoryRequest struct {
	Name        string `json:"nombre" validate:"required,min=1,max=120"`
	Description string `json:"descripcion" validate:"max=1000"`
}

// CategoryResponse salida de una categoría.
type CategoryResponse struct {
	ID          int64     `json:"id"`
	Name        string    `json:"nombre"`
	Description string    `json:"descripcion"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// CategoryListResponse lista paginada de categorías.
type CategoryListResponse struct {
	Items []CategoryResponse `json:"items"`
	Page  PageResponse       `json:"page"`
}

// ClientRequest entrada para crear o actualizar un cliente.
type ClientRequest struct {
	Name    string `json:"nombre" validate:"required,min=1,max=200"`
	Email   string `json:"email" validate:"omitempty,email"`
	Phone   string `json:"telefono" validate:"max=40"`
	Address string `json:"direccion" validate:"max=300"`
}

// ClientResponse salida de un cliente.
type ClientResponse struct {
	ID        int64     `json:"id"`
	Name      string    `json:"nombre"`
	Email     string    `json:"email,omitempty"`
	Phone     string    `json:"telefono,omitempty"`
	Address   string    `json:"direccion,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ClientListResponse lista paginada de clientes.
type ClientListResponse struct {
	Items []ClientResponse `json:"items"`
	Page  PageResponse     `json:"page"`
}
