package dto

// PageRequest paginación para listados.
type PageRequest struct {
	Limit  int `query:"limit" validate:"min=0,max=100"`
	Offset int `query:"offset" validate:"min=0"`
}

// DefaultPage aplica valores por defecto si Limit/Offset son cero.
func (p *PageRequest) DefaultPage() {
	if p.Limit <= 0 {
		p.Limit = 20
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
}

// PageResponse metadatos de página en respuestas.
type PageResponse struct {
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
	Total  int `json:"total,omitempty"`
}

// ErrorResponse cuerpo de error HTTP. Details identifica las líneas o productos involucrados.
type ErrorResponse struct {
	Code    string        `json:"code"`
	Message string        `json:"message"`
	Details []ErrorDetail `json:"details,omitempty"`
}

// ErrorDetail detalle de un error de venta o de validación.
type ErrorDetail struct {
	Line       *int   `json:"linea,omitempty"`
	ProductID  int64  `json:"producto_id,omitempty"`
	Quantity   int64  `json:"cantidad,omitempty"`
	Requested  int64  `json:"solicitado,omitempty"`
	Available  *int64 `json:"disponible,omitempty"`
	ClientID   int64  `json:"cliente_id,omitempty"`
	Field      string `json:"campo,omitempty"`
	Constraint string `json:"regla,omitempty"`
}
