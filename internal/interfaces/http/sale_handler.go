package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/ventas-api/internal/application/dto"
	"github.com/jhoicas/ventas-api/internal/application/sales"
)

// HeaderIdempotencyKey cabecera con la referencia (UUID) de la venta.
const HeaderIdempotencyKey = "Idempotency-Key"

// SaleHandler maneja las peticiones HTTP de ventas.
type SaleHandler struct {
	create *sales.CreateSaleUseCase
	query  *sales.QueryUseCase
}

// NewSaleHandler construye el handler.
func NewSaleHandler(create *sales.CreateSaleUseCase, query *sales.QueryUseCase) *SaleHandler {
	return &SaleHandler{create: create, query: query}
}

// Create godoc
// @Summary      Registrar venta
// @Description  Descuenta stock y persiste la venta en una sola transacción. Reenviar la misma Idempotency-Key devuelve la venta original.
// @Tags         ventas
// @Accept       json
// @Produce      json
// @Param        Idempotency-Key  header  string                 false  "UUID de la venta"
// @Param        body             body    dto.CreateSaleRequest  true   "Carrito"
// @Success      201   {object}  dto.SaleResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Failure      503   {object}  dto.ErrorResponse
// @Router       /api/ventas [post]
func (h *SaleHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateSaleRequest
	if err := parseBody(c, &in); err != nil {
		return err
	}
	out, err := h.create.CreateSale(c.UserContext(), c.Get(HeaderIdempotencyKey), in)
	if err != nil {
		return err
	}
	c.Set(HeaderIdempotencyKey, out.Reference)
	return c.Status(fiber.StatusCreated).JSON(out)
}

// GetByID godoc
// @Summary      Obtener venta con detalles
// @Tags         ventas
// @Produce      json
// @Param        id   path  int  true  "ID de la venta"
// @Success      200  {object}  dto.SaleResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/ventas/{id} [get]
func (h *SaleHandler) GetByID(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return err
	}
	out, err := h.query.GetByID(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(out)
}

// List godoc
// @Summary      Listar ventas
// @Tags         ventas
// @Produce      json
// @Param        limit   query  int  false  "Límite"  default(20)
// @Param        offset  query  int  false  "Offset"  default(0)
// @Success      200     {object}  dto.SaleListResponse
// @Router       /api/ventas [get]
func (h *SaleHandler) List(c *fiber.Ctx) error {
	var page dto.PageRequest
	if err := parseQuery(c, &page); err != nil {
		return err
	}
	out, err := h.query.List(c.UserContext(), page)
	if err != nil {
		return err
	}
	return c.JSON(out)
}
