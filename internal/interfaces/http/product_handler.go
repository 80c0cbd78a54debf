package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/ventas-api/internal/application/dto"
	"github.com/jhoicas/ventas-api/internal/application/usecase"
)

// ProductHandler maneja las peticiones HTTP de productos y de su stock.
type ProductHandler struct {
	uc        *usecase.ProductUseCase
	stock     *usecase.StockUseCase
	threshold int64
}

// NewProductHandler construye el handler. threshold es el umbral de bajo stock por defecto.
func NewProductHandler(uc *usecase.ProductUseCase, stock *usecase.StockUseCase, threshold int64) *ProductHandler {
	return &ProductHandler{uc: uc, stock: stock, threshold: threshold}
}

// Create godoc
// @Summary      Crear producto
// @Tags         productos
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateProductRequest  true  "Datos del producto"
// @Success      201   {object}  dto.ProductResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/productos [post]
func (h *ProductHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateProductRequest
	if err := parseBody(c, &in); err != nil {
		return err
	}
	out, err := h.uc.Create(c.UserContext(), in)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// GetByID godoc
// @Summary      Obtener producto por ID
// @Tags         productos
// @Produce      json
// @Param        id   path  int  true  "ID del producto"
// @Success      200  {object}  dto.ProductResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/productos/{id} [get]
func (h *ProductHandler) GetByID(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return err
	}
	out, err := h.uc.GetByID(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(out)
}

// List godoc
// @Summary      Listar productos
// @Tags         productos
// @Produce      json
// @Param        limit   query  int  false  "Límite"  default(20)
// @Param        offset  query  int  false  "Offset"  default(0)
// @Success      200     {object}  dto.ProductListResponse
// @Router       /api/productos [get]
func (h *ProductHandler) List(c *fiber.Ctx) error {
	var page dto.PageRequest
	if err := parseQuery(c, &page); err != nil {
		return err
	}
	out, err := h.uc.List(c.UserContext(), page)
	if err != nil {
		return err
	}
	return c.JSON(out)
}

// Update godoc
// @Summary      Actualizar producto
// @Description  No modifica el stock; use POST /api/productos/{id}/stock.
// @Tags         productos
// @Accept       json
// @Produce      json
// @Param        id    path  int  true  "ID del producto"
// @Param        body  body  dto.UpdateProductRequest  true  "Datos a actualizar"
// @Success      200   {object}  dto.ProductResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/productos/{id} [put]
func (h *ProductHandler) Update(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return err
	}
	var in dto.UpdateProductRequest
	if err := parseBody(c, &in); err != nil {
		return err
	}
	out, err := h.uc.Update(c.UserContext(), id, in)
	if err != nil {
		return err
	}
	return c.JSON(out)
}

// Delete godoc
// @Summary      Eliminar producto
// @Tags         productos
// @Param        id   path  int  true  "ID del producto"
// @Success      204
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/productos/{id} [delete]
func (h *ProductHandler) Delete(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return err
	}
	if err := h.uc.Delete(c.UserContext(), id); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// LowStock godoc
// @Summary      Productos con bajo stock
// @Tags         productos
// @Produce      json
// @Param        umbral  query  int  false  "Stock máximo incluido"
// @Success      200     {object}  dto.LowStockResponse
// @Router       /api/productos/bajo-stock [get]
func (h *ProductHandler) LowStock(c *fiber.Ctx) error {
	threshold := int64(c.QueryInt("umbral", int(h.threshold)))
	out, err := h.uc.LowStock(c.UserContext(), threshold)
	if err != nil {
		return err
	}
	return c.JSON(out)
}

// Credit godoc
// @Summary      Reponer stock
// @Tags         productos
// @Accept       json
// @Produce      json
// @Param        id    path  int                     true  "ID del producto"
// @Param        body  body  dto.StockCreditRequest  true  "Cantidad a sumar"
// @Success      200   {object}  dto.StockLevelResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/productos/{id}/stock [post]
func (h *ProductHandler) Credit(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return err
	}
	var in dto.StockCreditRequest
	if err := parseBody(c, &in); err != nil {
		return err
	}
	out, err := h.stock.Credit(c.UserContext(), id, in)
	if err != nil {
		return err
	}
	return c.JSON(out)
}

// Movements godoc
// @Summary      Diario de stock del producto
// @Tags         productos
// @Produce      json
// @Param        id      path   int  true   "ID del producto"
// @Param        limit   query  int  false  "Límite"  default(20)
// @Param        offset  query  int  false  "Offset"  default(0)
// @Success      200     {object}  dto.StockMovementListResponse
// @Failure      404     {object}  dto.ErrorResponse
// @Router       /api/productos/{id}/movimientos [get]
func (h *ProductHandler) Movements(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return err
	}
	var page dto.PageRequest
	if err := parseQuery(c, &page); err != nil {
		return err
	}
	out, err := h.stock.Movements(c.UserContext(), id, page)
	if err != nil {
		return err
	}
	return c.JSON(out)
}
