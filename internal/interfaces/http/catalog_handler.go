package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/ventas-api/internal/application/dto"
	"github.com/jhoicas/ventas-api/internal/application/usecase"
)

// CategoryHandler CRUD HTTP de categorías.
type CategoryHandler struct {
	uc *usecase.CategoryUseCase
}

// NewCategoryHandler construye el handler.
func NewCategoryHandler(uc *usecase.CategoryUseCase) *CategoryHandler {
	return &CategoryHandler{uc: uc}
}

// Create godoc
// @Summary  Crear categoría
// @Tags     categorias
// @Accept   json
// @Produce  json
// @Param    body  body  dto.CategoryRequest  true  "Categoría"
// @Success  201   {object}  dto.CategoryResponse
// @Failure  400   {object}  dto.ErrorResponse
// @Router   /api/categorias [post]
func (h *CategoryHandler) Create(c *fiber.Ctx) error {
	var in dto.CategoryRequest
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
// @Summary  Obtener categoría
// @Tags     categorias
// @Produce  json
// @Param    id   path  int  true  "ID"
// @Success  200  {object}  dto.CategoryResponse
// @Failure  404  {object}  dto.ErrorResponse
// @Router   /api/categorias/{id} [get]
func (h *CategoryHandler) GetByID(c *fiber.Ctx) error {
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
// @Summary  Listar categorías
// @Tags     categorias
// @Produce  json
// @Success  200  {object}  dto.CategoryListResponse
// @Router   /api/categorias [get]
func (h *CategoryHandler) List(c *fiber.Ctx) error {
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
// @Summary  Actualizar categoría
// @Tags     categorias
// @Accept   json
// @Produce  json
// @Param    id    path  int                  true  "ID"
// @Param    body  body  dto.CategoryRequest  true  "Categoría"
// @Success  200   {object}  dto.CategoryResponse
// @Failure  404   {object}  dto.ErrorResponse
// @Router   /api/categorias/{id} [put]
func (h *CategoryHandler) Update(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return err
	}
	var in dto.CategoryRequest
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
// @Summary  Eliminar categoría
// @Tags     categorias
// @Param    id   path  int  true  "ID"
// @Success  204
// @Failure  404  {object}  dto.ErrorResponse
// @Router   /api/categorias/{id} [delete]
func (h *CategoryHandler) Delete(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return err
	}
	if err := h.uc.Delete(c.UserContext(), id); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// ClientHandler CRUD HTTP de clientes.
type ClientHandler struct {
	uc *usecase.ClientUseCase
}

// NewClientHandler construye el handler.
func NewClientHandler(uc *usecase.ClientUseCase) *ClientHandler {
	return &ClientHandler{uc: uc}
}

// Create godoc
// @Summary  Crear cliente
// @Tags     clientes
// @Accept   json
// @Produce  json
// @Param    body  body  dto.ClientRequest  true  "Cliente"
// @Success  201   {object}  dto.ClientResponse
// @Failure  400   {object}  dto.ErrorResponse
// @Router   /api/clientes [post]
func (h *ClientHandler) Create(c *fiber.Ctx) error {
	var in dto.ClientRequest
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
// @Summary  Obtener cliente
// @Tags     clientes
// @Produce  json
// @Param    id   path  int  true  "ID"
// @Success  200  {object}  dto.ClientResponse
// @Failure  404  {object}  dto.ErrorResponse
// @Router   /api/clientes/{id} [get]
func (h *ClientHandler) GetByID(c *fiber.Ctx) error {
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
// @Summary  Listar clientes
// @Tags     clientes
// @Produce  json
// @Success  200  {object}  dto.ClientListResponse
// @Router   /api/clientes [get]
func (h *ClientHandler) List(c *fiber.Ctx) error {
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
// @Summary  Actualizar cliente
// @Tags     clientes
// @Accept   json
// @Produce  json
// @Param    id    path  int                true  "ID"
// @Param    body  body  dto.ClientRequest  true  "Cliente"
// @Success  200   {object}  dto.ClientResponse
// @Failure  404   {object}  dto.ErrorResponse
// @Router   /api/clientes/{id} [put]
func (h *ClientHandler) Update(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return err
	}
	var in dto.ClientRequest
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
// @Summary  Eliminar cliente
// @Tags     clientes
// @Param    id   path  int  true  "ID"
// @Success  204
// @Failure  404  {object}  dto.ErrorResponse
// @Router   /api/clientes/{id} [delete]
func (h *ClientHandler) Delete(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return err
	}
	if err := h.uc.Delete(c.UserContext(), id); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}
