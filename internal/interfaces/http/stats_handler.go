package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/ventas-api/internal/application/reporting"
)

// StatsHandler expone los agregados de reportes.
type StatsHandler struct {
	uc *reporting.StatsUseCase
}

// NewStatsHandler construye el handler.
func NewStatsHandler(uc *reporting.StatsUseCase) *StatsHandler {
	return &StatsHandler{uc: uc}
}

// Get godoc
// @Summary      Estadísticas generales
// @Description  Totales de productos, categorías, clientes y ventas leídos de la misma instantánea.
// @Tags         estadisticas
// @Produce      json
// @Param        umbral  query  int  false  "Umbral de bajo stock"
// @Success      200     {object}  dto.StatsResponse
// @Failure      503     {object}  dto.ErrorResponse
// @Router       /api/estadisticas [get]
func (h *StatsHandler) Get(c *fiber.Ctx) error {
	out, err := h.uc.Get(c.UserContext(), int64(c.QueryInt("umbral", -1)))
	if err != nil {
		return err
	}
	return c.JSON(out)
}
